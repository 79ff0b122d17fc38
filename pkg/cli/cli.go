package cli

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/secmon-lab/gathsalt/pkg/cli/config"
	"github.com/secmon-lab/gathsalt/pkg/utils/errutil"
	"github.com/secmon-lab/gathsalt/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

// loadDotEnv loads .env from the working directory. Variables already set in
// the environment take precedence.
func loadDotEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func Run(ctx context.Context, args []string, version string) error {
	return run(ctx, args, version, os.Stdout)
}

func run(ctx context.Context, args []string, version string, w io.Writer) error {
	var loggerCfg config.Logger
	var sentryCfg config.Sentry
	var closer func()

	if err := loadDotEnv(); err != nil {
		logging.Default().Warn("failed to load .env file", "error", err)
	}

	flags := loggerCfg.Flags()
	flags = append(flags, sentryCfg.Flags()...)

	app := &cli.Command{
		Name:    "gathsalt",
		Usage:   "Social media intelligence capture and analysis",
		Version: version,
		Writer:  w,
		Flags:   flags,
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			f, err := loggerCfg.Configure()
			if err != nil {
				return ctx, err
			}
			closer = f

			if err := sentryCfg.Configure(version); err != nil {
				return ctx, err
			}

			logging.Default().Debug("Starting gathsalt", "logger", loggerCfg, "version", version)
			return ctx, nil
		},
		After: func(ctx context.Context, c *cli.Command) error {
			errutil.FlushSentry()
			if closer != nil {
				closer()
			}
			return nil
		},
		Commands: []*cli.Command{
			cmdServe(),
			cmdCapture(),
			cmdList(),
			cmdDelete(),
			cmdSpeak(),
			cmdMigrate(),
		},
	}

	if err := app.Run(ctx, args); err != nil {
		logging.Default().Error("failed to run app", "error", err)
		return err
	}

	return nil
}
