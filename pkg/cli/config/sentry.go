package config

import (
	"log/slog"

	"github.com/secmon-lab/gathsalt/pkg/utils/errutil"
	"github.com/urfave/cli/v3"
)

// Sentry configures error reporting
type Sentry struct {
	dsn string
	env string
}

func (x *Sentry) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "sentry-dsn",
			Usage:       "Sentry DSN for error reporting",
			Category:    "Sentry",
			Sources:     cli.EnvVars("GATHSALT_SENTRY_DSN"),
			Destination: &x.dsn,
		},
		&cli.StringFlag{
			Name:        "sentry-env",
			Usage:       "Sentry environment",
			Category:    "Sentry",
			Value:       "production",
			Sources:     cli.EnvVars("GATHSALT_SENTRY_ENV"),
			Destination: &x.env,
		},
	}
}

func (x *Sentry) LogAttrs() []slog.Attr {
	return []slog.Attr{
		slog.Bool("enabled", x.dsn != ""),
		slog.String("env", x.env),
	}
}

// Configure enables reporting when a DSN is set
func (x *Sentry) Configure(release string) error {
	return errutil.InitSentry(x.dsn, x.env, release)
}
