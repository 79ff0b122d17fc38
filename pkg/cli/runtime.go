package cli

import (
	"context"
	"errors"
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/gathsalt/pkg/cli/config"
	"github.com/secmon-lab/gathsalt/pkg/service/reference"
	"github.com/secmon-lab/gathsalt/pkg/usecase"
	"github.com/secmon-lab/gathsalt/pkg/utils/logging"
	"github.com/secmon-lab/gathsalt/pkg/utils/safe"
	"github.com/urfave/cli/v3"
)

// requirement selects which model clients a command cannot run without
type requirement int

const (
	needLLM requirement = 1 << iota
	// wantLLM enables the gollem client when gemini-project is set and runs
	// without reference capture and chat otherwise
	wantLLM
	needGemini
	needExport
	needAuth
)

// runtime bundles the configuration shared by commands and builds the use
// cases from it
type runtime struct {
	app    config.App
	repo   config.Repository
	gemini config.Gemini
	slack  config.Slack
	notion config.Notion
	auth   config.Auth
}

func (x *runtime) Flags(req requirement) []cli.Flag {
	flags := x.app.Flags()
	flags = append(flags, x.repo.Flags()...)
	if req&(needLLM|wantLLM|needGemini) != 0 {
		flags = append(flags, x.gemini.Flags()...)
	}
	if req&needExport != 0 {
		flags = append(flags, x.slack.Flags()...)
		flags = append(flags, x.notion.Flags()...)
	}
	if req&needAuth != 0 {
		flags = append(flags, x.auth.Flags()...)
	}
	return flags
}

func (x *runtime) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Any("app", slog.GroupValue(x.app.LogAttrs()...)),
		slog.Any("repository", slog.GroupValue(x.repo.LogAttrs()...)),
		slog.Any("gemini", slog.GroupValue(x.gemini.LogAttrs()...)),
		slog.Any("slack", slog.GroupValue(x.slack.LogAttrs()...)),
		slog.Any("notion", slog.GroupValue(x.notion.LogAttrs()...)),
		slog.Any("auth", slog.GroupValue(x.auth.LogAttrs()...)),
	)
}

// build opens the repository and wires the use cases. The returned closer
// releases the repository.
func (x *runtime) build(ctx context.Context, req requirement, opts ...usecase.Option) (*usecase.UseCases, func(), error) {
	logging.Default().Debug("Configuration", "runtime", x)

	file, err := x.app.Configure()
	if err != nil {
		return nil, nil, goerr.Wrap(err, "failed to load configuration")
	}
	appConfig := file.ToDomain()

	ucOpts := []usecase.Option{
		usecase.WithAppConfig(appConfig),
		usecase.WithReference(reference.New()),
	}

	if req&(needLLM|wantLLM) != 0 {
		llmClient, err := x.gemini.ConfigureLLM(ctx, file.Gemini)
		switch {
		case err == nil:
			ucOpts = append(ucOpts, usecase.WithLLMClient(llmClient))
		case req&needLLM == 0 && errors.Is(err, config.ErrMissingGemini):
			logging.Default().Warn("gemini-project is not set, reference capture and chat are disabled")
		default:
			return nil, nil, err
		}
	}

	if req&needGemini != 0 {
		svc, err := x.gemini.ConfigureService(ctx, file.Gemini)
		if err != nil {
			return nil, nil, err
		}
		ucOpts = append(ucOpts, usecase.WithGemini(svc))
	}

	if req&needExport != 0 {
		slackSvc, err := x.slack.Configure()
		if err != nil {
			return nil, nil, err
		}
		if slackSvc != nil {
			ucOpts = append(ucOpts, usecase.WithSlack(slackSvc, x.slack.ChannelID()))
			logging.Default().Info("Slack share enabled", "channel_id", x.slack.ChannelID())
		}

		notionSvc, err := x.notion.Configure()
		if err != nil {
			return nil, nil, err
		}
		if notionSvc != nil {
			ucOpts = append(ucOpts, usecase.WithNotion(notionSvc, x.notion.DatabaseID()))
			logging.Default().Info("Notion export enabled", "database_id", x.notion.DatabaseID())
		}
	}

	if req&needAuth != 0 {
		authUC, err := x.auth.Configure(appConfig.Auth.LoginDelay)
		if err != nil {
			return nil, nil, err
		}
		if x.auth.IsNoAuthMode() {
			logging.Default().Warn("Running in no-auth mode (development only)")
		}
		ucOpts = append(ucOpts, usecase.WithAuth(authUC))
	}

	repo, err := x.repo.Configure(ctx)
	if err != nil {
		return nil, nil, goerr.Wrap(err, "failed to initialize repository")
	}
	closer := func() { safe.Close(ctx, repo) }

	uc := usecase.New(repo, append(ucOpts, opts...)...)
	return uc, closer, nil
}
