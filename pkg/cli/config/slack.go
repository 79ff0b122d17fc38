package config

import (
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/gathsalt/pkg/service/slack"
	"github.com/urfave/cli/v3"
)

// Slack configures sharing of new insights to a channel
type Slack struct {
	botToken  string
	channelID string
}

func (x *Slack) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "slack-bot-token",
			Usage:       "Slack Bot User OAuth Token (chat:write)",
			Category:    "Slack",
			Destination: &x.botToken,
			Sources:     cli.EnvVars("GATHSALT_SLACK_BOT_TOKEN"),
		},
		&cli.StringFlag{
			Name:        "slack-channel-id",
			Usage:       "Slack channel ID receiving every new insight",
			Category:    "Slack",
			Destination: &x.channelID,
			Sources:     cli.EnvVars("GATHSALT_SLACK_CHANNEL_ID"),
		},
	}
}

func (x *Slack) LogAttrs() []slog.Attr {
	return []slog.Attr{
		slog.Bool("bot_token", x.botToken != ""),
		slog.String("channel_id", x.channelID),
	}
}

// IsConfigured returns true when both the token and the channel are set
func (x *Slack) IsConfigured() bool {
	return x.botToken != "" && x.channelID != ""
}

// ChannelID returns the share channel
func (x *Slack) ChannelID() string {
	return x.channelID
}

// Configure returns the Slack service, or nil when sharing is not configured
func (x *Slack) Configure() (slack.Service, error) {
	if x.botToken == "" && x.channelID == "" {
		return nil, nil
	}
	if !x.IsConfigured() {
		return nil, goerr.Wrap(ErrInvalidConfig, "slack-bot-token and slack-channel-id must be set together")
	}

	svc, err := slack.New(x.botToken)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to initialize slack service")
	}
	return svc, nil
}
