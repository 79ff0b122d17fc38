package config

import (
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/gathsalt/pkg/service/notion"
	"github.com/urfave/cli/v3"
)

// Notion configures export of insights to a Notion database
type Notion struct {
	token      string
	databaseID string
}

func (x *Notion) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "notion-api-token",
			Usage:       "Notion API token for insight export",
			Category:    "Notion",
			Sources:     cli.EnvVars("GATHSALT_NOTION_API_TOKEN"),
			Destination: &x.token,
		},
		&cli.StringFlag{
			Name:        "notion-database-id",
			Usage:       "Notion database receiving exported insights",
			Category:    "Notion",
			Sources:     cli.EnvVars("GATHSALT_NOTION_DATABASE_ID"),
			Destination: &x.databaseID,
		},
	}
}

func (x *Notion) LogAttrs() []slog.Attr {
	return []slog.Attr{
		slog.Bool("api_token", x.token != ""),
		slog.String("database_id", x.databaseID),
	}
}

// DatabaseID returns the export database
func (x *Notion) DatabaseID() string {
	return x.databaseID
}

// Configure returns the Notion service, or nil when export is not configured
func (x *Notion) Configure() (notion.Service, error) {
	if x.token == "" && x.databaseID == "" {
		return nil, nil
	}
	if x.token == "" || x.databaseID == "" {
		return nil, goerr.Wrap(ErrInvalidConfig, "notion-api-token and notion-database-id must be set together")
	}

	svc, err := notion.New(x.token)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to initialize notion service")
	}
	return svc, nil
}
