package notion

import (
	"context"

	"github.com/jomei/notionapi"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/gathsalt/pkg/domain/model"
)

// client implements Service interface
type client struct {
	api *notionapi.Client
}

// New creates a new Notion service with the provided API token
func New(token string) (Service, error) {
	if token == "" {
		return nil, goerr.New("Notion API token is required")
	}

	return &client{
		api: notionapi.NewClient(
			notionapi.Token(token),
			notionapi.WithRetry(3), // Retry up to 3 times on rate limit (HTTP 429)
		),
	}, nil
}

func (c *client) CreateInsightPage(ctx context.Context, dbID string, insight *model.Insight) (string, error) {
	if dbID == "" {
		return "", goerr.New("Notion database ID is required")
	}

	page, err := c.api.Page.Create(ctx, buildPageRequest(dbID, insight))
	if err != nil {
		return "", goerr.Wrap(err, "failed to create Notion page",
			goerr.V("dbID", dbID),
			goerr.V(model.InsightIDKey, insight.ID))
	}

	return page.URL, nil
}
