package notion

import (
	"context"

	"github.com/secmon-lab/gathsalt/pkg/domain/model"
)

// Property names expected in the export database
const (
	PropertyName      = "Name"
	PropertyPlatform  = "Platform"
	PropertySentiment = "Sentiment"
	PropertySource    = "Source"
	PropertyCaptured  = "Captured"
)

// maxRichTextLength is the Notion API limit for one rich text object
const maxRichTextLength = 2000

// Service provides interface to Notion API
type Service interface {
	// CreateInsightPage adds one page for insight to the database and returns the page URL
	CreateInsightPage(ctx context.Context, dbID string, insight *model.Insight) (string, error)
}
