package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/gathsalt/pkg/domain/model"
	"github.com/secmon-lab/gathsalt/pkg/domain/types"
	"github.com/secmon-lab/gathsalt/pkg/service/notion"
	"github.com/secmon-lab/gathsalt/pkg/service/slack"
	"github.com/secmon-lab/gathsalt/pkg/utils/async"
	goslack "github.com/slack-go/slack"
)

// ExportUseCase shares insights outside the dashboard: every new insight is
// posted to a Slack channel when one is configured, and single insights can be
// exported to a Notion database on request.
type ExportUseCase struct {
	slackService     slack.Service
	slackChannelID   string
	notionService    notion.Service
	notionDatabaseID string
	baseURL          string
}

var _ InsightObserver = &ExportUseCase{}

func NewExportUseCase() *ExportUseCase {
	return &ExportUseCase{}
}

// InsightCreated posts the new insight to Slack in the background
func (uc *ExportUseCase) InsightCreated(ctx context.Context, insight *model.Insight) {
	if !uc.SlackEnabled() {
		return
	}

	async.Dispatch(ctx, "slack-share", func(ctx context.Context) error {
		_, err := uc.ShareToSlack(ctx, insight)
		return err
	})
}

func (uc *ExportUseCase) InsightDeleted(ctx context.Context, id model.InsightID) {}

// ShareToSlack posts insight to the configured channel and returns the message timestamp
func (uc *ExportUseCase) ShareToSlack(ctx context.Context, insight *model.Insight) (string, error) {
	if !uc.SlackEnabled() {
		return "", goerr.Wrap(ErrNotConfigured, "Slack channel is not configured")
	}

	blocks := buildInsightMessageBlocks(insight, uc.baseURL)
	fallback := fmt.Sprintf("New %s capture: %s", insight.Platform, insight.Summary)

	ts, err := uc.slackService.PostMessage(ctx, uc.slackChannelID, blocks, fallback)
	if err != nil {
		return "", goerr.Wrap(err, "failed to share insight to Slack", goerr.V(InsightIDKey, insight.ID))
	}
	return ts, nil
}

// ExportToNotion creates a page for insight and returns its URL
func (uc *ExportUseCase) ExportToNotion(ctx context.Context, insight *model.Insight) (string, error) {
	if !uc.NotionEnabled() {
		return "", goerr.Wrap(ErrNotConfigured, "Notion export is not configured")
	}

	url, err := uc.notionService.CreateInsightPage(ctx, uc.notionDatabaseID, insight)
	if err != nil {
		return "", goerr.Wrap(err, "failed to export insight to Notion", goerr.V(InsightIDKey, insight.ID))
	}
	return url, nil
}

// SlackEnabled reports whether new insights are shared to Slack
func (uc *ExportUseCase) SlackEnabled() bool {
	return uc.slackService != nil && uc.slackChannelID != ""
}

// NotionEnabled reports whether Notion export is configured
func (uc *ExportUseCase) NotionEnabled() bool {
	return uc.notionService != nil && uc.notionDatabaseID != ""
}

func sentimentEmoji(s types.Sentiment) string {
	switch s {
	case types.SentimentPositive:
		return ":large_green_circle:"
	case types.SentimentNegative:
		return ":red_circle:"
	default:
		return ":white_circle:"
	}
}

// buildInsightMessageBlocks constructs Block Kit blocks for a captured insight
func buildInsightMessageBlocks(insight *model.Insight, baseURL string) []goslack.Block {
	blocks := []goslack.Block{
		goslack.NewHeaderBlock(
			goslack.NewTextBlockObject(goslack.PlainTextType, "GATHSALT // "+insight.Platform.String()+" capture", true, false),
		),
		goslack.NewSectionBlock(
			goslack.NewTextBlockObject(goslack.MarkdownType, slack.TruncateText("*"+insight.Summary+"*\n"+insight.Explanation), false, false),
			nil, nil,
		),
	}

	if len(insight.KeyTakeaways) > 0 {
		lines := make([]string, len(insight.KeyTakeaways))
		for i, t := range insight.KeyTakeaways {
			lines[i] = "• " + t
		}
		blocks = append(blocks, goslack.NewSectionBlock(
			goslack.NewTextBlockObject(goslack.MarkdownType, slack.TruncateText(strings.Join(lines, "\n")), false, false),
			nil, nil,
		))
	}

	contextParts := []string{
		sentimentEmoji(insight.Sentiment) + " " + insight.Sentiment.String(),
	}
	if insight.SourceURL != "" {
		contextParts = append(contextParts, fmt.Sprintf(":link: <%s|Source>", insight.SourceURL))
	} else {
		contextParts = append(contextParts, ":frame_with_picture: Media capture")
	}
	if baseURL != "" {
		contextParts = append(contextParts, fmt.Sprintf("<%s/insights/%s|Dashboard>", strings.TrimRight(baseURL, "/"), insight.ID))
	}

	blocks = append(blocks, goslack.NewContextBlock("",
		goslack.NewTextBlockObject(goslack.MarkdownType, strings.Join(contextParts, "  |  "), false, false),
	))

	return blocks
}
