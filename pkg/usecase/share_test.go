package usecase_test

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/gathsalt/pkg/domain/model"
	"github.com/secmon-lab/gathsalt/pkg/domain/types"
	"github.com/secmon-lab/gathsalt/pkg/repository/memory"
	"github.com/secmon-lab/gathsalt/pkg/usecase"
)

// blocksJSON renders blocks the way Slack receives them, keeping mrkdwn links
// like <url|text> readable
func blocksJSON(t *testing.T, blocks any) string {
	t.Helper()
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	gt.NoError(t, enc.Encode(blocks)).Required()
	return buf.String()
}

func TestBuildInsightMessageBlocks(t *testing.T) {
	t.Run("reference capture", func(t *testing.T) {
		insight := newTestInsight("https://x.com/acme/status/1")
		blocks := usecase.BuildInsightMessageBlocks(insight, "https://dash.example.com/")
		gt.Array(t, blocks).Length(4).Required()

		s := blocksJSON(t, blocks)
		gt.S(t, s).Contains("GATHSALT // X capture")
		gt.S(t, s).Contains("Rocket launch thread")
		gt.S(t, s).Contains("• high reach")
		gt.S(t, s).Contains("<https://x.com/acme/status/1|Source>")
		gt.S(t, s).Contains("https://dash.example.com/insights/" + insight.ID.String())
	})

	t.Run("media capture without takeaways or base URL", func(t *testing.T) {
		insight := model.NewMediaInsight(pngDataURI(), model.InsightContent{
			Summary:     "Screenshot",
			Explanation: "An image",
			Sentiment:   types.SentimentNeutral,
		})
		blocks := usecase.BuildInsightMessageBlocks(insight, "")
		gt.Array(t, blocks).Length(3).Required()

		s := blocksJSON(t, blocks)
		gt.S(t, s).Contains("Media capture")
		gt.B(t, strings.Contains(s, "Dashboard")).False()
	})
}

func TestExport(t *testing.T) {
	ctx := context.Background()

	t.Run("new insights are shared to Slack", func(t *testing.T) {
		slackSvc := &mockSlack{done: make(chan struct{}, 1)}
		ucs := usecase.New(memory.New(),
			usecase.WithLLMClient(newReplyClient(fullReply, nil)),
			usecase.WithSlack(slackSvc, "C0123"),
		)

		_, err := ucs.Insight.GenerateFromReference(ctx, "https://x.com/acme/status/1")
		gt.NoError(t, err).Required()

		select {
		case <-slackSvc.done:
		case <-time.After(time.Second):
			t.Fatal("insight was not shared")
		}
		gt.Array(t, slackSvc.posted).Equal([]string{"C0123:New X capture: Launch thread trends"})
	})

	t.Run("Slack sharing requires a channel", func(t *testing.T) {
		ucs := usecase.New(memory.New())
		_, err := ucs.Export.ShareToSlack(ctx, newTestInsight("ref"))
		gt.Error(t, err).Is(usecase.ErrNotConfigured)
	})

	t.Run("Notion export", func(t *testing.T) {
		notionSvc := &mockNotion{}
		ucs := usecase.New(memory.New(), usecase.WithNotion(notionSvc, "db1"))
		gt.B(t, ucs.Export.NotionEnabled()).True()

		insight := newTestInsight("ref")
		url, err := ucs.Export.ExportToNotion(ctx, insight)
		gt.NoError(t, err).Required()
		gt.Value(t, url).Equal("https://www.notion.so/db1/" + insight.ID.String())
		gt.Array(t, notionSvc.created).Equal([]model.InsightID{insight.ID})
	})

	t.Run("Notion export requires configuration", func(t *testing.T) {
		ucs := usecase.New(memory.New())
		gt.B(t, ucs.Export.NotionEnabled()).False()
		_, err := ucs.Export.ExportToNotion(ctx, newTestInsight("ref"))
		gt.Error(t, err).Is(usecase.ErrNotConfigured)
	})
}

func TestUseCases_DeleteDropsInsightState(t *testing.T) {
	ctx := context.Background()
	gem := &mockGemini{}
	ucs := usecase.New(memory.New(),
		usecase.WithLLMClient(newReplyClient(fullReply, nil)),
		usecase.WithGemini(gem),
	)

	insight, err := ucs.Insight.GenerateFromReference(ctx, "https://x.com/acme/status/1")
	gt.NoError(t, err).Required()

	_, err = ucs.DeepDive.DeepDive(ctx, insight)
	gt.NoError(t, err).Required()
	_, err = ucs.Chat.Ask(ctx, insight, "why?")
	gt.NoError(t, err).Required()

	gt.NoError(t, ucs.Insight.Delete(ctx, insight.ID)).Required()

	gt.Array(t, ucs.Chat.Transcript(insight.ID)).Length(0)
	_, err = ucs.DeepDive.DeepDive(ctx, insight)
	gt.NoError(t, err).Required()
	gt.Value(t, gem.researchCalls.Load()).Equal(int32(2))
}

func TestUseCases_Defaults(t *testing.T) {
	ucs := usecase.New(memory.New())
	gt.B(t, ucs.Auth.IsNoAuthn()).True()
	gt.Value(t, ucs.Speech.Voice()).Equal("Kore")
	gt.Value(t, ucs.AppConfig().Auth.LoginDelay).Equal(1200 * time.Millisecond)
}
