package slack_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/gathsalt/pkg/service/slack"
	goslack "github.com/slack-go/slack"
)

func TestNew(t *testing.T) {
	t.Run("returns error when token is empty", func(t *testing.T) {
		_, err := slack.New("")
		gt.Value(t, err).NotNil()
	})

	t.Run("creates service when token is provided", func(t *testing.T) {
		svc, err := slack.New("test-token")
		gt.NoError(t, err).Required()
		gt.Value(t, svc).NotNil()
	})
}

func TestPostMessage(t *testing.T) {
	var gotChannel, gotBlocks string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gt.NoError(t, r.ParseForm())
		gotChannel = r.FormValue("channel")
		gotBlocks = r.FormValue("blocks")
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"ok":      true,
			"channel": gotChannel,
			"ts":      "1700000000.000100",
		})
	}))
	t.Cleanup(srv.Close)

	svc, err := slack.New("test-token", slack.WithAPIURL(srv.URL+"/"))
	gt.NoError(t, err).Required()

	ts, err := svc.PostMessage(t.Context(), "C123", []goslack.Block{
		goslack.NewSectionBlock(goslack.NewTextBlockObject(goslack.MarkdownType, "hello", false, false), nil, nil),
	}, "fallback")
	gt.NoError(t, err).Required()
	gt.V(t, ts).Equal("1700000000.000100")
	gt.V(t, gotChannel).Equal("C123")
	gt.S(t, gotBlocks).Contains("hello")
}

func TestTruncateToMaxBytes(t *testing.T) {
	t.Run("short text is unchanged", func(t *testing.T) {
		gt.V(t, slack.TruncateToMaxBytes("hello", 10)).Equal("hello")
	})

	t.Run("cuts on rune boundary", func(t *testing.T) {
		s := strings.Repeat("あ", 10) // 3 bytes each
		got := slack.TruncateToMaxBytes(s, 11)
		gt.B(t, utf8.ValidString(got)).True()
		gt.B(t, len(got) <= 11).True()
		gt.B(t, strings.HasSuffix(got, "…")).True()
	})

	t.Run("section limit", func(t *testing.T) {
		got := slack.TruncateText(strings.Repeat("a", slack.MaxTextBytes+100))
		gt.V(t, len(got)).Equal(slack.MaxTextBytes)
	})
}

func TestIntegration(t *testing.T) {
	token := os.Getenv("TEST_SLACK_BOT_TOKEN")
	if token == "" {
		t.Skip("TEST_SLACK_BOT_TOKEN is not set")
	}

	channelID := os.Getenv("TEST_SLACK_CHANNEL_ID")
	if channelID == "" {
		t.Skip("TEST_SLACK_CHANNEL_ID is not set")
	}

	svc, err := slack.New(token)
	gt.NoError(t, err).Required()
	_, err = svc.PostMessage(t.Context(), channelID, nil, "gathsalt integration test")
	gt.NoError(t, err).Required()
}
