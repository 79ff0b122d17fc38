package cli_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/gathsalt/pkg/cli"
	"github.com/secmon-lab/gathsalt/pkg/cli/config"
	"github.com/secmon-lab/gathsalt/pkg/domain/interfaces"
	"github.com/secmon-lab/gathsalt/pkg/domain/model"
	"github.com/secmon-lab/gathsalt/pkg/domain/types"
	"github.com/secmon-lab/gathsalt/pkg/service/feed"
	"github.com/secmon-lab/gathsalt/pkg/usecase"
)

func writeStore(t *testing.T, insights ...*model.Insight) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "insights.json")
	data, err := json.Marshal(insights)
	gt.NoError(t, err).Required()
	gt.NoError(t, os.WriteFile(path, data, 0o600)).Required()
	return path
}

func newInsight(id, summary string, platform types.Platform, sentiment types.Sentiment) *model.Insight {
	return &model.Insight{
		ID:           model.InsightID(id),
		SourceURL:    "https://example.com/" + id,
		Platform:     platform,
		Summary:      summary,
		Explanation:  "explanation of " + id,
		Sentiment:    sentiment,
		KeyTakeaways: []string{"takeaway of " + id},
		Timestamp:    time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	full := append([]string{"gathsalt", "--log-level", "error"}, args...)
	err := cli.RunWithWriter(context.Background(), full, "test", &out)
	return out.String(), err
}

func TestRun_List(t *testing.T) {
	path := writeStore(t,
		newInsight("a1", "Launch thread trends", types.PlatformX, types.SentimentPositive),
		newInsight("b2", "Brand complaint", types.PlatformFacebook, types.SentimentNegative),
	)

	t.Run("all platforms in store order", func(t *testing.T) {
		out, err := runCLI(t, "list", "--file-path", path)
		gt.NoError(t, err).Required()
		gt.S(t, out).Contains("Launch thread trends")
		gt.S(t, out).Contains("Brand complaint")
		gt.S(t, out).Contains("takeaway of a1")
		gt.B(t, strings.Index(out, "a1") < strings.Index(out, "b2")).True()
	})

	t.Run("platform filter", func(t *testing.T) {
		out, err := runCLI(t, "list", "--file-path", path, "--platform", "facebook")
		gt.NoError(t, err).Required()
		gt.S(t, out).Contains("Brand complaint")
		gt.B(t, strings.Contains(out, "Launch thread trends")).False()
	})

	t.Run("unknown platform", func(t *testing.T) {
		_, err := runCLI(t, "list", "--file-path", path, "--platform", "myspace")
		gt.Error(t, err).Is(usecase.ErrInvalidInput)
	})

	t.Run("missing file is an empty store", func(t *testing.T) {
		out, err := runCLI(t, "list", "--file-path", filepath.Join(t.TempDir(), "none.json"))
		gt.NoError(t, err).Required()
		gt.Value(t, out).Equal("")
	})
}

func TestRun_Delete(t *testing.T) {
	path := writeStore(t,
		newInsight("a1", "Launch thread trends", types.PlatformX, types.SentimentPositive),
		newInsight("b2", "Brand complaint", types.PlatformFacebook, types.SentimentNegative),
	)

	out, err := runCLI(t, "delete", "--file-path", path, "a1")
	gt.NoError(t, err).Required()
	gt.S(t, out).Contains("deleted a1")

	data, err := os.ReadFile(path)
	gt.NoError(t, err).Required()
	var stored []*model.Insight
	gt.NoError(t, json.Unmarshal(data, &stored)).Required()
	gt.Array(t, stored).Length(1).Required()
	gt.Value(t, stored[0].ID).Equal(model.InsightID("b2"))

	_, err = runCLI(t, "delete", "--file-path", path, "a1")
	gt.Error(t, err).Is(interfaces.ErrNotFound)

	_, err = runCLI(t, "delete", "--file-path", path)
	gt.Error(t, err).Is(usecase.ErrInvalidInput)
}

func TestRun_CaptureRequiresGemini(t *testing.T) {
	t.Setenv("GATHSALT_GEMINI_PROJECT", "")
	t.Setenv("GATHSALT_GEMINI_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "")

	path := filepath.Join(t.TempDir(), "insights.json")
	_, err := runCLI(t, "capture", "url", "--file-path", path, "https://x.com/post/1")
	gt.Error(t, err).Is(config.ErrMissingGemini)

	_, err = runCLI(t, "speak", "--file-path", path, "hello")
	gt.Error(t, err).Is(config.ErrMissingGemini)

	// reference capture runs on Vertex AI and needs a project even with a key
	_, err = runCLI(t, "capture", "url", "--file-path", path, "--gemini-api-key", "test-key", "https://x.com/post/1")
	gt.Error(t, err).Is(config.ErrMissingGemini)
}

func TestRun_ServeStopsFeedWatcherOnListenError(t *testing.T) {
	t.Setenv("GATHSALT_GEMINI_PROJECT", "")
	t.Setenv("GATHSALT_SESSION_SECRET", "")

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(`<?xml version="1.0"?><rss version="2.0"><channel><title>t</title></channel></rss>`))
	}))
	defer srv.Close()

	// an API key alone runs the server without reference capture
	_, err := runCLI(t, "serve",
		"--addr", "not-an-address",
		"--repository-backend", "memory",
		"--gemini-api-key", "test-key",
		"--watch-feed", srv.URL,
		"--watch-interval", "10ms",
	)
	gt.Error(t, err)
	gt.B(t, errors.Is(err, config.ErrMissingGemini)).False()

	polled := hits.Load()
	time.Sleep(100 * time.Millisecond)
	gt.Value(t, hits.Load()).Equal(polled)
}

func TestRun_InvalidConfigFile(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "gathsalt.toml")
	gt.NoError(t, os.WriteFile(cfgPath, []byte("[capture]\nconcurrency = -1\n"), 0o600)).Required()

	_, err := runCLI(t, "list", "--config", cfgPath, "--repository-backend", "memory")
	gt.Error(t, err).Is(config.ErrInvalidConfig)
}

func TestParsePlatformFilter(t *testing.T) {
	f, err := cli.ParsePlatformFilter("all")
	gt.NoError(t, err).Required()
	gt.Value(t, f.Platform).Equal(types.Platform(""))

	f, err = cli.ParsePlatformFilter("instagram")
	gt.NoError(t, err).Required()
	gt.Value(t, f.Platform).Equal(types.PlatformInstagram)

	_, err = cli.ParsePlatformFilter("tiktok")
	gt.Error(t, err).Is(usecase.ErrInvalidInput)
}

func TestFeedLinks(t *testing.T) {
	const rss = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel><title>Trends</title>
<item><title>one</title><link>https://example.com/1</link></item>
<item><title>no link</title></item>
<item><title>two</title><link>https://example.com/2</link></item>
<item><title>three</title><link>https://example.com/3</link></item>
</channel></rss>`

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(rss))
	}))
	defer srv.Close()

	links, err := cli.FeedLinks(context.Background(), feed.New(), srv.URL, 2)
	gt.NoError(t, err).Required()
	gt.Array(t, links).Equal([]string{"https://example.com/1", "https://example.com/2"})

	links, err = cli.FeedLinks(context.Background(), feed.New(), srv.URL, 0)
	gt.NoError(t, err).Required()
	gt.Array(t, links).Length(3)
}

func TestGetIndexConfig(t *testing.T) {
	cfg := cli.GetIndexConfig("dev")
	gt.Array(t, cfg.Collections).Length(1).Required()
	gt.Value(t, cfg.Collections[0].Name).Equal("dev_insights")
	gt.Array(t, cfg.Collections[0].Indexes).Length(1).Required()
	gt.Array(t, cfg.Collections[0].Indexes[0].Fields).Length(2).Required()
	gt.Value(t, cfg.Collections[0].Indexes[0].Fields[1].Path).Equal("Seq")
}
