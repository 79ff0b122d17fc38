package worker_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/gathsalt/pkg/domain/model"
	"github.com/secmon-lab/gathsalt/pkg/domain/types"
	"github.com/secmon-lab/gathsalt/pkg/repository/memory"
	"github.com/secmon-lab/gathsalt/pkg/service/feed"
	"github.com/secmon-lab/gathsalt/pkg/service/worker"
)

type mockFeedService struct {
	mu      sync.Mutex
	entries map[string][]feed.Entry
	errs    map[string]error
	calls   int
}

func (m *mockFeedService) Entries(ctx context.Context, feedURL string, limit int) ([]feed.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if err := m.errs[feedURL]; err != nil {
		return nil, err
	}
	return m.entries[feedURL], nil
}

func (m *mockFeedService) set(feedURL string, links ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var entries []feed.Entry
	for _, l := range links {
		entries = append(entries, feed.Entry{Title: l, Link: l})
	}
	m.entries[feedURL] = entries
}

type recordingCapture struct {
	mu     sync.Mutex
	calls  [][]string
	failOn map[string]bool
}

func (r *recordingCapture) capture(ctx context.Context, links []string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, links)

	var ok []string
	for _, l := range links {
		if !r.failOn[l] {
			ok = append(ok, l)
		}
	}
	return ok
}

func newFeedService() *mockFeedService {
	return &mockFeedService{entries: map[string][]feed.Entry{}, errs: map[string]error{}}
}

func TestFeedWatcher_Poll(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()

	stored := model.NewReferenceInsight("https://example.com/old", model.InsightContent{
		Platform:    types.PlatformX,
		Summary:     "Old",
		Explanation: "Already captured",
		Sentiment:   types.SentimentNeutral,
	})
	gt.NoError(t, repo.Insight().Insert(ctx, stored)).Required()

	feeds := newFeedService()
	feeds.set("https://feed.example.com/a", "https://example.com/old", "https://example.com/1", "https://example.com/2")
	feeds.set("https://feed.example.com/b", "https://example.com/2", "https://example.com/3")

	rec := &recordingCapture{failOn: map[string]bool{"https://example.com/3": true}}
	w := worker.NewFeedWatcher(repo, feeds, rec.capture,
		[]string{"https://feed.example.com/a", "https://feed.example.com/b"}, 10, time.Minute)

	t.Run("first poll skips stored links and dedups across feeds", func(t *testing.T) {
		gt.NoError(t, w.Poll(ctx)).Required()
		gt.Array(t, rec.calls).Length(1).Required()
		gt.Array(t, rec.calls[0]).Equal([]string{
			"https://example.com/1",
			"https://example.com/2",
			"https://example.com/3",
		})
	})

	t.Run("failed captures are retried", func(t *testing.T) {
		gt.NoError(t, w.Poll(ctx)).Required()
		gt.Array(t, rec.calls).Length(2).Required()
		gt.Array(t, rec.calls[1]).Equal([]string{"https://example.com/3"})
	})

	t.Run("nothing new does not capture", func(t *testing.T) {
		rec.failOn = nil
		gt.NoError(t, w.Poll(ctx)).Required()
		gt.NoError(t, w.Poll(ctx)).Required()
		gt.Array(t, rec.calls).Length(3)
	})
}

func TestFeedWatcher_FeedError(t *testing.T) {
	ctx := context.Background()
	feeds := newFeedService()
	feeds.errs["https://feed.example.com/down"] = errors.New("connection refused")
	feeds.set("https://feed.example.com/up", "https://example.com/1")

	rec := &recordingCapture{}
	w := worker.NewFeedWatcher(memory.New(), feeds, rec.capture,
		[]string{"https://feed.example.com/down", "https://feed.example.com/up"}, 0, time.Minute)

	err := w.Poll(ctx)
	gt.Value(t, err).NotNil()
	gt.Array(t, rec.calls).Length(1).Required()
	gt.Array(t, rec.calls[0]).Equal([]string{"https://example.com/1"})
}

func TestFeedWatcher_StartStop(t *testing.T) {
	feeds := newFeedService()
	feeds.set("https://feed.example.com/a", "https://example.com/1")

	done := make(chan struct{})
	var once sync.Once
	capture := func(ctx context.Context, links []string) []string {
		once.Do(func() { close(done) })
		return links
	}

	w := worker.NewFeedWatcher(memory.New(), feeds, capture,
		[]string{"https://feed.example.com/a"}, 0, time.Hour)
	gt.NoError(t, w.Start(context.Background())).Required()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("initial poll did not run")
	}
	w.Stop()
	w.Stop()
}

func TestFeedWatcher_InvalidInterval(t *testing.T) {
	w := worker.NewFeedWatcher(memory.New(), newFeedService(), nil, nil, 0, 0)
	gt.Value(t, w.Start(context.Background())).NotNil()
}
