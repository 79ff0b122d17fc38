package worker

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/gathsalt/pkg/domain/interfaces"
	"github.com/secmon-lab/gathsalt/pkg/domain/model"
	"github.com/secmon-lab/gathsalt/pkg/service/feed"
	"github.com/secmon-lab/gathsalt/pkg/utils/logging"
)

// CaptureFunc captures links as references and returns the links that were
// stored. Links missing from the result are retried on the next poll.
type CaptureFunc func(ctx context.Context, links []string) []string

// FeedWatcher polls feeds in the background and captures entries not seen before.
//
// Architecture assumptions:
// - Single server instance (no distributed locking)
// - Seen links live in memory and are seeded from the store on the first poll
type FeedWatcher struct {
	repo     interfaces.Repository
	feeds    feed.Service
	capture  CaptureFunc
	urls     []string
	limit    int
	interval time.Duration

	mu     sync.Mutex
	seen   map[string]struct{}
	seeded bool

	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// NewFeedWatcher creates a watcher of urls. limit caps the entries read from
// each feed per poll.
func NewFeedWatcher(repo interfaces.Repository, feeds feed.Service, capture CaptureFunc, urls []string, limit int, interval time.Duration) *FeedWatcher {
	return &FeedWatcher{
		repo:     repo,
		feeds:    feeds,
		capture:  capture,
		urls:     urls,
		limit:    limit,
		interval: interval,
		seen:     make(map[string]struct{}),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start begins the background poll loop
// - The first poll and periodic polls both run in a background goroutine
// - Does not block server startup
func (w *FeedWatcher) Start(ctx context.Context) error {
	if w.interval <= 0 {
		return goerr.New("feed watch interval must be positive", goerr.V("interval", w.interval))
	}

	logging.Default().Info("Feed watcher starting",
		"feeds", len(w.urls),
		"interval", w.interval.String())

	go w.run(ctx)

	return nil
}

// Stop signals the worker to stop and waits for completion. It must only be
// called after a successful Start and may be called more than once.
func (w *FeedWatcher) Stop() {
	w.stopOnce.Do(func() {
		logging.Default().Info("Feed watcher stopping")
		close(w.stopCh)
	})
	<-w.doneCh
	logging.Default().Info("Feed watcher stopped")
}

func (w *FeedWatcher) run(ctx context.Context) {
	defer close(w.doneCh)

	if err := w.Poll(ctx); err != nil {
		logging.Default().Error("Initial feed poll failed (will retry next interval)",
			"error", err.Error())
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := w.Poll(ctx); err != nil {
				logging.Default().Error("Feed poll failed (will retry next interval)",
					"error", err.Error())
			}

		case <-w.stopCh:
			return

		case <-ctx.Done():
			logging.Default().Info("Feed watcher context cancelled")
			return
		}
	}
}

// seed marks every reference already in the store as seen
func (w *FeedWatcher) seed(ctx context.Context) error {
	if w.seeded {
		return nil
	}

	insights, err := w.repo.Insight().List(ctx, model.InsightFilter{})
	if err != nil {
		return goerr.Wrap(err, "failed to list stored insights")
	}
	for _, i := range insights {
		if i.SourceURL != "" {
			w.seen[i.SourceURL] = struct{}{}
		}
	}
	w.seeded = true
	return nil
}

// Poll performs a single poll cycle over every feed. A failing feed does not
// stop the others; the last feed error is returned.
func (w *FeedWatcher) Poll(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.seed(ctx); err != nil {
		return err
	}

	var lastErr error
	var fresh []string
	for _, url := range w.urls {
		entries, err := w.feeds.Entries(ctx, url, w.limit)
		if err != nil {
			logging.Default().Warn("failed to read feed", "feed", url, "error", err)
			lastErr = err
			continue
		}

		for _, e := range entries {
			if _, ok := w.seen[e.Link]; ok {
				continue
			}
			if !slices.Contains(fresh, e.Link) {
				fresh = append(fresh, e.Link)
			}
		}
	}

	if len(fresh) == 0 {
		return lastErr
	}

	captured := w.capture(ctx, fresh)
	for _, link := range captured {
		w.seen[link] = struct{}{}
	}

	logging.Default().Info("Feed poll completed",
		"new", len(fresh),
		"captured", len(captured))

	return lastErr
}
