package feed

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/mmcdole/gofeed"
)

const defaultTimeout = 15 * time.Second

// Entry is one feed item that can be captured as a reference
type Entry struct {
	Title     string
	Link      string
	Published time.Time
}

// Service lists capturable entries of an RSS/Atom/JSON feed
type Service interface {
	Entries(ctx context.Context, feedURL string, limit int) ([]Entry, error)
}

type client struct {
	httpClient *http.Client
}

// Option is a functional option for client configuration
type Option func(*client)

// WithHTTPClient replaces the default HTTP client
func WithHTTPClient(c *http.Client) Option {
	return func(cl *client) {
		cl.httpClient = c
	}
}

// New creates a feed service
func New(opts ...Option) Service {
	c := &client{
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Entries returns up to limit entries with a link, in feed order. A limit of zero
// or less returns every entry.
func (c *client) Entries(ctx context.Context, feedURL string, limit int) ([]Entry, error) {
	parser := gofeed.NewParser()
	parser.Client = c.httpClient

	f, err := parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to parse feed", goerr.V("url", feedURL))
	}

	return entries(f, limit), nil
}

func entries(f *gofeed.Feed, limit int) []Entry {
	var result []Entry
	for _, item := range f.Items {
		if item == nil {
			continue
		}
		link := strings.TrimSpace(item.Link)
		if link == "" {
			continue
		}

		entry := Entry{
			Title: strings.TrimSpace(item.Title),
			Link:  link,
		}
		if item.PublishedParsed != nil {
			entry.Published = *item.PublishedParsed
		}
		result = append(result, entry)

		if limit > 0 && len(result) >= limit {
			break
		}
	}
	return result
}
