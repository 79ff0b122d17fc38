package reference

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/gathsalt/pkg/utils/safe"
)

const (
	defaultTimeout = 10 * time.Second
	maxBodySize    = 2 * 1024 * 1024
	userAgent      = "gathsalt/1.0 (+reference-preview)"
)

// Page is the public preview metadata of a referenced web page
type Page struct {
	Title       string
	Description string
	SiteName    string
}

// IsEmpty reports whether no metadata was found
func (p *Page) IsEmpty() bool {
	return p == nil || (p.Title == "" && p.Description == "" && p.SiteName == "")
}

// Service fetches preview metadata for a captured reference
type Service interface {
	Fetch(ctx context.Context, ref string) (*Page, error)
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

// New creates a reference preview service
func New(opts ...Option) Service {
	c := &client{
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// IsFetchable reports whether ref is an absolute http(s) URL
func IsFetchable(ref string) bool {
	u, err := url.Parse(strings.TrimSpace(ref))
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func (c *client) Fetch(ctx context.Context, ref string) (*Page, error) {
	if !IsFetchable(ref) {
		return nil, goerr.New("reference is not an http(s) URL", goerr.V("ref", ref))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimSpace(ref), nil)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to build request", goerr.V("ref", ref))
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to fetch reference", goerr.V("ref", ref))
	}
	defer safe.Close(ctx, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, goerr.New("unexpected status fetching reference",
			goerr.V("ref", ref),
			goerr.V("status", resp.StatusCode))
	}

	return parse(io.LimitReader(resp.Body, maxBodySize))
}

func parse(r io.Reader) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to parse reference HTML")
	}

	page := &Page{
		Title:       meta(doc, "og:title", "twitter:title"),
		Description: meta(doc, "og:description", "twitter:description", "description"),
		SiteName:    meta(doc, "og:site_name"),
	}
	if page.Title == "" {
		page.Title = strings.TrimSpace(doc.Find("head title").First().Text())
	}
	return page, nil
}

// meta returns the first non-empty content of the named meta tags, matching
// both property= and name= attributes
func meta(doc *goquery.Document, names ...string) string {
	for _, name := range names {
		var value string
		doc.Find("meta").EachWithBreak(func(_ int, s *goquery.Selection) bool {
			prop, _ := s.Attr("property")
			if prop == "" {
				prop, _ = s.Attr("name")
			}
			if !strings.EqualFold(prop, name) {
				return true
			}
			content, _ := s.Attr("content")
			value = strings.TrimSpace(content)
			return value == ""
		})
		if value != "" {
			return value
		}
	}
	return ""
}
