package search

import (
	"context"
	"net/url"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/sells-group/sitefinder/internal/model"
)

const defaultGoogleBaseURL = "https://www.google.com/search"

// HTMLFetcher renders a URL and returns its HTML. *browser.Pool
// implements it.
type HTMLFetcher interface {
	FetchHTML(ctx context.Context, url string) (string, error)
}

// GoogleBrowser scrapes Google result pages through headless Chrome.
// Queries are paced by a rate limiter; pushing Google harder than about
// one query every few seconds earns the sorry page quickly.
type GoogleBrowser struct {
	fetch   HTMLFetcher
	limiter *rate.Limiter
	baseURL string
}

// GoogleOption configures a GoogleBrowser.
type GoogleOption func(*GoogleBrowser)

// WithGoogleBaseURL overrides the search endpoint, for tests.
func WithGoogleBaseURL(u string) GoogleOption {
	return func(g *GoogleBrowser) {
		g.baseURL = u
	}
}

// WithGoogleRateLimit replaces the default one-query-per-4s limiter.
func WithGoogleRateLimit(l *rate.Limiter) GoogleOption {
	return func(g *GoogleBrowser) {
		g.limiter = l
	}
}

// NewGoogleBrowser creates the browser-backed Google searcher.
func NewGoogleBrowser(fetch HTMLFetcher, opts ...GoogleOption) *GoogleBrowser {
	g := &GoogleBrowser{
		fetch:   fetch,
		limiter: rate.NewLimiter(rate.Every(4*time.Second), 1),
		baseURL: defaultGoogleBaseURL,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Name implements Searcher.
func (g *GoogleBrowser) Name() string { return "google-browser" }

// Search implements Searcher.
func (g *GoogleBrowser) Search(ctx context.Context, query string, max int) ([]model.SearchHit, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "search: google rate limit")
	}

	q := url.Values{}
	q.Set("q", query)
	q.Set("hl", "en")
	if max > 0 {
		q.Set("num", strconv.Itoa(max))
	}

	page, err := g.fetch.FetchHTML(ctx, g.baseURL+"?"+q.Encode())
	if err != nil {
		return nil, eris.Wrapf(err, "search: google fetch %q", query)
	}

	hits, err := ParseGoogleSERP(page, max)
	if err != nil {
		return nil, err
	}
	if len(hits) == 0 && IsBlockedPage(page) {
		return nil, eris.Wrapf(ErrBlocked, "search: google serp for %q", query)
	}
	return hits, nil
}
