package search

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"

	"github.com/sells-group/sitefinder/internal/model"
)

const defaultDDGBaseURL = "https://html.duckduckgo.com/html/"

// DuckDuckGo searches the HTML endpoint. No API key, no JavaScript, so
// it serves as the keyless fallback at the end of the chain.
type DuckDuckGo struct {
	httpClient *http.Client
	baseURL    string
	agents     *agentRing
}

// DDGOption configures a DuckDuckGo searcher.
type DDGOption func(*DuckDuckGo)

// WithDDGBaseURL overrides the endpoint, for tests.
func WithDDGBaseURL(u string) DDGOption {
	return func(d *DuckDuckGo) {
		d.baseURL = u
	}
}

// WithDDGHTTPClient replaces the default HTTP client.
func WithDDGHTTPClient(c *http.Client) DDGOption {
	return func(d *DuckDuckGo) {
		d.httpClient = c
	}
}

// NewDuckDuckGo creates the DuckDuckGo searcher.
func NewDuckDuckGo(opts ...DDGOption) *DuckDuckGo {
	d := &DuckDuckGo{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		baseURL:    defaultDDGBaseURL,
		agents:     newAgentRing(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Name implements Searcher.
func (d *DuckDuckGo) Name() string { return "ddg" }

// Search implements Searcher.
func (d *DuckDuckGo) Search(ctx context.Context, query string, max int) ([]model.SearchHit, error) {
	endpoint := d.baseURL + "?q=" + url.QueryEscape(query)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, eris.Wrap(err, "search: build ddg request")
	}
	req.Header.Set("User-Agent", d.agents.Next())

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, eris.Wrapf(err, "search: ddg request %q", query)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusTooManyRequests:
		return nil, eris.Wrapf(ErrBlocked, "search: ddg status %d", resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, eris.Errorf("search: ddg status %d for %q", resp.StatusCode, query)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "search: parse ddg page")
	}

	var hits []model.SearchHit
	seen := make(map[string]struct{})

	doc.Find("div.result").Each(func(_ int, sel *goquery.Selection) {
		if max > 0 && len(hits) >= max {
			return
		}

		a := sel.Find("a.result__a").First()
		href, ok := a.Attr("href")
		if !ok {
			return
		}
		link := decodeDDGRedirect(href)
		if !strings.HasPrefix(link, "http://") && !strings.HasPrefix(link, "https://") {
			return
		}
		if _, dup := seen[link]; dup {
			return
		}
		seen[link] = struct{}{}

		hits = append(hits, model.SearchHit{
			Title:   strings.TrimSpace(a.Text()),
			URL:     link,
			Snippet: strings.TrimSpace(sel.Find(".result__snippet").First().Text()),
			Rank:    len(hits),
		})
	})

	return hits, nil
}

// decodeDDGRedirect unwraps the /l/?uddg=<encoded> hrefs the HTML
// endpoint serves instead of direct links.
func decodeDDGRedirect(href string) string {
	if strings.HasPrefix(href, "//") {
		href = "https:" + href
	}
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if uddg := u.Query().Get("uddg"); uddg != "" {
		if dec, err := url.QueryUnescape(uddg); err == nil && dec != "" {
			return dec
		}
	}
	return href
}
