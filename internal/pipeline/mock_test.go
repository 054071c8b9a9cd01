package pipeline

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/rotisserie/eris"

	"github.com/sells-group/sitefinder/internal/browser"
	"github.com/sells-group/sitefinder/internal/model"
)

// fakeSearcher serves canned hits per query and records the queries it
// saw. Safe for concurrent use.
type fakeSearcher struct {
	mu      sync.Mutex
	hits    map[string][]model.SearchHit
	errs    map[string]error
	queries []string
	maxes   []int
}

func newFakeSearcher() *fakeSearcher {
	return &fakeSearcher{
		hits: make(map[string][]model.SearchHit),
		errs: make(map[string]error),
	}
}

func (f *fakeSearcher) Name() string { return "fake" }

func (f *fakeSearcher) Search(_ context.Context, query string, max int) ([]model.SearchHit, error) {
	f.mu.Lock()
	f.queries = append(f.queries, query)
	f.maxes = append(f.maxes, max)
	hits := f.hits[query]
	err := f.errs[query]
	f.mu.Unlock()

	if err != nil {
		return nil, err
	}
	if max > 0 && len(hits) > max {
		hits = hits[:max]
	}
	return hits, nil
}

func (f *fakeSearcher) seen() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.queries...)
}

func hitsFor(urls ...string) []model.SearchHit {
	hits := make([]model.SearchHit, len(urls))
	for i, u := range urls {
		hits[i] = model.SearchHit{Title: u, URL: u, Rank: i}
	}
	return hits
}

// scriptedFetch plays back fetch responses in order and records the
// proxy of each attempt.
type scriptedFetch struct {
	mu        sync.Mutex
	responses []fetchResponse
	proxies   []string
	targets   []string
}

type fetchResponse struct {
	html string
	err  error
}

func (s *scriptedFetch) fetch(_ context.Context, target string, opts browser.FetchOpts) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.proxies = append(s.proxies, opts.Proxy)
	s.targets = append(s.targets, target)
	if len(s.responses) == 0 {
		return "", eris.New("scripted fetch exhausted")
	}
	r := s.responses[0]
	s.responses = s.responses[1:]
	return r.html, r.err
}

// serpPage builds a minimal Google results page with one organic result
// per link.
func serpPage(links ...string) string {
	var b strings.Builder
	b.WriteString("<html><body><div id=\"search\">")
	for i, link := range links {
		fmt.Fprintf(&b,
			"<div class=\"g\"><a href=%q><h3>Result %d</h3></a><div class=\"VwiC3b\">snippet</div></div>",
			link, i+1,
		)
	}
	b.WriteString("</div></body></html>")
	return b.String()
}

const blockedPage = `<html><body>
<form id="captcha-form" action="/sorry/index"></form>
Our systems have detected unusual traffic from your computer network.
</body></html>`
