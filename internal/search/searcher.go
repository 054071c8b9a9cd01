// Package search turns queries into candidate URLs through a chain of
// search backends: the Custom Search API, headless-Chrome Google SERPs,
// and the DuckDuckGo HTML endpoint.
package search

import (
	"context"
	"fmt"

	"github.com/rotisserie/eris"

	"github.com/sells-group/sitefinder/internal/model"
)

// ErrBlocked reports that an engine answered with a captcha, consent, or
// rate-limit interstitial instead of results. Retrying the same backend
// is pointless; the chain moves on and its breaker cools the backend off.
var ErrBlocked = eris.New("search: blocked by engine")

// Searcher is a single search backend.
type Searcher interface {
	// Search returns up to max hits for the query, best first. max <= 0
	// means the backend's natural page size.
	Search(ctx context.Context, query string, max int) ([]model.SearchHit, error)

	// Name identifies the backend in logs and cache keys.
	Name() string
}

// LinkedInQuery builds the query that surfaces a company's LinkedIn page
// from its website.
func LinkedInQuery(website string) string {
	return fmt.Sprintf("site:linkedin.com %q", website)
}
