// Package rank scores search-result URLs per domain and matches company
// names against the ranked domains. Everything here is pure and safe for
// concurrent use.
package rank

import (
	"math"
	"net/url"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/sells-group/sitefinder/internal/model"
)

// Weights for one URL occurrence: a flat base, a penalty growing with the
// result position, and a penalty growing with the domain's core label
// length. Earlier, shorter domains win.
const (
	countWeight  = 0.25
	orderWeight  = -0.25
	lengthWeight = -0.1
)

// RankURLs aggregates an ordered candidate list into per-domain scores,
// min-max normalized to [0,1] and sorted descending. Repeated domains sum
// their occurrence scores. Ties keep first-seen order, so output is
// deterministic for a given input. Unparsable URLs contribute an
// empty-string domain instead of failing.
func RankURLs(urls []string) []model.RankedDomain {
	scores := make(map[string]float64, len(urls))
	order := make([]string, 0, len(urls))

	for i, raw := range urls {
		domain := Domain(raw)
		if _, ok := scores[domain]; !ok {
			order = append(order, domain)
		}
		scores[domain] += countWeight +
			orderWeight*float64(i+1) +
			lengthWeight*float64(utf8.RuneCountInString(CoreLabel(domain)))
	}
	if len(order) == 0 {
		return nil
	}

	minScore, maxScore := math.Inf(1), math.Inf(-1)
	for _, s := range scores {
		minScore = math.Min(minScore, s)
		maxScore = math.Max(maxScore, s)
	}
	// Floor of 1 keeps the all-equal case at zero instead of dividing by
	// zero, at the cost of not stretching narrow spreads to a full [0,1].
	divisor := math.Max(maxScore-minScore, 1)

	ranked := make([]model.RankedDomain, 0, len(order))
	for _, d := range order {
		ranked = append(ranked, model.RankedDomain{
			Domain: d,
			Score:  (scores[d] - minScore) / divisor,
		})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	return ranked
}

// Domain extracts the host portion of a raw URL, port included when
// present. Malformed input yields an empty string.
func Domain(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return u.Host
}

// CoreLabel returns the label compared against company names: the second
// dot-separated label when the domain has three or more, otherwise the
// first. "www.example.com" gives "example", "example.com" gives "example".
func CoreLabel(domain string) string {
	parts := strings.Split(domain, ".")
	if len(parts) >= 3 {
		return parts[1]
	}
	return parts[0]
}
