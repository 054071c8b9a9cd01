package model

import (
	"fmt"
	"time"
)

// RankedDomain is a candidate domain with its normalized relevance score.
type RankedDomain struct {
	Domain string  `json:"domain"`
	Score  float64 `json:"score"`
}

// MatchReason labels how a domain was matched to a company name.
type MatchReason string

const (
	MatchDirect  MatchReason = "direct domain match"
	MatchAcronym MatchReason = "acronym match"
	MatchPartial MatchReason = "partial nonword match"
	MatchNone    MatchReason = "no match found"
)

// Match is the outcome of matching a company name against ranked domains.
type Match struct {
	Domain     string      `json:"domain"`
	Confidence float64     `json:"confidence"`
	Reason     MatchReason `json:"reason"`
}

// Resolution is one company's final answer, ready for output and storage.
type Resolution struct {
	Company    string        `json:"company"`
	BestURL    string        `json:"best_url"`
	Confidence float64       `json:"confidence"`
	Reason     MatchReason   `json:"reason"`
	Backend    string        `json:"backend,omitempty"`
	Elapsed    time.Duration `json:"elapsed,omitempty"`
}

// ResolutionHeader is the output column order for resolve results.
var ResolutionHeader = []string{"Company", "Best URL", "Match Rank", "Match Type"}

// CSVRow renders the resolution in ResolutionHeader order. The rank column
// is always formatted to two decimals.
func (r Resolution) CSVRow() []string {
	return []string{
		r.Company,
		r.BestURL,
		fmt.Sprintf("%.2f", r.Confidence),
		string(r.Reason),
	}
}
