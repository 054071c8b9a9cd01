package rank

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/sells-group/sitefinder/internal/model"
)

// DefaultStoplist holds name words skipped when deriving acronyms and
// comparison words. Entries must be lowercase: each word is lowercased
// before the stoplist check, so mixed-case entries would never match.
var DefaultStoplist = []string{
	"company", "inc", "group", "corporation", "co", "corp",
	"university", "college", "&", "llc", "llp", "ltd", "limited",
	"the", "of", "a", "an",
}

// Matcher matches company names against ranked domains. The zero value is
// not usable; construct with NewMatcher.
type Matcher struct {
	stoplist    map[string]struct{}
	isKnownWord WordChecker
}

// Option configures a Matcher.
type Option func(*Matcher)

// WithStoplist replaces the default stoplist. Entries are lowercased.
func WithStoplist(words []string) Option {
	return func(m *Matcher) { m.stoplist = toSet(words) }
}

// WithWordChecker installs the dictionary lookup used to split company
// words into known and unknown. Nil keeps the default of treating every
// word as known.
func WithWordChecker(check WordChecker) Option {
	return func(m *Matcher) { m.isKnownWord = check }
}

// NewMatcher builds a Matcher with the default stoplist and no dictionary.
func NewMatcher(opts ...Option) *Matcher {
	m := &Matcher{stoplist: toSet(DefaultStoplist)}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Resolve ranks the candidate URLs and matches the company name against
// the result in one call.
func (m *Matcher) Resolve(company string, urls []string) model.Match {
	return m.BestMatch(company, RankURLs(urls))
}

// BestMatch walks the ranked domains in order and stops at the first rule
// hit: core label and squashed name containing one another, core label
// equal to one of the name's acronyms, or core label containing a word the
// dictionary does not know (at half the domain's score). When nothing
// hits, the top-ranked domain is returned with zero confidence; an empty
// ranking returns an empty domain.
func (m *Matcher) BestMatch(company string, ranked []model.RankedDomain) model.Match {
	name := punctReplacer.Replace(company)
	acrFull, acrFiltered := m.Acronyms(name)
	nonwords, _ := m.PartitionWords(name)
	simplified := strings.ToLower(strings.ReplaceAll(name, " ", ""))

	for _, rd := range ranked {
		label := CoreLabel(rd.Domain)
		switch {
		case strings.Contains(simplified, label) || strings.Contains(label, simplified):
			return model.Match{Domain: rd.Domain, Confidence: rd.Score, Reason: model.MatchDirect}
		case label == acrFull || label == acrFiltered:
			return model.Match{Domain: rd.Domain, Confidence: rd.Score, Reason: model.MatchAcronym}
		case containsAny(label, nonwords):
			return model.Match{Domain: rd.Domain, Confidence: rd.Score * 0.5, Reason: model.MatchPartial}
		}
	}
	if len(ranked) > 0 {
		return model.Match{Domain: ranked[0].Domain, Reason: model.MatchNone}
	}
	return model.Match{Reason: model.MatchNone}
}

// Acronyms derives the name's two first-letter acronyms, lowercased: one
// over every word and one skipping stoplist words.
func (m *Matcher) Acronyms(name string) (full, filtered string) {
	var all, kept strings.Builder
	for _, word := range strings.Fields(name) {
		r, _ := utf8.DecodeRuneInString(word)
		all.WriteRune(r)
		if _, skip := m.stoplist[strings.ToLower(word)]; !skip {
			kept.WriteRune(r)
		}
	}
	return strings.ToLower(all.String()), strings.ToLower(kept.String())
}

// PartitionWords lowercases the name's words, sorts them longest first,
// drops stoplist entries, and splits the rest into dictionary-unknown and
// known. Without a word checker every word lands in known.
func (m *Matcher) PartitionWords(name string) (unknown, known []string) {
	words := strings.Fields(strings.ToLower(name))
	sort.SliceStable(words, func(i, j int) bool {
		return len(words[i]) > len(words[j])
	})
	for _, word := range words {
		if _, skip := m.stoplist[word]; skip {
			continue
		}
		if m.isKnownWord != nil && !m.isKnownWord(word) {
			unknown = append(unknown, word)
		} else {
			known = append(known, word)
		}
	}
	return unknown, known
}

var punctReplacer = strings.NewReplacer(".", "", ",", "")

func toSet(words []string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[strings.ToLower(w)] = struct{}{}
	}
	return set
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
