package rank

import (
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// DefaultBlocklist holds domains that are never a company's own website:
// social networks, directories, job boards, and review aggregators that
// crowd organic results. Matching is by suffix, so subdomains are covered.
var DefaultBlocklist = []string{
	"linkedin.com",
	"facebook.com",
	"instagram.com",
	"twitter.com",
	"x.com",
	"youtube.com",
	"wikipedia.org",
	"crunchbase.com",
	"bloomberg.com",
	"zoominfo.com",
	"glassdoor.com",
	"indeed.com",
	"ziprecruiter.com",
	"yelp.com",
	"bbb.org",
	"mapquest.com",
	"yellowpages.com",
}

// Rules carries operator overrides for the matching heuristics.
type Rules struct {
	Stoplist  []string `yaml:"stoplist"`
	Blocklist []string `yaml:"blocklist"`
}

// DefaultRules returns the built-in stoplist and blocklist.
func DefaultRules() *Rules {
	return &Rules{Stoplist: DefaultStoplist, Blocklist: DefaultBlocklist}
}

// LoadRules reads a rules override file. Omitted sections keep their
// defaults, so a file can override just one list.
func LoadRules(path string) (*Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "rank: read rules %s", path)
	}

	rules := DefaultRules()
	if err := yaml.Unmarshal(data, rules); err != nil {
		return nil, eris.Wrap(err, "rank: parse rules")
	}
	if len(rules.Stoplist) == 0 {
		rules.Stoplist = DefaultStoplist
	}
	if len(rules.Blocklist) == 0 {
		rules.Blocklist = DefaultBlocklist
	}
	return rules, nil
}

// Blocked reports whether a host is, or sits under, a blocklisted domain.
func (r *Rules) Blocked(host string) bool {
	host = strings.ToLower(strings.TrimSuffix(host, "."))
	for _, b := range r.Blocklist {
		if host == b || strings.HasSuffix(host, "."+b) {
			return true
		}
	}
	return false
}
