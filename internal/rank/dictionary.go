package rank

import (
	"bufio"
	"os"
	"strings"

	"github.com/rotisserie/eris"
)

// WordChecker reports whether a word is a recognized dictionary word. A
// nil checker treats every word as known, which keeps matching usable on
// hosts with no word list installed.
type WordChecker func(word string) bool

// DefaultDictionaryPath is where Linux systems usually install a word list.
const DefaultDictionaryPath = "/usr/share/dict/words"

// LoadDictionary reads a newline-delimited word list into a WordChecker
// with case-insensitive lookup. Callers are expected to continue with a
// nil checker when this fails.
func LoadDictionary(path string) (WordChecker, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "rank: open dictionary %s", path)
	}
	defer f.Close()

	words := make(map[string]struct{}, 1<<17)
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		w := strings.ToLower(strings.TrimSpace(sc.Text()))
		if w != "" {
			words[w] = struct{}{}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, eris.Wrapf(err, "rank: read dictionary %s", path)
	}

	return func(word string) bool {
		_, ok := words[strings.ToLower(word)]
		return ok
	}, nil
}
