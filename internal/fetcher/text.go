package fetcher

import (
	"bufio"
	"bytes"
	"io"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// ReadLines reads newline-separated values, decoding per the optional
// IANA charset name (e.g. "windows-1252"). Empty charset auto-detects
// from the byte-order mark and falls back to UTF-8. Blank lines and
// surrounding whitespace are dropped. Exported company lists routinely
// arrive in whatever encoding the exporting spreadsheet felt like.
func ReadLines(r io.Reader, charset string) ([]string, error) {
	br := bufio.NewReader(r)

	var enc encoding.Encoding
	if charset != "" {
		e, err := htmlindex.Get(charset)
		if err != nil {
			return nil, eris.Wrapf(err, "fetcher: unknown charset %q", charset)
		}
		enc = e
	} else {
		enc = sniffBOM(br)
	}

	var decoded io.Reader = br
	if enc != nil {
		decoded = transform.NewReader(br, enc.NewDecoder())
	}

	var lines []string
	sc := bufio.NewScanner(decoded)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line != "" {
			lines = append(lines, line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, eris.Wrap(err, "fetcher: scan lines")
	}
	return lines, nil
}

// sniffBOM returns the encoding indicated by a byte-order mark, or nil
// for plain bytes.
func sniffBOM(br *bufio.Reader) encoding.Encoding {
	bom, _ := br.Peek(3)
	switch {
	case len(bom) >= 3 && bytes.Equal(bom[:3], []byte{0xEF, 0xBB, 0xBF}):
		return unicode.UTF8BOM
	case len(bom) >= 2 && bom[0] == 0xFF && bom[1] == 0xFE:
		return unicode.UTF16(unicode.LittleEndian, unicode.UseBOM)
	case len(bom) >= 2 && bom[0] == 0xFE && bom[1] == 0xFF:
		return unicode.UTF16(unicode.BigEndian, unicode.UseBOM)
	}
	return nil
}
