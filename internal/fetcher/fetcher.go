// Package fetcher loads company lists and proxy exports from local
// files or HTTP sources, in txt, csv, and xlsx form.
package fetcher

import (
	"context"
	"io"
	"strings"
)

// Fetcher downloads remote data.
type Fetcher interface {
	// Download fetches the URL and returns the response body.
	Download(ctx context.Context, url string) (io.ReadCloser, error)

	// DownloadToFile fetches the URL and writes it to the given path.
	// Returns bytes written.
	DownloadToFile(ctx context.Context, url string, path string) (int64, error)

	// Open returns a reader over source, which is a local path or an
	// http(s) URL.
	Open(ctx context.Context, source string) (io.ReadCloser, error)
}

// Input column names recognized in spreadsheet inputs.
const (
	CompanyColumn = "Company Name"
	WebsiteColumn = "Website"
)

// Table is a parsed spreadsheet or CSV: one header row plus data rows.
type Table struct {
	Header []string
	Rows   [][]string
}

// Column returns the index of the named header column,
// case-insensitively.
func (t *Table) Column(name string) (int, bool) {
	for i, h := range t.Header {
		if strings.EqualFold(strings.TrimSpace(h), name) {
			return i, true
		}
	}
	return 0, false
}

// Cell returns row[col], tolerating short rows.
func (t *Table) Cell(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[col])
}
