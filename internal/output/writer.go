// Package output writes result CSVs incrementally so a killed run keeps
// every row written so far.
package output

import (
	"encoding/csv"
	"os"
	"sync"

	"github.com/rotisserie/eris"
)

// Writer appends rows to a CSV file, safely from concurrent workers.
// The header goes out at create time and every row is flushed as it is
// written, so the file is a valid CSV prefix at any kill point.
type Writer struct {
	mu   sync.Mutex
	f    *os.File
	csv  *csv.Writer
	rows int
}

// NewWriter creates path, truncating any previous run, and writes the
// header immediately.
func NewWriter(path string, header []string) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, eris.Wrapf(err, "output: create %s", path)
	}

	w := &Writer{f: f, csv: csv.NewWriter(f)}
	if err := w.csv.Write(header); err != nil {
		_ = f.Close()
		return nil, eris.Wrap(err, "output: write header")
	}
	w.csv.Flush()
	if err := w.csv.Error(); err != nil {
		_ = f.Close()
		return nil, eris.Wrap(err, "output: flush header")
	}
	return w, nil
}

// WriteRow appends one row and flushes it to disk.
func (w *Writer) WriteRow(row []string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.csv.Write(row); err != nil {
		return eris.Wrap(err, "output: write row")
	}
	w.csv.Flush()
	if err := w.csv.Error(); err != nil {
		return eris.Wrap(err, "output: flush row")
	}
	w.rows++
	return nil
}

// Rows returns the number of data rows written so far.
func (w *Writer) Rows() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.rows
}

// Close flushes buffered rows and closes the file.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.csv.Flush()
	flushErr := w.csv.Error()
	closeErr := w.f.Close()
	if flushErr != nil {
		return eris.Wrap(flushErr, "output: flush")
	}
	if closeErr != nil {
		return eris.Wrap(closeErr, "output: close")
	}
	return nil
}
