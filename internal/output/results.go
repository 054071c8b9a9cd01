package output

import (
	"slices"

	"github.com/sells-group/sitefinder/internal/model"
)

// ResolutionWriter writes resolve-mode rows:
// Company, Best URL, Match Rank, Match Type.
type ResolutionWriter struct {
	w *Writer
}

// NewResolutionWriter creates the output file with the contract header.
func NewResolutionWriter(path string) (*ResolutionWriter, error) {
	w, err := NewWriter(path, model.ResolutionHeader)
	if err != nil {
		return nil, err
	}
	return &ResolutionWriter{w: w}, nil
}

func (rw *ResolutionWriter) Write(res model.Resolution) error {
	return rw.w.WriteRow(res.CSVRow())
}

func (rw *ResolutionWriter) Rows() int { return rw.w.Rows() }

func (rw *ResolutionWriter) Close() error { return rw.w.Close() }

// ScrapeWriter mirrors the input columns and appends a URL column, the
// browser-mode output shape.
type ScrapeWriter struct {
	w     *Writer
	width int
}

// NewScrapeWriter creates the output file: input header plus URL.
func NewScrapeWriter(path string, inputHeader []string) (*ScrapeWriter, error) {
	header := append(slices.Clone(inputHeader), "URL")
	w, err := NewWriter(path, header)
	if err != nil {
		return nil, err
	}
	return &ScrapeWriter{w: w, width: len(inputHeader)}, nil
}

// Write appends one result row. Short input rows are padded so the URL
// always lands in its own column.
func (sw *ScrapeWriter) Write(fields []string, url string) error {
	row := make([]string, sw.width+1)
	copy(row, fields)
	row[sw.width] = url
	return sw.w.WriteRow(row)
}

func (sw *ScrapeWriter) Rows() int { return sw.w.Rows() }

func (sw *ScrapeWriter) Close() error { return sw.w.Close() }

// NotFoundWriter mirrors the input columns for companies that produced
// no usable hits. Its file feeds straight back into the tool as input.
type NotFoundWriter struct {
	w     *Writer
	width int
}

// NewNotFoundWriter creates the not-found file with the input header.
func NewNotFoundWriter(path string, inputHeader []string) (*NotFoundWriter, error) {
	w, err := NewWriter(path, slices.Clone(inputHeader))
	if err != nil {
		return nil, err
	}
	return &NotFoundWriter{w: w, width: len(inputHeader)}, nil
}

func (nw *NotFoundWriter) Write(fields []string) error {
	row := make([]string, nw.width)
	copy(row, fields)
	return nw.w.WriteRow(row)
}

func (nw *NotFoundWriter) Rows() int { return nw.w.Rows() }

func (nw *NotFoundWriter) Close() error { return nw.w.Close() }

// LinkedInWriter writes Website, LinkedIn URL, Proxy Used rows.
type LinkedInWriter struct {
	w *Writer
}

// NewLinkedInWriter creates the LinkedIn output file.
func NewLinkedInWriter(path string) (*LinkedInWriter, error) {
	w, err := NewWriter(path, model.LinkedInHeader)
	if err != nil {
		return nil, err
	}
	return &LinkedInWriter{w: w}, nil
}

func (lw *LinkedInWriter) Write(res model.LinkedInResult) error {
	return lw.w.WriteRow(res.CSVRow())
}

func (lw *LinkedInWriter) Rows() int { return lw.w.Rows() }

func (lw *LinkedInWriter) Close() error { return lw.w.Close() }
