package fetcher

import (
	"context"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/sitefinder/internal/model"
)

// CompanyList is a parsed input file: the companies plus the source
// header, which output writers mirror so input columns survive into the
// results.
type CompanyList struct {
	Header    []string
	Companies []model.Company
}

// ReadCompanies loads a company list from a local path or http(s) URL,
// dispatching on the extension: .txt (one name per line), .csv, or
// .xlsx. charset applies to .txt only; empty means auto-detect.
func ReadCompanies(ctx context.Context, source, charset string) (*CompanyList, error) {
	var (
		list *CompanyList
		err  error
	)

	switch sourceExt(source) {
	case ".txt":
		list, err = readCompaniesTxt(ctx, source, charset)
	case ".csv":
		list, err = readCompaniesCSV(ctx, source)
	case ".xlsx":
		var table *Table
		table, err = readXLSXSource(ctx, source)
		if err == nil {
			list, err = companiesFromTable(table)
		}
	default:
		return nil, eris.Errorf("fetcher: unsupported input %q (want .txt, .csv, or .xlsx)", source)
	}
	if err != nil {
		return nil, err
	}

	if len(list.Companies) == 0 {
		return nil, eris.Errorf("fetcher: no company names found in %s", source)
	}

	zap.L().Info("companies loaded",
		zap.String("source", source),
		zap.Int("companies", len(list.Companies)),
	)
	return list, nil
}

// ReadWebsites loads a website list from a local path or http(s) URL for
// the LinkedIn flow: .txt lines, or the Website column of a .csv/.xlsx.
func ReadWebsites(ctx context.Context, source, charset string) ([]string, error) {
	switch sourceExt(source) {
	case ".txt":
		rc, err := openSource(ctx, source)
		if err != nil {
			return nil, err
		}
		defer rc.Close()
		return ReadLines(rc, charset)
	case ".csv":
		rc, err := openSource(ctx, source)
		if err != nil {
			return nil, err
		}
		defer rc.Close()
		table, err := ReadCSVTable(ctx, rc)
		if err != nil {
			return nil, err
		}
		return websitesFromTable(table)
	case ".xlsx":
		table, err := readXLSXSource(ctx, source)
		if err != nil {
			return nil, err
		}
		return websitesFromTable(table)
	default:
		return nil, eris.Errorf("fetcher: unsupported input %q (want .txt, .csv, or .xlsx)", source)
	}
}

func readCompaniesTxt(ctx context.Context, source, charset string) (*CompanyList, error) {
	rc, err := openSource(ctx, source)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	lines, err := ReadLines(rc, charset)
	if err != nil {
		return nil, err
	}

	companies := make([]model.Company, 0, len(lines))
	for _, line := range lines {
		c := model.NewCompany(line, nil)
		c.Fields = []string{c.Name}
		companies = append(companies, c)
	}
	return &CompanyList{
		Header:    []string{CompanyColumn},
		Companies: model.DedupeCompanies(companies),
	}, nil
}

func readCompaniesCSV(ctx context.Context, source string) (*CompanyList, error) {
	rc, err := openSource(ctx, source)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	table, err := ReadCSVTable(ctx, rc)
	if err != nil {
		return nil, err
	}
	return companiesFromTable(table)
}

func companiesFromTable(t *Table) (*CompanyList, error) {
	col, ok := t.Column(CompanyColumn)
	if !ok {
		return nil, eris.Errorf("fetcher: input must contain a %q column", CompanyColumn)
	}

	companies := make([]model.Company, 0, len(t.Rows))
	for _, row := range t.Rows {
		c := model.NewCompany(t.Cell(row, col), row)
		if c.Empty() {
			continue
		}
		companies = append(companies, c)
	}
	return &CompanyList{
		Header:    t.Header,
		Companies: model.DedupeCompanies(companies),
	}, nil
}

func websitesFromTable(t *Table) ([]string, error) {
	col, ok := t.Column(WebsiteColumn)
	if !ok {
		return nil, eris.Errorf("fetcher: input must contain a %q column", WebsiteColumn)
	}

	var websites []string
	for _, row := range t.Rows {
		if site := t.Cell(row, col); site != "" {
			websites = append(websites, site)
		}
	}
	return websites, nil
}

// remoteSource reports whether source is an http(s) URL rather than a
// local path.
func remoteSource(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}

// sourceExt returns the lowercased extension, ignoring any URL query.
func sourceExt(source string) string {
	if remoteSource(source) {
		if u, err := url.Parse(source); err == nil {
			return strings.ToLower(filepath.Ext(u.Path))
		}
	}
	return strings.ToLower(filepath.Ext(source))
}

// openSource opens a local path or downloads an http(s) URL.
func openSource(ctx context.Context, source string) (io.ReadCloser, error) {
	return NewDownloader(HTTPOptions{}).Open(ctx, source)
}

// readXLSXSource opens a workbook, downloading remote sources to a temp
// file first; the xlsx reader needs random access.
func readXLSXSource(ctx context.Context, source string) (*Table, error) {
	path := source
	if remoteSource(source) {
		tmp, err := os.CreateTemp("", "sitefinder-*.xlsx")
		if err != nil {
			return nil, eris.Wrap(err, "fetcher: temp file")
		}
		_ = tmp.Close()
		defer os.Remove(tmp.Name()) //nolint:errcheck

		if _, err := NewDownloader(HTTPOptions{}).DownloadToFile(ctx, source, tmp.Name()); err != nil {
			return nil, err
		}
		path = tmp.Name()
	}
	return ReadXLSXTable(path, XLSXOptions{})
}
