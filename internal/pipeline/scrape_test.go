package pipeline

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/sitefinder/internal/model"
	"github.com/sells-group/sitefinder/internal/output"
)

func scrapeWriters(t *testing.T, header []string) (*output.ScrapeWriter, *output.NotFoundWriter, string, string) {
	t.Helper()

	dir := t.TempDir()
	resultsPath := filepath.Join(dir, "google_results.csv")
	notFoundPath := filepath.Join(dir, "cant_find_urls.csv")

	results, err := output.NewScrapeWriter(resultsPath, header)
	require.NoError(t, err)
	notFound, err := output.NewNotFoundWriter(notFoundPath, header)
	require.NoError(t, err)

	return results, notFound, resultsPath, notFoundPath
}

func TestScrapeAll_KeepsInputColumns(t *testing.T) {
	t.Parallel()

	fs := newFakeSearcher()
	fs.hits["Acme Steel"] = hitsFor("https://acmesteel.com")

	header := []string{"Company Name", "City"}
	results, notFound, resultsPath, _ := scrapeWriters(t, header)

	s := NewScraper(fs, 1)
	summary, err := s.ScrapeAll(context.Background(), []model.Company{
		{Name: "Acme Steel", Fields: []string{"Acme Steel", "Chicago"}},
	}, ScrapeOptions{Results: results, NotFound: notFound})
	require.NoError(t, err)
	require.NoError(t, results.Close())
	require.NoError(t, notFound.Close())

	assert.Equal(t, int64(1), summary.Processed)
	assert.Equal(t, int64(1), summary.Succeeded)
	assert.Zero(t, summary.NotFound)

	rows := readCSV(t, resultsPath)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"Company Name", "City", "URL"}, rows[0])
	assert.Equal(t, []string{"Acme Steel", "Chicago", "https://acmesteel.com"}, rows[1])
}

func TestScrapeAll_RowPerURL(t *testing.T) {
	t.Parallel()

	fs := newFakeSearcher()
	fs.hits["Acme Steel"] = hitsFor(
		"https://acmesteel.com",
		"https://acmesteel.example.com/catalog",
	)

	header := []string{"Company Name"}
	results, notFound, resultsPath, _ := scrapeWriters(t, header)

	s := NewScraper(fs, 3)
	_, err := s.ScrapeAll(context.Background(), []model.Company{
		{Name: "Acme Steel", Fields: []string{"Acme Steel"}},
	}, ScrapeOptions{Results: results, NotFound: notFound})
	require.NoError(t, err)
	require.NoError(t, results.Close())

	rows := readCSV(t, resultsPath)
	require.Len(t, rows, 3)
	assert.Equal(t, "https://acmesteel.com", rows[1][1])
	assert.Equal(t, "https://acmesteel.example.com/catalog", rows[2][1])
}

func TestScrapeAll_NotFoundKeepsInputRow(t *testing.T) {
	t.Parallel()

	header := []string{"Company Name", "City"}
	results, notFound, resultsPath, notFoundPath := scrapeWriters(t, header)

	s := NewScraper(newFakeSearcher(), 1)
	summary, err := s.ScrapeAll(context.Background(), []model.Company{
		{Name: "Ghost Co", Fields: []string{"Ghost Co", "Nowhere"}},
	}, ScrapeOptions{Results: results, NotFound: notFound})
	require.NoError(t, err)
	require.NoError(t, results.Close())
	require.NoError(t, notFound.Close())

	assert.Equal(t, int64(1), summary.Succeeded)
	assert.Equal(t, int64(1), summary.NotFound)

	assert.Len(t, readCSV(t, resultsPath), 1)

	rows := readCSV(t, notFoundPath)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"Company Name", "City"}, rows[0])
	assert.Equal(t, []string{"Ghost Co", "Nowhere"}, rows[1])
}

func TestScrapeAll_ErrorLandsInNotFound(t *testing.T) {
	t.Parallel()

	fs := newFakeSearcher()
	fs.errs["Ghost Co"] = eris.New("browser crashed")

	header := []string{"Company Name"}
	results, notFound, _, notFoundPath := scrapeWriters(t, header)

	s := NewScraper(fs, 1)
	summary, err := s.ScrapeAll(context.Background(), []model.Company{
		{Name: "Ghost Co", Fields: []string{"Ghost Co"}},
	}, ScrapeOptions{Results: results, NotFound: notFound})
	require.NoError(t, err)
	require.NoError(t, notFound.Close())

	assert.Equal(t, int64(1), summary.Failed)
	assert.Equal(t, int64(1), summary.NotFound)
	assert.Zero(t, summary.Succeeded)

	rows := readCSV(t, notFoundPath)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"Ghost Co"}, rows[1])
}

func TestScrapeAll_MixedBatch(t *testing.T) {
	t.Parallel()

	fs := newFakeSearcher()
	fs.hits["Acme Steel"] = hitsFor("https://acmesteel.com")
	fs.errs["Ghost Co"] = eris.New("browser crashed")

	header := []string{"Company Name"}
	results, notFound, resultsPath, notFoundPath := scrapeWriters(t, header)

	s := NewScraper(fs, 1)
	summary, err := s.ScrapeAll(context.Background(), []model.Company{
		{Name: "Acme Steel", Fields: []string{"Acme Steel"}},
		{Name: "Ghost Co", Fields: []string{"Ghost Co"}},
		{Name: "Empty Inc", Fields: []string{"Empty Inc"}},
	}, ScrapeOptions{Workers: 2, Results: results, NotFound: notFound})
	require.NoError(t, err)
	require.NoError(t, results.Close())
	require.NoError(t, notFound.Close())

	assert.Equal(t, int64(3), summary.Processed)
	assert.Equal(t, int64(2), summary.Succeeded)
	assert.Equal(t, int64(1), summary.Failed)
	assert.Equal(t, int64(2), summary.NotFound)

	assert.Len(t, readCSV(t, resultsPath), 2)

	notFoundRows := readCSV(t, notFoundPath)
	require.Len(t, notFoundRows, 3)
	rowByFirstColumn(t, notFoundRows, "Ghost Co")
	rowByFirstColumn(t, notFoundRows, "Empty Inc")
}
