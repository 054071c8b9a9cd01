package pipeline

import (
	"encoding/csv"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

// readCSV parses a written output file back into rows.
func readCSV(t *testing.T, path string) [][]string {
	t.Helper()

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

// rowByFirstColumn finds the row whose first cell matches. Batch rows
// land in completion order, so tests look rows up instead of indexing.
func rowByFirstColumn(t *testing.T, rows [][]string, key string) []string {
	t.Helper()

	for _, row := range rows {
		if len(row) > 0 && row[0] == key {
			return row
		}
	}
	t.Fatalf("no row with first column %q", key)
	return nil
}
