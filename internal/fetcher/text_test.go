package fetcher

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadLines(t *testing.T) {
	t.Parallel()

	lines, err := ReadLines(strings.NewReader("Acme Corp\n\n  Beta LLC  \nGamma\n"), "")
	require.NoError(t, err)
	assert.Equal(t, []string{"Acme Corp", "Beta LLC", "Gamma"}, lines)
}

func TestReadLinesUTF8BOM(t *testing.T) {
	t.Parallel()

	input := append([]byte{0xEF, 0xBB, 0xBF}, []byte("Acme Corp\nBeta LLC\n")...)
	lines, err := ReadLines(bytes.NewReader(input), "")
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Equal(t, "Acme Corp", lines[0])
}

func TestReadLinesUTF16LE(t *testing.T) {
	t.Parallel()

	// "Acme\nBeta" with a UTF-16LE byte-order mark.
	input := []byte{0xFF, 0xFE}
	for _, r := range "Acme\nBeta" {
		input = append(input, byte(r), 0x00)
	}

	lines, err := ReadLines(bytes.NewReader(input), "")
	require.NoError(t, err)
	assert.Equal(t, []string{"Acme", "Beta"}, lines)
}

func TestReadLinesDeclaredCharset(t *testing.T) {
	t.Parallel()

	// "Café" in windows-1252: é is a single 0xE9 byte.
	input := []byte{'C', 'a', 'f', 0xE9, '\n'}
	lines, err := ReadLines(bytes.NewReader(input), "windows-1252")
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, "Café", lines[0])
}

func TestReadLinesUnknownCharset(t *testing.T) {
	t.Parallel()

	_, err := ReadLines(strings.NewReader("x\n"), "no-such-charset")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no-such-charset")
}

func TestReadLinesEmpty(t *testing.T) {
	t.Parallel()

	lines, err := ReadLines(strings.NewReader(""), "")
	require.NoError(t, err)
	assert.Empty(t, lines)
}
