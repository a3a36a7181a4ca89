package manifest_test

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osdu-tools/dataload/logger"
	"github.com/osdu-tools/dataload/manifest"
)

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rows.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRowSource(t *testing.T) {
	path := writeCSV(t, "Name,Basin\nWell-1,North Sea\nWell-2,Permian\n")
	src := manifest.NewRowSource(path, logger.NewLogfLogger(t))

	row, err := src.Next()
	require.NoError(t, err)
	assert.Equal(t, "Well-1", row.Get("name"))
	assert.Equal(t, "North Sea", row.Get("Basin"))

	row, err = src.Next()
	require.NoError(t, err)
	assert.Equal(t, "Well-2", row.Get("name"))

	_, err = src.Next()
	assert.Equal(t, io.EOF, err)
}

func TestRowSourceHeaderNormalization(t *testing.T) {
	// BOM and mixed-case headers are normalized.
	path := writeCSV(t, "\uFEFFNAME, Basin \nWell-1,x\n")
	src := manifest.NewRowSource(path, logger.NewLogfLogger(t))

	row, err := src.Next()
	require.NoError(t, err)
	assert.Equal(t, "Well-1", row.Get("name"))
	assert.Equal(t, "x", row.Get("basin"))
}

func TestRowSourceDuplicateColumn(t *testing.T) {
	path := writeCSV(t, "name,Name\na,b\n")
	src := manifest.NewRowSource(path, logger.NewLogfLogger(t))

	_, err := src.Next()
	require.Error(t, err)
}

func TestRowSourceExtraColumnsIgnored(t *testing.T) {
	path := writeCSV(t, "name\nWell-1,extra\nWell-2\n")
	src := manifest.NewRowSource(path, logger.NewLogfLogger(t))

	row, err := src.Next()
	require.NoError(t, err)
	assert.Equal(t, "Well-1", row.Get("name"))

	row, err = src.Next()
	require.NoError(t, err)
	assert.Equal(t, "Well-2", row.Get("name"))
}

func TestRowSourceMissingFile(t *testing.T) {
	src := manifest.NewRowSource(filepath.Join(t.TempDir(), "nope.csv"), nil)
	_, err := src.Next()
	require.Error(t, err)
}
