package manifest_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osdu-tools/dataload/manifest"
)

func writeMapping(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mapping.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadMapping(t *testing.T) {
	path := writeMapping(t, `{
		"name": "wells",
		"mappings": [
			{"template": "well.json", "source": "wells.csv", "type": "MasterData", "output": "well"},
			{"template": "uom.json", "source": "uom.csv", "type": "ReferenceData", "output": "uom.json", "groupFile": true}
		]
	}`)
	m, err := manifest.LoadMapping(path)
	require.NoError(t, err)
	assert.Equal(t, "wells", m.Name)
	require.Len(t, m.Entries, 2)
	assert.True(t, m.Entries[1].GroupFile)

	typ, err := m.Entries[0].EntityType()
	require.NoError(t, err)
	assert.Equal(t, manifest.TypeMaster, typ)
}

func TestLoadMappingRejectsBadEntries(t *testing.T) {
	_, err := manifest.LoadMapping(writeMapping(t, `{"name": "x", "mappings": []}`))
	require.Error(t, err)

	_, err = manifest.LoadMapping(writeMapping(t, `{
		"mappings": [{"template": "", "source": "a.csv", "type": "MasterData"}]
	}`))
	require.Error(t, err)

	_, err = manifest.LoadMapping(writeMapping(t, `{
		"mappings": [{"template": "t.json", "source": "a.csv", "type": "Wells"}]
	}`))
	require.Error(t, err)
}
