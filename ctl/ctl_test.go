package ctl

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunIDsRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.json")
	require.NoError(t, writeRunIDs(path, []string{"run-1", "run-2"}))
	got, err := readRunIDs(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"run-1", "run-2"}, got)
}

func TestGenerateCommand(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "uom.json"),
		[]byte(`{"id": "<namespace>:reference-data--UnitOfMeasure:{{code}}"}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "uom.csv"),
		[]byte("code\nm\nft\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "mapping.json"), []byte(`{
		"name": "units",
		"mappings": [
			{"template": "uom.json", "source": "uom.csv", "type": "ReferenceData", "output": "uom.json", "groupFile": true}
		]
	}`), 0o644))

	var stdout, stderr bytes.Buffer
	cmd := NewGenerateCommand(strings.NewReader(""), &stdout, &stderr)
	cmd.MappingPath = filepath.Join(dir, "mapping.json")
	cmd.TemplateDir = dir
	cmd.SourceDir = dir
	cmd.OutputDir = filepath.Join(dir, "out")
	cmd.Namespace = "opendes"

	require.NoError(t, cmd.Run(context.Background()))

	_, err := os.Stat(filepath.Join(dir, "out", "uom.json"))
	require.NoError(t, err)
	assert.Contains(t, stdout.String(), "manifests")
}

func TestGenerateCommandRequiresMapping(t *testing.T) {
	var stdout, stderr bytes.Buffer
	cmd := NewGenerateCommand(strings.NewReader(""), &stdout, &stderr)
	cmd.OutputDir = t.TempDir()
	require.Error(t, cmd.Run(context.Background()))
}

func TestDeleteCommandConfirmation(t *testing.T) {
	var stdout, stderr bytes.Buffer
	cmd := NewDeleteCommand(strings.NewReader("n\n"), &stdout, &stderr)
	cmd.Dir = t.TempDir()

	// A declined confirmation is a no-op, not an error.
	require.NoError(t, cmd.Run(context.Background()))
	assert.Contains(t, stdout.String(), "aborted")
}
