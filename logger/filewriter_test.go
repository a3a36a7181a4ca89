package logger_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/osdu-tools/dataload/logger"
)

func TestFileWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.log")
	fw, err := logger.NewFileWriter(path)
	if err != nil {
		t.Fatal(err)
	}
	log := logger.NewStandardLogger(fw)
	log.Infof("line one")

	// Simulate rotation: the file is moved away and the writer reopened.
	if err := os.Rename(path, path+".1"); err != nil {
		t.Fatal(err)
	}
	if err := fw.Reopen(); err != nil {
		t.Fatal(err)
	}
	log.Infof("line two")
	if err := fw.Close(); err != nil {
		t.Fatal(err)
	}

	rotated, err := os.ReadFile(path + ".1")
	if err != nil {
		t.Fatal(err)
	}
	current, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(rotated), "line one") {
		t.Fatalf("rotated file missing first line: %q", rotated)
	}
	if !strings.Contains(string(current), "line two") {
		t.Fatalf("reopened file missing second line: %q", current)
	}
}
