package logger_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/osdu-tools/dataload/logger"
)

func TestStandardLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewStandardLogger(&buf)
	log.Debugf("hidden")
	log.Infof("shown")
	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("debug output present at info verbosity: %q", out)
	}
	if !strings.Contains(out, "INFO:  shown") {
		t.Fatalf("expected info line, got: %q", out)
	}
}

func TestVerboseLogger(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewVerboseLogger(&buf)
	log.Debugf("now visible")
	if !strings.Contains(buf.String(), "DEBUG: now visible") {
		t.Fatalf("expected debug line, got: %q", buf.String())
	}
}

func TestWithPrefix(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewStandardLogger(&buf).WithPrefix("[upload-1] ")
	log.Errorf("boom")
	if !strings.Contains(buf.String(), "[upload-1] ERROR: boom") {
		t.Fatalf("expected prefixed line, got: %q", buf.String())
	}
}

func TestBufferLogger(t *testing.T) {
	log := logger.NewBufferLogger()
	log.Infof("first %d", 1)
	log.Warnf("second")
	out, err := log.ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(out), "INFO:  first 1") || !strings.Contains(string(out), "WARN:  second") {
		t.Fatalf("unexpected buffer contents: %q", out)
	}
}
