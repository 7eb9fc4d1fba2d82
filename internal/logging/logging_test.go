package logging_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/blackwell-systems/libraryctl/internal/logging"
	"go.uber.org/zap"
)

func TestNew_NoFileIsNop(t *testing.T) {
	l, err := logging.New(logging.Options{Level: "debug"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if l.Core().Enabled(zap.ErrorLevel) {
		t.Error("logger without a file should discard everything")
	}
}

func TestNew_WritesJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "libraryctl.log")
	l, err := logging.New(logging.Options{File: path, Level: "warn"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	l.Info("dropped")
	l.Warn("kept", zap.String("book", "b1"))
	_ = l.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1:\n%s", len(lines), data)
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("line is not JSON: %v", err)
	}
	if entry["msg"] != "kept" || entry["book"] != "b1" {
		t.Errorf("entry = %v", entry)
	}
}

func TestNew_VerboseForcesDebug(t *testing.T) {
	path := filepath.Join(t.TempDir(), "debug.log")
	l, err := logging.New(logging.Options{File: path, Level: "error", Verbose: true})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if !l.Core().Enabled(zap.DebugLevel) {
		t.Error("verbose should enable debug")
	}
}

func TestNew_BadLevel(t *testing.T) {
	if _, err := logging.New(logging.Options{File: filepath.Join(t.TempDir(), "x.log"), Level: "chatty"}); err == nil {
		t.Error("unknown level should fail")
	}
}
