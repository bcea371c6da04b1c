package applog

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestInfoAndErrorWriteJSONLines(t *testing.T) {
	dir := t.TempDir()
	if err := Init(dir, "info"); err != nil {
		t.Fatalf("Init: %v", err)
	}
	Info("tab.open", "window", "w1", "index", 3)
	Error("engine.surface.failed", errors.New("boom"), "window", "w1")
	Debug("hidden.at.info")
	Close()

	data, err := os.ReadFile(filepath.Join(dir, fileName))
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d:\n%s", len(lines), data)
	}

	var first map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatalf("line 1 not JSON: %v", err)
	}
	if first["event"] != "tab.open" || first["window"] != "w1" {
		t.Errorf("unexpected first line: %v", first)
	}

	var second map[string]any
	if err := json.Unmarshal([]byte(lines[1]), &second); err != nil {
		t.Fatalf("line 2 not JSON: %v", err)
	}
	if second["err"] != "boom" || second["level"] != "ERROR" {
		t.Errorf("unexpected second line: %v", second)
	}
}

func TestCallsBeforeInitAreNoops(t *testing.T) {
	Close()
	Info("nothing")
	Error("nothing", errors.New("x"))
}

func TestTruncatesLongValues(t *testing.T) {
	long := strings.Repeat("a", maxValueLen+50)
	got := truncate(long)
	if !strings.HasSuffix(got, truncSuffix) || len(got) != maxValueLen+len(truncSuffix) {
		t.Errorf("truncate produced %d bytes", len(got))
	}
}
