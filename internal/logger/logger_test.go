package logger

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

// TestFileSinkWritesJSON checks the lumberjack file sink receives structured
// JSON lines with the attached fields.
func TestFileSinkWritesJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "droidloop.log")
	log := New(Options{Level: "debug", FilePath: path})

	log.Info("replay finished", "total", 3, "success", true, "scenario", "login flow")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("log file not written: %v", err)
	}
	var line map[string]any
	if err := json.Unmarshal(data, &line); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}
	if line["message"] != "replay finished" {
		t.Errorf("message = %v, want replay finished", line["message"])
	}
	if line["total"] != 3.0 {
		t.Errorf("total = %v, want 3", line["total"])
	}
	if line["success"] != true {
		t.Errorf("success = %v, want true", line["success"])
	}
	if line["scenario"] != "login flow" {
		t.Errorf("scenario = %v, want login flow", line["scenario"])
	}
}

// TestLevelFiltering checks lines below the configured level are dropped.
func TestLevelFiltering(t *testing.T) {
	path := filepath.Join(t.TempDir(), "droidloop.log")
	log := New(Options{Level: "warn", FilePath: path})

	log.Debug("dropped")
	log.Info("dropped too")

	if data, err := os.ReadFile(path); err == nil && len(data) > 0 {
		t.Errorf("expected no output below warn, got: %s", data)
	}

	log.Error("kept", "error", os.ErrNotExist)
	data, err := os.ReadFile(path)
	if err != nil || len(data) == 0 {
		t.Fatal("expected error line to be written")
	}
}

// TestNopDiscards checks the no-op logger never panics on any call shape.
func TestNopDiscards(t *testing.T) {
	log := Nop()
	log.Debug("x")
	log.Info("x", "k", "v")
	log.Warn("x", "odd")
	log.Error("x", 42, "non-string key")
}
