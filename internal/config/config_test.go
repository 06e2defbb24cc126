package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/droidloop/droidloop/pkg/execution"
)

// TestLoadDefaults checks an empty load yields the documented defaults and
// the execution conversion matches them.
func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("", nil)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Log.Level != "info" {
		t.Errorf("log.level = %q, want info", cfg.Log.Level)
	}
	if cfg.Adb.Binary != "adb" {
		t.Errorf("adb.binary = %q, want adb", cfg.Adb.Binary)
	}
	if !cfg.History.Enable {
		t.Error("history.enable = false, want true")
	}

	def := execution.DefaultConfig()
	got := cfg.ExecutionConfig()
	if got != def {
		t.Errorf("ExecutionConfig() = %+v, want defaults %+v", got, def)
	}
	if err := got.Validate(); err != nil {
		t.Errorf("default execution config invalid: %v", err)
	}
}

// TestLoadYAMLFile checks file values override defaults.
func TestLoadYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "droidloop.yaml")
	content := `
log:
  level: debug
adb:
  binary: /opt/platform-tools/adb
replay:
  retry_attempts: 5
  speed_multiplier: 2.0
  stop_on_error: true
history:
  enable: false
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path, nil)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("log.level = %q, want debug", cfg.Log.Level)
	}
	if cfg.Adb.Binary != "/opt/platform-tools/adb" {
		t.Errorf("adb.binary = %q, want /opt/platform-tools/adb", cfg.Adb.Binary)
	}
	if cfg.History.Enable {
		t.Error("history.enable = true, want false")
	}

	exec := cfg.ExecutionConfig()
	if exec.RetryAttempts != 5 {
		t.Errorf("retry_attempts = %d, want 5", exec.RetryAttempts)
	}
	if exec.SpeedMultiplier != 2.0 {
		t.Errorf("speed_multiplier = %v, want 2.0", exec.SpeedMultiplier)
	}
	if !exec.StopOnError {
		t.Error("stop_on_error = false, want true")
	}
	// Unset keys keep their defaults.
	if exec.RetryDelayMs != execution.DefaultConfig().RetryDelayMs {
		t.Errorf("retry_delay_ms = %d, want default", exec.RetryDelayMs)
	}
}

// TestLoadMissingFile checks an explicit but absent config file is an error.
func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), nil)
	if err == nil {
		t.Fatal("expected error for missing config file")
	}
}

// TestEnvOverride checks DROIDLOOP_ environment variables win over defaults.
func TestEnvOverride(t *testing.T) {
	t.Setenv("DROIDLOOP_ADB_BINARY", "/usr/local/bin/adb")
	cfg, err := Load("", nil)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Adb.Binary != "/usr/local/bin/adb" {
		t.Errorf("adb.binary = %q, want env override", cfg.Adb.Binary)
	}
}
