package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("", nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Ops != "./data/ops.jsonl" {
		t.Fatalf("Ops = %s", cfg.Ops)
	}
	if cfg.Events != "./data/events.jsonl" {
		t.Fatalf("Events = %s", cfg.Events)
	}
	if cfg.BatchSize != 1000 {
		t.Fatalf("BatchSize = %d", cfg.BatchSize)
	}
	if !cfg.CheckpointEnabled {
		t.Fatalf("CheckpointEnabled = false")
	}
	if cfg.MaxRetries != 5 {
		t.Fatalf("MaxRetries = %d", cfg.MaxRetries)
	}
	if cfg.RetryBackoff != 500*time.Millisecond {
		t.Fatalf("RetryBackoff = %s", cfg.RetryBackoff)
	}
	if cfg.WindowSeconds != 3600 {
		t.Fatalf("WindowSeconds = %d", cfg.WindowSeconds)
	}
	if cfg.LogLevel != "info" {
		t.Fatalf("LogLevel = %s", cfg.LogLevel)
	}
}

func TestLoadFlagsOverrideDefaults(t *testing.T) {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("ops", "./data/ops.jsonl", "")
	flags.Int("batch-size", 1000, "")
	if err := flags.Parse([]string{"--ops", "/tmp/replay.jsonl", "--batch-size", "250"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}

	cfg, err := Load("", flags)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Ops != "/tmp/replay.jsonl" {
		t.Fatalf("Ops = %s", cfg.Ops)
	}
	if cfg.BatchSize != 250 {
		t.Fatalf("BatchSize = %d", cfg.BatchSize)
	}
	// Untouched keys keep their defaults.
	if cfg.Checkpoint != "./data/checkpoint.json" {
		t.Fatalf("Checkpoint = %s", cfg.Checkpoint)
	}
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := "ops: /var/lib/poold/ops.jsonl\nwindow-seconds: 900\ndatabase-url: postgres://localhost/pools\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path, nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Ops != "/var/lib/poold/ops.jsonl" {
		t.Fatalf("Ops = %s", cfg.Ops)
	}
	if cfg.WindowSeconds != 900 {
		t.Fatalf("WindowSeconds = %d", cfg.WindowSeconds)
	}
	if cfg.DatabaseURL != "postgres://localhost/pools" {
		t.Fatalf("DatabaseURL = %s", cfg.DatabaseURL)
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml"), nil); err == nil {
		t.Fatalf("Load with missing explicit config succeeded")
	}
}
