package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(viper.New(), writeConfig(t, ""))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.ProcRoot != "/proc" || cfg.Source != "procfs" {
		t.Errorf("unexpected source defaults: %+v", cfg)
	}
	if cfg.MaxHops != 1000 {
		t.Errorf("expected max_hops 1000, got %d", cfg.MaxHops)
	}
	if cfg.Kill.WarnThreshold != 1024 {
		t.Errorf("expected warn threshold 1024, got %d", cfg.Kill.WarnThreshold)
	}
	if cfg.Log.MaxSizeMB != 10 || cfg.Log.MaxBackups != 3 || cfg.Log.MaxAgeDays != 7 {
		t.Errorf("unexpected log rotation defaults: %+v", cfg.Log)
	}
	if cfg.TUI.Refresh != time.Second {
		t.Errorf("expected 1s refresh, got %s", cfg.TUI.Refresh)
	}
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
proc_root: /host/proc
source: gopsutil
max_hops: 64
kill:
  warn_threshold: 0
log:
  file: /tmp/ptree.log
  compress: true
metrics:
  textfile: /var/lib/node_exporter/ptree.prom
tui:
  refresh: 250ms
`)

	cfg, err := Load(viper.New(), path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ProcRoot != "/host/proc" || cfg.Source != "gopsutil" || cfg.MaxHops != 64 {
		t.Errorf("unexpected config: %+v", cfg)
	}
	if cfg.Kill.WarnThreshold != 0 {
		t.Errorf("expected warn threshold 0, got %d", cfg.Kill.WarnThreshold)
	}
	if cfg.Log.File != "/tmp/ptree.log" || !cfg.Log.Compress {
		t.Errorf("unexpected log config: %+v", cfg.Log)
	}
	if cfg.Metrics.Textfile != "/var/lib/node_exporter/ptree.prom" {
		t.Errorf("unexpected textfile %q", cfg.Metrics.Textfile)
	}
	if cfg.TUI.Refresh != 250*time.Millisecond {
		t.Errorf("expected 250ms refresh, got %s", cfg.TUI.Refresh)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "max_hops: 64\n")
	t.Setenv("PTREE_MAX_HOPS", "12")
	t.Setenv("PTREE_KILL_WARN_THRESHOLD", "5")

	cfg, err := Load(viper.New(), path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.MaxHops != 12 {
		t.Errorf("expected env max_hops 12, got %d", cfg.MaxHops)
	}
	if cfg.Kill.WarnThreshold != 5 {
		t.Errorf("expected env warn threshold 5, got %d", cfg.Kill.WarnThreshold)
	}
}

func TestLoad_ExplicitMissingFile(t *testing.T) {
	_, err := Load(viper.New(), filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatal("expected error for missing explicit config file")
	}
	if !strings.Contains(err.Error(), "failed to read config") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		errMsg  string
	}{
		{"zero hops", "max_hops: 0\n", "max_hops"},
		{"negative threshold", "kill:\n  warn_threshold: -1\n", "warn_threshold"},
		{"unknown source", "source: wmi\n", "unknown source"},
		{"zero refresh", "tui:\n  refresh: 0s\n", "tui.refresh"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(viper.New(), writeConfig(t, tt.content))
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.errMsg) {
				t.Errorf("expected error containing %q, got %v", tt.errMsg, err)
			}
		})
	}
}

func TestParsePID(t *testing.T) {
	tests := []struct {
		in       string
		expected int
		ok       bool
	}{
		{"1", 1, true},
		{"4242", 4242, true},
		{"0", 0, false},
		{"-5", 0, false},
		{"abc", 0, false},
		{"12abc", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			pid, err := ParsePID(tt.in)
			if tt.ok {
				if err != nil || pid != tt.expected {
					t.Errorf("ParsePID(%q) = %d, %v; expected %d", tt.in, pid, err, tt.expected)
				}
				return
			}
			if !errors.Is(err, ErrInvalidPID) {
				t.Errorf("ParsePID(%q): expected ErrInvalidPID, got %v", tt.in, err)
			}
		})
	}
}
