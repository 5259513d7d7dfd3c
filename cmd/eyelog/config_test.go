package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "eyelog.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `dir: recordings
eyes: right
policy: abort_file
workers: 2
format: csv
events: false
patterns: [a.yaml, b.yaml]
plugin_timeout: 100ms
`)

	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatalf("loadConfig() error = %v", err)
	}
	if cfg.Dir != "recordings" || cfg.Eyes != "right" || cfg.Policy != "abort_file" {
		t.Errorf("loadConfig() = %+v", cfg)
	}
	if cfg.Workers != 2 || cfg.Format != "csv" {
		t.Errorf("loadConfig() = %+v", cfg)
	}
	if cfg.Events == nil || *cfg.Events {
		t.Errorf("Events = %v, want explicit false", cfg.Events)
	}
	if len(cfg.Patterns) != 2 || cfg.Patterns[1] != "b.yaml" {
		t.Errorf("Patterns = %v", cfg.Patterns)
	}
	if cfg.PluginTimeout != 100*time.Millisecond {
		t.Errorf("PluginTimeout = %v, want 100ms", cfg.PluginTimeout)
	}
}

func TestLoadConfig_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"unknown key", "dri: data\n", "failed to parse config file"},
		{"bad yaml", "dir: [\n", "failed to parse config file"},
		{"bad eyes", "eyes: none\n", "eyes:"},
		{"bad policy", "policy: ignore\n", "policy:"},
		{"bad format", "format: xml\n", "format:"},
		{"negative workers", "workers: -1\n", "workers:"},
		{"negative timeout", "plugin_timeout: -1s\n", "plugin_timeout:"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loadConfig(writeConfig(t, tt.content))
			if err == nil {
				t.Fatal("loadConfig() expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadConfig_MultipleErrors(t *testing.T) {
	_, err := loadConfig(writeConfig(t, "eyes: none\npolicy: ignore\n"))
	if err == nil {
		t.Fatal("loadConfig() expected error")
	}
	for _, want := range []string{"eyes:", "policy:"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error = %q, want it to contain %q", err, want)
		}
	}
}

func TestLoadConfig_FileErrors(t *testing.T) {
	dir := t.TempDir()

	t.Run("not found", func(t *testing.T) {
		_, err := loadConfig(filepath.Join(dir, "missing.yaml"))
		if err == nil {
			t.Fatal("loadConfig() expected error")
		}
		if strings.Contains(err.Error(), dir) {
			t.Errorf("error message should not contain path: %s", err)
		}
	})

	t.Run("too large", func(t *testing.T) {
		big := "dir: " + strings.Repeat("x", maxConfigSize) + "\n"
		if _, err := loadConfig(writeConfig(t, big)); err == nil {
			t.Fatal("loadConfig() expected error for oversized file")
		}
	})

	t.Run("directory", func(t *testing.T) {
		if _, err := loadConfig(dir); err == nil {
			t.Fatal("loadConfig() expected error for directory")
		}
	})
}
