package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "test_config.yaml")

	tests := []struct {
		name    string
		content string
		wantErr bool
	}{
		{
			name: "valid config",
			content: `
logger:
  level: debug
  encoding: console
  output_paths:
    - stdout
clock:
  source: ntp
  ntp:
    server: time.example.org
    interval: 10m
wallclock:
  day_anchor: 1700000000
monitor:
  interval: 30s
  drift_threshold: 500ms
store:
  path: "test.db"
`,
			wantErr: false,
		},
		{
			name:    "empty config",
			content: "",
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := os.WriteFile(configPath, []byte(tt.content), 0644); err != nil {
				t.Fatalf("Failed to write config file: %v", err)
			}

			cfg, err := Load(configPath)
			if (err != nil) != tt.wantErr {
				t.Errorf("Load() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && cfg == nil {
				t.Error("Load() returned nil config without error")
			}
		})
	}
}

func TestLoad_ParsesValues(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	content := `
clock:
  source: ntp
  ntp:
    interval: 10m
wallclock:
  day_anchor: 1700000000
monitor:
  interval: 30s
  drift_threshold: 500ms
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Clock.Source != "ntp" {
		t.Errorf("Clock.Source = %q, want ntp", cfg.Clock.Source)
	}
	if cfg.Clock.NTP.Interval != 10*time.Minute {
		t.Errorf("Clock.NTP.Interval = %v, want 10m", cfg.Clock.NTP.Interval)
	}
	if cfg.WallClock.DayAnchor != 1700000000 {
		t.Errorf("WallClock.DayAnchor = %d, want 1700000000", cfg.WallClock.DayAnchor)
	}
	if cfg.Monitor.Interval != 30*time.Second {
		t.Errorf("Monitor.Interval = %v, want 30s", cfg.Monitor.Interval)
	}
	if cfg.Monitor.DriftThreshold != 500*time.Millisecond {
		t.Errorf("Monitor.DriftThreshold = %v, want 500ms", cfg.Monitor.DriftThreshold)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("nonexistent.yaml")
	if err == nil {
		t.Error("Load() should return error for missing file")
	}
}

func TestLoad_LaterFilesOverride(t *testing.T) {
	tmpDir := t.TempDir()
	base := filepath.Join(tmpDir, "config.yaml")
	local := filepath.Join(tmpDir, "local.yaml")

	if err := os.WriteFile(base, []byte("store:\n  path: base.db\nlogger:\n  level: warn\n"), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	if err := os.WriteFile(local, []byte("store:\n  path: local.db\n"), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg, err := Load(base, filepath.Join(tmpDir, "missing.yaml"), local)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Store.Path != "local.db" {
		t.Errorf("Store.Path = %q, want local.db", cfg.Store.Path)
	}
	if cfg.Logger.Level != "warn" {
		t.Errorf("Logger.Level = %q, want warn", cfg.Logger.Level)
	}
}

func TestLoadWithDefaults(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "test_config.yaml")

	tests := []struct {
		name            string
		content         string
		wantLogLevel    string
		wantClockSource string
		wantDayAnchor   uint32
		wantStorePath   string
	}{
		{
			name:            "applies defaults when values missing",
			content:         "logger:\n  level: \"\"\n",
			wantLogLevel:    "info",
			wantClockSource: "host",
			wantDayAnchor:   315532800,
			wantStorePath:   "data/dosrt.db",
		},
		{
			name:            "respects provided values",
			content:         "logger:\n  level: debug\nclock:\n  source: ntp\nwallclock:\n  day_anchor: 86400\nstore:\n  path: custom.db\n",
			wantLogLevel:    "debug",
			wantClockSource: "ntp",
			wantDayAnchor:   86400,
			wantStorePath:   "custom.db",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := os.WriteFile(configPath, []byte(tt.content), 0644); err != nil {
				t.Fatalf("Failed to write config file: %v", err)
			}

			cfg, err := LoadWithDefaults(configPath)
			if err != nil {
				t.Fatalf("LoadWithDefaults() error = %v", err)
			}

			if cfg.Logger.Level != tt.wantLogLevel {
				t.Errorf("Logger.Level = %q, want %q", cfg.Logger.Level, tt.wantLogLevel)
			}
			if cfg.Clock.Source != tt.wantClockSource {
				t.Errorf("Clock.Source = %q, want %q", cfg.Clock.Source, tt.wantClockSource)
			}
			if cfg.WallClock.DayAnchor != tt.wantDayAnchor {
				t.Errorf("WallClock.DayAnchor = %d, want %d", cfg.WallClock.DayAnchor, tt.wantDayAnchor)
			}
			if cfg.Store.Path != tt.wantStorePath {
				t.Errorf("Store.Path = %q, want %q", cfg.Store.Path, tt.wantStorePath)
			}
		})
	}
}

func TestLoadWithDefaults_UnknownClockSource(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte("clock:\n  source: gps\n"), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	if _, err := LoadWithDefaults(configPath); err == nil {
		t.Error("LoadWithDefaults() should reject unknown clock source")
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Clock.NTP.Server != "pool.ntp.org" {
		t.Errorf("Clock.NTP.Server = %q, want pool.ntp.org", cfg.Clock.NTP.Server)
	}
	if cfg.Clock.NTP.Timeout != 5*time.Second {
		t.Errorf("Clock.NTP.Timeout = %v, want 5s", cfg.Clock.NTP.Timeout)
	}
	if cfg.Monitor.Interval != 10*time.Second {
		t.Errorf("Monitor.Interval = %v, want 10s", cfg.Monitor.Interval)
	}
	if cfg.Monitor.DriftThreshold != 2*time.Second {
		t.Errorf("Monitor.DriftThreshold = %v, want 2s", cfg.Monitor.DriftThreshold)
	}
	if cfg.Store.FlushDebounce != 5*time.Second {
		t.Errorf("Store.FlushDebounce = %v, want 5s", cfg.Store.FlushDebounce)
	}
	if len(cfg.Logger.OutputPaths) != 1 || cfg.Logger.OutputPaths[0] != "stdout" {
		t.Errorf("Logger.OutputPaths = %v, want [stdout]", cfg.Logger.OutputPaths)
	}
}
