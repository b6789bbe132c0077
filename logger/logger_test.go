package logger

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{
			name: "default config",
			config: Config{
				Level:       "info",
				OutputPaths: []string{"stdout"},
			},
			wantErr: false,
		},
		{
			name: "debug level",
			config: Config{
				Level:       "debug",
				OutputPaths: []string{"stdout"},
			},
			wantErr: false,
		},
		{
			name: "warn level",
			config: Config{
				Level:       "warn",
				OutputPaths: []string{"stdout"},
			},
			wantErr: false,
		},
		{
			name: "error level",
			config: Config{
				Level:       "error",
				OutputPaths: []string{"stdout"},
			},
			wantErr: false,
		},
		{
			name: "invalid level falls back to info",
			config: Config{
				Level:       "invalid",
				OutputPaths: []string{"stdout"},
			},
			wantErr: false,
		},
		{
			name: "empty output paths",
			config: Config{
				Level:       "info",
				OutputPaths: []string{},
			},
			wantErr: false,
		},
		{
			name: "console encoding",
			config: Config{
				Level:       "debug",
				OutputPaths: []string{"stderr"},
				Encoding:    "console",
			},
			wantErr: false,
		},
		{
			name: "unknown encoding",
			config: Config{
				Level:    "info",
				Encoding: "xml",
			},
			wantErr: true,
		},
		{
			name: "multiple output paths",
			config: Config{
				Level:       "info",
				OutputPaths: []string{"stdout", "stderr"},
			},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := New(tt.config)
			if (err != nil) != tt.wantErr {
				t.Errorf("New() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && logger == nil {
				t.Error("New() returned nil logger without error")
			}
		})
	}
}

func TestNewNop(t *testing.T) {
	logger := NewNop()
	if logger == nil {
		t.Error("NewNop() returned nil")
		return
	}

	// Verify it doesn't panic when called
	logger.DebugW("test debug", "key", "value")
	logger.InfoW("test message", "key", "value")
	logger.WarnW("test warning", "key", "value")
	logger.ErrorW("test error", "key", "value")

	if err := logger.Sync(); err != nil {
		t.Errorf("Sync() should not error on nop logger: %v", err)
	}
}

func TestFromZap(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := FromZap(zap.New(core))

	l.DebugW("tick", "raw", 42)
	l.WarnW("wall clock regressed", "by", "50s")

	if logs.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", logs.Len())
	}
	entry := logs.FilterMessage("wall clock regressed").All()
	if len(entry) != 1 || entry[0].Level != zapcore.WarnLevel {
		t.Fatalf("unexpected warn entries %#v", entry)
	}
	if got := entry[0].ContextMap()["by"]; got != "50s" {
		t.Fatalf("expected field by=50s, got %v", got)
	}
}
