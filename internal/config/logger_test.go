package config

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/simp-lee/logger"
)

func boolPtr(b bool) *bool { return &b }

func TestSetupLogger_NilConfig(t *testing.T) {
	if _, err := SetupLogger(nil); err == nil {
		t.Fatal("SetupLogger(nil) expected error")
	}
}

func TestSetupLogger_LevelMapping(t *testing.T) {
	tests := []struct {
		name      string
		level     string
		wantLevel slog.Level
	}{
		{"debug level", "debug", slog.LevelDebug},
		{"info level", "info", slog.LevelInfo},
		{"warn level", "warn", slog.LevelWarn},
		{"error level", "error", slog.LevelError},
		{"uppercase DEBUG", "DEBUG", slog.LevelDebug},
		{"invalid defaults to info", "invalid", slog.LevelInfo},
		{"empty defaults to info", "", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log, err := SetupLogger(&LogConfig{Level: tt.level, Format: "text"})
			if err != nil {
				t.Fatalf("SetupLogger error: %v", err)
			}
			defer log.Close()

			if !log.Enabled(context.TODO(), tt.wantLevel) {
				t.Errorf("expected level %v to be enabled", tt.wantLevel)
			}
			if tt.wantLevel > slog.LevelDebug && log.Enabled(context.TODO(), tt.wantLevel-1) {
				t.Errorf("expected level %v to be disabled", tt.wantLevel-1)
			}
		})
	}
}

func TestSetupLogger_WritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	log, err := SetupLogger(&LogConfig{
		Level: "info", Format: "json", Color: boolPtr(false), FilePath: path,
		MaxSizeMB: 1, RetentionDays: 1, MaxBackups: 1, CompressRotated: boolPtr(false),
	})
	if err != nil {
		t.Fatalf("SetupLogger error: %v", err)
	}
	log.Info("application received", slog.Uint64("job_id", 7))
	if err := log.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if len(data) == 0 {
		t.Error("log file is empty")
	}
}

func TestBuildLoggerOpts(t *testing.T) {
	const base = 4
	tests := []struct {
		name      string
		cfg       *LogConfig
		wantCount int
	}{
		{"nil config", nil, 0},
		{"console only", &LogConfig{Level: "info", Format: "text"}, base},
		{"file without rotation", &LogConfig{Level: "info", Format: "json", FilePath: "x.log"}, base + 2},
		{"file with rotation", &LogConfig{
			Level: "info", Format: "json", FilePath: "x.log",
			MaxSizeMB: 10, RetentionDays: 7, MaxBackups: 3, CompressRotated: boolPtr(true),
		}, base + 6},
		{"rotation ignored without file", &LogConfig{Level: "info", Format: "text", MaxSizeMB: 10}, base},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := len(BuildLoggerOpts(tt.cfg)); got != tt.wantCount {
				t.Errorf("len(BuildLoggerOpts()) = %d; want %d", got, tt.wantCount)
			}
		})
	}
}

func TestBuildLoggerOpts_ProducesValidLogger(t *testing.T) {
	for _, format := range []string{"text", "json", "custom"} {
		t.Run(format, func(t *testing.T) {
			log, err := logger.New(BuildLoggerOpts(&LogConfig{Level: "warn", Format: format})...)
			if err != nil {
				t.Fatalf("logger.New failed: %v", err)
			}
			defer log.Close()
			if log.Enabled(context.TODO(), slog.LevelInfo) {
				t.Error("info should be disabled at warn level")
			}
		})
	}
}
