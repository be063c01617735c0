package logger

import (
	"path/filepath"
	"testing"

	"go.uber.org/zap"
)

func TestNewLoggerDefaults(t *testing.T) {
	log := NewLogger(Config{})
	if log == nil || log.Logger == nil {
		t.Fatalf("expected usable logger")
	}
	log.Info("hello", zap.String("k", "v"))
}

func TestNewLoggerConsoleFormat(t *testing.T) {
	log := NewLogger(Config{Level: "debug", Format: "console"})
	log.Debug("debug line")
}

func TestNewLoggerFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	log := NewLogger(Config{
		Output: "file",
		File:   FileConfig{Path: path, MaxSizeMB: 1},
	})
	log.Info("to file")
	if err := log.Sync(); err != nil {
		t.Logf("sync: %v", err)
	}
}

func TestNamed(t *testing.T) {
	log := NewNop().Named("authz")
	if log == nil {
		t.Fatalf("named logger missing")
	}
}
