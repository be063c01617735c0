package conf

import (
	"os"
	"path/filepath"
	"testing"
)

type testConfig struct {
	Server struct {
		Host string `mapstructure:"host"`
		Port int    `mapstructure:"port"`
	} `mapstructure:"server"`
	Database struct {
		Password string `mapstructure:"password"`
	} `mapstructure:"database"`
}

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return dir
}

func TestLoadWithPlaceholderDefaults(t *testing.T) {
	dir := writeConfigFile(t, `
server:
  host: ${TEST_WL_HOST:-127.0.0.1}
  port: ${TEST_WL_PORT:-8080}
database:
  password: ${TEST_WL_DB_PASSWORD:-}
`)

	var cfg testConfig
	if err := NewLoader(dir, "config", "yaml").Load(&cfg); err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 8080 {
		t.Fatalf("defaults not applied: %+v", cfg.Server)
	}
	if cfg.Database.Password != "" {
		t.Fatalf("empty default should stay empty, got %q", cfg.Database.Password)
	}
}

func TestLoadWithEnvOverride(t *testing.T) {
	dir := writeConfigFile(t, `
server:
  host: ${TEST_WL_HOST:-127.0.0.1}
  port: 8080
`)

	t.Setenv("TEST_WL_HOST", "10.0.0.5")

	var cfg testConfig
	if err := NewLoader(dir, "config", "yaml").Load(&cfg); err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Host != "10.0.0.5" {
		t.Fatalf("env override not applied: %+v", cfg.Server)
	}
}

func TestLoadMissingFileFallsBackToEnv(t *testing.T) {
	dir := t.TempDir()

	var cfg testConfig
	if err := NewLoader(dir, "config", "yaml").Load(&cfg); err != nil {
		t.Fatalf("missing file should not error: %v", err)
	}
}
