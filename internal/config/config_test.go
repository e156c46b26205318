package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// validEnv sets the minimum required env vars for a valid config.
func validEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_DSN", "postgres://u:p@localhost:5432/testdb")
	t.Setenv("AUTH_JWT_SECRET", "this-is-a-very-long-jwt-secret-for-testing-32+")
}

func writeYAML(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write yaml: %v", err)
	}
	return path
}

const validYAML = `
server:
  host: "127.0.0.1"
  port: 9090
  read_timeout: "5s"
  write_timeout: "15s"
  idle_timeout: "30s"
  shutdown_timeout: "5s"

database:
  dsn: "postgres://u:p@localhost:5432/testdb"
  max_conns: 10
  min_conns: 2

auth:
  jwt_secret: "this-is-a-very-long-jwt-secret-for-testing-32+"
  access_token_ttl: "6h"

issues:
  max_title_length: 120
  max_comment_length: 2000

log:
  level: "debug"
  format: "text"
`

func TestLoad_FromYAML(t *testing.T) {
	validEnv(t)
	dir := t.TempDir()
	path := writeYAML(t, dir, validYAML)
	t.Setenv("CONFIG_PATH", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 9090 {
		t.Errorf("server config not loaded from yaml: %+v", cfg.Server)
	}
	if cfg.Server.ReadTimeout != 5*time.Second {
		t.Errorf("read_timeout = %v, want 5s", cfg.Server.ReadTimeout)
	}
	if cfg.Database.MaxConns != 10 || cfg.Database.MinConns != 2 {
		t.Errorf("database pool config not loaded: %+v", cfg.Database)
	}
	if cfg.Auth.AccessTokenTTL != 6*time.Hour {
		t.Errorf("access_token_ttl = %v, want 6h", cfg.Auth.AccessTokenTTL)
	}
	if cfg.Issues.MaxTitleLength != 120 {
		t.Errorf("max_title_length = %d, want 120", cfg.Issues.MaxTitleLength)
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != "text" {
		t.Errorf("log config not loaded: %+v", cfg.Log)
	}
}

func TestLoad_EnvOnlyDefaults(t *testing.T) {
	validEnv(t)
	t.Setenv("CONFIG_PATH", "")
	// Run from a directory without config.yaml.
	t.Chdir(t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("default port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Log.Format != "json" {
		t.Errorf("default log format = %q, want json", cfg.Log.Format)
	}
	if cfg.Auth.BcryptCost != 12 {
		t.Errorf("default bcrypt cost = %d, want 12", cfg.Auth.BcryptCost)
	}
}

func TestLoad_EnvOverridesYAML(t *testing.T) {
	validEnv(t)
	dir := t.TempDir()
	path := writeYAML(t, dir, validYAML)
	t.Setenv("CONFIG_PATH", path)
	t.Setenv("SERVER_PORT", "7070")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Server.Port != 7070 {
		t.Errorf("env override failed: port = %d, want 7070", cfg.Server.Port)
	}
}

func TestLoad_MissingRequiredDSN(t *testing.T) {
	t.Setenv("AUTH_JWT_SECRET", "this-is-a-very-long-jwt-secret-for-testing-32+")
	t.Setenv("DATABASE_DSN", "")
	t.Setenv("CONFIG_PATH", "")
	t.Chdir(t.TempDir())

	if _, err := Load(); err == nil {
		t.Fatal("expected error for missing DATABASE_DSN")
	}
}

func TestLoad_ExplicitMissingFile(t *testing.T) {
	validEnv(t)
	t.Setenv("CONFIG_PATH", "/nonexistent/config.yaml")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for explicit missing config file")
	}
}

func TestValidate_ShortJWTSecret(t *testing.T) {
	validEnv(t)
	t.Setenv("AUTH_JWT_SECRET", "short")
	t.Setenv("CONFIG_PATH", "")
	t.Chdir(t.TempDir())

	if _, err := Load(); err == nil {
		t.Fatal("expected validation error for short jwt secret")
	}
}

func TestValidate_BadPoolBounds(t *testing.T) {
	validEnv(t)
	t.Setenv("DATABASE_MIN_CONNS", "50")
	t.Setenv("DATABASE_MAX_CONNS", "10")
	t.Setenv("CONFIG_PATH", "")
	t.Chdir(t.TempDir())

	if _, err := Load(); err == nil {
		t.Fatal("expected validation error for min_conns > max_conns")
	}
}
