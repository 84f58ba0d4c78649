package config

import (
	"os"
	"path/filepath"
	"testing"
)

const validYAML = `
server:
  host: "127.0.0.1"
  port: 8080
database:
  driver: "sqlite"
  path: "/tmp/liftlog-test.db"
auth:
  api_key: "test-key-123"
profile:
  weight_unit: "lb"
`

func writeTemp(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

// TestLoadValid verifies that a well-formed YAML config loads with all fields populated.
func TestLoadValid(t *testing.T) {
	cfg, err := Load(writeTemp(t, validYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Host != "127.0.0.1" {
		t.Errorf("server.host = %q, want %q", cfg.Server.Host, "127.0.0.1")
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("server.port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Database.Driver != "sqlite" {
		t.Errorf("database.driver = %q, want sqlite", cfg.Database.Driver)
	}
	if cfg.Database.Path != "/tmp/liftlog-test.db" {
		t.Errorf("database.path = %q, want /tmp/liftlog-test.db", cfg.Database.Path)
	}
	if cfg.Auth.APIKey != "test-key-123" {
		t.Errorf("auth.api_key = %q, want %q", cfg.Auth.APIKey, "test-key-123")
	}
	if cfg.Profile.WeightUnit != "lb" {
		t.Errorf("profile.weight_unit = %q, want lb", cfg.Profile.WeightUnit)
	}
}

// TestDefaults verifies sqlite driver, path, and weight unit defaults.
func TestDefaults(t *testing.T) {
	cfg, err := Load(writeTemp(t, "server:\n  port: 9000\nauth:\n  api_key: k\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Database.Driver != "sqlite" {
		t.Errorf("default driver = %q, want sqlite", cfg.Database.Driver)
	}
	if cfg.Database.Path != "liftlog.db" {
		t.Errorf("default path = %q, want liftlog.db", cfg.Database.Path)
	}
	if cfg.Profile.WeightUnit != "kg" {
		t.Errorf("default weight_unit = %q, want kg", cfg.Profile.WeightUnit)
	}
}

// TestEnvOverride verifies that LIFTLOG_ env vars take precedence over YAML values.
func TestEnvOverride(t *testing.T) {
	t.Setenv("LIFTLOG_SERVER_PORT", "9999")
	t.Setenv("LIFTLOG_DB_PATH", "/var/lib/liftlog/data.db")
	t.Setenv("LIFTLOG_WEIGHT_UNIT", "kg")

	cfg, err := Load(writeTemp(t, validYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != 9999 {
		t.Errorf("server.port = %d, want 9999", cfg.Server.Port)
	}
	if cfg.Database.Path != "/var/lib/liftlog/data.db" {
		t.Errorf("database.path = %q, want /var/lib/liftlog/data.db", cfg.Database.Path)
	}
	if cfg.Profile.WeightUnit != "kg" {
		t.Errorf("profile.weight_unit = %q, want kg", cfg.Profile.WeightUnit)
	}
}

// TestValidation covers the required-field and enum checks.
func TestValidation(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"missing port", "database:\n  path: x.db\n"},
		{"missing api key", "server:\n  port: 1\n"},
		{"postgres missing host", "server:\n  port: 1\ndatabase:\n  driver: postgres\n  port: 5432\n  name: n\n  user: u\n"},
		{"bad driver", "server:\n  port: 1\ndatabase:\n  driver: mysql\n"},
		{"bad unit", "server:\n  port: 1\nprofile:\n  weight_unit: stone\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(writeTemp(t, tt.yaml)); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}

// TestPostgresDSN verifies the connection string for the postgres driver.
func TestPostgresDSN(t *testing.T) {
	d := DatabaseConfig{Driver: "postgres", Host: "db", Port: 5432, Name: "liftlog", User: "u", Password: "p"}
	want := "postgres://u:p@db:5432/liftlog?sslmode=disable"
	if got := d.DSN(); got != want {
		t.Errorf("DSN() = %q, want %q", got, want)
	}
}

// TestSqliteDSN verifies the foreign_keys pragma is always present.
func TestSqliteDSN(t *testing.T) {
	d := DatabaseConfig{Driver: "sqlite", Path: "data.db"}
	want := "file:data.db?_pragma=foreign_keys(1)"
	if got := d.DSN(); got != want {
		t.Errorf("DSN() = %q, want %q", got, want)
	}
}
