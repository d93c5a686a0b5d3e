package backend

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"cataloging/internal/config"
)

func TestFromAppConfig(t *testing.T) {
	app := &config.Config{
		DataBackend:  "sqlite",
		SQLiteDBPath: "./data/test.db",
		DBTable:      "cataloging",
		AMQPURL:      "amqp://localhost:5672",
		AMQPExchange: "cataloging",
		AMQPQueue:    "export_records",
	}

	cfg, err := FromAppConfig(app)
	if err != nil {
		t.Fatalf("FromAppConfig: %v", err)
	}
	if cfg.Type != SQLiteBackend {
		t.Errorf("type = %s, want sqlite", cfg.Type)
	}
	if cfg.Schema != "main" {
		t.Errorf("schema = %q, want dialect default main", cfg.Schema)
	}
	if cfg.Table != "cataloging" || cfg.AMQPQueue != "export_records" {
		t.Errorf("unexpected config: %+v", cfg)
	}
}

func TestFromAppConfigRejectsUnknownBackend(t *testing.T) {
	if _, err := FromAppConfig(&config.Config{DataBackend: "mongo"}); err == nil {
		t.Fatal("expected error for unknown backend")
	}
	if _, err := FromAppConfig(nil); err == nil {
		t.Fatal("expected error for nil config")
	}
}

func TestConfigValidate(t *testing.T) {
	valid := Config{Type: SQLiteBackend, SQLiteDBPath: "x.db", Schema: "main", Table: "cataloging"}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"missing table", func(c *Config) { c.Table = "" }, "table name"},
		{"sqlite without path", func(c *Config) { c.SQLiteDBPath = "" }, "database path"},
		{"postgres without dsn", func(c *Config) { c.Type = PostgresBackend }, "DSN"},
		{"unknown type", func(c *Config) { c.Type = "mysql" }, "invalid backend type"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("error = %v, want substring %q", err, tt.wantErr)
			}
		})
	}
}

func TestFactoryCreatesSQLiteBackend(t *testing.T) {
	f := NewFactory(nil)
	cfg := Config{
		Type:         SQLiteBackend,
		SQLiteDBPath: filepath.Join(t.TempDir(), "test.db"),
		Schema:       "main",
		Table:        "cataloging",
	}

	res, err := f.CreateBackend(context.Background(), cfg)
	if err != nil {
		t.Fatalf("create backend: %v", err)
	}
	if res.Service == nil || res.Storage == nil || res.Cleanup == nil {
		t.Fatalf("incomplete result: %+v", res)
	}
	if err := res.Cleanup(); err != nil {
		t.Errorf("cleanup: %v", err)
	}
}
