package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SPLITLEDGER_CONFIG", "/nonexistent/config.toml")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Database.Path != "./data/splitledger.db" {
		t.Errorf("Database.Path = %q, want ./data/splitledger.db", cfg.Database.Path)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("Log.Level = %q, want info", cfg.Log.Level)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("SPLITLEDGER_CONFIG", "/nonexistent/config.toml")
	t.Setenv("SPLITLEDGER_SERVER_PORT", "9090")
	t.Setenv("SPLITLEDGER_DATABASE_PATH", "/tmp/ledger.db")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Database.Path != "/tmp/ledger.db" {
		t.Errorf("Database.Path = %q, want /tmp/ledger.db", cfg.Database.Path)
	}
}
