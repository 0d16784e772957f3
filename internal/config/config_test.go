package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadKeepsDefaultsForMissingKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.yaml")
	content := "port: \"8081\"\nsession_ttl: 2h\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "8081" {
		t.Errorf("port = %q, want 8081", cfg.Port)
	}
	if cfg.SessionTTL != 2*time.Hour {
		t.Errorf("session_ttl = %v, want 2h", cfg.SessionTTL)
	}
	if cfg.MaxUploadBytes != 50<<20 {
		t.Errorf("max_upload_bytes = %d, want default", cfg.MaxUploadBytes)
	}
	if cfg.DBDriver != "sqlite3" {
		t.Errorf("db_driver = %q, want sqlite3", cfg.DBDriver)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"PORT":                           "9000",
		"FILEDROP_DB_DRIVER":             "postgres",
		"FILEDROP_MAX_UPLOAD_BYTES":      "1024",
		"FILEDROP_LOGOUT_CLEARS_SESSION": "true",
	}
	cfg := Default()
	if err := cfg.ApplyEnv(func(k string) string { return env[k] }); err != nil {
		t.Fatalf("ApplyEnv: %v", err)
	}
	if cfg.Port != "9000" || cfg.DBDriver != "postgres" || cfg.MaxUploadBytes != 1024 || !cfg.LogoutClearsSession {
		t.Fatalf("unexpected config: %+v", cfg)
	}

	bad := Default()
	err := bad.ApplyEnv(func(k string) string {
		if k == "FILEDROP_MAX_UPLOAD_BYTES" {
			return "lots"
		}
		return ""
	})
	if err == nil {
		t.Fatal("expected error for non-numeric size")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"unknown driver", func(c *Config) { c.DBDriver = "mysql" }, true},
		{"empty secret", func(c *Config) { c.Secret = "" }, true},
		{"empty dsn", func(c *Config) { c.DBDSN = "" }, true},
		{"zero upload limit", func(c *Config) { c.MaxUploadBytes = 0 }, true},
		{"negative ttl", func(c *Config) { c.SessionTTL = -time.Second }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
