package config

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr() != ":8080" {
		t.Errorf("addr = %q, want :8080", cfg.Addr())
	}
	if cfg.DBPath != "calmchores.db" {
		t.Errorf("db path = %q", cfg.DBPath)
	}
	if cfg.LogFormat != "text" || cfg.LogLevel != "info" {
		t.Errorf("log = %s/%s, want info/text", cfg.LogLevel, cfg.LogFormat)
	}
	if cfg.SessionTTL != 720*time.Hour {
		t.Errorf("session ttl = %v, want 720h", cfg.SessionTTL)
	}
	if cfg.BackupInterval != 24*time.Hour {
		t.Errorf("backup interval = %v, want 24h", cfg.BackupInterval)
	}
	if cfg.PushEnabled() || cfg.S3.Enabled() {
		t.Error("push and backups should be off by default")
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("CALMCHORES_PORT", "9090")
	t.Setenv("CALMCHORES_LOG_FORMAT", "json")
	t.Setenv("CALMCHORES_BACKUP_INTERVAL", "6h")
	t.Setenv("CALMCHORES_SESSION_TTL", "3600")
	t.Setenv("CALMCHORES_VAPID_PUBLIC_KEY", "pub")
	t.Setenv("CALMCHORES_VAPID_PRIVATE_KEY", "priv")
	t.Setenv("CALMCHORES_S3_BUCKET", "backups")
	t.Setenv("CALMCHORES_S3_ACCESS_KEY", "ak")
	t.Setenv("CALMCHORES_S3_SECRET_KEY", "sk")
	t.Setenv("CALMCHORES_BACKUP_PASSPHRASE", "hunter2")
	t.Setenv("CALMCHORES_SECURE_COOKIES", "true")
	t.Setenv("CALMCHORES_ALLOWED_ORIGINS", "chores.example.com, ,*.example.net")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "9090" || cfg.LogFormat != "json" {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.BackupInterval != 6*time.Hour {
		t.Errorf("backup interval = %v, want 6h", cfg.BackupInterval)
	}
	// Bare integers are read as seconds.
	if cfg.SessionTTL != time.Hour {
		t.Errorf("session ttl = %v, want 1h", cfg.SessionTTL)
	}
	if !cfg.PushEnabled() || !cfg.S3.Enabled() {
		t.Error("expected push and backups enabled")
	}
	if !cfg.SecureCookies {
		t.Error("expected secure cookies")
	}
	if diff := cmp.Diff([]string{"chores.example.com", "*.example.net"}, cfg.AllowedOrigins); diff != "" {
		t.Errorf("origins mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadRejects(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"bad log format", map[string]string{"CALMCHORES_LOG_FORMAT": "xml"}},
		{"half a vapid pair", map[string]string{"CALMCHORES_VAPID_PUBLIC_KEY": "pub"}},
		{"s3 without passphrase", map[string]string{
			"CALMCHORES_S3_BUCKET":     "b",
			"CALMCHORES_S3_ACCESS_KEY": "ak",
			"CALMCHORES_S3_SECRET_KEY": "sk",
		}},
		{"negative session ttl", map[string]string{"CALMCHORES_SESSION_TTL": "-1h"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Chdir(t.TempDir())
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := Load(); err == nil {
				t.Error("expected error")
			}
		})
	}
}
