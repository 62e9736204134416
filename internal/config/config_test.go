package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("REFRESH_BROKER", "")

	cfg := Load("social-service", 8085)

	if cfg.Service != "social-service" {
		t.Errorf("Expected service name social-service, got %s", cfg.Service)
	}
	if cfg.Server.Port != 8085 {
		t.Errorf("Expected default port 8085, got %d", cfg.Server.Port)
	}
	if cfg.Server.ReadTimeout != 15*time.Second {
		t.Errorf("Expected read timeout 15s, got %s", cfg.Server.ReadTimeout)
	}
	if cfg.Refresh.Broker != "none" {
		t.Errorf("Expected refresh broker none, got %s", cfg.Refresh.Broker)
	}
	if len(cfg.Server.AllowOrigins) != 3 {
		t.Errorf("Expected 3 default CORS origins, got %v", cfg.Server.AllowOrigins)
	}
	if cfg.Session.CookieName != "session_id" || cfg.Session.MaxAge != 168*time.Hour {
		t.Errorf("unexpected session defaults %+v", cfg.Session)
	}
	if cfg.Session.DevLogin {
		t.Error("Expected dev login to be disabled by default")
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9001")
	t.Setenv("DATABASE_URL", "postgres://u:p@localhost:5432/social")
	t.Setenv("REFRESH_BROKER", "KAFKA")
	t.Setenv("SERVER_WRITE_TIMEOUT", "not-a-duration")

	cfg := Load("posts-service", 8082)

	if cfg.Server.Port != 9001 {
		t.Errorf("Expected port 9001, got %d", cfg.Server.Port)
	}
	if cfg.Database.URL != "postgres://u:p@localhost:5432/social" {
		t.Errorf("Unexpected database URL %q", cfg.Database.URL)
	}
	if cfg.Refresh.Broker != "kafka" {
		t.Errorf("Expected broker to be lower-cased, got %s", cfg.Refresh.Broker)
	}
	if cfg.Server.WriteTimeout != 60*time.Second {
		t.Errorf("Expected fallback write timeout 60s, got %s", cfg.Server.WriteTimeout)
	}
	if cfg.Server.Addr() != ":9001" {
		t.Errorf("Expected addr :9001, got %s", cfg.Server.Addr())
	}
}

func TestRequire(t *testing.T) {
	cfg := &Config{}

	err := cfg.Require(SectionDatabase, SectionS3)
	if err == nil {
		t.Fatal("Expected error for missing settings")
	}
	for _, name := range []string{"DATABASE_URL", "S3_ENDPOINT", "S3_BUCKET_NAME"} {
		if !strings.Contains(err.Error(), name) {
			t.Errorf("Expected %s in error, got %v", name, err)
		}
	}

	cfg.Database.URL = "postgres://localhost/social"
	if err := cfg.Require(SectionDatabase); err != nil {
		t.Errorf("Expected no error, got %v", err)
	}

	if err := cfg.Require("bogus"); err == nil {
		t.Error("Expected error for unknown section")
	}
}
