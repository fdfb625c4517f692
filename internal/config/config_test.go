package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if cfg.Port != "3000" {
		t.Errorf("Expected default port 3000, got %s", cfg.Port)
	}
	if cfg.DBPath != "donations.db" {
		t.Errorf("Expected default db path donations.db, got %s", cfg.DBPath)
	}
	if cfg.HTTPReadTimeout != 15*time.Second {
		t.Errorf("Expected read timeout 15s, got %v", cfg.HTTPReadTimeout)
	}
	if cfg.MonitorInterval != 60*time.Second {
		t.Errorf("Expected monitor interval 60s, got %v", cfg.MonitorInterval)
	}
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("PORT", "8080")
	t.Setenv("DB_PATH", "/var/lib/donations.db")
	t.Setenv("MONITOR_INTERVAL_SECONDS", "5")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if cfg.AppEnv != "production" {
		t.Errorf("Expected app env production, got %s", cfg.AppEnv)
	}
	if cfg.Port != "8080" {
		t.Errorf("Expected port 8080, got %s", cfg.Port)
	}
	if cfg.DBPath != "/var/lib/donations.db" {
		t.Errorf("Expected db path /var/lib/donations.db, got %s", cfg.DBPath)
	}
	if cfg.MonitorInterval != 5*time.Second {
		t.Errorf("Expected monitor interval 5s, got %v", cfg.MonitorInterval)
	}
}

func TestLoad_InvalidIntFallsBack(t *testing.T) {
	t.Setenv("HTTP_READ_TIMEOUT_SECONDS", "not-a-number")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if cfg.HTTPReadTimeout != 15*time.Second {
		t.Errorf("Expected fallback read timeout 15s, got %v", cfg.HTTPReadTimeout)
	}
}
