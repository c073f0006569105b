package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("HTTP_ADDR", "")
	t.Setenv("DB_MAX_CONNS", "")
	t.Setenv("RECONCILE_RUN_TIMEOUT", "")
	t.Setenv("JWT_TTL", "")

	cfg := Load()

	if cfg.Server.Addr != ":8080" {
		t.Fatalf("unexpected default addr %q", cfg.Server.Addr)
	}
	if cfg.Database.MaxConns != 0 {
		t.Fatalf("expected pgx default pool size (0), got %d", cfg.Database.MaxConns)
	}
	if cfg.DocStore.RunTimeout != 15*time.Minute {
		t.Fatalf("unexpected default run timeout %v", cfg.DocStore.RunTimeout)
	}
	if cfg.Auth.TokenTTL != 12*time.Hour {
		t.Fatalf("unexpected default token ttl %v", cfg.Auth.TokenTTL)
	}
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("DB_MAX_CONNS", "12")
	t.Setenv("DOCSTORE_FETCH_TIMEOUT", "5s")
	t.Setenv("LOG_MODE", "prod")

	cfg := Load()

	if cfg.Database.MaxConns != 12 {
		t.Fatalf("expected 12 max conns, got %d", cfg.Database.MaxConns)
	}
	if cfg.DocStore.FetchTimeout != 5*time.Second {
		t.Fatalf("expected 5s fetch timeout, got %v", cfg.DocStore.FetchTimeout)
	}
	if cfg.LogMode != "prod" {
		t.Fatalf("expected prod log mode, got %q", cfg.LogMode)
	}
}

func TestLoad_IgnoresMalformedValues(t *testing.T) {
	t.Setenv("DB_MAX_CONNS", "many")
	t.Setenv("DB_HEALTH_TIMEOUT", "soon")

	cfg := Load()

	if cfg.Database.MaxConns != 0 {
		t.Fatalf("malformed int must fall back to default, got %d", cfg.Database.MaxConns)
	}
	if cfg.Database.HealthTimeout != 3*time.Second {
		t.Fatalf("malformed duration must fall back to default, got %v", cfg.Database.HealthTimeout)
	}
}

func TestValidate_RequiredSettings(t *testing.T) {
	cfg := &Config{}
	if err := cfg.Validate(); err == nil {
		t.Fatal("empty config must not validate")
	}

	cfg.Database.URL = "postgres://localhost/fiscalflow"
	cfg.DocStore.BaseURL = "https://repo.example.com"
	cfg.Auth.JWTSecret = "secret"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("complete config must validate: %v", err)
	}
}
