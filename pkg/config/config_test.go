package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const sampleYAML = `
server:
  name: chefbazaar-test
http:
  port: 8088
  allowed_origins:
    - http://localhost:5173
mongodb:
  uri: mongodb://localhost:27017
  database: bazaar
auth:
  project_id: chef-bazaar
stripe:
  secret_key: sk_test_123
redis:
  addr: localhost:6379
  lock_ttl: 45s
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_FromFile(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleYAML))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Name != "chefbazaar-test" {
		t.Errorf("Server.Name = %q", cfg.Server.Name)
	}
	if cfg.HTTP.Port != 8088 {
		t.Errorf("HTTP.Port = %d, want 8088", cfg.HTTP.Port)
	}
	if cfg.MongoDB.Database != "bazaar" {
		t.Errorf("MongoDB.Database = %q", cfg.MongoDB.Database)
	}
	if cfg.Redis.LockTTL != 45*time.Second {
		t.Errorf("Redis.LockTTL = %v, want 45s", cfg.Redis.LockTTL)
	}
	// defaults fill what the file leaves out
	if cfg.MongoDB.AuditCollection != "audit_logs" {
		t.Errorf("MongoDB.AuditCollection = %q", cfg.MongoDB.AuditCollection)
	}
	if cfg.Stripe.Currency != "usd" {
		t.Errorf("Stripe.Currency = %q", cfg.Stripe.Currency)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("CHEFBAZAAR_MONGODB_DATABASE", "fromenv")
	t.Setenv("PORT", "9191")

	cfg, err := Load(writeConfig(t, sampleYAML))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.MongoDB.Database != "fromenv" {
		t.Errorf("MongoDB.Database = %q, want fromenv", cfg.MongoDB.Database)
	}
	if cfg.HTTP.Port != 9191 {
		t.Errorf("HTTP.Port = %d, want 9191", cfg.HTTP.Port)
	}
}

func TestLoad_MissingFileUsesEnv(t *testing.T) {
	t.Setenv("CHEFBAZAAR_MONGODB_URI", "mongodb://db:27017")
	t.Setenv("CHEFBAZAAR_AUTH_HMAC_SECRET", "local-secret")
	t.Setenv("CHEFBAZAAR_STRIPE_SECRET_KEY", "sk_test_env")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.MongoDB.URI != "mongodb://db:27017" {
		t.Errorf("MongoDB.URI = %q", cfg.MongoDB.URI)
	}
	if cfg.HTTP.Port != 3000 {
		t.Errorf("HTTP.Port = %d, want default 3000", cfg.HTTP.Port)
	}
}

func TestLoad_Invalid(t *testing.T) {
	_, err := Load(writeConfig(t, "http:\n  port: 8080\n"))
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"mongodb.uri", "auth.project_id", "stripe.secret_key"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %s", err, want)
		}
	}
}
