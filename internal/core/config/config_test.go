package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWebhookSecrets(t *testing.T) {
	os.Unsetenv("AUTOMATIONS_WEBHOOK_SECRET")
	os.Unsetenv("AUTOMATIONS_WEBHOOK_SECRET_1")
	os.Unsetenv("AUTOMATIONS_WEBHOOK_SECRET_2")

	t.Run("single secret", func(t *testing.T) {
		os.Setenv("AUTOMATIONS_WEBHOOK_SECRET", "0123456789abcdef0123456789abcdef:dGVzdHNlY3JldDEyMzQ1Njc4OTBhYmNkZWZnaGlqa2xtbm9w")
		defer os.Unsetenv("AUTOMATIONS_WEBHOOK_SECRET")

		secrets, err := WebhookSecrets()
		if err != nil {
			t.Fatalf("WebhookSecrets failed: %v", err)
		}
		if len(secrets) != 1 {
			t.Errorf("expected 1 secret, got %d", len(secrets))
		}
		if _, ok := secrets["0123456789abcdef0123456789abcdef"]; !ok {
			t.Errorf("secret_id not found in map")
		}
	})

	t.Run("multiple numbered secrets", func(t *testing.T) {
		os.Setenv("AUTOMATIONS_WEBHOOK_SECRET_1", "0123456789abcdef0123456789abcdef:dGVzdHNlY3JldDEyMzQ1Njc4OTBhYmNkZWZnaGlqa2xtbm9w")
		os.Setenv("AUTOMATIONS_WEBHOOK_SECRET_2", "fedcba9876543210fedcba9876543210:YW5vdGhlcnNlY3JldDEyMzQ1Njc4OTBhYmNkZWZnaGlqa2xtbm9w")
		defer os.Unsetenv("AUTOMATIONS_WEBHOOK_SECRET_1")
		defer os.Unsetenv("AUTOMATIONS_WEBHOOK_SECRET_2")

		secrets, err := WebhookSecrets()
		if err != nil {
			t.Fatalf("WebhookSecrets failed: %v", err)
		}
		if len(secrets) != 2 {
			t.Errorf("expected 2 secrets, got %d", len(secrets))
		}
	})

	t.Run("invalid format", func(t *testing.T) {
		os.Setenv("AUTOMATIONS_WEBHOOK_SECRET", "invalid_format")
		defer os.Unsetenv("AUTOMATIONS_WEBHOOK_SECRET")

		_, err := WebhookSecrets()
		if err == nil {
			t.Error("expected error for invalid format")
		}
	})

	t.Run("invalid secret_id length", func(t *testing.T) {
		os.Setenv("AUTOMATIONS_WEBHOOK_SECRET", "short:dGVzdHNlY3JldDEyMzQ1Njc4OTBhYmNkZWZnaGlqa2xtbm9w")
		defer os.Unsetenv("AUTOMATIONS_WEBHOOK_SECRET")

		_, err := WebhookSecrets()
		if err == nil {
			t.Error("expected error for short secret_id")
		}
	})

	t.Run("non-hex secret_id", func(t *testing.T) {
		os.Setenv("AUTOMATIONS_WEBHOOK_SECRET", "0123456789abcdefGHIJKLMNOPQRSTUV:dGVzdHNlY3JldDEyMzQ1Njc4OTBhYmNkZWZnaGlqa2xtbm9w")
		defer os.Unsetenv("AUTOMATIONS_WEBHOOK_SECRET")

		_, err := WebhookSecrets()
		if err == nil {
			t.Error("expected error for non-hex secret_id")
		}
	})

	t.Run("secret too short", func(t *testing.T) {
		os.Setenv("AUTOMATIONS_WEBHOOK_SECRET", "0123456789abcdef0123456789abcdef:c2hvcnQ=")
		defer os.Unsetenv("AUTOMATIONS_WEBHOOK_SECRET")

		_, err := WebhookSecrets()
		if err == nil {
			t.Error("expected error for secret under 32 bytes")
		}
	})

	t.Run("duplicate secret_id in numbered secrets", func(t *testing.T) {
		os.Setenv("AUTOMATIONS_WEBHOOK_SECRET_1", "0123456789abcdef0123456789abcdef:dGVzdHNlY3JldDEyMzQ1Njc4OTBhYmNkZWZnaGlqa2xtbm9w")
		os.Setenv("AUTOMATIONS_WEBHOOK_SECRET_2", "0123456789abcdef0123456789abcdef:YW5vdGhlcnNlY3JldDEyMzQ1Njc4OTBhYmNkZWZnaGlqa2xtbm9w")
		defer os.Unsetenv("AUTOMATIONS_WEBHOOK_SECRET_1")
		defer os.Unsetenv("AUTOMATIONS_WEBHOOK_SECRET_2")

		_, err := WebhookSecrets()
		if err == nil {
			t.Error("expected error for duplicate secret_id")
		}
	})
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	defaults := DefaultServerConfig()
	if cfg.Host != defaults.Host {
		t.Errorf("Host = %q, want %q", cfg.Host, defaults.Host)
	}
	if cfg.Port != defaults.Port {
		t.Errorf("Port = %d, want %d", cfg.Port, defaults.Port)
	}
	if cfg.RequestTimeout != 30*time.Second {
		t.Errorf("RequestTimeout = %v, want 30s", cfg.RequestTimeout)
	}
	if cfg.DatabaseURL != defaults.DatabaseURL {
		t.Errorf("DatabaseURL = %q, want %q", cfg.DatabaseURL, defaults.DatabaseURL)
	}
}

func TestLoadConfig_FromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte("server:\n  port: 9090\n  request_timeout: 10s\n")
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Port != 9090 {
		t.Errorf("Port = %d, want 9090", cfg.Port)
	}
	if cfg.RequestTimeout != 10*time.Second {
		t.Errorf("RequestTimeout = %v, want 10s", cfg.RequestTimeout)
	}
}

func TestLoadConfig_RejectsSecretsInFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte("server:\n  webhook_secret: supersecret\n")
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	_, err := LoadConfig(path)
	if err == nil {
		t.Error("expected error for secrets in config file")
	}
}

func TestLoadConfig_Validation(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"port too high", "server:\n  port: 70000\n"},
		{"port zero", "server:\n  port: 0\n"},
		{"negative timeout", "server:\n  request_timeout: -5s\n"},
		{"empty database url", "server:\n  database_url: \"\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			path := filepath.Join(dir, "config.yaml")
			if err := os.WriteFile(path, []byte(tt.content), 0o600); err != nil {
				t.Fatalf("write config: %v", err)
			}
			if _, err := LoadConfig(path); err == nil {
				t.Errorf("expected validation error")
			}
		})
	}
}
