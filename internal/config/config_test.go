package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeTempFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	yaml := `
server:
  url: wss://agentcmd.example.com/ws
  token: abc123
connection:
  connect_timeout: 15s
  max_attempts: 5
`
	path := writeTempFile(t, yaml)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.URL != "wss://agentcmd.example.com/ws" {
		t.Errorf("Server.URL = %q, want wss://agentcmd.example.com/ws", cfg.Server.URL)
	}
	if cfg.Server.Token != "abc123" {
		t.Errorf("Server.Token = %q, want abc123", cfg.Server.Token)
	}
	if cfg.Connection.ConnectTimeout != 15*time.Second {
		t.Errorf("ConnectTimeout = %v, want 15s", cfg.Connection.ConnectTimeout)
	}
	if cfg.Connection.MaxAttempts != 5 {
		t.Errorf("MaxAttempts = %d, want 5", cfg.Connection.MaxAttempts)
	}
}

func TestLoadWithEnvSubstitution(t *testing.T) {
	t.Setenv("TEST_WS_TOKEN", "secret123")

	yaml := `
server:
  url: wss://agentcmd.example.com/ws
  token: ${TEST_WS_TOKEN}
`
	path := writeTempFile(t, yaml)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Token != "secret123" {
		t.Errorf("Server.Token = %q, want secret123", cfg.Server.Token)
	}
}

func TestLoadWithDefaults(t *testing.T) {
	yaml := `
server:
  url: ws://localhost:4000/ws
`
	path := writeTempFile(t, yaml)

	cfg, err := LoadWithDefaults(path)
	if err != nil {
		t.Fatalf("LoadWithDefaults failed: %v", err)
	}

	if cfg.Connection.ConnectTimeout != DefaultConnectTimeout {
		t.Errorf("ConnectTimeout = %v, want %v", cfg.Connection.ConnectTimeout, DefaultConnectTimeout)
	}
	if cfg.Connection.HeartbeatInterval != DefaultHeartbeatInterval {
		t.Errorf("HeartbeatInterval = %v, want %v", cfg.Connection.HeartbeatInterval, DefaultHeartbeatInterval)
	}
	if cfg.Connection.StaleThreshold != DefaultStaleThreshold {
		t.Errorf("StaleThreshold = %v, want %v", cfg.Connection.StaleThreshold, DefaultStaleThreshold)
	}
	if cfg.Connection.QueueSize != DefaultQueueSize {
		t.Errorf("QueueSize = %d, want %d", cfg.Connection.QueueSize, DefaultQueueSize)
	}
	if cfg.Connection.MaxAttempts != 0 {
		t.Errorf("MaxAttempts = %d, want 0 (retry forever)", cfg.Connection.MaxAttempts)
	}
	if cfg.Logging.Level != DefaultLogLevel {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, DefaultLogLevel)
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := &Config{}
		cfg.Server.URL = "wss://agentcmd.example.com/ws"
		cfg.applyDefaults()
		return cfg
	}

	if err := valid().Validate(); err != nil {
		t.Errorf("valid config rejected: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing url", func(c *Config) { c.Server.URL = "" }},
		{"http scheme", func(c *Config) { c.Server.URL = "https://example.com/ws" }},
		{"negative timeout", func(c *Config) { c.Connection.ConnectTimeout = -1 }},
		{"negative max attempts", func(c *Config) { c.Connection.MaxAttempts = -1 }},
		{"negative queue size", func(c *Config) { c.Connection.QueueSize = -5 }},
		{"interval above threshold", func(c *Config) { c.Connection.HeartbeatInterval = time.Minute }},
		{"bad log level", func(c *Config) { c.Logging.Level = "trace" }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid()
			tc.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}

func TestLoadAndValidate_MissingFile(t *testing.T) {
	if _, err := LoadAndValidate(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
