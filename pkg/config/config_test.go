package config

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const sampleConfig = `
server:
  listen_address: "0.0.0.0:9000"
  read_timeout: 10s

routing:
  strategy: least-used
  retry_attempts: 4
  invoke_timeout: 30s

compression:
  strategy: truncate
  max_tokens: 8000
  summary_threshold: 6000

providers:
  openai:
    base_url: "https://api.openai.com/v1"
    timeout: 45s

credentials:
  - id: cred-1
    provider: openai
    model: gpt-4
    secret_ref: env:OPENAI_KEY_1
  - id: cred-2
    provider: openai
    model: gpt-4
    secret_ref: env:OPENAI_KEY_2

usage:
  journal:
    enabled: true
    backend: memory
    retention_days: 7

telemetry:
  logging:
    level: debug
    format: text
`

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeTempConfig(t, sampleConfig)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Server.ListenAddress != "0.0.0.0:9000" {
		t.Errorf("ListenAddress = %q, want %q", cfg.Server.ListenAddress, "0.0.0.0:9000")
	}
	if cfg.Routing.Strategy != RotationLeastUsed {
		t.Errorf("Routing.Strategy = %q, want %q", cfg.Routing.Strategy, RotationLeastUsed)
	}
	if cfg.Routing.RetryAttempts != 4 {
		t.Errorf("RetryAttempts = %d, want 4", cfg.Routing.RetryAttempts)
	}
	if cfg.Compression.MaxTokens != 8000 {
		t.Errorf("MaxTokens = %d, want 8000", cfg.Compression.MaxTokens)
	}
	if len(cfg.Credentials) != 2 {
		t.Fatalf("len(Credentials) = %d, want 2", len(cfg.Credentials))
	}
	if cfg.Credentials[1].SecretRef != "env:OPENAI_KEY_2" {
		t.Errorf("Credentials[1].SecretRef = %q, want %q", cfg.Credentials[1].SecretRef, "env:OPENAI_KEY_2")
	}
	if !cfg.Usage.Journal.Enabled || cfg.Usage.Journal.Backend != "memory" {
		t.Errorf("Journal = %+v, want enabled memory backend", cfg.Usage.Journal)
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	path := writeTempConfig(t, "server:\n  listen_address: \"127.0.0.1:8087\"\n")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Routing.Strategy != DefaultRotationStrategy {
		t.Errorf("Routing.Strategy = %q, want default %q", cfg.Routing.Strategy, DefaultRotationStrategy)
	}
	if cfg.Routing.RetryAttempts != DefaultRetryAttempts {
		t.Errorf("RetryAttempts = %d, want default %d", cfg.Routing.RetryAttempts, DefaultRetryAttempts)
	}
	if !cfg.Routing.FallbackEnabled {
		t.Error("FallbackEnabled = false, want default true")
	}
	if cfg.Routing.InvokeTimeout != DefaultInvokeTimeout {
		t.Errorf("InvokeTimeout = %s, want default %s", cfg.Routing.InvokeTimeout, DefaultInvokeTimeout)
	}
	if cfg.Compression.Strategy != DefaultCompressionStrategy {
		t.Errorf("Compression.Strategy = %q, want default %q", cfg.Compression.Strategy, DefaultCompressionStrategy)
	}
	if cfg.Compression.MaxTokens != DefaultMaxTokens {
		t.Errorf("MaxTokens = %d, want default %d", cfg.Compression.MaxTokens, DefaultMaxTokens)
	}
	if cfg.Telemetry.Logging.Level != DefaultLoggingLevel {
		t.Errorf("Logging.Level = %q, want default %q", cfg.Telemetry.Logging.Level, DefaultLoggingLevel)
	}
	if !cfg.Telemetry.Metrics.Enabled {
		t.Error("Metrics.Enabled = false, want default true")
	}
}

func TestLoadConfigExplicitFalseOverridesDefault(t *testing.T) {
	content := `
server:
  listen_address: "127.0.0.1:8087"
routing:
  fallback_enabled: false
  retry_attempts: 0
telemetry:
  metrics:
    enabled: false
`
	path := writeTempConfig(t, content)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Routing.FallbackEnabled {
		t.Error("FallbackEnabled = true, want explicit false to win over default")
	}
	if cfg.Routing.RetryAttempts != 0 {
		t.Errorf("RetryAttempts = %d, want explicit 0 to win over default", cfg.Routing.RetryAttempts)
	}
	if cfg.Telemetry.Metrics.Enabled {
		t.Error("Metrics.Enabled = true, want explicit false to win over default")
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if err == nil {
		t.Fatal("LoadConfig() error = nil, want error for missing file")
	}
}

func TestLoadConfigWithEnvOverrides(t *testing.T) {
	path := writeTempConfig(t, sampleConfig)

	t.Setenv("GANYMEDE_SERVER_LISTEN_ADDRESS", "127.0.0.1:7777")
	t.Setenv("GANYMEDE_ROUTING_STRATEGY", "random")
	t.Setenv("GANYMEDE_ROUTING_RETRY_ATTEMPTS", "1")
	t.Setenv("GANYMEDE_ROUTING_EXCLUDE_COOLING", "true")
	t.Setenv("GANYMEDE_ROUTING_INVOKE_TIMEOUT", "15s")
	t.Setenv("GANYMEDE_COMPRESSION_MAX_TOKENS", "2000")
	t.Setenv("GANYMEDE_COMPRESSION_SUMMARY_THRESHOLD", "1500")

	cfg, err := LoadConfigWithEnvOverrides(path)
	if err != nil {
		t.Fatalf("LoadConfigWithEnvOverrides() error = %v", err)
	}

	if cfg.Server.ListenAddress != "127.0.0.1:7777" {
		t.Errorf("ListenAddress = %q, want env override", cfg.Server.ListenAddress)
	}
	if cfg.Routing.Strategy != RotationRandom {
		t.Errorf("Routing.Strategy = %q, want %q", cfg.Routing.Strategy, RotationRandom)
	}
	if cfg.Routing.RetryAttempts != 1 {
		t.Errorf("RetryAttempts = %d, want 1", cfg.Routing.RetryAttempts)
	}
	if !cfg.Routing.ExcludeCooling {
		t.Error("ExcludeCooling = false, want env override true")
	}
	if cfg.Routing.InvokeTimeout != 15*time.Second {
		t.Errorf("InvokeTimeout = %s, want 15s", cfg.Routing.InvokeTimeout)
	}
	if cfg.Compression.MaxTokens != 2000 {
		t.Errorf("MaxTokens = %d, want 2000", cfg.Compression.MaxTokens)
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := NewDefaultConfig()
		cfg.Credentials = []CredentialConfig{
			{ID: "c1", Provider: "openai", Model: "gpt-4", SecretRef: "env:KEY1"},
		}
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid default config",
			mutate: func(*Config) {},
		},
		{
			name:    "empty listen address",
			mutate:  func(c *Config) { c.Server.ListenAddress = "" },
			wantErr: "listen_address",
		},
		{
			name:    "unknown rotation strategy",
			mutate:  func(c *Config) { c.Routing.Strategy = "weighted" },
			wantErr: "routing.strategy",
		},
		{
			name:    "negative retry attempts",
			mutate:  func(c *Config) { c.Routing.RetryAttempts = -1 },
			wantErr: "retry_attempts",
		},
		{
			name:   "zero retry attempts is valid",
			mutate: func(c *Config) { c.Routing.RetryAttempts = 0 },
		},
		{
			name:    "unknown compression strategy",
			mutate:  func(c *Config) { c.Compression.Strategy = "gzip" },
			wantErr: "compression.strategy",
		},
		{
			name:    "summary threshold above max tokens",
			mutate:  func(c *Config) { c.Compression.SummaryThreshold = c.Compression.MaxTokens + 1 },
			wantErr: "summary_threshold",
		},
		{
			name: "duplicate credential id",
			mutate: func(c *Config) {
				c.Credentials = append(c.Credentials, c.Credentials[0])
			},
			wantErr: "duplicates id",
		},
		{
			name: "credential missing secret ref",
			mutate: func(c *Config) {
				c.Credentials[0].SecretRef = ""
			},
			wantErr: "secret_ref",
		},
		{
			name: "unknown journal backend",
			mutate: func(c *Config) {
				c.Usage.Journal.Enabled = true
				c.Usage.Journal.Backend = "postgres"
			},
			wantErr: "journal.backend",
		},
		{
			name: "invalid prune schedule",
			mutate: func(c *Config) {
				c.Usage.Journal.Enabled = true
				c.Usage.Journal.PruneSchedule = "not-a-cron"
			},
			wantErr: "prune_schedule",
		},
		{
			name:    "unknown logging level",
			mutate:  func(c *Config) { c.Telemetry.Logging.Level = "trace" },
			wantErr: "logging.level",
		},
		{
			name: "tracing enabled without endpoint",
			mutate: func(c *Config) {
				c.Telemetry.Tracing.Enabled = true
				c.Telemetry.Tracing.Endpoint = ""
			},
			wantErr: "tracing.endpoint",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)

			err := Validate(cfg)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() error = nil, want error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %q, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestWatcherReload(t *testing.T) {
	path := writeTempConfig(t, sampleConfig)

	logger := discardLogger()
	w, err := NewWatcher(path, logger)
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}

	reloaded := make(chan *Config, 1)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- w.Watch(ctx, func(cfg *Config) {
			select {
			case reloaded <- cfg:
			default:
			}
		})
	}()

	// Give the watcher a moment to register before writing.
	time.Sleep(50 * time.Millisecond)

	updated := strings.Replace(sampleConfig, "retry_attempts: 4", "retry_attempts: 9", 1)
	if err := os.WriteFile(path, []byte(updated), 0o600); err != nil {
		t.Fatalf("failed to rewrite config: %v", err)
	}

	select {
	case cfg := <-reloaded:
		if cfg.Routing.RetryAttempts != 9 {
			t.Errorf("reloaded RetryAttempts = %d, want 9", cfg.Routing.RetryAttempts)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for configuration reload")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Watch() error = %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for Watch to return")
	}
	if err := w.Stop(); err != nil {
		t.Errorf("Stop() error = %v", err)
	}
}

func TestWatcherIgnoresInvalidReload(t *testing.T) {
	path := writeTempConfig(t, sampleConfig)

	w, err := NewWatcher(path, discardLogger())
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}

	reloaded := make(chan *Config, 4)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		_ = w.Watch(ctx, func(cfg *Config) { reloaded <- cfg })
	}()
	time.Sleep(50 * time.Millisecond)

	if err := os.WriteFile(path, []byte("routing:\n  strategy: bogus\n"), 0o600); err != nil {
		t.Fatalf("failed to rewrite config: %v", err)
	}

	select {
	case cfg := <-reloaded:
		t.Errorf("received reload for invalid configuration: %+v", cfg)
	case <-time.After(500 * time.Millisecond):
		// Invalid file was correctly skipped.
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
