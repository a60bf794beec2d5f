package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// LoadConfig loads configuration from a YAML file at the specified path.
// It applies default values, validates the configuration, and returns any
// errors. Environment variables are not consulted; use
// LoadConfigWithEnvOverrides for that behavior.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	cfg, err := ParseConfig(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// ParseConfig parses raw YAML into a Config with defaults applied.
// Fields whose default is true (fallback, WAL mode, metrics) are seeded
// before unmarshalling so an absent key keeps the default while an explicit
// "false" in the file wins.
func ParseConfig(data []byte) (*Config, error) {
	cfg := Config{
		Routing: RoutingConfig{
			RetryAttempts:   DefaultRetryAttempts,
			FallbackEnabled: DefaultFallbackEnabled,
		},
		Usage: UsageConfig{
			Journal: JournalConfig{
				SQLite: SQLiteConfig{WALMode: DefaultJournalWALMode},
			},
		},
		Telemetry: TelemetryConfig{
			Metrics: MetricsConfig{Enabled: DefaultMetricsEnabled},
			Tracing: TracingConfig{SampleRatio: DefaultTracingSampleRatio},
		},
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	ApplyDefaults(&cfg)
	return &cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and
// applies environment variable overrides. Environment variables follow the
// naming convention GANYMEDE_SECTION_FIELD (e.g.,
// GANYMEDE_SERVER_LISTEN_ADDRESS) and always take precedence over
// file-based configuration.
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the
// configuration.
func applyEnvOverrides(cfg *Config) {
	// Server overrides
	if val := os.Getenv("GANYMEDE_SERVER_LISTEN_ADDRESS"); val != "" {
		cfg.Server.ListenAddress = val
	}
	if val := os.Getenv("GANYMEDE_SERVER_READ_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Server.ReadTimeout = d
		}
	}
	if val := os.Getenv("GANYMEDE_SERVER_WRITE_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Server.WriteTimeout = d
		}
	}
	if val := os.Getenv("GANYMEDE_SERVER_SHUTDOWN_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Server.ShutdownTimeout = d
		}
	}

	// Routing overrides
	if val := os.Getenv("GANYMEDE_ROUTING_STRATEGY"); val != "" {
		cfg.Routing.Strategy = RotationStrategy(val)
	}
	if val := os.Getenv("GANYMEDE_ROUTING_RETRY_ATTEMPTS"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Routing.RetryAttempts = i
		}
	}
	if val := os.Getenv("GANYMEDE_ROUTING_FALLBACK_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Routing.FallbackEnabled = b
		}
	}
	if val := os.Getenv("GANYMEDE_ROUTING_EXCLUDE_COOLING"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Routing.ExcludeCooling = b
		}
	}
	if val := os.Getenv("GANYMEDE_ROUTING_INVOKE_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Routing.InvokeTimeout = d
		}
	}

	// Compression overrides
	if val := os.Getenv("GANYMEDE_COMPRESSION_STRATEGY"); val != "" {
		cfg.Compression.Strategy = CompressionStrategy(val)
	}
	if val := os.Getenv("GANYMEDE_COMPRESSION_MAX_TOKENS"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Compression.MaxTokens = i
		}
	}
	if val := os.Getenv("GANYMEDE_COMPRESSION_SUMMARY_THRESHOLD"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Compression.SummaryThreshold = i
		}
	}

	// Journal overrides
	if val := os.Getenv("GANYMEDE_USAGE_JOURNAL_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Usage.Journal.Enabled = b
		}
	}
	if val := os.Getenv("GANYMEDE_USAGE_JOURNAL_BACKEND"); val != "" {
		cfg.Usage.Journal.Backend = val
	}
	if val := os.Getenv("GANYMEDE_USAGE_JOURNAL_SQLITE_PATH"); val != "" {
		cfg.Usage.Journal.SQLite.Path = val
	}

	// Telemetry overrides
	if val := os.Getenv("GANYMEDE_TELEMETRY_LOGGING_LEVEL"); val != "" {
		cfg.Telemetry.Logging.Level = val
	}
	if val := os.Getenv("GANYMEDE_TELEMETRY_LOGGING_FORMAT"); val != "" {
		cfg.Telemetry.Logging.Format = val
	}
	if val := os.Getenv("GANYMEDE_TELEMETRY_METRICS_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Telemetry.Metrics.Enabled = b
		}
	}
	if val := os.Getenv("GANYMEDE_TELEMETRY_TRACING_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Telemetry.Tracing.Enabled = b
		}
	}
	if val := os.Getenv("GANYMEDE_TELEMETRY_TRACING_ENDPOINT"); val != "" {
		cfg.Telemetry.Tracing.Endpoint = val
	}
}
