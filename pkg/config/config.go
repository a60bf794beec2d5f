package config

import "time"

// RotationStrategy identifies a credential rotation strategy.
// The set of valid values is closed; Validate rejects anything else.
type RotationStrategy string

const (
	// RotationRoundRobin cycles through a bucket's credentials in order.
	RotationRoundRobin RotationStrategy = "round-robin"

	// RotationLeastUsed picks the credential with the lowest usage count.
	RotationLeastUsed RotationStrategy = "least-used"

	// RotationRandom picks a uniformly random credential.
	RotationRandom RotationStrategy = "random"
)

// CompressionStrategy identifies a history compression strategy.
// The set of valid values is closed; Validate rejects anything else.
type CompressionStrategy string

const (
	// CompressionTruncate keeps only a budget-derived suffix of the history.
	CompressionTruncate CompressionStrategy = "truncate"

	// CompressionSummarize folds older messages into one synthetic
	// system message and keeps the most recent turns verbatim.
	CompressionSummarize CompressionStrategy = "summarize"

	// CompressionHybrid summarizes above the summary threshold and
	// truncates below it.
	CompressionHybrid CompressionStrategy = "hybrid"
)

// Config is the root configuration structure for Ganymede.
// It contains all configuration sections for the HTTP front end, routing,
// history compression, providers, credentials, usage journal, and telemetry.
type Config struct {
	// Server contains HTTP server configuration including listen address
	// and timeouts.
	Server ServerConfig `yaml:"server"`

	// Routing contains credential rotation and retry configuration.
	Routing RoutingConfig `yaml:"routing"`

	// Compression contains message history compression configuration.
	Compression CompressionConfig `yaml:"compression"`

	// Providers contains per-provider invocation settings.
	// Keys are provider names (e.g., "openai", "anthropic").
	Providers map[string]ProviderConfig `yaml:"providers"`

	// Credentials declares the credentials registered at startup.
	// The file may be watched for additions at runtime.
	Credentials []CredentialConfig `yaml:"credentials"`

	// Usage contains configuration for the usage journal.
	Usage UsageConfig `yaml:"usage"`

	// Telemetry contains configuration for logging, metrics, and tracing.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ServerConfig contains configuration for the HTTP front end.
type ServerConfig struct {
	// ListenAddress is the address and port to listen on.
	// Format: "host:port" (e.g., "127.0.0.1:8087").
	// Default: "127.0.0.1:8087"
	ListenAddress string `yaml:"listen_address"`

	// ReadTimeout is the maximum duration for reading the entire request.
	// Default: 30s
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout is the maximum duration before timing out writes of
	// the response.
	// Default: 30s
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// IdleTimeout is the maximum time to wait for the next request when
	// keep-alives are enabled.
	// Default: 120s
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown.
	// Default: 30s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// RoutingConfig contains credential rotation and retry configuration.
type RoutingConfig struct {
	// Strategy selects the credential rotation strategy.
	// Options: "round-robin", "least-used", "random".
	// Default: "round-robin"
	Strategy RotationStrategy `yaml:"strategy"`

	// RetryAttempts is the number of rate-limit retries after the first
	// attempt. Total attempts per request = RetryAttempts + 1.
	// Must be >= 0.
	// Default: 2
	RetryAttempts int `yaml:"retry_attempts"`

	// FallbackEnabled controls whether rate-limited calls are retried
	// through another credential selection. When false, a rate-limited
	// call is a terminal failure.
	// Default: true
	FallbackEnabled bool `yaml:"fallback_enabled"`

	// ExcludeCooling, when true, filters out credentials whose rate-limit
	// cooldown has not yet expired before the strategy is applied. The
	// default preserves the historical behavior of re-selecting over the
	// whole bucket on every attempt.
	// Default: false
	ExcludeCooling bool `yaml:"exclude_cooling"`

	// InvokeTimeout is the deadline applied around each provider
	// invocation. A timeout is a terminal failure, never retried.
	// Default: 60s
	InvokeTimeout time.Duration `yaml:"invoke_timeout"`
}

// CompressionConfig contains message history compression configuration.
type CompressionConfig struct {
	// Strategy selects the compression strategy.
	// Options: "truncate", "summarize", "hybrid".
	// Default: "hybrid"
	Strategy CompressionStrategy `yaml:"strategy"`

	// MaxTokens is the token budget for a request's message history,
	// measured with the approximate character-ratio estimator.
	// Default: 4000
	MaxTokens int `yaml:"max_tokens"`

	// SummaryThreshold is the estimate above which the hybrid strategy
	// summarizes instead of truncating. Callers are expected to keep this
	// at or below MaxTokens; this is not enforced.
	// Default: 3000
	SummaryThreshold int `yaml:"summary_threshold"`
}

// ProviderConfig contains invocation settings for a single provider.
type ProviderConfig struct {
	// BaseURL is the base URL for the provider's API endpoint.
	// Example: "https://api.openai.com/v1"
	BaseURL string `yaml:"base_url"`

	// Timeout is the HTTP client timeout for this provider.
	// Default: 60s
	Timeout time.Duration `yaml:"timeout"`

	// MaxIdleConns is the connection pool size for this provider.
	// Default: 10
	MaxIdleConns int `yaml:"max_idle_conns"`
}

// CredentialConfig declares one credential to register at startup.
type CredentialConfig struct {
	// ID identifies the credential in snapshots and logs.
	// Uniqueness is not enforced.
	ID string `yaml:"id"`

	// Provider is the provider this credential belongs to.
	Provider string `yaml:"provider"`

	// Model is the model this credential is pooled for.
	Model string `yaml:"model"`

	// SecretRef is the opaque secret handle passed to the invoker
	// (typically an API key or a reference resolvable by the caller).
	// It is never exposed in snapshots or logs.
	SecretRef string `yaml:"secret_ref"`
}

// UsageConfig contains configuration for the usage journal.
type UsageConfig struct {
	// Journal configures the async outcome journal.
	Journal JournalConfig `yaml:"journal"`
}

// JournalConfig configures persistence of per-request routing outcomes.
type JournalConfig struct {
	// Enabled controls whether outcomes are journaled.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Backend selects the journal storage backend.
	// Options: "sqlite", "memory".
	// Default: "sqlite"
	Backend string `yaml:"backend"`

	// SQLite configures the SQLite backend.
	SQLite SQLiteConfig `yaml:"sqlite"`

	// AsyncBuffer is the size of the async write channel buffer.
	// Default: 1000
	AsyncBuffer int `yaml:"async_buffer"`

	// RetentionDays is how long journal records are kept.
	// Default: 30
	RetentionDays int `yaml:"retention_days"`

	// PruneSchedule is a cron expression for scheduled pruning.
	// Empty disables scheduled pruning.
	// Default: "0 3 * * *" (daily at 3 AM)
	PruneSchedule string `yaml:"prune_schedule"`
}

// SQLiteConfig contains configuration for the SQLite journal backend.
type SQLiteConfig struct {
	// Path is the database file path.
	// Default: "data/usage.db"
	Path string `yaml:"path"`

	// MaxOpenConns is the maximum number of open connections.
	// Default: 10
	MaxOpenConns int `yaml:"max_open_conns"`

	// MaxIdleConns is the maximum number of idle connections.
	// Default: 5
	MaxIdleConns int `yaml:"max_idle_conns"`

	// WALMode enables Write-Ahead Logging mode for better concurrency.
	// Default: true
	WALMode bool `yaml:"wal_mode"`

	// BusyTimeout is the duration to wait when the database is locked.
	// Default: 5s
	BusyTimeout time.Duration `yaml:"busy_timeout"`
}

// TelemetryConfig contains observability configuration.
type TelemetryConfig struct {
	// Logging configures structured logging.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics configures Prometheus metrics.
	Metrics MetricsConfig `yaml:"metrics"`

	// Tracing configures OpenTelemetry tracing.
	Tracing TracingConfig `yaml:"tracing"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	// Level is the minimum log level.
	// Options: "debug", "info", "warn", "error".
	// Default: "info"
	Level string `yaml:"level"`

	// Format is the log output format.
	// Options: "json", "text".
	// Default: "json"
	Format string `yaml:"format"`

	// AddSource includes file and line number in log records.
	// Default: false
	AddSource bool `yaml:"add_source"`
}

// MetricsConfig configures Prometheus metrics exposition.
type MetricsConfig struct {
	// Enabled controls whether metrics are collected and exposed.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Path is the HTTP path for the metrics endpoint.
	// Default: "/metrics"
	Path string `yaml:"path"`

	// Namespace is the Prometheus metric namespace.
	// Default: "ganymede"
	Namespace string `yaml:"namespace"`

	// Subsystem is the Prometheus metric subsystem.
	// Default: "router"
	Subsystem string `yaml:"subsystem"`

	// RequestDurationBuckets are the histogram buckets for route
	// durations in seconds. Empty uses buckets tuned for LLM latencies.
	RequestDurationBuckets []float64 `yaml:"request_duration_buckets"`
}

// TracingConfig configures OpenTelemetry tracing.
type TracingConfig struct {
	// Enabled controls whether spans are exported.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Endpoint is the OTLP gRPC collector endpoint.
	// Default: "localhost:4317"
	Endpoint string `yaml:"endpoint"`

	// ServiceName is the reported service name.
	// Default: "ganymede"
	ServiceName string `yaml:"service_name"`

	// SampleRatio is the trace sampling ratio from 0.0 to 1.0.
	// Default: 1.0
	SampleRatio float64 `yaml:"sample_ratio"`
}
