package config

import "time"

// Default values for configuration fields.
const (
	// Server defaults
	DefaultListenAddress   = "127.0.0.1:8087"
	DefaultReadTimeout     = 30 * time.Second
	DefaultWriteTimeout    = 30 * time.Second
	DefaultIdleTimeout     = 120 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	// Routing defaults
	DefaultRotationStrategy = RotationRoundRobin
	DefaultRetryAttempts    = 2
	DefaultFallbackEnabled  = true
	DefaultExcludeCooling   = false
	DefaultInvokeTimeout    = 60 * time.Second

	// Compression defaults
	DefaultCompressionStrategy = CompressionHybrid
	DefaultMaxTokens           = 4000
	DefaultSummaryThreshold    = 3000

	// Provider defaults
	DefaultProviderTimeout      = 60 * time.Second
	DefaultProviderMaxIdleConns = 10

	// Journal defaults
	DefaultJournalEnabled       = false
	DefaultJournalBackend       = "sqlite"
	DefaultJournalSQLitePath    = "data/usage.db"
	DefaultJournalMaxOpenConns  = 10
	DefaultJournalMaxIdleConns  = 5
	DefaultJournalWALMode       = true
	DefaultJournalBusyTimeout   = 5 * time.Second
	DefaultJournalAsyncBuffer   = 1000
	DefaultJournalRetentionDays = 30
	DefaultJournalPruneSchedule = "0 3 * * *"

	// Telemetry defaults
	DefaultLoggingLevel       = "info"
	DefaultLoggingFormat      = "json"
	DefaultMetricsEnabled     = true
	DefaultMetricsPath        = "/metrics"
	DefaultMetricsNamespace   = "ganymede"
	DefaultMetricsSubsystem   = "router"
	DefaultTracingEnabled     = false
	DefaultTracingEndpoint    = "localhost:4317"
	DefaultTracingServiceName = "ganymede"
	DefaultTracingSampleRatio = 1.0
)

// ApplyDefaults fills in default values for any unset configuration fields.
// Boolean fields that default to true are handled by the YAML loader setting
// them before parsing, so only zero-valued fields are touched here.
func ApplyDefaults(cfg *Config) {
	// Server
	if cfg.Server.ListenAddress == "" {
		cfg.Server.ListenAddress = DefaultListenAddress
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = DefaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}

	// Routing
	if cfg.Routing.Strategy == "" {
		cfg.Routing.Strategy = DefaultRotationStrategy
	}
	if cfg.Routing.InvokeTimeout == 0 {
		cfg.Routing.InvokeTimeout = DefaultInvokeTimeout
	}

	// Compression
	if cfg.Compression.Strategy == "" {
		cfg.Compression.Strategy = DefaultCompressionStrategy
	}
	if cfg.Compression.MaxTokens == 0 {
		cfg.Compression.MaxTokens = DefaultMaxTokens
	}
	if cfg.Compression.SummaryThreshold == 0 {
		cfg.Compression.SummaryThreshold = DefaultSummaryThreshold
	}

	// Providers
	for name, pc := range cfg.Providers {
		if pc.Timeout == 0 {
			pc.Timeout = DefaultProviderTimeout
		}
		if pc.MaxIdleConns == 0 {
			pc.MaxIdleConns = DefaultProviderMaxIdleConns
		}
		cfg.Providers[name] = pc
	}

	// Journal
	if cfg.Usage.Journal.Backend == "" {
		cfg.Usage.Journal.Backend = DefaultJournalBackend
	}
	if cfg.Usage.Journal.SQLite.Path == "" {
		cfg.Usage.Journal.SQLite.Path = DefaultJournalSQLitePath
	}
	if cfg.Usage.Journal.SQLite.MaxOpenConns == 0 {
		cfg.Usage.Journal.SQLite.MaxOpenConns = DefaultJournalMaxOpenConns
	}
	if cfg.Usage.Journal.SQLite.MaxIdleConns == 0 {
		cfg.Usage.Journal.SQLite.MaxIdleConns = DefaultJournalMaxIdleConns
	}
	if cfg.Usage.Journal.SQLite.BusyTimeout == 0 {
		cfg.Usage.Journal.SQLite.BusyTimeout = DefaultJournalBusyTimeout
	}
	if cfg.Usage.Journal.AsyncBuffer == 0 {
		cfg.Usage.Journal.AsyncBuffer = DefaultJournalAsyncBuffer
	}
	if cfg.Usage.Journal.RetentionDays == 0 {
		cfg.Usage.Journal.RetentionDays = DefaultJournalRetentionDays
	}
	if cfg.Usage.Journal.PruneSchedule == "" {
		cfg.Usage.Journal.PruneSchedule = DefaultJournalPruneSchedule
	}

	// Telemetry
	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLoggingLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLoggingFormat
	}
	if cfg.Telemetry.Metrics.Path == "" {
		cfg.Telemetry.Metrics.Path = DefaultMetricsPath
	}
	if cfg.Telemetry.Metrics.Namespace == "" {
		cfg.Telemetry.Metrics.Namespace = DefaultMetricsNamespace
	}
	if cfg.Telemetry.Metrics.Subsystem == "" {
		cfg.Telemetry.Metrics.Subsystem = DefaultMetricsSubsystem
	}
	if cfg.Telemetry.Tracing.Endpoint == "" {
		cfg.Telemetry.Tracing.Endpoint = DefaultTracingEndpoint
	}
	if cfg.Telemetry.Tracing.ServiceName == "" {
		cfg.Telemetry.Tracing.ServiceName = DefaultTracingServiceName
	}
	if cfg.Telemetry.Tracing.SampleRatio == 0 {
		cfg.Telemetry.Tracing.SampleRatio = DefaultTracingSampleRatio
	}
}

// NewDefaultConfig returns a configuration with all defaults applied and
// the boolean fields that default to true set accordingly.
func NewDefaultConfig() *Config {
	cfg := &Config{
		Routing: RoutingConfig{
			RetryAttempts:   DefaultRetryAttempts,
			FallbackEnabled: DefaultFallbackEnabled,
		},
		Usage: UsageConfig{
			Journal: JournalConfig{
				SQLite: SQLiteConfig{
					WALMode: DefaultJournalWALMode,
				},
			},
		},
		Telemetry: TelemetryConfig{
			Metrics: MetricsConfig{
				Enabled: DefaultMetricsEnabled,
			},
		},
	}
	ApplyDefaults(cfg)
	return cfg
}
