package config

import (
	"fmt"

	"github.com/robfig/cron/v3"
)

// Validate checks the configuration for errors and returns a descriptive
// error for the first problem found. It is called automatically by
// LoadConfig; call it directly when building a Config programmatically.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("configuration is nil")
	}

	if cfg.Server.ListenAddress == "" {
		return fmt.Errorf("server.listen_address must not be empty")
	}

	if err := validateRouting(&cfg.Routing); err != nil {
		return err
	}
	if err := validateCompression(&cfg.Compression); err != nil {
		return err
	}
	if err := validateCredentials(cfg.Credentials); err != nil {
		return err
	}
	if err := validateJournal(&cfg.Usage.Journal); err != nil {
		return err
	}
	if err := validateTelemetry(&cfg.Telemetry); err != nil {
		return err
	}

	return nil
}

func validateRouting(rc *RoutingConfig) error {
	switch rc.Strategy {
	case RotationRoundRobin, RotationLeastUsed, RotationRandom:
	default:
		return fmt.Errorf("routing.strategy %q is not recognized (valid: %s, %s, %s)",
			rc.Strategy, RotationRoundRobin, RotationLeastUsed, RotationRandom)
	}

	if rc.RetryAttempts < 0 {
		return fmt.Errorf("routing.retry_attempts must be >= 0, got %d", rc.RetryAttempts)
	}
	if rc.InvokeTimeout <= 0 {
		return fmt.Errorf("routing.invoke_timeout must be positive, got %s", rc.InvokeTimeout)
	}

	return nil
}

func validateCompression(cc *CompressionConfig) error {
	switch cc.Strategy {
	case CompressionTruncate, CompressionSummarize, CompressionHybrid:
	default:
		return fmt.Errorf("compression.strategy %q is not recognized (valid: %s, %s, %s)",
			cc.Strategy, CompressionTruncate, CompressionSummarize, CompressionHybrid)
	}

	if cc.MaxTokens <= 0 {
		return fmt.Errorf("compression.max_tokens must be positive, got %d", cc.MaxTokens)
	}
	if cc.SummaryThreshold <= 0 {
		return fmt.Errorf("compression.summary_threshold must be positive, got %d", cc.SummaryThreshold)
	}
	if cc.SummaryThreshold > cc.MaxTokens {
		return fmt.Errorf("compression.summary_threshold (%d) must not exceed compression.max_tokens (%d)",
			cc.SummaryThreshold, cc.MaxTokens)
	}

	return nil
}

func validateCredentials(creds []CredentialConfig) error {
	seen := make(map[string]int, len(creds))
	for i, c := range creds {
		if c.ID == "" {
			return fmt.Errorf("credentials[%d].id must not be empty", i)
		}
		if c.Provider == "" {
			return fmt.Errorf("credentials[%d] (%s): provider must not be empty", i, c.ID)
		}
		if c.Model == "" {
			return fmt.Errorf("credentials[%d] (%s): model must not be empty", i, c.ID)
		}
		if c.SecretRef == "" {
			return fmt.Errorf("credentials[%d] (%s): secret_ref must not be empty", i, c.ID)
		}
		if prev, dup := seen[c.ID]; dup {
			return fmt.Errorf("credentials[%d] duplicates id %q (first declared at credentials[%d])", i, c.ID, prev)
		}
		seen[c.ID] = i
	}
	return nil
}

func validateJournal(jc *JournalConfig) error {
	if !jc.Enabled {
		return nil
	}

	switch jc.Backend {
	case "sqlite":
		if jc.SQLite.Path == "" {
			return fmt.Errorf("usage.journal.sqlite.path must not be empty when the sqlite backend is selected")
		}
	case "memory":
	default:
		return fmt.Errorf("usage.journal.backend %q is not recognized (valid: sqlite, memory)", jc.Backend)
	}

	if jc.AsyncBuffer <= 0 {
		return fmt.Errorf("usage.journal.async_buffer must be positive, got %d", jc.AsyncBuffer)
	}
	if jc.RetentionDays < 0 {
		return fmt.Errorf("usage.journal.retention_days must be >= 0, got %d", jc.RetentionDays)
	}
	if jc.PruneSchedule != "" {
		if _, err := cron.ParseStandard(jc.PruneSchedule); err != nil {
			return fmt.Errorf("usage.journal.prune_schedule %q is not a valid cron expression: %w", jc.PruneSchedule, err)
		}
	}

	return nil
}

func validateTelemetry(tc *TelemetryConfig) error {
	switch tc.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("telemetry.logging.level %q is not recognized (valid: debug, info, warn, error)", tc.Logging.Level)
	}

	switch tc.Logging.Format {
	case "json", "text":
	default:
		return fmt.Errorf("telemetry.logging.format %q is not recognized (valid: json, text)", tc.Logging.Format)
	}

	if tc.Tracing.Enabled {
		if tc.Tracing.Endpoint == "" {
			return fmt.Errorf("telemetry.tracing.endpoint must not be empty when tracing is enabled")
		}
		if tc.Tracing.SampleRatio < 0 || tc.Tracing.SampleRatio > 1 {
			return fmt.Errorf("telemetry.tracing.sample_ratio must be between 0 and 1, got %g", tc.Tracing.SampleRatio)
		}
	}

	return nil
}
