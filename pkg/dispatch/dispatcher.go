package dispatch

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"mercator-hq/ganymede/pkg/compression"
	"mercator-hq/ganymede/pkg/config"
	"mercator-hq/ganymede/pkg/credentials"
	"mercator-hq/ganymede/pkg/providers"
	"mercator-hq/ganymede/pkg/telemetry/metrics"
	"mercator-hq/ganymede/pkg/telemetry/tracing"
	"mercator-hq/ganymede/pkg/usage"
	"mercator-hq/ganymede/pkg/usage/journal"
)

// rateLimitCooldown is the fixed cooldown stamped on a credential after a
// rate-limited invocation. There is no exponential backoff.
const rateLimitCooldown = 60 * time.Second

// Dispatcher runs the compress, select, invoke, retry sequence for one
// request at a time. One Dispatcher serves many concurrent request flows;
// all shared state lives in the pool and the collectors.
type Dispatcher struct {
	pool       *credentials.Pool
	strategy   credentials.Strategy
	compressor *compression.Compressor
	invoker    providers.Invoker
	collector  *usage.Collector

	// Optional sinks; nil disables them.
	journal *journal.Recorder
	metrics *metrics.RouteMetrics
	tracer  *tracing.Tracer

	cfg    config.RoutingConfig
	logger *slog.Logger
}

// Options bundles the optional dispatcher sinks.
type Options struct {
	// Journal receives one record per terminal outcome.
	Journal *journal.Recorder

	// Metrics receives Prometheus observations.
	Metrics *metrics.RouteMetrics

	// Tracer wraps dispatch phases in spans.
	Tracer *tracing.Tracer

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// NewDispatcher creates a dispatcher over the given pool, strategy,
// compressor, invoker, and collector.
func NewDispatcher(
	pool *credentials.Pool,
	strategy credentials.Strategy,
	compressor *compression.Compressor,
	invoker providers.Invoker,
	collector *usage.Collector,
	cfg config.RoutingConfig,
	opts Options,
) *Dispatcher {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	tracer := opts.Tracer
	if tracer == nil {
		tracer, _ = tracing.New(config.TracingConfig{Enabled: false})
	}

	return &Dispatcher{
		pool:       pool,
		strategy:   strategy,
		compressor: compressor,
		invoker:    invoker,
		collector:  collector,
		journal:    opts.Journal,
		metrics:    opts.Metrics,
		tracer:     tracer,
		cfg:        cfg,
		logger:     logger.With("component", "dispatch"),
	}
}

// Dispatch runs one request to a terminal outcome. It never returns an
// error; every failure is normalized into the Result and recorded exactly
// once.
func (d *Dispatcher) Dispatch(ctx context.Context, req *Request) *Result {
	start := time.Now()

	ctx, span := d.tracer.Start(ctx, "dispatch",
		trace.WithAttributes(
			attribute.String("ganymede.provider", req.Provider),
			attribute.String("ganymede.model", req.Model),
			attribute.String("ganymede.request_id", req.RequestID),
		),
	)
	defer span.End()

	compressed, err := d.compress(ctx, req)
	if err != nil {
		d.logger.Error("compression failed",
			"request_id", req.RequestID,
			"error", err,
		)
		return d.finish(req, &Result{
			Success:  false,
			Error:    err.Error(),
			Provider: req.Provider,
			Model:    req.Model,
		}, metrics.StatusProviderError, start)
	}

	maxAttempts := d.cfg.RetryAttempts + 1
	var lastErr error
	var lastCredID string
	var lastAttempt int

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		lastAttempt = attempt
		cred, err := d.pool.Select(req.Provider, req.Model, d.strategy)
		if err != nil {
			// Missing or empty bucket is terminal; the attempt budget does
			// not apply.
			d.logger.Warn("no credential available",
				"request_id", req.RequestID,
				"provider", req.Provider,
				"model", req.Model,
			)
			return d.finish(req, &Result{
				Success:         false,
				Error:           err.Error(),
				Provider:        req.Provider,
				Model:           req.Model,
				EstimatedTokens: compressed.EstimatedTokens,
				Attempts:        attempt - 1,
			}, metrics.StatusNoCredential, start)
		}
		lastCredID = cred.ID

		res, err := d.invoke(ctx, cred, compressed.Messages, attempt)
		if err == nil {
			tokens := res.TokenCount
			if tokens <= 0 {
				tokens = compressed.EstimatedTokens
			}
			return d.finish(req, &Result{
				Success:         true,
				Content:         res.Content,
				Provider:        req.Provider,
				Model:           req.Model,
				CredentialID:    cred.ID,
				TokenCount:      tokens,
				EstimatedTokens: compressed.EstimatedTokens,
				Attempts:        attempt,
			}, metrics.StatusSuccess, start)
		}
		lastErr = err

		if usage.MatchesRateLimit(err.Error()) && d.cfg.FallbackEnabled {
			d.pool.MarkRateLimited(cred, time.Now().Add(rateLimitCooldown))

			if attempt < maxAttempts {
				// Retried hit: counted now, terminal recording covers the
				// final one.
				d.collector.RecordRateLimitHit(req.Provider, req.Model)
				if d.metrics != nil {
					d.metrics.RecordRateLimitHit(req.Provider, req.Model)
				}
				d.logger.Info("rate limited, retrying",
					"request_id", req.RequestID,
					"credential_id", cred.ID,
					"attempt", attempt,
					"max_attempts", maxAttempts,
				)
				continue
			}

			lastErr = &RetryBudgetExhaustedError{
				Attempts:  maxAttempts,
				LastError: err,
			}
		}

		// Non-rate-limit failures (and disabled fallback) are terminal on
		// the first occurrence.
		break
	}

	d.logger.Warn("dispatch failed",
		"request_id", req.RequestID,
		"provider", req.Provider,
		"model", req.Model,
		"error", lastErr,
	)
	return d.finish(req, &Result{
		Success:         false,
		Error:           lastErr.Error(),
		Provider:        req.Provider,
		Model:           req.Model,
		CredentialID:    lastCredID,
		EstimatedTokens: compressed.EstimatedTokens,
		Attempts:        lastAttempt,
	}, failureStatus(lastErr), start)
}

// compress shrinks the request history under a span.
func (d *Dispatcher) compress(ctx context.Context, req *Request) (*compression.Compressed, error) {
	_, span := d.tracer.Start(ctx, "dispatch.compress")
	defer span.End()

	compressed, err := d.compressor.Compress(req.Messages)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(
		attribute.Int("ganymede.messages.in", len(compressed.Original)),
		attribute.Int("ganymede.messages.out", len(compressed.Messages)),
		attribute.Int("ganymede.tokens.estimated", compressed.EstimatedTokens),
	)
	return compressed, nil
}

// invoke calls the provider collaborator with the configured timeout.
func (d *Dispatcher) invoke(ctx context.Context, cred *credentials.Credential, msgs []compression.Message, attempt int) (*providers.InvokeResult, error) {
	ctx, span := d.tracer.Start(ctx, "dispatch.invoke",
		trace.WithAttributes(
			attribute.String("ganymede.credential_id", cred.ID),
			attribute.Int("ganymede.attempt", attempt),
		),
	)
	defer span.End()

	if d.cfg.InvokeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.cfg.InvokeTimeout)
		defer cancel()
	}

	return d.invoker.Invoke(ctx, cred, msgs)
}

// finish records the terminal outcome exactly once and returns the result.
func (d *Dispatcher) finish(req *Request, result *Result, status string, start time.Time) *Result {
	duration := time.Since(start)

	if result.Success {
		d.collector.RecordSuccess(result.Provider, result.Model, result.TokenCount)
	} else {
		d.collector.RecordFailure(result.Provider, result.Model, result.Error)
	}

	if d.metrics != nil {
		d.metrics.RecordOutcome(result.Provider, result.Model,
			status, duration, result.Attempts, result.TokenCount)
	}

	if d.journal != nil {
		d.journal.Record(&journal.Record{
			RequestID:    req.RequestID,
			Provider:     result.Provider,
			Model:        result.Model,
			CredentialID: result.CredentialID,
			Success:      result.Success,
			RateLimited:  !result.Success && usage.MatchesRateLimit(result.Error),
			TokenCount:   result.TokenCount,
			ErrorText:    result.Error,
			Attempts:     result.Attempts,
		})
	}

	return result
}

// failureStatus maps a terminal invocation failure to its Prometheus
// status label.
func failureStatus(err error) string {
	if usage.MatchesRateLimit(err.Error()) {
		return metrics.StatusRateLimited
	}
	return metrics.StatusProviderError
}
