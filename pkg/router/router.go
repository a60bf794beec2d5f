package router

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"mercator-hq/ganymede/pkg/compression"
	"mercator-hq/ganymede/pkg/config"
	"mercator-hq/ganymede/pkg/credentials"
	"mercator-hq/ganymede/pkg/credentials/strategies"
	"mercator-hq/ganymede/pkg/dispatch"
	"mercator-hq/ganymede/pkg/providers"
	"mercator-hq/ganymede/pkg/telemetry/metrics"
	"mercator-hq/ganymede/pkg/telemetry/tracing"
	"mercator-hq/ganymede/pkg/usage"
	"mercator-hq/ganymede/pkg/usage/journal"
)

// Router is the top-level facade over the routing stack. It owns the
// credential pool, the dispatcher, and the optional journal, metrics, and
// tracing components, and tears them down in Close.
type Router struct {
	cfg *config.Config

	pool       *credentials.Pool
	collector  *usage.Collector
	dispatcher *dispatch.Dispatcher

	journalStore    journal.Store
	journalRecorder *journal.Recorder
	pruneScheduler  *journal.Scheduler
	pruneCancel     context.CancelFunc

	metrics *metrics.RouteMetrics
	tracer  *tracing.Tracer

	// knownIDs tracks registered credential ids so configuration reloads
	// only register additions.
	idMu     sync.Mutex
	knownIDs map[string]struct{}

	logger *slog.Logger
}

// Options customizes Router construction. All fields are optional.
type Options struct {
	// Invoker overrides the HTTP provider invoker. Used in tests.
	Invoker providers.Invoker

	// SecretResolver overrides env-variable secret resolution for the
	// default HTTP invoker. Ignored when Invoker is set.
	SecretResolver providers.SecretResolver

	// Registry receives the Prometheus collectors. A private registry is
	// created when nil and metrics are enabled.
	Registry *prometheus.Registry

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// New builds a Router from the configuration. Credentials listed in
// cfg.Credentials are registered into the pool; more can be added later
// with RegisterCredential.
func New(cfg *config.Config, opts Options) (*Router, error) {
	if cfg == nil {
		return nil, errors.New("router: nil config")
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "router")

	strategy, err := strategies.ForName(cfg.Routing.Strategy)
	if err != nil {
		return nil, err
	}

	pool := credentials.NewPool(credentials.PoolConfig{
		ExcludeCooling: cfg.Routing.ExcludeCooling,
	})
	for _, cc := range cfg.Credentials {
		pool.Add(&credentials.Credential{
			ID:        cc.ID,
			Provider:  cc.Provider,
			Model:     cc.Model,
			SecretRef: cc.SecretRef,
		})
	}

	invoker := opts.Invoker
	if invoker == nil {
		resolver := opts.SecretResolver
		if resolver == nil {
			resolver = providers.EnvSecretResolver
		}
		invoker = providers.NewHTTPInvoker(cfg.Providers, resolver, logger)
	}

	tracer, err := tracing.New(cfg.Telemetry.Tracing)
	if err != nil {
		return nil, fmt.Errorf("initializing tracing: %w", err)
	}

	knownIDs := make(map[string]struct{}, len(cfg.Credentials))
	for _, cc := range cfg.Credentials {
		knownIDs[cc.ID] = struct{}{}
	}

	r := &Router{
		cfg:       cfg,
		pool:      pool,
		collector: usage.NewCollector(),
		tracer:    tracer,
		knownIDs:  knownIDs,
		logger:    logger,
	}

	if cfg.Telemetry.Metrics.Enabled {
		registry := opts.Registry
		if registry == nil {
			registry = prometheus.NewRegistry()
		}
		r.metrics = metrics.NewRouteMetrics(cfg.Telemetry.Metrics, registry)
	}

	if cfg.Usage.Journal.Enabled {
		if err := r.openJournal(); err != nil {
			_ = tracer.Shutdown(context.Background())
			return nil, err
		}
	}

	r.dispatcher = dispatch.NewDispatcher(
		pool,
		strategy,
		compression.NewCompressor(cfg.Compression),
		invoker,
		r.collector,
		cfg.Routing,
		dispatch.Options{
			Journal: r.journalRecorder,
			Metrics: r.metrics,
			Tracer:  tracer,
			Logger:  logger,
		},
	)

	logger.Info("router initialized",
		"strategy", cfg.Routing.Strategy,
		"credentials", len(cfg.Credentials),
		"journal_enabled", cfg.Usage.Journal.Enabled,
		"metrics_enabled", cfg.Telemetry.Metrics.Enabled,
	)
	return r, nil
}

func (r *Router) openJournal() error {
	jc := r.cfg.Usage.Journal

	var store journal.Store
	switch jc.Backend {
	case "sqlite":
		s, err := journal.NewSQLiteStore(jc.SQLite, r.logger)
		if err != nil {
			return fmt.Errorf("opening usage journal: %w", err)
		}
		store = s
	case "memory":
		store = journal.NewMemoryStore()
	default:
		return fmt.Errorf("unknown journal backend %q", jc.Backend)
	}

	r.journalStore = store
	r.journalRecorder = journal.NewRecorder(store, jc.AsyncBuffer, r.logger)

	if jc.RetentionDays > 0 && jc.PruneSchedule != "" {
		pruner := journal.NewPruner(store, jc.RetentionDays, r.logger)
		r.pruneScheduler = journal.NewScheduler(pruner, jc.PruneSchedule, r.logger)
		ctx, cancel := context.WithCancel(context.Background())
		r.pruneCancel = cancel
		if err := r.pruneScheduler.Start(ctx); err != nil {
			cancel()
			return fmt.Errorf("starting journal pruner: %w", err)
		}
	}
	return nil
}

// Route dispatches one request. A request id is assigned when the caller
// did not supply one. Route never returns an error; every failure is
// normalized into the Result.
func (r *Router) Route(ctx context.Context, req *dispatch.Request) *dispatch.Result {
	if req.RequestID == "" {
		req.RequestID = uuid.New().String()
	}
	return r.dispatcher.Dispatch(ctx, req)
}

// RegisterCredential adds a credential to the pool at runtime. The secret
// reference is stored opaquely and only resolved at invocation time.
//
// The facade rejects duplicate IDs although the pool itself would accept
// them: SyncCredentials relies on ID uniqueness to make config reloads
// idempotent. Callers that want double rotation weight for a credential
// register it under distinct IDs.
func (r *Router) RegisterCredential(id, provider, model, secretRef string) error {
	if id == "" || provider == "" || model == "" || secretRef == "" {
		return errors.New("router: credential id, provider, model, and secret_ref are all required")
	}

	r.idMu.Lock()
	if _, exists := r.knownIDs[id]; exists {
		r.idMu.Unlock()
		return fmt.Errorf("router: credential %q is already registered", id)
	}
	r.knownIDs[id] = struct{}{}
	r.idMu.Unlock()

	r.pool.Add(&credentials.Credential{
		ID:        id,
		Provider:  provider,
		Model:     model,
		SecretRef: secretRef,
	})
	r.logger.Info("credential registered",
		"credential_id", id,
		"provider", provider,
		"model", model,
	)
	return nil
}

// SyncCredentials registers credentials from a reloaded configuration that
// are not yet in the pool. Existing credentials are left untouched; removal
// and rotation of secrets are out of scope for reloads. Returns the number
// of credentials added.
func (r *Router) SyncCredentials(creds []config.CredentialConfig) int {
	added := 0
	for _, cc := range creds {
		if err := r.RegisterCredential(cc.ID, cc.Provider, cc.Model, cc.SecretRef); err == nil {
			added++
		}
	}
	if added > 0 {
		r.logger.Info("credentials synced from reloaded configuration", "added", added)
	}
	return added
}

// UsageSnapshot returns per-(provider, model) usage metrics, sorted.
func (r *Router) UsageSnapshot() []usage.Metrics {
	return r.collector.Snapshot()
}

// UsageAggregate returns usage metrics summed across all pairs.
func (r *Router) UsageAggregate() usage.Metrics {
	return r.collector.Aggregate()
}

// PoolSnapshot returns the current credential buckets without secrets.
func (r *Router) PoolSnapshot() []credentials.BucketSnapshot {
	return r.pool.Snapshot()
}

// JournalEnabled reports whether the usage journal is active.
func (r *Router) JournalEnabled() bool {
	return r.journalStore != nil
}

// JournalRecent returns the newest journal records, optionally filtered by
// provider and model. It returns nil when the journal is disabled.
func (r *Router) JournalRecent(ctx context.Context, provider, model string, limit int) ([]*journal.Record, error) {
	if r.journalStore == nil {
		return nil, nil
	}
	return r.journalStore.List(ctx, provider, model, limit)
}

// MetricsHandler returns the Prometheus exposition handler, or nil when
// metrics are disabled.
func (r *Router) MetricsHandler() *metrics.RouteMetrics {
	return r.metrics
}

// Close flushes the journal and shuts down the tracer. Safe to call once.
func (r *Router) Close(ctx context.Context) error {
	var errs []error

	if r.pruneCancel != nil {
		r.pruneCancel()
		r.pruneScheduler.Stop()
	}
	if r.journalRecorder != nil {
		if err := r.journalRecorder.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing usage journal: %w", err))
		}
	}
	if err := r.tracer.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("shutting down tracer: %w", err))
	}
	return errors.Join(errs...)
}
