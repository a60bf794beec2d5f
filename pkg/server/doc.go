// Package server provides the HTTP front end for the request router.
//
// This package ties the router facade to HTTP: it sets up routes and
// middleware and manages the server lifecycle. Signal handling belongs to
// the caller; pass a context from cli.SetupSignalHandler for graceful
// shutdown on SIGTERM/SIGINT.
//
// # Basic Usage
//
//	import (
//	    "context"
//	    "mercator-hq/ganymede/pkg/config"
//	    "mercator-hq/ganymede/pkg/router"
//	    "mercator-hq/ganymede/pkg/server"
//	)
//
//	cfg, err := config.LoadConfig("ganymede.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	rt, err := router.New(cfg, router.Options{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer rt.Close(context.Background())
//
//	srv := server.NewServer(&cfg.Server, &cfg.Telemetry.Metrics, rt)
//	ctx := cli.SetupSignalHandler(context.Background())
//	if err := srv.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
// # Routes
//
//   - POST /v1/route - dispatch a request to a provider
//   - POST /v1/credentials - register a credential at runtime
//   - GET /v1/usage - per-(provider, model) usage metrics
//   - GET /v1/pool - credential pool snapshot (secrets omitted)
//   - GET /v1/journal - recent journal records (404 when the journal is disabled)
//   - GET /healthz - liveness probe (always returns 200)
//
// The Prometheus exposition endpoint is mounted at the configured metrics
// path when metrics are enabled.
//
// # Middleware Chain
//
// Requests pass through the following middleware (innermost to outermost):
//  1. RequestID: generates or propagates X-Request-ID
//  2. Logging: logs request/response details
//  3. Recovery: recovers from panics and returns a 500 error
//
// # Graceful Shutdown
//
// Start blocks until the context is cancelled or the listener fails.
// Shutdown stops accepting new connections and waits for active
// connections to complete, up to the configured shutdown timeout.
package server
