package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"mercator-hq/ganymede/pkg/cli"
	"mercator-hq/ganymede/pkg/config"
	"mercator-hq/ganymede/pkg/router"
	"mercator-hq/ganymede/pkg/server"
	"mercator-hq/ganymede/pkg/telemetry/logging"
)

var runFlags struct {
	listenAddress string
	logLevel      string
	dryRun        bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the Ganymede router server",
	Long: `Start the Ganymede router server with the specified configuration.

The server listens on the configured address and routes requests across the
credential pool, applying compression, rotation, and rate-limit retry.

Examples:
  # Start with default config
  ganymede run

  # Start with custom config
  ganymede run --config /etc/ganymede/config.yaml

  # Override listen address
  ganymede run --listen 0.0.0.0:8087

  # Validate config without starting the server
  ganymede run --dry-run`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runFlags.listenAddress, "listen", "l", "", "override listen address")
	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "validate config without starting server")
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return cli.NewConfigError("", fmt.Sprintf("failed to load config: %v", err))
	}

	// Apply flag overrides
	if runFlags.listenAddress != "" {
		cfg.Server.ListenAddress = runFlags.listenAddress
	}
	if runFlags.logLevel != "" {
		cfg.Telemetry.Logging.Level = runFlags.logLevel
	}
	if verbose {
		cfg.Telemetry.Logging.Level = "debug"
	}

	logger, err := logging.New(
		cfg.Telemetry.Logging.Level,
		cfg.Telemetry.Logging.Format,
		cfg.Telemetry.Logging.AddSource,
	)
	if err != nil {
		return cli.NewConfigError("telemetry.logging", err.Error())
	}

	if runFlags.dryRun {
		fmt.Println("✓ Configuration valid")
		return nil
	}

	fmt.Printf("Ganymede v%s\n", Version)
	fmt.Printf("Loading configuration from: %s\n", cfgFile)
	fmt.Println("✓ Configuration loaded")

	rt, err := router.New(cfg, router.Options{Logger: logger})
	if err != nil {
		return cli.NewCommandError("run", err)
	}
	defer func() {
		if err := rt.Close(context.Background()); err != nil {
			slog.Error("error closing router", "error", err)
		}
	}()

	fmt.Printf("✓ Router initialized (%d credentials, strategy %s)\n",
		len(cfg.Credentials), cfg.Routing.Strategy)
	if cfg.Usage.Journal.Enabled {
		fmt.Printf("✓ Usage journal enabled (%s backend)\n", cfg.Usage.Journal.Backend)
	}

	// Cancelled on SIGINT/SIGTERM; the server shuts down gracefully when
	// the context ends.
	ctx := cli.SetupSignalHandler(cmd.Context())

	// Watch the config file and register credential additions on reload.
	watcher, err := config.NewWatcher(cfgFile, logger)
	if err != nil {
		slog.Warn("config watcher unavailable, credential hot reload disabled", "error", err)
	} else {
		go func() {
			err := watcher.Watch(ctx, func(newCfg *config.Config) {
				rt.SyncCredentials(newCfg.Credentials)
			})
			if err != nil && ctx.Err() == nil {
				slog.Warn("config watcher stopped", "error", err)
			}
		}()
		defer watcher.Stop()
	}

	srv := server.NewServer(&cfg.Server, &cfg.Telemetry.Metrics, rt)

	fmt.Println()
	fmt.Printf("✓ Server listening on %s\n", cfg.Server.ListenAddress)
	fmt.Printf("✓ Health endpoint: http://%s/healthz\n", cfg.Server.ListenAddress)
	if cfg.Telemetry.Metrics.Enabled {
		fmt.Printf("✓ Metrics endpoint: http://%s%s\n", cfg.Server.ListenAddress, cfg.Telemetry.Metrics.Path)
	}
	fmt.Println("\nPress Ctrl+C to stop")

	// Start blocks until a shutdown signal, context cancellation, or a
	// listener failure.
	if err := srv.Start(ctx); err != nil {
		return cli.NewCommandError("run", err)
	}

	fmt.Println("✓ Server stopped")
	return nil
}
