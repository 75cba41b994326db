package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/spektr-org/sockenstudie/config"
	"github.com/spektr-org/sockenstudie/helpers"
	"github.com/spektr-org/sockenstudie/logging"
	"github.com/spektr-org/sockenstudie/server"
	"github.com/spektr-org/sockenstudie/votes"
)

func newServeCmd() *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve snapshots, charts and drawing votes over HTTP",
		Long: `Starts the JSON API.

Configuration is read from the optional --config YAML file, then from
SOCKEN_* environment variables (e.g. SOCKEN_SERVER_PORT, SOCKEN_DATA_PATH).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cfg)
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "Path to config YAML")
	return cmd
}

func runServe(ctx context.Context, cfg *config.Config) error {
	logger := logging.New(cfg.Logging)

	survey, err := loadSchema(cfg.Data.Schema)
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	var register votes.Register
	if cfg.Votes.Enabled {
		register = votes.NewMemory(logger)
	}

	srv, err := server.New(server.Options{
		Schema: survey,
		Loader: server.FileLoader(cfg.Data.Path, helpers.FileOptions{
			Format:    cfg.Data.ResolvedFormat(),
			Sheet:     cfg.Data.Sheet,
			Delimiter: cfg.Data.DelimiterRune(),
		}),
		Votes:          register,
		PodiumSize:     cfg.Votes.PodiumSize,
		AllowedOrigins: cfg.Security.AllowedOrigins,
		Logger:         logger,
		Registry:       registry,
	})
	if err != nil {
		return err
	}

	// A failed initial load is not fatal: the API serves empty snapshots
	// until POST /api/reload succeeds.
	_ = srv.Reload(ctx)

	httpServer := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      srv.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("server listening", "addr", httpServer.Addr, "survey", survey.Name, "votes", cfg.Votes.Enabled)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down", "timeout", cfg.Server.ShutdownTimeout.String())
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
