package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/showtimehq/doorlist/internal/config"
	"github.com/showtimehq/doorlist/internal/events"
	"github.com/showtimehq/doorlist/internal/roster"
	"github.com/showtimehq/doorlist/internal/server"
	"github.com/showtimehq/doorlist/internal/store"
	"github.com/showtimehq/doorlist/internal/store/memory"
	"github.com/showtimehq/doorlist/internal/store/postgres"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:     "serve",
	Short:   "Start the doorlist server",
	GroupID: "system",
	// Override PersistentPreRunE so we don't create an HTTP client.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
		slog.SetDefault(logger)

		// Load configuration.
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		// Pick the roster store. Postgres when configured, otherwise a
		// purely in-memory roster for single-venue setups.
		var st store.Store
		if cfg.DatabaseURL != "" {
			pg, err := postgres.New(cfg.DatabaseURL)
			if err != nil {
				return err
			}
			st = pg
			logger.Info("postgres store connected")
		} else {
			st = memory.New()
			logger.Info("in-memory store (DOORLIST_DATABASE_URL not set)")
		}

		// Wrap the remote store in the local-first cache so the door keeps
		// admitting guests when the database link drops.
		if cfg.CacheEnabled && cfg.DatabaseURL != "" {
			st = roster.NewCachedStore(st, roster.Options{
				PollInterval: cfg.CachePoll,
				Debounce:     cfg.CacheDebounce,
				Timeout:      cfg.CacheTimeout,
				SnapshotPath: cfg.SnapshotPath,
				Logger:       logger,
			})
			logger.Info("local-first cache enabled", "poll", cfg.CachePoll, "debounce", cfg.CacheDebounce)
		}

		// Create event publisher.
		var publisher events.Publisher
		if cfg.NATSURL != "" {
			pub, err := events.NewNATSPublisher(cfg.NATSURL)
			if err != nil {
				st.Close()
				return err
			}
			publisher = pub
			logger.Info("events enabled", "nats_url", cfg.NATSURL)
		} else {
			publisher = &events.NoopPublisher{}
			logger.Info("events disabled (DOORLIST_NATS_URL not set)")
		}

		// Start HTTP server.
		srv := server.New(st, publisher)
		httpServer := &http.Server{
			Addr:    cfg.HTTPAddr,
			Handler: srv.NewHTTPHandler(cfg.AuthToken),
		}

		go func() {
			logger.Info("HTTP server listening", "addr", cfg.HTTPAddr)
			if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("HTTP server error", "err", err)
			}
		}()

		// Start snapshot scheduler if any destinations are configured.
		var scheduler *roster.Scheduler
		if cfg.SnapshotInterval > 0 {
			var dests []roster.Destination

			if cfg.SnapshotS3Bucket != "" {
				s3Dest, err := roster.NewS3Destination(
					context.Background(),
					cfg.SnapshotS3Bucket,
					cfg.SnapshotS3Key,
					cfg.SnapshotS3Region,
					cfg.SnapshotS3Endpoint,
				)
				if err != nil {
					logger.Error("failed to create S3 snapshot destination", "err", err)
				} else {
					dests = append(dests, s3Dest)
					logger.Info("snapshot S3 destination enabled", "bucket", cfg.SnapshotS3Bucket, "key", cfg.SnapshotS3Key)
				}
			}

			if cfg.SnapshotPath != "" {
				dests = append(dests, roster.NewFileDestination(cfg.SnapshotPath))
				logger.Info("snapshot file destination enabled", "path", cfg.SnapshotPath)
			}

			if len(dests) > 0 {
				scheduler = roster.NewScheduler(st, dests, cfg.SnapshotInterval, logger)
				scheduler.Start()
				logger.Info("snapshot scheduler started", "interval", cfg.SnapshotInterval)
			}
		}

		logger.Info("doorlist server started", "http_addr", cfg.HTTPAddr)

		// Wait for SIGINT or SIGTERM.
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		logger.Info("received signal, shutting down", "signal", sig)

		// Graceful shutdown.
		if scheduler != nil {
			scheduler.Stop()
			logger.Info("snapshot scheduler stopped")
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", "err", err)
		}
		logger.Info("HTTP server stopped")

		if err := publisher.Close(); err != nil {
			logger.Error("error closing publisher", "err", err)
		}
		if err := st.Close(); err != nil {
			logger.Error("error closing store", "err", err)
		}

		logger.Info("shutdown complete")
		return nil
	},
}
