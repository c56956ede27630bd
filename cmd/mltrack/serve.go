package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/mltrack/artifact"
	"github.com/randalmurphal/mltrack/httpapi"
	"github.com/randalmurphal/mltrack/logging"
	"github.com/randalmurphal/mltrack/registry"
	"github.com/randalmurphal/mltrack/tracking"
)

const shutdownGrace = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		log := logging.New("serve")

		if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
			return fmt.Errorf("create data dir: %w", err)
		}
		tracker, err := tracking.Open(cfg.DBPath)
		if err != nil {
			return fmt.Errorf("open tracking store: %w", err)
		}
		defer tracker.Close()

		store := artifact.NewStore(cfg.ArtifactsDir)
		srv := httpapi.NewServer(httpapi.Options{
			Tracker:        tracker,
			Artifacts:      store,
			Importer:       artifact.NewImporter(store, cfg.Import),
			Retriever:      artifact.NewRetriever(store),
			Models:         registry.New(cfg.ModelsDir),
			MaxUploadBytes: cfg.MaxUploadBytes,
			Logger:         logging.New("http"),
		})

		httpServer := &http.Server{
			Addr:              cfg.ListenAddr,
			Handler:           srv.Routes(),
			ReadHeaderTimeout: 5 * time.Second,
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		errCh := make(chan error, 1)
		go func() {
			log.Info("listening", "addr", cfg.ListenAddr, "data_dir", cfg.DataDir)
			errCh <- httpServer.ListenAndServe()
		}()

		select {
		case err := <-errCh:
			if !errors.Is(err, http.ErrServerClosed) {
				return err
			}
		case <-ctx.Done():
			log.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
			defer cancel()
			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("shutdown: %w", err)
			}
		}
		return nil
	},
}
