package handlers

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"dailybrief/internal/config"
	"dailybrief/internal/logger"
	"dailybrief/internal/server"
	"dailybrief/internal/store"
)

// NewServeCmd creates the serve command for the trigger HTTP server.
func NewServeCmd() *cobra.Command {
	var (
		port int
		host string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server exposing the trigger endpoints",
		Long: `Start the trigger server. It exposes:
  • POST /trigger            run the pipeline for a topic in the request body
  • GET  /trigger-by-id/{id} run the pipeline for a stored automation request
  • GET  /health             health check

Trigger endpoints require a Bearer token signed with the shared JWT secret.

Examples:
  dailybrief serve
  dailybrief serve --port 3000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), port, host)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "HTTP server port (default from config: 8000)")
	cmd.Flags().StringVar(&host, "host", "", "HTTP server host (default from config: 0.0.0.0)")

	return cmd
}

func runServe(ctx context.Context, port int, host string) error {
	cfg := config.Get()

	serverCfg := cfg.Server
	if port != 0 {
		serverCfg.Port = port
	}
	if host != "" {
		serverCfg.Host = host
	}
	if serverCfg.JWTSecret == "" {
		return fmt.Errorf("server JWT secret not configured (set JWT_SECRET_KEY)")
	}

	orch, err := buildOrchestrator(ctx, cfg)
	if err != nil {
		return err
	}

	// The automation-requests store is optional; without it only the body
	// based trigger works.
	var requests server.RequestStore
	if dsn := cfg.Database.DSN(); cfg.Database.URL != "" || cfg.Database.Name != "" {
		db, err := store.Open(dsn)
		if err != nil {
			logger.Error("Automation request store unavailable, trigger-by-id disabled", err)
		} else {
			defer db.Close()
			if err := db.EnsureSchema(ctx); err != nil {
				logger.Error("Failed to ensure database schema", err)
			}
			requests = db
		}
	}

	srv := server.New(orch, requests, serverCfg)

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info(fmt.Sprintf("Server listening on http://%s:%d", serverCfg.Host, serverCfg.Port))
		serverErrors <- srv.Start()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		logger.Info("Server shutdown initiated", "signal", sig.String())

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		logger.Info("Server stopped")
	}

	return nil
}
