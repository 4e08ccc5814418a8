package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

const defaultShutdownTimeout = 10 * time.Second

func newServeCommand() *cobra.Command {
	var migrate bool

	command := &cobra.Command{
		Use:   "serve",
		Short: "Start the review API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			app, err := bootstrap(ctx)
			if err != nil {
				return err
			}
			defer app.cleanup()

			if migrate {
				if err := migrateToLatest(ctx, app.db, app.logger); err != nil {
					return err
				}
			}

			app.startSessionReaper(ctx, reapInterval(app.config.Server.SessionTTL))
			return app.startHTTPServer(ctx, app.setupRouter())
		},
	}

	command.Flags().BoolVar(&migrate, "migrate", false, "Apply pending migrations before serving")
	return command
}

// startSessionReaper abandons sessions idle past server.session_ttl in the
// background until ctx is canceled.
func (app *application) startSessionReaper(ctx context.Context, interval time.Duration) {
	ttl := app.config.Server.SessionTTL
	if ttl <= 0 {
		app.logger.Info("Session reaper disabled")
		return
	}
	go app.registry.RunReaper(ctx, app.clock, ttl, interval, app.logger)
}

// reapInterval checks at least once a minute, and more often for short TTLs.
func reapInterval(ttl time.Duration) time.Duration {
	return max(min(ttl/2, time.Minute), time.Second)
}

// startHTTPServer serves router until ctx is canceled, then shuts down
// gracefully within the configured timeout.
func (app *application) startHTTPServer(ctx context.Context, router http.Handler) error {
	server := &http.Server{
		Addr:              net.JoinHostPort("", strconv.Itoa(app.config.Server.Port)),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		app.logger.Info("Starting server", "port", app.config.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
		app.logger.Info("Shutting down server...")
	}

	timeout := app.config.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = defaultShutdownTimeout
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		app.logger.Error("Server shutdown failed", "error", err)
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	app.logger.Info("Server shutdown completed")
	return nil
}
