package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"golang.org/x/sync/errgroup"
)

// serve runs the HTTP server until ctx is cancelled, then shuts it down
// gracefully within the configured shutdown timeout.
func (app *application) serve(ctx context.Context, router http.Handler) error {
	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", app.config.Server.Port))
	if err != nil {
		return fmt.Errorf("failed to listen on port %d: %w", app.config.Server.Port, err)
	}
	return app.serveListener(ctx, listener, router)
}

func (app *application) serveListener(ctx context.Context, listener net.Listener, router http.Handler) error {
	server := &http.Server{
		Handler:           router,
		ReadHeaderTimeout: app.config.Server.ReadTimeout,
		ReadTimeout:       app.config.Server.ReadTimeout,
		// Must exceed the handler timeout.
		WriteTimeout: app.config.Server.WriteTimeout + app.config.Server.ReadTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		app.logger.Info("Starting server", "addr", listener.Addr().String())
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		app.logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), app.config.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		app.logger.Info("Server shutdown completed")
		return nil
	})

	return g.Wait()
}
