// Package webserver implements the HTTP surface (spec §4.6, component
// C6): route registration, CORS, response compression, and graceful
// shutdown, in the style of the teacher's internal/webserver/server.go.
package webserver

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/Juliapixel/twitch-emote-api/internal/aggregator"
	"github.com/Juliapixel/twitch-emote-api/internal/logger"
	"go.uber.org/zap"
)

var httpServer *http.Server

// corsMiddleware wraps handler with permissive CORS headers and
// short-circuits preflight OPTIONS requests, mirroring the teacher's
// corsMiddleware in internal/webserver/server.go.
func corsMiddleware(handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		handler(w, r)
	}
}

// Start builds the route table, wraps it in logging/compression/CORS
// middleware, and begins serving on port. It returns once the listener
// is bound or an immediate bind error occurs.
func Start(port int, manager *aggregator.Manager) error {
	mux := http.NewServeMux()

	h := &handlers{manager: manager}
	for path, fn := range h.routes() {
		mux.HandleFunc(path, corsMiddleware(requestLog(gzipMiddleware(fn))))
	}

	httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      mux,
		WriteTimeout: 30 * time.Second,
		ReadTimeout:  10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("failed to start http server: %w", err)
	case <-time.After(200 * time.Millisecond):
		logger.Info("web server started", zap.Int("port", port))
		return nil
	}
}

// Shutdown stops accepting new connections and waits for in-flight
// requests to finish, bounded by a short timeout.
func Shutdown() {
	if httpServer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("error during http server shutdown", zap.Error(err))
	}
}
