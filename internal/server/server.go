// Package server exposes the engine over a small JSON HTTP API, mirroring
// the operations the CLI offers. It is thin glue: all semantics live in the
// manager package.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/nbkernels/nbkernels/pkg/manager"
)

// Server serves the REST API for one engine.
type Server struct {
	engine *manager.Engine
	logger *log.Logger
}

// New creates a server around an engine.
func New(engine *manager.Engine, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	return &Server{engine: engine, logger: logger}
}

// Router builds the HTTP handler.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Get("/environments", s.handleListEnvironments)
		r.Post("/scan", s.handleScan)
		r.Post("/register", s.handleRegister)
		r.Post("/unregister", s.handleUnregister)
		r.Get("/kernelspecs", s.handleKernelspecs)
		r.Get("/kernelspecs/{name}", s.handleKernelspec)
	})

	return r
}

// ListenAndServe runs the server until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}
