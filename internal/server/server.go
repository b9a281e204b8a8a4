// Package server wires the file handler, live reload, and middleware into
// an http.Server with graceful shutdown.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/sockudo/devserver/internal/bundle"
	"github.com/sockudo/devserver/internal/config"
	"github.com/sockudo/devserver/internal/handler"
	"github.com/sockudo/devserver/internal/watch"
)

// Server is the dev server: static files with WASM-aware content types and
// cross-origin isolation headers, an SSE reload stream at /events, and an
// optional esbuild bundle at /bundle.js.
type Server struct {
	cfg     *config.Config
	hub     *Hub
	builder *bundle.Builder
	httpSrv *http.Server
}

func New(cfg *config.Config, fs afero.Fs) *Server {
	s := &Server{
		cfg: cfg,
		hub: NewHub(),
	}

	mux := http.NewServeMux()
	mux.Handle("/events", s.hub)
	if cfg.Bundle {
		s.builder = bundle.New(filepath.Join(cfg.AssetRoot, cfg.BundleEntry))
		mux.Handle("/bundle.js", s.builder)
	}
	mux.Handle("/", gzipHandler(handler.NewFiles(cfg, fs)))

	s.httpSrv = &http.Server{
		Addr:    cfg.Addr(),
		Handler: handler.CrossOrigin(logRequests(mux)),
	}
	return s
}

// Handler exposes the full middleware chain, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.httpSrv.Handler
}

// onChange invalidates the cached bundle and tells connected browsers to
// reload.
func (s *Server) onChange() {
	if s.builder != nil {
		s.builder.Invalidate()
	}
	s.hub.Broadcast()
}

// Run serves until ctx is cancelled, then shuts down gracefully. The
// watcher failing to start only disables auto-reload; serving continues.
func (s *Server) Run(ctx context.Context) error {
	watcher, err := watch.New(
		[]string{s.cfg.AssetRoot, s.cfg.ModuleRoot},
		s.cfg.DebounceDuration,
		s.onChange,
	)
	if err != nil {
		slog.Warn("Failed to create file watcher, auto-reload disabled", "error", err)
	} else {
		go watcher.Start()
		defer watcher.Stop()
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()
		if err := s.httpSrv.Shutdown(shutdownCtx); err != nil {
			slog.Warn("HTTP server shutdown error", "error", err)
		}
	}()

	if err := s.httpSrv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
