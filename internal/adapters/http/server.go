// Package http exposes a small read-only operations surface while a run is in
// progress: health, build info, Prometheus metrics and checkpoint inspection.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/aretw0/stepwise/internal/logging"
	"github.com/aretw0/stepwise/pkg/domain"
	"github.com/aretw0/stepwise/pkg/ports"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type config struct {
	gatherer prometheus.Gatherer
	store    ports.StateStore
	version  string
	logger   *slog.Logger
}

// Option configures the handler.
type Option func(*config)

// WithGatherer serves the given registry on /metrics.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(c *config) {
		c.gatherer = g
	}
}

// WithStore enables /sessions endpoints backed by store.
func WithStore(store ports.StateStore) Option {
	return func(c *config) {
		c.store = store
	}
}

// WithVersion sets the version reported by /info.
func WithVersion(v string) Option {
	return func(c *config) {
		c.version = v
	}
}

// WithLogger sets a structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		c.logger = l
	}
}

// NewHandler builds the chi router.
func NewHandler(opts ...Option) http.Handler {
	c := &config{
		gatherer: prometheus.DefaultGatherer,
		version:  "dev",
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}

	r := chi.NewRouter()
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/info", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"app": "stepwise", "version": c.version})
	})
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(c.gatherer, promhttp.HandlerOpts{}))

	if c.store != nil {
		r.Get("/sessions", c.listSessions)
		r.Get("/sessions/{id}", c.getSession)
	}
	return r
}

func (c *config) listSessions(w http.ResponseWriter, r *http.Request) {
	ids, err := c.store.List(r.Context())
	if err != nil {
		c.logger.Error("List sessions failed", "error", err)
		http.Error(w, "failed to list sessions", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, ids)
}

func (c *config) getSession(w http.ResponseWriter, r *http.Request) {
	state, err := c.store.Load(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, domain.ErrSessionNotFound) {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}
	if err != nil {
		c.logger.Error("Load session failed", "error", err)
		http.Error(w, "failed to load session", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Serve listens on addr until ctx is cancelled, then shuts down gracefully.
func Serve(ctx context.Context, addr string, handler http.Handler) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return ServeListener(ctx, ln, handler)
}

// ServeListener is Serve on an existing listener.
func ServeListener(ctx context.Context, ln net.Listener, handler http.Handler) error {
	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}
