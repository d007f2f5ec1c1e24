// Package server exposes matching and search over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/underdogdevs/mentormatch/internal/matcher"
	"github.com/underdogdevs/mentormatch/internal/search"
	"github.com/underdogdevs/mentormatch/internal/store"
)

const shutdownTimeout = 5 * time.Second

// Matcher is the matching capability served under /match.
type Matcher interface {
	Match(ctx context.Context, menteeID string, n int) ([]matcher.Match, error)
}

// Searcher is the relevance search served under /{collection}/search.
type Searcher interface {
	Search(ctx context.Context, collection, query string, limit int) ([]search.Result, error)
}

// Options configures a Server. Store, Matcher and Searcher are required.
type Options struct {
	Store    store.Store
	Matcher  Matcher
	Searcher Searcher
	Version  string
	// JWTSecret enables bearer token checks on data routes when set.
	JWTSecret string
	// Registry receives the HTTP metrics. A fresh registry is used when nil.
	Registry *prometheus.Registry
	Logger   *zap.Logger
}

type Server struct {
	store    store.Store
	matcher  Matcher
	searcher Searcher
	version  string
	secret   []byte

	registry *prometheus.Registry
	metrics  *Metrics
	logger   *zap.Logger
}

func New(opts Options) (*Server, error) {
	if opts.Store == nil || opts.Matcher == nil || opts.Searcher == nil {
		return nil, errors.New("store, matcher and searcher are required")
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	registry := opts.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	metrics := NewMetrics()
	if err := metrics.Register(registry); err != nil {
		return nil, fmt.Errorf("registering metrics: %w", err)
	}

	return &Server{
		store:    opts.Store,
		matcher:  opts.Matcher,
		searcher: opts.Searcher,
		version:  opts.Version,
		secret:   []byte(opts.JWTSecret),
		registry: registry,
		metrics:  metrics,
		logger:   logger,
	}, nil
}

// Handler returns the full middleware chain around the routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.Handle("GET /version", s.instrument("version", http.HandlerFunc(s.handleVersion)))
	mux.Handle("GET /healthz", s.instrument("healthz", http.HandlerFunc(s.handleHealth)))
	mux.Handle("GET /metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))

	mux.Handle("GET /collections", s.instrument("collections", s.authenticate(http.HandlerFunc(s.handleCollections))))
	// /match/{id} and /{collection}/read overlap for the path /match/read,
	// so both shapes go through one two-segment route.
	mux.Handle("POST /{first}/{second}", s.authenticate(http.HandlerFunc(s.dispatch)))

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	return requestID(c.Handler(mux))
}

func (s *Server) dispatch(w http.ResponseWriter, r *http.Request) {
	first, second := r.PathValue("first"), r.PathValue("second")

	switch {
	case first == "match":
		s.instrument("match", http.HandlerFunc(s.handleMatch)).ServeHTTP(w, r)
	case second == "read":
		s.instrument("read", http.HandlerFunc(s.handleRead)).ServeHTTP(w, r)
	case second == "search":
		s.instrument("search", http.HandlerFunc(s.handleSearch)).ServeHTTP(w, r)
	default:
		http.NotFound(w, r)
	}
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down http server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	return <-errCh
}
