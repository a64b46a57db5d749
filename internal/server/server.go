// Package server exposes the posting store, ingestion pipeline, and
// recommendation engine over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/job-radar/internal/db"
	"github.com/jonathan/job-radar/internal/embedding"
	"github.com/jonathan/job-radar/internal/ingestion"
	"github.com/jonathan/job-radar/internal/recommend"
	"github.com/jonathan/job-radar/internal/server/ratelimit"
)

// Store is the slice of the storage layer the handlers read from.
type Store interface {
	GetPosting(ctx context.Context, id uuid.UUID) (*db.Posting, error)
	ListPostings(ctx context.Context, f db.Filters, limit, offset int) ([]db.Posting, int, error)
	CountPostings(ctx context.Context, f db.Filters) (int, error)
	Ping(ctx context.Context) error
}

// Ingestor runs raw records through the ingestion pipeline.
type Ingestor interface {
	Ingest(ctx context.Context, records []map[string]any, source string) *ingestion.Report
	IngestOne(ctx context.Context, raw map[string]any, source string) (*db.Posting, error)
}

// Recommender ranks postings for a query.
type Recommender interface {
	Recommend(ctx context.Context, q recommend.Query) (*recommend.Result, error)
}

// Fetcher pulls raw records from the external job API.
type Fetcher interface {
	Fetch(ctx context.Context, limit int) ([]map[string]any, error)
	IsConfigured() bool
}

// Config wires the server's dependencies.
type Config struct {
	Store       Store
	Ingestor    Ingestor
	Recommender Recommender
	Fetcher     Fetcher
	Provider    embedding.Provider
	Limiter     *ratelimit.Limiter
	Port        string
	FetchLimit  int
}

// Server is the HTTP API.
type Server struct {
	store       Store
	ingestor    Ingestor
	recommender Recommender
	fetcher     Fetcher
	provider    embedding.Provider
	limiter     *ratelimit.Limiter
	port        string
	fetchLimit  int
}

func New(cfg Config) *Server {
	port := cfg.Port
	if port == "" {
		port = "8080"
	}
	fetchLimit := cfg.FetchLimit
	if fetchLimit <= 0 {
		fetchLimit = 50
	}
	return &Server{
		store:       cfg.Store,
		ingestor:    cfg.Ingestor,
		recommender: cfg.Recommender,
		fetcher:     cfg.Fetcher,
		provider:    cfg.Provider,
		limiter:     cfg.Limiter,
		port:        port,
		fetchLimit:  fetchLimit,
	}
}

// Routes builds the request mux.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /postings", s.handleListPostings)
	mux.HandleFunc("GET /postings/count", s.handleCountPostings)
	mux.HandleFunc("GET /postings/{id}", s.handleGetPosting)
	mux.HandleFunc("POST /postings", s.handleCreatePosting)
	mux.HandleFunc("POST /ingest", s.handleIngest)
	mux.HandleFunc("POST /ingest/remote", s.handleIngestRemote)
	mux.HandleFunc("POST /recommendations", s.handleRecommend)

	handler := s.withRateLimit(mux)
	handler = withCORS(handler)
	handler = withLogging(handler)
	return handler
}

// Start runs the server until SIGINT/SIGTERM, then shuts down gracefully.
func (s *Server) Start() error {
	srv := &http.Server{
		Addr:              ":" + s.port,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("[server] listening on :%s", s.port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case sig := <-stop:
		log.Printf("[server] received %s, shutting down", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	return nil
}

func withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("[server] %s %s (%s)", r.Method, r.URL.Path, time.Since(start))
	})
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) withRateLimit(next http.Handler) http.Handler {
	if s.limiter == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		client := clientIP(r)
		ok, retryAfter := s.limiter.Allow(client, r.URL.Path, r.Method)
		if !ok {
			w.Header().Set("Retry-After", strconv.Itoa(int(retryAfter.Seconds())+1))
			errorResponse(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

func jsonResponse(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			log.Printf("[server] failed to encode response: %v", err)
		}
	}
}

func errorResponse(w http.ResponseWriter, status int, msg string) {
	jsonResponse(w, status, map[string]string{"error": msg})
}
