// Package httpapi serves digest jobs and stored chapters over HTTP.
//
// Uploads are accepted as multipart forms and run asynchronously; progress
// is streamed as server-sent events from each reader's own cursor.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/custodia-labs/digest-cli/internal/logger"
)

// ServiceName is reported by the health endpoint.
const ServiceName = "digest"

// requestTimeout bounds every route except the event stream.
const requestTimeout = 60 * time.Second

// Config tunes the HTTP transport.
type Config struct {
	// MaxUploadSize is the largest accepted upload in bytes.
	MaxUploadSize int64

	// WaitTimeout bounds how long an event stream or a waiting digest
	// request stays open.
	WaitTimeout time.Duration
}

// Server routes HTTP requests to the driving ports.
type Server struct {
	ports  *Ports
	config Config
	router *chi.Mux
}

// NewServer builds the router.
func NewServer(ports *Ports, config Config) (*Server, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("validating ports: %w", err)
	}
	if config.MaxUploadSize <= 0 {
		config.MaxUploadSize = 10 * 1024 * 1024
	}
	if config.WaitTimeout <= 0 {
		config.WaitTimeout = 30 * time.Minute
	}

	s := &Server{
		ports:  ports,
		config: config,
		router: chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s, nil
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(requestLogger)
	s.router.Use(middleware.Recoverer)
}

func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)

	// Event streams stay open for up to WaitTimeout.
	s.router.Get("/jobs/{id}/events", s.handleJobEvents)

	s.router.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(requestTimeout))

		r.Get("/jobs", s.handleListJobs)
		r.Get("/jobs/{id}", s.handleGetJob)
		r.Delete("/jobs/{id}", s.handleCancelJob)

		r.Get("/chapters", s.handleListChapters)
		r.Get("/chapters/{id}", s.handleGetChapter)
		r.Delete("/chapters/{id}", s.handleDeleteChapter)
		r.Get("/chapters/{id}/propositions", s.handleQueryPropositions)
		r.Get("/chapters/{id}/units/{unit}/takeaways", s.handleTakeawaysForUnit)
		r.Get("/chapters/{id}/stats", s.handleChapterStats)
	})

	// Digest requests with wait=true block until the job ends.
	s.router.Post("/chapters/digest", s.handleDigest)
}

// Run serves on addr until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("http shutdown: %v", err)
		}
	}()

	logger.Info("listening on %s", addr)
	err := httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// requestLogger logs each request at debug level.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		log := logger.Get()
		log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("elapsed", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("http request")
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": ServiceName,
	})
}
