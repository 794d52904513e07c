// Package api serves recommendations and movie pages over a JSON HTTP API.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kamusis/cinerec/internal/enrich"
	"github.com/kamusis/cinerec/internal/logging"
	"github.com/kamusis/cinerec/internal/recommend"
)

// Options configures a Server.
type Options struct {
	Engine *recommend.Engine
	// Pages builds enriched pages; nil disables /api/v1/pages.
	Pages *enrich.Service
	// CORSOrigins enables CORS for the listed origins.
	CORSOrigins []string
	// RateLimitPerMin is per client IP; 0 disables rate limiting.
	RateLimitPerMin int
	Metrics         bool
	// MaxK caps the k query parameter.
	MaxK int
}

// Server owns the router and its dependencies.
type Server struct {
	opts     Options
	engine   *recommend.Engine
	pages    *enrich.Service
	validate *validator.Validate
}

// New returns a Server. opts.Engine is required.
func New(opts Options) *Server {
	if opts.MaxK <= 0 {
		opts.MaxK = 100
	}
	return &Server{
		opts:     opts,
		engine:   opts.Engine,
		pages:    opts.Pages,
		validate: validator.New(),
	}
}

// Handler builds the chi router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(accessLog)
	r.Use(chimiddleware.Recoverer)
	if len(s.opts.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: s.opts.CORSOrigins,
			AllowedMethods: []string{"GET", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
			MaxAge:         300,
		}))
	}

	r.Get("/healthz", s.health)
	if s.opts.Metrics {
		r.Handle("/metrics", promhttp.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		if s.opts.RateLimitPerMin > 0 {
			r.Use(httprate.Limit(
				s.opts.RateLimitPerMin,
				time.Minute,
				httprate.WithKeyFuncs(httprate.KeyByIP),
				httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
					respondError(w, http.StatusTooManyRequests, CodeRateLimited, "too many requests", nil)
				}),
			))
		}
		r.Get("/movies", s.listMovies)
		r.Get("/movies/info", s.catalogInfo)
		r.Get("/recommendations", s.recommendations)
		r.Get("/pages", s.page)
		r.Get("/session/last", s.lastResult)
		r.Delete("/session/last", s.clearSession)
	})
	return r
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      90 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logging.Info().Str("addr", addr).Msg("API listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	}
}
