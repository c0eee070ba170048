// Package server provides the HTTP server and routing for the classification
// service.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/aristath/assetclass/internal/config"
	"github.com/aristath/assetclass/internal/database"
	classificationhandlers "github.com/aristath/assetclass/internal/modules/classification/handlers"
	overridehandlers "github.com/aristath/assetclass/internal/modules/overrides/handlers"
	rulehandlers "github.com/aristath/assetclass/internal/modules/rules/handlers"
)

// Config holds server wiring.
type Config struct {
	Log              zerolog.Logger
	Config           *config.Config
	ClassificationDB *database.DB
	ClientDataDB     *database.DB

	ClassificationHandler *classificationhandlers.Handler
	RuleHandler           *rulehandlers.Handler
	OverrideHandler       *overridehandlers.Handler
}

// Server represents the HTTP server
type Server struct {
	router *chi.Mux
	server *http.Server
	log    zerolog.Logger
	cfg    *config.Config

	classificationDB *database.DB
	clientDataDB     *database.DB

	classificationHandler *classificationhandlers.Handler
	ruleHandler           *rulehandlers.Handler
	overrideHandler       *overridehandlers.Handler
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	s := &Server{
		router:                chi.NewRouter(),
		log:                   cfg.Log.With().Str("component", "server").Logger(),
		cfg:                   cfg.Config,
		classificationDB:      cfg.ClassificationDB,
		clientDataDB:          cfg.ClientDataDB,
		classificationHandler: cfg.ClassificationHandler,
		ruleHandler:           cfg.RuleHandler,
		overrideHandler:       cfg.OverrideHandler,
	}

	s.setupMiddleware(cfg.Config.DevMode)
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Config.Port),
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	return s
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware(devMode bool) {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(middleware.Timeout(60 * time.Second))

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if !devMode {
		s.router.Use(middleware.Compress(5))
	}
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)

	systemHandlers := NewSystemHandlers(s.log, s.cfg.DataDir, s.classificationDB, s.clientDataDB)

	s.router.Route("/api", func(r chi.Router) {
		s.classificationHandler.RegisterRoutes(r)
		s.ruleHandler.RegisterRoutes(r)
		s.overrideHandler.RegisterRoutes(r)

		r.Get("/system/status", systemHandlers.HandleStatus)
	})
}

// handleHealth reports process liveness plus database reachability.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	code := http.StatusOK

	for name, db := range map[string]*database.DB{
		"classification": s.classificationDB,
		"client_data":    s.clientDataDB,
	} {
		if err := db.HealthCheck(r.Context()); err != nil {
			s.log.Error().Err(err).Str("database", name).Msg("Health check failed")
			status = "degraded"
			code = http.StatusServiceUnavailable
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	fmt.Fprintf(w, `{"status":%q}`, status)
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info().Int("port", s.cfg.Port).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}
