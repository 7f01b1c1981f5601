package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/shakil/hookpipe/internal/classify"
	"github.com/shakil/hookpipe/internal/config"
	"github.com/shakil/hookpipe/internal/signing"
	"github.com/shakil/hookpipe/internal/storage"
)

type Server struct {
	cfg        config.ServerConfig
	adminToken string
	validator  *signing.Validator
	classifier *classify.Classifier
	store      storage.Storage
	router     *chi.Mux
	log        zerolog.Logger
	http       *http.Server
}

func NewServer(cfg config.ServerConfig, adminToken string, validator *signing.Validator, classifier *classify.Classifier, store storage.Storage, log zerolog.Logger) *Server {
	s := &Server{
		cfg:        cfg,
		adminToken: adminToken,
		validator:  validator,
		classifier: classifier,
		store:      store,
		log:        log,
	}
	s.router = s.buildRouter()
	return s
}

func (s *Server) buildRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(LoggingMiddleware(s.log))

	webhookHandler := NewWebhookHandler(s.validator, s.classifier, s.store, s.log)
	eventHandler := NewEventHandler(s.store)

	// Health check and webhook ingestion carry their own auth (none and
	// HMAC signature respectively).
	r.Get("/health", eventHandler.Health)
	r.Post("/webhooks/github", webhookHandler.Receive)

	// Inspection routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(AdminAuthMiddleware(s.adminToken))

		r.Get("/events", eventHandler.List)
		r.Get("/events/{id}", eventHandler.Get)
		r.Get("/stats", eventHandler.Stats)
	})

	return r
}

func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	s.http = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	s.log.Info().Str("addr", addr).Msg("starting HTTP server")
	return s.http.ListenAndServe()
}

func (s *Server) Shutdown(timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return s.http.Shutdown(ctx)
}

// Router exposes the assembled routes for tests.
func (s *Server) Router() http.Handler {
	return s.router
}
