// Package server exposes the core over HTTP for the widget frontend. Error
// propagation follows the persistence layer's policy: handlers answer with
// empty lists, generic denials or apology turns, never with stack traces or
// cause detail.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"soulcare/internal/storage"
)

type Verifier interface {
	Verify(ctx context.Context, password string) bool
}

type Sessions interface {
	Create(ctx context.Context) (string, error)
	Valid(ctx context.Context, token string) (bool, error)
	Delete(ctx context.Context, token string) error
}

type Limiter interface {
	Allow(ctx context.Context, session string, now time.Time) (allowed bool, used int64, resetAt time.Time, err error)
}

type Conversations interface {
	List(ctx context.Context) []storage.Conversation
	Delete(ctx context.Context, id string)
}

type Turns interface {
	Lookup(ctx context.Context, id string) (storage.Conversation, bool)
	Turn(ctx context.Context, conv storage.Conversation, text string, useSearch bool) storage.Conversation
}

type Config struct {
	Verifier      Verifier
	Sessions      Sessions
	Limiter       Limiter
	Conversations Conversations
	Turns         Turns
	Logger        zerolog.Logger
	HealthPath    string
	MetricsPath   string
}

type Server struct {
	verifier      Verifier
	sessions      Sessions
	limiter       Limiter
	conversations Conversations
	turns         Turns
	logger        zerolog.Logger
	healthPath    string
	metricsPath   string
}

func New(cfg Config) *Server {
	if cfg.HealthPath == "" {
		cfg.HealthPath = "/healthz"
	}
	if cfg.MetricsPath == "" {
		cfg.MetricsPath = "/metrics"
	}
	return &Server{
		verifier:      cfg.Verifier,
		sessions:      cfg.Sessions,
		limiter:       cfg.Limiter,
		conversations: cfg.Conversations,
		turns:         cfg.Turns,
		logger:        cfg.Logger,
		healthPath:    cfg.HealthPath,
		metricsPath:   cfg.MetricsPath,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(90 * time.Second))

	r.Get(s.healthPath, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, s.metricsPath, promhttp.Handler())

	r.Route("/api", func(api chi.Router) {
		api.Post("/login", s.handleLogin)

		api.Group(func(authed chi.Router) {
			authed.Use(s.requireSession)
			authed.Post("/logout", s.handleLogout)
			authed.Get("/conversations", s.handleListConversations)
			authed.Delete("/conversations/{id}", s.handleDeleteConversation)
			authed.Post("/chat", s.handleChat)
		})
	})

	return r
}
