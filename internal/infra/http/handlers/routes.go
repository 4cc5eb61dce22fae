package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/xavierca1/leadflow/internal/infra/http/middleware"
)

type RouterConfig struct {
	Chat      *ChatHandler
	Leads     *LeadHandler
	FollowUps *FollowUpHandler
	Health    *HealthHandler

	DashboardAPIKey string
	ChatLimiter     *middleware.RateLimiter
	AllowedOrigins  []string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(chimw.Recoverer)
	r.Use(middleware.Metrics)

	r.NotFound(NotFound)
	r.MethodNotAllowed(MethodNotAllowed)

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r.Route("/api", func(r chi.Router) {
		if cfg.Chat != nil {
			r.Group(func(r chi.Router) {
				r.Use(cors.Handler(cors.Options{
					AllowedOrigins: origins,
					AllowedMethods: []string{"POST", "OPTIONS"},
					AllowedHeaders: []string{"Content-Type"},
					MaxAge:         300,
				}))
				if cfg.ChatLimiter != nil {
					r.Use(cfg.ChatLimiter.Handler)
				}
				r.Post("/chat", cfg.Chat.Handle)
				r.Options("/chat", func(w http.ResponseWriter, r *http.Request) {
					w.WriteHeader(http.StatusOK)
				})
			})
		}

		if cfg.FollowUps != nil {
			r.Post("/followup", cfg.FollowUps.Handle)
		}

		if cfg.Leads != nil {
			r.With(middleware.RequireAPIKey(cfg.DashboardAPIKey)).Post("/leads", cfg.Leads.Ingest)
			r.Get("/leads", cfg.Leads.List)
			r.Get("/leads/{id}", cfg.Leads.Get)
			r.Put("/leads/{id}", cfg.Leads.Update)
			r.Post("/leads/{id}/convert", cfg.Leads.Convert)
			r.Get("/stats", cfg.Leads.Stats)
		}
	})

	if cfg.Health != nil {
		r.Get("/health", cfg.Health.Handle)
	}
	r.Handle("/metrics", promhttp.Handler())

	return r
}
