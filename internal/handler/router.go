package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/capitalize-ai/fitness-coach/internal/middleware"
	"github.com/capitalize-ai/fitness-coach/pkg/logger"
)

// Handlers are the route targets of the API.
type Handlers struct {
	Health        *HealthHandler
	Coach         *CoachHandler
	Conversations *ConversationHandler
	Logs          *LogHandler
	Plans         *PlanHandler
}

// RouterConfig holds the router's middleware settings.
type RouterConfig struct {
	JWTSecret         string
	RateLimitRequests int
	RateLimitWindow   time.Duration
	AllowedOrigins    []string
	// RequestTimeout cancels a request's context after the given duration; zero disables it.
	RequestTimeout time.Duration
}

// NewRouter wires the API routes. Every route except health and metrics requires a
// bearer token and is rate limited per user.
func NewRouter(h Handlers, cfg RouterConfig, log *logger.Logger) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging(log))
	r.Use(middleware.SecurityHeaders)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(cfg.AllowedOrigins))
	if cfg.RequestTimeout > 0 {
		r.Use(chimiddleware.Timeout(cfg.RequestTimeout))
	}

	// Health endpoints (no auth required)
	r.Get("/health", h.Health.Health)
	r.Get("/ready", h.Health.Ready)

	// Metrics endpoint
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWTSecret))
		r.Use(middleware.UserRateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow))

		r.Route("/coach", func(r chi.Router) {
			r.Post("/chat", h.Coach.Chat)
			r.Get("/context", h.Coach.Context)
			r.Get("/conversations/{id}/messages", h.Conversations.Messages)
			r.Get("/actions", h.Coach.ListActions)
			r.Post("/actions/{id}/confirm", h.Coach.ConfirmAction)
		})

		r.Route("/logs", func(r chi.Router) {
			r.Post("/activity", h.Logs.Activity)
			r.Post("/meal", h.Logs.Meal)
			r.Post("/weight", h.Logs.Weight)
		})

		r.Route("/plans", func(r chi.Router) {
			r.Get("/", h.Plans.List)
			r.Post("/generate", h.Plans.Generate)
		})
	})

	return r
}
