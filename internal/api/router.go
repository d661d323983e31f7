package api

import (
	"log/slog"
	"net/http"

	"github.com/dom/coursemarket/internal/api/handlers"
	"github.com/dom/coursemarket/internal/api/middleware"
	"github.com/dom/coursemarket/internal/config"
	"github.com/dom/coursemarket/internal/domain"
	"github.com/dom/coursemarket/internal/metrics"
	"github.com/dom/coursemarket/internal/service"
	"github.com/dom/coursemarket/internal/websocket"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

// Observability bundles the logging and metrics plumbing the router needs.
type Observability struct {
	Logger   *slog.Logger
	Metrics  metrics.Recorder
	Gatherer prometheus.Gatherer
}

func NewRouter(services *service.Services, hub *websocket.Hub, cfg *config.Config, obs Observability, authLimiter *middleware.RateLimiter) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chiMiddleware.RequestID)
	r.Use(middleware.RequestLogger(obs.Logger, obs.Metrics))
	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.CORS(cfg.FrontendURL))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})
	r.Method(http.MethodGet, "/metrics", metrics.Handler(obs.Gatherer))

	adminHandler := handlers.NewAdminHandler(services.Credentials, cfg.IsProduction(), cfg.TokenTTL())
	userHandler := handlers.NewUserHandler(services.Credentials, cfg.IsProduction(), cfg.TokenTTL())
	courseHandler := handlers.NewCourseHandler(services.Courses)
	purchaseHandler := handlers.NewPurchaseHandler(services.Purchases)
	webhookHandler := handlers.NewWebhookHandler(services.Purchases)
	eventsHandler := handlers.NewEventsHandler(hub, cfg.FrontendURL)

	requireAdmin := middleware.Auth(services.Tokens, domain.NamespaceAdmin, cfg.AuthTransport)
	requireUser := middleware.Auth(services.Tokens, domain.NamespaceUser, cfg.AuthTransport)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/user", func(r chi.Router) {
			r.With(authLimiter.Middleware).Post("/register", userHandler.Register)
			r.With(authLimiter.Middleware).Post("/login", userHandler.Login)
			r.Get("/logout", userHandler.Logout)
			r.With(requireUser).Get("/purchases", purchaseHandler.List)
		})

		r.Route("/admin", func(r chi.Router) {
			r.With(authLimiter.Middleware).Post("/register", adminHandler.Register)
			r.With(authLimiter.Middleware).Post("/login", adminHandler.Login)
			r.Get("/logout", adminHandler.Logout)
		})

		r.Route("/course", func(r chi.Router) {
			r.Get("/get", courseHandler.List)
			r.Get("/events", eventsHandler.Handle)
			r.Get("/{id}", courseHandler.Get)

			r.Group(func(r chi.Router) {
				r.Use(requireAdmin)
				r.Post("/create", courseHandler.Create)
				r.Put("/update/{id}", courseHandler.Update)
				r.Delete("/delete/{id}", courseHandler.Delete)
			})

			r.With(requireUser).Post("/buy/{id}", purchaseHandler.Buy)
		})

		r.Route("/order", func(r chi.Router) {
			r.Post("/webhook", webhookHandler.Handle)
		})
	})

	return r
}
