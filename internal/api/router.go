package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/youneed/marketplace-api/internal/auth"
	"github.com/youneed/marketplace-api/internal/booking"
)

type RouterConfig struct {
	Service *booking.Service
	Tokens  *auth.Manager
	PgPool  *pgxpool.Pool
	Redis   *redis.Client
	Env     string
	Version string
	Log     *logrus.Logger
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Log))

	// Health endpoints
	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	r.Route("/api", func(r chi.Router) {
		// Public
		r.Post("/auth/register", registerHandler(cfg.Service, cfg.Tokens))
		r.Post("/auth/login", loginHandler(cfg.Service, cfg.Tokens))
		r.Get("/provider/{providerID}/orders", providerOrdersHandler(cfg.Service))
		r.Get("/provider/{providerID}/opening-hours", providerOpeningHoursHandler(cfg.Service))
		r.Get("/provider/{providerID}/services", providerServicesHandler(cfg.Service))

		// Authenticated
		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(cfg.Tokens))

			r.Get("/orders", listOrdersHandler(cfg.Service))
			r.Get("/orders/{id}", getOrderHandler(cfg.Service))
			r.Patch("/orders/{id}/status", updateOrderStatusHandler(cfg.Service))
			r.Put("/orders/{id}/status", updateOrderStatusHandler(cfg.Service))

			r.Get("/notifications", listNotificationsHandler(cfg.Service))
			r.Post("/notifications/{id}/read", markNotificationReadHandler(cfg.Service))

			r.Group(func(r chi.Router) {
				r.Use(RequireRole(booking.RoleClient))
				r.Post("/orders", createOrderHandler(cfg.Service))
				r.Get("/subscriptions", listSubscriptionsHandler(cfg.Service))
				r.Post("/subscriptions", subscribeHandler(cfg.Service))
				r.Delete("/subscriptions/{id}", unsubscribeHandler(cfg.Service))
			})

			r.Group(func(r chi.Router) {
				r.Use(RequireRole(booking.RoleProvider))
				r.Put("/opening-hours", setOpeningHoursHandler(cfg.Service))
				r.Get("/services", listOwnServicesHandler(cfg.Service))
				r.Post("/services", createServiceHandler(cfg.Service))
				r.Put("/services/{id}", updateServiceHandler(cfg.Service))
				r.Delete("/services/{id}", deleteServiceHandler(cfg.Service))
			})

			r.Group(func(r chi.Router) {
				r.Use(RequireRole(booking.RoleAdmin))
				r.Get("/admin/users", adminListUsersHandler(cfg.Service))
				r.Get("/admin/audit", adminListAuditHandler(cfg.Service))
			})
		})
	})

	return r
}
