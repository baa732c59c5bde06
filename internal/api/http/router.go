package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/tickerbell/ticket-service/internal/api/http/handlers"
	"github.com/tickerbell/ticket-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Members        *handlers.MembersHandler
	LoginFilter    *auth.LoginFilter
	Refresh        *auth.RefreshService
	AuthMiddleware *auth.AuthMiddleware
	Metrics        fiber.Handler
}

// RegisterRoutes wires HTTP routes. The login filter is installed as
// middleware ahead of every route and only acts on its configured path.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", cfg.Metrics)
	}

	app.Use(cfg.LoginFilter.Handle)

	api := app.Group("/api")
	api.Post("/refresh", cfg.Refresh.Handle)
	api.Post("/members/join", cfg.Members.Join)
	api.Get("/members/me", cfg.AuthMiddleware.Handle, auth.RequireIdentity(), cfg.Members.Me)
}
