package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/why-platform/buzon-service/internal/api/http/handlers"
	"github.com/why-platform/buzon-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Messages       *handlers.MessagesHandler
	Config         *handlers.ConfigHandler
	Auth           *handlers.AuthHandler
	Stats          *handlers.StatsHandler
	Admin          *handlers.AdminHandler
	AuthMiddleware *auth.Middleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	api := app.Group("/api/v1")
	api.Post("/messages", cfg.Messages.Submit)
	api.Get("/config/sla", cfg.Config.SLA)

	app.Post("/auth/token", cfg.Auth.Token)

	protected := app.Group("", cfg.AuthMiddleware.Handle)
	protected.Get("/stats", cfg.Stats.Stats)
	protected.Post("/admin/escalations/run", cfg.Admin.RunEscalations)
	protected.Get("/admin/submissions", cfg.Admin.ListSubmissions)
	protected.Get("/admin/tickets/:id", cfg.Admin.GetTicket)
	protected.Post("/admin/tickets/:id/resolve", cfg.Admin.ResolveTicket)
}
