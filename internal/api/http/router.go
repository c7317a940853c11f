package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/pronet/recovery-portal/internal/api/http/handlers"
	"github.com/pronet/recovery-portal/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health   *handlers.HealthHandler
	Recovery *handlers.RecoveryHandler
	Reset    *handlers.ResetHandler
	Session  *auth.SessionMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/metrics", cfg.Health.Metrics)

	app.Get("/forgot-password", cfg.Session.Handle, cfg.Recovery.Show)
	app.Post("/forgot-password", cfg.Session.Handle, cfg.Recovery.Submit)
	app.Get("/reset-password", cfg.Session.Handle, cfg.Reset.Show)
	app.Post("/reset-password", cfg.Session.Handle, cfg.Reset.Submit)

	api := app.Group("/api", cfg.Session.Handle)
	api.Get("/forgot-password", cfg.Recovery.StateAPI)
	api.Post("/forgot-password", cfg.Recovery.SubmitAPI)
	api.Delete("/forgot-password", cfg.Recovery.ResetAPI)
}
