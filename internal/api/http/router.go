package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/civickit/grievance-service/internal/api/http/handlers"
	"github.com/civickit/grievance-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Tickets        *handlers.TicketsHandler
	AdminTickets   *handlers.AdminTicketsHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	citizen := app.Group("/tickets", cfg.AuthMiddleware.Handle, auth.RequireCitizen())
	citizen.Post("", cfg.Tickets.CreateTicket)
	citizen.Get("", cfg.Tickets.ListTickets)
	citizen.Get("/:id", cfg.Tickets.GetTicket)

	admin := app.Group("/admin/tickets", cfg.AuthMiddleware.Handle, auth.RequireStaff())
	admin.Get("", cfg.AdminTickets.ListTickets)
	admin.Get("/:id", cfg.AdminTickets.GetTicket)
	admin.Post("/:id/status", cfg.AdminTickets.TransitionStatus)
	admin.Post("/:id/assign", cfg.AdminTickets.AssignOfficer)
	admin.Post("/:id/unassign", cfg.AdminTickets.UnassignOfficer)
	admin.Post("/:id/notes", cfg.AdminTickets.Annotate)
}
