package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/helpdeskhq/helpdesk-ai/internal/api/http/handlers"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health        *handlers.HealthHandler
	Tickets       *handlers.TicketsHandler
	AgentTickets  *handlers.AgentTicketsHandler
	Assist        *handlers.AssistHandler
	Notifications *handlers.NotificationsHandler
	Admin         *handlers.AdminHandler
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	// unauthenticated by design: always reachable, never depends on a
	// healthy external provider
	app.Post("/assist/query", cfg.Assist.Query)

	tickets := app.Group("/tickets")
	tickets.Post("", cfg.Tickets.CreateTicket)
	tickets.Get("", cfg.Tickets.ListTickets)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Post("/:id/messages", cfg.Tickets.AddMessage)
	tickets.Post("/:id/close", cfg.Tickets.CloseTicket)

	agent := app.Group("/agent/tickets")
	agent.Get("", cfg.AgentTickets.ListTickets)
	agent.Post("/:id/assign", cfg.AgentTickets.Assign)
	agent.Post("/:id/progress", cfg.AgentTickets.StartProgress)
	agent.Post("/:id/close", cfg.AgentTickets.Close)
	agent.Post("/:id/messages", cfg.AgentTickets.AddMessage)
	agent.Post("/:id/reroute", cfg.AgentTickets.ReassignDepartment)

	notifications := app.Group("/notifications")
	notifications.Get("", cfg.Notifications.List)
	notifications.Get("/unread-count", cfg.Notifications.UnreadCount)
	notifications.Post("/read-all", cfg.Notifications.MarkAllRead)
	notifications.Post("/:id/read", cfg.Notifications.MarkRead)
	notifications.Delete("/:id", cfg.Notifications.Delete)

	admin := app.Group("/admin")
	admin.Get("/violations", cfg.Admin.ListViolations)
	admin.Post("/violations/:id/review", cfg.Admin.ReviewViolation)
}
