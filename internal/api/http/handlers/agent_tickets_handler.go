package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/helpdeskhq/helpdesk-ai/internal/api/dto"
	"github.com/helpdeskhq/helpdesk-ai/internal/domain"
	"github.com/helpdeskhq/helpdesk-ai/internal/service"
	apperrors "github.com/helpdeskhq/helpdesk-ai/pkg/util/errorutil"
)

// AgentTicketsHandler manages agent-side ticket endpoints.
type AgentTicketsHandler struct {
	service *service.TicketService
}

// NewAgentTicketsHandler constructs handler.
func NewAgentTicketsHandler(ticketService *service.TicketService) *AgentTicketsHandler {
	return &AgentTicketsHandler{service: ticketService}
}

// ListTickets GET /agent/tickets.
func (h *AgentTicketsHandler) ListTickets(c *fiber.Ctx) error {
	agentID := requireAgentID(c)
	if agentID == "" {
		return apperrors.NewUnauthorized("agent required")
	}
	statuses := parseStatuses(c.Query("status"))
	tickets, err := h.service.ListAgentTickets(c.UserContext(), agentID, statuses, c.QueryInt("limit", 20), c.QueryInt("offset", 0))
	if err != nil {
		return err
	}
	items := make([]dto.TicketSummary, 0, len(tickets))
	for i := range tickets {
		items = append(items, ticketSummary(&tickets[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Assign POST /agent/tickets/:id/assign.
func (h *AgentTicketsHandler) Assign(c *fiber.Ctx) error {
	if requireAgentID(c) == "" {
		return apperrors.NewUnauthorized("agent required")
	}
	var req dto.AssignTicketRequest
	if err := c.BodyParser(&req); err != nil || req.AgentID == "" {
		return apperrors.NewValidationError("agent_id required", nil)
	}
	ticket, err := h.service.AssignTicket(c.UserContext(), c.Params("id"), req.AgentID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketSummary(ticket)})
}

// StartProgress POST /agent/tickets/:id/progress.
func (h *AgentTicketsHandler) StartProgress(c *fiber.Ctx) error {
	if requireAgentID(c) == "" {
		return apperrors.NewUnauthorized("agent required")
	}
	ticket, err := h.service.StartProgress(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketSummary(ticket)})
}

// Close POST /agent/tickets/:id/close.
func (h *AgentTicketsHandler) Close(c *fiber.Ctx) error {
	if requireAgentID(c) == "" {
		return apperrors.NewUnauthorized("agent required")
	}
	ticket, err := h.service.CloseTicket(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketSummary(ticket)})
}

// AddMessage POST /agent/tickets/:id/messages.
func (h *AgentTicketsHandler) AddMessage(c *fiber.Ctx) error {
	agentID := requireAgentID(c)
	if agentID == "" {
		return apperrors.NewUnauthorized("agent required")
	}
	var req dto.CreateMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	msg, err := h.service.AddMessage(c.UserContext(), domain.AuthorTypeAgent, agentID, c.Params("id"), req.Body)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": messageResponse(msg)})
}

// ReassignDepartment POST /agent/tickets/:id/reroute.
func (h *AgentTicketsHandler) ReassignDepartment(c *fiber.Ctx) error {
	if requireAgentID(c) == "" {
		return apperrors.NewUnauthorized("agent required")
	}
	ticket, err := h.service.ReassignDepartment(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketSummary(ticket)})
}
