package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/helpdeskhq/helpdesk-ai/internal/api/dto"
	"github.com/helpdeskhq/helpdesk-ai/internal/domain"
	"github.com/helpdeskhq/helpdesk-ai/internal/service"
	apperrors "github.com/helpdeskhq/helpdesk-ai/pkg/util/errorutil"
)

// TicketsHandler manages end-user ticket endpoints. Caller identity is
// injected by the fronting gateway via the X-User-ID header.
type TicketsHandler struct {
	service *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{service: ticketService}
}

// CreateTicket POST /tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	userID := requireUserID(c)
	if userID == "" {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	ticket, err := h.service.CreateTicket(c.UserContext(), userID, service.TicketCreateInput{
		Title:       req.Title,
		Description: req.Description,
		Urgency:     req.Urgency,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": ticketSummary(ticket)})
}

// ListTickets GET /tickets.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	userID := requireUserID(c)
	if userID == "" {
		return apperrors.NewUnauthorized("user required")
	}
	statuses := parseStatuses(c.Query("status"))
	tickets, err := h.service.ListUserTickets(c.UserContext(), userID, statuses, c.QueryInt("limit", 20), c.QueryInt("offset", 0))
	if err != nil {
		return err
	}
	items := make([]dto.TicketSummary, 0, len(tickets))
	for i := range tickets {
		items = append(items, ticketSummary(&tickets[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetTicket GET /tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	userID := requireUserID(c)
	if userID == "" {
		return apperrors.NewUnauthorized("user required")
	}
	ticket, msgs, err := h.service.GetTicketForUser(c.UserContext(), userID, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketDetail(ticket, msgs)})
}

// AddMessage POST /tickets/:id/messages.
func (h *TicketsHandler) AddMessage(c *fiber.Ctx) error {
	userID := requireUserID(c)
	if userID == "" {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.CreateMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	msg, err := h.service.AddMessage(c.UserContext(), domain.AuthorTypeUser, userID, c.Params("id"), req.Body)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": messageResponse(msg)})
}

// CloseTicket POST /tickets/:id/close.
func (h *TicketsHandler) CloseTicket(c *fiber.Ctx) error {
	userID := requireUserID(c)
	if userID == "" {
		return apperrors.NewUnauthorized("user required")
	}
	ticket, _, err := h.service.GetTicketForUser(c.UserContext(), userID, c.Params("id"))
	if err != nil {
		return err
	}
	closed, err := h.service.CloseTicket(c.UserContext(), ticket.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketSummary(closed)})
}

func requireUserID(c *fiber.Ctx) string {
	return c.Get("X-User-ID")
}

func requireAgentID(c *fiber.Ctx) string {
	return c.Get("X-Agent-ID")
}

func parseStatuses(raw string) []domain.TicketStatus {
	if raw == "" {
		return nil
	}
	return []domain.TicketStatus{domain.TicketStatus(raw)}
}

func ticketSummary(t *domain.Ticket) dto.TicketSummary {
	return dto.TicketSummary{
		ID:          t.ID,
		ExternalKey: t.ExternalKey,
		Department:  t.Department,
		AssigneeID:  t.AssigneeID,
		Title:       t.Title,
		Status:      t.Status,
		Urgency:     t.Urgency,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
		ClosedAt:    t.ClosedAt,
	}
}

func ticketDetail(t *domain.Ticket, msgs []domain.TicketMessage) dto.TicketDetailResponse {
	detail := dto.TicketDetailResponse{
		TicketSummary: ticketSummary(t),
		Description:   t.Description,
		Messages:      make([]dto.TicketMessageResponse, 0, len(msgs)),
	}
	for i := range msgs {
		detail.Messages = append(detail.Messages, messageResponse(&msgs[i]))
	}
	return detail
}

func messageResponse(m *domain.TicketMessage) dto.TicketMessageResponse {
	return dto.TicketMessageResponse{
		ID:         m.ID,
		AuthorType: m.AuthorType,
		AuthorID:   m.AuthorID,
		Body:       m.Body,
		CreatedAt:  m.CreatedAt,
	}
}
