package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/helpdeskhq/helpdesk-ai/internal/api/dto"
	"github.com/helpdeskhq/helpdesk-ai/internal/service"
	apperrors "github.com/helpdeskhq/helpdesk-ai/pkg/util/errorutil"
)

// AssistHandler serves the unauthenticated self-serve query endpoint.
type AssistHandler struct {
	service *service.QueryService
}

// NewAssistHandler constructs handler.
func NewAssistHandler(queryService *service.QueryService) *AssistHandler {
	return &AssistHandler{service: queryService}
}

// Query POST /assist/query.
func (h *AssistHandler) Query(c *fiber.Ctx) error {
	var req dto.AssistQueryRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	answer, err := h.service.Answer(c.UserContext(), req.Query, req.SessionID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.AssistQueryResponse{
		Answer:    answer.Answer,
		Source:    answer.Source,
		SessionID: answer.SessionID,
	}})
}
