package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/helpdeskhq/helpdesk-ai/internal/api/dto"
	"github.com/helpdeskhq/helpdesk-ai/internal/domain"
	"github.com/helpdeskhq/helpdesk-ai/internal/repository"
	"github.com/helpdeskhq/helpdesk-ai/internal/service"
	apperrors "github.com/helpdeskhq/helpdesk-ai/pkg/util/errorutil"
)

// AdminHandler serves the admin violation-review surface.
type AdminHandler struct {
	violations *service.ViolationReviewService
}

// NewAdminHandler constructs handler.
func NewAdminHandler(violations *service.ViolationReviewService) *AdminHandler {
	return &AdminHandler{violations: violations}
}

// ListViolations GET /admin/violations.
func (h *AdminHandler) ListViolations(c *fiber.Ctx) error {
	if requireUserID(c) == "" {
		return apperrors.NewUnauthorized("admin required")
	}
	filter := repository.ViolationFilter{
		Limit:  c.QueryInt("limit", 50),
		Offset: c.QueryInt("offset", 0),
	}
	if userID := c.Query("user_id"); userID != "" {
		filter.UserID = &userID
	}
	if c.Query("reviewed") != "" {
		reviewed := c.QueryBool("reviewed")
		filter.AdminReviewed = &reviewed
	}

	items, err := h.violations.List(c.UserContext(), filter)
	if err != nil {
		return err
	}
	out := make([]dto.ViolationResponse, 0, len(items))
	for i := range items {
		out = append(out, violationResponse(&items[i]))
	}
	return c.JSON(fiber.Map{"data": out})
}

// ReviewViolation POST /admin/violations/:id/review.
func (h *AdminHandler) ReviewViolation(c *fiber.Ctx) error {
	if requireUserID(c) == "" {
		return apperrors.NewUnauthorized("admin required")
	}
	var req dto.ReviewViolationRequest
	if err := c.BodyParser(&req); err != nil || req.ActionTaken == "" {
		return apperrors.NewValidationError("action_taken required", nil)
	}
	if err := h.violations.MarkReviewed(c.UserContext(), c.Params("id"), req.ActionTaken); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func violationResponse(v *domain.Violation) dto.ViolationResponse {
	return dto.ViolationResponse{
		ID:                   v.ID,
		UserID:               v.UserID,
		ViolationType:        v.ViolationType,
		Severity:             v.Severity,
		AttemptedTitle:       v.AttemptedTitle,
		AttemptedDescription: v.AttemptedDescription,
		DetectionReason:      v.DetectionReason,
		Confidence:           v.Confidence,
		AdminReviewed:        v.AdminReviewed,
		ActionTaken:          v.ActionTaken,
		CreatedAt:            v.CreatedAt,
	}
}
