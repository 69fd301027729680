package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/helpdeskhq/helpdesk-ai/internal/api/dto"
	"github.com/helpdeskhq/helpdesk-ai/internal/domain"
	"github.com/helpdeskhq/helpdesk-ai/internal/service"
	apperrors "github.com/helpdeskhq/helpdesk-ai/pkg/util/errorutil"
)

// NotificationsHandler serves the client notification surface.
type NotificationsHandler struct {
	service *service.NotificationService
}

// NewNotificationsHandler constructs handler.
func NewNotificationsHandler(notificationService *service.NotificationService) *NotificationsHandler {
	return &NotificationsHandler{service: notificationService}
}

// List GET /notifications.
func (h *NotificationsHandler) List(c *fiber.Ctx) error {
	userID := requireUserID(c)
	if userID == "" {
		return apperrors.NewUnauthorized("user required")
	}
	items, err := h.service.ListForUser(c.UserContext(), userID,
		c.QueryBool("unread_only", false), c.QueryInt("limit", 50), c.QueryInt("offset", 0))
	if err != nil {
		return err
	}
	out := make([]dto.NotificationResponse, 0, len(items))
	for i := range items {
		out = append(out, notificationResponse(&items[i]))
	}
	return c.JSON(fiber.Map{"data": out})
}

// UnreadCount GET /notifications/unread-count.
func (h *NotificationsHandler) UnreadCount(c *fiber.Ctx) error {
	userID := requireUserID(c)
	if userID == "" {
		return apperrors.NewUnauthorized("user required")
	}
	count, err := h.service.UnreadCount(c.UserContext(), userID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"unread": count}})
}

// MarkRead POST /notifications/:id/read.
func (h *NotificationsHandler) MarkRead(c *fiber.Ctx) error {
	userID := requireUserID(c)
	if userID == "" {
		return apperrors.NewUnauthorized("user required")
	}
	if err := h.service.MarkRead(c.UserContext(), userID, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// MarkAllRead POST /notifications/read-all.
func (h *NotificationsHandler) MarkAllRead(c *fiber.Ctx) error {
	userID := requireUserID(c)
	if userID == "" {
		return apperrors.NewUnauthorized("user required")
	}
	if err := h.service.MarkAllRead(c.UserContext(), userID); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Delete DELETE /notifications/:id.
func (h *NotificationsHandler) Delete(c *fiber.Ctx) error {
	userID := requireUserID(c)
	if userID == "" {
		return apperrors.NewUnauthorized("user required")
	}
	if err := h.service.Delete(c.UserContext(), userID, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func notificationResponse(n *domain.Notification) dto.NotificationResponse {
	return dto.NotificationResponse{
		ID:        n.ID,
		Title:     n.Title,
		Message:   n.Message,
		Type:      n.Type,
		Data:      n.Data,
		Read:      n.Read,
		ReadAt:    n.ReadAt,
		CreatedAt: n.CreatedAt,
	}
}
