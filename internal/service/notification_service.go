package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"go.uber.org/zap"

	"github.com/helpdeskhq/helpdesk-ai/internal/config"
	"github.com/helpdeskhq/helpdesk-ai/internal/domain"
	"github.com/helpdeskhq/helpdesk-ai/internal/events"
	"github.com/helpdeskhq/helpdesk-ai/internal/repository"
)

// NotificationService is the fan-out engine. For each event it computes
// the recipient set, writes one Notification row per recipient, and makes
// a best-effort delivery call to the configured webhook sink. The rows are
// the durable source of truth; delivery failure is logged and swallowed.
type NotificationService struct {
	notifications repository.NotificationRepository
	users         repository.UserRepository
	agents        repository.AgentRepository
	dispatcher    events.Dispatcher
	client        *http.Client
	logger        *zap.Logger
	cfg           config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(notifications repository.NotificationRepository, users repository.UserRepository, agents repository.AgentRepository, dispatcher events.Dispatcher, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	return &NotificationService{
		notifications: notifications,
		users:         users,
		agents:        agents,
		dispatcher:    dispatcher,
		client:        &http.Client{Timeout: cfg.DeliveryTimeout()},
		logger:        logger.Named("notifications"),
		cfg:           cfg,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventTicketCreated, n.handleTicketCreated)
	n.dispatcher.Subscribe(events.EventTicketClosed, n.handleTicketClosed)
	n.dispatcher.Subscribe(events.EventMessageSent, n.handleMessageSent)
}

// handleTicketCreated notifies every admin plus every active agent in the
// ticket's resolved department.
func (n *NotificationService) handleTicketCreated(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketCreatedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload type for %s", event.Type)
	}

	recipients := map[string]struct{}{}
	admins, err := n.users.ListAdmins(ctx)
	if err != nil {
		n.logger.Warn("admin lookup failed", zap.Error(err))
	}
	for _, admin := range admins {
		recipients[admin.ID] = struct{}{}
	}
	if payload.Department != "" {
		agents, err := n.agents.ListActiveByDepartment(ctx, payload.Department)
		if err != nil {
			n.logger.Warn("agent lookup failed",
				zap.String("department", string(payload.Department)), zap.Error(err))
		}
		for _, agent := range agents {
			recipients[agent.ID] = struct{}{}
		}
	}

	n.fanOut(ctx, event, recipients, domain.NotificationTicketCreated,
		"New ticket: "+payload.Title,
		fmt.Sprintf("A new %s ticket was filed for %s.", payload.Urgency, payload.Department))
	return nil
}

// handleTicketClosed notifies the ticket's creator only.
func (n *NotificationService) handleTicketClosed(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketClosedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload type for %s", event.Type)
	}
	recipients := map[string]struct{}{payload.RequesterID: {}}
	n.fanOut(ctx, event, recipients, domain.NotificationTicketClosed,
		"Ticket closed: "+payload.Title,
		"Your ticket has been resolved and closed.")
	return nil
}

// handleMessageSent notifies the other party in the conversation: an
// agent message notifies the requester, a user message notifies the
// assigned agent. The sender is always excluded.
func (n *NotificationService) handleMessageSent(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.MessageSentPayload)
	if !ok {
		return fmt.Errorf("unexpected payload type for %s", event.Type)
	}

	recipients := map[string]struct{}{}
	switch payload.AuthorType {
	case domain.AuthorTypeAgent:
		recipients[payload.RequesterID] = struct{}{}
	case domain.AuthorTypeUser:
		if payload.AssigneeID != nil {
			recipients[*payload.AssigneeID] = struct{}{}
		}
	}
	if payload.AuthorID != nil {
		delete(recipients, *payload.AuthorID)
	}

	n.fanOut(ctx, event, recipients, domain.NotificationNewMessage,
		"New message on your ticket",
		payload.BodyPreview)
	return nil
}

// fanOut writes one notification per recipient, concurrently, then emits
// a single delivery call for the event. No ordering guarantee between
// recipients.
func (n *NotificationService) fanOut(ctx context.Context, event events.Event, recipients map[string]struct{}, notifType domain.NotificationType, title, message string) {
	var wg sync.WaitGroup
	for userID := range recipients {
		wg.Add(1)
		go func(userID string) {
			defer wg.Done()
			notification := &domain.Notification{
				UserID:  userID,
				Title:   title,
				Message: message,
				Type:    notifType,
				Data: map[string]any{
					"event_id":  event.ID,
					"ticket_id": event.TicketID,
				},
			}
			if err := n.notifications.Create(ctx, notification); err != nil {
				n.logger.Error("notification write failed",
					zap.String("user_id", userID),
					zap.String("event_type", string(event.Type)),
					zap.Error(err))
			}
		}(userID)
	}
	wg.Wait()

	n.logger.Info("fan-out complete",
		zap.String("event_type", string(event.Type)),
		zap.String("ticket_id", event.TicketID),
		zap.Int("recipients", len(recipients)))

	n.deliver(ctx, event)
}

// deliver posts the event to the out-of-band sink. One attempt, short
// timeout, no retry; failure is logged and swallowed.
func (n *NotificationService) deliver(ctx context.Context, event events.Event) {
	if n.cfg.WebhookURL == "" {
		return
	}
	body, err := json.Marshal(event)
	if err != nil {
		n.logger.Warn("delivery payload marshal failed", zap.Error(err))
		return
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.cfg.WebhookURL, bytes.NewReader(body))
	if err != nil {
		n.logger.Warn("delivery request build failed", zap.Error(err))
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		n.logger.Warn("delivery call failed",
			zap.String("event_type", string(event.Type)), zap.Error(err))
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		n.logger.Warn("delivery sink rejected event",
			zap.String("event_type", string(event.Type)),
			zap.Int("status", resp.StatusCode))
	}
}

// ListForUser returns a user's notifications.
func (n *NotificationService) ListForUser(ctx context.Context, userID string, unreadOnly bool, limit, offset int) ([]domain.Notification, error) {
	return n.notifications.ListByUser(ctx, userID, unreadOnly, limit, offset)
}

// UnreadCount returns the user's unread notification count.
func (n *NotificationService) UnreadCount(ctx context.Context, userID string) (int, error) {
	return n.notifications.UnreadCount(ctx, userID)
}

// MarkRead marks a single notification as read.
func (n *NotificationService) MarkRead(ctx context.Context, userID, id string) error {
	return n.notifications.MarkRead(ctx, userID, id)
}

// MarkAllRead marks all of a user's notifications as read.
func (n *NotificationService) MarkAllRead(ctx context.Context, userID string) error {
	return n.notifications.MarkAllRead(ctx, userID)
}

// Delete removes a notification at the user's request.
func (n *NotificationService) Delete(ctx context.Context, userID, id string) error {
	return n.notifications.Delete(ctx, userID, id)
}
