package events

import (
	"time"

	"github.com/helpdeskhq/helpdesk-ai/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated EventType = "ticket_created"
	EventTicketClosed  EventType = "ticket_closed"
	EventMessageSent   EventType = "message_sent"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	TicketID  string    `json:"ticket_id"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	RequesterID string               `json:"requester_id"`
	Department  domain.Department    `json:"department"`
	Urgency     domain.TicketUrgency `json:"urgency"`
	Title       string               `json:"title"`
	Routing     RoutingAudit         `json:"routing"`
}

// RoutingAudit retains the router's confidence and rationale alongside the
// label, for audit even though the ticket row only stores the department.
type RoutingAudit struct {
	Confidence float64 `json:"confidence"`
	Rationale  string  `json:"rationale"`
	Degraded   bool    `json:"degraded"`
}

// TicketClosedPayload payload.
type TicketClosedPayload struct {
	RequesterID string `json:"requester_id"`
	Title       string `json:"title"`
}

// MessageSentPayload payload.
type MessageSentPayload struct {
	MessageID   string                   `json:"message_id"`
	AuthorType  domain.MessageAuthorType `json:"author_type"`
	AuthorID    *string                  `json:"author_id,omitempty"`
	RequesterID string                   `json:"requester_id"`
	AssigneeID  *string                  `json:"assignee_id,omitempty"`
	BodyPreview string                   `json:"body_preview"`
}
