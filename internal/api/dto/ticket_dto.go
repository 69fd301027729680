package dto

import (
	"time"

	"github.com/helpdeskhq/helpdesk-ai/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	Title       string               `json:"title"`
	Description string               `json:"description"`
	Urgency     domain.TicketUrgency `json:"urgency"`
}

// TicketSummary response.
type TicketSummary struct {
	ID          string               `json:"id"`
	ExternalKey string               `json:"external_key"`
	Department  *domain.Department   `json:"department"`
	AssigneeID  *string              `json:"assignee_id,omitempty"`
	Title       string               `json:"title"`
	Status      domain.TicketStatus  `json:"status"`
	Urgency     domain.TicketUrgency `json:"urgency"`
	CreatedAt   time.Time            `json:"created_at"`
	UpdatedAt   time.Time            `json:"updated_at"`
	ClosedAt    *time.Time           `json:"closed_at,omitempty"`
}

// TicketDetailResponse provides full ticket info.
type TicketDetailResponse struct {
	TicketSummary
	Description string                  `json:"description"`
	Messages    []TicketMessageResponse `json:"messages"`
}

// TicketMessageResponse represents a thread message.
type TicketMessageResponse struct {
	ID         string                   `json:"id"`
	AuthorType domain.MessageAuthorType `json:"author_type"`
	AuthorID   *string                  `json:"author_id"`
	Body       string                   `json:"body"`
	CreatedAt  time.Time                `json:"created_at"`
}

// CreateMessageRequest payload.
type CreateMessageRequest struct {
	Body string `json:"body"`
}

// AssignTicketRequest payload.
type AssignTicketRequest struct {
	AgentID string `json:"agent_id"`
}
