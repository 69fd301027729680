package domain

import "time"

// MessageAuthorType indicates who authored a message.
type MessageAuthorType string

const (
	AuthorTypeUser   MessageAuthorType = "USER"
	AuthorTypeAgent  MessageAuthorType = "AGENT"
	AuthorTypeSystem MessageAuthorType = "SYSTEM"
)

// TicketMessage captures communications in a ticket thread.
type TicketMessage struct {
	ID         string
	TicketID   string
	AuthorType MessageAuthorType
	AuthorID   *string
	Body       string
	CreatedAt  time.Time
}
