package domain

import "time"

// NotificationType categorizes notifications for client rendering.
type NotificationType string

const (
	NotificationTicketCreated NotificationType = "ticket_created"
	NotificationTicketClosed  NotificationType = "ticket_closed"
	NotificationNewMessage    NotificationType = "new_message"
)

// Notification is the durable per-recipient record produced by fan-out.
// The delivery sink is best-effort; this row is the source of truth.
type Notification struct {
	ID        string
	UserID    string
	Title     string
	Message   string
	Type      NotificationType
	Data      map[string]any
	Read      bool
	ReadAt    *time.Time
	CreatedAt time.Time
}
