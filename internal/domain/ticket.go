package domain

import "time"

// Department enumerates the two triage destinations for tickets.
type Department string

const (
	DepartmentIT Department = "IT"
	DepartmentHR Department = "HR"
)

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "open"
	TicketStatusAssigned   TicketStatus = "assigned"
	TicketStatusInProgress TicketStatus = "in_progress"
	TicketStatusClosed     TicketStatus = "closed"
)

// TicketUrgency enumerates SLA urgency.
type TicketUrgency string

const (
	TicketUrgencyLow      TicketUrgency = "low"
	TicketUrgencyMedium   TicketUrgency = "medium"
	TicketUrgencyHigh     TicketUrgency = "high"
	TicketUrgencyCritical TicketUrgency = "critical"
)

// Ticket is the aggregate for support requests. Department is nil only for
// the short window before the router has run; every persisted ticket carries
// IT or HR.
type Ticket struct {
	ID          string
	ExternalKey string
	RequesterID string
	Department  *Department
	AssigneeID  *string
	Title       string
	Description string
	Status      TicketStatus
	Urgency     TicketUrgency
	MisuseFlag  bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
	ClosedAt    *time.Time
}
