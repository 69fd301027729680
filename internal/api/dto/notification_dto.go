package dto

import (
	"time"

	"github.com/helpdeskhq/helpdesk-ai/internal/domain"
)

// NotificationResponse is a single notification record.
type NotificationResponse struct {
	ID        string                  `json:"id"`
	Title     string                  `json:"title"`
	Message   string                  `json:"message"`
	Type      domain.NotificationType `json:"type"`
	Data      map[string]any          `json:"data,omitempty"`
	Read      bool                    `json:"read"`
	ReadAt    *time.Time              `json:"read_at,omitempty"`
	CreatedAt time.Time               `json:"created_at"`
}

// ViolationResponse is an admin-facing violation record.
type ViolationResponse struct {
	ID                   string                   `json:"id"`
	UserID               string                   `json:"user_id"`
	ViolationType        domain.ViolationType     `json:"violation_type"`
	Severity             domain.ViolationSeverity `json:"severity"`
	AttemptedTitle       string                   `json:"attempted_title"`
	AttemptedDescription string                   `json:"attempted_description"`
	DetectionReason      string                   `json:"detection_reason"`
	Confidence           float64                  `json:"confidence"`
	AdminReviewed        bool                     `json:"admin_reviewed"`
	ActionTaken          *string                  `json:"action_taken,omitempty"`
	CreatedAt            time.Time                `json:"created_at"`
}

// ReviewViolationRequest payload.
type ReviewViolationRequest struct {
	ActionTaken string `json:"action_taken"`
}
