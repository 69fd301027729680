package domain

import "time"

// ViolationType enumerates categories of rejected content.
type ViolationType string

const (
	ViolationProfanity     ViolationType = "profanity"
	ViolationSpam          ViolationType = "spam"
	ViolationInappropriate ViolationType = "inappropriate"
	ViolationHarassment    ViolationType = "harassment"
	ViolationHateSpeech    ViolationType = "hate_speech"
)

// ViolationSeverity grades how serious a violation is.
type ViolationSeverity string

const (
	SeverityLow      ViolationSeverity = "low"
	SeverityMedium   ViolationSeverity = "medium"
	SeverityHigh     ViolationSeverity = "high"
	SeverityCritical ViolationSeverity = "critical"
)

// Violation is the audit record written when the moderation gate rejects a
// submission. Rows are append-only; only an admin review mutates them.
type Violation struct {
	ID                   string
	UserID               string
	ViolationType        ViolationType
	Severity             ViolationSeverity
	AttemptedTitle       string
	AttemptedDescription string
	DetectionReason      string
	Confidence           float64
	AdminReviewed        bool
	ActionTaken          *string
	CreatedAt            time.Time
}
