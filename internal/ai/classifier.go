// Package ai adapts external text classifiers behind deterministic
// fallback policies. Classify never returns an error and never blocks
// past the configured timeout; on any provider failure the result is
// produced locally and marked Degraded so audit trails can tell a live
// model decision from a guess.
package ai

import "context"

// Kind selects the classification task.
type Kind string

const (
	KindModeration    Kind = "moderation"
	KindRouting       Kind = "routing"
	KindSummarization Kind = "summarization"
)

// Moderation labels.
const (
	LabelSafe          = "safe"
	LabelProfanity     = "profanity"
	LabelSpam          = "spam"
	LabelInappropriate = "inappropriate"
	LabelHarassment    = "harassment"
	LabelHateSpeech    = "hate_speech"
)

// Routing labels.
const (
	LabelIT = "IT"
	LabelHR = "HR"
)

// Request is the transient per-call input to the adapter.
type Request struct {
	Kind    Kind
	Subject string
}

// Summary carries the structured output of a summarization call. A nil
// Summary on the result means "skip ingestion", not an error.
type Summary struct {
	Issue      string  `json:"issue_summary"`
	Resolution string  `json:"resolution_summary"`
	Category   string  `json:"category"`
	Confidence float64 `json:"confidence"`
}

// Result is the uniform output of the adapter. Degraded marks a
// fallback-produced result; the flag must survive into persisted records.
type Result struct {
	Kind       Kind
	Label      string
	Severity   string
	Confidence float64
	Rationale  string
	Degraded   bool
	Summary    *Summary
}

// Classifier is the uniform interface to the external text classifier.
type Classifier interface {
	Classify(ctx context.Context, req Request) Result
}
