package domain

import "time"

// FAQMetadata describes the provenance of an indexed knowledge document.
type FAQMetadata struct {
	Department     Department `json:"department"`
	Category       string     `json:"category"`
	Confidence     float64    `json:"confidence"`
	SourceTicketID string     `json:"source_ticket_id"`
	CreatedAt      time.Time  `json:"created_at"`
}

// FAQDocument is a knowledge-base entry distilled from a closed ticket.
// The ID is derived from the source ticket so re-ingestion is idempotent;
// documents are immutable once stored.
type FAQDocument struct {
	ID       string
	Content  string
	Metadata FAQMetadata
}
