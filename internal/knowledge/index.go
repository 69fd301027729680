// Package knowledge implements the retrievable FAQ index fed by the
// ticket feedback loop and queried by the self-serve agent.
package knowledge

import (
	"context"

	"github.com/helpdeskhq/helpdesk-ai/internal/domain"
)

// SearchResult is one retrieval hit.
type SearchResult struct {
	Content  string
	Metadata domain.FAQMetadata
	Score    float64
}

// Index is the retrieval store. Upsert is keyed by document id so
// re-ingestion of the same ticket is idempotent; the index is append-only
// from the pipeline's perspective.
type Index interface {
	Upsert(ctx context.Context, doc domain.FAQDocument) error
	Query(ctx context.Context, text string, k int, scoreThreshold float64) ([]SearchResult, error)
}
