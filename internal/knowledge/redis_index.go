package knowledge

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/helpdeskhq/helpdesk-ai/internal/ai"
	"github.com/helpdeskhq/helpdesk-ai/internal/domain"
)

const (
	docKeyPrefix = "faq:doc:"
	docSetKey    = "faq:docs"
)

// RedisIndex stores FAQ documents as redis hashes with an embedding vector
// alongside the content. Queries embed the input and rank by cosine
// similarity; when the embedder is unavailable the index degrades to
// keyword-overlap scoring rather than failing.
type RedisIndex struct {
	client   *redis.Client
	embedder ai.Embedder
	logger   *zap.Logger
}

// NewRedisIndex builds the index. embedder may be nil (pure keyword mode).
func NewRedisIndex(client *redis.Client, embedder ai.Embedder, logger *zap.Logger) *RedisIndex {
	return &RedisIndex{
		client:   client,
		embedder: embedder,
		logger:   logger.Named("knowledge"),
	}
}

// Upsert writes a document under its deterministic id. Writing the same id
// twice overwrites in place; content is idempotent per ticket so
// last-writer-wins is acceptable.
func (x *RedisIndex) Upsert(ctx context.Context, doc domain.FAQDocument) error {
	meta, err := json.Marshal(doc.Metadata)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}

	fields := map[string]any{
		"content":  doc.Content,
		"metadata": string(meta),
	}
	if x.embedder != nil {
		vector, err := x.embedder.Embed(ctx, doc.Content)
		if err != nil {
			x.logger.Warn("embedding failed, storing document without vector",
				zap.String("doc_id", doc.ID), zap.Error(err))
		} else if encoded, err := json.Marshal(vector); err == nil {
			fields["embedding"] = string(encoded)
		}
	}

	key := docKeyPrefix + doc.ID
	pipe := x.client.TxPipeline()
	pipe.HSet(ctx, key, fields)
	pipe.SAdd(ctx, docSetKey, doc.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store document %s: %w", doc.ID, err)
	}
	return nil
}

// Query returns up to k documents scoring at or above scoreThreshold,
// best first.
func (x *RedisIndex) Query(ctx context.Context, text string, k int, scoreThreshold float64) ([]SearchResult, error) {
	ids, err := x.client.SMembers(ctx, docSetKey).Result()
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	var queryVector []float32
	if x.embedder != nil {
		vector, err := x.embedder.Embed(ctx, text)
		if err != nil {
			x.logger.Warn("query embedding failed, using keyword scoring", zap.Error(err))
		} else {
			queryVector = vector
		}
	}

	results := make([]SearchResult, 0, len(ids))
	for _, id := range ids {
		fields, err := x.client.HGetAll(ctx, docKeyPrefix+id).Result()
		if err != nil || len(fields) == 0 {
			continue
		}
		var meta domain.FAQMetadata
		if raw, ok := fields["metadata"]; ok {
			_ = json.Unmarshal([]byte(raw), &meta)
		}
		content := fields["content"]

		score := 0.0
		if queryVector != nil && fields["embedding"] != "" {
			var docVector []float32
			if err := json.Unmarshal([]byte(fields["embedding"]), &docVector); err == nil {
				score = cosineSimilarity(queryVector, docVector)
			}
		} else {
			score = keywordSimilarity(text, content)
		}
		if score < scoreThreshold {
			continue
		}
		results = append(results, SearchResult{Content: content, Metadata: meta, Score: score})
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if k > 0 && len(results) > k {
		results = results[:k]
	}
	return results, nil
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// keywordSimilarity is the degraded scorer: fraction of query tokens that
// appear in the document.
func keywordSimilarity(query, content string) float64 {
	tokens := tokenize(query)
	if len(tokens) == 0 {
		return 0
	}
	haystack := strings.ToLower(content)
	matched := 0
	for _, token := range tokens {
		if strings.Contains(haystack, token) {
			matched++
		}
	}
	return float64(matched) / float64(len(tokens))
}

func tokenize(text string) []string {
	fields := strings.Fields(strings.ToLower(text))
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.Trim(f, ".,;:!?\"'()[]")
		if len(f) >= 3 {
			tokens = append(tokens, f)
		}
	}
	return tokens
}
