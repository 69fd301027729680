package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/helpdeskhq/helpdesk-ai/internal/config"
)

// Embedder produces embedding vectors for retrieval.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// OpenAIEmbedder backs Embedder with an OpenAI-compatible endpoint.
type OpenAIEmbedder struct {
	client *openai.Client
	model  string
}

// NewOpenAIEmbedder builds the embedder. Returns nil when no API key is
// configured; the knowledge index treats a nil embedder as degraded and
// falls back to keyword scoring.
func NewOpenAIEmbedder(aiCfg config.AIConfig, retrievalCfg config.RetrievalConfig) *OpenAIEmbedder {
	if aiCfg.APIKey == "" {
		return nil
	}
	clientConfig := openai.DefaultConfig(aiCfg.APIKey)
	clientConfig.BaseURL = strings.TrimSuffix(aiCfg.Endpoint, "/")
	return &OpenAIEmbedder{
		client: openai.NewClientWithConfig(clientConfig),
		model:  retrievalCfg.EmbeddingModel,
	}
}

// Embed implements Embedder.
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(e.model),
		Input: []string{text},
	})
	if err != nil {
		return nil, fmt.Errorf("create embedding: %w", err)
	}
	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		return nil, fmt.Errorf("no embedding in response")
	}
	return resp.Data[0].Embedding, nil
}
