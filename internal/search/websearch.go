// Package search wraps the external web search provider used by the
// self-serve agent when the knowledge index comes up empty.
package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/helpdeskhq/helpdesk-ai/internal/config"
)

// WebSearcher runs a search query against an external provider.
type WebSearcher interface {
	Search(ctx context.Context, query string, k int) (string, error)
}

// HTTPSearcher calls a JSON search endpoint with a bounded timeout.
type HTTPSearcher struct {
	client *http.Client
	cfg    config.WebSearchConfig
	logger *zap.Logger
}

// NewHTTPSearcher builds the searcher. Returns nil when search is disabled
// or unconfigured; callers treat a nil searcher as unavailable.
func NewHTTPSearcher(cfg config.WebSearchConfig, logger *zap.Logger) *HTTPSearcher {
	if !cfg.Enabled || cfg.Endpoint == "" {
		return nil
	}
	return &HTTPSearcher{
		client: &http.Client{Timeout: cfg.Timeout()},
		cfg:    cfg,
		logger: logger.Named("websearch"),
	}
}

type searchResponse struct {
	Results []struct {
		Title   string `json:"title"`
		Snippet string `json:"snippet"`
		URL     string `json:"url"`
	} `json:"results"`
}

// Search implements WebSearcher. The provider response is flattened into a
// readable text block of up to k results.
func (s *HTTPSearcher) Search(ctx context.Context, query string, k int) (string, error) {
	endpoint, err := url.Parse(s.cfg.Endpoint)
	if err != nil {
		return "", fmt.Errorf("parse search endpoint: %w", err)
	}
	params := endpoint.Query()
	params.Set("q", query)
	endpoint.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return "", err
	}
	if s.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.cfg.APIKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("search provider returned %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", err
	}
	var parsed searchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("decode search response: %w", err)
	}
	if len(parsed.Results) == 0 {
		return "", nil
	}

	if k <= 0 || k > len(parsed.Results) {
		k = len(parsed.Results)
	}
	var b strings.Builder
	for _, r := range parsed.Results[:k] {
		fmt.Fprintf(&b, "%s\n%s\n%s\n\n", r.Title, r.Snippet, r.URL)
	}
	return strings.TrimSpace(b.String()), nil
}
