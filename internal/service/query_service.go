package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/helpdeskhq/helpdesk-ai/internal/config"
	"github.com/helpdeskhq/helpdesk-ai/internal/knowledge"
	"github.com/helpdeskhq/helpdesk-ai/internal/search"
	apperrors "github.com/helpdeskhq/helpdesk-ai/pkg/util/errorutil"
)

// Answer sources, in fallback order.
const (
	AnswerSourceKnowledgeBase = "knowledge_base"
	AnswerSourceWebSearch     = "web_search"
	AnswerSourceFallback      = "fallback"
)

// QueryAnswer is the self-serve response.
type QueryAnswer struct {
	Answer    string
	Source    string
	SessionID string
}

// QueryService answers unauthenticated self-serve queries. Stateless per
// query: knowledge-index lookup first, web search second, deterministic
// canned response last. It never surfaces a provider error.
type QueryService struct {
	index     knowledge.Index
	searcher  search.WebSearcher
	logger    *zap.Logger
	retrieval config.RetrievalConfig
	webSearch config.WebSearchConfig
}

// NewQueryService creates the service. searcher may be nil when web
// search is disabled.
func NewQueryService(index knowledge.Index, searcher search.WebSearcher, logger *zap.Logger, retrieval config.RetrievalConfig, webSearch config.WebSearchConfig) *QueryService {
	return &QueryService{
		index:     index,
		searcher:  searcher,
		logger:    logger.Named("assist"),
		retrieval: retrieval,
		webSearch: webSearch,
	}
}

// Answer resolves a query through the layered sources. The only error it
// can return is validation of an empty query; everything downstream
// degrades to the canned response.
func (q *QueryService) Answer(ctx context.Context, query, sessionID string) (*QueryAnswer, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperrors.NewValidationError("query must not be empty", nil)
	}

	if answer := q.fromKnowledgeBase(ctx, query); answer != "" {
		return &QueryAnswer{Answer: answer, Source: AnswerSourceKnowledgeBase, SessionID: sessionID}, nil
	}
	if answer := q.fromWebSearch(ctx, query); answer != "" {
		return &QueryAnswer{Answer: answer, Source: AnswerSourceWebSearch, SessionID: sessionID}, nil
	}
	return &QueryAnswer{Answer: cannedResponse(query), Source: AnswerSourceFallback, SessionID: sessionID}, nil
}

func (q *QueryService) fromKnowledgeBase(ctx context.Context, query string) string {
	if q.index == nil {
		return ""
	}
	results, err := q.index.Query(ctx, query, q.retrieval.TopK, q.retrieval.SimilarityThreshold)
	if err != nil {
		q.logger.Warn("knowledge lookup failed", zap.Error(err))
		return ""
	}
	if len(results) == 0 {
		return ""
	}
	q.logger.Info("answered from knowledge base",
		zap.Float64("top_score", results[0].Score),
		zap.Int("hits", len(results)))
	return results[0].Content
}

func (q *QueryService) fromWebSearch(ctx context.Context, query string) string {
	if q.searcher == nil || !q.webSearch.Enabled {
		return ""
	}
	answer, err := q.searcher.Search(ctx, query, q.webSearch.TopK)
	if err != nil {
		q.logger.Warn("web search failed", zap.Error(err))
		return ""
	}
	if answer != "" {
		q.logger.Info("answered from web search")
	}
	return answer
}

// cannedResponse buckets the query by keyword so the endpoint stays
// useful with every provider down. Deterministic by construction.
func cannedResponse(query string) string {
	text := strings.ToLower(query)
	switch {
	case containsAny(text, "hello", "hi ", "hey", "good morning", "good afternoon"):
		return "Hello! I can help with IT and HR questions, or help you file a support ticket. What do you need help with?"
	case containsAny(text, "ticket", "request", "status", "follow up"):
		return "To file or check a support ticket, sign in to the helpdesk portal and open the Tickets page. An agent will follow up there."
	case containsAny(text, "password", "laptop", "computer", "email", "wifi", "network", "software", "printer", "vpn", "login"):
		return "For IT issues, try restarting the device first. If the problem persists, please file an IT ticket and the team will assist you."
	case containsAny(text, "payroll", "salary", "leave", "vacation", "benefits", "insurance", "policy", "hr "):
		return "For HR matters such as payroll, leave, or benefits, please file an HR ticket and the HR team will get back to you."
	default:
		return "I could not find an answer to that right now. Please file a support ticket and an agent will help you shortly."
	}
}

func containsAny(text string, needles ...string) bool {
	for _, needle := range needles {
		if strings.Contains(text, needle) {
			return true
		}
	}
	return false
}
