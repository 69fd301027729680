package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/helpdeskhq/helpdesk-ai/internal/ai"
	"github.com/helpdeskhq/helpdesk-ai/internal/domain"
	"github.com/helpdeskhq/helpdesk-ai/internal/events"
	"github.com/helpdeskhq/helpdesk-ai/internal/knowledge"
	"github.com/helpdeskhq/helpdesk-ai/internal/observability"
	"github.com/helpdeskhq/helpdesk-ai/internal/repository"
)

// faqDocPrefix keys knowledge documents to their source ticket, making
// re-ingestion idempotent: replaying a closure overwrites the same id.
const faqDocPrefix = "faq-"

// KnowledgeService closes the feedback loop: on ticket closure it
// summarizes the resolution and ingests it into the retrieval index.
// Strictly best-effort; nothing here can fail ticket closure.
type KnowledgeService struct {
	tickets    repository.TicketRepository
	messages   repository.TicketMessageRepository
	classifier ai.Classifier
	index      knowledge.Index
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger
}

// NewKnowledgeService creates the service.
func NewKnowledgeService(tickets repository.TicketRepository, messages repository.TicketMessageRepository, classifier ai.Classifier, index knowledge.Index, dispatcher events.Dispatcher, metrics *observability.Metrics, logger *zap.Logger) *KnowledgeService {
	return &KnowledgeService{
		tickets:    tickets,
		messages:   messages,
		classifier: classifier,
		index:      index,
		dispatcher: dispatcher,
		metrics:    metrics,
		logger:     logger.Named("knowledge"),
	}
}

// RegisterHandlers subscribes to events.
func (k *KnowledgeService) RegisterHandlers() {
	if k.dispatcher == nil {
		return
	}
	k.dispatcher.Subscribe(events.EventTicketClosed, k.handleTicketClosed)
}

func (k *KnowledgeService) handleTicketClosed(ctx context.Context, event events.Event) error {
	return k.IngestClosedTicket(ctx, event.TicketID)
}

// IngestClosedTicket summarizes the ticket's resolution and upserts an
// FAQ document. A degraded (nil) summary skips ingestion silently; that
// is the documented fallback, not an error.
func (k *KnowledgeService) IngestClosedTicket(ctx context.Context, ticketID string) error {
	ticket, err := k.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return fmt.Errorf("load ticket %s: %w", ticketID, err)
	}
	if ticket.Status != domain.TicketStatusClosed {
		k.logger.Debug("skipping ingestion for non-closed ticket",
			zap.String("ticket_id", ticketID),
			zap.String("status", string(ticket.Status)))
		return nil
	}

	msgs, err := k.messages.ListByTicket(ctx, ticket.ID)
	if err != nil {
		return fmt.Errorf("load messages for %s: %w", ticketID, err)
	}

	result := k.classifier.Classify(ctx, ai.Request{
		Kind:    ai.KindSummarization,
		Subject: buildTranscript(ticket, msgs),
	})
	if result.Summary == nil {
		k.metrics.RecordDegraded("summarization")
		k.logger.Info("summarization degraded, skipping ingestion",
			zap.String("ticket_id", ticket.ID),
			zap.String("rationale", result.Rationale))
		return nil
	}

	dept := domain.DepartmentIT
	if ticket.Department != nil {
		dept = *ticket.Department
	}
	doc := domain.FAQDocument{
		ID:      faqDocPrefix + ticket.ID,
		Content: buildFAQContent(ticket, result.Summary),
		Metadata: domain.FAQMetadata{
			Department:     dept,
			Category:       result.Summary.Category,
			Confidence:     result.Summary.Confidence,
			SourceTicketID: ticket.ID,
			CreatedAt:      time.Now().UTC(),
		},
	}
	if err := k.index.Upsert(ctx, doc); err != nil {
		return fmt.Errorf("index document %s: %w", doc.ID, err)
	}

	k.logger.Info("knowledge document ingested",
		zap.String("doc_id", doc.ID),
		zap.String("category", doc.Metadata.Category),
		zap.Float64("confidence", doc.Metadata.Confidence))
	return nil
}

// buildTranscript renders the ordered thread for summarization input.
func buildTranscript(ticket *domain.Ticket, msgs []domain.TicketMessage) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Ticket: %s\nDescription: %s\n\n", ticket.Title, ticket.Description)
	for _, msg := range msgs {
		fmt.Fprintf(&b, "[%s] %s\n", msg.AuthorType, msg.Body)
	}
	return b.String()
}

func buildFAQContent(ticket *domain.Ticket, summary *ai.Summary) string {
	dept := ""
	if ticket.Department != nil {
		dept = string(*ticket.Department)
	}
	return fmt.Sprintf(
		"Q: %s\n\nIssue: %s\n\nResolution: %s\n\nDepartment: %s | Urgency: %s | Category: %s",
		ticket.Title,
		summary.Issue,
		summary.Resolution,
		dept,
		ticket.Urgency,
		summary.Category,
	)
}
