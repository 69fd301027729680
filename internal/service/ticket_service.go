package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/helpdeskhq/helpdesk-ai/internal/config"
	"github.com/helpdeskhq/helpdesk-ai/internal/domain"
	"github.com/helpdeskhq/helpdesk-ai/internal/events"
	"github.com/helpdeskhq/helpdesk-ai/internal/repository"
	apperrors "github.com/helpdeskhq/helpdesk-ai/pkg/util/errorutil"
)

// TicketService coordinates the triage pipeline: moderation gate, then
// router, then persistence, then event publication. Fan-out and knowledge
// ingestion hang off the published events and never block or fail the
// primary operation.
type TicketService struct {
	tickets    repository.TicketRepository
	messages   repository.TicketMessageRepository
	agents     repository.AgentRepository
	gate       *ModerationGate
	router     *DepartmentRouter
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.AIConfig
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo  repository.TicketRepository
	MessageRepo repository.TicketMessageRepository
	AgentRepo   repository.AgentRepository
	Gate        *ModerationGate
	Router      *DepartmentRouter
	Dispatcher  events.Dispatcher
	Logger      *zap.Logger
	AIConfig    config.AIConfig
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	Title       string
	Description string
	Urgency     domain.TicketUrgency
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	return &TicketService{
		tickets:    deps.TicketRepo,
		messages:   deps.MessageRepo,
		agents:     deps.AgentRepo,
		gate:       deps.Gate,
		router:     deps.Router,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger.Named("tickets"),
		cfg:        deps.AIConfig,
	}
}

// CreateTicket runs the full triage pipeline for a submission. The stages
// are strictly sequential: moderation, routing, persistence, fan-out. A
// Violation row exists if and only if the gate rejected; a Ticket row
// exists if and only if it accepted.
func (s *TicketService) CreateTicket(ctx context.Context, userID string, input TicketCreateInput) (*domain.Ticket, error) {
	title := strings.TrimSpace(input.Title)
	description := strings.TrimSpace(input.Description)
	if title == "" || description == "" {
		return nil, apperrors.NewValidationError("title and description required", nil)
	}

	if err := s.gate.Screen(ctx, userID, title, description); err != nil {
		if apperrors.IsContentRejected(err) {
			s.flagRepeatMisuse(ctx, userID)
		}
		return nil, err
	}

	dept, routing := s.router.Route(ctx, title, description)

	ticket := &domain.Ticket{
		ExternalKey: generateTicketKey(),
		RequesterID: userID,
		Department:  &dept,
		Title:       title,
		Description: description,
		Status:      domain.TicketStatusOpen,
		Urgency:     input.Urgency,
	}
	if ticket.Urgency == "" {
		ticket.Urgency = domain.TicketUrgencyMedium
	}

	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		Payload: events.TicketCreatedPayload{
			RequesterID: ticket.RequesterID,
			Department:  dept,
			Urgency:     ticket.Urgency,
			Title:       ticket.Title,
			Routing: events.RoutingAudit{
				Confidence: routing.Confidence,
				Rationale:  routing.Rationale,
				Degraded:   routing.Degraded,
			},
		},
	})
	return ticket, nil
}

// GetTicketForUser fetches a ticket ensuring ownership.
func (s *TicketService) GetTicketForUser(ctx context.Context, userID, ticketID string) (*domain.Ticket, []domain.TicketMessage, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, nil, err
	}
	if ticket.RequesterID != userID {
		return nil, nil, apperrors.NewForbidden("access denied")
	}
	msgs, err := s.messages.ListByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, nil, err
	}
	return ticket, msgs, nil
}

// ListUserTickets returns paginated tickets for a requester.
func (s *TicketService) ListUserTickets(ctx context.Context, userID string, statuses []domain.TicketStatus, limit, offset int) ([]domain.Ticket, error) {
	return s.tickets.ListWithFilter(ctx, repository.TicketFilter{
		RequesterID: &userID,
		Statuses:    statuses,
		Limit:       limit,
		Offset:      offset,
	})
}

// ListAgentTickets returns tickets in the agent's department queue.
func (s *TicketService) ListAgentTickets(ctx context.Context, agentID string, statuses []domain.TicketStatus, limit, offset int) ([]domain.Ticket, error) {
	agent, err := s.agents.GetByID(ctx, agentID)
	if err != nil {
		return nil, err
	}
	return s.tickets.ListWithFilter(ctx, repository.TicketFilter{
		Department: &agent.Department,
		Statuses:   statuses,
		Limit:      limit,
		Offset:     offset,
	})
}

// AddMessage appends a message to a ticket thread and fires the
// message_sent fan-out.
func (s *TicketService) AddMessage(ctx context.Context, authorType domain.MessageAuthorType, authorID, ticketID, body string) (*domain.TicketMessage, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, apperrors.NewValidationError("message body required", nil)
	}
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	switch authorType {
	case domain.AuthorTypeUser:
		if ticket.RequesterID != authorID {
			return nil, apperrors.NewForbidden("access denied")
		}
	case domain.AuthorTypeAgent:
		// agents post to tickets in their department queue
	default:
		return nil, apperrors.NewValidationError("unknown author type", nil)
	}

	msg := &domain.TicketMessage{
		TicketID:   ticket.ID,
		AuthorType: authorType,
		AuthorID:   &authorID,
		Body:       body,
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventMessageSent,
		TicketID: ticket.ID,
		Payload: events.MessageSentPayload{
			MessageID:   msg.ID,
			AuthorType:  authorType,
			AuthorID:    msg.AuthorID,
			RequesterID: ticket.RequesterID,
			AssigneeID:  ticket.AssigneeID,
			BodyPreview: stringPreview(body, 120),
		},
	})
	return msg, nil
}

// AssignTicket hands a ticket to an agent and moves it to assigned.
func (s *TicketService) AssignTicket(ctx context.Context, ticketID, agentID string) (*domain.Ticket, error) {
	agent, err := s.agents.GetByID(ctx, agentID)
	if err != nil {
		return nil, err
	}
	if !agent.Active {
		return nil, apperrors.NewConflict("agent inactive", nil)
	}
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.Status == domain.TicketStatusClosed {
		return nil, apperrors.NewConflict("ticket already closed", nil)
	}
	if err := s.tickets.SetAssignee(ctx, ticket.ID, agent.ID, domain.TicketStatusAssigned); err != nil {
		return nil, err
	}
	return s.tickets.GetByID(ctx, ticket.ID)
}

// StartProgress moves an assigned ticket to in_progress.
func (s *TicketService) StartProgress(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.Status != domain.TicketStatusAssigned {
		return nil, apperrors.NewConflict("ticket is not assigned", nil)
	}
	if err := s.tickets.SetStatus(ctx, ticket.ID, domain.TicketStatusInProgress); err != nil {
		return nil, err
	}
	return s.tickets.GetByID(ctx, ticket.ID)
}

// CloseTicket transitions a ticket to closed. The conditional update in
// the store serializes racing closures; only the winner publishes the
// ticket_closed event, so ingestion and fan-out run at most once per
// closure.
func (s *TicketService) CloseTicket(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	won, err := s.tickets.CloseIf(ctx, ticket.ID)
	if err != nil {
		return nil, err
	}
	if won {
		s.publishEvent(ctx, events.Event{
			Type:     events.EventTicketClosed,
			TicketID: ticket.ID,
			Payload: events.TicketClosedPayload{
				RequesterID: ticket.RequesterID,
				Title:       ticket.Title,
			},
		})
	}
	return s.tickets.GetByID(ctx, ticket.ID)
}

// ReassignDepartment re-runs the pure router for a ticket and applies the
// new label. Triggered by an agent, never automatically.
func (s *TicketService) ReassignDepartment(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.Status == domain.TicketStatusClosed {
		return nil, apperrors.NewConflict("ticket already closed", nil)
	}
	dept, _ := s.router.Route(ctx, ticket.Title, ticket.Description)
	if err := s.tickets.SetDepartment(ctx, ticket.ID, dept); err != nil {
		return nil, err
	}
	return s.tickets.GetByID(ctx, ticket.ID)
}

// flagRepeatMisuse marks a user's open tickets once their violation count
// crosses the configured threshold. Best-effort: errors are logged only.
func (s *TicketService) flagRepeatMisuse(ctx context.Context, userID string) {
	count, err := s.gate.ViolationCount(ctx, userID)
	if err != nil {
		s.logger.Warn("violation count lookup failed", zap.String("user_id", userID), zap.Error(err))
		return
	}
	threshold := s.cfg.MisuseFlagThreshold
	if threshold <= 0 || count < threshold {
		return
	}
	s.logger.Warn("repeat misuse detected",
		zap.String("user_id", userID),
		zap.Int("violations", count))

	tickets, err := s.tickets.ListWithFilter(ctx, repository.TicketFilter{
		RequesterID: &userID,
		Statuses:    []domain.TicketStatus{domain.TicketStatusOpen, domain.TicketStatusAssigned, domain.TicketStatusInProgress},
		Limit:       100,
	})
	if err != nil {
		return
	}
	for _, t := range tickets {
		if t.MisuseFlag {
			continue
		}
		if err := s.tickets.SetMisuseFlag(ctx, t.ID, true); err != nil {
			s.logger.Warn("misuse flag update failed", zap.String("ticket_id", t.ID), zap.Error(err))
		}
	}
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func generateTicketKey() string {
	return "TCK-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

func stringPreview(body string, max int) string {
	body = strings.TrimSpace(body)
	if len(body) <= max {
		return body
	}
	if max <= 3 {
		return body[:max]
	}
	return body[:max-3] + "..."
}
