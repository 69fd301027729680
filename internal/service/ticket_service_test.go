package service

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/helpdeskhq/helpdesk-ai/internal/ai"
	"github.com/helpdeskhq/helpdesk-ai/internal/domain"
	"github.com/helpdeskhq/helpdesk-ai/internal/events"
	"github.com/helpdeskhq/helpdesk-ai/internal/observability"
	apperrors "github.com/helpdeskhq/helpdesk-ai/pkg/util/errorutil"
)

type ticketTestEnv struct {
	service    *TicketService
	tickets    *mockTicketRepo
	messages   *mockMessageRepo
	agents     *mockAgentRepo
	violations *mockViolationRepo
	dispatcher *recordingDispatcher
}

func newTicketTestEnv(t *testing.T, classifier ai.Classifier, agents ...*domain.Agent) *ticketTestEnv {
	t.Helper()

	cfg := testAIConfig()
	cfg.RoutingEnabled = true
	violations := &mockViolationRepo{}
	gate := newTestGate(classifier, violations, cfg)
	router := NewDepartmentRouter(classifier, observability.NewMetrics(), zap.NewNop())

	env := &ticketTestEnv{
		tickets:    newMockTicketRepo(),
		messages:   newMockMessageRepo(),
		agents:     newMockAgentRepo(agents...),
		violations: violations,
		dispatcher: newRecordingDispatcher(),
	}
	env.service = NewTicketService(TicketDependencies{
		TicketRepo:  env.tickets,
		MessageRepo: env.messages,
		AgentRepo:   env.agents,
		Gate:        gate,
		Router:      router,
		Dispatcher:  env.dispatcher,
		Logger:      zap.NewNop(),
		AIConfig:    cfg,
	})
	return env
}

func safeClassifier() *fakeClassifier {
	return &fakeClassifier{ClassifyFunc: func(_ context.Context, req ai.Request) ai.Result {
		if req.Kind == ai.KindModeration {
			return ai.Result{Kind: ai.KindModeration, Label: ai.LabelSafe, Confidence: 0.99}
		}
		return ai.FallbackRouting(req.Subject)
	}}
}

func TestCreateTicket_FullPipeline(t *testing.T) {
	env := newTicketTestEnv(t, safeClassifier())

	ticket, err := env.service.CreateTicket(context.Background(), "user-1", TicketCreateInput{
		Title:       "Computer won't start",
		Description: "The desktop shows no signs of power since this morning.",
		Urgency:     domain.TicketUrgencyHigh,
	})
	require.NoError(t, err)
	require.NotNil(t, ticket)

	assert.Equal(t, domain.TicketStatusOpen, ticket.Status)
	require.NotNil(t, ticket.Department, "every persisted ticket carries a department")
	assert.Equal(t, domain.DepartmentIT, *ticket.Department)
	assert.True(t, strings.HasPrefix(ticket.ExternalKey, "TCK-"))

	created := env.dispatcher.published(events.EventTicketCreated)
	require.Len(t, created, 1)
	payload, ok := created[0].Payload.(events.TicketCreatedPayload)
	require.True(t, ok)
	assert.Equal(t, "user-1", payload.RequesterID)
	assert.Equal(t, domain.DepartmentIT, payload.Department)
	assert.True(t, payload.Routing.Degraded, "keyword fallback must be audited as degraded")
}

func TestCreateTicket_RejectionWritesNoTicket(t *testing.T) {
	classifier := &fakeClassifier{ClassifyFunc: func(_ context.Context, req ai.Request) ai.Result {
		if req.Kind == ai.KindModeration {
			return ai.Result{Kind: ai.KindModeration, Label: ai.LabelProfanity, Severity: "high", Confidence: 0.95}
		}
		return ai.FallbackRouting(req.Subject)
	}}
	env := newTicketTestEnv(t, classifier)

	ticket, err := env.service.CreateTicket(context.Background(), "user-1", TicketCreateInput{
		Title:       "offensive title",
		Description: "offensive description",
	})
	require.Error(t, err)
	assert.Nil(t, ticket)
	assert.True(t, apperrors.IsContentRejected(err))

	assert.Len(t, env.violations.violations, 1, "rejection must leave exactly one violation")
	assert.Empty(t, env.tickets.tickets, "rejection must leave no ticket row")
	assert.Empty(t, env.dispatcher.published(events.EventTicketCreated))
}

func TestCreateTicket_ValidationBeforeModeration(t *testing.T) {
	env := newTicketTestEnv(t, safeClassifier())

	_, err := env.service.CreateTicket(context.Background(), "user-1", TicketCreateInput{Title: "  ", Description: ""})
	require.Error(t, err)

	var domainErr *apperrors.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "VALIDATION_FAILED", domainErr.Code)
}

func TestCreateTicket_DefaultsUrgencyToMedium(t *testing.T) {
	env := newTicketTestEnv(t, safeClassifier())

	ticket, err := env.service.CreateTicket(context.Background(), "user-1", TicketCreateInput{
		Title:       "Need a license",
		Description: "Requesting a software license for the design tool.",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.TicketUrgencyMedium, ticket.Urgency)
}

func TestCreateTicket_RepeatMisuseFlagsOpenTickets(t *testing.T) {
	rejectAll := &fakeClassifier{ClassifyFunc: func(_ context.Context, req ai.Request) ai.Result {
		if req.Kind == ai.KindModeration {
			return ai.Result{Kind: ai.KindModeration, Label: ai.LabelSpam, Confidence: 0.95}
		}
		return ai.FallbackRouting(req.Subject)
	}}
	env := newTicketTestEnv(t, rejectAll)

	// An earlier accepted ticket that should pick up the flag.
	dept := domain.DepartmentIT
	existing := &domain.Ticket{
		RequesterID: "user-1",
		Department:  &dept,
		Title:       "Legit earlier ticket",
		Description: "A genuine issue.",
		Status:      domain.TicketStatusOpen,
	}
	require.NoError(t, env.tickets.Create(context.Background(), existing))

	for i := 0; i < 3; i++ {
		_, err := env.service.CreateTicket(context.Background(), "user-1", TicketCreateInput{
			Title:       "spam attempt",
			Description: "spam body",
		})
		require.Error(t, err)
	}

	flagged, err := env.tickets.GetByID(context.Background(), existing.ID)
	require.NoError(t, err)
	assert.True(t, flagged.MisuseFlag, "third violation must flag the user's open tickets")
}

func TestCloseTicket_RaceProducesOneClosedEvent(t *testing.T) {
	env := newTicketTestEnv(t, safeClassifier())

	ticket, err := env.service.CreateTicket(context.Background(), "user-1", TicketCreateInput{
		Title:       "wifi drops",
		Description: "wifi drops every hour in the annex",
	})
	require.NoError(t, err)

	const racers = 16
	var wg sync.WaitGroup
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = env.service.CloseTicket(context.Background(), ticket.ID)
		}()
	}
	wg.Wait()

	closed := env.dispatcher.published(events.EventTicketClosed)
	assert.Len(t, closed, 1, "racing closures must publish exactly one closed event")

	final, err := env.tickets.GetByID(context.Background(), ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusClosed, final.Status)
}

func TestAddMessage_PublishesMessageSent(t *testing.T) {
	env := newTicketTestEnv(t, safeClassifier())

	ticket, err := env.service.CreateTicket(context.Background(), "user-1", TicketCreateInput{
		Title:       "VPN unstable",
		Description: "VPN disconnects on the home network.",
	})
	require.NoError(t, err)

	msg, err := env.service.AddMessage(context.Background(), domain.AuthorTypeUser, "user-1", ticket.ID, "Still happening after a reboot.")
	require.NoError(t, err)
	require.NotNil(t, msg)

	sent := env.dispatcher.published(events.EventMessageSent)
	require.Len(t, sent, 1)
	payload, ok := sent[0].Payload.(events.MessageSentPayload)
	require.True(t, ok)
	assert.Equal(t, domain.AuthorTypeUser, payload.AuthorType)
	assert.Equal(t, "user-1", payload.RequesterID)
}

func TestAddMessage_RejectsForeignUser(t *testing.T) {
	env := newTicketTestEnv(t, safeClassifier())

	ticket, err := env.service.CreateTicket(context.Background(), "user-1", TicketCreateInput{
		Title:       "keyboard broken",
		Description: "Several keys stopped responding.",
	})
	require.NoError(t, err)

	_, err = env.service.AddMessage(context.Background(), domain.AuthorTypeUser, "user-2", ticket.ID, "let me in")
	require.Error(t, err)

	var domainErr *apperrors.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "FORBIDDEN", domainErr.Code)
}

func TestAssignTicket_RejectsInactiveAgent(t *testing.T) {
	env := newTicketTestEnv(t, safeClassifier(),
		&domain.Agent{ID: "agent-1", Department: domain.DepartmentIT, Active: false})

	ticket, err := env.service.CreateTicket(context.Background(), "user-1", TicketCreateInput{
		Title:       "screen cracked",
		Description: "Laptop screen cracked after a fall.",
	})
	require.NoError(t, err)

	_, err = env.service.AssignTicket(context.Background(), ticket.ID, "agent-1")
	require.Error(t, err)

	var domainErr *apperrors.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "CONFLICT", domainErr.Code)
}

func TestAssignTicket_MovesToAssigned(t *testing.T) {
	env := newTicketTestEnv(t, safeClassifier(),
		&domain.Agent{ID: "agent-1", Department: domain.DepartmentIT, Active: true})

	ticket, err := env.service.CreateTicket(context.Background(), "user-1", TicketCreateInput{
		Title:       "printer offline",
		Description: "Office printer shows offline on every machine.",
	})
	require.NoError(t, err)

	assigned, err := env.service.AssignTicket(context.Background(), ticket.ID, "agent-1")
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusAssigned, assigned.Status)
	require.NotNil(t, assigned.AssigneeID)
	assert.Equal(t, "agent-1", *assigned.AssigneeID)
}

func TestReassignDepartment_RerunsRouter(t *testing.T) {
	env := newTicketTestEnv(t, safeClassifier())

	ticket, err := env.service.CreateTicket(context.Background(), "user-1", TicketCreateInput{
		Title:       "payroll question",
		Description: "My payroll deduction changed this month.",
	})
	require.NoError(t, err)
	require.NotNil(t, ticket.Department)
	assert.Equal(t, domain.DepartmentHR, *ticket.Department)

	// Rewrite the stored content toward IT, then reroute.
	stored, err := env.tickets.GetByID(context.Background(), ticket.ID)
	require.NoError(t, err)
	stored.Title = "laptop won't boot"
	stored.Description = "laptop won't boot after the update"
	require.NoError(t, env.tickets.Update(context.Background(), stored))

	rerouted, err := env.service.ReassignDepartment(context.Background(), ticket.ID)
	require.NoError(t, err)
	require.NotNil(t, rerouted.Department)
	assert.Equal(t, domain.DepartmentIT, *rerouted.Department)
}
