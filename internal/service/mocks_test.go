package service

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/helpdeskhq/helpdesk-ai/internal/ai"
	"github.com/helpdeskhq/helpdesk-ai/internal/domain"
	"github.com/helpdeskhq/helpdesk-ai/internal/events"
	"github.com/helpdeskhq/helpdesk-ai/internal/knowledge"
	"github.com/helpdeskhq/helpdesk-ai/internal/repository"
)

// fakeClassifier returns whatever ClassifyFunc says. Tests that need a
// dead provider leave ClassifyFunc nil and get the deterministic
// fallbacks instead.
type fakeClassifier struct {
	ClassifyFunc func(ctx context.Context, req ai.Request) ai.Result
}

func (f *fakeClassifier) Classify(ctx context.Context, req ai.Request) ai.Result {
	if f.ClassifyFunc != nil {
		return f.ClassifyFunc(ctx, req)
	}
	switch req.Kind {
	case ai.KindModeration:
		return ai.FallbackModeration(false, "test classifier unset")
	case ai.KindRouting:
		return ai.FallbackRouting(req.Subject)
	default:
		return ai.FallbackSummarization("test classifier unset")
	}
}

// mockTicketRepo is an in-memory TicketRepository. CloseIf holds the same
// contract as the SQL conditional update: exactly one concurrent caller
// wins the open-to-closed transition.
type mockTicketRepo struct {
	mu      sync.Mutex
	seq     int
	tickets map[string]*domain.Ticket

	createErr error
}

func newMockTicketRepo() *mockTicketRepo {
	return &mockTicketRepo{tickets: map[string]*domain.Ticket{}}
}

func (m *mockTicketRepo) Create(_ context.Context, ticket *domain.Ticket) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	ticket.ID = "ticket-" + strconv.Itoa(m.seq)
	copied := *ticket
	m.tickets[ticket.ID] = &copied
	return nil
}

func (m *mockTicketRepo) Update(_ context.Context, ticket *domain.Ticket) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *ticket
	m.tickets[ticket.ID] = &copied
	return nil
}

func (m *mockTicketRepo) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ticket, ok := m.tickets[id]
	if !ok {
		return nil, fmt.Errorf("ticket %s not found", id)
	}
	copied := *ticket
	return &copied, nil
}

func (m *mockTicketRepo) GetByExternalKey(_ context.Context, key string) (*domain.Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ticket := range m.tickets {
		if ticket.ExternalKey == key {
			copied := *ticket
			return &copied, nil
		}
	}
	return nil, fmt.Errorf("ticket with key %s not found", key)
}

func (m *mockTicketRepo) ListWithFilter(_ context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Ticket
	for _, ticket := range m.tickets {
		if filter.RequesterID != nil && ticket.RequesterID != *filter.RequesterID {
			continue
		}
		if filter.Department != nil && (ticket.Department == nil || *ticket.Department != *filter.Department) {
			continue
		}
		if len(filter.Statuses) > 0 {
			matched := false
			for _, status := range filter.Statuses {
				if ticket.Status == status {
					matched = true
					break
				}
			}
			if !matched {
				continue
			}
		}
		out = append(out, *ticket)
	}
	return out, nil
}

func (m *mockTicketRepo) CloseIf(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ticket, ok := m.tickets[id]
	if !ok {
		return false, fmt.Errorf("ticket %s not found", id)
	}
	if ticket.Status == domain.TicketStatusClosed {
		return false, nil
	}
	ticket.Status = domain.TicketStatusClosed
	return true, nil
}

func (m *mockTicketRepo) SetDepartment(_ context.Context, id string, dept domain.Department) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ticket, ok := m.tickets[id]; ok {
		ticket.Department = &dept
	}
	return nil
}

func (m *mockTicketRepo) SetAssignee(_ context.Context, id string, agentID string, status domain.TicketStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ticket, ok := m.tickets[id]; ok {
		ticket.AssigneeID = &agentID
		ticket.Status = status
	}
	return nil
}

func (m *mockTicketRepo) SetStatus(_ context.Context, id string, status domain.TicketStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ticket, ok := m.tickets[id]; ok {
		ticket.Status = status
	}
	return nil
}

func (m *mockTicketRepo) SetMisuseFlag(_ context.Context, id string, flagged bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ticket, ok := m.tickets[id]; ok {
		ticket.MisuseFlag = flagged
	}
	return nil
}

type mockMessageRepo struct {
	mu       sync.Mutex
	seq      int
	messages map[string][]domain.TicketMessage
}

func newMockMessageRepo() *mockMessageRepo {
	return &mockMessageRepo{messages: map[string][]domain.TicketMessage{}}
}

func (m *mockMessageRepo) Create(_ context.Context, msg *domain.TicketMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	msg.ID = "msg-" + strconv.Itoa(m.seq)
	m.messages[msg.TicketID] = append(m.messages[msg.TicketID], *msg)
	return nil
}

func (m *mockMessageRepo) ListByTicket(_ context.Context, ticketID string) ([]domain.TicketMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.TicketMessage{}, m.messages[ticketID]...), nil
}

type mockAgentRepo struct {
	agents map[string]*domain.Agent
}

func newMockAgentRepo(agents ...*domain.Agent) *mockAgentRepo {
	repo := &mockAgentRepo{agents: map[string]*domain.Agent{}}
	for _, agent := range agents {
		repo.agents[agent.ID] = agent
	}
	return repo
}

func (m *mockAgentRepo) Create(_ context.Context, agent *domain.Agent) error {
	m.agents[agent.ID] = agent
	return nil
}

func (m *mockAgentRepo) GetByID(_ context.Context, id string) (*domain.Agent, error) {
	agent, ok := m.agents[id]
	if !ok {
		return nil, fmt.Errorf("agent %s not found", id)
	}
	return agent, nil
}

func (m *mockAgentRepo) ListActiveByDepartment(_ context.Context, dept domain.Department) ([]domain.Agent, error) {
	var out []domain.Agent
	for _, agent := range m.agents {
		if agent.Active && agent.Department == dept {
			out = append(out, *agent)
		}
	}
	return out, nil
}

type mockUserRepo struct {
	users map[string]*domain.User
}

func newMockUserRepo(users ...*domain.User) *mockUserRepo {
	repo := &mockUserRepo{users: map[string]*domain.User{}}
	for _, user := range users {
		repo.users[user.ID] = user
	}
	return repo
}

func (m *mockUserRepo) Create(_ context.Context, user *domain.User) error {
	m.users[user.ID] = user
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	user, ok := m.users[id]
	if !ok {
		return nil, fmt.Errorf("user %s not found", id)
	}
	return user, nil
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, user := range m.users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, fmt.Errorf("user with email %s not found", email)
}

func (m *mockUserRepo) ListAdmins(_ context.Context) ([]domain.User, error) {
	var out []domain.User
	for _, user := range m.users {
		if user.Role == domain.UserRoleAdmin && user.Status == domain.UserStatusActive {
			out = append(out, *user)
		}
	}
	return out, nil
}

type mockViolationRepo struct {
	mu         sync.Mutex
	violations []domain.Violation

	createErr error
}

func (m *mockViolationRepo) Create(_ context.Context, violation *domain.Violation) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	violation.ID = "violation-" + strconv.Itoa(len(m.violations)+1)
	m.violations = append(m.violations, *violation)
	return nil
}

func (m *mockViolationRepo) List(_ context.Context, filter repository.ViolationFilter) ([]domain.Violation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Violation
	for _, v := range m.violations {
		if filter.UserID != nil && v.UserID != *filter.UserID {
			continue
		}
		if filter.AdminReviewed != nil && v.AdminReviewed != *filter.AdminReviewed {
			continue
		}
		out = append(out, v)
	}
	return out, nil
}

func (m *mockViolationRepo) CountByUser(_ context.Context, userID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, v := range m.violations {
		if v.UserID == userID {
			count++
		}
	}
	return count, nil
}

func (m *mockViolationRepo) MarkReviewed(_ context.Context, id string, actionTaken string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.violations {
		if m.violations[i].ID == id {
			m.violations[i].AdminReviewed = true
			m.violations[i].ActionTaken = &actionTaken
			return nil
		}
	}
	return fmt.Errorf("violation %s not found", id)
}

type mockNotificationRepo struct {
	mu      sync.Mutex
	created []domain.Notification
}

func (m *mockNotificationRepo) Create(_ context.Context, notification *domain.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	notification.ID = "notification-" + strconv.Itoa(len(m.created)+1)
	m.created = append(m.created, *notification)
	return nil
}

func (m *mockNotificationRepo) ListByUser(_ context.Context, userID string, unreadOnly bool, limit, offset int) ([]domain.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Notification
	for _, n := range m.created {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out, nil
}

func (m *mockNotificationRepo) UnreadCount(_ context.Context, userID string) (int, error) {
	notifications, _ := m.ListByUser(nil, userID, true, 0, 0)
	return len(notifications), nil
}

func (m *mockNotificationRepo) MarkRead(_ context.Context, userID, id string) error { return nil }
func (m *mockNotificationRepo) MarkAllRead(_ context.Context, userID string) error  { return nil }
func (m *mockNotificationRepo) Delete(_ context.Context, userID, id string) error   { return nil }

func (m *mockNotificationRepo) recipients() map[string]int {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := map[string]int{}
	for _, n := range m.created {
		out[n.UserID]++
	}
	return out
}

// recordingDispatcher captures published events synchronously so tests
// can assert on exactly what the services emitted.
type recordingDispatcher struct {
	mu       sync.Mutex
	events   []events.Event
	handlers map[events.EventType][]events.EventHandler
}

func newRecordingDispatcher() *recordingDispatcher {
	return &recordingDispatcher{handlers: map[events.EventType][]events.EventHandler{}}
}

func (d *recordingDispatcher) Publish(_ context.Context, event events.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, event)
	return nil
}

func (d *recordingDispatcher) Subscribe(eventType events.EventType, handler events.EventHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[eventType] = append(d.handlers[eventType], handler)
}

func (d *recordingDispatcher) published(eventType events.EventType) []events.Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []events.Event
	for _, event := range d.events {
		if event.Type == eventType {
			out = append(out, event)
		}
	}
	return out
}

type fakeIndex struct {
	mu      sync.Mutex
	docs    map[string]domain.FAQDocument
	upserts int

	queryResults []knowledge.SearchResult
	queryErr     error
	queries      int
}

func newFakeIndex() *fakeIndex {
	return &fakeIndex{docs: map[string]domain.FAQDocument{}}
}

func (f *fakeIndex) Upsert(_ context.Context, doc domain.FAQDocument) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserts++
	f.docs[doc.ID] = doc
	return nil
}

func (f *fakeIndex) Query(_ context.Context, text string, k int, scoreThreshold float64) ([]knowledge.SearchResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries++
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	return f.queryResults, nil
}

type fakeSearcher struct {
	answer    string
	searchErr error
	calls     int
}

func (f *fakeSearcher) Search(_ context.Context, query string, topK int) (string, error) {
	f.calls++
	if f.searchErr != nil {
		return "", f.searchErr
	}
	return f.answer, nil
}
