package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/why-platform/buzon-service/internal/domain"
	"github.com/why-platform/buzon-service/internal/events"
	"github.com/why-platform/buzon-service/internal/observability"
	"github.com/why-platform/buzon-service/internal/repository"
)

type fakeStateRepository struct {
	states   map[string]*domain.TicketState
	advances int
}

func newFakeStateRepository() *fakeStateRepository {
	return &fakeStateRepository{states: make(map[string]*domain.TicketState)}
}

func (f *fakeStateRepository) Save(_ context.Context, state *domain.TicketState) error {
	copied := *state
	f.states[state.TicketID] = &copied
	return nil
}

func (f *fakeStateRepository) Get(_ context.Context, ticketID string) (*domain.TicketState, error) {
	state, ok := f.states[ticketID]
	if !ok {
		return nil, repository.ErrStateNotFound
	}
	copied := *state
	return &copied, nil
}

func (f *fakeStateRepository) List(_ context.Context) ([]domain.TicketState, error) {
	out := make([]domain.TicketState, 0, len(f.states))
	for _, state := range f.states {
		out = append(out, *state)
	}
	return out, nil
}

func (f *fakeStateRepository) AdvanceLevel(_ context.Context, ticketID string, fromLevel int, record domain.EscalationRecord) (*domain.TicketState, error) {
	state, ok := f.states[ticketID]
	if !ok {
		return nil, repository.ErrStateNotFound
	}
	if state.CurrentLevel != fromLevel {
		return nil, repository.ErrLevelConflict
	}
	state.CurrentLevel = record.Level
	state.History = append(state.History, record)
	f.advances++
	copied := *state
	return &copied, nil
}

func (f *fakeStateRepository) SetClickUpTask(_ context.Context, ticketID, taskID string) error {
	state, ok := f.states[ticketID]
	if !ok {
		return repository.ErrStateNotFound
	}
	state.ClickUpTask = taskID
	return nil
}

func (f *fakeStateRepository) Remove(_ context.Context, ticketID string) error {
	delete(f.states, ticketID)
	return nil
}

type recordingChannel struct {
	name string
	err  error
	sent []EscalationNotice
}

func (r *recordingChannel) Name() string { return r.name }

func (r *recordingChannel) Send(_ context.Context, notice EscalationNotice) error {
	r.sent = append(r.sent, notice)
	return r.err
}

var escalationTestNow = time.Date(2025, time.March, 4, 10, 0, 0, 0, time.UTC)

func newTestEscalationService(repo repository.TicketStateRepository, channels ...NotificationChannel) *EscalationService {
	sla := NewSLAService()
	sla.now = func() time.Time { return escalationTestNow }
	notifications := &NotificationService{channels: channels, logger: zap.NewNop()}
	svc := NewEscalationService(repo, sla, notifications, events.NewInMemoryDispatcher(), observability.NewMetrics(), zap.NewNop())
	svc.now = func() time.Time { return escalationTestNow }
	return svc
}

func trackedTicket(department string, priority domain.Priority, age time.Duration) *domain.TicketState {
	return &domain.TicketState{
		TicketID:   domain.NewTicketID(),
		Type:       domain.MessageTypeIdentified,
		Category:   domain.CategoryBug,
		Department: department,
		Priority:   priority,
		SLAHours:   100,
		CreatedAt:  escalationTestNow.Add(-age),
	}
}

func TestChainFor(t *testing.T) {
	it := ChainFor("it")
	require.Len(t, it, 3)
	assert.Equal(t, "it_support", it[0].Role)
	assert.Equal(t, "cto", it[2].Role)

	fallback := ChainFor("desconocido")
	assert.Equal(t, ChainFor("administracion"), fallback)
}

func TestPlanWithinThreshold(t *testing.T) {
	svc := newTestEscalationService(newFakeStateRepository())
	// level 1 of it notifies after 2h; media keeps the multiplier at 1.0
	decision := svc.Plan(trackedTicket("it", domain.PriorityMedium, time.Hour))
	assert.False(t, decision.Escalate)
	assert.Equal(t, ReasonWithinThreshold, decision.Reason)
	require.NotNil(t, decision.Next)
	assert.Equal(t, 1, decision.Next.Level)
	assert.Equal(t, 2.0, decision.ThresholdHours)
}

func TestPlanTimeThresholdReached(t *testing.T) {
	svc := newTestEscalationService(newFakeStateRepository())
	decision := svc.Plan(trackedTicket("it", domain.PriorityMedium, 3*time.Hour))
	assert.True(t, decision.Escalate)
	assert.Equal(t, ReasonTimeThresholdReached, decision.Reason)
}

func TestPlanUrgencyMultiplier(t *testing.T) {
	svc := newTestEscalationService(newFakeStateRepository())

	// urgente quarters the 2h threshold: 30 minutes
	decision := svc.Plan(trackedTicket("it", domain.PriorityUrgent, 45*time.Minute))
	assert.True(t, decision.Escalate)
	assert.Equal(t, 0.5, decision.ThresholdHours)

	// baja doubles it: 4h
	decision = svc.Plan(trackedTicket("it", domain.PriorityLow, 3*time.Hour))
	assert.False(t, decision.Escalate)
	assert.Equal(t, 4.0, decision.ThresholdHours)
}

func TestPlanMaxEscalationReached(t *testing.T) {
	svc := newTestEscalationService(newFakeStateRepository())
	state := trackedTicket("it", domain.PriorityMedium, 100*time.Hour)
	state.CurrentLevel = 3
	decision := svc.Plan(state)
	assert.False(t, decision.Escalate)
	assert.Equal(t, ReasonMaxEscalationReached, decision.Reason)
	assert.Nil(t, decision.Next)
}

func TestExecuteAdvancesAndNotifies(t *testing.T) {
	repo := newFakeStateRepository()
	email := &recordingChannel{name: "email"}
	svc := newTestEscalationService(repo, email)

	state := trackedTicket("ventas", domain.PriorityHigh, 5*time.Hour)
	require.NoError(t, repo.Save(context.Background(), state))

	decision := svc.Plan(state)
	require.True(t, decision.Escalate)

	outcomes, err := svc.Execute(context.Background(), state, decision)
	require.NoError(t, err)
	require.Len(t, outcomes, 1)
	assert.Equal(t, "sent", outcomes[0].Status)
	assert.Equal(t, "ventas@ecomac.cl", outcomes[0].Recipient)

	stored, err := repo.Get(context.Background(), state.TicketID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.CurrentLevel)
	require.Len(t, stored.History, 1)
	assert.Equal(t, ReasonTimeThresholdReached, stored.History[0].Reason)
}

func TestExecuteChannelFailureIsolated(t *testing.T) {
	repo := newFakeStateRepository()
	email := &recordingChannel{name: "email", err: errors.New("smtp down")}
	slack := &recordingChannel{name: "slack"}
	svc := newTestEscalationService(repo, email, slack)

	state := trackedTicket("it", domain.PriorityUrgent, 2*time.Hour)
	require.NoError(t, repo.Save(context.Background(), state))

	decision := svc.Plan(state)
	require.True(t, decision.Escalate)

	outcomes, err := svc.Execute(context.Background(), state, decision)
	require.NoError(t, err)
	require.Len(t, outcomes, 2)
	assert.Equal(t, "failed", outcomes[0].Status)
	assert.Equal(t, "smtp down", outcomes[0].Error)
	assert.Equal(t, "sent", outcomes[1].Status)
	assert.Len(t, slack.sent, 1)
}

func TestExecuteConcurrentAdvanceConflicts(t *testing.T) {
	repo := newFakeStateRepository()
	svc := newTestEscalationService(repo, &recordingChannel{name: "email"})

	state := trackedTicket("it", domain.PriorityMedium, 5*time.Hour)
	require.NoError(t, repo.Save(context.Background(), state))

	decision := svc.Plan(state)
	_, err := svc.Execute(context.Background(), state, decision)
	require.NoError(t, err)

	// same stale decision again: the level already moved
	_, err = svc.Execute(context.Background(), state, decision)
	assert.ErrorIs(t, err, repository.ErrLevelConflict)
	assert.Equal(t, 1, repo.advances)
}

func TestDispatchChannelSelection(t *testing.T) {
	email := &recordingChannel{name: "email"}
	slack := &recordingChannel{name: "slack"}
	sms := &recordingChannel{name: "sms"}
	n := &NotificationService{channels: []NotificationChannel{email, slack, sms}, logger: zap.NewNop()}

	cases := []struct {
		priority domain.Priority
		channels []string
	}{
		{domain.PriorityUrgent, []string{"email", "slack", "sms"}},
		{domain.PriorityHigh, []string{"email", "slack"}},
		{domain.PriorityMedium, []string{"email", "slack"}},
		{domain.PriorityLow, []string{"email"}},
	}
	for _, tc := range cases {
		t.Run(string(tc.priority), func(t *testing.T) {
			outcomes := n.Dispatch(context.Background(), EscalationNotice{Priority: tc.priority})
			names := make([]string, 0, len(outcomes))
			for _, outcome := range outcomes {
				names = append(names, outcome.Channel)
			}
			assert.Equal(t, tc.channels, names)
		})
	}
}

func TestSweep(t *testing.T) {
	repo := newFakeStateRepository()
	svc := newTestEscalationService(repo, &recordingChannel{name: "email"})

	overdue := trackedTicket("it", domain.PriorityMedium, 5*time.Hour)
	fresh := trackedTicket("it", domain.PriorityMedium, 30*time.Minute)
	require.NoError(t, repo.Save(context.Background(), overdue))
	require.NoError(t, repo.Save(context.Background(), fresh))

	result, err := svc.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, result.Evaluated)
	assert.Equal(t, 1, result.Escalated)
	assert.Equal(t, 0, result.Failed)

	stored, err := repo.Get(context.Background(), overdue.TicketID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.CurrentLevel)
}

func TestEscalationReport(t *testing.T) {
	repo := newFakeStateRepository()
	svc := newTestEscalationService(repo)

	maxed := trackedTicket("it", domain.PriorityMedium, time.Hour)
	maxed.CurrentLevel = 3
	pending := trackedTicket("ventas", domain.PriorityHigh, time.Hour)
	require.NoError(t, repo.Save(context.Background(), maxed))
	require.NoError(t, repo.Save(context.Background(), pending))

	report, err := svc.Report(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, report.TotalTracked)
	assert.Equal(t, 1, report.AtMaxLevel)
	require.Len(t, report.Pending, 2)
}
