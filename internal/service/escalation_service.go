package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/why-platform/buzon-service/internal/domain"
	"github.com/why-platform/buzon-service/internal/events"
	"github.com/why-platform/buzon-service/internal/observability"
	"github.com/why-platform/buzon-service/internal/repository"
)

// escalationChains maps each department to its three-level chain.
// An unknown department falls back to administracion.
var escalationChains = map[string][]domain.EscalationLevel{
	"it": {
		{Level: 1, Role: "it_support", Email: "soporte@ecomac.cl", NotifyAfter: 2},
		{Level: 2, Role: "it_manager", Email: "it-manager@ecomac.cl", NotifyAfter: 4},
		{Level: 3, Role: "cto", Email: "cto@ecomac.cl", NotifyAfter: 8},
	},
	"rrhh": {
		{Level: 1, Role: "hr_specialist", Email: "rrhh@ecomac.cl", NotifyAfter: 4},
		{Level: 2, Role: "hr_manager", Email: "hr-manager@ecomac.cl", NotifyAfter: 12},
		{Level: 3, Role: "hr_director", Email: "director-rrhh@ecomac.cl", NotifyAfter: 24},
	},
	"ventas": {
		{Level: 1, Role: "sales_rep", Email: "ventas@ecomac.cl", NotifyAfter: 1},
		{Level: 2, Role: "sales_manager", Email: "ventas-manager@ecomac.cl", NotifyAfter: 3},
		{Level: 3, Role: "sales_director", Email: "director-ventas@ecomac.cl", NotifyAfter: 6},
	},
	"operaciones": {
		{Level: 1, Role: "ops_analyst", Email: "operaciones@ecomac.cl", NotifyAfter: 3},
		{Level: 2, Role: "ops_manager", Email: "ops-manager@ecomac.cl", NotifyAfter: 8},
		{Level: 3, Role: "ops_director", Email: "director-ops@ecomac.cl", NotifyAfter: 16},
	},
	"marketing": {
		{Level: 1, Role: "marketing_specialist", Email: "marketing@ecomac.cl", NotifyAfter: 6},
		{Level: 2, Role: "marketing_manager", Email: "marketing-manager@ecomac.cl", NotifyAfter: 24},
		{Level: 3, Role: "marketing_director", Email: "director-marketing@ecomac.cl", NotifyAfter: 48},
	},
	"finanzas": {
		{Level: 1, Role: "finance_analyst", Email: "finanzas@ecomac.cl", NotifyAfter: 8},
		{Level: 2, Role: "finance_manager", Email: "finanzas-manager@ecomac.cl", NotifyAfter: 24},
		{Level: 3, Role: "cfo", Email: "cfo@ecomac.cl", NotifyAfter: 48},
	},
	"administracion": {
		{Level: 1, Role: "admin_assistant", Email: "administracion@ecomac.cl", NotifyAfter: 4},
		{Level: 2, Role: "admin_manager", Email: "admin-manager@ecomac.cl", NotifyAfter: 12},
		{Level: 3, Role: "general_manager", Email: "gerente-general@ecomac.cl", NotifyAfter: 24},
	},
	"gerencia": {
		{Level: 1, Role: "manager", Email: "gerencia@ecomac.cl", NotifyAfter: 1},
		{Level: 2, Role: "general_manager", Email: "gerente-general@ecomac.cl", NotifyAfter: 2},
		{Level: 3, Role: "ceo", Email: "ceo@ecomac.cl", NotifyAfter: 4},
	},
}

// urgencyMultipliers scale the chain's notifyAfter hours by sender priority.
var urgencyMultipliers = map[domain.Priority]float64{
	domain.PriorityUrgent: 0.25,
	domain.PriorityHigh:   0.5,
	domain.PriorityMedium: 1.0,
	domain.PriorityLow:    2.0,
}

// Escalation decision reasons.
const (
	ReasonMaxEscalationReached = "max_escalation_reached"
	ReasonTimeThresholdReached = "time_threshold_reached"
	ReasonWithinThreshold      = "within_threshold"
)

// EscalationDecision is the outcome of evaluating one ticket against its chain.
type EscalationDecision struct {
	Escalate       bool                    `json:"escalate"`
	Reason         string                  `json:"reason"`
	CurrentLevel   int                     `json:"current_level"`
	Next           *domain.EscalationLevel `json:"next,omitempty"`
	ElapsedHours   float64                 `json:"elapsed_hours"`
	ThresholdHours float64                 `json:"threshold_hours"`
	SLAStatus      domain.SLAStatus        `json:"sla_status"`
}

// EscalationService evaluates tracked tickets against their department chains
// and advances them, notifying the responsible role at each step.
type EscalationService struct {
	states        repository.TicketStateRepository
	sla           *SLAService
	notifications *NotificationService
	dispatcher    events.Dispatcher
	metrics       *observability.Metrics
	logger        *zap.Logger
	now           func() time.Time
}

func NewEscalationService(
	states repository.TicketStateRepository,
	sla *SLAService,
	notifications *NotificationService,
	dispatcher events.Dispatcher,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *EscalationService {
	return &EscalationService{
		states:        states,
		sla:           sla,
		notifications: notifications,
		dispatcher:    dispatcher,
		metrics:       metrics,
		logger:        logger,
		now:           time.Now,
	}
}

// ChainFor returns the escalation chain for a department, falling back to
// the administracion chain for unknown departments.
func ChainFor(department string) []domain.EscalationLevel {
	if chain, ok := escalationChains[department]; ok {
		return chain
	}
	return escalationChains["administracion"]
}

// Plan decides whether the ticket should advance one escalation level now.
func (e *EscalationService) Plan(state *domain.TicketState) EscalationDecision {
	chain := ChainFor(state.Department)
	slaStatus := e.sla.CheckStatus(state.CreatedAt, state.SLAHours)

	if state.CurrentLevel >= len(chain) {
		return EscalationDecision{
			Escalate:     false,
			Reason:       ReasonMaxEscalationReached,
			CurrentLevel: state.CurrentLevel,
			SLAStatus:    slaStatus,
		}
	}

	next := chain[state.CurrentLevel]
	multiplier, ok := urgencyMultipliers[state.Priority]
	if !ok {
		multiplier = 1.0
	}
	threshold := float64(next.NotifyAfter) * multiplier
	elapsed := e.now().Sub(state.CreatedAt).Hours()

	escalate := elapsed >= threshold || slaStatus.ShouldEscalate
	reason := ReasonWithinThreshold
	if escalate {
		reason = ReasonTimeThresholdReached
	}

	return EscalationDecision{
		Escalate:       escalate,
		Reason:         reason,
		CurrentLevel:   state.CurrentLevel,
		Next:           &next,
		ElapsedHours:   elapsed,
		ThresholdHours: threshold,
		SLAStatus:      slaStatus,
	}
}

// Execute advances the ticket to the decision's next level and fans out
// notifications. The advance is compare-and-swapped against the level the
// decision was planned at, so two concurrent sweeps cannot double-advance.
func (e *EscalationService) Execute(ctx context.Context, state *domain.TicketState, decision EscalationDecision) ([]domain.NotificationOutcome, error) {
	if decision.Next == nil {
		return nil, fmt.Errorf("no escalation level available for ticket %s", state.TicketID)
	}

	record := domain.EscalationRecord{
		Level:       decision.Next.Level,
		EscalatedAt: e.now(),
		EscalatedTo: decision.Next.Email,
		Reason:      decision.Reason,
	}
	updated, err := e.states.AdvanceLevel(ctx, state.TicketID, decision.CurrentLevel, record)
	if err != nil {
		if errors.Is(err, repository.ErrLevelConflict) {
			e.logger.Info("escalation already advanced elsewhere",
				zap.String("ticket_id", state.TicketID),
				zap.Int("level", decision.CurrentLevel))
			return nil, err
		}
		return nil, fmt.Errorf("advance escalation level: %w", err)
	}

	notice := EscalationNotice{
		TicketID:   state.TicketID,
		Level:      decision.Next.Level,
		Role:       decision.Next.Role,
		Recipient:  decision.Next.Email,
		Category:   state.Category,
		Department: state.Department,
		Priority:   state.Priority,
		Reason:     decision.Reason,
		SLAHours:   state.SLAHours,
		CreatedAt:  state.CreatedAt,
	}
	outcomes := e.notifications.Dispatch(ctx, notice)

	e.metrics.RecordEscalation(state.Department)
	_ = e.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventEscalationTriggered,
		TicketID:  state.TicketID,
		Timestamp: e.now(),
		Payload: events.EscalationTriggeredPayload{
			PreviousLevel: decision.CurrentLevel,
			NewLevel:      updated.CurrentLevel,
			EscalatedTo:   decision.Next.Email,
			Reason:        decision.Reason,
		},
	})

	e.logger.Info("ticket escalated",
		zap.String("ticket_id", state.TicketID),
		zap.Int("level", updated.CurrentLevel),
		zap.String("role", decision.Next.Role),
		zap.String("reason", decision.Reason))

	return outcomes, nil
}

// SweepResult summarizes one pass over the tracked tickets.
type SweepResult struct {
	Evaluated int `json:"evaluated"`
	Escalated int `json:"escalated"`
	Failed    int `json:"failed"`
}

// Sweep evaluates every tracked ticket and escalates the overdue ones.
// Individual failures are logged and counted, never abort the pass.
func (e *EscalationService) Sweep(ctx context.Context) (SweepResult, error) {
	states, err := e.states.List(ctx)
	if err != nil {
		return SweepResult{}, fmt.Errorf("list tracked tickets: %w", err)
	}

	result := SweepResult{Evaluated: len(states)}
	for i := range states {
		state := &states[i]
		decision := e.Plan(state)
		if !decision.Escalate {
			continue
		}
		if _, err := e.Execute(ctx, state, decision); err != nil {
			if errors.Is(err, repository.ErrLevelConflict) {
				continue
			}
			result.Failed++
			e.logger.Warn("escalation failed",
				zap.String("ticket_id", state.TicketID),
				zap.Error(err))
			continue
		}
		result.Escalated++
	}
	return result, nil
}

// EscalationReportEntry is one ticket's standing in the escalation report.
type EscalationReportEntry struct {
	TicketID     string           `json:"ticketId"`
	Department   string           `json:"departamento"`
	Priority     domain.Priority  `json:"prioridad"`
	CurrentLevel int              `json:"current_level"`
	MaxLevel     int              `json:"max_level"`
	SLAStatus    domain.SLAStatus `json:"sla_status"`
	NextRole     string           `json:"next_role,omitempty"`
}

// EscalationReport aggregates tracked tickets by escalation standing.
type EscalationReport struct {
	GeneratedAt  time.Time               `json:"generated_at"`
	TotalTracked int                     `json:"total_tracked"`
	AtMaxLevel   int                     `json:"at_max_level"`
	Pending      []EscalationReportEntry `json:"pending"`
}

// Report builds an operator view over all tracked tickets.
func (e *EscalationService) Report(ctx context.Context) (EscalationReport, error) {
	states, err := e.states.List(ctx)
	if err != nil {
		return EscalationReport{}, fmt.Errorf("list tracked tickets: %w", err)
	}

	report := EscalationReport{
		GeneratedAt:  e.now(),
		TotalTracked: len(states),
		Pending:      make([]EscalationReportEntry, 0, len(states)),
	}
	for i := range states {
		state := &states[i]
		chain := ChainFor(state.Department)
		entry := EscalationReportEntry{
			TicketID:     state.TicketID,
			Department:   state.Department,
			Priority:     state.Priority,
			CurrentLevel: state.CurrentLevel,
			MaxLevel:     len(chain),
			SLAStatus:    e.sla.CheckStatus(state.CreatedAt, state.SLAHours),
		}
		if state.CurrentLevel >= len(chain) {
			report.AtMaxLevel++
		} else {
			entry.NextRole = chain[state.CurrentLevel].Role
		}
		report.Pending = append(report.Pending, entry)
	}
	return report, nil
}
