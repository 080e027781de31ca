package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/why-platform/buzon-service/internal/clickup"
	"github.com/why-platform/buzon-service/internal/domain"
	"github.com/why-platform/buzon-service/internal/events"
	"github.com/why-platform/buzon-service/internal/observability"
	"github.com/why-platform/buzon-service/internal/repository"
	"github.com/why-platform/buzon-service/internal/webhook"
	apperrors "github.com/why-platform/buzon-service/pkg/util"
)

const payloadSource = "plataforma-why"

// SubmissionResult is the full outcome of an accepted submission.
type SubmissionResult struct {
	TicketID        string                   `json:"ticketId"`
	WebhookResponse map[string]any           `json:"webhook_response,omitempty"`
	SLA             domain.SLADescriptor     `json:"sla"`
	Privacy         domain.PrivacyAssessment `json:"privacy"`
	Ticket          *clickup.Result          `json:"ticket,omitempty"`
}

// SubmissionService runs the intake pipeline: validate, derive SLA and
// privacy, deliver to the intake webhook, then record state and raise a
// ticket. Webhook delivery is the only hard dependency; everything after it
// degrades instead of failing the submission.
type SubmissionService struct {
	validator   *Validator
	sla         *SLAService
	privacy     *PrivacyService
	webhook     *webhook.Client
	gateway     *clickup.Gateway
	states      repository.TicketStateRepository
	submissions repository.SubmissionRepository
	dispatcher  events.Dispatcher
	metrics     *observability.Metrics
	logger      *zap.Logger

	mu       sync.Mutex
	inFlight map[string]struct{}
}

// SubmissionDependencies bundles everything the orchestrator needs.
type SubmissionDependencies struct {
	Validator   *Validator
	SLA         *SLAService
	Privacy     *PrivacyService
	Webhook     *webhook.Client
	Gateway     *clickup.Gateway
	States      repository.TicketStateRepository
	Submissions repository.SubmissionRepository
	Dispatcher  events.Dispatcher
	Metrics     *observability.Metrics
	Logger      *zap.Logger
}

func NewSubmissionService(deps SubmissionDependencies) *SubmissionService {
	return &SubmissionService{
		validator:   deps.Validator,
		sla:         deps.SLA,
		privacy:     deps.Privacy,
		webhook:     deps.Webhook,
		gateway:     deps.Gateway,
		states:      deps.States,
		submissions: deps.Submissions,
		dispatcher:  deps.Dispatcher,
		metrics:     deps.Metrics,
		logger:      deps.Logger,
		inFlight:    make(map[string]struct{}),
	}
}

// Submit runs the full pipeline for one submission.
func (s *SubmissionService) Submit(ctx context.Context, input SubmissionInput) (*SubmissionResult, error) {
	if errs := s.validator.Validate(input); len(errs) > 0 {
		details := make(map[string]any, len(errs))
		for field, message := range errs {
			details[field] = message
		}
		return nil, apperrors.NewValidationError("Por favor corrige los errores del formulario", details)
	}

	fingerprint := submissionFingerprint(input)
	if !s.acquire(fingerprint) {
		return nil, apperrors.NewConflict("Este mensaje ya está siendo procesado", nil)
	}
	defer s.release(fingerprint)

	msg := buildMessage(input)

	sla, err := s.sla.Calculate(msg)
	if err != nil {
		s.logger.Warn("sla calculation failed, applying default",
			zap.String("ticket_id", msg.TicketID),
			zap.Error(err))
		sla = s.sla.DefaultDescriptor()
	}

	privacy := s.privacy.Assess(PrivacySubject{
		Name:      msg.Name,
		Email:     msg.Email,
		Company:   msg.Company,
		Body:      msg.Body,
		Timestamp: msg.CreatedAt,
	})

	payload := buildWebhookPayload(msg, sla, privacy)

	start := time.Now()
	response, err := s.webhook.Deliver(ctx, payload)
	if err != nil {
		s.metrics.RecordWebhookDelivery("failed")
		s.publish(ctx, events.EventWebhookFailed, msg.TicketID, events.WebhookFailedPayload{
			Code:    errorCode(err),
			Message: err.Error(),
		})
		return nil, err
	}
	s.metrics.RecordWebhookDelivery("delivered")
	s.publish(ctx, events.EventWebhookDelivered, msg.TicketID, events.WebhookDeliveredPayload{
		DurationMS: time.Since(start).Milliseconds(),
	})

	result := &SubmissionResult{
		TicketID:        msg.TicketID,
		WebhookResponse: response,
		SLA:             sla,
		Privacy:         privacy,
	}

	s.trackState(ctx, msg, sla)
	result.Ticket = s.raiseTicket(ctx, msg, sla)
	s.archive(ctx, msg, sla, privacy, result.Ticket)

	s.metrics.RecordSubmission(string(msg.Category), "accepted")
	s.publish(ctx, events.EventMessageSubmitted, msg.TicketID, events.MessageSubmittedPayload{
		Type:       msg.Type,
		Category:   msg.Category,
		Department: msg.Department,
		Priority:   msg.Priority,
		RiskLevel:  privacy.RiskLevel,
		SLAHours:   sla.Hours,
	})

	s.logger.Info("submission accepted",
		zap.String("ticket_id", msg.TicketID),
		zap.String("tipo", string(msg.Type)),
		zap.String("categoria", string(msg.Category)),
		zap.String("departamento", msg.Department),
		zap.Int("sla_hours", sla.Hours))

	return result, nil
}

func buildMessage(input SubmissionInput) domain.Message {
	msg := domain.Message{
		TicketID:   domain.NewTicketID(),
		Type:       input.Type,
		Body:       strings.TrimSpace(input.Body),
		Category:   input.Category,
		Department: strings.ToLower(strings.TrimSpace(input.Department)),
		Priority:   input.Priority,
		CreatedAt:  time.Now(),
	}
	if msg.Priority == "" {
		msg.Priority = domain.PriorityMedium
	}
	if input.Type == domain.MessageTypeIdentified {
		msg.Name = strings.TrimSpace(input.Name)
		msg.Email = strings.TrimSpace(input.Email)
		msg.Company = strings.TrimSpace(input.Company)
	}
	return msg
}

// buildWebhookPayload shapes the JSON delivered to the intake webhook.
// Identity fields only travel for identified submissions.
func buildWebhookPayload(msg domain.Message, sla domain.SLADescriptor, privacy domain.PrivacyAssessment) map[string]any {
	payload := map[string]any{
		"tipo":         string(msg.Type),
		"mensaje":      msg.Body,
		"categoria":    string(msg.Category),
		"departamento": msg.Department,
		"prioridad":    string(msg.Priority),
		"ticketId":     msg.TicketID,
		"timestamp":    msg.CreatedAt.Format(time.RFC3339),
		"fecha":        spanishDate(msg.CreatedAt),
		"hora":         msg.CreatedAt.Format("15:04:05"),
		"source":       payloadSource,
		"sla": map[string]any{
			"hours":               sla.Hours,
			"dueDate":             sla.DueDate.Format(time.RFC3339),
			"escalationThreshold": sla.EscalationThreshold,
			"priority":            string(sla.Priority),
		},
		"privacy": map[string]any{
			"riskLevel":      string(privacy.RiskLevel),
			"anonymized":     string(privacy.RecommendedAnonymization),
			"requiresReview": privacy.RequiresReview,
		},
	}
	if msg.Identified() {
		payload["nombre"] = msg.Name
		payload["email"] = msg.Email
		if msg.Company != "" {
			payload["empresa"] = msg.Company
		}
	}
	return payload
}

// spanishDate renders d/m/yyyy, the es-ES short date form.
func spanishDate(t time.Time) string {
	return fmt.Sprintf("%d/%d/%d", t.Day(), int(t.Month()), t.Year())
}

func (s *SubmissionService) trackState(ctx context.Context, msg domain.Message, sla domain.SLADescriptor) {
	state := &domain.TicketState{
		TicketID:   msg.TicketID,
		Type:       msg.Type,
		Category:   msg.Category,
		Department: msg.Department,
		Priority:   msg.Priority,
		SLAHours:   sla.Hours,
		CreatedAt:  msg.CreatedAt,
	}
	if err := s.states.Save(ctx, state); err != nil {
		s.logger.Warn("ticket state not tracked",
			zap.String("ticket_id", msg.TicketID),
			zap.Error(err))
	}
}

// raiseTicket creates the ClickUp task. Any failure here degrades the
// submission instead of failing it: the webhook already accepted the message.
func (s *SubmissionService) raiseTicket(ctx context.Context, msg domain.Message, sla domain.SLADescriptor) *clickup.Result {
	if s.gateway == nil {
		return nil
	}
	result, err := s.gateway.CreateTicket(ctx, msg, sla)
	if err != nil {
		s.metrics.RecordTicketGateway("degraded")
		s.publish(ctx, events.EventTicketDegraded, msg.TicketID, events.TicketDegradedPayload{
			Reason: err.Error(),
		})
		s.logger.Warn("ticket creation degraded",
			zap.String("ticket_id", msg.TicketID),
			zap.Error(err))
		return &clickup.Result{Success: false, Error: err.Error(), CreatedAt: time.Now()}
	}

	s.metrics.RecordTicketGateway("created")
	s.publish(ctx, events.EventTicketCreated, msg.TicketID, events.TicketCreatedPayload{
		TaskID:    result.TaskID,
		URL:       result.URL,
		ListID:    result.ListID,
		Assignees: len(result.AssignedUsers),
	})
	if err := s.states.SetClickUpTask(ctx, msg.TicketID, result.TaskID); err != nil {
		s.logger.Warn("clickup task not linked to ticket state",
			zap.String("ticket_id", msg.TicketID),
			zap.Error(err))
	}
	return result
}

func (s *SubmissionService) archive(ctx context.Context, msg domain.Message, sla domain.SLADescriptor, privacy domain.PrivacyAssessment, ticket *clickup.Result) {
	if s.submissions == nil {
		return
	}
	record := &repository.SubmissionRecord{
		TicketID:   msg.TicketID,
		Type:       msg.Type,
		Category:   msg.Category,
		Department: msg.Department,
		Priority:   msg.Priority,
		Body:       msg.Body,
		SLAHours:   sla.Hours,
		SLADueDate: sla.DueDate,
		RiskLevel:  privacy.RiskLevel,
		CreatedAt:  msg.CreatedAt,
	}
	if msg.Identified() {
		record.Name = optional(msg.Name)
		record.Email = optional(msg.Email)
		record.Company = optional(msg.Company)
	}
	if ticket != nil && ticket.Success {
		record.ClickUpTask = optional(ticket.TaskID)
	}
	if err := s.submissions.Archive(ctx, record); err != nil {
		s.logger.Warn("submission not archived",
			zap.String("ticket_id", msg.TicketID),
			zap.Error(err))
	}
}

func (s *SubmissionService) publish(ctx context.Context, eventType events.EventType, ticketID string, payload any) {
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		TicketID:  ticketID,
		Timestamp: time.Now(),
		Payload:   payload,
	})
}

func (s *SubmissionService) acquire(fingerprint string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.inFlight[fingerprint]; exists {
		return false
	}
	s.inFlight[fingerprint] = struct{}{}
	return true
}

func (s *SubmissionService) release(fingerprint string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inFlight, fingerprint)
}

// submissionFingerprint identifies an in-flight submission by its content,
// catching double-clicks before any network call happens.
func submissionFingerprint(input SubmissionInput) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s|%s|%s|%s", input.Type, input.Email, input.Category, strings.TrimSpace(input.Body))
	return hex.EncodeToString(h.Sum(nil))
}

func optional(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

func errorCode(err error) string {
	if domainErr, ok := err.(*apperrors.DomainError); ok {
		return domainErr.Code
	}
	return apperrors.CodeInternalError
}
