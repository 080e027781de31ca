package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/why-platform/buzon-service/internal/events"
	"github.com/why-platform/buzon-service/internal/observability"
)

// AuditService consumes every pipeline event, writing the audit trail and
// feeding the per-event counters surfaced on /stats.
type AuditService struct {
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger
}

// NewAuditService creates the service.
func NewAuditService(dispatcher events.Dispatcher, metrics *observability.Metrics, logger *zap.Logger) *AuditService {
	return &AuditService{
		dispatcher: dispatcher,
		metrics:    metrics,
		logger:     logger,
	}
}

// RegisterHandlers subscribes to events.
func (a *AuditService) RegisterHandlers() {
	if a.dispatcher == nil {
		return
	}
	a.dispatcher.Subscribe(events.EventMessageSubmitted, a.handleMessageSubmitted)
	a.dispatcher.Subscribe(events.EventWebhookDelivered, a.handleEvent)
	a.dispatcher.Subscribe(events.EventWebhookFailed, a.handleFailure)
	a.dispatcher.Subscribe(events.EventTicketCreated, a.handleEvent)
	a.dispatcher.Subscribe(events.EventTicketDegraded, a.handleFailure)
	a.dispatcher.Subscribe(events.EventEscalationTriggered, a.handleEvent)
}

func (a *AuditService) handleMessageSubmitted(_ context.Context, event events.Event) error {
	a.metrics.RecordEvent(string(event.Type))
	a.logger.Info("MessageSubmitted",
		zap.String("ticket_id", event.TicketID),
		zap.Any("payload", event.Payload))
	return nil
}

func (a *AuditService) handleEvent(_ context.Context, event events.Event) error {
	a.metrics.RecordEvent(string(event.Type))
	a.logger.Info(string(event.Type),
		zap.String("ticket_id", event.TicketID),
		zap.Any("payload", event.Payload))
	return nil
}

func (a *AuditService) handleFailure(_ context.Context, event events.Event) error {
	a.metrics.RecordEvent(string(event.Type))
	a.logger.Warn(string(event.Type),
		zap.String("ticket_id", event.TicketID),
		zap.Any("payload", event.Payload))
	return nil
}
