package events

import (
	"time"

	"github.com/why-platform/buzon-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventMessageSubmitted    EventType = "message_submitted"
	EventWebhookDelivered    EventType = "webhook_delivered"
	EventWebhookFailed       EventType = "webhook_failed"
	EventTicketCreated       EventType = "ticket_created"
	EventTicketDegraded      EventType = "ticket_degraded"
	EventEscalationTriggered EventType = "escalation_triggered"
)

// Event represents a domain event emitted by the submission pipeline.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  string      `json:"ticket_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// MessageSubmittedPayload payload.
type MessageSubmittedPayload struct {
	Type       domain.MessageType `json:"tipo"`
	Category   domain.Category    `json:"categoria"`
	Department string             `json:"departamento,omitempty"`
	Priority   domain.Priority    `json:"prioridad"`
	RiskLevel  domain.RiskLevel   `json:"risk_level"`
	SLAHours   int                `json:"sla_hours"`
}

// WebhookDeliveredPayload payload.
type WebhookDeliveredPayload struct {
	DurationMS int64 `json:"duration_ms"`
}

// WebhookFailedPayload payload.
type WebhookFailedPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	TaskID    string `json:"task_id"`
	URL       string `json:"url,omitempty"`
	ListID    string `json:"list_id"`
	Assignees int    `json:"assignees"`
}

// TicketDegradedPayload payload.
type TicketDegradedPayload struct {
	Reason string `json:"reason"`
}

// EscalationTriggeredPayload payload.
type EscalationTriggeredPayload struct {
	PreviousLevel int    `json:"previous_level"`
	NewLevel      int    `json:"new_level"`
	EscalatedTo   string `json:"escalated_to"`
	Reason        string `json:"reason"`
}
