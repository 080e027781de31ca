package domain

import "time"

// EscalationLevel is one step of a department escalation chain.
type EscalationLevel struct {
	Level       int
	Role        string
	Email       string
	NotifyAfter int
}

// EscalationRecord is an entry in a ticket's escalation history.
type EscalationRecord struct {
	Level       int       `json:"level"`
	EscalatedAt time.Time `json:"escalated_at"`
	EscalatedTo string    `json:"escalated_to"`
	Reason      string    `json:"reason"`
}

// TicketState is the mutable tracking record kept per submitted ticket.
// CurrentLevel only ever advances, one step per escalation event.
type TicketState struct {
	TicketID     string             `json:"ticket_id"`
	Type         MessageType        `json:"tipo"`
	Category     Category           `json:"categoria"`
	Department   string             `json:"departamento"`
	Priority     Priority           `json:"prioridad"`
	SLAHours     int                `json:"sla_hours"`
	CurrentLevel int                `json:"current_level"`
	CreatedAt    time.Time          `json:"created_at"`
	History      []EscalationRecord `json:"escalation_history,omitempty"`
	ClickUpTask  string             `json:"clickup_task_id,omitempty"`
}

// NotificationOutcome records a single channel's delivery attempt.
type NotificationOutcome struct {
	Channel   string    `json:"channel"`
	Status    string    `json:"status"`
	Recipient string    `json:"recipient,omitempty"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
