package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// MessageType distinguishes identified from anonymous submissions.
type MessageType string

const (
	MessageTypeIdentified MessageType = "identificado"
	MessageTypeAnonymous  MessageType = "anonimo"
)

// Priority enumerates submission urgency as selected by the sender.
type Priority string

const (
	PriorityUrgent Priority = "urgente"
	PriorityHigh   Priority = "alta"
	PriorityMedium Priority = "media"
	PriorityLow    Priority = "baja"
)

// Category enumerates the feedback categories offered by the form.
type Category string

const (
	CategoryQuestion   Category = "pregunta"
	CategorySuggestion Category = "sugerencia"
	CategoryComplaint  Category = "queja"
	CategoryCompliment Category = "felicitacion"
	CategoryBug        Category = "bug"
	CategoryOther      Category = "otro"
)

// Categories lists every valid category.
var Categories = []Category{
	CategoryQuestion,
	CategorySuggestion,
	CategoryComplaint,
	CategoryCompliment,
	CategoryBug,
	CategoryOther,
}

// Priorities lists every valid priority.
var Priorities = []Priority{
	PriorityUrgent,
	PriorityHigh,
	PriorityMedium,
	PriorityLow,
}

// ValidType reports whether t is a known message type.
func ValidType(t MessageType) bool {
	return t == MessageTypeIdentified || t == MessageTypeAnonymous
}

// ValidCategory reports whether c is a known category.
func ValidCategory(c Category) bool {
	for _, candidate := range Categories {
		if candidate == c {
			return true
		}
	}
	return false
}

// ValidPriority reports whether p is a known priority.
func ValidPriority(p Priority) bool {
	for _, candidate := range Priorities {
		if candidate == p {
			return true
		}
	}
	return false
}

// Message is the aggregate for a single feedback submission.
type Message struct {
	TicketID   string
	Type       MessageType
	Name       string
	Email      string
	Company    string
	Body       string
	Category   Category
	Department string
	Priority   Priority
	CreatedAt  time.Time
}

// Identified reports whether the message carries sender identity.
func (m Message) Identified() bool {
	return m.Type == MessageTypeIdentified
}

// NewTicketID issues a correlation key in the form WHY-<8 digits>-<6 alnum>.
// The digit block derives from the current unix millisecond clock and the
// suffix from a fresh UUID, so two calls within the same millisecond still
// produce distinct IDs.
func NewTicketID() string {
	millis := time.Now().UnixMilli()
	digits := fmt.Sprintf("%08d", millis%100000000)
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:6]
	return fmt.Sprintf("WHY-%s-%s", digits, suffix)
}
