package domain

import "time"

// PriorityBucket is the internal criticality tier a sender priority maps to.
type PriorityBucket string

const (
	BucketCritical PriorityBucket = "critical"
	BucketHigh     PriorityBucket = "high"
	BucketMedium   PriorityBucket = "medium"
	BucketLow      PriorityBucket = "low"
)

// SLADescriptor carries the response-time commitment derived for a message.
// It is recomputed per submission and never persisted as authoritative state.
type SLADescriptor struct {
	Hours               int
	DueDate             time.Time
	EscalationThreshold int
	Priority            PriorityBucket
	Category            Category
	Department          string
	BusinessReason      string
	BaseHours           int
	DepartmentModifier  float64
	CalculatedAt        time.Time
}

// SLAHealth enumerates how much of an SLA window has been consumed.
type SLAHealth string

const (
	SLAOnTrack SLAHealth = "on_track"
	SLAWarning SLAHealth = "warning"
	SLAAtRisk  SLAHealth = "at_risk"
	SLAOverdue SLAHealth = "overdue"
)

// SLAStatus is the point-in-time evaluation of a tracked ticket.
type SLAStatus struct {
	Status         SLAHealth
	UrgencyLevel   string
	PercentageUsed int
	RemainingHours float64
	ShouldEscalate bool
	NextEscalation *EscalationPoint
}

// EscalationPoint names the next SLA consumption checkpoint.
type EscalationPoint struct {
	TimeToEscalation     float64
	EscalationPercentage float64
}
