package service

import (
	"fmt"
	"math"
	"time"

	"github.com/why-platform/buzon-service/internal/domain"
)

// slaHoursByBucket is one category row of the SLA table.
type slaHoursByBucket struct {
	critical    int
	high        int
	medium      int
	low         int
	description string
}

// slaByCategory is the base response-time table, in hours.
var slaByCategory = map[domain.Category]slaHoursByBucket{
	domain.CategoryBug: {
		critical: 2, high: 4, medium: 12, low: 24,
		description: "Errores técnicos requieren resolución inmediata",
	},
	domain.CategoryComplaint: {
		critical: 4, high: 8, medium: 24, low: 48,
		description: "Quejas deben ser atendidas con prioridad",
	},
	domain.CategoryQuestion: {
		critical: 8, high: 12, medium: 24, low: 72,
		description: "Preguntas generales con tiempo estándar",
	},
	domain.CategorySuggestion: {
		critical: 12, high: 24, medium: 72, low: 120,
		description: "Sugerencias para evaluación y feedback",
	},
	domain.CategoryCompliment: {
		critical: 24, high: 48, medium: 72, low: 120,
		description: "Felicitaciones para agradecimiento formal",
	},
	domain.CategoryOther: {
		critical: 12, high: 24, medium: 48, low: 96,
		description: "Otros casos evaluados individualmente",
	},
}

// departmentModifiers scale SLA hours per destination department.
var departmentModifiers = map[string]float64{
	"it":             0.8,
	"rrhh":           1.2,
	"ventas":         0.9,
	"operaciones":    1.0,
	"marketing":      1.3,
	"finanzas":       1.5,
	"administracion": 1.1,
	"gerencia":       0.7,
}

// bucketByPriority maps sender priority to the table's criticality tier.
var bucketByPriority = map[domain.Priority]domain.PriorityBucket{
	domain.PriorityUrgent: domain.BucketCritical,
	domain.PriorityHigh:   domain.BucketHigh,
	domain.PriorityMedium: domain.BucketMedium,
	domain.PriorityLow:    domain.BucketLow,
}

// BusinessHours defines the working window counted toward SLA due dates.
type BusinessHours struct {
	StartHour int
	EndHour   int
	WorkDays  map[time.Weekday]bool
}

var defaultBusinessHours = BusinessHours{
	StartHour: 9,
	EndHour:   18,
	WorkDays: map[time.Weekday]bool{
		time.Monday:    true,
		time.Tuesday:   true,
		time.Wednesday: true,
		time.Thursday:  true,
		time.Friday:    true,
	},
}

// escalationPoints are the SLA consumption checkpoints, as fractions.
var escalationPoints = []float64{0.5, 0.75, 0.9, 1.0}

// SLAService derives response-time commitments from static tables.
type SLAService struct {
	hours BusinessHours
	now   func() time.Time
}

// NewSLAService constructs the calculator with the standard business hours.
func NewSLAService() *SLAService {
	return &SLAService{hours: defaultBusinessHours, now: time.Now}
}

// Calculate derives the SLA descriptor for a message. Unknown categories use
// the "otro" row; unknown departments apply no modifier.
func (s *SLAService) Calculate(msg domain.Message) (domain.SLADescriptor, error) {
	row, ok := slaByCategory[msg.Category]
	if !ok {
		row = slaByCategory[domain.CategoryOther]
	}

	bucket, ok := bucketByPriority[msg.Priority]
	if !ok {
		bucket = domain.BucketMedium
	}
	base := row.hoursFor(bucket)
	if base <= 0 {
		return domain.SLADescriptor{}, fmt.Errorf("no SLA configured for category %q priority %q", msg.Category, msg.Priority)
	}

	modifier, ok := departmentModifiers[msg.Department]
	if !ok {
		modifier = 1.0
	}
	adjusted := int(math.Ceil(float64(base) * modifier))

	now := s.now()
	return domain.SLADescriptor{
		Hours:               adjusted,
		DueDate:             s.dueDate(now, adjusted),
		EscalationThreshold: int(math.Floor(float64(adjusted) * 0.8)),
		Priority:            bucket,
		Category:            msg.Category,
		Department:          msg.Department,
		BusinessReason:      row.description,
		BaseHours:           base,
		DepartmentModifier:  modifier,
		CalculatedAt:        now,
	}, nil
}

// DefaultDescriptor is the fallback applied when calculation fails: the
// submission still goes through with a standard 24h window.
func (s *SLAService) DefaultDescriptor() domain.SLADescriptor {
	now := s.now()
	return domain.SLADescriptor{
		Hours:               24,
		DueDate:             now.Add(24 * time.Hour),
		EscalationThreshold: 18,
		Priority:            domain.BucketMedium,
		BusinessReason:      "SLA estándar aplicado (fallback)",
		DepartmentModifier:  1.0,
		CalculatedAt:        now,
	}
}

// dueDate walks forward hour by hour from start, counting only hours inside
// the configured business window.
func (s *SLAService) dueDate(start time.Time, hours int) time.Time {
	current := start
	counted := 0
	for counted < hours {
		if s.hours.WorkDays[current.Weekday()] {
			h := current.Hour()
			if h >= s.hours.StartHour && h < s.hours.EndHour {
				counted++
			}
		}
		current = current.Add(time.Hour)
	}
	return current
}

// CheckStatus evaluates how much of the SLA window a tracked ticket has
// consumed.
func (s *SLAService) CheckStatus(createdAt time.Time, slaHours int) domain.SLAStatus {
	elapsed := s.now().Sub(createdAt).Hours()
	used := 0.0
	if slaHours > 0 {
		used = elapsed / float64(slaHours) * 100
	}

	status := domain.SLAOnTrack
	urgency := "normal"
	switch {
	case used >= 100:
		status = domain.SLAOverdue
		urgency = "critical"
	case used >= 80:
		status = domain.SLAAtRisk
		urgency = "high"
	case used >= 60:
		status = domain.SLAWarning
		urgency = "medium"
	}

	return domain.SLAStatus{
		Status:         status,
		UrgencyLevel:   urgency,
		PercentageUsed: int(math.Round(used)),
		RemainingHours: math.Max(0, float64(slaHours)-elapsed),
		ShouldEscalate: used >= 80,
		NextEscalation: nextEscalationPoint(elapsed, float64(slaHours)),
	}
}

func nextEscalationPoint(elapsedHours, slaHours float64) *domain.EscalationPoint {
	for _, point := range escalationPoints {
		threshold := slaHours * point
		if elapsedHours < threshold {
			return &domain.EscalationPoint{
				TimeToEscalation:     threshold - elapsedHours,
				EscalationPercentage: point * 100,
			}
		}
	}
	return nil
}

func (r slaHoursByBucket) hoursFor(bucket domain.PriorityBucket) int {
	switch bucket {
	case domain.BucketCritical:
		return r.critical
	case domain.BucketHigh:
		return r.high
	case domain.BucketMedium:
		return r.medium
	case domain.BucketLow:
		return r.low
	default:
		return r.medium
	}
}

// SLAConfigCategory describes one category row for the config endpoint.
type SLAConfigCategory struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	SLARanges   map[string]int `json:"slaRanges"`
}

// SLAConfigDepartment describes one department modifier for the config endpoint.
type SLAConfigDepartment struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Modifier float64 `json:"modifier"`
	Impact   string  `json:"impact"`
}

// SLAConfiguration is the frontend-facing view of the SLA tables.
type SLAConfiguration struct {
	Categories    []SLAConfigCategory   `json:"categories"`
	Departments   []SLAConfigDepartment `json:"departments"`
	BusinessHours map[string]any        `json:"businessHours"`
}

// Configuration exposes the static tables for display.
func (s *SLAService) Configuration() SLAConfiguration {
	categories := make([]SLAConfigCategory, 0, len(domain.Categories))
	for _, category := range domain.Categories {
		row := slaByCategory[category]
		categories = append(categories, SLAConfigCategory{
			ID:          string(category),
			Name:        capitalize(string(category)),
			Description: row.description,
			SLARanges: map[string]int{
				"critical": row.critical,
				"high":     row.high,
				"medium":   row.medium,
				"low":      row.low,
			},
		})
	}

	departments := make([]SLAConfigDepartment, 0, len(departmentModifiers))
	for _, id := range departmentOrder {
		modifier := departmentModifiers[id]
		impact := "slower"
		if modifier < 1 {
			impact = "faster"
		}
		departments = append(departments, SLAConfigDepartment{
			ID:       id,
			Name:     capitalize(id),
			Modifier: modifier,
			Impact:   impact,
		})
	}

	return SLAConfiguration{
		Categories:  categories,
		Departments: departments,
		BusinessHours: map[string]any{
			"start":    s.hours.StartHour,
			"end":      s.hours.EndHour,
			"workDays": []int{1, 2, 3, 4, 5},
		},
	}
}

// SLAReport aggregates the SLA standing of the tracked tickets.
type SLAReport struct {
	GeneratedAt          time.Time                `json:"generated_at"`
	TotalTickets         int                      `json:"total_tickets"`
	ByStatus             map[domain.SLAHealth]int `json:"by_status"`
	ByCategory           map[domain.Category]int  `json:"by_category"`
	ByDepartment         map[string]int           `json:"by_department"`
	CompliancePercentage float64                  `json:"compliance_percentage"`
}

// Report summarizes SLA health across tracked tickets. Compliance counts
// everything not yet overdue.
func (s *SLAService) Report(tickets []domain.TicketState) SLAReport {
	report := SLAReport{
		GeneratedAt:  s.now(),
		TotalTickets: len(tickets),
		ByStatus:     make(map[domain.SLAHealth]int),
		ByCategory:   make(map[domain.Category]int),
		ByDepartment: make(map[string]int),
	}
	withinSLA := 0
	for i := range tickets {
		ticket := &tickets[i]
		status := s.CheckStatus(ticket.CreatedAt, ticket.SLAHours)
		report.ByStatus[status.Status]++
		report.ByCategory[ticket.Category]++
		report.ByDepartment[ticket.Department]++
		if status.Status != domain.SLAOverdue {
			withinSLA++
		}
	}
	if len(tickets) > 0 {
		report.CompliancePercentage = math.Round(float64(withinSLA)/float64(len(tickets))*10000) / 100
	}
	return report
}

// departmentOrder keeps the config endpoint output stable.
var departmentOrder = []string{
	"it", "rrhh", "ventas", "operaciones", "marketing", "finanzas", "administracion", "gerencia",
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return string(s[0]-('a'-'A')) + s[1:]
}
