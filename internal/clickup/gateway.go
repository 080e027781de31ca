package clickup

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/why-platform/buzon-service/internal/config"
	"github.com/why-platform/buzon-service/internal/domain"
	"github.com/why-platform/buzon-service/pkg/retry"
	apperrors "github.com/why-platform/buzon-service/pkg/util"
)

// priorityMapping converts sender priority to ClickUp priority codes.
var priorityMapping = map[domain.Priority]int{
	domain.PriorityUrgent: 1,
	domain.PriorityHigh:   2,
	domain.PriorityMedium: 3,
	domain.PriorityLow:    4,
}

// categoryTags maps categories to ClickUp tags.
var categoryTags = map[domain.Category][]string{
	domain.CategoryQuestion:   {"question", "inquiry"},
	domain.CategorySuggestion: {"suggestion", "improvement"},
	domain.CategoryComplaint:  {"complaint", "issue"},
	domain.CategoryCompliment: {"compliment", "feedback"},
	domain.CategoryBug:        {"bug", "technical"},
	domain.CategoryOther:      {"other", "general"},
}

// Assignee describes a ClickUp user eligible for auto-assignment.
type Assignee struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// usersByDepartment drives auto-assignment; read-only after process start.
var usersByDepartment = map[string][]Assignee{
	"it": {
		{ID: "12345678", Name: "Juan Pérez", Email: "juan.perez@ecomac.cl"},
		{ID: "12345679", Name: "María García", Email: "maria.garcia@ecomac.cl"},
	},
	"rrhh": {
		{ID: "12345680", Name: "Ana López", Email: "ana.lopez@ecomac.cl"},
	},
	"ventas": {
		{ID: "12345681", Name: "Carlos Ruiz", Email: "carlos.ruiz@ecomac.cl"},
		{ID: "12345682", Name: "Laura Martín", Email: "laura.martin@ecomac.cl"},
	},
}

// Result reports the ticket-gateway outcome. It is never authoritative for
// the primary submission: callers treat a failure as degraded, not fatal.
type Result struct {
	Success       bool       `json:"success"`
	TaskID        string     `json:"clickup_task_id,omitempty"`
	URL           string     `json:"clickup_url,omitempty"`
	ListID        string     `json:"list_id,omitempty"`
	AssignedUsers []Assignee `json:"assigned_users,omitempty"`
	Error         string     `json:"error,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

// TaskStatus is a snapshot of a ClickUp task for sync operations.
type TaskStatus struct {
	Status    string     `json:"status"`
	Assignees []Assignee `json:"assignees"`
	DueDate   string     `json:"due_date"`
	URL       string     `json:"url"`
	Completed bool       `json:"completed"`
}

// SyncOutcome reports a single ticket in a sync batch.
type SyncOutcome struct {
	TaskID   string    `json:"task_id"`
	Status   string    `json:"status,omitempty"`
	Synced   bool      `json:"synced"`
	Error    string    `json:"error,omitempty"`
	LastSync time.Time `json:"last_sync"`
}

// Gateway builds tickets from accepted submissions and manages them in
// ClickUp.
type Gateway struct {
	client      *Client
	cfg         config.ClickUpConfig
	retryPolicy retry.Policy
	logger      *zap.Logger
}

// NewGateway constructs the gateway with the standard creation retry policy.
func NewGateway(client *Client, cfg config.ClickUpConfig, logger *zap.Logger) *Gateway {
	policy := retry.DefaultPolicy()
	policy.NonRetryable = func(err error) bool {
		return apperrors.IsCode(err, apperrors.CodeUnauthorized) ||
			apperrors.IsCode(err, apperrors.CodeForbidden)
	}
	return &Gateway{
		client:      client,
		cfg:         cfg,
		retryPolicy: policy,
		logger:      logger,
	}
}

type taskRequest struct {
	Name         string        `json:"name"`
	Description  string        `json:"description"`
	Priority     int           `json:"priority"`
	Tags         []string      `json:"tags"`
	DueDate      int64         `json:"due_date"`
	Status       string        `json:"status"`
	CustomFields []customField `json:"custom_fields"`
}

type customField struct {
	ID    string `json:"id"`
	Value any    `json:"value"`
}

type taskResponse struct {
	ID        string     `json:"id"`
	URL       string     `json:"url"`
	Assignees []Assignee `json:"assignees"`
	DueDate   string     `json:"due_date"`
	Status    struct {
		Status string `json:"status"`
		Type   string `json:"type"`
	} `json:"status"`
}

// CreateTicket submits a ticket for the message. Only the creation call is
// retried; comment, custom fields and assignment are best-effort and never
// fail the result.
func (g *Gateway) CreateTicket(ctx context.Context, msg domain.Message, sla domain.SLADescriptor) (*Result, error) {
	listID := g.resolveList(msg.Department)
	request := g.buildTask(msg, sla)

	var task taskResponse
	err := g.retryPolicy.Do(ctx, func(ctx context.Context) error {
		return g.client.Post(ctx, fmt.Sprintf("/list/%s/task", listID), request, &task)
	})
	if err != nil {
		return nil, err
	}

	if msg.Identified() || msg.Company != "" {
		g.addContactComment(ctx, task.ID, msg)
	}
	g.setCustomFields(ctx, task.ID, msg, sla)
	assigned := g.autoAssign(ctx, task.ID, msg.Department, msg.Priority)

	return &Result{
		Success:       true,
		TaskID:        task.ID,
		URL:           task.URL,
		ListID:        listID,
		AssignedUsers: assigned,
		CreatedAt:     time.Now(),
	}, nil
}

func (g *Gateway) resolveList(department string) string {
	if listID, ok := g.cfg.ListsByDepartment[department]; ok && listID != "" {
		return listID
	}
	return g.cfg.DefaultListID
}

func (g *Gateway) buildTask(msg domain.Message, sla domain.SLADescriptor) taskRequest {
	priority, ok := priorityMapping[msg.Priority]
	if !ok {
		priority = 3
	}
	return taskRequest{
		Name:        buildTitle(msg),
		Description: buildDescription(msg, sla),
		Priority:    priority,
		Tags:        buildTags(msg),
		DueDate:     sla.DueDate.UnixMilli(),
		Status:      "pendiente servidor dev",
		CustomFields: []customField{
			{ID: "original_ticket_id", Value: msg.TicketID},
			{ID: "sla_hours", Value: sla.Hours},
			{ID: "message_type", Value: string(msg.Type)},
			{ID: "department", Value: departmentOrGeneral(msg.Department)},
		},
	}
}

func buildTitle(msg domain.Message) string {
	preview := msg.Body
	if len([]rune(preview)) > 60 {
		preview = string([]rune(preview)[:60])
		preview = preview + "..."
	}
	return fmt.Sprintf("%s - %s", preview, msg.TicketID)
}

func buildTags(msg domain.Message) []string {
	tags := []string{"buzon-del-porque", departmentOrGeneral(msg.Department)}
	tags = append(tags, categoryTags[msg.Category]...)
	if msg.Priority == domain.PriorityUrgent || msg.Priority == domain.PriorityHigh {
		tags = append(tags, string(msg.Priority))
	}
	if msg.Identified() {
		tags = append(tags, "interno")
	} else {
		tags = append(tags, "anonimo")
	}
	return tags
}

func departmentOrGeneral(department string) string {
	if department == "" {
		return "general"
	}
	return department
}

func (g *Gateway) addContactComment(ctx context.Context, taskID string, msg domain.Message) {
	comment := map[string]any{
		"comment_text": buildContactComment(msg),
		"notify_all":   false,
	}
	if err := g.client.Post(ctx, fmt.Sprintf("/task/%s/comment", taskID), comment, nil); err != nil {
		g.logger.Warn("could not add contact comment", zap.String("task_id", taskID), zap.Error(err))
	}
}

func (g *Gateway) setCustomFields(ctx context.Context, taskID string, msg domain.Message, sla domain.SLADescriptor) {
	fields := []customField{
		{ID: "source_platform", Value: "buzon-del-porque"},
		{ID: "original_priority", Value: string(msg.Priority)},
		{ID: "sla_due_date", Value: sla.DueDate.Format(time.RFC3339)},
		{ID: "message_type", Value: string(msg.Type)},
	}
	for _, field := range fields {
		payload := map[string]any{"value": field.Value}
		if err := g.client.Post(ctx, fmt.Sprintf("/task/%s/field/%s", taskID, field.ID), payload, nil); err != nil {
			g.logger.Warn("could not set custom field",
				zap.String("task_id", taskID), zap.String("field", field.ID), zap.Error(err))
			return
		}
	}
}

// autoAssign picks assignees per priority: urgent gets the whole department,
// high the upper half, everything else the first user.
func (g *Gateway) autoAssign(ctx context.Context, taskID, department string, priority domain.Priority) []Assignee {
	users := usersByDepartment[department]
	if len(users) == 0 {
		return nil
	}

	var toAssign []Assignee
	switch priority {
	case domain.PriorityUrgent:
		toAssign = users
	case domain.PriorityHigh:
		toAssign = users[:int(math.Ceil(float64(len(users))/2))]
	default:
		toAssign = users[:1]
	}

	assigned := make([]Assignee, 0, len(toAssign))
	for _, user := range toAssign {
		payload := map[string]any{"add": true}
		if err := g.client.Put(ctx, fmt.Sprintf("/task/%s/assignee/%s", taskID, user.ID), payload, nil); err != nil {
			g.logger.Warn("auto assignment failed",
				zap.String("task_id", taskID), zap.String("user_id", user.ID), zap.Error(err))
			continue
		}
		assigned = append(assigned, user)
	}
	return assigned
}

// GetTicketStatus fetches the current snapshot of a task.
func (g *Gateway) GetTicketStatus(ctx context.Context, taskID string) (*TaskStatus, error) {
	var task taskResponse
	if err := g.client.Get(ctx, fmt.Sprintf("/task/%s", taskID), &task); err != nil {
		return nil, err
	}
	return &TaskStatus{
		Status:    task.Status.Status,
		Assignees: task.Assignees,
		DueDate:   task.DueDate,
		URL:       task.URL,
		Completed: task.Status.Type == "closed",
	}, nil
}

// UpdateTicketStatus moves a task to a new status, optionally commenting.
func (g *Gateway) UpdateTicketStatus(ctx context.Context, taskID, newStatus, comment string) error {
	if err := g.client.Put(ctx, fmt.Sprintf("/task/%s", taskID), map[string]any{"status": newStatus}, nil); err != nil {
		return err
	}
	if comment != "" {
		payload := map[string]any{"comment_text": comment, "notify_all": true}
		if err := g.client.Post(ctx, fmt.Sprintf("/task/%s/comment", taskID), payload, nil); err != nil {
			return err
		}
	}
	return nil
}

// SyncTickets reads back the status of each task, recording per-task
// failures without aborting the batch.
func (g *Gateway) SyncTickets(ctx context.Context, taskIDs []string) []SyncOutcome {
	outcomes := make([]SyncOutcome, 0, len(taskIDs))
	for _, taskID := range taskIDs {
		status, err := g.GetTicketStatus(ctx, taskID)
		if err != nil {
			outcomes = append(outcomes, SyncOutcome{TaskID: taskID, Synced: false, Error: err.Error(), LastSync: time.Now()})
			continue
		}
		outcomes = append(outcomes, SyncOutcome{TaskID: taskID, Status: status.Status, Synced: true, LastSync: time.Now()})
	}
	return outcomes
}
