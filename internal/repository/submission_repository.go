package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/why-platform/buzon-service/internal/domain"
)

// SubmissionRecord is the archived form of an accepted submission.
type SubmissionRecord struct {
	TicketID    string             `json:"ticketId"`
	Type        domain.MessageType `json:"tipo"`
	Category    domain.Category    `json:"categoria"`
	Department  string             `json:"departamento"`
	Priority    domain.Priority    `json:"prioridad"`
	Body        string             `json:"mensaje"`
	Name        *string            `json:"nombre,omitempty"`
	Email       *string            `json:"email,omitempty"`
	Company     *string            `json:"empresa,omitempty"`
	SLAHours    int                `json:"sla_hours"`
	SLADueDate  time.Time          `json:"sla_due_date"`
	RiskLevel   domain.RiskLevel   `json:"risk_level"`
	ClickUpTask *string            `json:"clickup_task_id,omitempty"`
	CreatedAt   time.Time          `json:"created_at"`
}

// SubmissionRepository archives accepted submissions for reporting.
type SubmissionRepository interface {
	Archive(ctx context.Context, record *SubmissionRecord) error
	GetByTicketID(ctx context.Context, ticketID string) (*SubmissionRecord, error)
	ListRecent(ctx context.Context, limit int) ([]SubmissionRecord, error)
}

type submissionRepository struct {
	pool *pgxpool.Pool
}

// NewSubmissionRepository instantiates repository.
func NewSubmissionRepository(pool *pgxpool.Pool) SubmissionRepository {
	return &submissionRepository{pool: pool}
}

func (r *submissionRepository) Archive(ctx context.Context, record *SubmissionRecord) error {
	const query = `
        INSERT INTO submissions (ticket_id, tipo, categoria, departamento, prioridad, mensaje, nombre, email, empresa, sla_hours, sla_due_date, risk_level, clickup_task_id)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
        ON CONFLICT (ticket_id) DO UPDATE SET clickup_task_id = EXCLUDED.clickup_task_id
        RETURNING created_at`
	return r.pool.QueryRow(ctx, query,
		record.TicketID,
		record.Type,
		record.Category,
		record.Department,
		record.Priority,
		record.Body,
		record.Name,
		record.Email,
		record.Company,
		record.SLAHours,
		record.SLADueDate,
		record.RiskLevel,
		record.ClickUpTask,
	).Scan(&record.CreatedAt)
}

func (r *submissionRepository) GetByTicketID(ctx context.Context, ticketID string) (*SubmissionRecord, error) {
	const query = `
        SELECT ticket_id, tipo, categoria, departamento, prioridad, mensaje, nombre, email, empresa, sla_hours, sla_due_date, risk_level, clickup_task_id, created_at
        FROM submissions WHERE ticket_id = $1`
	record := &SubmissionRecord{}
	err := r.pool.QueryRow(ctx, query, ticketID).Scan(
		&record.TicketID,
		&record.Type,
		&record.Category,
		&record.Department,
		&record.Priority,
		&record.Body,
		&record.Name,
		&record.Email,
		&record.Company,
		&record.SLAHours,
		&record.SLADueDate,
		&record.RiskLevel,
		&record.ClickUpTask,
		&record.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return record, nil
}

func (r *submissionRepository) ListRecent(ctx context.Context, limit int) ([]SubmissionRecord, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	const query = `
        SELECT ticket_id, tipo, categoria, departamento, prioridad, mensaje, nombre, email, empresa, sla_hours, sla_due_date, risk_level, clickup_task_id, created_at
        FROM submissions ORDER BY created_at DESC LIMIT $1`
	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := []SubmissionRecord{}
	for rows.Next() {
		record := SubmissionRecord{}
		if err := rows.Scan(
			&record.TicketID,
			&record.Type,
			&record.Category,
			&record.Department,
			&record.Priority,
			&record.Body,
			&record.Name,
			&record.Email,
			&record.Company,
			&record.SLAHours,
			&record.SLADueDate,
			&record.RiskLevel,
			&record.ClickUpTask,
			&record.CreatedAt,
		); err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}
