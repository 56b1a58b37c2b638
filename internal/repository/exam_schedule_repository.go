package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"

	"github.com/noah-isme/sma-exam-scheduler/internal/models"
)

const examScheduleColumns = "id, name, semester, exam_type, start_date, config, created_at, updated_at"

// ExamScheduleRepository persists saved exam schedules.
type ExamScheduleRepository struct {
	db *sqlx.DB
}

// NewExamScheduleRepository constructs repository.
func NewExamScheduleRepository(db *sqlx.DB) *ExamScheduleRepository {
	return &ExamScheduleRepository{db: db}
}

func (r *ExamScheduleRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// Create inserts a schedule header, optionally inside the caller's transaction.
func (r *ExamScheduleRepository) Create(ctx context.Context, exec sqlx.ExtContext, schedule *models.ExamSchedule) error {
	if schedule == nil {
		return fmt.Errorf("exam schedule payload is nil")
	}
	if schedule.Name == "" {
		return fmt.Errorf("exam schedule name is required")
	}
	if schedule.ID == "" {
		schedule.ID = uuid.NewString()
	}
	if len(schedule.Config) == 0 {
		schedule.Config = types.JSONText(`{}`)
	}
	now := time.Now().UTC()
	if schedule.CreatedAt.IsZero() {
		schedule.CreatedAt = now
	}
	schedule.UpdatedAt = now

	const query = `
INSERT INTO exam_schedules (id, name, semester, exam_type, start_date, config, created_at, updated_at)
VALUES (:id, :name, :semester, :exam_type, :start_date, :config, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, schedule); err != nil {
		return fmt.Errorf("insert exam schedule: %w", err)
	}
	return nil
}

// List returns saved schedules, newest first.
func (r *ExamScheduleRepository) List(ctx context.Context, filter models.ExamScheduleFilter) ([]models.ExamSchedule, error) {
	var conditions []string
	var args []interface{}
	if filter.Semester != "" {
		args = append(args, filter.Semester)
		conditions = append(conditions, fmt.Sprintf("semester = $%d", len(args)))
	}
	if filter.ExamType != "" {
		args = append(args, filter.ExamType)
		conditions = append(conditions, fmt.Sprintf("exam_type = $%d", len(args)))
	}
	query := "SELECT " + examScheduleColumns + " FROM exam_schedules"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC"

	var schedules []models.ExamSchedule
	if err := r.db.SelectContext(ctx, &schedules, query, args...); err != nil {
		return nil, fmt.Errorf("list exam schedules: %w", err)
	}
	return schedules, nil
}

// FindByID loads a schedule by its identifier.
func (r *ExamScheduleRepository) FindByID(ctx context.Context, id string) (*models.ExamSchedule, error) {
	var schedule models.ExamSchedule
	if err := r.db.GetContext(ctx, &schedule, "SELECT "+examScheduleColumns+" FROM exam_schedules WHERE id = $1", id); err != nil {
		return nil, err
	}
	return &schedule, nil
}

// Delete removes a schedule; its items go with it through the foreign key cascade.
func (r *ExamScheduleRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM exam_schedules WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete exam schedule: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("exam schedule rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
