package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-exam-scheduler/internal/models"
)

const itemDetailQuery = `
SELECT i.id, i.schedule_id, i.subject_id, i.room_id, i.exam_date, i.start_time, i.end_time, i.created_at, i.updated_at,
	s.code AS subject_code, s.name AS subject_name, s.type AS subject_type, s.semester AS subject_semester,
	s.difficulty AS subject_difficulty, s.duration AS subject_duration,
	r.name AS room_name, r.type AS room_type, r.capacity AS room_capacity
FROM exam_schedule_items i
JOIN subjects s ON s.id = i.subject_id
JOIN rooms r ON r.id = i.room_id`

// ExamScheduleItemRepository persists the items of saved schedules.
type ExamScheduleItemRepository struct {
	db *sqlx.DB
}

// NewExamScheduleItemRepository constructs repository.
func NewExamScheduleItemRepository(db *sqlx.DB) *ExamScheduleItemRepository {
	return &ExamScheduleItemRepository{db: db}
}

// CreateBatch inserts items inside the provided executor (usually a transaction).
func (r *ExamScheduleItemRepository) CreateBatch(ctx context.Context, exec sqlx.ExtContext, items []models.ExamScheduleItem) error {
	if len(items) == 0 {
		return nil
	}
	if exec == nil {
		exec = r.db
	}
	now := time.Now().UTC()
	const query = `
INSERT INTO exam_schedule_items (id, schedule_id, subject_id, room_id, exam_date, start_time, end_time, created_at, updated_at)
VALUES (:id, :schedule_id, :subject_id, :room_id, :exam_date, :start_time, :end_time, :created_at, :updated_at)`
	for i := range items {
		item := &items[i]
		if item.ID == "" {
			item.ID = uuid.NewString()
		}
		item.CreatedAt = now
		item.UpdatedAt = now
		if _, err := sqlx.NamedExecContext(ctx, exec, query, item); err != nil {
			return fmt.Errorf("insert exam schedule item %s: %w", item.SubjectID, err)
		}
	}
	return nil
}

// ListDetailed returns the items of a schedule joined with subject and room, in calendar order.
func (r *ExamScheduleItemRepository) ListDetailed(ctx context.Context, scheduleID string) ([]models.ExamScheduleItemDetail, error) {
	query := itemDetailQuery + `
WHERE i.schedule_id = $1
ORDER BY i.exam_date ASC, i.start_time ASC, i.room_id ASC, s.code ASC`
	var items []models.ExamScheduleItemDetail
	if err := r.db.SelectContext(ctx, &items, query, scheduleID); err != nil {
		return nil, fmt.Errorf("list exam schedule items: %w", err)
	}
	return items, nil
}

// Update moves an item to a new room, date and time.
func (r *ExamScheduleItemRepository) Update(ctx context.Context, item *models.ExamScheduleItem) error {
	item.UpdatedAt = time.Now().UTC()
	const query = `
UPDATE exam_schedule_items
SET room_id = :room_id, exam_date = :exam_date, start_time = :start_time, end_time = :end_time, updated_at = :updated_at
WHERE id = :id AND schedule_id = :schedule_id`
	result, err := r.db.NamedExecContext(ctx, query, item)
	if err != nil {
		return fmt.Errorf("update exam schedule item: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("exam schedule item rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes one item of a schedule. A missing item yields sql.ErrNoRows.
func (r *ExamScheduleItemRepository) Delete(ctx context.Context, scheduleID, itemID string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM exam_schedule_items WHERE id = $1 AND schedule_id = $2`, itemID, scheduleID)
	if err != nil {
		return fmt.Errorf("delete exam schedule item: %w", err)
	}
	return requireAffected(result, "delete exam schedule item")
}
