package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/sma-exam-scheduler/internal/models"
)

const roomColumns = "id, name, type, capacity, created_at, updated_at"

// RoomRepository persists exam rooms.
type RoomRepository struct {
	db *sqlx.DB
}

// NewRoomRepository constructs the repository.
func NewRoomRepository(db *sqlx.DB) *RoomRepository {
	return &RoomRepository{db: db}
}

// List returns every room ordered by id.
func (r *RoomRepository) List(ctx context.Context) ([]models.Room, error) {
	var rooms []models.Room
	if err := r.db.SelectContext(ctx, &rooms, "SELECT "+roomColumns+" FROM rooms ORDER BY id ASC"); err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	return rooms, nil
}

// FindByIDs loads the rooms with the given ids.
func (r *RoomRepository) FindByIDs(ctx context.Context, ids []string) ([]models.Room, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rooms []models.Room
	query := "SELECT " + roomColumns + " FROM rooms WHERE id = ANY($1) ORDER BY id ASC"
	if err := r.db.SelectContext(ctx, &rooms, query, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("find rooms: %w", err)
	}
	return rooms, nil
}

// FindByID returns a room by id.
func (r *RoomRepository) FindByID(ctx context.Context, id string) (*models.Room, error) {
	var room models.Room
	if err := r.db.GetContext(ctx, &room, "SELECT "+roomColumns+" FROM rooms WHERE id = $1", id); err != nil {
		return nil, err
	}
	return &room, nil
}

// ExistsByName checks uniqueness of a room name, ignoring excludeID when set.
func (r *RoomRepository) ExistsByName(ctx context.Context, name, excludeID string) (bool, error) {
	query := "SELECT 1 FROM rooms WHERE LOWER(name) = LOWER($1)"
	args := []interface{}{name}
	if excludeID != "" {
		query += " AND id <> $2"
		args = append(args, excludeID)
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, query+" LIMIT 1", args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check room name: %w", err)
	}
	return true, nil
}

// Create persists a new room. Rooms keep caller supplied ids such as "R101"; a uuid is assigned otherwise.
func (r *RoomRepository) Create(ctx context.Context, room *models.Room) error {
	if room.ID == "" {
		room.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	room.CreatedAt = now
	room.UpdatedAt = now
	const query = `INSERT INTO rooms (id, name, type, capacity, created_at, updated_at) VALUES (:id, :name, :type, :capacity, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, room); err != nil {
		return fmt.Errorf("create room: %w", err)
	}
	return nil
}

// Update rewrites a room. A missing row yields sql.ErrNoRows.
func (r *RoomRepository) Update(ctx context.Context, room *models.Room) error {
	room.UpdatedAt = time.Now().UTC()
	const query = `UPDATE rooms SET name = :name, type = :type, capacity = :capacity, updated_at = :updated_at WHERE id = :id`
	result, err := r.db.NamedExecContext(ctx, query, room)
	if err != nil {
		return fmt.Errorf("update room: %w", err)
	}
	return requireAffected(result, "update room")
}

// Delete removes a room record.
func (r *RoomRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM rooms WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete room: %w", err)
	}
	return requireAffected(result, "delete room")
}

// CountScheduleItems returns how many saved exam schedule items use the room.
func (r *RoomRepository) CountScheduleItems(ctx context.Context, id string) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM exam_schedule_items WHERE room_id = $1", id); err != nil {
		return 0, fmt.Errorf("count room schedule items: %w", err)
	}
	return count, nil
}

// UpsertByName inserts the room or, when a room with the same name exists, updates its type and
// capacity. It reports whether a new row was inserted and fills room.ID with the stored id.
func (r *RoomRepository) UpsertByName(ctx context.Context, exec sqlx.ExtContext, room *models.Room) (bool, error) {
	if exec == nil {
		exec = r.db
	}
	if room.ID == "" {
		room.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	room.CreatedAt = now
	room.UpdatedAt = now
	const query = `
INSERT INTO rooms (id, name, type, capacity, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (name) DO UPDATE SET type = EXCLUDED.type, capacity = EXCLUDED.capacity, updated_at = EXCLUDED.updated_at
RETURNING id, (xmax = 0) AS inserted`
	var inserted bool
	row := exec.QueryRowxContext(ctx, query, room.ID, room.Name, room.Type, room.Capacity, room.CreatedAt, room.UpdatedAt)
	if err := row.Scan(&room.ID, &inserted); err != nil {
		return false, fmt.Errorf("upsert room %s: %w", room.Name, err)
	}
	return inserted, nil
}
