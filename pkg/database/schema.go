package database

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// schema creates the exam scheduling tables. Items belong to their schedule and go with it.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS subjects (
		id TEXT PRIMARY KEY,
		code TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		type TEXT NOT NULL,
		semester TEXT NOT NULL,
		difficulty TEXT NOT NULL DEFAULT 'Medium',
		duration INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS rooms (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		type TEXT NOT NULL,
		capacity INTEGER NOT NULL DEFAULT 0 CHECK (capacity >= 0),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS exam_schedules (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		semester TEXT NOT NULL DEFAULT '',
		exam_type TEXT NOT NULL DEFAULT '',
		start_date DATE NOT NULL,
		config JSONB NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS exam_schedule_items (
		id TEXT PRIMARY KEY,
		schedule_id TEXT NOT NULL REFERENCES exam_schedules(id) ON DELETE CASCADE,
		subject_id TEXT NOT NULL REFERENCES subjects(id),
		room_id TEXT NOT NULL REFERENCES rooms(id),
		exam_date DATE NOT NULL,
		start_time TEXT NOT NULL,
		end_time TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_exam_schedule_items_schedule ON exam_schedule_items(schedule_id)`,
}

// EnsureSchema applies every DDL statement inside one transaction.
func EnsureSchema(ctx context.Context, db *sqlx.DB) (err error) {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, stmt := range schema {
		if _, err = tx.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return tx.Commit()
}
