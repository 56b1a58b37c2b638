package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// ExamSchedule is a saved exam timetable together with the configuration it was generated from.
type ExamSchedule struct {
	ID        string         `db:"id" json:"id"`
	Name      string         `db:"name" json:"name"`
	Semester  string         `db:"semester" json:"semester"`
	ExamType  string         `db:"exam_type" json:"exam_type"`
	StartDate time.Time      `db:"start_date" json:"start_date"`
	Config    types.JSONText `db:"config" json:"config"`
	CreatedAt time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt time.Time      `db:"updated_at" json:"updated_at"`
}

// ExamScheduleFilter captures list filters. Empty fields match everything.
type ExamScheduleFilter struct {
	Semester string
	ExamType string
}

// ExamScheduleItem is one subject placed in a room at a date and time.
type ExamScheduleItem struct {
	ID         string    `db:"id" json:"id"`
	ScheduleID string    `db:"schedule_id" json:"schedule_id"`
	SubjectID  string    `db:"subject_id" json:"subject_id"`
	RoomID     string    `db:"room_id" json:"room_id"`
	ExamDate   time.Time `db:"exam_date" json:"exam_date"`
	StartTime  string    `db:"start_time" json:"start_time"`
	EndTime    string    `db:"end_time" json:"end_time"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// ExamScheduleItemDetail joins an item with its subject and room.
type ExamScheduleItemDetail struct {
	ExamScheduleItem
	SubjectCode       string `db:"subject_code" json:"subject_code"`
	SubjectName       string `db:"subject_name" json:"subject_name"`
	SubjectType       string `db:"subject_type" json:"subject_type"`
	SubjectSemester   string `db:"subject_semester" json:"subject_semester"`
	SubjectDifficulty string `db:"subject_difficulty" json:"subject_difficulty"`
	SubjectDuration   int    `db:"subject_duration" json:"subject_duration"`
	RoomName          string `db:"room_name" json:"room_name"`
	RoomType          string `db:"room_type" json:"room_type"`
	RoomCapacity      int    `db:"room_capacity" json:"room_capacity"`
}
