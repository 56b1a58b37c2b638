package models

import "time"

// Subject is an examinable subject row.
type Subject struct {
	ID         string    `db:"id" json:"id"`
	Code       string    `db:"code" json:"code"`
	Name       string    `db:"name" json:"name"`
	Type       string    `db:"type" json:"type"`
	Semester   string    `db:"semester" json:"semester"`
	Difficulty string    `db:"difficulty" json:"difficulty"`
	Duration   int       `db:"duration" json:"duration"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// SubjectFilter narrows the subjects loaded for a generation run. Empty fields match everything.
type SubjectFilter struct {
	Semester string
	Type     string
}
