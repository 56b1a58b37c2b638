package scheduler

import (
	"fmt"
	"sort"
	"time"
)

const (
	// DefaultExamDurationMinutes applies when neither the subject nor its category sets a duration.
	DefaultExamDurationMinutes = 120
	// DefaultHorizonDays caps how many working days the calendar may be extended to.
	DefaultHorizonDays = 30
)

// WorkingHours is the daily window exams must fit into.
type WorkingHours struct {
	Start Clock `json:"start"`
	End   Clock `json:"end"`
}

// Minutes returns the window length.
func (w WorkingHours) Minutes() int {
	return int(w.End - w.Start)
}

// Config is the immutable snapshot a scheduling run works from.
type Config struct {
	Semester             string           `json:"semester,omitempty"`
	ExamCategory         Category         `json:"examCategory,omitempty"`
	StartDate            time.Time        `json:"startDate"`
	WorkingHours         WorkingHours     `json:"workingHours"`
	ExamDurations        map[Category]int `json:"examDurations,omitempty"`
	BreakMinutes         int              `json:"breakMinutes"`
	SkipSundays          bool             `json:"skipSundays"`
	HighGapDays          int              `json:"highGapDays"`
	MediumGapDays        int              `json:"mediumGapDays,omitempty"`
	AllowMultiplePerRoom bool             `json:"allowMultiplePerRoom"`
	HorizonDays          int              `json:"horizonDays,omitempty"`
}

// Validate checks every field and reports all problems at once.
func (c Config) Validate() error {
	var fields []FieldError
	add := func(field, reason string) {
		fields = append(fields, FieldError{Field: field, Reason: reason})
	}

	if c.StartDate.IsZero() {
		add("startDate", "required")
	}
	if c.WorkingHours.Start < 0 || c.WorkingHours.Start > minutesPerDay {
		add("workingHours.start", "must be within 00:00-24:00")
	}
	if c.WorkingHours.End < 0 || c.WorkingHours.End > minutesPerDay {
		add("workingHours.end", "must be within 00:00-24:00")
	}
	if c.WorkingHours.End <= c.WorkingHours.Start {
		add("workingHours", "end must be after start")
	}
	if c.ExamCategory != "" && !c.ExamCategory.Valid() {
		add("examCategory", fmt.Sprintf("unknown category %q", c.ExamCategory))
	}

	categories := make([]string, 0, len(c.ExamDurations))
	for category := range c.ExamDurations {
		categories = append(categories, string(category))
	}
	sort.Strings(categories)
	for _, name := range categories {
		category := Category(name)
		if !category.Valid() {
			add("examDurations."+name, "unknown category")
			continue
		}
		if c.ExamDurations[category] < 0 {
			add("examDurations."+name, "must not be negative")
		}
	}

	if c.BreakMinutes < 0 {
		add("breakMinutes", "must not be negative")
	}
	if c.HighGapDays < 0 {
		add("highGapDays", "must not be negative")
	}
	if c.MediumGapDays < 0 {
		add("mediumGapDays", "must not be negative")
	}
	if c.HorizonDays < 0 {
		add("horizonDays", "must not be negative")
	}

	if len(fields) > 0 {
		return &ConfigurationError{Fields: fields}
	}
	return nil
}

// ExamDuration resolves the slot length for a category, falling back to DefaultExamDurationMinutes.
func (c Config) ExamDuration(category Category) int {
	if minutes := c.ExamDurations[category]; minutes > 0 {
		return minutes
	}
	return DefaultExamDurationMinutes
}

// SubjectDuration resolves how long a subject's exam runs.
func (c Config) SubjectDuration(s Subject) int {
	if s.DurationMinutes > 0 {
		return s.DurationMinutes
	}
	return c.ExamDuration(s.Category)
}

// Horizon returns the maximum number of working days the solver may use.
func (c Config) Horizon() int {
	if c.HorizonDays > 0 {
		return c.HorizonDays
	}
	return DefaultHorizonDays
}

func (c Config) gapFor(d Difficulty) int {
	switch d {
	case DifficultyHigh:
		return c.HighGapDays
	case DifficultyMedium:
		return c.MediumGapDays
	}
	return 0
}
