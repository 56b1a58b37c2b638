package scheduler

import (
	"fmt"
	"strings"
)

// FieldError names one invalid configuration field.
type FieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// ConfigurationError is returned for malformed or missing scheduling input. It is never retried.
type ConfigurationError struct {
	Fields []FieldError `json:"fields"`
}

func (e *ConfigurationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Reason)
	}
	return "invalid schedule configuration: " + strings.Join(parts, "; ")
}

// UnassignableReason explains why a subject was rejected before solving.
type UnassignableReason string

const (
	ReasonNoCompatibleRoom    UnassignableReason = "no_compatible_room"
	ReasonExceedsWorkingHours UnassignableReason = "exceeds_working_hours"
)

// UnassignableSubject is a subject the model builder refused to hand to the solver.
type UnassignableSubject struct {
	Code     string             `json:"code"`
	Category Category           `json:"category"`
	Reason   UnassignableReason `json:"reason"`
}

// UnassignableSubjectError lists subjects that cannot be placed in any room or slot.
type UnassignableSubjectError struct {
	Subjects []UnassignableSubject `json:"subjects"`
}

func (e *UnassignableSubjectError) Error() string {
	codes := make([]string, 0, len(e.Subjects))
	for _, s := range e.Subjects {
		codes = append(codes, fmt.Sprintf("%s (%s)", s.Code, s.Reason))
	}
	return "unassignable subjects: " + strings.Join(codes, ", ")
}

// InfeasibleScheduleError means no assignment satisfies every hard constraint.
type InfeasibleScheduleError struct {
	Report InfeasibilityReport `json:"report"`
}

func (e *InfeasibleScheduleError) Error() string {
	msg := fmt.Sprintf("no feasible schedule: %s", e.Report.Cause)
	if len(e.Report.Subjects) > 0 {
		msg += " (subjects: " + strings.Join(e.Report.Subjects, ", ") + ")"
	}
	if e.Report.TimedOut {
		msg += " after time limit"
	}
	return msg
}

// TimeoutPartialError carries a best-effort partial schedule. It is only returned when the
// caller opted in with SolveOptions.AllowPartial.
type TimeoutPartialError struct {
	Result *Result `json:"result"`
}

func (e *TimeoutPartialError) Error() string {
	if e.Result == nil {
		return "time limit reached with a partial schedule"
	}
	return fmt.Sprintf("time limit reached: placed %d of %d subjects",
		len(e.Result.Schedule.Items), len(e.Result.Schedule.Items)+len(e.Result.Unplaced))
}
