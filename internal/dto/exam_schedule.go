package dto

import (
	"time"

	"github.com/noah-isme/sma-exam-scheduler/internal/scheduler"
)

// WorkingHoursRequest is the daily exam window as "HH:MM" strings.
type WorkingHoursRequest struct {
	Start string `json:"start" validate:"required"`
	End   string `json:"end" validate:"required"`
}

// ScheduleConfigRequest carries the user-facing schedule configuration.
type ScheduleConfigRequest struct {
	Semester             string              `json:"semester"`
	ExamType             string              `json:"examType" validate:"omitempty,oneof=Theory Practical Internal External Regular"`
	StartDate            string              `json:"startDate" validate:"required"`
	WorkingHours         WorkingHoursRequest `json:"workingHours"`
	ExamDurations        map[string]int      `json:"examDurations" validate:"omitempty,dive,min=0"`
	BreakMinutes         int                 `json:"breakMinutes" validate:"min=0"`
	SkipSundays          bool                `json:"skipSundays"`
	HighGapDays          int                 `json:"highGapDays" validate:"min=0"`
	MediumGapDays        int                 `json:"mediumGapDays" validate:"min=0"`
	AllowMultiplePerRoom bool                `json:"allowMultiplePerRoom"`
	HorizonDays          int                 `json:"horizonDays" validate:"omitempty,min=1,max=366"`
}

// SubjectInput describes a subject supplied inline instead of loaded from storage.
type SubjectInput struct {
	Code            string `json:"code" validate:"required"`
	Name            string `json:"name"`
	Category        string `json:"category" validate:"required"`
	Semester        string `json:"semester" validate:"required"`
	Difficulty      string `json:"difficulty"`
	DurationMinutes int    `json:"durationMinutes" validate:"min=0"`
}

// RoomInput describes a room supplied inline.
type RoomInput struct {
	ID       string `json:"id" validate:"required"`
	Name     string `json:"name"`
	Category string `json:"category" validate:"required,oneof=Classroom Lab"`
	Capacity int    `json:"capacity" validate:"min=0"`
}

// GenerateExamScheduleRequest asks for a schedule proposal. Subjects and rooms default to the
// stored catalogue when omitted.
type GenerateExamScheduleRequest struct {
	Config              ScheduleConfigRequest `json:"config"`
	Subjects            []SubjectInput        `json:"subjects" validate:"omitempty,dive"`
	Rooms               []RoomInput           `json:"rooms" validate:"omitempty,dive"`
	TimeLimitSeconds    int                   `json:"timeLimitSeconds" validate:"omitempty,min=1"`
	AllowPartial        bool                  `json:"allowPartial"`
	AbortOnUnassignable *bool                 `json:"abortOnUnassignable"`
}

// ExamScheduleItemView is the flattened representation of one scheduled exam.
type ExamScheduleItemView struct {
	ID           string `json:"id,omitempty"`
	SubjectCode  string `json:"subjectCode"`
	SubjectName  string `json:"subjectName"`
	Category     string `json:"category"`
	Semester     string `json:"semester"`
	Difficulty   string `json:"difficulty"`
	RoomID       string `json:"roomId"`
	RoomName     string `json:"roomName"`
	RoomCategory string `json:"roomCategory"`
	Date         string `json:"date"`
	StartTime    string `json:"startTime"`
	EndTime      string `json:"endTime"`
}

// GenerateExamScheduleResponse returns a generated proposal.
type GenerateExamScheduleResponse struct {
	ProposalID   string                          `json:"proposalId,omitempty"`
	Status       scheduler.Status                `json:"status"`
	DaysUsed     int                             `json:"daysUsed"`
	IdleMinutes  int                             `json:"idleMinutes"`
	Horizon      int                             `json:"horizon"`
	Items        []ExamScheduleItemView          `json:"items"`
	Unassignable []scheduler.UnassignableSubject `json:"unassignable,omitempty"`
	Unplaced     []string                        `json:"unplaced,omitempty"`
	Nodes        int64                           `json:"nodes"`
	ElapsedMs    int64                           `json:"elapsedMs"`
	ExpiresAt    *time.Time                      `json:"expiresAt,omitempty"`
}

// GenerateJobResponse acknowledges an asynchronous generation request.
type GenerateJobResponse struct {
	JobID     string `json:"jobId"`
	StatusURL string `json:"statusUrl"`
}

// SaveExamScheduleRequest persists a proposal under a display name.
type SaveExamScheduleRequest struct {
	ProposalID string `json:"proposalId" validate:"required"`
	Name       string `json:"name" validate:"required,max=200"`
}

// ExamScheduleQuery filters saved schedules.
type ExamScheduleQuery struct {
	Semester string `form:"semester" json:"semester"`
	ExamType string `form:"examType" json:"examType"`
}

// UpdateExamScheduleItemRequest moves an item. EndTime defaults to start plus the exam duration.
type UpdateExamScheduleItemRequest struct {
	RoomID    string `json:"roomId" validate:"required"`
	Date      string `json:"date" validate:"required"`
	StartTime string `json:"startTime" validate:"required"`
	EndTime   string `json:"endTime"`
}

// CreateExamScheduleItemRequest adds a catalogue subject to a saved schedule by hand. EndTime
// defaults to start plus the exam duration.
type CreateExamScheduleItemRequest struct {
	SubjectCode string `json:"subjectCode" validate:"required"`
	RoomID      string `json:"roomId" validate:"required"`
	Date        string `json:"date" validate:"required"`
	StartTime   string `json:"startTime" validate:"required"`
	EndTime     string `json:"endTime"`
}

// UpdateExamScheduleItemResponse returns the added or edited item and the conflicts the change left behind.
type UpdateExamScheduleItemResponse struct {
	Item      ExamScheduleItemView    `json:"item"`
	Tags      []scheduler.ConflictTag `json:"tags"`
	Conflicts ConflictCheckResponse   `json:"conflicts"`
}

// SubmittedItem is a hand-edited item checked without touching storage.
type SubmittedItem struct {
	Subject   SubjectInput `json:"subject"`
	Room      RoomInput    `json:"room"`
	Date      string       `json:"date" validate:"required"`
	StartTime string       `json:"startTime" validate:"required"`
	EndTime   string       `json:"endTime" validate:"required"`
}

// DetectConflictsRequest submits a schedule for re-validation.
type DetectConflictsRequest struct {
	Config ScheduleConfigRequest `json:"config"`
	Items  []SubmittedItem       `json:"items" validate:"required,min=1,dive"`
}

// ConflictCheckResponse reports the violated constraints per item.
type ConflictCheckResponse struct {
	Clean bool                      `json:"clean"`
	Items []scheduler.ItemConflicts `json:"items"`
}

// ExportQuery selects the export format.
type ExportQuery struct {
	Format string `form:"format" validate:"omitempty,oneof=csv pdf"`
}
