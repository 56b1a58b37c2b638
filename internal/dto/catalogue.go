package dto

// SubjectRequest creates or replaces a catalogue subject. Difficulty defaults to Medium and
// Duration 0 means the exam type default applies.
type SubjectRequest struct {
	Code       string `json:"code" validate:"required,max=32"`
	Name       string `json:"name" validate:"required,max=200"`
	Type       string `json:"type" validate:"required,oneof=Theory Practical Internal External Regular"`
	Semester   string `json:"semester" validate:"required,max=32"`
	Difficulty string `json:"difficulty"`
	Duration   int    `json:"duration" validate:"min=0,max=1440"`
}

// SubjectQuery filters the subject catalogue.
type SubjectQuery struct {
	Semester string `form:"semester"`
	Type     string `form:"type"`
}

// RoomRequest creates or replaces a room. ID is only read on create.
type RoomRequest struct {
	ID       string `json:"id" validate:"omitempty,max=64"`
	Name     string `json:"name" validate:"required,max=200"`
	Type     string `json:"type" validate:"required,oneof=Classroom Lab"`
	Capacity int    `json:"capacity" validate:"min=1"`
}

// RoomImportResult summarises a CSV room import.
type RoomImportResult struct {
	Imported int `json:"imported"`
	Updated  int `json:"updated"`
}
