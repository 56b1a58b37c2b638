package scheduler

import (
	"fmt"
	"strings"
	"time"
)

// Category classifies an exam subject.
type Category string

const (
	CategoryTheory    Category = "Theory"
	CategoryPractical Category = "Practical"
	CategoryInternal  Category = "Internal"
	CategoryExternal  Category = "External"
	CategoryRegular   Category = "Regular"
)

// Valid reports whether c is one of the known subject categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryTheory, CategoryPractical, CategoryInternal, CategoryExternal, CategoryRegular:
		return true
	}
	return false
}

// RoomCategory classifies a room.
type RoomCategory string

const (
	RoomClassroom RoomCategory = "Classroom"
	RoomLab       RoomCategory = "Lab"
)

// Valid reports whether rc is a known room category.
func (rc RoomCategory) Valid() bool {
	return rc == RoomClassroom || rc == RoomLab
}

// RoomCategoryFor returns the only room category a subject category may sit in.
func RoomCategoryFor(c Category) (RoomCategory, bool) {
	switch c {
	case CategoryTheory, CategoryInternal, CategoryExternal, CategoryRegular:
		return RoomClassroom, true
	case CategoryPractical:
		return RoomLab, true
	}
	return "", false
}

// Difficulty ranks how demanding an exam is.
type Difficulty string

const (
	DifficultyLow    Difficulty = "Low"
	DifficultyMedium Difficulty = "Medium"
	DifficultyHigh   Difficulty = "High"
)

// ParseDifficulty accepts the canonical names and the legacy "Easy" and "Hard" spellings used by
// older subject catalogues.
func ParseDifficulty(raw string) (Difficulty, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "low", "easy":
		return DifficultyLow, nil
	case "medium":
		return DifficultyMedium, nil
	case "high", "hard":
		return DifficultyHigh, nil
	}
	return "", fmt.Errorf("unknown difficulty %q", raw)
}

// Valid reports whether d is a canonical difficulty.
func (d Difficulty) Valid() bool {
	return d == DifficultyLow || d == DifficultyMedium || d == DifficultyHigh
}

// rank orders difficulties hardest first.
func (d Difficulty) rank() int {
	switch d {
	case DifficultyHigh:
		return 0
	case DifficultyMedium:
		return 1
	}
	return 2
}

// Subject is an examinable unit.
type Subject struct {
	Code            string     `json:"code"`
	Name            string     `json:"name"`
	Category        Category   `json:"category"`
	Semester        string     `json:"semester"`
	Difficulty      Difficulty `json:"difficulty"`
	DurationMinutes int        `json:"durationMinutes"`
}

// Room is a bookable exam venue.
type Room struct {
	ID       string       `json:"id"`
	Name     string       `json:"name"`
	Category RoomCategory `json:"category"`
	Capacity int          `json:"capacity"`
}

// Clock is a time of day expressed in minutes after midnight.
type Clock int

const minutesPerDay = 24 * 60

var clockLayouts = []string{"15:04", "15:04:05", "03:04 PM", "3:04 PM", "03:04PM"}

// ParseClock reads "HH:MM" or the 12-hour "HH:MM AM" form.
func ParseClock(raw string) (Clock, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range clockLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return Clock(t.Hour()*60 + t.Minute()), nil
		}
	}
	if raw == "24:00" {
		return Clock(minutesPerDay), nil
	}
	return 0, fmt.Errorf("invalid time of day %q", raw)
}

// MustClock is ParseClock for literals.
func MustClock(raw string) Clock {
	c, err := ParseClock(raw)
	if err != nil {
		panic(err)
	}
	return c
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}

// MarshalText renders the clock as "HH:MM".
func (c Clock) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText parses "HH:MM".
func (c *Clock) UnmarshalText(text []byte) error {
	parsed, err := ParseClock(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Slot is a concrete bookable exam period.
type Slot struct {
	Date  time.Time `json:"date"`
	Start Clock     `json:"start"`
	End   Clock     `json:"end"`
}

// StartTime returns the absolute start instant.
func (s Slot) StartTime() time.Time {
	return s.Date.Add(time.Duration(s.Start) * time.Minute)
}

// EndTime returns the absolute end instant.
func (s Slot) EndTime() time.Time {
	return s.Date.Add(time.Duration(s.End) * time.Minute)
}

// Overlaps reports whether two slots share any instant.
func (s Slot) Overlaps(other Slot) bool {
	return s.StartTime().Before(other.EndTime()) && other.StartTime().Before(s.EndTime())
}

func (s Slot) String() string {
	return fmt.Sprintf("%s %s-%s", s.Date.Format(DateLayout), s.Start, s.End)
}

// ScheduleItem places one subject in one room at one slot.
type ScheduleItem struct {
	Subject Subject `json:"subject"`
	Room    Room    `json:"room"`
	Slot    Slot    `json:"slot"`
}

// Schedule is an ordered set of items generated from one config snapshot.
type Schedule struct {
	Config Config         `json:"config"`
	Items  []ScheduleItem `json:"items"`
}

// DateLayout is the canonical date format at the boundary.
const DateLayout = "2006-01-02"

// DateOf truncates t to midnight UTC of its calendar date.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate reads a YYYY-MM-DD date (DD-MM-YYYY is accepted for legacy exports).
func ParseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range []string{DateLayout, "02-01-2006"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return DateOf(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", raw)
}

// dayOrdinal counts calendar days from base to date.
func dayOrdinal(base, date time.Time) int {
	return int(DateOf(date).Sub(DateOf(base)).Hours() / 24)
}

// workdayDistance counts the working days after from up to and including to. Skipped Sundays
// are not counted, so Saturday to Monday is one day apart when Sundays are skipped.
func workdayDistance(from, to time.Time, skipSundays bool) int {
	from, to = DateOf(from), DateOf(to)
	if to.Before(from) {
		return -workdayDistance(to, from, skipSundays)
	}
	n := dayOrdinal(from, to)
	if !skipSundays {
		return n
	}
	sundays := n / 7
	first := (int(from.Weekday()) + 1) % 7
	if untilSunday := (7 - first) % 7; untilSunday < n%7 {
		sundays++
	}
	return n - sundays
}
