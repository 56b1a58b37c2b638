package scheduler

import "time"

// Calendar produces working days and the exam slots inside them. It holds no mutable state,
// so one value can serve concurrent callers.
type Calendar struct {
	start        time.Time
	skipSundays  bool
	hours        WorkingHours
	breakMinutes int
}

// NewCalendar builds a calendar from the config snapshot.
func NewCalendar(cfg Config) *Calendar {
	return &Calendar{
		start:        DateOf(cfg.StartDate),
		skipSundays:  cfg.SkipSundays,
		hours:        cfg.WorkingHours,
		breakMinutes: cfg.BreakMinutes,
	}
}

// Cursor walks working days forward from a date. The sequence never ends.
type Cursor struct {
	next        time.Time
	skipSundays bool
}

// Cursor restarts the day sequence at from (inclusive).
func (c *Calendar) Cursor(from time.Time) *Cursor {
	return &Cursor{next: DateOf(from), skipSundays: c.skipSundays}
}

// Next returns the next working day.
func (c *Cursor) Next() time.Time {
	for c.skipSundays && c.next.Weekday() == time.Sunday {
		c.next = c.next.AddDate(0, 0, 1)
	}
	day := c.next
	c.next = c.next.AddDate(0, 0, 1)
	return day
}

// Dates materializes the first n working days from the calendar start.
func (c *Calendar) Dates(n int) []time.Time {
	if n <= 0 {
		return nil
	}
	cur := c.Cursor(c.start)
	dates := make([]time.Time, n)
	for i := range dates {
		dates[i] = cur.Next()
	}
	return dates
}

// Starts partitions the working window into slot start times for exams of the given length.
// A trailing period shorter than the exam is dropped.
func (c *Calendar) Starts(durationMinutes int) []Clock {
	if durationMinutes <= 0 {
		durationMinutes = DefaultExamDurationMinutes
	}
	step := Clock(durationMinutes + c.breakMinutes)
	var starts []Clock
	for t := c.hours.Start; t+Clock(durationMinutes) <= c.hours.End; t += step {
		starts = append(starts, t)
	}
	return starts
}

// SlotsOn lists the slots of one date for exams of the given length.
func (c *Calendar) SlotsOn(date time.Time, durationMinutes int) []Slot {
	if durationMinutes <= 0 {
		durationMinutes = DefaultExamDurationMinutes
	}
	date = DateOf(date)
	starts := c.Starts(durationMinutes)
	slots := make([]Slot, 0, len(starts))
	for _, s := range starts {
		slots = append(slots, Slot{Date: date, Start: s, End: s + Clock(durationMinutes)})
	}
	return slots
}

// BuildSlots returns the ordered slots of the first days working days from startDate for an
// exam category.
func BuildSlots(startDate time.Time, cfg Config, category Category, days int) []Slot {
	cfg.StartDate = startDate
	cal := NewCalendar(cfg)
	duration := cfg.ExamDuration(category)
	var slots []Slot
	for _, date := range cal.Dates(days) {
		slots = append(slots, cal.SlotsOn(date, duration)...)
	}
	return slots
}
