package scheduler

import (
	"fmt"
	"sort"
	"time"
)

// BuildOptions controls how the model builder treats subjects that can never be placed.
type BuildOptions struct {
	AbortOnUnassignable bool
}

// Model is the solvable form of one scheduling request. It is read-only once built.
type Model struct {
	cfg          Config
	calendar     *Calendar
	subjects     []Subject
	rooms        []Room
	vars         []variable
	semesters    []string
	semTotal     []int
	unassignable []UnassignableSubject
}

// variable is one subject to place. Its domain is rooms x days x starts.
type variable struct {
	subject    int
	duration   int
	rooms      []int
	starts     []Clock
	semester   int
	gap        int
	difficulty Difficulty
	roomKind   RoomCategory
}

// value is one candidate placement for a variable.
type value struct {
	room    int
	day     int
	ordinal int
	pos     int
	start   int
	end     int
}

type clashKind uint8

const (
	clashRoom clashKind = 1 << iota
	clashSemester
	clashGap
)

// BuildModel validates the inputs, filters subjects by the config's semester and exam category
// and fixes the variable and value orderings.
func BuildModel(subjects []Subject, rooms []Room, cfg Config, opts BuildOptions) (*Model, error) {
	if err := validateInputs(subjects, rooms, cfg); err != nil {
		return nil, err
	}
	cfg.StartDate = DateOf(cfg.StartDate)

	m := &Model{cfg: cfg, calendar: NewCalendar(cfg)}

	m.rooms = append([]Room(nil), rooms...)
	sort.SliceStable(m.rooms, func(i, j int) bool { return m.rooms[i].ID < m.rooms[j].ID })

	selected := make([]Subject, 0, len(subjects))
	for _, s := range subjects {
		if cfg.Semester != "" && s.Semester != cfg.Semester {
			continue
		}
		if cfg.ExamCategory != "" && s.Category != cfg.ExamCategory {
			continue
		}
		if d, err := ParseDifficulty(string(s.Difficulty)); err == nil {
			s.Difficulty = d
		}
		selected = append(selected, s)
	}
	sort.SliceStable(selected, func(i, j int) bool {
		a, b := selected[i], selected[j]
		if a.Semester != b.Semester {
			return a.Semester < b.Semester
		}
		if a.Difficulty.rank() != b.Difficulty.rank() {
			return a.Difficulty.rank() < b.Difficulty.rank()
		}
		return a.Code < b.Code
	})

	semIndex := map[string]int{}
	for _, s := range selected {
		kind, _ := RoomCategoryFor(s.Category)
		var compatible []int
		for idx, r := range m.rooms {
			if r.Category == kind {
				compatible = append(compatible, idx)
			}
		}
		if len(compatible) == 0 {
			m.unassignable = append(m.unassignable, UnassignableSubject{Code: s.Code, Category: s.Category, Reason: ReasonNoCompatibleRoom})
			continue
		}
		duration := cfg.SubjectDuration(s)
		starts := m.calendar.Starts(duration)
		if len(starts) == 0 {
			m.unassignable = append(m.unassignable, UnassignableSubject{Code: s.Code, Category: s.Category, Reason: ReasonExceedsWorkingHours})
			continue
		}

		sem, ok := semIndex[s.Semester]
		if !ok {
			sem = len(m.semesters)
			semIndex[s.Semester] = sem
			m.semesters = append(m.semesters, s.Semester)
			m.semTotal = append(m.semTotal, 0)
		}
		m.semTotal[sem] += duration

		m.subjects = append(m.subjects, s)
		m.vars = append(m.vars, variable{
			subject:    len(m.subjects) - 1,
			duration:   duration,
			rooms:      compatible,
			starts:     starts,
			semester:   sem,
			gap:        cfg.gapFor(s.Difficulty),
			difficulty: s.Difficulty,
			roomKind:   kind,
		})
	}

	if len(m.unassignable) > 0 && opts.AbortOnUnassignable {
		return nil, &UnassignableSubjectError{Subjects: m.Unassignable()}
	}
	return m, nil
}

func validateInputs(subjects []Subject, rooms []Room, cfg Config) error {
	var fields []FieldError
	if err := cfg.Validate(); err != nil {
		fields = append(fields, err.(*ConfigurationError).Fields...)
	}

	codes := make(map[string]struct{}, len(subjects))
	for i, s := range subjects {
		prefix := fmt.Sprintf("subjects[%d]", i)
		if s.Code == "" {
			fields = append(fields, FieldError{Field: prefix + ".code", Reason: "required"})
		} else if _, dup := codes[s.Code]; dup {
			fields = append(fields, FieldError{Field: prefix + ".code", Reason: fmt.Sprintf("duplicate subject code %q", s.Code)})
		}
		codes[s.Code] = struct{}{}
		if !s.Category.Valid() {
			fields = append(fields, FieldError{Field: prefix + ".category", Reason: fmt.Sprintf("unknown category %q", s.Category)})
		}
		if _, err := ParseDifficulty(string(s.Difficulty)); err != nil {
			fields = append(fields, FieldError{Field: prefix + ".difficulty", Reason: err.Error()})
		}
		if s.DurationMinutes < 0 {
			fields = append(fields, FieldError{Field: prefix + ".durationMinutes", Reason: "must not be negative"})
		}
	}

	ids := make(map[string]struct{}, len(rooms))
	for i, r := range rooms {
		prefix := fmt.Sprintf("rooms[%d]", i)
		if r.ID == "" {
			fields = append(fields, FieldError{Field: prefix + ".id", Reason: "required"})
		} else if _, dup := ids[r.ID]; dup {
			fields = append(fields, FieldError{Field: prefix + ".id", Reason: fmt.Sprintf("duplicate room id %q", r.ID)})
		}
		ids[r.ID] = struct{}{}
		if !r.Category.Valid() {
			fields = append(fields, FieldError{Field: prefix + ".category", Reason: fmt.Sprintf("unknown room category %q", r.Category)})
		}
		if r.Capacity < 0 {
			fields = append(fields, FieldError{Field: prefix + ".capacity", Reason: "must not be negative"})
		}
	}

	if len(fields) > 0 {
		return &ConfigurationError{Fields: fields}
	}
	return nil
}

// Config returns the normalized config snapshot.
func (m *Model) Config() Config { return m.cfg }

// Calendar returns the calendar the model was built against.
func (m *Model) Calendar() *Calendar { return m.calendar }

// Subjects returns the placeable subjects in search order.
func (m *Model) Subjects() []Subject { return append([]Subject(nil), m.subjects...) }

// Rooms returns the rooms ordered by id.
func (m *Model) Rooms() []Room { return append([]Room(nil), m.rooms...) }

// Unassignable returns subjects rejected while building the model.
func (m *Model) Unassignable() []UnassignableSubject {
	return append([]UnassignableSubject(nil), m.unassignable...)
}

// domain enumerates a variable's candidate values over the given dates, ordered by day, start,
// then room.
func (m *Model) domain(v int, dates []time.Time) []value {
	vr := m.vars[v]
	out := make([]value, 0, len(dates)*len(vr.starts)*len(vr.rooms))
	for day, date := range dates {
		ord := dayOrdinal(m.cfg.StartDate, date)
		pos := workdayDistance(m.cfg.StartDate, date, m.cfg.SkipSundays)
		for _, st := range vr.starts {
			abs := ord*minutesPerDay + int(st)
			for _, room := range vr.rooms {
				out = append(out, value{room: room, day: day, ordinal: ord, pos: pos, start: abs, end: abs + vr.duration})
			}
		}
	}
	return out
}

// clash reports which hard constraints forbid placing variable i at a and variable j at b together.
func (m *Model) clash(i int, a value, j int, b value) clashKind {
	var kind clashKind
	overlap := a.start < b.end && b.start < a.end
	if a.room == b.room && a.ordinal == b.ordinal && (!m.cfg.AllowMultiplePerRoom || overlap) {
		kind |= clashRoom
	}
	vi, vj := &m.vars[i], &m.vars[j]
	if vi.semester == vj.semester {
		if overlap {
			kind |= clashSemester
		}
		if vi.gap > 0 && vi.difficulty == vj.difficulty {
			diff := a.pos - b.pos
			if diff < 0 {
				diff = -diff
			}
			if diff < vi.gap {
				kind |= clashGap
			}
		}
	}
	return kind
}

func (m *Model) item(v int, val value, dates []time.Time) ScheduleItem {
	vr := m.vars[v]
	start := Clock(val.start - val.ordinal*minutesPerDay)
	return ScheduleItem{
		Subject: m.subjects[vr.subject],
		Room:    m.rooms[val.room],
		Slot:    Slot{Date: dates[val.day], Start: start, End: start + Clock(vr.duration)},
	}
}

func sortItems(items []ScheduleItem) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if !a.Slot.Date.Equal(b.Slot.Date) {
			return a.Slot.Date.Before(b.Slot.Date)
		}
		if a.Slot.Start != b.Slot.Start {
			return a.Slot.Start < b.Slot.Start
		}
		if a.Room.ID != b.Room.ID {
			return a.Room.ID < b.Room.ID
		}
		return a.Subject.Code < b.Subject.Code
	})
}
