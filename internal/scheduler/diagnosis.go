package scheduler

import (
	"fmt"
	"sort"
	"time"
)

// Cause names the binding constraint of an infeasible run.
type Cause string

const (
	CauseInsufficientRooms Cause = "insufficient_rooms"
	CauseInsufficientSlots Cause = "insufficient_slots"
	CauseGapConflict       Cause = "gap_conflict"
)

// InfeasibilityReport explains why no schedule exists.
type InfeasibilityReport struct {
	Cause        Cause        `json:"cause"`
	Semester     string       `json:"semester,omitempty"`
	RoomCategory RoomCategory `json:"roomCategory,omitempty"`
	Subjects     []string     `json:"subjects"`
	Rooms        []string     `json:"rooms,omitempty"`
	Dates        []time.Time  `json:"dates,omitempty"`
	Required     int          `json:"required"`
	Available    int          `json:"available"`
	Horizon      int          `json:"horizon"`
	TimedOut     bool         `json:"timedOut,omitempty"`
	Suggestion   string       `json:"suggestion"`
}

// Shortfall is how many units of the binding resource are missing.
func (r InfeasibilityReport) Shortfall() int {
	if r.Required > r.Available {
		return r.Required - r.Available
	}
	return 0
}

// SameBottleneck reports whether two reports blame the same resource in the same amount.
func (r InfeasibilityReport) SameBottleneck(o InfeasibilityReport) bool {
	if r.Cause != o.Cause || r.Semester != o.Semester || r.RoomCategory != o.RoomCategory {
		return false
	}
	if r.Required != o.Required || r.Available != o.Available || len(r.Rooms) != len(o.Rooms) {
		return false
	}
	for i := range r.Rooms {
		if r.Rooms[i] != o.Rooms[i] {
			return false
		}
	}
	return true
}

// countingCheck runs the cheap necessary conditions over a horizon: per-semester time capacity,
// then gap span, then room capacity per category.
func (m *Model) countingCheck(dates []time.Time) *InfeasibilityReport {
	h := len(dates)
	if h == 0 {
		return nil
	}

	for sem, name := range m.semesters {
		vars := m.varsWhere(func(v variable) bool { return v.semester == sem })
		perDay := m.dailyCapacity(vars)
		if len(vars) > perDay*h {
			return &InfeasibilityReport{
				Cause:      CauseInsufficientSlots,
				Semester:   name,
				Subjects:   m.codes(vars),
				Dates:      append([]time.Time(nil), dates...),
				Required:   len(vars),
				Available:  perDay * h,
				Horizon:    h,
				Suggestion: fmt.Sprintf("semester %s needs %d exam periods but only %d fit; extend the horizon or the working hours", name, len(vars), perDay*h),
			}
		}
	}

	span := workdayDistance(dates[0], dates[h-1], m.cfg.SkipSundays)
	for sem, name := range m.semesters {
		for _, d := range []Difficulty{DifficultyHigh, DifficultyMedium} {
			gap := m.cfg.gapFor(d)
			if gap <= 0 {
				continue
			}
			vars := m.varsWhere(func(v variable) bool { return v.semester == sem && v.difficulty == d })
			k := len(vars)
			if k < 2 || (k-1)*gap <= span {
				continue
			}
			maxGap := span / (k - 1)
			return &InfeasibilityReport{
				Cause:      CauseGapConflict,
				Semester:   name,
				Subjects:   m.codes(vars),
				Dates:      append([]time.Time(nil), dates...),
				Required:   (k-1)*gap + 1,
				Available:  span + 1,
				Horizon:    h,
				Suggestion: fmt.Sprintf("%d %s exams in semester %s need %d working days with a %d-day gap; reduce the gap to %d or extend the horizon", k, d, name, (k-1)*gap+1, gap, maxGap),
			}
		}
	}

	for _, kind := range []RoomCategory{RoomClassroom, RoomLab} {
		vars := m.varsWhere(func(v variable) bool { return v.roomKind == kind })
		if len(vars) == 0 {
			continue
		}
		rooms := m.roomIDs(kind)
		perRoom := 1
		if m.cfg.AllowMultiplePerRoom {
			perRoom = m.dailyCapacity(vars)
		}
		available := len(rooms) * perRoom * h
		if len(vars) <= available {
			continue
		}
		perRoomHorizon := perRoom * h
		missing := (len(vars)+perRoomHorizon-1)/perRoomHorizon - len(rooms)
		return &InfeasibilityReport{
			Cause:        CauseInsufficientRooms,
			RoomCategory: kind,
			Subjects:     m.codes(vars),
			Rooms:        rooms,
			Dates:        append([]time.Time(nil), dates...),
			Required:     len(vars),
			Available:    available,
			Horizon:      h,
			Suggestion:   fmt.Sprintf("add %d more %s room(s) or extend the horizon", missing, kind),
		}
	}
	return nil
}

// dailyCapacity bounds how many of the given exams can run back to back in one working day.
func (m *Model) dailyCapacity(vars []int) int {
	if len(vars) == 0 {
		return 0
	}
	durations := make([]int, len(vars))
	uniform := true
	for i, v := range vars {
		durations[i] = m.vars[v].duration
		if durations[i] != durations[0] {
			uniform = false
		}
	}
	if uniform {
		return len(m.vars[vars[0]].starts)
	}
	sort.Ints(durations)
	window, used, count := m.cfg.WorkingHours.Minutes(), 0, 0
	for _, d := range durations {
		if used+d > window {
			break
		}
		used += d
		count++
	}
	return count
}

// diagnose blames the first variable the deepest partial assignment could not extend to.
func (m *Model) diagnose(p partial, dates []time.Time) InfeasibilityReport {
	window := dates
	if p.horizon > 0 && p.horizon <= len(dates) {
		window = dates[:p.horizon]
	}
	h := len(window)

	placed := make([]value, p.depth)
	for v := 0; v < p.depth; v++ {
		placed[v] = m.domain(v, window)[p.assign[v]]
	}

	target := -1
	var targetDomain []value
	for u := p.depth; u < len(m.vars); u++ {
		dom := m.domain(u, window)
		blocked := true
		for _, c := range dom {
			if m.blockers(placed, u, c) == 0 {
				blocked = false
				break
			}
		}
		if blocked {
			target, targetDomain = u, dom
			break
		}
	}
	if target < 0 {
		target = p.depth
		if target >= len(m.vars) {
			target = len(m.vars) - 1
		}
		targetDomain = m.domain(target, window)
	}

	var (
		free     int
		gapOnly  bool
		roomOnly bool
		culprits = map[clashKind]map[int]struct{}{clashRoom: {}, clashSemester: {}, clashGap: {}}
	)
	for _, c := range targetDomain {
		kinds := m.blockers(placed, target, c)
		switch kinds {
		case 0:
			free++
			continue
		case clashGap:
			gapOnly = true
		case clashRoom:
			roomOnly = true
		}
		for v, val := range placed {
			for _, k := range []clashKind{clashRoom, clashSemester, clashGap} {
				if m.clash(v, val, target, c)&k != 0 {
					culprits[k][v] = struct{}{}
				}
			}
		}
	}

	tv := m.vars[target]
	report := InfeasibilityReport{
		Semester:  m.semesters[tv.semester],
		Dates:     append([]time.Time(nil), window...),
		Required:  1,
		Available: free,
		Horizon:   h,
	}
	subjects := func(kinds ...clashKind) []string {
		set := map[int]struct{}{target: {}}
		for _, k := range kinds {
			for v := range culprits[k] {
				set[v] = struct{}{}
			}
		}
		vars := make([]int, 0, len(set))
		for v := range set {
			vars = append(vars, v)
		}
		return m.codes(vars)
	}
	code := m.subjects[tv.subject].Code

	switch {
	case gapOnly:
		report.Cause = CauseGapConflict
		report.Subjects = subjects(clashGap)
		report.Suggestion = fmt.Sprintf("%s cannot keep the %d-day gap from other %s exams of semester %s; reduce the gap or extend the horizon", code, tv.gap, tv.difficulty, report.Semester)
	case roomOnly:
		report.Cause = CauseInsufficientRooms
		report.RoomCategory = tv.roomKind
		report.Rooms = m.roomIDs(tv.roomKind)
		report.Subjects = subjects(clashRoom)
		report.Suggestion = fmt.Sprintf("every %s room is taken whenever %s could sit; add a %s room or extend the horizon", tv.roomKind, code, tv.roomKind)
	default:
		report.Cause = CauseInsufficientSlots
		report.Subjects = subjects(clashSemester, clashRoom, clashGap)
		report.Suggestion = fmt.Sprintf("no free period remains for %s; extend the horizon or the working hours", code)
	}
	return report
}

func (m *Model) blockers(placed []value, u int, c value) clashKind {
	var kinds clashKind
	for v, val := range placed {
		kinds |= m.clash(v, val, u, c)
	}
	return kinds
}

func (m *Model) varsWhere(keep func(variable) bool) []int {
	var out []int
	for v, vr := range m.vars {
		if keep(vr) {
			out = append(out, v)
		}
	}
	return out
}

func (m *Model) codes(vars []int) []string {
	out := make([]string, 0, len(vars))
	for _, v := range vars {
		out = append(out, m.subjects[m.vars[v].subject].Code)
	}
	sort.Strings(out)
	return out
}

func (m *Model) roomIDs(kind RoomCategory) []string {
	var out []string
	for _, r := range m.rooms {
		if r.Category == kind {
			out = append(out, r.ID)
		}
	}
	return out
}
