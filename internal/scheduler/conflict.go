package scheduler

import (
	"sort"
	"time"
)

// ConflictTag names one violated constraint on a schedule item.
type ConflictTag string

const (
	TagRoomClash            ConflictTag = "room_clash"
	TagSemesterClash        ConflictTag = "semester_clash"
	TagRoomCategoryMismatch ConflictTag = "room_category_mismatch"
	TagSunday               ConflictTag = "sunday"
	TagHighGap              ConflictTag = "high_gap"
	TagMediumGap            ConflictTag = "medium_gap"
	TagDuplicateSubject     ConflictTag = "duplicate_subject"
	TagOutsideWorkingHours  ConflictTag = "outside_working_hours"
)

// ItemConflicts lists the tags raised against one item, addressed by its index in the schedule.
type ItemConflicts struct {
	Index       int           `json:"index"`
	SubjectCode string        `json:"subjectCode"`
	Tags        []ConflictTag `json:"tags"`
}

// ConflictReport maps schedule items to the constraints they violate. Items without conflicts
// are absent.
type ConflictReport struct {
	Items []ItemConflicts `json:"items"`
}

// Empty reports whether the schedule is conflict free.
func (r ConflictReport) Empty() bool { return len(r.Items) == 0 }

// TagsFor returns the tags of the item at index, or nil.
func (r ConflictReport) TagsFor(index int) []ConflictTag {
	for _, it := range r.Items {
		if it.Index == index {
			return it.Tags
		}
	}
	return nil
}

type span struct {
	idx        int
	start, end time.Time
}

// Detect re-checks every hard constraint of a schedule without touching it.
func Detect(s Schedule) ConflictReport {
	tags := make(map[int]map[ConflictTag]struct{})
	flag := func(idx int, tag ConflictTag) {
		set, ok := tags[idx]
		if !ok {
			set = make(map[ConflictTag]struct{})
			tags[idx] = set
		}
		set[tag] = struct{}{}
	}

	cfg := s.Config
	items := s.Items
	for i, it := range items {
		if want, ok := RoomCategoryFor(it.Subject.Category); !ok || want != it.Room.Category {
			flag(i, TagRoomCategoryMismatch)
		}
		if cfg.SkipSundays && it.Slot.Date.Weekday() == time.Sunday {
			flag(i, TagSunday)
		}
		if it.Slot.End <= it.Slot.Start || it.Slot.Start < cfg.WorkingHours.Start || it.Slot.End > cfg.WorkingHours.End {
			flag(i, TagOutsideWorkingHours)
		}
	}

	detectRoomClashes(items, cfg.AllowMultiplePerRoom, flag)
	detectSemesterClashes(items, flag)
	detectGaps(items, DifficultyHigh, cfg.HighGapDays, cfg.SkipSundays, TagHighGap, flag)
	detectGaps(items, DifficultyMedium, cfg.MediumGapDays, cfg.SkipSundays, TagMediumGap, flag)
	detectDuplicates(items, flag)

	report := ConflictReport{Items: []ItemConflicts{}}
	indexes := make([]int, 0, len(tags))
	for idx := range tags {
		indexes = append(indexes, idx)
	}
	sort.Ints(indexes)
	for _, idx := range indexes {
		list := make([]ConflictTag, 0, len(tags[idx]))
		for tag := range tags[idx] {
			list = append(list, tag)
		}
		sort.Slice(list, func(a, b int) bool { return list[a] < list[b] })
		report.Items = append(report.Items, ItemConflicts{Index: idx, SubjectCode: items[idx].Subject.Code, Tags: list})
	}
	return report
}

func detectRoomClashes(items []ScheduleItem, allowMultiple bool, flag func(int, ConflictTag)) {
	groups := make(map[string][]span)
	for i, it := range items {
		key := it.Room.ID + "|" + DateOf(it.Slot.Date).Format(DateLayout)
		groups[key] = append(groups[key], span{idx: i, start: it.Slot.StartTime(), end: it.Slot.EndTime()})
	}
	for _, group := range groups {
		if len(group) < 2 {
			continue
		}
		if !allowMultiple {
			for _, sp := range group {
				flag(sp.idx, TagRoomClash)
			}
			continue
		}
		sweep(group, func(a, b int) {
			flag(a, TagRoomClash)
			flag(b, TagRoomClash)
		})
	}
}

func detectSemesterClashes(items []ScheduleItem, flag func(int, ConflictTag)) {
	groups := make(map[string][]span)
	for i, it := range items {
		groups[it.Subject.Semester] = append(groups[it.Subject.Semester], span{idx: i, start: it.Slot.StartTime(), end: it.Slot.EndTime()})
	}
	for _, group := range groups {
		sweep(group, func(a, b int) {
			flag(a, TagSemesterClash)
			flag(b, TagSemesterClash)
		})
	}
}

// sweep reports overlapping pairs after sorting by start. Each item is compared against the
// span that reaches furthest so far, which catches every item that overlaps anything.
func sweep(group []span, overlap func(a, b int)) {
	sort.Slice(group, func(i, j int) bool {
		if !group[i].start.Equal(group[j].start) {
			return group[i].start.Before(group[j].start)
		}
		return group[i].idx < group[j].idx
	})
	reach := -1
	for i, sp := range group {
		if reach >= 0 && sp.start.Before(group[reach].end) {
			overlap(group[reach].idx, sp.idx)
		}
		if reach < 0 || sp.end.After(group[reach].end) {
			reach = i
		}
	}
}

func detectGaps(items []ScheduleItem, difficulty Difficulty, gap int, skipSundays bool, tag ConflictTag, flag func(int, ConflictTag)) {
	if gap <= 0 {
		return
	}
	perSemester := make(map[string][]int)
	for i, it := range items {
		d, err := ParseDifficulty(string(it.Subject.Difficulty))
		if err != nil || d != difficulty {
			continue
		}
		perSemester[it.Subject.Semester] = append(perSemester[it.Subject.Semester], i)
	}
	for _, idxs := range perSemester {
		sort.Slice(idxs, func(a, b int) bool {
			da, db := DateOf(items[idxs[a]].Slot.Date), DateOf(items[idxs[b]].Slot.Date)
			if !da.Equal(db) {
				return da.Before(db)
			}
			return idxs[a] < idxs[b]
		})
		for i := 1; i < len(idxs); i++ {
			prev, cur := items[idxs[i-1]], items[idxs[i]]
			if workdayDistance(prev.Slot.Date, cur.Slot.Date, skipSundays) < gap {
				flag(idxs[i-1], tag)
				flag(idxs[i], tag)
			}
		}
	}
}

func detectDuplicates(items []ScheduleItem, flag func(int, ConflictTag)) {
	byCode := make(map[string][]int)
	for i, it := range items {
		byCode[it.Subject.Code] = append(byCode[it.Subject.Code], i)
	}
	for _, idxs := range byCode {
		if len(idxs) < 2 {
			continue
		}
		for _, idx := range idxs {
			flag(idx, TagDuplicateSubject)
		}
	}
}
