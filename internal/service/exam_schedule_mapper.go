package service

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/noah-isme/sma-exam-scheduler/internal/dto"
	"github.com/noah-isme/sma-exam-scheduler/internal/models"
	"github.com/noah-isme/sma-exam-scheduler/internal/scheduler"
)

// fieldCollector gathers boundary parse failures into one ConfigurationError.
type fieldCollector struct {
	fields []scheduler.FieldError
}

func (f *fieldCollector) add(field string, err error) {
	f.fields = append(f.fields, scheduler.FieldError{Field: field, Reason: err.Error()})
}

func (f *fieldCollector) err() error {
	if len(f.fields) == 0 {
		return nil
	}
	return &scheduler.ConfigurationError{Fields: f.fields}
}

func toSchedulerConfig(req dto.ScheduleConfigRequest, defaultHorizon int) (scheduler.Config, error) {
	var fc fieldCollector
	cfg := scheduler.Config{
		Semester:             strings.TrimSpace(req.Semester),
		ExamCategory:         scheduler.Category(req.ExamType),
		BreakMinutes:         req.BreakMinutes,
		SkipSundays:          req.SkipSundays,
		HighGapDays:          req.HighGapDays,
		MediumGapDays:        req.MediumGapDays,
		AllowMultiplePerRoom: req.AllowMultiplePerRoom,
		HorizonDays:          req.HorizonDays,
	}
	if cfg.HorizonDays == 0 {
		cfg.HorizonDays = defaultHorizon
	}

	if start, err := scheduler.ParseDate(req.StartDate); err != nil {
		fc.add("startDate", err)
	} else {
		cfg.StartDate = start
	}
	if c, err := scheduler.ParseClock(req.WorkingHours.Start); err != nil {
		fc.add("workingHours.start", err)
	} else {
		cfg.WorkingHours.Start = c
	}
	if c, err := scheduler.ParseClock(req.WorkingHours.End); err != nil {
		fc.add("workingHours.end", err)
	} else {
		cfg.WorkingHours.End = c
	}
	if len(req.ExamDurations) > 0 {
		cfg.ExamDurations = make(map[scheduler.Category]int, len(req.ExamDurations))
		for name, minutes := range req.ExamDurations {
			cfg.ExamDurations[scheduler.Category(name)] = minutes
		}
	}
	if err := fc.err(); err != nil {
		return scheduler.Config{}, err
	}
	return cfg, cfg.Validate()
}

func normalizeDifficulty(raw string) scheduler.Difficulty {
	if strings.TrimSpace(raw) == "" {
		return scheduler.DifficultyMedium
	}
	if d, err := scheduler.ParseDifficulty(raw); err == nil {
		return d
	}
	// Left as is so model validation reports it.
	return scheduler.Difficulty(raw)
}

func subjectsFromInputs(inputs []dto.SubjectInput) []scheduler.Subject {
	out := make([]scheduler.Subject, 0, len(inputs))
	for _, in := range inputs {
		out = append(out, scheduler.Subject{
			Code:            in.Code,
			Name:            in.Name,
			Category:        scheduler.Category(in.Category),
			Semester:        in.Semester,
			Difficulty:      normalizeDifficulty(in.Difficulty),
			DurationMinutes: in.DurationMinutes,
		})
	}
	return out
}

func roomsFromInputs(inputs []dto.RoomInput) []scheduler.Room {
	out := make([]scheduler.Room, 0, len(inputs))
	for _, in := range inputs {
		out = append(out, scheduler.Room{ID: in.ID, Name: in.Name, Category: scheduler.RoomCategory(in.Category), Capacity: in.Capacity})
	}
	return out
}

func subjectsFromModels(rows []models.Subject) []scheduler.Subject {
	out := make([]scheduler.Subject, 0, len(rows))
	for _, row := range rows {
		out = append(out, scheduler.Subject{
			Code:            row.Code,
			Name:            row.Name,
			Category:        scheduler.Category(row.Type),
			Semester:        row.Semester,
			Difficulty:      normalizeDifficulty(row.Difficulty),
			DurationMinutes: row.Duration,
		})
	}
	return out
}

func roomsFromModels(rows []models.Room) []scheduler.Room {
	out := make([]scheduler.Room, 0, len(rows))
	for _, row := range rows {
		out = append(out, scheduler.Room{ID: row.ID, Name: row.Name, Category: scheduler.RoomCategory(row.Type), Capacity: row.Capacity})
	}
	return out
}

func itemView(item scheduler.ScheduleItem) dto.ExamScheduleItemView {
	return dto.ExamScheduleItemView{
		SubjectCode:  item.Subject.Code,
		SubjectName:  item.Subject.Name,
		Category:     string(item.Subject.Category),
		Semester:     item.Subject.Semester,
		Difficulty:   string(item.Subject.Difficulty),
		RoomID:       item.Room.ID,
		RoomName:     item.Room.Name,
		RoomCategory: string(item.Room.Category),
		Date:         item.Slot.Date.Format(scheduler.DateLayout),
		StartTime:    item.Slot.Start.String(),
		EndTime:      item.Slot.End.String(),
	}
}

func resultResponse(result *scheduler.Result) *dto.GenerateExamScheduleResponse {
	items := make([]dto.ExamScheduleItemView, 0, len(result.Schedule.Items))
	for _, item := range result.Schedule.Items {
		items = append(items, itemView(item))
	}
	return &dto.GenerateExamScheduleResponse{
		Status:       result.Status,
		DaysUsed:     result.Cost.Days,
		IdleMinutes:  result.Cost.IdleMinutes,
		Horizon:      result.Horizon,
		Items:        items,
		Unassignable: result.Unassignable,
		Unplaced:     result.Unplaced,
		Nodes:        result.Nodes,
		ElapsedMs:    result.Elapsed.Milliseconds(),
	}
}

// scheduleFromDetails rebuilds a detector input from stored rows. Rows whose clock values are
// unreadable are reported rather than silently dropped.
func scheduleFromDetails(cfg scheduler.Config, rows []models.ExamScheduleItemDetail) (scheduler.Schedule, error) {
	s := scheduler.Schedule{Config: cfg, Items: make([]scheduler.ScheduleItem, 0, len(rows))}
	for _, row := range rows {
		slot, err := parseSlot(row.ExamDate, row.StartTime, row.EndTime)
		if err != nil {
			return scheduler.Schedule{}, fmt.Errorf("item %s: %w", row.ID, err)
		}
		s.Items = append(s.Items, scheduler.ScheduleItem{
			Subject: scheduler.Subject{
				Code:            row.SubjectCode,
				Name:            row.SubjectName,
				Category:        scheduler.Category(row.SubjectType),
				Semester:        row.SubjectSemester,
				Difficulty:      normalizeDifficulty(row.SubjectDifficulty),
				DurationMinutes: row.SubjectDuration,
			},
			Room: scheduler.Room{ID: row.RoomID, Name: row.RoomName, Category: scheduler.RoomCategory(row.RoomType), Capacity: row.RoomCapacity},
			Slot: slot,
		})
	}
	return s, nil
}

func parseSlot(date time.Time, start, end string) (scheduler.Slot, error) {
	from, err := scheduler.ParseClock(start)
	if err != nil {
		return scheduler.Slot{}, err
	}
	to, err := scheduler.ParseClock(end)
	if err != nil {
		return scheduler.Slot{}, err
	}
	return scheduler.Slot{Date: scheduler.DateOf(date), Start: from, End: to}, nil
}

func detailView(row models.ExamScheduleItemDetail) dto.ExamScheduleItemView {
	return dto.ExamScheduleItemView{
		ID:           row.ID,
		SubjectCode:  row.SubjectCode,
		SubjectName:  row.SubjectName,
		Category:     row.SubjectType,
		Semester:     row.SubjectSemester,
		Difficulty:   row.SubjectDifficulty,
		RoomID:       row.RoomID,
		RoomName:     row.RoomName,
		RoomCategory: row.RoomType,
		Date:         row.ExamDate.Format(scheduler.DateLayout),
		StartTime:    row.StartTime,
		EndTime:      row.EndTime,
	}
}

func conflictResponse(report scheduler.ConflictReport) dto.ConflictCheckResponse {
	items := report.Items
	if items == nil {
		items = []scheduler.ItemConflicts{}
	}
	return dto.ConflictCheckResponse{Clean: report.Empty(), Items: items}
}

func uniqueSorted(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
