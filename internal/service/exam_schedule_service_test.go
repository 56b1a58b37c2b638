package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-exam-scheduler/internal/dto"
	"github.com/noah-isme/sma-exam-scheduler/internal/models"
	"github.com/noah-isme/sma-exam-scheduler/internal/scheduler"
	appErrors "github.com/noah-isme/sma-exam-scheduler/pkg/errors"
)

type subjectRepoStub struct {
	list       []models.Subject
	lastFilter models.SubjectFilter
}

func (s *subjectRepoStub) List(_ context.Context, filter models.SubjectFilter) ([]models.Subject, error) {
	s.lastFilter = filter
	return s.list, nil
}

func (s *subjectRepoStub) FindByCodes(_ context.Context, codes []string) ([]models.Subject, error) {
	var out []models.Subject
	for _, row := range s.list {
		for _, code := range codes {
			if row.Code == code {
				out = append(out, row)
			}
		}
	}
	return out, nil
}

type roomRepoStub struct {
	list []models.Room
}

func (s *roomRepoStub) List(context.Context) ([]models.Room, error) { return s.list, nil }

func (s *roomRepoStub) FindByIDs(_ context.Context, ids []string) ([]models.Room, error) {
	var out []models.Room
	for _, row := range s.list {
		for _, id := range ids {
			if row.ID == id {
				out = append(out, row)
			}
		}
	}
	return out, nil
}

type scheduleStoreStub struct {
	created *models.ExamSchedule
	record  *models.ExamSchedule
	deleted []string
}

func (s *scheduleStoreStub) Create(_ context.Context, _ sqlx.ExtContext, schedule *models.ExamSchedule) error {
	schedule.ID = "sch-new"
	s.created = schedule
	return nil
}

func (s *scheduleStoreStub) List(context.Context, models.ExamScheduleFilter) ([]models.ExamSchedule, error) {
	return nil, nil
}

func (s *scheduleStoreStub) FindByID(_ context.Context, id string) (*models.ExamSchedule, error) {
	if s.record == nil || s.record.ID != id {
		return nil, sql.ErrNoRows
	}
	clone := *s.record
	return &clone, nil
}

func (s *scheduleStoreStub) Delete(_ context.Context, id string) error {
	if s.record == nil || s.record.ID != id {
		return sql.ErrNoRows
	}
	s.deleted = append(s.deleted, id)
	return nil
}

type itemStoreStub struct {
	created []models.ExamScheduleItem
	rows    []models.ExamScheduleItemDetail
	updated *models.ExamScheduleItem
	deleted []string
}

func (s *itemStoreStub) CreateBatch(_ context.Context, _ sqlx.ExtContext, items []models.ExamScheduleItem) error {
	s.created = append(s.created, items...)
	return nil
}

func (s *itemStoreStub) ListDetailed(context.Context, string) ([]models.ExamScheduleItemDetail, error) {
	return append([]models.ExamScheduleItemDetail(nil), s.rows...), nil
}

func (s *itemStoreStub) Update(_ context.Context, item *models.ExamScheduleItem) error {
	clone := *item
	s.updated = &clone
	return nil
}

func (s *itemStoreStub) Delete(_ context.Context, _ string, itemID string) error {
	s.deleted = append(s.deleted, itemID)
	return nil
}

type solveRecorderStub struct {
	outcomes []string
}

func (s *solveRecorderStub) ObserveSolve(outcome string, _ time.Duration) {
	s.outcomes = append(s.outcomes, outcome)
}

func baseConfig() dto.ScheduleConfigRequest {
	return dto.ScheduleConfigRequest{
		StartDate:    "2024-01-01",
		WorkingHours: dto.WorkingHoursRequest{Start: "09:00", End: "17:00"},
		SkipSundays:  true,
	}
}

func inlineRequest() dto.GenerateExamScheduleRequest {
	return dto.GenerateExamScheduleRequest{
		Config: baseConfig(),
		Subjects: []dto.SubjectInput{
			{Code: "MATH1", Name: "Calculus", Category: "Theory", Semester: "S1", Difficulty: "Hard"},
			{Code: "PHY1", Name: "Physics", Category: "Theory", Semester: "S1"},
			{Code: "CHEM1", Name: "Chemistry Lab", Category: "Practical", Semester: "S1"},
		},
		Rooms: []dto.RoomInput{
			{ID: "R1", Name: "Room 1", Category: "Classroom", Capacity: 40},
			{ID: "L1", Name: "Lab 1", Category: "Lab", Capacity: 30},
		},
		TimeLimitSeconds: 5,
	}
}

func catalogue() (*subjectRepoStub, *roomRepoStub) {
	subjects := &subjectRepoStub{list: []models.Subject{
		{ID: "sub-math", Code: "MATH1", Name: "Calculus", Type: "Theory", Semester: "S1", Difficulty: "High"},
		{ID: "sub-phy", Code: "PHY1", Name: "Physics", Type: "Theory", Semester: "S1", Difficulty: "Medium"},
		{ID: "sub-chem", Code: "CHEM1", Name: "Chemistry Lab", Type: "Practical", Semester: "S1", Difficulty: "Low"},
	}}
	rooms := &roomRepoStub{list: []models.Room{
		{ID: "L1", Name: "Lab 1", Type: "Lab", Capacity: 30},
		{ID: "R1", Name: "Room 1", Type: "Classroom", Capacity: 40},
		{ID: "R2", Name: "Room 2", Type: "Classroom", Capacity: 40},
	}}
	return subjects, rooms
}

func requireAppError(t *testing.T, err error, code string) *appErrors.Error {
	t.Helper()
	require.Error(t, err)
	appErr, ok := err.(*appErrors.Error)
	require.True(t, ok, "expected *errors.Error, got %T", err)
	assert.Equal(t, code, appErr.Code)
	return appErr
}

func TestExamScheduleServiceGenerateInline(t *testing.T) {
	metrics := &solveRecorderStub{}
	svc := NewExamScheduleService(nil, nil, nil, nil, nil, nil, nil, metrics, nil, nil, ExamScheduleConfig{Workers: 2})

	resp, err := svc.Generate(context.Background(), inlineRequest())
	require.NoError(t, err)

	assert.NotEmpty(t, resp.ProposalID)
	require.NotNil(t, resp.ExpiresAt)
	assert.Len(t, resp.Items, 3)
	assert.Equal(t, 2, resp.DaysUsed)
	assert.Contains(t, []scheduler.Status{scheduler.StatusOptimal, scheduler.StatusFeasible}, resp.Status)
	for _, item := range resp.Items {
		if item.SubjectCode == "CHEM1" {
			assert.Equal(t, "L1", item.RoomID)
		} else {
			assert.Equal(t, "R1", item.RoomID)
		}
		if item.SubjectCode == "MATH1" {
			assert.Equal(t, "High", item.Difficulty)
		}
	}
	require.Len(t, metrics.outcomes, 1)
	assert.Equal(t, string(resp.Status), metrics.outcomes[0])

	stored, err := svc.proposals.Get(context.Background(), resp.ProposalID)
	require.NoError(t, err)
	assert.Len(t, stored.Result.Schedule.Items, 3)
}

func TestExamScheduleServiceGenerateFromCatalogue(t *testing.T) {
	subjects, rooms := catalogue()
	svc := NewExamScheduleService(subjects, rooms, nil, nil, nil, nil, nil, nil, nil, nil, ExamScheduleConfig{})

	req := dto.GenerateExamScheduleRequest{Config: baseConfig()}
	req.Config.Semester = "S1"
	req.Config.ExamType = "Theory"
	subjects.list = subjects.list[:2]

	resp, err := svc.Generate(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, models.SubjectFilter{Semester: "S1", Type: "Theory"}, subjects.lastFilter)
	assert.Len(t, resp.Items, 2)
}

func TestExamScheduleServiceGenerateValidation(t *testing.T) {
	svc := NewExamScheduleService(nil, nil, nil, nil, nil, nil, nil, nil, nil, nil, ExamScheduleConfig{})

	req := inlineRequest()
	req.Config.StartDate = ""
	_, err := svc.Generate(context.Background(), req)
	requireAppError(t, err, appErrors.ErrValidation.Code)

	req = inlineRequest()
	req.Subjects = nil
	_, err = svc.Generate(context.Background(), req)
	requireAppError(t, err, appErrors.ErrValidation.Code)
}

func TestExamScheduleServiceGenerateConfigurationError(t *testing.T) {
	svc := NewExamScheduleService(nil, nil, nil, nil, nil, nil, nil, nil, nil, nil, ExamScheduleConfig{})

	req := inlineRequest()
	req.Config.WorkingHours = dto.WorkingHoursRequest{Start: "17:00", End: "nine"}
	_, err := svc.Generate(context.Background(), req)
	appErr := requireAppError(t, err, appErrors.ErrConfiguration.Code)

	fields, ok := appErr.Details.([]scheduler.FieldError)
	require.True(t, ok)
	require.Len(t, fields, 1)
	assert.Equal(t, "workingHours.end", fields[0].Field)

	req = inlineRequest()
	req.Config.WorkingHours = dto.WorkingHoursRequest{Start: "17:00", End: "09:00"}
	_, err = svc.Generate(context.Background(), req)
	requireAppError(t, err, appErrors.ErrConfiguration.Code)
}

func TestExamScheduleServiceGenerateInfeasible(t *testing.T) {
	metrics := &solveRecorderStub{}
	svc := NewExamScheduleService(nil, nil, nil, nil, nil, nil, nil, metrics, nil, nil, ExamScheduleConfig{})

	req := inlineRequest()
	req.Config.WorkingHours = dto.WorkingHoursRequest{Start: "09:00", End: "11:00"}
	req.Config.HorizonDays = 1
	req.Subjects = req.Subjects[:2]
	_, err := svc.Generate(context.Background(), req)
	appErr := requireAppError(t, err, appErrors.ErrInfeasibleSchedule.Code)

	report, ok := appErr.Details.(scheduler.InfeasibilityReport)
	require.True(t, ok)
	assert.Equal(t, scheduler.CauseInsufficientSlots, report.Cause)
	assert.Equal(t, []string{"infeasible"}, metrics.outcomes)
}

func TestExamScheduleServiceGenerateAbortsOnUnassignable(t *testing.T) {
	svc := NewExamScheduleService(nil, nil, nil, nil, nil, nil, nil, nil, nil, nil, ExamScheduleConfig{})

	req := inlineRequest()
	req.Rooms = req.Rooms[:1]
	abort := true
	req.AbortOnUnassignable = &abort
	_, err := svc.Generate(context.Background(), req)
	appErr := requireAppError(t, err, appErrors.ErrUnassignable.Code)
	subjects, ok := appErr.Details.([]scheduler.UnassignableSubject)
	require.True(t, ok)
	require.Len(t, subjects, 1)
	assert.Equal(t, "CHEM1", subjects[0].Code)

	abort = false
	resp, err := svc.Generate(context.Background(), req)
	require.NoError(t, err)
	assert.Len(t, resp.Items, 2)
	require.Len(t, resp.Unassignable, 1)
	assert.Equal(t, scheduler.ReasonNoCompatibleRoom, resp.Unassignable[0].Reason)
}

func TestExamScheduleServiceGenerateCancelled(t *testing.T) {
	svc := NewExamScheduleService(nil, nil, nil, nil, nil, nil, nil, nil, nil, nil, ExamScheduleConfig{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Generate(ctx, inlineRequest())
	requireAppError(t, err, appErrors.ErrCancelled.Code)
}

func newTxDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "sqlmock"), mock
}

func TestExamScheduleServiceSave(t *testing.T) {
	subjects, rooms := catalogue()
	schedules := &scheduleStoreStub{}
	items := &itemStoreStub{}
	db, mock := newTxDB(t)
	svc := NewExamScheduleService(subjects, rooms, schedules, items, db, nil, nil, nil, nil, nil, ExamScheduleConfig{})

	req := inlineRequest()
	req.Config.Semester = "S1"
	generated, err := svc.Generate(context.Background(), req)
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectCommit()
	record, err := svc.Save(context.Background(), dto.SaveExamScheduleRequest{ProposalID: generated.ProposalID, Name: " Midterm "})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())

	assert.Equal(t, "sch-new", record.ID)
	assert.Equal(t, "Midterm", record.Name)
	assert.Equal(t, "S1", record.Semester)
	var cfg scheduler.Config
	require.NoError(t, json.Unmarshal(record.Config, &cfg))
	assert.Equal(t, scheduler.MustClock("09:00"), cfg.WorkingHours.Start)

	require.Len(t, items.created, 3)
	ids := map[string]bool{}
	for _, item := range items.created {
		assert.Equal(t, "sch-new", item.ScheduleID)
		ids[item.SubjectID] = true
	}
	assert.Equal(t, map[string]bool{"sub-math": true, "sub-phy": true, "sub-chem": true}, ids)

	_, err = svc.Save(context.Background(), dto.SaveExamScheduleRequest{ProposalID: generated.ProposalID, Name: "again"})
	requireAppError(t, err, appErrors.ErrNotFound.Code)
}

func TestExamScheduleServiceSaveRejectsUnknownSubjects(t *testing.T) {
	subjects, rooms := catalogue()
	subjects.list = subjects.list[:1]
	db, mock := newTxDB(t)
	svc := NewExamScheduleService(subjects, rooms, &scheduleStoreStub{}, &itemStoreStub{}, db, nil, nil, nil, nil, nil, ExamScheduleConfig{})

	generated, err := svc.Generate(context.Background(), inlineRequest())
	require.NoError(t, err)

	_, err = svc.Save(context.Background(), dto.SaveExamScheduleRequest{ProposalID: generated.ProposalID, Name: "Midterm"})
	appErr := requireAppError(t, err, appErrors.ErrValidation.Code)
	assert.Equal(t, []string{"CHEM1", "PHY1"}, appErr.Details)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func savedFixture(t *testing.T) (*ExamScheduleService, *scheduleStoreStub, *itemStoreStub) {
	t.Helper()
	_, rooms := catalogue()
	cfg := scheduler.Config{
		StartDate:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		WorkingHours: scheduler.WorkingHours{Start: scheduler.MustClock("09:00"), End: scheduler.MustClock("17:00")},
		SkipSundays:  true,
	}
	raw, err := json.Marshal(cfg)
	require.NoError(t, err)

	day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	schedules := &scheduleStoreStub{record: &models.ExamSchedule{ID: "sch-1", Name: "Midterm", StartDate: day, Config: types.JSONText(raw)}}
	items := &itemStoreStub{rows: []models.ExamScheduleItemDetail{
		{
			ExamScheduleItem:  models.ExamScheduleItem{ID: "item-1", ScheduleID: "sch-1", SubjectID: "sub-math", RoomID: "R1", ExamDate: day, StartTime: "09:00", EndTime: "11:00"},
			SubjectCode:       "MATH1",
			SubjectName:       "Calculus",
			SubjectType:       "Theory",
			SubjectSemester:   "S1",
			SubjectDifficulty: "High",
			RoomName:          "Room 1",
			RoomType:          "Classroom",
			RoomCapacity:      40,
		},
		{
			ExamScheduleItem:  models.ExamScheduleItem{ID: "item-2", ScheduleID: "sch-1", SubjectID: "sub-hist", RoomID: "R2", ExamDate: day, StartTime: "13:00", EndTime: "15:00"},
			SubjectCode:       "HIST2",
			SubjectName:       "History",
			SubjectType:       "Theory",
			SubjectSemester:   "S2",
			SubjectDifficulty: "Low",
			RoomName:          "Room 2",
			RoomType:          "Classroom",
			RoomCapacity:      40,
		},
	}}
	svc := NewExamScheduleService(nil, rooms, schedules, items, nil, nil, nil, nil, nil, nil, ExamScheduleConfig{Institution: "SMA 1"})
	return svc, schedules, items
}

func TestExamScheduleServiceUpdateItemReportsConflicts(t *testing.T) {
	svc, _, items := savedFixture(t)

	resp, err := svc.UpdateItem(context.Background(), "sch-1", "item-2", dto.UpdateExamScheduleItemRequest{
		RoomID:    "R1",
		Date:      "2024-01-01",
		StartTime: "10:00",
	})
	require.NoError(t, err)

	require.NotNil(t, items.updated)
	assert.Equal(t, "R1", items.updated.RoomID)
	assert.Equal(t, "10:00", items.updated.StartTime)
	assert.Equal(t, "12:00", items.updated.EndTime)

	assert.Equal(t, "Room 1", resp.Item.RoomName)
	assert.Equal(t, []scheduler.ConflictTag{scheduler.TagRoomClash}, resp.Tags)
	assert.False(t, resp.Conflicts.Clean)
	assert.Len(t, resp.Conflicts.Items, 2)
}

func TestExamScheduleServiceUpdateItemErrors(t *testing.T) {
	svc, _, _ := savedFixture(t)
	ctx := context.Background()

	_, err := svc.UpdateItem(ctx, "sch-1", "item-9", dto.UpdateExamScheduleItemRequest{RoomID: "R1", Date: "2024-01-01", StartTime: "10:00"})
	requireAppError(t, err, appErrors.ErrNotFound.Code)

	_, err = svc.UpdateItem(ctx, "sch-1", "item-2", dto.UpdateExamScheduleItemRequest{RoomID: "R9", Date: "2024-01-01", StartTime: "10:00"})
	requireAppError(t, err, appErrors.ErrNotFound.Code)

	_, err = svc.UpdateItem(ctx, "sch-1", "item-2", dto.UpdateExamScheduleItemRequest{RoomID: "R2", Date: "2024-01-01", StartTime: "10:00", EndTime: "09:00"})
	requireAppError(t, err, appErrors.ErrValidation.Code)

	_, err = svc.UpdateItem(ctx, "sch-9", "item-2", dto.UpdateExamScheduleItemRequest{RoomID: "R2", Date: "2024-01-01", StartTime: "10:00"})
	requireAppError(t, err, appErrors.ErrNotFound.Code)
}

func TestExamScheduleServiceAddItem(t *testing.T) {
	_, schedules, items := savedFixture(t)
	subjects, rooms := catalogue()
	svc := NewExamScheduleService(subjects, rooms, schedules, items, nil, nil, nil, nil, nil, nil, ExamScheduleConfig{})

	resp, err := svc.AddItem(context.Background(), "sch-1", dto.CreateExamScheduleItemRequest{
		SubjectCode: "PHY1",
		RoomID:      "R1",
		Date:        "2024-01-03",
		StartTime:   "09:00",
	})
	require.NoError(t, err)

	require.Len(t, items.created, 1)
	assert.Equal(t, "sub-phy", items.created[0].SubjectID)
	assert.Equal(t, "sch-1", items.created[0].ScheduleID)
	assert.Equal(t, "11:00", items.created[0].EndTime)
	assert.Equal(t, "PHY1", resp.Item.SubjectCode)
	assert.Equal(t, "Room 1", resp.Item.RoomName)
	assert.Empty(t, resp.Tags)
	assert.True(t, resp.Conflicts.Clean)
}

func TestExamScheduleServiceAddItemReportsConflicts(t *testing.T) {
	_, schedules, items := savedFixture(t)
	subjects, rooms := catalogue()
	svc := NewExamScheduleService(subjects, rooms, schedules, items, nil, nil, nil, nil, nil, nil, ExamScheduleConfig{})

	resp, err := svc.AddItem(context.Background(), "sch-1", dto.CreateExamScheduleItemRequest{
		SubjectCode: "PHY1",
		RoomID:      "R1",
		Date:        "2024-01-01",
		StartTime:   "10:00",
	})
	require.NoError(t, err)
	require.Len(t, items.created, 1)
	assert.Contains(t, resp.Tags, scheduler.TagRoomClash)
	assert.False(t, resp.Conflicts.Clean)
}

func TestExamScheduleServiceAddItemErrors(t *testing.T) {
	_, schedules, items := savedFixture(t)
	subjects, rooms := catalogue()
	svc := NewExamScheduleService(subjects, rooms, schedules, items, nil, nil, nil, nil, nil, nil, ExamScheduleConfig{})
	ctx := context.Background()

	_, err := svc.AddItem(ctx, "sch-1", dto.CreateExamScheduleItemRequest{SubjectCode: "MATH1", RoomID: "R1", Date: "2024-01-03", StartTime: "09:00"})
	requireAppError(t, err, appErrors.ErrConflict.Code)

	_, err = svc.AddItem(ctx, "sch-1", dto.CreateExamScheduleItemRequest{SubjectCode: "BIO9", RoomID: "R1", Date: "2024-01-03", StartTime: "09:00"})
	requireAppError(t, err, appErrors.ErrNotFound.Code)

	_, err = svc.AddItem(ctx, "sch-1", dto.CreateExamScheduleItemRequest{SubjectCode: "PHY1", RoomID: "R9", Date: "2024-01-03", StartTime: "09:00"})
	requireAppError(t, err, appErrors.ErrNotFound.Code)

	_, err = svc.AddItem(ctx, "sch-1", dto.CreateExamScheduleItemRequest{SubjectCode: "PHY1", RoomID: "R1", Date: "03/01/2024", StartTime: "09:00"})
	requireAppError(t, err, appErrors.ErrConfiguration.Code)

	_, err = svc.AddItem(ctx, "sch-1", dto.CreateExamScheduleItemRequest{SubjectCode: "PHY1"})
	requireAppError(t, err, appErrors.ErrValidation.Code)
	assert.Empty(t, items.created)
}

func TestExamScheduleServiceDeleteItemClearsConflict(t *testing.T) {
	svc, _, items := savedFixture(t)
	items.rows[1].RoomID = "R1"
	items.rows[1].RoomName = "Room 1"
	items.rows[1].StartTime = "10:00"
	items.rows[1].EndTime = "12:00"
	ctx := context.Background()

	before, err := svc.DetectConflicts(ctx, "sch-1")
	require.NoError(t, err)
	require.False(t, before.Clean)

	resp, err := svc.DeleteItem(ctx, "sch-1", "item-2")
	require.NoError(t, err)
	assert.Equal(t, []string{"item-2"}, items.deleted)
	assert.True(t, resp.Clean)

	_, err = svc.DeleteItem(ctx, "sch-1", "item-9")
	requireAppError(t, err, appErrors.ErrNotFound.Code)
}

func TestExamScheduleServiceDetectConflictsOnSaved(t *testing.T) {
	svc, _, _ := savedFixture(t)

	resp, err := svc.DetectConflicts(context.Background(), "sch-1")
	require.NoError(t, err)
	assert.True(t, resp.Clean)
	assert.NotNil(t, resp.Items)
}

func TestExamScheduleServiceDetectSubmitted(t *testing.T) {
	svc := NewExamScheduleService(nil, nil, nil, nil, nil, nil, nil, nil, nil, nil, ExamScheduleConfig{})

	room := dto.RoomInput{ID: "R1", Category: "Classroom"}
	other := dto.RoomInput{ID: "R2", Category: "Classroom"}
	req := dto.DetectConflictsRequest{
		Config: baseConfig(),
		Items: []dto.SubmittedItem{
			{Subject: dto.SubjectInput{Code: "A", Category: "Theory", Semester: "S1"}, Room: room, Date: "2024-01-01", StartTime: "09:00", EndTime: "11:00"},
			{Subject: dto.SubjectInput{Code: "B", Category: "Theory", Semester: "S1"}, Room: other, Date: "2024-01-01", StartTime: "10:00", EndTime: "12:00"},
			{Subject: dto.SubjectInput{Code: "C", Category: "Practical", Semester: "S2"}, Room: other, Date: "2024-01-07", StartTime: "09:00", EndTime: "11:00"},
		},
	}
	resp, err := svc.DetectSubmitted(context.Background(), req)
	require.NoError(t, err)

	assert.False(t, resp.Clean)
	require.Len(t, resp.Items, 3)
	assert.Equal(t, []scheduler.ConflictTag{scheduler.TagSemesterClash}, resp.Items[0].Tags)
	assert.Equal(t, []scheduler.ConflictTag{scheduler.TagSemesterClash}, resp.Items[1].Tags)
	assert.Equal(t, []scheduler.ConflictTag{scheduler.TagRoomCategoryMismatch, scheduler.TagSunday}, resp.Items[2].Tags)

	req.Items[0].Date = "someday"
	_, err = svc.DetectSubmitted(context.Background(), req)
	requireAppError(t, err, appErrors.ErrConfiguration.Code)
}

func TestExamScheduleServiceExport(t *testing.T) {
	svc, _, _ := savedFixture(t)

	file, err := svc.Export(context.Background(), "sch-1", "")
	require.NoError(t, err)
	assert.Equal(t, "text/csv", file.ContentType)
	assert.Equal(t, "exam-schedule-sch-1.csv", file.Filename)
	assert.Contains(t, string(file.Body), "2024-01-01,Monday,09:00-11:00,MATH1,Calculus,S1,Room 1")

	file, err = svc.Export(context.Background(), "sch-1", "PDF")
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", file.ContentType)
	assert.Equal(t, "%PDF", string(file.Body[:4]))

	_, err = svc.Export(context.Background(), "sch-1", "xlsx")
	requireAppError(t, err, appErrors.ErrValidation.Code)
}

func TestExamScheduleServiceDelete(t *testing.T) {
	svc, schedules, _ := savedFixture(t)

	require.NoError(t, svc.Delete(context.Background(), "sch-1"))
	assert.Equal(t, []string{"sch-1"}, schedules.deleted)

	err := svc.Delete(context.Background(), "sch-2")
	requireAppError(t, err, appErrors.ErrNotFound.Code)
}
