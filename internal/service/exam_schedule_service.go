package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-exam-scheduler/internal/dto"
	"github.com/noah-isme/sma-exam-scheduler/internal/models"
	"github.com/noah-isme/sma-exam-scheduler/internal/scheduler"
	appErrors "github.com/noah-isme/sma-exam-scheduler/pkg/errors"
	"github.com/noah-isme/sma-exam-scheduler/pkg/export"
	"github.com/noah-isme/sma-exam-scheduler/pkg/jobs"
)

// ExamScheduleJobType tags asynchronous generation jobs.
const ExamScheduleJobType = "exam_schedule_generation"

type examSubjectReader interface {
	List(ctx context.Context, filter models.SubjectFilter) ([]models.Subject, error)
	FindByCodes(ctx context.Context, codes []string) ([]models.Subject, error)
}

type examRoomReader interface {
	List(ctx context.Context) ([]models.Room, error)
	FindByIDs(ctx context.Context, ids []string) ([]models.Room, error)
}

type examScheduleStore interface {
	Create(ctx context.Context, exec sqlx.ExtContext, schedule *models.ExamSchedule) error
	List(ctx context.Context, filter models.ExamScheduleFilter) ([]models.ExamSchedule, error)
	FindByID(ctx context.Context, id string) (*models.ExamSchedule, error)
	Delete(ctx context.Context, id string) error
}

type examScheduleItemStore interface {
	CreateBatch(ctx context.Context, exec sqlx.ExtContext, items []models.ExamScheduleItem) error
	ListDetailed(ctx context.Context, scheduleID string) ([]models.ExamScheduleItemDetail, error)
	Update(ctx context.Context, item *models.ExamScheduleItem) error
	Delete(ctx context.Context, scheduleID, itemID string) error
}

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

type jobEnqueuer interface {
	Enqueue(job jobs.Job) error
}

type solveRecorder interface {
	ObserveSolve(outcome string, duration time.Duration)
}

type scheduleExporter interface {
	Render(data export.Dataset) ([]byte, error)
	ContentType() string
	Extension() string
}

// ExamScheduleConfig governs generation limits and export branding.
type ExamScheduleConfig struct {
	TimeLimit           time.Duration
	MaxTimeLimit        time.Duration
	Workers             int
	HorizonDays         int
	ProposalTTL         time.Duration
	AbortOnUnassignable bool
	Institution         string
	PDFTitle            string
}

// ExportFile is a rendered schedule document.
type ExportFile struct {
	Filename    string
	ContentType string
	Body        []byte
}

// ExamScheduleService generates exam schedule proposals, persists them and re-validates edits.
type ExamScheduleService struct {
	subjects  examSubjectReader
	rooms     examRoomReader
	schedules examScheduleStore
	items     examScheduleItemStore
	tx        txProvider
	proposals ProposalStore
	tracker   *jobs.Tracker
	queue     jobEnqueuer
	metrics   solveRecorder
	exporters map[string]scheduleExporter
	validator *validator.Validate
	logger    *zap.Logger
	cfg       ExamScheduleConfig
	now       func() time.Time
}

// NewExamScheduleService wires scheduler dependencies. Catalogue and persistence dependencies may
// be nil for stateless use, in which case generation requires inline subjects and rooms.
func NewExamScheduleService(
	subjects examSubjectReader,
	rooms examRoomReader,
	schedules examScheduleStore,
	items examScheduleItemStore,
	tx txProvider,
	proposals ProposalStore,
	tracker *jobs.Tracker,
	metrics solveRecorder,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg ExamScheduleConfig,
) *ExamScheduleService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if proposals == nil {
		proposals = NewMemoryProposalStore()
	}
	if tracker == nil {
		tracker = jobs.NewTracker(time.Hour)
	}
	if cfg.TimeLimit <= 0 {
		cfg.TimeLimit = scheduler.DefaultTimeLimit
	}
	if cfg.MaxTimeLimit < cfg.TimeLimit {
		cfg.MaxTimeLimit = cfg.TimeLimit
	}
	if cfg.ProposalTTL <= 0 {
		cfg.ProposalTTL = 30 * time.Minute
	}
	if cfg.PDFTitle == "" {
		cfg.PDFTitle = "Examination Schedule"
	}
	return &ExamScheduleService{
		subjects:  subjects,
		rooms:     rooms,
		schedules: schedules,
		items:     items,
		tx:        tx,
		proposals: proposals,
		tracker:   tracker,
		metrics:   metrics,
		exporters: map[string]scheduleExporter{
			"csv": export.NewCSVExporter(),
			"pdf": export.NewPDFExporter(),
		},
		validator: validate,
		logger:    logger,
		cfg:       cfg,
		now:       time.Now,
	}
}

// AttachQueue connects the background queue used by GenerateAsync.
func (s *ExamScheduleService) AttachQueue(queue jobEnqueuer) {
	s.queue = queue
}

// Generate builds and solves a model synchronously and stores the result as a proposal.
func (s *ExamScheduleService) Generate(ctx context.Context, req dto.GenerateExamScheduleRequest) (*dto.GenerateExamScheduleResponse, error) {
	return s.generate(ctx, req, nil)
}

func (s *ExamScheduleService) generate(ctx context.Context, req dto.GenerateExamScheduleRequest, progress func(scheduler.Progress)) (*dto.GenerateExamScheduleResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid exam schedule generation payload")
	}
	cfg, err := toSchedulerConfig(req.Config, s.cfg.HorizonDays)
	if err != nil {
		return nil, mapSchedulerError(err)
	}
	subjects, rooms, err := s.loadCatalogue(ctx, req, cfg)
	if err != nil {
		return nil, err
	}

	abort := s.cfg.AbortOnUnassignable
	if req.AbortOnUnassignable != nil {
		abort = *req.AbortOnUnassignable
	}
	model, err := scheduler.BuildModel(subjects, rooms, cfg, scheduler.BuildOptions{AbortOnUnassignable: abort})
	if err != nil {
		s.observe(nil, err, 0)
		return nil, mapSchedulerError(err)
	}

	started := time.Now()
	result, err := scheduler.Solve(ctx, model, scheduler.SolveOptions{
		TimeLimit:    s.timeLimit(req.TimeLimitSeconds),
		Workers:      s.cfg.Workers,
		AllowPartial: req.AllowPartial,
		Progress:     progress,
		Logger:       s.logger,
	})
	s.observe(result, err, time.Since(started))
	if err != nil {
		s.logger.Info("exam schedule generation failed", zap.String("semester", cfg.Semester), zap.Error(err))
		return nil, mapSchedulerError(err)
	}

	now := s.now().UTC()
	proposal := ExamProposal{ID: uuid.NewString(), Result: result, CreatedAt: now, ExpiresAt: now.Add(s.cfg.ProposalTTL)}
	if err := s.proposals.Save(ctx, proposal); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store schedule proposal")
	}
	s.logger.Info("exam schedule generated",
		zap.String("proposal_id", proposal.ID),
		zap.String("status", string(result.Status)),
		zap.Int("items", len(result.Schedule.Items)),
		zap.Int("days", result.Cost.Days),
		zap.Duration("elapsed", result.Elapsed),
	)

	resp := resultResponse(result)
	resp.ProposalID = proposal.ID
	resp.ExpiresAt = &proposal.ExpiresAt
	return resp, nil
}

func (s *ExamScheduleService) loadCatalogue(ctx context.Context, req dto.GenerateExamScheduleRequest, cfg scheduler.Config) ([]scheduler.Subject, []scheduler.Room, error) {
	var subjects []scheduler.Subject
	switch {
	case len(req.Subjects) > 0:
		subjects = subjectsFromInputs(req.Subjects)
	case s.subjects != nil:
		rows, err := s.subjects.List(ctx, models.SubjectFilter{Semester: cfg.Semester, Type: string(cfg.ExamCategory)})
		if err != nil {
			return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subjects")
		}
		subjects = subjectsFromModels(rows)
	default:
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "subjects are required")
	}

	var rooms []scheduler.Room
	switch {
	case len(req.Rooms) > 0:
		rooms = roomsFromInputs(req.Rooms)
	case s.rooms != nil:
		rows, err := s.rooms.List(ctx)
		if err != nil {
			return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load rooms")
		}
		rooms = roomsFromModels(rows)
	default:
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "rooms are required")
	}
	return subjects, rooms, nil
}

func (s *ExamScheduleService) timeLimit(seconds int) time.Duration {
	if seconds <= 0 {
		return s.cfg.TimeLimit
	}
	limit := time.Duration(seconds) * time.Second
	if limit > s.cfg.MaxTimeLimit {
		return s.cfg.MaxTimeLimit
	}
	return limit
}

func (s *ExamScheduleService) observe(result *scheduler.Result, err error, elapsed time.Duration) {
	if s.metrics == nil {
		return
	}
	s.metrics.ObserveSolve(solveOutcome(result, err), elapsed)
}

func solveOutcome(result *scheduler.Result, err error) string {
	var (
		cfgErr     *scheduler.ConfigurationError
		unassigned *scheduler.UnassignableSubjectError
		infeasible *scheduler.InfeasibleScheduleError
		partial    *scheduler.TimeoutPartialError
	)
	switch {
	case err == nil && result != nil:
		return string(result.Status)
	case errors.As(err, &cfgErr):
		return "invalid"
	case errors.As(err, &unassigned):
		return "unassignable"
	case errors.As(err, &infeasible):
		return "infeasible"
	case errors.As(err, &partial):
		return "partial"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	}
	return "error"
}

// mapSchedulerError translates core errors into API errors carrying their structured payload.
func mapSchedulerError(err error) error {
	var (
		cfgErr     *scheduler.ConfigurationError
		unassigned *scheduler.UnassignableSubjectError
		infeasible *scheduler.InfeasibleScheduleError
		partial    *scheduler.TimeoutPartialError
	)
	switch {
	case errors.As(err, &cfgErr):
		return appErrors.WithDetails(appErrors.Clone(appErrors.ErrConfiguration, cfgErr.Error()), err, cfgErr.Fields)
	case errors.As(err, &unassigned):
		return appErrors.WithDetails(appErrors.Clone(appErrors.ErrUnassignable, unassigned.Error()), err, unassigned.Subjects)
	case errors.As(err, &infeasible):
		return appErrors.WithDetails(appErrors.Clone(appErrors.ErrInfeasibleSchedule, infeasible.Error()), err, infeasible.Report)
	case errors.As(err, &partial):
		var details interface{}
		if partial.Result != nil {
			details = resultResponse(partial.Result)
		}
		return appErrors.WithDetails(appErrors.Clone(appErrors.ErrTimeoutPartial, partial.Error()), err, details)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return appErrors.Wrap(err, appErrors.ErrCancelled.Code, appErrors.ErrCancelled.Status, appErrors.ErrCancelled.Message)
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to generate exam schedule")
}

// Save persists a proposal and its items in one transaction.
func (s *ExamScheduleService) Save(ctx context.Context, req dto.SaveExamScheduleRequest) (*models.ExamSchedule, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid save exam schedule payload")
	}
	if s.schedules == nil || s.items == nil || s.subjects == nil || s.rooms == nil || s.tx == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "exam schedule persistence unavailable")
	}
	proposal, err := s.proposals.Get(ctx, req.ProposalID)
	if err != nil {
		if errors.Is(err, ErrProposalNotFound) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "proposal not found or expired")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load proposal")
	}
	schedule := proposal.Result.Schedule
	if report := scheduler.Detect(schedule); !report.Empty() {
		return nil, appErrors.WithDetails(appErrors.Clone(appErrors.ErrConflict, "proposal contains unresolved conflicts"), nil, conflictResponse(report))
	}

	subjectIDs, err := s.resolveSubjects(ctx, schedule.Items)
	if err != nil {
		return nil, err
	}
	if err := s.ensureRooms(ctx, schedule.Items); err != nil {
		return nil, err
	}

	configJSON, err := json.Marshal(schedule.Config)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode schedule configuration")
	}
	record := &models.ExamSchedule{
		Name:      strings.TrimSpace(req.Name),
		Semester:  schedule.Config.Semester,
		ExamType:  string(schedule.Config.ExamCategory),
		StartDate: schedule.Config.StartDate,
		Config:    types.JSONText(configJSON),
	}

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = s.schedules.Create(ctx, tx, record); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create exam schedule")
	}
	rows := make([]models.ExamScheduleItem, 0, len(schedule.Items))
	for _, item := range schedule.Items {
		rows = append(rows, models.ExamScheduleItem{
			ScheduleID: record.ID,
			SubjectID:  subjectIDs[item.Subject.Code],
			RoomID:     item.Room.ID,
			ExamDate:   item.Slot.Date,
			StartTime:  item.Slot.Start.String(),
			EndTime:    item.Slot.End.String(),
		})
	}
	if err = s.items.CreateBatch(ctx, tx, rows); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist exam schedule items")
	}
	if err = tx.Commit(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit exam schedule transaction")
	}

	if delErr := s.proposals.Delete(ctx, req.ProposalID); delErr != nil {
		s.logger.Warn("failed to drop saved proposal", zap.String("proposal_id", req.ProposalID), zap.Error(delErr))
	}
	s.logger.Info("exam schedule saved", zap.String("schedule_id", record.ID), zap.Int("items", len(rows)))
	return record, nil
}

func (s *ExamScheduleService) resolveSubjects(ctx context.Context, items []scheduler.ScheduleItem) (map[string]string, error) {
	codes := make([]string, 0, len(items))
	for _, item := range items {
		codes = append(codes, item.Subject.Code)
	}
	codes = uniqueSorted(codes)
	rows, err := s.subjects.FindByCodes(ctx, codes)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subjects")
	}
	ids := make(map[string]string, len(rows))
	for _, row := range rows {
		ids[row.Code] = row.ID
	}
	var missing []string
	for _, code := range codes {
		if _, ok := ids[code]; !ok {
			missing = append(missing, code)
		}
	}
	if len(missing) > 0 {
		return nil, appErrors.WithDetails(appErrors.Clone(appErrors.ErrValidation, "proposal references subjects missing from the catalogue"), nil, missing)
	}
	return ids, nil
}

func (s *ExamScheduleService) ensureRooms(ctx context.Context, items []scheduler.ScheduleItem) error {
	ids := make([]string, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.Room.ID)
	}
	ids = uniqueSorted(ids)
	rows, err := s.rooms.FindByIDs(ctx, ids)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load rooms")
	}
	known := make(map[string]bool, len(rows))
	for _, row := range rows {
		known[row.ID] = true
	}
	var missing []string
	for _, id := range ids {
		if !known[id] {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		return appErrors.WithDetails(appErrors.Clone(appErrors.ErrValidation, "proposal references rooms missing from the catalogue"), nil, missing)
	}
	return nil
}

// List returns saved schedules matching the query.
func (s *ExamScheduleService) List(ctx context.Context, query dto.ExamScheduleQuery) ([]models.ExamSchedule, error) {
	if s.schedules == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "exam schedule persistence unavailable")
	}
	list, err := s.schedules.List(ctx, models.ExamScheduleFilter{Semester: query.Semester, ExamType: query.ExamType})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list exam schedules")
	}
	return list, nil
}

// GetItems returns the items of a saved schedule.
func (s *ExamScheduleService) GetItems(ctx context.Context, scheduleID string) ([]dto.ExamScheduleItemView, error) {
	_, _, rows, err := s.loadSchedule(ctx, scheduleID)
	if err != nil {
		return nil, err
	}
	views := make([]dto.ExamScheduleItemView, 0, len(rows))
	for _, row := range rows {
		views = append(views, detailView(row))
	}
	return views, nil
}

func (s *ExamScheduleService) loadSchedule(ctx context.Context, scheduleID string) (*models.ExamSchedule, scheduler.Config, []models.ExamScheduleItemDetail, error) {
	if scheduleID == "" {
		return nil, scheduler.Config{}, nil, appErrors.Clone(appErrors.ErrValidation, "schedule id is required")
	}
	if s.schedules == nil || s.items == nil {
		return nil, scheduler.Config{}, nil, appErrors.Clone(appErrors.ErrInternal, "exam schedule persistence unavailable")
	}
	record, err := s.schedules.FindByID(ctx, scheduleID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, scheduler.Config{}, nil, appErrors.Clone(appErrors.ErrNotFound, "exam schedule not found")
		}
		return nil, scheduler.Config{}, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load exam schedule")
	}
	var cfg scheduler.Config
	if len(record.Config) > 0 {
		if err := json.Unmarshal(record.Config, &cfg); err != nil {
			return nil, scheduler.Config{}, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to decode exam schedule configuration")
		}
	}
	rows, err := s.items.ListDetailed(ctx, scheduleID)
	if err != nil {
		return nil, scheduler.Config{}, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list exam schedule items")
	}
	return record, cfg, rows, nil
}

func (s *ExamScheduleService) detectStored(cfg scheduler.Config, rows []models.ExamScheduleItemDetail) (scheduler.ConflictReport, error) {
	schedule, err := scheduleFromDetails(cfg, rows)
	if err != nil {
		return scheduler.ConflictReport{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "stored exam schedule item is malformed")
	}
	return scheduler.Detect(schedule), nil
}

// UpdateItem moves one item and reports the conflicts the schedule has afterwards. The edit is
// stored even when it introduces conflicts.
func (s *ExamScheduleService) UpdateItem(ctx context.Context, scheduleID, itemID string, req dto.UpdateExamScheduleItemRequest) (*dto.UpdateExamScheduleItemResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid exam schedule item payload")
	}
	_, cfg, rows, err := s.loadSchedule(ctx, scheduleID)
	if err != nil {
		return nil, err
	}
	index := itemIndex(rows, itemID)
	if index < 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "exam schedule item not found")
	}
	row := rows[index]

	date, start, end, err := itemTimes(cfg, scheduler.Subject{Category: scheduler.Category(row.SubjectType), DurationMinutes: row.SubjectDuration}, req.Date, req.StartTime, req.EndTime)
	if err != nil {
		return nil, err
	}
	if req.RoomID != row.RoomID {
		room, err := s.lookupRoom(ctx, req.RoomID)
		if err != nil {
			return nil, err
		}
		row.RoomID = room.ID
		row.RoomName = room.Name
		row.RoomType = room.Type
		row.RoomCapacity = room.Capacity
	}
	row.ExamDate = date
	row.StartTime = start.String()
	row.EndTime = end.String()

	if err := s.items.Update(ctx, &row.ExamScheduleItem); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "exam schedule item not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update exam schedule item")
	}
	rows[index] = row

	report, err := s.detectStored(cfg, rows)
	if err != nil {
		return nil, err
	}
	tags := report.TagsFor(index)
	if tags == nil {
		tags = []scheduler.ConflictTag{}
	}
	return &dto.UpdateExamScheduleItemResponse{
		Item:      detailView(row),
		Tags:      tags,
		Conflicts: conflictResponse(report),
	}, nil
}

// AddItem places a catalogue subject into a saved schedule by hand and reports the conflicts the
// schedule has afterwards. A subject appears at most once per schedule.
func (s *ExamScheduleService) AddItem(ctx context.Context, scheduleID string, req dto.CreateExamScheduleItemRequest) (*dto.UpdateExamScheduleItemResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid exam schedule item payload")
	}
	_, cfg, rows, err := s.loadSchedule(ctx, scheduleID)
	if err != nil {
		return nil, err
	}
	code := strings.TrimSpace(req.SubjectCode)
	for _, row := range rows {
		if strings.EqualFold(row.SubjectCode, code) {
			return nil, appErrors.WithDetails(appErrors.Clone(appErrors.ErrConflict, "subject is already scheduled"), nil, map[string]string{"itemId": row.ID})
		}
	}
	if s.subjects == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "subject catalogue unavailable")
	}
	found, err := s.subjects.FindByCodes(ctx, []string{code})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject")
	}
	if len(found) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
	}
	subject := found[0]

	date, start, end, err := itemTimes(cfg, scheduler.Subject{Category: scheduler.Category(subject.Type), DurationMinutes: subject.Duration}, req.Date, req.StartTime, req.EndTime)
	if err != nil {
		return nil, err
	}
	room, err := s.lookupRoom(ctx, req.RoomID)
	if err != nil {
		return nil, err
	}

	created := []models.ExamScheduleItem{{
		ScheduleID: scheduleID,
		SubjectID:  subject.ID,
		RoomID:     room.ID,
		ExamDate:   date,
		StartTime:  start.String(),
		EndTime:    end.String(),
	}}
	if err := s.items.CreateBatch(ctx, nil, created); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to add exam schedule item")
	}
	row := models.ExamScheduleItemDetail{
		ExamScheduleItem:  created[0],
		SubjectCode:       subject.Code,
		SubjectName:       subject.Name,
		SubjectType:       subject.Type,
		SubjectSemester:   subject.Semester,
		SubjectDifficulty: subject.Difficulty,
		SubjectDuration:   subject.Duration,
		RoomName:          room.Name,
		RoomType:          room.Type,
		RoomCapacity:      room.Capacity,
	}
	rows = append(rows, row)

	report, err := s.detectStored(cfg, rows)
	if err != nil {
		return nil, err
	}
	tags := report.TagsFor(len(rows) - 1)
	if tags == nil {
		tags = []scheduler.ConflictTag{}
	}
	s.logger.Info("exam schedule item added", zap.String("schedule_id", scheduleID), zap.String("item_id", row.ID))
	return &dto.UpdateExamScheduleItemResponse{
		Item:      detailView(row),
		Tags:      tags,
		Conflicts: conflictResponse(report),
	}, nil
}

// DeleteItem removes one item from a saved schedule and reports the conflicts that remain.
func (s *ExamScheduleService) DeleteItem(ctx context.Context, scheduleID, itemID string) (*dto.ConflictCheckResponse, error) {
	_, cfg, rows, err := s.loadSchedule(ctx, scheduleID)
	if err != nil {
		return nil, err
	}
	index := itemIndex(rows, itemID)
	if index < 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "exam schedule item not found")
	}
	if err := s.items.Delete(ctx, scheduleID, itemID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "exam schedule item not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete exam schedule item")
	}
	rows = append(rows[:index], rows[index+1:]...)

	report, err := s.detectStored(cfg, rows)
	if err != nil {
		return nil, err
	}
	resp := conflictResponse(report)
	return &resp, nil
}

func itemIndex(rows []models.ExamScheduleItemDetail, itemID string) int {
	for i := range rows {
		if rows[i].ID == itemID {
			return i
		}
	}
	return -1
}

func (s *ExamScheduleService) lookupRoom(ctx context.Context, id string) (*models.Room, error) {
	if s.rooms == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "room catalogue unavailable")
	}
	found, err := s.rooms.FindByIDs(ctx, []string{id})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load room")
	}
	if len(found) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "room not found")
	}
	return &found[0], nil
}

// itemTimes parses a hand-entered date and clock range. An empty end defaults to start plus the
// subject's exam duration.
func itemTimes(cfg scheduler.Config, subject scheduler.Subject, rawDate, rawStart, rawEnd string) (time.Time, scheduler.Clock, scheduler.Clock, error) {
	var fc fieldCollector
	date, err := scheduler.ParseDate(rawDate)
	if err != nil {
		fc.add("date", err)
	}
	start, err := scheduler.ParseClock(rawStart)
	if err != nil {
		fc.add("startTime", err)
	}
	end := start + scheduler.Clock(cfg.SubjectDuration(subject))
	if rawEnd != "" {
		if end, err = scheduler.ParseClock(rawEnd); err != nil {
			fc.add("endTime", err)
		}
	}
	if err := fc.err(); err != nil {
		return time.Time{}, 0, 0, mapSchedulerError(err)
	}
	if end <= start {
		return time.Time{}, 0, 0, appErrors.Clone(appErrors.ErrValidation, "endTime must be after startTime")
	}
	return date, start, end, nil
}

// DetectConflicts re-validates a saved schedule.
func (s *ExamScheduleService) DetectConflicts(ctx context.Context, scheduleID string) (*dto.ConflictCheckResponse, error) {
	_, cfg, rows, err := s.loadSchedule(ctx, scheduleID)
	if err != nil {
		return nil, err
	}
	report, err := s.detectStored(cfg, rows)
	if err != nil {
		return nil, err
	}
	resp := conflictResponse(report)
	return &resp, nil
}

// DetectSubmitted re-validates a schedule supplied by the caller without touching storage.
func (s *ExamScheduleService) DetectSubmitted(_ context.Context, req dto.DetectConflictsRequest) (*dto.ConflictCheckResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid conflict check payload")
	}
	cfg, err := toSchedulerConfig(req.Config, s.cfg.HorizonDays)
	if err != nil {
		return nil, mapSchedulerError(err)
	}

	var fc fieldCollector
	schedule := scheduler.Schedule{Config: cfg, Items: make([]scheduler.ScheduleItem, 0, len(req.Items))}
	for i, in := range req.Items {
		prefix := fmt.Sprintf("items[%d].", i)
		date, err := scheduler.ParseDate(in.Date)
		if err != nil {
			fc.add(prefix+"date", err)
			continue
		}
		slot, err := parseSlot(date, in.StartTime, in.EndTime)
		if err != nil {
			fc.add(prefix+"time", err)
			continue
		}
		schedule.Items = append(schedule.Items, scheduler.ScheduleItem{
			Subject: subjectsFromInputs([]dto.SubjectInput{in.Subject})[0],
			Room:    roomsFromInputs([]dto.RoomInput{in.Room})[0],
			Slot:    slot,
		})
	}
	if err := fc.err(); err != nil {
		return nil, mapSchedulerError(err)
	}
	resp := conflictResponse(scheduler.Detect(schedule))
	return &resp, nil
}

// Export renders a saved schedule as csv (default) or pdf.
func (s *ExamScheduleService) Export(ctx context.Context, scheduleID, format string) (*ExportFile, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = "csv"
	}
	exporter, ok := s.exporters[format]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
	record, _, rows, err := s.loadSchedule(ctx, scheduleID)
	if err != nil {
		return nil, err
	}

	data := export.Dataset{
		Title:    s.cfg.PDFTitle + ": " + record.Name,
		Subtitle: s.cfg.Institution,
		Headers:  []string{"Date", "Day", "Time", "Code", "Subject", "Semester", "Room"},
		GroupBy:  "Date",
	}
	for _, row := range rows {
		data.Rows = append(data.Rows, map[string]string{
			"Date":     row.ExamDate.Format(scheduler.DateLayout),
			"Day":      row.ExamDate.Weekday().String(),
			"Time":     row.StartTime + "-" + row.EndTime,
			"Code":     row.SubjectCode,
			"Subject":  row.SubjectName,
			"Semester": row.SubjectSemester,
			"Room":     row.RoomName,
		})
	}
	body, err := exporter.Render(data)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}
	return &ExportFile{
		Filename:    fmt.Sprintf("exam-schedule-%s.%s", record.ID, exporter.Extension()),
		ContentType: exporter.ContentType(),
		Body:        body,
	}, nil
}

// Delete removes a saved schedule and its items.
func (s *ExamScheduleService) Delete(ctx context.Context, scheduleID string) error {
	if s.schedules == nil {
		return appErrors.Clone(appErrors.ErrInternal, "exam schedule persistence unavailable")
	}
	if err := s.schedules.Delete(ctx, scheduleID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "exam schedule not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete exam schedule")
	}
	return nil
}
