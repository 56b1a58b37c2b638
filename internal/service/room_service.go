package service

import (
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-exam-scheduler/internal/dto"
	"github.com/noah-isme/sma-exam-scheduler/internal/models"
	appErrors "github.com/noah-isme/sma-exam-scheduler/pkg/errors"
)

type roomRepository interface {
	List(ctx context.Context) ([]models.Room, error)
	FindByID(ctx context.Context, id string) (*models.Room, error)
	ExistsByName(ctx context.Context, name, excludeID string) (bool, error)
	Create(ctx context.Context, room *models.Room) error
	Update(ctx context.Context, room *models.Room) error
	Delete(ctx context.Context, id string) error
	CountScheduleItems(ctx context.Context, id string) (int, error)
	UpsertByName(ctx context.Context, exec sqlx.ExtContext, room *models.Room) (bool, error)
}

// roomImportColumns must all appear in an import header; "id" is optional.
var roomImportColumns = []string{"name", "type", "capacity"}

// RoomService maintains exam rooms.
type RoomService struct {
	repo      roomRepository
	tx        txProvider
	validator *validator.Validate
	logger    *zap.Logger
}

// NewRoomService creates a room service. tx may be nil, in which case imports run without a transaction.
func NewRoomService(repo roomRepository, tx txProvider, validate *validator.Validate, logger *zap.Logger) *RoomService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RoomService{repo: repo, tx: tx, validator: validate, logger: logger}
}

// List returns every room.
func (s *RoomService) List(ctx context.Context) ([]models.Room, error) {
	rooms, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list rooms")
	}
	return rooms, nil
}

// Get returns a room by identifier.
func (s *RoomService) Get(ctx context.Context, id string) (*models.Room, error) {
	room, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "room not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load room")
	}
	return room, nil
}

// Create adds a room with a unique name.
func (s *RoomService) Create(ctx context.Context, req dto.RoomRequest) (*models.Room, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid room payload")
	}
	id := strings.TrimSpace(req.ID)
	if id != "" {
		if _, err := s.repo.FindByID(ctx, id); err == nil {
			return nil, appErrors.Clone(appErrors.ErrConflict, "room id already exists")
		} else if !errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check room id")
		}
	}
	if err := s.ensureUniqueName(ctx, req.Name, ""); err != nil {
		return nil, err
	}

	room := &models.Room{ID: id, Name: strings.TrimSpace(req.Name), Type: req.Type, Capacity: req.Capacity}
	if err := s.repo.Create(ctx, room); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create room")
	}
	s.logger.Info("room created", zap.String("room_id", room.ID), zap.String("name", room.Name))
	return room, nil
}

// Update replaces the name, type and capacity of a room. The id never changes.
func (s *RoomService) Update(ctx context.Context, id string, req dto.RoomRequest) (*models.Room, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid room payload")
	}
	room, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.ensureUniqueName(ctx, req.Name, id); err != nil {
		return nil, err
	}

	room.Name = strings.TrimSpace(req.Name)
	room.Type = req.Type
	room.Capacity = req.Capacity
	if err := s.repo.Update(ctx, room); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "room not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update room")
	}
	return room, nil
}

func (s *RoomService) ensureUniqueName(ctx context.Context, name, excludeID string) error {
	exists, err := s.repo.ExistsByName(ctx, strings.TrimSpace(name), excludeID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check room name")
	}
	if exists {
		return appErrors.Clone(appErrors.ErrConflict, "room name already exists")
	}
	return nil
}

// Delete removes a room that no saved schedule uses.
func (s *RoomService) Delete(ctx context.Context, id string) error {
	room, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	count, err := s.repo.CountScheduleItems(ctx, room.ID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check room dependencies")
	}
	if count > 0 {
		return appErrors.WithDetails(appErrors.Clone(appErrors.ErrConflict, "room is used by saved exam schedules"), nil, map[string]int{"items": count})
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "room not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete room")
	}
	return nil
}

// Import reads rooms from CSV with a header naming at least name, type and capacity. Rows whose
// name matches an existing room update that room. Every row is validated before anything is
// written; the import is all or nothing.
func (s *RoomService) Import(ctx context.Context, r io.Reader) (*dto.RoomImportResult, error) {
	rooms, err := s.parseImport(r)
	if err != nil {
		return nil, err
	}

	var exec sqlx.ExtContext
	var tx *sqlx.Tx
	if s.tx != nil {
		if tx, err = s.tx.BeginTxx(ctx, nil); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to start room import")
		}
		exec = tx
		defer func() {
			if tx != nil {
				_ = tx.Rollback()
			}
		}()
	}

	result := &dto.RoomImportResult{}
	for i := range rooms {
		inserted, err := s.repo.UpsertByName(ctx, exec, &rooms[i])
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to import rooms")
		}
		if inserted {
			result.Imported++
		} else {
			result.Updated++
		}
	}
	if tx != nil {
		if err := tx.Commit(); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit room import")
		}
		tx = nil
	}
	s.logger.Info("rooms imported", zap.Int("imported", result.Imported), zap.Int("updated", result.Updated))
	return result, nil
}

func (s *RoomService) parseImport(r io.Reader) ([]models.Room, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "room import is not valid CSV")
	}
	if len(records) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "room import is empty")
	}

	index := make(map[string]int, len(records[0]))
	for i, name := range records[0] {
		index[strings.ToLower(strings.TrimSpace(name))] = i
	}
	var missing []string
	for _, col := range roomImportColumns {
		if _, ok := index[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, appErrors.WithDetails(appErrors.Clone(appErrors.ErrValidation, "room import is missing required columns"), nil, missing)
	}
	field := func(record []string, col string) string {
		if i, ok := index[col]; ok && i < len(record) {
			return strings.TrimSpace(record[i])
		}
		return ""
	}

	rooms := make([]models.Room, 0, len(records)-1)
	seen := make(map[string]int, len(records)-1)
	problems := map[string]string{}
	for n, record := range records[1:] {
		line := fmt.Sprintf("row %d", n+2)
		capacity, err := strconv.Atoi(field(record, "capacity"))
		if err != nil {
			problems[line] = "capacity must be a whole number"
			continue
		}
		req := dto.RoomRequest{ID: field(record, "id"), Name: field(record, "name"), Type: field(record, "type"), Capacity: capacity}
		if err := s.validator.Struct(req); err != nil {
			problems[line] = err.Error()
			continue
		}
		key := strings.ToLower(req.Name)
		if prev, dup := seen[key]; dup {
			problems[line] = fmt.Sprintf("duplicates the room name on row %d", prev)
			continue
		}
		seen[key] = n + 2
		rooms = append(rooms, models.Room{ID: req.ID, Name: req.Name, Type: req.Type, Capacity: req.Capacity})
	}
	if len(problems) > 0 {
		return nil, appErrors.WithDetails(appErrors.Clone(appErrors.ErrValidation, "room import has invalid rows"), nil, problems)
	}
	return rooms, nil
}
