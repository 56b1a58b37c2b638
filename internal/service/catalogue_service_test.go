package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-exam-scheduler/internal/dto"
	"github.com/noah-isme/sma-exam-scheduler/internal/models"
	appErrors "github.com/noah-isme/sma-exam-scheduler/pkg/errors"
)

type subjectCatalogueStub struct {
	rows    map[string]*models.Subject
	usage   map[string]int
	created []*models.Subject
	updated []*models.Subject
	deleted []string
}

func newSubjectCatalogueStub(rows ...models.Subject) *subjectCatalogueStub {
	stub := &subjectCatalogueStub{rows: map[string]*models.Subject{}, usage: map[string]int{}}
	for i := range rows {
		row := rows[i]
		stub.rows[row.ID] = &row
	}
	return stub
}

func (s *subjectCatalogueStub) List(_ context.Context, filter models.SubjectFilter) ([]models.Subject, error) {
	var out []models.Subject
	for _, row := range s.rows {
		if filter.Semester == "" || row.Semester == filter.Semester {
			out = append(out, *row)
		}
	}
	return out, nil
}

func (s *subjectCatalogueStub) FindByID(_ context.Context, id string) (*models.Subject, error) {
	row, ok := s.rows[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *row
	return &clone, nil
}

func (s *subjectCatalogueStub) ExistsByCode(_ context.Context, code, excludeID string) (bool, error) {
	for id, row := range s.rows {
		if id != excludeID && strings.EqualFold(row.Code, code) {
			return true, nil
		}
	}
	return false, nil
}

func (s *subjectCatalogueStub) Create(_ context.Context, subject *models.Subject) error {
	subject.ID = "sub-new"
	s.created = append(s.created, subject)
	return nil
}

func (s *subjectCatalogueStub) Update(_ context.Context, subject *models.Subject) error {
	s.updated = append(s.updated, subject)
	return nil
}

func (s *subjectCatalogueStub) Delete(_ context.Context, id string) error {
	s.deleted = append(s.deleted, id)
	return nil
}

func (s *subjectCatalogueStub) CountScheduleItems(_ context.Context, id string) (int, error) {
	return s.usage[id], nil
}

func TestSubjectServiceCreate(t *testing.T) {
	repo := newSubjectCatalogueStub(models.Subject{ID: "sub-1", Code: "MATH1", Semester: "S1"})
	svc := NewSubjectService(repo, nil, nil)

	subject, err := svc.Create(context.Background(), dto.SubjectRequest{Code: " phy1 ", Name: "Physics", Type: "Theory", Semester: "S1", Difficulty: "hard", Duration: 90})
	require.NoError(t, err)
	assert.Equal(t, "sub-new", subject.ID)
	assert.Equal(t, "PHY1", subject.Code)
	assert.Equal(t, "High", subject.Difficulty)
	assert.Equal(t, 90, subject.Duration)

	defaulted, err := svc.Create(context.Background(), dto.SubjectRequest{Code: "BIO1", Name: "Biology", Type: "Practical", Semester: "S2"})
	require.NoError(t, err)
	assert.Equal(t, "Medium", defaulted.Difficulty)
	assert.Len(t, repo.created, 2)
}

func TestSubjectServiceCreateRejects(t *testing.T) {
	repo := newSubjectCatalogueStub(models.Subject{ID: "sub-1", Code: "MATH1", Semester: "S1"})
	svc := NewSubjectService(repo, nil, nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, dto.SubjectRequest{Code: "math1", Name: "Calculus", Type: "Theory", Semester: "S1"})
	requireAppError(t, err, appErrors.ErrConflict.Code)

	_, err = svc.Create(ctx, dto.SubjectRequest{Code: "ART1", Name: "Art", Type: "Studio", Semester: "S1"})
	requireAppError(t, err, appErrors.ErrValidation.Code)

	_, err = svc.Create(ctx, dto.SubjectRequest{Code: "ART1", Name: "Art", Type: "Theory", Semester: "S1", Difficulty: "brutal"})
	requireAppError(t, err, appErrors.ErrValidation.Code)
	assert.Empty(t, repo.created)
}

func TestSubjectServiceUpdate(t *testing.T) {
	repo := newSubjectCatalogueStub(
		models.Subject{ID: "sub-1", Code: "MATH1", Semester: "S1"},
		models.Subject{ID: "sub-2", Code: "PHY1", Semester: "S1"},
	)
	svc := NewSubjectService(repo, nil, nil)
	ctx := context.Background()

	subject, err := svc.Update(ctx, "sub-1", dto.SubjectRequest{Code: "MATH1", Name: "Calculus II", Type: "Theory", Semester: "S2", Difficulty: "Low"})
	require.NoError(t, err)
	assert.Equal(t, "Calculus II", subject.Name)
	assert.Equal(t, "S2", subject.Semester)
	require.Len(t, repo.updated, 1)

	_, err = svc.Update(ctx, "sub-1", dto.SubjectRequest{Code: "PHY1", Name: "Calculus", Type: "Theory", Semester: "S1"})
	requireAppError(t, err, appErrors.ErrConflict.Code)

	_, err = svc.Update(ctx, "sub-9", dto.SubjectRequest{Code: "X1", Name: "X", Type: "Theory", Semester: "S1"})
	requireAppError(t, err, appErrors.ErrNotFound.Code)
}

func TestSubjectServiceDelete(t *testing.T) {
	repo := newSubjectCatalogueStub(
		models.Subject{ID: "sub-1", Code: "MATH1"},
		models.Subject{ID: "sub-2", Code: "PHY1"},
	)
	repo.usage["sub-1"] = 2
	svc := NewSubjectService(repo, nil, nil)
	ctx := context.Background()

	appErr := requireAppError(t, svc.Delete(ctx, "sub-1"), appErrors.ErrConflict.Code)
	assert.Equal(t, map[string]int{"items": 2}, appErr.Details)

	require.NoError(t, svc.Delete(ctx, "sub-2"))
	assert.Equal(t, []string{"sub-2"}, repo.deleted)

	requireAppError(t, svc.Delete(ctx, "sub-9"), appErrors.ErrNotFound.Code)
}

type roomCatalogueStub struct {
	rows      map[string]*models.Room
	usage     map[string]int
	created   []*models.Room
	deleted   []string
	upserted  []models.Room
	upsertErr error
}

func newRoomCatalogueStub(rows ...models.Room) *roomCatalogueStub {
	stub := &roomCatalogueStub{rows: map[string]*models.Room{}, usage: map[string]int{}}
	for i := range rows {
		row := rows[i]
		stub.rows[row.ID] = &row
	}
	return stub
}

func (s *roomCatalogueStub) List(context.Context) ([]models.Room, error) {
	var out []models.Room
	for _, row := range s.rows {
		out = append(out, *row)
	}
	return out, nil
}

func (s *roomCatalogueStub) FindByID(_ context.Context, id string) (*models.Room, error) {
	row, ok := s.rows[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *row
	return &clone, nil
}

func (s *roomCatalogueStub) ExistsByName(_ context.Context, name, excludeID string) (bool, error) {
	for id, row := range s.rows {
		if id != excludeID && strings.EqualFold(row.Name, name) {
			return true, nil
		}
	}
	return false, nil
}

func (s *roomCatalogueStub) Create(_ context.Context, room *models.Room) error {
	if room.ID == "" {
		room.ID = "room-new"
	}
	s.created = append(s.created, room)
	return nil
}

func (s *roomCatalogueStub) Update(_ context.Context, room *models.Room) error {
	s.rows[room.ID] = room
	return nil
}

func (s *roomCatalogueStub) Delete(_ context.Context, id string) error {
	s.deleted = append(s.deleted, id)
	return nil
}

func (s *roomCatalogueStub) CountScheduleItems(_ context.Context, id string) (int, error) {
	return s.usage[id], nil
}

func (s *roomCatalogueStub) UpsertByName(_ context.Context, _ sqlx.ExtContext, room *models.Room) (bool, error) {
	if s.upsertErr != nil {
		return false, s.upsertErr
	}
	s.upserted = append(s.upserted, *room)
	for _, row := range s.rows {
		if strings.EqualFold(row.Name, room.Name) {
			return false, nil
		}
	}
	return true, nil
}

func TestRoomServiceCreate(t *testing.T) {
	repo := newRoomCatalogueStub(models.Room{ID: "R1", Name: "Room 1", Type: "Classroom", Capacity: 40})
	svc := NewRoomService(repo, nil, nil, nil)
	ctx := context.Background()

	room, err := svc.Create(ctx, dto.RoomRequest{ID: "L1", Name: "Lab 1", Type: "Lab", Capacity: 30})
	require.NoError(t, err)
	assert.Equal(t, "L1", room.ID)

	generated, err := svc.Create(ctx, dto.RoomRequest{Name: "Room 2", Type: "Classroom", Capacity: 35})
	require.NoError(t, err)
	assert.Equal(t, "room-new", generated.ID)

	_, err = svc.Create(ctx, dto.RoomRequest{ID: "R1", Name: "Room 9", Type: "Classroom", Capacity: 35})
	requireAppError(t, err, appErrors.ErrConflict.Code)

	_, err = svc.Create(ctx, dto.RoomRequest{Name: "room 1", Type: "Classroom", Capacity: 35})
	requireAppError(t, err, appErrors.ErrConflict.Code)

	_, err = svc.Create(ctx, dto.RoomRequest{Name: "Hall", Type: "Auditorium", Capacity: 35})
	requireAppError(t, err, appErrors.ErrValidation.Code)
	assert.Len(t, repo.created, 2)
}

func TestRoomServiceUpdateAndDelete(t *testing.T) {
	repo := newRoomCatalogueStub(
		models.Room{ID: "R1", Name: "Room 1", Type: "Classroom", Capacity: 40},
		models.Room{ID: "R2", Name: "Room 2", Type: "Classroom", Capacity: 40},
	)
	repo.usage["R1"] = 1
	svc := NewRoomService(repo, nil, nil, nil)
	ctx := context.Background()

	room, err := svc.Update(ctx, "R2", dto.RoomRequest{ID: "ignored", Name: "Room 2B", Type: "Classroom", Capacity: 45})
	require.NoError(t, err)
	assert.Equal(t, "R2", room.ID)
	assert.Equal(t, 45, repo.rows["R2"].Capacity)

	_, err = svc.Update(ctx, "R2", dto.RoomRequest{Name: "Room 1", Type: "Classroom", Capacity: 45})
	requireAppError(t, err, appErrors.ErrConflict.Code)

	requireAppError(t, svc.Delete(ctx, "R1"), appErrors.ErrConflict.Code)
	require.NoError(t, svc.Delete(ctx, "R2"))
	assert.Equal(t, []string{"R2"}, repo.deleted)
}

func TestRoomServiceImport(t *testing.T) {
	db, mock := newTxDB(t)
	repo := newRoomCatalogueStub(models.Room{ID: "R1", Name: "Room 1", Type: "Classroom", Capacity: 40})
	svc := NewRoomService(repo, db, nil, nil)

	mock.ExpectBegin()
	mock.ExpectCommit()

	csvBody := "Name,Type,Capacity\nRoom 1,Classroom,45\nLab 1,Lab,30\n  Room 3 , Classroom , 25\n"
	result, err := svc.Import(context.Background(), strings.NewReader(csvBody))
	require.NoError(t, err)
	assert.Equal(t, 2, result.Imported)
	assert.Equal(t, 1, result.Updated)
	require.Len(t, repo.upserted, 3)
	assert.Equal(t, 45, repo.upserted[0].Capacity)
	assert.Equal(t, "Room 3", repo.upserted[2].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRoomServiceImportRejectsBadInput(t *testing.T) {
	repo := newRoomCatalogueStub()
	svc := NewRoomService(repo, nil, nil, nil)
	ctx := context.Background()

	appErr := requireAppError(t, errOf(svc.Import(ctx, strings.NewReader("name,capacity\nRoom 1,40\n"))), appErrors.ErrValidation.Code)
	assert.Equal(t, []string{"type"}, appErr.Details)

	appErr = requireAppError(t, errOf(svc.Import(ctx, strings.NewReader("name,type,capacity\nRoom 1,Classroom,forty\nLab 1,Gym,30\nRoom 1,Classroom,20\n"))), appErrors.ErrValidation.Code)
	details, ok := appErr.Details.(map[string]string)
	require.True(t, ok)
	assert.Contains(t, details, "row 2")
	assert.Contains(t, details, "row 3")
	assert.NotContains(t, details, "row 4")

	appErr = requireAppError(t, errOf(svc.Import(ctx, strings.NewReader("name,type,capacity\nRoom 1,Classroom,20\nroom 1,Lab,20\n"))), appErrors.ErrValidation.Code)
	assert.Contains(t, appErr.Details, "row 3")

	requireAppError(t, errOf(svc.Import(ctx, strings.NewReader(""))), appErrors.ErrValidation.Code)
	assert.Empty(t, repo.upserted)
}

func TestRoomServiceImportRollsBack(t *testing.T) {
	db, mock := newTxDB(t)
	repo := newRoomCatalogueStub()
	repo.upsertErr = errors.New("unique violation")
	svc := NewRoomService(repo, db, nil, nil)

	mock.ExpectBegin()
	mock.ExpectRollback()

	_, err := svc.Import(context.Background(), strings.NewReader("name,type,capacity\nRoom 1,Classroom,20\n"))
	requireAppError(t, err, appErrors.ErrInternal.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func errOf(_ *dto.RoomImportResult, err error) error {
	return err
}
