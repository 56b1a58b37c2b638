package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-exam-scheduler/internal/models"
)

var subjectRowColumns = []string{"id", "code", "name", "type", "semester", "difficulty", "duration", "created_at", "updated_at"}

func TestSubjectRepositoryListFilters(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("FROM subjects WHERE semester = $1 AND type = $2 ORDER BY code ASC")).
		WithArgs("S1", "Theory").
		WillReturnRows(sqlmock.NewRows(subjectRowColumns).
			AddRow("sub-1", "MATH1", "Calculus", "Theory", "S1", "High", 0, now, now))

	subjects, err := NewSubjectRepository(db).List(context.Background(), models.SubjectFilter{Semester: "S1", Type: "Theory"})
	require.NoError(t, err)
	require.Len(t, subjects, 1)
	assert.Equal(t, "High", subjects[0].Difficulty)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubjectRepositoryFindByCodes(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSubjectRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("FROM subjects WHERE code = ANY($1)")).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(subjectRowColumns).
			AddRow("sub-1", "MATH1", "Calculus", "Theory", "S1", "High", 0, now, now))

	subjects, err := repo.FindByCodes(context.Background(), []string{"MATH1", "GONE"})
	require.NoError(t, err)
	assert.Len(t, subjects, 1)

	none, err := repo.FindByCodes(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, none)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRoomRepositoryList(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewRoomRepository(db)

	now := time.Now()
	columns := []string{"id", "name", "type", "capacity", "created_at", "updated_at"}
	mock.ExpectQuery(regexp.QuoteMeta("FROM rooms ORDER BY id ASC")).
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow("L1", "Lab 1", "Lab", 30, now, now).
			AddRow("R1", "Room 1", "Classroom", 40, now, now))
	mock.ExpectQuery(regexp.QuoteMeta("FROM rooms WHERE id = ANY($1)")).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(columns).AddRow("R1", "Room 1", "Classroom", 40, now, now))

	rooms, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, rooms, 2)

	found, err := repo.FindByIDs(context.Background(), []string{"R1"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Room 1", found[0].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubjectRepositoryCreateAndExists(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSubjectRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO subjects")).
		WithArgs(sqlmock.AnyArg(), "MATH1", "Calculus", "Theory", "S1", "High", 120, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM subjects WHERE LOWER(code) = LOWER($1) AND id <> $2 LIMIT 1")).
		WithArgs("math1", "sub-2").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM subjects WHERE LOWER(code) = LOWER($1) LIMIT 1")).
		WithArgs("PHY1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}))

	subject := &models.Subject{Code: "MATH1", Name: "Calculus", Type: "Theory", Semester: "S1", Difficulty: "High", Duration: 120}
	require.NoError(t, repo.Create(context.Background(), subject))
	assert.NotEmpty(t, subject.ID)
	assert.False(t, subject.CreatedAt.IsZero())

	taken, err := repo.ExistsByCode(context.Background(), "math1", "sub-2")
	require.NoError(t, err)
	assert.True(t, taken)

	free, err := repo.ExistsByCode(context.Background(), "PHY1", "")
	require.NoError(t, err)
	assert.False(t, free)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubjectRepositoryUpdateDeleteMissing(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSubjectRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE subjects")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM subjects WHERE id = $1")).
		WithArgs("sub-9").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM exam_schedule_items WHERE subject_id = $1")).
		WithArgs("sub-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	assert.ErrorIs(t, repo.Update(context.Background(), &models.Subject{ID: "sub-9"}), sql.ErrNoRows)
	assert.ErrorIs(t, repo.Delete(context.Background(), "sub-9"), sql.ErrNoRows)

	count, err := repo.CountScheduleItems(context.Background(), "sub-1")
	require.NoError(t, err)
	assert.Equal(t, 3, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRoomRepositoryCRUD(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewRoomRepository(db)

	now := time.Now()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO rooms")).
		WithArgs("R101", "Room 101", "Classroom", 40, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery(regexp.QuoteMeta("FROM rooms WHERE id = $1")).
		WithArgs("R101").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "type", "capacity", "created_at", "updated_at"}).
			AddRow("R101", "Room 101", "Classroom", 40, now, now))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE rooms SET name =")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM rooms WHERE id = $1")).
		WithArgs("R101").
		WillReturnResult(sqlmock.NewResult(0, 1))

	room := &models.Room{ID: "R101", Name: "Room 101", Type: "Classroom", Capacity: 40}
	require.NoError(t, repo.Create(context.Background(), room))

	found, err := repo.FindByID(context.Background(), "R101")
	require.NoError(t, err)
	assert.Equal(t, 40, found.Capacity)

	found.Capacity = 45
	require.NoError(t, repo.Update(context.Background(), found))
	require.NoError(t, repo.Delete(context.Background(), "R101"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRoomRepositoryUpsertByName(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewRoomRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("ON CONFLICT (name) DO UPDATE")).
		WithArgs(sqlmock.AnyArg(), "Lab 2", "Lab", 25, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "inserted"}).AddRow("L2", false))
	mock.ExpectCommit()

	tx, err := db.Beginx()
	require.NoError(t, err)
	room := &models.Room{Name: "Lab 2", Type: "Lab", Capacity: 25}
	inserted, err := repo.UpsertByName(context.Background(), tx, room)
	require.NoError(t, err)
	require.NoError(t, tx.Commit())

	assert.False(t, inserted)
	assert.Equal(t, "L2", room.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
