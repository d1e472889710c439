package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acadsuite/timetable-api/internal/models"
)

func newTimetableRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestTimetableRepositoryCreateVersioned(t *testing.T) {
	db, mock, cleanup := newTimetableRepoMock(t)
	defer cleanup()
	repo := NewTimetableRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COALESCE(MAX(version), 0) + 1 FROM generated_timetables")).
		WithArgs("prog-1", 3, "A").
		WillReturnRows(sqlmock.NewRows([]string{"next"}).AddRow(4))

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO generated_timetables")).
		WithArgs(sqlmock.AnyArg(), "prog-1", 3, "A", "2026-27", 4, string(models.GeneratedTimetableStatusDraft), 87.5, sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	payload := &models.GeneratedTimetable{
		ProgramID:    "prog-1",
		Semester:     3,
		Batch:        "A",
		AcademicYear: "2026-27",
		Score:        87.5,
		Meta:         types.JSONText(`{"conflictCount":0}`),
	}
	err := repo.CreateVersioned(context.Background(), nil, payload)
	require.NoError(t, err)
	assert.Equal(t, 4, payload.Version)
	assert.NotEmpty(t, payload.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableRepositoryInsertSlots(t *testing.T) {
	db, mock, cleanup := newTimetableRepoMock(t)
	defer cleanup()
	repo := NewTimetableRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO timetable_slots")).
		WithArgs(sqlmock.AnyArg(), "tt-1", "c-1", "f-1", "r-1", "MONDAY", "09:00", "10:00", "theory", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO timetable_slots")).
		WithArgs(sqlmock.AnyArg(), "tt-1", "c-2", "f-1", "r-2", "MONDAY", "10:00", "12:00", "practical", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	slots := []models.TimetableSlot{
		{TimetableID: "tt-1", CourseID: "c-1", FacultyID: "f-1", RoomID: "r-1", DayOfWeek: "MONDAY", StartTime: "09:00", EndTime: "10:00", SlotType: "theory"},
		{TimetableID: "tt-1", CourseID: "c-2", FacultyID: "f-1", RoomID: "r-2", DayOfWeek: "MONDAY", StartTime: "10:00", EndTime: "12:00", SlotType: "practical"},
	}
	require.NoError(t, repo.InsertSlots(context.Background(), nil, slots))
	assert.NotEmpty(t, slots[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableRepositoryInsertSlotsEmpty(t *testing.T) {
	db, mock, cleanup := newTimetableRepoMock(t)
	defer cleanup()
	repo := NewTimetableRepository(db)

	require.NoError(t, repo.InsertSlots(context.Background(), nil, nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableRepositoryListByCohort(t *testing.T) {
	db, mock, cleanup := newTimetableRepoMock(t)
	defer cleanup()
	repo := NewTimetableRepository(db)

	rows := sqlmock.NewRows([]string{"id", "program_id", "semester", "batch", "academic_year", "version", "status", "score", "meta", "created_at", "updated_at"}).
		AddRow("tt-2", "prog-1", 3, "A", "2026-27", 2, string(models.GeneratedTimetableStatusDraft), 91.0, types.JSONText(`{}`), time.Now(), time.Now()).
		AddRow("tt-1", "prog-1", 3, "A", "2026-27", 1, string(models.GeneratedTimetableStatusArchived), 74.2, types.JSONText(`{}`), time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("FROM generated_timetables WHERE program_id = $1 AND semester = $2 AND batch = $3 ORDER BY version DESC")).
		WithArgs("prog-1", 3, "A").
		WillReturnRows(rows)

	list, err := repo.ListByCohort(context.Background(), "prog-1", 3, "A")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, 2, list[0].Version)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableRepositoryListSlots(t *testing.T) {
	db, mock, cleanup := newTimetableRepoMock(t)
	defer cleanup()
	repo := NewTimetableRepository(db)

	rows := sqlmock.NewRows([]string{"id", "timetable_id", "course_id", "faculty_id", "room_id", "day_of_week", "start_time", "end_time", "slot_type", "created_at"}).
		AddRow("slot-1", "tt-1", "c-1", "f-1", "r-1", "MONDAY", "09:00", "10:00", "theory", time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("FROM timetable_slots WHERE timetable_id = $1 ORDER BY day_of_week ASC, start_time ASC")).
		WithArgs("tt-1").
		WillReturnRows(rows)

	slots, err := repo.ListSlots(context.Background(), "tt-1")
	require.NoError(t, err)
	require.Len(t, slots, 1)
	assert.Equal(t, "c-1", slots[0].CourseID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableRepositoryDeleteNotFound(t *testing.T) {
	db, mock, cleanup := newTimetableRepoMock(t)
	defer cleanup()
	repo := NewTimetableRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM generated_timetables WHERE id = $1")).
		WithArgs("tt-404").
		WillReturnResult(sqlmock.NewResult(1, 0))

	err := repo.Delete(context.Background(), "tt-404")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}
