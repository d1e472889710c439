package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"

	"github.com/acadsuite/timetable-api/internal/models"
)

// TimetableRepository persists versioned generated timetables and their slots.
type TimetableRepository struct {
	db *sqlx.DB
}

// NewTimetableRepository constructs repository.
func NewTimetableRepository(db *sqlx.DB) *TimetableRepository {
	return &TimetableRepository{db: db}
}

func (r *TimetableRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// CreateVersioned inserts a timetable header assigning the next version for
// the program/semester/batch tuple.
func (r *TimetableRepository) CreateVersioned(ctx context.Context, exec sqlx.ExtContext, timetable *models.GeneratedTimetable) error {
	if timetable == nil {
		return fmt.Errorf("timetable payload is nil")
	}
	if timetable.ProgramID == "" || timetable.Batch == "" {
		return fmt.Errorf("program_id and batch are required")
	}
	if timetable.ID == "" {
		timetable.ID = uuid.NewString()
	}
	if timetable.Status == "" {
		timetable.Status = models.GeneratedTimetableStatusDraft
	}
	if len(timetable.Meta) == 0 {
		timetable.Meta = types.JSONText(`{}`)
	}
	now := time.Now().UTC()
	if timetable.CreatedAt.IsZero() {
		timetable.CreatedAt = now
	}
	timetable.UpdatedAt = now

	target := r.exec(exec)

	const nextVersionQuery = `SELECT COALESCE(MAX(version), 0) + 1 FROM generated_timetables
WHERE program_id = $1 AND semester = $2 AND batch = $3`
	if err := sqlx.GetContext(ctx, target, &timetable.Version, nextVersionQuery, timetable.ProgramID, timetable.Semester, timetable.Batch); err != nil {
		return fmt.Errorf("compute next timetable version: %w", err)
	}

	const insertQuery = `
INSERT INTO generated_timetables (id, program_id, semester, batch, academic_year, version, status, score, meta, created_at, updated_at)
VALUES (:id, :program_id, :semester, :batch, :academic_year, :version, :status, :score, :meta, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, target, insertQuery, timetable); err != nil {
		return fmt.Errorf("insert generated timetable: %w", err)
	}
	return nil
}

// InsertSlots persists the assignments produced by one generation run.
func (r *TimetableRepository) InsertSlots(ctx context.Context, exec sqlx.ExtContext, slots []models.TimetableSlot) error {
	if len(slots) == 0 {
		return nil
	}
	target := r.exec(exec)
	now := time.Now().UTC()

	const query = `
INSERT INTO timetable_slots (id, timetable_id, course_id, faculty_id, room_id, day_of_week, start_time, end_time, slot_type, created_at)
VALUES (:id, :timetable_id, :course_id, :faculty_id, :room_id, :day_of_week, :start_time, :end_time, :slot_type, :created_at)`

	for i := range slots {
		slot := &slots[i]
		if slot.ID == "" {
			slot.ID = uuid.NewString()
		}
		if slot.CreatedAt.IsZero() {
			slot.CreatedAt = now
		}
		if _, err := sqlx.NamedExecContext(ctx, target, query, slot); err != nil {
			return fmt.Errorf("insert timetable slot: %w", err)
		}
	}
	return nil
}

// FindByID loads a timetable header by its identifier.
func (r *TimetableRepository) FindByID(ctx context.Context, id string) (*models.GeneratedTimetable, error) {
	const query = `SELECT id, program_id, semester, batch, academic_year, version, status, score, meta, created_at, updated_at
FROM generated_timetables WHERE id = $1`
	var timetable models.GeneratedTimetable
	if err := r.db.GetContext(ctx, &timetable, query, id); err != nil {
		return nil, err
	}
	return &timetable, nil
}

// ListByCohort returns all versions for the program/semester/batch tuple,
// newest first.
func (r *TimetableRepository) ListByCohort(ctx context.Context, programID string, semester int, batch string) ([]models.GeneratedTimetable, error) {
	const query = `SELECT id, program_id, semester, batch, academic_year, version, status, score, meta, created_at, updated_at
FROM generated_timetables WHERE program_id = $1 AND semester = $2 AND batch = $3 ORDER BY version DESC`
	var timetables []models.GeneratedTimetable
	if err := r.db.SelectContext(ctx, &timetables, query, programID, semester, batch); err != nil {
		return nil, fmt.Errorf("list generated timetables: %w", err)
	}
	return timetables, nil
}

// ListSlots returns the stored assignments for a timetable ordered by day/time.
func (r *TimetableRepository) ListSlots(ctx context.Context, timetableID string) ([]models.TimetableSlot, error) {
	const query = `SELECT id, timetable_id, course_id, faculty_id, room_id, day_of_week, start_time, end_time, slot_type, created_at
FROM timetable_slots WHERE timetable_id = $1 ORDER BY day_of_week ASC, start_time ASC`
	var slots []models.TimetableSlot
	if err := r.db.SelectContext(ctx, &slots, query, timetableID); err != nil {
		return nil, fmt.Errorf("list timetable slots: %w", err)
	}
	return slots, nil
}

// Delete removes a stored timetable version.
func (r *TimetableRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM generated_timetables WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete generated timetable: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("generated timetable rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
