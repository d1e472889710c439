package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/acadsuite/timetable-api/internal/models"
)

// FacultyRepository reads teaching staff records for scheduling.
type FacultyRepository struct {
	db *sqlx.DB
}

// NewFacultyRepository constructs repository.
func NewFacultyRepository(db *sqlx.DB) *FacultyRepository {
	return &FacultyRepository{db: db}
}

// ListActive returns all faculty currently available for assignment.
func (r *FacultyRepository) ListActive(ctx context.Context) ([]models.Faculty, error) {
	const query = `SELECT id, first_name, last_name, expertise, max_workload
FROM faculty WHERE is_active = TRUE ORDER BY last_name ASC, first_name ASC`
	var faculty []models.Faculty
	if err := r.db.SelectContext(ctx, &faculty, query); err != nil {
		return nil, fmt.Errorf("list active faculty: %w", err)
	}
	return faculty, nil
}
