package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/acadsuite/timetable-api/internal/models"
)

// CourseRepository reads course offerings for scheduling.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository constructs repository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

// ListByCohort returns the offerings for a program/semester/batch tuple.
func (r *CourseRepository) ListByCohort(ctx context.Context, programID string, semester int, batch string) ([]models.Course, error) {
	const query = `SELECT id, code, name, course_type, credits, theory_hours, practical_hours
FROM courses WHERE program_id = $1 AND semester = $2 AND batch = $3 ORDER BY code ASC`
	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query, programID, semester, batch); err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	return courses, nil
}
