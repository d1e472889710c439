package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// GeneratedTimetableStatus represents lifecycle phases for stored timetables.
type GeneratedTimetableStatus string

const (
	GeneratedTimetableStatusDraft     GeneratedTimetableStatus = "DRAFT"
	GeneratedTimetableStatusPublished GeneratedTimetableStatus = "PUBLISHED"
	GeneratedTimetableStatusArchived  GeneratedTimetableStatus = "ARCHIVED"
)

// GeneratedTimetable is the versioned header row for one generation run of a
// program/semester/batch cohort. Conflicts, metrics and the constraint flags
// that accompanied the request are kept in the meta JSON payload.
type GeneratedTimetable struct {
	ID           string                   `db:"id" json:"id"`
	ProgramID    string                   `db:"program_id" json:"programId"`
	Semester     int                      `db:"semester" json:"semester"`
	Batch        string                   `db:"batch" json:"batch"`
	AcademicYear string                   `db:"academic_year" json:"academicYear"`
	Version      int                      `db:"version" json:"version"`
	Status       GeneratedTimetableStatus `db:"status" json:"status"`
	Score        float64                  `db:"score" json:"score"`
	Meta         types.JSONText           `db:"meta" json:"meta"`
	CreatedAt    time.Time                `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time                `db:"updated_at" json:"updatedAt"`
}

// ExportFormat enumerates supported timetable export renderings.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

// TimetableSlot is one persisted assignment inside a generated timetable.
type TimetableSlot struct {
	ID          string    `db:"id" json:"id"`
	TimetableID string    `db:"timetable_id" json:"timetableId"`
	CourseID    string    `db:"course_id" json:"courseId"`
	FacultyID   string    `db:"faculty_id" json:"facultyId"`
	RoomID      string    `db:"room_id" json:"roomId"`
	DayOfWeek   string    `db:"day_of_week" json:"dayOfWeek"`
	StartTime   string    `db:"start_time" json:"startTime"`
	EndTime     string    `db:"end_time" json:"endTime"`
	SlotType    string    `db:"slot_type" json:"slotType"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
}
