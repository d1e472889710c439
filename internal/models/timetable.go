package models

import "github.com/lib/pq"

// CourseType classifies how a course meets: lecture theory, lab practical, or
// supervised project work. The richer catalogue types used by the curriculum
// module collapse into these three for scheduling purposes.
type CourseType string

const (
	CourseTypeTheory    CourseType = "theory"
	CourseTypePractical CourseType = "practical"
	CourseTypeProject   CourseType = "project"
)

// Course is an immutable scheduling input describing one course offering.
type Course struct {
	ID             string     `db:"id" json:"id" validate:"required"`
	Code           string     `db:"code" json:"code" validate:"required"`
	Name           string     `db:"name" json:"name" validate:"required"`
	Type           CourseType `db:"course_type" json:"type" validate:"required,oneof=theory practical project"`
	Credits        int        `db:"credits" json:"credits" validate:"min=0"`
	TheoryHours    int        `db:"theory_hours" json:"theoryHours" validate:"min=0"`
	PracticalHours int        `db:"practical_hours" json:"practicalHours" validate:"min=0"`
}

// TotalHours is the weekly contact-hour demand the course places on a faculty member.
func (c Course) TotalHours() int {
	return c.TheoryHours + c.PracticalHours
}

// Faculty describes a teaching staff member available for assignment.
type Faculty struct {
	ID          string         `db:"id" json:"id" validate:"required"`
	FirstName   string         `db:"first_name" json:"firstName"`
	LastName    string         `db:"last_name" json:"lastName"`
	Expertise   pq.StringArray `db:"expertise" json:"expertise"`
	MaxWorkload int            `db:"max_workload" json:"maxWorkload" validate:"min=0"`
}

// Room describes a bookable teaching space.
type Room struct {
	ID         string `db:"id" json:"id" validate:"required"`
	RoomNumber string `db:"room_number" json:"roomNumber"`
	Type       string `db:"room_type" json:"type" validate:"required"`
	Capacity   int    `db:"capacity" json:"capacity" validate:"min=0"`
}

// Assignment is one committed placement: a course meeting a faculty member in
// a room at a fixed weekly slot.
type Assignment struct {
	CourseID  string `json:"courseId"`
	FacultyID string `json:"facultyId"`
	RoomID    string `json:"roomId"`
	DayOfWeek string `json:"dayOfWeek"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
	SlotType  string `json:"slotType"`
}

// ConflictType tags the category of a timetable diagnostic.
type ConflictType string

const (
	ConflictFacultyOverload    ConflictType = "faculty_overload"
	ConflictLowRoomUtilization ConflictType = "low_room_utilization"
	ConflictFaculty            ConflictType = "faculty_conflict"
	ConflictRoom               ConflictType = "room_conflict"
)

// ConflictSeverity grades how urgently a conflict needs attention.
type ConflictSeverity string

const (
	SeverityLow    ConflictSeverity = "low"
	SeverityMedium ConflictSeverity = "medium"
	SeverityHigh   ConflictSeverity = "high"
)

// TimetableConflict is an advisory diagnostic attached to a generation result.
// Conflicts never block generation; they describe what an administrator should
// review.
type TimetableConflict struct {
	Type        ConflictType     `json:"type"`
	Description string           `json:"description"`
	Severity    ConflictSeverity `json:"severity"`
	Suggestions []string         `json:"suggestions"`
}

// TimetableMetrics summarises resource usage for one generated timetable.
// All percentages are rounded to two decimals.
type TimetableMetrics struct {
	FacultyUtilization float64 `json:"facultyUtilization"`
	RoomUtilization    float64 `json:"roomUtilization"`
	ConflictCount      int     `json:"conflictCount"`
	WorkloadBalance    float64 `json:"workloadBalance"`
}
