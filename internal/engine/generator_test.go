package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/acadsuite/timetable-api/internal/models"
	appErrors "github.com/acadsuite/timetable-api/pkg/errors"
)

func TestGenerateTrivialSuccess(t *testing.T) {
	gen := NewGenerator(zap.NewNop())

	result, err := gen.Generate(context.Background(), Request{
		Courses: []models.Course{
			{ID: "c-1", Code: "CS101", Name: "Data Structures", Type: models.CourseTypeTheory, Credits: 3, TheoryHours: 2},
		},
		Faculty: []models.Faculty{
			{ID: "f-1", FirstName: "Asha", LastName: "Rao", Expertise: []string{"data structures"}, MaxWorkload: 10},
		},
		Rooms: []models.Room{
			{ID: "r-1", RoomNumber: "101", Type: "classroom", Capacity: 60},
		},
	})
	require.NoError(t, err)
	require.Len(t, result.Schedule, 1)
	assert.Empty(t, result.UnassignedCourseIDs)

	first := result.Schedule[0]
	assert.Equal(t, "c-1", first.CourseID)
	assert.Equal(t, "f-1", first.FacultyID)
	assert.Equal(t, "r-1", first.RoomID)
	assert.Equal(t, "MONDAY", first.DayOfWeek)
	assert.Equal(t, "09:00", first.StartTime)
	assert.Equal(t, "10:00", first.EndTime)
	assert.Equal(t, "theory", first.SlotType)
}

func TestGenerateIncompatibleRoomLeavesCourseUnassigned(t *testing.T) {
	gen := NewGenerator(nil)

	result, err := gen.Generate(context.Background(), Request{
		Courses: []models.Course{
			{ID: "c-1", Code: "CH201", Name: "Organic Chemistry Lab", Type: models.CourseTypePractical, PracticalHours: 2},
		},
		Faculty: []models.Faculty{
			{ID: "f-1", FirstName: "Meera", LastName: "Iyer", Expertise: []string{"chemistry"}, MaxWorkload: 12},
		},
		Rooms: []models.Room{
			{ID: "r-1", RoomNumber: "202", Type: "classroom", Capacity: 40},
		},
	})
	require.NoError(t, err)
	assert.Empty(t, result.Schedule)
	assert.Equal(t, []string{"c-1"}, result.UnassignedCourseIDs)
	// Unassignment is reflected in the score, not the conflict list.
	for _, conflict := range result.Conflicts {
		assert.NotEqual(t, models.ConflictFacultyOverload, conflict.Type)
		assert.NotEqual(t, models.ConflictFaculty, conflict.Type)
		assert.NotEqual(t, models.ConflictRoom, conflict.Type)
	}
}

func TestGenerateNeverOvercommitsFaculty(t *testing.T) {
	gen := NewGenerator(nil)

	result, err := gen.Generate(context.Background(), Request{
		Courses: []models.Course{
			{ID: "c-1", Code: "MA101", Name: "Calculus", Type: models.CourseTypeTheory, TheoryHours: 2},
			{ID: "c-2", Code: "MA102", Name: "Linear Algebra", Type: models.CourseTypeTheory, TheoryHours: 2},
		},
		Faculty: []models.Faculty{
			{ID: "f-1", FirstName: "Ravi", LastName: "Menon", Expertise: []string{"ma1"}, MaxWorkload: 2},
		},
		Rooms: []models.Room{
			{ID: "r-1", RoomNumber: "301", Type: "lecture", Capacity: 80},
		},
	})
	require.NoError(t, err)
	assert.Len(t, result.Schedule, 1)
	assert.Len(t, result.UnassignedCourseIDs, 1)
	for _, conflict := range result.Conflicts {
		assert.NotEqual(t, models.ConflictFacultyOverload, conflict.Type, "a faculty within cap must never be reported overloaded")
	}
}

func TestGenerateIsDeterministic(t *testing.T) {
	gen := NewGenerator(nil)
	req := denseRequest()

	first, err := gen.Generate(context.Background(), req)
	require.NoError(t, err)
	second, err := gen.Generate(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, first.Schedule, second.Schedule)
	assert.Equal(t, first.Conflicts, second.Conflicts)
	assert.Equal(t, first.Metrics, second.Metrics)
	assert.Equal(t, first.OptimizationScore, second.OptimizationScore)
	assert.Equal(t, first.Recommendations, second.Recommendations)
}

func TestGenerateNeverDoubleBooks(t *testing.T) {
	gen := NewGenerator(nil)

	result, err := gen.Generate(context.Background(), denseRequest())
	require.NoError(t, err)
	require.NotEmpty(t, result.Schedule)

	for i, a := range result.Schedule {
		for j, b := range result.Schedule {
			if i == j {
				continue
			}
			sameSlot := a.DayOfWeek == b.DayOfWeek && a.StartTime == b.StartTime && a.EndTime == b.EndTime
			if a.FacultyID == b.FacultyID {
				assert.False(t, sameSlot, "faculty %s double-booked at %s %s", a.FacultyID, a.DayOfWeek, a.StartTime)
			}
			if a.RoomID == b.RoomID {
				assert.False(t, sameSlot, "room %s double-booked at %s %s", a.RoomID, a.DayOfWeek, a.StartTime)
			}
		}
	}
}

func TestGenerateWorkloadAccounting(t *testing.T) {
	gen := NewGenerator(nil)
	req := denseRequest()

	result, err := gen.Generate(context.Background(), req)
	require.NoError(t, err)

	hoursByCourse := make(map[string]int, len(req.Courses))
	capacity := 0
	for _, c := range req.Courses {
		hoursByCourse[c.ID] = c.TotalHours()
	}
	for _, f := range req.Faculty {
		capacity += f.MaxWorkload
	}
	used := 0
	for _, a := range result.Schedule {
		used += hoursByCourse[a.CourseID]
	}

	expected := roundTo2(float64(used) / float64(capacity) * 100)
	assert.Equal(t, expected, result.Metrics.FacultyUtilization)
}

func TestGenerateScoreBounds(t *testing.T) {
	gen := NewGenerator(nil)

	empty, err := gen.Generate(context.Background(), Request{
		Faculty: []models.Faculty{{ID: "f-1", MaxWorkload: 10}},
		Rooms:   []models.Room{{ID: "r-1", Type: "classroom"}},
	})
	require.NoError(t, err)
	assert.Equal(t, 0.0, empty.OptimizationScore)

	dense, err := gen.Generate(context.Background(), denseRequest())
	require.NoError(t, err)
	assert.GreaterOrEqual(t, dense.OptimizationScore, 0.0)
	assert.LessOrEqual(t, dense.OptimizationScore, 100.0)
}

func TestGenerateCompatibilityInvariant(t *testing.T) {
	gen := NewGenerator(nil)
	req := denseRequest()

	result, err := gen.Generate(context.Background(), req)
	require.NoError(t, err)

	courses := make(map[string]models.Course, len(req.Courses))
	rooms := make(map[string]models.Room, len(req.Rooms))
	faculty := make(map[string]models.Faculty, len(req.Faculty))
	for _, c := range req.Courses {
		courses[c.ID] = c
	}
	for _, r := range req.Rooms {
		rooms[r.ID] = r
	}
	for _, f := range req.Faculty {
		faculty[f.ID] = f
	}

	for _, a := range result.Schedule {
		assert.True(t, roomCompatible(courses[a.CourseID], rooms[a.RoomID]), "assignment %s/%s violates room compatibility", a.CourseID, a.RoomID)
		assert.True(t, expertiseMatches(courses[a.CourseID], faculty[a.FacultyID]), "assignment %s/%s violates expertise matching", a.CourseID, a.FacultyID)
	}
}

func TestGenerateRejectsMalformedInput(t *testing.T) {
	gen := NewGenerator(nil)

	_, err := gen.Generate(context.Background(), Request{
		Courses: []models.Course{{Code: "CS101", Name: "No ID", Type: models.CourseTypeTheory}},
	})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestGenerateHonoursCancellation(t *testing.T) {
	gen := NewGenerator(nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := gen.Generate(ctx, denseRequest())
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrGeneration.Code, appErr.Code)
}

func TestValidateScheduleFindsDoubleBookings(t *testing.T) {
	slots := []ScheduleSlot{
		{CourseID: "c-1", FacultyID: "f-1", RoomID: "r-1", DayOfWeek: "MONDAY", StartTime: "09:00", EndTime: "10:00"},
		{CourseID: "c-2", FacultyID: "f-1", RoomID: "r-2", DayOfWeek: "MONDAY", StartTime: "09:00", EndTime: "10:00"},
		{CourseID: "c-3", FacultyID: "f-2", RoomID: "r-2", DayOfWeek: "MONDAY", StartTime: "09:00", EndTime: "10:00"},
	}

	conflicts, err := ValidateSchedule(slots)
	require.NoError(t, err)
	require.Len(t, conflicts, 2)
	assert.Equal(t, models.ConflictFaculty, conflicts[0].Type)
	assert.Equal(t, models.SeverityHigh, conflicts[0].Severity)
	assert.Equal(t, models.ConflictRoom, conflicts[1].Type)
}

func TestValidateScheduleIsIdempotent(t *testing.T) {
	slots := []ScheduleSlot{
		{FacultyID: "f-1", RoomID: "r-1", DayOfWeek: "TUESDAY", StartTime: "10:00", EndTime: "11:00"},
		{FacultyID: "f-1", RoomID: "r-1", DayOfWeek: "TUESDAY", StartTime: "10:00", EndTime: "11:00"},
	}

	first, err := ValidateSchedule(slots)
	require.NoError(t, err)
	second, err := ValidateSchedule(slots)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestValidateScheduleCleanScheduleHasNoConflicts(t *testing.T) {
	conflicts, err := ValidateSchedule([]ScheduleSlot{
		{FacultyID: "f-1", RoomID: "r-1", DayOfWeek: "MONDAY", StartTime: "09:00", EndTime: "10:00"},
		{FacultyID: "f-1", RoomID: "r-1", DayOfWeek: "MONDAY", StartTime: "10:00", EndTime: "11:00"},
		{FacultyID: "f-2", RoomID: "r-2", DayOfWeek: "MONDAY", StartTime: "09:00", EndTime: "10:00"},
	})
	require.NoError(t, err)
	assert.Empty(t, conflicts)
}

// denseRequest builds a cohort busy enough to exercise ordering, slot
// contention and metrics in one run.
func denseRequest() Request {
	return Request{
		Courses: []models.Course{
			{ID: "c-1", Code: "CS101", Name: "Data Structures", Type: models.CourseTypeTheory, TheoryHours: 3},
			{ID: "c-2", Code: "CS102", Name: "Algorithms Lab", Type: models.CourseTypePractical, PracticalHours: 2},
			{ID: "c-3", Code: "CS103", Name: "Operating Systems", Type: models.CourseTypeTheory, TheoryHours: 3},
			{ID: "c-4", Code: "CS104", Name: "Capstone Project", Type: models.CourseTypeProject, TheoryHours: 1, PracticalHours: 2},
			{ID: "c-5", Code: "CS105", Name: "Databases", Type: models.CourseTypeTheory, TheoryHours: 2},
		},
		Faculty: []models.Faculty{
			{ID: "f-1", FirstName: "Asha", LastName: "Rao", Expertise: []string{"cs1"}, MaxWorkload: 8},
			{ID: "f-2", FirstName: "Ravi", LastName: "Menon", Expertise: []string{"cs1"}, MaxWorkload: 8},
		},
		Rooms: []models.Room{
			{ID: "r-1", RoomNumber: "101", Type: "classroom", Capacity: 60},
			{ID: "r-2", RoomNumber: "L1", Type: "computer lab", Capacity: 30},
			{ID: "r-3", RoomNumber: "P1", Type: "project studio", Capacity: 20},
		},
	}
}
