package engine

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/acadsuite/timetable-api/internal/models"
	appErrors "github.com/acadsuite/timetable-api/pkg/errors"
)

// Constraints carries the optimisation flags accepted with a request. They
// are recorded for forward compatibility; the greedy search does not branch
// on them.
type Constraints struct {
	MinimizeFacultyConflicts    bool
	OptimizeRoomUtilization     bool
	BalanceWorkloadDistribution bool
	ConsiderStudentPreferences  bool
}

// Request bundles the in-memory inputs for one generation run. The caller is
// responsible for filtering the arrays to the relevant cohort.
type Request struct {
	Courses     []models.Course
	Faculty     []models.Faculty
	Rooms       []models.Room
	Constraints Constraints
}

// Result is everything a single run produces. All of it is derived fresh per
// invocation; the generator holds no state across runs.
type Result struct {
	Schedule            []models.Assignment
	UnassignedCourseIDs []string
	Conflicts           []models.TimetableConflict
	Metrics             models.TimetableMetrics
	OptimizationScore   float64
	Recommendations     []string
}

// Generator builds weekly timetables with a deterministic greedy first-fit
// search: courses ordered most-constrained first, each committed to the first
// compatible slot/faculty/room triple, with no backtracking.
type Generator struct {
	logger *zap.Logger
}

// NewGenerator constructs a Generator.
func NewGenerator(logger *zap.Logger) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{logger: logger}
}

// Generate runs the full pipeline: order courses, place each one, then derive
// conflicts, metrics and the optimization score from the final state. A
// course that cannot be placed is recorded and skipped, never fatal. Any
// unexpected internal fault is re-signalled as a single GENERATION_ERROR.
// The context is checked between courses; cancelling it aborts the run.
func (g *Generator) Generate(ctx context.Context, req Request) (result *Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = appErrors.Wrap(fmt.Errorf("%v", r), appErrors.ErrGeneration.Code, appErrors.ErrGeneration.Status, "timetable generation failed")
		}
	}()

	if err := validateRequest(req); err != nil {
		return nil, err
	}

	state := newResourceState(req.Faculty, req.Rooms)
	ordered := orderByConstrainedness(req.Courses)

	placements := make([]placement, 0, len(ordered))
	unassigned := make([]string, 0)
	for _, course := range ordered {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, appErrors.Wrap(ctxErr, appErrors.ErrGeneration.Code, appErrors.ErrGeneration.Status, "timetable generation cancelled")
		}
		placed, ok := placeCourse(course, req.Faculty, req.Rooms, state)
		if !ok {
			unassigned = append(unassigned, course.ID)
			g.logger.Debug("course left unassigned",
				zap.String("course_id", course.ID),
				zap.String("course_type", string(course.Type)))
			continue
		}
		placements = append(placements, placed)
	}

	// Single detection pass; the metrics reuse its count.
	conflicts := detectDiagnostics(req.Faculty, req.Rooms, placements, state)
	metrics := calculateMetrics(req.Faculty, len(req.Rooms), placements, state, len(conflicts))
	score := optimizationScore(metrics, len(placements), len(req.Courses))

	schedule := make([]models.Assignment, 0, len(placements))
	for _, p := range placements {
		schedule = append(schedule, p.assignment)
	}

	g.logger.Info("timetable generated",
		zap.Int("courses", len(req.Courses)),
		zap.Int("assigned", len(schedule)),
		zap.Int("unassigned", len(unassigned)),
		zap.Int("conflicts", len(conflicts)),
		zap.Float64("score", score))

	return &Result{
		Schedule:            schedule,
		UnassignedCourseIDs: unassigned,
		Conflicts:           conflicts,
		Metrics:             metrics,
		OptimizationScore:   score,
		Recommendations:     buildRecommendations(conflicts, metrics, assignmentRate(len(schedule), len(req.Courses)), len(req.Courses)),
	}, nil
}

// validateRequest fails fast on structurally malformed inputs before any
// assignment attempt begins.
func validateRequest(req Request) error {
	for i, course := range req.Courses {
		if course.ID == "" {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("course at index %d is missing an id", i))
		}
		if course.Type != models.CourseTypeTheory && course.Type != models.CourseTypePractical && course.Type != models.CourseTypeProject {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("course %s has unknown type %q", course.ID, course.Type))
		}
		if course.TheoryHours < 0 || course.PracticalHours < 0 {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("course %s has negative contact hours", course.ID))
		}
	}
	for i, member := range req.Faculty {
		if member.ID == "" {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("faculty at index %d is missing an id", i))
		}
		if member.MaxWorkload < 0 {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("faculty %s has a negative workload limit", member.ID))
		}
	}
	for i, room := range req.Rooms {
		if room.ID == "" {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("room at index %d is missing an id", i))
		}
		if room.Type == "" {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("room %s is missing a room type", room.ID))
		}
	}
	return nil
}

// buildRecommendations derives advisory follow-ups from the run outcome.
func buildRecommendations(conflicts []models.TimetableConflict, metrics models.TimetableMetrics, rate float64, totalCourses int) []string {
	recommendations := make([]string, 0, 4)
	if len(conflicts) > 0 {
		recommendations = append(recommendations, fmt.Sprintf("Resolve %d scheduling conflicts to improve timetable quality", len(conflicts)))
	}
	if metrics.FacultyUtilization < 50 {
		recommendations = append(recommendations, "Faculty utilization is low - consider increasing course load or reducing staffing")
	}
	if metrics.RoomUtilization < 40 {
		recommendations = append(recommendations, "Room utilization is low - consider consolidating classes or reducing room inventory")
	}
	if totalCourses > 0 && rate < 80 {
		recommendations = append(recommendations, "Several courses could not be placed - review expertise coverage and room type availability")
	}
	if len(recommendations) == 0 {
		recommendations = append(recommendations, "Timetable is well-optimized with no major issues detected")
	}
	return recommendations
}
