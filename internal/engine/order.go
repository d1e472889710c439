package engine

import (
	"sort"

	"github.com/acadsuite/timetable-api/internal/models"
)

// constrainedness scores how hard a course is to place: practical sections
// have fewer feasible slot/room combinations, and more contact hours mean
// less workload headroom to find. Higher scores are scheduled first
// (a minimum-remaining-values style heuristic).
func constrainedness(course models.Course) int {
	weight := 1
	if course.Type == models.CourseTypePractical {
		weight = 2
	}
	return weight + course.TheoryHours + course.PracticalHours
}

// orderByConstrainedness returns a copy of the courses sorted most-constrained
// first. Ties keep input order so the search stays deterministic.
func orderByConstrainedness(courses []models.Course) []models.Course {
	ordered := make([]models.Course, len(courses))
	copy(ordered, courses)
	sort.SliceStable(ordered, func(i, j int) bool {
		return constrainedness(ordered[i]) > constrainedness(ordered[j])
	})
	return ordered
}
