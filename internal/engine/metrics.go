package engine

import (
	"math"

	"github.com/acadsuite/timetable-api/internal/models"
)

// roomUtilization is the share of the weekly room grid actually booked,
// in percent. The denominator is rooms x working days x slots per day.
func roomUtilization(placements []placement, roomCount int) float64 {
	totalRoomHours := roomCount * len(workingDays) * slotsPerDay
	if totalRoomHours == 0 {
		return 0
	}
	committed := 0
	for _, p := range placements {
		committed += p.slot.Duration
	}
	return float64(committed) / float64(totalRoomHours) * 100
}

func facultyUtilization(faculty []models.Faculty, state *resourceState) float64 {
	capacity := 0
	used := 0
	for _, member := range faculty {
		capacity += member.MaxWorkload
		used += state.workloadOf(member.ID)
	}
	if capacity == 0 {
		return 0
	}
	return float64(used) / float64(capacity) * 100
}

// workloadBalance maps the coefficient of variation of faculty workloads onto
// a 0-100 scale where 100 means perfectly even. With no hours assigned the
// distribution is trivially balanced.
func workloadBalance(faculty []models.Faculty, state *resourceState) float64 {
	if len(faculty) == 0 {
		return 100
	}
	mean := 0.0
	for _, member := range faculty {
		mean += float64(state.workloadOf(member.ID))
	}
	mean /= float64(len(faculty))
	if mean == 0 {
		return 100
	}
	variance := 0.0
	for _, member := range faculty {
		diff := float64(state.workloadOf(member.ID)) - mean
		variance += diff * diff
	}
	variance /= float64(len(faculty))
	stdDev := math.Sqrt(variance)
	return math.Max(0, 100-(stdDev/mean)*100)
}

func assignmentRate(assigned, totalCourses int) float64 {
	if totalCourses == 0 {
		return 0
	}
	return float64(assigned) / float64(totalCourses) * 100
}

// calculateMetrics derives the utilization percentages for the run. The
// conflict count is supplied by the caller from the single detection pass so
// the metrics and the response's conflict list can never diverge.
func calculateMetrics(faculty []models.Faculty, roomCount int, placements []placement, state *resourceState, conflictCount int) models.TimetableMetrics {
	return models.TimetableMetrics{
		FacultyUtilization: roundTo2(facultyUtilization(faculty, state)),
		RoomUtilization:    roundTo2(roomUtilization(placements, roomCount)),
		ConflictCount:      conflictCount,
		WorkloadBalance:    roundTo2(workloadBalance(faculty, state)),
	}
}

// optimizationScore blends assignment rate, capped utilizations and workload
// balance into one 0-100 figure. An empty course list scores zero rather than
// rewarding a vacuously balanced schedule.
func optimizationScore(metrics models.TimetableMetrics, assigned, totalCourses int) float64 {
	if totalCourses == 0 {
		return 0
	}
	rate := assignmentRate(assigned, totalCourses)
	score := rate*0.4 +
		math.Min(metrics.FacultyUtilization, 80)*0.3 +
		math.Min(metrics.RoomUtilization, 60)*0.2 +
		metrics.WorkloadBalance*0.1
	return roundTo2(score)
}

func roundTo2(v float64) float64 {
	return math.Round(v*100) / 100
}
