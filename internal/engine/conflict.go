package engine

import (
	"fmt"

	"github.com/acadsuite/timetable-api/internal/models"
	appErrors "github.com/acadsuite/timetable-api/pkg/errors"
)

// detectDiagnostics scans the final run state for advisory conflicts:
// faculty booked beyond their weekly cap, and an overall room grid left
// mostly idle. Diagnostics never block generation.
func detectDiagnostics(faculty []models.Faculty, rooms []models.Room, placements []placement, state *resourceState) []models.TimetableConflict {
	conflicts := make([]models.TimetableConflict, 0)

	for _, member := range faculty {
		load := state.workloadOf(member.ID)
		if load <= member.MaxWorkload {
			continue
		}
		conflicts = append(conflicts, models.TimetableConflict{
			Type:        models.ConflictFacultyOverload,
			Description: fmt.Sprintf("Faculty %s %s is assigned %d hours against a limit of %d", member.FirstName, member.LastName, load, member.MaxWorkload),
			Severity:    models.SeverityHigh,
			Suggestions: []string{
				"Redistribute courses among other qualified faculty",
				"Increase the faculty member's weekly workload limit",
				"Hire additional faculty for the affected expertise area",
			},
		})
	}

	if len(rooms) > 0 {
		utilization := roomUtilization(placements, len(rooms))
		if utilization < 30 {
			conflicts = append(conflicts, models.TimetableConflict{
				Type:        models.ConflictLowRoomUtilization,
				Description: fmt.Sprintf("Room utilization is %.2f%% of the weekly grid", utilization),
				Severity:    models.SeverityLow,
				Suggestions: []string{
					"Consolidate classes into fewer rooms",
					"Reduce the room inventory reserved for this cohort",
				},
			})
		}
	}

	return conflicts
}

// ScheduleSlot is one tuple of an arbitrary schedule submitted for
// re-validation, e.g. after manual edits outside the generator.
type ScheduleSlot struct {
	CourseID  string
	FacultyID string
	RoomID    string
	DayOfWeek string
	StartTime string
	EndTime   string
}

// ValidateSchedule re-derives slot keys for the given tuples and reports a
// conflict for every repeated key within the same faculty member or room. It
// performs no mutation, does not touch generation state, and is safe to run
// on schedules produced elsewhere. Any internal fault surfaces as a single
// CONFLICT_DETECTION_ERROR.
func ValidateSchedule(slots []ScheduleSlot) (conflicts []models.TimetableConflict, err error) {
	defer func() {
		if r := recover(); r != nil {
			conflicts = nil
			err = appErrors.Wrap(fmt.Errorf("%v", r), appErrors.ErrConflictDetection.Code, appErrors.ErrConflictDetection.Status, "schedule validation failed")
		}
	}()

	conflicts = make([]models.TimetableConflict, 0)

	facultySeen := make(map[string]struct{}, len(slots))
	roomSeen := make(map[string]struct{}, len(slots))
	for _, slot := range slots {
		key := slotKey{Day: slot.DayOfWeek, Start: slot.StartTime, End: slot.EndTime}

		facultyKey := fmt.Sprintf("%s|%s|%s|%s", slot.FacultyID, key.Day, key.Start, key.End)
		if _, dup := facultySeen[facultyKey]; dup {
			conflicts = append(conflicts, models.TimetableConflict{
				Type:        models.ConflictFaculty,
				Description: fmt.Sprintf("Faculty %s has overlapping sessions on %s at %s", slot.FacultyID, key.Day, key.Start),
				Severity:    models.SeverityHigh,
				Suggestions: []string{"Move one of the overlapping sessions to a free slot"},
			})
		} else {
			facultySeen[facultyKey] = struct{}{}
		}

		roomKey := fmt.Sprintf("%s|%s|%s|%s", slot.RoomID, key.Day, key.Start, key.End)
		if _, dup := roomSeen[roomKey]; dup {
			conflicts = append(conflicts, models.TimetableConflict{
				Type:        models.ConflictRoom,
				Description: fmt.Sprintf("Room %s has overlapping bookings on %s at %s", slot.RoomID, key.Day, key.Start),
				Severity:    models.SeverityHigh,
				Suggestions: []string{"Rebook one of the overlapping sessions into another room"},
			})
		} else {
			roomSeen[roomKey] = struct{}{}
		}
	}

	return conflicts, nil
}
