package engine

import "github.com/acadsuite/timetable-api/internal/models"

// placement pairs a committed assignment with the slot and course that
// produced it, so the metrics pass can reuse durations and contact hours
// without re-deriving them from the wire format.
type placement struct {
	course     models.Course
	slot       timeSlot
	assignment models.Assignment
}

// placeCourse scans candidate slots, then faculty, then rooms in input order
// and commits the first fully valid triple. This is greedy first-fit, not
// backtracking: once a course commits, the commitment is never revisited even
// if it starves a later course. A false return means the course stays
// unassigned; it never aborts the run.
func placeCourse(course models.Course, faculty []models.Faculty, rooms []models.Room, state *resourceState) (placement, bool) {
	for _, slot := range candidateSlots(course) {
		key := slot.key()
		for _, member := range faculty {
			if !facultyCompatible(course, member, state.workloadOf(member.ID)) {
				continue
			}
			for _, room := range rooms {
				if !roomCompatible(course, room) {
					continue
				}
				if !state.isFree(member.ID, room.ID, key) {
					continue
				}
				state.commit(member.ID, room.ID, key, course.TotalHours())
				return placement{
					course: course,
					slot:   slot,
					assignment: models.Assignment{
						CourseID:  course.ID,
						FacultyID: member.ID,
						RoomID:    room.ID,
						DayOfWeek: slot.Day,
						StartTime: slot.startTime(),
						EndTime:   slot.endTime(),
						SlotType:  string(course.Type),
					},
				}, true
			}
		}
	}
	return placement{}, false
}
