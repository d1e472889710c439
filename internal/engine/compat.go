package engine

import (
	"strings"

	"github.com/acadsuite/timetable-api/internal/models"
)

// facultyCompatible reports whether the faculty member can take the course:
// at least one expertise keyword must match the course code or name
// (case-insensitive substring), and the course's total contact hours must fit
// inside the remaining workload headroom. The expertise match is a hard
// constraint; without it the course is never assignable to this faculty
// member regardless of headroom.
func facultyCompatible(course models.Course, faculty models.Faculty, currentWorkload int) bool {
	if !expertiseMatches(course, faculty) {
		return false
	}
	return currentWorkload+course.TotalHours() <= faculty.MaxWorkload
}

func expertiseMatches(course models.Course, faculty models.Faculty) bool {
	code := strings.ToLower(course.Code)
	name := strings.ToLower(course.Name)
	for _, keyword := range faculty.Expertise {
		kw := strings.ToLower(strings.TrimSpace(keyword))
		if kw == "" {
			continue
		}
		if strings.Contains(code, kw) || strings.Contains(name, kw) {
			return true
		}
	}
	return false
}

// roomCompatible reports whether the room type can host the course type:
// practicals need a lab, theory needs a lecture hall or classroom, and
// project work needs a project space. Any other pairing is incompatible.
func roomCompatible(course models.Course, room models.Room) bool {
	roomType := strings.ToLower(strings.TrimSpace(room.Type))
	switch course.Type {
	case models.CourseTypePractical:
		return strings.Contains(roomType, "lab")
	case models.CourseTypeTheory:
		return roomType == "lecture" || roomType == "classroom"
	case models.CourseTypeProject:
		return strings.Contains(roomType, "project")
	default:
		return false
	}
}
