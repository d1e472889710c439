package engine

import (
	"fmt"

	"github.com/acadsuite/timetable-api/internal/models"
)

// The weekly teaching grid is fixed: five working days, a morning block
// (09:00-12:00) and an afternoon block (14:00-17:00) of hourly start times,
// with no teaching after the closing hour.
var workingDays = []string{"MONDAY", "TUESDAY", "WEDNESDAY", "THURSDAY", "FRIDAY"}

var dailyStartHours = []int{9, 10, 11, 14, 15, 16}

const closingHour = 17

// slotsPerDay is the number of grid positions per working day, used as the
// room-utilization denominator.
const slotsPerDay = 6

// timeSlot is one candidate calendar block. Slots are never persisted; they
// are recomputed from the grid for every search.
type timeSlot struct {
	Day       string
	StartHour int
	Duration  int
}

func (t timeSlot) startTime() string {
	return fmt.Sprintf("%02d:00", t.StartHour)
}

func (t timeSlot) endTime() string {
	return fmt.Sprintf("%02d:00", t.StartHour+t.Duration)
}

func (t timeSlot) key() slotKey {
	return slotKey{Day: t.Day, Start: t.startTime(), End: t.endTime()}
}

// blockDuration returns the calendar length of one meeting: practical
// sections book a two-hour block, everything else a single hour.
func blockDuration(courseType models.CourseType) int {
	if courseType == models.CourseTypePractical {
		return 2
	}
	return 1
}

// candidateSlots enumerates every grid position that fits the course's block
// length before the closing hour, in day-major order. The sequence is a pure
// function of the grid and the course type, so repeated calls for the same
// course always yield the same ordering.
func candidateSlots(course models.Course) []timeSlot {
	duration := blockDuration(course.Type)
	slots := make([]timeSlot, 0, len(workingDays)*len(dailyStartHours))
	for _, day := range workingDays {
		for _, hour := range dailyStartHours {
			if hour+duration > closingHour {
				continue
			}
			slots = append(slots, timeSlot{Day: day, StartHour: hour, Duration: duration})
		}
	}
	return slots
}
