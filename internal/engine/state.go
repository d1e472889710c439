package engine

import "github.com/acadsuite/timetable-api/internal/models"

// slotKey identifies a weekly calendar block. Two assignments collide when
// they share a slot key and a faculty member, or a slot key and a room.
type slotKey struct {
	Day   string
	Start string
	End   string
}

// resourceState is the single source of truth for "who is busy when" during
// one generation run. It is owned by the generator, never shared across runs,
// and mutated only through commit.
type resourceState struct {
	workloads   map[string]int
	facultyBusy map[string]map[slotKey]struct{}
	roomBusy    map[string]map[slotKey]struct{}
}

func newResourceState(faculty []models.Faculty, rooms []models.Room) *resourceState {
	state := &resourceState{
		workloads:   make(map[string]int, len(faculty)),
		facultyBusy: make(map[string]map[slotKey]struct{}, len(faculty)),
		roomBusy:    make(map[string]map[slotKey]struct{}, len(rooms)),
	}
	for _, f := range faculty {
		state.workloads[f.ID] = 0
		state.facultyBusy[f.ID] = make(map[slotKey]struct{})
	}
	for _, r := range rooms {
		state.roomBusy[r.ID] = make(map[slotKey]struct{})
	}
	return state
}

func (s *resourceState) workloadOf(facultyID string) int {
	return s.workloads[facultyID]
}

// isFree reports whether neither the faculty member nor the room is booked
// for the given slot key.
func (s *resourceState) isFree(facultyID, roomID string, key slotKey) bool {
	if _, busy := s.facultyBusy[facultyID][key]; busy {
		return false
	}
	if _, busy := s.roomBusy[roomID][key]; busy {
		return false
	}
	return true
}

// commit books the slot for both parties and charges the hours against the
// faculty workload. The caller must have confirmed isFree first; commit is
// not idempotent.
func (s *resourceState) commit(facultyID, roomID string, key slotKey, hours int) {
	if s.facultyBusy[facultyID] == nil {
		s.facultyBusy[facultyID] = make(map[slotKey]struct{})
	}
	if s.roomBusy[roomID] == nil {
		s.roomBusy[roomID] = make(map[slotKey]struct{})
	}
	s.facultyBusy[facultyID][key] = struct{}{}
	s.roomBusy[roomID][key] = struct{}{}
	s.workloads[facultyID] += hours
}
