package dto

import "github.com/acadsuite/timetable-api/internal/models"

// GenerationConstraints carries optimisation flags from the admin UI. The
// flags are accepted for forward compatibility and echoed into the stored
// meta payload; they do not currently alter the placement algorithm.
type GenerationConstraints struct {
	MinimizeFacultyConflicts    bool `json:"minimizeFacultyConflicts"`
	OptimizeRoomUtilization     bool `json:"optimizeRoomUtilization"`
	BalanceWorkloadDistribution bool `json:"balanceWorkloadDistribution"`
	ConsiderStudentPreferences  bool `json:"considerStudentPreferences"`
}

// GenerateTimetableRequest instructs the engine to build a weekly timetable
// for a cohort. Course, faculty and room records may be supplied inline;
// when the arrays are empty they are loaded from storage filtered to the
// program/semester/batch tuple.
type GenerateTimetableRequest struct {
	ProgramID    string                `json:"programId" validate:"required"`
	Semester     int                   `json:"semester" validate:"required,min=1,max=12"`
	Batch        string                `json:"batch" validate:"required"`
	AcademicYear string                `json:"academicYear" validate:"required"`
	Courses      []models.Course       `json:"courses" validate:"omitempty,dive"`
	Faculty      []models.Faculty      `json:"faculty" validate:"omitempty,dive"`
	Rooms        []models.Room         `json:"rooms" validate:"omitempty,dive"`
	Constraints  GenerationConstraints `json:"constraints"`
}

// GenerateTimetableResponse returns the committed schedule plus diagnostics.
type GenerateTimetableResponse struct {
	TimetableID         string                     `json:"timetableId,omitempty"`
	Version             int                        `json:"version,omitempty"`
	Schedule            []models.Assignment        `json:"schedule"`
	Conflicts           []models.TimetableConflict `json:"conflicts"`
	OptimizationScore   float64                    `json:"optimizationScore"`
	Metrics             models.TimetableMetrics    `json:"metrics"`
	Recommendations     []string                   `json:"recommendations"`
	UnassignedCourseIDs []string                   `json:"unassignedCourseIds,omitempty"`
}

// ScheduleSlotInput is one tuple of an externally edited schedule submitted
// for re-validation.
type ScheduleSlotInput struct {
	CourseID  string `json:"courseId"`
	FacultyID string `json:"facultyId" validate:"required"`
	RoomID    string `json:"roomId" validate:"required"`
	DayOfWeek string `json:"dayOfWeek" validate:"required"`
	StartTime string `json:"startTime" validate:"required"`
	EndTime   string `json:"endTime" validate:"required"`
}

// ValidateScheduleRequest re-checks an arbitrary schedule for double-booking.
type ValidateScheduleRequest struct {
	Slots []ScheduleSlotInput `json:"slots" validate:"required,min=1,dive"`
}

// ValidateScheduleResponse lists the conflicts found in the submitted slots.
type ValidateScheduleResponse struct {
	Valid     bool                       `json:"valid"`
	Conflicts []models.TimetableConflict `json:"conflicts"`
}

// TimetableQuery filters stored timetable versions by cohort.
type TimetableQuery struct {
	ProgramID string `form:"programId" json:"programId"`
	Semester  int    `form:"semester" json:"semester"`
	Batch     string `form:"batch" json:"batch"`
}

// TimetableDetailResponse bundles a stored header with its slots.
type TimetableDetailResponse struct {
	Timetable models.GeneratedTimetable `json:"timetable"`
	Slots     []models.TimetableSlot    `json:"slots"`
}

// GenerationJobResponse acknowledges an asynchronous generation request.
type GenerationJobResponse struct {
	JobID  string `json:"jobId"`
	Status string `json:"status"`
}

// GenerationJobStatusResponse reports progress of an asynchronous run.
type GenerationJobStatusResponse struct {
	JobID  string                     `json:"jobId"`
	Status string                     `json:"status"`
	Error  string                     `json:"error,omitempty"`
	Result *GenerateTimetableResponse `json:"result,omitempty"`
}

// ExportTimetableResponse returns a signed download handle for a rendered file.
type ExportTimetableResponse struct {
	FileName  string `json:"fileName"`
	Format    string `json:"format"`
	Token     string `json:"token"`
	ExpiresAt string `json:"expiresAt"`
}
