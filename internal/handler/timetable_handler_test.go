package handler

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/acadsuite/timetable-api/internal/dto"
	internalmiddleware "github.com/acadsuite/timetable-api/internal/middleware"
	"github.com/acadsuite/timetable-api/internal/models"
	"github.com/acadsuite/timetable-api/internal/service"
	appErrors "github.com/acadsuite/timetable-api/pkg/errors"
)

type timetableManagerMock struct {
	captured dto.GenerateTimetableRequest
}

func (m *timetableManagerMock) Generate(ctx context.Context, req dto.GenerateTimetableRequest) (*dto.GenerateTimetableResponse, error) {
	m.captured = req
	return &dto.GenerateTimetableResponse{
		TimetableID:       "tt-1",
		Version:           1,
		Schedule:          []models.Assignment{{CourseID: "c-1", FacultyID: "f-1", RoomID: "r-1", DayOfWeek: "MONDAY", StartTime: "09:00", EndTime: "10:00", SlotType: "theory"}},
		OptimizationScore: 92.5,
	}, nil
}

func (m *timetableManagerMock) GenerateAsync(ctx context.Context, req dto.GenerateTimetableRequest) (*dto.GenerationJobResponse, error) {
	return &dto.GenerationJobResponse{JobID: "job-1", Status: "pending"}, nil
}

func (m *timetableManagerMock) JobStatus(jobID string) (*dto.GenerationJobStatusResponse, error) {
	if jobID != "job-1" {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "generation job not found or expired")
	}
	return &dto.GenerationJobStatusResponse{JobID: jobID, Status: "completed"}, nil
}

func (m *timetableManagerMock) Validate(ctx context.Context, req dto.ValidateScheduleRequest) (*dto.ValidateScheduleResponse, error) {
	return &dto.ValidateScheduleResponse{Valid: true, Conflicts: []models.TimetableConflict{}}, nil
}

func (m *timetableManagerMock) Get(ctx context.Context, id string) (*dto.TimetableDetailResponse, error) {
	if id != "tt-1" {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "timetable not found")
	}
	return &dto.TimetableDetailResponse{Timetable: models.GeneratedTimetable{ID: id}}, nil
}

func (m *timetableManagerMock) List(ctx context.Context, query dto.TimetableQuery) ([]models.GeneratedTimetable, error) {
	return []models.GeneratedTimetable{{ID: "tt-1", ProgramID: query.ProgramID}}, nil
}

func (m *timetableManagerMock) Delete(ctx context.Context, id string) error {
	return nil
}

type timetableExporterMock struct{}

func (timetableExporterMock) Generate(ctx context.Context, timetableID string, format models.ExportFormat) (*service.ExportResult, error) {
	return &service.ExportResult{
		RelativePath: "timetable_prog-1.csv",
		Token:        "token-1",
		URL:          "/api/v1/timetables/export/token-1",
		Format:       format,
		ExpiresAt:    time.Now().Add(time.Hour),
	}, nil
}

func (timetableExporterMock) ParseToken(token string, allowExpired bool) (string, string, time.Time, error) {
	return "", "", time.Time{}, appErrors.Clone(appErrors.ErrForbidden, "invalid token")
}

func (timetableExporterMock) Open(relPath string) (*os.File, error) {
	return nil, appErrors.Clone(appErrors.ErrNotFound, "gone")
}

func TestTimetableHandlerGenerateSuccess(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &timetableManagerMock{}
	handler := &TimetableHandler{service: mockSvc}
	req, _ := http.NewRequest(http.MethodPost, "/timetables/generate", bytes.NewReader(validTimetablePayload()))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req

	handler.Generate(c)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "prog-1", mockSvc.captured.ProgramID)
	require.Equal(t, 3, mockSvc.captured.Semester)
}

func TestTimetableHandlerGenerateMalformedBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := &TimetableHandler{service: &timetableManagerMock{}}
	req, _ := http.NewRequest(http.MethodPost, "/timetables/generate", bytes.NewReader([]byte(`{"programId":`)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req

	handler.Generate(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTimetableHandlerGenerateAsyncAccepted(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := &TimetableHandler{service: &timetableManagerMock{}}
	req, _ := http.NewRequest(http.MethodPost, "/timetables/generate/async", bytes.NewReader(validTimetablePayload()))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req

	handler.GenerateAsync(c)

	require.Equal(t, http.StatusAccepted, w.Code)
}

func TestTimetableHandlerJobStatusNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := &TimetableHandler{service: &timetableManagerMock{}}
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/timetables/jobs/missing", nil)
	c.Params = gin.Params{{Key: "id", Value: "missing"}}

	handler.JobStatus(c)

	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestTimetableHandlerValidate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := &TimetableHandler{service: &timetableManagerMock{}}
	payload := []byte(`{"slots":[{"courseId":"c-1","facultyId":"f-1","roomId":"r-1","dayOfWeek":"MONDAY","startTime":"09:00","endTime":"10:00"}]}`)
	req, _ := http.NewRequest(http.MethodPost, "/timetables/validate", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req

	handler.Validate(c)

	require.Equal(t, http.StatusOK, w.Code)
}

func TestTimetableHandlerExport(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := &TimetableHandler{service: &timetableManagerMock{}, exporter: timetableExporterMock{}}
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodPost, "/timetables/versions/tt-1/export?format=csv", nil)
	c.Params = gin.Params{{Key: "id", Value: "tt-1"}}

	handler.Export(c)

	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "token-1")
}

func TestTimetableHandlerDownloadRejectsBadToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := &TimetableHandler{service: &timetableManagerMock{}, exporter: timetableExporterMock{}}
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/timetables/export/bogus", nil)
	c.Params = gin.Params{{Key: "token", Value: "bogus"}}

	handler.Download(c)

	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestTimetableHandlerGenerateUnauthorized(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := &TimetableHandler{service: &timetableManagerMock{}}
	router := gin.New()
	router.POST("/timetables/generate", internalmiddleware.RBAC(string(models.RoleAdmin)), handler.Generate)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/timetables/generate", bytes.NewReader(validTimetablePayload()))
	req.Header.Set("Content-Type", "application/json")

	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestTimetableHandlerGenerateForbidden(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := &TimetableHandler{service: &timetableManagerMock{}}
	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set(internalmiddleware.ContextUserKey, &models.JWTClaims{UserID: "viewer-1", Role: models.RoleViewer})
		c.Next()
	})
	router.POST("/timetables/generate", internalmiddleware.RequireRoles(models.RoleAdmin, models.RoleScheduler), handler.Generate)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/timetables/generate", bytes.NewReader(validTimetablePayload()))
	req.Header.Set("Content-Type", "application/json")

	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusForbidden, w.Code)
}

func validTimetablePayload() []byte {
	return []byte(`{
		"programId": "prog-1",
		"semester": 3,
		"batch": "A",
		"academicYear": "2026-27",
		"courses": [{"id":"c-1","code":"CS101","name":"Data Structures","type":"theory","credits":4,"theoryHours":2,"practicalHours":0}],
		"faculty": [{"id":"f-1","firstName":"Asha","lastName":"Iyer","expertise":["data structures"],"maxWorkload":10}],
		"rooms": [{"id":"r-1","roomNumber":"101","type":"classroom","capacity":60}]
	}`)
}
