package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/acadsuite/timetable-api/internal/dto"
	"github.com/acadsuite/timetable-api/internal/engine"
	"github.com/acadsuite/timetable-api/internal/models"
	appErrors "github.com/acadsuite/timetable-api/pkg/errors"
)

func TestTimetableServiceGenerateInline(t *testing.T) {
	tx, mock := newTimetableTxMock(t)
	store := &timetableStoreStub{}
	service := newTimetableServiceFixture(t, timetableFixtureConfig{tx: tx, store: store})

	mock.ExpectBegin()
	mock.ExpectCommit()

	resp, err := service.Generate(context.Background(), generateRequestFixture())
	require.NoError(t, err)
	require.Len(t, resp.Schedule, 1)
	assert.Equal(t, "MONDAY", resp.Schedule[0].DayOfWeek)
	assert.Equal(t, "09:00", resp.Schedule[0].StartTime)
	assert.NotEmpty(t, resp.TimetableID)
	assert.Equal(t, 1, resp.Version)
	assert.Len(t, store.slots[resp.TimetableID], 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableServiceGenerateLoadsFromStorage(t *testing.T) {
	tx, mock := newTimetableTxMock(t)
	service := newTimetableServiceFixture(t, timetableFixtureConfig{tx: tx, store: &timetableStoreStub{}})

	mock.ExpectBegin()
	mock.ExpectCommit()

	req := generateRequestFixture()
	req.Courses = nil
	req.Faculty = nil
	req.Rooms = nil

	resp, err := service.Generate(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, resp.Schedule, 1)
	assert.Equal(t, "c-1", resp.Schedule[0].CourseID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableServiceGenerateNoCoursesForCohort(t *testing.T) {
	service := newTimetableServiceFixture(t, timetableFixtureConfig{emptyCatalogue: true})

	req := generateRequestFixture()
	req.Courses = nil

	_, err := service.Generate(context.Background(), req)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErr.Code)
}

func TestTimetableServiceGenerateRejectsInvalidPayload(t *testing.T) {
	service := newTimetableServiceFixture(t, timetableFixtureConfig{})

	req := generateRequestFixture()
	req.ProgramID = ""

	_, err := service.Generate(context.Background(), req)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestTimetableServiceGenerateUsesCache(t *testing.T) {
	gen := &countingGenerator{inner: engine.NewGenerator(nil)}
	cache := NewCacheService(newMemoryCacheRepo(), nil, time.Minute, zap.NewNop(), true)
	service := newTimetableServiceFixture(t, timetableFixtureConfig{generator: gen, cache: cache})

	req := generateRequestFixture()

	first, err := service.Generate(context.Background(), req)
	require.NoError(t, err)
	second, err := service.Generate(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, 1, gen.calls)
	assert.Equal(t, first.Schedule, second.Schedule)
	assert.Equal(t, first.OptimizationScore, second.OptimizationScore)
}

func TestTimetableServiceValidateFindsConflicts(t *testing.T) {
	service := newTimetableServiceFixture(t, timetableFixtureConfig{})

	resp, err := service.Validate(context.Background(), dto.ValidateScheduleRequest{
		Slots: []dto.ScheduleSlotInput{
			{CourseID: "c-1", FacultyID: "f-1", RoomID: "r-1", DayOfWeek: "MONDAY", StartTime: "09:00", EndTime: "10:00"},
			{CourseID: "c-2", FacultyID: "f-1", RoomID: "r-2", DayOfWeek: "MONDAY", StartTime: "09:00", EndTime: "10:00"},
		},
	})
	require.NoError(t, err)
	assert.False(t, resp.Valid)
	require.Len(t, resp.Conflicts, 1)
	assert.Equal(t, models.ConflictFaculty, resp.Conflicts[0].Type)
}

func TestTimetableServiceGetNotFound(t *testing.T) {
	service := newTimetableServiceFixture(t, timetableFixtureConfig{store: &timetableStoreStub{}})

	_, err := service.Get(context.Background(), "missing")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestTimetableServiceDeleteNonDraft(t *testing.T) {
	store := &timetableStoreStub{
		items: []models.GeneratedTimetable{{ID: "tt-1", Status: models.GeneratedTimetableStatusPublished}},
	}
	service := newTimetableServiceFixture(t, timetableFixtureConfig{store: store})

	err := service.Delete(context.Background(), "tt-1")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
}

func TestTimetableServiceGenerateAsync(t *testing.T) {
	tx, mock := newTimetableTxMock(t)
	service := newTimetableServiceFixture(t, timetableFixtureConfig{tx: tx, store: &timetableStoreStub{}})

	mock.ExpectBegin()
	mock.ExpectCommit()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	service.Start(ctx)
	defer service.Stop()

	ack, err := service.GenerateAsync(context.Background(), generateRequestFixture())
	require.NoError(t, err)
	assert.Equal(t, string(jobStatusPending), ack.Status)

	deadline := time.After(2 * time.Second)
	for {
		status, err := service.JobStatus(ack.JobID)
		require.NoError(t, err)
		if status.Status == string(jobStatusCompleted) {
			require.NotNil(t, status.Result)
			assert.Len(t, status.Result.Schedule, 1)
			break
		}
		select {
		case <-deadline:
			t.Fatalf("job did not complete, status %s", status.Status)
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestTimetableServiceGenerateRecordsQueryMetrics(t *testing.T) {
	tx, mock := newTimetableTxMock(t)
	metrics := NewMetricsService()
	service := newTimetableServiceFixture(t, timetableFixtureConfig{tx: tx, store: &timetableStoreStub{}, metrics: metrics})

	mock.ExpectBegin()
	mock.ExpectCommit()

	req := generateRequestFixture()
	req.Courses = nil
	req.Faculty = nil
	req.Rooms = nil

	_, err := service.Generate(context.Background(), req)
	require.NoError(t, err)

	snapshot := metrics.Snapshot()
	// Three catalogue loads plus the header and slot writes.
	assert.Equal(t, uint64(5), snapshot.DBQueryCount)
	assert.Equal(t, uint64(1), snapshot.GenerationsTotal)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableServiceJobStatusUnknown(t *testing.T) {
	service := newTimetableServiceFixture(t, timetableFixtureConfig{})

	_, err := service.JobStatus("unknown")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

// --- Fixtures ---

type timetableFixtureConfig struct {
	tx             txProvider
	store          *timetableStoreStub
	generator      timetableGenerator
	cache          *CacheService
	metrics        *MetricsService
	emptyCatalogue bool
}

func newTimetableServiceFixture(t *testing.T, cfg timetableFixtureConfig) *TimetableService {
	t.Helper()

	courses := courseReaderStub{items: []models.Course{
		{ID: "c-1", Code: "CS101", Name: "Data Structures", Type: models.CourseTypeTheory, Credits: 4, TheoryHours: 2},
	}}
	if cfg.emptyCatalogue {
		courses.items = nil
	}
	faculty := facultyReaderStub{items: []models.Faculty{
		{ID: "f-1", FirstName: "Asha", LastName: "Iyer", Expertise: []string{"data structures"}, MaxWorkload: 10},
	}}
	rooms := roomReaderStub{items: []models.Room{
		{ID: "r-1", RoomNumber: "101", Type: "classroom", Capacity: 60},
	}}

	var store timetableStore
	if cfg.store != nil {
		store = cfg.store
	}

	return NewTimetableService(
		courses,
		faculty,
		rooms,
		store,
		cfg.generator,
		cfg.tx,
		cfg.cache,
		cfg.metrics,
		nil,
		zap.NewNop(),
		TimetableServiceConfig{CacheTTL: time.Minute, AsyncWorkers: 1, JobTTL: time.Hour},
	)
}

func generateRequestFixture() dto.GenerateTimetableRequest {
	return dto.GenerateTimetableRequest{
		ProgramID:    "prog-1",
		Semester:     3,
		Batch:        "A",
		AcademicYear: "2026-27",
		Courses: []models.Course{
			{ID: "c-1", Code: "CS101", Name: "Data Structures", Type: models.CourseTypeTheory, Credits: 4, TheoryHours: 2},
		},
		Faculty: []models.Faculty{
			{ID: "f-1", FirstName: "Asha", LastName: "Iyer", Expertise: []string{"data structures"}, MaxWorkload: 10},
		},
		Rooms: []models.Room{
			{ID: "r-1", RoomNumber: "101", Type: "classroom", Capacity: 60},
		},
	}
}

type courseReaderStub struct {
	items []models.Course
}

func (s courseReaderStub) ListByCohort(ctx context.Context, programID string, semester int, batch string) ([]models.Course, error) {
	return s.items, nil
}

type facultyReaderStub struct {
	items []models.Faculty
}

func (s facultyReaderStub) ListActive(ctx context.Context) ([]models.Faculty, error) {
	return s.items, nil
}

type roomReaderStub struct {
	items []models.Room
}

func (s roomReaderStub) ListAvailable(ctx context.Context) ([]models.Room, error) {
	return s.items, nil
}

type timetableStoreStub struct {
	items []models.GeneratedTimetable
	slots map[string][]models.TimetableSlot
}

func (s *timetableStoreStub) CreateVersioned(ctx context.Context, exec sqlx.ExtContext, timetable *models.GeneratedTimetable) error {
	timetable.ID = fmt.Sprintf("tt-%d", len(s.items)+1)
	timetable.Version = len(s.items) + 1
	s.items = append(s.items, *timetable)
	return nil
}

func (s *timetableStoreStub) InsertSlots(ctx context.Context, exec sqlx.ExtContext, slots []models.TimetableSlot) error {
	if s.slots == nil {
		s.slots = make(map[string][]models.TimetableSlot)
	}
	for _, slot := range slots {
		s.slots[slot.TimetableID] = append(s.slots[slot.TimetableID], slot)
	}
	return nil
}

func (s *timetableStoreStub) FindByID(ctx context.Context, id string) (*models.GeneratedTimetable, error) {
	for _, item := range s.items {
		if item.ID == id {
			return &item, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *timetableStoreStub) ListByCohort(ctx context.Context, programID string, semester int, batch string) ([]models.GeneratedTimetable, error) {
	return s.items, nil
}

func (s *timetableStoreStub) ListSlots(ctx context.Context, timetableID string) ([]models.TimetableSlot, error) {
	return s.slots[timetableID], nil
}

func (s *timetableStoreStub) Delete(ctx context.Context, id string) error {
	for idx, item := range s.items {
		if item.ID == id {
			s.items = append(s.items[:idx], s.items[idx+1:]...)
			return nil
		}
	}
	return sql.ErrNoRows
}

type countingGenerator struct {
	inner *engine.Generator
	calls int
}

func (g *countingGenerator) Generate(ctx context.Context, req engine.Request) (*engine.Result, error) {
	g.calls++
	return g.inner.Generate(ctx, req)
}

type memoryCacheRepo struct {
	mu    sync.Mutex
	items map[string][]byte
}

func newMemoryCacheRepo() *memoryCacheRepo {
	return &memoryCacheRepo{items: make(map[string][]byte)}
}

func (r *memoryCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	r.mu.Lock()
	raw, ok := r.items[key]
	r.mu.Unlock()
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (r *memoryCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	r.mu.Lock()
	r.items[key] = raw
	r.mu.Unlock()
	return nil
}

func (r *memoryCacheRepo) DeleteByPattern(ctx context.Context, pattern string) error {
	r.mu.Lock()
	r.items = make(map[string][]byte)
	r.mu.Unlock()
	return nil
}

type timetableTxMock struct {
	db *sqlx.DB
}

func newTimetableTxMock(t *testing.T) (txProvider, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxdb := sqlx.NewDb(db, "sqlmock")
	t.Cleanup(func() { db.Close() })
	return &timetableTxMock{db: sqlxdb}, mock
}

func (t *timetableTxMock) BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
	return t.db.BeginTxx(ctx, opts)
}
