package service

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"go.uber.org/zap"

	"github.com/acadsuite/timetable-api/internal/dto"
	"github.com/acadsuite/timetable-api/internal/engine"
	"github.com/acadsuite/timetable-api/internal/models"
	appErrors "github.com/acadsuite/timetable-api/pkg/errors"
	"github.com/acadsuite/timetable-api/pkg/jobs"
)

type courseReader interface {
	ListByCohort(ctx context.Context, programID string, semester int, batch string) ([]models.Course, error)
}

type facultyReader interface {
	ListActive(ctx context.Context) ([]models.Faculty, error)
}

type roomReader interface {
	ListAvailable(ctx context.Context) ([]models.Room, error)
}

type timetableStore interface {
	CreateVersioned(ctx context.Context, exec sqlx.ExtContext, timetable *models.GeneratedTimetable) error
	InsertSlots(ctx context.Context, exec sqlx.ExtContext, slots []models.TimetableSlot) error
	FindByID(ctx context.Context, id string) (*models.GeneratedTimetable, error)
	ListByCohort(ctx context.Context, programID string, semester int, batch string) ([]models.GeneratedTimetable, error)
	ListSlots(ctx context.Context, timetableID string) ([]models.TimetableSlot, error)
	Delete(ctx context.Context, id string) error
}

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

type timetableGenerator interface {
	Generate(ctx context.Context, req engine.Request) (*engine.Result, error)
}

// TimetableServiceConfig tunes caching and the asynchronous worker pool.
type TimetableServiceConfig struct {
	CacheTTL     time.Duration
	AsyncWorkers int
	JobTTL       time.Duration
}

// TimetableService orchestrates timetable generation: it loads scheduling
// inputs, runs the engine, persists versioned results and serves them back.
type TimetableService struct {
	courses    courseReader
	faculty    facultyReader
	rooms      roomReader
	timetables timetableStore
	generator  timetableGenerator
	tx         txProvider
	cache      *CacheService
	metrics    *MetricsService
	validator  *validator.Validate
	logger     *zap.Logger
	cfg        TimetableServiceConfig

	queue *jobs.Queue
	store *generationJobStore
}

// NewTimetableService wires generation dependencies.
func NewTimetableService(
	courses courseReader,
	faculty facultyReader,
	rooms roomReader,
	timetables timetableStore,
	gen timetableGenerator,
	tx txProvider,
	cache *CacheService,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg TimetableServiceConfig,
) *TimetableService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if gen == nil {
		gen = engine.NewGenerator(logger)
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 15 * time.Minute
	}
	if cfg.AsyncWorkers <= 0 {
		cfg.AsyncWorkers = 2
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = time.Hour
	}

	s := &TimetableService{
		courses:    courses,
		faculty:    faculty,
		rooms:      rooms,
		timetables: timetables,
		generator:  gen,
		tx:         tx,
		cache:      cache,
		metrics:    metrics,
		validator:  validate,
		logger:     logger,
		cfg:        cfg,
		store:      newGenerationJobStore(cfg.JobTTL),
	}
	s.queue = jobs.NewQueue("timetable-generation", s.runGenerationJob, jobs.QueueConfig{
		Workers: cfg.AsyncWorkers,
		Logger:  logger,
	})
	return s
}

// Start launches the asynchronous generation workers.
func (s *TimetableService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the asynchronous generation workers.
func (s *TimetableService) Stop() {
	s.queue.Stop()
}

// Generate runs the full pipeline synchronously and persists the result as a
// new timetable version for the cohort.
func (s *TimetableService) Generate(ctx context.Context, req dto.GenerateTimetableRequest) (*dto.GenerateTimetableResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid timetable generation payload")
	}

	engineReq, err := s.buildEngineRequest(ctx, req)
	if err != nil {
		return nil, err
	}

	cacheKey := makeGenerationCacheKey(req, engineReq)
	if s.cache != nil {
		var cached dto.GenerateTimetableResponse
		if hit, err := s.cache.Get(ctx, cacheKey, &cached); err == nil && hit {
			return &cached, nil
		}
	}

	start := time.Now()
	result, err := s.generator.Generate(ctx, engineReq)
	if s.metrics != nil {
		var score, rate float64
		if result != nil {
			score = result.OptimizationScore
			if len(engineReq.Courses) > 0 {
				rate = float64(len(result.Schedule)) / float64(len(engineReq.Courses)) * 100
			}
		}
		s.metrics.ObserveGeneration(time.Since(start), score, rate, err)
	}
	if err != nil {
		return nil, err
	}

	resp := &dto.GenerateTimetableResponse{
		Schedule:            result.Schedule,
		Conflicts:           result.Conflicts,
		OptimizationScore:   result.OptimizationScore,
		Metrics:             result.Metrics,
		Recommendations:     result.Recommendations,
		UnassignedCourseIDs: result.UnassignedCourseIDs,
	}

	if s.timetables != nil && s.tx != nil {
		record, err := s.persistResult(ctx, req, result)
		if err != nil {
			return nil, err
		}
		resp.TimetableID = record.ID
		resp.Version = record.Version
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, resp, s.cfg.CacheTTL); err != nil {
			s.logger.Warn("cache generation response", zap.Error(err))
		}
	}

	return resp, nil
}

// Validate re-checks an externally edited schedule for double-booked faculty
// or rooms without touching stored state.
func (s *TimetableService) Validate(ctx context.Context, req dto.ValidateScheduleRequest) (*dto.ValidateScheduleResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule validation payload")
	}

	slots := make([]engine.ScheduleSlot, 0, len(req.Slots))
	for _, slot := range req.Slots {
		slots = append(slots, engine.ScheduleSlot{
			CourseID:  slot.CourseID,
			FacultyID: slot.FacultyID,
			RoomID:    slot.RoomID,
			DayOfWeek: slot.DayOfWeek,
			StartTime: slot.StartTime,
			EndTime:   slot.EndTime,
		})
	}

	conflicts, err := engine.ValidateSchedule(slots)
	if err != nil {
		return nil, err
	}
	return &dto.ValidateScheduleResponse{
		Valid:     len(conflicts) == 0,
		Conflicts: conflicts,
	}, nil
}

// Get returns a stored timetable header with its slots.
func (s *TimetableService) Get(ctx context.Context, id string) (*dto.TimetableDetailResponse, error) {
	if id == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "timetable id is required")
	}
	start := time.Now()
	record, err := s.timetables.FindByID(ctx, id)
	s.observeQuery("timetable_find", start)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "timetable not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable")
	}
	start = time.Now()
	slots, err := s.timetables.ListSlots(ctx, id)
	s.observeQuery("timetable_slots", start)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list timetable slots")
	}
	return &dto.TimetableDetailResponse{Timetable: *record, Slots: slots}, nil
}

// List returns all stored versions for a cohort, newest first.
func (s *TimetableService) List(ctx context.Context, query dto.TimetableQuery) ([]models.GeneratedTimetable, error) {
	if query.ProgramID == "" || query.Batch == "" || query.Semester == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "programId, semester and batch are required")
	}
	start := time.Now()
	list, err := s.timetables.ListByCohort(ctx, query.ProgramID, query.Semester, query.Batch)
	s.observeQuery("timetable_list", start)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list timetables")
	}
	return list, nil
}

// Delete removes a draft timetable version.
func (s *TimetableService) Delete(ctx context.Context, id string) error {
	start := time.Now()
	record, err := s.timetables.FindByID(ctx, id)
	s.observeQuery("timetable_find", start)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "timetable not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable")
	}
	if record.Status != models.GeneratedTimetableStatusDraft {
		return appErrors.Clone(appErrors.ErrConflict, "only draft timetables can be deleted")
	}
	start = time.Now()
	err = s.timetables.Delete(ctx, id)
	s.observeQuery("timetable_delete", start)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "timetable not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete timetable")
	}
	return nil
}

// GenerateAsync queues a generation run and returns a job handle.
func (s *TimetableService) GenerateAsync(ctx context.Context, req dto.GenerateTimetableRequest) (*dto.GenerationJobResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid timetable generation payload")
	}

	jobID := uuid.NewString()
	s.store.Save(generationJob{ID: jobID, Status: jobStatusPending, Request: req, CreatedAt: time.Now().UTC()})

	if err := s.queue.Enqueue(jobs.Job{ID: jobID, Type: "generate_timetable", Payload: req}); err != nil {
		s.store.Fail(jobID, "queue unavailable")
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to queue generation job")
	}

	return &dto.GenerationJobResponse{JobID: jobID, Status: string(jobStatusPending)}, nil
}

// JobStatus reports the progress of an asynchronous generation run.
func (s *TimetableService) JobStatus(jobID string) (*dto.GenerationJobStatusResponse, error) {
	if jobID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "job id is required")
	}
	job, ok := s.store.Get(jobID)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "generation job not found or expired")
	}
	return &dto.GenerationJobStatusResponse{
		JobID:  job.ID,
		Status: string(job.Status),
		Error:  job.Error,
		Result: job.Result,
	}, nil
}

func (s *TimetableService) runGenerationJob(ctx context.Context, job jobs.Job) error {
	req, ok := job.Payload.(dto.GenerateTimetableRequest)
	if !ok {
		s.store.Fail(job.ID, "malformed job payload")
		return nil
	}
	s.store.MarkRunning(job.ID)

	resp, err := s.Generate(ctx, req)
	if err != nil {
		s.store.Fail(job.ID, err.Error())
		s.logger.Warn("async generation failed", zap.String("job_id", job.ID), zap.Error(err))
		return nil
	}
	s.store.Complete(job.ID, resp)
	return nil
}

func (s *TimetableService) buildEngineRequest(ctx context.Context, req dto.GenerateTimetableRequest) (engine.Request, error) {
	engineReq := engine.Request{
		Courses: req.Courses,
		Faculty: req.Faculty,
		Rooms:   req.Rooms,
		Constraints: engine.Constraints{
			MinimizeFacultyConflicts:    req.Constraints.MinimizeFacultyConflicts,
			OptimizeRoomUtilization:     req.Constraints.OptimizeRoomUtilization,
			BalanceWorkloadDistribution: req.Constraints.BalanceWorkloadDistribution,
			ConsiderStudentPreferences:  req.Constraints.ConsiderStudentPreferences,
		},
	}

	if len(engineReq.Courses) == 0 {
		if s.courses == nil {
			return engine.Request{}, appErrors.Clone(appErrors.ErrValidation, "courses are required when no catalogue source is configured")
		}
		start := time.Now()
		courses, err := s.courses.ListByCohort(ctx, req.ProgramID, req.Semester, req.Batch)
		s.observeQuery("courses_by_cohort", start)
		if err != nil {
			return engine.Request{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load courses")
		}
		engineReq.Courses = courses
	}
	if len(engineReq.Courses) == 0 {
		return engine.Request{}, appErrors.Clone(appErrors.ErrPreconditionFailed, "no courses found for this program, semester and batch")
	}

	if len(engineReq.Faculty) == 0 && s.faculty != nil {
		start := time.Now()
		faculty, err := s.faculty.ListActive(ctx)
		s.observeQuery("faculty_active", start)
		if err != nil {
			return engine.Request{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load faculty")
		}
		engineReq.Faculty = faculty
	}

	if len(engineReq.Rooms) == 0 && s.rooms != nil {
		start := time.Now()
		rooms, err := s.rooms.ListAvailable(ctx)
		s.observeQuery("rooms_available", start)
		if err != nil {
			return engine.Request{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load rooms")
		}
		engineReq.Rooms = rooms
	}

	return engineReq, nil
}

func (s *TimetableService) persistResult(ctx context.Context, req dto.GenerateTimetableRequest, result *engine.Result) (record *models.GeneratedTimetable, err error) {
	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	metaPayload := map[string]any{
		"metrics":             result.Metrics,
		"conflicts":           result.Conflicts,
		"recommendations":     result.Recommendations,
		"unassignedCourseIds": result.UnassignedCourseIDs,
		"constraints":         req.Constraints,
		"generatedAt":         time.Now().UTC(),
	}
	metaBytes, marshalErr := json.Marshal(metaPayload)
	if marshalErr != nil {
		err = appErrors.Wrap(marshalErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode timetable metadata")
		return nil, err
	}

	record = &models.GeneratedTimetable{
		ProgramID:    req.ProgramID,
		Semester:     req.Semester,
		Batch:        req.Batch,
		AcademicYear: req.AcademicYear,
		Status:       models.GeneratedTimetableStatusDraft,
		Score:        result.OptimizationScore,
		Meta:         types.JSONText(metaBytes),
	}
	start := time.Now()
	err = s.timetables.CreateVersioned(ctx, tx, record)
	s.observeQuery("timetable_insert", start)
	if err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create timetable")
		return nil, err
	}

	slots := make([]models.TimetableSlot, 0, len(result.Schedule))
	for _, assignment := range result.Schedule {
		slots = append(slots, models.TimetableSlot{
			TimetableID: record.ID,
			CourseID:    assignment.CourseID,
			FacultyID:   assignment.FacultyID,
			RoomID:      assignment.RoomID,
			DayOfWeek:   assignment.DayOfWeek,
			StartTime:   assignment.StartTime,
			EndTime:     assignment.EndTime,
			SlotType:    assignment.SlotType,
		})
	}
	start = time.Now()
	err = s.timetables.InsertSlots(ctx, tx, slots)
	s.observeQuery("timetable_slots_insert", start)
	if err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist timetable slots")
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit timetable transaction")
		return nil, err
	}
	return record, nil
}

func (s *TimetableService) observeQuery(label string, start time.Time) {
	if s.metrics != nil {
		s.metrics.ObserveDBQuery(label, time.Since(start))
	}
}

// makeGenerationCacheKey hashes the full engine input so identical requests
// share one cached response.
func makeGenerationCacheKey(req dto.GenerateTimetableRequest, engineReq engine.Request) string {
	payload := struct {
		ProgramID    string
		Semester     int
		Batch        string
		AcademicYear string
		Request      engine.Request
	}{req.ProgramID, req.Semester, req.Batch, req.AcademicYear, engineReq}
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Sprintf("timetable:generate:%s:%d:%s", req.ProgramID, req.Semester, req.Batch)
	}
	sum := sha256.Sum256(raw)
	return "timetable:generate:" + hex.EncodeToString(sum[:])
}

// --- Generation job store ---

type generationJobStatus string

const (
	jobStatusPending   generationJobStatus = "pending"
	jobStatusRunning   generationJobStatus = "running"
	jobStatusCompleted generationJobStatus = "completed"
	jobStatusFailed    generationJobStatus = "failed"
)

type generationJob struct {
	ID        string
	Status    generationJobStatus
	Request   dto.GenerateTimetableRequest
	Result    *dto.GenerateTimetableResponse
	Error     string
	CreatedAt time.Time
}

type generationJobStore struct {
	ttl   time.Duration
	mu    sync.RWMutex
	items map[string]generationJob
}

func newGenerationJobStore(ttl time.Duration) *generationJobStore {
	return &generationJobStore{
		ttl:   ttl,
		items: make(map[string]generationJob),
	}
}

func (s *generationJobStore) Save(job generationJob) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[job.ID] = job
}

func (s *generationJobStore) Get(id string) (generationJob, bool) {
	s.mu.RLock()
	job, ok := s.items[id]
	s.mu.RUnlock()
	if !ok {
		return generationJob{}, false
	}
	if time.Since(job.CreatedAt) > s.ttl {
		s.mu.Lock()
		delete(s.items, id)
		s.mu.Unlock()
		return generationJob{}, false
	}
	return job, true
}

func (s *generationJobStore) MarkRunning(id string) {
	s.update(id, func(job *generationJob) {
		job.Status = jobStatusRunning
	})
}

func (s *generationJobStore) Complete(id string, result *dto.GenerateTimetableResponse) {
	s.update(id, func(job *generationJob) {
		job.Status = jobStatusCompleted
		job.Result = result
	})
}

func (s *generationJobStore) Fail(id, message string) {
	s.update(id, func(job *generationJob) {
		job.Status = jobStatusFailed
		job.Error = message
	})
}

func (s *generationJobStore) update(id string, fn func(job *generationJob)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.items[id]
	if !ok {
		return
	}
	fn(&job)
	s.items[id] = job
}
