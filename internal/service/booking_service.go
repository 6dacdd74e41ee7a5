package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-booking-api/internal/dto"
	"github.com/noah-isme/sma-booking-api/internal/models"
	"github.com/noah-isme/sma-booking-api/internal/scheduling"
	appErrors "github.com/noah-isme/sma-booking-api/pkg/errors"
	"github.com/noah-isme/sma-booking-api/pkg/jobs"
)

type courseReader interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
	ListActive(ctx context.Context) ([]models.Course, error)
}

type studentReader interface {
	FindByIDs(ctx context.Context, ids []string) ([]models.Student, error)
}

type teacherReader interface {
	ListActive(ctx context.Context) ([]models.Teacher, error)
	FindByIDs(ctx context.Context, ids []string) ([]models.Teacher, error)
}

type slotReader interface {
	ListByCourse(ctx context.Context, courseID string) ([]models.TimeSlot, error)
}

type scheduleWriter interface {
	ReplaceForCourse(ctx context.Context, courseID string, bookings []models.Booking, slots []models.TimeSlot) error
}

type seedCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

type persistQueue interface {
	Enqueue(job jobs.Job) error
}

// PersistScheduleJobType labels confirmed-schedule persistence jobs.
const PersistScheduleJobType = "persist_schedule"

// persistPayload is the unit of work handed to the persistence queue on
// confirm.
type persistPayload struct {
	CourseID string
	Bookings []models.Booking
	Slots    []models.TimeSlot
}

// BookingConfig governs session lifetime and seeding behaviour.
type BookingConfig struct {
	SessionTTL   time.Duration
	SeedCacheTTL time.Duration
	DefaultQuota int
}

// BookingService owns interactive scheduling sessions: it seeds them from
// stored data (or a generation spec), adapts API calls onto the in-memory
// scheduling core, and hands confirmed schedules to the persistence queue.
// All mutation of a given session is serialised through its store entry.
type BookingService struct {
	courses   courseReader
	students  studentReader
	teachers  teacherReader
	slots     slotReader
	schedules scheduleWriter
	cache     seedCache
	queue     persistQueue
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	cfg       BookingConfig
	store     *sessionStore
}

// NewBookingService wires booking dependencies.
func NewBookingService(
	courses courseReader,
	students studentReader,
	teachers teacherReader,
	slots slotReader,
	schedules scheduleWriter,
	cache seedCache,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg BookingConfig,
) *BookingService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 2 * time.Hour
	}
	if cfg.SeedCacheTTL <= 0 {
		cfg.SeedCacheTTL = 5 * time.Minute
	}
	if cfg.DefaultQuota <= 0 {
		cfg.DefaultQuota = 1
	}
	return &BookingService{
		courses:   courses,
		students:  students,
		teachers:  teachers,
		slots:     slots,
		schedules: schedules,
		cache:     cache,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
		store:     newSessionStore(cfg.SessionTTL),
	}
}

// AttachQueue sets the persistence queue. Called after construction because
// the queue's handler is a method on this service.
func (s *BookingService) AttachQueue(q persistQueue) {
	s.queue = q
}

// ListCourses returns the active course catalogue for session setup.
func (s *BookingService) ListCourses(ctx context.Context) ([]models.Course, error) {
	courses, err := s.courses.ListActive(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "list courses")
	}
	return courses, nil
}

// CreateSession seeds a new scheduling session for a course and participant
// set. Slots come from storage (through the seed cache) unless the request
// carries a generation spec.
func (s *BookingService) CreateSession(ctx context.Context, req dto.CreateSessionRequest) (*dto.SessionState, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid session payload")
	}

	course, err := s.courses.FindByID(ctx, req.CourseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load course")
	}
	if !course.Active {
		return nil, appErrors.Clone(appErrors.ErrValidation, "course is not active")
	}

	participants, err := s.students.FindByIDs(ctx, req.StudentIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load students")
	}
	if len(participants) != len(uniqueStrings(req.StudentIDs)) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "one or more student ids are unknown")
	}

	var slots []models.TimeSlot
	if req.Generate != nil {
		slots, err = s.generateSlots(ctx, course, *req.Generate)
	} else {
		slots, err = s.loadSlots(ctx, course.ID)
	}
	if err != nil {
		return nil, err
	}
	if len(slots) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "course has no bookable slots")
	}

	session := scheduling.NewSession(*course, participants, slots)
	s.store.Save(session)
	s.metrics.SetActiveSessions(s.store.Len())
	s.logger.Info("scheduling session created",
		zap.String("session_id", session.ID),
		zap.String("course_id", course.ID),
		zap.Int("students", len(participants)),
		zap.Int("slots", len(slots)))

	state := s.snapshot(session)
	return &state, nil
}

// GetSession returns the current state of a live session.
func (s *BookingService) GetSession(sessionID string) (*dto.SessionState, error) {
	var state dto.SessionState
	err := s.withSession(sessionID, func(sess *scheduling.Session) error {
		state = s.snapshot(sess)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &state, nil
}

// CloseSession discards a session without persisting anything.
func (s *BookingService) CloseSession(sessionID string) error {
	if _, ok := s.store.Get(sessionID); !ok {
		return appErrors.Clone(appErrors.ErrNotFound, "scheduling session not found or expired")
	}
	s.store.Delete(sessionID)
	s.metrics.SetActiveSessions(s.store.Len())
	return nil
}

// Book books a slot for a set of students and reports per-student outcomes.
func (s *BookingService) Book(sessionID string, req dto.BookRequest) ([]models.StudentBookingResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid booking payload")
	}
	var results []models.StudentBookingResult
	err := s.withSession(sessionID, func(sess *scheduling.Session) error {
		var bookErr error
		results, bookErr = sess.Book(req.SlotID, req.TeacherID, req.StudentIDs)
		return bookErr
	})
	if err != nil {
		return nil, err
	}
	s.recordOutcomes(results)
	return results, nil
}

// Unbook removes a student's booking and releases its quota.
func (s *BookingService) Unbook(sessionID, studentID, slotID string) (models.Booking, error) {
	var removed models.Booking
	err := s.withSession(sessionID, func(sess *scheduling.Session) error {
		var unbookErr error
		removed, unbookErr = sess.RequestUnbook(studentID, slotID)
		return unbookErr
	})
	return removed, err
}

// Move reschedules one student's booking between slots.
func (s *BookingService) Move(sessionID string, req dto.MoveBookingRequest) (models.StudentBookingResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return models.StudentBookingResult{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid move payload")
	}
	var result models.StudentBookingResult
	err := s.withSession(sessionID, func(sess *scheduling.Session) error {
		var moveErr error
		result, moveErr = sess.Move(req.StudentID, req.FromSlotID, req.ToSlotID, req.TeacherID)
		return moveErr
	})
	if err != nil {
		return models.StudentBookingResult{}, err
	}
	s.recordOutcomes([]models.StudentBookingResult{result})
	return result, nil
}

// SelectStudent switches the session's active student.
func (s *BookingService) SelectStudent(sessionID string, req dto.SelectStudentRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	return s.withSession(sessionID, func(sess *scheduling.Session) error {
		return sess.SelectActiveStudent(req.StudentID)
	})
}

// SetView moves the session's calendar window to a week or a single day.
func (s *BookingService) SetView(sessionID string, req dto.ViewWindowRequest) error {
	if req.WeekStart == nil && req.Day == nil {
		return appErrors.Clone(appErrors.ErrValidation, "either weekStart or day is required")
	}
	return s.withSession(sessionID, func(sess *scheduling.Session) error {
		if req.Day != nil {
			sess.SetViewDay(*req.Day)
			return nil
		}
		sess.SetViewWeek(*req.WeekStart)
		return nil
	})
}

// ToggleBulk toggles a student in the bulk-select set and reports the new
// membership.
func (s *BookingService) ToggleBulk(sessionID string, req dto.BulkToggleRequest) (bool, error) {
	if err := s.validator.Struct(req); err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid toggle payload")
	}
	var selected bool
	err := s.withSession(sessionID, func(sess *scheduling.Session) error {
		var toggleErr error
		selected, toggleErr = sess.ToggleBulkStudent(req.StudentID)
		return toggleErr
	})
	return selected, err
}

// BeginSelection starts (or abandons, on re-click) a time selection on a slot.
func (s *BookingService) BeginSelection(sessionID string, req dto.BeginSelectionRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid selection payload")
	}
	return s.withSession(sessionID, func(sess *scheduling.Session) error {
		return sess.BeginSlotSelection(req.SlotID)
	})
}

// ChooseTime records a candidate start time on the pending selection.
func (s *BookingService) ChooseTime(sessionID string, req dto.ChooseTimeRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid time payload")
	}
	return s.withSession(sessionID, func(sess *scheduling.Session) error {
		return sess.ChooseTime(req.SlotID, req.Time)
	})
}

// AbandonSelection drops the pending selection.
func (s *BookingService) AbandonSelection(sessionID string) error {
	return s.withSession(sessionID, func(sess *scheduling.Session) error {
		sess.AbandonSelection()
		return nil
	})
}

// ConfirmPlacement books the selected slot on the given day lane.
func (s *BookingService) ConfirmPlacement(sessionID string, req dto.ConfirmPlacementRequest) ([]models.StudentBookingResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid placement payload")
	}
	var results []models.StudentBookingResult
	err := s.withSession(sessionID, func(sess *scheduling.Session) error {
		var placeErr error
		results, placeErr = sess.ConfirmPlacement(req.SlotID, req.DayLane)
		return placeErr
	})
	if err != nil {
		return nil, err
	}
	s.recordOutcomes(results)
	return results, nil
}

// ListSlots returns slots through the session's view rules.
func (s *BookingService) ListSlots(sessionID string, filter models.SlotFilter) ([]models.TimeSlot, error) {
	var slots []models.TimeSlot
	err := s.withSession(sessionID, func(sess *scheduling.Session) error {
		slots = sess.Slots(filter)
		return nil
	})
	return slots, err
}

// StudentBookings returns one participant's ledger entries in session order.
func (s *BookingService) StudentBookings(sessionID, studentID string) ([]models.Booking, error) {
	var bookings []models.Booking
	err := s.withSession(sessionID, func(sess *scheduling.Session) error {
		known := false
		for _, student := range sess.Students {
			if student.ID == studentID {
				known = true
				break
			}
		}
		if !known {
			return appErrors.Clone(appErrors.ErrNotFound, "student is not part of this session")
		}
		bookings = sess.Bookings(studentID)
		return nil
	})
	return bookings, err
}

// Completion reports every participant's progress toward the course target.
func (s *BookingService) Completion(sessionID string) (*dto.CompletionResponse, error) {
	var resp dto.CompletionResponse
	err := s.withSession(sessionID, func(sess *scheduling.Session) error {
		resp.Report = sess.ValidateCompletion()
		resp.Below = sess.Incomplete()
		resp.Complete = len(resp.Below) == 0
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// ConfirmSchedule snapshots the session's ledger and hands it to the
// persistence queue; incomplete students are returned as warnings, not
// errors. The session stays live so the caller can keep editing.
func (s *BookingService) ConfirmSchedule(ctx context.Context, sessionID string) (*dto.ConfirmScheduleResponse, error) {
	if s.queue == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "persistence queue not configured")
	}

	var payload persistPayload
	var warnings []models.StudentCompletion
	err := s.withSession(sessionID, func(sess *scheduling.Session) error {
		payload = persistPayload{
			CourseID: sess.Course.ID,
			Bookings: sess.AllBookings(),
			Slots:    sess.AllSlots(),
		}
		warnings = sess.Incomplete()
		return nil
	})
	if err != nil {
		return nil, err
	}

	job := jobs.Job{
		ID:      uuid.NewString(),
		Type:    PersistScheduleJobType,
		Payload: payload,
	}
	if err := s.queue.Enqueue(job); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "enqueue schedule persistence")
	}
	s.logger.Info("schedule confirm enqueued",
		zap.String("session_id", sessionID),
		zap.String("job_id", job.ID),
		zap.Int("bookings", len(payload.Bookings)))

	return &dto.ConfirmScheduleResponse{
		JobID:    job.ID,
		Bookings: len(payload.Bookings),
		Warnings: warnings,
	}, nil
}

// HandlePersistJob is the queue handler for confirmed schedules: it replaces
// the course's stored bookings and invalidates the seed snapshot.
func (s *BookingService) HandlePersistJob(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(persistPayload)
	if !ok {
		return fmt.Errorf("unexpected payload type for job %s", job.ID)
	}
	if s.schedules == nil {
		return fmt.Errorf("schedule writer not configured")
	}
	if err := s.schedules.ReplaceForCourse(ctx, payload.CourseID, payload.Bookings, payload.Slots); err != nil {
		return err
	}
	if s.cache != nil {
		if err := s.cache.Delete(ctx, seedCacheKey(payload.CourseID)); err != nil {
			s.logger.Warn("seed cache invalidation failed", zap.String("course_id", payload.CourseID), zap.Error(err))
		}
	}
	s.logger.Info("schedule persisted",
		zap.String("job_id", job.ID),
		zap.String("course_id", payload.CourseID),
		zap.Int("bookings", len(payload.Bookings)))
	return nil
}

func (s *BookingService) withSession(sessionID string, fn func(*scheduling.Session) error) error {
	entry, ok := s.store.Get(sessionID)
	if !ok {
		return appErrors.Clone(appErrors.ErrNotFound, "scheduling session not found or expired")
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	entry.session.Touch()
	return fn(entry.session)
}

func (s *BookingService) snapshot(sess *scheduling.Session) dto.SessionState {
	week, viewDay := sess.ViewWindow()
	return dto.SessionState{
		SessionID:     sess.ID,
		Course:        sess.Course,
		Students:      sess.Students,
		ActiveStudent: sess.ActiveStudent(),
		BulkSelection: sess.BulkStudents(),
		WeekStart:     week,
		Day:           viewDay,
		Selection:     sess.Selection(),
		Slots:         sess.Slots(models.SlotFilter{}),
		Bookings:      sess.AllBookings(),
		Completion:    sess.ValidateCompletion(),
		CreatedAt:     sess.CreatedAt,
	}
}

func (s *BookingService) loadSlots(ctx context.Context, courseID string) ([]models.TimeSlot, error) {
	key := seedCacheKey(courseID)
	if s.cache != nil {
		var cached []models.TimeSlot
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			s.metrics.RecordCacheLookup(true)
			return cached, nil
		} else if !appErrors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("seed cache read failed", zap.String("course_id", courseID), zap.Error(err))
		}
		s.metrics.RecordCacheLookup(false)
	}

	slots, err := s.slots.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load slots")
	}
	if s.cache != nil && len(slots) > 0 {
		if err := s.cache.Set(ctx, key, slots, s.cfg.SeedCacheTTL); err != nil {
			s.logger.Warn("seed cache write failed", zap.String("course_id", courseID), zap.Error(err))
		}
	}
	return slots, nil
}

// generateSlots builds an ad-hoc slot universe from the request spec: one
// slot per listed weekday and hour across the requested weeks, all carrying
// the same teacher pool with the first teacher as primary.
func (s *BookingService) generateSlots(ctx context.Context, course *models.Course, spec dto.GenerateSlotsSpec) ([]models.TimeSlot, error) {
	teacherIDs := spec.TeacherIDs
	if len(teacherIDs) > 0 {
		found, err := s.teachers.FindByIDs(ctx, teacherIDs)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load teachers")
		}
		if len(found) != len(uniqueStrings(teacherIDs)) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "one or more teacher ids are unknown")
		}
	} else {
		active, err := s.teachers.ListActive(ctx)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load teachers")
		}
		for _, teacher := range active {
			teacherIDs = append(teacherIDs, teacher.ID)
		}
	}
	if len(teacherIDs) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "no teachers available for slot generation")
	}

	quota := course.DefaultQuota
	if quota <= 0 {
		quota = s.cfg.DefaultQuota
	}
	minutes := course.SessionMinutes
	if minutes <= 0 {
		minutes = 60
	}

	// Normalise to midnight in the payload's own location. Truncate works
	// in absolute time and would shift the calendar day for non-UTC input.
	ws := spec.WeekStart
	weekStart := time.Date(ws.Year(), ws.Month(), ws.Day(), 0, 0, 0, 0, ws.Location())
	var slots []models.TimeSlot
	for week := 0; week < spec.Weeks; week++ {
		for _, weekday := range spec.Days {
			date := weekStart.AddDate(0, 0, week*7+weekday-1)
			for hour := 0; hour < spec.HoursPerDay; hour++ {
				startMinutes := (spec.StartHour + hour) * 60
				slot := models.TimeSlot{
					ID:         uuid.NewString(),
					CourseID:   course.ID,
					Date:       date,
					StartTime:  formatClock(startMinutes),
					EndTime:    formatClock(startMinutes + minutes),
					TotalQuota: quota,
				}
				for i, teacherID := range teacherIDs {
					slot.EligibleTeachers = append(slot.EligibleTeachers, models.SlotTeacher{
						SlotID:    slot.ID,
						TeacherID: teacherID,
						IsPrimary: i == 0,
					})
				}
				slots = append(slots, slot)
			}
		}
	}
	return slots, nil
}

func (s *BookingService) recordOutcomes(results []models.StudentBookingResult) {
	for _, r := range results {
		s.metrics.RecordBookingOutcome(string(r.Outcome))
	}
}

func seedCacheKey(courseID string) string {
	return "booking:seed:slots:" + courseID
}

func formatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60%24, minutes%60)
}

func uniqueStrings(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// sessionEntry pairs a session with the mutex that serialises its mutation.
type sessionEntry struct {
	mu      sync.Mutex
	session *scheduling.Session
}

// sessionStore keeps live sessions in memory with a sliding TTL. Expired
// entries are dropped lazily on lookup.
type sessionStore struct {
	ttl   time.Duration
	mu    sync.RWMutex
	items map[string]*sessionEntry
}

func newSessionStore(ttl time.Duration) *sessionStore {
	return &sessionStore{
		ttl:   ttl,
		items: make(map[string]*sessionEntry),
	}
}

func (s *sessionStore) Save(session *scheduling.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[session.ID] = &sessionEntry{session: session}
}

func (s *sessionStore) Get(id string) (*sessionEntry, bool) {
	s.mu.RLock()
	entry, ok := s.items[id]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}
	// LastAccessAt is written by Touch under the entry mutex, so the TTL
	// check takes the same lock.
	entry.mu.Lock()
	expired := time.Since(entry.session.LastAccessAt) > s.ttl
	entry.mu.Unlock()
	if expired {
		s.Delete(id)
		return nil, false
	}
	return entry, true
}

func (s *sessionStore) Delete(id string) {
	s.mu.Lock()
	delete(s.items, id)
	s.mu.Unlock()
}

func (s *sessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}
