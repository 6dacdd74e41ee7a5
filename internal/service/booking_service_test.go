package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-booking-api/internal/dto"
	"github.com/noah-isme/sma-booking-api/internal/models"
	appErrors "github.com/noah-isme/sma-booking-api/pkg/errors"
	"github.com/noah-isme/sma-booking-api/pkg/jobs"
)

type stubCourseRepo struct {
	course *models.Course
	err    error
}

func (s *stubCourseRepo) FindByID(_ context.Context, _ string) (*models.Course, error) {
	return s.course, s.err
}

func (s *stubCourseRepo) ListActive(_ context.Context) ([]models.Course, error) {
	if s.course == nil {
		return nil, s.err
	}
	return []models.Course{*s.course}, s.err
}

type stubStudentRepo struct {
	students []models.Student
	err      error
}

func (s *stubStudentRepo) FindByIDs(_ context.Context, ids []string) ([]models.Student, error) {
	var found []models.Student
	for _, student := range s.students {
		for _, id := range ids {
			if student.ID == id {
				found = append(found, student)
			}
		}
	}
	return found, s.err
}

type stubTeacherRepo struct {
	teachers []models.Teacher
	err      error
}

func (s *stubTeacherRepo) ListActive(_ context.Context) ([]models.Teacher, error) {
	return s.teachers, s.err
}

func (s *stubTeacherRepo) FindByIDs(_ context.Context, ids []string) ([]models.Teacher, error) {
	var found []models.Teacher
	for _, teacher := range s.teachers {
		for _, id := range ids {
			if teacher.ID == id {
				found = append(found, teacher)
			}
		}
	}
	return found, s.err
}

type stubSlotRepo struct {
	slots []models.TimeSlot
	err   error
	calls int
}

func (s *stubSlotRepo) ListByCourse(_ context.Context, _ string) ([]models.TimeSlot, error) {
	s.calls++
	return s.slots, s.err
}

type stubScheduleRepo struct {
	err      error
	courseID string
	bookings []models.Booking
	slots    []models.TimeSlot
}

func (s *stubScheduleRepo) ReplaceForCourse(_ context.Context, courseID string, bookings []models.Booking, slots []models.TimeSlot) error {
	s.courseID = courseID
	s.bookings = bookings
	s.slots = slots
	return s.err
}

type stubCache struct {
	data    map[string][]byte
	deleted []string
}

func newStubCache() *stubCache {
	return &stubCache{data: make(map[string][]byte)}
}

func (s *stubCache) Get(_ context.Context, key string, dest interface{}) error {
	raw, ok := s.data[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (s *stubCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	s.data[key] = raw
	return nil
}

func (s *stubCache) Delete(_ context.Context, key string) error {
	s.deleted = append(s.deleted, key)
	delete(s.data, key)
	return nil
}

type stubQueue struct {
	jobs []jobs.Job
	err  error
}

func (s *stubQueue) Enqueue(job jobs.Job) error {
	if s.err != nil {
		return s.err
	}
	s.jobs = append(s.jobs, job)
	return nil
}

func seedSlot(id string, date time.Time, quota int, teacherIDs ...string) models.TimeSlot {
	slot := models.TimeSlot{
		ID:             id,
		CourseID:       "course-1",
		Date:           date,
		StartTime:      "08:00",
		EndTime:        "09:00",
		TotalQuota:     quota,
		RemainingQuota: quota,
	}
	for i, tid := range teacherIDs {
		slot.EligibleTeachers = append(slot.EligibleTeachers, models.SlotTeacher{SlotID: id, TeacherID: tid, IsPrimary: i == 0})
	}
	return slot
}

type bookingFixture struct {
	svc       *BookingService
	slots     *stubSlotRepo
	schedules *stubScheduleRepo
	cache     *stubCache
	queue     *stubQueue
}

func newBookingFixture(t *testing.T, cfg BookingConfig) *bookingFixture {
	t.Helper()
	monday := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	courses := &stubCourseRepo{course: &models.Course{
		ID: "course-1", Name: "Robotics", TotalSessions: 2, SessionMinutes: 60, DefaultQuota: 3, Active: true,
	}}
	students := &stubStudentRepo{students: []models.Student{
		{ID: "stu-1", FullName: "Aulia Rahma", Active: true},
		{ID: "stu-2", FullName: "Bima Putra", Active: true},
	}}
	teachers := &stubTeacherRepo{teachers: []models.Teacher{{ID: "t1", FullName: "Teacher One", Active: true}}}
	slots := &stubSlotRepo{slots: []models.TimeSlot{
		seedSlot("s1", monday, 3, "t1"),
		seedSlot("s2", monday.AddDate(0, 0, 1), 3, "t1"),
	}}
	schedules := &stubScheduleRepo{}
	cache := newStubCache()
	queue := &stubQueue{}

	svc := NewBookingService(courses, students, teachers, slots, schedules, cache, nil, nil, zap.NewNop(), cfg)
	svc.AttachQueue(queue)
	return &bookingFixture{svc: svc, slots: slots, schedules: schedules, cache: cache, queue: queue}
}

func createSession(t *testing.T, f *bookingFixture) string {
	t.Helper()
	state, err := f.svc.CreateSession(context.Background(), dto.CreateSessionRequest{
		CourseID:   "course-1",
		StudentIDs: []string{"stu-1", "stu-2"},
	})
	require.NoError(t, err)
	return state.SessionID
}

func TestBookingServiceCreateSessionFromStoredSlots(t *testing.T) {
	f := newBookingFixture(t, BookingConfig{})

	state, err := f.svc.CreateSession(context.Background(), dto.CreateSessionRequest{
		CourseID:   "course-1",
		StudentIDs: []string{"stu-1", "stu-2"},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, state.SessionID)
	assert.Equal(t, "stu-1", state.ActiveStudent)
	assert.Len(t, state.Slots, 2)
	assert.Len(t, state.Completion, 2)
	assert.Equal(t, 1, f.slots.calls)
	assert.Contains(t, f.cache.data, seedCacheKey("course-1"))
}

func TestBookingServiceCreateSessionServesSeedFromCache(t *testing.T) {
	f := newBookingFixture(t, BookingConfig{})

	createSession(t, f)
	createSession(t, f)

	// Second session is seeded from the cached snapshot.
	assert.Equal(t, 1, f.slots.calls)
}

func TestBookingServiceCreateSessionUnknownCourse(t *testing.T) {
	f := newBookingFixture(t, BookingConfig{})
	f.svc.courses = &stubCourseRepo{err: sql.ErrNoRows}

	_, err := f.svc.CreateSession(context.Background(), dto.CreateSessionRequest{
		CourseID:   "missing",
		StudentIDs: []string{"stu-1"},
	})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}

func TestBookingServiceCreateSessionUnknownStudent(t *testing.T) {
	f := newBookingFixture(t, BookingConfig{})

	_, err := f.svc.CreateSession(context.Background(), dto.CreateSessionRequest{
		CourseID:   "course-1",
		StudentIDs: []string{"stu-1", "ghost"},
	})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}

func TestBookingServiceCreateSessionGeneratesSlots(t *testing.T) {
	f := newBookingFixture(t, BookingConfig{})

	state, err := f.svc.CreateSession(context.Background(), dto.CreateSessionRequest{
		CourseID:   "course-1",
		StudentIDs: []string{"stu-1"},
		Generate: &dto.GenerateSlotsSpec{
			WeekStart:   time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
			Weeks:       2,
			Days:        []int{1, 3},
			StartHour:   8,
			HoursPerDay: 2,
		},
	})
	require.NoError(t, err)
	// 2 weeks x 2 days x 2 hours.
	require.Len(t, state.Slots, 8)
	slot := state.Slots[0]
	assert.Equal(t, "08:00", slot.StartTime)
	assert.Equal(t, "09:00", slot.EndTime)
	assert.Equal(t, 3, slot.TotalQuota)
	require.Len(t, slot.EligibleTeachers, 1)
	assert.Equal(t, "t1", slot.EligibleTeachers[0].TeacherID)
	assert.True(t, slot.EligibleTeachers[0].IsPrimary)
	// Generated universes bypass the seed cache.
	assert.Zero(t, f.slots.calls)
}

func TestBookingServiceCreateSessionRejectsUnknownTeacherIDs(t *testing.T) {
	f := newBookingFixture(t, BookingConfig{})

	_, err := f.svc.CreateSession(context.Background(), dto.CreateSessionRequest{
		CourseID:   "course-1",
		StudentIDs: []string{"stu-1"},
		Generate: &dto.GenerateSlotsSpec{
			WeekStart:   time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
			Weeks:       1,
			Days:        []int{1},
			StartHour:   8,
			HoursPerDay: 1,
			TeacherIDs:  []string{"t1", "ghost"},
		},
	})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}

func TestBookingServiceGenerateSlotsKeepsLocalDay(t *testing.T) {
	f := newBookingFixture(t, BookingConfig{})
	jakarta := time.FixedZone("WIB", 7*3600)

	state, err := f.svc.CreateSession(context.Background(), dto.CreateSessionRequest{
		CourseID:   "course-1",
		StudentIDs: []string{"stu-1"},
		Generate: &dto.GenerateSlotsSpec{
			// Monday midnight in UTC+7; absolute truncation would land on Sunday.
			WeekStart:   time.Date(2026, 3, 2, 0, 0, 0, 0, jakarta),
			Weeks:       1,
			Days:        []int{1},
			StartHour:   8,
			HoursPerDay: 1,
		},
	})
	require.NoError(t, err)
	require.Len(t, state.Slots, 1)
	assert.Equal(t, 2, state.Slots[0].Date.Day())
	assert.Equal(t, time.Monday, state.Slots[0].Date.Weekday())
}

func TestBookingServiceListCourses(t *testing.T) {
	f := newBookingFixture(t, BookingConfig{})

	courses, err := f.svc.ListCourses(context.Background())
	require.NoError(t, err)
	require.Len(t, courses, 1)
	assert.Equal(t, "Robotics", courses[0].Name)
}

func TestBookingServiceBookRecordsOutcomes(t *testing.T) {
	f := newBookingFixture(t, BookingConfig{})
	id := createSession(t, f)

	results, err := f.svc.Book(id, dto.BookRequest{
		SlotID:     "s1",
		TeacherID:  "t1",
		StudentIDs: []string{"stu-1", "stu-2"},
	})
	require.NoError(t, err)
	require.Len(t, results, 2)
	for _, r := range results {
		assert.Equal(t, models.OutcomeBooked, r.Outcome)
	}

	state, err := f.svc.GetSession(id)
	require.NoError(t, err)
	assert.Len(t, state.Bookings, 2)
}

func TestBookingServiceUnbookAndMove(t *testing.T) {
	f := newBookingFixture(t, BookingConfig{})
	id := createSession(t, f)

	_, err := f.svc.Book(id, dto.BookRequest{SlotID: "s1", TeacherID: "t1", StudentIDs: []string{"stu-1"}})
	require.NoError(t, err)

	result, err := f.svc.Move(id, dto.MoveBookingRequest{
		StudentID: "stu-1", FromSlotID: "s1", ToSlotID: "s2", TeacherID: "t1",
	})
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeBooked, result.Outcome)
	assert.Equal(t, "s2", result.Booking.SlotID)

	removed, err := f.svc.Unbook(id, "stu-1", "s2")
	require.NoError(t, err)
	assert.Equal(t, "s2", removed.SlotID)
}

func TestBookingServiceStudentBookings(t *testing.T) {
	f := newBookingFixture(t, BookingConfig{})
	id := createSession(t, f)

	_, err := f.svc.Book(id, dto.BookRequest{SlotID: "s1", TeacherID: "t1", StudentIDs: []string{"stu-1"}})
	require.NoError(t, err)

	bookings, err := f.svc.StudentBookings(id, "stu-1")
	require.NoError(t, err)
	require.Len(t, bookings, 1)
	assert.Equal(t, 1, bookings[0].SessionNumber)

	_, err = f.svc.StudentBookings(id, "ghost")
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}

func TestBookingServiceSessionExpires(t *testing.T) {
	f := newBookingFixture(t, BookingConfig{SessionTTL: time.Nanosecond})
	id := createSession(t, f)

	time.Sleep(time.Millisecond)
	_, err := f.svc.GetSession(id)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}

func TestBookingServiceConcurrentSessionAccess(t *testing.T) {
	f := newBookingFixture(t, BookingConfig{})
	id := createSession(t, f)

	// Reads and mutations on one session race through the store; run under
	// the race detector this must stay clean.
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := f.svc.GetSession(id)
			assert.NoError(t, err)
		}()
		go func() {
			defer wg.Done()
			err := f.svc.SelectStudent(id, dto.SelectStudentRequest{StudentID: "stu-2"})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
}

func TestBookingServiceCloseSession(t *testing.T) {
	f := newBookingFixture(t, BookingConfig{})
	id := createSession(t, f)

	require.NoError(t, f.svc.CloseSession(id))
	err := f.svc.CloseSession(id)
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}

func TestBookingServiceConfirmScheduleEnqueues(t *testing.T) {
	f := newBookingFixture(t, BookingConfig{})
	id := createSession(t, f)

	_, err := f.svc.Book(id, dto.BookRequest{SlotID: "s1", TeacherID: "t1", StudentIDs: []string{"stu-1"}})
	require.NoError(t, err)

	resp, err := f.svc.ConfirmSchedule(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Bookings)
	// stu-1 has 1 of 2 sessions, stu-2 has none.
	assert.Len(t, resp.Warnings, 2)

	require.Len(t, f.queue.jobs, 1)
	job := f.queue.jobs[0]
	assert.Equal(t, PersistScheduleJobType, job.Type)
	payload, ok := job.Payload.(persistPayload)
	require.True(t, ok)
	assert.Equal(t, "course-1", payload.CourseID)
	assert.Len(t, payload.Bookings, 1)
}

func TestBookingServiceConfirmScheduleCoversSlotsOutsideView(t *testing.T) {
	f := newBookingFixture(t, BookingConfig{})
	id := createSession(t, f)
	tuesday := time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC)

	_, err := f.svc.Book(id, dto.BookRequest{SlotID: "s1", TeacherID: "t1", StudentIDs: []string{"stu-1"}})
	require.NoError(t, err)

	// Navigating away from the booked day must not shrink the persisted
	// quota write-back.
	require.NoError(t, f.svc.SetView(id, dto.ViewWindowRequest{Day: &tuesday}))

	_, err = f.svc.ConfirmSchedule(context.Background(), id)
	require.NoError(t, err)

	require.Len(t, f.queue.jobs, 1)
	payload, ok := f.queue.jobs[0].Payload.(persistPayload)
	require.True(t, ok)
	require.Len(t, payload.Slots, 2)
	byID := make(map[string]models.TimeSlot, len(payload.Slots))
	for _, slot := range payload.Slots {
		byID[slot.ID] = slot
	}
	require.Contains(t, byID, "s1")
	assert.Equal(t, 2, byID["s1"].RemainingQuota)
	assert.Equal(t, 3, byID["s2"].RemainingQuota)
}

func TestBookingServiceHandlePersistJob(t *testing.T) {
	f := newBookingFixture(t, BookingConfig{})
	f.cache.data[seedCacheKey("course-1")] = []byte("[]")

	payload := persistPayload{
		CourseID: "course-1",
		Bookings: []models.Booking{{ID: "b1", StudentID: "stu-1", SlotID: "s1"}},
		Slots:    []models.TimeSlot{{ID: "s1", RemainingQuota: 2}},
	}
	err := f.svc.HandlePersistJob(context.Background(), jobs.Job{ID: "job-1", Type: PersistScheduleJobType, Payload: payload})
	require.NoError(t, err)
	assert.Equal(t, "course-1", f.schedules.courseID)
	assert.Len(t, f.schedules.bookings, 1)
	assert.Contains(t, f.cache.deleted, seedCacheKey("course-1"))
}

func TestBookingServiceHandlePersistJobBadPayload(t *testing.T) {
	f := newBookingFixture(t, BookingConfig{})
	err := f.svc.HandlePersistJob(context.Background(), jobs.Job{ID: "job-1", Payload: "nope"})
	require.Error(t, err)
}

func TestBookingServicePlacementFlow(t *testing.T) {
	f := newBookingFixture(t, BookingConfig{})
	id := createSession(t, f)
	monday := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	_, err := f.svc.ToggleBulk(id, dto.BulkToggleRequest{StudentID: "stu-1"})
	require.NoError(t, err)
	_, err = f.svc.ToggleBulk(id, dto.BulkToggleRequest{StudentID: "stu-2"})
	require.NoError(t, err)

	require.NoError(t, f.svc.BeginSelection(id, dto.BeginSelectionRequest{SlotID: "s1"}))
	require.NoError(t, f.svc.ChooseTime(id, dto.ChooseTimeRequest{SlotID: "s1", Time: "08:00"}))

	results, err := f.svc.ConfirmPlacement(id, dto.ConfirmPlacementRequest{SlotID: "s1", DayLane: monday})
	require.NoError(t, err)
	assert.Len(t, results, 2)

	state, err := f.svc.GetSession(id)
	require.NoError(t, err)
	assert.Nil(t, state.Selection)
	assert.Len(t, state.Bookings, 2)
}

func TestBookingServiceSetViewFiltersSlots(t *testing.T) {
	f := newBookingFixture(t, BookingConfig{})
	id := createSession(t, f)
	tuesday := time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC)

	require.NoError(t, f.svc.SetView(id, dto.ViewWindowRequest{Day: &tuesday}))
	slots, err := f.svc.ListSlots(id, models.SlotFilter{})
	require.NoError(t, err)
	require.Len(t, slots, 1)
	assert.Equal(t, "s2", slots[0].ID)

	err = f.svc.SetView(id, dto.ViewWindowRequest{})
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}
