package scheduling

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/sma-booking-api/internal/models"
	appErrors "github.com/noah-isme/sma-booking-api/pkg/errors"
)

// SlotSelection is an in-progress, unconfirmed time pick on a slot. Nothing
// is committed until the selection is dropped onto a day lane; abandoning it
// has no engine-visible effect.
type SlotSelection struct {
	SlotID   string    `json:"slot_id"`
	Time     string    `json:"time,omitempty"`
	ChosenAt time.Time `json:"chosen_at"`
}

// Session is the stateful orchestration layer for one scheduling run: it
// holds the seeded pool, ledger and engine for a course plus the ephemeral
// UI-only state (active student, view window, bulk selection, pending slot
// selection) and translates discrete UI events into engine calls. It never
// mutates pool or ledger directly.
type Session struct {
	ID       string
	Course   models.Course
	Students []models.Student

	pool   *SlotPool
	ledger *BookingLedger
	engine *BookingEngine

	activeStudent string
	viewWeekStart *time.Time
	viewDay       *time.Time
	bulkSet       map[string]struct{}
	selection     *SlotSelection

	CreatedAt    time.Time
	LastAccessAt time.Time
}

// NewSession seeds a session for the course with a fixed participant set and
// the slot universe.
func NewSession(course models.Course, students []models.Student, slots []models.TimeSlot) *Session {
	pool := NewSlotPool(slots)
	ledger := NewBookingLedger()
	now := time.Now().UTC()
	s := &Session{
		ID:           uuid.NewString(),
		Course:       course,
		Students:     students,
		pool:         pool,
		ledger:       ledger,
		engine:       NewBookingEngine(pool, ledger, course),
		bulkSet:      make(map[string]struct{}),
		CreatedAt:    now,
		LastAccessAt: now,
	}
	if len(students) > 0 {
		s.activeStudent = students[0].ID
	}
	return s
}

// Touch records session activity for TTL accounting.
func (s *Session) Touch() {
	s.LastAccessAt = time.Now().UTC()
}

// ActiveStudent returns the student targeted by single-student views.
func (s *Session) ActiveStudent() string {
	return s.activeStudent
}

// SelectActiveStudent switches the single-student view target.
func (s *Session) SelectActiveStudent(studentID string) error {
	if !s.hasStudent(studentID) {
		return appErrors.Clone(appErrors.ErrNotFound, "student is not part of this session")
	}
	s.activeStudent = studentID
	return nil
}

// SetViewWeek moves the calendar window to the week starting at weekStart.
func (s *Session) SetViewWeek(weekStart time.Time) {
	start := dayStart(weekStart)
	s.viewWeekStart = &start
	s.viewDay = nil
}

// SetViewDay narrows the calendar window to a single day.
func (s *Session) SetViewDay(day time.Time) {
	d := dayStart(day)
	s.viewDay = &d
	s.viewWeekStart = nil
}

// ViewWindow returns the current week start and day, either of which may be
// nil.
func (s *Session) ViewWindow() (*time.Time, *time.Time) {
	return s.viewWeekStart, s.viewDay
}

// ToggleBulkStudent adds or removes a student from the bulk-select set and
// reports whether the student is now selected.
func (s *Session) ToggleBulkStudent(studentID string) (bool, error) {
	if !s.hasStudent(studentID) {
		return false, appErrors.Clone(appErrors.ErrNotFound, "student is not part of this session")
	}
	if _, ok := s.bulkSet[studentID]; ok {
		delete(s.bulkSet, studentID)
		return false, nil
	}
	s.bulkSet[studentID] = struct{}{}
	return true, nil
}

// BulkStudents returns the bulk-select set in stable order.
func (s *Session) BulkStudents() []string {
	ids := make([]string, 0, len(s.bulkSet))
	for id := range s.bulkSet {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// BeginSlotSelection starts (or, when re-invoked on the same slot, abandons)
// an unconfirmed time selection on the slot.
func (s *Session) BeginSlotSelection(slotID string) error {
	if _, err := s.pool.Get(slotID); err != nil {
		return err
	}
	if s.selection != nil && s.selection.SlotID == slotID {
		s.selection = nil
		return nil
	}
	s.selection = &SlotSelection{SlotID: slotID, ChosenAt: time.Now().UTC()}
	return nil
}

// ChooseTime records a candidate start time on the in-progress selection.
// Pure UI state: quota is untouched until the placement is confirmed.
func (s *Session) ChooseTime(slotID, startTime string) error {
	if s.selection == nil || s.selection.SlotID != slotID {
		return appErrors.Clone(appErrors.ErrValidation, "no selection in progress for this slot")
	}
	s.selection.Time = startTime
	s.selection.ChosenAt = time.Now().UTC()
	return nil
}

// AbandonSelection drops any in-progress selection with no engine-visible
// effect.
func (s *Session) AbandonSelection() {
	s.selection = nil
}

// Selection returns the pending selection, if any.
func (s *Session) Selection() *SlotSelection {
	return s.selection
}

// ConfirmPlacement validates that the slot belongs to the dropped day lane
// and books it for the bulk-select set (falling back to the active student
// when the set is empty) with the slot's primary teacher. The pending
// selection is cleared on success.
func (s *Session) ConfirmPlacement(slotID string, dayLane time.Time) ([]models.StudentBookingResult, error) {
	slot, err := s.pool.Get(slotID)
	if err != nil {
		return nil, err
	}
	if !dayStart(slot.Date).Equal(dayStart(dayLane)) {
		return nil, appErrors.Clone(appErrors.ErrInvalidPlacement, "")
	}

	teacher, ok := slot.PrimaryTeacher()
	if !ok {
		if len(slot.EligibleTeachers) == 0 {
			return nil, appErrors.Clone(appErrors.ErrInvalidTeacher, "slot has no eligible teachers")
		}
		teacher = slot.EligibleTeachers[0]
	}

	students := s.BulkStudents()
	if len(students) == 0 {
		if s.activeStudent == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "no students selected for placement")
		}
		students = []string{s.activeStudent}
	}

	results, err := s.engine.Book(slotID, teacher.TeacherID, students)
	if err != nil {
		return nil, err
	}
	s.selection = nil
	return results, nil
}

// Book is the click-to-book adapter: it delegates directly to the engine.
func (s *Session) Book(slotID, teacherID string, studentIDs []string) ([]models.StudentBookingResult, error) {
	for _, id := range studentIDs {
		if !s.hasStudent(id) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student is not part of this session")
		}
	}
	return s.engine.Book(slotID, teacherID, studentIDs)
}

// RequestUnbook removes the student's booking on the slot.
func (s *Session) RequestUnbook(studentID, slotID string) (models.Booking, error) {
	return s.engine.Unbook(studentID, slotID)
}

// Move reschedules a booking between slots, the drag-and-drop adapter.
func (s *Session) Move(studentID, fromSlotID, toSlotID, teacherID string) (models.StudentBookingResult, error) {
	return s.engine.Move(studentID, fromSlotID, toSlotID, teacherID)
}

// Bookings returns the student's ledger entries ordered by session number.
func (s *Session) Bookings(studentID string) []models.Booking {
	return s.ledger.BookingsFor(studentID)
}

// AllBookings returns every booking in the session's ledger.
func (s *Session) AllBookings() []models.Booking {
	return s.ledger.All()
}

// AllSlots returns every slot in the pool regardless of the view window.
// Persistence snapshots use this so quota write-backs cover slots the user
// has navigated away from.
func (s *Session) AllSlots() []models.TimeSlot {
	return s.pool.List(models.SlotFilter{})
}

// Slots lists slots through the session's view rules: when only-available is
// requested and several students are bulk-selected, a slot must hold enough
// remaining quota for the whole set.
func (s *Session) Slots(filter models.SlotFilter) []models.TimeSlot {
	if filter.WeekStart == nil && filter.From == nil && filter.To == nil {
		if s.viewDay != nil {
			filter.From = s.viewDay
			filter.To = s.viewDay
		} else if s.viewWeekStart != nil {
			filter.WeekStart = s.viewWeekStart
		}
	}
	if filter.OnlyAvailable {
		if need := len(s.bulkSet); need > filter.MinQuota {
			filter.MinQuota = need
		}
	}
	return s.pool.List(filter)
}

// ValidateCompletion compares every participant's session count to the
// course requirement and returns the full report; callers warn on (or block)
// the students below target.
func (s *Session) ValidateCompletion() []models.StudentCompletion {
	report := make([]models.StudentCompletion, 0, len(s.Students))
	for _, student := range s.Students {
		count := s.ledger.SessionCount(student.ID)
		report = append(report, models.StudentCompletion{
			StudentID:    student.ID,
			StudentName:  student.FullName,
			SessionCount: count,
			Required:     s.Course.TotalSessions,
			Complete:     count >= s.Course.TotalSessions,
		})
	}
	return report
}

// Incomplete returns only the students below the course session target.
func (s *Session) Incomplete() []models.StudentCompletion {
	var below []models.StudentCompletion
	for _, c := range s.ValidateCompletion() {
		if !c.Complete {
			below = append(below, c)
		}
	}
	return below
}

// Halted reports whether the underlying engine refuses further mutation.
func (s *Session) Halted() bool {
	return s.engine.Halted()
}

func (s *Session) hasStudent(studentID string) bool {
	for _, student := range s.Students {
		if student.ID == studentID {
			return true
		}
	}
	return false
}
