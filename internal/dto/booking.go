package dto

import (
	"time"

	"github.com/noah-isme/sma-booking-api/internal/models"
	"github.com/noah-isme/sma-booking-api/internal/scheduling"
)

// GenerateSlotsSpec asks the service to generate the slot universe in memory
// instead of loading stored slots: one slot per listed day and hour across
// the requested number of weeks.
type GenerateSlotsSpec struct {
	WeekStart   time.Time `json:"weekStart" validate:"required"`
	Weeks       int       `json:"weeks" validate:"required,min=1,max=12"`
	Days        []int     `json:"days" validate:"required,min=1,dive,min=1,max=7"`
	StartHour   int       `json:"startHour" validate:"required,min=0,max=23"`
	HoursPerDay int       `json:"hoursPerDay" validate:"required,min=1,max=12"`
	TeacherIDs  []string  `json:"teacherIds" validate:"omitempty,min=1"`
}

// CreateSessionRequest seeds a scheduling session for a course.
type CreateSessionRequest struct {
	CourseID   string             `json:"courseId" validate:"required"`
	StudentIDs []string           `json:"studentIds" validate:"required,min=1"`
	Generate   *GenerateSlotsSpec `json:"generate,omitempty" validate:"omitempty"`
}

// BookRequest books one slot for a set of students with a teacher.
type BookRequest struct {
	SlotID     string   `json:"slotId" validate:"required"`
	TeacherID  string   `json:"teacherId" validate:"required"`
	StudentIDs []string `json:"studentIds" validate:"required,min=1"`
}

// MoveBookingRequest reschedules one student's booking between slots.
type MoveBookingRequest struct {
	StudentID  string `json:"studentId" validate:"required"`
	FromSlotID string `json:"fromSlotId" validate:"required"`
	ToSlotID   string `json:"toSlotId" validate:"required"`
	TeacherID  string `json:"teacherId" validate:"required"`
}

// SelectStudentRequest switches the session's active student.
type SelectStudentRequest struct {
	StudentID string `json:"studentId" validate:"required"`
}

// ViewWindowRequest moves the session's calendar window.
type ViewWindowRequest struct {
	WeekStart *time.Time `json:"weekStart,omitempty"`
	Day       *time.Time `json:"day,omitempty"`
}

// BulkToggleRequest toggles a student in the bulk-select set.
type BulkToggleRequest struct {
	StudentID string `json:"studentId" validate:"required"`
}

// BeginSelectionRequest starts an unconfirmed time selection on a slot.
type BeginSelectionRequest struct {
	SlotID string `json:"slotId" validate:"required"`
}

// ChooseTimeRequest records a candidate start time on the pending selection.
type ChooseTimeRequest struct {
	SlotID string `json:"slotId" validate:"required"`
	Time   string `json:"time" validate:"required"`
}

// ConfirmPlacementRequest drops the selected slot onto a day lane.
type ConfirmPlacementRequest struct {
	SlotID  string    `json:"slotId" validate:"required"`
	DayLane time.Time `json:"dayLane" validate:"required"`
}

// BookResponse carries per-student outcomes for a batch booking call.
type BookResponse struct {
	Results []models.StudentBookingResult `json:"results"`
}

// SessionState is the snapshot handed to the rendering layer after every
// mutating call.
type SessionState struct {
	SessionID     string                     `json:"session_id"`
	Course        models.Course              `json:"course"`
	Students      []models.Student           `json:"students"`
	ActiveStudent string                     `json:"active_student"`
	BulkSelection []string                   `json:"bulk_selection"`
	WeekStart     *time.Time                 `json:"week_start,omitempty"`
	Day           *time.Time                 `json:"day,omitempty"`
	Selection     *scheduling.SlotSelection  `json:"selection,omitempty"`
	Slots         []models.TimeSlot          `json:"slots"`
	Bookings      []models.Booking           `json:"bookings"`
	Completion    []models.StudentCompletion `json:"completion"`
	CreatedAt     time.Time                  `json:"created_at"`
}

// CompletionResponse reports students below the course session target.
type CompletionResponse struct {
	Complete bool                       `json:"complete"`
	Below    []models.StudentCompletion `json:"below_target"`
	Report   []models.StudentCompletion `json:"report"`
}

// ConfirmScheduleResponse acknowledges an enqueued persistence job.
type ConfirmScheduleResponse struct {
	JobID    string                     `json:"job_id"`
	Bookings int                        `json:"bookings"`
	Warnings []models.StudentCompletion `json:"warnings,omitempty"`
}
