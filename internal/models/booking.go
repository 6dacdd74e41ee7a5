package models

import "time"

// Booking is a confirmed assignment of one student to one slot with one
// teacher. SessionNumber is the 1-based ordinal among the student's bookings
// at the time it was made; it is display history and is not renumbered when
// earlier bookings are removed.
type Booking struct {
	ID            string    `db:"id" json:"id"`
	StudentID     string    `db:"student_id" json:"student_id"`
	SlotID        string    `db:"slot_id" json:"slot_id"`
	TeacherID     string    `db:"teacher_id" json:"teacher_id"`
	SessionNumber int       `db:"session_number" json:"session_number"`
	BookedAt      time.Time `db:"booked_at" json:"booked_at"`
}

// BookingOutcome classifies the result of a booking attempt for one student.
type BookingOutcome string

const (
	OutcomeBooked              BookingOutcome = "BOOKED"
	OutcomeAlreadyBooked       BookingOutcome = "ALREADY_BOOKED"
	OutcomeSessionLimitReached BookingOutcome = "SESSION_LIMIT_REACHED"
)

// StudentBookingResult reports the per-student outcome of a batch book call.
type StudentBookingResult struct {
	StudentID string         `json:"student_id"`
	Outcome   BookingOutcome `json:"outcome"`
	Booking   *Booking       `json:"booking,omitempty"`
}

// StudentCompletion compares a student's booked session count to the course
// requirement.
type StudentCompletion struct {
	StudentID    string `json:"student_id"`
	StudentName  string `json:"student_name"`
	SessionCount int    `json:"session_count"`
	Required     int    `json:"required"`
	Complete     bool   `json:"complete"`
}
