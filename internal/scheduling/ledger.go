package scheduling

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/sma-booking-api/internal/models"
	appErrors "github.com/noah-isme/sma-booking-api/pkg/errors"
)

type bookingKey struct {
	StudentID string
	SlotID    string
}

// BookingLedger is the record of confirmed bookings, indexed by student.
// Session numbers are assigned when a booking is added (pre-add count + 1)
// and are deliberately NOT renumbered when an earlier booking is removed:
// a booking's ordinal is display history, not live state.
type BookingLedger struct {
	byStudent map[string][]models.Booking
	index     map[bookingKey]struct{}
}

// NewBookingLedger returns an empty ledger.
func NewBookingLedger() *BookingLedger {
	return &BookingLedger{
		byStudent: make(map[string][]models.Booking),
		index:     make(map[bookingKey]struct{}),
	}
}

// BookingsFor returns the student's bookings ordered by session number.
func (l *BookingLedger) BookingsFor(studentID string) []models.Booking {
	bookings := l.byStudent[studentID]
	result := make([]models.Booking, len(bookings))
	copy(result, bookings)
	return result
}

// SessionCount returns how many bookings the student currently holds.
func (l *BookingLedger) SessionCount(studentID string) int {
	return len(l.byStudent[studentID])
}

// HasReachedLimit reports whether the student holds at least totalSessions
// bookings.
func (l *BookingLedger) HasReachedLimit(studentID string, totalSessions int) bool {
	return l.SessionCount(studentID) >= totalSessions
}

// Has reports whether the (student, slot) pair is already booked.
func (l *BookingLedger) Has(studentID, slotID string) bool {
	_, ok := l.index[bookingKey{StudentID: studentID, SlotID: slotID}]
	return ok
}

// CountForSlot returns how many active bookings reference the slot.
func (l *BookingLedger) CountForSlot(slotID string) int {
	count := 0
	for key := range l.index {
		if key.SlotID == slotID {
			count++
		}
	}
	return count
}

// All returns every booking in the ledger, grouped by student and ordered by
// session number within each group.
func (l *BookingLedger) All() []models.Booking {
	students := make([]string, 0, len(l.byStudent))
	for id := range l.byStudent {
		students = append(students, id)
	}
	sort.Strings(students)

	var result []models.Booking
	for _, id := range students {
		result = append(result, l.byStudent[id]...)
	}
	return result
}

// Add appends a booking for the student, assigning its session number and,
// when missing, an id and timestamp.
func (l *BookingLedger) Add(booking models.Booking) (models.Booking, error) {
	key := bookingKey{StudentID: booking.StudentID, SlotID: booking.SlotID}
	if _, exists := l.index[key]; exists {
		return models.Booking{}, appErrors.Clone(appErrors.ErrDuplicateBooking, "")
	}
	if booking.ID == "" {
		booking.ID = uuid.NewString()
	}
	if booking.BookedAt.IsZero() {
		booking.BookedAt = time.Now().UTC()
	}
	booking.SessionNumber = l.SessionCount(booking.StudentID) + 1

	l.byStudent[booking.StudentID] = append(l.byStudent[booking.StudentID], booking)
	l.index[key] = struct{}{}
	return booking, nil
}

// Remove deletes the booking for the (student, slot) pair and returns it.
// Remaining bookings keep their original session numbers.
func (l *BookingLedger) Remove(studentID, slotID string) (models.Booking, error) {
	key := bookingKey{StudentID: studentID, SlotID: slotID}
	if _, exists := l.index[key]; !exists {
		return models.Booking{}, appErrors.Clone(appErrors.ErrNotFound, "booking not found")
	}

	bookings := l.byStudent[studentID]
	var removed models.Booking
	for i, b := range bookings {
		if b.SlotID == slotID {
			removed = b
			l.byStudent[studentID] = append(bookings[:i], bookings[i+1:]...)
			break
		}
	}
	delete(l.index, key)
	return removed, nil
}

// restore re-inserts a previously removed booking preserving its original
// session number. Used by the engine's move rollback path.
func (l *BookingLedger) restore(booking models.Booking) {
	key := bookingKey{StudentID: booking.StudentID, SlotID: booking.SlotID}
	if _, exists := l.index[key]; exists {
		return
	}
	bookings := append(l.byStudent[booking.StudentID], booking)
	sort.SliceStable(bookings, func(i, j int) bool {
		return bookings[i].SessionNumber < bookings[j].SessionNumber
	})
	l.byStudent[booking.StudentID] = bookings
	l.index[key] = struct{}{}
}
