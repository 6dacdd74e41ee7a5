package scheduling

import (
	"fmt"

	"github.com/noah-isme/sma-booking-api/internal/models"
	appErrors "github.com/noah-isme/sma-booking-api/pkg/errors"
)

// BookingEngine is the only component allowed to mutate the slot pool and the
// booking ledger together, so their invariants never drift apart. All
// preconditions are validated before any mutation (lookahead-then-commit);
// the single rollback path is the move operation. When the engine detects an
// internal inconsistency it halts and refuses further mutation until the
// session is rebuilt.
type BookingEngine struct {
	pool   *SlotPool
	ledger *BookingLedger
	course models.Course
	halted bool
}

// NewBookingEngine wires the engine over a pool and a ledger for one course.
func NewBookingEngine(pool *SlotPool, ledger *BookingLedger, course models.Course) *BookingEngine {
	return &BookingEngine{pool: pool, ledger: ledger, course: course}
}

// Halted reports whether the engine refuses mutation after an invariant
// violation.
func (e *BookingEngine) Halted() bool {
	return e.halted
}

// Book assigns the slot to each student in the batch with the given teacher.
// Students already booked on the slot or at their session limit are skipped
// and reported individually; the batch is atomic with respect to quota:
// either the slot has room for every accepted student or nothing is applied.
func (e *BookingEngine) Book(slotID, teacherID string, studentIDs []string) ([]models.StudentBookingResult, error) {
	if e.halted {
		return nil, appErrors.Clone(appErrors.ErrInvariantViolation, "")
	}
	slot, err := e.pool.Get(slotID)
	if err != nil {
		return nil, err
	}
	if !slot.HasTeacher(teacherID) {
		return nil, appErrors.Clone(appErrors.ErrInvalidTeacher, "")
	}

	// Evaluate every student before touching any state.
	type verdict struct {
		studentID string
		outcome   models.BookingOutcome
	}
	verdicts := make([]verdict, 0, len(studentIDs))
	tentative := make(map[string]struct{}, len(studentIDs))
	accepted := 0
	for _, studentID := range studentIDs {
		_, dup := tentative[studentID]
		switch {
		case dup || e.ledger.Has(studentID, slotID):
			verdicts = append(verdicts, verdict{studentID, models.OutcomeAlreadyBooked})
		case e.ledger.HasReachedLimit(studentID, e.course.TotalSessions):
			verdicts = append(verdicts, verdict{studentID, models.OutcomeSessionLimitReached})
		default:
			verdicts = append(verdicts, verdict{studentID, models.OutcomeBooked})
			tentative[studentID] = struct{}{}
			accepted++
		}
	}

	if accepted > slot.RemainingQuota {
		msg := fmt.Sprintf("slot has %d remaining but %d students need booking", slot.RemainingQuota, accepted)
		return nil, appErrors.Clone(appErrors.ErrInsufficientQuota, msg)
	}

	if accepted > 0 {
		if _, err := e.pool.AdjustQuota(slotID, -accepted); err != nil {
			e.halted = true
			return nil, appErrors.Wrap(err, appErrors.ErrInvariantViolation.Code, appErrors.ErrInvariantViolation.Status, "quota adjustment failed after precheck")
		}
	}

	results := make([]models.StudentBookingResult, 0, len(verdicts))
	for _, v := range verdicts {
		result := models.StudentBookingResult{StudentID: v.studentID, Outcome: v.outcome}
		if v.outcome == models.OutcomeBooked {
			booking, addErr := e.ledger.Add(models.Booking{
				StudentID: v.studentID,
				SlotID:    slotID,
				TeacherID: teacherID,
			})
			if addErr != nil {
				e.halted = true
				return nil, appErrors.Wrap(addErr, appErrors.ErrInvariantViolation.Code, appErrors.ErrInvariantViolation.Status, "ledger append failed after precheck")
			}
			result.Booking = &booking
		}
		results = append(results, result)
	}
	return results, nil
}

// Unbook removes the student's booking on the slot and releases one unit of
// quota.
func (e *BookingEngine) Unbook(studentID, slotID string) (models.Booking, error) {
	if e.halted {
		return models.Booking{}, appErrors.Clone(appErrors.ErrInvariantViolation, "")
	}
	removed, err := e.ledger.Remove(studentID, slotID)
	if err != nil {
		return models.Booking{}, err
	}
	if _, err := e.pool.AdjustQuota(slotID, +1); err != nil {
		// Unreachable when quota was decremented exactly once per booking;
		// reaching it means ledger and pool have drifted.
		e.halted = true
		return models.Booking{}, appErrors.Wrap(err, appErrors.ErrInvariantViolation.Code, appErrors.ErrInvariantViolation.Status, "quota release failed after ledger removal")
	}
	return removed, nil
}

// Move reschedules a single student's booking from one slot to another,
// exposed as one operation so the caller gets a combined result and the
// original booking is restored when the destination rejects the student.
func (e *BookingEngine) Move(studentID, fromSlotID, toSlotID, teacherID string) (models.StudentBookingResult, error) {
	if e.halted {
		return models.StudentBookingResult{}, appErrors.Clone(appErrors.ErrInvariantViolation, "")
	}
	if fromSlotID == toSlotID {
		return models.StudentBookingResult{}, appErrors.Clone(appErrors.ErrValidation, "cannot move a booking onto its own slot")
	}

	original, err := e.Unbook(studentID, fromSlotID)
	if err != nil {
		return models.StudentBookingResult{}, err
	}

	results, err := e.Book(toSlotID, teacherID, []string{studentID})
	if err != nil {
		e.rollbackMove(original)
		return models.StudentBookingResult{}, err
	}

	result := results[0]
	if result.Outcome != models.OutcomeBooked {
		e.rollbackMove(original)
	}
	return result, nil
}

// rollbackMove restores a booking removed by the first half of Move. The
// source slot freed exactly one unit, so re-taking it cannot fail unless the
// pool has drifted.
func (e *BookingEngine) rollbackMove(original models.Booking) {
	if _, err := e.pool.AdjustQuota(original.SlotID, -1); err != nil {
		e.halted = true
		return
	}
	e.ledger.restore(original)
}

// CheckInvariants verifies that every slot's remaining quota matches its
// total minus the ledger's active bookings, halting the engine on drift.
func (e *BookingEngine) CheckInvariants() error {
	for _, slot := range e.pool.List(models.SlotFilter{}) {
		used := e.ledger.CountForSlot(slot.ID)
		if slot.RemainingQuota+used != slot.TotalQuota {
			e.halted = true
			msg := fmt.Sprintf("slot %s: remaining %d + booked %d != total %d", slot.ID, slot.RemainingQuota, used, slot.TotalQuota)
			return appErrors.Clone(appErrors.ErrInvariantViolation, msg)
		}
	}
	return nil
}
