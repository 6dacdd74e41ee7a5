package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-booking-api/internal/models"
)

// ScheduleRepository persists confirmed schedules. A confirm replaces the
// course's stored bookings with the session's ledger in one transaction and
// writes back the slots' remaining quotas.
type ScheduleRepository struct {
	db *sqlx.DB
}

// NewScheduleRepository constructs a ScheduleRepository.
func NewScheduleRepository(db *sqlx.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

// ReplaceForCourse deletes the course's existing bookings, inserts the given
// ones, and updates the remaining quota on every touched slot.
func (r *ScheduleRepository) ReplaceForCourse(ctx context.Context, courseID string, bookings []models.Booking, slots []models.TimeSlot) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin confirm tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM bookings WHERE slot_id IN (SELECT id FROM time_slots WHERE course_id = $1)`, courseID); err != nil {
		return fmt.Errorf("clear bookings for course %s: %w", courseID, err)
	}

	now := time.Now().UTC()
	insert := `INSERT INTO bookings (id, student_id, slot_id, teacher_id, session_number, booked_at, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)`
	for _, b := range bookings {
		if _, err := tx.ExecContext(ctx, insert, b.ID, b.StudentID, b.SlotID, b.TeacherID, b.SessionNumber, b.BookedAt, now); err != nil {
			return fmt.Errorf("insert booking %s: %w", b.ID, err)
		}
	}

	update := `UPDATE time_slots SET remaining_quota = $2, updated_at = $3 WHERE id = $1`
	for _, s := range slots {
		if _, err := tx.ExecContext(ctx, update, s.ID, s.RemainingQuota, now); err != nil {
			return fmt.Errorf("update slot quota %s: %w", s.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit confirm tx: %w", err)
	}
	return nil
}

// CountForCourse returns how many bookings are stored for the course.
func (r *ScheduleRepository) CountForCourse(ctx context.Context, courseID string) (int, error) {
	var total int
	query := `SELECT COUNT(*) FROM bookings b JOIN time_slots s ON s.id = b.slot_id WHERE s.course_id = $1`
	if err := r.db.GetContext(ctx, &total, query, courseID); err != nil {
		return 0, fmt.Errorf("count bookings for course %s: %w", courseID, err)
	}
	return total, nil
}
