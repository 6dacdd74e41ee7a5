package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-booking-api/internal/models"
)

// SlotRepository loads the stored slot universe used to seed scheduling
// sessions.
type SlotRepository struct {
	db *sqlx.DB
}

// NewSlotRepository constructs a SlotRepository.
func NewSlotRepository(db *sqlx.DB) *SlotRepository {
	return &SlotRepository{db: db}
}

// ListByCourse returns the course's slots ordered by date and start time,
// each with its eligible teacher pool attached.
func (r *SlotRepository) ListByCourse(ctx context.Context, courseID string) ([]models.TimeSlot, error) {
	query := `SELECT id, course_id, slot_date, start_time, end_time, total_quota, remaining_quota, created_at
        FROM time_slots WHERE course_id = $1 ORDER BY slot_date ASC, start_time ASC`
	var slots []models.TimeSlot
	if err := r.db.SelectContext(ctx, &slots, query, courseID); err != nil {
		return nil, fmt.Errorf("list slots for course %s: %w", courseID, err)
	}
	if len(slots) == 0 {
		return slots, nil
	}

	ids := make([]string, 0, len(slots))
	for _, s := range slots {
		ids = append(ids, s.ID)
	}
	teacherQuery, args, err := sqlx.In(`SELECT slot_id, teacher_id, is_primary
        FROM slot_teachers WHERE slot_id IN (?) ORDER BY is_primary DESC, teacher_id ASC`, ids)
	if err != nil {
		return nil, fmt.Errorf("build slot teacher query: %w", err)
	}
	teacherQuery = r.db.Rebind(teacherQuery)

	var links []models.SlotTeacher
	if err := r.db.SelectContext(ctx, &links, teacherQuery, args...); err != nil {
		return nil, fmt.Errorf("list slot teachers: %w", err)
	}

	bySlot := make(map[string][]models.SlotTeacher, len(slots))
	for _, link := range links {
		bySlot[link.SlotID] = append(bySlot[link.SlotID], link)
	}
	for i := range slots {
		slots[i].EligibleTeachers = bySlot[slots[i].ID]
	}
	return slots, nil
}
