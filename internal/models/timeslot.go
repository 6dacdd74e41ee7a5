package models

import "time"

// SlotTeacher links a teacher to a time slot it can serve.
type SlotTeacher struct {
	SlotID    string `db:"slot_id" json:"-"`
	TeacherID string `db:"teacher_id" json:"teacher_id"`
	IsPrimary bool   `db:"is_primary" json:"is_primary"`
}

// TimeSlot is a bookable time window on a specific date with a teacher pool
// and a remaining capacity.
type TimeSlot struct {
	ID               string        `db:"id" json:"id"`
	CourseID         string        `db:"course_id" json:"course_id"`
	Date             time.Time     `db:"slot_date" json:"date"`
	StartTime        string        `db:"start_time" json:"start_time"`
	EndTime          string        `db:"end_time" json:"end_time"`
	TotalQuota       int           `db:"total_quota" json:"total_quota"`
	RemainingQuota   int           `db:"remaining_quota" json:"remaining_quota"`
	EligibleTeachers []SlotTeacher `db:"-" json:"eligible_teachers"`
	CreatedAt        time.Time     `db:"created_at" json:"created_at"`
}

// HasTeacher reports whether the given teacher belongs to the slot's pool.
func (s *TimeSlot) HasTeacher(teacherID string) bool {
	for _, t := range s.EligibleTeachers {
		if t.TeacherID == teacherID {
			return true
		}
	}
	return false
}

// PrimaryTeacher returns the first teacher flagged as primary, if any.
func (s *TimeSlot) PrimaryTeacher() (SlotTeacher, bool) {
	for _, t := range s.EligibleTeachers {
		if t.IsPrimary {
			return t, true
		}
	}
	return SlotTeacher{}, false
}

// SlotFilter narrows slot listings.
type SlotFilter struct {
	From          *time.Time
	To            *time.Time
	WeekStart     *time.Time
	OnlyAvailable bool
	MinQuota      int
}
