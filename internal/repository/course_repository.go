package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-booking-api/internal/models"
)

// CourseRepository manages persistence for bookable courses.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository constructs a CourseRepository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

// FindByID fetches a course by ID.
func (r *CourseRepository) FindByID(ctx context.Context, id string) (*models.Course, error) {
	query := `SELECT id, name, total_sessions, session_minutes, default_quota, active, created_at, updated_at
        FROM courses WHERE id = $1`
	var course models.Course
	if err := r.db.GetContext(ctx, &course, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find course %s: %w", id, err)
	}
	return &course, nil
}

// ListActive returns every active course ordered by name.
func (r *CourseRepository) ListActive(ctx context.Context) ([]models.Course, error) {
	query := `SELECT id, name, total_sessions, session_minutes, default_quota, active, created_at, updated_at
        FROM courses WHERE active = TRUE ORDER BY name ASC`
	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query); err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	return courses, nil
}
