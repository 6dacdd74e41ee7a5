package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-booking-api/internal/models"
)

// TeacherRepository manages persistence for teacher records.
type TeacherRepository struct {
	db *sqlx.DB
}

// NewTeacherRepository constructs a TeacherRepository.
func NewTeacherRepository(db *sqlx.DB) *TeacherRepository {
	return &TeacherRepository{db: db}
}

// ListActive returns every active teacher ordered by full name.
func (r *TeacherRepository) ListActive(ctx context.Context) ([]models.Teacher, error) {
	query := `SELECT id, full_name, email, expertise, active, created_at, updated_at
        FROM teachers WHERE active = TRUE ORDER BY full_name ASC`
	var teachers []models.Teacher
	if err := r.db.SelectContext(ctx, &teachers, query); err != nil {
		return nil, fmt.Errorf("list teachers: %w", err)
	}
	return teachers, nil
}

// FindByIDs fetches the teachers with the given IDs.
func (r *TeacherRepository) FindByIDs(ctx context.Context, ids []string) ([]models.Teacher, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(`SELECT id, full_name, email, expertise, active, created_at, updated_at
        FROM teachers WHERE id IN (?) ORDER BY full_name ASC`, ids)
	if err != nil {
		return nil, fmt.Errorf("build teacher query: %w", err)
	}
	query = r.db.Rebind(query)

	var teachers []models.Teacher
	if err := r.db.SelectContext(ctx, &teachers, query, args...); err != nil {
		return nil, fmt.Errorf("find teachers: %w", err)
	}
	return teachers, nil
}
