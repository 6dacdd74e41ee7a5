package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-booking-api/internal/models"
)

// StudentRepository manages persistence for student records.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// FindByIDs fetches the students with the given IDs ordered by full name.
// Missing IDs are simply absent from the result; callers decide whether that
// is an error.
func (r *StudentRepository) FindByIDs(ctx context.Context, ids []string) ([]models.Student, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(`SELECT id, full_name, phone, active, created_at, updated_at
        FROM students WHERE id IN (?) ORDER BY full_name ASC`, ids)
	if err != nil {
		return nil, fmt.Errorf("build student query: %w", err)
	}
	query = r.db.Rebind(query)

	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, fmt.Errorf("find students: %w", err)
	}
	return students, nil
}

// ListActive returns every active student ordered by full name.
func (r *StudentRepository) ListActive(ctx context.Context) ([]models.Student, error) {
	query := `SELECT id, full_name, phone, active, created_at, updated_at
        FROM students WHERE active = TRUE ORDER BY full_name ASC`
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query); err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	return students, nil
}
