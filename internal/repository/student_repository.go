package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/novacademy/marketing-api/internal/models"
)

// StudentRepository provides read-only access to the student roster.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs the repository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// FindByID loads a single student. sql.ErrNoRows is passed through so
// callers can decide between not-found and skip semantics.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.Student, error) {
	const query = `
SELECT id, full_name, phone, guardian_phone, active, created_at
FROM students
WHERE id = $1`

	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		return nil, err
	}
	return &student, nil
}

// FindNameByID returns only the display name, used for skip reporting.
func (r *StudentRepository) FindNameByID(ctx context.Context, id string) (string, error) {
	const query = `SELECT full_name FROM students WHERE id = $1`

	var name string
	if err := r.db.GetContext(ctx, &name, query, id); err != nil {
		return "", fmt.Errorf("find student name: %w", err)
	}
	return name, nil
}
