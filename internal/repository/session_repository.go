package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/novacademy/marketing-api/internal/models"
)

// SessionRepository provides read-only access to group sessions joined with
// per-student attendance entries.
type SessionRepository struct {
	db *sqlx.DB
}

// NewSessionRepository constructs the repository.
func NewSessionRepository(db *sqlx.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// ListStudentSessions returns all non-cancelled sessions of the group with
// the attendance entry of the given student, newest first.
func (r *SessionRepository) ListStudentSessions(ctx context.Context, groupID, studentID string) ([]models.StudentSessionRecord, error) {
	const query = `
SELECT
	s.id AS session_id,
	s.group_id AS group_id,
	s.session_date AS session_date,
	s.status AS session_status,
	a.status AS attendance_status
FROM group_sessions s
LEFT JOIN session_attendance a
	ON a.session_id = s.id
	AND a.student_id = $2
WHERE s.group_id = $1
	AND s.status <> 'cancelled'
ORDER BY s.session_date DESC`

	var records []models.StudentSessionRecord
	if err := r.db.SelectContext(ctx, &records, query, groupID, studentID); err != nil {
		return nil, fmt.Errorf("list student sessions: %w", err)
	}
	return records, nil
}
