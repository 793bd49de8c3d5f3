package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/novacademy/marketing-api/internal/models"
)

// ActionRepository owns persistence of marketing actions.
type ActionRepository struct {
	db *sqlx.DB
}

// NewActionRepository constructs the repository.
func NewActionRepository(db *sqlx.DB) *ActionRepository {
	return &ActionRepository{db: db}
}

const actionColumns = `id, action_type, target_student_id, target_group_id, evaluation_id, action_data, channels, status, results, metadata, created_at, updated_at`

// Insert persists a new marketing action. The caller assigns the ID.
func (r *ActionRepository) Insert(ctx context.Context, action *models.MarketingAction) error {
	const query = `
INSERT INTO marketing_actions
	(id, action_type, target_student_id, target_group_id, evaluation_id, action_data, channels, status, results, metadata, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	now := time.Now().UTC()
	if action.CreatedAt.IsZero() {
		action.CreatedAt = now
	}
	action.UpdatedAt = now

	if _, err := r.db.ExecContext(ctx, query,
		action.ID,
		action.ActionType,
		action.TargetStudentID,
		action.TargetGroupID,
		action.EvaluationID,
		action.ActionData,
		action.Channels,
		action.Status,
		action.Results,
		action.Metadata,
		action.CreatedAt,
		action.UpdatedAt,
	); err != nil {
		return fmt.Errorf("insert marketing action: %w", err)
	}
	return nil
}

// FindActiveByStudentAndType is the dedup lookup behind the uniqueness
// guard: at most one pending/in_progress action per student and type.
// Returns nil when no active action exists.
func (r *ActionRepository) FindActiveByStudentAndType(ctx context.Context, studentID string, actionType models.ActionType) (*models.MarketingAction, error) {
	query := fmt.Sprintf(`
SELECT %s FROM marketing_actions
WHERE target_student_id = $1
	AND action_type = $2
	AND status IN ('pending', 'in_progress')
ORDER BY created_at DESC
LIMIT 1`, actionColumns)

	var action models.MarketingAction
	if err := r.db.GetContext(ctx, &action, query, studentID, actionType); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("find active action: %w", err)
	}
	return &action, nil
}

// FindByID loads a single action. sql.ErrNoRows is passed through.
func (r *ActionRepository) FindByID(ctx context.Context, id string) (*models.MarketingAction, error) {
	query := fmt.Sprintf(`SELECT %s FROM marketing_actions WHERE id = $1`, actionColumns)

	var action models.MarketingAction
	if err := r.db.GetContext(ctx, &action, query, id); err != nil {
		return nil, err
	}
	return &action, nil
}

// List returns actions matching the filter plus the unpaginated total.
func (r *ActionRepository) List(ctx context.Context, filter models.ActionFilter) ([]models.MarketingAction, int, error) {
	where := strings.Builder{}
	where.WriteString(" WHERE 1=1")
	args := []interface{}{}

	if filter.ActionType != nil {
		args = append(args, *filter.ActionType)
		fmt.Fprintf(&where, " AND action_type = $%d", len(args))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		fmt.Fprintf(&where, " AND status = $%d", len(args))
	}
	if filter.StudentID != "" {
		args = append(args, filter.StudentID)
		fmt.Fprintf(&where, " AND target_student_id = $%d", len(args))
	}
	if filter.GroupID != "" {
		args = append(args, filter.GroupID)
		fmt.Fprintf(&where, " AND target_group_id = $%d", len(args))
	}
	if filter.BatchID != "" {
		args = append(args, filter.BatchID)
		fmt.Fprintf(&where, " AND metadata->>'batchId' = $%d", len(args))
	}

	var total int
	countQuery := "SELECT COUNT(*) FROM marketing_actions" + where.String()
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count marketing actions: %w", err)
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize < 1 {
		pageSize = 20
	}
	args = append(args, pageSize, (page-1)*pageSize)
	listQuery := fmt.Sprintf("SELECT %s FROM marketing_actions%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d",
		actionColumns, where.String(), len(args)-1, len(args))

	var actions []models.MarketingAction
	if err := r.db.SelectContext(ctx, &actions, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list marketing actions: %w", err)
	}
	return actions, total, nil
}

// UpdateStatus moves the action to the given status.
func (r *ActionRepository) UpdateStatus(ctx context.Context, id string, status models.ActionStatus) error {
	const query = `
UPDATE marketing_actions
SET status = $2, updated_at = $3
WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, id, status, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update action status: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// UpdateResults replaces the results payload in place.
func (r *ActionRepository) UpdateResults(ctx context.Context, id string, results models.ActionResults) error {
	const query = `
UPDATE marketing_actions
SET results = $2, updated_at = $3
WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, id, results, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update action results: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
