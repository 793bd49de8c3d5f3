package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/novacademy/marketing-api/internal/models"
)

// EvaluationRepository provides read-only access to student evaluations.
type EvaluationRepository struct {
	db *sqlx.DB
}

// NewEvaluationRepository constructs the repository.
func NewEvaluationRepository(db *sqlx.DB) *EvaluationRepository {
	return &EvaluationRepository{db: db}
}

const evaluationColumns = `id, student_id, group_id, course_id, overall_score, final_decision, student_category, weak_points, strengths, created_at`

// FindByID loads a single evaluation. sql.ErrNoRows is passed through.
func (r *EvaluationRepository) FindByID(ctx context.Context, id string) (*models.StudentEvaluation, error) {
	query := fmt.Sprintf(`SELECT %s FROM student_evaluations WHERE id = $1`, evaluationColumns)

	var eval models.StudentEvaluation
	if err := r.db.GetContext(ctx, &eval, query, id); err != nil {
		return nil, err
	}
	return &eval, nil
}

// FindLatestByGroup returns the most recent evaluation per student in the group.
func (r *EvaluationRepository) FindLatestByGroup(ctx context.Context, groupID string) ([]models.StudentEvaluation, error) {
	query := fmt.Sprintf(`
SELECT DISTINCT ON (student_id) %s
FROM student_evaluations
WHERE group_id = $1
ORDER BY student_id, created_at DESC`, evaluationColumns)

	var evals []models.StudentEvaluation
	if err := r.db.SelectContext(ctx, &evals, query, groupID); err != nil {
		return nil, fmt.Errorf("find latest evaluations by group: %w", err)
	}
	return evals, nil
}

// EligibilityFilter narrows campaign candidate evaluations. GroupIDs and
// StudentIDs are alternative audience selectors; Decisions and Categories
// constrain eligibility.
type EligibilityFilter struct {
	GroupIDs   []string
	StudentIDs []string
	Decisions  []models.FinalDecision
	Categories []models.StudentCategory
	Limit      int
}

// FindEligible returns the latest evaluation per student matching the filter.
func (r *EvaluationRepository) FindEligible(ctx context.Context, filter EligibilityFilter) ([]models.StudentEvaluation, error) {
	query := strings.Builder{}
	fmt.Fprintf(&query, `
SELECT DISTINCT ON (student_id) %s
FROM student_evaluations
WHERE 1=1`, evaluationColumns)

	args := []interface{}{}
	if len(filter.GroupIDs) > 0 {
		args = append(args, pq.Array(filter.GroupIDs))
		fmt.Fprintf(&query, " AND group_id = ANY($%d)", len(args))
	}
	if len(filter.StudentIDs) > 0 {
		args = append(args, pq.Array(filter.StudentIDs))
		fmt.Fprintf(&query, " AND student_id = ANY($%d)", len(args))
	}
	if len(filter.Decisions) > 0 {
		args = append(args, pq.Array(decisionStrings(filter.Decisions)))
		fmt.Fprintf(&query, " AND final_decision = ANY($%d)", len(args))
	}
	if len(filter.Categories) > 0 {
		args = append(args, pq.Array(categoryStrings(filter.Categories)))
		fmt.Fprintf(&query, " AND student_category = ANY($%d)", len(args))
	}
	query.WriteString("\nORDER BY student_id, created_at DESC")
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		fmt.Fprintf(&query, " LIMIT $%d", len(args))
	}

	var evals []models.StudentEvaluation
	if err := r.db.SelectContext(ctx, &evals, query.String(), args...); err != nil {
		return nil, fmt.Errorf("find eligible evaluations: %w", err)
	}
	return evals, nil
}

func decisionStrings(decisions []models.FinalDecision) []string {
	out := make([]string, len(decisions))
	for i, d := range decisions {
		out[i] = string(d)
	}
	return out
}

func categoryStrings(categories []models.StudentCategory) []string {
	out := make([]string, len(categories))
	for i, c := range categories {
		out[i] = string(c)
	}
	return out
}
