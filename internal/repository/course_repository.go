package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/novacademy/marketing-api/internal/models"
)

// CourseRepository provides read-only access to the course catalog.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository constructs the repository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

const courseColumns = `id, title, description, level, price, active, created_at`

// FindByID loads a single course. sql.ErrNoRows is passed through.
func (r *CourseRepository) FindByID(ctx context.Context, id string) (*models.Course, error) {
	query := fmt.Sprintf(`SELECT %s FROM courses WHERE id = $1`, courseColumns)

	var course models.Course
	if err := r.db.GetContext(ctx, &course, query, id); err != nil {
		return nil, err
	}
	return &course, nil
}

// FindActiveByLevels returns active courses at any of the given levels.
func (r *CourseRepository) FindActiveByLevels(ctx context.Context, levels []models.CourseLevel, limit int) ([]models.Course, error) {
	query := fmt.Sprintf(`
SELECT %s FROM courses
WHERE active = TRUE AND level = ANY($1)
ORDER BY level, title
LIMIT $2`, courseColumns)

	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query, pq.Array(levelStrings(levels)), limit); err != nil {
		return nil, fmt.Errorf("find courses by level: %w", err)
	}
	return courses, nil
}

// FindActiveByKeywords returns active courses whose title or description
// matches any keyword. The catalog carries no tag column, so keyword
// matching against the text fields is the fallback.
func (r *CourseRepository) FindActiveByKeywords(ctx context.Context, keywords []string, limit int) ([]models.Course, error) {
	return r.findActive(ctx, nil, keywords, limit)
}

// FindActiveByLevelsOrKeywords returns active courses matching either a
// level or a keyword, used by support/review and retention policies.
func (r *CourseRepository) FindActiveByLevelsOrKeywords(ctx context.Context, levels []models.CourseLevel, keywords []string, limit int) ([]models.Course, error) {
	return r.findActive(ctx, levels, keywords, limit)
}

func (r *CourseRepository) findActive(ctx context.Context, levels []models.CourseLevel, keywords []string, limit int) ([]models.Course, error) {
	query := strings.Builder{}
	fmt.Fprintf(&query, `
SELECT %s FROM courses
WHERE active = TRUE`, courseColumns)

	args := []interface{}{}
	clauses := []string{}
	if len(levels) > 0 {
		args = append(args, pq.Array(levelStrings(levels)))
		clauses = append(clauses, fmt.Sprintf("level = ANY($%d)", len(args)))
	}
	for _, keyword := range keywords {
		args = append(args, "%"+keyword+"%")
		clauses = append(clauses, fmt.Sprintf("(title ILIKE $%d OR description ILIKE $%d)", len(args), len(args)))
	}
	if len(clauses) > 0 {
		fmt.Fprintf(&query, " AND (%s)", strings.Join(clauses, " OR "))
	}
	args = append(args, limit)
	fmt.Fprintf(&query, "\nORDER BY level, title\nLIMIT $%d", len(args))

	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query.String(), args...); err != nil {
		return nil, fmt.Errorf("find active courses: %w", err)
	}
	return courses, nil
}

func levelStrings(levels []models.CourseLevel) []string {
	out := make([]string, len(levels))
	for i, l := range levels {
		out[i] = string(l)
	}
	return out
}
