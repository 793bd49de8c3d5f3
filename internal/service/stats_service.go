package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/novacademy/marketing-api/internal/dto"
	appErrors "github.com/novacademy/marketing-api/pkg/errors"
)

const retentionCacheKeyPrefix = "stats:retention:group:"

// StatsService builds read-only marketing views over evaluations and
// attendance. Results are cached per group.
type StatsService struct {
	evaluations evaluationReader
	students    studentReader
	attendance  *AttendanceService
	scoring     *ScoringService
	cache       *CacheService
	logger      *zap.Logger
}

// NewStatsService constructs the stats service.
func NewStatsService(
	evaluations evaluationReader,
	students studentReader,
	attendance *AttendanceService,
	scoring *ScoringService,
	cache *CacheService,
	logger *zap.Logger,
) *StatsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatsService{
		evaluations: evaluations,
		students:    students,
		attendance:  attendance,
		scoring:     scoring,
		cache:       cache,
		logger:      logger,
	}
}

// RetentionOverview returns per-student retention indicators for a group,
// computed from each student's latest evaluation. Students whose record
// cannot be loaded are logged and left out rather than failing the view.
func (s *StatsService) RetentionOverview(ctx context.Context, groupID string) (*dto.GroupRetentionOverview, error) {
	if groupID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "groupId is required")
	}

	cacheKey := retentionCacheKeyPrefix + groupID
	cached := &dto.GroupRetentionOverview{}
	if hit, _ := s.cache.Get(ctx, cacheKey, cached); hit {
		return cached, nil
	}

	evals, err := s.evaluations.FindLatestByGroup(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to load group evaluations: %w", err)
	}
	if len(evals) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "no evaluations found for group")
	}

	overview := &dto.GroupRetentionOverview{
		GroupID:     groupID,
		GeneratedAt: time.Now().UTC(),
		Students:    make([]dto.StudentRetentionEntry, 0, len(evals)),
	}
	for i := range evals {
		eval := &evals[i]
		name := eval.StudentID
		if student, err := s.students.FindByID(ctx, eval.StudentID); err == nil && student != nil {
			name = student.FullName
		} else if err != nil {
			s.logger.Warn("student lookup failed for retention view",
				zap.String("student_id", eval.StudentID), zap.Error(err))
		}

		snapshot := s.attendance.Snapshot(ctx, eval.StudentID, groupID)
		overview.Students = append(overview.Students, dto.StudentRetentionEntry{
			StudentID:       eval.StudentID,
			StudentName:     name,
			Category:        eval.StudentCategory,
			OverallScore:    eval.OverallScore,
			ConversionScore: s.scoring.ConversionScore(eval, snapshot.AttendancePercentage),
			Attendance:      snapshot,
			Risk:            s.scoring.AssessRisk(eval, snapshot),
			WeakPoints:      eval.WeakPoints,
			Strengths:       eval.Strengths,
		})
	}

	if err := s.cache.Set(ctx, cacheKey, overview, 0); err != nil {
		s.logger.Warn("retention view cache write failed", zap.String("group_id", groupID), zap.Error(err))
	}
	return overview, nil
}

// InvalidateGroup drops the cached retention view for one group.
func (s *StatsService) InvalidateGroup(ctx context.Context, groupID string) error {
	return s.cache.Invalidate(ctx, retentionCacheKeyPrefix+groupID)
}
