package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/novacademy/marketing-api/internal/dto"
	"github.com/novacademy/marketing-api/internal/models"
	appErrors "github.com/novacademy/marketing-api/pkg/errors"
)

type cacheRepoStub struct {
	entries map[string][]byte
	sets    int
}

func (s *cacheRepoStub) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := s.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (s *cacheRepoStub) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	s.entries[key] = raw
	s.sets++
	return nil
}

func (s *cacheRepoStub) DeleteByPattern(ctx context.Context, pattern string) error {
	s.entries = map[string][]byte{}
	return nil
}

func newStatsFixture(latest []models.StudentEvaluation) (*StatsService, *cacheRepoStub, *sessionReaderStub) {
	cacheRepo := &cacheRepoStub{entries: map[string][]byte{}}
	sessions := &sessionReaderStub{}
	cache := NewCacheService(cacheRepo, nil, time.Minute, zap.NewNop(), true)
	svc := NewStatsService(
		&evaluationReaderStub{latest: latest},
		studentReaderStub{students: map[string]*models.Student{
			"s-1": {ID: "s-1", FullName: "Amel"},
		}},
		NewAttendanceService(sessions, nil, zap.NewNop()),
		NewScoringService(),
		cache,
		zap.NewNop(),
	)
	return svc, cacheRepo, sessions
}

func TestRetentionOverviewBuildsEntries(t *testing.T) {
	svc, cacheRepo, sessions := newStatsFixture([]models.StudentEvaluation{
		{ID: "eval-1", StudentID: "s-1", GroupID: "group-1", CourseID: "c-1",
			OverallScore: 4.6, FinalDecision: models.DecisionPass, StudentCategory: models.CategoryStarStudent},
	})
	sessions.records = presentRecords(10)

	overview, err := svc.RetentionOverview(context.Background(), "group-1")
	require.NoError(t, err)
	require.Len(t, overview.Students, 1)

	entry := overview.Students[0]
	assert.Equal(t, "Amel", entry.StudentName)
	assert.Equal(t, models.CategoryStarStudent, entry.Category)
	assert.Equal(t, 100, entry.Attendance.AttendancePercentage)
	assert.Equal(t, 95, entry.ConversionScore)
	assert.Equal(t, models.RiskLow, entry.Risk.RiskLevel)
	assert.Equal(t, 1, cacheRepo.sets)
}

func TestRetentionOverviewServesFromCache(t *testing.T) {
	svc, cacheRepo, _ := newStatsFixture([]models.StudentEvaluation{
		{ID: "eval-1", StudentID: "s-1", GroupID: "group-1"},
	})

	cached := dto.GroupRetentionOverview{GroupID: "group-1", GeneratedAt: time.Now().UTC()}
	raw, _ := json.Marshal(cached)
	cacheRepo.entries["stats:retention:group:group-1"] = raw

	overview, err := svc.RetentionOverview(context.Background(), "group-1")
	require.NoError(t, err)
	assert.Equal(t, "group-1", overview.GroupID)
	// Cache hit skips the rebuild, so nothing new was stored.
	assert.Equal(t, 0, cacheRepo.sets)
}

func TestRetentionOverviewUnknownGroup(t *testing.T) {
	svc, _, _ := newStatsFixture(nil)

	_, err := svc.RetentionOverview(context.Background(), "group-x")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestRetentionOverviewRequiresGroupID(t *testing.T) {
	svc, _, _ := newStatsFixture(nil)

	_, err := svc.RetentionOverview(context.Background(), "")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
