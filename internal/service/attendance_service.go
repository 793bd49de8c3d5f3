package service

import (
	"context"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/novacademy/marketing-api/internal/models"
)

type sessionReader interface {
	ListStudentSessions(ctx context.Context, groupID, studentID string) ([]models.StudentSessionRecord, error)
}

// AttendanceService derives per-student attendance metrics from raw session
// data. Attendance is a soft signal: lookup failures degrade to a
// zero-valued snapshot instead of propagating.
type AttendanceService struct {
	sessions sessionReader
	metrics  *MetricsService
	logger   *zap.Logger
	now      func() time.Time
}

// NewAttendanceService constructs an attendance service.
func NewAttendanceService(sessions sessionReader, metrics *MetricsService, logger *zap.Logger) *AttendanceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AttendanceService{sessions: sessions, metrics: metrics, logger: logger, now: time.Now}
}

// Snapshot computes the attendance snapshot for one student in one group.
func (s *AttendanceService) Snapshot(ctx context.Context, studentID, groupID string) models.AttendanceSnapshot {
	start := time.Now()
	records, err := s.sessions.ListStudentSessions(ctx, groupID, studentID)
	s.metrics.ObserveDBQuery("student_sessions", time.Since(start))
	if err != nil {
		s.logger.Warn("attendance lookup failed, using zero snapshot",
			zap.String("student_id", studentID),
			zap.String("group_id", groupID),
			zap.Error(err))
		return models.AttendanceSnapshot{}
	}
	return BuildSnapshot(records, s.now())
}

// BuildSnapshot computes metrics from session records sorted newest first.
// The percentage is round(100 * present / completed) and 0 when no session
// has completed, which is an expected state for new groups, not an error.
func BuildSnapshot(records []models.StudentSessionRecord, now time.Time) models.AttendanceSnapshot {
	snapshot := models.AttendanceSnapshot{}

	streakBroken := false
	for _, record := range records {
		if record.Status != models.SessionCompleted {
			continue
		}
		snapshot.CompletedSessionCount++

		present := record.Attendance != nil && *record.Attendance == models.AttendancePresent
		if present {
			snapshot.PresentCount++
			streakBroken = true
		} else if !streakBroken {
			// Records arrive newest first, so this counts the current
			// run of absences.
			snapshot.ConsecutiveAbsences++
		}
	}

	if snapshot.CompletedSessionCount > 0 {
		snapshot.AttendancePercentage = int(math.Round(
			100 * float64(snapshot.PresentCount) / float64(snapshot.CompletedSessionCount)))
	}

	for _, record := range records {
		if record.Date.After(now) {
			continue
		}
		days := int(now.Sub(record.Date).Hours() / 24)
		snapshot.DaysSinceLastSession = &days
		break
	}

	return snapshot
}
