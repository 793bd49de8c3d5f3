package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/novacademy/marketing-api/internal/models"
)

type sessionReaderStub struct {
	records []models.StudentSessionRecord
	err     error
}

func (s sessionReaderStub) ListStudentSessions(ctx context.Context, groupID, studentID string) ([]models.StudentSessionRecord, error) {
	return s.records, s.err
}

func attendanceOf(status models.AttendanceStatus) *models.AttendanceStatus {
	return &status
}

func sessionRecord(daysAgo int, status models.SessionStatus, attendance *models.AttendanceStatus, now time.Time) models.StudentSessionRecord {
	return models.StudentSessionRecord{
		SessionID:  "session",
		GroupID:    "group-1",
		Date:       now.AddDate(0, 0, -daysAgo),
		Status:     status,
		Attendance: attendance,
	}
}

func TestBuildSnapshotCountsOnlyCompletedSessions(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	records := []models.StudentSessionRecord{
		sessionRecord(1, models.SessionCompleted, attendanceOf(models.AttendancePresent), now),
		sessionRecord(3, models.SessionCancelled, nil, now),
		sessionRecord(5, models.SessionScheduled, nil, now),
		sessionRecord(7, models.SessionCompleted, attendanceOf(models.AttendanceAbsent), now),
	}

	snapshot := BuildSnapshot(records, now)
	assert.Equal(t, 2, snapshot.CompletedSessionCount)
	assert.Equal(t, 1, snapshot.PresentCount)
	assert.Equal(t, 50, snapshot.AttendancePercentage)
}

func TestBuildSnapshotLateIsNotPresent(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	records := []models.StudentSessionRecord{
		sessionRecord(1, models.SessionCompleted, attendanceOf(models.AttendanceLate), now),
		sessionRecord(3, models.SessionCompleted, attendanceOf(models.AttendancePresent), now),
	}

	snapshot := BuildSnapshot(records, now)
	assert.Equal(t, 1, snapshot.PresentCount)
	assert.Equal(t, 50, snapshot.AttendancePercentage)
}

func TestBuildSnapshotZeroCompletedSessions(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	records := []models.StudentSessionRecord{
		sessionRecord(1, models.SessionScheduled, nil, now),
	}

	snapshot := BuildSnapshot(records, now)
	assert.Equal(t, 0, snapshot.CompletedSessionCount)
	assert.Equal(t, 0, snapshot.AttendancePercentage)
}

func TestBuildSnapshotConsecutiveAbsencesNewestFirst(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	records := []models.StudentSessionRecord{
		sessionRecord(1, models.SessionCompleted, attendanceOf(models.AttendanceAbsent), now),
		sessionRecord(3, models.SessionCompleted, nil, now),
		sessionRecord(5, models.SessionCompleted, attendanceOf(models.AttendancePresent), now),
		sessionRecord(7, models.SessionCompleted, attendanceOf(models.AttendanceAbsent), now),
	}

	snapshot := BuildSnapshot(records, now)
	assert.Equal(t, 2, snapshot.ConsecutiveAbsences)
}

func TestBuildSnapshotPercentageRounds(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	records := []models.StudentSessionRecord{
		sessionRecord(1, models.SessionCompleted, attendanceOf(models.AttendancePresent), now),
		sessionRecord(3, models.SessionCompleted, attendanceOf(models.AttendancePresent), now),
		sessionRecord(5, models.SessionCompleted, attendanceOf(models.AttendanceAbsent), now),
	}

	// 2 of 3 is 66.67, rounds to 67.
	snapshot := BuildSnapshot(records, now)
	assert.Equal(t, 67, snapshot.AttendancePercentage)
}

func TestBuildSnapshotDaysSinceLastSession(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	records := []models.StudentSessionRecord{
		sessionRecord(-2, models.SessionScheduled, nil, now),
		sessionRecord(4, models.SessionCompleted, attendanceOf(models.AttendancePresent), now),
	}

	snapshot := BuildSnapshot(records, now)
	require.NotNil(t, snapshot.DaysSinceLastSession)
	assert.Equal(t, 4, *snapshot.DaysSinceLastSession)
}

func TestSnapshotDegradesToZeroOnLookupFailure(t *testing.T) {
	svc := NewAttendanceService(sessionReaderStub{err: errors.New("connection reset")}, nil, zap.NewNop())

	snapshot := svc.Snapshot(context.Background(), "student-1", "group-1")
	assert.Equal(t, models.AttendanceSnapshot{}, snapshot)
}
