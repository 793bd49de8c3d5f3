package models

import "time"

// SessionStatus represents the lifecycle of a group session.
type SessionStatus string

const (
	SessionScheduled SessionStatus = "scheduled"
	SessionCompleted SessionStatus = "completed"
	SessionCancelled SessionStatus = "cancelled"
)

// AttendanceStatus represents a student's presence in one session.
type AttendanceStatus string

const (
	AttendancePresent AttendanceStatus = "present"
	AttendanceAbsent  AttendanceStatus = "absent"
	AttendanceLate    AttendanceStatus = "late"
	AttendanceExcused AttendanceStatus = "excused"
)

// StudentSessionRecord is one group session joined with the attendance
// entry of a single student. The attendance status is nil when no entry
// was recorded for that student.
type StudentSessionRecord struct {
	SessionID  string            `db:"session_id" json:"sessionId"`
	GroupID    string            `db:"group_id" json:"groupId"`
	Date       time.Time         `db:"session_date" json:"date"`
	Status     SessionStatus     `db:"session_status" json:"status"`
	Attendance *AttendanceStatus `db:"attendance_status" json:"attendance,omitempty"`
}

// AttendanceSnapshot holds per-student attendance metrics derived on demand.
// AttendancePercentage is round(100 * present / completed) and 0 when no
// session has completed yet.
type AttendanceSnapshot struct {
	PresentCount          int  `json:"presentCount"`
	CompletedSessionCount int  `json:"completedSessionCount"`
	AttendancePercentage  int  `json:"attendancePercentage"`
	ConsecutiveAbsences   int  `json:"consecutiveAbsences"`
	DaysSinceLastSession  *int `json:"daysSinceLastSession,omitempty"`
}
