package dto

import (
	"time"

	"github.com/novacademy/marketing-api/internal/models"
)

// StudentRetentionEntry is one student row in the group retention overview.
type StudentRetentionEntry struct {
	StudentID       string                    `json:"studentId"`
	StudentName     string                    `json:"studentName"`
	Category        models.StudentCategory    `json:"studentCategory"`
	OverallScore    float64                   `json:"overallScore"`
	ConversionScore int                       `json:"conversionScore"`
	Attendance      models.AttendanceSnapshot `json:"attendance"`
	Risk            models.RiskAssessment     `json:"risk"`
	WeakPoints      []string                  `json:"weakPoints,omitempty"`
	Strengths       []string                  `json:"strengths,omitempty"`
}

// GroupRetentionOverview is the retention view for one group.
type GroupRetentionOverview struct {
	GroupID     string                  `json:"groupId"`
	GeneratedAt time.Time               `json:"generatedAt"`
	Students    []StudentRetentionEntry `json:"students"`
}
