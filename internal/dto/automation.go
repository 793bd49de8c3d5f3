package dto

import (
	"time"

	"github.com/novacademy/marketing-api/internal/models"
)

// TriggerEventRequest is the single-event automation trigger payload.
type TriggerEventRequest struct {
	EventType string    `json:"eventType" validate:"required"`
	Data      EventData `json:"data"`
}

// EventData carries the event-specific identifiers. Required fields vary by
// event type and are validated by the automation service.
type EventData struct {
	EvaluationID       string   `json:"evaluationId,omitempty"`
	StudentID          string   `json:"studentId,omitempty"`
	GroupID            string   `json:"groupId,omitempty"`
	LeadName           string   `json:"leadName,omitempty"`
	LeadPhone          string   `json:"leadPhone,omitempty"`
	CourseID           string   `json:"courseId,omitempty"`
	GroupIDs           []string `json:"groupIds,omitempty"`
	StudentIDs         []string `json:"studentIds,omitempty"`
	DiscountPercentage *int     `json:"discountPercentage,omitempty"`
	DeadlineDays       *int     `json:"deadlineDays,omitempty"`
	IncludeSupport     bool     `json:"includeSupport,omitempty"`
}

// TriggerEventResponse wraps the handler outcome for the caller.
type TriggerEventResponse struct {
	Success     bool                   `json:"success"`
	EventType   models.AutomationEvent `json:"eventType"`
	Result      interface{}            `json:"result"`
	TriggeredBy string                 `json:"triggeredBy"`
	Timestamp   time.Time              `json:"timestamp"`
}

// EvaluationOutcome is the committed result of processing one evaluation.
type EvaluationOutcome struct {
	EvaluationID         string                 `json:"evaluationId"`
	StudentID            string                 `json:"studentId"`
	StudentName          string                 `json:"studentName"`
	Category             models.StudentCategory `json:"studentCategory"`
	Decision             models.FinalDecision   `json:"finalDecision"`
	ConversionScore      int                    `json:"conversionScore"`
	AttendancePercentage int                    `json:"attendancePercentage"`
	ActionCreated        bool                   `json:"actionCreated"`
	ActionID             string                 `json:"actionId,omitempty"`
	ActionType           models.ActionType      `json:"actionType,omitempty"`
	Offer                *Offer                 `json:"offer,omitempty"`
	Message              string                 `json:"message,omitempty"`
	SkipReason           string                 `json:"skipReason,omitempty"`
}

// GroupCompletionResult aggregates per-student outcomes of a finished group.
type GroupCompletionResult struct {
	GroupID        string              `json:"groupId"`
	Processed      int                 `json:"processed"`
	ActionsCreated int                 `json:"actionsCreated"`
	Outcomes       []EvaluationOutcome `json:"outcomes"`
	Skipped        []SkippedStudent    `json:"skipped"`
}

// HighAttendanceResult reports the high-attendance upsell decision.
type HighAttendanceResult struct {
	StudentID            string `json:"studentId"`
	StudentName          string `json:"studentName"`
	GroupID              string `json:"groupId"`
	AttendancePercentage int    `json:"attendancePercentage"`
	UpsellPossible       bool   `json:"upsellPossible"`
	UpsellCreated        bool   `json:"upsellCreated"`
	ActionID             string `json:"actionId,omitempty"`
	Offer                *Offer `json:"offer,omitempty"`
	Message              string `json:"message,omitempty"`
}

// AtRiskResult is a proposal for human review, no ledger entry is created.
type AtRiskResult struct {
	StudentID      string                    `json:"studentId"`
	StudentName    string                    `json:"studentName"`
	GroupID        string                    `json:"groupId"`
	Attendance     models.AttendanceSnapshot `json:"attendance"`
	Risk           models.RiskAssessment     `json:"risk"`
	SupportMessage string                    `json:"supportMessage"`
}

// LeadProposal suggests the first outreach for a new lead. Proposal only,
// committing an action is left to a human.
type LeadProposal struct {
	Name            string         `json:"name"`
	Phone           string         `json:"phone,omitempty"`
	WelcomeMessage  string         `json:"welcomeMessage"`
	SuggestedCourse *models.Course `json:"suggestedCourse,omitempty"`
}
