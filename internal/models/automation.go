package models

// AutomationEvent names the domain events the automation engine reacts to.
type AutomationEvent string

const (
	EventEvaluationCompleted    AutomationEvent = "student_evaluation_completed"
	EventGroupCompleted         AutomationEvent = "group_completed"
	EventLeadCreated            AutomationEvent = "lead_created"
	EventHighAttendanceDetected AutomationEvent = "high_attendance_detected"
	EventStudentAtRisk          AutomationEvent = "student_at_risk"
	EventBulkUpsellCampaign     AutomationEvent = "bulk_upsell_campaign"
	EventReEnrollmentCampaign   AutomationEvent = "re_enrollment_campaign"
)

// Valid returns true when the event is a supported value.
func (e AutomationEvent) Valid() bool {
	switch e {
	case EventEvaluationCompleted, EventGroupCompleted, EventLeadCreated,
		EventHighAttendanceDetected, EventStudentAtRisk,
		EventBulkUpsellCampaign, EventReEnrollmentCampaign:
		return true
	default:
		return false
	}
}

// MessageSendResult is the outcome reported by the outbound message channel.
type MessageSendResult struct {
	Success   bool   `json:"success"`
	MessageID string `json:"messageId,omitempty"`
}

// RiskLevel buckets students by disengagement risk.
type RiskLevel string

const (
	RiskHigh   RiskLevel = "high"
	RiskMedium RiskLevel = "medium"
	RiskLow    RiskLevel = "low"
)

// SuggestedAction is one recommended follow-up, ranked by priority.
type SuggestedAction struct {
	Action   string `json:"action"`
	Label    string `json:"label"`
	Priority string `json:"priority"`
}

// Suggested action priorities, highest first.
const (
	PriorityUrgent = "urgent"
	PriorityHigh   = "high"
	PriorityMedium = "medium"
	PriorityLow    = "low"
)

// PriorityRank orders priorities for sorting (lower is more urgent).
func PriorityRank(p string) int {
	switch p {
	case PriorityUrgent:
		return 0
	case PriorityHigh:
		return 1
	case PriorityMedium:
		return 2
	default:
		return 3
	}
}

// RiskAssessment is the retention-view classification for one student.
type RiskAssessment struct {
	RiskScore        int               `json:"riskScore"`
	RiskLevel        RiskLevel         `json:"riskLevel"`
	RiskReasons      []string          `json:"riskReasons"`
	SuggestedActions []SuggestedAction `json:"suggestedActions"`
}
