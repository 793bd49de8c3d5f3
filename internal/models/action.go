package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// ActionType categorises a marketing action.
type ActionType string

const (
	ActionUpsell   ActionType = "upsell"
	ActionSupport  ActionType = "support"
	ActionReEnroll ActionType = "re_enroll"
)

// Valid returns true when the type is a supported value.
func (t ActionType) Valid() bool {
	switch t {
	case ActionUpsell, ActionSupport, ActionReEnroll:
		return true
	default:
		return false
	}
}

// ActionStatus is the lifecycle state of a marketing action.
type ActionStatus string

const (
	ActionPending    ActionStatus = "pending"
	ActionInProgress ActionStatus = "in_progress"
	ActionCompleted  ActionStatus = "completed"
	ActionCancelled  ActionStatus = "cancelled"
)

// Valid returns true when the status is a supported value.
func (s ActionStatus) Valid() bool {
	switch s {
	case ActionPending, ActionInProgress, ActionCompleted, ActionCancelled:
		return true
	default:
		return false
	}
}

// Active reports whether the status counts against the one-active-action
// uniqueness guard.
func (s ActionStatus) Active() bool {
	return s == ActionPending || s == ActionInProgress
}

// CanTransitionTo enforces the status machine:
// pending -> in_progress -> completed, cancelled from pending/in_progress.
func (s ActionStatus) CanTransitionTo(next ActionStatus) bool {
	switch s {
	case ActionPending:
		return next == ActionInProgress || next == ActionCancelled
	case ActionInProgress:
		return next == ActionCompleted || next == ActionCancelled
	default:
		return false
	}
}

// ActionData carries the computed offer recorded on an action.
type ActionData struct {
	CurrentCourse      string     `json:"currentCourse,omitempty"`
	TargetCourse       string     `json:"targetCourse,omitempty"`
	TargetCourseName   string     `json:"targetCourseName,omitempty"`
	DiscountPercentage int        `json:"discountPercentage"`
	OriginalPrice      int        `json:"originalPrice"`
	DiscountedPrice    int        `json:"discountedPrice"`
	Deadline           *time.Time `json:"deadline,omitempty"`
	CustomMessage      string     `json:"customMessage,omitempty"`
	CampaignID         string     `json:"campaignId,omitempty"`
	IsBulkCampaign     bool       `json:"isBulkCampaign"`
}

// ActionChannels flags the channels selected for the outreach.
type ActionChannels struct {
	WhatsApp bool `json:"whatsapp"`
	Email    bool `json:"email"`
	SMS      bool `json:"sms"`
}

// ActionResults records the outcome of send attempts and follow-up.
type ActionResults struct {
	MessageSent      bool       `json:"messageSent"`
	SentAt           *time.Time `json:"sentAt,omitempty"`
	ResponseReceived bool       `json:"responseReceived"`
	Conversion       bool       `json:"conversion"`
}

// ActionMetadata describes who and what produced the action.
type ActionMetadata struct {
	CreatedBy    string `json:"createdBy"`
	CampaignType string `json:"campaignType,omitempty"`
	BatchID      string `json:"batchId,omitempty"`
	Priority     string `json:"priority,omitempty"`
}

// MarketingAction is the durable record of one automated outreach attempt.
// Actions are never deleted, only transitioned.
type MarketingAction struct {
	ID              string         `db:"id" json:"id"`
	ActionType      ActionType     `db:"action_type" json:"actionType"`
	TargetStudentID string         `db:"target_student_id" json:"targetStudentId"`
	TargetGroupID   string         `db:"target_group_id" json:"targetGroupId"`
	EvaluationID    *string        `db:"evaluation_id" json:"evaluationId,omitempty"`
	ActionData      ActionData     `db:"action_data" json:"actionData"`
	Channels        ActionChannels `db:"channels" json:"communicationChannels"`
	Status          ActionStatus   `db:"status" json:"status"`
	Results         ActionResults  `db:"results" json:"results"`
	Metadata        ActionMetadata `db:"metadata" json:"metadata"`
	CreatedAt       time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt       time.Time      `db:"updated_at" json:"updatedAt"`
}

// ActionFilter captures filtering criteria for listing marketing actions.
type ActionFilter struct {
	ActionType *ActionType
	Status     *ActionStatus
	StudentID  string
	GroupID    string
	BatchID    string
	Page       int
	PageSize   int
}

// Value implements driver.Valuer so the struct persists as JSONB.
func (d ActionData) Value() (driver.Value, error) { return json.Marshal(d) }

// Scan implements sql.Scanner.
func (d *ActionData) Scan(src interface{}) error { return scanJSON(src, d) }

// Value implements driver.Valuer.
func (c ActionChannels) Value() (driver.Value, error) { return json.Marshal(c) }

// Scan implements sql.Scanner.
func (c *ActionChannels) Scan(src interface{}) error { return scanJSON(src, c) }

// Value implements driver.Valuer.
func (r ActionResults) Value() (driver.Value, error) { return json.Marshal(r) }

// Scan implements sql.Scanner.
func (r *ActionResults) Scan(src interface{}) error { return scanJSON(src, r) }

// Value implements driver.Valuer.
func (m ActionMetadata) Value() (driver.Value, error) { return json.Marshal(m) }

// Scan implements sql.Scanner.
func (m *ActionMetadata) Scan(src interface{}) error { return scanJSON(src, m) }

func scanJSON(src, dest interface{}) error {
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		return json.Unmarshal(v, dest)
	case string:
		return json.Unmarshal([]byte(v), dest)
	default:
		return fmt.Errorf("unsupported jsonb source type %T", src)
	}
}
