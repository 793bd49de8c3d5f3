package dto

// UpsellCampaignRequest selects the audience and pricing of a bulk upsell
// campaign. Exactly one of GroupIDs or StudentIDs must be supplied.
type UpsellCampaignRequest struct {
	GroupIDs           []string `json:"groupIds,omitempty"`
	StudentIDs         []string `json:"studentIds,omitempty"`
	CourseID           string   `json:"courseId" validate:"required"`
	DiscountPercentage *int     `json:"discountPercentage,omitempty" validate:"omitempty,min=0,max=90"`
	DeadlineDays       *int     `json:"deadlineDays,omitempty" validate:"omitempty,min=1,max=365"`
}

// ReEnrollmentCampaignRequest selects the audience of a re-enrollment
// campaign targeting repeat-decision students.
type ReEnrollmentCampaignRequest struct {
	GroupIDs           []string `json:"groupIds,omitempty"`
	StudentIDs         []string `json:"studentIds,omitempty"`
	CourseID           string   `json:"courseId" validate:"required"`
	DiscountPercentage *int     `json:"discountPercentage,omitempty" validate:"omitempty,min=0,max=90"`
	DeadlineDays       *int     `json:"deadlineDays,omitempty" validate:"omitempty,min=1,max=365"`
	IncludeSupport     bool     `json:"includeSupport,omitempty"`
}

// CampaignActionSummary is the per-student outcome appended to the result.
type CampaignActionSummary struct {
	ActionID        string `json:"actionId"`
	StudentID       string `json:"studentId"`
	StudentName     string `json:"studentName"`
	WhatsAppSent    bool   `json:"whatsappSent"`
	DiscountedPrice int    `json:"discountedPrice"`
}

// SkippedStudent explains why one batch member produced no action.
type SkippedStudent struct {
	StudentID string `json:"id"`
	Name      string `json:"name"`
	Reason    string `json:"reason"`
}

// CampaignResult aggregates a whole batch run. EstimatedRevenue sums each
// created action's discounted price.
type CampaignResult struct {
	CampaignID       string                  `json:"campaignId"`
	BatchID          string                  `json:"batchId"`
	TotalEligible    int                     `json:"totalEligible"`
	ActionsCreated   int                     `json:"actionsCreated"`
	MessagesSent     int                     `json:"messagesSent"`
	SkippedCount     int                     `json:"skippedCount"`
	Actions          []CampaignActionSummary `json:"actions"`
	Skipped          []SkippedStudent        `json:"skipped"`
	EstimatedRevenue int                     `json:"estimatedRevenue"`
}
