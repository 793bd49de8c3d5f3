package dto

// UpdateActionStatusRequest transitions an action through its lifecycle.
type UpdateActionStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// UpdateActionResultsRequest records human follow-up on an action. Only the
// provided fields are updated.
type UpdateActionResultsRequest struct {
	ResponseReceived *bool `json:"responseReceived,omitempty"`
	Conversion       *bool `json:"conversion,omitempty"`
}
