package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/novacademy/marketing-api/internal/dto"
	"github.com/novacademy/marketing-api/internal/models"
	appErrors "github.com/novacademy/marketing-api/pkg/errors"
	"github.com/novacademy/marketing-api/pkg/response"
)

type automationService interface {
	HandleEvent(ctx context.Context, req dto.TriggerEventRequest, actor *models.Actor) (*dto.TriggerEventResponse, error)
}

// AutomationHandler exposes the single-event automation trigger.
type AutomationHandler struct {
	service automationService
}

// NewAutomationHandler builds a new handler.
func NewAutomationHandler(service automationService) *AutomationHandler {
	return &AutomationHandler{service: service}
}

// Trigger godoc
// @Summary Trigger a marketing automation event
// @Tags Automation
// @Accept json
// @Produce json
// @Param payload body dto.TriggerEventRequest true "Event payload"
// @Success 200 {object} response.Envelope
// @Router /automation/trigger [post]
func (h *AutomationHandler) Trigger(c *gin.Context) {
	var req dto.TriggerEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid event payload"))
		return
	}
	result, err := h.service.HandleEvent(c.Request.Context(), req, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
