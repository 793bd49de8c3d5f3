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

type campaignService interface {
	RunUpsell(ctx context.Context, req dto.UpsellCampaignRequest, actor *models.Actor) (*dto.CampaignResult, error)
	RunReEnrollment(ctx context.Context, req dto.ReEnrollmentCampaignRequest, actor *models.Actor) (*dto.CampaignResult, error)
}

// CampaignHandler exposes the bulk campaign endpoints.
type CampaignHandler struct {
	service campaignService
}

// NewCampaignHandler builds a new handler.
func NewCampaignHandler(service campaignService) *CampaignHandler {
	return &CampaignHandler{service: service}
}

// RunUpsell godoc
// @Summary Run a bulk upsell campaign
// @Tags Campaigns
// @Accept json
// @Produce json
// @Param payload body dto.UpsellCampaignRequest true "Campaign payload"
// @Success 200 {object} response.Envelope
// @Router /campaigns/upsell [post]
func (h *CampaignHandler) RunUpsell(c *gin.Context) {
	var req dto.UpsellCampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid campaign payload"))
		return
	}
	result, err := h.service.RunUpsell(c.Request.Context(), req, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// RunReEnrollment godoc
// @Summary Run a re-enrollment campaign for repeat students
// @Tags Campaigns
// @Accept json
// @Produce json
// @Param payload body dto.ReEnrollmentCampaignRequest true "Campaign payload"
// @Success 200 {object} response.Envelope
// @Router /campaigns/re-enrollment [post]
func (h *CampaignHandler) RunReEnrollment(c *gin.Context) {
	var req dto.ReEnrollmentCampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid campaign payload"))
		return
	}
	result, err := h.service.RunReEnrollment(c.Request.Context(), req, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
