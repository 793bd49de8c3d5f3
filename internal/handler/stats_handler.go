package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/novacademy/marketing-api/internal/dto"
	"github.com/novacademy/marketing-api/pkg/response"
)

type statsService interface {
	RetentionOverview(ctx context.Context, groupID string) (*dto.GroupRetentionOverview, error)
}

// StatsHandler exposes marketing statistics views.
type StatsHandler struct {
	service statsService
}

// NewStatsHandler builds a new handler.
func NewStatsHandler(service statsService) *StatsHandler {
	return &StatsHandler{service: service}
}

// GroupRetention godoc
// @Summary Retention overview for a group
// @Tags Stats
// @Produce json
// @Param groupId path string true "Group ID"
// @Success 200 {object} response.Envelope
// @Router /stats/groups/{groupId}/retention [get]
func (h *StatsHandler) GroupRetention(c *gin.Context) {
	overview, err := h.service.RetentionOverview(c.Request.Context(), c.Param("groupId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, overview, nil)
}
