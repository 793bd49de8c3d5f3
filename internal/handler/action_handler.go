package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/novacademy/marketing-api/internal/dto"
	"github.com/novacademy/marketing-api/internal/models"
	appErrors "github.com/novacademy/marketing-api/pkg/errors"
	"github.com/novacademy/marketing-api/pkg/export"
	"github.com/novacademy/marketing-api/pkg/response"
)

type actionService interface {
	List(ctx context.Context, filter models.ActionFilter) ([]models.MarketingAction, *models.Pagination, error)
	Get(ctx context.Context, id string) (*models.MarketingAction, error)
	UpdateStatus(ctx context.Context, id string, next models.ActionStatus, actor *models.Actor) (*models.MarketingAction, error)
	UpdateResults(ctx context.Context, id string, responseReceived, conversion *bool) (*models.MarketingAction, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ActionHandler exposes the marketing action ledger endpoints.
type ActionHandler struct {
	service  actionService
	exporter pdfRenderer
}

// NewActionHandler builds a new handler.
func NewActionHandler(service actionService, exporter pdfRenderer) *ActionHandler {
	return &ActionHandler{service: service, exporter: exporter}
}

// List godoc
// @Summary List marketing actions
// @Tags Actions
// @Produce json
// @Param actionType query string false "Action type filter"
// @Param status query string false "Status filter"
// @Param studentId query string false "Student ID filter"
// @Param groupId query string false "Group ID filter"
// @Param batchId query string false "Campaign batch filter"
// @Param page query int false "Page number"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /actions [get]
func (h *ActionHandler) List(c *gin.Context) {
	filter, err := filterFromQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	items, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// Get godoc
// @Summary Get one marketing action
// @Tags Actions
// @Produce json
// @Param id path string true "Action ID"
// @Success 200 {object} response.Envelope
// @Router /actions/{id} [get]
func (h *ActionHandler) Get(c *gin.Context) {
	item, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// UpdateStatus godoc
// @Summary Move an action through its status lifecycle
// @Tags Actions
// @Accept json
// @Produce json
// @Param id path string true "Action ID"
// @Param payload body dto.UpdateActionStatusRequest true "Status payload"
// @Success 200 {object} response.Envelope
// @Router /actions/{id}/status [patch]
func (h *ActionHandler) UpdateStatus(c *gin.Context) {
	var req dto.UpdateActionStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid status payload"))
		return
	}
	item, err := h.service.UpdateStatus(c.Request.Context(), c.Param("id"), models.ActionStatus(req.Status), actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// UpdateResults godoc
// @Summary Record follow-up results on an action
// @Tags Actions
// @Accept json
// @Produce json
// @Param id path string true "Action ID"
// @Param payload body dto.UpdateActionResultsRequest true "Results payload"
// @Success 200 {object} response.Envelope
// @Router /actions/{id}/results [patch]
func (h *ActionHandler) UpdateResults(c *gin.Context) {
	var req dto.UpdateActionResultsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid results payload"))
		return
	}
	item, err := h.service.UpdateResults(c.Request.Context(), c.Param("id"), req.ResponseReceived, req.Conversion)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// Export godoc
// @Summary Export filtered actions as a PDF report
// @Tags Actions
// @Produce application/pdf
// @Param actionType query string false "Action type filter"
// @Param status query string false "Status filter"
// @Param batchId query string false "Campaign batch filter"
// @Success 200 {file} binary
// @Router /actions/export [get]
func (h *ActionHandler) Export(c *gin.Context) {
	filter, err := filterFromQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	// Exports ignore pagination and dump the filtered window in one page set.
	filter.Page = 1
	filter.PageSize = 1000

	items, _, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	dataset := export.Dataset{
		Headers: []string{"ID", "Type", "Status", "Student", "Target Course", "Discount", "Price", "Sent", "Created"},
		Rows:    make([][]string, 0, len(items)),
	}
	for _, item := range items {
		dataset.Rows = append(dataset.Rows, []string{
			item.ID,
			string(item.ActionType),
			string(item.Status),
			item.TargetStudentID,
			item.ActionData.TargetCourseName,
			fmt.Sprintf("%d%%", item.ActionData.DiscountPercentage),
			strconv.Itoa(item.ActionData.DiscountedPrice),
			strconv.FormatBool(item.Results.MessageSent),
			item.CreatedAt.Format("2006-01-02"),
		})
	}

	pdf, err := h.exporter.Render(dataset, "Marketing Actions")
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, http.StatusInternalServerError, "failed to render export"))
		return
	}

	filename := fmt.Sprintf("marketing-actions-%s.pdf", time.Now().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "application/pdf", pdf)
}

func filterFromQuery(c *gin.Context) (models.ActionFilter, error) {
	filter := models.ActionFilter{
		StudentID: c.Query("studentId"),
		GroupID:   c.Query("groupId"),
		BatchID:   c.Query("batchId"),
	}
	if raw := c.Query("actionType"); raw != "" {
		actionType := models.ActionType(raw)
		if !actionType.Valid() {
			return filter, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported action type %q", raw))
		}
		filter.ActionType = &actionType
	}
	if raw := c.Query("status"); raw != "" {
		status := models.ActionStatus(raw)
		if !status.Valid() {
			return filter, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported status %q", raw))
		}
		filter.Status = &status
	}
	filter.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	filter.PageSize, _ = strconv.Atoi(c.DefaultQuery("pageSize", "20"))
	return filter, nil
}
