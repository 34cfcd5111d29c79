package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/orio/graphbook-backend/internal/http/response"
	"github.com/orio/graphbook-backend/internal/platform/logger"
	"github.com/orio/graphbook-backend/internal/services"
)

type ChartHandler struct {
	log    *logger.Logger
	charts services.ChartService
}

func NewChartHandler(log *logger.Logger, charts services.ChartService) *ChartHandler {
	return &ChartHandler{
		log:    log.With("handler", "ChartHandler"),
		charts: charts,
	}
}

// POST /api/add/chart
func (h *ChartHandler) Add(c *gin.Context) {
	var req struct {
		Label    string   `json:"label"`
		Concepts []string `json:"concepts"`
		Titles   []string `json:"titles"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request_body", err)
		return
	}

	result, err := h.charts.BuildChart(c.Request.Context(), req.Concepts, req.Titles, req.Label)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if err := h.charts.SaveChart(c.Request.Context(), result.Matrix); err != nil {
		respondServiceError(c, err)
		return
	}

	payload := gin.H{
		"ok":              true,
		"chart":           result.Matrix,
		"not_found":       result.NotFound,
		"failed_concepts": result.FailedConcepts,
	}
	if len(result.NotFound) > 0 || len(result.FailedConcepts) > 0 {
		response.Respond(c, http.StatusPartialContent, payload)
		return
	}
	response.RespondOK(c, payload)
}

// GET /api/get/chart?label=...
func (h *ChartHandler) Get(c *gin.Context) {
	label := strings.TrimSpace(c.Query("label"))
	if label == "" {
		response.RespondError(c, http.StatusBadRequest, "missing_label", nil)
		return
	}
	matrix, err := h.charts.GetChart(c.Request.Context(), label)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"chart": matrix})
}

// PUT /api/delete/chart
func (h *ChartHandler) Delete(c *gin.Context) {
	var req struct {
		Label string `json:"label"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request_body", err)
		return
	}
	if err := h.charts.RemoveChart(c.Request.Context(), req.Label); err != nil {
		respondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}
