package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/orio/graphbook-backend/internal/http/response"
	"github.com/orio/graphbook-backend/internal/platform/logger"
	"github.com/orio/graphbook-backend/internal/services"
)

type TextHandler struct {
	log      *logger.Logger
	concepts services.ConceptService
}

func NewTextHandler(log *logger.Logger, concepts services.ConceptService) *TextHandler {
	return &TextHandler{
		log:      log.With("handler", "TextHandler"),
		concepts: concepts,
	}
}

// POST /api/add/text
func (h *TextHandler) Add(c *gin.Context) {
	var req struct {
		Label  string   `json:"label"`
		Titles []string `json:"titles"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request_body", err)
		return
	}

	notFound, err := h.concepts.IngestTexts(c.Request.Context(), req.Titles, req.Label)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	payload := gin.H{"ok": true, "label": req.Label, "not_found": notFound}
	if len(notFound) > 0 {
		response.Respond(c, http.StatusPartialContent, payload)
		return
	}
	response.RespondOK(c, payload)
}

// PUT /api/delete/text
func (h *TextHandler) Delete(c *gin.Context) {
	var req struct {
		Label string `json:"label"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request_body", err)
		return
	}
	if err := h.concepts.RemoveTexts(c.Request.Context(), req.Label); err != nil {
		respondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}
