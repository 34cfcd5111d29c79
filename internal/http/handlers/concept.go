package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/orio/graphbook-backend/internal/http/response"
	"github.com/orio/graphbook-backend/internal/platform/logger"
	"github.com/orio/graphbook-backend/internal/services"
)

type ConceptHandler struct {
	log      *logger.Logger
	concepts services.ConceptService
}

func NewConceptHandler(log *logger.Logger, concepts services.ConceptService) *ConceptHandler {
	return &ConceptHandler{
		log:      log.With("handler", "ConceptHandler"),
		concepts: concepts,
	}
}

// POST /api/add/concept
func (h *ConceptHandler) Add(c *gin.Context) {
	var req struct {
		Concept string   `json:"concept"`
		Titles  []string `json:"titles"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request_body", err)
		return
	}

	records, notFound, err := h.concepts.AddConcept(c.Request.Context(), req.Concept, req.Titles)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	payload := gin.H{
		"ok":        true,
		"concept":   req.Concept,
		"records":   records,
		"not_found": notFound,
	}
	if len(notFound) > 0 {
		response.Respond(c, http.StatusPartialContent, payload)
		return
	}
	response.RespondOK(c, payload)
}

// PUT /api/delete/concept
func (h *ConceptHandler) Delete(c *gin.Context) {
	var req struct {
		Concept string `json:"concept"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request_body", err)
		return
	}
	if err := h.concepts.RemoveConcept(c.Request.Context(), req.Concept); err != nil {
		respondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}

// GET /api/get/concept/all
func (h *ConceptHandler) List(c *gin.Context) {
	concepts, err := h.concepts.ListConcepts(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"concepts": concepts})
}
