package handlers

import (
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/orio/graphbook-backend/internal/http/response"
	"github.com/orio/graphbook-backend/internal/platform/logger"
	"github.com/orio/graphbook-backend/internal/services"
)

type DocumentHandler struct {
	log       *logger.Logger
	documents services.DocumentService
}

func NewDocumentHandler(log *logger.Logger, documents services.DocumentService) *DocumentHandler {
	return &DocumentHandler{
		log:       log.With("handler", "DocumentHandler"),
		documents: documents,
	}
}

// POST /api/add/file
func (h *DocumentHandler) Upload(c *gin.Context) {
	if err := c.Request.ParseMultipartForm(32 << 20); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_multipart_form", err)
		return
	}
	title := strings.TrimSpace(c.PostForm("title"))
	fh, err := c.FormFile("file")
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "missing_file", err)
		return
	}
	if title == "" {
		title = strings.TrimSuffix(fh.Filename, ".pdf")
	}

	f, err := fh.Open()
	if err != nil {
		h.log.Error("Cannot open uploaded file", "error", err, "file", fh.Filename)
		response.RespondError(c, http.StatusBadRequest, "could_not_read_file", err)
		return
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "could_not_read_file", err)
		return
	}

	if err := h.documents.SaveFile(c.Request.Context(), title, fh.Filename, data); err != nil {
		respondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true, "title": title})
}

// GET /api/get/text/all
func (h *DocumentHandler) ListTitles(c *gin.Context) {
	titles, err := h.documents.ListTitles(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"titles": titles})
}

// GET /api/get/file?title=...
func (h *DocumentHandler) Download(c *gin.Context) {
	title := strings.TrimSpace(c.Query("title"))
	if title == "" {
		response.RespondError(c, http.StatusBadRequest, "missing_title", nil)
		return
	}
	file, err := h.documents.GetFile(c.Request.Context(), title)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+title+`.pdf"`)
	c.Data(http.StatusOK, "application/pdf", file.Data)
}

// PUT /api/delete/file
func (h *DocumentHandler) Delete(c *gin.Context) {
	var req struct {
		Title string `json:"title"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request_body", err)
		return
	}
	if err := h.documents.RemoveFile(c.Request.Context(), req.Title); err != nil {
		respondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}
