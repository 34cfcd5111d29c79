package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/orio/graphbook-backend/internal/http/response"
	"github.com/orio/graphbook-backend/internal/pkg/errs"
)

// respondServiceError maps the service error taxonomy onto HTTP statuses.
// A duplicate answers 302 Found, pointing the caller at the resource that
// already holds the content.
func respondServiceError(c *gin.Context, err error) {
	var noDocs *errs.NoDocumentsFoundError
	var notRemoved *errs.ConceptNotRemovedError
	switch {
	case errors.Is(err, errs.ErrInvalidArgument):
		response.RespondError(c, http.StatusBadRequest, "invalid_argument", err)
	case errors.Is(err, errs.ErrAlreadyExists):
		response.RespondError(c, http.StatusFound, "already_exists", err)
	case errors.As(err, &noDocs):
		response.RespondError(c, http.StatusNotFound, "no_documents_found", err)
	case errors.Is(err, errs.ErrNotFound):
		response.RespondError(c, http.StatusNotFound, "not_found", err)
	case errors.As(err, &notRemoved):
		if notRemoved.Before == 0 {
			response.RespondError(c, http.StatusNotFound, "concept_not_found", err)
		} else {
			response.RespondError(c, http.StatusInternalServerError, "concept_not_removed", err)
		}
	default:
		response.RespondError(c, http.StatusInternalServerError, "internal_error", err)
	}
}
