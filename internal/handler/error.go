package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/LokalDeals/lokaldeals_api/internal/apperr"
	"github.com/LokalDeals/lokaldeals_api/internal/utils"
)

// respondError maps the service error taxonomy onto HTTP responses. Raw
// upstream causes are logged, never surfaced to callers.
func respondError(c *gin.Context, err error) {
	var verr *apperr.ValidationError
	if errors.As(err, &verr) {
		utils.ErrorWithFields(c, 400, "VALIDATION_ERROR", verr.Error(), verr.Fields)
		return
	}

	var cerr *apperr.ConflictError
	if errors.As(err, &cerr) {
		utils.Error(c, 400, "CONFLICT", cerr.Message)
		return
	}

	var aerr *apperr.AuthError
	if errors.As(err, &aerr) {
		utils.Error(c, 400, "AUTH_ERROR", aerr.Message)
		return
	}

	switch {
	case errors.Is(err, apperr.ErrNotFound):
		utils.Error(c, 404, "NOT_FOUND", "Resource not found")
	case errors.Is(err, apperr.ErrImmutableState):
		utils.Error(c, 403, "IMMUTABLE_STATE", "This item is no longer editable; contact support for changes")
	case errors.Is(err, apperr.ErrForbidden):
		utils.Error(c, 403, "FORBIDDEN", "You do not have permission to access this resource")
	default:
		log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("request failed")
		utils.Error(c, 500, "INTERNAL_ERROR", "Something went wrong, please try again")
	}
}
