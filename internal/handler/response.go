package handler

import (
	"github.com/gin-gonic/gin"

	apperrors "worklog/backend/internal/errors"
	"worklog/backend/internal/wire"
)

func writeError(c *gin.Context, apiErr *apperrors.APIError) {
	if apiErr == nil {
		apiErr = apperrors.Internal("")
	}

	c.JSON(apiErr.Status, wire.ErrorBody{
		Error: wire.ErrorDetail{
			Code:    apiErr.Code,
			Message: apiErr.Message,
			Details: apiErr.Details,
		},
	})
}

func writeInvalidJSON(c *gin.Context) {
	writeError(c, apperrors.BadRequest("invalid_json", "invalid request body"))
}

// NotFound answers every path that matches no route.
func NotFound(c *gin.Context) {
	writeError(c, apperrors.NotFound("not_found", "no such resource"))
}
