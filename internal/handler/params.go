package handler

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	apperrors "worklog/backend/internal/errors"
)

const (
	minYear = 1970
	maxYear = 9999
)

// monthQuery reads ?year=&month=. Both are required.
func monthQuery(c *gin.Context) (int, time.Month, *apperrors.APIError) {
	yearRaw, ok := c.GetQuery("year")
	if !ok {
		return 0, 0, apperrors.BadRequest("invalid_query", "year is required")
	}
	monthRaw, ok := c.GetQuery("month")
	if !ok {
		return 0, 0, apperrors.BadRequest("invalid_query", "month is required")
	}

	year, err := strconv.Atoi(yearRaw)
	if err != nil || year < minYear || year > maxYear {
		return 0, 0, apperrors.BadRequest("invalid_query", "year must be a number between 1970 and 9999")
	}
	month, err := strconv.Atoi(monthRaw)
	if err != nil || month < 1 || month > 12 {
		return 0, 0, apperrors.BadRequest("invalid_query", "month must be a number between 1 and 12")
	}
	return year, time.Month(month), nil
}

// pathID reads the :id segment, which must be a canonical UUID.
func pathID(c *gin.Context) (uuid.UUID, *apperrors.APIError) {
	raw := c.Param("id")
	id, err := uuid.Parse(raw)
	if err != nil || len(raw) != 36 {
		return uuid.Nil, apperrors.BadRequest("invalid_id", "id must be a UUID")
	}
	return id, nil
}
