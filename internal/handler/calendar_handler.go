package handler

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"worklog/backend/internal/service"
	"worklog/backend/internal/wire"
)

type CalendarHandler struct {
	calendarService *service.CalendarService
}

func NewCalendarHandler(calendarService *service.CalendarService) *CalendarHandler {
	return &CalendarHandler{calendarService: calendarService}
}

func (h *CalendarHandler) Month(c *gin.Context) {
	year, month, apiErr := monthQuery(c)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}

	summary, apiErr := h.calendarService.Month(c.Request.Context(), year, month)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, wire.FromSummary(year, month, *summary))
}

// Stream sends the month summary as server-sent events, one "calendar" event per change.
func (h *CalendarHandler) Stream(c *gin.Context) {
	year, month, apiErr := monthQuery(c)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}

	updates := h.calendarService.Watch(c.Request.Context(), year, month)
	c.Stream(func(w io.Writer) bool {
		summary, ok := <-updates
		if !ok {
			return false
		}
		c.SSEvent("calendar", wire.FromSummary(year, month, summary))
		return true
	})
}
