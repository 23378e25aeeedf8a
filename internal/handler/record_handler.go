package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"worklog/backend/internal/model"
	"worklog/backend/internal/service"
	"worklog/backend/internal/wire"
)

type RecordHandler struct {
	recordService *service.RecordService
}

func NewRecordHandler(recordService *service.RecordService) *RecordHandler {
	return &RecordHandler{recordService: recordService}
}

func (h *RecordHandler) List(c *gin.Context) {
	year, month, apiErr := monthQuery(c)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}

	records, apiErr := h.recordService.List(c.Request.Context(), year, month)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, wire.FromTimeRecords(records))
}

func (h *RecordHandler) Create(c *gin.Context) {
	var req wire.TimeRecord
	if err := c.ShouldBindJSON(&req); err != nil {
		writeInvalidJSON(c)
		return
	}

	record, apiErr := h.recordService.Create(c.Request.Context(), req)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusCreated, wire.FromTimeRecords([]model.TimeRecord{*record}))
}

func (h *RecordHandler) Replace(c *gin.Context) {
	id, apiErr := pathID(c)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}

	var req wire.TimeRecord
	if err := c.ShouldBindJSON(&req); err != nil {
		writeInvalidJSON(c)
		return
	}

	record, apiErr := h.recordService.Replace(c.Request.Context(), id, req)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, wire.FromTimeRecords([]model.TimeRecord{*record}))
}

func (h *RecordHandler) Delete(c *gin.Context) {
	id, apiErr := pathID(c)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}

	if apiErr := h.recordService.Delete(c.Request.Context(), id); apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *RecordHandler) GetBreak(c *gin.Context) {
	id, apiErr := pathID(c)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}

	b, apiErr := h.recordService.GetBreak(c.Request.Context(), id)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, wire.BreakTimes{BreakTimes: []wire.BreakTime{wire.FromBreakTime(*b)}})
}

func (h *RecordHandler) ReplaceBreak(c *gin.Context) {
	id, apiErr := pathID(c)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}

	var req wire.BreakTime
	if err := c.ShouldBindJSON(&req); err != nil {
		writeInvalidJSON(c)
		return
	}

	b, apiErr := h.recordService.ReplaceBreak(c.Request.Context(), id, req)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, wire.BreakTimes{BreakTimes: []wire.BreakTime{wire.FromBreakTime(*b)}})
}
