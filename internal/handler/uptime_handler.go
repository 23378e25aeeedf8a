package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"worklog/backend/internal/model"
	"worklog/backend/internal/service"
	"worklog/backend/internal/wire"
)

type UptimeHandler struct {
	uptimeService *service.UptimeService
}

func NewUptimeHandler(uptimeService *service.UptimeService) *UptimeHandler {
	return &UptimeHandler{uptimeService: uptimeService}
}

func (h *UptimeHandler) List(c *gin.Context) {
	year, month, apiErr := monthQuery(c)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}

	records, apiErr := h.uptimeService.List(c.Request.Context(), year, month)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, wire.FromUptimeRecords(records))
}

func (h *UptimeHandler) Create(c *gin.Context) {
	var req wire.SystemUptimeRecord
	if err := c.ShouldBindJSON(&req); err != nil {
		writeInvalidJSON(c)
		return
	}

	record, apiErr := h.uptimeService.Create(c.Request.Context(), req)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusCreated, wire.FromUptimeRecords([]model.SystemUptimeRecord{*record}))
}

func (h *UptimeHandler) Replace(c *gin.Context) {
	id, apiErr := pathID(c)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}

	var req wire.SystemUptimeRecord
	if err := c.ShouldBindJSON(&req); err != nil {
		writeInvalidJSON(c)
		return
	}

	record, apiErr := h.uptimeService.Replace(c.Request.Context(), id, req)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, wire.FromUptimeRecords([]model.SystemUptimeRecord{*record}))
}

func (h *UptimeHandler) Delete(c *gin.Context) {
	id, apiErr := pathID(c)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}

	if apiErr := h.uptimeService.Delete(c.Request.Context(), id); apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *UptimeHandler) GetSleep(c *gin.Context) {
	id, apiErr := pathID(c)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}

	sleep, apiErr := h.uptimeService.GetSleep(c.Request.Context(), id)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, wire.SleepRecords{SleepRecords: []wire.SleepRecord{wire.FromSleepRecord(*sleep)}})
}

func (h *UptimeHandler) ReplaceSleep(c *gin.Context) {
	id, apiErr := pathID(c)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}

	var req wire.SleepRecord
	if err := c.ShouldBindJSON(&req); err != nil {
		writeInvalidJSON(c)
		return
	}

	sleep, apiErr := h.uptimeService.ReplaceSleep(c.Request.Context(), id, req)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, wire.SleepRecords{SleepRecords: []wire.SleepRecord{wire.FromSleepRecord(*sleep)}})
}

func (h *UptimeHandler) Session(c *gin.Context) {
	view, apiErr := h.uptimeService.Session()
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": view})
}

func (h *UptimeHandler) SessionEvent(c *gin.Context) {
	view, apiErr := h.uptimeService.Apply(c.Request.Context(), c.Param("event"))
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": view})
}
