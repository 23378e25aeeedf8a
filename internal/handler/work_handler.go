package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"worklog/backend/internal/service"
)

type WorkHandler struct {
	workService *service.WorkService
}

func NewWorkHandler(workService *service.WorkService) *WorkHandler {
	return &WorkHandler{workService: workService}
}

func (h *WorkHandler) State(c *gin.Context) {
	state, apiErr := h.workService.State(c.Request.Context())
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"state": state})
}

func (h *WorkHandler) Transition(c *gin.Context) {
	state, apiErr := h.workService.Apply(c.Request.Context(), c.Param("op"))
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"state": state})
}
