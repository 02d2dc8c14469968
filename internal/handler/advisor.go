package handler

import (
	"net/http"

	"aira/internal/model"
	"aira/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AdvisorHandler handles investment advice requests
type AdvisorHandler struct {
	advisor *service.AdvisorService
	logger  *zap.Logger
}

// NewAdvisorHandler creates a new advisor handler
func NewAdvisorHandler(advisor *service.AdvisorService, logger *zap.Logger) *AdvisorHandler {
	return &AdvisorHandler{advisor: advisor, logger: orNop(logger)}
}

// Advise handles POST /api/v1/advisor
func (h *AdvisorHandler) Advise(c *gin.Context) {
	var req model.AdvisorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	result, err := h.advisor.Advise(c.Request.Context(), req)
	if err != nil {
		h.logger.Error("advisor failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load properties"})
		return
	}

	c.JSON(http.StatusOK, result)
}
