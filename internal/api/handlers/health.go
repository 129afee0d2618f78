package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ledgermatch/ledgermatch/internal/api/dto"
)

// HealthHandler handles health check requests.
type HealthHandler struct{}

// NewHealthHandler creates a new health handler.
func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

// Check handles GET /health.
func (h *HealthHandler) Check(c *gin.Context) {
	c.JSON(http.StatusOK, dto.NewHealthResponse())
}
