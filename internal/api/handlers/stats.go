package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ledgermatch/ledgermatch/internal/api/dto"
	"github.com/ledgermatch/ledgermatch/internal/infrastructure/storage"
)

// StatsHandler serves aggregate statistics.
type StatsHandler struct {
	*Base
}

// NewStatsHandler creates a new stats handler.
func NewStatsHandler(repo storage.Repository) *StatsHandler {
	return &StatsHandler{Base: NewBase(repo)}
}

// Get handles GET /api/stats - returns aggregate statistics across all runs.
func (h *StatsHandler) Get(c *gin.Context) {
	stats, err := h.repo.GetStats()
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.InternalError())
		return
	}

	c.JSON(http.StatusOK, dto.FromStats(stats))
}
