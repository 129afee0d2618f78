package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ledgermatch/ledgermatch/internal/api/dto"
	"github.com/ledgermatch/ledgermatch/internal/infrastructure/storage"
)

// MatchesHandler serves the per-match audit trail.
type MatchesHandler struct {
	*Base
}

// NewMatchesHandler creates a new matches handler.
func NewMatchesHandler(repo storage.Repository) *MatchesHandler {
	return &MatchesHandler{Base: NewBase(repo)}
}

// List handles GET /api/matches. Supported query parameters: run_id,
// retailer, status, limit, offset.
func (h *MatchesHandler) List(c *gin.Context) {
	filters := storage.MatchRecordFilters{
		RunID:    int64(IntQuery(c, "run_id", 0)),
		Retailer: c.Query("retailer"),
		Status:   c.Query("status"),
		Limit:    IntQuery(c, "limit", 0),
		Offset:   IntQuery(c, "offset", 0),
	}

	records, err := h.repo.ListMatchRecords(filters)
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.InternalError())
		return
	}

	response := dto.MatchListResponse{
		Matches: make([]dto.MatchRecord, 0, len(records)),
		Count:   len(records),
	}
	for _, record := range records {
		response.Matches = append(response.Matches, dto.FromMatchRecord(record))
	}

	c.JSON(http.StatusOK, response)
}
