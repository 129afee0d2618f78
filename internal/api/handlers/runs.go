package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ledgermatch/ledgermatch/internal/api/dto"
	"github.com/ledgermatch/ledgermatch/internal/infrastructure/storage"
)

// RunsHandler serves the reconcile run history.
type RunsHandler struct {
	*Base
}

// NewRunsHandler creates a new runs handler.
func NewRunsHandler(repo storage.Repository) *RunsHandler {
	return &RunsHandler{Base: NewBase(repo)}
}

// List handles GET /api/runs - returns recent runs, newest first.
func (h *RunsHandler) List(c *gin.Context) {
	limit := IntQuery(c, "limit", 20)

	runs, err := h.repo.ListRuns(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.InternalError())
		return
	}

	response := dto.RunListResponse{
		Runs:  make([]dto.Run, 0, len(runs)),
		Count: len(runs),
	}
	for _, run := range runs {
		response.Runs = append(response.Runs, dto.FromRun(run))
	}

	c.JSON(http.StatusOK, response)
}

// Get handles GET /api/runs/:id - returns a single run.
func (h *RunsHandler) Get(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.BadRequestError("invalid run id"))
		return
	}

	run, err := h.repo.GetRun(id)
	if err != nil {
		c.JSON(http.StatusNotFound, dto.NotFoundError("run"))
		return
	}

	c.JSON(http.StatusOK, dto.FromRun(*run))
}
