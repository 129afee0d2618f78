package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ledgermatch/ledgermatch/internal/api/dto"
	"github.com/ledgermatch/ledgermatch/internal/application/service"
	"github.com/ledgermatch/ledgermatch/internal/domain/retail"
)

// ReconcileHandler manages background reconcile jobs.
type ReconcileHandler struct {
	runService *service.RunService
}

// NewReconcileHandler creates a new reconcile handler.
func NewReconcileHandler(runService *service.RunService) *ReconcileHandler {
	return &ReconcileHandler{runService: runService}
}

// Start handles POST /api/reconcile - starts a background reconcile job.
// An empty body is allowed and means a dry run over all retailers.
func (h *ReconcileHandler) Start(c *gin.Context) {
	var req dto.ReconcileRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, dto.BadRequestError("invalid request body"))
			return
		}
	}

	if req.Retailer != "" && !retail.Retailer(req.Retailer).Known() {
		c.JSON(http.StatusBadRequest, dto.ValidationError(fmt.Sprintf("unknown retailer %q", req.Retailer)))
		return
	}

	jobID, err := h.runService.StartRun(c.Request.Context(), req.Options())
	if err != nil {
		if errors.Is(err, service.ErrRunInProgress) {
			c.JSON(http.StatusConflict, dto.ConflictError(err.Error()))
			return
		}
		c.JSON(http.StatusInternalServerError, dto.InternalError())
		return
	}

	c.JSON(http.StatusAccepted, dto.StartReconcileResponse{
		JobID:    jobID,
		Retailer: req.Retailer,
		Status:   string(service.StatusPending),
	})
}

// ListJobs handles GET /api/reconcile - lists jobs, newest first.
func (h *ReconcileHandler) ListJobs(c *gin.Context) {
	jobs := h.runService.ListJobs()

	response := dto.JobListResponse{
		Jobs:  make([]dto.Job, 0, len(jobs)),
		Count: len(jobs),
	}
	for _, job := range jobs {
		response.Jobs = append(response.Jobs, dto.FromJob(job))
	}

	c.JSON(http.StatusOK, response)
}

// GetJob handles GET /api/reconcile/:id - returns one job's status.
func (h *ReconcileHandler) GetJob(c *gin.Context) {
	job, err := h.runService.GetJob(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, dto.NotFoundError("job"))
		return
	}

	c.JSON(http.StatusOK, dto.FromJob(job))
}

// CancelJob handles DELETE /api/reconcile/:id - cancels a running job.
func (h *ReconcileHandler) CancelJob(c *gin.Context) {
	err := h.runService.CancelRun(c.Param("id"))
	switch {
	case err == nil:
		c.JSON(http.StatusOK, dto.MessageResponse{Message: "job cancelled"})
	case errors.Is(err, service.ErrJobNotFound):
		c.JSON(http.StatusNotFound, dto.NotFoundError("job"))
	default:
		c.JSON(http.StatusConflict, dto.ConflictError(err.Error()))
	}
}
