package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/OldStager01/throughput-autoscaler/internal/logger"
	"github.com/OldStager01/throughput-autoscaler/internal/orchestrator"
	"github.com/OldStager01/throughput-autoscaler/pkg/models"
)

// RunTrigger starts runs on demand. *orchestrator.Scheduler implements it.
type RunTrigger interface {
	Trigger(ctx context.Context) (*models.RunResult, error)
	LastResult() *models.RunResult
}

type RunHandler struct {
	runs RunTrigger
}

func NewRunHandler(runs RunTrigger) *RunHandler {
	return &RunHandler{runs: runs}
}

type RunResponse struct {
	Status string            `json:"status"`
	Result *models.RunResult `json:"result"`
}

// Trigger executes a run and reports its outcome. A failed axis makes the
// whole run fail, which is answered with 500.
func (h *RunHandler) Trigger(c *gin.Context) {
	// the run outlives a disconnecting client
	ctx := context.WithoutCancel(c.Request.Context())

	result, err := h.runs.Trigger(ctx)
	if err != nil {
		if errors.Is(err, orchestrator.ErrSchedulerStopped) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "autoscaler is shutting down"})
			return
		}
		logger.ErrorCtxf(ctx, "Manual run failed to start: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to start run"})
		return
	}

	statusCode := http.StatusOK
	if !result.Succeeded() {
		statusCode = http.StatusInternalServerError
	}

	c.JSON(statusCode, RunResponse{
		Status: result.Status(),
		Result: result,
	})
}

func (h *RunHandler) Last(c *gin.Context) {
	result := h.runs.LastResult()
	if result == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no run has completed yet"})
		return
	}

	c.JSON(http.StatusOK, RunResponse{
		Status: result.Status(),
		Result: result,
	})
}
