package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/OldStager01/throughput-autoscaler/internal/logger"
	"github.com/OldStager01/throughput-autoscaler/pkg/config"
	"github.com/OldStager01/throughput-autoscaler/pkg/models"
)

// DecisionStore reads the audit journal.
// *queries.DecisionRepository implements it.
type DecisionStore interface {
	GetRecent(ctx context.Context, limit int) ([]*models.DecisionRecord, error)
	GetByResource(ctx context.Context, resourceID string, limit int) ([]*models.DecisionRecord, error)
	GetByRun(ctx context.Context, runID string) ([]*models.DecisionRecord, error)
}

type DecisionHandler struct {
	store  DecisionStore
	config *config.APIConfig
}

// NewDecisionHandler accepts a nil store when the journal is disabled
func NewDecisionHandler(store DecisionStore, cfg *config.APIConfig) *DecisionHandler {
	return &DecisionHandler{
		store:  store,
		config: cfg,
	}
}

type DecisionsResponse struct {
	Decisions []*models.DecisionRecord `json:"decisions"`
	Count     int                      `json:"count"`
}

func (h *DecisionHandler) getDefaultLimit() int {
	if h.config != nil && h.config.DefaultLimit > 0 {
		return h.config.DefaultLimit
	}
	return 20
}

func (h *DecisionHandler) getMaxLimit() int {
	if h.config != nil && h.config.MaxLimit > 0 {
		return h.config.MaxLimit
	}
	return 200
}

func (h *DecisionHandler) parseLimit(c *gin.Context) int {
	limit := h.getDefaultLimit()
	if raw := c.Query("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			limit = v
		}
	}
	return min(limit, h.getMaxLimit())
}

func (h *DecisionHandler) available(c *gin.Context) bool {
	if h.store == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "decision journal is disabled"})
		return false
	}
	return true
}

// List returns recent decisions, optionally for one resource
func (h *DecisionHandler) List(c *gin.Context) {
	if !h.available(c) {
		return
	}

	ctx := c.Request.Context()
	limit := h.parseLimit(c)

	var (
		records []*models.DecisionRecord
		err     error
	)
	if resourceID := c.Query("resource_id"); resourceID != "" {
		records, err = h.store.GetByResource(ctx, resourceID, limit)
	} else {
		records, err = h.store.GetRecent(ctx, limit)
	}
	if err != nil {
		logger.ErrorCtxf(ctx, "Failed to read decisions: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read decisions"})
		return
	}

	c.JSON(http.StatusOK, DecisionsResponse{Decisions: records, Count: len(records)})
}

func (h *DecisionHandler) ByRun(c *gin.Context) {
	if !h.available(c) {
		return
	}

	runID := c.Param("id")
	if !models.IsUUID(runID) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid run id"})
		return
	}

	ctx := c.Request.Context()
	records, err := h.store.GetByRun(ctx, runID)
	if err != nil {
		logger.ErrorCtxf(ctx, "Failed to read decisions for run %s: %v", runID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read decisions"})
		return
	}
	if len(records) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "run not found"})
		return
	}

	c.JSON(http.StatusOK, DecisionsResponse{Decisions: records, Count: len(records)})
}
