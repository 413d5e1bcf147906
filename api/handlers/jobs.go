package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/machinemind/predictive-maintenance/internal/processor"
	"github.com/machinemind/predictive-maintenance/pkg/models"
)

// BatchRunner triggers one batch-processing pass.
type BatchRunner interface {
	Run(ctx context.Context) (*models.BatchResult, error)
	IsRunning() bool
}

// DataGenerator triggers one synthetic-data generation pass.
type DataGenerator interface {
	Run(ctx context.Context) (*models.GenerationResult, error)
}

type JobHandler struct {
	processor BatchRunner
	generator DataGenerator
}

func NewJobHandler(proc BatchRunner, gen DataGenerator) *JobHandler {
	return &JobHandler{processor: proc, generator: gen}
}

// RunBatch triggers an on-demand batch run outside the schedule. The
// run executes synchronously so the caller gets the full result.
func (h *JobHandler) RunBatch(c *gin.Context) {
	result, err := h.processor.Run(c.Request.Context())
	if err != nil {
		if errors.Is(err, processor.ErrAlreadyRunning) {
			c.JSON(http.StatusConflict, gin.H{"error": "batch processing already running"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "batch processing failed"})
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *JobHandler) RunGeneration(c *gin.Context) {
	if h.generator == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "data generation is disabled"})
		return
	}

	result, err := h.generator.Run(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "data generation failed"})
		return
	}

	c.JSON(http.StatusOK, result)
}

// Status reports whether a batch run is currently in flight.
func (h *JobHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"processing": h.processor.IsRunning(),
	})
}
