package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/machinemind/predictive-maintenance/pkg/database/queries"
)

type PredictionHandler struct {
	predictionRepo *queries.PredictionRepository
	machineRepo    *queries.MachineRepository
}

func NewPredictionHandler(predictionRepo *queries.PredictionRepository, machineRepo *queries.MachineRepository) *PredictionHandler {
	return &PredictionHandler{
		predictionRepo: predictionRepo,
		machineRepo:    machineRepo,
	}
}

func (h *PredictionHandler) List(c *gin.Context) {
	params, ok := parsePagination(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	page, err := h.predictionRepo.List(ctx, params)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch predictions"})
		return
	}

	c.JSON(http.StatusOK, pageResponse(page))
}

func (h *PredictionHandler) ListByMachine(c *gin.Context) {
	params, ok := parsePagination(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	machineID := c.Param("id")
	if _, err := h.machineRepo.GetByID(ctx, machineID); err != nil {
		if err == queries.ErrMachineNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "machine not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch machine"})
		return
	}

	page, err := h.predictionRepo.ListByMachine(ctx, machineID, params)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch predictions"})
		return
	}

	c.JSON(http.StatusOK, pageResponse(page))
}

func (h *PredictionHandler) ListFailures(c *gin.Context) {
	params, ok := parsePagination(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	page, err := h.predictionRepo.ListFailures(ctx, params)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch predictions"})
		return
	}

	c.JSON(http.StatusOK, pageResponse(page))
}

func (h *PredictionHandler) Get(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	prediction, err := h.predictionRepo.GetByID(ctx, c.Param("id"))
	if err != nil {
		if err == queries.ErrPredictionNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "prediction not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch prediction"})
		return
	}

	c.JSON(http.StatusOK, prediction)
}

func (h *PredictionHandler) GetByReading(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	prediction, err := h.predictionRepo.GetByReadingID(ctx, c.Param("id"))
	if err != nil {
		if err == queries.ErrPredictionNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "no prediction for this reading"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch prediction"})
		return
	}

	c.JSON(http.StatusOK, prediction)
}
