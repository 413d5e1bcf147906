package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/machinemind/predictive-maintenance/pkg/database/queries"
	"github.com/machinemind/predictive-maintenance/pkg/models"
)

type ReadingHandler struct {
	readingRepo *queries.ReadingRepository
	machineRepo *queries.MachineRepository
}

func NewReadingHandler(readingRepo *queries.ReadingRepository, machineRepo *queries.MachineRepository) *ReadingHandler {
	return &ReadingHandler{
		readingRepo: readingRepo,
		machineRepo: machineRepo,
	}
}

type CreateReadingRequest struct {
	MachineID           string  `json:"machine_id" binding:"required,uuid"`
	AirTemperatureK     float64 `json:"air_temperature_k" binding:"required,gt=0"`
	ProcessTemperatureK float64 `json:"process_temperature_k" binding:"required,gt=0"`
	RotationalSpeedRPM  int     `json:"rotational_speed_rpm" binding:"required,gt=0"`
	TorqueNm            float64 `json:"torque_nm" binding:"required,gt=0"`
	ToolWearMin         *int    `json:"tool_wear_min" binding:"required,min=0"`
}

func (h *ReadingHandler) List(c *gin.Context) {
	params, ok := parsePagination(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	page, err := h.readingRepo.List(ctx, params)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch readings"})
		return
	}

	c.JSON(http.StatusOK, pageResponse(page))
}

func (h *ReadingHandler) ListByMachine(c *gin.Context) {
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

	page, err := h.readingRepo.ListByMachine(ctx, machineID, params)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch readings"})
		return
	}

	c.JSON(http.StatusOK, pageResponse(page))
}

func (h *ReadingHandler) ListUnprocessed(c *gin.Context) {
	params, ok := parsePagination(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	page, err := h.readingRepo.ListUnprocessed(ctx, params)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch readings"})
		return
	}

	c.JSON(http.StatusOK, pageResponse(page))
}

func (h *ReadingHandler) Get(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	reading, err := h.readingRepo.GetByID(ctx, c.Param("id"))
	if err != nil {
		if err == queries.ErrReadingNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "reading not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch reading"})
		return
	}

	c.JSON(http.StatusOK, reading)
}

func (h *ReadingHandler) Create(c *gin.Context) {
	var req CreateReadingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if _, err := h.machineRepo.GetByID(ctx, req.MachineID); err != nil {
		if err == queries.ErrMachineNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "machine not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch machine"})
		return
	}

	reading := &models.SensorReading{
		MachineID:           req.MachineID,
		AirTemperatureK:     req.AirTemperatureK,
		ProcessTemperatureK: req.ProcessTemperatureK,
		RotationalSpeedRPM:  req.RotationalSpeedRPM,
		TorqueNm:            req.TorqueNm,
		ToolWearMin:         *req.ToolWearMin,
	}

	if err := h.readingRepo.Create(ctx, reading); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create reading"})
		return
	}

	c.JSON(http.StatusCreated, reading)
}
