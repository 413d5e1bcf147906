package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/machinemind/predictive-maintenance/pkg/database/queries"
	"github.com/machinemind/predictive-maintenance/pkg/models"
	"github.com/machinemind/predictive-maintenance/pkg/validation"
)

type MachineHandler struct {
	machineRepo *queries.MachineRepository
}

func NewMachineHandler(machineRepo *queries.MachineRepository) *MachineHandler {
	return &MachineHandler{machineRepo: machineRepo}
}

type CreateMachineRequest struct {
	Code     string                 `json:"code" binding:"required"`
	Name     string                 `json:"name" binding:"required,min=1,max=100"`
	Type     string                 `json:"type" binding:"required,oneof=L M H"`
	Location string                 `json:"location"`
	Metadata map[string]interface{} `json:"metadata"`
}

func (h *MachineHandler) List(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	machines, err := h.machineRepo.List(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch machines"})
		return
	}

	if machines == nil {
		machines = []*models.Machine{}
	}

	c.JSON(http.StatusOK, gin.H{
		"machines": machines,
		"count":    len(machines),
	})
}

func (h *MachineHandler) Get(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	machine, err := h.machineRepo.GetByID(ctx, c.Param("id"))
	if err != nil {
		if err == queries.ErrMachineNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "machine not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch machine"})
		return
	}

	c.JSON(http.StatusOK, machine)
}

func (h *MachineHandler) Create(c *gin.Context) {
	var req CreateMachineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := validation.ValidateMachineCode(req.Code); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	machine := &models.Machine{
		Code:     req.Code,
		Name:     validation.SanitizeString(req.Name),
		Type:     models.MachineType(req.Type),
		Location: validation.SanitizeString(req.Location),
		Status:   models.MachineStatusActive,
		Metadata: req.Metadata,
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := h.machineRepo.Create(ctx, machine); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create machine"})
		return
	}

	c.JSON(http.StatusCreated, machine)
}
