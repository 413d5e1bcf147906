package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/machinemind/predictive-maintenance/internal/classifier"
	"github.com/machinemind/predictive-maintenance/pkg/database"
)

// ClassifierChecker probes the external classifier service.
type ClassifierChecker interface {
	CheckHealth(ctx context.Context) (classifier.HealthStatus, error)
}

type HealthHandler struct {
	db         *database.DB
	classifier ClassifierChecker
}

func NewHealthHandler(db *database.DB, classifier ClassifierChecker) *HealthHandler {
	return &HealthHandler{db: db, classifier: classifier}
}

type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	checks := make(map[string]string)
	status := "healthy"

	if err := h.db.HealthCheck(ctx); err != nil {
		checks["database"] = "unhealthy: " + err.Error()
		status = "unhealthy"
	} else {
		checks["database"] = "healthy"
	}

	if h.classifier != nil {
		health, err := h.classifier.CheckHealth(ctx)
		switch {
		case err != nil:
			// The classifier being down degrades the pipeline but the
			// API itself keeps serving.
			checks["classifier"] = "unreachable: " + err.Error()
			if status == "healthy" {
				status = "degraded"
			}
		case !health.Ready():
			checks["classifier"] = "models not loaded"
			if status == "healthy" {
				status = "degraded"
			}
		default:
			checks["classifier"] = "healthy"
		}
	}

	statusCode := http.StatusOK
	if status == "unhealthy" {
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
	})
}

func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := h.db.HealthCheck(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, HealthResponse{
			Status:    "not ready",
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		})
		return
	}

	c.JSON(http.StatusOK, HealthResponse{
		Status:    "ready",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:    "alive",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}
