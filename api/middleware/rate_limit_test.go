package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/machinemind/predictive-maintenance/internal/ratelimit"
)

func rateLimitTestRouter(mw gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/ping", mw, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	return r
}

func TestRateLimitAllowsWithinBudget(t *testing.T) {
	r := rateLimitTestRouter(RateLimit(ratelimit.New(3, time.Minute)))

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	}
}

func TestRateLimitRejectsOverBudget(t *testing.T) {
	r := rateLimitTestRouter(RateLimit(ratelimit.New(2, time.Minute)))

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), "retry_after")
}

func TestEndpointRateLimiterOnlyLimitsConfiguredPath(t *testing.T) {
	erl := NewEndpointRateLimiter()
	erl.AddEndpoint("/jobs/process", 1, time.Minute)

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(erl.Middleware())
	r.POST("/jobs/process", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/machines", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/jobs/process", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/jobs/process", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	// Unconfigured routes stay unaffected.
	for i := 0; i < 5; i++ {
		w = httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/machines", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	}
}
