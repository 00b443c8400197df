package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// HealthChecker reports whether the data store still accepts writes.
type HealthChecker interface {
	Healthy() error
}

// HealthHandler serves liveness and API info endpoints.
type HealthHandler struct {
	checker HealthChecker
	version string
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(checker HealthChecker, version string) *HealthHandler {
	return &HealthHandler{checker: checker, version: version}
}

// HealthResponse is the body of /health.
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// Health godoc
// @Summary Health check
// @Description Returns 503 once the data store has refused writes after a failed persist.
// @Tags system
// @Produce json
// @Success 200 {object} HealthResponse
// @Failure 503 {object} HealthResponse
// @Router /health [get]
func (h *HealthHandler) Health(c echo.Context) error {
	if err := h.checker.Healthy(); err != nil {
		return c.JSON(http.StatusServiceUnavailable, HealthResponse{Status: "degraded", Timestamp: time.Now().UTC()})
	}
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok", Timestamp: time.Now().UTC()})
}

// Info godoc
// @Summary API info
// @Tags system
// @Produce json
// @Success 200 {object} map[string]string
// @Router / [get]
func (h *HealthHandler) Info(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"message": "Exchange Desk API",
		"version": h.version,
	})
}
