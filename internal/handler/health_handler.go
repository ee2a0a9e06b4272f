package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// HealthHandler reports liveness
type HealthHandler struct {
	service string
}

// NewHealthHandler creates a health handler for the named service
func NewHealthHandler(service string) *HealthHandler {
	return &HealthHandler{service: service}
}

// HealthCheck handles the health check endpoint
func (h *HealthHandler) HealthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"status":  "healthy",
		"service": h.service,
	})
}
