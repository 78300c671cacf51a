package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
)

// DB疎通
type Pinger interface {
	PingContext(ctx context.Context) error
}

type HealthHandler struct {
	db Pinger
}

func NewHealthHandler(db Pinger) *HealthHandler {
	return &HealthHandler{db: db}
}

type HealthResponse struct {
	Status string `json:"status"`
}

func (h *HealthHandler) RegisterRoutes(api *echo.Group) {
	api.GET("/health", h.health)
}

func (h *HealthHandler) health(c echo.Context) error {
	if h.db != nil {
		if err := h.db.PingContext(c.Request().Context()); err != nil {
			logInternal(c, err)
			return c.JSON(http.StatusServiceUnavailable, HealthResponse{Status: "db unavailable"})
		}
	}
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}
