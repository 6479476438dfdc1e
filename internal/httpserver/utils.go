package httpserver

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/contacts_api/internal/apperr"
	"github.com/Skotchmaster/contacts_api/internal/logging"
)

const (
	welcomeMessage = "Welcome to the Contacts API!"
	healthyMessage = "App is healthy"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type UtilsHTTP struct {
	DB Pinger
}

func (h *UtilsHTTP) Welcome(c echo.Context) error {
	return c.JSON(http.StatusOK, messageResponse{Message: welcomeMessage})
}

func (h *UtilsHTTP) Healthchecker(c echo.Context) error {
	ctx := c.Request().Context()
	if err := h.DB.Ping(ctx); err != nil {
		logging.FromContext(ctx).Error("healthcheck_failed", "status", 500, "error", err)
		return apperr.ErrDatabase
	}
	return c.JSON(http.StatusOK, messageResponse{Message: healthyMessage})
}

func (h *UtilsHTTP) Ready(c echo.Context) error {
	if err := h.DB.Ping(c.Request().Context()); err != nil {
		return c.NoContent(http.StatusServiceUnavailable)
	}
	return c.NoContent(http.StatusOK)
}
