package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/contacts_api/internal/apperr"
	"github.com/Skotchmaster/contacts_api/internal/logging"
	authmw "github.com/Skotchmaster/contacts_api/internal/middleware/auth"
	"github.com/Skotchmaster/contacts_api/internal/service"
)

type UsersHTTP struct {
	Svc *service.UserService
}

func (h *UsersHTTP) Me(c echo.Context) error {
	user := authmw.CurrentUser(c)
	if user == nil {
		return apperr.ErrNotAuthenticated
	}
	return c.JSON(http.StatusOK, toUserResponse(user))
}

func (h *UsersHTTP) UpdateAvatar(c echo.Context) error {
	ctx := c.Request().Context()
	user := authmw.CurrentUser(c)
	if user == nil {
		return apperr.ErrNotAuthenticated
	}

	fh, err := c.FormFile("file")
	if err != nil {
		logging.FromContext(ctx).Warn("update_avatar_failed", "status", 422, "reason", "missing file", "error", err)
		return apperr.ErrValidation
	}
	f, err := fh.Open()
	if err != nil {
		return err
	}
	defer f.Close()

	updated, err := h.Svc.UpdateAvatar(ctx, user, fh.Header.Get(echo.HeaderContentType), f)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toUserResponse(updated))
}
