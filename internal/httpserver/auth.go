package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/contacts_api/internal/logging"
	"github.com/Skotchmaster/contacts_api/internal/service"
)

type AuthHTTP struct {
	Svc *service.AuthService
}

// baseURL is where links in outgoing emails point back to.
func baseURL(c echo.Context) string {
	return c.Scheme() + "://" + c.Request().Host + "/"
}

func (h *AuthHTTP) Register(c echo.Context) error {
	ctx := c.Request().Context()
	var req registerRequest
	if err := bind(c, &req); err != nil {
		logging.FromContext(ctx).Warn("register_error", "handler", "auth_register", "error", err)
		return err
	}

	user, err := h.Svc.Register(ctx, service.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	}, baseURL(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toUserResponse(user))
}

func (h *AuthHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	var req loginRequest
	if err := bind(c, &req); err != nil {
		logging.FromContext(ctx).Warn("login_error", "handler", "auth_login", "error", err)
		return err
	}

	res, err := h.Svc.Login(ctx, req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, tokenResponse{AccessToken: res.AccessToken, TokenType: res.TokenType})
}

func (h *AuthHTTP) RequestEmail(c echo.Context) error {
	var req emailRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	msg, err := h.Svc.RequestEmail(c.Request().Context(), req.Email, baseURL(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, messageResponse{Message: msg})
}

func (h *AuthHTTP) ConfirmEmail(c echo.Context) error {
	msg, err := h.Svc.ConfirmEmail(c.Request().Context(), c.Param("token"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: msg})
}

func (h *AuthHTTP) ResetPassword(c echo.Context) error {
	var req emailRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	msg, err := h.Svc.RequestPasswordReset(c.Request().Context(), req.Email, baseURL(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, messageResponse{Message: msg})
}

// UpdatePassword accepts the new password either in the body or as ?new_password=.
func (h *AuthHTTP) UpdatePassword(c echo.Context) error {
	var req updatePasswordRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if req.NewPassword == "" {
		req.NewPassword = c.QueryParam("new_password")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	msg, err := h.Svc.UpdatePassword(c.Request().Context(), c.Param("token"), req.NewPassword)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: msg})
}
