package auth

import (
	"context"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/contacts_api/internal/apperr"
	"github.com/Skotchmaster/contacts_api/internal/logging"
	"github.com/Skotchmaster/contacts_api/internal/models"
	"github.com/Skotchmaster/contacts_api/internal/service"
)

const currentUserKey = "current_user"

type Resolver interface {
	ResolveCurrentUser(ctx context.Context, bearer string) (*models.User, error)
}

func bearerToken(c echo.Context) (string, bool) {
	h := c.Request().Header.Get(echo.HeaderAuthorization)
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// RequireAuth resolves the bearer token and stores the user on the context.
func RequireAuth(r Resolver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, ok := bearerToken(c)
			if !ok {
				return apperr.ErrNotAuthenticated
			}

			ctx := c.Request().Context()
			user, err := r.ResolveCurrentUser(ctx, token)
			if err != nil {
				return err
			}

			l := logging.FromContext(ctx).With("user_id", user.ID)
			c.SetRequest(c.Request().WithContext(logging.IntoContext(ctx, l)))
			c.Set(currentUserKey, user)
			return next(c)
		}
	}
}

// RequireRole must run after RequireAuth.
func RequireRole(role models.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if _, err := service.RequireRole(CurrentUser(c), role); err != nil {
				logging.FromContext(c.Request().Context()).Warn("access_denied", "status", 403, "required_role", string(role))
				return err
			}
			return next(c)
		}
	}
}

func CurrentUser(c echo.Context) *models.User {
	u, _ := c.Get(currentUserKey).(*models.User)
	return u
}
