package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/contacts_api/internal/apperr"
	"github.com/Skotchmaster/contacts_api/internal/models"
)

type stubResolver struct {
	users map[string]*models.User
	calls int
}

func (s *stubResolver) ResolveCurrentUser(_ context.Context, bearer string) (*models.User, error) {
	s.calls++
	if u, ok := s.users[bearer]; ok {
		return u, nil
	}
	return nil, apperr.ErrInvalidCredentials
}

func newStub() *stubResolver {
	return &stubResolver{users: map[string]*models.User{
		"user-token":  {ID: 1, Username: "joe", Role: models.RoleUser},
		"admin-token": {ID: 2, Username: "root", Role: models.RoleAdmin},
	}}
}

func run(t *testing.T, mw []echo.MiddlewareFunc, authz string) (*echo.Echo, echo.Context, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authz != "" {
		req.Header.Set(echo.HeaderAuthorization, authz)
	}
	c := e.NewContext(req, httptest.NewRecorder())

	h := func(c echo.Context) error { return c.NoContent(http.StatusOK) }
	for i := len(mw) - 1; i >= 0; i-- {
		h = mw[i](h)
	}
	return e, c, h(c)
}

func TestRequireAuth(t *testing.T) {
	stub := newStub()

	_, c, err := run(t, []echo.MiddlewareFunc{RequireAuth(stub)}, "Bearer user-token")
	require.NoError(t, err)
	require.NotNil(t, CurrentUser(c))
	assert.Equal(t, "joe", CurrentUser(c).Username)

	_, _, err = run(t, []echo.MiddlewareFunc{RequireAuth(stub)}, "bearer user-token")
	assert.NoError(t, err)

	_, _, err = run(t, []echo.MiddlewareFunc{RequireAuth(stub)}, "")
	assert.ErrorIs(t, err, apperr.ErrNotAuthenticated)

	_, _, err = run(t, []echo.MiddlewareFunc{RequireAuth(stub)}, "Basic dXNlcjpwdw==")
	assert.ErrorIs(t, err, apperr.ErrNotAuthenticated)

	_, _, err = run(t, []echo.MiddlewareFunc{RequireAuth(stub)}, "Bearer nope")
	assert.ErrorIs(t, err, apperr.ErrInvalidCredentials)
}

func TestRequireRole(t *testing.T) {
	stub := newStub()
	chain := []echo.MiddlewareFunc{RequireAuth(stub), RequireRole(models.RoleAdmin)}

	_, _, err := run(t, chain, "Bearer admin-token")
	assert.NoError(t, err)

	_, _, err = run(t, chain, "Bearer user-token")
	assert.ErrorIs(t, err, apperr.ErrAccessDenied)

	_, _, err = run(t, []echo.MiddlewareFunc{RequireRole(models.RoleAdmin)}, "")
	assert.ErrorIs(t, err, apperr.ErrAccessDenied)
}
