package httpserver

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/Skotchmaster/contacts_api/internal/apperr"
)

func itoa(id uint) string { return strconv.FormatUint(uint64(id), 10) }

func TestErrorHandler(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		detail string
	}{
		{"taxonomy", apperr.ErrContactNotFound, http.StatusNotFound, "Contact not found"},
		{"wrapped taxonomy", fmt.Errorf("lookup: %w", apperr.ErrEmailExists), http.StatusConflict, "User with this email already exists"},
		{"echo error", echo.NewHTTPError(http.StatusBadRequest, "Invalid request body"), http.StatusBadRequest, "Invalid request body"},
		{"echo 5xx hides text", echo.NewHTTPError(http.StatusBadGateway, "upstream says no"), http.StatusBadGateway, "Internal server error"},
		{"unknown", errors.New("pq: connection refused"), http.StatusInternalServerError, "Internal server error"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := echo.New()
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

			ErrorHandler(tc.err, c)

			assert.Equal(t, tc.status, rec.Code)
			assert.JSONEq(t, `{"detail":"`+tc.detail+`"}`, rec.Body.String())
		})
	}
}

func TestErrorHandlerUnauthorizedHeader(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

	ErrorHandler(apperr.ErrInvalidCredentials, c)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Bearer", rec.Header().Get(echo.HeaderWWWAuthenticate))
}
