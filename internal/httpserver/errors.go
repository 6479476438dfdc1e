package httpserver

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/contacts_api/internal/apperr"
	"github.com/Skotchmaster/contacts_api/internal/logging"
)

type fieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
	Param string `json:"param,omitempty"`
}

// ErrorHandler renders every error as {"detail": ...}. Unknown errors never
// leak their text to the caller.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var (
		status = http.StatusInternalServerError
		detail any
		ae     *apperr.Error
		he     *echo.HTTPError
		ve     validator.ValidationErrors
	)

	switch {
	case errors.As(err, &ve):
		status = http.StatusUnprocessableEntity
		fields := make([]fieldError, 0, len(ve))
		for _, fe := range ve {
			fields = append(fields, fieldError{Field: fe.Field(), Rule: fe.Tag(), Param: fe.Param()})
		}
		detail = fields
	case errors.As(err, &ae):
		status = apperr.Status(ae)
		detail = ae.Message
	case errors.As(err, &he):
		status = he.Code
		detail = he.Message
		if status >= 500 {
			detail = apperr.ErrInternal.Message
		}
	default:
		logging.FromContext(c.Request().Context()).Error("unhandled_error", "error", err)
		detail = apperr.ErrInternal.Message
	}

	if status == http.StatusUnauthorized {
		c.Response().Header().Set(echo.HeaderWWWAuthenticate, "Bearer")
	}

	var werr error
	if c.Request().Method == http.MethodHead {
		werr = c.NoContent(status)
	} else {
		werr = c.JSON(status, echo.Map{"detail": detail})
	}
	if werr != nil {
		logging.FromContext(c.Request().Context()).Error("error_response_failed", "error", werr)
	}
}
