package apperr

import (
	"errors"
	"net/http"
)

type Kind int

const (
	KindInternal Kind = iota
	KindUnauthorized
	KindForbidden
	KindConflict
	KindBadRequest
	KindNotFound
	KindUnprocessable
	KindUnavailable
)

type Error struct {
	Kind    Kind
	Reason  string
	Message string
}

func (e *Error) Error() string {
	return e.Reason + ": " + e.Message
}

var (
	ErrNotAuthenticated   = &Error{Kind: KindUnauthorized, Reason: "not_authenticated", Message: "Not authenticated"}
	ErrInvalidCredentials = &Error{Kind: KindUnauthorized, Reason: "invalid_credentials", Message: "Could not validate credentials"}
	ErrNotConfirmed       = &Error{Kind: KindUnauthorized, Reason: "not_confirmed", Message: "Email is not confirmed"}
	ErrLoginFailed        = &Error{Kind: KindUnauthorized, Reason: "user_not_found", Message: "Incorrect username or password"}
	ErrAccessDenied       = &Error{Kind: KindForbidden, Reason: "access_denied", Message: "Access denied"}
	ErrEmailExists        = &Error{Kind: KindConflict, Reason: "email_exists", Message: "User with this email already exists"}
	ErrUsernameExists     = &Error{Kind: KindConflict, Reason: "username_exists", Message: "User with this username already exists"}
	ErrContactExists      = &Error{Kind: KindConflict, Reason: "contact_exists", Message: "Contact with this name already exists"}
	ErrVerification       = &Error{Kind: KindBadRequest, Reason: "verification_error", Message: "Verification error"}
	ErrUserNotFound       = &Error{Kind: KindBadRequest, Reason: "user_not_found", Message: "Incorrect username or password"}
	ErrContactNotFound    = &Error{Kind: KindNotFound, Reason: "contact_not_found", Message: "Contact not found"}
	ErrInvalidEmailToken  = &Error{Kind: KindUnprocessable, Reason: "invalid_email_token", Message: "Invalid token for email verification"}
	ErrValidation         = &Error{Kind: KindUnprocessable, Reason: "validation", Message: "Invalid request"}
	ErrInvalidBirthday    = &Error{Kind: KindUnprocessable, Reason: "invalid_birthday", Message: "Birthday cannot be in the future"}
	ErrInvalidDays        = &Error{Kind: KindUnprocessable, Reason: "invalid_days", Message: "Days must be between 0 and 366"}
	ErrAvatarTooLarge     = &Error{Kind: KindUnprocessable, Reason: "avatar_too_large", Message: "Avatar exceeds the 5 MiB limit"}
	ErrAvatarUnavailable  = &Error{Kind: KindUnavailable, Reason: "avatar_storage_disabled", Message: "Avatar storage is not configured"}
	ErrInternal           = &Error{Kind: KindInternal, Reason: "internal", Message: "Internal server error"}
	ErrDatabase           = &Error{Kind: KindInternal, Reason: "database", Message: "Error connecting to the database"}
)

// Status maps an error to the HTTP status it is surfaced with.
func Status(err error) int {
	var e *Error
	if !errors.As(err, &e) {
		return http.StatusInternalServerError
	}
	switch e.Kind {
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindConflict:
		return http.StatusConflict
	case KindBadRequest:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindUnprocessable:
		return http.StatusUnprocessableEntity
	case KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Message returns the caller-safe message. Non-taxonomy errors never leak.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return ErrInternal.Message
}

func Reason(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Reason
	}
	return ErrInternal.Reason
}
