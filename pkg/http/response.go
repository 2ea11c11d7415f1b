package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/cozydenis/auth-lab/internal/domain"
)

type Error struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

type ErrorResponse struct {
	Error   Error  `json:"error"`
	TraceID string `json:"trace_id"`
}

type Response struct {
	Data interface{} `json:"data,omitempty"`
}

func JSON(c echo.Context, status int, data interface{}) error {
	return c.JSON(status, Response{Data: data})
}

func ErrorJSON(c echo.Context, status int, code, message, traceID string, details interface{}) error {
	return c.JSON(status, ErrorResponse{Error: Error{Code: code, Message: message, Details: details}, TraceID: traceID})
}

// Fail maps a domain error onto the wire taxonomy. Anything outside the
// taxonomy is surfaced as a generic internal_error with no detail; the
// caller is responsible for logging the real cause server-side.
func Fail(c echo.Context, err error, traceID string) error {
	status, code, message := classify(err)
	return ErrorJSON(c, status, code, message, traceID, nil)
}

// IsInternal reports whether Fail would hide err behind a generic message.
func IsInternal(err error) bool {
	status, _, _ := classify(err)
	return status == http.StatusInternalServerError
}

func classify(err error) (int, string, string) {
	var ve *domain.ValidationError
	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest, "validation_error", ve.Error()
	case errors.Is(err, domain.ErrEmailTaken):
		return http.StatusConflict, "email_taken", domain.ErrEmailTaken.Error()
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid_credentials", domain.ErrInvalidCredentials.Error()
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, "unauthorized", domain.ErrUnauthorized.Error()
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, "forbidden", domain.ErrForbidden.Error()
	case errors.Is(err, domain.ErrNoProviderEmail):
		return http.StatusBadRequest, "no_email_from_provider", domain.ErrNoProviderEmail.Error()
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "not_found", domain.ErrNotFound.Error()
	default:
		return http.StatusInternalServerError, "internal_error", "internal error"
	}
}
