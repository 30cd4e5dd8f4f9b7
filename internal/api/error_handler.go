package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/taskdesk/todo-service/internal/api/handler"
	"github.com/taskdesk/todo-service/internal/core/domain"
)

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Error  string   `json:"error"`
	Fields []string `json:"fields,omitempty"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps known domain errors to their HTTP status codes.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders a consistent JSON envelope: {"error": "<message>"}.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, body := resolveError(err, log, c)
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, body)
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, errorResponse) {
	// Echo's own errors (bind failures, 404 from router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, errorResponse{Error: fmt.Sprintf("%v", he.Message)}
	}

	var ve *handler.ValidationError
	if errors.As(err, &ve) {
		return http.StatusUnprocessableEntity, errorResponse{Error: "validation failed", Fields: ve.Fields}
	}

	switch {
	case errors.Is(err, domain.ErrInvalidTodo),
		errors.Is(err, domain.ErrInvalidAvatar),
		errors.Is(err, domain.ErrInvalidProfile),
		errors.Is(err, domain.ErrInvalidRole):
		return http.StatusUnprocessableEntity, errorResponse{Error: err.Error()}
	case errors.Is(err, domain.ErrInvalidQuery):
		return http.StatusBadRequest, errorResponse{Error: err.Error()}

	case errors.Is(err, domain.ErrInvalidResetToken):
		return http.StatusUnauthorized, errorResponse{Error: domain.ErrInvalidResetToken.Error()}
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, errorResponse{Error: err.Error()}
	case errors.Is(err, domain.ErrUnauthenticated),
		errors.Is(err, domain.ErrSessionNotFound),
		errors.Is(err, domain.ErrMissingOwner):
		return http.StatusUnauthorized, errorResponse{Error: domain.ErrUnauthenticated.Error()}
	case errors.Is(err, domain.ErrFederationDisabled):
		return http.StatusNotImplemented, errorResponse{Error: err.Error()}

	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, errorResponse{Error: domain.ErrForbidden.Error()}

	case errors.Is(err, domain.ErrTodoNotFound):
		return http.StatusNotFound, errorResponse{Error: domain.ErrTodoNotFound.Error()}
	case errors.Is(err, domain.ErrUserNotFound):
		return http.StatusNotFound, errorResponse{Error: domain.ErrUserNotFound.Error()}
	case errors.Is(err, domain.ErrUserExists):
		return http.StatusConflict, errorResponse{Error: domain.ErrUserExists.Error()}

	case errors.Is(err, domain.ErrTodosUnavailable):
		return http.StatusInternalServerError, errorResponse{Error: domain.ErrTodosUnavailable.Error()}
	case errors.Is(err, domain.ErrNotificationsUnavailable):
		return http.StatusInternalServerError, errorResponse{Error: domain.ErrNotificationsUnavailable.Error()}
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, errorResponse{Error: "internal server error"}
}
