package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/taskdesk/todo-service/internal/core/domain"
)

// RequireCapability enforces that the session's cached role holds action.
// Denials are silent: the caller gets a generic 403.
func RequireCapability(action domain.Action) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			s, ok := SessionFrom(c)
			if !ok {
				return domain.ErrUnauthenticated
			}
			if !domain.Can(s.Identity().Role, action) {
				return domain.ErrForbidden
			}
			return next(c)
		}
	}
}
