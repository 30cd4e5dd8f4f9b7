package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/taskdesk/todo-service/internal/api/middleware"
	"github.com/taskdesk/todo-service/internal/core/domain"
	"github.com/taskdesk/todo-service/internal/core/ports"
	"github.com/taskdesk/todo-service/internal/core/realtime"
)

// ctxSession returns the live session attached by the Session middleware.
// Its absence means the route was mounted without it; fail closed.
func ctxSession(c echo.Context) (*realtime.Session, error) {
	s, ok := middleware.SessionFrom(c)
	if !ok {
		return nil, domain.ErrUnauthenticated
	}
	return s, nil
}

// ctxIdentity is the cached identity of the caller's session.
func ctxIdentity(c echo.Context) (domain.Identity, error) {
	s, err := ctxSession(c)
	if err != nil {
		return domain.Identity{}, err
	}
	return s.Identity(), nil
}

func ctxClaims(c echo.Context) (*ports.Claims, error) {
	claims, ok := middleware.ClaimsFrom(c)
	if !ok {
		return nil, domain.ErrUnauthenticated
	}
	return claims, nil
}

// bindAndValidate decodes the body into req and runs its validate tags.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return errInvalidPayload
	}
	return c.Validate(req)
}
