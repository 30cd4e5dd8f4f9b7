package middleware

import (
	"context"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/taskdesk/todo-service/internal/core/domain"
	"github.com/taskdesk/todo-service/internal/core/ports"
)

// Context keys set by this package.
const (
	ClaimsKey  = "claims"
	SessionKey = "session"
)

// Authenticator verifies a bearer token against the live session store.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*ports.Claims, error)
}

// Auth validates the bearer token and injects its claims into the context.
// Browsers cannot set headers on EventSource requests, so GET requests may
// pass the token as the access_token query parameter instead.
func Auth(auth Authenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, ok := bearerToken(c)
			if !ok {
				return domain.ErrUnauthenticated
			}

			claims, err := auth.Authenticate(c.Request().Context(), raw)
			if err != nil {
				return err
			}

			c.Set(ClaimsKey, claims)
			return next(c)
		}
	}
}

func bearerToken(c echo.Context) (string, bool) {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if header == "" {
		if c.Request().Method == "GET" {
			if tok := c.QueryParam("access_token"); tok != "" {
				return tok, true
			}
		}
		return "", false
	}

	scheme, tok, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "bearer") || strings.TrimSpace(tok) == "" {
		return "", false
	}
	return strings.TrimSpace(tok), true
}

// ClaimsFrom returns the claims injected by Auth.
func ClaimsFrom(c echo.Context) (*ports.Claims, bool) {
	claims, ok := c.Get(ClaimsKey).(*ports.Claims)
	return claims, ok && claims != nil
}
