package middleware

import (
	"context"

	"github.com/labstack/echo/v4"

	"github.com/taskdesk/todo-service/internal/core/domain"
	"github.com/taskdesk/todo-service/internal/core/realtime"
)

// SessionProvider resolves the live session of a request.
type SessionProvider interface {
	Get(sid string) (*realtime.Session, bool)
	Open(ctx context.Context, sid, userID string) (*realtime.Session, error)
}

// Session attaches the caller's live session. A session that is valid in the
// shared store but unknown to this process (restart, another instance
// signed in) is opened on first use. Must run after Auth.
func Session(sessions SessionProvider) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, ok := ClaimsFrom(c)
			if !ok {
				return domain.ErrUnauthenticated
			}

			s, found := sessions.Get(claims.SessionID)
			if !found {
				var err error
				s, err = sessions.Open(c.Request().Context(), claims.SessionID, claims.UserID)
				if err != nil {
					return err
				}
			}

			c.Set(SessionKey, s)
			return next(c)
		}
	}
}

// SessionFrom returns the session attached by Session.
func SessionFrom(c echo.Context) (*realtime.Session, bool) {
	s, ok := c.Get(SessionKey).(*realtime.Session)
	return s, ok && s != nil
}
