package middleware

import (
	"errors"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/taskdesk/todo-service/internal/core/domain"
	"github.com/taskdesk/todo-service/internal/core/ports"
)

func TestSessionMiddleware_RestoresMissingSession(t *testing.T) {
	reg := newRegistry(t, &domain.User{ID: "u1", Email: "a@example.com", Role: domain.RoleUser})
	c, _ := newContext(http.MethodGet, "/")
	c.Set(ClaimsKey, &ports.Claims{UserID: "u1", SessionID: "s1"})

	err := Session(reg)(func(c echo.Context) error {
		s, ok := SessionFrom(c)
		if !ok || s.ID() != "s1" || s.Identity().UserID != "u1" {
			t.Fatalf("session not attached")
		}
		return nil
	})(c)
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if reg.Len() != 1 {
		t.Fatalf("expected 1 live session, got %d", reg.Len())
	}
}

func TestSessionMiddleware_ReusesLiveSession(t *testing.T) {
	reg := newRegistry(t, &domain.User{ID: "u1", Role: domain.RoleUser})
	existing, err := reg.Open(t.Context(), "s1", "u1")
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	c, _ := newContext(http.MethodGet, "/")
	c.Set(ClaimsKey, &ports.Claims{UserID: "u1", SessionID: "s1"})
	_ = Session(reg)(func(c echo.Context) error {
		if s, _ := SessionFrom(c); s != existing {
			t.Fatalf("expected the live session to be reused")
		}
		return nil
	})(c)
}

func TestSessionMiddleware_UnknownUser(t *testing.T) {
	reg := newRegistry(t)
	c, _ := newContext(http.MethodGet, "/")
	c.Set(ClaimsKey, &ports.Claims{UserID: "ghost", SessionID: "s1"})

	err := Session(reg)(ok)(c)
	if !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestSessionMiddleware_RequiresClaims(t *testing.T) {
	c, _ := newContext(http.MethodGet, "/")
	err := Session(newRegistry(t))(ok)(c)
	if !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}
