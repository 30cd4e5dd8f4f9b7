package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/taskdesk/todo-service/internal/core/domain"
	"github.com/taskdesk/todo-service/internal/core/ports"
	"github.com/taskdesk/todo-service/internal/core/realtime"
)

type stubAuthenticator struct {
	claims *ports.Claims
	err    error
	got    string
}

func (s *stubAuthenticator) Authenticate(_ context.Context, token string) (*ports.Claims, error) {
	s.got = token
	return s.claims, s.err
}

type stubUsers struct {
	ports.UserRepository
	users map[string]*domain.User
}

func (s *stubUsers) FindByID(_ context.Context, id string) (*domain.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	clone := *u
	return &clone, nil
}

type emptySource struct{}

func (emptySource) Derive(context.Context, string) ([]domain.Notification, error) { return nil, nil }

type idleSub struct{ ch chan domain.TodoChange }

func (s idleSub) Events() <-chan domain.TodoChange { return s.ch }
func (s idleSub) Close() error                     { return nil }

type idleFeed struct{}

func (idleFeed) Subscribe(context.Context, string) (ports.Subscription, error) {
	return idleSub{ch: make(chan domain.TodoChange)}, nil
}

func newRegistry(t *testing.T, users ...*domain.User) *realtime.Registry {
	t.Helper()
	byID := make(map[string]*domain.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}
	reg := realtime.NewRegistry(context.Background(), &stubUsers{users: byID}, emptySource{}, idleFeed{}, zerolog.Nop())
	t.Cleanup(reg.Shutdown)
	return reg
}

func newContext(method, target string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func ok(c echo.Context) error { return c.NoContent(http.StatusOK) }
