package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/taskdesk/todo-service/internal/api/middleware"
	"github.com/taskdesk/todo-service/internal/core/domain"
	"github.com/taskdesk/todo-service/internal/core/ports"
	"github.com/taskdesk/todo-service/internal/core/realtime"
)

type stubAuth struct {
	ports.AuthService
	tokens map[string]*ports.Claims
}

func (s *stubAuth) Authenticate(_ context.Context, token string) (*ports.Claims, error) {
	c, ok := s.tokens[token]
	if !ok {
		return nil, domain.ErrUnauthenticated
	}
	return c, nil
}

func (s *stubAuth) Login(context.Context, string, string) (*ports.AuthResult, error) {
	return nil, domain.ErrInvalidCredentials
}

type stubTodos struct {
	ports.TodoService
	owners []string
}

func (s *stubTodos) List(_ context.Context, in ports.ListTodosInput) (*ports.TodoPage, error) {
	s.owners = append(s.owners, in.OwnerID)
	return &ports.TodoPage{Items: []*domain.Todo{}, Page: 1}, nil
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

type noNotifications struct{}

func (noNotifications) Derive(context.Context, string) ([]domain.Notification, error) { return nil, nil }

type idleSub struct{ ch chan domain.TodoChange }

func (s idleSub) Events() <-chan domain.TodoChange { return s.ch }
func (s idleSub) Close() error                     { return nil }

type idleFeed struct{}

func (idleFeed) Subscribe(context.Context, string) (ports.Subscription, error) {
	return idleSub{ch: make(chan domain.TodoChange)}, nil
}

type routerFixture struct {
	server http.Handler
	todos  *stubTodos
}

func newRouterFixture(t *testing.T) *routerFixture {
	t.Helper()
	users := &stubUsers{users: map[string]*domain.User{
		"u-alice": {ID: "u-alice", Email: "alice@example.com", Role: domain.RoleUser},
	}}
	registry := realtime.NewRegistry(context.Background(), users, noNotifications{}, idleFeed{}, zerolog.Nop())
	t.Cleanup(registry.Shutdown)

	todos := &stubTodos{}
	e := NewRouter(Deps{
		Auth: &stubAuth{tokens: map[string]*ports.Claims{
			"alice-token": {UserID: "u-alice", SessionID: "s-alice"},
		}},
		Todos:          todos,
		Sessions:       registry,
		Location:       time.UTC,
		AllowedOrigins: []string{"*"},
		AuthLimiter:    middleware.NewRateLimiter(rate.Every(time.Hour), 1),
		Log:            zerolog.Nop(),
		Metrics:        prometheus.NewRegistry(),
	})
	return &routerFixture{server: e, todos: todos}
}

func (f *routerFixture) do(method, target, token, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.server.ServeHTTP(rec, req)
	return rec
}

func TestRouter_PublicEndpoints(t *testing.T) {
	f := newRouterFixture(t)

	if rec := f.do(http.MethodGet, "/health", "", ""); rec.Code != http.StatusOK {
		t.Fatalf("health: expected 200, got %d", rec.Code)
	}
	if rec := f.do(http.MethodGet, "/health/ready", "", ""); rec.Code != http.StatusOK {
		t.Fatalf("ready: expected 200, got %d", rec.Code)
	}
	if rec := f.do(http.MethodGet, "/metrics", "", ""); rec.Code != http.StatusOK {
		t.Fatalf("metrics: expected 200, got %d", rec.Code)
	}
}

func TestRouter_RequiresToken(t *testing.T) {
	f := newRouterFixture(t)

	rec := f.do(http.MethodGet, "/v1/todos", "", "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "authentication required") {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}

	if rec := f.do(http.MethodGet, "/v1/todos", "forged", ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for unknown token, got %d", rec.Code)
	}
}

func TestRouter_ListTodosScopedToCaller(t *testing.T) {
	f := newRouterFixture(t)

	rec := f.do(http.MethodGet, "/v1/todos?filter=all", "alice-token", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(f.todos.owners) != 1 || f.todos.owners[0] != "u-alice" {
		t.Fatalf("expected one listing for u-alice, got %v", f.todos.owners)
	}
}

func TestRouter_AdminRoutesForbiddenForUsers(t *testing.T) {
	f := newRouterFixture(t)

	if rec := f.do(http.MethodGet, "/v1/admin/users/count", "alice-token", ""); rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
	if rec := f.do(http.MethodPut, "/v1/admin/users/u-alice/role", "alice-token", `{"role":"admin"}`); rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestRouter_AuthRoutesRateLimited(t *testing.T) {
	f := newRouterFixture(t)
	body := `{"email":"alice@example.com","password":"wrong"}`

	if rec := f.do(http.MethodPost, "/auth/login", "", body); rec.Code != http.StatusUnauthorized {
		t.Fatalf("first attempt: expected 401, got %d", rec.Code)
	}
	if rec := f.do(http.MethodPost, "/auth/login", "", body); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second attempt: expected 429, got %d", rec.Code)
	}
}
