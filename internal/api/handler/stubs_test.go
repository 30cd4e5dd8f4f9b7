package handler

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/taskdesk/todo-service/internal/api/middleware"
	"github.com/taskdesk/todo-service/internal/core/domain"
	"github.com/taskdesk/todo-service/internal/core/ports"
	"github.com/taskdesk/todo-service/internal/core/realtime"
)

// --- services ---

type stubAuthService struct {
	ports.AuthService
	registerFn func(ctx context.Context, in ports.RegisterInput) (*domain.User, error)
	loginFn    func(ctx context.Context, email, password string) (*ports.AuthResult, error)
	logoutFn   func(ctx context.Context, claims ports.Claims) error
	resetFn    func(ctx context.Context, email string) error
}

func (s *stubAuthService) Register(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
	return s.registerFn(ctx, in)
}

func (s *stubAuthService) Login(ctx context.Context, email, password string) (*ports.AuthResult, error) {
	return s.loginFn(ctx, email, password)
}

func (s *stubAuthService) Logout(ctx context.Context, claims ports.Claims) error {
	return s.logoutFn(ctx, claims)
}

func (s *stubAuthService) RequestPasswordReset(ctx context.Context, email string) error {
	return s.resetFn(ctx, email)
}

type stubTodoService struct {
	ports.TodoService
	listFn   func(ctx context.Context, in ports.ListTodosInput) (*ports.TodoPage, error)
	createFn func(ctx context.Context, ownerID string, in ports.TodoInput) (*domain.Todo, error)
	toggleFn func(ctx context.Context, ownerID, id string, completed bool) (*domain.Todo, error)
	statsFn  func(ctx context.Context, ownerID string) (ports.TodoStats, error)
}

func (s *stubTodoService) List(ctx context.Context, in ports.ListTodosInput) (*ports.TodoPage, error) {
	return s.listFn(ctx, in)
}

func (s *stubTodoService) Create(ctx context.Context, ownerID string, in ports.TodoInput) (*domain.Todo, error) {
	return s.createFn(ctx, ownerID, in)
}

func (s *stubTodoService) SetCompleted(ctx context.Context, ownerID, id string, completed bool) (*domain.Todo, error) {
	return s.toggleFn(ctx, ownerID, id, completed)
}

func (s *stubTodoService) Stats(ctx context.Context, ownerID string) (ports.TodoStats, error) {
	return s.statsFn(ctx, ownerID)
}

type stubAdminService struct {
	ports.AdminService
	count int64
}

func (s *stubAdminService) CountUsers(_ context.Context, actor domain.Identity) (int64, error) {
	if !domain.Can(actor.Role, domain.ActionCountUsers) {
		return 0, domain.ErrForbidden
	}
	return s.count, nil
}

// --- live sessions ---

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

type staticSource struct{ items []domain.Notification }

func (s staticSource) Derive(context.Context, string) ([]domain.Notification, error) {
	return append([]domain.Notification(nil), s.items...), nil
}

type idleSub struct{ ch chan domain.TodoChange }

func (s idleSub) Events() <-chan domain.TodoChange { return s.ch }
func (s idleSub) Close() error                     { return nil }

type idleFeed struct{}

func (idleFeed) Subscribe(context.Context, string) (ports.Subscription, error) {
	return idleSub{ch: make(chan domain.TodoChange)}, nil
}

// openSession opens a live session for user whose notification source
// always yields items.
func openSession(t *testing.T, user *domain.User, items ...domain.Notification) (*realtime.Registry, *realtime.Session) {
	t.Helper()
	users := &stubUsers{users: map[string]*domain.User{user.ID: user}}
	reg := realtime.NewRegistry(context.Background(), users, staticSource{items: items}, idleFeed{}, zerolog.Nop())
	t.Cleanup(reg.Shutdown)

	s, err := reg.Open(context.Background(), "sid-"+user.ID, user.ID)
	if err != nil {
		t.Fatalf("open session: %v", err)
	}
	return reg, s
}

// newRequest builds an echo context carrying s (when non-nil) and a JSON body.
func newRequest(method, target, body string, s *realtime.Session) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = NewValidator()

	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if s != nil {
		c.Set(middleware.SessionKey, s)
	}
	return c, rec
}

func alice() *domain.User {
	return &domain.User{ID: "u-alice", Email: "alice@example.com", Name: "Alice", Role: domain.RoleUser}
}

func root() *domain.User {
	return &domain.User{ID: "u-root", Email: "root@example.com", Name: "Root", Role: domain.RoleAdmin}
}
