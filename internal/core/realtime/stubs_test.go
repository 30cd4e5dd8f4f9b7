package realtime

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/taskdesk/todo-service/internal/core/domain"
	"github.com/taskdesk/todo-service/internal/core/ports"
)

// ---------------------------------------------------------------------------
// Fake change feed
// ---------------------------------------------------------------------------

type fakeSub struct {
	ownerID string
	ch      chan domain.TodoChange
	once    sync.Once
	closed  atomic.Bool
}

func (s *fakeSub) Events() <-chan domain.TodoChange { return s.ch }

func (s *fakeSub) Close() error {
	s.once.Do(func() { s.closed.Store(true) })
	return nil
}

type fakeFeed struct {
	mu   sync.Mutex
	subs []*fakeSub
	err  error
}

func (f *fakeFeed) Subscribe(_ context.Context, ownerID string) (ports.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	s := &fakeSub{ownerID: ownerID, ch: make(chan domain.TodoChange, 8)}
	f.subs = append(f.subs, s)
	return s, nil
}

// emit delivers c to every subscription of c's owner that is still open and
// reports how many received it.
func (f *fakeFeed) emit(c domain.TodoChange) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, s := range f.subs {
		if s.ownerID == c.OwnerID && !s.closed.Load() {
			s.ch <- c
			n++
		}
	}
	return n
}

func (f *fakeFeed) open() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, s := range f.subs {
		if !s.closed.Load() {
			n++
		}
	}
	return n
}

// ---------------------------------------------------------------------------
// Notification sources and sinks
// ---------------------------------------------------------------------------

type countingRefresher struct {
	calls atomic.Int32
}

func (r *countingRefresher) Refresh(context.Context) error {
	r.calls.Add(1)
	return nil
}

type toastRecorder struct {
	mu     sync.Mutex
	toasts []domain.Toast
}

func (r *toastRecorder) Toast(t domain.Toast) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.toasts = append(r.toasts, t)
}

func (r *toastRecorder) all() []domain.Toast {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.Toast(nil), r.toasts...)
}

// scriptedSource returns queued results in order; each call may block on its
// gate until the test releases it.
type scriptedSource struct {
	mu    sync.Mutex
	calls int
	steps []sourceStep
}

type sourceStep struct {
	items []domain.Notification
	err   error
	gate  chan struct{}
}

func (s *scriptedSource) Derive(ctx context.Context, _ string) ([]domain.Notification, error) {
	s.mu.Lock()
	step := sourceStep{err: errors.New("no scripted result")}
	if s.calls < len(s.steps) {
		step = s.steps[s.calls]
	}
	s.calls++
	s.mu.Unlock()

	if step.gate != nil {
		<-step.gate
	}
	items := append([]domain.Notification(nil), step.items...)
	return items, step.err
}

type staticSource struct {
	mu    sync.Mutex
	items []domain.Notification
	calls int
}

func (s *staticSource) Derive(context.Context, string) ([]domain.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return append([]domain.Notification(nil), s.items...), nil
}

func (s *staticSource) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// ---------------------------------------------------------------------------
// Todo and user stubs
// ---------------------------------------------------------------------------

type stubRecent struct {
	todos []*domain.Todo
	err   error
	limit int
}

func (s *stubRecent) Recent(_ context.Context, _ string, limit int) ([]*domain.Todo, error) {
	s.limit = limit
	return s.todos, s.err
}

type stubUsers struct {
	ports.UserRepository
	mu    sync.Mutex
	users map[string]*domain.User
}

func (s *stubUsers) FindByID(_ context.Context, id string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	clone := *u
	return &clone, nil
}

func (s *stubUsers) setRole(id string, role domain.Role) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[id].Role = role
}

func notif(id string, read bool) domain.Notification {
	return domain.Notification{ID: id, Title: id, Read: read}
}
