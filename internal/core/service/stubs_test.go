package service

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/taskdesk/todo-service/internal/core/domain"
	"github.com/taskdesk/todo-service/internal/core/ports"
)

// ---------------------------------------------------------------------------
// In-memory todo repository
// ---------------------------------------------------------------------------

type stubTodoRepo struct {
	mu           sync.Mutex
	todos        map[string]*domain.Todo
	seq          int
	findErr      error
	lastCriteria ports.TodoCriteria
}

func newStubTodoRepo(todos ...*domain.Todo) *stubTodoRepo {
	r := &stubTodoRepo{todos: make(map[string]*domain.Todo)}
	for _, t := range todos {
		clone := *t
		r.todos[t.ID] = &clone
	}
	return r
}

func (r *stubTodoRepo) Create(_ context.Context, t *domain.Todo) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	t.ID = fmt.Sprintf("new-%03d", r.seq)
	clone := *t
	r.todos[t.ID] = &clone
	return nil
}

func (r *stubTodoRepo) FindByID(_ context.Context, ownerID, id string) (*domain.Todo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.todos[id]
	if !ok || t.OwnerID != ownerID {
		return nil, domain.ErrTodoNotFound
	}
	clone := *t
	return &clone, nil
}

func (r *stubTodoRepo) Update(_ context.Context, t *domain.Todo) (*domain.Todo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	old, ok := r.todos[t.ID]
	if !ok || old.OwnerID != t.OwnerID {
		return nil, domain.ErrTodoNotFound
	}
	clone := *t
	r.todos[t.ID] = &clone
	return old, nil
}

func (r *stubTodoRepo) Delete(_ context.Context, ownerID, id string) (*domain.Todo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	old, ok := r.todos[id]
	if !ok || old.OwnerID != ownerID {
		return nil, domain.ErrTodoNotFound
	}
	delete(r.todos, id)
	return old, nil
}

// Find applies the same predicates the real Mongo repo would use.
func (r *stubTodoRepo) Find(_ context.Context, c ports.TodoCriteria) ([]*domain.Todo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastCriteria = c
	if r.findErr != nil {
		return nil, r.findErr
	}
	if c.OwnerID == "" {
		return nil, domain.ErrMissingOwner
	}

	search := strings.ToLower(c.Search)
	var matched []*domain.Todo
	for _, t := range r.todos {
		if t.OwnerID != c.OwnerID {
			continue
		}
		if c.DueFrom != nil && t.DueDate.Before(*c.DueFrom) {
			continue
		}
		if c.DueBefore != nil && !t.DueDate.Before(*c.DueBefore) {
			continue
		}
		if c.Completed != nil && t.Completed != *c.Completed {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(t.Title), search) &&
			!strings.Contains(strings.ToLower(t.Description), search) {
			continue
		}
		clone := *t
		matched = append(matched, &clone)
	}

	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		cmp := compareTodos(a, b, c.SortField)
		if c.SortOrder == domain.SortDesc {
			cmp = -cmp
		}
		if cmp != 0 {
			return cmp < 0
		}
		return a.ID < b.ID
	})

	if c.Offset >= len(matched) {
		return nil, nil
	}
	matched = matched[c.Offset:]
	if c.Limit > 0 && len(matched) > c.Limit {
		matched = matched[:c.Limit]
	}
	return matched, nil
}

func compareTodos(a, b *domain.Todo, field domain.SortField) int {
	switch field {
	case domain.SortByPriority:
		return a.Priority.Rank() - b.Priority.Rank()
	case domain.SortByCreatedAt:
		return a.CreatedAt.Compare(b.CreatedAt)
	case domain.SortByTitle:
		return strings.Compare(a.Title, b.Title)
	default:
		return a.DueDate.Compare(b.DueDate)
	}
}

func (r *stubTodoRepo) Recent(_ context.Context, ownerID string, limit int) ([]*domain.Todo, error) {
	rows, err := r.Find(context.Background(), ports.TodoCriteria{
		OwnerID:   ownerID,
		SortField: domain.SortByCreatedAt,
		SortOrder: domain.SortDesc,
		Limit:     limit,
	})
	return rows, err
}

func (r *stubTodoRepo) Stats(_ context.Context, ownerID string, now time.Time) (ports.TodoStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var s ports.TodoStats
	for _, t := range r.todos {
		if t.OwnerID != ownerID {
			continue
		}
		s.Total++
		if t.Completed {
			s.Completed++
		} else if t.DueDate.After(now) {
			s.Upcoming++
		}
	}
	return s, nil
}

type stubPublisher struct {
	mu      sync.Mutex
	changes []domain.TodoChange
	err     error
}

func (p *stubPublisher) Publish(_ context.Context, c domain.TodoChange) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.changes = append(p.changes, c)
	return p.err
}

// ---------------------------------------------------------------------------
// In-memory user repository and auth collaborators
// ---------------------------------------------------------------------------

type stubUserRepo struct {
	users map[string]*domain.User
	seq   int
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[string]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}

func (r *stubUserRepo) Create(_ context.Context, u *domain.User) error {
	for _, existing := range r.users {
		if existing.Email == u.Email {
			return domain.ErrUserExists
		}
	}
	r.seq++
	u.ID = fmt.Sprintf("user-%d", r.seq)
	r.users[u.ID] = cloneUser(u)
	return nil
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) FindByGoogleSub(_ context.Context, sub string) (*domain.User, error) {
	for _, u := range r.users {
		if u.GoogleSub != "" && u.GoogleSub == sub {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) update(id string, fn func(*domain.User)) (*domain.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	fn(u)
	return cloneUser(u), nil
}

func (r *stubUserRepo) UpdateProfile(_ context.Context, id, name string) (*domain.User, error) {
	return r.update(id, func(u *domain.User) { u.Name = name })
}

func (r *stubUserRepo) UpdateAvatar(_ context.Context, id, url, key string) (*domain.User, error) {
	return r.update(id, func(u *domain.User) { u.AvatarURL, u.AvatarKey = url, key })
}

func (r *stubUserRepo) UpdateRole(_ context.Context, id string, role domain.Role) (*domain.User, error) {
	return r.update(id, func(u *domain.User) { u.Role = role })
}

func (r *stubUserRepo) UpdatePassword(_ context.Context, id, hash string) error {
	_, err := r.update(id, func(u *domain.User) { u.PasswordHash = hash })
	return err
}

func (r *stubUserRepo) LinkGoogle(_ context.Context, id, sub string) error {
	_, err := r.update(id, func(u *domain.User) { u.GoogleSub = sub })
	return err
}

func (r *stubUserRepo) Count(context.Context) (int64, error) {
	return int64(len(r.users)), nil
}

type stubSessionStore struct {
	sessions map[string]string
}

func newStubSessionStore() *stubSessionStore {
	return &stubSessionStore{sessions: make(map[string]string)}
}

func (s *stubSessionStore) Create(_ context.Context, sid, userID string, _ time.Duration) error {
	s.sessions[sid] = userID
	return nil
}

func (s *stubSessionStore) Lookup(_ context.Context, sid string) (string, error) {
	uid, ok := s.sessions[sid]
	if !ok {
		return "", domain.ErrSessionNotFound
	}
	return uid, nil
}

func (s *stubSessionStore) Revoke(_ context.Context, sid string) error {
	delete(s.sessions, sid)
	return nil
}

type stubResetStore struct {
	tokens map[string]string
}

func (s *stubResetStore) SaveResetToken(_ context.Context, tok, userID string, _ time.Duration) error {
	s.tokens[tok] = userID
	return nil
}

func (s *stubResetStore) ConsumeResetToken(_ context.Context, tok string) (string, error) {
	uid, ok := s.tokens[tok]
	if !ok {
		return "", domain.ErrInvalidResetToken
	}
	delete(s.tokens, tok)
	return uid, nil
}

type stubNotifier struct {
	email, link string
	calls       int
}

func (n *stubNotifier) SendReset(_ context.Context, email, link string) error {
	n.calls++
	n.email, n.link = email, link
	return nil
}

type stubVerifier struct {
	ident *ports.FederatedIdentity
	err   error
}

func (v *stubVerifier) Verify(context.Context, string) (*ports.FederatedIdentity, error) {
	return v.ident, v.err
}

type stubAvatarStore struct {
	uploaded map[string]string
	deleted  []string
}

func (s *stubAvatarStore) Upload(_ context.Context, key string, r io.Reader, _ int64, _ string) (string, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	s.uploaded[key] = string(b)
	return "https://cdn.example.com/profile-avatars/" + key, nil
}

func (s *stubAvatarStore) Delete(_ context.Context, key string) error {
	s.deleted = append(s.deleted, key)
	return nil
}
