package realtime

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/taskdesk/todo-service/internal/core/domain"
	"github.com/taskdesk/todo-service/internal/core/ports"
	"github.com/taskdesk/todo-service/internal/pkg/metrics"
)

// ErrRegistryClosed is returned by Open once Shutdown has run.
var ErrRegistryClosed = errors.New("session registry closed")

// Session is the live state of one signed-in session.
type Session struct {
	id            string
	Notifications *NotificationSet
	Hub           *Hub
	listener      *Listener

	mu       sync.RWMutex
	identity domain.Identity
}

func (s *Session) ID() string { return s.id }

// Identity returns the cached identity, including the role read at sign-in.
func (s *Session) Identity() domain.Identity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.identity
}

func (s *Session) setIdentity(id domain.Identity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.identity = id
}

// Registry owns every live session of this process. Sessions are opened and
// closed by session-state events.
type Registry struct {
	base   context.Context
	users  ports.UserRepository
	source NotificationSource
	feed   ports.ChangeFeed
	log    zerolog.Logger

	// opening collapses concurrent opens of one session id.
	opening singleflight.Group

	mu       sync.Mutex
	sessions map[string]*Session
	closed   bool
}

// NewRegistry creates an empty registry. base bounds the lifetime of every
// change-feed subscription the registry opens.
func NewRegistry(base context.Context, users ports.UserRepository, source NotificationSource, feed ports.ChangeFeed, log zerolog.Logger) *Registry {
	return &Registry{
		base:     base,
		users:    users,
		source:   source,
		feed:     feed,
		log:      log,
		sessions: make(map[string]*Session),
	}
}

// HandleAuthEvent applies a session-state change.
func (r *Registry) HandleAuthEvent(ctx context.Context, evt domain.AuthEvent) {
	switch evt.Type {
	case domain.AuthSignedIn:
		if _, err := r.Open(ctx, evt.SessionID, evt.UserID); err != nil {
			r.log.Error().Err(err).Str("session_id", evt.SessionID).Msg("failed to open session")
		}
	case domain.AuthSignedOut:
		r.Close(evt.SessionID)
	case domain.AuthUserUpdated:
		for _, s := range r.sessionsOf(evt.UserID, evt.SessionID) {
			if err := r.reload(ctx, s); err != nil {
				r.log.Warn().Err(err).Str("session_id", s.id).Msg("failed to reload session identity")
			}
		}
	}
}

// Open returns the live session sid, creating it when absent: the profile is
// read for the role, the change-feed listener started and the notification
// list loaded. The registry lock is never held across those calls, so a slow
// subscribe delays only requests for the session being opened.
func (r *Registry) Open(ctx context.Context, sid, userID string) (*Session, error) {
	if s, ok := r.Get(sid); ok {
		return s, nil
	}
	v, err, _ := r.opening.Do(sid, func() (any, error) {
		return r.open(ctx, sid, userID)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Session), nil
}

func (r *Registry) open(ctx context.Context, sid, userID string) (*Session, error) {
	if s, ok := r.Get(sid); ok {
		return s, nil
	}

	user, err := r.users.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}

	log := r.log.With().Str("session_id", sid).Str("user_id", userID).Logger()
	hub := NewHub()
	set := NewNotificationSet(userID, r.source, hub.Notifications, log)
	s := &Session{
		id:            sid,
		identity:      domain.IdentityOf(sid, user),
		Notifications: set,
		Hub:           hub,
		listener:      NewListener(r.feed, set, hub, log),
	}
	if err := s.listener.Start(r.base, userID); err != nil {
		hub.Close()
		return nil, err
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		teardown(s)
		return nil, ErrRegistryClosed
	}
	if existing, ok := r.sessions[sid]; ok {
		r.mu.Unlock()
		teardown(s)
		return existing, nil
	}
	r.sessions[sid] = s
	r.mu.Unlock()

	metrics.ActiveSessions.Inc()
	log.Debug().Msg("session opened")

	if err := set.Refresh(ctx); err != nil {
		log.Warn().Err(err).Msg("initial notification load failed")
	}
	return s, nil
}

func (r *Registry) Get(sid string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[sid]
	return s, ok
}

// Close tears a session down and reports whether it was live. Unknown ids
// are ignored.
func (r *Registry) Close(sid string) bool {
	r.mu.Lock()
	s, ok := r.sessions[sid]
	delete(r.sessions, sid)
	r.mu.Unlock()
	if !ok {
		return false
	}
	teardown(s)
	metrics.ActiveSessions.Dec()
	r.log.Debug().Str("session_id", sid).Msg("session closed")
	return true
}

// Shutdown closes every session.
func (r *Registry) Shutdown() {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[string]*Session)
	r.closed = true
	r.mu.Unlock()

	for _, s := range sessions {
		teardown(s)
		metrics.ActiveSessions.Dec()
	}
}

// live returns the sessions open right now.
func (r *Registry) live() []*Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s)
	}
	return out
}

// Len is the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

func (r *Registry) sessionsOf(userID, sid string) []*Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	if sid != "" {
		if s, ok := r.sessions[sid]; ok && s.Identity().UserID == userID {
			return []*Session{s}
		}
		return nil
	}
	var out []*Session
	for _, s := range r.sessions {
		if s.Identity().UserID == userID {
			out = append(out, s)
		}
	}
	return out
}

func (r *Registry) reload(ctx context.Context, s *Session) error {
	current := s.Identity()
	user, err := r.users.FindByID(ctx, current.UserID)
	if err != nil {
		return err
	}
	s.setIdentity(domain.IdentityOf(s.id, user))
	return nil
}

func teardown(s *Session) {
	s.listener.Stop()
	s.Notifications.Close()
	s.Hub.Close()
}
