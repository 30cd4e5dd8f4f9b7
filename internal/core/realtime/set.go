package realtime

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/taskdesk/todo-service/internal/core/domain"
	"github.com/taskdesk/todo-service/internal/pkg/metrics"
)

// NotificationSource produces the full notification list of an owner.
type NotificationSource interface {
	Derive(ctx context.Context, ownerID string) ([]domain.Notification, error)
}

// Snapshot is the notification list together with its unread count.
type Snapshot struct {
	Items  []domain.Notification `json:"items"`
	Unread int                   `json:"unread_count"`
}

// NotificationSet is the in-memory notification list of one session.
//
// Refreshes may overlap. Each one takes a sequence number when it starts and
// its result is dropped if a refresh that started later has already been
// applied. Read flags survive a refresh for ids that are still present.
type NotificationSet struct {
	ownerID  string
	source   NotificationSource
	onChange func(Snapshot)
	log      zerolog.Logger

	mu      sync.Mutex
	items   []domain.Notification
	issued  uint64
	applied uint64
	closed  bool
}

// NewNotificationSet creates an empty set. onChange, if non-nil, is called
// with a fresh snapshot after every change, outside the set's lock.
func NewNotificationSet(ownerID string, source NotificationSource, onChange func(Snapshot), log zerolog.Logger) *NotificationSet {
	return &NotificationSet{ownerID: ownerID, source: source, onChange: onChange, log: log}
}

// Refresh re-derives the whole list. On failure the set is left unchanged and
// domain.ErrNotificationsUnavailable is returned.
func (s *NotificationSet) Refresh(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.issued++
	seq := s.issued
	s.mu.Unlock()

	start := time.Now()
	items, err := s.source.Derive(ctx, s.ownerID)
	metrics.NotificationRefreshDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.NotificationRefreshesTotal.WithLabelValues("error").Inc()
		s.log.Warn().Err(err).Str("owner_id", s.ownerID).Msg("notification refresh failed")
		return fmt.Errorf("%w: %v", domain.ErrNotificationsUnavailable, err)
	}

	s.mu.Lock()
	switch {
	case s.closed || ctx.Err() != nil:
		s.mu.Unlock()
		metrics.NotificationRefreshesTotal.WithLabelValues("discarded").Inc()
		return nil
	case seq < s.applied:
		s.mu.Unlock()
		metrics.NotificationRefreshesTotal.WithLabelValues("stale").Inc()
		s.log.Debug().Uint64("seq", seq).Uint64("applied", s.applied).Msg("stale notification refresh dropped")
		return nil
	}

	read := make(map[string]bool, len(s.items))
	for _, n := range s.items {
		if n.Read {
			read[n.ID] = true
		}
	}
	for i := range items {
		if read[items[i].ID] {
			items[i].Read = true
		}
	}
	s.items = items
	s.applied = seq
	snap := s.snapshotLocked()
	s.mu.Unlock()

	metrics.NotificationRefreshesTotal.WithLabelValues("applied").Inc()
	s.notify(snap)
	return nil
}

// Snapshot returns a copy of the current list.
func (s *NotificationSet) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// UnreadCount is the number of entries with Read == false.
func (s *NotificationSet) UnreadCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return unread(s.items)
}

// MarkAsRead marks one entry read. Unknown ids are ignored.
func (s *NotificationSet) MarkAsRead(id string) {
	s.mutate(func(items []domain.Notification) []domain.Notification {
		for i := range items {
			if items[i].ID == id {
				items[i].Read = true
			}
		}
		return items
	})
}

func (s *NotificationSet) MarkAllAsRead() {
	s.mutate(func(items []domain.Notification) []domain.Notification {
		for i := range items {
			items[i].Read = true
		}
		return items
	})
}

func (s *NotificationSet) ClearAll() {
	s.mutate(func([]domain.Notification) []domain.Notification { return nil })
}

// Close stops the set from accepting refresh results.
func (s *NotificationSet) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

func (s *NotificationSet) mutate(fn func([]domain.Notification) []domain.Notification) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.items = fn(s.items)
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.notify(snap)
}

func (s *NotificationSet) notify(snap Snapshot) {
	if s.onChange != nil {
		s.onChange(snap)
	}
}

func (s *NotificationSet) snapshotLocked() Snapshot {
	items := make([]domain.Notification, len(s.items))
	copy(items, s.items)
	return Snapshot{Items: items, Unread: unread(items)}
}

func unread(items []domain.Notification) int {
	n := 0
	for _, it := range items {
		if !it.Read {
			n++
		}
	}
	return n
}
