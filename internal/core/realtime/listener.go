package realtime

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/taskdesk/todo-service/internal/core/domain"
	"github.com/taskdesk/todo-service/internal/core/ports"
	"github.com/taskdesk/todo-service/internal/pkg/metrics"
)

// Refresher re-derives a notification list.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// ToastSink receives transient user-facing messages.
type ToastSink interface {
	Toast(t domain.Toast)
}

// Listener keeps at most one change-feed subscription open for a session and
// turns each event into a notification refresh plus an optional toast.
type Listener struct {
	feed      ports.ChangeFeed
	refresher Refresher
	toasts    ToastSink
	now       func() time.Time
	log       zerolog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	sub    ports.Subscription
	done   chan struct{}
}

func NewListener(feed ports.ChangeFeed, refresher Refresher, toasts ToastSink, log zerolog.Logger) *Listener {
	return &Listener{feed: feed, refresher: refresher, toasts: toasts, now: time.Now, log: log}
}

// Start subscribes to ownerID's changes, cancelling any active subscription
// first. ctx bounds the subscription's lifetime.
func (l *Listener) Start(ctx context.Context, ownerID string) error {
	if ownerID == "" {
		return domain.ErrMissingOwner
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.stopLocked()

	subCtx, cancel := context.WithCancel(ctx)
	sub, err := l.feed.Subscribe(subCtx, ownerID)
	if err != nil {
		cancel()
		return fmt.Errorf("subscribe to changes: %w", err)
	}

	done := make(chan struct{})
	l.cancel, l.sub, l.done = cancel, sub, done
	metrics.ActiveSubscriptions.Inc()

	go l.run(subCtx, ownerID, sub, done)
	return nil
}

// Stop cancels the active subscription, if any, and waits for its event loop
// to exit. Refreshes still in flight are discarded by the notification set.
func (l *Listener) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.stopLocked()
}

// Active reports whether a subscription is open.
func (l *Listener) Active() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.sub != nil
}

func (l *Listener) stopLocked() {
	if l.sub == nil {
		return
	}
	l.cancel()
	if err := l.sub.Close(); err != nil {
		l.log.Warn().Err(err).Msg("closing change subscription")
	}
	<-l.done
	l.cancel, l.sub, l.done = nil, nil, nil
	metrics.ActiveSubscriptions.Dec()
}

func (l *Listener) run(ctx context.Context, ownerID string, sub ports.Subscription, done chan struct{}) {
	defer close(done)
	events := sub.Events()
	for {
		select {
		case <-ctx.Done():
			return
		case change, ok := <-events:
			if !ok {
				return
			}
			if ctx.Err() != nil {
				return
			}
			if change.OwnerID != "" && change.OwnerID != ownerID {
				l.log.Warn().Str("owner_id", ownerID).Str("event_owner", change.OwnerID).Msg("foreign change event dropped")
				continue
			}
			l.handle(ctx, change)
		}
	}
}

func (l *Listener) handle(ctx context.Context, change domain.TodoChange) {
	metrics.ChangesReceivedTotal.WithLabelValues(string(change.Type)).Inc()

	go func() {
		if err := l.refresher.Refresh(ctx); err != nil {
			l.log.Warn().Err(err).Msg("refresh after change failed")
		}
	}()

	switch {
	case change.Type == domain.ChangeInsert:
		metrics.ToastsTotal.WithLabelValues("created").Inc()
		l.toasts.Toast(domain.Toast{
			Severity: domain.SeveritySuccess,
			Message:  "New task created: " + change.Title(),
			At:       l.now(),
		})
	case change.Type == domain.ChangeUpdate && change.New != nil && change.New.Completed:
		metrics.ToastsTotal.WithLabelValues("completed").Inc()
		l.toasts.Toast(domain.Toast{
			Severity: domain.SeveritySuccess,
			Message:  "Task completed: " + change.Title(),
			At:       l.now(),
		})
	}
}
