package realtime

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskdesk/todo-service/internal/core/domain"
	"github.com/taskdesk/todo-service/internal/core/ports"
)

func newTestListener() (*Listener, *fakeFeed, *countingRefresher, *toastRecorder) {
	feed := &fakeFeed{}
	ref := &countingRefresher{}
	toasts := &toastRecorder{}
	return NewListener(feed, ref, toasts, zerolog.Nop()), feed, ref, toasts
}

func TestListener_InsertTriggersOneRefreshAndOneToast(t *testing.T) {
	l, feed, ref, toasts := newTestListener()
	require.NoError(t, l.Start(context.Background(), "u1"))
	defer l.Stop()

	require.Equal(t, 1, feed.emit(domain.TodoChange{
		Type:    domain.ChangeInsert,
		OwnerID: "u1",
		New:     &domain.Todo{ID: "t1", OwnerID: "u1", Title: "Buy milk"},
	}))

	require.Eventually(t, func() bool { return ref.calls.Load() == 1 && len(toasts.all()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Never(t, func() bool { return ref.calls.Load() > 1 || len(toasts.all()) > 1 }, 50*time.Millisecond, 5*time.Millisecond)

	toast := toasts.all()[0]
	assert.Equal(t, domain.SeveritySuccess, toast.Severity)
	assert.Equal(t, "New task created: Buy milk", toast.Message)
}

func TestListener_UpdateToasts(t *testing.T) {
	l, feed, ref, toasts := newTestListener()
	require.NoError(t, l.Start(context.Background(), "u1"))
	defer l.Stop()

	feed.emit(domain.TodoChange{Type: domain.ChangeUpdate, OwnerID: "u1", New: &domain.Todo{Title: "Renamed"}})
	feed.emit(domain.TodoChange{Type: domain.ChangeUpdate, OwnerID: "u1", New: &domain.Todo{Title: "Pay rent", Completed: true}})
	feed.emit(domain.TodoChange{Type: domain.ChangeDelete, OwnerID: "u1", Old: &domain.Todo{Title: "Gone"}})

	require.Eventually(t, func() bool { return ref.calls.Load() == 3 }, time.Second, 5*time.Millisecond)
	got := toasts.all()
	require.Len(t, got, 1)
	assert.Equal(t, "Task completed: Pay rent", got[0].Message)
}

func TestListener_StopPreventsFurtherRefreshes(t *testing.T) {
	l, feed, ref, toasts := newTestListener()
	require.NoError(t, l.Start(context.Background(), "u1"))

	l.Stop()
	assert.False(t, l.Active())
	assert.Equal(t, 0, feed.open())

	assert.Equal(t, 0, feed.emit(domain.TodoChange{Type: domain.ChangeInsert, OwnerID: "u1", New: &domain.Todo{Title: "late"}}))
	assert.Never(t, func() bool { return ref.calls.Load() > 0 || len(toasts.all()) > 0 }, 50*time.Millisecond, 5*time.Millisecond)
}

func TestListener_RestartCancelsPreviousSubscription(t *testing.T) {
	l, feed, ref, toasts := newTestListener()
	ctx := context.Background()
	require.NoError(t, l.Start(ctx, "u1"))
	require.NoError(t, l.Start(ctx, "u1"))
	defer l.Stop()

	assert.Equal(t, 1, feed.open(), "at most one subscription per session")

	assert.Equal(t, 1, feed.emit(domain.TodoChange{Type: domain.ChangeInsert, OwnerID: "u1", New: &domain.Todo{Title: "once"}}))
	require.Eventually(t, func() bool { return ref.calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	assert.Never(t, func() bool { return len(toasts.all()) > 1 }, 50*time.Millisecond, 5*time.Millisecond)
}

func TestListener_ParentCancellationEndsLoop(t *testing.T) {
	l, feed, ref, _ := newTestListener()
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, l.Start(ctx, "u1"))
	cancel()

	time.Sleep(10 * time.Millisecond)
	feed.emit(domain.TodoChange{Type: domain.ChangeInsert, OwnerID: "u1", New: &domain.Todo{Title: "x"}})
	assert.Never(t, func() bool { return ref.calls.Load() > 0 }, 50*time.Millisecond, 5*time.Millisecond)
	l.Stop()
}

func TestListener_IgnoresForeignEvents(t *testing.T) {
	l, _, ref, toasts := newTestListener()
	sub := &fakeSub{ownerID: "u1", ch: make(chan domain.TodoChange, 1)}
	l.feed = singleSubFeed{sub}
	require.NoError(t, l.Start(context.Background(), "u1"))
	defer l.Stop()

	sub.ch <- domain.TodoChange{Type: domain.ChangeInsert, OwnerID: "u2", New: &domain.Todo{Title: "not yours"}}
	assert.Never(t, func() bool { return ref.calls.Load() > 0 || len(toasts.all()) > 0 }, 50*time.Millisecond, 5*time.Millisecond)
}

func TestListener_StartErrors(t *testing.T) {
	l, feed, _, _ := newTestListener()
	assert.ErrorIs(t, l.Start(context.Background(), ""), domain.ErrMissingOwner)

	feed.err = errors.New("redis unavailable")
	assert.Error(t, l.Start(context.Background(), "u1"))
	assert.False(t, l.Active())
}

type singleSubFeed struct{ sub *fakeSub }

func (f singleSubFeed) Subscribe(context.Context, string) (ports.Subscription, error) {
	return f.sub, nil
}
