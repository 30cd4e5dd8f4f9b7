package service

import (
	"context"
	"sync"

	"github.com/taskdesk/todo-service/internal/core/domain"
)

// AuthStateHandler reacts to session-state changes.
type AuthStateHandler func(ctx context.Context, evt domain.AuthEvent)

// StateFeed fans session-state changes out to in-process subscribers.
// Handlers run synchronously in subscription order.
type StateFeed struct {
	mu       sync.RWMutex
	next     int
	handlers map[int]AuthStateHandler
	order    []int
}

func NewStateFeed() *StateFeed {
	return &StateFeed{handlers: make(map[int]AuthStateHandler)}
}

// Subscribe registers fn and returns a function that removes it again.
func (f *StateFeed) Subscribe(fn AuthStateHandler) (unsubscribe func()) {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := f.next
	f.next++
	f.handlers[key] = fn
	f.order = append(f.order, key)

	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.handlers, key)
		for i, k := range f.order {
			if k == key {
				f.order = append(f.order[:i], f.order[i+1:]...)
				break
			}
		}
	}
}

// Publish delivers evt to every current subscriber.
func (f *StateFeed) Publish(ctx context.Context, evt domain.AuthEvent) {
	f.mu.RLock()
	handlers := make([]AuthStateHandler, 0, len(f.order))
	for _, k := range f.order {
		handlers = append(handlers, f.handlers[k])
	}
	f.mu.RUnlock()

	for _, h := range handlers {
		h(ctx, evt)
	}
}
