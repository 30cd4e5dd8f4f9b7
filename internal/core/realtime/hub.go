package realtime

import (
	"sync"

	"github.com/taskdesk/todo-service/internal/core/domain"
)

const (
	MessageToast         = "toast"
	MessageNotifications = "notifications"

	subscriberBuffer = 16
)

// Message is one item pushed to a session's live streams.
type Message struct {
	Kind          string        `json:"kind"`
	Toast         *domain.Toast `json:"toast,omitempty"`
	Notifications *Snapshot     `json:"notifications,omitempty"`
}

// Hub fans messages out to every open stream of one session. Slow
// subscribers lose messages instead of blocking the sender.
type Hub struct {
	mu     sync.Mutex
	subs   map[chan Message]struct{}
	closed bool
}

func NewHub() *Hub {
	return &Hub{subs: make(map[chan Message]struct{})}
}

// Subscribe returns a message channel and a function releasing it. The
// channel is closed when the hub closes.
func (h *Hub) Subscribe() (<-chan Message, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan Message, subscriberBuffer)
	if h.closed {
		close(ch)
		return ch, func() {}
	}
	h.subs[ch] = struct{}{}

	return ch, func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if _, ok := h.subs[ch]; ok {
			delete(h.subs, ch)
			close(ch)
		}
	}
}

func (h *Hub) Send(m Message) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		select {
		case ch <- m:
		default:
		}
	}
}

// Toast implements ToastSink.
func (h *Hub) Toast(t domain.Toast) {
	h.Send(Message{Kind: MessageToast, Toast: &t})
}

// Notifications pushes a notification snapshot.
func (h *Hub) Notifications(s Snapshot) {
	h.Send(Message{Kind: MessageNotifications, Notifications: &s})
}

func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for ch := range h.subs {
		delete(h.subs, ch)
		close(ch)
	}
}
