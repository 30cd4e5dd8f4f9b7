// Package realtime holds per-session live state: derived notifications, the
// change-feed listener that keeps them fresh and the registry of sessions.
package realtime

import (
	"context"
	"fmt"
	"time"

	"github.com/taskdesk/todo-service/internal/core/domain"
)

// RecentTodoLimit is how many of the newest todos feed the notification list.
const RecentTodoLimit = 10

const WelcomeNotificationID = "welcome-1"

// RecentTodos lists an owner's newest todos, newest first.
type RecentTodos interface {
	Recent(ctx context.Context, ownerID string, limit int) ([]*domain.Todo, error)
}

// Deriver turns an owner's most recent todos into notifications.
type Deriver struct {
	todos RecentTodos
	now   func() time.Time
}

func NewDeriver(todos RecentTodos, now func() time.Time) *Deriver {
	if now == nil {
		now = time.Now
	}
	return &Deriver{todos: todos, now: now}
}

// Derive builds the full notification list for ownerID: one entry per recent
// todo, newest first, followed by the system notifications.
func (d *Deriver) Derive(ctx context.Context, ownerID string) ([]domain.Notification, error) {
	if ownerID == "" {
		return nil, domain.ErrMissingOwner
	}

	todos, err := d.todos.Recent(ctx, ownerID, RecentTodoLimit)
	if err != nil {
		return nil, err
	}

	out := make([]domain.Notification, 0, len(todos)+1)
	for _, t := range todos {
		if t.OwnerID != ownerID {
			continue
		}
		out = append(out, fromTodo(t))
	}
	return append(out, systemNotifications(d.now())...), nil
}

func fromTodo(t *domain.Todo) domain.Notification {
	n := domain.Notification{
		ID:     "todo-" + t.ID,
		TodoID: t.ID,
	}
	if t.Completed {
		n.Title = "Task Completed"
		n.Message = fmt.Sprintf("%s has been completed", t.Title)
		n.Severity = domain.SeveritySuccess
		n.CreatedAt = t.UpdatedAt
	} else {
		n.Title = "Upcoming Task"
		n.Message = fmt.Sprintf("%s is due soon", t.Title)
		n.Severity = domain.SeverityWarning
		n.CreatedAt = t.DueDate
	}
	return n
}

func systemNotifications(now time.Time) []domain.Notification {
	return []domain.Notification{{
		ID:        WelcomeNotificationID,
		Title:     "Welcome to Todo App",
		Message:   "Start by creating your first task!",
		Severity:  domain.SeverityInfo,
		CreatedAt: now,
	}}
}
