package ports

import (
	"context"

	"github.com/taskdesk/todo-service/internal/core/domain"
)

// Subscription is a standing change-feed subscription for one owner.
// Events is closed once the subscription ends.
type Subscription interface {
	Events() <-chan domain.TodoChange
	Close() error
}

// ChangeFeed opens owner-scoped subscriptions to todo changes.
type ChangeFeed interface {
	Subscribe(ctx context.Context, ownerID string) (Subscription, error)
}

// ChangePublisher announces todo mutations to the change feed.
type ChangePublisher interface {
	Publish(ctx context.Context, change domain.TodoChange) error
}
