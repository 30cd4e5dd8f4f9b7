package ports

import (
	"context"
	"time"

	"github.com/taskdesk/todo-service/internal/core/domain"
)

// TodoCriteria is a fully resolved, backend-neutral todo query. OwnerID is
// mandatory; adapters must refuse to run a query without it.
type TodoCriteria struct {
	OwnerID   string
	DueFrom   *time.Time // inclusive
	DueBefore *time.Time // exclusive
	Completed *bool
	Search    string // case-insensitive contains on title OR description
	SortField domain.SortField
	SortOrder domain.SortOrder
	Offset    int
	Limit     int
}

// TodoStats are the dashboard counters of one owner.
type TodoStats struct {
	Total     int64 `json:"total_todos"`
	Completed int64 `json:"completed_todos"`
	Upcoming  int64 `json:"upcoming_todos"`
}

// TodoRepository defines persistence operations for todos. Every method is
// scoped to an owner.
type TodoRepository interface {
	// Create stores t and assigns its ID.
	Create(ctx context.Context, t *domain.Todo) error
	FindByID(ctx context.Context, ownerID, id string) (*domain.Todo, error)
	// Update replaces the mutable fields of t and returns the previous version.
	Update(ctx context.Context, t *domain.Todo) (*domain.Todo, error)
	// Delete removes the todo and returns the deleted version.
	Delete(ctx context.Context, ownerID, id string) (*domain.Todo, error)
	Find(ctx context.Context, c TodoCriteria) ([]*domain.Todo, error)
	// Recent returns the newest todos by creation time, newest first.
	Recent(ctx context.Context, ownerID string, limit int) ([]*domain.Todo, error)
	Stats(ctx context.Context, ownerID string, now time.Time) (TodoStats, error)
}
