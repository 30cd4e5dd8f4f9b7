package ports

import (
	"context"
	"time"

	"github.com/taskdesk/todo-service/internal/core/domain"
)

// PageSize is the fixed number of todos returned per listing page.
const PageSize = 10

// ListTodosInput is the raw listing request coming from the transport layer.
type ListTodosInput struct {
	OwnerID   string
	Filter    string
	SortField string
	SortOrder string
	Page      int
	Search    string
}

// TodoPage is one page of a listing. HasMore is exact.
type TodoPage struct {
	Items   []*domain.Todo `json:"items"`
	Page    int            `json:"page"`
	HasMore bool           `json:"has_more"`
}

// TodoInput carries the user-editable fields of a todo.
type TodoInput struct {
	Title       string
	Description string
	DueDate     time.Time
	Priority    domain.Priority
	Completed   bool
}

// DashboardStats extends the owner's counters with admin-only figures.
type DashboardStats struct {
	TodoStats
	TotalUsers *int64 `json:"total_users,omitempty"`
}

// TodoService is the use-case boundary for todos.
type TodoService interface {
	List(ctx context.Context, in ListTodosInput) (*TodoPage, error)
	Get(ctx context.Context, ownerID, id string) (*domain.Todo, error)
	Create(ctx context.Context, ownerID string, in TodoInput) (*domain.Todo, error)
	Update(ctx context.Context, ownerID, id string, in TodoInput) (*domain.Todo, error)
	SetCompleted(ctx context.Context, ownerID, id string, completed bool) (*domain.Todo, error)
	Delete(ctx context.Context, ownerID, id string) error
	Stats(ctx context.Context, ownerID string) (TodoStats, error)
}
