package domain

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	MaxTitleLength       = 100
	MaxDescriptionLength = 1000
)

// Priority is the user-assigned importance of a todo.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

var priorityRanks = map[Priority]int{
	PriorityLow:    1,
	PriorityMedium: 2,
	PriorityHigh:   3,
}

// Valid reports whether p is one of the known priorities.
func (p Priority) Valid() bool {
	_, ok := priorityRanks[p]
	return ok
}

// Rank orders priorities low < medium < high. Unknown priorities rank 0.
func (p Priority) Rank() int {
	return priorityRanks[p]
}

// Todo is a single task owned by exactly one user.
type Todo struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"user_id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	DueDate     time.Time `json:"due_date"`
	Priority    Priority  `json:"priority"`
	Completed   bool      `json:"completed"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Validate checks the invariants every stored todo must satisfy.
func (t *Todo) Validate() error {
	title := strings.TrimSpace(t.Title)
	switch {
	case title == "":
		return fmt.Errorf("%w: title is required", ErrInvalidTodo)
	case utf8.RuneCountInString(t.Title) > MaxTitleLength:
		return fmt.Errorf("%w: title must be at most %d characters", ErrInvalidTodo, MaxTitleLength)
	case utf8.RuneCountInString(t.Description) > MaxDescriptionLength:
		return fmt.Errorf("%w: description must be at most %d characters", ErrInvalidTodo, MaxDescriptionLength)
	case t.DueDate.IsZero():
		return fmt.Errorf("%w: due_date is required", ErrInvalidTodo)
	case !t.Priority.Valid():
		return fmt.Errorf("%w: priority must be one of: low medium high", ErrInvalidTodo)
	}
	return nil
}

// Filter selects a subset of a user's todos relative to the current time.
type Filter string

const (
	FilterAll       Filter = "all"
	FilterToday     Filter = "today"
	FilterUpcoming  Filter = "upcoming"
	FilterCompleted Filter = "completed"
	FilterOverdue   Filter = "overdue"
)

// ParseFilter maps an empty value to FilterAll and rejects unknown filters.
func ParseFilter(s string) (Filter, error) {
	switch f := Filter(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FilterAll, nil
	case FilterAll, FilterToday, FilterUpcoming, FilterCompleted, FilterOverdue:
		return f, nil
	default:
		return "", fmt.Errorf("%w: unknown filter %q", ErrInvalidQuery, s)
	}
}

// SortField names the todo attribute a listing is ordered by.
type SortField string

const (
	SortByDueDate   SortField = "due_date"
	SortByPriority  SortField = "priority"
	SortByCreatedAt SortField = "created_at"
	SortByTitle     SortField = "title"
)

// ParseSortField defaults to due_date.
func ParseSortField(s string) (SortField, error) {
	switch f := SortField(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return SortByDueDate, nil
	case SortByDueDate, SortByPriority, SortByCreatedAt, SortByTitle:
		return f, nil
	default:
		return "", fmt.Errorf("%w: unknown sort field %q", ErrInvalidQuery, s)
	}
}

// SortOrder is either ascending or descending.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// ParseSortOrder defaults to ascending.
func ParseSortOrder(s string) (SortOrder, error) {
	switch o := SortOrder(strings.ToLower(strings.TrimSpace(s))); o {
	case "":
		return SortAsc, nil
	case SortAsc, SortDesc:
		return o, nil
	default:
		return "", fmt.Errorf("%w: unknown sort order %q", ErrInvalidQuery, s)
	}
}
