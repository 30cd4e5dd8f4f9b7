package handler

import (
	"fmt"
	"strings"
	"time"

	"github.com/taskdesk/todo-service/internal/core/domain"
	"github.com/taskdesk/todo-service/internal/core/ports"
)

var dueDateLayouts = []string{time.RFC3339, "2006-01-02T15:04", "2006-01-02"}

// parseDueDate accepts RFC 3339 timestamps, datetime-local values and plain
// dates. Values without an offset are read in loc.
func parseDueDate(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dueDateLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: due_date must be a date or RFC 3339 timestamp", domain.ErrInvalidTodo)
}

func toTodoInput(req todoRequest, loc *time.Location) (ports.TodoInput, error) {
	due, err := parseDueDate(req.DueDate, loc)
	if err != nil {
		return ports.TodoInput{}, err
	}
	return ports.TodoInput{
		Title:       req.Title,
		Description: req.Description,
		DueDate:     due,
		Priority:    domain.Priority(req.Priority),
		Completed:   req.Completed,
	}, nil
}
