package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/taskdesk/todo-service/internal/core/domain"
	"github.com/taskdesk/todo-service/internal/core/ports"
)

// BuildTodoCriteria resolves a listing request against now into a concrete
// repository query. It never returns criteria without an owner.
//
// The limit is one row larger than ports.PageSize so the caller can tell
// whether another page exists without a separate count.
func BuildTodoCriteria(in ports.ListTodosInput, now time.Time) (ports.TodoCriteria, error) {
	c, _, err := buildTodoCriteria(in, now)
	return c, err
}

func buildTodoCriteria(in ports.ListTodosInput, now time.Time) (ports.TodoCriteria, domain.Filter, error) {
	if strings.TrimSpace(in.OwnerID) == "" {
		return ports.TodoCriteria{}, "", domain.ErrMissingOwner
	}

	filter, err := domain.ParseFilter(in.Filter)
	if err != nil {
		return ports.TodoCriteria{}, "", err
	}
	field, err := domain.ParseSortField(in.SortField)
	if err != nil {
		return ports.TodoCriteria{}, "", err
	}
	order, err := domain.ParseSortOrder(in.SortOrder)
	if err != nil {
		return ports.TodoCriteria{}, "", err
	}

	page := in.Page
	if page == 0 {
		page = 1
	}
	if page < 1 {
		return ports.TodoCriteria{}, "", fmt.Errorf("%w: page must be at least 1", domain.ErrInvalidQuery)
	}

	c := ports.TodoCriteria{
		OwnerID:   in.OwnerID,
		Search:    strings.TrimSpace(in.Search),
		SortField: field,
		SortOrder: order,
		Offset:    (page - 1) * ports.PageSize,
		Limit:     ports.PageSize + 1,
	}

	switch filter {
	case domain.FilterToday:
		start := StartOfDay(now)
		end := start.AddDate(0, 0, 1)
		c.DueFrom, c.DueBefore = &start, &end
	case domain.FilterUpcoming:
		from := now
		c.DueFrom = &from
		c.Completed = boolPtr(false)
	case domain.FilterCompleted:
		c.Completed = boolPtr(true)
	case domain.FilterOverdue:
		before := now
		c.DueBefore = &before
		c.Completed = boolPtr(false)
	}

	return c, filter, nil
}

func boolPtr(b bool) *bool { return &b }
