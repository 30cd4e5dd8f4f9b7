package domain

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validTodo() *Todo {
	return &Todo{
		OwnerID:  "user-1",
		Title:    "Buy milk",
		DueDate:  time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
		Priority: PriorityMedium,
	}
}

func TestTodoValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Todo)
		ok     bool
	}{
		{"valid", func(*Todo) {}, true},
		{"blank title", func(td *Todo) { td.Title = "   " }, false},
		{"title at limit", func(td *Todo) { td.Title = strings.Repeat("a", MaxTitleLength) }, true},
		{"title too long", func(td *Todo) { td.Title = strings.Repeat("a", MaxTitleLength+1) }, false},
		{"description too long", func(td *Todo) { td.Description = strings.Repeat("d", MaxDescriptionLength+1) }, false},
		{"missing due date", func(td *Todo) { td.DueDate = time.Time{} }, false},
		{"unknown priority", func(td *Todo) { td.Priority = "urgent" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			td := validTodo()
			tt.mutate(td)
			err := td.Validate()
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, ErrInvalidTodo), "got %v", err)
		})
	}
}

func TestPriorityRank(t *testing.T) {
	assert.Less(t, PriorityLow.Rank(), PriorityMedium.Rank())
	assert.Less(t, PriorityMedium.Rank(), PriorityHigh.Rank())
	assert.Equal(t, 0, Priority("urgent").Rank())
}

func TestParseFilter(t *testing.T) {
	f, err := ParseFilter("")
	require.NoError(t, err)
	assert.Equal(t, FilterAll, f)

	f, err = ParseFilter("Overdue")
	require.NoError(t, err)
	assert.Equal(t, FilterOverdue, f)

	_, err = ParseFilter("someday")
	assert.ErrorIs(t, err, ErrInvalidQuery)
}

func TestParseSort(t *testing.T) {
	field, err := ParseSortField("")
	require.NoError(t, err)
	assert.Equal(t, SortByDueDate, field)

	_, err = ParseSortField("owner")
	assert.ErrorIs(t, err, ErrInvalidQuery)

	order, err := ParseSortOrder("DESC")
	require.NoError(t, err)
	assert.Equal(t, SortDesc, order)

	_, err = ParseSortOrder("sideways")
	assert.ErrorIs(t, err, ErrInvalidQuery)
}

func TestTodoChangeTitle(t *testing.T) {
	assert.Equal(t, "new", TodoChange{New: &Todo{Title: "new"}, Old: &Todo{Title: "old"}}.Title())
	assert.Equal(t, "old", TodoChange{Old: &Todo{Title: "old"}}.Title())
	assert.Equal(t, "", TodoChange{}.Title())
}
