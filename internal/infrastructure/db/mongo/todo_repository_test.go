package mongo

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/taskdesk/todo-service/internal/core/domain"
	"github.com/taskdesk/todo-service/internal/core/ports"
)

func TestBuildTodoFilter_RequiresOwner(t *testing.T) {
	_, err := buildTodoFilter(ports.TodoCriteria{Search: "x"})
	assert.ErrorIs(t, err, domain.ErrMissingOwner)
}

func TestBuildTodoFilter_DueWindowAndCompletion(t *testing.T) {
	from := time.Date(2026, 5, 14, 0, 0, 0, 0, time.UTC)
	before := from.Add(24 * time.Hour)
	open := false

	filter, err := buildTodoFilter(ports.TodoCriteria{
		OwnerID:   "u1",
		DueFrom:   &from,
		DueBefore: &before,
		Completed: &open,
	})
	require.NoError(t, err)

	assert.Equal(t, "u1", filter["user_id"])
	assert.Equal(t, bson.M{"$gte": from, "$lt": before}, filter["due_date"])
	assert.Equal(t, false, filter["completed"])
	assert.NotContains(t, filter, "$or")
}

func TestBuildTodoFilter_SearchIsQuoted(t *testing.T) {
	filter, err := buildTodoFilter(ports.TodoCriteria{OwnerID: "u1", Search: "a.b(c"})
	require.NoError(t, err)

	or, ok := filter["$or"].(bson.A)
	require.True(t, ok)
	require.Len(t, or, 2)
	assert.Equal(t, bson.M{"title": bson.M{"$regex": `a\.b\(c`, "$options": "i"}}, or[0])
	assert.Equal(t, bson.M{"description": bson.M{"$regex": `a\.b\(c`, "$options": "i"}}, or[1])
}

func TestBuildFindOptions(t *testing.T) {
	tests := []struct {
		name     string
		criteria ports.TodoCriteria
		wantSort bson.D
	}{
		{
			name:     "due date ascending",
			criteria: ports.TodoCriteria{SortField: domain.SortByDueDate, SortOrder: domain.SortAsc},
			wantSort: bson.D{{Key: "due_date", Value: 1}, {Key: "_id", Value: 1}},
		},
		{
			name:     "priority sorts by rank",
			criteria: ports.TodoCriteria{SortField: domain.SortByPriority, SortOrder: domain.SortDesc},
			wantSort: bson.D{{Key: "priority_rank", Value: -1}, {Key: "_id", Value: 1}},
		},
		{
			name:     "unknown field falls back to due date",
			criteria: ports.TodoCriteria{},
			wantSort: bson.D{{Key: "due_date", Value: 1}, {Key: "_id", Value: 1}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := buildFindOptions(tt.criteria)
			assert.Equal(t, tt.wantSort, opts.Sort)
			assert.Nil(t, opts.Skip)
			assert.Nil(t, opts.Limit)
		})
	}
}

func TestBuildFindOptions_Pagination(t *testing.T) {
	opts := buildFindOptions(ports.TodoCriteria{Offset: 20, Limit: 11})
	require.NotNil(t, opts.Skip)
	require.NotNil(t, opts.Limit)
	assert.EqualValues(t, 20, *opts.Skip)
	assert.EqualValues(t, 11, *opts.Limit)
}

func TestTodoDocument_RoundTripKeepsRank(t *testing.T) {
	todo := &domain.Todo{ID: "t1", OwnerID: "u1", Title: "x", Priority: domain.PriorityHigh}
	doc := toTodoDocument(todo)
	assert.Equal(t, 3, doc.PriorityRank)
	assert.Equal(t, todo.Priority, doc.toDomain().Priority)
}
