package mongo

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/taskdesk/todo-service/internal/core/domain"
	"github.com/taskdesk/todo-service/internal/core/ports"
	"github.com/taskdesk/todo-service/internal/pkg/id"
)

const collectionTodos = "todos"

type todoDocument struct {
	ID           string    `bson:"_id"`
	OwnerID      string    `bson:"user_id"`
	Title        string    `bson:"title"`
	Description  string    `bson:"description,omitempty"`
	DueDate      time.Time `bson:"due_date"`
	Priority     string    `bson:"priority"`
	PriorityRank int       `bson:"priority_rank"`
	Completed    bool      `bson:"completed"`
	CreatedAt    time.Time `bson:"created_at"`
	UpdatedAt    time.Time `bson:"updated_at"`
}

func toTodoDocument(t *domain.Todo) todoDocument {
	return todoDocument{
		ID:           t.ID,
		OwnerID:      t.OwnerID,
		Title:        t.Title,
		Description:  t.Description,
		DueDate:      t.DueDate.UTC(),
		Priority:     string(t.Priority),
		PriorityRank: t.Priority.Rank(),
		Completed:    t.Completed,
		CreatedAt:    t.CreatedAt.UTC(),
		UpdatedAt:    t.UpdatedAt.UTC(),
	}
}

func (d todoDocument) toDomain() *domain.Todo {
	return &domain.Todo{
		ID:          d.ID,
		OwnerID:     d.OwnerID,
		Title:       d.Title,
		Description: d.Description,
		DueDate:     d.DueDate,
		Priority:    domain.Priority(d.Priority),
		Completed:   d.Completed,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

type TodoRepository struct {
	col *mongo.Collection
}

func NewTodoRepository(db *mongo.Database) *TodoRepository {
	return &TodoRepository{col: db.Collection(collectionTodos)}
}

// Create inserts t, assigning a time-ordered id when it has none.
func (r *TodoRepository) Create(ctx context.Context, t *domain.Todo) error {
	if t.OwnerID == "" {
		return domain.ErrMissingOwner
	}
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if t.ID == "" {
		t.ID = id.New()
	}
	if _, err := r.col.InsertOne(ctx, toTodoDocument(t)); err != nil {
		return fmt.Errorf("insert todo: %w", err)
	}
	return nil
}

func (r *TodoRepository) FindByID(ctx context.Context, ownerID, todoID string) (*domain.Todo, error) {
	if ownerID == "" {
		return nil, domain.ErrMissingOwner
	}
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc todoDocument
	err := r.col.FindOne(ctx, bson.M{"_id": todoID, "user_id": ownerID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrTodoNotFound
		}
		return nil, fmt.Errorf("find todo: %w", err)
	}
	return doc.toDomain(), nil
}

// Update replaces the mutable fields of t and returns the stored version it
// replaced.
func (r *TodoRepository) Update(ctx context.Context, t *domain.Todo) (*domain.Todo, error) {
	if t.OwnerID == "" {
		return nil, domain.ErrMissingOwner
	}
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := toTodoDocument(t)
	update := bson.M{"$set": bson.M{
		"title":         doc.Title,
		"description":   doc.Description,
		"due_date":      doc.DueDate,
		"priority":      doc.Priority,
		"priority_rank": doc.PriorityRank,
		"completed":     doc.Completed,
		"updated_at":    doc.UpdatedAt,
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.Before)

	var old todoDocument
	err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": t.ID, "user_id": t.OwnerID}, update, opts).Decode(&old)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrTodoNotFound
		}
		return nil, fmt.Errorf("update todo: %w", err)
	}
	return old.toDomain(), nil
}

func (r *TodoRepository) Delete(ctx context.Context, ownerID, todoID string) (*domain.Todo, error) {
	if ownerID == "" {
		return nil, domain.ErrMissingOwner
	}
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var old todoDocument
	err := r.col.FindOneAndDelete(ctx, bson.M{"_id": todoID, "user_id": ownerID}).Decode(&old)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrTodoNotFound
		}
		return nil, fmt.Errorf("delete todo: %w", err)
	}
	return old.toDomain(), nil
}

// Find runs a resolved listing query.
func (r *TodoRepository) Find(ctx context.Context, c ports.TodoCriteria) ([]*domain.Todo, error) {
	filter, err := buildTodoFilter(c)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.col.Find(ctx, filter, buildFindOptions(c))
	if err != nil {
		return nil, fmt.Errorf("find todos: %w", err)
	}
	defer cur.Close(ctx)

	var docs []todoDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode todos: %w", err)
	}

	out := make([]*domain.Todo, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}

func (r *TodoRepository) Recent(ctx context.Context, ownerID string, limit int) ([]*domain.Todo, error) {
	return r.Find(ctx, ports.TodoCriteria{
		OwnerID:   ownerID,
		SortField: domain.SortByCreatedAt,
		SortOrder: domain.SortDesc,
		Limit:     limit,
	})
}

// Stats counts all, completed and upcoming (open, due after now) todos.
func (r *TodoRepository) Stats(ctx context.Context, ownerID string, now time.Time) (ports.TodoStats, error) {
	if ownerID == "" {
		return ports.TodoStats{}, domain.ErrMissingOwner
	}
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var stats ports.TodoStats
	counts := []struct {
		dst    *int64
		filter bson.M
	}{
		{&stats.Total, bson.M{"user_id": ownerID}},
		{&stats.Completed, bson.M{"user_id": ownerID, "completed": true}},
		{&stats.Upcoming, bson.M{"user_id": ownerID, "completed": false, "due_date": bson.M{"$gt": now.UTC()}}},
	}
	for _, c := range counts {
		n, err := r.col.CountDocuments(ctx, c.filter)
		if err != nil {
			return ports.TodoStats{}, fmt.Errorf("count todos: %w", err)
		}
		*c.dst = n
	}
	return stats, nil
}

// EnsureIndexes creates the indexes backing owner-scoped listings.
func (r *TodoRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, indexTimeout)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "due_date", Value: 1}}},
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "completed", Value: 1}, {Key: "due_date", Value: 1}}},
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "priority_rank", Value: 1}}},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}

// buildTodoFilter translates criteria into a Mongo filter. A query without an
// owner is refused.
func buildTodoFilter(c ports.TodoCriteria) (bson.M, error) {
	if c.OwnerID == "" {
		return nil, domain.ErrMissingOwner
	}

	filter := bson.M{"user_id": c.OwnerID}

	if c.DueFrom != nil || c.DueBefore != nil {
		due := bson.M{}
		if c.DueFrom != nil {
			due["$gte"] = c.DueFrom.UTC()
		}
		if c.DueBefore != nil {
			due["$lt"] = c.DueBefore.UTC()
		}
		filter["due_date"] = due
	}
	if c.Completed != nil {
		filter["completed"] = *c.Completed
	}
	if c.Search != "" {
		pattern := regexp.QuoteMeta(c.Search)
		filter["$or"] = bson.A{
			bson.M{"title": bson.M{"$regex": pattern, "$options": "i"}},
			bson.M{"description": bson.M{"$regex": pattern, "$options": "i"}},
		}
	}
	return filter, nil
}

var sortColumns = map[domain.SortField]string{
	domain.SortByDueDate:   "due_date",
	domain.SortByPriority:  "priority_rank",
	domain.SortByCreatedAt: "created_at",
	domain.SortByTitle:     "title",
}

func buildFindOptions(c ports.TodoCriteria) *options.FindOptions {
	column, ok := sortColumns[c.SortField]
	if !ok {
		column = "due_date"
	}
	dir := 1
	if c.SortOrder == domain.SortDesc {
		dir = -1
	}

	opts := options.Find().SetSort(bson.D{{Key: column, Value: dir}, {Key: "_id", Value: 1}})
	if c.Offset > 0 {
		opts.SetSkip(int64(c.Offset))
	}
	if c.Limit > 0 {
		opts.SetLimit(int64(c.Limit))
	}
	return opts
}
