package mongo

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/taskdesk/todo-service/internal/core/domain"
	"github.com/taskdesk/todo-service/internal/core/ports"
)

const changeBuffer = 32

// ChangeFeed streams todo changes straight from a collection change stream.
// It needs a replica set; delete events carry an owner only when pre-images
// are enabled on the collection.
type ChangeFeed struct {
	col *mongo.Collection
	log zerolog.Logger
}

func NewChangeFeed(db *mongo.Database, log zerolog.Logger) *ChangeFeed {
	return &ChangeFeed{col: db.Collection(collectionTodos), log: log}
}

type changeEvent struct {
	OperationType string              `bson:"operationType"`
	FullDocument  *todoDocument       `bson:"fullDocument"`
	BeforeChange  *todoDocument       `bson:"fullDocumentBeforeChange"`
	ClusterTime   primitive.Timestamp `bson:"clusterTime"`
}

func (f *ChangeFeed) Subscribe(ctx context.Context, ownerID string) (ports.Subscription, error) {
	if ownerID == "" {
		return nil, domain.ErrMissingOwner
	}

	stream, err := f.col.Watch(ctx, changePipeline(ownerID), options.ChangeStream().
		SetFullDocument(options.UpdateLookup).
		SetFullDocumentBeforeChange(options.WhenAvailable))
	if err != nil {
		return nil, fmt.Errorf("watch todos: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	sub := &changeStreamSub{stream: stream, cancel: cancel, events: make(chan domain.TodoChange, changeBuffer)}
	go sub.run(ctx, ownerID, f.log)
	return sub, nil
}

func changePipeline(ownerID string) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"operationType": bson.M{"$in": bson.A{"insert", "update", "replace", "delete"}},
			"$or": bson.A{
				bson.M{"fullDocument.user_id": ownerID},
				bson.M{"fullDocumentBeforeChange.user_id": ownerID},
			},
		}}},
	}
}

func (e changeEvent) toChange() (domain.TodoChange, bool) {
	c := domain.TodoChange{OccurredAt: time.Unix(int64(e.ClusterTime.T), 0).UTC()}
	switch e.OperationType {
	case "insert":
		c.Type = domain.ChangeInsert
	case "update", "replace":
		c.Type = domain.ChangeUpdate
	case "delete":
		c.Type = domain.ChangeDelete
	default:
		return c, false
	}
	if e.FullDocument != nil && c.Type != domain.ChangeDelete {
		c.New = e.FullDocument.toDomain()
		c.OwnerID = c.New.OwnerID
	}
	if e.BeforeChange != nil {
		c.Old = e.BeforeChange.toDomain()
		if c.OwnerID == "" {
			c.OwnerID = c.Old.OwnerID
		}
	}
	return c, true
}

type changeStreamSub struct {
	stream *mongo.ChangeStream
	cancel context.CancelFunc
	events chan domain.TodoChange
	once   sync.Once
}

func (s *changeStreamSub) Events() <-chan domain.TodoChange { return s.events }

func (s *changeStreamSub) Close() error {
	s.once.Do(s.cancel)
	return nil
}

func (s *changeStreamSub) run(ctx context.Context, ownerID string, log zerolog.Logger) {
	defer close(s.events)
	defer s.stream.Close(context.Background())

	for s.stream.Next(ctx) {
		var evt changeEvent
		if err := s.stream.Decode(&evt); err != nil {
			log.Warn().Err(err).Str("owner_id", ownerID).Msg("undecodable change event")
			continue
		}
		change, ok := evt.toChange()
		if !ok {
			continue
		}
		select {
		case s.events <- change:
		case <-ctx.Done():
			return
		}
	}
	if err := s.stream.Err(); err != nil && ctx.Err() == nil {
		log.Error().Err(err).Str("owner_id", ownerID).Msg("change stream ended")
	}
}

// NopPublisher satisfies ports.ChangePublisher when the database itself
// produces the change feed.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, domain.TodoChange) error { return nil }
