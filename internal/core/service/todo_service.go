package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/taskdesk/todo-service/internal/core/domain"
	"github.com/taskdesk/todo-service/internal/core/ports"
	"github.com/taskdesk/todo-service/internal/pkg/metrics"
)

type TodoService struct {
	repo      ports.TodoRepository
	publisher ports.ChangePublisher
	now       Clock
	logger    zerolog.Logger
}

func NewTodoService(repo ports.TodoRepository, publisher ports.ChangePublisher, now Clock, logger zerolog.Logger) *TodoService {
	if now == nil {
		now = SystemClock(nil)
	}
	return &TodoService{repo: repo, publisher: publisher, now: now, logger: logger}
}

// List runs a filtered, sorted and paginated listing for one owner.
func (s *TodoService) List(ctx context.Context, in ports.ListTodosInput) (*ports.TodoPage, error) {
	criteria, filter, err := buildTodoCriteria(in, s.now())
	if err != nil {
		return nil, err
	}

	rows, err := s.repo.Find(ctx, criteria)
	if err != nil {
		metrics.TodoQueriesTotal.WithLabelValues(string(filter), "error").Inc()
		if errors.Is(err, domain.ErrMissingOwner) {
			return nil, err
		}
		s.logger.Error().Err(err).Str("owner_id", in.OwnerID).Str("filter", string(filter)).Msg("todo query failed")
		return nil, fmt.Errorf("%w: %v", domain.ErrTodosUnavailable, err)
	}
	metrics.TodoQueriesTotal.WithLabelValues(string(filter), "ok").Inc()

	hasMore := len(rows) > ports.PageSize
	if hasMore {
		rows = rows[:ports.PageSize]
	}
	if rows == nil {
		rows = []*domain.Todo{}
	}

	return &ports.TodoPage{
		Items:   rows,
		Page:    criteria.Offset/ports.PageSize + 1,
		HasMore: hasMore,
	}, nil
}

func (s *TodoService) Get(ctx context.Context, ownerID, id string) (*domain.Todo, error) {
	if ownerID == "" {
		return nil, domain.ErrMissingOwner
	}
	return s.repo.FindByID(ctx, ownerID, id)
}

func (s *TodoService) Create(ctx context.Context, ownerID string, in ports.TodoInput) (*domain.Todo, error) {
	if ownerID == "" {
		return nil, domain.ErrMissingOwner
	}

	now := s.now().UTC()
	todo := &domain.Todo{
		OwnerID:   ownerID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	applyInput(todo, in)
	if err := todo.Validate(); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, todo); err != nil {
		s.logger.Error().Err(err).Str("owner_id", ownerID).Msg("failed to create todo")
		return nil, err
	}

	s.logger.Info().Str("todo_id", todo.ID).Str("owner_id", ownerID).Msg("todo created")
	s.publish(ctx, domain.TodoChange{Type: domain.ChangeInsert, OwnerID: ownerID, New: todo, OccurredAt: now})
	return todo, nil
}

func (s *TodoService) Update(ctx context.Context, ownerID, id string, in ports.TodoInput) (*domain.Todo, error) {
	if ownerID == "" {
		return nil, domain.ErrMissingOwner
	}

	todo, err := s.repo.FindByID(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	applyInput(todo, in)
	return s.save(ctx, todo)
}

// SetCompleted flips only the completion flag.
func (s *TodoService) SetCompleted(ctx context.Context, ownerID, id string, completed bool) (*domain.Todo, error) {
	if ownerID == "" {
		return nil, domain.ErrMissingOwner
	}

	todo, err := s.repo.FindByID(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	todo.Completed = completed
	return s.save(ctx, todo)
}

func (s *TodoService) Delete(ctx context.Context, ownerID, id string) error {
	if ownerID == "" {
		return domain.ErrMissingOwner
	}

	old, err := s.repo.Delete(ctx, ownerID, id)
	if err != nil {
		return err
	}

	s.logger.Info().Str("todo_id", id).Str("owner_id", ownerID).Msg("todo deleted")
	s.publish(ctx, domain.TodoChange{Type: domain.ChangeDelete, OwnerID: ownerID, Old: old, OccurredAt: s.now().UTC()})
	return nil
}

// Stats returns the dashboard counters of ownerID.
func (s *TodoService) Stats(ctx context.Context, ownerID string) (ports.TodoStats, error) {
	if ownerID == "" {
		return ports.TodoStats{}, domain.ErrMissingOwner
	}
	stats, err := s.repo.Stats(ctx, ownerID, s.now())
	if err != nil {
		s.logger.Error().Err(err).Str("owner_id", ownerID).Msg("todo stats failed")
		return ports.TodoStats{}, fmt.Errorf("%w: %v", domain.ErrTodosUnavailable, err)
	}
	return stats, nil
}

func (s *TodoService) save(ctx context.Context, todo *domain.Todo) (*domain.Todo, error) {
	if err := todo.Validate(); err != nil {
		return nil, err
	}
	todo.UpdatedAt = s.now().UTC()

	old, err := s.repo.Update(ctx, todo)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, domain.TodoChange{Type: domain.ChangeUpdate, OwnerID: todo.OwnerID, New: todo, Old: old, OccurredAt: todo.UpdatedAt})
	return todo, nil
}

// publish never fails the mutation; the write already happened.
func (s *TodoService) publish(ctx context.Context, change domain.TodoChange) {
	metrics.TodoMutationsTotal.WithLabelValues(string(change.Type)).Inc()
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, change); err != nil {
		s.logger.Warn().Err(err).
			Str("owner_id", change.OwnerID).
			Str("type", string(change.Type)).
			Msg("change publish failed")
	}
}

func applyInput(t *domain.Todo, in ports.TodoInput) {
	t.Title = strings.TrimSpace(in.Title)
	t.Description = strings.TrimSpace(in.Description)
	t.DueDate = in.DueDate.UTC()
	t.Priority = in.Priority
	if t.Priority == "" {
		t.Priority = domain.PriorityMedium
	}
	t.Completed = in.Completed
}
