package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/taskdesk/todo-service/internal/core/domain"
	"github.com/taskdesk/todo-service/internal/core/ports"
)

type AdminService struct {
	users  ports.UserRepository
	events *StateFeed
	logger zerolog.Logger
}

func NewAdminService(users ports.UserRepository, events *StateFeed, logger zerolog.Logger) *AdminService {
	return &AdminService{users: users, events: events, logger: logger}
}

func (s *AdminService) CountUsers(ctx context.Context, actor domain.Identity) (int64, error) {
	if !domain.Can(actor.Role, domain.ActionCountUsers) {
		return 0, domain.ErrForbidden
	}
	return s.users.Count(ctx)
}

// UpdateRole changes a user's role. Other sessions of the target keep their
// cached role until they re-fetch; the actor's own session is refreshed.
func (s *AdminService) UpdateRole(ctx context.Context, actor domain.Identity, targetID string, role domain.Role) (*domain.User, error) {
	if !domain.Can(actor.Role, domain.ActionManageRoles) {
		return nil, domain.ErrForbidden
	}
	if _, err := domain.ParseRole(string(role)); err != nil {
		return nil, err
	}

	user, err := s.users.UpdateRole(ctx, targetID, role)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("actor_id", actor.UserID).
		Str("target_id", targetID).
		Str("role", string(role)).
		Msg("role updated")

	if targetID == actor.UserID && s.events != nil {
		s.events.Publish(ctx, domain.AuthEvent{
			Type:      domain.AuthUserUpdated,
			SessionID: actor.SessionID,
			UserID:    actor.UserID,
		})
	}
	return user, nil
}
