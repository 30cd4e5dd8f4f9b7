package ports

import (
	"context"

	"github.com/taskdesk/todo-service/internal/core/domain"
)

// UserRepository persists accounts and their profile records.
type UserRepository interface {
	// Create stores u and assigns its ID. Duplicate emails yield domain.ErrUserExists.
	Create(ctx context.Context, u *domain.User) error
	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByGoogleSub(ctx context.Context, sub string) (*domain.User, error)
	UpdateProfile(ctx context.Context, id, name string) (*domain.User, error)
	UpdateAvatar(ctx context.Context, id, url, key string) (*domain.User, error)
	UpdateRole(ctx context.Context, id string, role domain.Role) (*domain.User, error)
	UpdatePassword(ctx context.Context, id, hash string) error
	LinkGoogle(ctx context.Context, id, sub string) error
	Count(ctx context.Context) (int64, error)
}
