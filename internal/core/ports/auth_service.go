package ports

import (
	"context"

	"github.com/taskdesk/todo-service/internal/core/domain"
)

// RegisterInput is the sign-up request.
type RegisterInput struct {
	Email    string
	Password string
	Name     string
}

// AuthResult is returned by every successful sign-in.
type AuthResult struct {
	Token     string       `json:"token"`
	SessionID string       `json:"session_id"`
	User      *domain.User `json:"user"`
}

// Claims are the verified contents of a session token.
type Claims struct {
	UserID    string
	SessionID string
	Email     string
}

// AuthService covers credential and federated sign-in plus password recovery.
type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*domain.User, error)
	Login(ctx context.Context, email, password string) (*AuthResult, error)
	LoginWithGoogle(ctx context.Context, idToken string) (*AuthResult, error)
	Logout(ctx context.Context, claims Claims) error
	RequestPasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
	// Authenticate verifies a bearer token and that its session is still alive.
	Authenticate(ctx context.Context, token string) (*Claims, error)
}

// ProfileService reads and edits the caller's own profile.
type ProfileService interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
	UpdateName(ctx context.Context, userID, name string) (*domain.User, error)
	UploadAvatar(ctx context.Context, in AvatarUpload) (*domain.User, error)
}

// AdminService holds the admin-only use cases. The actor is always checked.
type AdminService interface {
	CountUsers(ctx context.Context, actor domain.Identity) (int64, error)
	UpdateRole(ctx context.Context, actor domain.Identity, targetID string, role domain.Role) (*domain.User, error)
}
