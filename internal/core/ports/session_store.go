package ports

import (
	"context"
	"time"
)

// SessionStore tracks which signed-in sessions are still alive.
type SessionStore interface {
	Create(ctx context.Context, sessionID, userID string, ttl time.Duration) error
	// Lookup returns the session's user id or domain.ErrSessionNotFound.
	Lookup(ctx context.Context, sessionID string) (string, error)
	Revoke(ctx context.Context, sessionID string) error
}

// ResetTokenStore keeps single-use password reset tokens.
type ResetTokenStore interface {
	SaveResetToken(ctx context.Context, token, userID string, ttl time.Duration) error
	// ConsumeResetToken returns the owning user id and deletes the token.
	// Unknown or expired tokens yield domain.ErrInvalidResetToken.
	ConsumeResetToken(ctx context.Context, token string) (string, error)
}
