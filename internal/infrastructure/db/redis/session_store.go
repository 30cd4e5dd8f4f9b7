package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taskdesk/todo-service/internal/core/domain"
)

// SessionStore keeps session liveness and single-use reset tokens in Redis.
//
//	session:<sid>   -> user id, expires with the session token
//	reset:<token>   -> user id, consumed with GETDEL
type SessionStore struct {
	client *redis.Client
}

func NewSessionStore(client *redis.Client) *SessionStore {
	return &SessionStore{client: client}
}

func (s *SessionStore) Create(ctx context.Context, sessionID, userID string, ttl time.Duration) error {
	if err := s.client.Set(ctx, sessionKey(sessionID), userID, ttl).Err(); err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	return nil
}

func (s *SessionStore) Lookup(ctx context.Context, sessionID string) (string, error) {
	userID, err := s.client.Get(ctx, sessionKey(sessionID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", domain.ErrSessionNotFound
		}
		return "", fmt.Errorf("lookup session: %w", err)
	}
	return userID, nil
}

func (s *SessionStore) Revoke(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, sessionKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}

func (s *SessionStore) SaveResetToken(ctx context.Context, token, userID string, ttl time.Duration) error {
	if err := s.client.Set(ctx, resetKey(token), userID, ttl).Err(); err != nil {
		return fmt.Errorf("store reset token: %w", err)
	}
	return nil
}

func (s *SessionStore) ConsumeResetToken(ctx context.Context, token string) (string, error) {
	userID, err := s.client.GetDel(ctx, resetKey(token)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", domain.ErrInvalidResetToken
		}
		return "", fmt.Errorf("consume reset token: %w", err)
	}
	return userID, nil
}

func sessionKey(sid string) string { return "session:" + sid }

func resetKey(token string) string { return "reset:" + token }
