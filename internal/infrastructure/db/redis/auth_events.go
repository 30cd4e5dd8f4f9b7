package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/taskdesk/todo-service/internal/core/domain"
	"github.com/taskdesk/todo-service/internal/pkg/id"
)

// AuthEventsChannel carries session-state changes between service instances.
const AuthEventsChannel = "auth:events"

type authEnvelope struct {
	Origin    string `json:"origin"`
	Type      string `json:"type"`
	SessionID string `json:"session_id,omitempty"`
	UserID    string `json:"user_id"`
}

// AuthEventBus relays sign-outs and profile updates to the other instances,
// whose live sessions would otherwise outlive them. Sign-ins stay local:
// other instances open sessions lazily on the first authenticated request.
type AuthEventBus struct {
	client  *redis.Client
	origin  string
	log     zerolog.Logger
	timeout time.Duration
}

func NewAuthEventBus(client *redis.Client, log zerolog.Logger) *AuthEventBus {
	return &AuthEventBus{client: client, origin: id.New(), log: log, timeout: subscribeTimeout}
}

// Forward publishes evt for the other instances. It has the shape of a
// session-state handler so it can subscribe to the local feed.
func (b *AuthEventBus) Forward(ctx context.Context, evt domain.AuthEvent) {
	if evt.Type == domain.AuthSignedIn {
		return
	}
	payload, err := b.encode(evt)
	if err != nil {
		b.log.Error().Err(err).Msg("encode auth event")
		return
	}
	if err := b.client.Publish(ctx, AuthEventsChannel, payload).Err(); err != nil {
		b.log.Error().Err(err).Str("type", string(evt.Type)).Str("session_id", evt.SessionID).Msg("publish auth event")
	}
}

// Run delivers events published by other instances to handle until ctx is
// done.
func (b *AuthEventBus) Run(ctx context.Context, handle func(context.Context, domain.AuthEvent)) error {
	hsCtx, cancel := context.WithTimeout(ctx, b.timeout)
	ps := b.client.Subscribe(hsCtx, AuthEventsChannel)
	_, err := ps.Receive(hsCtx)
	cancel()
	if err != nil {
		_ = ps.Close()
		return fmt.Errorf("subscribe %s: %w", AuthEventsChannel, err)
	}
	defer ps.Close()

	msgs := ps.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return nil
			}
			b.dispatch(ctx, msg.Payload, handle)
		}
	}
}

func (b *AuthEventBus) encode(evt domain.AuthEvent) ([]byte, error) {
	return json.Marshal(authEnvelope{
		Origin:    b.origin,
		Type:      string(evt.Type),
		SessionID: evt.SessionID,
		UserID:    evt.UserID,
	})
}

func (b *AuthEventBus) dispatch(ctx context.Context, payload string, handle func(context.Context, domain.AuthEvent)) {
	var env authEnvelope
	if err := json.Unmarshal([]byte(payload), &env); err != nil {
		b.log.Warn().Err(err).Msg("undecodable auth event")
		return
	}
	if env.Origin == b.origin {
		return
	}
	evt := domain.AuthEvent{Type: domain.AuthEventType(env.Type), SessionID: env.SessionID, UserID: env.UserID}
	switch evt.Type {
	case domain.AuthSignedOut, domain.AuthUserUpdated:
		handle(ctx, evt)
	default:
		b.log.Warn().Str("type", env.Type).Msg("ignoring auth event")
	}
}
