package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/taskdesk/todo-service/internal/core/domain"
	"github.com/taskdesk/todo-service/internal/core/ports"
)

const (
	channelPrefix    = "todos:changes:"
	changeBuffer     = 32
	subscribeTimeout = 5 * time.Second
)

// ChangeChannel is the pub/sub channel carrying ownerID's todo changes.
func ChangeChannel(ownerID string) string {
	return channelPrefix + ownerID
}

func encodeChange(c domain.TodoChange) ([]byte, error) {
	return json.Marshal(c)
}

func decodeChange(payload string) (domain.TodoChange, error) {
	var c domain.TodoChange
	err := json.Unmarshal([]byte(payload), &c)
	return c, err
}

// Publisher writes todo changes to the owner's channel.
type Publisher struct {
	client *redis.Client
}

func NewPublisher(client *redis.Client) *Publisher {
	return &Publisher{client: client}
}

func (p *Publisher) Publish(ctx context.Context, c domain.TodoChange) error {
	if c.OwnerID == "" {
		return domain.ErrMissingOwner
	}
	payload, err := encodeChange(c)
	if err != nil {
		return fmt.Errorf("encode change: %w", err)
	}
	if err := p.client.Publish(ctx, ChangeChannel(c.OwnerID), payload).Err(); err != nil {
		return fmt.Errorf("publish change: %w", err)
	}
	return nil
}

// ChangeFeed subscribes to owner channels.
type ChangeFeed struct {
	client  *redis.Client
	log     zerolog.Logger
	timeout time.Duration
}

func NewChangeFeed(client *redis.Client, log zerolog.Logger) *ChangeFeed {
	return &ChangeFeed{client: client, log: log, timeout: subscribeTimeout}
}

// Subscribe returns once Redis has confirmed the subscription, so no change
// published afterwards is missed. The confirmation must arrive within the
// feed's subscribe timeout.
func (f *ChangeFeed) Subscribe(ctx context.Context, ownerID string) (ports.Subscription, error) {
	if ownerID == "" {
		return nil, domain.ErrMissingOwner
	}

	hsCtx, cancelHS := context.WithTimeout(ctx, f.timeout)
	defer cancelHS()
	ps := f.client.Subscribe(hsCtx, ChangeChannel(ownerID))
	if _, err := ps.Receive(hsCtx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("subscribe %s: %w", ChangeChannel(ownerID), err)
	}

	ctx, cancel := context.WithCancel(ctx)
	sub := &pubsubSub{ps: ps, cancel: cancel, events: make(chan domain.TodoChange, changeBuffer)}
	go sub.run(ctx, f.log.With().Str("owner_id", ownerID).Logger())
	return sub, nil
}

type pubsubSub struct {
	ps     *redis.PubSub
	cancel context.CancelFunc
	events chan domain.TodoChange
	once   sync.Once
	err    error
}

func (s *pubsubSub) Events() <-chan domain.TodoChange { return s.events }

func (s *pubsubSub) Close() error {
	s.once.Do(func() {
		s.cancel()
		s.err = s.ps.Close()
	})
	return s.err
}

func (s *pubsubSub) run(ctx context.Context, log zerolog.Logger) {
	defer close(s.events)
	msgs := s.ps.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-msgs:
			if !ok {
				return
			}
			change, err := decodeChange(msg.Payload)
			if err != nil {
				log.Warn().Err(err).Str("channel", msg.Channel).Msg("undecodable change message")
				continue
			}
			select {
			case s.events <- change:
			case <-ctx.Done():
				return
			}
		}
	}
}
