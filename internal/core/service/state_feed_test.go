package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taskdesk/todo-service/internal/core/domain"
)

func TestStateFeed_SubscribePublishUnsubscribe(t *testing.T) {
	feed := NewStateFeed()
	var first, second []domain.AuthEventType

	unsubscribe := feed.Subscribe(func(_ context.Context, evt domain.AuthEvent) { first = append(first, evt.Type) })
	feed.Subscribe(func(_ context.Context, evt domain.AuthEvent) { second = append(second, evt.Type) })

	feed.Publish(context.Background(), domain.AuthEvent{Type: domain.AuthSignedIn})
	unsubscribe()
	feed.Publish(context.Background(), domain.AuthEvent{Type: domain.AuthSignedOut})

	assert.Equal(t, []domain.AuthEventType{domain.AuthSignedIn}, first)
	assert.Equal(t, []domain.AuthEventType{domain.AuthSignedIn, domain.AuthSignedOut}, second)
}
