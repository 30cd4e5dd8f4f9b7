// Package notifier delivers password reset links.
package notifier

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/rs/zerolog"
)

type snsPublisher interface {
	Publish(ctx context.Context, in *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// SNSNotifier publishes reset requests to a topic consumed by the mail
// pipeline.
type SNSNotifier struct {
	client   snsPublisher
	topicARN string
	log      zerolog.Logger
}

// NewSNSNotifier creates a notifier for topicARN. endpoint overrides the
// service endpoint when set (LocalStack).
func NewSNSNotifier(cfg aws.Config, endpoint, topicARN string, log zerolog.Logger) *SNSNotifier {
	client := sns.NewFromConfig(cfg, func(o *sns.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})
	return &SNSNotifier{client: client, topicARN: topicARN, log: log}
}

type resetMessage struct {
	Kind  string `json:"kind"`
	Email string `json:"email"`
	Link  string `json:"link"`
}

func (n *SNSNotifier) SendReset(ctx context.Context, email, link string) error {
	body, err := json.Marshal(resetMessage{Kind: "password_reset", Email: email, Link: link})
	if err != nil {
		return err
	}
	out, err := n.client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(n.topicARN),
		Subject:  aws.String("Reset your password"),
		Message:  aws.String(string(body)),
	})
	if err != nil {
		return fmt.Errorf("sns publish: %w", err)
	}
	n.log.Info().Str("message_id", aws.ToString(out.MessageId)).Msg("password reset queued")
	return nil
}

// LogNotifier writes reset links to the log. Used when no topic is set.
type LogNotifier struct {
	log zerolog.Logger
}

func NewLogNotifier(log zerolog.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) SendReset(_ context.Context, email, link string) error {
	n.log.Info().Str("email", email).Str("link", link).Msg("password reset link")
	return nil
}
