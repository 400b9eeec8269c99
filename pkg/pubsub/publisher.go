package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"sigsync/internal/signature/domain"

	"cloud.google.com/go/pubsub"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// Batch settings matching the channel's tuning: hold a batch at most two
// seconds, flush at ten messages.
const (
	batchDelayThreshold = 2 * time.Second
	batchCountThreshold = 10
)

// Publisher puts update events onto a Pub/Sub topic. The account email is
// the ordering key, so the channel keeps per-account order while events for
// different accounts stay independent.
type Publisher struct {
	client *pubsub.Client
	topic  *pubsub.Topic
	logger *zap.Logger
}

func NewPublisher(ctx context.Context, projectID, topicID, credentialsFile string, logger *zap.Logger) (*Publisher, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := pubsub.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to create pubsub client: %w", err)
	}

	topic := client.Topic(topicID)
	topic.EnableMessageOrdering = true
	topic.PublishSettings.DelayThreshold = batchDelayThreshold
	topic.PublishSettings.CountThreshold = batchCountThreshold

	return &Publisher{client: client, topic: topic, logger: logger}, nil
}

// Publish sends one event and waits for the server acknowledgement.
func (p *Publisher) Publish(ctx context.Context, event domain.UpdateEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("unable to encode event for %s: %w", event.Email, err)
	}

	result := p.topic.Publish(ctx, &pubsub.Message{
		Data:        data,
		OrderingKey: event.Email,
	})
	if _, err := result.Get(ctx); err != nil {
		// A failed ordered publish pauses the whole ordering key; resume so
		// the caller's retry is not rejected outright.
		p.topic.ResumePublish(event.Email)
		return fmt.Errorf("unable to publish event for %s: %w", event.Email, err)
	}

	p.logger.Debug("published update event", zap.String("email", event.Email), zap.String("event_id", event.ID))
	return nil
}

// Close flushes pending batches and releases the client.
func (p *Publisher) Close() error {
	p.topic.Stop()
	return p.client.Close()
}
