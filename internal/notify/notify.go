// Package notify publishes institution-completion events for downstream
// reporting.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cloud.google.com/go/pubsub"
	"go.uber.org/zap"

	"github.com/lexfind/contact-crawler/internal/crawler"
)

// Noop swallows every event.
type Noop struct{}

// InstitutionCompleted does nothing.
func (Noop) InstitutionCompleted(_ context.Context, _ string, _ int, _ string) error {
	return nil
}

// completionEvent is the published wire payload.
type completionEvent struct {
	InstitutionID string    `json:"institution_id"`
	ContactCount  int       `json:"contact_count"`
	FailureReason string    `json:"failure_reason,omitempty"`
	CompletedAt   time.Time `json:"completed_at"`
}

// PubSub publishes completion events to a Google Cloud Pub/Sub topic.
// Authentication uses Application Default Credentials.
type PubSub struct {
	client *pubsub.Client
	topic  *pubsub.Topic
	clock  crawler.Clock
	logger *zap.Logger
}

// NewPubSub creates the client and fails fast when the topic is missing.
func NewPubSub(ctx context.Context, projectID, topicID string, clock crawler.Clock, logger *zap.Logger) (*PubSub, error) {
	client, err := pubsub.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("create pubsub client: %w", err)
	}
	topic := client.Topic(topicID)
	exists, err := topic.Exists(ctx)
	if err != nil {
		if closeErr := client.Close(); closeErr != nil {
			logger.Warn("close pubsub client after existence check failure", zap.Error(closeErr))
		}
		return nil, fmt.Errorf("check pubsub topic %q: %w", topicID, err)
	}
	if !exists {
		if closeErr := client.Close(); closeErr != nil {
			logger.Warn("close pubsub client after existence check failure", zap.Error(closeErr))
		}
		return nil, fmt.Errorf("pubsub topic %q does not exist in project %q", topicID, projectID)
	}
	return &PubSub{
		client: client,
		topic:  topic,
		clock:  clock,
		logger: logger,
	}, nil
}

// InstitutionCompleted publishes one completion event. The publish is
// fire-and-forget; the client batches and retries in the background.
func (p *PubSub) InstitutionCompleted(ctx context.Context, institutionID string, contactCount int, failureReason string) error {
	payload, err := json.Marshal(completionEvent{
		InstitutionID: institutionID,
		ContactCount:  contactCount,
		FailureReason: failureReason,
		CompletedAt:   p.clock.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("marshal completion event: %w", err)
	}
	p.topic.Publish(ctx, &pubsub.Message{Data: payload})
	return nil
}

// Close stops the topic publisher and the client.
func (p *PubSub) Close() error {
	p.topic.Stop()
	if err := p.client.Close(); err != nil {
		return fmt.Errorf("close pubsub client: %w", err)
	}
	return nil
}

// New selects a notifier from configuration.
func New(ctx context.Context, provider, projectID, topicID string, clock crawler.Clock, logger *zap.Logger) (crawler.Notifier, error) {
	switch provider {
	case "", "none":
		return Noop{}, nil
	case "pubsub":
		return NewPubSub(ctx, projectID, topicID, clock, logger)
	default:
		return nil, fmt.Errorf("unknown notify provider %q", provider)
	}
}
