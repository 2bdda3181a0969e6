package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-kafka/v2/pkg/kafka"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// Account lifecycle topics.
const (
	TopicAccountCreated         = "account.created"
	TopicAccountInvited         = "account.invited"
	TopicAccountUpdated         = "account.updated"
	TopicAccountSuspended       = "account.suspended"
	TopicAccountReactivated     = "account.reactivated"
	TopicAccountDeleted         = "account.deleted"
	TopicInviteResent           = "account.invite_resent"
	TopicPasswordResetRequested = "account.password_reset_requested"
)

// AccountEvent describes a change to an account, published after the primary
// mutation succeeded. Publishing is best-effort.
type AccountEvent struct {
	Type       string         `json:"type"`
	AccountID  string         `json:"account_id,omitempty"`
	Email      string         `json:"email,omitempty"`
	Data       map[string]any `json:"data,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

// EventPublisher publishes account lifecycle events.
type EventPublisher interface {
	Publish(ctx context.Context, event *AccountEvent) error
	Close() error
}

// watermillPublisher publishes events through any watermill publisher, one
// topic per event type.
type watermillPublisher struct {
	publisher message.Publisher
}

func (p *watermillPublisher) Publish(_ context.Context, event *AccountEvent) error {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	if err := p.publisher.Publish(event.Type, msg); err != nil {
		return fmt.Errorf("failed to publish event %s: %w", event.Type, err)
	}
	return nil
}

func (p *watermillPublisher) Close() error {
	return p.publisher.Close()
}

// NewKafkaPublisher creates a Kafka-backed event publisher.
func NewKafkaPublisher(brokers []string, logger *slog.Logger) (EventPublisher, error) {
	publisher, err := kafka.NewPublisher(
		kafka.PublisherConfig{
			Brokers:   brokers,
			Marshaler: kafka.DefaultMarshaler{},
		},
		watermill.NewSlogLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka publisher: %w", err)
	}
	return &watermillPublisher{publisher: publisher}, nil
}

// NewGoChannelPublisher creates an in-process event publisher for development
// and environments without Kafka.
func NewGoChannelPublisher(logger *slog.Logger) EventPublisher {
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NewSlogLogger(logger))
	return &watermillPublisher{publisher: pubSub}
}
