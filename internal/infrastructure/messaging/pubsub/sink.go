// Package pubsub delivers outbox messages to a Google Cloud Pub/Sub topic.
package pubsub

import (
	"context"
	"errors"
	"fmt"

	gpubsub "cloud.google.com/go/pubsub"

	"pharmaledger/internal/infrastructure/storage/postgres"
	"pharmaledger/pkg/logger"
)

// Publisher is the part of *gpubsub.Topic the sink uses.
type Publisher interface {
	Publish(ctx context.Context, msg *gpubsub.Message) *gpubsub.PublishResult
}

// Sink implements postgres.OutboxHandler.
type Sink struct {
	topic Publisher
}

var _ postgres.OutboxHandler = (*Sink)(nil)

// NewSink wraps a topic.
func NewSink(topic Publisher) *Sink {
	return &Sink{topic: topic}
}

// OpenTopic connects to the project and returns the topic, creating it when missing.
func OpenTopic(ctx context.Context, projectID, topicName string) (*gpubsub.Client, *gpubsub.Topic, error) {
	if projectID == "" || topicName == "" {
		return nil, nil, errors.New("pubsub project and topic are required")
	}
	client, err := gpubsub.NewClient(ctx, projectID)
	if err != nil {
		return nil, nil, fmt.Errorf("create pubsub client: %w", err)
	}

	topic := client.Topic(topicName)
	ok, err := topic.Exists(ctx)
	if err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("check topic %q: %w", topicName, err)
	}
	if !ok {
		if topic, err = client.CreateTopic(ctx, topicName); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("create topic %q: %w", topicName, err)
		}
		logger.Info(ctx, "pubsub topic created", "topic", topicName)
	}
	return client, topic, nil
}

// Message builds the Pub/Sub message of an outbox row. The payload is sent
// as is; routing metadata travels in attributes.
func Message(msg *postgres.OutboxMessage) *gpubsub.Message {
	return &gpubsub.Message{
		Data: msg.Payload,
		Attributes: map[string]string{
			"event_type":     msg.EventType,
			"aggregate_type": msg.AggregateType,
			"aggregate_id":   msg.AggregateID.String(),
			"pharmacy_id":    msg.PharmacyID.String(),
			"message_id":     msg.ID.String(),
		},
	}
}

// Handle publishes msg and waits for the server acknowledgement.
func (s *Sink) Handle(ctx context.Context, msg *postgres.OutboxMessage) error {
	serverID, err := s.topic.Publish(ctx, Message(msg)).Get(ctx)
	if err != nil {
		return fmt.Errorf("publish %s: %w", msg.EventType, err)
	}
	logger.Debug(ctx, "outbox message published",
		"message_id", msg.ID, "event_type", msg.EventType, "pubsub_id", serverID)
	return nil
}
