package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-kafka/v2/pkg/kafka"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/rs/zerolog"
	"timed-quiz-service/internal/domain"
)

// DefaultTopic carries every session lifecycle event.
const DefaultTopic = "quiz.sessions"

// Publisher implements app.EventPublisher on top of any watermill publisher.
type Publisher struct {
	publisher message.Publisher
	topic     string
	log       zerolog.Logger
}

func NewPublisher(publisher message.Publisher, topic string, log zerolog.Logger) *Publisher {
	if topic == "" {
		topic = DefaultTopic
	}
	return &Publisher{
		publisher: publisher,
		topic:     topic,
		log:       log.With().Str("component", "events").Str("topic", topic).Logger(),
	}
}

// NewKafkaPublisher publishes session events to Kafka.
func NewKafkaPublisher(brokers []string, topic string, log zerolog.Logger) (*Publisher, error) {
	publisher, err := kafka.NewPublisher(kafka.PublisherConfig{
		Brokers:   brokers,
		Marshaler: kafka.DefaultMarshaler{},
	}, NewLogger(log))
	if err != nil {
		return nil, fmt.Errorf("create kafka publisher: %w", err)
	}
	return NewPublisher(publisher, topic, log), nil
}

func (p *Publisher) PublishSessionEvent(ctx context.Context, event domain.SessionEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal session event: %w", err)
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.Metadata.Set("event_type", string(event.Type))
	msg.Metadata.Set("session_id", event.SessionID)
	msg.Metadata.Set("timestamp", event.At.Format(time.RFC3339))
	msg.SetContext(ctx)

	if err := p.publisher.Publish(p.topic, msg); err != nil {
		return fmt.Errorf("publish session event: %w", err)
	}
	p.log.Debug().Str("event_type", string(event.Type)).Str("session_id", event.SessionID).Msg("published session event")
	return nil
}

func (p *Publisher) Close() error {
	return p.publisher.Close()
}

// Decode reads a session event back from a message produced by Publisher.
func Decode(msg *message.Message) (domain.SessionEvent, error) {
	var event domain.SessionEvent
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		return domain.SessionEvent{}, fmt.Errorf("decode session event: %w", err)
	}
	return event, nil
}
