package events

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"timed-quiz-service/internal/domain"
)

func TestPublishSessionEvent(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pubsub := NewLocal(zerolog.Nop())
	defer pubsub.Close()

	messages, err := pubsub.Subscribe(ctx, DefaultTopic)
	require.NoError(t, err)

	publisher := NewPublisher(pubsub, "", zerolog.Nop())
	course := int64(3)
	sent := domain.SessionEvent{
		Type:       domain.EventSessionCompleted,
		SessionID:  "s1",
		UserID:     "alice",
		CourseID:   &course,
		Score:      2,
		Total:      3,
		Answered:   3,
		Percentage: 66.7,
		At:         time.Date(2024, 11, 22, 12, 0, 0, 0, time.UTC),
	}
	require.NoError(t, publisher.PublishSessionEvent(ctx, sent))

	select {
	case msg := <-messages:
		msg.Ack()
		assert.Equal(t, string(domain.EventSessionCompleted), msg.Metadata.Get("event_type"))
		got, err := Decode(msg)
		require.NoError(t, err)
		assert.Equal(t, sent, got)
	case <-time.After(2 * time.Second):
		t.Fatal("expected a published message")
	}
}

func TestLogSessionsStopsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	pubsub := NewLocal(zerolog.Nop())
	defer pubsub.Close()

	done := make(chan error, 1)
	go func() { done <- LogSessions(ctx, pubsub, "", zerolog.Nop()) }()

	publisher := NewPublisher(pubsub, "", zerolog.Nop())
	require.NoError(t, publisher.PublishSessionEvent(context.Background(), domain.SessionEvent{Type: domain.EventSessionAborted, SessionID: "s2"}))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("log subscriber did not stop")
	}
}
