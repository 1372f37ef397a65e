package events

import (
	"context"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/rs/zerolog"
)

// NewLocal returns an in-process pub/sub used when no broker is configured.
func NewLocal(log zerolog.Logger) *gochannel.GoChannel {
	return gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 64}, NewLogger(log))
}

// LogSessions consumes session events from sub and writes them to log until ctx is done.
func LogSessions(ctx context.Context, sub message.Subscriber, topic string, log zerolog.Logger) error {
	if topic == "" {
		topic = DefaultTopic
	}
	messages, err := sub.Subscribe(ctx, topic)
	if err != nil {
		return err
	}
	log = log.With().Str("component", "session_events").Logger()
	for msg := range messages {
		event, err := Decode(msg)
		if err != nil {
			log.Warn().Err(err).Str("message_uuid", msg.UUID).Msg("dropping malformed event")
			msg.Ack()
			continue
		}
		log.Info().
			Str("event_type", string(event.Type)).
			Str("session_id", event.SessionID).
			Str("user_id", event.UserID).
			Int("score", event.Score).
			Int("total", event.Total).
			Msg("session event")
		msg.Ack()
	}
	return nil
}
