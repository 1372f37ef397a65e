package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"timed-quiz-service/internal/domain"
)

// releaseScript deletes the key only while it still holds the caller's session ID.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// SessionStore is a Redis implementation of app.ActiveSessions, shared by every
// instance: SET quiz:active:{userID} {sessionID} NX PX lease.
// The expiry bounds how long a crashed instance can keep a user locked out;
// ttl is used for callers that pass no lease.
type SessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{
		client: client,
		ttl:    ttl,
	}
}

func (s *SessionStore) Acquire(ctx context.Context, userID, sessionID string, lease time.Duration) error {
	if lease <= 0 {
		lease = s.ttl
	}
	ok, err := s.client.SetNX(ctx, s.key(userID), sessionID, lease).Result()
	if err != nil {
		return err
	}
	if ok {
		return nil
	}
	current, err := s.client.Get(ctx, s.key(userID)).Result()
	switch {
	case errors.Is(err, redis.Nil):
		// expired between the two calls
		return s.Acquire(ctx, userID, sessionID, lease)
	case err != nil:
		return err
	case current != sessionID:
		return domain.ErrSessionInProgress
	}
	return nil
}

func (s *SessionStore) Release(ctx context.Context, userID, sessionID string) {
	// best-effort; the TTL cleans up if this fails
	_ = releaseScript.Run(ctx, s.client, []string{s.key(userID)}, sessionID).Err()
}

// Get returns the session ID that currently holds userID.
func (s *SessionStore) Get(ctx context.Context, userID string) (string, bool) {
	sessionID, err := s.client.Get(ctx, s.key(userID)).Result()
	if err != nil {
		return "", false
	}
	return sessionID, true
}

func (s *SessionStore) key(userID string) string {
	return "quiz:active:" + userID
}
