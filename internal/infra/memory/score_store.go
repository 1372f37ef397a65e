package memory

import (
	"context"
	"sync"
	"time"

	"timed-quiz-service/internal/domain"
)

// ScoreStore is an in-memory implementation of app.ScoreSink and app.LeaderboardReader.
// Recording overwrites the user's previous score.
type ScoreStore struct {
	now func() time.Time

	mu     sync.RWMutex
	scores map[string]domain.LeaderboardEntry
}

func NewScoreStore() *ScoreStore {
	return NewScoreStoreWithClock(time.Now)
}

// NewScoreStoreWithClock is test-only for deterministic timestamps.
func NewScoreStoreWithClock(now func() time.Time) *ScoreStore {
	return &ScoreStore{
		now:    now,
		scores: make(map[string]domain.LeaderboardEntry),
	}
}

func (s *ScoreStore) RecordScore(_ context.Context, userID string, score int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scores[userID] = domain.LeaderboardEntry{
		UserID:      userID,
		Score:       score,
		LastUpdated: s.now(),
	}
	return nil
}

// Score returns the last recorded score for userID.
func (s *ScoreStore) Score(userID string) (int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.scores[userID]
	return entry.Score, ok
}

func (s *ScoreStore) Leaderboard(_ context.Context, limit int) (domain.Leaderboard, error) {
	s.mu.RLock()
	entries := make([]domain.LeaderboardEntry, 0, len(s.scores))
	for _, entry := range s.scores {
		entries = append(entries, entry)
	}
	s.mu.RUnlock()

	domain.RankEntries(entries)
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return domain.Leaderboard{Entries: entries, UpdatedAt: s.now()}, nil
}
