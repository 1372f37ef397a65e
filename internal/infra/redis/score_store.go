package redis

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"timed-quiz-service/internal/domain"
)

const (
	leaderboardKey = "quiz:leaderboard"
	updatedKey     = "quiz:leaderboard:updated"
)

// ScoreStore keeps the latest score per user in a sorted set, with the time of
// the last update in a side hash for tie-breaking:
//
//	ZADD quiz:leaderboard {score} {userID}
//	HSET quiz:leaderboard:updated {userID} {unixNano}
type ScoreStore struct {
	client *redis.Client
	now    func() time.Time
}

func NewScoreStore(client *redis.Client) *ScoreStore {
	return &ScoreStore{client: client, now: time.Now}
}

func (s *ScoreStore) RecordScore(ctx context.Context, userID string, score int) error {
	pipe := s.client.TxPipeline()
	pipe.ZAdd(ctx, leaderboardKey, redis.Z{Score: float64(score), Member: userID})
	pipe.HSet(ctx, updatedKey, userID, s.now().UnixNano())
	_, err := pipe.Exec(ctx)
	return err
}

func (s *ScoreStore) Leaderboard(ctx context.Context, limit int) (domain.Leaderboard, error) {
	members, err := s.client.ZRevRangeWithScores(ctx, leaderboardKey, 0, -1).Result()
	if err != nil {
		return domain.Leaderboard{}, err
	}
	lb := domain.Leaderboard{UpdatedAt: s.now()}
	if len(members) == 0 {
		return lb, nil
	}

	users := make([]string, len(members))
	for i, m := range members {
		users[i], _ = m.Member.(string)
	}
	stamps, err := s.client.HMGet(ctx, updatedKey, users...).Result()
	if err != nil {
		return domain.Leaderboard{}, err
	}

	entries := make([]domain.LeaderboardEntry, 0, len(members))
	for i, m := range members {
		entry := domain.LeaderboardEntry{UserID: users[i], Score: int(m.Score)}
		if raw, ok := stamps[i].(string); ok {
			if nanos, err := strconv.ParseInt(raw, 10, 64); err == nil {
				entry.LastUpdated = time.Unix(0, nanos).UTC()
			}
		}
		entries = append(entries, entry)
	}
	domain.RankEntries(entries)
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	lb.Entries = entries
	return lb, nil
}
