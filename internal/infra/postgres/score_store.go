package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"timed-quiz-service/internal/domain"
)

// ScoreStore records scores on the users table; a new user gets a row on first record.
type ScoreStore struct {
	pool *pgxpool.Pool
}

func NewScoreStore(pool *pgxpool.Pool) *ScoreStore {
	return &ScoreStore{pool: pool}
}

func (s *ScoreStore) RecordScore(ctx context.Context, userID string, score int) error {
	_, err := s.pool.Exec(ctx, `
INSERT INTO users (username, score, updated_at) VALUES ($1, $2, now())
ON CONFLICT (username) DO UPDATE SET score=EXCLUDED.score, updated_at=EXCLUDED.updated_at`,
		userID, score,
	)
	if err != nil {
		return fmt.Errorf("record score: %w", err)
	}
	return nil
}

func (s *ScoreStore) Leaderboard(ctx context.Context, limit int) (domain.Leaderboard, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.pool.Query(ctx, `
SELECT username, score, updated_at FROM users
ORDER BY score DESC, updated_at ASC, username ASC
LIMIT $1`, limit)
	if err != nil {
		return domain.Leaderboard{}, fmt.Errorf("load leaderboard: %w", err)
	}
	defer rows.Close()

	lb := domain.Leaderboard{UpdatedAt: time.Now()}
	for rows.Next() {
		entry := domain.LeaderboardEntry{Rank: len(lb.Entries) + 1}
		if err := rows.Scan(&entry.UserID, &entry.Score, &entry.LastUpdated); err != nil {
			return domain.Leaderboard{}, fmt.Errorf("scan leaderboard: %w", err)
		}
		lb.Entries = append(lb.Entries, entry)
	}
	if err := rows.Err(); err != nil {
		return domain.Leaderboard{}, fmt.Errorf("load leaderboard: %w", err)
	}
	return lb, nil
}
