package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // driver: sqlite
	"timed-quiz-service/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS scores (
  username   TEXT PRIMARY KEY,
  score      INTEGER NOT NULL,
  updated_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS scores_rank_idx ON scores (score DESC, updated_at ASC);
`

// ScoreStore keeps scores in a local SQLite file, for offline console play.
type ScoreStore struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (or creates) the database at path and ensures the schema exists.
func Open(ctx context.Context, path string) (*ScoreStore, error) {
	dsn := fmt.Sprintf("file:%s?cache=shared&mode=rwc&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: ping: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: schema: %w", err)
	}
	return &ScoreStore{db: db, now: time.Now}, nil
}

func (s *ScoreStore) Close() error {
	return s.db.Close()
}

func (s *ScoreStore) RecordScore(ctx context.Context, userID string, score int) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO scores (username, score, updated_at) VALUES (?, ?, ?)
ON CONFLICT (username) DO UPDATE SET score=excluded.score, updated_at=excluded.updated_at`,
		userID, score, s.now().UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("record score: %w", err)
	}
	return nil
}

func (s *ScoreStore) Leaderboard(ctx context.Context, limit int) (domain.Leaderboard, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT username, score, updated_at FROM scores
ORDER BY score DESC, updated_at ASC, username ASC
LIMIT ?`, limit)
	if err != nil {
		return domain.Leaderboard{}, fmt.Errorf("load leaderboard: %w", err)
	}
	defer rows.Close()

	lb := domain.Leaderboard{UpdatedAt: s.now()}
	for rows.Next() {
		var (
			entry domain.LeaderboardEntry
			nanos int64
		)
		if err := rows.Scan(&entry.UserID, &entry.Score, &nanos); err != nil {
			return domain.Leaderboard{}, fmt.Errorf("scan leaderboard: %w", err)
		}
		entry.Rank = len(lb.Entries) + 1
		entry.LastUpdated = time.Unix(0, nanos).UTC()
		lb.Entries = append(lb.Entries, entry)
	}
	return lb, rows.Err()
}
