package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"timed-quiz-service/internal/domain"
)

// ConfigStore reads per-course quiz configs from the quiz_configs table.
type ConfigStore struct {
	pool     *pgxpool.Pool
	fallback domain.QuizConfig
}

func NewConfigStore(pool *pgxpool.Pool, fallback domain.QuizConfig) *ConfigStore {
	return &ConfigStore{pool: pool, fallback: fallback}
}

// QuizConfig returns the course's active config. Missing or inactive configs,
// and the mixed pool, get the fallback.
func (s *ConfigStore) QuizConfig(ctx context.Context, courseID *int64) (domain.QuizConfig, error) {
	cfg := s.fallback
	if courseID == nil {
		return cfg, nil
	}
	cfg.CourseID = courseID

	var (
		limit   int
		seconds int
		active  bool
	)
	err := s.pool.QueryRow(ctx,
		`SELECT question_limit, time_per_question, is_active FROM quiz_configs WHERE course_id=$1`,
		*courseID,
	).Scan(&limit, &seconds, &active)
	if errors.Is(err, pgx.ErrNoRows) {
		return cfg, nil
	}
	if err != nil {
		return domain.QuizConfig{}, fmt.Errorf("load quiz config: %w", err)
	}
	if !active {
		return cfg, nil
	}

	stored := domain.QuizConfig{
		CourseID:        courseID,
		QuestionLimit:   limit,
		TimePerQuestion: time.Duration(seconds) * time.Second,
		Active:          true,
	}
	if err := domain.ValidateQuizConfig(stored); err != nil {
		return domain.QuizConfig{}, err
	}
	return stored, nil
}

// SaveQuizConfig upserts cfg for courseID. Budgets are stored in whole seconds.
func (s *ConfigStore) SaveQuizConfig(ctx context.Context, courseID int64, cfg domain.QuizConfig) error {
	if err := domain.ValidateQuizConfig(cfg); err != nil {
		return err
	}
	_, err := s.pool.Exec(ctx, `
INSERT INTO quiz_configs (course_id, question_limit, time_per_question, is_active)
VALUES ($1, $2, $3, $4)
ON CONFLICT (course_id) DO UPDATE
SET question_limit=EXCLUDED.question_limit, time_per_question=EXCLUDED.time_per_question, is_active=EXCLUDED.is_active`,
		courseID, cfg.QuestionLimit, int(cfg.TimePerQuestion/time.Second), cfg.Active,
	)
	if err != nil {
		return fmt.Errorf("save quiz config: %w", err)
	}
	return nil
}
