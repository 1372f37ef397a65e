package memory

import (
	"context"
	"sync"

	"timed-quiz-service/internal/domain"
)

// ConfigStore keeps per-course quiz configs in memory. Courses without an
// active config, and the mixed pool, run with the fallback.
type ConfigStore struct {
	fallback domain.QuizConfig

	mu      sync.RWMutex
	configs map[int64]domain.QuizConfig
}

func NewConfigStore(fallback domain.QuizConfig) *ConfigStore {
	return &ConfigStore{
		fallback: fallback,
		configs:  make(map[int64]domain.QuizConfig),
	}
}

// Put stores cfg for its course.
func (s *ConfigStore) Put(courseID int64, cfg domain.QuizConfig) error {
	if err := domain.ValidateQuizConfig(cfg); err != nil {
		return err
	}
	cfg.CourseID = &courseID
	s.mu.Lock()
	defer s.mu.Unlock()
	s.configs[courseID] = cfg
	return nil
}

func (s *ConfigStore) QuizConfig(_ context.Context, courseID *int64) (domain.QuizConfig, error) {
	cfg := s.fallback
	if courseID == nil {
		return cfg, nil
	}
	s.mu.RLock()
	stored, ok := s.configs[*courseID]
	s.mu.RUnlock()
	if ok && stored.Active {
		return stored, nil
	}
	id := *courseID
	cfg.CourseID = &id
	return cfg, nil
}
