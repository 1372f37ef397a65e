package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
	"timed-quiz-service/internal/domain"
	"timed-quiz-service/internal/infra/memory"
)

// QuestionRepository caches whole question banks in Redis and falls back to a loader on cache miss.
// Banks are stored as JSON: SET quiz:bank:{courseID|all} [...]
type QuestionRepository struct {
	client *redis.Client
	loader memory.BankLoader
	ttl    time.Duration
	sf     singleflight.Group

	rndMu sync.Mutex
	rnd   *rand.Rand
}

func NewQuestionRepository(client *redis.Client, loader memory.BankLoader, ttl time.Duration) *QuestionRepository {
	return &QuestionRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// FetchQuestions implements app.QuestionProvider.
func (r *QuestionRepository) FetchQuestions(ctx context.Context, courseID *int64, cfg domain.QuizConfig) ([]domain.Question, error) {
	bank, err := r.bank(ctx, courseID)
	if err != nil {
		return nil, err
	}
	r.rndMu.Lock()
	defer r.rndMu.Unlock()
	return domain.SelectQuestions(bank, cfg.QuestionLimit, r.rnd.Shuffle), nil
}

func (r *QuestionRepository) bank(ctx context.Context, courseID *int64) ([]domain.Question, error) {
	key := r.bankKey(courseID)
	if bank, ok := r.cached(ctx, key); ok {
		return bank, nil
	}

	result, err, _ := r.sf.Do(key, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if bank, ok := r.cached(ctx, key); ok {
			return bank, nil
		}

		bank, err := r.loader.LoadBank(ctx, courseID)
		if err != nil {
			return nil, err
		}
		if payload, err := json.Marshal(bank); err == nil {
			// best-effort: a failed write only costs the next caller a reload
			_ = r.client.Set(ctx, key, payload, r.ttlWithJitter()).Err()
		}
		return bank, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Question), nil
}

func (r *QuestionRepository) cached(ctx context.Context, key string) ([]domain.Question, bool) {
	payload, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	var bank []domain.Question
	if err := json.Unmarshal(payload, &bank); err != nil || len(bank) == 0 {
		return nil, false
	}
	return bank, true
}

// Invalidate drops the cached bank so the next session reloads it.
func (r *QuestionRepository) Invalidate(ctx context.Context, courseID *int64) error {
	return r.client.Del(ctx, r.bankKey(courseID)).Err()
}

func (r *QuestionRepository) bankKey(courseID *int64) string {
	return "quiz:bank:" + memory.BankKey(courseID)
}

func (r *QuestionRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	r.rndMu.Lock()
	defer r.rndMu.Unlock()
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
