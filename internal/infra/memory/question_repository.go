package memory

import (
	"context"
	"math/rand"
	"slices"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
	"timed-quiz-service/internal/domain"
)

// BankLoader fetches a course's full question bank from a backing store (e.g., Postgres).
// A nil courseID loads the mixed pool across every course.
type BankLoader interface {
	LoadBank(ctx context.Context, courseID *int64) ([]domain.Question, error)
}

// QuestionRepository caches question banks with TTL to avoid repeated DB hits,
// and hands out a freshly shuffled, capped selection per session.
type QuestionRepository struct {
	loader BankLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group

	rndMu sync.Mutex
	rnd   *rand.Rand

	mu    sync.RWMutex
	cache map[string]cachedBank
}

type cachedBank struct {
	questions []domain.Question
	expiresAt time.Time
}

func NewQuestionRepository(loader BankLoader, ttl time.Duration) *QuestionRepository {
	return &QuestionRepository{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[string]cachedBank),
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
	key := BankKey(courseID)
	now := r.clock()

	r.mu.RLock()
	if entry, ok := r.cache[key]; ok && entry.expiresAt.After(now) {
		r.mu.RUnlock()
		return entry.questions, nil
	}
	r.mu.RUnlock()

	result, err, _ := r.sf.Do(key, func() (interface{}, error) {
		now := r.clock()
		r.mu.RLock()
		if entry, ok := r.cache[key]; ok && entry.expiresAt.After(now) {
			r.mu.RUnlock()
			return entry.questions, nil
		}
		r.mu.RUnlock()

		questions, err := r.loader.LoadBank(ctx, courseID)
		if err != nil {
			return nil, err
		}

		r.mu.Lock()
		r.cache[key] = cachedBank{
			questions: questions,
			expiresAt: now.Add(r.ttlWithJitter()),
		}
		r.mu.Unlock()
		return questions, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Question), nil
}

// BankKey names a bank for caching; the mixed pool is "all".
func BankKey(courseID *int64) string {
	if courseID == nil {
		return "all"
	}
	return strconv.FormatInt(*courseID, 10)
}

// StaticBankLoader is a simple loader backed by an in-memory map (useful for tests/demos).
type StaticBankLoader struct {
	banks map[int64][]domain.Question
}

func NewStaticBankLoader(banks map[int64][]domain.Question) *StaticBankLoader {
	return &StaticBankLoader{banks: banks}
}

func (l *StaticBankLoader) LoadBank(_ context.Context, courseID *int64) ([]domain.Question, error) {
	if courseID != nil {
		bank, ok := l.banks[*courseID]
		if !ok {
			return nil, domain.ErrCourseNotFound
		}
		return bank, nil
	}

	ids := make([]int64, 0, len(l.banks))
	for id := range l.banks {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	var all []domain.Question
	for _, id := range ids {
		all = append(all, l.banks[id]...)
	}
	return all, nil
}

func (r *QuestionRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	r.rndMu.Lock()
	defer r.rndMu.Unlock()
	// add up to 10% jitter to spread expirations
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
