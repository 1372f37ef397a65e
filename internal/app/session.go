package app

import (
	"context"
	"fmt"
	"math"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"timed-quiz-service/internal/domain"
)

// Session is a single student's run through a fixed question list.
// It is owned by one driver goroutine; the only concurrency is the worker
// each SubmitAnswer spawns and joins before returning.
type Session struct {
	id        string
	userID    string
	questions []domain.Question
	cfg       domain.QuizConfig
	collector *AnswerCollector
	log       zerolog.Logger

	state   domain.SessionState
	index   int
	score   int
	results []domain.QuestionResult
	summary *domain.SessionSummary
}

type SessionOption func(*Session)

func WithUser(userID string) SessionOption {
	return func(s *Session) { s.userID = userID }
}

func WithSessionID(id string) SessionOption {
	return func(s *Session) { s.id = id }
}

func WithCollector(c *AnswerCollector) SessionOption {
	return func(s *Session) {
		if c != nil {
			s.collector = c
		}
	}
}

func WithSessionLogger(log zerolog.Logger) SessionOption {
	return func(s *Session) { s.log = log }
}

// Start validates the inputs and moves a new session to AwaitingAnswer(0).
// questions are treated as final: already shuffled and capped by the provider.
func Start(questions []domain.Question, cfg domain.QuizConfig, opts ...SessionOption) (*Session, error) {
	if len(questions) == 0 {
		return nil, domain.ErrEmptyQuestionSet
	}
	if err := domain.ValidateQuizConfig(cfg); err != nil {
		return nil, err
	}
	for _, q := range questions {
		if err := domain.ValidateQuestion(q); err != nil {
			return nil, err
		}
	}

	s := &Session{
		id:        uuid.NewString(),
		questions: append([]domain.Question(nil), questions...),
		cfg:       cfg,
		log:       zerolog.Nop(),
		state:     domain.StateNotStarted,
		results:   make([]domain.QuestionResult, 0, len(questions)),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.collector == nil {
		s.collector = NewAnswerCollector(WithCollectorLogger(s.log))
	}
	s.log = s.log.With().Str("session_id", s.id).Str("user_id", s.userID).Logger()

	s.state = domain.StateAwaitingAnswer
	s.log.Debug().Int("questions", len(s.questions)).Dur("time_per_question", cfg.TimePerQuestion).Msg("session started")
	return s, nil
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) UserID() string {
	return s.userID
}

func (s *Session) State() domain.SessionState {
	return s.state
}

func (s *Session) Config() domain.QuizConfig {
	return s.cfg
}

func (s *Session) Score() int {
	return s.score
}

func (s *Session) Total() int {
	return len(s.questions)
}

func (s *Session) CurrentIndex() int {
	return s.index
}

// Results returns a copy of the resolved questions so far.
func (s *Session) Results() []domain.QuestionResult {
	return append([]domain.QuestionResult(nil), s.results...)
}

// Current returns the question awaiting an answer, if any.
func (s *Session) Current() (domain.Question, bool) {
	if s.state != domain.StateAwaitingAnswer {
		return domain.Question{}, false
	}
	return s.questions[s.index], true
}

// SubmitAnswer collects an answer for the current question from src, scores it
// and advances. Cancelling ctx while collecting aborts the session.
func (s *Session) SubmitAnswer(ctx context.Context, src InputSource) (domain.QuestionResult, error) {
	return s.submit(ctx, src, nil)
}

func (s *Session) submit(ctx context.Context, src InputSource, ready func()) (domain.QuestionResult, error) {
	switch s.state {
	case domain.StateAwaitingAnswer:
	case domain.StateAborted:
		return domain.QuestionResult{}, domain.ErrSessionAborted
	default:
		return domain.QuestionResult{}, domain.ErrSessionNotActive
	}
	if err := ctx.Err(); err != nil {
		s.Abort()
		return domain.QuestionResult{}, fmt.Errorf("%w: %w", domain.ErrSessionAborted, err)
	}

	q := s.questions[s.index]
	outcome := s.collector.collect(ctx, src, s.cfg.TimePerQuestion, ready)
	if err := ctx.Err(); err != nil {
		s.Abort()
		return domain.QuestionResult{}, fmt.Errorf("%w: %w", domain.ErrSessionAborted, err)
	}
	return s.resolve(q, outcome), nil
}

func (s *Session) resolve(q domain.Question, outcome domain.AnswerOutcome) domain.QuestionResult {
	res := domain.QuestionResult{Index: s.index, Question: q, Outcome: outcome}
	switch {
	case outcome.Kind == domain.OutcomeAnswered && q.Check(outcome.Index):
		s.score++
		res.Classification = domain.ClassCorrect
	case outcome.Kind == domain.OutcomeAnswered:
		res.Classification = domain.ClassIncorrect
	default:
		res.Classification = domain.ClassSkipped
	}
	res.ScoreAfter = s.score
	s.results = append(s.results, res)

	s.log.Debug().
		Int("question", s.index).
		Stringer("outcome", outcome.Kind).
		Str("classification", string(res.Classification)).
		Int("score", s.score).
		Msg("question resolved")

	s.index++
	if s.index >= len(s.questions) {
		s.state = domain.StateCompleted
	}
	return res
}

// Abort discards progress. It is a no-op once the session is terminal.
func (s *Session) Abort() {
	if s.state.Terminal() {
		return
	}
	s.state = domain.StateAborted
	s.log.Info().Int("answered", len(s.results)).Int("score", s.score).Msg("session aborted")
}

// Finish builds the summary and records the score on sink exactly once.
// A failed record is returned and may be retried by calling Finish again.
func (s *Session) Finish(ctx context.Context, sink ScoreSink) (domain.SessionSummary, error) {
	if s.state != domain.StateCompleted {
		return domain.SessionSummary{}, domain.ErrSessionNotCompleted
	}
	if s.summary != nil {
		return *s.summary, nil
	}

	summary := s.buildSummary()
	if sink != nil {
		if err := sink.RecordScore(ctx, s.userID, s.score); err != nil {
			return domain.SessionSummary{}, fmt.Errorf("record score: %w", err)
		}
	}
	s.summary = &summary
	s.log.Info().Int("score", summary.Score).Int("total", summary.Total).Float64("percentage", summary.Percentage).Msg("session finished")
	return summary, nil
}

func (s *Session) buildSummary() domain.SessionSummary {
	summary := domain.SessionSummary{
		SessionID:  s.id,
		UserID:     s.userID,
		Score:      s.score,
		Total:      len(s.questions),
		Percentage: Percentage(s.score, len(s.questions)),
		Results:    s.Results(),
	}
	for _, r := range s.results {
		switch r.Classification {
		case domain.ClassCorrect:
			summary.Correct++
		case domain.ClassIncorrect:
			summary.Incorrect++
		case domain.ClassSkipped:
			summary.Skipped++
		}
	}
	return summary
}

// Percentage is score*100/total rounded to one decimal.
func Percentage(score, total int) float64 {
	if total <= 0 {
		return 0
	}
	return math.Round(float64(score)*1000/float64(total)) / 10
}
