package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"timed-quiz-service/internal/domain"
)

// QuestionProvider supplies an already shuffled question list capped at cfg.QuestionLimit.
// A nil courseID asks for the mixed pool across all courses.
type QuestionProvider interface {
	FetchQuestions(ctx context.Context, courseID *int64, cfg domain.QuizConfig) ([]domain.Question, error)
}

// ConfigStore resolves the QuizConfig a course's sessions run with.
type ConfigStore interface {
	QuizConfig(ctx context.Context, courseID *int64) (domain.QuizConfig, error)
}

// ScoreSink persists the final score of a completed session.
type ScoreSink interface {
	RecordScore(ctx context.Context, userID string, score int) error
}

// LeaderboardReader is implemented by sinks that can rank recorded scores.
type LeaderboardReader interface {
	Leaderboard(ctx context.Context, limit int) (domain.Leaderboard, error)
}

// ActiveSessions tracks which users currently run a session (in-memory, Redis, etc).
// lease is how long the session can run at most; stores that expire entries
// keep the slot at least that long.
type ActiveSessions interface {
	Acquire(ctx context.Context, userID, sessionID string, lease time.Duration) error
	Release(ctx context.Context, userID, sessionID string)
}

// EventPublisher receives session lifecycle events.
type EventPublisher interface {
	PublishSessionEvent(ctx context.Context, event domain.SessionEvent) error
}

// Presenter renders questions and per-question feedback for whatever drives the session.
// QuestionStarted fires once the collector is listening, so answers sent in
// reaction to it are never discarded as stale.
type Presenter interface {
	QuestionStarted(index, total int, q domain.Question, budget time.Duration)
	QuestionResolved(result domain.QuestionResult)
}

// QuizService contains the quiz-taking use cases around a Session.
type QuizService struct {
	questions QuestionProvider
	configs   ConfigStore
	scores    ScoreSink
	active    ActiveSessions
	events    EventPublisher
	collector *AnswerCollector
	log       zerolog.Logger
}

type ServiceOption func(*QuizService)

func WithActiveSessions(a ActiveSessions) ServiceOption {
	return func(s *QuizService) { s.active = a }
}

func WithEvents(p EventPublisher) ServiceOption {
	return func(s *QuizService) { s.events = p }
}

func WithServiceCollector(c *AnswerCollector) ServiceOption {
	return func(s *QuizService) { s.collector = c }
}

func WithLogger(log zerolog.Logger) ServiceOption {
	return func(s *QuizService) { s.log = log }
}

func NewQuizService(questions QuestionProvider, configs ConfigStore, scores ScoreSink, opts ...ServiceOption) *QuizService {
	s := &QuizService{
		questions: questions,
		configs:   configs,
		scores:    scores,
		log:       zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.collector == nil {
		s.collector = NewAnswerCollector(WithCollectorLogger(s.log))
	}
	s.log = s.log.With().Str("component", "quiz_service").Logger()
	return s
}

// Begin resolves the course config, fetches the questions and starts a session for userID.
func (s *QuizService) Begin(ctx context.Context, userID string, courseID *int64) (*Session, error) {
	cfg, err := s.configs.QuizConfig(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("load quiz config: %w", err)
	}
	questions, err := s.questions.FetchQuestions(ctx, courseID, cfg)
	if err != nil {
		return nil, fmt.Errorf("fetch questions: %w", err)
	}

	session, err := Start(questions, cfg,
		WithUser(userID),
		WithCollector(s.collector),
		WithSessionLogger(s.log),
	)
	if err != nil {
		return nil, err
	}

	if s.active != nil {
		if err := s.active.Acquire(ctx, userID, session.ID(), s.lease(session)); err != nil {
			return nil, err
		}
	}
	s.log.Info().
		Str("session_id", session.ID()).
		Str("user_id", userID).
		Int("questions", session.Total()).
		Dur("time_per_question", cfg.TimePerQuestion).
		Msg("quiz started")
	return session, nil
}

// leaseSlack covers the gaps around collections: presenter output, Finish, events.
const leaseSlack = time.Minute

// lease is the longest session can take: every question running into its grace.
func (s *QuizService) lease(session *Session) time.Duration {
	perQuestion := session.Config().TimePerQuestion + s.collector.grace
	return time.Duration(session.Total())*perQuestion + leaseSlack
}

// Run drives session to a terminal state, reading answers from src.
// Cancelling ctx aborts the session; the returned error then wraps ErrSessionAborted.
func (s *QuizService) Run(ctx context.Context, session *Session, src InputSource, presenter Presenter) (domain.SessionSummary, error) {
	defer s.release(session)

	for session.State() == domain.StateAwaitingAnswer {
		var ready func()
		if presenter != nil {
			q, _ := session.Current()
			index := session.CurrentIndex()
			ready = func() {
				presenter.QuestionStarted(index, session.Total(), q, session.Config().TimePerQuestion)
			}
		}
		result, err := session.submit(ctx, src, ready)
		if err != nil {
			if errors.Is(err, domain.ErrSessionAborted) {
				s.publish(context.WithoutCancel(ctx), session, domain.EventSessionAborted)
			}
			return domain.SessionSummary{}, err
		}
		if presenter != nil {
			presenter.QuestionResolved(result)
		}
	}
	return s.Finish(ctx, session)
}

// Finish records the final score and announces the completed session.
func (s *QuizService) Finish(ctx context.Context, session *Session) (domain.SessionSummary, error) {
	summary, err := session.Finish(ctx, s.scores)
	if err != nil {
		return domain.SessionSummary{}, err
	}
	s.release(session)
	s.publish(ctx, session, domain.EventSessionCompleted)
	return summary, nil
}

// Abort ends session without recording a score.
func (s *QuizService) Abort(ctx context.Context, session *Session) {
	if session.State().Terminal() {
		return
	}
	session.Abort()
	s.release(session)
	s.publish(ctx, session, domain.EventSessionAborted)
}

// Leaderboard returns the ranked scores when the configured sink supports it.
func (s *QuizService) Leaderboard(ctx context.Context, limit int) (domain.Leaderboard, error) {
	reader, ok := s.scores.(LeaderboardReader)
	if !ok {
		return domain.Leaderboard{}, errors.New("score sink does not support leaderboards")
	}
	return reader.Leaderboard(ctx, limit)
}

func (s *QuizService) release(session *Session) {
	if s.active == nil {
		return
	}
	s.active.Release(context.Background(), session.UserID(), session.ID())
}

// publish is best-effort: the score sink is the system of record, events only fan out.
func (s *QuizService) publish(ctx context.Context, session *Session, typ domain.EventType) {
	if s.events == nil {
		return
	}
	event := domain.SessionEvent{
		Type:       typ,
		SessionID:  session.ID(),
		UserID:     session.UserID(),
		CourseID:   session.Config().CourseID,
		Score:      session.Score(),
		Total:      session.Total(),
		Answered:   len(session.results),
		Percentage: Percentage(session.Score(), session.Total()),
		At:         time.Now().UTC(),
	}
	if err := s.events.PublishSessionEvent(ctx, event); err != nil {
		s.log.Warn().Err(err).Str("session_id", session.ID()).Str("event", string(typ)).Msg("publish session event failed")
	}
}
