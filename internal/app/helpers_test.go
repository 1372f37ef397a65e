package app_test

import (
	"context"
	"sync"
	"time"

	"timed-quiz-service/internal/app"
	"timed-quiz-service/internal/domain"
)

// scriptSource hands out one scripted line per collection. The line is queued
// right after the collector discards stale input, like a student typing
// promptly. An empty line means the student types nothing.
type scriptSource struct {
	*app.ChanSource
	lines []string
	next  int
}

func newScriptSource(lines ...string) *scriptSource {
	return &scriptSource{ChanSource: app.NewChanSource(0), lines: lines}
}

func (s *scriptSource) Discard() {
	s.ChanSource.Discard()
	if s.next < len(s.lines) {
		s.ChanSource.Feed(s.lines[s.next])
		s.next++
	}
}

func question(id int64, correct int) domain.Question {
	return domain.Question{
		ID:            id,
		Text:          "Question",
		Options:       []string{"A", "B", "C", "D"},
		CorrectOption: correct,
	}
}

func fastConfig() domain.QuizConfig {
	return domain.QuizConfig{QuestionLimit: 10, TimePerQuestion: time.Second, Active: true}
}

func fastCollector() *app.AnswerCollector {
	return app.NewAnswerCollector(app.WithGrace(200 * time.Millisecond))
}

type recordingPresenter struct {
	started  []int
	resolved []domain.QuestionResult
}

func (p *recordingPresenter) QuestionStarted(index, _ int, _ domain.Question, _ time.Duration) {
	p.started = append(p.started, index)
}

func (p *recordingPresenter) QuestionResolved(result domain.QuestionResult) {
	p.resolved = append(p.resolved, result)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.SessionEvent
}

func (p *recordingPublisher) PublishSessionEvent(_ context.Context, event domain.SessionEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) types() []domain.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]domain.EventType, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}
