package console

import (
	"fmt"
	"io"
	"time"

	"timed-quiz-service/internal/domain"
)

// Presenter renders a quiz session on a terminal.
type Presenter struct {
	out     io.Writer
	newline string
}

type Option func(*Presenter)

// WithRawNewlines emits "\r\n", needed while the terminal is in raw mode.
func WithRawNewlines() Option {
	return func(p *Presenter) { p.newline = "\r\n" }
}

func NewPresenter(out io.Writer, opts ...Option) *Presenter {
	p := &Presenter{out: out, newline: "\n"}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Presenter) Welcome(userID string, total int, budget time.Duration) {
	p.line("Quiz starts for %s: %d questions, %s per question.", userID, total, budget)
	p.line("Type the option number and press Enter. Ctrl-C quits.")
}

func (p *Presenter) QuestionStarted(index, total int, q domain.Question, budget time.Duration) {
	p.line("")
	header := fmt.Sprintf("Question %d/%d", index+1, total)
	if q.Difficulty != "" {
		header += fmt.Sprintf(" [%s]", q.Difficulty)
	}
	p.line("%s (%s)", header, budget)
	p.line("%s", q.Text)
	for i, opt := range q.Options {
		p.line("  %d. %s", i+1, opt)
	}
	fmt.Fprint(p.out, "Your answer: ")
}

func (p *Presenter) QuestionResolved(result domain.QuestionResult) {
	switch {
	case result.Classification == domain.ClassCorrect:
		p.line("Correct!")
	case result.Classification == domain.ClassIncorrect:
		p.line("Wrong! Correct answer: %d", result.Question.CorrectOption)
	case result.Outcome.Kind == domain.OutcomeTimedOut:
		p.line("")
		p.line("Time's up! Correct answer: %d", result.Question.CorrectOption)
	default:
		p.line("Invalid answer %q, question skipped. Correct answer: %d", result.Outcome.Raw, result.Question.CorrectOption)
	}
}

func (p *Presenter) Summary(s domain.SessionSummary) {
	p.line("")
	p.line("Quiz finished! Score: %d/%d (%.1f%%)", s.Score, s.Total, s.Percentage)
	p.line("Correct: %d  Incorrect: %d  Skipped: %d", s.Correct, s.Incorrect, s.Skipped)
}

func (p *Presenter) Aborted(answered, total int) {
	p.line("")
	p.line("Quiz aborted after %d of %d questions. No score recorded.", answered, total)
}

func (p *Presenter) Leaderboard(lb domain.Leaderboard) {
	if len(lb.Entries) == 0 {
		p.line("No scores yet.")
		return
	}
	p.line("%-5s %-20s %5s", "Rank", "User", "Score")
	for _, e := range lb.Entries {
		p.line("%-5d %-20s %5d", e.Rank, e.UserID, e.Score)
	}
}

func (p *Presenter) line(format string, args ...any) {
	fmt.Fprintf(p.out, format, args...)
	fmt.Fprint(p.out, p.newline)
}
