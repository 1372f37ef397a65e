package app

import (
	"context"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"timed-quiz-service/internal/domain"
)

// DefaultGrace is how long the driver waits past the budget for a worker to hand back.
const DefaultGrace = time.Second

// AnswerCollector runs one bounded-time attempt to read a validated answer.
// Each Collect call owns exactly one worker goroutine, which is cancelled and
// joined before Collect returns.
type AnswerCollector struct {
	grace time.Duration
	log   zerolog.Logger
}

type CollectorOption func(*AnswerCollector)

func WithGrace(d time.Duration) CollectorOption {
	return func(c *AnswerCollector) {
		if d > 0 {
			c.grace = d
		}
	}
}

func WithCollectorLogger(log zerolog.Logger) CollectorOption {
	return func(c *AnswerCollector) { c.log = log }
}

func NewAnswerCollector(opts ...CollectorOption) *AnswerCollector {
	c := &AnswerCollector{grace: DefaultGrace, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.With().Str("component", "answer_collector").Logger()
	return c
}

// Collect reads one line from src and turns it into an outcome. It returns
// TimedOut when budget elapses first or when ctx is cancelled; callers that
// need to tell the two apart check ctx.Err().
func (c *AnswerCollector) Collect(ctx context.Context, src InputSource, budget time.Duration) domain.AnswerOutcome {
	return c.collect(ctx, src, budget, nil)
}

// collect runs ready on the caller's goroutine once stale input is gone and the
// worker is listening, so a prompt can never race its own answer.
func (c *AnswerCollector) collect(ctx context.Context, src InputSource, budget time.Duration, ready func()) domain.AnswerOutcome {
	// Keystrokes that arrived between questions belong to nobody.
	src.Discard()

	deadline := time.Now().Add(budget)
	workerCtx, cancel := context.WithDeadline(ctx, deadline)
	defer cancel()

	result := make(chan domain.AnswerOutcome, 1)
	done := make(chan struct{})
	go func() {
		defer close(done)
		result <- readAnswer(workerCtx, src, deadline)
	}()
	if ready != nil {
		ready()
	}

	guard := time.NewTimer(budget + c.grace)
	defer guard.Stop()

	var outcome domain.AnswerOutcome
	select {
	case outcome = <-result:
	case <-guard.C:
		c.log.Warn().Dur("budget", budget).Msg("answer worker missed its deadline")
		outcome = domain.TimedOut()
	}
	cancel()

	teardown := time.NewTimer(c.grace)
	defer teardown.Stop()
	select {
	case <-done:
	case <-teardown.C:
		c.log.Error().Msg("answer worker still running after cancellation")
	}
	return outcome
}

func readAnswer(ctx context.Context, src InputSource, deadline time.Time) domain.AnswerOutcome {
	var line []byte
	for {
		b, err := src.NextByte(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return domain.TimedOut()
			}
			return domain.Invalid("")
		}
		switch {
		case b == '\r' || b == '\n':
			// A line finished on or after the deadline never counts.
			if !time.Now().Before(deadline) || ctx.Err() != nil {
				return domain.TimedOut()
			}
			return parseAnswer(string(line))
		case b == 0x7f || b == '\b':
			_, size := utf8.DecodeLastRune(line)
			line = line[:len(line)-size]
		case b >= 0x20 && b != 0x7f:
			line = append(line, b)
		}
	}
}

func parseAnswer(raw string) domain.AnswerOutcome {
	text := strings.TrimSpace(raw)
	n, err := strconv.Atoi(text)
	if err != nil || n < 1 || n > domain.OptionCount {
		return domain.Invalid(text)
	}
	return domain.Answered(n, text)
}
