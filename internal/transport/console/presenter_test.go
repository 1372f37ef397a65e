package console

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"timed-quiz-service/internal/domain"
)

func TestPresenterRendersSession(t *testing.T) {
	var buf bytes.Buffer
	p := NewPresenter(&buf)
	q := domain.Question{Text: "What is 2 + 2?", Options: []string{"3", "4", "5", "6"}, CorrectOption: 2, Difficulty: domain.DifficultyEasy}

	p.QuestionStarted(0, 3, q, 20*time.Second)
	p.QuestionResolved(domain.QuestionResult{Question: q, Outcome: domain.Answered(1, "1"), Classification: domain.ClassIncorrect})
	p.QuestionResolved(domain.QuestionResult{Question: q, Outcome: domain.TimedOut(), Classification: domain.ClassSkipped})
	p.Summary(domain.SessionSummary{Score: 1, Total: 3, Percentage: 33.3, Correct: 1, Incorrect: 1, Skipped: 1})

	out := buf.String()
	for _, want := range []string{
		"Question 1/3 [Easy] (20s)",
		"  2. 4",
		"Wrong! Correct answer: 2",
		"Time's up!",
		"Score: 1/3 (33.3%)",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestPresenterRawNewlines(t *testing.T) {
	var buf bytes.Buffer
	p := NewPresenter(&buf, WithRawNewlines())

	p.Aborted(1, 5)

	if !strings.HasSuffix(buf.String(), "No score recorded.\r\n") {
		t.Fatalf("expected CRLF line endings, got %q", buf.String())
	}
}
