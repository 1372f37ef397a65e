package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"timed-quiz-service/internal/domain"
)

func TestQuestionRepositoryCaches(t *testing.T) {
	loader := &countingLoader{
		BankLoader: NewStaticBankLoader(map[int64][]domain.Question{
			1: sampleBank(1, 3),
		}),
	}
	repo := NewQuestionRepository(loader, time.Minute)
	course := int64(1)

	if _, err := repo.FetchQuestions(context.Background(), &course, domain.DefaultQuizConfig()); err != nil {
		t.Fatalf("fetch questions: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected loader once, got %d", loader.calls)
	}

	if _, err := repo.FetchQuestions(context.Background(), &course, domain.DefaultQuizConfig()); err != nil {
		t.Fatalf("fetch questions 2: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls %d", loader.calls)
	}
}

func TestQuestionRepositoryCapsAtLimit(t *testing.T) {
	repo := NewQuestionRepository(NewStaticBankLoader(map[int64][]domain.Question{
		1: sampleBank(1, 15),
	}), time.Minute)
	course := int64(1)
	cfg := domain.DefaultQuizConfig()

	questions, err := repo.FetchQuestions(context.Background(), &course, cfg)
	if err != nil {
		t.Fatalf("fetch questions: %v", err)
	}
	if len(questions) != 10 {
		t.Fatalf("expected 10 questions, got %d", len(questions))
	}
	seen := make(map[int64]bool)
	for _, q := range questions {
		if seen[q.ID] {
			t.Fatalf("question %d selected twice", q.ID)
		}
		seen[q.ID] = true
	}
}

func TestQuestionRepositoryMixedPool(t *testing.T) {
	repo := NewQuestionRepository(NewStaticBankLoader(map[int64][]domain.Question{
		1: sampleBank(1, 2),
		2: sampleBank(2, 2),
	}), time.Minute)

	questions, err := repo.FetchQuestions(context.Background(), nil, domain.DefaultQuizConfig())
	if err != nil {
		t.Fatalf("fetch mixed: %v", err)
	}
	if len(questions) != 4 {
		t.Fatalf("expected all 4 questions from both courses, got %d", len(questions))
	}
}

func TestQuestionRepositoryUnknownCourse(t *testing.T) {
	repo := NewQuestionRepository(NewStaticBankLoader(nil), time.Minute)
	course := int64(42)
	_, err := repo.FetchQuestions(context.Background(), &course, domain.DefaultQuizConfig())
	if !errors.Is(err, domain.ErrCourseNotFound) {
		t.Fatalf("expected course not found, got %v", err)
	}
}

type countingLoader struct {
	BankLoader
	calls int
}

func (l *countingLoader) LoadBank(ctx context.Context, courseID *int64) ([]domain.Question, error) {
	l.calls++
	return l.BankLoader.LoadBank(ctx, courseID)
}

func sampleBank(courseID int64, n int) []domain.Question {
	bank := make([]domain.Question, 0, n)
	for i := 1; i <= n; i++ {
		id := courseID
		bank = append(bank, domain.Question{
			ID:            courseID*100 + int64(i),
			Text:          "What is 2 + 2?",
			Options:       []string{"3", "4", "5", "6"},
			CorrectOption: 2,
			CourseID:      &id,
			Difficulty:    domain.DifficultyEasy,
		})
	}
	return bank
}
