package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"timed-quiz-service/internal/domain"
)

const selectQuestions = `
SELECT id, question_text, option1, option2, option3, option4, correct_option, course_id, difficulty_level
FROM questions`

// QuestionLoader loads question banks from Postgres. It implements memory.BankLoader.
type QuestionLoader struct {
	pool *pgxpool.Pool
}

func NewQuestionLoader(pool *pgxpool.Pool) *QuestionLoader {
	return &QuestionLoader{pool: pool}
}

// LoadBank returns the course's questions in id order, or every question when courseID is nil.
// correct_option is stored 0-based and converted to 1-based here.
func (l *QuestionLoader) LoadBank(ctx context.Context, courseID *int64) ([]domain.Question, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if courseID == nil {
		rows, err = l.pool.Query(ctx, selectQuestions+` ORDER BY id`)
	} else {
		rows, err = l.pool.Query(ctx, selectQuestions+` WHERE course_id=$1 ORDER BY id`, *courseID)
	}
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	defer rows.Close()

	var bank []domain.Question
	for rows.Next() {
		var (
			q          domain.Question
			options    [domain.OptionCount]string
			correct    int
			difficulty *string
		)
		if err := rows.Scan(&q.ID, &q.Text, &options[0], &options[1], &options[2], &options[3], &correct, &q.CourseID, &difficulty); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		q.Options = options[:]
		q.CorrectOption = correct + 1
		if difficulty != nil {
			q.Difficulty = domain.Difficulty(*difficulty)
		}
		bank = append(bank, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}

	if len(bank) == 0 && courseID != nil {
		if err := l.courseExists(ctx, *courseID); err != nil {
			return nil, err
		}
	}
	return bank, nil
}

func (l *QuestionLoader) courseExists(ctx context.Context, courseID int64) error {
	var exists bool
	err := l.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM courses WHERE course_id=$1)`, courseID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("lookup course: %w", err)
	}
	if !exists {
		return fmt.Errorf("course %d: %w", courseID, domain.ErrCourseNotFound)
	}
	return nil
}
