package domain

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ValidateQuestion enforces the 4-option / 1-based correct option invariant.
func ValidateQuestion(q Question) error {
	if err := validate.Struct(q); err != nil {
		return fmt.Errorf("%w: question %d: %v", ErrInvalidQuestion, q.ID, err)
	}
	return nil
}

// ValidateQuizConfig rejects limits below one question or budgets below one second.
func ValidateQuizConfig(cfg QuizConfig) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}
