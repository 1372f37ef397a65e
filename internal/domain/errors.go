package domain

import "errors"

var (
	// ErrEmptyQuestionSet is returned when a session is started without questions.
	ErrEmptyQuestionSet = errors.New("quiz has no questions")
	// ErrInvalidConfig indicates a QuizConfig outside the allowed bounds.
	ErrInvalidConfig = errors.New("invalid quiz config")
	// ErrInvalidQuestion indicates a question that breaks the 4-option/1-based invariant.
	ErrInvalidQuestion = errors.New("invalid question")
	// ErrSessionNotActive is returned when an answer is submitted outside AwaitingAnswer.
	ErrSessionNotActive = errors.New("quiz session is not awaiting an answer")
	// ErrSessionNotCompleted is returned when Finish is called before the last question.
	ErrSessionNotCompleted = errors.New("quiz session is not completed")
	// ErrSessionAborted is returned when the session was quit while collecting an answer.
	ErrSessionAborted = errors.New("quiz session aborted")
	// ErrSessionInProgress indicates the user already runs a live session.
	ErrSessionInProgress = errors.New("quiz session already in progress for user")
	// ErrCourseNotFound indicates the course has no question bank.
	ErrCourseNotFound = errors.New("course not found")
)
