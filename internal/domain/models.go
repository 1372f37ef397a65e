package domain

import (
	"fmt"
	"time"
)

// Difficulty is the optional tag attached to a question.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "Easy"
	DifficultyMedium Difficulty = "Medium"
	DifficultyHard   Difficulty = "Hard"
)

// OptionCount is the fixed number of options every question carries.
const OptionCount = 4

// Question models an MCQ question with exactly four options and a 1-based correct option.
type Question struct {
	ID            int64      `json:"id"`
	Text          string     `json:"text" validate:"required"`
	Options       []string   `json:"options" validate:"len=4"`
	CorrectOption int        `json:"correctOption" validate:"min=1,max=4"`
	CourseID      *int64     `json:"courseId,omitempty"`
	Difficulty    Difficulty `json:"difficulty,omitempty" validate:"omitempty,oneof=Easy Medium Hard"`
}

// Check reports whether the 1-based answer matches the correct option.
func (q Question) Check(answer int) bool {
	return answer == q.CorrectOption
}

// QuizConfig holds the per-course session parameters.
type QuizConfig struct {
	CourseID        *int64        `json:"courseId,omitempty"`
	QuestionLimit   int           `json:"questionLimit" validate:"min=1"`
	TimePerQuestion time.Duration `json:"timePerQuestion" validate:"min=1s"`
	Active          bool          `json:"active"`
}

const (
	DefaultQuestionLimit   = 10
	DefaultTimePerQuestion = 20 * time.Second
)

// DefaultQuizConfig mirrors the values a course gets before an instructor edits it.
func DefaultQuizConfig() QuizConfig {
	return QuizConfig{
		QuestionLimit:   DefaultQuestionLimit,
		TimePerQuestion: DefaultTimePerQuestion,
		Active:          true,
	}
}

// OutcomeKind tags the result of one answer collection.
type OutcomeKind int

const (
	OutcomeAnswered OutcomeKind = iota + 1
	OutcomeInvalid
	OutcomeTimedOut
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeAnswered:
		return "answered"
	case OutcomeInvalid:
		return "invalid"
	case OutcomeTimedOut:
		return "timedOut"
	default:
		return fmt.Sprintf("outcome(%d)", int(k))
	}
}

func (k OutcomeKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// AnswerOutcome is produced once per collection and never mutated.
// Index is set only for OutcomeAnswered.
type AnswerOutcome struct {
	Kind  OutcomeKind `json:"kind"`
	Index int         `json:"index,omitempty"`
	Raw   string      `json:"raw,omitempty"`
}

func Answered(index int, raw string) AnswerOutcome {
	return AnswerOutcome{Kind: OutcomeAnswered, Index: index, Raw: raw}
}

func Invalid(raw string) AnswerOutcome {
	return AnswerOutcome{Kind: OutcomeInvalid, Raw: raw}
}

func TimedOut() AnswerOutcome {
	return AnswerOutcome{Kind: OutcomeTimedOut}
}

// Classification is the final verdict for a question.
type Classification string

const (
	ClassCorrect   Classification = "correct"
	ClassIncorrect Classification = "incorrect"
	ClassSkipped   Classification = "skipped"
)

// SessionState is the coarse state of a quiz session.
type SessionState int

const (
	StateNotStarted SessionState = iota
	StateAwaitingAnswer
	StateCompleted
	StateAborted
)

func (s SessionState) String() string {
	switch s {
	case StateNotStarted:
		return "notStarted"
	case StateAwaitingAnswer:
		return "awaitingAnswer"
	case StateCompleted:
		return "completed"
	case StateAborted:
		return "aborted"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Terminal reports whether no further transition is possible.
func (s SessionState) Terminal() bool {
	return s == StateCompleted || s == StateAborted
}

// QuestionResult summarizes how a single question was resolved.
type QuestionResult struct {
	Index          int            `json:"index"`
	Question       Question       `json:"question"`
	Outcome        AnswerOutcome  `json:"outcome"`
	Classification Classification `json:"classification"`
	ScoreAfter     int            `json:"scoreAfter"`
}

// SessionSummary is returned once a session completes.
type SessionSummary struct {
	SessionID  string           `json:"sessionId"`
	UserID     string           `json:"userId"`
	Score      int              `json:"score"`
	Total      int              `json:"total"`
	Percentage float64          `json:"percentage"`
	Correct    int              `json:"correct"`
	Incorrect  int              `json:"incorrect"`
	Skipped    int              `json:"skipped"`
	Results    []QuestionResult `json:"results"`
}

// LeaderboardEntry is a snapshot-friendly view of a student's recorded score.
type LeaderboardEntry struct {
	Rank        int       `json:"rank"`
	UserID      string    `json:"userId"`
	Score       int       `json:"score"`
	LastUpdated time.Time `json:"lastUpdated"`
}

// Leaderboard captures the ordered scoreboard.
type Leaderboard struct {
	Entries   []LeaderboardEntry `json:"entries"`
	UpdatedAt time.Time          `json:"updatedAt"`
}

// EventType names a session lifecycle event.
type EventType string

const (
	EventSessionCompleted EventType = "session.completed"
	EventSessionAborted   EventType = "session.aborted"
)

// SessionEvent is published when a session reaches a terminal state.
type SessionEvent struct {
	Type       EventType `json:"type"`
	SessionID  string    `json:"sessionId"`
	UserID     string    `json:"userId"`
	CourseID   *int64    `json:"courseId,omitempty"`
	Score      int       `json:"score"`
	Total      int       `json:"total"`
	Answered   int       `json:"answered"`
	Percentage float64   `json:"percentage"`
	At         time.Time `json:"at"`
}
