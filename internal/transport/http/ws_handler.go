package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"timed-quiz-service/internal/app"
	"timed-quiz-service/internal/domain"
)

// maxMessageSize bounds a single inbound frame; larger frames end the session.
const maxMessageSize = 4096

type WSHandler struct {
	service  *app.QuizService
	upgrader websocket.Upgrader
	log      zerolog.Logger
}

func NewWSHandler(service *app.QuizService, log zerolog.Logger) *WSHandler {
	return &WSHandler{
		service: service,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		log: log.With().Str("component", "ws").Logger(),
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// answerPayload must name the question it answers, as sent in the question message.
type answerPayload struct {
	Index *int   `json:"index"`
	Input string `json:"input"`
}

type startedPayload struct {
	SessionID         string `json:"sessionId"`
	Total             int    `json:"total"`
	TimePerQuestionMs int64  `json:"timePerQuestionMs"`
}

type questionPayload struct {
	Index       int               `json:"index"`
	Total       int               `json:"total"`
	Text        string            `json:"text"`
	Options     []string          `json:"options"`
	Difficulty  domain.Difficulty `json:"difficulty,omitempty"`
	TimeLimitMs int64             `json:"timeLimitMs"`
}

type resultPayload struct {
	Index          int                   `json:"index"`
	Outcome        domain.OutcomeKind    `json:"outcome"`
	Answer         int                   `json:"answer,omitempty"`
	Classification domain.Classification `json:"classification"`
	CorrectOption  int                   `json:"correctOption"`
	Score          int                   `json:"score"`
}

type abortedPayload struct {
	SessionID string `json:"sessionId"`
	Answered  int    `json:"answered"`
	Score     int    `json:"score"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades the request and runs one timed quiz session over the socket.
// Query: userId (required), courseId (optional; absent means the mixed pool).
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		http.Error(w, "missing userId", http.StatusBadRequest)
		return
	}
	var courseID *int64
	if raw := r.URL.Query().Get("courseId"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			http.Error(w, "invalid courseId", http.StatusBadRequest)
			return
		}
		courseID = &id
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("ws upgrade failed")
		return
	}
	defer conn.Close()
	conn.SetReadLimit(maxMessageSize)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	session, err := h.service.Begin(ctx, userID, courseID)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}

	src := app.NewChanSource(0)
	defer src.Close()
	gate := &answerGate{current: -1, src: src}

	send := make(chan outboundMessage[any], 16)
	stop := make(chan struct{})
	writerDone := make(chan struct{})
	readerDone := make(chan struct{})

	emit := func(typ string, payload any) {
		select {
		case send <- outboundMessage[any]{Type: typ, Payload: payload}:
		case <-stop:
		case <-writerDone:
		}
	}

	// Single writer owns the connection; it drains what is queued once stopped.
	go func() {
		defer close(writerDone)
		write := func(msg outboundMessage[any]) bool {
			if err := conn.WriteJSON(msg); err != nil {
				h.log.Debug().Err(err).Msg("ws write error")
				cancel()
				return false
			}
			return true
		}
		for {
			select {
			case msg := <-send:
				if !write(msg) {
					return
				}
			case <-stop:
				for {
					select {
					case msg := <-send:
						if !write(msg) {
							return
						}
					default:
						return
					}
				}
			}
		}
	}()

	go func() {
		defer close(readerDone)
		// Any read failure means the client is gone, which aborts the session.
		defer cancel()
		for {
			var inbound inboundMessage
			if err := conn.ReadJSON(&inbound); err != nil {
				return
			}
			switch inbound.Type {
			case "answer":
				var payload answerPayload
				if err := json.Unmarshal(inbound.Payload, &payload); err != nil || payload.Index == nil {
					emit("error", errorPayload{Message: "invalid answer payload"})
					continue
				}
				if !gate.feed(*payload.Index, payload.Input) {
					h.log.Debug().Int("index", *payload.Index).Str("session_id", session.ID()).Msg("dropped answer for a closed question")
				}
			case "quit":
				return
			default:
				emit("error", errorPayload{Message: "unsupported message type"})
			}
		}
	}()

	emit("started", startedPayload{
		SessionID:         session.ID(),
		Total:             session.Total(),
		TimePerQuestionMs: session.Config().TimePerQuestion.Milliseconds(),
	})

	summary, err := h.service.Run(ctx, session, src, wsPresenter{emit: emit, gate: gate})
	switch {
	case err == nil:
		emit("summary", summary)
	case errors.Is(err, domain.ErrSessionAborted):
		emit("aborted", abortedPayload{SessionID: session.ID(), Answered: len(session.Results()), Score: session.Score()})
	default:
		h.log.Error().Err(err).Str("session_id", session.ID()).Msg("quiz run failed")
		emit("error", errorPayload{Message: err.Error()})
	}

	close(stop)
	<-writerDone
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "quiz over"),
		time.Now().Add(time.Second))
	_ = conn.Close()
	<-readerDone
}

// answerGate admits answers only for the question that is currently open.
// Anything fed while a question is open reaches its worker or is dropped by
// the next Discard.
type answerGate struct {
	mu      sync.Mutex
	current int
	src     *app.ChanSource
}

func (g *answerGate) open(index int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.current = index
}

func (g *answerGate) close() {
	g.open(-1)
}

func (g *answerGate) feed(index int, input string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if index < 0 || index != g.current {
		return false
	}
	g.src.FeedLine(input)
	return true
}

// wsPresenter turns session progress into outbound messages.
type wsPresenter struct {
	emit func(typ string, payload any)
	gate *answerGate
}

func (p wsPresenter) QuestionStarted(index, total int, q domain.Question, budget time.Duration) {
	p.gate.open(index)
	p.emit("question", questionPayload{
		Index:       index,
		Total:       total,
		Text:        q.Text,
		Options:     q.Options,
		Difficulty:  q.Difficulty,
		TimeLimitMs: budget.Milliseconds(),
	})
}

func (p wsPresenter) QuestionResolved(result domain.QuestionResult) {
	p.gate.close()
	p.emit("result", resultPayload{
		Index:          result.Index,
		Outcome:        result.Outcome.Kind,
		Answer:         result.Outcome.Index,
		Classification: result.Classification,
		CorrectOption:  result.Question.CorrectOption,
		Score:          result.ScoreAfter,
	})
}
