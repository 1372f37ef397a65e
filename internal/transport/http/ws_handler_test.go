package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"timed-quiz-service/internal/app"
	"timed-quiz-service/internal/domain"
	"timed-quiz-service/internal/infra/memory"
)

func newTestServer(t *testing.T) (*httptest.Server, *memory.ScoreStore) {
	t.Helper()
	configs := memory.NewConfigStore(domain.DefaultQuizConfig())
	if err := configs.Put(1, domain.QuizConfig{QuestionLimit: 10, TimePerQuestion: time.Second, Active: true}); err != nil {
		t.Fatalf("put config: %v", err)
	}
	scores := memory.NewScoreStore()
	service := app.NewQuizService(
		memory.NewQuestionRepository(memory.NewStaticBankLoader(sampleBank()), time.Minute),
		configs,
		scores,
		app.WithActiveSessions(memory.NewSessionStore()),
		app.WithServiceCollector(app.NewAnswerCollector(app.WithGrace(200*time.Millisecond))),
	)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", NewWSHandler(service, zerolog.Nop()).ServeWS)
	mux.HandleFunc("/leaderboard", LeaderboardHandler(service, zerolog.Nop()))
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server, scores
}

func dial(t *testing.T, server *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	u := "ws" + server.URL[len("http"):] + "/ws?" + query
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestWebSocketQuizFlow(t *testing.T) {
	server, scores := newTestServer(t)
	conn := dial(t, server, "userId=alice&courseId=1")

	_, started := readNext(conn, t, "started")
	if started["total"] != float64(2) {
		t.Fatalf("expected 2 questions, got %v", started["total"])
	}

	correct := correctByText()
	for i := 0; i < 2; i++ {
		_, q := readNext(conn, t, "question")
		answer := correct[q["text"].(string)]
		if err := conn.WriteJSON(map[string]any{
			"type":    "answer",
			"payload": map[string]any{"input": strconv.Itoa(answer)},
		}); err != nil {
			t.Fatalf("write answer: %v", err)
		}
		_, res := readNext(conn, t, "result")
		if res["classification"] != string(domain.ClassCorrect) {
			t.Fatalf("expected correct, got %v", res)
		}
	}

	_, summary := readNext(conn, t, "summary")
	if summary["score"] != float64(2) || summary["percentage"] != float64(100) {
		t.Fatalf("unexpected summary %v", summary)
	}
	if score, ok := scores.Score("alice"); !ok || score != 2 {
		t.Fatalf("expected recorded score 2, got %d", score)
	}
}

func TestWebSocketLateAnswerIsDropped(t *testing.T) {
	server, scores := newTestServer(t)
	conn := dial(t, server, "userId=dave&courseId=1")

	readNext(conn, t, "started")
	readNext(conn, t, "question")
	_, first := readNext(conn, t, "result")
	if first["outcome"] != domain.OutcomeTimedOut.String() {
		t.Fatalf("expected first question to time out, got %v", first)
	}
	// Option 1 is wrong for every question in the bank.
	sendAnswer(t, conn, 0, "1")

	_, q := readNext(conn, t, "question")
	if q["index"] != float64(1) {
		t.Fatalf("expected question 1, got %v", q)
	}
	sendAnswer(t, conn, 0, "1")
	sendAnswer(t, conn, 1, strconv.Itoa(correctByText()[q["text"].(string)]))

	_, second := readNext(conn, t, "result")
	if second["classification"] != string(domain.ClassCorrect) {
		t.Fatalf("late answer leaked into question 1: %v", second)
	}
	readNext(conn, t, "summary")
	if score, _ := scores.Score("dave"); score != 1 {
		t.Fatalf("expected recorded score 1, got %d", score)
	}
}

func TestWebSocketAnswerWithoutIndex(t *testing.T) {
	server, _ := newTestServer(t)
	conn := dial(t, server, "userId=erin&courseId=1")

	readNext(conn, t, "started")
	readNext(conn, t, "question")
	if err := conn.WriteJSON(map[string]any{
		"type":    "answer",
		"payload": map[string]any{"input": "2"},
	}); err != nil {
		t.Fatalf("write answer: %v", err)
	}
	_, payload := readNext(conn, t, "error")
	if payload["message"] != "invalid answer payload" {
		t.Fatalf("unexpected error %v", payload)
	}
}

func TestWebSocketOversizeAnswerIsInvalid(t *testing.T) {
	server, _ := newTestServer(t)
	conn := dial(t, server, "userId=frank&courseId=1")

	readNext(conn, t, "started")
	readNext(conn, t, "question")
	start := time.Now()
	sendAnswer(t, conn, 0, strings.Repeat("x", 300))

	_, res := readNext(conn, t, "result")
	if res["outcome"] != domain.OutcomeInvalid.String() {
		t.Fatalf("expected invalid, got %v", res)
	}
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Fatalf("oversize answer waited %v for the deadline", elapsed)
	}
}

func TestWebSocketQuitAborts(t *testing.T) {
	server, scores := newTestServer(t)
	conn := dial(t, server, "userId=bob&courseId=1")

	readNext(conn, t, "started")
	readNext(conn, t, "question")
	if err := conn.WriteJSON(map[string]any{"type": "quit"}); err != nil {
		t.Fatalf("write quit: %v", err)
	}
	_, aborted := readNext(conn, t, "aborted")
	if aborted["answered"] != float64(0) {
		t.Fatalf("expected nothing answered, got %v", aborted)
	}
	if _, ok := scores.Score("bob"); ok {
		t.Fatalf("aborted session must not record a score")
	}
}

func TestWebSocketUnknownCourse(t *testing.T) {
	server, _ := newTestServer(t)
	conn := dial(t, server, "userId=carol&courseId=42")

	_, payload := readNext(conn, t, "error")
	if payload["message"] == "" {
		t.Fatalf("expected an error message")
	}
}

func TestWebSocketRequiresUser(t *testing.T) {
	server, _ := newTestServer(t)

	resp, err := http.Get(server.URL + "/ws")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestLeaderboardJSON(t *testing.T) {
	server, scores := newTestServer(t)
	_ = scores.RecordScore(context.Background(), "alice", 1)
	_ = scores.RecordScore(context.Background(), "bob", 2)

	resp, err := http.Get(server.URL + "/leaderboard?limit=1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()

	var lb domain.Leaderboard
	if err := json.NewDecoder(resp.Body).Decode(&lb); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(lb.Entries) != 1 || lb.Entries[0].UserID != "bob" || lb.Entries[0].Rank != 1 {
		t.Fatalf("expected bob alone at the top, got %+v", lb.Entries)
	}

	bad, err := http.Get(server.URL + "/leaderboard?limit=zero")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	bad.Body.Close()
	if bad.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", bad.StatusCode)
	}
}

func readNext(conn *websocket.Conn, t *testing.T, expect string) (string, map[string]any) {
	t.Helper()
	var msg struct {
		Type    string         `json:"type"`
		Payload map[string]any `json:"payload"`
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read json: %v", err)
	}
	if expect != "" && msg.Type != expect {
		t.Fatalf("expected type %s, got %s (%v)", expect, msg.Type, msg.Payload)
	}
	return msg.Type, msg.Payload
}

func sendAnswer(t *testing.T, conn *websocket.Conn, index int, input string) {
	t.Helper()
	if err := conn.WriteJSON(map[string]any{
		"type":    "answer",
		"payload": map[string]any{"index": index, "input": input},
	}); err != nil {
		t.Fatalf("write answer: %v", err)
	}
}

func sampleBank() map[int64][]domain.Question {
	return map[int64][]domain.Question{
		1: {
			{ID: 1, Text: "What is 2 + 2?", Options: []string{"3", "4", "5", "6"}, CorrectOption: 2},
			{ID: 2, Text: "Which planet is red?", Options: []string{"Venus", "Earth", "Mars", "Saturn"}, CorrectOption: 3},
		},
	}
}

func correctByText() map[string]int {
	out := make(map[string]int)
	for _, bank := range sampleBank() {
		for _, q := range bank {
			out[q.Text] = q.CorrectOption
		}
	}
	return out
}
