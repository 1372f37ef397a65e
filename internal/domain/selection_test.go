package domain

import (
	"testing"
	"time"
)

func TestSelectQuestionsTruncatesInOrder(t *testing.T) {
	bank := make([]Question, 15)
	for i := range bank {
		bank[i] = Question{ID: int64(i + 1)}
	}

	got := SelectQuestions(bank, 10, nil)
	if len(got) != 10 {
		t.Fatalf("expected 10 questions, got %d", len(got))
	}
	for i, q := range got {
		if q.ID != int64(i+1) {
			t.Fatalf("position %d: expected question %d, got %d", i, i+1, q.ID)
		}
	}

	got[0].ID = 99
	if bank[0].ID != 1 {
		t.Fatalf("selection must not alias the bank")
	}
}

func TestSelectQuestionsShortBank(t *testing.T) {
	bank := []Question{{ID: 1}, {ID: 2}}
	reverse := func(n int, swap func(i, j int)) {
		for i := 0; i < n/2; i++ {
			swap(i, n-1-i)
		}
	}

	got := SelectQuestions(bank, 10, reverse)
	if len(got) != 2 || got[0].ID != 2 || got[1].ID != 1 {
		t.Fatalf("unexpected selection %+v", got)
	}
}

func TestRankEntries(t *testing.T) {
	base := time.Date(2024, 11, 22, 0, 0, 0, 0, time.UTC)
	entries := []LeaderboardEntry{
		{UserID: "zoe", Score: 2, LastUpdated: base},
		{UserID: "amy", Score: 5, LastUpdated: base.Add(time.Minute)},
		{UserID: "bob", Score: 5, LastUpdated: base},
		{UserID: "cat", Score: 2, LastUpdated: base},
	}

	RankEntries(entries)

	want := []string{"bob", "amy", "cat", "zoe"}
	for i, e := range entries {
		if e.UserID != want[i] || e.Rank != i+1 {
			t.Fatalf("position %d: expected %s rank %d, got %+v", i, want[i], i+1, e)
		}
	}
}
