package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScoreStoreUpsertAndRank(t *testing.T) {
	ctx := context.Background()
	store, err := Open(ctx, filepath.Join(t.TempDir(), "scores.db"))
	require.NoError(t, err)
	defer store.Close()

	base := time.Date(2024, 11, 22, 8, 0, 0, 0, time.UTC)
	tick := 0
	store.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}

	require.NoError(t, store.RecordScore(ctx, "alice", 4))
	require.NoError(t, store.RecordScore(ctx, "bob", 6))
	require.NoError(t, store.RecordScore(ctx, "carol", 4))
	require.NoError(t, store.RecordScore(ctx, "bob", 2))

	lb, err := store.Leaderboard(ctx, 0)
	require.NoError(t, err)
	require.Len(t, lb.Entries, 3)

	assert.Equal(t, "alice", lb.Entries[0].UserID)
	assert.Equal(t, "carol", lb.Entries[1].UserID)
	assert.Equal(t, "bob", lb.Entries[2].UserID)
	assert.Equal(t, 2, lb.Entries[2].Score)
	assert.Equal(t, 3, lb.Entries[2].Rank)
	assert.Equal(t, base.Add(time.Second), lb.Entries[0].LastUpdated)

	top, err := store.Leaderboard(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, top.Entries, 1)
}

func TestScoreStoreReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "scores.db")

	store, err := Open(ctx, path)
	require.NoError(t, err)
	require.NoError(t, store.RecordScore(ctx, "alice", 3))
	require.NoError(t, store.Close())

	store, err = Open(ctx, path)
	require.NoError(t, err)
	defer store.Close()

	lb, err := store.Leaderboard(ctx, 10)
	require.NoError(t, err)
	require.Len(t, lb.Entries, 1)
	assert.Equal(t, 3, lb.Entries[0].Score)
}
