package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"timed-quiz-service/internal/domain"
)

func TestWriteLeaderboard(t *testing.T) {
	at := time.Date(2024, 11, 22, 10, 30, 0, 0, time.UTC)
	lb := domain.Leaderboard{Entries: []domain.LeaderboardEntry{
		{Rank: 1, UserID: "alice", Score: 9, LastUpdated: at},
		{Rank: 2, UserID: "=cmd()", Score: 4, LastUpdated: at},
	}}

	var buf bytes.Buffer
	require.NoError(t, WriteLeaderboard(&buf, lb))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Rank", "User", "Score", "Last Updated"}, rows[0])
	assert.Equal(t, []string{"1", "alice", "9", "2024-11-22T10:30:00Z"}, rows[1])
	assert.Equal(t, "'=cmd()", rows[2][1])
}
