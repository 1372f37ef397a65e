package domain

import "sort"

// SelectQuestions copies the bank, shuffles it with the supplied shuffle func
// (nil keeps the bank order) and truncates it to limit.
func SelectQuestions(bank []Question, limit int, shuffle func(n int, swap func(i, j int))) []Question {
	selected := make([]Question, len(bank))
	copy(selected, bank)
	if shuffle != nil {
		shuffle(len(selected), func(i, j int) {
			selected[i], selected[j] = selected[j], selected[i]
		})
	}
	if limit > 0 && len(selected) > limit {
		selected = selected[:limit]
	}
	return selected
}

// RankEntries orders by score desc, then whoever reached the score earlier, then user ID,
// and assigns 1-based ranks.
func RankEntries(entries []LeaderboardEntry) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		if !entries[i].LastUpdated.Equal(entries[j].LastUpdated) {
			return entries[i].LastUpdated.Before(entries[j].LastUpdated)
		}
		return entries[i].UserID < entries[j].UserID
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}
}
