package domain

import "sort"

// DefaultWinners is the leaderboard size announced at close.
const DefaultWinners = 3

// RankResults orders results by score descending, then earliest completion,
// then participant id, and keeps at most limit entries. The input is not modified.
func RankResults(results []Result, limit int) []Result {
	if limit <= 0 {
		limit = DefaultWinners
	}
	ranked := make([]Result, len(results))
	copy(ranked, results)
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		if !ranked[i].CompletedAt.Equal(ranked[j].CompletedAt) {
			return ranked[i].CompletedAt.Before(ranked[j].CompletedAt)
		}
		return ranked[i].ParticipantID < ranked[j].ParticipantID
	})
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}
