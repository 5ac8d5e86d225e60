package app

import (
	"context"
	"errors"

	"weekly-quiz-service/internal/domain"
)

// LeaderboardSelector ranks the results of a session.
type LeaderboardSelector struct {
	results      ResultRepository
	participants ParticipantDirectory
}

func NewLeaderboardSelector(results ResultRepository, participants ParticipantDirectory) *LeaderboardSelector {
	return &LeaderboardSelector{results: results, participants: participants}
}

// TopResults returns at most limit standings (default domain.DefaultWinners).
func (l *LeaderboardSelector) TopResults(ctx context.Context, periodKey string, limit int) ([]domain.Standing, error) {
	if limit <= 0 {
		limit = domain.DefaultWinners
	}
	results, err := l.results.TopN(ctx, periodKey, limit)
	if err != nil {
		return nil, domain.Storage("top results", err)
	}
	// repositories already order; ranking again keeps the tie-break uniform
	results = domain.RankResults(results, limit)

	standings := make([]domain.Standing, 0, len(results))
	for i, r := range results {
		standing := domain.Standing{
			Rank:          i + 1,
			ParticipantID: r.ParticipantID,
			DisplayName:   r.ParticipantID,
			Score:         r.Score,
			Total:         r.Total,
			CompletedAt:   r.CompletedAt,
		}
		if l.participants != nil {
			p, err := l.participants.Get(ctx, r.ParticipantID)
			switch {
			case err == nil && p.DisplayName != "":
				standing.DisplayName = p.DisplayName
			case err != nil && !errors.Is(err, domain.ErrParticipantNotFound):
				return nil, domain.Storage("get participant", err)
			}
		}
		standings = append(standings, standing)
	}
	return standings, nil
}
