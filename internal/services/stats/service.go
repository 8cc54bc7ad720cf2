// Package stats derives per-user aggregates from history records on demand.
// There are no stored counters, so statistics can never drift from the
// authoritative history.
package stats

import (
	"context"

	"github.com/mcoot/tictacgo/internal/model"
	"github.com/mcoot/tictacgo/internal/storage"
)

// Service computes user statistics
type Service struct {
	storage storage.Storage
}

// New creates a new stats service
func New(store storage.Storage) *Service {
	return &Service{storage: store}
}

// ForUser aggregates the user's history records. Every record has a
// determinate winner-or-draw outcome, so losses are the remainder after
// wins and draws.
func (s *Service) ForUser(ctx context.Context, userID model.UserID) (*model.Stats, error) {
	records, err := s.storage.ListHistoryForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	stats := &model.Stats{TotalGames: len(records)}
	for _, record := range records {
		switch {
		case record.WinnerID == userID:
			stats.Wins++
		case record.Winner == model.WinnerDraw:
			stats.Draws++
		}
	}
	stats.Losses = stats.TotalGames - stats.Wins - stats.Draws

	return stats, nil
}
