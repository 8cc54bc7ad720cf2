package model

import "time"

// HistoryRecord is an immutable snapshot created exactly once when a game
// finishes. It is the sole source for statistics.
type HistoryRecord struct {
	ID        string // uuid
	GameID    GameID
	PlayerX   UserID
	PlayerO   UserID
	WinnerID  UserID // empty for a draw
	Winner    Winner // X, O or D
	MoveCount int    // occupied cells at finish
	FinishedAt time.Time
}

// NewHistoryRecord derives the record for a just-finished game
func NewHistoryRecord(id string, g *Game) *HistoryRecord {
	rec := &HistoryRecord{
		ID:         id,
		GameID:     g.ID,
		PlayerX:    g.PlayerX,
		PlayerO:    g.PlayerO,
		Winner:     g.Winner,
		MoveCount:  g.Board.MoveCount(),
		FinishedAt: g.FinishedAt,
	}
	switch g.Winner {
	case WinnerX:
		rec.WinnerID = g.PlayerX
	case WinnerO:
		rec.WinnerID = g.PlayerO
	}
	return rec
}

// Involves reports whether the user played in the recorded game
func (r *HistoryRecord) Involves(id UserID) bool {
	return r.PlayerX == id || r.PlayerO == id
}
