package postgres

import (
	"database/sql"
	"fmt"

	"github.com/mcoot/tictacgo/internal/model"
)

// gameRow is the flat persisted shape of a game. The in-memory model keeps
// status, winner and opponent consistent through its transition methods; this
// type only translates at the storage boundary.
type gameRow struct {
	ID          string
	PlayerX     string
	PlayerO     sql.NullString
	Board       string
	CurrentTurn string
	Winner      sql.NullString
	Status      string
	Version     int64
	CreatedAt   sql.NullTime
	FinishedAt  sql.NullTime
}

// newGameRow flattens a game for persistence
func newGameRow(g *model.Game) gameRow {
	row := gameRow{
		ID:          string(g.ID),
		PlayerX:     string(g.PlayerX),
		Board:       g.Board.Encode(),
		CurrentTurn: g.CurrentTurn.String(),
		Status:      string(g.Status),
		Version:     g.Version,
		CreatedAt:   sql.NullTime{Time: g.CreatedAt, Valid: true},
	}
	if g.PlayerO != "" {
		row.PlayerO = sql.NullString{String: string(g.PlayerO), Valid: true}
	}
	if g.Winner != model.WinnerNone {
		row.Winner = sql.NullString{String: string(g.Winner), Valid: true}
	}
	if !g.FinishedAt.IsZero() {
		row.FinishedAt = sql.NullTime{Time: g.FinishedAt, Valid: true}
	}
	return row
}

// toModel rebuilds the in-memory game from the flat row
func (r gameRow) toModel() (*model.Game, error) {
	board, err := model.DecodeBoard(r.Board)
	if err != nil {
		return nil, fmt.Errorf("game %s: %w", r.ID, err)
	}
	turn, err := model.ParseSymbol(r.CurrentTurn)
	if err != nil {
		return nil, fmt.Errorf("game %s: %w", r.ID, err)
	}

	g := &model.Game{
		ID:          model.GameID(r.ID),
		PlayerX:     model.UserID(r.PlayerX),
		Board:       board,
		CurrentTurn: turn,
		Status:      model.GameStatus(r.Status),
		Version:     r.Version,
		CreatedAt:   r.CreatedAt.Time,
	}
	if r.PlayerO.Valid {
		g.PlayerO = model.UserID(r.PlayerO.String)
	}
	if r.Winner.Valid {
		g.Winner = model.Winner(r.Winner.String)
	}
	if r.FinishedAt.Valid {
		g.FinishedAt = r.FinishedAt.Time
	}
	return g, nil
}

// historyRow is the flat persisted shape of a history record
type historyRow struct {
	ID         string
	GameID     string
	PlayerX    string
	PlayerO    string
	WinnerID   sql.NullString
	Winner     string
	MoveCount  int
	FinishedAt sql.NullTime
}

func newHistoryRow(rec *model.HistoryRecord) historyRow {
	row := historyRow{
		ID:         rec.ID,
		GameID:     string(rec.GameID),
		PlayerX:    string(rec.PlayerX),
		PlayerO:    string(rec.PlayerO),
		Winner:     string(rec.Winner),
		MoveCount:  rec.MoveCount,
		FinishedAt: sql.NullTime{Time: rec.FinishedAt, Valid: true},
	}
	if rec.WinnerID != "" {
		row.WinnerID = sql.NullString{String: string(rec.WinnerID), Valid: true}
	}
	return row
}

func (r historyRow) toModel() *model.HistoryRecord {
	rec := &model.HistoryRecord{
		ID:         r.ID,
		GameID:     model.GameID(r.GameID),
		PlayerX:    model.UserID(r.PlayerX),
		PlayerO:    model.UserID(r.PlayerO),
		Winner:     model.Winner(r.Winner),
		MoveCount:  r.MoveCount,
		FinishedAt: r.FinishedAt.Time,
	}
	if r.WinnerID.Valid {
		rec.WinnerID = model.UserID(r.WinnerID.String)
	}
	return rec
}
