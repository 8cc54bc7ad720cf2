package model

import "time"

// GameID uniquely identifies a game
type GameID string

// GameStatus represents the current phase of a game
type GameStatus string

const (
	GameStatusWaiting    GameStatus = "waiting"     // Created, no opponent yet
	GameStatusInProgress GameStatus = "in_progress" // Both players present, moves being made
	GameStatusFinished   GameStatus = "finished"    // Result recorded, terminal
)

// ParseGameStatus validates an external status string
func ParseGameStatus(s string) (GameStatus, bool) {
	switch GameStatus(s) {
	case GameStatusWaiting, GameStatusInProgress, GameStatusFinished:
		return GameStatus(s), true
	default:
		return "", false
	}
}

// Winner is the recorded result of a finished game
type Winner string

const (
	WinnerNone Winner = ""  // game not finished
	WinnerX    Winner = "X"
	WinnerO    Winner = "O"
	WinnerDraw Winner = "D"
)

// Winner converts a board outcome into a recorded winner value
func (o Outcome) Winner() Winner {
	switch o {
	case OutcomeXWins:
		return WinnerX
	case OutcomeOWins:
		return WinnerO
	case OutcomeDraw:
		return WinnerDraw
	default:
		return WinnerNone
	}
}

// Game represents a single tic-tac-toe match between two players
type Game struct {
	ID          GameID
	PlayerX     UserID
	PlayerO     UserID // empty until an opponent joins
	Board       Board
	CurrentTurn Symbol
	Winner      Winner // WinnerNone until finished
	Status      GameStatus

	// Version supports optimistic concurrency in the storage layer;
	// incremented on every persisted update
	Version int64

	CreatedAt  time.Time
	FinishedAt time.Time // zero until finished
}

// SymbolOf resolves the symbol a user plays in this game.
// The second return is false for non-participants.
func (g *Game) SymbolOf(id UserID) (Symbol, bool) {
	switch id {
	case g.PlayerX:
		return SymbolX, true
	case g.PlayerO:
		if g.PlayerO == "" {
			return SymbolX, false
		}
		return SymbolO, true
	default:
		return SymbolX, false
	}
}

// HasOpponent reports whether a second player has joined
func (g *Game) HasOpponent() bool {
	return g.PlayerO != ""
}

// Start records the joining opponent and begins play.
// Status and opponent always change together so the two can never disagree.
func (g *Game) Start(opponent UserID) {
	g.PlayerO = opponent
	g.Status = GameStatusInProgress
}

// Finish records the result. Winner, status and finish time are set as one
// unit; a game with a winner is always finished and vice versa.
func (g *Game) Finish(w Winner, at time.Time) {
	g.Winner = w
	g.Status = GameStatusFinished
	g.FinishedAt = at
}
