package storage

import (
	"context"
	"time"

	"github.com/mcoot/tictacgo/internal/model"
)

// Storage defines the interface for data persistence.
//
// Implementations must provide read-committed, single-row atomic update
// semantics for games: UpdateGame and FinishGame reject writes against a
// stale version with model.ErrVersionConflict, so that two concurrent moves
// on the same game cannot both apply.
type Storage interface {
	// User operations
	CreateUser(ctx context.Context, user *model.User) error
	GetUser(ctx context.Context, id model.UserID) (*model.User, error)
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
	TouchUserLogin(ctx context.Context, id model.UserID, at time.Time) error

	// Game operations
	CreateGame(ctx context.Context, game *model.Game) error
	GetGame(ctx context.Context, id model.GameID) (*model.Game, error)
	UpdateGame(ctx context.Context, game *model.Game) error
	ListGames(ctx context.Context, status *model.GameStatus) ([]*model.Game, error)

	// FinishGame persists the finishing update of a game and its history
	// record as one atomic unit
	FinishGame(ctx context.Context, game *model.Game, record *model.HistoryRecord) error

	// History operations
	GetHistoryByGame(ctx context.Context, gameID model.GameID) (*model.HistoryRecord, error)
	ListHistoryForUser(ctx context.Context, userID model.UserID) ([]*model.HistoryRecord, error)

	// Close releases any underlying resources
	Close() error
}
