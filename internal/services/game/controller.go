package game

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/mcoot/tictacgo/internal/dependencies/clock"
	"github.com/mcoot/tictacgo/internal/dependencies/random"
	"github.com/mcoot/tictacgo/internal/model"
	"github.com/mcoot/tictacgo/internal/storage"
)

// Recorder receives game lifecycle events, e.g. for metrics.
// Implementations must be safe for concurrent use.
type Recorder interface {
	RecordGameCreated()
	RecordGameFinished(winner model.Winner, moveCount int)
}

// Controller manages the game state machine: creation, joining, move
// validation, win/draw detection and history recording
type Controller struct {
	storage  storage.Storage
	clock    clock.Clock
	random   random.Random
	recorder Recorder // may be nil
	logger   *slog.Logger
}

// NewController creates a new game controller
func NewController(
	storage storage.Storage,
	clock clock.Clock,
	random random.Random,
	recorder Recorder,
	logger *slog.Logger,
) *Controller {
	return &Controller{
		storage:  storage,
		clock:    clock,
		random:   random,
		recorder: recorder,
		logger:   logger,
	}
}

// MoveResult carries the updated game and a human-readable outcome message
// ("X wins", "O wins", "draw", or empty while the game continues)
type MoveResult struct {
	Game    *model.Game
	Message string
}

// CreateGame starts a new game with the creator as player X, waiting for an
// opponent
func (c *Controller) CreateGame(ctx context.Context, creator model.UserID) (*model.Game, error) {
	now := c.clock.Now()
	game := &model.Game{
		ID:          model.GameID(c.random.String(random.GameIDLength, random.GameIDAlphabet)),
		PlayerX:     creator,
		CurrentTurn: model.SymbolX,
		Status:      model.GameStatusWaiting,
		CreatedAt:   now,
	}

	if err := c.storage.CreateGame(ctx, game); err != nil {
		c.logger.Error("failed to create game",
			slog.String("game_id", string(game.ID)),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	if c.recorder != nil {
		c.recorder.RecordGameCreated()
	}

	c.logger.Info("game created",
		slog.String("game_id", string(game.ID)),
		slog.String("player_x", string(creator)),
	)

	return game, nil
}

// JoinGame adds the joiner as player O and starts play. X keeps the first
// turn.
func (c *Controller) JoinGame(ctx context.Context, gameID model.GameID, joiner model.UserID) (*model.Game, error) {
	game, err := c.storage.GetGame(ctx, gameID)
	if err != nil {
		return nil, err
	}

	if game.Status != model.GameStatusWaiting {
		return nil, model.ErrGameNotJoinable
	}
	if game.PlayerX == joiner {
		return nil, model.ErrSelfJoin
	}
	if game.HasOpponent() {
		// Unreachable while the status invariant holds, kept as a guard
		return nil, model.ErrGameFull
	}

	game.Start(joiner)

	if err := c.storage.UpdateGame(ctx, game); err != nil {
		c.logger.Error("failed to save joined game",
			slog.String("game_id", string(gameID)),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	c.logger.Info("game joined",
		slog.String("game_id", string(gameID)),
		slog.String("player_o", string(joiner)),
	)

	return game, nil
}

// MakeMove places the actor's symbol at the given board position. If the
// move decides the game, the result and a history record are persisted as
// one atomic unit.
func (c *Controller) MakeMove(ctx context.Context, gameID model.GameID, actor model.UserID, position int) (*MoveResult, error) {
	// Position validation happens before any state lookup
	if !model.ValidPosition(position) {
		return nil, model.ErrInvalidPosition
	}

	game, err := c.storage.GetGame(ctx, gameID)
	if err != nil {
		return nil, err
	}

	if game.Status != model.GameStatusInProgress {
		return nil, model.ErrGameNotInProgress
	}

	symbol, ok := game.SymbolOf(actor)
	if !ok {
		return nil, model.ErrNotParticipant
	}
	if symbol != game.CurrentTurn {
		return nil, model.ErrNotYourTurn
	}
	if game.Board[position] != model.CellEmpty {
		return nil, model.ErrCellOccupied
	}

	game.Board[position] = symbol.Cell()
	outcome := game.Board.Evaluate()

	// The turn flips even when this move ends the game; the finished status
	// makes the stale turn value unreachable
	game.CurrentTurn = symbol.Other()

	if outcome == model.OutcomeNone {
		if err := c.storage.UpdateGame(ctx, game); err != nil {
			c.logger.Error("failed to save move",
				slog.String("game_id", string(gameID)),
				slog.String("error", err.Error()),
			)
			return nil, err
		}
		return &MoveResult{Game: game}, nil
	}

	game.Finish(outcome.Winner(), c.clock.Now())
	record := model.NewHistoryRecord(uuid.NewString(), game)

	if err := c.storage.FinishGame(ctx, game, record); err != nil {
		c.logger.Error("failed to save finished game",
			slog.String("game_id", string(gameID)),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	if c.recorder != nil {
		c.recorder.RecordGameFinished(game.Winner, record.MoveCount)
	}

	c.logger.Info("game finished",
		slog.String("game_id", string(gameID)),
		slog.String("winner", string(game.Winner)),
		slog.Int("move_count", record.MoveCount),
	)

	return &MoveResult{Game: game, Message: outcomeMessage(outcome)}, nil
}

// GetGame retrieves a game by ID
func (c *Controller) GetGame(ctx context.Context, gameID model.GameID) (*model.Game, error) {
	return c.storage.GetGame(ctx, gameID)
}

// ListGames returns games newest-first, optionally filtered by status
func (c *Controller) ListGames(ctx context.Context, status *model.GameStatus) ([]*model.Game, error) {
	return c.storage.ListGames(ctx, status)
}

// GetHistory returns the history record of a finished game
func (c *Controller) GetHistory(ctx context.Context, gameID model.GameID) (*model.HistoryRecord, error) {
	return c.storage.GetHistoryByGame(ctx, gameID)
}

func outcomeMessage(outcome model.Outcome) string {
	switch outcome {
	case model.OutcomeXWins:
		return fmt.Sprintf("%s wins", model.SymbolX)
	case model.OutcomeOWins:
		return fmt.Sprintf("%s wins", model.SymbolO)
	case model.OutcomeDraw:
		return "draw"
	default:
		return ""
	}
}

// ControllerInterface is the controller surface for dependency injection
type ControllerInterface interface {
	CreateGame(ctx context.Context, creator model.UserID) (*model.Game, error)
	JoinGame(ctx context.Context, gameID model.GameID, joiner model.UserID) (*model.Game, error)
	MakeMove(ctx context.Context, gameID model.GameID, actor model.UserID, position int) (*MoveResult, error)
	GetGame(ctx context.Context, gameID model.GameID) (*model.Game, error)
	ListGames(ctx context.Context, status *model.GameStatus) ([]*model.Game, error)
	GetHistory(ctx context.Context, gameID model.GameID) (*model.HistoryRecord, error)
}

var _ ControllerInterface = (*Controller)(nil)
