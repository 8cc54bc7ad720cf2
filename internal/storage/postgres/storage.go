package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/mcoot/tictacgo/internal/model"
	"github.com/mcoot/tictacgo/internal/storage"
)

// uniqueViolation is the postgres error code for unique constraint breaches
const uniqueViolation = "23505"

// Storage is a PostgreSQL-backed implementation of the storage interface.
// Concurrent moves on the same game are serialized by the version column:
// every update is conditional on the version the caller read.
type Storage struct {
	db *sql.DB
}

// Open connects to PostgreSQL and verifies the connection
func Open(databaseURL string) (*Storage, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return New(db), nil
}

// New wraps an existing database handle
func New(db *sql.DB) *Storage {
	return &Storage{db: db}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// User operations

func (s *Storage) CreateUser(ctx context.Context, user *model.User) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, username, email, password_hash, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		string(user.ID), user.Username, user.Email, user.PasswordHash, user.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			switch pqErr.Constraint {
			case "users_username_key":
				return model.ErrUsernameExists
			case "users_email_key":
				return model.ErrEmailExists
			}
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

func (s *Storage) GetUser(ctx context.Context, id model.UserID) (*model.User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx,
		`SELECT id, username, email, password_hash, created_at, last_login_at
		 FROM users WHERE id = $1`, string(id)))
}

func (s *Storage) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx,
		`SELECT id, username, email, password_hash, created_at, last_login_at
		 FROM users WHERE username = $1`, username))
}

func (s *Storage) scanUser(row *sql.Row) (*model.User, error) {
	var (
		user      model.User
		id        string
		lastLogin sql.NullTime
	)
	err := row.Scan(&id, &user.Username, &user.Email, &user.PasswordHash, &user.CreatedAt, &lastLogin)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}
	user.ID = model.UserID(id)
	if lastLogin.Valid {
		user.LastLoginAt = lastLogin.Time
	}
	return &user, nil
}

func (s *Storage) TouchUserLogin(ctx context.Context, id model.UserID, at time.Time) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE users SET last_login_at = $2 WHERE id = $1`, string(id), at)
	if err != nil {
		return fmt.Errorf("failed to update last login: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return model.ErrUserNotFound
	}
	return nil
}

// Game operations

func (s *Storage) CreateGame(ctx context.Context, game *model.Game) error {
	row := newGameRow(game)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO games (id, player_x, player_o, board, current_turn, winner, status, version, created_at, finished_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		row.ID, row.PlayerX, row.PlayerO, row.Board, row.CurrentTurn,
		row.Winner, row.Status, row.Version, row.CreatedAt, row.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert game: %w", err)
	}
	return nil
}

const selectGame = `SELECT id, player_x, player_o, board, current_turn, winner, status, version, created_at, finished_at
	FROM games`

func (s *Storage) GetGame(ctx context.Context, id model.GameID) (*model.Game, error) {
	var row gameRow
	err := s.db.QueryRowContext(ctx, selectGame+` WHERE id = $1`, string(id)).Scan(
		&row.ID, &row.PlayerX, &row.PlayerO, &row.Board, &row.CurrentTurn,
		&row.Winner, &row.Status, &row.Version, &row.CreatedAt, &row.FinishedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrGameNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan game: %w", err)
	}
	return row.toModel()
}

func (s *Storage) UpdateGame(ctx context.Context, game *model.Game) error {
	row := newGameRow(game)
	result, err := s.db.ExecContext(ctx,
		`UPDATE games
		 SET player_o = $2, board = $3, current_turn = $4, winner = $5,
		     status = $6, finished_at = $7, version = version + 1
		 WHERE id = $1 AND version = $8`,
		row.ID, row.PlayerO, row.Board, row.CurrentTurn, row.Winner,
		row.Status, row.FinishedAt, row.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to update game: %w", err)
	}
	if err := s.checkGameUpdated(ctx, result, game.ID); err != nil {
		return err
	}
	game.Version++
	return nil
}

// checkGameUpdated distinguishes a missing game from a stale version
func (s *Storage) checkGameUpdated(ctx context.Context, result sql.Result, id model.GameID) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected > 0 {
		return nil
	}
	var exists bool
	if err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM games WHERE id = $1)`, string(id)).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check game existence: %w", err)
	}
	if !exists {
		return model.ErrGameNotFound
	}
	return model.ErrVersionConflict
}

func (s *Storage) ListGames(ctx context.Context, status *model.GameStatus) ([]*model.Game, error) {
	query := selectGame
	args := []any{}
	if status != nil {
		query += ` WHERE status = $1`
		args = append(args, string(*status))
	}
	query += ` ORDER BY created_at DESC, id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list games: %w", err)
	}
	defer rows.Close()

	var games []*model.Game
	for rows.Next() {
		var row gameRow
		if err := rows.Scan(
			&row.ID, &row.PlayerX, &row.PlayerO, &row.Board, &row.CurrentTurn,
			&row.Winner, &row.Status, &row.Version, &row.CreatedAt, &row.FinishedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan game: %w", err)
		}
		game, err := row.toModel()
		if err != nil {
			return nil, err
		}
		games = append(games, game)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate games: %w", err)
	}
	return games, nil
}

func (s *Storage) FinishGame(ctx context.Context, game *model.Game, record *model.HistoryRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	row := newGameRow(game)
	result, err := tx.ExecContext(ctx,
		`UPDATE games
		 SET player_o = $2, board = $3, current_turn = $4, winner = $5,
		     status = $6, finished_at = $7, version = version + 1
		 WHERE id = $1 AND version = $8`,
		row.ID, row.PlayerO, row.Board, row.CurrentTurn, row.Winner,
		row.Status, row.FinishedAt, row.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to update game: %w", err)
	}
	if err := s.checkGameUpdated(ctx, result, game.ID); err != nil {
		return err
	}

	hrow := newHistoryRow(record)
	_, err = tx.ExecContext(ctx,
		`INSERT INTO history_records (id, game_id, player_x, player_o, winner_id, winner, move_count, finished_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		hrow.ID, hrow.GameID, hrow.PlayerX, hrow.PlayerO,
		hrow.WinnerID, hrow.Winner, hrow.MoveCount, hrow.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert history record: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	game.Version++
	return nil
}

// History operations

const selectHistory = `SELECT id, game_id, player_x, player_o, winner_id, winner, move_count, finished_at
	FROM history_records`

func (s *Storage) GetHistoryByGame(ctx context.Context, gameID model.GameID) (*model.HistoryRecord, error) {
	var row historyRow
	err := s.db.QueryRowContext(ctx, selectHistory+` WHERE game_id = $1`, string(gameID)).Scan(
		&row.ID, &row.GameID, &row.PlayerX, &row.PlayerO,
		&row.WinnerID, &row.Winner, &row.MoveCount, &row.FinishedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrHistoryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan history record: %w", err)
	}
	return row.toModel(), nil
}

func (s *Storage) ListHistoryForUser(ctx context.Context, userID model.UserID) ([]*model.HistoryRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		selectHistory+` WHERE player_x = $1 OR player_o = $1 ORDER BY finished_at`, string(userID))
	if err != nil {
		return nil, fmt.Errorf("failed to list history records: %w", err)
	}
	defer rows.Close()

	var records []*model.HistoryRecord
	for rows.Next() {
		var row historyRow
		if err := rows.Scan(
			&row.ID, &row.GameID, &row.PlayerX, &row.PlayerO,
			&row.WinnerID, &row.Winner, &row.MoveCount, &row.FinishedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan history record: %w", err)
		}
		records = append(records, row.toModel())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate history records: %w", err)
	}
	return records, nil
}

// Close releases the underlying connection pool
func (s *Storage) Close() error {
	return s.db.Close()
}
