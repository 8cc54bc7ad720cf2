package redis

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/tictacgo/internal/model"
	"github.com/mcoot/tictacgo/internal/storage"
)

// Storage is a Redis-backed implementation of the storage interface.
// Game updates run inside WATCH transactions so a concurrent writer aborts
// the update rather than silently overwriting it.
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &Storage{
		client: client,
		cfg:    cfg,
	}, nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// User operations

func (s *Storage) CreateUser(ctx context.Context, user *model.User) error {
	ok, err := s.client.SetNX(ctx, usernameIndexKey(user.Username), string(user.ID), 0).Result()
	if err != nil {
		return err
	}
	if !ok {
		return model.ErrUsernameExists
	}

	ok, err = s.client.SetNX(ctx, emailIndexKey(user.Email), string(user.ID), 0).Result()
	if err != nil {
		return err
	}
	if !ok {
		// Release the username claim taken above
		_ = s.client.Del(ctx, usernameIndexKey(user.Username)).Err()
		return model.ErrEmailExists
	}

	data, err := json.Marshal(user)
	if err != nil {
		// Release both index claims taken above
		_ = s.client.Del(ctx, usernameIndexKey(user.Username), emailIndexKey(user.Email)).Err()
		return err
	}
	if err := s.client.Set(ctx, userKey(user.ID), data, 0).Err(); err != nil {
		_ = s.client.Del(ctx, usernameIndexKey(user.Username), emailIndexKey(user.Email)).Err()
		return err
	}
	return nil
}

func (s *Storage) GetUser(ctx context.Context, id model.UserID) (*model.User, error) {
	data, err := s.client.Get(ctx, userKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrUserNotFound
		}
		return nil, err
	}

	var user model.User
	if err := json.Unmarshal(data, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *Storage) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	id, err := s.client.Get(ctx, usernameIndexKey(username)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrUserNotFound
		}
		return nil, err
	}
	return s.GetUser(ctx, model.UserID(id))
}

func (s *Storage) TouchUserLogin(ctx context.Context, id model.UserID, at time.Time) error {
	user, err := s.GetUser(ctx, id)
	if err != nil {
		return err
	}
	user.LastLoginAt = at
	data, err := json.Marshal(user)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, userKey(id), data, 0).Err()
}

// Game operations

func (s *Storage) CreateGame(ctx context.Context, game *model.Game) error {
	data, err := json.Marshal(game)
	if err != nil {
		return err
	}

	pipe := s.client.Pipeline()
	pipe.Set(ctx, gameKey(game.ID), data, 0)
	pipe.ZAdd(ctx, gamesByCreatedKey(), redis.Z{
		Score:  float64(game.CreatedAt.UnixNano()),
		Member: string(game.ID),
	})
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) GetGame(ctx context.Context, id model.GameID) (*model.Game, error) {
	data, err := s.client.Get(ctx, gameKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrGameNotFound
		}
		return nil, err
	}

	var game model.Game
	if err := json.Unmarshal(data, &game); err != nil {
		return nil, err
	}
	return &game, nil
}

func (s *Storage) UpdateGame(ctx context.Context, game *model.Game) error {
	return s.updateGameTx(ctx, game, nil)
}

// updateGameTx performs a version-checked game write, plus the history write
// when record is non-nil, inside a single WATCH transaction
func (s *Storage) updateGameTx(ctx context.Context, game *model.Game, record *model.HistoryRecord) error {
	key := gameKey(game.ID)

	err := s.client.Watch(ctx, func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return model.ErrGameNotFound
		}
		if err != nil {
			return err
		}

		var stored model.Game
		if err := json.Unmarshal(data, &stored); err != nil {
			return err
		}
		if stored.Version != game.Version {
			return model.ErrVersionConflict
		}

		next := *game
		next.Version++
		payload, err := json.Marshal(&next)
		if err != nil {
			return err
		}

		var recordPayload []byte
		if record != nil {
			recordPayload, err = json.Marshal(record)
			if err != nil {
				return err
			}
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, payload, 0)
			if record != nil {
				score := float64(record.FinishedAt.UnixNano())
				pipe.Set(ctx, historyKey(record.GameID), recordPayload, 0)
				pipe.ZAdd(ctx, historyForUserKey(record.PlayerX), redis.Z{Score: score, Member: string(record.GameID)})
				pipe.ZAdd(ctx, historyForUserKey(record.PlayerO), redis.Z{Score: score, Member: string(record.GameID)})
			}
			return nil
		})
		return err
	}, key)

	if errors.Is(err, redis.TxFailedErr) {
		return model.ErrVersionConflict
	}
	if err != nil {
		return err
	}

	game.Version++
	return nil
}

func (s *Storage) ListGames(ctx context.Context, status *model.GameStatus) ([]*model.Game, error) {
	ids, err := s.client.ZRevRange(ctx, gamesByCreatedKey(), 0, -1).Result()
	if err != nil {
		return nil, err
	}

	games := make([]*model.Game, 0, len(ids))
	for _, id := range ids {
		game, err := s.GetGame(ctx, model.GameID(id))
		if errors.Is(err, model.ErrGameNotFound) {
			continue // index entry for a deleted key
		}
		if err != nil {
			return nil, err
		}
		if status != nil && game.Status != *status {
			continue
		}
		games = append(games, game)
	}
	return games, nil
}

func (s *Storage) FinishGame(ctx context.Context, game *model.Game, record *model.HistoryRecord) error {
	return s.updateGameTx(ctx, game, record)
}

// History operations

func (s *Storage) GetHistoryByGame(ctx context.Context, gameID model.GameID) (*model.HistoryRecord, error) {
	data, err := s.client.Get(ctx, historyKey(gameID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrHistoryNotFound
		}
		return nil, err
	}

	var record model.HistoryRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, err
	}
	return &record, nil
}

func (s *Storage) ListHistoryForUser(ctx context.Context, userID model.UserID) ([]*model.HistoryRecord, error) {
	gameIDs, err := s.client.ZRange(ctx, historyForUserKey(userID), 0, -1).Result()
	if err != nil {
		return nil, err
	}

	var records []*model.HistoryRecord
	for _, gameID := range gameIDs {
		record, err := s.GetHistoryByGame(ctx, model.GameID(gameID))
		if errors.Is(err, model.ErrHistoryNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].FinishedAt.Before(records[j].FinishedAt)
	})
	return records, nil
}
