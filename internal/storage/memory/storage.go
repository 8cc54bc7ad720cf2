package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/mcoot/tictacgo/internal/model"
	"github.com/mcoot/tictacgo/internal/storage"
)

// Storage is an in-memory implementation of the storage interface.
// Values are copied on the way in and out so callers never share state with
// the store; version checks behave the same as the relational backend.
type Storage struct {
	mu sync.RWMutex

	users         map[model.UserID]model.User
	usernameIndex map[string]model.UserID
	emailIndex    map[string]model.UserID

	games   map[model.GameID]model.Game
	gameSeq map[model.GameID]int64 // insertion order for stable listing
	nextSeq int64

	history      map[model.GameID]model.HistoryRecord
	historyOrder []model.GameID
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		users:         make(map[model.UserID]model.User),
		usernameIndex: make(map[string]model.UserID),
		emailIndex:    make(map[string]model.UserID),
		games:         make(map[model.GameID]model.Game),
		gameSeq:       make(map[model.GameID]int64),
		history:       make(map[model.GameID]model.HistoryRecord),
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// User operations

func (s *Storage) CreateUser(ctx context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.usernameIndex[user.Username]; taken {
		return model.ErrUsernameExists
	}
	if _, taken := s.emailIndex[user.Email]; taken {
		return model.ErrEmailExists
	}
	s.users[user.ID] = *user
	s.usernameIndex[user.Username] = user.ID
	s.emailIndex[user.Email] = user.ID
	return nil
}

func (s *Storage) GetUser(ctx context.Context, id model.UserID) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[id]
	if !ok {
		return nil, model.ErrUserNotFound
	}
	return &user, nil
}

func (s *Storage) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.usernameIndex[username]
	if !ok {
		return nil, model.ErrUserNotFound
	}
	user := s.users[id]
	return &user, nil
}

func (s *Storage) TouchUserLogin(ctx context.Context, id model.UserID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return model.ErrUserNotFound
	}
	user.LastLoginAt = at
	s.users[id] = user
	return nil
}

// Game operations

func (s *Storage) CreateGame(ctx context.Context, game *model.Game) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.games[game.ID]; exists {
		return model.ErrGameExists
	}
	s.games[game.ID] = *game
	s.nextSeq++
	s.gameSeq[game.ID] = s.nextSeq
	return nil
}

func (s *Storage) GetGame(ctx context.Context, id model.GameID) (*model.Game, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	game, ok := s.games[id]
	if !ok {
		return nil, model.ErrGameNotFound
	}
	return &game, nil
}

func (s *Storage) UpdateGame(ctx context.Context, game *model.Game) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updateGameLocked(game)
}

// updateGameLocked applies the check-and-swap; callers hold the write lock
func (s *Storage) updateGameLocked(game *model.Game) error {
	stored, ok := s.games[game.ID]
	if !ok {
		return model.ErrGameNotFound
	}
	if stored.Version != game.Version {
		return model.ErrVersionConflict
	}
	game.Version++
	s.games[game.ID] = *game
	return nil
}

func (s *Storage) ListGames(ctx context.Context, status *model.GameStatus) ([]*model.Game, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	games := make([]*model.Game, 0, len(s.games))
	for id := range s.games {
		game := s.games[id]
		if status != nil && game.Status != *status {
			continue
		}
		games = append(games, &game)
	}

	// Most recently created first; insertion sequence breaks creation-time ties
	sort.Slice(games, func(i, j int) bool {
		if !games[i].CreatedAt.Equal(games[j].CreatedAt) {
			return games[i].CreatedAt.After(games[j].CreatedAt)
		}
		return s.gameSeq[games[i].ID] > s.gameSeq[games[j].ID]
	})

	return games, nil
}

func (s *Storage) FinishGame(ctx context.Context, game *model.Game, record *model.HistoryRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.updateGameLocked(game); err != nil {
		return err
	}
	s.history[record.GameID] = *record
	s.historyOrder = append(s.historyOrder, record.GameID)
	return nil
}

// History operations

func (s *Storage) GetHistoryByGame(ctx context.Context, gameID model.GameID) (*model.HistoryRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.history[gameID]
	if !ok {
		return nil, model.ErrHistoryNotFound
	}
	return &record, nil
}

func (s *Storage) ListHistoryForUser(ctx context.Context, userID model.UserID) ([]*model.HistoryRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var records []*model.HistoryRecord
	for _, gameID := range s.historyOrder {
		record := s.history[gameID]
		if record.Involves(userID) {
			records = append(records, &record)
		}
	}
	return records, nil
}

// Close is a no-op for the in-memory store
func (s *Storage) Close() error {
	return nil
}
