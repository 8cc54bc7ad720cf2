package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/tictacgo/internal/model"
)

type StorageSuite struct {
	suite.Suite
	storage *Storage
	ctx     context.Context
	now     time.Time
}

func TestStorageSuite(t *testing.T) {
	suite.Run(t, new(StorageSuite))
}

func (s *StorageSuite) SetupTest() {
	s.storage = New()
	s.ctx = context.Background()
	s.now = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
}

func (s *StorageSuite) user(id, username string) *model.User {
	return &model.User{
		ID:           model.UserID(id),
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "hash",
		CreatedAt:    s.now,
	}
}

func (s *StorageSuite) game(id string) *model.Game {
	return &model.Game{
		ID:          model.GameID(id),
		PlayerX:     "alice",
		CurrentTurn: model.SymbolX,
		Status:      model.GameStatusWaiting,
		CreatedAt:   s.now,
	}
}

// User tests

func (s *StorageSuite) TestCreateAndGetUser() {
	user := s.user("u1", "alice")
	s.Require().NoError(s.storage.CreateUser(s.ctx, user))

	got, err := s.storage.GetUser(s.ctx, "u1")
	s.Require().NoError(err)
	s.Equal("alice", got.Username)

	got, err = s.storage.GetUserByUsername(s.ctx, "alice")
	s.Require().NoError(err)
	s.Equal(model.UserID("u1"), got.ID)
}

func (s *StorageSuite) TestGetMissingUser() {
	_, err := s.storage.GetUser(s.ctx, "missing")
	s.ErrorIs(err, model.ErrUserNotFound)

	_, err = s.storage.GetUserByUsername(s.ctx, "missing")
	s.ErrorIs(err, model.ErrUserNotFound)
}

func (s *StorageSuite) TestDuplicateUsernameRejected() {
	s.Require().NoError(s.storage.CreateUser(s.ctx, s.user("u1", "alice")))

	dup := s.user("u2", "alice")
	dup.Email = "different@example.com"
	s.ErrorIs(s.storage.CreateUser(s.ctx, dup), model.ErrUsernameExists)
}

func (s *StorageSuite) TestDuplicateEmailRejected() {
	s.Require().NoError(s.storage.CreateUser(s.ctx, s.user("u1", "alice")))

	dup := s.user("u2", "bob")
	dup.Email = "alice@example.com"
	s.ErrorIs(s.storage.CreateUser(s.ctx, dup), model.ErrEmailExists)
}

func (s *StorageSuite) TestTouchUserLogin() {
	s.Require().NoError(s.storage.CreateUser(s.ctx, s.user("u1", "alice")))

	at := s.now.Add(time.Hour)
	s.Require().NoError(s.storage.TouchUserLogin(s.ctx, "u1", at))

	got, err := s.storage.GetUser(s.ctx, "u1")
	s.Require().NoError(err)
	s.Equal(at, got.LastLoginAt)
}

func (s *StorageSuite) TestStoredUserIsACopy() {
	user := s.user("u1", "alice")
	s.Require().NoError(s.storage.CreateUser(s.ctx, user))

	user.Username = "mutated"

	got, err := s.storage.GetUser(s.ctx, "u1")
	s.Require().NoError(err)
	s.Equal("alice", got.Username)
}

// Game tests

func (s *StorageSuite) TestCreateAndGetGame() {
	s.Require().NoError(s.storage.CreateGame(s.ctx, s.game("G1")))

	got, err := s.storage.GetGame(s.ctx, "G1")
	s.Require().NoError(err)
	s.Equal(model.GameStatusWaiting, got.Status)
	s.EqualValues(0, got.Version)
}

func (s *StorageSuite) TestCreateGameRejectsDuplicateID() {
	s.Require().NoError(s.storage.CreateGame(s.ctx, s.game("G1")))

	clash := s.game("G1")
	clash.PlayerX = "bob"
	s.ErrorIs(s.storage.CreateGame(s.ctx, clash), model.ErrGameExists)

	// The original game is untouched
	got, err := s.storage.GetGame(s.ctx, "G1")
	s.Require().NoError(err)
	s.Equal(model.UserID("alice"), got.PlayerX)
}

func (s *StorageSuite) TestGetMissingGame() {
	_, err := s.storage.GetGame(s.ctx, "missing")
	s.ErrorIs(err, model.ErrGameNotFound)
}

func (s *StorageSuite) TestUpdateGameBumpsVersion() {
	s.Require().NoError(s.storage.CreateGame(s.ctx, s.game("G1")))

	game, err := s.storage.GetGame(s.ctx, "G1")
	s.Require().NoError(err)

	game.Status = model.GameStatusInProgress
	s.Require().NoError(s.storage.UpdateGame(s.ctx, game))
	s.EqualValues(1, game.Version)

	got, err := s.storage.GetGame(s.ctx, "G1")
	s.Require().NoError(err)
	s.Equal(model.GameStatusInProgress, got.Status)
	s.EqualValues(1, got.Version)
}

func (s *StorageSuite) TestStaleUpdateConflicts() {
	s.Require().NoError(s.storage.CreateGame(s.ctx, s.game("G1")))

	first, err := s.storage.GetGame(s.ctx, "G1")
	s.Require().NoError(err)
	second, err := s.storage.GetGame(s.ctx, "G1")
	s.Require().NoError(err)

	first.Status = model.GameStatusInProgress
	s.Require().NoError(s.storage.UpdateGame(s.ctx, first))

	second.Status = model.GameStatusFinished
	s.ErrorIs(s.storage.UpdateGame(s.ctx, second), model.ErrVersionConflict)

	// The first write is the one that stuck
	got, err := s.storage.GetGame(s.ctx, "G1")
	s.Require().NoError(err)
	s.Equal(model.GameStatusInProgress, got.Status)
}

func (s *StorageSuite) TestUpdateMissingGame() {
	s.ErrorIs(s.storage.UpdateGame(s.ctx, s.game("missing")), model.ErrGameNotFound)
}

func (s *StorageSuite) TestListGamesNewestFirst() {
	g1 := s.game("G1")
	s.Require().NoError(s.storage.CreateGame(s.ctx, g1))

	g2 := s.game("G2")
	g2.CreatedAt = s.now.Add(time.Minute)
	s.Require().NoError(s.storage.CreateGame(s.ctx, g2))

	games, err := s.storage.ListGames(s.ctx, nil)
	s.Require().NoError(err)
	s.Require().Len(games, 2)
	s.Equal(model.GameID("G2"), games[0].ID)
	s.Equal(model.GameID("G1"), games[1].ID)
}

func (s *StorageSuite) TestListGamesTieBrokenByInsertionOrder() {
	// Same CreatedAt: the later insertion lists first
	s.Require().NoError(s.storage.CreateGame(s.ctx, s.game("G1")))
	s.Require().NoError(s.storage.CreateGame(s.ctx, s.game("G2")))

	games, err := s.storage.ListGames(s.ctx, nil)
	s.Require().NoError(err)
	s.Require().Len(games, 2)
	s.Equal(model.GameID("G2"), games[0].ID)
}

func (s *StorageSuite) TestListGamesByStatus() {
	g1 := s.game("G1")
	s.Require().NoError(s.storage.CreateGame(s.ctx, g1))

	g2 := s.game("G2")
	g2.Status = model.GameStatusInProgress
	g2.PlayerO = "bob"
	s.Require().NoError(s.storage.CreateGame(s.ctx, g2))

	status := model.GameStatusInProgress
	games, err := s.storage.ListGames(s.ctx, &status)
	s.Require().NoError(err)
	s.Require().Len(games, 1)
	s.Equal(model.GameID("G2"), games[0].ID)
}

// History tests

func (s *StorageSuite) finishGame(id string, winner model.Winner) *model.HistoryRecord {
	game := s.game(id)
	game.PlayerO = "bob"
	s.Require().NoError(s.storage.CreateGame(s.ctx, game))

	game.Status = model.GameStatusFinished
	game.Winner = winner
	game.FinishedAt = s.now.Add(time.Minute)

	rec := model.NewHistoryRecord("rec-"+id, game)
	s.Require().NoError(s.storage.FinishGame(s.ctx, game, rec))
	return rec
}

func (s *StorageSuite) TestFinishGameStoresGameAndHistory() {
	s.finishGame("G1", model.WinnerX)

	got, err := s.storage.GetGame(s.ctx, "G1")
	s.Require().NoError(err)
	s.Equal(model.GameStatusFinished, got.Status)

	rec, err := s.storage.GetHistoryByGame(s.ctx, "G1")
	s.Require().NoError(err)
	s.Equal(model.WinnerX, rec.Winner)
	s.Equal(model.UserID("alice"), rec.WinnerID)
}

func (s *StorageSuite) TestFinishGameConflictWritesNothing() {
	game := s.game("G1")
	game.PlayerO = "bob"
	s.Require().NoError(s.storage.CreateGame(s.ctx, game))

	stale := *game
	stale.Version = 99
	stale.Status = model.GameStatusFinished
	stale.Winner = model.WinnerX
	stale.FinishedAt = s.now

	rec := model.NewHistoryRecord("rec-G1", &stale)
	s.ErrorIs(s.storage.FinishGame(s.ctx, &stale, rec), model.ErrVersionConflict)

	_, err := s.storage.GetHistoryByGame(s.ctx, "G1")
	s.ErrorIs(err, model.ErrHistoryNotFound)
}

func (s *StorageSuite) TestHistoryMissing() {
	_, err := s.storage.GetHistoryByGame(s.ctx, "missing")
	s.ErrorIs(err, model.ErrHistoryNotFound)
}

func (s *StorageSuite) TestListHistoryForUser() {
	s.finishGame("G1", model.WinnerX)
	s.finishGame("G2", model.WinnerDraw)

	records, err := s.storage.ListHistoryForUser(s.ctx, "alice")
	s.Require().NoError(err)
	s.Len(records, 2)

	records, err = s.storage.ListHistoryForUser(s.ctx, "carol")
	s.Require().NoError(err)
	s.Empty(records)
}
