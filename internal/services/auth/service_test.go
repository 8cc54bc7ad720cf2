package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/tictacgo/internal/dependencies/mocks"
	"github.com/mcoot/tictacgo/internal/model"
	"github.com/mcoot/tictacgo/internal/storage/memory"
	"github.com/mcoot/tictacgo/internal/testutil"
)

type ServiceSuite struct {
	suite.Suite
	storage *memory.Storage
	clock   *mocks.MockClock
	service *Service
	ctx     context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.storage = memory.New()
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))

	cfg := DefaultConfig()
	cfg.Secret = "test-secret"
	s.service = New(s.storage, s.clock, cfg, testutil.NopLogger())
	s.ctx = context.Background()
}

func (s *ServiceSuite) register(username string) (*model.User, string) {
	user, token, err := s.service.Register(s.ctx, username, username+"@example.com", "password123")
	s.Require().NoError(err)
	return user, token
}

func (s *ServiceSuite) TestRegisterCreatesUser() {
	user, token := s.register("alice")

	s.NotEmpty(user.ID)
	s.Equal("alice", user.Username)
	s.Equal("alice@example.com", user.Email)
	s.NotEmpty(token)
	// The stored hash is not the plaintext password
	s.NotEqual("password123", user.PasswordHash)
	s.Equal(s.clock.Now(), user.CreatedAt)

	stored, err := s.storage.GetUserByUsername(s.ctx, "alice")
	s.Require().NoError(err)
	s.Equal(user.ID, stored.ID)
}

func (s *ServiceSuite) TestRegisterDuplicateUsername() {
	s.register("alice")

	_, _, err := s.service.Register(s.ctx, "alice", "other@example.com", "password123")
	s.ErrorIs(err, model.ErrUsernameExists)
}

func (s *ServiceSuite) TestRegisterDuplicateEmail() {
	s.register("alice")

	_, _, err := s.service.Register(s.ctx, "alice2", "alice@example.com", "password123")
	s.ErrorIs(err, model.ErrEmailExists)
}

func (s *ServiceSuite) TestLoginSucceeds() {
	registered, _ := s.register("alice")

	s.clock.Advance(time.Hour)
	user, token, err := s.service.Login(s.ctx, "alice", "password123")
	s.Require().NoError(err)

	s.Equal(registered.ID, user.ID)
	s.NotEmpty(token)
	s.Equal(s.clock.Now(), user.LastLoginAt)
}

func (s *ServiceSuite) TestLoginUpdatesLastLoginInStorage() {
	registered, _ := s.register("alice")

	s.clock.Advance(time.Hour)
	_, _, err := s.service.Login(s.ctx, "alice", "password123")
	s.Require().NoError(err)

	stored, err := s.storage.GetUser(s.ctx, registered.ID)
	s.Require().NoError(err)
	s.Equal(s.clock.Now(), stored.LastLoginAt)
}

func (s *ServiceSuite) TestLoginWrongPassword() {
	s.register("alice")

	_, _, err := s.service.Login(s.ctx, "alice", "wrong")
	s.ErrorIs(err, ErrInvalidCredentials)
}

func (s *ServiceSuite) TestLoginUnknownUser() {
	_, _, err := s.service.Login(s.ctx, "nobody", "password123")
	s.ErrorIs(err, ErrInvalidCredentials)
}

func (s *ServiceSuite) TestAuthenticateValidToken() {
	registered, token := s.register("alice")

	user, err := s.service.Authenticate(s.ctx, token)
	s.Require().NoError(err)
	s.Equal(registered.ID, user.ID)
	s.Equal("alice", user.Username)
}

func (s *ServiceSuite) TestAuthenticateGarbageToken() {
	_, err := s.service.Authenticate(s.ctx, "not-a-token")
	s.ErrorIs(err, ErrInvalidToken)
}

func (s *ServiceSuite) TestAuthenticateExpiredToken() {
	_, token := s.register("alice")

	// Token validity follows the injected clock
	s.clock.Advance(24*time.Hour + time.Minute)

	_, err := s.service.Authenticate(s.ctx, token)
	s.ErrorIs(err, ErrInvalidToken)
}

func (s *ServiceSuite) TestAuthenticateTokenSurvivesUntilExpiry() {
	_, token := s.register("alice")

	s.clock.Advance(23 * time.Hour)

	_, err := s.service.Authenticate(s.ctx, token)
	s.NoError(err)
}

func (s *ServiceSuite) TestAuthenticateWrongSecret() {
	_, token := s.register("alice")

	otherCfg := DefaultConfig()
	otherCfg.Secret = "different-secret"
	other := New(s.storage, s.clock, otherCfg, testutil.NopLogger())

	_, err := other.Authenticate(s.ctx, token)
	s.ErrorIs(err, ErrInvalidToken)
}

func (s *ServiceSuite) TestAuthenticateDeletedUser() {
	// A token for a user that no longer exists is invalid
	_, token := s.register("alice")

	fresh := memory.New()
	cfg := DefaultConfig()
	cfg.Secret = "test-secret"
	service := New(fresh, s.clock, cfg, testutil.NopLogger())

	_, err := service.Authenticate(s.ctx, token)
	s.ErrorIs(err, ErrInvalidToken)
}
