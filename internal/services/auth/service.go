package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/mcoot/tictacgo/internal/dependencies/clock"
	"github.com/mcoot/tictacgo/internal/model"
	"github.com/mcoot/tictacgo/internal/storage"
)

// Errors
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid or expired token")
)

// Config holds configuration for the auth service. The signing secret is
// passed in explicitly at construction; nothing here is read from ambient
// globals.
type Config struct {
	Secret        string
	TokenDuration time.Duration
	Issuer        string
}

// DefaultConfig returns default auth configuration (the secret must still be
// provided by the caller)
func DefaultConfig() Config {
	return Config{
		TokenDuration: 24 * time.Hour,
		Issuer:        "tictacgo",
	}
}

// Claims are the JWT claims carried by issued tokens
type Claims struct {
	jwt.RegisteredClaims
	Username string `json:"username"`
}

// Service handles registration, login and token verification
type Service struct {
	storage storage.Storage
	clock   clock.Clock
	cfg     Config
	parser  *jwt.Parser
	logger  *slog.Logger
}

// New creates a new auth service. Token expiry is checked against the
// injected clock so time can be controlled in tests.
func New(store storage.Storage, clk clock.Clock, cfg Config, logger *slog.Logger) *Service {
	if cfg.TokenDuration == 0 {
		cfg.TokenDuration = DefaultConfig().TokenDuration
	}
	if cfg.Issuer == "" {
		cfg.Issuer = DefaultConfig().Issuer
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithIssuer(cfg.Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(clk.Now),
	)

	return &Service{
		storage: store,
		clock:   clk,
		cfg:     cfg,
		parser:  parser,
		logger:  logger,
	}
}

// Register creates a new user account and returns it with a signed token
func (s *Service) Register(ctx context.Context, username, email, password string) (*model.User, string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", err
	}

	user := &model.User{
		ID:           model.UserID(uuid.NewString()),
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    s.clock.Now(),
	}

	if err := s.storage.CreateUser(ctx, user); err != nil {
		return nil, "", err
	}

	s.logger.Info("user registered",
		slog.String("user_id", string(user.ID)),
		slog.String("username", username),
	)

	token, err := s.issueToken(user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// Login verifies a username/password pair and returns the user with a
// signed token. The last-login timestamp is updated on success.
func (s *Service) Login(ctx context.Context, username, password string) (*model.User, string, error) {
	user, err := s.storage.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	now := s.clock.Now()
	if err := s.storage.TouchUserLogin(ctx, user.ID, now); err != nil {
		return nil, "", err
	}
	user.LastLoginAt = now

	token, err := s.issueToken(user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// Authenticate verifies a bearer token and resolves it to the stored user
func (s *Service) Authenticate(ctx context.Context, tokenString string) (*model.User, error) {
	claims := &Claims{}
	token, err := s.parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return []byte(s.cfg.Secret), nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	user, err := s.storage.GetUser(ctx, model.UserID(claims.Subject))
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	return user, nil
}

// issueToken signs an HS256 token for the user
func (s *Service) issueToken(user *model.User) (string, error) {
	now := s.clock.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   string(user.ID),
			Issuer:    s.cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.TokenDuration)),
		},
		Username: user.Username,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.Secret))
}
