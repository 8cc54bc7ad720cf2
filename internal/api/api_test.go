package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/mcoot/tictacgo/internal/api"
	apimiddleware "github.com/mcoot/tictacgo/internal/api/middleware"
	"github.com/mcoot/tictacgo/internal/api/response"
	"github.com/mcoot/tictacgo/internal/factory"
	"github.com/mcoot/tictacgo/internal/services/auth"
	"github.com/mcoot/tictacgo/internal/storage/memory"
)

// testServer creates a test server with all dependencies
type testServer struct {
	handler http.Handler
	storage *memory.Storage
	auth    *auth.Service
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	// API tests are integration tests - use production factory with real random/clock
	app, err := factory.New(factory.Config{
		AuthConfig: auth.Config{Secret: "api-test-secret"},
	})
	require.NoError(t, err)

	router := api.NewRouter(api.RouterConfig{
		Logger:         logger,
		AuthService:    app.AuthService,
		GameController: app.GameController,
		StatsService:   app.StatsService,
	})

	return &testServer{
		handler: router,
		storage: app.Storage.(*memory.Storage),
		auth:    app.AuthService,
	}
}

func (ts *testServer) request(method, path string, body any, token string) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer
	if body != nil {
		b, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(b)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)
	return rr
}

// register creates an account and returns its auth response
func (ts *testServer) register(t *testing.T, username string) response.AuthResponse {
	t.Helper()

	body := map[string]string{
		"username": username,
		"email":    username + "@example.com",
		"password": "secret123",
	}
	rr := ts.request(http.MethodPost, "/api/v1/users/register", body, "")
	require.Equal(t, http.StatusCreated, rr.Code)

	var resp response.AuthResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	return resp
}

func TestHealthCheck(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodGet, "/api/v1/health", nil, "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "ok")
}

func TestRegisterAndLogin(t *testing.T) {
	ts := newTestServer(t)

	registerResp := ts.register(t, "alice")
	assert.Equal(t, "alice", registerResp.User.Username)
	assert.Equal(t, "alice@example.com", registerResp.User.Email)
	assert.NotEmpty(t, registerResp.Token)

	// Login
	loginBody := map[string]string{
		"username": "alice",
		"password": "secret123",
	}
	rr := ts.request(http.MethodPost, "/api/v1/users/login", loginBody, "")
	assert.Equal(t, http.StatusOK, rr.Code)

	var loginResp response.AuthResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &loginResp))
	assert.Equal(t, registerResp.User.ID, loginResp.User.ID)
}

func TestRegisterDuplicateUsername(t *testing.T) {
	ts := newTestServer(t)

	ts.register(t, "alice")

	body := map[string]string{
		"username": "alice",
		"email":    "other@example.com",
		"password": "secret123",
	}
	rr := ts.request(http.MethodPost, "/api/v1/users/register", body, "")
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Contains(t, rr.Body.String(), "USERNAME_EXISTS")
}

func TestRegisterRejectsBadEmail(t *testing.T) {
	ts := newTestServer(t)

	body := map[string]string{
		"username": "alice",
		"email":    "not-an-email",
		"password": "secret123",
	}
	rr := ts.request(http.MethodPost, "/api/v1/users/register", body, "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestLoginWrongPassword(t *testing.T) {
	ts := newTestServer(t)

	ts.register(t, "alice")

	body := map[string]string{
		"username": "alice",
		"password": "wrong",
	}
	rr := ts.request(http.MethodPost, "/api/v1/users/login", body, "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestGetMe(t *testing.T) {
	ts := newTestServer(t)

	authResp := ts.register(t, "bob")

	rr := ts.request(http.MethodGet, "/api/v1/users/me", nil, authResp.Token)
	assert.Equal(t, http.StatusOK, rr.Code)

	var meResp response.User
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &meResp))
	assert.Equal(t, authResp.User.ID, meResp.ID)
	assert.Equal(t, "bob", meResp.Username)
}

func TestAuthRequired(t *testing.T) {
	ts := newTestServer(t)

	paths := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/v1/users/me"},
		{http.MethodGet, "/api/v1/users/me/stats"},
		{http.MethodPost, "/api/v1/games"},
		{http.MethodGet, "/api/v1/games"},
	}

	for _, p := range paths {
		rr := ts.request(p.method, p.path, nil, "")
		assert.Equal(t, http.StatusUnauthorized, rr.Code, "%s %s", p.method, p.path)
	}
}

func TestInvalidToken(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodGet, "/api/v1/users/me", nil, "not-a-jwt")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestCreateAndGetGame(t *testing.T) {
	ts := newTestServer(t)

	alice := ts.register(t, "alice")

	rr := ts.request(http.MethodPost, "/api/v1/games", nil, alice.Token)
	require.Equal(t, http.StatusCreated, rr.Code)

	var created response.Game
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))
	assert.Equal(t, "waiting", created.Status)
	assert.Equal(t, alice.User.ID, created.PlayerX)
	assert.Empty(t, created.PlayerO)
	assert.Equal(t, "X", created.CurrentTurn)
	assert.Equal(t, []string{"", "", "", "", "", "", "", "", ""}, created.Board)

	rr = ts.request(http.MethodGet, "/api/v1/games/"+created.ID, nil, alice.Token)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestJoinOwnGameRejected(t *testing.T) {
	ts := newTestServer(t)

	alice := ts.register(t, "alice")

	rr := ts.request(http.MethodPost, "/api/v1/games", nil, alice.Token)
	require.Equal(t, http.StatusCreated, rr.Code)
	var created response.Game
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))

	rr = ts.request(http.MethodPost, "/api/v1/games/"+created.ID+"/join", nil, alice.Token)
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Contains(t, rr.Body.String(), "SELF_JOIN")
}

func TestListGamesStatusFilter(t *testing.T) {
	ts := newTestServer(t)

	alice := ts.register(t, "alice")

	rr := ts.request(http.MethodPost, "/api/v1/games", nil, alice.Token)
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = ts.request(http.MethodGet, "/api/v1/games?status=waiting", nil, alice.Token)
	require.Equal(t, http.StatusOK, rr.Code)

	var list response.GameList
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &list))
	assert.Len(t, list.Games, 1)

	rr = ts.request(http.MethodGet, "/api/v1/games?status=finished", nil, alice.Token)
	require.Equal(t, http.StatusOK, rr.Code)
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &list))
	assert.Empty(t, list.Games)

	rr = ts.request(http.MethodGet, "/api/v1/games?status=bogus", nil, alice.Token)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

// TestFullGameFlow plays a complete game through the HTTP surface:
// register two users, create, join, alternate moves to an X win, then
// check history and both players' stats.
func TestFullGameFlow(t *testing.T) {
	ts := newTestServer(t)

	alice := ts.register(t, "alice")
	bob := ts.register(t, "bob")

	// Alice creates, Bob joins
	rr := ts.request(http.MethodPost, "/api/v1/games", nil, alice.Token)
	require.Equal(t, http.StatusCreated, rr.Code)
	var g response.Game
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &g))

	rr = ts.request(http.MethodPost, "/api/v1/games/"+g.ID+"/join", nil, bob.Token)
	require.Equal(t, http.StatusOK, rr.Code)
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &g))
	assert.Equal(t, "in_progress", g.Status)
	assert.Equal(t, bob.User.ID, g.PlayerO)
	assert.Equal(t, "X", g.CurrentTurn)

	// History is unavailable until the game finishes
	rr = ts.request(http.MethodGet, "/api/v1/games/"+g.ID+"/history", nil, alice.Token)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	// Bob cannot move out of turn
	rr = ts.request(http.MethodPost, "/api/v1/games/"+g.ID+"/moves", map[string]int{"position": 0}, bob.Token)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	// X takes the top-left diagonal: X 0, O 1, X 4, O 2, X 8
	moves := []struct {
		token    string
		position int
	}{
		{alice.Token, 0},
		{bob.Token, 1},
		{alice.Token, 4},
		{bob.Token, 2},
		{alice.Token, 8},
	}

	var moveResp response.MoveResponse
	for i, m := range moves {
		rr = ts.request(http.MethodPost, fmt.Sprintf("/api/v1/games/%s/moves", g.ID),
			map[string]int{"position": m.position}, m.token)
		require.Equal(t, http.StatusOK, rr.Code, "move %d", i)
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &moveResp))
	}

	assert.Equal(t, "finished", moveResp.Game.Status)
	assert.Equal(t, "X", moveResp.Game.Winner)
	assert.Equal(t, "X wins", moveResp.Message)
	assert.NotNil(t, moveResp.Game.FinishedAt)

	// No further moves accepted
	rr = ts.request(http.MethodPost, "/api/v1/games/"+g.ID+"/moves", map[string]int{"position": 5}, bob.Token)
	assert.Equal(t, http.StatusConflict, rr.Code)

	// History record exists exactly once
	rr = ts.request(http.MethodGet, "/api/v1/games/"+g.ID+"/history", nil, bob.Token)
	require.Equal(t, http.StatusOK, rr.Code)

	var rec response.HistoryRecord
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &rec))
	assert.Equal(t, g.ID, rec.GameID)
	assert.Equal(t, "X", rec.Winner)
	assert.Equal(t, alice.User.ID, rec.WinnerID)
	assert.Equal(t, 5, rec.MoveCount)

	// Stats reflect the result for both players
	rr = ts.request(http.MethodGet, "/api/v1/users/me/stats", nil, alice.Token)
	require.Equal(t, http.StatusOK, rr.Code)
	var aliceStats response.Stats
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &aliceStats))
	assert.Equal(t, response.Stats{TotalGames: 1, Wins: 1, Losses: 0, Draws: 0}, aliceStats)

	rr = ts.request(http.MethodGet, "/api/v1/users/me/stats", nil, bob.Token)
	require.Equal(t, http.StatusOK, rr.Code)
	var bobStats response.Stats
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &bobStats))
	assert.Equal(t, response.Stats{TotalGames: 1, Wins: 0, Losses: 1, Draws: 0}, bobStats)
}

func TestMoveValidation(t *testing.T) {
	ts := newTestServer(t)

	alice := ts.register(t, "alice")
	bob := ts.register(t, "bob")

	rr := ts.request(http.MethodPost, "/api/v1/games", nil, alice.Token)
	require.Equal(t, http.StatusCreated, rr.Code)
	var g response.Game
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &g))

	rr = ts.request(http.MethodPost, "/api/v1/games/"+g.ID+"/join", nil, bob.Token)
	require.Equal(t, http.StatusOK, rr.Code)

	// Missing position
	rr = ts.request(http.MethodPost, "/api/v1/games/"+g.ID+"/moves", map[string]string{}, alice.Token)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	// Out of range position
	rr = ts.request(http.MethodPost, "/api/v1/games/"+g.ID+"/moves", map[string]int{"position": 9}, alice.Token)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "INVALID_POSITION")

	// Occupied cell
	rr = ts.request(http.MethodPost, "/api/v1/games/"+g.ID+"/moves", map[string]int{"position": 4}, alice.Token)
	require.Equal(t, http.StatusOK, rr.Code)
	rr = ts.request(http.MethodPost, "/api/v1/games/"+g.ID+"/moves", map[string]int{"position": 4}, bob.Token)
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Contains(t, rr.Body.String(), "CELL_OCCUPIED")

	// Outsider cannot move
	carol := ts.register(t, "carol")
	rr = ts.request(http.MethodPost, "/api/v1/games/"+g.ID+"/moves", map[string]int{"position": 5}, carol.Token)
	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Contains(t, rr.Body.String(), "NOT_PARTICIPANT")
}

func TestRateLimitKeyedByUser(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	app, err := factory.New(factory.Config{
		AuthConfig: auth.Config{Secret: "api-test-secret"},
	})
	require.NoError(t, err)

	// One request per bucket, no refill within the test
	limiter := apimiddleware.NewRateLimiter(apimiddleware.RateLimiterConfig{
		Rate:            rate.Every(time.Hour),
		Burst:           1,
		CleanupInterval: time.Minute,
		IdleTimeout:     time.Minute,
	})
	defer limiter.Stop()

	router := api.NewRouter(api.RouterConfig{
		Logger:         logger,
		AuthService:    app.AuthService,
		GameController: app.GameController,
		StatsService:   app.StatsService,
		RateLimiter:    limiter,
	})

	// Register through the service so the shared address bucket for the
	// public endpoints stays untouched
	ctx := context.Background()
	_, tokenA, err := app.AuthService.Register(ctx, "alice", "alice@example.com", "secret123")
	require.NoError(t, err)
	_, tokenB, err := app.AuthService.Register(ctx, "bob", "bob@example.com", "secret123")
	require.NoError(t, err)

	// httptest gives every request the same RemoteAddr, so these two
	// users share an address but must not share a bucket
	do := func(token string) int {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		return rr.Code
	}

	assert.Equal(t, http.StatusOK, do(tokenA))
	assert.Equal(t, http.StatusOK, do(tokenB), "second user from the same address has their own bucket")
	assert.Equal(t, http.StatusTooManyRequests, do(tokenA))
	assert.Equal(t, http.StatusTooManyRequests, do(tokenB))

	// Unauthenticated endpoints fall back to the address key
	login := func() int {
		body, _ := json.Marshal(map[string]string{"username": "alice", "password": "secret123"})
		req := httptest.NewRequest(http.MethodPost, "/api/v1/users/login", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		return rr.Code
	}

	assert.Equal(t, http.StatusOK, login())
	assert.Equal(t, http.StatusTooManyRequests, login())
}
