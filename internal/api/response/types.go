package response

import (
	"time"

	"github.com/mcoot/tictacgo/internal/model"
)

// User represents a user in API responses
type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// UserFromModel converts a model.User to a response User
func UserFromModel(u *model.User) User {
	return User{
		ID:        string(u.ID),
		Username:  u.Username,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
	}
}

// AuthResponse is the response for authentication endpoints
type AuthResponse struct {
	User  User   `json:"user"`
	Token string `json:"token"`
}

// Game represents a game in API responses. The board is nine cells in
// row-major order, each "X", "O" or "". Winner is "X", "O" or "D" and
// omitted while the game is unfinished.
type Game struct {
	ID          string     `json:"id"`
	PlayerX     string     `json:"player_x"`
	PlayerO     string     `json:"player_o,omitempty"`
	Board       []string   `json:"board"`
	CurrentTurn string     `json:"current_turn"`
	Status      string     `json:"status"`
	Winner      string     `json:"winner,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	FinishedAt  *time.Time `json:"finished_at,omitempty"`
}

// GameFromModel converts a model.Game to a response Game
func GameFromModel(g *model.Game) Game {
	resp := Game{
		ID:          string(g.ID),
		PlayerX:     string(g.PlayerX),
		PlayerO:     string(g.PlayerO),
		Board:       g.Board.Strings(),
		CurrentTurn: g.CurrentTurn.String(),
		Status:      string(g.Status),
		Winner:      string(g.Winner),
		CreatedAt:   g.CreatedAt,
	}
	if !g.FinishedAt.IsZero() {
		t := g.FinishedAt
		resp.FinishedAt = &t
	}
	return resp
}

// GameList is the response for listing games
type GameList struct {
	Games []Game `json:"games"`
}

// GameListFromModels converts a slice of games
func GameListFromModels(games []*model.Game) GameList {
	out := GameList{Games: make([]Game, 0, len(games))}
	for _, g := range games {
		out.Games = append(out.Games, GameFromModel(g))
	}
	return out
}

// MoveResponse is the response for playing a move
type MoveResponse struct {
	Game    Game   `json:"game"`
	Message string `json:"message,omitempty"`
}

// Stats is the response for user statistics
type Stats struct {
	TotalGames int `json:"total_games"`
	Wins       int `json:"wins"`
	Losses     int `json:"losses"`
	Draws      int `json:"draws"`
}

// StatsFromModel converts model.Stats
func StatsFromModel(s *model.Stats) Stats {
	return Stats{
		TotalGames: s.TotalGames,
		Wins:       s.Wins,
		Losses:     s.Losses,
		Draws:      s.Draws,
	}
}

// HistoryRecord represents a finished game record
type HistoryRecord struct {
	ID         string    `json:"id"`
	GameID     string    `json:"game_id"`
	PlayerX    string    `json:"player_x"`
	PlayerO    string    `json:"player_o"`
	WinnerID   string    `json:"winner_id,omitempty"`
	Winner     string    `json:"winner"`
	MoveCount  int       `json:"move_count"`
	FinishedAt time.Time `json:"finished_at"`
}

// HistoryRecordFromModel converts model.HistoryRecord
func HistoryRecordFromModel(rec *model.HistoryRecord) HistoryRecord {
	return HistoryRecord{
		ID:         rec.ID,
		GameID:     string(rec.GameID),
		PlayerX:    string(rec.PlayerX),
		PlayerO:    string(rec.PlayerO),
		WinnerID:   string(rec.WinnerID),
		Winner:     string(rec.Winner),
		MoveCount:  rec.MoveCount,
		FinishedAt: rec.FinishedAt,
	}
}
