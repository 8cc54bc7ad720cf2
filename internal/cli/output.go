package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
}

// NewOutput creates a new Output formatter
func NewOutput(format string) *Output {
	return &Output{format: format}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		fmt.Println(string(data))
	} else {
		fmt.Println(msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case User:
		o.printUser(v)
	case AuthResult:
		o.printAuthResult(v)
	case Game:
		o.printGame(v)
	case GameList:
		o.printGameList(v)
	case MoveResult:
		o.printMoveResult(v)
	case Stats:
		o.printStats(v)
	case HistoryRecord:
		o.printHistoryRecord(v)
	case HealthResult:
		o.printHealthResult(v)
	default:
		o.printJSON(data)
	}
}

// User response type (matches API)
type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// AuthResult is the response for register/login
type AuthResult struct {
	User  User   `json:"user"`
	Token string `json:"token"`
}

// Game is the API's game representation
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

// GameList is the response for listing games
type GameList struct {
	Games []Game `json:"games"`
}

// MoveResult is the response for playing a move
type MoveResult struct {
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

// HistoryRecord is a finished game record
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

// HealthResult is the health check response
type HealthResult struct {
	Status string `json:"status"`
}

func (o *Output) printUser(u User) {
	fmt.Printf("ID:       %s\n", u.ID)
	fmt.Printf("Username: %s\n", u.Username)
	fmt.Printf("Email:    %s\n", u.Email)
	fmt.Printf("Created:  %s\n", u.CreatedAt.Format(time.RFC3339))
}

func (o *Output) printAuthResult(a AuthResult) {
	o.printUser(a.User)
	fmt.Println("\nToken saved.")
}

func (o *Output) printGame(g Game) {
	fmt.Printf("Game:   %s\n", g.ID)
	fmt.Printf("Status: %s\n", g.Status)
	fmt.Printf("X:      %s\n", g.PlayerX)
	if g.PlayerO != "" {
		fmt.Printf("O:      %s\n", g.PlayerO)
	}
	if g.Status == "in_progress" {
		fmt.Printf("Turn:   %s\n", g.CurrentTurn)
	}
	if g.Winner != "" {
		if g.Winner == "D" {
			fmt.Println("Result: draw")
		} else {
			fmt.Printf("Result: %s wins\n", g.Winner)
		}
	}
	fmt.Println()
	o.printBoard(g.Board)
}

func (o *Output) printBoard(cells []string) {
	if len(cells) != 9 {
		return
	}

	for row := 0; row < 3; row++ {
		if row > 0 {
			fmt.Println("---+---+---")
		}
		for col := 0; col < 3; col++ {
			if col > 0 {
				fmt.Print("|")
			}
			cell := cells[row*3+col]
			if cell == "" {
				cell = " "
			}
			fmt.Printf(" %s ", cell)
		}
		fmt.Println()
	}
}

func (o *Output) printGameList(l GameList) {
	if len(l.Games) == 0 {
		fmt.Println("No games.")
		return
	}

	for _, g := range l.Games {
		line := fmt.Sprintf("%s  %-11s  X=%s", g.ID, g.Status, g.PlayerX)
		if g.PlayerO != "" {
			line += fmt.Sprintf("  O=%s", g.PlayerO)
		}
		if g.Winner != "" {
			line += fmt.Sprintf("  result=%s", g.Winner)
		}
		fmt.Println(line)
	}
}

func (o *Output) printMoveResult(m MoveResult) {
	o.printGame(m.Game)
	if m.Message != "" {
		fmt.Printf("\n%s\n", m.Message)
	}
}

func (o *Output) printStats(s Stats) {
	fmt.Printf("Games:  %d\n", s.TotalGames)
	fmt.Printf("Wins:   %d\n", s.Wins)
	fmt.Printf("Losses: %d\n", s.Losses)
	fmt.Printf("Draws:  %d\n", s.Draws)
}

func (o *Output) printHistoryRecord(h HistoryRecord) {
	fmt.Printf("Game:     %s\n", h.GameID)
	fmt.Printf("X:        %s\n", h.PlayerX)
	fmt.Printf("O:        %s\n", h.PlayerO)
	if h.Winner == "D" {
		fmt.Println("Result:   draw")
	} else {
		fmt.Printf("Result:   %s wins (%s)\n", h.Winner, h.WinnerID)
	}
	fmt.Printf("Moves:    %d\n", h.MoveCount)
	fmt.Printf("Finished: %s\n", h.FinishedAt.Format(time.RFC3339))
}

func (o *Output) printHealthResult(h HealthResult) {
	fmt.Printf("Status: %s\n", h.Status)
}
