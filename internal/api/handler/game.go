package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/tictacgo/internal/api/middleware"
	"github.com/mcoot/tictacgo/internal/api/request"
	"github.com/mcoot/tictacgo/internal/api/response"
	"github.com/mcoot/tictacgo/internal/model"
	"github.com/mcoot/tictacgo/internal/services/game"
)

// GameHandler handles game-related endpoints
type GameHandler struct {
	gameController game.ControllerInterface
}

// NewGameHandler creates a new game handler
func NewGameHandler(gameController game.ControllerInterface) *GameHandler {
	return &GameHandler{
		gameController: gameController,
	}
}

// Create handles POST /api/v1/games
func (h *GameHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := middleware.MustGetUser(r.Context())

	g, err := h.gameController.CreateGame(r.Context(), user.ID)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, response.GameFromModel(g))
}

// List handles GET /api/v1/games with an optional status filter
func (h *GameHandler) List(w http.ResponseWriter, r *http.Request) {
	var status *model.GameStatus
	if raw := r.URL.Query().Get("status"); raw != "" {
		parsed, ok := model.ParseGameStatus(raw)
		if !ok {
			WriteError(w, NewInvalidRequestError("unknown status filter"))
			return
		}
		status = &parsed
	}

	games, err := h.gameController.ListGames(r.Context(), status)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.GameListFromModels(games))
}

// Get handles GET /api/v1/games/{id}
func (h *GameHandler) Get(w http.ResponseWriter, r *http.Request) {
	gameID := model.GameID(mux.Vars(r)["id"])

	g, err := h.gameController.GetGame(r.Context(), gameID)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.GameFromModel(g))
}

// Join handles POST /api/v1/games/{id}/join
func (h *GameHandler) Join(w http.ResponseWriter, r *http.Request) {
	user := middleware.MustGetUser(r.Context())
	gameID := model.GameID(mux.Vars(r)["id"])

	g, err := h.gameController.JoinGame(r.Context(), gameID, user.ID)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.GameFromModel(g))
}

// Move handles POST /api/v1/games/{id}/moves
func (h *GameHandler) Move(w http.ResponseWriter, r *http.Request) {
	user := middleware.MustGetUser(r.Context())
	gameID := model.GameID(mux.Vars(r)["id"])

	var req request.MoveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}
	if req.Position == nil {
		WriteError(w, NewInvalidRequestError("position is required"))
		return
	}

	result, err := h.gameController.MakeMove(r.Context(), gameID, user.ID, *req.Position)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.MoveResponse{
		Game:    response.GameFromModel(result.Game),
		Message: result.Message,
	})
}

// History handles GET /api/v1/games/{id}/history
func (h *GameHandler) History(w http.ResponseWriter, r *http.Request) {
	gameID := model.GameID(mux.Vars(r)["id"])

	rec, err := h.gameController.GetHistory(r.Context(), gameID)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.HistoryRecordFromModel(rec))
}
