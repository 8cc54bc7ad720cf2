package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/mcoot/tictacgo/internal/api/middleware"
	"github.com/mcoot/tictacgo/internal/api/request"
	"github.com/mcoot/tictacgo/internal/api/response"
	"github.com/mcoot/tictacgo/internal/services/auth"
	"github.com/mcoot/tictacgo/internal/services/stats"
)

// UserHandler handles user-related endpoints
type UserHandler struct {
	authService  *auth.Service
	statsService *stats.Service
}

// NewUserHandler creates a new user handler
func NewUserHandler(authService *auth.Service, statsService *stats.Service) *UserHandler {
	return &UserHandler{
		authService:  authService,
		statsService: statsService,
	}
}

// Register handles POST /api/v1/users/register
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req request.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	if req.Username == "" {
		WriteError(w, NewInvalidRequestError("username is required"))
		return
	}
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		WriteError(w, NewInvalidRequestError("a valid email is required"))
		return
	}
	if req.Password == "" {
		WriteError(w, NewInvalidRequestError("password is required"))
		return
	}

	user, token, err := h.authService.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, response.AuthResponse{
		User:  response.UserFromModel(user),
		Token: token,
	})
}

// Login handles POST /api/v1/users/login
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req request.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	if req.Username == "" {
		WriteError(w, NewInvalidRequestError("username is required"))
		return
	}
	if req.Password == "" {
		WriteError(w, NewInvalidRequestError("password is required"))
		return
	}

	user, token, err := h.authService.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.AuthResponse{
		User:  response.UserFromModel(user),
		Token: token,
	})
}

// GetMe handles GET /api/v1/users/me
func (h *UserHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	user := middleware.MustGetUser(r.Context())
	response.JSON(w, http.StatusOK, response.UserFromModel(user))
}

// GetStats handles GET /api/v1/users/me/stats
func (h *UserHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	user := middleware.MustGetUser(r.Context())

	userStats, err := h.statsService.ForUser(r.Context(), user.ID)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.StatsFromModel(userStats))
}
