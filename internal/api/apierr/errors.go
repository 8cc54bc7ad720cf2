package apierr

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mcoot/tictacgo/internal/model"
	"github.com/mcoot/tictacgo/internal/services/auth"
)

// APIError represents an API error response
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse wraps an APIError
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// Common error codes
const (
	CodeInvalidRequest     = "INVALID_REQUEST"
	CodeInvalidPosition    = "INVALID_POSITION"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeNotYourTurn        = "NOT_YOUR_TURN"
	CodeNotParticipant     = "NOT_PARTICIPANT"
	CodeUserNotFound       = "USER_NOT_FOUND"
	CodeGameNotFound       = "GAME_NOT_FOUND"
	CodeHistoryNotFound    = "HISTORY_NOT_FOUND"
	CodeGameNotJoinable    = "GAME_NOT_JOINABLE"
	CodeGameFull           = "GAME_FULL"
	CodeSelfJoin           = "SELF_JOIN"
	CodeGameNotInProgress  = "GAME_NOT_IN_PROGRESS"
	CodeCellOccupied       = "CELL_OCCUPIED"
	CodeConflict           = "CONFLICT"
	CodeUsernameExists     = "USERNAME_EXISTS"
	CodeEmailExists        = "EMAIL_EXISTS"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeRateLimited        = "RATE_LIMITED"
	CodeInternalError      = "INTERNAL_ERROR"
)

// httpError combines an HTTP status code with an APIError
type httpError struct {
	status   int
	apiError APIError
}

// Error implements error interface
func (e *httpError) Error() string {
	return e.apiError.Message
}

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	he := toHTTPError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(he.status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: he.apiError})
}

// toHTTPError converts an error to an httpError
func toHTTPError(err error) *httpError {
	// Check for specific error types
	var he *httpError
	if errors.As(err, &he) {
		return he
	}

	// Map model errors
	switch {
	case errors.Is(err, model.ErrUserNotFound):
		return &httpError{http.StatusNotFound, APIError{CodeUserNotFound, "User not found"}}
	case errors.Is(err, model.ErrGameNotFound):
		return &httpError{http.StatusNotFound, APIError{CodeGameNotFound, "Game not found"}}
	case errors.Is(err, model.ErrHistoryNotFound):
		return &httpError{http.StatusNotFound, APIError{CodeHistoryNotFound, "No history for this game"}}
	case errors.Is(err, model.ErrGameNotJoinable):
		return &httpError{http.StatusConflict, APIError{CodeGameNotJoinable, "Game is not open for joining"}}
	case errors.Is(err, model.ErrSelfJoin):
		return &httpError{http.StatusConflict, APIError{CodeSelfJoin, "Cannot join your own game"}}
	case errors.Is(err, model.ErrGameFull):
		return &httpError{http.StatusConflict, APIError{CodeGameFull, "Game already has two players"}}
	case errors.Is(err, model.ErrGameNotInProgress):
		return &httpError{http.StatusConflict, APIError{CodeGameNotInProgress, "Game is not in progress"}}
	case errors.Is(err, model.ErrNotParticipant):
		return &httpError{http.StatusForbidden, APIError{CodeNotParticipant, "You are not a player in this game"}}
	case errors.Is(err, model.ErrNotYourTurn):
		return &httpError{http.StatusForbidden, APIError{CodeNotYourTurn, "Not your turn"}}
	case errors.Is(err, model.ErrInvalidPosition):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidPosition, "Position must be between 0 and 8"}}
	case errors.Is(err, model.ErrCellOccupied):
		return &httpError{http.StatusConflict, APIError{CodeCellOccupied, "Cell is already occupied"}}
	case errors.Is(err, model.ErrVersionConflict):
		return &httpError{http.StatusConflict, APIError{CodeConflict, "Game was modified concurrently, retry"}}
	case errors.Is(err, model.ErrUsernameExists):
		return &httpError{http.StatusConflict, APIError{CodeUsernameExists, "Username already taken"}}
	case errors.Is(err, model.ErrEmailExists):
		return &httpError{http.StatusConflict, APIError{CodeEmailExists, "Email already registered"}}

	// Map auth errors
	case errors.Is(err, auth.ErrInvalidCredentials):
		return &httpError{http.StatusUnauthorized, APIError{CodeInvalidCredentials, "Invalid username or password"}}
	case errors.Is(err, auth.ErrInvalidToken):
		return &httpError{http.StatusUnauthorized, APIError{CodeUnauthorized, "Invalid or expired token"}}

	default:
		return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
	}
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return &httpError{http.StatusBadRequest, APIError{CodeInvalidRequest, message}}
}

// NewUnauthorizedError creates an unauthorized error
func NewUnauthorizedError() error {
	return &httpError{http.StatusUnauthorized, APIError{CodeUnauthorized, "Authentication required"}}
}

// NewRateLimitedError creates a rate limited error
func NewRateLimitedError() error {
	return &httpError{http.StatusTooManyRequests, APIError{CodeRateLimited, "Too many requests"}}
}

// NewInternalError creates an internal server error
func NewInternalError() error {
	return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
}
