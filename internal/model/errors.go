package model

import "errors"

// Common errors used across the application
var (
	// User errors
	ErrUserNotFound   = errors.New("user not found")
	ErrUsernameExists = errors.New("username already taken")
	ErrEmailExists    = errors.New("email already registered")

	// Game errors
	ErrGameExists        = errors.New("game already exists")
	ErrGameNotFound      = errors.New("game not found")
	ErrGameNotJoinable   = errors.New("game is not open for joining")
	ErrSelfJoin          = errors.New("cannot join your own game")
	ErrGameFull          = errors.New("game already has two players")
	ErrGameNotInProgress = errors.New("game is not in progress")
	ErrNotParticipant    = errors.New("not a participant in this game")
	ErrNotYourTurn       = errors.New("not your turn")
	ErrInvalidPosition   = errors.New("position must be between 0 and 8")
	ErrCellOccupied      = errors.New("cell is already occupied")

	// History errors
	ErrHistoryNotFound = errors.New("history record not found")

	// Storage errors
	ErrVersionConflict = errors.New("game was modified concurrently")
)
