package request

// RegisterRequest is the request body for registering a user
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest is the request body for logging in
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// MoveRequest is the request body for playing a move.
// Position is a pointer so a missing field is distinguishable from 0.
type MoveRequest struct {
	Position *int `json:"position"`
}
