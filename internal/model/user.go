package model

import "time"

// UserID uniquely identifies a user across the system
type UserID string

// User represents a registered account. Identity fields are immutable after
// registration; only LastLoginAt changes afterwards.
type User struct {
	ID           UserID
	Username     string // unique handle
	Email        string // unique contact address
	PasswordHash string // bcrypt hash
	CreatedAt    time.Time
	LastLoginAt  time.Time // zero until first login
}

// Stats are per-user aggregates derived on demand from history records,
// never stored as counters
type Stats struct {
	TotalGames int
	Wins       int
	Losses     int
	Draws      int
}
