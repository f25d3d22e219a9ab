package model

import "time"

// User represents a backend account that can post items.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Staff        bool      `json:"is_staff"`
	CreatedAt    time.Time `json:"created_at"`
}

// Credentials identify the account the client signs in with.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AuthResponse is returned by register and login.
type AuthResponse struct {
	Token string `json:"token"`
}

// PingResult describes the outcome of a connectivity check.
type PingResult struct {
	OK     bool
	Status int
	Error  string
}
