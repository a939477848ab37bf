package core

import "context"

// LoginResult holds the outcome of a directory login.
type LoginResult struct {
	Success bool
	UserID  string
	// Username is the canonical name as stored by the directory.
	Username string
	Email    string
	FullName string
	Source   string // "local" or "http_api"
}

// UserDirectory validates a username/password pair.
// Implementations must be safe for concurrent use.
type UserDirectory interface {
	Login(ctx context.Context, username, password string) (*LoginResult, error)
}

// AuthResult holds the outcome of an authentication attempt against a
// single backend.
type AuthResult struct {
	Username   string
	ExternalID string // External user ID (e.g., API user ID)
	Email      string // Optional
	FullName   string // Optional
	Success    bool
}

// AuthProvider is the interface that password-based authentication
// backends must implement.
type AuthProvider interface {
	Authenticate(ctx context.Context, username, password string) (*AuthResult, error)
	Name() string
}
