package models

import (
	"time"
)

// Auth sources a user record can belong to.
const (
	AuthSourceLocal   = "local"
	AuthSourceHTTPAPI = "http_api"
)

type User struct {
	ID           string `gorm:"primaryKey"`
	Username     string `gorm:"uniqueIndex;not null"`
	Email        string `gorm:"index"`
	PasswordHash string // empty for users managed by an external directory
	Role         string `gorm:"not null;default:'user'"` // "admin" or "user"
	FullName     string
	IsActive     bool `gorm:"not null;default:true"`

	// External directory support
	ExternalID string `gorm:"index"`
	AuthSource string `gorm:"default:'local'"` // "local" or "http_api"

	LastLoginAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// IsAdmin returns true if the user has admin role
func (u *User) IsAdmin() bool {
	return u.Role == "admin"
}

// IsExternal returns true if the user authenticates via an external directory
func (u *User) IsExternal() bool {
	return u.AuthSource != AuthSourceLocal && u.AuthSource != ""
}
