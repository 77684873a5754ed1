package model

import (
	"time"

	"gopkg.in/guregu/null.v4"
)

// Role values stored in users.role.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// User represents an account record as stored in the `users` table.
// Accounts are never hard-deleted; IsActive gates access instead.
//
// Fields:
//  ID           – primary key identifier.
//  Username     – unique login name.
//  Email        – unique email address.
//  PasswordHash – bcrypt hash, never serialized.
//  DisplayName  – optional name shown in emails and the UI.
//  Role         – admin or user.
//  IsActive     – inactive accounts cannot authenticate.
type User struct {
	ID           uint64      `json:"id"`           // users.id
	Username     string      `json:"username"`     // users.username
	Email        string      `json:"email"`        // users.email
	PasswordHash string      `json:"-"`            // users.password_hash
	DisplayName  null.String `json:"display_name"` // users.display_name (nullable)
	Role         string      `json:"role"`         // users.role
	IsActive     bool        `json:"is_active"`    // users.is_active
	CreatedAt    time.Time   `json:"created_at"`   // users.created_at
	UpdatedAt    time.Time   `json:"updated_at"`   // users.updated_at
}

// IsAdmin reports whether the account carries the admin capability.
func (u User) IsAdmin() bool { return u.Role == RoleAdmin }

// Name returns the display name, falling back to the username.
func (u User) Name() string {
	if u.DisplayName.Valid && u.DisplayName.String != "" {
		return u.DisplayName.String
	}
	return u.Username
}

// RefreshToken models an entry in the `refresh_tokens` table.  Only the
// SHA-256 hash of the token value is persisted.
type RefreshToken struct {
	ID        uint64    // refresh_tokens.id
	UserID    uint64    // refresh_tokens.user_id
	TokenHash string    // refresh_tokens.token_hash
	ExpiresAt time.Time // refresh_tokens.expires_at
	RevokedAt null.Time // refresh_tokens.revoked_at
	CreatedAt time.Time // refresh_tokens.created_at
}
