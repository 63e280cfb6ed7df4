// Package domain contains the core business entities and interfaces.
package domain

import (
	"context"
	"time"
)

// Role is the authorization tier of a user.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// User represents a registered account.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Salt         string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
}

// UserRepository defines the port for user persistence operations.
// GetByUsername returns (nil, nil) when no such user exists.
type UserRepository interface {
	GetByUsername(ctx context.Context, username string) (*User, error)
	Create(ctx context.Context, u User) (*User, error)
	UpdateRole(ctx context.Context, username string, role Role) error
	List(ctx context.Context) ([]User, error)
}

// TokenKind distinguishes access tokens from refresh tokens.
type TokenKind string

const (
	TokenAccess  TokenKind = "access"
	TokenRefresh TokenKind = "refresh"
)

// JwtPair is returned on login and refresh.
type JwtPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// TokenVerification is the outcome of checking a token's signature and expiry.
type TokenVerification struct {
	Subject string
	Kind    TokenKind
	Valid   bool
	Reason  string
}

// AuthenticationResult is the per-request identity produced by the auth gate.
type AuthenticationResult struct {
	Username      string
	Role          Role
	Authenticated bool
	Reason        string
}
