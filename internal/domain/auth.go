// Package domain contains the core business entities and interfaces.
package domain

import (
	"context"
	"time"
)

// User represents an authenticated user in the system.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

// Session represents an active user session bound to the client that created it.
type Session struct {
	Token     string
	UserID    int64
	UserAgent string
	IP        string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// UserRepository defines the port for user persistence operations.
type UserRepository interface {
	GetByUsername(ctx context.Context, username string) (*User, error)
	GetByID(ctx context.Context, id int64) (*User, error)
	Create(ctx context.Context, username, passwordHash string) (*User, error)
	Count(ctx context.Context) (int, error)
}

// SessionRepository defines the port for session persistence operations.
type SessionRepository interface {
	Create(ctx context.Context, userID int64, token, userAgent, ip string, expiresAt time.Time) error
	GetByToken(ctx context.Context, token string) (*Session, error)
	Delete(ctx context.Context, token string) error
	DeleteExpired(ctx context.Context) error
}

// IdentityCache keeps recently validated sessions and users in the local store
// so requests still authenticate while the remote store is unreachable.
// Lookups return nil, nil on a miss. Password hashes are never cached.
type IdentityCache interface {
	CacheSession(ctx context.Context, s Session, ttl time.Duration) error
	CachedSession(ctx context.Context, token string) (*Session, error)
	ForgetSession(ctx context.Context, token string) error
	CacheUser(ctx context.Context, u User, ttl time.Duration) error
	CachedUser(ctx context.Context, username string) (*User, error)
	CachedUserByID(ctx context.Context, id int64) (*User, error)
}
