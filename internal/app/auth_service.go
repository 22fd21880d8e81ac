// Package app holds the application services and business logic.
package app

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"hydration/internal/domain"
)

var (
	// ErrInvalidCredentials indicates that the provided username or password was incorrect.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrSessionNotFound indicates that the requested session does not exist.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionExpired indicates that the session has expired.
	ErrSessionExpired = errors.New("session expired")
	// ErrUserNotFound indicates that the user does not exist.
	ErrUserNotFound = errors.New("user not found")
	// ErrUsersExist indicates that initial setup already happened.
	ErrUsersExist = errors.New("users already exist")
	// ErrAuthUnavailable indicates that the user or session store failed and
	// no cached identity could stand in for it.
	ErrAuthUnavailable = errors.New("authentication store unavailable")
)

const (
	// DefaultSessionTTL is used when no session lifetime is configured.
	DefaultSessionTTL = 24 * time.Hour
	// DefaultIdentityCacheTTL bounds how long a validated identity may be
	// served from the local cache during a remote outage.
	DefaultIdentityCacheTTL = 15 * time.Minute
)

// AuthService handles authentication and session management.
type AuthService struct {
	users    domain.UserRepository
	sessions domain.SessionRepository
	ttl      time.Duration
	cache    domain.IdentityCache
	cacheTTL time.Duration
}

// NewAuthService creates a new authentication service.
func NewAuthService(users domain.UserRepository, sessions domain.SessionRepository, ttl time.Duration) *AuthService {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &AuthService{
		users:    users,
		sessions: sessions,
		ttl:      ttl,
	}
}

// WithIdentityCache remembers validated sessions and users in c for up to
// ttl so they keep authenticating while the remote store is down.
func (s *AuthService) WithIdentityCache(c domain.IdentityCache, ttl time.Duration) *AuthService {
	if ttl <= 0 {
		ttl = DefaultIdentityCacheTTL
	}
	s.cache = c
	s.cacheTTL = ttl
	return s
}

// SessionTTL returns the lifetime of new sessions.
func (s *AuthService) SessionTTL() time.Duration {
	return s.ttl
}

// Login authenticates a user and creates a session.
func (s *AuthService) Login(ctx context.Context, username, password, userAgent, ip string) (string, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return "", unavailable(err)
	}
	if user == nil || user.PasswordHash == "" {
		return "", ErrInvalidCredentials
	}

	if err = bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	return s.newSession(ctx, user.ID, userAgent, ip)
}

// Logout invalidates a session.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	s.forgetSession(ctx, token)
	return s.sessions.Delete(ctx, token)
}

// ValidateSession checks if a session token is valid and matches the user agent.
// When the session store fails, a previously validated session is served from
// the identity cache; without one the result is ErrAuthUnavailable.
func (s *AuthService) ValidateSession(ctx context.Context, token, userAgent string) (*domain.User, error) {
	session, err := s.sessions.GetByToken(ctx, token)
	if err != nil {
		return s.cachedSessionUser(ctx, token, userAgent, err)
	}
	if session == nil {
		s.forgetSession(ctx, token)
		return nil, ErrSessionNotFound
	}

	if time.Now().After(session.ExpiresAt) {
		_ = s.sessions.Delete(ctx, token)
		s.forgetSession(ctx, token)
		return nil, ErrSessionExpired
	}

	if !ConstantTimeCompare(session.UserAgent, userAgent) {
		_ = s.sessions.Delete(ctx, token)
		s.forgetSession(ctx, token)
		return nil, ErrSessionExpired
	}

	user, err := s.users.GetByID(ctx, session.UserID)
	if err != nil {
		if cached := s.cachedUserByID(ctx, session.UserID); cached != nil {
			return cached, nil
		}
		return nil, unavailable(err)
	}
	if user == nil {
		s.forgetSession(ctx, token)
		return nil, ErrUserNotFound
	}

	s.rememberSession(ctx, *session, *user)
	return user, nil
}

// CreateInitialUser creates the first user if no users exist.
func (s *AuthService) CreateInitialUser(ctx context.Context, username, password string) error {
	count, err := s.users.Count(ctx)
	if err != nil {
		return err
	}

	if count > 0 {
		return ErrUsersExist
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	_, err = s.users.Create(ctx, username, string(hash))
	return err
}

// ValidateForwardAuth resolves the user named by a trusted reverse proxy's
// Remote-User header, provisioning it on first sight.
func (s *AuthService) ValidateForwardAuth(ctx context.Context, remoteUser string) (*domain.User, error) {
	if remoteUser == "" {
		return nil, errors.New("no remote user header")
	}
	return s.findOrProvision(ctx, remoteUser)
}

// LoginWithUser creates a session for an already authenticated user (e.g. via SSO).
func (s *AuthService) LoginWithUser(ctx context.Context, username, userAgent, ip string) (string, error) {
	user, err := s.findOrProvision(ctx, username)
	if err != nil {
		return "", err
	}
	return s.newSession(ctx, user.ID, userAgent, ip)
}

// PurgeExpired drops expired sessions.
func (s *AuthService) PurgeExpired(ctx context.Context) error {
	return s.sessions.DeleteExpired(ctx)
}

func (s *AuthService) findOrProvision(ctx context.Context, username string) (*domain.User, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if cached := s.cachedUser(ctx, username); cached != nil {
			return cached, nil
		}
		return nil, unavailable(err)
	}
	if user == nil {
		// SSO users have no password hash and cannot use password login.
		user, err = s.users.Create(ctx, username, "")
		if err != nil {
			// Lost a race against a concurrent provision.
			user, err = s.users.GetByUsername(ctx, username)
			if err != nil {
				return nil, unavailable(err)
			}
			if user == nil {
				return nil, ErrUserNotFound
			}
		}
	}
	s.rememberUser(ctx, *user)
	return user, nil
}

func (s *AuthService) newSession(ctx context.Context, userID int64, userAgent, ip string) (string, error) {
	token, err := generateToken()
	if err != nil {
		return "", err
	}
	if err := s.sessions.Create(ctx, userID, token, userAgent, ip, time.Now().Add(s.ttl)); err != nil {
		return "", unavailable(err)
	}
	return token, nil
}

// cachedSessionUser answers a session lookup from the identity cache after
// the session store failed with cause.
func (s *AuthService) cachedSessionUser(ctx context.Context, token, userAgent string, cause error) (*domain.User, error) {
	if s.cache == nil {
		return nil, unavailable(cause)
	}
	session, err := s.cache.CachedSession(ctx, token)
	if err != nil || session == nil {
		return nil, unavailable(cause)
	}
	if time.Now().After(session.ExpiresAt) || !ConstantTimeCompare(session.UserAgent, userAgent) {
		return nil, ErrSessionExpired
	}
	if user := s.cachedUserByID(ctx, session.UserID); user != nil {
		return user, nil
	}
	return nil, unavailable(cause)
}

func (s *AuthService) cachedUser(ctx context.Context, username string) *domain.User {
	if s.cache == nil {
		return nil
	}
	user, err := s.cache.CachedUser(ctx, username)
	if err != nil {
		return nil
	}
	return user
}

func (s *AuthService) cachedUserByID(ctx context.Context, id int64) *domain.User {
	if s.cache == nil {
		return nil
	}
	user, err := s.cache.CachedUserByID(ctx, id)
	if err != nil {
		return nil
	}
	return user
}

// rememberSession caches a validated session no longer than it stays valid.
// Cache failures are ignored; the remote store stays authoritative.
func (s *AuthService) rememberSession(ctx context.Context, session domain.Session, user domain.User) {
	if s.cache == nil {
		return
	}
	ttl := min(s.cacheTTL, time.Until(session.ExpiresAt))
	if ttl <= 0 {
		return
	}
	_ = s.cache.CacheUser(ctx, user, s.cacheTTL)
	_ = s.cache.CacheSession(ctx, session, ttl)
}

func (s *AuthService) rememberUser(ctx context.Context, user domain.User) {
	if s.cache == nil {
		return
	}
	_ = s.cache.CacheUser(ctx, user, s.cacheTTL)
}

func (s *AuthService) forgetSession(ctx context.Context, token string) {
	if s.cache == nil {
		return
	}
	_ = s.cache.ForgetSession(ctx, token)
}

func unavailable(cause error) error {
	return fmt.Errorf("%w: %v", ErrAuthUnavailable, cause)
}

func generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

// ConstantTimeCompare performs a constant-time comparison of two strings.
func ConstantTimeCompare(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
