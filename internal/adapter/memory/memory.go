// Package memory implements an in-memory repository for development and testing.
package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"hydration/internal/domain"
)

type dayKey struct {
	userID int64
	day    string
}

// DB implements an in-memory database storage.
type DB struct {
	mu       sync.Mutex
	entries  map[dayKey][]domain.IntakeEntry
	days     map[dayKey]time.Time
	users    []*domain.User
	sessions map[string]*domain.Session

	userIDCounter int64
}

// New creates a new in-memory database.
func New() *DB {
	return &DB{
		entries:  make(map[dayKey][]domain.IntakeEntry),
		days:     make(map[dayKey]time.Time),
		sessions: make(map[string]*domain.Session),
	}
}

// Ensure interfaces are met.
var _ domain.IntakeRepository = (*DB)(nil)
var _ domain.UserRepository = (*DB)(nil)
var _ domain.SessionRepository = (*SessionRepo)(nil)

// --- IntakeRepository ---

// AddEntry appends an entry to its day and returns the new day total.
func (db *DB) AddEntry(ctx context.Context, entry domain.IntakeEntry) (int, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	k := dayKey{entry.UserID, entry.Day}
	entry.Timestamp = entry.Timestamp.UTC()
	db.entries[k] = append(db.entries[k], entry)
	db.days[k] = time.Now().UTC()
	return sumEntries(db.entries[k]), nil
}

// DeleteLatestEntry removes the newest entry of a day.
func (db *DB) DeleteLatestEntry(ctx context.Context, userID int64, day string) (*domain.IntakeEntry, int, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	k := dayKey{userID, day}
	list := db.entries[k]
	if len(list) == 0 {
		return nil, 0, nil
	}

	lastIdx := 0
	for i, e := range list {
		if e.Timestamp.After(list[lastIdx].Timestamp) {
			lastIdx = i
		}
	}
	removed := list[lastIdx]
	db.entries[k] = append(list[:lastIdx:lastIdx], list[lastIdx+1:]...)
	db.days[k] = time.Now().UTC()
	return &removed, sumEntries(db.entries[k]), nil
}

// ResetDay drops all entries of a day; the day itself stays with a zero total.
func (db *DB) ResetDay(ctx context.Context, userID int64, day string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	k := dayKey{userID, day}
	delete(db.entries, k)
	db.days[k] = time.Now().UTC()
	return nil
}

// DayTotal returns the total for a day.
func (db *DB) DayTotal(ctx context.Context, userID int64, day string) (int, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	return sumEntries(db.entries[dayKey{userID, day}]), nil
}

// ListEntries returns a copy of a day's entries ordered by timestamp.
func (db *DB) ListEntries(ctx context.Context, userID int64, day string) ([]domain.IntakeEntry, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	src := db.entries[dayKey{userID, day}]
	out := make([]domain.IntakeEntry, len(src))
	copy(out, src)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out, nil
}

// ListDays returns the user's day records newest first.
func (db *DB) ListDays(ctx context.Context, userID int64, limit int) ([]domain.DailyRecord, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	var out []domain.DailyRecord
	for k, updated := range db.days {
		if k.userID != userID {
			continue
		}
		out = append(out, domain.DailyRecord{
			UserID:    userID,
			Day:       k.day,
			TotalML:   sumEntries(db.entries[k]),
			UpdatedAt: updated,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Day > out[j].Day })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func sumEntries(list []domain.IntakeEntry) int {
	total := 0
	for _, e := range list {
		total += e.AmountML
	}
	return total
}

// --- UserRepository ---

// GetByUsername retrieves a user by username.
func (db *DB) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, u := range db.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, nil
}

// GetByID retrieves a user by ID.
func (db *DB) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, u := range db.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, nil
}

// Create creates a new user.
func (db *DB) Create(ctx context.Context, username, passwordHash string) (*domain.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, u := range db.users {
		if u.Username == username {
			return nil, errors.New("user already exists")
		}
	}

	db.userIDCounter++
	u := &domain.User{
		ID:           db.userIDCounter,
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}
	db.users = append(db.users, u)
	return u, nil
}

// Count returns the total number of users.
func (db *DB) Count(ctx context.Context) (int, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	return len(db.users), nil
}

// --- SessionRepository ---

// SessionRepo implements session persistence.
type SessionRepo struct {
	db *DB
}

// NewSessionRepo creates a new session repository.
func (db *DB) NewSessionRepo() *SessionRepo {
	return &SessionRepo{db: db}
}

// Create creates a new session.
func (r *SessionRepo) Create(ctx context.Context, userID int64, token, userAgent, ip string, expiresAt time.Time) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	r.db.sessions[token] = &domain.Session{
		Token:     token,
		UserID:    userID,
		UserAgent: userAgent,
		IP:        ip,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now().UTC(),
	}
	return nil
}

// GetByToken retrieves a session by token.
func (r *SessionRepo) GetByToken(ctx context.Context, token string) (*domain.Session, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if s, ok := r.db.sessions[token]; ok {
		if time.Now().After(s.ExpiresAt) {
			delete(r.db.sessions, token)
			return nil, nil
		}
		return s, nil
	}
	return nil, nil
}

// Delete deletes a session.
func (r *SessionRepo) Delete(ctx context.Context, token string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	delete(r.db.sessions, token)
	return nil
}

// DeleteExpired deletes all expired sessions.
func (r *SessionRepo) DeleteExpired(ctx context.Context) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	now := time.Now()
	for k, v := range r.db.sessions {
		if now.After(v.ExpiresAt) {
			delete(r.db.sessions, k)
		}
	}
	return nil
}
