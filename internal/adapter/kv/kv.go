// Package kv implements the local key-value store on Badger. It holds the
// profile, settings and the same-day fallback copy of the running total.
package kv

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	badger "github.com/dgraph-io/badger/v4"

	"hydration/internal/domain"
)

// totalTTL bounds how long a cached day total survives; it only has to
// outlive the day it belongs to.
const totalTTL = 48 * time.Hour

// DB wraps a Badger database connection.
type DB struct {
	db *badger.DB
}

var (
	_ domain.ProfileStore  = (*DB)(nil)
	_ domain.SettingsStore = (*DB)(nil)
	_ domain.TotalCache    = (*DB)(nil)
	_ domain.IdentityCache = (*DB)(nil)
)

// Options configures the database connection.
type Options struct {
	// Path is the database directory path. Empty string uses in-memory mode.
	Path string
	// InMemory forces in-memory mode regardless of Path.
	InMemory bool
}

// Open opens or creates a database at the given path.
func Open(opts Options) (*DB, error) {
	var badgerOpts badger.Options
	if opts.InMemory || opts.Path == "" {
		badgerOpts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(opts.Path, 0o755); err != nil {
			return nil, err
		}
		badgerOpts = badger.DefaultOptions(opts.Path)
	}
	badgerOpts = badgerOpts.WithLoggingLevel(badger.ERROR)

	db, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, fmt.Errorf("open kv: %w", err)
	}
	return &DB{db: db}, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

func profileKey(userID int64) string  { return fmt.Sprintf("profile/%d", userID) }
func settingsKey(userID int64) string { return fmt.Sprintf("settings/%d", userID) }
func imageKey(userID int64, ref string) string {
	return fmt.Sprintf("image/%d/%s", userID, ref)
}
func totalKey(userID int64, day string) string {
	return fmt.Sprintf("total/%d/%s", userID, day)
}

// sessionKey hashes the token so raw session secrets never reach disk.
func sessionKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return "session/" + hex.EncodeToString(sum[:])
}
func userNameKey(username string) string { return "user/name/" + username }
func userIDKey(id int64) string          { return fmt.Sprintf("user/id/%d", id) }

// getJSON loads key into v; found is false when the key does not exist.
func (d *DB) getJSON(ctx context.Context, key string, v any) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	err := d.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, v)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("kv get %s: %w", key, err)
	}
	return true, nil
}

func (d *DB) setJSON(ctx context.Context, key string, v any, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return d.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry([]byte(key), data)
		if ttl > 0 {
			e = e.WithTTL(ttl)
		}
		return txn.SetEntry(e)
	})
}

func (d *DB) delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return d.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
}

// --- ProfileStore ---

// GetProfile returns the stored profile or nil.
func (d *DB) GetProfile(ctx context.Context, userID int64) (*domain.Profile, error) {
	var p domain.Profile
	found, err := d.getJSON(ctx, profileKey(userID), &p)
	if err != nil || !found {
		return nil, err
	}
	return &p, nil
}

// SaveProfile stores the profile.
func (d *DB) SaveProfile(ctx context.Context, userID int64, p domain.Profile) error {
	return d.setJSON(ctx, profileKey(userID), p, 0)
}

// DeleteProfile removes the profile.
func (d *DB) DeleteProfile(ctx context.Context, userID int64) error {
	return d.delete(ctx, profileKey(userID))
}

// PutImage stores an image blob under ref.
func (d *DB) PutImage(ctx context.Context, userID int64, ref string, img domain.Image) error {
	return d.setJSON(ctx, imageKey(userID, ref), img, 0)
}

// GetImage returns the image stored under ref or nil.
func (d *DB) GetImage(ctx context.Context, userID int64, ref string) (*domain.Image, error) {
	var img domain.Image
	found, err := d.getJSON(ctx, imageKey(userID, ref), &img)
	if err != nil || !found {
		return nil, err
	}
	return &img, nil
}

// DeleteImage removes the image stored under ref.
func (d *DB) DeleteImage(ctx context.Context, userID int64, ref string) error {
	return d.delete(ctx, imageKey(userID, ref))
}

// --- SettingsStore ---

// GetSettings returns the stored settings or nil.
func (d *DB) GetSettings(ctx context.Context, userID int64) (*domain.Settings, error) {
	var s domain.Settings
	found, err := d.getJSON(ctx, settingsKey(userID), &s)
	if err != nil || !found {
		return nil, err
	}
	return &s, nil
}

// SaveSettings stores the settings.
func (d *DB) SaveSettings(ctx context.Context, userID int64, s domain.Settings) error {
	return d.setJSON(ctx, settingsKey(userID), s, 0)
}

// --- TotalCache ---

// CachedTotal returns the cached total of day.
func (d *DB) CachedTotal(ctx context.Context, userID int64, day string) (int, bool, error) {
	var total int
	found, err := d.getJSON(ctx, totalKey(userID, day), &total)
	return total, found, err
}

// CacheTotal stores the total of day; it expires after totalTTL.
func (d *DB) CacheTotal(ctx context.Context, userID int64, day string, totalML int) error {
	return d.setJSON(ctx, totalKey(userID, day), totalML, totalTTL)
}

// --- IdentityCache ---

// CacheSession stores s without its token; it expires after ttl.
func (d *DB) CacheSession(ctx context.Context, s domain.Session, ttl time.Duration) error {
	key := sessionKey(s.Token)
	s.Token = ""
	return d.setJSON(ctx, key, s, ttl)
}

// CachedSession returns the cached session for token or nil.
func (d *DB) CachedSession(ctx context.Context, token string) (*domain.Session, error) {
	var s domain.Session
	found, err := d.getJSON(ctx, sessionKey(token), &s)
	if err != nil || !found {
		return nil, err
	}
	s.Token = token
	return &s, nil
}

// ForgetSession drops the cached session for token.
func (d *DB) ForgetSession(ctx context.Context, token string) error {
	return d.delete(ctx, sessionKey(token))
}

// CacheUser stores u by name and by ID with the password hash stripped.
func (d *DB) CacheUser(ctx context.Context, u domain.User, ttl time.Duration) error {
	u.PasswordHash = ""
	if err := d.setJSON(ctx, userNameKey(u.Username), u, ttl); err != nil {
		return err
	}
	return d.setJSON(ctx, userIDKey(u.ID), u, ttl)
}

// CachedUser returns the cached user named username or nil.
func (d *DB) CachedUser(ctx context.Context, username string) (*domain.User, error) {
	var u domain.User
	found, err := d.getJSON(ctx, userNameKey(username), &u)
	if err != nil || !found {
		return nil, err
	}
	return &u, nil
}

// CachedUserByID returns the cached user with id or nil.
func (d *DB) CachedUserByID(ctx context.Context, id int64) (*domain.User, error) {
	var u domain.User
	found, err := d.getJSON(ctx, userIDKey(id), &u)
	if err != nil || !found {
		return nil, err
	}
	return &u, nil
}
