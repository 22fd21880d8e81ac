package domain

import "context"

// Profile is the user's locally stored profile.
type Profile struct {
	Name     string `json:"name"`
	ImageRef string `json:"imageRef,omitempty"`
}

// Image is a locally cached profile picture.
type Image struct {
	ContentType string `json:"contentType"`
	Data        []byte `json:"data"`
}

// Settings holds local-only preferences.
type Settings struct {
	NotificationsEnabled bool `json:"notificationsEnabled"`
	DailyGoalML          int  `json:"dailyGoalMl"`
}

// DefaultDailyGoalML is the goal used until the user sets one.
const DefaultDailyGoalML = 2000

// DefaultSettings returns the settings of a user who never saved any.
func DefaultSettings() Settings {
	return Settings{DailyGoalML: DefaultDailyGoalML}
}

// ProfileStore persists profiles and their images in the local key-value store.
// Get methods return nil, nil when nothing is stored.
type ProfileStore interface {
	GetProfile(ctx context.Context, userID int64) (*Profile, error)
	SaveProfile(ctx context.Context, userID int64, p Profile) error
	DeleteProfile(ctx context.Context, userID int64) error
	PutImage(ctx context.Context, userID int64, ref string, img Image) error
	GetImage(ctx context.Context, userID int64, ref string) (*Image, error)
	DeleteImage(ctx context.Context, userID int64, ref string) error
}

// SettingsStore persists settings in the local key-value store.
type SettingsStore interface {
	GetSettings(ctx context.Context, userID int64) (*Settings, error)
	SaveSettings(ctx context.Context, userID int64, s Settings) error
}

// TotalCache keeps a same-day fallback copy of the remote running total.
type TotalCache interface {
	CachedTotal(ctx context.Context, userID int64, day string) (int, bool, error)
	CacheTotal(ctx context.Context, userID int64, day string, totalML int) error
}
