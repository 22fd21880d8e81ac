package app

import (
	"context"
	"log/slog"

	"hydration/internal/domain"
)

const (
	// MinGoalML is the smallest accepted daily goal.
	MinGoalML = 100
	// MaxGoalML is the largest accepted daily goal.
	MaxGoalML = 20000
)

// SettingsService manages local-only preferences.
type SettingsService struct {
	store domain.SettingsStore
	log   *slog.Logger
}

// NewSettingsService creates a SettingsService.
func NewSettingsService(store domain.SettingsStore, log *slog.Logger) *SettingsService {
	return &SettingsService{store: store, log: log}
}

// SettingsPatch carries the fields to change; nil fields are left untouched.
type SettingsPatch struct {
	NotificationsEnabled *bool `json:"notificationsEnabled"`
	DailyGoalML          *int  `json:"dailyGoalMl"`
}

// Get returns the user's settings or the defaults.
func (s *SettingsService) Get(ctx context.Context, userID int64) (domain.Settings, error) {
	st, err := s.store.GetSettings(ctx, userID)
	if err != nil {
		return domain.Settings{}, err
	}
	if st == nil {
		return domain.DefaultSettings(), nil
	}
	return *st, nil
}

// Update applies patch and returns the stored result.
func (s *SettingsService) Update(ctx context.Context, userID int64, patch SettingsPatch) (domain.Settings, error) {
	if patch.DailyGoalML != nil && (*patch.DailyGoalML < MinGoalML || *patch.DailyGoalML > MaxGoalML) {
		return domain.Settings{}, ErrInvalidGoal
	}
	st, err := s.Get(ctx, userID)
	if err != nil {
		return domain.Settings{}, err
	}
	if patch.NotificationsEnabled != nil {
		st.NotificationsEnabled = *patch.NotificationsEnabled
	}
	if patch.DailyGoalML != nil {
		st.DailyGoalML = *patch.DailyGoalML
	}
	if err := s.store.SaveSettings(ctx, userID, st); err != nil {
		return domain.Settings{}, err
	}
	s.log.InfoContext(ctx, "settings updated", "userId", userID, "notifications", st.NotificationsEnabled, "goalMl", st.DailyGoalML)
	return st, nil
}
