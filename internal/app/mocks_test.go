package app_test

import (
	"context"
	"time"

	"hydration/internal/domain"
)

type mockIntakeRepo struct {
	addFn     func(ctx context.Context, e domain.IntakeEntry) (int, error)
	undoFn    func(ctx context.Context, userID int64, day string) (*domain.IntakeEntry, int, error)
	resetFn   func(ctx context.Context, userID int64, day string) error
	totalFn   func(ctx context.Context, userID int64, day string) (int, error)
	entriesFn func(ctx context.Context, userID int64, day string) ([]domain.IntakeEntry, error)
	daysFn    func(ctx context.Context, userID int64, limit int) ([]domain.DailyRecord, error)
}

func (m *mockIntakeRepo) AddEntry(ctx context.Context, e domain.IntakeEntry) (int, error) {
	if m.addFn != nil {
		return m.addFn(ctx, e)
	}
	return e.AmountML, nil
}

func (m *mockIntakeRepo) DeleteLatestEntry(ctx context.Context, userID int64, day string) (*domain.IntakeEntry, int, error) {
	if m.undoFn != nil {
		return m.undoFn(ctx, userID, day)
	}
	return nil, 0, nil
}

func (m *mockIntakeRepo) ResetDay(ctx context.Context, userID int64, day string) error {
	if m.resetFn != nil {
		return m.resetFn(ctx, userID, day)
	}
	return nil
}

func (m *mockIntakeRepo) DayTotal(ctx context.Context, userID int64, day string) (int, error) {
	if m.totalFn != nil {
		return m.totalFn(ctx, userID, day)
	}
	return 0, nil
}

func (m *mockIntakeRepo) ListEntries(ctx context.Context, userID int64, day string) ([]domain.IntakeEntry, error) {
	if m.entriesFn != nil {
		return m.entriesFn(ctx, userID, day)
	}
	return nil, nil
}

func (m *mockIntakeRepo) ListDays(ctx context.Context, userID int64, limit int) ([]domain.DailyRecord, error) {
	if m.daysFn != nil {
		return m.daysFn(ctx, userID, limit)
	}
	return nil, nil
}

// mapCache is a TotalCache keyed by day.
type mapCache struct {
	totals map[string]int
	err    error
}

func newMapCache() *mapCache { return &mapCache{totals: map[string]int{}} }

func (c *mapCache) CachedTotal(_ context.Context, _ int64, day string) (int, bool, error) {
	if c.err != nil {
		return 0, false, c.err
	}
	v, ok := c.totals[day]
	return v, ok, nil
}

func (c *mapCache) CacheTotal(_ context.Context, _ int64, day string, total int) error {
	if c.err != nil {
		return c.err
	}
	c.totals[day] = total
	return nil
}

type mockSettingsStore struct {
	settings *domain.Settings
	getErr   error
	saved    *domain.Settings
}

func (m *mockSettingsStore) GetSettings(_ context.Context, _ int64) (*domain.Settings, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	if m.settings == nil {
		return nil, nil
	}
	s := *m.settings
	return &s, nil
}

func (m *mockSettingsStore) SaveSettings(_ context.Context, _ int64, s domain.Settings) error {
	m.saved = &s
	m.settings = &s
	return nil
}

type recordingNotifier struct {
	events    []domain.GoalReached
	deadlines []time.Time
	err       error
}

func (n *recordingNotifier) NotifyGoalReached(ctx context.Context, ev domain.GoalReached) error {
	n.events = append(n.events, ev)
	if dl, ok := ctx.Deadline(); ok {
		n.deadlines = append(n.deadlines, dl)
	}
	return n.err
}

// fixedClock returns 2026-02-08 14:30 UTC.
func fixedClock() time.Time {
	return time.Date(2026, 2, 8, 14, 30, 0, 0, time.UTC)
}
