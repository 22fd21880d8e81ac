package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"hydration/internal/domain"
	"hydration/internal/observability"
)

// MaxIntakeML caps a single logged amount.
const MaxIntakeML = 5000

// IntakeService encapsulates the intake use cases of the home and stats screens.
type IntakeService struct {
	repo     domain.IntakeRepository
	cache    domain.TotalCache
	settings domain.SettingsStore
	notifier domain.GoalNotifier
	log      *slog.Logger
	loc      *time.Location
	now      func() time.Time
	newID    func() string
}

// NewIntakeService creates an IntakeService. notifier may be nil.
func NewIntakeService(repo domain.IntakeRepository, cache domain.TotalCache, settings domain.SettingsStore, notifier domain.GoalNotifier, log *slog.Logger, loc *time.Location) *IntakeService {
	if loc == nil {
		loc = time.Local
	}
	return &IntakeService{
		repo:     repo,
		cache:    cache,
		settings: settings,
		notifier: notifier,
		log:      log,
		loc:      loc,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// WithClock replaces the service clock.
func (s *IntakeService) WithClock(now func() time.Time) *IntakeService {
	s.now = now
	return s
}

// Today returns the calendar day of the service clock.
func (s *IntakeService) Today() string {
	return domain.FormatDay(s.now(), s.loc)
}

// RecordResult describes the day after an intake was recorded.
type RecordResult struct {
	Entry       domain.IntakeEntry `json:"entry"`
	Day         string             `json:"day"`
	TotalML     int                `json:"totalMl"`
	GoalML      int                `json:"goalMl"`
	GoalReached bool               `json:"goalReached"`
}

// Record validates and stores an intake for today. The cached total is only
// ever written with the total returned by the remote store.
func (s *IntakeService) Record(ctx context.Context, userID int64, amountML int) (*RecordResult, error) {
	if amountML <= 0 || amountML > MaxIntakeML {
		return nil, ErrInvalidAmount
	}
	now := s.now()
	entry := domain.IntakeEntry{
		ID:        s.newID(),
		UserID:    userID,
		Day:       domain.FormatDay(now, s.loc),
		AmountML:  amountML,
		Timestamp: now.UTC(),
	}

	total, err := s.repo.AddEntry(ctx, entry)
	if err != nil {
		return nil, fmt.Errorf("record intake: %w", err)
	}
	observability.RecordIntake(amountML)
	s.cacheTotal(ctx, userID, entry.Day, total)

	settings := s.loadSettings(ctx, userID)
	reached := total-amountML < settings.DailyGoalML && total >= settings.DailyGoalML
	if reached && settings.NotificationsEnabled {
		s.notifyGoal(ctx, domain.GoalReached{
			UserID:    userID,
			Day:       entry.Day,
			TotalML:   total,
			GoalML:    settings.DailyGoalML,
			ReachedAt: now.UTC(),
		})
	}

	return &RecordResult{
		Entry:       entry,
		Day:         entry.Day,
		TotalML:     total,
		GoalML:      settings.DailyGoalML,
		GoalReached: reached,
	}, nil
}

// DayTotal is the running total of a day as seen by a reader.
type DayTotal struct {
	Day     string `json:"day"`
	TotalML int    `json:"totalMl"`
	GoalML  int    `json:"goalMl"`
	Cached  bool   `json:"cached"`
}

// GetTotal returns the total for day (today when empty). When the remote store
// fails for the current day the cached copy is served instead.
func (s *IntakeService) GetTotal(ctx context.Context, userID int64, day string) (*DayTotal, error) {
	day, err := s.resolveDay(day)
	if err != nil {
		return nil, err
	}
	goal := s.loadSettings(ctx, userID).DailyGoalML

	total, err := s.repo.DayTotal(ctx, userID, day)
	if err == nil {
		if day == s.Today() {
			s.cacheTotal(ctx, userID, day, total)
		}
		return &DayTotal{Day: day, TotalML: total, GoalML: goal}, nil
	}

	if day != s.Today() {
		return nil, fmt.Errorf("day total: %w", err)
	}
	cached, ok, cerr := s.cache.CachedTotal(ctx, userID, day)
	if cerr != nil || !ok {
		s.log.ErrorContext(ctx, "day total unavailable", "userId", userID, "day", day, "err", err, "cacheErr", cerr)
		return nil, fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)
	}
	observability.RecordCacheFallback()
	s.log.WarnContext(ctx, "serving cached day total", "userId", userID, "day", day, "err", err)
	return &DayTotal{Day: day, TotalML: cached, GoalML: goal, Cached: true}, nil
}

// Reset deletes every entry of day (today when empty) and zeroes its total.
func (s *IntakeService) Reset(ctx context.Context, userID int64, day string) (string, error) {
	day, err := s.resolveDay(day)
	if err != nil {
		return "", err
	}
	if err := s.repo.ResetDay(ctx, userID, day); err != nil {
		return day, fmt.Errorf("reset day: %w", err)
	}
	s.cacheTotal(ctx, userID, day, 0)
	return day, nil
}

// UndoResult describes the outcome of UndoLast.
type UndoResult struct {
	Undone  bool                `json:"undone"`
	Entry   *domain.IntakeEntry `json:"entry"`
	Day     string              `json:"day"`
	TotalML int                 `json:"totalMl"`
}

// UndoLast removes the newest entry of day (today when empty).
func (s *IntakeService) UndoLast(ctx context.Context, userID int64, day string) (*UndoResult, error) {
	day, err := s.resolveDay(day)
	if err != nil {
		return nil, err
	}
	entry, total, err := s.repo.DeleteLatestEntry(ctx, userID, day)
	if err != nil {
		return nil, fmt.Errorf("undo last: %w", err)
	}
	s.cacheTotal(ctx, userID, day, total)
	return &UndoResult{Undone: entry != nil, Entry: entry, Day: day, TotalML: total}, nil
}

// StatsPoint is one entry of the intra-day chart.
type StatsPoint struct {
	ID              string    `json:"id"`
	AmountML        int       `json:"amountMl"`
	Timestamp       time.Time `json:"timestamp"`
	Label           string    `json:"label"`
	CumulativeTotal int       `json:"cumulativeTotal"`
}

// DayStats is the intra-day view of a daily record.
type DayStats struct {
	Day         string       `json:"day"`
	TotalML     int          `json:"totalMl"`
	GoalML      int          `json:"goalMl"`
	ProgressPct int          `json:"progressPct"`
	Items       []StatsPoint `json:"items"`
}

// DayStats returns the entries of day (today when empty) oldest first with
// running cumulative totals.
func (s *IntakeService) DayStats(ctx context.Context, userID int64, day string) (*DayStats, error) {
	day, err := s.resolveDay(day)
	if err != nil {
		return nil, err
	}
	entries, err := s.repo.ListEntries(ctx, userID, day)
	if err != nil {
		return nil, fmt.Errorf("day stats: %w", err)
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Timestamp.Before(entries[j].Timestamp)
	})

	items := make([]StatsPoint, 0, len(entries))
	cumulative := 0
	for _, e := range entries {
		cumulative += e.AmountML
		items = append(items, StatsPoint{
			ID:              e.ID,
			AmountML:        e.AmountML,
			Timestamp:       e.Timestamp,
			Label:           e.Timestamp.In(s.loc).Format("15:04"),
			CumulativeTotal: cumulative,
		})
	}

	goal := s.loadSettings(ctx, userID).DailyGoalML
	return &DayStats{
		Day:         day,
		TotalML:     cumulative,
		GoalML:      goal,
		ProgressPct: progress(cumulative, goal),
		Items:       items,
	}, nil
}

func (s *IntakeService) resolveDay(day string) (string, error) {
	if day == "" {
		return s.Today(), nil
	}
	if !domain.ValidDay(day) {
		return "", ErrInvalidDay
	}
	return day, nil
}

func (s *IntakeService) cacheTotal(ctx context.Context, userID int64, day string, total int) {
	if err := s.cache.CacheTotal(ctx, userID, day, total); err != nil {
		s.log.WarnContext(ctx, "cache day total", "userId", userID, "day", day, "err", err)
	}
}

func (s *IntakeService) loadSettings(ctx context.Context, userID int64) domain.Settings {
	return loadSettings(ctx, s.settings, s.log, userID)
}

// GoalNotifyTimeout caps how long recording an intake waits on the notifier.
const GoalNotifyTimeout = 3 * time.Second

func (s *IntakeService) notifyGoal(ctx context.Context, ev domain.GoalReached) {
	if s.notifier == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, GoalNotifyTimeout)
	defer cancel()
	err := s.notifier.NotifyGoalReached(ctx, ev)
	observability.RecordGoalNotification(err)
	if err != nil {
		s.log.WarnContext(ctx, "goal notification failed", "userId", ev.UserID, "day", ev.Day, "err", err)
	}
}

func loadSettings(ctx context.Context, store domain.SettingsStore, log *slog.Logger, userID int64) domain.Settings {
	st, err := store.GetSettings(ctx, userID)
	if err != nil {
		log.WarnContext(ctx, "load settings, using defaults", "userId", userID, "err", err)
		return domain.DefaultSettings()
	}
	if st == nil {
		return domain.DefaultSettings()
	}
	if st.DailyGoalML <= 0 {
		st.DailyGoalML = domain.DefaultDailyGoalML
	}
	return *st
}

func progress(total, goal int) int {
	if goal <= 0 {
		return 0
	}
	return total * 100 / goal
}

// IsValidationError reports whether err is caused by invalid caller input.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrInvalidDay) ||
		errors.Is(err, ErrInvalidGoal) ||
		errors.Is(err, ErrInvalidProfile) ||
		errors.Is(err, ErrInvalidImage)
}
