package app

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"hydration/internal/domain"
)

const (
	defaultHistoryLimit = 30
	maxHistoryDays      = 366
)

// HistoryService encapsulates the history screen use cases.
type HistoryService struct {
	repo     domain.IntakeRepository
	settings domain.SettingsStore
	log      *slog.Logger
	loc      *time.Location
	now      func() time.Time
}

// NewHistoryService creates a HistoryService backed by the given stores.
func NewHistoryService(repo domain.IntakeRepository, settings domain.SettingsStore, log *slog.Logger, loc *time.Location) *HistoryService {
	if loc == nil {
		loc = time.Local
	}
	return &HistoryService{repo: repo, settings: settings, log: log, loc: loc, now: time.Now}
}

// WithClock replaces the service clock.
func (s *HistoryService) WithClock(now func() time.Time) *HistoryService {
	s.now = now
	return s
}

// HistoryPoint is one day of intake history.
type HistoryPoint struct {
	Day     string `json:"day"`
	Label   string `json:"label"`
	TotalML int    `json:"totalMl"`
	GoalMet bool   `json:"goalMet"`
}

// List returns stored daily records newest first, at most limit of them.
func (s *HistoryService) List(ctx context.Context, userID int64, limit int) ([]HistoryPoint, error) {
	limit = clampDays(limit)
	records, err := s.repo.ListDays(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	sort.SliceStable(records, func(i, j int) bool { return records[i].Day > records[j].Day })
	if len(records) > limit {
		records = records[:limit]
	}

	goal := loadSettings(ctx, s.settings, s.log, userID).DailyGoalML
	points := make([]HistoryPoint, 0, len(records))
	for _, r := range records {
		points = append(points, HistoryPoint{
			Day:     r.Day,
			Label:   chartLabel(r.Day),
			TotalML: r.TotalML,
			GoalMet: r.TotalML >= goal,
		})
	}
	return points, nil
}

// Daily returns one point per calendar day for the last days days, oldest
// first, with zero totals for days that have no record.
func (s *HistoryService) Daily(ctx context.Context, userID int64, days int) ([]HistoryPoint, error) {
	days = clampDays(days)
	records, err := s.repo.ListDays(ctx, userID, days)
	if err != nil {
		return nil, fmt.Errorf("daily history: %w", err)
	}
	totals := make(map[string]int, len(records))
	for _, r := range records {
		totals[r.Day] = r.TotalML
	}

	goal := loadSettings(ctx, s.settings, s.log, userID).DailyGoalML
	today := s.now().In(s.loc)
	points := make([]HistoryPoint, 0, days)
	for i := days - 1; i >= 0; i-- {
		day := today.AddDate(0, 0, -i).Format(domain.DayLayout)
		total := totals[day]
		points = append(points, HistoryPoint{
			Day:     day,
			Label:   chartLabel(day),
			TotalML: total,
			GoalMet: total >= goal,
		})
	}
	return points, nil
}

func clampDays(n int) int {
	if n <= 0 {
		return defaultHistoryLimit
	}
	if n > maxHistoryDays {
		return maxHistoryDays
	}
	return n
}

func chartLabel(day string) string {
	t, err := time.Parse(domain.DayLayout, day)
	if err != nil {
		return day
	}
	return t.Format("01-02")
}
