package domain

import (
	"context"
	"time"
)

// GoalReached is emitted when a day's total first reaches the daily goal.
type GoalReached struct {
	UserID    int64     `json:"userId"`
	Day       string    `json:"day"`
	TotalML   int       `json:"totalMl"`
	GoalML    int       `json:"goalMl"`
	ReachedAt time.Time `json:"reachedAt"`
}

// GoalNotifier delivers goal notifications.
type GoalNotifier interface {
	NotifyGoalReached(ctx context.Context, ev GoalReached) error
}
