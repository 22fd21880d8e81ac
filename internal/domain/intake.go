package domain

import (
	"context"
	"time"
)

// IntakeEntry is a single logged amount of water.
type IntakeEntry struct {
	ID        string    `json:"id"`
	UserID    int64     `json:"userId"`
	Day       string    `json:"day"`
	AmountML  int       `json:"amountMl"`
	Timestamp time.Time `json:"timestamp"`
}

// DailyRecord is the per-day aggregate of a user's intake. TotalML always
// equals the sum of the entries' amounts once read back from the repository.
type DailyRecord struct {
	UserID    int64         `json:"userId"`
	Day       string        `json:"day"`
	TotalML   int           `json:"totalMl"`
	Entries   []IntakeEntry `json:"entries,omitempty"`
	UpdatedAt time.Time     `json:"updatedAt"`
}

// EntriesTotal sums the amounts of the record's entries.
func (r DailyRecord) EntriesTotal() int {
	total := 0
	for _, e := range r.Entries {
		total += e.AmountML
	}
	return total
}

// IntakeRepository is the port for the remote daily record store.
// Every mutation recomputes the day total from the stored entries and returns it.
type IntakeRepository interface {
	AddEntry(ctx context.Context, entry IntakeEntry) (int, error)
	DeleteLatestEntry(ctx context.Context, userID int64, day string) (*IntakeEntry, int, error)
	ResetDay(ctx context.Context, userID int64, day string) error
	DayTotal(ctx context.Context, userID int64, day string) (int, error)
	ListEntries(ctx context.Context, userID int64, day string) ([]IntakeEntry, error)
	ListDays(ctx context.Context, userID int64, limit int) ([]DailyRecord, error)
}
