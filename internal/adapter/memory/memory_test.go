package memory

import (
	"context"
	"testing"
	"time"

	"hydration/internal/domain"
)

func entry(id string, userID int64, day string, ml int, at time.Time) domain.IntakeEntry {
	return domain.IntakeEntry{ID: id, UserID: userID, Day: day, AmountML: ml, Timestamp: at}
}

func TestIntakeRepository(t *testing.T) {
	db := New()
	ctx := context.Background()
	now := time.Date(2026, 2, 8, 9, 0, 0, 0, time.UTC)

	total, err := db.AddEntry(ctx, entry("a", 1, "2026-02-08", 250, now))
	if err != nil {
		t.Fatalf("AddEntry: %v", err)
	}
	if total != 250 {
		t.Errorf("expected 250, got %d", total)
	}
	total, _ = db.AddEntry(ctx, entry("b", 1, "2026-02-08", 500, now.Add(time.Hour)))
	if total != 750 {
		t.Errorf("expected 750, got %d", total)
	}

	// Other user sees nothing
	if other, _ := db.DayTotal(ctx, 999, "2026-02-08"); other != 0 {
		t.Errorf("expected 0 for other user, got %d", other)
	}

	entries, err := db.ListEntries(ctx, 1, "2026-02-08")
	if err != nil {
		t.Fatalf("ListEntries: %v", err)
	}
	if len(entries) != 2 || entries[0].ID != "a" {
		t.Fatalf("expected 2 entries oldest first, got %+v", entries)
	}

	removed, total, err := db.DeleteLatestEntry(ctx, 1, "2026-02-08")
	if err != nil {
		t.Fatalf("DeleteLatestEntry: %v", err)
	}
	if removed == nil || removed.ID != "b" || total != 250 {
		t.Fatalf("expected b removed leaving 250, got %+v total %d", removed, total)
	}

	if err := db.ResetDay(ctx, 1, "2026-02-08"); err != nil {
		t.Fatalf("ResetDay: %v", err)
	}
	days, _ := db.ListDays(ctx, 1, 10)
	if len(days) != 1 || days[0].TotalML != 0 {
		t.Fatalf("expected reset day kept with zero total, got %+v", days)
	}

	removed, _, _ = db.DeleteLatestEntry(ctx, 1, "2026-02-08")
	if removed != nil {
		t.Error("expected nothing to undo after reset")
	}
}

func TestListDays_NewestFirstAndLimit(t *testing.T) {
	db := New()
	ctx := context.Background()
	now := time.Now()

	for i, day := range []string{"2026-02-05", "2026-02-08", "2026-02-06"} {
		_, _ = db.AddEntry(ctx, entry(day, 1, day, 100*(i+1), now))
	}
	_, _ = db.AddEntry(ctx, entry("x", 2, "2026-02-09", 100, now))

	days, err := db.ListDays(ctx, 1, 2)
	if err != nil {
		t.Fatalf("ListDays: %v", err)
	}
	if len(days) != 2 || days[0].Day != "2026-02-08" || days[1].Day != "2026-02-06" {
		t.Fatalf("unexpected days: %+v", days)
	}
	if days[0].TotalML != 200 {
		t.Errorf("expected 200, got %d", days[0].TotalML)
	}
}

func TestUserRepository(t *testing.T) {
	db := New()
	ctx := context.Background()

	u, err := db.Create(ctx, "bob", "hash")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if u.Username != "bob" {
		t.Errorf("expected bob, got %s", u.Username)
	}

	u2, err := db.GetByUsername(ctx, "bob")
	if err != nil {
		t.Fatalf("GetByUsername: %v", err)
	}
	if u2 == nil || u2.ID != u.ID {
		t.Error("failed to retrieve user")
	}

	if _, err := db.Create(ctx, "bob", "other"); err == nil {
		t.Error("expected duplicate username to fail")
	}

	count, _ := db.Count(ctx)
	if count != 1 {
		t.Errorf("expected 1 user, got %d", count)
	}
}

func TestSessionRepository(t *testing.T) {
	db := New()
	repo := db.NewSessionRepo()
	ctx := context.Background()

	err := repo.Create(ctx, 1, "token123", "ua", "127.0.0.1", time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	sess, err := repo.GetByToken(ctx, "token123")
	if err != nil {
		t.Fatalf("GetByToken: %v", err)
	}
	if sess == nil || sess.UserAgent != "ua" {
		t.Fatalf("expected session with user agent, got %+v", sess)
	}

	_ = repo.Create(ctx, 1, "old", "ua", "ip", time.Now().Add(-time.Minute))
	_ = repo.DeleteExpired(ctx)
	if s, _ := repo.GetByToken(ctx, "old"); s != nil {
		t.Error("expected expired session purged")
	}

	_ = repo.Delete(ctx, "token123")
	sess, _ = repo.GetByToken(ctx, "token123")
	if sess != nil {
		t.Error("expected nil (deleted)")
	}
}
