package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"hydration/internal/domain"
)

var _ domain.IntakeRepository = (*DB)(nil)

// AddEntry stores an entry and recomputes its day total in one transaction.
func (d *DB) AddEntry(ctx context.Context, e domain.IntakeEntry) (int, error) {
	var total int
	err := d.withTx(ctx, func(tx *sql.Tx) error {
		now := time.Now().UTC()
		if err := ensureDay(ctx, tx, e.UserID, e.Day, now); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO intake_entries(id, user_id, day, amount_ml, created_at) VALUES($1, $2, $3, $4, $5);",
			e.ID, e.UserID, e.Day, e.AmountML, e.Timestamp.UTC(),
		); err != nil {
			return fmt.Errorf("insert entry: %w", err)
		}
		var err error
		total, err = recomputeTotal(ctx, tx, e.UserID, e.Day, now)
		return err
	})
	return total, err
}

// DeleteLatestEntry removes the newest entry of a day and returns it with the
// recomputed total. A day without entries yields a nil entry.
func (d *DB) DeleteLatestEntry(ctx context.Context, userID int64, day string) (*domain.IntakeEntry, int, error) {
	var (
		removed *domain.IntakeEntry
		total   int
	)
	err := d.withTx(ctx, func(tx *sql.Tx) error {
		if err := lockDay(ctx, tx, userID, day); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil
			}
			return err
		}

		var e domain.IntakeEntry
		err := tx.QueryRowContext(ctx,
			"SELECT id, amount_ml, created_at FROM intake_entries WHERE user_id=$1 AND day=$2 ORDER BY created_at DESC, id DESC LIMIT 1;",
			userID, day,
		).Scan(&e.ID, &e.AmountML, &e.Timestamp)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM intake_entries WHERE id=$1;", e.ID); err != nil {
			return err
		}
		e.UserID = userID
		e.Day = day
		removed = &e

		total, err = recomputeTotal(ctx, tx, userID, day, time.Now().UTC())
		return err
	})
	if err != nil {
		return nil, 0, err
	}
	return removed, total, nil
}

// ResetDay deletes a day's entries. The day row is kept with a zero total.
func (d *DB) ResetDay(ctx context.Context, userID int64, day string) error {
	return d.withTx(ctx, func(tx *sql.Tx) error {
		now := time.Now().UTC()
		if err := ensureDay(ctx, tx, userID, day, now); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM intake_entries WHERE user_id=$1 AND day=$2;", userID, day); err != nil {
			return err
		}
		_, err := recomputeTotal(ctx, tx, userID, day, now)
		return err
	})
}

// DayTotal returns the stored total for a day, 0 when the day has no record.
func (d *DB) DayTotal(ctx context.Context, userID int64, day string) (int, error) {
	var total int
	err := d.sql.QueryRowContext(ctx,
		"SELECT total_ml FROM intake_days WHERE user_id=$1 AND day=$2;", userID, day,
	).Scan(&total)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	return total, err
}

// ListEntries returns a day's entries oldest first.
func (d *DB) ListEntries(ctx context.Context, userID int64, day string) ([]domain.IntakeEntry, error) {
	rows, err := d.sql.QueryContext(ctx,
		"SELECT id, amount_ml, created_at FROM intake_entries WHERE user_id=$1 AND day=$2 ORDER BY created_at ASC, id ASC;",
		userID, day)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck

	out := make([]domain.IntakeEntry, 0)
	for rows.Next() {
		e := domain.IntakeEntry{UserID: userID, Day: day}
		if err := rows.Scan(&e.ID, &e.AmountML, &e.Timestamp); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// ListDays returns day records newest first.
func (d *DB) ListDays(ctx context.Context, userID int64, limit int) ([]domain.DailyRecord, error) {
	rows, err := d.sql.QueryContext(ctx,
		"SELECT day, total_ml, updated_at FROM intake_days WHERE user_id=$1 ORDER BY day DESC LIMIT $2;",
		userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck

	out := make([]domain.DailyRecord, 0, limit)
	for rows.Next() {
		r := domain.DailyRecord{UserID: userID}
		if err := rows.Scan(&r.Day, &r.TotalML, &r.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func ensureDay(ctx context.Context, tx *sql.Tx, userID int64, day string, now time.Time) error {
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO intake_days(user_id, day, total_ml, updated_at) VALUES($1, $2, 0, $3) ON CONFLICT (user_id, day) DO NOTHING;",
		userID, day, now,
	); err != nil {
		return fmt.Errorf("ensure day: %w", err)
	}
	return lockDay(ctx, tx, userID, day)
}

// lockDay serialises writers of the same day.
func lockDay(ctx context.Context, tx *sql.Tx, userID int64, day string) error {
	var one int
	return tx.QueryRowContext(ctx,
		"SELECT 1 FROM intake_days WHERE user_id=$1 AND day=$2 FOR UPDATE;", userID, day,
	).Scan(&one)
}

func recomputeTotal(ctx context.Context, tx *sql.Tx, userID int64, day string, now time.Time) (int, error) {
	var total int
	err := tx.QueryRowContext(ctx,
		`UPDATE intake_days SET
			total_ml = (SELECT COALESCE(SUM(amount_ml), 0) FROM intake_entries WHERE user_id=$1 AND day=$2),
			updated_at = $3
		WHERE user_id=$1 AND day=$2 RETURNING total_ml;`,
		userID, day, now,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("recompute total: %w", err)
	}
	return total, nil
}
