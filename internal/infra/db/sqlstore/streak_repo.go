package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/bryanwahyu/aura-impact/internal/domain/points"
)

// StreakRepository stores one row per owner. last_login_date is kept as a
// YYYY-MM-DD string so every dialect compares it the same way.
type StreakRepository struct {
	*Store
}

func NewStreakRepository(s *Store) *StreakRepository { return &StreakRepository{Store: s} }

func (r *StreakRepository) Get(ctx context.Context, owner string) (*points.LoginStreak, error) {
	var s points.LoginStreak
	var last string
	err := r.db.QueryRowContext(ctx, r.d.Rebind(`
SELECT owner_id, streak_count, last_login_date, total_streak_points
FROM login_streaks WHERE owner_id=?`), owner).Scan(&s.OwnerID, &s.StreakCount, &last, &s.TotalStreakPoints)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if s.LastLoginDate, err = points.ParseDay(last); err != nil {
		return nil, fmt.Errorf("parse last_login_date %q: %w", last, err)
	}
	return &s, nil
}

// Save updates the streak only if last_login_date still equals prevDay and
// appends the bonus entry in the same transaction.
func (r *StreakRepository) Save(ctx context.Context, prevDay time.Time, next *points.LoginStreak, bonus *points.LedgerEntry) error {
	now := time.Now().UTC()
	return r.withTx(ctx, func(tx *sql.Tx) error {
		if prevDay.IsZero() {
			_, err := r.exec(ctx, tx, `
INSERT INTO login_streaks (owner_id, streak_count, last_login_date, total_streak_points, updated_at)
VALUES (?,?,?,?,?)`,
				next.OwnerID, next.StreakCount, points.FormatDay(next.LastLoginDate), next.TotalStreakPoints, now)
			if r.d.uniqueViolation(err) {
				return points.ErrStreakConflict
			}
			if err != nil {
				return fmt.Errorf("insert streak: %w", err)
			}
		} else {
			res, err := r.exec(ctx, tx, `
UPDATE login_streaks
SET streak_count=?, last_login_date=?, total_streak_points=?, updated_at=?
WHERE owner_id=? AND last_login_date=?`,
				next.StreakCount, points.FormatDay(next.LastLoginDate), next.TotalStreakPoints, now,
				next.OwnerID, points.FormatDay(prevDay))
			if err != nil {
				return fmt.Errorf("update streak: %w", err)
			}
			n, err := res.RowsAffected()
			if err != nil {
				return err
			}
			if n == 0 {
				return points.ErrStreakConflict
			}
		}
		if bonus == nil {
			return nil
		}
		return insertLedgerEntry(ctx, r.Store, tx, bonus)
	})
}
