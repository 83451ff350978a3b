package sqlstore

import (
	"context"
	"database/sql"
	"time"

	"github.com/bryanwahyu/aura-impact/internal/domain/points"
)

// LedgerRepository reads the append-only points ledger. Entries are written
// by the analysis and streak repositories inside their transactions.
type LedgerRepository struct {
	*Store
}

func NewLedgerRepository(s *Store) *LedgerRepository { return &LedgerRepository{Store: s} }

func (r *LedgerRepository) Total(ctx context.Context, owner string) (int, error) {
	var total int
	err := r.db.QueryRowContext(ctx, r.d.Rebind(`
SELECT COALESCE(SUM(points), 0) FROM points_ledger WHERE owner_id=?`), owner).Scan(&total)
	return total, err
}

func (r *LedgerRepository) TotalSince(ctx context.Context, owner string, since time.Time) (int, error) {
	var total int
	err := r.db.QueryRowContext(ctx, r.d.Rebind(`
SELECT COALESCE(SUM(points), 0) FROM points_ledger WHERE owner_id=? AND created_at >= ?`),
		owner, since.UTC()).Scan(&total)
	return total, err
}

func (r *LedgerRepository) EntriesSince(ctx context.Context, owner string, since time.Time) ([]*points.LedgerEntry, error) {
	rows, err := r.db.QueryContext(ctx, r.d.Rebind(`
SELECT id, owner_id, points, source_type, source_id, created_at
FROM points_ledger
WHERE owner_id=? AND created_at >= ?
ORDER BY created_at ASC, id ASC`), owner, since.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*points.LedgerEntry
	for rows.Next() {
		var e points.LedgerEntry
		var source string
		var sourceID sql.NullString
		if err := rows.Scan(&e.ID, &e.OwnerID, &e.Points, &source, &sourceID, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.SourceType = points.SourceType(source)
		if sourceID.Valid {
			id := sourceID.String
			e.SourceID = &id
		}
		e.CreatedAt = e.CreatedAt.UTC()
		out = append(out, &e)
	}
	return out, rows.Err()
}

func (r *LedgerRepository) Leaderboard(ctx context.Context, since time.Time, limit int) ([]points.LeaderboardEntry, error) {
	if limit <= 0 {
		limit = 20
	}
	q := `SELECT owner_id, SUM(points) AS total FROM points_ledger`
	args := []any{}
	if !since.IsZero() {
		q += ` WHERE created_at >= ?`
		args = append(args, since.UTC())
	}
	q += ` GROUP BY owner_id ORDER BY total DESC, owner_id ASC LIMIT ?`
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, r.d.Rebind(q), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []points.LeaderboardEntry{}
	for rows.Next() {
		var e points.LeaderboardEntry
		if err := rows.Scan(&e.OwnerID, &e.TotalPoints); err != nil {
			return nil, err
		}
		e.Rank = len(out) + 1
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *LedgerRepository) Rank(ctx context.Context, owner string) (int, error) {
	mine, err := r.Total(ctx, owner)
	if err != nil {
		return 0, err
	}
	var higher int
	err = r.db.QueryRowContext(ctx, r.d.Rebind(`
SELECT COUNT(*) FROM (
  SELECT owner_id FROM points_ledger GROUP BY owner_id HAVING SUM(points) > ?
) ranked`), mine).Scan(&higher)
	if err != nil {
		return 0, err
	}
	return higher + 1, nil
}
