package points

import (
	"context"
	"errors"
	"time"
)

// ErrStreakConflict means the streak row changed between read and write.
var ErrStreakConflict = errors.New("login streak was updated concurrently")

// Ledger is the read side of the points ledger. Entries are only written
// together with the record that earned them.
type Ledger interface {
	Total(ctx context.Context, owner string) (int, error)
	TotalSince(ctx context.Context, owner string, since time.Time) (int, error)
	EntriesSince(ctx context.Context, owner string, since time.Time) ([]*LedgerEntry, error)
	// Leaderboard ranks owners by ledger sum; a zero since means all time.
	Leaderboard(ctx context.Context, since time.Time, limit int) ([]LeaderboardEntry, error)
	// Rank is 1 + the number of owners with a strictly higher total.
	Rank(ctx context.Context, owner string) (int, error)
}

// StreakRepository persists login streaks.
type StreakRepository interface {
	// Get returns nil, nil when the owner never logged in.
	Get(ctx context.Context, owner string) (*LoginStreak, error)
	// Save writes next and appends bonus in one transaction. prevDay is the
	// LastLoginDate that was read; a zero prevDay means no row existed.
	// ErrStreakConflict is returned when the stored row no longer matches.
	Save(ctx context.Context, prevDay time.Time, next *LoginStreak, bonus *LedgerEntry) error
}

// LeaderboardCache keeps recently computed leaderboards.
type LeaderboardCache interface {
	Get(key string) ([]LeaderboardEntry, bool)
	Set(key string, entries []LeaderboardEntry)
}
