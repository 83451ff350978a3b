package points

import "time"

// SourceType tells why points were awarded.
type SourceType string

const (
	SourceAnalysis    SourceType = "analysis"
	SourceStreakBonus SourceType = "streak_bonus"
)

// StreakBonus is awarded on the first login of each calendar day.
const StreakBonus = 5

// LedgerEntry is one append-only points record. A user's total is the sum of
// their entries.
type LedgerEntry struct {
	ID         string     `json:"id"`
	OwnerID    string     `json:"owner_id"`
	Points     int        `json:"points"`
	SourceType SourceType `json:"source_type"`
	SourceID   *string    `json:"source_id,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// LoginStreak tracks consecutive login days for one owner.
type LoginStreak struct {
	OwnerID           string    `json:"owner_id"`
	StreakCount       int       `json:"streak_count"`
	LastLoginDate     time.Time `json:"last_login_date"`
	TotalStreakPoints int       `json:"total_streak_points"`
}

// LeaderboardEntry is one ranked owner.
type LeaderboardEntry struct {
	Rank        int    `json:"rank"`
	OwnerID     string `json:"owner_id"`
	TotalPoints int    `json:"total_points"`
}

// DailyPoints is the ledger sum of one calendar day.
type DailyPoints struct {
	Date   string `json:"date"`
	Points int    `json:"points"`
}

// Period selects the ledger window of a leaderboard.
type Period string

const (
	PeriodAll    Period = "all"
	PeriodWeekly Period = "weekly"
)
