package points

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/bryanwahyu/aura-impact/internal/application"
	domain "github.com/bryanwahyu/aura-impact/internal/domain/points"
)

const (
	defaultLeaderboardSize = 20
	maxLeaderboardSize     = 100
	recentWindowDays       = 30
	maxDailyWindowDays     = 365
)

// Service handles point totals, login streaks and leaderboards.
type Service struct {
	Ledger  domain.Ledger
	Streaks domain.StreakRepository
	Cache   domain.LeaderboardCache // optional
	Clock   application.Clock
	Log     zerolog.Logger
}

// CheckIn is the outcome of a recorded login.
type CheckIn struct {
	Streak  domain.LoginStreak `json:"streak"`
	Awarded int                `json:"awarded"`
}

// RecordLogin advances the owner's streak on the first login of a calendar
// day and appends the streak bonus to the ledger. Later logins on the same
// day return the stored streak unchanged.
func (s *Service) RecordLogin(ctx context.Context, owner string) (*CheckIn, error) {
	if owner == "" {
		return nil, errors.New("owner is required")
	}
	// one retry covers a concurrent first login on another instance
	for attempt := 0; ; attempt++ {
		res, err := s.recordLogin(ctx, owner)
		if errors.Is(err, domain.ErrStreakConflict) && attempt == 0 {
			s.Log.Debug().Str("owner", owner).Msg("streak conflict, retrying")
			continue
		}
		return res, err
	}
}

func (s *Service) recordLogin(ctx context.Context, owner string) (*CheckIn, error) {
	current, err := s.Streaks.Get(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("load streak: %w", err)
	}
	prev := domain.LoginStreak{OwnerID: owner}
	if current != nil {
		prev = *current
	}

	now := s.Clock.Now().UTC()
	next, changed := prev.Advance(now, domain.StreakBonus)
	if !changed {
		return &CheckIn{Streak: prev}, nil
	}

	bonus := &domain.LedgerEntry{
		ID:         uuid.NewString(),
		OwnerID:    owner,
		Points:     domain.StreakBonus,
		SourceType: domain.SourceStreakBonus,
		CreatedAt:  now,
	}
	if err := s.Streaks.Save(ctx, prev.LastLoginDate, &next, bonus); err != nil {
		if errors.Is(err, domain.ErrStreakConflict) {
			return nil, err
		}
		return nil, fmt.Errorf("save streak: %w", err)
	}
	s.Log.Info().Str("owner", owner).Int("streak", next.StreakCount).Msg("login streak updated")
	return &CheckIn{Streak: next, Awarded: domain.StreakBonus}, nil
}

// Summary is an owner's points overview.
type Summary struct {
	TotalPoints  int                `json:"total_points"`
	RecentPoints int                `json:"recent_points"`
	Rank         int                `json:"rank"`
	Streak       domain.LoginStreak `json:"streak"`
}

// Summary returns totals derived from the ledger.
func (s *Service) Summary(ctx context.Context, owner string) (*Summary, error) {
	total, err := s.Ledger.Total(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("total points: %w", err)
	}
	since := domain.Day(s.Clock.Now()).AddDate(0, 0, -recentWindowDays)
	recent, err := s.Ledger.TotalSince(ctx, owner, since)
	if err != nil {
		return nil, fmt.Errorf("recent points: %w", err)
	}
	rank, err := s.Ledger.Rank(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("rank: %w", err)
	}
	out := &Summary{TotalPoints: total, RecentPoints: recent, Rank: rank, Streak: domain.LoginStreak{OwnerID: owner}}
	streak, err := s.Streaks.Get(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("load streak: %w", err)
	}
	if streak != nil {
		out.Streak = *streak
	}
	return out, nil
}

// Leaderboard ranks owners by ledger sum for the period.
func (s *Service) Leaderboard(ctx context.Context, period domain.Period, limit int) ([]domain.LeaderboardEntry, error) {
	if limit <= 0 {
		limit = defaultLeaderboardSize
	}
	if limit > maxLeaderboardSize {
		limit = maxLeaderboardSize
	}
	var since time.Time
	switch period {
	case "", domain.PeriodAll:
		period = domain.PeriodAll
	case domain.PeriodWeekly:
		since = domain.StartOfWeek(s.Clock.Now())
	default:
		return nil, fmt.Errorf("unknown leaderboard period %q", period)
	}

	key := fmt.Sprintf("leaderboard:%s:%s:%d", period, domain.FormatDay(since), limit)
	if s.Cache != nil {
		if entries, ok := s.Cache.Get(key); ok {
			return entries, nil
		}
	}
	entries, err := s.Ledger.Leaderboard(ctx, since, limit)
	if err != nil {
		return nil, fmt.Errorf("leaderboard: %w", err)
	}
	if entries == nil {
		entries = []domain.LeaderboardEntry{}
	}
	if s.Cache != nil {
		s.Cache.Set(key, entries)
	}
	return entries, nil
}

// DailyPoints returns one entry per day for the last days days, oldest
// first, including days without points.
func (s *Service) DailyPoints(ctx context.Context, owner string, days int) ([]domain.DailyPoints, error) {
	if days <= 0 {
		days = recentWindowDays
	}
	if days > maxDailyWindowDays {
		days = maxDailyWindowDays
	}
	today := domain.Day(s.Clock.Now())
	start := today.AddDate(0, 0, -(days - 1))
	entries, err := s.Ledger.EntriesSince(ctx, owner, start)
	if err != nil {
		return nil, fmt.Errorf("ledger entries: %w", err)
	}
	sums := make(map[string]int, days)
	for _, e := range entries {
		sums[domain.FormatDay(e.CreatedAt)] += e.Points
	}
	out := make([]domain.DailyPoints, 0, days)
	for d := start; !d.After(today); d = d.AddDate(0, 0, 1) {
		key := domain.FormatDay(d)
		out = append(out, domain.DailyPoints{Date: key, Points: sums[key]})
	}
	return out, nil
}
