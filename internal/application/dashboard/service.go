package dashboard

import (
	"context"
	"fmt"

	apppoints "github.com/bryanwahyu/aura-impact/internal/application/points"
	"github.com/bryanwahyu/aura-impact/internal/domain/analysis"
	"github.com/bryanwahyu/aura-impact/internal/domain/points"
)

const (
	recentAnalyses  = 5
	leaderboardSize = 10
)

// Service assembles the per-owner dashboard.
type Service struct {
	Analyses analysis.Repository
	Points   *apppoints.Service
}

// RatingCount is one bar of the rating distribution chart.
type RatingCount struct {
	Rating      analysis.Rating `json:"rating"`
	Count       int             `json:"count"`
	Color       string          `json:"color"`
	Description string          `json:"description"`
}

// Dashboard is everything the home screen shows.
type Dashboard struct {
	TotalPoints        int                       `json:"total_points"`
	TotalAnalyses      int64                     `json:"total_analyses"`
	RecentPoints       int                       `json:"recent_points"`
	Rank               int                       `json:"rank"`
	Streak             points.LoginStreak        `json:"streak"`
	RecentAnalyses     []*analysis.Result        `json:"recent_analyses"`
	RatingDistribution []RatingCount             `json:"rating_distribution"`
	Leaderboard        []points.LeaderboardEntry `json:"leaderboard"`
}

func (s *Service) Get(ctx context.Context, owner string) (*Dashboard, error) {
	summary, err := s.Points.Summary(ctx, owner)
	if err != nil {
		return nil, err
	}
	count, err := s.Analyses.Count(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("count analyses: %w", err)
	}
	recent, err := s.Analyses.Recent(ctx, owner, recentAnalyses)
	if err != nil {
		return nil, fmt.Errorf("recent analyses: %w", err)
	}
	dist, err := s.Analyses.RatingDistribution(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("rating distribution: %w", err)
	}
	board, err := s.Points.Leaderboard(ctx, points.PeriodAll, leaderboardSize)
	if err != nil {
		return nil, err
	}

	// every rating is listed, even with zero analyses
	counts := make([]RatingCount, 0, len(analysis.Ratings))
	for _, r := range analysis.Ratings {
		counts = append(counts, RatingCount{
			Rating:      r,
			Count:       dist[r],
			Color:       analysis.RatingColor(r),
			Description: analysis.RatingDescription(r),
		})
	}
	if recent == nil {
		recent = []*analysis.Result{}
	}

	return &Dashboard{
		TotalPoints:        summary.TotalPoints,
		TotalAnalyses:      count,
		RecentPoints:       summary.RecentPoints,
		Rank:               summary.Rank,
		Streak:             summary.Streak,
		RecentAnalyses:     recent,
		RatingDistribution: counts,
		Leaderboard:        board,
	}, nil
}
