package sqlstore_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/bryanwahyu/aura-impact/internal/domain/analysis"
	"github.com/bryanwahyu/aura-impact/internal/infra/db/sqlstore"
)

func TestAnalysisRepository_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	repo := sqlstore.NewAnalysisRepository(s)
	ledger := sqlstore.NewLedgerRepository(s)

	at := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	r, e := newResult("alice", domain.RatingFriendly, 60, at)
	r.ImageURL = "http://minio/aura/alice/x.jpg"
	r.ScoringFallback = true
	require.NoError(t, repo.CreateWithLedger(ctx, r, e))

	got, err := repo.Get(ctx, "alice", r.ID)
	require.NoError(t, err)
	assert.Equal(t, r.ProductName, got.ProductName)
	assert.Equal(t, domain.RatingFriendly, got.Rating)
	assert.Equal(t, 60, got.PointsAwarded)
	assert.Equal(t, r.ImageURL, got.ImageURL)
	assert.True(t, got.ScoringFallback)
	assert.True(t, at.Equal(got.CreatedAt))

	total, err := ledger.Total(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 60, total)

	_, err = repo.Get(ctx, "bob", r.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAnalysisRepository_LedgerFailureRollsBack(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	repo := sqlstore.NewAnalysisRepository(s)

	_, err := s.DB().ExecContext(ctx, `
CREATE TRIGGER fail_ledger BEFORE INSERT ON points_ledger
BEGIN SELECT RAISE(ABORT, 'ledger unavailable'); END;`)
	require.NoError(t, err)

	r, e := newResult("alice", domain.RatingHazardous, 100, time.Now().UTC())
	err = repo.CreateWithLedger(ctx, r, e)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ledger unavailable")

	n, err := repo.Count(ctx, "alice")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestAnalysisRepository_PaginateAndDistribution(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	repo := sqlstore.NewAnalysisRepository(s)

	base := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	ratings := []domain.Rating{domain.RatingFriendly, domain.RatingFriendly, domain.RatingHarmful, domain.RatingHazardous, domain.RatingModerate}
	var ids []domain.ResultID
	for i, rating := range ratings {
		r, e := newResult("alice", rating, 10, base.Add(time.Duration(i)*time.Minute))
		require.NoError(t, repo.CreateWithLedger(ctx, r, e))
		ids = append(ids, r.ID)
	}
	other, e := newResult("bob", domain.RatingHarmful, 10, base)
	require.NoError(t, repo.CreateWithLedger(ctx, other, e))

	page, err := repo.Paginate(ctx, "alice", 1, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 5, page.Total)
	assert.Equal(t, 3, page.TotalPages)
	require.Len(t, page.Data, 2)
	assert.Equal(t, ids[4], page.Data[0].ID)
	assert.Equal(t, ids[3], page.Data[1].ID)

	last, err := repo.Paginate(ctx, "alice", 3, 2)
	require.NoError(t, err)
	require.Len(t, last.Data, 1)
	assert.Equal(t, ids[0], last.Data[0].ID)

	recent, err := repo.Recent(ctx, "alice", 3)
	require.NoError(t, err)
	assert.Len(t, recent, 3)

	dist, err := repo.RatingDistribution(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, map[domain.Rating]int{
		domain.RatingFriendly:  2,
		domain.RatingHarmful:   1,
		domain.RatingHazardous: 1,
		domain.RatingModerate:  1,
	}, dist)
}
