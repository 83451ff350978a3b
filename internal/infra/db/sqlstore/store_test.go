package sqlstore_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	domain "github.com/bryanwahyu/aura-impact/internal/domain/analysis"
	"github.com/bryanwahyu/aura-impact/internal/domain/points"
	"github.com/bryanwahyu/aura-impact/internal/infra/db/sqlite"
	"github.com/bryanwahyu/aura-impact/internal/infra/db/sqlstore"
)

func newStore(t *testing.T) *sqlstore.Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "aura.db")
	require.NoError(t, sqlite.Migrate(path, 0))

	db, err := sqlite.Connect(context.Background(), path)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sqlstore.New(db, sqlite.Dialect())
}

func newResult(owner string, rating domain.Rating, pts int, at time.Time) (*domain.Result, *points.LedgerEntry) {
	id := domain.ResultID(uuid.NewString())
	src := string(id)
	r := &domain.Result{
		ID:               id,
		OwnerID:          owner,
		ProductName:      "Granola",
		IngredientText:   "oats, honey",
		Rating:           rating,
		PointsAwarded:    pts,
		ExplanationText:  "fine",
		AlternativesText: "muesli",
		TextSource:       domain.TextSourceTyped,
		CreatedAt:        at,
	}
	e := &points.LedgerEntry{
		ID:         uuid.NewString(),
		OwnerID:    owner,
		Points:     pts,
		SourceType: points.SourceAnalysis,
		SourceID:   &src,
		CreatedAt:  at,
	}
	return r, e
}
