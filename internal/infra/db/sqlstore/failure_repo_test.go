package sqlstore_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/aura-impact/internal/domain/failures"
	"github.com/bryanwahyu/aura-impact/internal/infra/db/sqlstore"
)

func TestFailureRepository(t *testing.T) {
	ctx := context.Background()
	repo := sqlstore.NewFailureRepository(newStore(t))

	at := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Save(ctx, &failures.Failure{
		OwnerID: "alice", Stage: failures.StageOCR, Message: "no text", CreatedAt: at,
	}))
	require.NoError(t, repo.Save(ctx, &failures.Failure{
		OwnerID: "alice", Stage: failures.StageStorage, Message: "db down",
		DetailsJSON: "not json", CreatedAt: at.Add(time.Minute),
	}))

	list, err := repo.ListByOwner(ctx, "alice", 10)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, failures.StageStorage, list[0].Stage)
	assert.JSONEq(t, `{"raw":"not json"}`, list[0].DetailsJSON)
	assert.JSONEq(t, `{}`, list[1].DetailsJSON)

	none, err := repo.ListByOwner(ctx, "bob", 10)
	require.NoError(t, err)
	assert.Empty(t, none)
}
