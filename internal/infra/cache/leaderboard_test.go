package cache

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/aura-impact/internal/domain/points"
)

func TestLeaderboard_SetGet(t *testing.T) {
	c := NewLeaderboard(1, 60, zerolog.Nop())
	_, ok := c.Get("leaderboard:all")
	assert.False(t, ok)

	want := []points.LeaderboardEntry{{Rank: 1, OwnerID: "u1", TotalPoints: 120}, {Rank: 2, OwnerID: "u2", TotalPoints: 80}}
	c.Set("leaderboard:all", want)
	got, ok := c.Get("leaderboard:all")
	require.True(t, ok)
	assert.Equal(t, want, got)
}

func TestLeaderboard_Disabled(t *testing.T) {
	c := NewLeaderboard(0, 60, zerolog.Nop())
	c.Set("k", []points.LeaderboardEntry{{Rank: 1}})
	_, ok := c.Get("k")
	assert.False(t, ok)
}

func TestLeaderboard_CorruptEntryDropped(t *testing.T) {
	c := NewLeaderboard(1, 60, zerolog.Nop()).(*Leaderboard)
	require.NoError(t, c.cache.Set([]byte("k"), []byte("{not json"), 60))
	_, ok := c.Get("k")
	assert.False(t, ok)
	_, err := c.cache.Get([]byte("k"))
	assert.Error(t, err)
}
