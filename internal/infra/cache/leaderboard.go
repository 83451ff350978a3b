// Package cache keeps short lived leaderboard snapshots in freecache.
package cache

import (
	"github.com/coocood/freecache"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/bryanwahyu/aura-impact/internal/domain/points"
)

// freecache rejects segments under 512 KiB
const minSizeBytes = 512 * 1024

type Leaderboard struct {
	cache *freecache.Cache
	ttl   int
	log   zerolog.Logger
}

// NewLeaderboard returns a cache of sizeMB megabytes whose entries live for
// ttlSeconds. A non-positive size or ttl disables caching.
func NewLeaderboard(sizeMB, ttlSeconds int, log zerolog.Logger) points.LeaderboardCache {
	if sizeMB <= 0 || ttlSeconds <= 0 {
		return noop{}
	}
	size := max(sizeMB*1024*1024, minSizeBytes)
	return &Leaderboard{cache: freecache.NewCache(size), ttl: ttlSeconds, log: log}
}

func (l *Leaderboard) Get(key string) ([]points.LeaderboardEntry, bool) {
	raw, err := l.cache.Get([]byte(key))
	if err != nil {
		return nil, false
	}
	var entries []points.LeaderboardEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		l.log.Warn().Err(err).Str("key", key).Msg("drop corrupt leaderboard cache entry")
		l.cache.Del([]byte(key))
		return nil, false
	}
	return entries, true
}

func (l *Leaderboard) Set(key string, entries []points.LeaderboardEntry) {
	raw, err := json.Marshal(entries)
	if err != nil {
		return
	}
	if err := l.cache.Set([]byte(key), raw, l.ttl); err != nil {
		l.log.Debug().Err(err).Str("key", key).Msg("leaderboard cache set")
	}
}

type noop struct{}

func (noop) Get(string) ([]points.LeaderboardEntry, bool) { return nil, false }
func (noop) Set(string, []points.LeaderboardEntry)        {}
