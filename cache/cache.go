// Package cache defines the read-cache contract in front of user stats
// lookups.
package cache

import (
	"context"
	"time"

	"shooterstats/core"
)

// DefaultTTL is how long a cached stats snapshot stays valid.
const DefaultTTL = 30 * time.Second

// StatsCache memoizes per-user stats for a bounded time window. Writers
// invalidate the written user's entry right after commit, so the caller that
// just wrote never reads its own stale snapshot. Other readers may observe a
// stale value for up to the TTL; that window is accepted, not a bug.
//
// Implementations must be safe for concurrent use and must degrade silently:
// a cache fault is a miss, never an error surfaced to the read path.
type StatsCache interface {
	Get(ctx context.Context, id core.UserID) (core.UserStats, bool)
	Put(ctx context.Context, id core.UserID, stats core.UserStats)
	Invalidate(ctx context.Context, id core.UserID)
}
