package engine

import (
	"context"
	"log/slog"
	"time"

	"shooterstats/cache"
	"shooterstats/core"
)

// StatsService wires storage, the read cache, and the event bus into the API
// the chat layer consumes. All writes go through storage transactions; the
// service itself only validates, invalidates the cache, and publishes
// notification events after commit.
type StatsService struct {
	storage Storage
	cache   cache.StatsCache
	bus     *EventBus
	log     *slog.Logger
	now     func() time.Time
}

// NewStatsService builds a service. cache may be nil to disable read
// memoization; bus may be nil to disable event publication.
func NewStatsService(storage Storage, statsCache cache.StatsCache, bus *EventBus) *StatsService {
	if storage == nil {
		panic("NewStatsService requires non-nil storage")
	}
	return &StatsService{
		storage: storage,
		cache:   statsCache,
		bus:     bus,
		log:     slog.Default(),
		now:     time.Now,
	}
}

// Subscribe registers a notification handler on the service's bus.
func (s *StatsService) Subscribe(typ core.EventType, handler func(context.Context, core.Event)) func() {
	if s.bus == nil {
		return func() {}
	}
	return s.bus.Subscribe(typ, handler)
}

func (s *StatsService) publish(ctx context.Context, ev core.Event) {
	if s.bus != nil {
		s.bus.Publish(ctx, ev)
	}
}

// RegisterUser upserts the user's identity record and refreshes last-seen.
// Idempotent; safe on every inbound chat contact.
func (s *StatsService) RegisterUser(ctx context.Context, profile core.UserProfile) error {
	if err := profile.Validate(); err != nil {
		return err
	}
	return s.storage.RegisterUser(ctx, profile)
}

// RecordGame records one finished game: the fact, the aggregate, daily
// challenge progress, and achievement unlocks commit in one transaction.
// On success the user's cached stats are invalidated and notification
// events are published.
func (s *StatsService) RecordGame(ctx context.Context, result core.GameResult) (core.RecordOutcome, error) {
	if err := result.Validate(); err != nil {
		return core.RecordOutcome{}, err
	}
	if result.PlayedAt.IsZero() {
		result.PlayedAt = s.now().UTC()
	}

	out, err := s.storage.RecordGame(ctx, result)
	if err != nil {
		return core.RecordOutcome{}, err
	}

	if s.cache != nil {
		s.cache.Invalidate(ctx, result.UserID)
	}

	s.publish(ctx, core.NewGameRecorded(result, out.WinStreak))
	if out.IsNewRecord {
		s.publish(ctx, core.NewHighScore(result.UserID, out.Stats.BestScore, out.ScoreDelta))
	}
	for _, d := range out.Unlocked {
		s.publish(ctx, core.NewAchievementUnlocked(result.UserID, d))
	}
	for _, p := range out.CompletedChallenges {
		s.publish(ctx, core.NewChallengeCompleted(result.UserID, p))
	}

	s.log.DebugContext(ctx, "game recorded",
		"user_id", result.UserID,
		"score", result.Score,
		"new_record", out.IsNewRecord,
		"unlocked", len(out.Unlocked))
	return out, nil
}

// GetUserStats returns the user's aggregate. With useCache the value may be
// up to the cache TTL stale; rank-sensitive callers pass false.
func (s *StatsService) GetUserStats(ctx context.Context, id core.UserID, useCache bool) (core.UserStats, bool, error) {
	if useCache && s.cache != nil {
		if stats, ok := s.cache.Get(ctx, id); ok {
			return stats, true, nil
		}
	}
	stats, ok, err := s.storage.UserStats(ctx, id)
	if err != nil || !ok {
		return core.UserStats{}, false, err
	}
	if s.cache != nil {
		s.cache.Put(ctx, id, stats)
	}
	return stats, true, nil
}

// GetUserRank reads committed state directly, never the cache: rank is shown
// immediately after a write and staleness there is user-visible.
func (s *StatsService) GetUserRank(ctx context.Context, id core.UserID) (int, bool, error) {
	return s.storage.UserRank(ctx, id)
}

// TopPlayers returns the global leaderboard page, best score descending,
// ties broken by fewer games played.
func (s *StatsService) TopPlayers(ctx context.Context, limit int) ([]core.LeaderboardEntry, error) {
	if limit <= 0 {
		limit = 10
	}
	return s.storage.TopPlayers(ctx, limit)
}

// GetUserAchievements returns the user's unlocked achievement keys.
func (s *StatsService) GetUserAchievements(ctx context.Context, id core.UserID) ([]core.AchievementKey, error) {
	return s.storage.UserAchievements(ctx, id)
}

// GetDailyChallenges returns today's progress rows for the user, including
// zero-progress entries for challenges not yet attempted today.
func (s *StatsService) GetDailyChallenges(ctx context.Context, id core.UserID) ([]core.ChallengeProgress, error) {
	return s.storage.DailyChallenges(ctx, id, core.DayKey(s.now()))
}

// RecentGames returns the user's latest games, newest first.
func (s *StatsService) RecentGames(ctx context.Context, id core.UserID, limit int) ([]core.GameResult, error) {
	if limit <= 0 {
		limit = 5
	}
	return s.storage.RecentGames(ctx, id, limit)
}

// GetGlobalStats returns the whole-population summary.
func (s *StatsService) GetGlobalStats(ctx context.Context) (core.GlobalStats, error) {
	return s.storage.GlobalStats(ctx)
}

// Close releases the bus and the underlying storage.
func (s *StatsService) Close() error {
	if s.bus != nil {
		s.bus.Close()
	}
	return s.storage.Close()
}
