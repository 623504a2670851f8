// Package memstore is an in-memory Storage implementation with the same
// transactional semantics as the durable store. It backs tests and
// throwaway deployments; a process restart loses everything.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"shooterstats/achievements"
	"shooterstats/challenges"
	"shooterstats/core"
)

type progressKey struct {
	user core.UserID
	typ  core.ChallengeType
	day  string
}

// Store keeps all state behind one mutex; the lock is the transaction
// boundary, so a RecordGame is observed fully applied or not at all.
type Store struct {
	mu           sync.RWMutex
	winThreshold int64
	registry     *achievements.Registry
	catalog      *challenges.Catalog
	now          func() time.Time

	users    map[core.UserID]core.User
	stats    map[core.UserID]core.UserStats
	games    map[core.UserID][]core.GameResult
	unlocks  map[core.UserID]map[core.AchievementKey]time.Time
	progress map[progressKey]core.ChallengeProgress
}

// New builds a store with the given catalogs and win threshold.
func New(winThreshold int64, registry *achievements.Registry, catalog *challenges.Catalog) *Store {
	return &Store{
		winThreshold: winThreshold,
		registry:     registry,
		catalog:      catalog,
		now:          time.Now,
		users:        map[core.UserID]core.User{},
		stats:        map[core.UserID]core.UserStats{},
		games:        map[core.UserID][]core.GameResult{},
		unlocks:      map[core.UserID]map[core.AchievementKey]time.Time{},
		progress:     map[progressKey]core.ChallengeProgress{},
	}
}

func (s *Store) RegisterUser(_ context.Context, profile core.UserProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now().UTC()
	u, ok := s.users[profile.UserID]
	if !ok {
		u = core.User{UserProfile: profile, CreatedAt: now}
	} else {
		u.UserProfile = profile
	}
	u.LastSeen = now
	s.users[profile.UserID] = u
	return nil
}

func (s *Store) RecordGame(_ context.Context, result core.GameResult) (core.RecordOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if result.PlayedAt.IsZero() {
		result.PlayedAt = s.now().UTC()
	}
	s.games[result.UserID] = append(s.games[result.UserID], result)

	stats := s.stats[result.UserID]
	stats.UserID = result.UserID
	applied := stats.Apply(result, s.winThreshold)
	s.stats[result.UserID] = stats

	out := core.RecordOutcome{
		IsNewRecord: applied.IsNewRecord,
		ScoreDelta:  applied.ScoreDelta,
		WinStreak:   applied.WinStreak,
		Stats:       stats,
	}

	day := core.DayKey(result.PlayedAt)
	for _, ch := range s.catalog.All() {
		add := ch.Contribution(result)
		if add <= 0 {
			continue
		}
		key := progressKey{user: result.UserID, typ: ch.Type, day: day}
		p, ok := s.progress[key]
		if !ok {
			p = core.ChallengeProgress{UserID: result.UserID, Type: ch.Type, Target: ch.Target, Day: day}
		}
		wasCompleted := p.Completed
		p.Current += add
		p.Completed = p.Completed || p.Current >= p.Target
		s.progress[key] = p
		if p.Completed && !wasCompleted {
			out.CompletedChallenges = append(out.CompletedChallenges, p)
		}
	}

	out.Rank = s.rankLocked(stats)

	unlocked := s.unlocks[result.UserID]
	if unlocked == nil {
		unlocked = map[core.AchievementKey]time.Time{}
		s.unlocks[result.UserID] = unlocked
	}
	have := make(map[core.AchievementKey]struct{}, len(unlocked))
	for k := range unlocked {
		have[k] = struct{}{}
	}
	for _, d := range s.registry.Evaluate(stats, out.Rank, have) {
		unlocked[d.Key] = s.now().UTC()
		out.Unlocked = append(out.Unlocked, d)
	}

	return out, nil
}

func (s *Store) rankLocked(stats core.UserStats) int {
	if stats.BestScore == 0 {
		return 0
	}
	rank := 1
	for id, other := range s.stats {
		if id == stats.UserID {
			continue
		}
		if other.BestScore > stats.BestScore ||
			(other.BestScore == stats.BestScore && other.GamesPlayed < stats.GamesPlayed) {
			rank++
		}
	}
	return rank
}

func (s *Store) UserStats(_ context.Context, id core.UserID) (core.UserStats, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stats, ok := s.stats[id]
	return stats, ok, nil
}

func (s *Store) UserRank(_ context.Context, id core.UserID) (int, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stats, ok := s.stats[id]
	if !ok || stats.BestScore == 0 {
		return 0, false, nil
	}
	return s.rankLocked(stats), true, nil
}

func (s *Store) TopPlayers(_ context.Context, limit int) ([]core.LeaderboardEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var entries []core.LeaderboardEntry
	for id, stats := range s.stats {
		if stats.BestScore == 0 {
			continue
		}
		u := s.users[id]
		entries = append(entries, core.LeaderboardEntry{
			UserID:      id,
			Name:        u.DisplayName(),
			Score:       stats.BestScore,
			GamesPlayed: stats.GamesPlayed,
			IsPremium:   u.IsPremium,
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.GamesPlayed != b.GamesPlayed {
			return a.GamesPlayed < b.GamesPlayed
		}
		return a.UserID < b.UserID
	})
	if len(entries) > limit {
		entries = entries[:limit]
	}
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries, nil
}

func (s *Store) UserAchievements(_ context.Context, id core.UserID) ([]core.AchievementKey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	unlocked := s.unlocks[id]
	keys := make([]core.AchievementKey, 0, len(unlocked))
	// registry order keeps the listing stable
	for _, k := range s.registry.Keys() {
		if _, ok := unlocked[k]; ok {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

func (s *Store) DailyChallenges(_ context.Context, id core.UserID, day string) ([]core.ChallengeProgress, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []core.ChallengeProgress
	for _, ch := range s.catalog.All() {
		p, ok := s.progress[progressKey{user: id, typ: ch.Type, day: day}]
		if !ok {
			p = core.ChallengeProgress{UserID: id, Type: ch.Type, Target: ch.Target, Day: day}
		}
		out = append(out, p)
	}
	return out, nil
}

func (s *Store) RecentGames(_ context.Context, id core.UserID, limit int) ([]core.GameResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	games := s.games[id]
	out := make([]core.GameResult, 0, limit)
	for i := len(games) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, games[i])
	}
	return out, nil
}

func (s *Store) GlobalStats(_ context.Context) (core.GlobalStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g := core.GlobalStats{TotalUsers: int64(len(s.users))}
	for _, stats := range s.stats {
		g.TotalGames += stats.GamesPlayed
		g.TotalScore += stats.TotalScore
		if stats.BestScore > g.MaxScore {
			g.MaxScore = stats.BestScore
		}
	}
	if g.TotalGames > 0 {
		g.AvgScore = float64(g.TotalScore) / float64(g.TotalGames)
	}
	return g, nil
}

func (s *Store) Close() error { return nil }
