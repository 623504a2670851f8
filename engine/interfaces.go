package engine

import (
	"context"

	"shooterstats/core"
)

// Storage abstracts the durable store. RecordGame is transactional: the game
// fact, the aggregate update, daily challenge progress, and achievement
// unlocks all commit together or not at all.
type Storage interface {
	RegisterUser(ctx context.Context, profile core.UserProfile) error
	RecordGame(ctx context.Context, result core.GameResult) (core.RecordOutcome, error)

	// UserStats and UserRank report absence with ok == false, not an error.
	UserStats(ctx context.Context, id core.UserID) (core.UserStats, bool, error)
	UserRank(ctx context.Context, id core.UserID) (int, bool, error)

	TopPlayers(ctx context.Context, limit int) ([]core.LeaderboardEntry, error)
	UserAchievements(ctx context.Context, id core.UserID) ([]core.AchievementKey, error)
	DailyChallenges(ctx context.Context, id core.UserID, day string) ([]core.ChallengeProgress, error)
	RecentGames(ctx context.Context, id core.UserID, limit int) ([]core.GameResult, error)
	GlobalStats(ctx context.Context) (core.GlobalStats, error)

	Close() error
}
