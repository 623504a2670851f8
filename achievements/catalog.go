package achievements

import "shooterstats/core"

func minGames(stats core.UserStats, n int64) bool { return stats.GamesPlayed >= n }

func bestScoreAtLeast(n int64) Predicate {
	return func(stats core.UserStats, _ int) bool { return stats.BestScore >= n }
}

func streakAtLeast(n int) Predicate {
	return func(stats core.UserStats, _ int) bool { return stats.BestWinStreak >= n }
}

// Default returns the stock catalog. The chat layer may supply its own
// registry instead; the store only cares about key uniqueness and stable
// order.
func Default() *Registry {
	return MustNewRegistry(
		Rule{
			AchievementDescriptor: core.AchievementDescriptor{Key: "first_flight", Name: "First Flight", Icon: "🚀"},
			Unlocks:               func(s core.UserStats, _ int) bool { return minGames(s, 1) },
		},
		Rule{
			AchievementDescriptor: core.AchievementDescriptor{Key: "score_1k", Name: "Rookie Ace", Icon: "⭐"},
			Unlocks:               bestScoreAtLeast(1_000),
		},
		Rule{
			AchievementDescriptor: core.AchievementDescriptor{Key: "score_5k", Name: "Star Commander", Icon: "🌟"},
			Unlocks:               bestScoreAtLeast(5_000),
		},
		Rule{
			AchievementDescriptor: core.AchievementDescriptor{Key: "score_25k", Name: "Galactic Legend", Icon: "💫"},
			Unlocks:               bestScoreAtLeast(25_000),
		},
		Rule{
			AchievementDescriptor: core.AchievementDescriptor{Key: "veteran", Name: "Veteran Pilot", Icon: "🎖️"},
			Unlocks:               func(s core.UserStats, _ int) bool { return minGames(s, 50) },
		},
		Rule{
			AchievementDescriptor: core.AchievementDescriptor{Key: "sharpshooter", Name: "Sharpshooter", Icon: "🎯"},
			Unlocks: func(s core.UserStats, _ int) bool {
				return s.GamesPlayed >= 10 && s.AvgAccuracy >= 90
			},
		},
		Rule{
			AchievementDescriptor: core.AchievementDescriptor{Key: "deep_space", Name: "Deep Space Explorer", Icon: "🛸"},
			Unlocks:               func(s core.UserStats, _ int) bool { return s.MaxLevel >= 10 },
		},
		Rule{
			AchievementDescriptor: core.AchievementDescriptor{Key: "nightmare_initiate", Name: "Into the Nightmare", Icon: "💀"},
			Unlocks:               func(s core.UserStats, _ int) bool { return s.NightmareGames >= 1 },
		},
		Rule{
			AchievementDescriptor: core.AchievementDescriptor{Key: "exterminator", Name: "Exterminator", Icon: "👾"},
			Unlocks:               func(s core.UserStats, _ int) bool { return s.TotalEnemiesKilled >= 1_000 },
		},
		Rule{
			AchievementDescriptor: core.AchievementDescriptor{Key: "streak_5", Name: "On a Roll", Icon: "🔥"},
			Unlocks:               streakAtLeast(5),
		},
		Rule{
			AchievementDescriptor: core.AchievementDescriptor{Key: "streak_10", Name: "Unstoppable", Icon: "⚡"},
			Unlocks:               streakAtLeast(10),
		},
		Rule{
			AchievementDescriptor: core.AchievementDescriptor{Key: "podium", Name: "Podium Finish", Icon: "🏅"},
			Unlocks: func(s core.UserStats, rank int) bool {
				return s.BestScore > 0 && rank >= 1 && rank <= 3
			},
		},
		Rule{
			AchievementDescriptor: core.AchievementDescriptor{Key: "champion", Name: "Galaxy Champion", Icon: "🏆"},
			Unlocks: func(s core.UserStats, rank int) bool {
				return s.BestScore > 0 && rank == 1
			},
		},
	)
}
