package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"shooterstats/core"
)

// Reads run against the latest committed state and never take the write
// lock.

// UserStats returns the aggregate for one user; ok is false when the user
// has never recorded a game.
func (s *Store) UserStats(ctx context.Context, id core.UserID) (core.UserStats, bool, error) {
	var row statsRow
	query := s.db.Rebind(`SELECT * FROM user_stats WHERE user_id = ?`)
	err := s.db.GetContext(ctx, &row, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.UserStats{}, false, nil
	}
	if err != nil {
		return core.UserStats{}, false, fmt.Errorf("loading user stats: %w", err)
	}
	return row.toCore(), true, nil
}

// UserRank computes the 1-based leaderboard position. Users without a
// positive best score are unranked (ok == false).
func (s *Store) UserRank(ctx context.Context, id core.UserID) (int, bool, error) {
	stats, ok, err := s.UserStats(ctx, id)
	if err != nil || !ok {
		return 0, false, err
	}
	if stats.BestScore <= 0 {
		return 0, false, nil
	}
	rank, err := rankOfTx(ctx, s.db, stats)
	if err != nil {
		return 0, false, err
	}
	return rank, true, nil
}

// TopPlayers returns the leaderboard ordered by best score descending, ties
// broken by fewer games played, then by user id for a stable listing.
func (s *Store) TopPlayers(ctx context.Context, limit int) ([]core.LeaderboardEntry, error) {
	if limit <= 0 {
		limit = 10
	}
	var rows []struct {
		UserID      int64  `db:"user_id"`
		Username    string `db:"username"`
		FirstName   string `db:"first_name"`
		IsPremium   bool   `db:"is_premium"`
		BestScore   int64  `db:"best_score"`
		GamesPlayed int64  `db:"games_played"`
	}
	query := s.db.Rebind(`
		SELECT s.user_id, u.username, u.first_name, u.is_premium, s.best_score, s.games_played
		FROM user_stats s
		JOIN users u ON u.user_id = s.user_id
		WHERE s.best_score > 0
		ORDER BY s.best_score DESC, s.games_played ASC, s.user_id ASC
		LIMIT ?`)
	if err := s.db.SelectContext(ctx, &rows, query, limit); err != nil {
		return nil, fmt.Errorf("loading leaderboard: %w", err)
	}

	entries := make([]core.LeaderboardEntry, 0, len(rows))
	for i, r := range rows {
		p := core.UserProfile{Username: r.Username, FirstName: r.FirstName}
		entries = append(entries, core.LeaderboardEntry{
			Rank:        i + 1,
			UserID:      core.UserID(r.UserID),
			Name:        p.DisplayName(),
			Score:       r.BestScore,
			GamesPlayed: r.GamesPlayed,
			IsPremium:   r.IsPremium,
		})
	}
	return entries, nil
}

// UserAchievements lists unlocked keys in unlock order.
func (s *Store) UserAchievements(ctx context.Context, id core.UserID) ([]core.AchievementKey, error) {
	var keys []core.AchievementKey
	query := s.db.Rebind(`
		SELECT achievement_key FROM achievement_unlocks
		WHERE user_id = ?
		ORDER BY unlocked_at, achievement_key`)
	if err := s.db.SelectContext(ctx, &keys, query, id); err != nil {
		return nil, fmt.Errorf("loading achievements: %w", err)
	}
	return keys, nil
}

// DailyChallenges returns one row per catalog challenge for the given day,
// synthesizing zero-progress rows for challenges the user has not touched.
func (s *Store) DailyChallenges(ctx context.Context, id core.UserID, day string) ([]core.ChallengeProgress, error) {
	var rows []core.ChallengeProgress
	query := s.db.Rebind(`
		SELECT user_id, challenge_type, day, target_value, current_value, completed
		FROM daily_challenge_progress
		WHERE user_id = ? AND day = ?`)
	if err := s.db.SelectContext(ctx, &rows, query, id, day); err != nil {
		return nil, fmt.Errorf("loading daily challenges: %w", err)
	}
	byType := make(map[core.ChallengeType]core.ChallengeProgress, len(rows))
	for _, r := range rows {
		byType[r.Type] = r
	}

	out := make([]core.ChallengeProgress, 0, len(s.catalog.All()))
	for _, ch := range s.catalog.All() {
		if p, ok := byType[ch.Type]; ok {
			out = append(out, p)
			continue
		}
		out = append(out, core.ChallengeProgress{
			UserID: id, Type: ch.Type, Target: ch.Target, Day: day,
		})
	}
	return out, nil
}

// RecentGames returns the user's latest results, newest first.
func (s *Store) RecentGames(ctx context.Context, id core.UserID, limit int) ([]core.GameResult, error) {
	if limit <= 0 {
		limit = 5
	}
	var rows []struct {
		UserID          int64   `db:"user_id"`
		Score           int64   `db:"score"`
		Level           int     `db:"level"`
		Difficulty      string  `db:"difficulty"`
		DurationSeconds int     `db:"duration_seconds"`
		EnemiesKilled   int     `db:"enemies_killed"`
		AccuracyPercent float64 `db:"accuracy_percent"`
		PlayedAt        string  `db:"played_at"`
	}
	query := s.db.Rebind(`
		SELECT user_id, score, level, difficulty, duration_seconds, enemies_killed, accuracy_percent, played_at
		FROM game_results
		WHERE user_id = ?
		ORDER BY played_at DESC, id DESC
		LIMIT ?`)
	if err := s.db.SelectContext(ctx, &rows, query, id, limit); err != nil {
		return nil, fmt.Errorf("loading recent games: %w", err)
	}

	games := make([]core.GameResult, 0, len(rows))
	for _, r := range rows {
		games = append(games, core.GameResult{
			UserID:          core.UserID(r.UserID),
			Score:           r.Score,
			Level:           r.Level,
			Difficulty:      core.Difficulty(r.Difficulty),
			DurationSeconds: r.DurationSeconds,
			EnemiesKilled:   r.EnemiesKilled,
			AccuracyPercent: r.AccuracyPercent,
			PlayedAt:        parseTime(r.PlayedAt),
		})
	}
	return games, nil
}

// GlobalStats summarizes the whole population. The average is derived from
// the totals rather than aggregated per-row.
func (s *Store) GlobalStats(ctx context.Context) (core.GlobalStats, error) {
	var row struct {
		TotalUsers int64 `db:"total_users"`
		TotalGames int64 `db:"total_games"`
		TotalScore int64 `db:"total_score"`
		MaxScore   int64 `db:"max_score"`
	}
	query := `
		SELECT
			(SELECT COUNT(*) FROM users) AS total_users,
			COALESCE(SUM(games_played), 0) AS total_games,
			COALESCE(SUM(total_score), 0) AS total_score,
			COALESCE(MAX(best_score), 0) AS max_score
		FROM user_stats`
	if err := s.db.GetContext(ctx, &row, query); err != nil {
		return core.GlobalStats{}, fmt.Errorf("loading global stats: %w", err)
	}

	g := core.GlobalStats{
		TotalUsers: row.TotalUsers,
		TotalGames: row.TotalGames,
		TotalScore: row.TotalScore,
		MaxScore:   row.MaxScore,
	}
	if g.TotalGames > 0 {
		g.AvgScore = float64(g.TotalScore) / float64(g.TotalGames)
	}
	return g, nil
}
