package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"shooterstats/core"
)

type statsRow struct {
	UserID             int64   `db:"user_id"`
	BestScore          int64   `db:"best_score"`
	MaxLevel           int     `db:"max_level"`
	GamesPlayed        int64   `db:"games_played"`
	TotalScore         int64   `db:"total_score"`
	TotalPlaytime      int64   `db:"total_playtime"`
	TotalEnemiesKilled int64   `db:"total_enemies_killed"`
	AvgAccuracy        float64 `db:"avg_accuracy"`
	EasyGames          int64   `db:"easy_games"`
	NormalGames        int64   `db:"normal_games"`
	HardGames          int64   `db:"hard_games"`
	NightmareGames     int64   `db:"nightmare_games"`
	CurrentWinStreak   int     `db:"current_win_streak"`
	BestWinStreak      int     `db:"best_win_streak"`
	UpdatedAt          string  `db:"updated_at"`
}

func (r statsRow) toCore() core.UserStats {
	return core.UserStats{
		UserID:             core.UserID(r.UserID),
		BestScore:          r.BestScore,
		MaxLevel:           r.MaxLevel,
		GamesPlayed:        r.GamesPlayed,
		TotalScore:         r.TotalScore,
		TotalPlaytime:      r.TotalPlaytime,
		TotalEnemiesKilled: r.TotalEnemiesKilled,
		AvgAccuracy:        r.AvgAccuracy,
		EasyGames:          r.EasyGames,
		NormalGames:        r.NormalGames,
		HardGames:          r.HardGames,
		NightmareGames:     r.NightmareGames,
		CurrentWinStreak:   r.CurrentWinStreak,
		BestWinStreak:      r.BestWinStreak,
		UpdatedAt:          parseTime(r.UpdatedAt),
	}
}

func statsToRow(s core.UserStats) statsRow {
	return statsRow{
		UserID:             int64(s.UserID),
		BestScore:          s.BestScore,
		MaxLevel:           s.MaxLevel,
		GamesPlayed:        s.GamesPlayed,
		TotalScore:         s.TotalScore,
		TotalPlaytime:      s.TotalPlaytime,
		TotalEnemiesKilled: s.TotalEnemiesKilled,
		AvgAccuracy:        s.AvgAccuracy,
		EasyGames:          s.EasyGames,
		NormalGames:        s.NormalGames,
		HardGames:          s.HardGames,
		NightmareGames:     s.NightmareGames,
		CurrentWinStreak:   s.CurrentWinStreak,
		BestWinStreak:      s.BestWinStreak,
		UpdatedAt:          formatTime(s.UpdatedAt),
	}
}

// RegisterUser upserts the identity record. created_at is written on first
// contact only; last_seen refreshes every time.
func (s *Store) RegisterUser(ctx context.Context, profile core.UserProfile) error {
	now := formatTime(s.now())
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		query := tx.Rebind(`
			INSERT INTO users (user_id, username, first_name, last_name, language_code, is_premium, created_at, last_seen)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (user_id) DO UPDATE SET
				username = excluded.username,
				first_name = excluded.first_name,
				last_name = excluded.last_name,
				language_code = excluded.language_code,
				is_premium = excluded.is_premium,
				last_seen = excluded.last_seen`)
		if _, err := tx.ExecContext(ctx, query,
			profile.UserID, profile.Username, profile.FirstName, profile.LastName,
			profile.LanguageCode, profile.IsPremium, now, now); err != nil {
			return fmt.Errorf("upserting user: %w", err)
		}
		return nil
	})
}

// RecordGame appends the game fact and applies all of its consequences in
// one transaction: aggregate update, daily challenge progress, rank-aware
// achievement unlocks. Either everything commits or nothing does.
func (s *Store) RecordGame(ctx context.Context, result core.GameResult) (core.RecordOutcome, error) {
	if result.PlayedAt.IsZero() {
		result.PlayedAt = s.now().UTC()
	}
	var out core.RecordOutcome
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.touchUserTx(ctx, tx, result); err != nil {
			return err
		}
		if err := s.insertGameTx(ctx, tx, result); err != nil {
			return err
		}

		stats, err := s.loadStatsTx(ctx, tx, result.UserID)
		if err != nil {
			return err
		}
		applied := stats.Apply(result, s.winThreshold)
		if err := s.upsertStatsTx(ctx, tx, stats); err != nil {
			return err
		}
		out = core.RecordOutcome{
			IsNewRecord: applied.IsNewRecord,
			ScoreDelta:  applied.ScoreDelta,
			WinStreak:   applied.WinStreak,
			Stats:       stats,
		}

		completed, err := s.advanceChallengesTx(ctx, tx, result)
		if err != nil {
			return err
		}
		out.CompletedChallenges = completed

		if stats.BestScore > 0 {
			rank, err := rankOfTx(ctx, tx, stats)
			if err != nil {
				return err
			}
			out.Rank = rank
		}

		unlocked, err := s.unlockAchievementsTx(ctx, tx, stats, out.Rank)
		if err != nil {
			return err
		}
		out.Unlocked = unlocked
		return nil
	})
	if err != nil {
		return core.RecordOutcome{}, err
	}
	return out, nil
}

// touchUserTx guarantees the users row exists before the fact insert and
// refreshes last-seen; it never clobbers a registered profile.
func (s *Store) touchUserTx(ctx context.Context, tx *sqlx.Tx, result core.GameResult) error {
	now := formatTime(result.PlayedAt)
	query := tx.Rebind(`
		INSERT INTO users (user_id, created_at, last_seen)
		VALUES (?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET last_seen = excluded.last_seen`)
	if _, err := tx.ExecContext(ctx, query, result.UserID, now, now); err != nil {
		return fmt.Errorf("touching user: %w", err)
	}
	return nil
}

func (s *Store) insertGameTx(ctx context.Context, tx *sqlx.Tx, result core.GameResult) error {
	query := tx.Rebind(`
		INSERT INTO game_results (user_id, score, level, difficulty, duration_seconds, enemies_killed, accuracy_percent, played_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if _, err := tx.ExecContext(ctx, query,
		result.UserID, result.Score, result.Level, string(result.Difficulty),
		result.DurationSeconds, result.EnemiesKilled, result.AccuracyPercent,
		formatTime(result.PlayedAt)); err != nil {
		return fmt.Errorf("inserting game result: %w", err)
	}
	return nil
}

func (s *Store) loadStatsTx(ctx context.Context, tx *sqlx.Tx, id core.UserID) (core.UserStats, error) {
	var row statsRow
	query := tx.Rebind(`SELECT * FROM user_stats WHERE user_id = ?`)
	err := sqlx.GetContext(ctx, tx, &row, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.UserStats{UserID: id}, nil
	}
	if err != nil {
		return core.UserStats{}, fmt.Errorf("loading user stats: %w", err)
	}
	return row.toCore(), nil
}

func (s *Store) upsertStatsTx(ctx context.Context, tx *sqlx.Tx, stats core.UserStats) error {
	query := `
		INSERT INTO user_stats (user_id, best_score, max_level, games_played, total_score, total_playtime,
			total_enemies_killed, avg_accuracy, easy_games, normal_games, hard_games, nightmare_games,
			current_win_streak, best_win_streak, updated_at)
		VALUES (:user_id, :best_score, :max_level, :games_played, :total_score, :total_playtime,
			:total_enemies_killed, :avg_accuracy, :easy_games, :normal_games, :hard_games, :nightmare_games,
			:current_win_streak, :best_win_streak, :updated_at)
		ON CONFLICT (user_id) DO UPDATE SET
			best_score = excluded.best_score,
			max_level = excluded.max_level,
			games_played = excluded.games_played,
			total_score = excluded.total_score,
			total_playtime = excluded.total_playtime,
			total_enemies_killed = excluded.total_enemies_killed,
			avg_accuracy = excluded.avg_accuracy,
			easy_games = excluded.easy_games,
			normal_games = excluded.normal_games,
			hard_games = excluded.hard_games,
			nightmare_games = excluded.nightmare_games,
			current_win_streak = excluded.current_win_streak,
			best_win_streak = excluded.best_win_streak,
			updated_at = excluded.updated_at`
	if _, err := tx.NamedExecContext(ctx, query, statsToRow(stats)); err != nil {
		return fmt.Errorf("upserting user stats: %w", err)
	}
	return nil
}

// advanceChallengesTx applies the game's contribution to every daily
// challenge for the day of the game. The insert-or-accumulate is one atomic
// statement; the preceding read only detects newly-flipped completions for
// notification.
func (s *Store) advanceChallengesTx(ctx context.Context, tx *sqlx.Tx, result core.GameResult) ([]core.ChallengeProgress, error) {
	day := core.DayKey(result.PlayedAt)
	var completed []core.ChallengeProgress

	selectPrior := tx.Rebind(`
		SELECT completed FROM daily_challenge_progress
		WHERE user_id = ? AND challenge_type = ? AND day = ?`)
	upsert := tx.Rebind(`
		INSERT INTO daily_challenge_progress (user_id, challenge_type, day, target_value, current_value, completed)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, challenge_type, day) DO UPDATE SET
			current_value = daily_challenge_progress.current_value + excluded.current_value,
			completed = daily_challenge_progress.completed
				OR (daily_challenge_progress.current_value + excluded.current_value >= daily_challenge_progress.target_value)
		RETURNING current_value, completed`)

	for _, ch := range s.catalog.All() {
		add := ch.Contribution(result)
		if add <= 0 {
			continue
		}

		var wasCompleted bool
		err := tx.QueryRowContext(ctx, selectPrior, result.UserID, ch.Type, day).Scan(&wasCompleted)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("reading challenge %s: %w", ch.Type, err)
		}

		p := core.ChallengeProgress{UserID: result.UserID, Type: ch.Type, Target: ch.Target, Day: day}
		if err := tx.QueryRowContext(ctx, upsert,
			result.UserID, ch.Type, day, ch.Target, add, add >= ch.Target,
		).Scan(&p.Current, &p.Completed); err != nil {
			return nil, fmt.Errorf("advancing challenge %s: %w", ch.Type, err)
		}
		if p.Completed && !wasCompleted {
			completed = append(completed, p)
		}
	}
	return completed, nil
}

// unlockAchievementsTx evaluates the catalog against the just-written stats
// and inserts unlocks idempotently. The primary key makes a retried insert a
// no-op; only rows that actually inserted are reported as new.
func (s *Store) unlockAchievementsTx(ctx context.Context, tx *sqlx.Tx, stats core.UserStats, rank int) ([]core.AchievementDescriptor, error) {
	var keys []string
	query := tx.Rebind(`SELECT achievement_key FROM achievement_unlocks WHERE user_id = ?`)
	if err := sqlx.SelectContext(ctx, tx, &keys, query, stats.UserID); err != nil {
		return nil, fmt.Errorf("loading unlocked achievements: %w", err)
	}
	unlocked := make(map[core.AchievementKey]struct{}, len(keys))
	for _, k := range keys {
		unlocked[core.AchievementKey(k)] = struct{}{}
	}

	insert := tx.Rebind(`
		INSERT INTO achievement_unlocks (user_id, achievement_key, unlocked_at)
		VALUES (?, ?, ?)
		ON CONFLICT (user_id, achievement_key) DO NOTHING`)

	var fresh []core.AchievementDescriptor
	for _, d := range s.registry.Evaluate(stats, rank, unlocked) {
		res, err := tx.ExecContext(ctx, insert, stats.UserID, d.Key, formatTime(s.now()))
		if err != nil {
			return nil, fmt.Errorf("unlocking achievement %s: %w", d.Key, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return nil, fmt.Errorf("unlocking achievement %s: %w", d.Key, err)
		}
		if n > 0 {
			fresh = append(fresh, d)
		}
	}
	return fresh, nil
}

// rankOfTx counts strictly better players plus equal-score players with
// fewer games, matching the leaderboard ordering.
func rankOfTx(ctx context.Context, q sqlx.ExtContext, stats core.UserStats) (int, error) {
	var ahead int
	query := q.Rebind(`
		SELECT COUNT(*) FROM user_stats
		WHERE best_score > ?
		   OR (best_score = ? AND games_played < ?)`)
	err := sqlx.GetContext(ctx, q, &ahead, query, stats.BestScore, stats.BestScore, stats.GamesPlayed)
	if err != nil {
		return 0, fmt.Errorf("computing rank: %w", err)
	}
	return ahead + 1, nil
}
