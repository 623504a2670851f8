package core

import (
	"fmt"
	"strings"
	"time"
)

// UserID is the numeric chat identity of a player.
type UserID int64

// Difficulty enumerates the game's difficulty modes.
type Difficulty string

const (
	DifficultyEasy      Difficulty = "easy"
	DifficultyNormal    Difficulty = "normal"
	DifficultyHard      Difficulty = "hard"
	DifficultyNightmare Difficulty = "nightmare"
)

// Difficulties lists all modes in display order.
var Difficulties = []Difficulty{DifficultyEasy, DifficultyNormal, DifficultyHard, DifficultyNightmare}

// ParseDifficulty normalizes and validates a difficulty string from the
// ingestion layer.
func ParseDifficulty(s string) (Difficulty, error) {
	d := Difficulty(strings.ToLower(strings.TrimSpace(s)))
	if !d.Valid() {
		return "", fmt.Errorf("%w: unknown difficulty %q", ErrValidation, s)
	}
	return d, nil
}

func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyNormal, DifficultyHard, DifficultyNightmare:
		return true
	}
	return false
}

// AchievementKey identifies one achievement in the catalog.
type AchievementKey string

// AchievementDescriptor is the displayable identity of an achievement,
// returned to the chat layer when a new unlock happens.
type AchievementDescriptor struct {
	Key  AchievementKey `json:"key"`
	Name string         `json:"name"`
	Icon string         `json:"icon"`
}

// ChallengeType identifies one daily challenge in the catalog.
type ChallengeType string

const (
	ChallengeDailyScore ChallengeType = "daily_score"
	ChallengeDailyKills ChallengeType = "daily_kills"
	ChallengeDailyGames ChallengeType = "daily_games"
)

// DayKey formats t as the date key used to scope daily challenge rows.
func DayKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// GameResult is one finished play session, an append-only fact.
type GameResult struct {
	UserID          UserID     `db:"user_id" json:"user_id"`
	Score           int64      `db:"score" json:"score"`
	Level           int        `db:"level" json:"level"`
	Difficulty      Difficulty `db:"difficulty" json:"difficulty"`
	DurationSeconds int        `db:"duration_seconds" json:"duration_seconds"`
	EnemiesKilled   int        `db:"enemies_killed" json:"enemies_killed"`
	AccuracyPercent float64    `db:"accuracy_percent" json:"accuracy_percent"`
	PlayedAt        time.Time  `db:"played_at" json:"played_at"`
}

// Validate rejects malformed results before any transaction opens.
func (r GameResult) Validate() error {
	if r.UserID <= 0 {
		return fmt.Errorf("%w: user id must be positive", ErrValidation)
	}
	if r.Score < 0 {
		return fmt.Errorf("%w: score must be non-negative", ErrValidation)
	}
	if r.Level < 1 {
		return fmt.Errorf("%w: level must be at least 1", ErrValidation)
	}
	if !r.Difficulty.Valid() {
		return fmt.Errorf("%w: unknown difficulty %q", ErrValidation, r.Difficulty)
	}
	if r.DurationSeconds < 0 {
		return fmt.Errorf("%w: duration must be non-negative", ErrValidation)
	}
	if r.EnemiesKilled < 0 {
		return fmt.Errorf("%w: enemies killed must be non-negative", ErrValidation)
	}
	if r.AccuracyPercent < 0 || r.AccuracyPercent > 100 {
		return fmt.Errorf("%w: accuracy must be within [0,100], got %v", ErrValidation, r.AccuracyPercent)
	}
	return nil
}

// UserStats is the mutable per-user aggregate derived from the stream of
// GameResult facts.
type UserStats struct {
	UserID             UserID    `db:"user_id" json:"user_id"`
	BestScore          int64     `db:"best_score" json:"best_score"`
	MaxLevel           int       `db:"max_level" json:"max_level"`
	GamesPlayed        int64     `db:"games_played" json:"games_played"`
	TotalScore         int64     `db:"total_score" json:"total_score"`
	TotalPlaytime      int64     `db:"total_playtime" json:"total_playtime"`
	TotalEnemiesKilled int64     `db:"total_enemies_killed" json:"total_enemies_killed"`
	AvgAccuracy        float64   `db:"avg_accuracy" json:"avg_accuracy"`
	EasyGames          int64     `db:"easy_games" json:"easy_games"`
	NormalGames        int64     `db:"normal_games" json:"normal_games"`
	HardGames          int64     `db:"hard_games" json:"hard_games"`
	NightmareGames     int64     `db:"nightmare_games" json:"nightmare_games"`
	CurrentWinStreak   int       `db:"current_win_streak" json:"current_win_streak"`
	BestWinStreak      int       `db:"best_win_streak" json:"best_win_streak"`
	UpdatedAt          time.Time `db:"updated_at" json:"updated_at"`
}

// DifficultyGames returns the per-difficulty game counter.
func (s UserStats) DifficultyGames(d Difficulty) int64 {
	switch d {
	case DifficultyEasy:
		return s.EasyGames
	case DifficultyNormal:
		return s.NormalGames
	case DifficultyHard:
		return s.HardGames
	case DifficultyNightmare:
		return s.NightmareGames
	}
	return 0
}

// ApplyOutcome reports what a single Apply changed, for the caller that just
// finished a game.
type ApplyOutcome struct {
	IsNewRecord bool
	ScoreDelta  int64
	WinStreak   int
}

// Apply folds one game result into the aggregate. The running accuracy mean
// uses the pre-update games count as the denominator base; incrementing first
// would corrupt the mean. A game counts as a win when its score reaches
// winThreshold.
func (s *UserStats) Apply(r GameResult, winThreshold int64) ApplyOutcome {
	var out ApplyOutcome

	prev := float64(s.GamesPlayed)
	s.AvgAccuracy = (s.AvgAccuracy*prev + r.AccuracyPercent) / (prev + 1)
	s.GamesPlayed++

	if r.Score > s.BestScore {
		out.IsNewRecord = true
		out.ScoreDelta = r.Score - s.BestScore
		s.BestScore = r.Score
	}
	if r.Level > s.MaxLevel {
		s.MaxLevel = r.Level
	}
	s.TotalScore += r.Score
	s.TotalPlaytime += int64(r.DurationSeconds)
	s.TotalEnemiesKilled += int64(r.EnemiesKilled)

	switch r.Difficulty {
	case DifficultyEasy:
		s.EasyGames++
	case DifficultyNormal:
		s.NormalGames++
	case DifficultyHard:
		s.HardGames++
	case DifficultyNightmare:
		s.NightmareGames++
	}

	if r.Score >= winThreshold {
		s.CurrentWinStreak++
	} else {
		s.CurrentWinStreak = 0
	}
	if s.CurrentWinStreak > s.BestWinStreak {
		s.BestWinStreak = s.CurrentWinStreak
	}

	s.UpdatedAt = r.PlayedAt
	out.WinStreak = s.CurrentWinStreak
	return out
}

// UserProfile is the identity payload supplied by the chat layer on contact.
type UserProfile struct {
	UserID       UserID `db:"user_id" json:"user_id"`
	Username     string `db:"username" json:"username,omitempty"`
	FirstName    string `db:"first_name" json:"first_name,omitempty"`
	LastName     string `db:"last_name" json:"last_name,omitempty"`
	LanguageCode string `db:"language_code" json:"language_code,omitempty"`
	IsPremium    bool   `db:"is_premium" json:"is_premium"`
}

// Validate rejects malformed profiles before any write.
func (p UserProfile) Validate() error {
	if p.UserID <= 0 {
		return fmt.Errorf("%w: user id must be positive", ErrValidation)
	}
	return nil
}

// DisplayName picks the best available name for rendering, falling back to
// "Anonymous" like the original bot did.
func (p UserProfile) DisplayName() string {
	if p.FirstName != "" {
		return p.FirstName
	}
	if p.Username != "" {
		return p.Username
	}
	return "Anonymous"
}

// User is the persisted identity record.
type User struct {
	UserProfile
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	LastSeen  time.Time `db:"last_seen" json:"last_seen"`
}

// LeaderboardEntry is one row of the rendered global leaderboard.
type LeaderboardEntry struct {
	Rank        int    `json:"rank"`
	UserID      UserID `json:"user_id"`
	Name        string `json:"name"`
	Score       int64  `json:"score"`
	GamesPlayed int64  `json:"games_played"`
	IsPremium   bool   `json:"is_premium"`
}

// ChallengeProgress is one (user, challenge, day) progress row.
type ChallengeProgress struct {
	UserID    UserID        `db:"user_id" json:"user_id"`
	Type      ChallengeType `db:"challenge_type" json:"type"`
	Target    int64         `db:"target_value" json:"target"`
	Current   int64         `db:"current_value" json:"current"`
	Completed bool          `db:"completed" json:"completed"`
	Day       string        `db:"day" json:"day"`
}

// GlobalStats is the whole-population summary.
type GlobalStats struct {
	TotalUsers int64   `json:"total_users"`
	TotalGames int64   `json:"total_games"`
	TotalScore int64   `json:"total_score"`
	MaxScore   int64   `json:"max_score"`
	AvgScore   float64 `json:"avg_score"`
}

// RecordOutcome is everything a single recorded game changed, returned to the
// chat layer for notification rendering.
type RecordOutcome struct {
	IsNewRecord         bool                    `json:"is_new_record"`
	ScoreDelta          int64                   `json:"score_delta"`
	WinStreak           int                     `json:"win_streak"`
	Rank                int                     `json:"rank,omitempty"`
	Stats               UserStats               `json:"stats"`
	Unlocked            []AchievementDescriptor `json:"unlocked,omitempty"`
	CompletedChallenges []ChallengeProgress     `json:"completed_challenges,omitempty"`
}
