package analytics

import (
	"testing"
	"time"

	"shooterstats/core"
)

func day(t time.Time) string { return core.DayKey(t) }

func TestMetricsAggregation(t *testing.T) {
	m := NewMetrics()
	now := time.Date(2026, 8, 27, 10, 0, 0, 0, time.UTC)

	m.OnEvent(core.Event{Type: core.EventGameRecorded, Time: now, UserID: 1, Score: 300, Difficulty: core.DifficultyHard})
	m.OnEvent(core.Event{Type: core.EventGameRecorded, Time: now, UserID: 2, Score: 200, Difficulty: core.DifficultyHard})
	m.OnEvent(core.Event{Type: core.EventGameRecorded, Time: now, UserID: 1, Score: 100, Difficulty: core.DifficultyEasy})
	m.OnEvent(core.Event{Type: core.EventHighScore, Time: now, UserID: 1, Score: 300})
	m.OnEvent(core.Event{Type: core.EventAchievementUnlocked, Time: now, UserID: 1,
		Unlock: core.AchievementDescriptor{Key: "first_flight"}})
	m.OnEvent(core.Event{Type: core.EventChallengeCompleted, Time: now, UserID: 2, Challenge: core.ChallengeDailyScore})

	d := day(now)
	if m.GamesPlayed(d) != 3 || m.ScoreVolume(d) != 600 {
		t.Fatalf("games=%d score=%d", m.GamesPlayed(d), m.ScoreVolume(d))
	}
	if m.GamesOnDifficulty(core.DifficultyHard) != 2 {
		t.Fatalf("hard games %d", m.GamesOnDifficulty(core.DifficultyHard))
	}
	if m.ActivePlayers(d) != 2 {
		t.Fatalf("active players %d", m.ActivePlayers(d))
	}
	if m.Unlocks("first_flight") != 1 || m.Completions(core.ChallengeDailyScore) != 1 {
		t.Fatal("unlock/completion counters wrong")
	}
	if m.HighScores(d) != 1 {
		t.Fatalf("high scores %d", m.HighScores(d))
	}
}

func TestDAPCountsUniquePlayers(t *testing.T) {
	d := NewDAP()
	now := time.Date(2026, 8, 27, 10, 0, 0, 0, time.UTC)
	for _, id := range []core.UserID{1, 2, 1, 3, 2} {
		d.OnEvent(core.Event{Type: core.EventGameRecorded, Time: now, UserID: id})
	}
	if got := d.Count(day(now)); got != 3 {
		t.Fatalf("want 3 unique players, got %d", got)
	}
	if got := d.Count(day(now.Add(24 * time.Hour))); got != 0 {
		t.Fatalf("next day must be empty, got %d", got)
	}
}
