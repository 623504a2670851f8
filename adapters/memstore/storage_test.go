package memstore

import (
	"context"
	"testing"
	"time"

	"shooterstats/achievements"
	"shooterstats/challenges"
	"shooterstats/core"
)

func newStore() *Store {
	return New(100, achievements.Default(), challenges.Default())
}

func play(t *testing.T, s *Store, user core.UserID, score int64) core.RecordOutcome {
	t.Helper()
	out, err := s.RecordGame(context.Background(), core.GameResult{
		UserID: user, Score: score, Level: 1, Difficulty: core.DifficultyNormal,
		EnemiesKilled: 5, AccuracyPercent: 70,
	})
	if err != nil {
		t.Fatal(err)
	}
	return out
}

func TestRecordGameAggregates(t *testing.T) {
	s := newStore()
	play(t, s, 1, 50)
	out := play(t, s, 1, 300)
	if !out.IsNewRecord || out.ScoreDelta != 250 {
		t.Fatalf("unexpected outcome %+v", out)
	}
	stats, ok, _ := s.UserStats(context.Background(), 1)
	if !ok || stats.GamesPlayed != 2 || stats.BestScore != 300 {
		t.Fatalf("unexpected stats %+v", stats)
	}
}

func TestRankTieBreak(t *testing.T) {
	s := newStore()
	ctx := context.Background()
	// X: 10 games reaching 500; Y: 3 games reaching 500
	for i := 0; i < 9; i++ {
		play(t, s, 10, 100)
	}
	play(t, s, 10, 500)
	play(t, s, 20, 100)
	play(t, s, 20, 200)
	play(t, s, 20, 500)

	rx, okx, _ := s.UserRank(ctx, 10)
	ry, oky, _ := s.UserRank(ctx, 20)
	if !okx || !oky {
		t.Fatal("both users should be ranked")
	}
	if !(ry < rx) {
		t.Fatalf("fewer games must rank higher: Y=%d X=%d", ry, rx)
	}

	top, _ := s.TopPlayers(ctx, 10)
	if len(top) != 2 || top[0].UserID != 20 || top[1].UserID != 10 {
		t.Fatalf("leaderboard inconsistent with rank: %+v", top)
	}
}

func TestZeroScoreUnranked(t *testing.T) {
	s := newStore()
	play(t, s, 1, 0)
	if _, ok, _ := s.UserRank(context.Background(), 1); ok {
		t.Fatal("zero best score must be unranked")
	}
	top, _ := s.TopPlayers(context.Background(), 10)
	if len(top) != 0 {
		t.Fatalf("zero scores must not appear on the board: %+v", top)
	}
}

func TestAchievementsUnlockOnce(t *testing.T) {
	s := newStore()
	out := play(t, s, 1, 150)
	found := false
	for _, d := range out.Unlocked {
		if d.Key == "first_flight" {
			found = true
		}
	}
	if !found {
		t.Fatalf("first game should unlock first_flight, got %+v", out.Unlocked)
	}
	out = play(t, s, 1, 150)
	for _, d := range out.Unlocked {
		if d.Key == "first_flight" {
			t.Fatal("first_flight unlocked twice")
		}
	}
	keys, _ := s.UserAchievements(context.Background(), 1)
	seen := map[core.AchievementKey]int{}
	for _, k := range keys {
		seen[k]++
	}
	if seen["first_flight"] != 1 {
		t.Fatalf("want exactly one first_flight, got %v", keys)
	}
}

func TestDailyChallengeBoundary(t *testing.T) {
	s := newStore()
	day := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	record := func(score int64) core.RecordOutcome {
		out, err := s.RecordGame(context.Background(), core.GameResult{
			UserID: 1, Score: score, Level: 1, Difficulty: core.DifficultyNormal,
			AccuracyPercent: 50, PlayedAt: day,
		})
		if err != nil {
			t.Fatal(err)
		}
		return out
	}
	record(950)
	out := record(70) // 950 -> 1020 crosses the 1000 target
	completed := false
	for _, p := range out.CompletedChallenges {
		if p.Type == core.ChallengeDailyScore {
			completed = true
			if p.Current != 1020 {
				t.Fatalf("want current 1020, got %d", p.Current)
			}
		}
	}
	if !completed {
		t.Fatal("daily score challenge should complete on the boundary game")
	}

	// stays complete, not re-reported
	out = record(10)
	for _, p := range out.CompletedChallenges {
		if p.Type == core.ChallengeDailyScore {
			t.Fatal("completion reported twice")
		}
	}
	rows, _ := s.DailyChallenges(context.Background(), 1, core.DayKey(day))
	for _, p := range rows {
		if p.Type == core.ChallengeDailyScore && !p.Completed {
			t.Fatal("completed flag must stay true for the date")
		}
	}
}

func TestDayBoundaryResets(t *testing.T) {
	s := newStore()
	monday := time.Date(2025, 6, 2, 23, 0, 0, 0, time.UTC)
	tuesday := monday.Add(2 * time.Hour)
	for _, ts := range []time.Time{monday, tuesday} {
		if _, err := s.RecordGame(context.Background(), core.GameResult{
			UserID: 1, Score: 600, Level: 1, Difficulty: core.DifficultyEasy, AccuracyPercent: 50, PlayedAt: ts,
		}); err != nil {
			t.Fatal(err)
		}
	}
	rows, _ := s.DailyChallenges(context.Background(), 1, core.DayKey(tuesday))
	for _, p := range rows {
		if p.Type == core.ChallengeDailyScore && p.Current != 600 {
			t.Fatalf("tuesday counter should start fresh, got %d", p.Current)
		}
	}
}

func TestGlobalStats(t *testing.T) {
	s := newStore()
	_ = s.RegisterUser(context.Background(), core.UserProfile{UserID: 1, FirstName: "A"})
	_ = s.RegisterUser(context.Background(), core.UserProfile{UserID: 2, FirstName: "B"})
	play(t, s, 1, 100)
	play(t, s, 1, 300)
	play(t, s, 2, 200)
	g, _ := s.GlobalStats(context.Background())
	if g.TotalUsers != 2 || g.TotalGames != 3 || g.TotalScore != 600 || g.MaxScore != 300 {
		t.Fatalf("unexpected global stats %+v", g)
	}
	if g.AvgScore != 200 {
		t.Fatalf("want avg 200, got %v", g.AvgScore)
	}
}

func TestRecentGamesNewestFirst(t *testing.T) {
	s := newStore()
	for i, score := range []int64{10, 20, 30} {
		if _, err := s.RecordGame(context.Background(), core.GameResult{
			UserID: 1, Score: score, Level: 1, Difficulty: core.DifficultyNormal,
			AccuracyPercent: 50, PlayedAt: time.Date(2025, 6, 1, 10, i, 0, 0, time.UTC),
		}); err != nil {
			t.Fatal(err)
		}
	}
	games, _ := s.RecentGames(context.Background(), 1, 2)
	if len(games) != 2 || games[0].Score != 30 || games[1].Score != 20 {
		t.Fatalf("unexpected order %+v", games)
	}
}
