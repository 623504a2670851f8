package sqlstore

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"shooterstats/achievements"
	"shooterstats/challenges"
	"shooterstats/core"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	cfg := DefaultConfig(DriverSQLite)
	cfg.DSN = filepath.Join(t.TempDir(), "test.db")
	s, err := New(cfg, achievements.Default(), challenges.Default())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func game(id core.UserID, score int64, acc float64) core.GameResult {
	return core.GameResult{
		UserID: id, Score: score, Level: 1, Difficulty: core.DifficultyNormal,
		DurationSeconds: 60, EnemiesKilled: 10, AccuracyPercent: acc,
	}
}

func TestRecordGameAggregates(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	scores := []int64{50, 300, 150}
	accs := []float64{80, 60, 100}
	var out core.RecordOutcome
	var err error
	for i := range scores {
		out, err = s.RecordGame(ctx, game(7, scores[i], accs[i]))
		if err != nil {
			t.Fatal(err)
		}
	}

	stats, ok, err := s.UserStats(ctx, 7)
	if err != nil || !ok {
		t.Fatalf("stats: ok=%v err=%v", ok, err)
	}
	if stats.BestScore != 300 || stats.GamesPlayed != 3 || stats.TotalScore != 500 {
		t.Fatalf("unexpected aggregate %+v", stats)
	}
	if stats.AvgAccuracy != 80.0 {
		t.Fatalf("avg accuracy want 80.0 got %v", stats.AvgAccuracy)
	}
	if stats.NormalGames != 3 {
		t.Fatalf("normal games want 3 got %d", stats.NormalGames)
	}
	// 50 broke the streak before the two wins
	if stats.CurrentWinStreak != 2 || stats.BestWinStreak != 2 {
		t.Fatalf("streaks %d/%d", stats.CurrentWinStreak, stats.BestWinStreak)
	}
	if out.IsNewRecord {
		t.Fatal("150 after 300 must not be a record")
	}
	if out.Stats.GamesPlayed != 3 {
		t.Fatalf("outcome snapshot stale: %+v", out.Stats)
	}
}

func TestRankTieBreak(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	// X reaches 500 in 10 games, Y in 3: fewer games ranks higher
	for i := 0; i < 9; i++ {
		if _, err := s.RecordGame(ctx, game(1, 400, 50)); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := s.RecordGame(ctx, game(1, 500, 50)); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 2; i++ {
		if _, err := s.RecordGame(ctx, game(2, 400, 50)); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := s.RecordGame(ctx, game(2, 500, 50)); err != nil {
		t.Fatal(err)
	}

	rankX, ok, err := s.UserRank(ctx, 1)
	if err != nil || !ok {
		t.Fatalf("rank X: ok=%v err=%v", ok, err)
	}
	rankY, ok, err := s.UserRank(ctx, 2)
	if err != nil || !ok {
		t.Fatalf("rank Y: ok=%v err=%v", ok, err)
	}
	if rankY != 1 || rankX != 2 {
		t.Fatalf("want Y=1 X=2, got Y=%d X=%d", rankY, rankX)
	}

	board, err := s.TopPlayers(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(board) != 2 || board[0].UserID != 2 || board[1].UserID != 1 {
		t.Fatalf("leaderboard disagrees with rank: %+v", board)
	}
}

func TestZeroScoreUnranked(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if _, err := s.RecordGame(ctx, game(5, 0, 10)); err != nil {
		t.Fatal(err)
	}
	if _, ok, err := s.UserRank(ctx, 5); ok || err != nil {
		t.Fatalf("zero-score user must be unranked: ok=%v err=%v", ok, err)
	}
	board, err := s.TopPlayers(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(board) != 0 {
		t.Fatalf("zero-score user on leaderboard: %+v", board)
	}
}

func TestChallengeCompletionBoundary(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	day := core.DayKey(s.now())

	out, err := s.RecordGame(ctx, game(3, 950, 50))
	if err != nil {
		t.Fatal(err)
	}
	for _, p := range out.CompletedChallenges {
		if p.Type == core.ChallengeDailyScore {
			t.Fatal("950 must not complete the 1000 score challenge")
		}
	}

	// crosses 1000: completes inside the same transaction
	out, err = s.RecordGame(ctx, game(3, 70, 50))
	if err != nil {
		t.Fatal(err)
	}
	var scored *core.ChallengeProgress
	for i := range out.CompletedChallenges {
		if out.CompletedChallenges[i].Type == core.ChallengeDailyScore {
			scored = &out.CompletedChallenges[i]
		}
	}
	if scored == nil {
		t.Fatalf("crossing the target must report completion: %+v", out.CompletedChallenges)
	}
	if scored.Current != 1020 || !scored.Completed {
		t.Fatalf("unexpected progress %+v", *scored)
	}

	// already completed: never reported again
	out, err = s.RecordGame(ctx, game(3, 70, 50))
	if err != nil {
		t.Fatal(err)
	}
	for _, p := range out.CompletedChallenges {
		if p.Type == core.ChallengeDailyScore {
			t.Fatal("completion reported twice")
		}
	}

	rows, err := s.DailyChallenges(ctx, 3, day)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Fatalf("want one row per catalog challenge, got %d", len(rows))
	}
	for _, p := range rows {
		if p.Type == core.ChallengeDailyScore && (p.Current != 1090 || !p.Completed) {
			t.Fatalf("accumulation lost: %+v", p)
		}
	}
}

func TestDailyChallengesSynthesizeZeroRows(t *testing.T) {
	s := openTestStore(t)
	rows, err := s.DailyChallenges(context.Background(), 42, "2026-08-27")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Fatalf("want 3 zero rows, got %d", len(rows))
	}
	for _, p := range rows {
		if p.Current != 0 || p.Completed || p.Target <= 0 {
			t.Fatalf("bad synthesized row %+v", p)
		}
	}
}

func TestAchievementsUnlockOnce(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	out, err := s.RecordGame(ctx, game(9, 1500, 50))
	if err != nil {
		t.Fatal(err)
	}
	seen := map[core.AchievementKey]bool{}
	for _, d := range out.Unlocked {
		if seen[d.Key] {
			t.Fatalf("duplicate unlock %s", d.Key)
		}
		seen[d.Key] = true
	}
	if !seen["first_flight"] || !seen["score_1k"] {
		t.Fatalf("expected unlocks missing: %v", out.Unlocked)
	}

	out, err = s.RecordGame(ctx, game(9, 1500, 50))
	if err != nil {
		t.Fatal(err)
	}
	for _, d := range out.Unlocked {
		if seen[d.Key] {
			t.Fatalf("%s unlocked twice", d.Key)
		}
	}

	keys, err := s.UserAchievements(ctx, 9)
	if err != nil {
		t.Fatal(err)
	}
	counts := map[core.AchievementKey]int{}
	for _, k := range keys {
		counts[k]++
		if counts[k] > 1 {
			t.Fatalf("%s stored twice", k)
		}
	}
}

func TestPersistenceAcrossReopen(t *testing.T) {
	cfg := DefaultConfig(DriverSQLite)
	cfg.DSN = filepath.Join(t.TempDir(), "persist.db")
	ctx := context.Background()

	s, err := New(cfg, achievements.Default(), challenges.Default())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.RecordGame(ctx, game(11, 2500, 90)); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	s, err = New(cfg, achievements.Default(), challenges.Default())
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	stats, ok, err := s.UserStats(ctx, 11)
	if err != nil || !ok {
		t.Fatalf("stats gone after reopen: ok=%v err=%v", ok, err)
	}
	if stats.BestScore != 2500 {
		t.Fatalf("best score lost: %+v", stats)
	}
	keys, err := s.UserAchievements(ctx, 11)
	if err != nil || len(keys) == 0 {
		t.Fatalf("achievements lost: %v %v", keys, err)
	}
	games, err := s.RecentGames(ctx, 11, 5)
	if err != nil || len(games) != 1 {
		t.Fatalf("game facts lost: %v %v", games, err)
	}
}

func TestWriteLockBusyTimeout(t *testing.T) {
	s := openTestStore(t)
	s.busyTimeout = 50 * time.Millisecond
	ctx := context.Background()

	// occupy the write lock so the next writer times out
	s.writeSem <- struct{}{}
	defer func() { <-s.writeSem }()

	_, err := s.RecordGame(ctx, game(1, 100, 50))
	if !errors.Is(err, core.ErrStorageBusy) {
		t.Fatalf("want ErrStorageBusy, got %v", err)
	}
}

func TestRegisterUserKeepsCreatedAt(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return base }
	if err := s.RegisterUser(ctx, core.UserProfile{UserID: 21, Username: "vega"}); err != nil {
		t.Fatal(err)
	}

	s.now = func() time.Time { return base.Add(48 * time.Hour) }
	if err := s.RegisterUser(ctx, core.UserProfile{UserID: 21, Username: "vega2"}); err != nil {
		t.Fatal(err)
	}

	var row struct {
		Username  string `db:"username"`
		CreatedAt string `db:"created_at"`
		LastSeen  string `db:"last_seen"`
	}
	query := s.db.Rebind(`SELECT username, created_at, last_seen FROM users WHERE user_id = ?`)
	if err := s.db.Get(&row, query, 21); err != nil {
		t.Fatal(err)
	}
	if row.Username != "vega2" {
		t.Fatalf("profile not refreshed: %+v", row)
	}
	if parseTime(row.CreatedAt) != base {
		t.Fatalf("created_at rewritten: %+v", row)
	}
	if parseTime(row.LastSeen) != base.Add(48*time.Hour) {
		t.Fatalf("last_seen stale: %+v", row)
	}
}
