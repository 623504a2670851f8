package core

import (
	"errors"
	"math"
	"testing"
	"time"
)

func game(score int64, diff Difficulty, accuracy float64) GameResult {
	return GameResult{
		UserID:          1,
		Score:           score,
		Level:           3,
		Difficulty:      diff,
		DurationSeconds: 60,
		EnemiesKilled:   10,
		AccuracyPercent: accuracy,
		PlayedAt:        time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestApplySequence(t *testing.T) {
	var s UserStats
	s.UserID = 1

	scores := []int64{50, 300, 150}
	accuracies := []float64{80, 60, 100}
	for i := range scores {
		s.Apply(game(scores[i], DifficultyNormal, accuracies[i]), 100)
	}

	if s.BestScore != 300 {
		t.Fatalf("best score: want 300 got %d", s.BestScore)
	}
	if s.GamesPlayed != 3 {
		t.Fatalf("games played: want 3 got %d", s.GamesPlayed)
	}
	if math.Abs(s.AvgAccuracy-80.0) > 1e-9 {
		t.Fatalf("avg accuracy: want 80.0 got %v", s.AvgAccuracy)
	}
	if s.NormalGames != 3 {
		t.Fatalf("normal games: want 3 got %d", s.NormalGames)
	}
	if s.EasyGames+s.NormalGames+s.HardGames+s.NightmareGames != s.GamesPlayed {
		t.Fatal("difficulty counters must sum to games played")
	}
}

func TestApplyOutcome(t *testing.T) {
	var s UserStats
	out := s.Apply(game(250, DifficultyHard, 50), 100)
	if !out.IsNewRecord || out.ScoreDelta != 250 {
		t.Fatalf("first game should be a record with delta 250, got %+v", out)
	}
	out = s.Apply(game(200, DifficultyHard, 50), 100)
	if out.IsNewRecord || out.ScoreDelta != 0 {
		t.Fatalf("lower score must not be a record, got %+v", out)
	}
	out = s.Apply(game(300, DifficultyHard, 50), 100)
	if !out.IsNewRecord || out.ScoreDelta != 50 {
		t.Fatalf("want record delta 50, got %+v", out)
	}
}

func TestApplyWinStreak(t *testing.T) {
	var s UserStats
	// win, win, loss, win
	for i, score := range []int64{100, 500, 99, 150} {
		out := s.Apply(game(score, DifficultyEasy, 70), 100)
		wantStreak := []int{1, 2, 0, 1}[i]
		if out.WinStreak != wantStreak {
			t.Fatalf("game %d: want streak %d got %d", i, wantStreak, out.WinStreak)
		}
	}
	if s.BestWinStreak != 2 {
		t.Fatalf("best streak: want 2 got %d", s.BestWinStreak)
	}
	if s.CurrentWinStreak != 1 {
		t.Fatalf("current streak: want 1 got %d", s.CurrentWinStreak)
	}
}

func TestRunningMeanMatchesArithmeticMean(t *testing.T) {
	var s UserStats
	values := []float64{0, 100, 33.3, 78.5, 12.25, 99.9, 50, 66.6, 1, 100}
	var sum float64
	for _, v := range values {
		s.Apply(game(10, DifficultyNormal, v), 100)
		sum += v
	}
	want := sum / float64(len(values))
	if math.Abs(s.AvgAccuracy-want) > 1e-9 {
		t.Fatalf("running mean %v diverged from arithmetic mean %v", s.AvgAccuracy, want)
	}
}

func TestGameResultValidate(t *testing.T) {
	valid := game(10, DifficultyNormal, 50)
	if err := valid.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cases := map[string]GameResult{}
	r := valid
	r.Score = -1
	cases["negative score"] = r
	r = valid
	r.Level = 0
	cases["zero level"] = r
	r = valid
	r.Difficulty = "brutal"
	cases["bad difficulty"] = r
	r = valid
	r.AccuracyPercent = 100.5
	cases["accuracy over 100"] = r
	r = valid
	r.UserID = 0
	cases["missing user"] = r

	for name, bad := range cases {
		if err := bad.Validate(); !errors.Is(err, ErrValidation) {
			t.Fatalf("%s: want ErrValidation, got %v", name, err)
		}
	}
}

func TestParseDifficulty(t *testing.T) {
	d, err := ParseDifficulty(" Nightmare ")
	if err != nil || d != DifficultyNightmare {
		t.Fatalf("got %v %v", d, err)
	}
	if _, err := ParseDifficulty("impossible"); !errors.Is(err, ErrValidation) {
		t.Fatalf("want ErrValidation, got %v", err)
	}
}

func TestDisplayName(t *testing.T) {
	p := UserProfile{UserID: 1, FirstName: "Ada", Username: "ada42"}
	if p.DisplayName() != "Ada" {
		t.Fatal("first name should win")
	}
	p.FirstName = ""
	if p.DisplayName() != "ada42" {
		t.Fatal("username fallback")
	}
	p.Username = ""
	if p.DisplayName() != "Anonymous" {
		t.Fatal("anonymous fallback")
	}
}
