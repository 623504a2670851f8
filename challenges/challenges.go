// Package challenges holds the daily challenge catalog: which counters exist,
// their per-day targets, and how a single game contributes to each.
package challenges

import (
	"fmt"

	"shooterstats/core"
)

// Challenge is one daily objective. Contribution is pure and returns the
// amount a finished game adds to the day's counter.
type Challenge struct {
	Type         core.ChallengeType
	Name         string
	Icon         string
	Target       int64
	Contribution func(core.GameResult) int64
}

// Targets carries the per-day target values. Kept in configuration; the
// stock values match the original bot and must not drift silently.
type Targets struct {
	DailyScore int64
	DailyKills int64
	DailyGames int64
}

// DefaultTargets returns the original bot's targets.
func DefaultTargets() Targets {
	return Targets{DailyScore: 1000, DailyKills: 50, DailyGames: 5}
}

// Catalog is an ordered, immutable set of daily challenges.
type Catalog struct {
	list []Challenge
}

// NewCatalog builds the stock catalog with the given targets.
func NewCatalog(t Targets) (*Catalog, error) {
	if t.DailyScore <= 0 || t.DailyKills <= 0 || t.DailyGames <= 0 {
		return nil, fmt.Errorf("challenge targets must be positive, got %+v", t)
	}
	return &Catalog{list: []Challenge{
		{
			Type:         core.ChallengeDailyScore,
			Name:         "Score Hunter",
			Icon:         "🏆",
			Target:       t.DailyScore,
			Contribution: func(r core.GameResult) int64 { return r.Score },
		},
		{
			Type:         core.ChallengeDailyKills,
			Name:         "Alien Menace",
			Icon:         "👾",
			Target:       t.DailyKills,
			Contribution: func(r core.GameResult) int64 { return int64(r.EnemiesKilled) },
		},
		{
			Type:         core.ChallengeDailyGames,
			Name:         "Frequent Flyer",
			Icon:         "🎮",
			Target:       t.DailyGames,
			Contribution: func(core.GameResult) int64 { return 1 },
		},
	}}, nil
}

// Default is NewCatalog with DefaultTargets.
func Default() *Catalog {
	c, err := NewCatalog(DefaultTargets())
	if err != nil {
		panic(err)
	}
	return c
}

// All returns the challenges in catalog order.
func (c *Catalog) All() []Challenge { return c.list }

// Lookup finds a challenge by type.
func (c *Catalog) Lookup(t core.ChallengeType) (Challenge, bool) {
	for _, ch := range c.list {
		if ch.Type == t {
			return ch, true
		}
	}
	return Challenge{}, false
}
