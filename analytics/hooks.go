package analytics

import (
	"context"
	"sync"
	"time"

	"shooterstats/core"
)

// Hook receives domain events for KPI aggregation.
type Hook interface {
	OnEvent(e core.Event)
}

// DAP tracks daily active players, keyed by date.
type DAP struct {
	mu   sync.Mutex
	days map[string]map[core.UserID]struct{}
}

func NewDAP() *DAP { return &DAP{days: map[string]map[core.UserID]struct{}{}} }

func (d *DAP) OnEvent(e core.Event) {
	day := core.DayKey(e.Time)
	d.mu.Lock()
	defer d.mu.Unlock()
	m := d.days[day]
	if m == nil {
		m = map[core.UserID]struct{}{}
		d.days[day] = m
	}
	m[e.UserID] = struct{}{}
}

func (d *DAP) Count(day string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.days[day])
}

// Metrics aggregates engagement KPIs from the event stream: games and score
// volume per day, unlocks per achievement, challenge completion counts.
type Metrics struct {
	mu sync.RWMutex

	gamesByDay          map[string]int64
	scoreByDay          map[string]int64
	gamesByDifficulty   map[core.Difficulty]int64
	unlocksByKey        map[core.AchievementKey]int64
	completionsByType   map[core.ChallengeType]int64
	highScoresByDay     map[string]int64
	activePlayersByDay  map[string]map[core.UserID]struct{}
	lastEventAt         time.Time
}

func NewMetrics() *Metrics {
	return &Metrics{
		gamesByDay:         make(map[string]int64),
		scoreByDay:         make(map[string]int64),
		gamesByDifficulty:  make(map[core.Difficulty]int64),
		unlocksByKey:       make(map[core.AchievementKey]int64),
		completionsByType:  make(map[core.ChallengeType]int64),
		highScoresByDay:    make(map[string]int64),
		activePlayersByDay: make(map[string]map[core.UserID]struct{}),
	}
}

func (m *Metrics) OnEvent(e core.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()

	day := core.DayKey(e.Time)
	if m.activePlayersByDay[day] == nil {
		m.activePlayersByDay[day] = make(map[core.UserID]struct{})
	}
	m.activePlayersByDay[day][e.UserID] = struct{}{}
	m.lastEventAt = e.Time

	switch e.Type {
	case core.EventGameRecorded:
		m.gamesByDay[day]++
		m.scoreByDay[day] += e.Score
		if e.Difficulty != "" {
			m.gamesByDifficulty[e.Difficulty]++
		}
	case core.EventHighScore:
		m.highScoresByDay[day]++
	case core.EventAchievementUnlocked:
		m.unlocksByKey[e.Unlock.Key]++
	case core.EventChallengeCompleted:
		m.completionsByType[e.Challenge]++
	}
}

func (m *Metrics) GamesPlayed(day string) int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.gamesByDay[day]
}

func (m *Metrics) ScoreVolume(day string) int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.scoreByDay[day]
}

func (m *Metrics) GamesOnDifficulty(d core.Difficulty) int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.gamesByDifficulty[d]
}

func (m *Metrics) Unlocks(key core.AchievementKey) int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.unlocksByKey[key]
}

func (m *Metrics) Completions(t core.ChallengeType) int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.completionsByType[t]
}

func (m *Metrics) HighScores(day string) int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.highScoresByDay[day]
}

func (m *Metrics) ActivePlayers(day string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.activePlayersByDay[day])
}

// Subscriber is the piece of the event bus Bridge needs.
type Subscriber interface {
	Subscribe(t core.EventType, h func(ctx context.Context, e core.Event)) func()
}

// Bridge subscribes a hook to every domain event type on the bus and
// returns a function that detaches it.
func Bridge(bus Subscriber, hook Hook) func() {
	types := []core.EventType{
		core.EventGameRecorded,
		core.EventHighScore,
		core.EventAchievementUnlocked,
		core.EventChallengeCompleted,
	}
	offs := make([]func(), 0, len(types))
	for _, t := range types {
		offs = append(offs, bus.Subscribe(t, func(_ context.Context, e core.Event) {
			hook.OnEvent(e)
		}))
	}
	return func() {
		for _, off := range offs {
			off()
		}
	}
}
