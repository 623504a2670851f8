// Package progression is the embedding facade: one call builds a ready
// StatsService from options, defaulting to in-memory storage, the default
// achievement and challenge catalogs, and an in-process read cache.
package progression

import (
	"context"

	"shooterstats/achievements"
	"shooterstats/adapters/memcache"
	"shooterstats/adapters/memstore"
	"shooterstats/analytics"
	"shooterstats/cache"
	"shooterstats/challenges"
	"shooterstats/core"
	"shooterstats/engine"
	"shooterstats/realtime"
)

// Option configures the service builder.
type Option func(*builder)

type builder struct {
	storage      engine.Storage
	statsCache   cache.StatsCache
	cacheSet     bool
	mode         engine.DispatchMode
	hub          *realtime.Hub
	hooks        []analytics.Hook
	winThreshold int64
	registry     *achievements.Registry
	catalog      *challenges.Catalog
}

// WithStorage sets the persistence adapter.
func WithStorage(s engine.Storage) Option { return func(b *builder) { b.storage = s } }

// WithCache sets the read cache; pass nil to disable caching entirely.
func WithCache(c cache.StatsCache) Option {
	return func(b *builder) {
		b.statsCache = c
		b.cacheSet = true
	}
}

// WithDispatchMode selects sync or async event dispatch.
func WithDispatchMode(m engine.DispatchMode) Option { return func(b *builder) { b.mode = m } }

// WithHub wires a realtime hub to receive all domain events.
func WithHub(h *realtime.Hub) Option { return func(b *builder) { b.hub = h } }

// WithAnalytics attaches a KPI hook to the event stream.
func WithAnalytics(h analytics.Hook) Option {
	return func(b *builder) { b.hooks = append(b.hooks, h) }
}

// WithWinThreshold overrides the score from which a game counts as a win.
// Only honored by the default in-memory storage; explicit storage adapters
// carry their own threshold.
func WithWinThreshold(score int64) Option { return func(b *builder) { b.winThreshold = score } }

// WithAchievements overrides the achievement catalog for the default
// in-memory storage.
func WithAchievements(r *achievements.Registry) Option { return func(b *builder) { b.registry = r } }

// WithChallenges overrides the daily challenge catalog for the default
// in-memory storage.
func WithChallenges(c *challenges.Catalog) Option { return func(b *builder) { b.catalog = c } }

// New builds a configured StatsService. Defaults: in-memory storage with the
// default catalogs, in-process cache, async dispatch.
func New(opts ...Option) *engine.StatsService {
	b := &builder{
		mode:         engine.DispatchAsync,
		winThreshold: 100,
		registry:     achievements.Default(),
		catalog:      challenges.Default(),
	}
	for _, o := range opts {
		o(b)
	}
	if b.storage == nil {
		b.storage = memstore.New(b.winThreshold, b.registry, b.catalog)
	}
	if !b.cacheSet {
		b.statsCache = memcache.New(cache.DefaultTTL)
	}

	bus := engine.NewEventBus(b.mode)
	svc := engine.NewStatsService(b.storage, b.statsCache, bus)
	if b.hub != nil {
		forward := func(ctx context.Context, e core.Event) { b.hub.Broadcast(ctx, e) }
		bus.Subscribe(core.EventGameRecorded, forward)
		bus.Subscribe(core.EventHighScore, forward)
		bus.Subscribe(core.EventAchievementUnlocked, forward)
		bus.Subscribe(core.EventChallengeCompleted, forward)
	}
	for _, h := range b.hooks {
		analytics.Bridge(bus, h)
	}
	return svc
}
