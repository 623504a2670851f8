// Package achievements holds the declarative achievement catalog and the
// rule engine that evaluates it against a stats snapshot.
package achievements

import (
	"fmt"

	"shooterstats/core"
)

// Predicate reports whether an achievement is satisfied by the user's
// current stats and global rank. Predicates must be pure: no I/O, no clock.
// A rank of 0 means unranked.
type Predicate func(stats core.UserStats, rank int) bool

// Rule pairs a displayable descriptor with its unlock predicate.
type Rule struct {
	core.AchievementDescriptor
	Unlocks Predicate
}

// Registry is an ordered, immutable set of rules. Slice order is the
// evaluation order, so newly-unlocked lists are reproducible.
type Registry struct {
	rules []Rule
	index map[core.AchievementKey]int
}

// NewRegistry builds a registry from rules. Duplicate keys and nil
// predicates are configuration bugs and rejected.
func NewRegistry(rules ...Rule) (*Registry, error) {
	r := &Registry{index: make(map[core.AchievementKey]int, len(rules))}
	for _, rule := range rules {
		if rule.Key == "" {
			return nil, fmt.Errorf("achievement rule with empty key")
		}
		if rule.Unlocks == nil {
			return nil, fmt.Errorf("achievement %q has no predicate", rule.Key)
		}
		if _, dup := r.index[rule.Key]; dup {
			return nil, fmt.Errorf("duplicate achievement key %q", rule.Key)
		}
		r.index[rule.Key] = len(r.rules)
		r.rules = append(r.rules, rule)
	}
	return r, nil
}

// MustNewRegistry is NewRegistry for static catalogs.
func MustNewRegistry(rules ...Rule) *Registry {
	r, err := NewRegistry(rules...)
	if err != nil {
		panic(err)
	}
	return r
}

// Evaluate returns the descriptors of every rule that is satisfied now and
// not already unlocked, in registry order.
func (r *Registry) Evaluate(stats core.UserStats, rank int, unlocked map[core.AchievementKey]struct{}) []core.AchievementDescriptor {
	var out []core.AchievementDescriptor
	for _, rule := range r.rules {
		if _, done := unlocked[rule.Key]; done {
			continue
		}
		if rule.Unlocks(stats, rank) {
			out = append(out, rule.AchievementDescriptor)
		}
	}
	return out
}

// Describe looks up the descriptor for a key.
func (r *Registry) Describe(key core.AchievementKey) (core.AchievementDescriptor, bool) {
	i, ok := r.index[key]
	if !ok {
		return core.AchievementDescriptor{}, false
	}
	return r.rules[i].AchievementDescriptor, true
}

// Keys returns all catalog keys in registry order.
func (r *Registry) Keys() []core.AchievementKey {
	keys := make([]core.AchievementKey, len(r.rules))
	for i, rule := range r.rules {
		keys[i] = rule.Key
	}
	return keys
}

// Len returns the catalog size.
func (r *Registry) Len() int { return len(r.rules) }
