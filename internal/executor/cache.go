package executor

import (
	"sync"

	"github.com/angkira/ninja-cli-mcp/internal/strategy"
)

// strategyCacheEntry pins a resolved Strategy to the config hash it was
// resolved under, so a config change invalidates the slot instead of
// silently reusing a stale operator (spec §4.2/§4.7).
type strategyCacheEntry struct {
	configHash string
	strategy   strategy.Strategy
}

// StrategyCache is a single mutex-protected slot per operator name, not a
// mutable package-level global: each PlanExecutor owns its own cache
// instance (SPEC_FULL's explicit decision against a shared global).
type StrategyCache struct {
	mu    sync.Mutex
	slots map[string]strategyCacheEntry
}

// NewStrategyCache returns an empty cache.
func NewStrategyCache() *StrategyCache {
	return &StrategyCache{slots: map[string]strategyCacheEntry{}}
}

// Get returns the cached strategy for operator if its configHash still
// matches, atomically resolving and caching a fresh one otherwise.
func (c *StrategyCache) Get(registry *strategy.Registry, operator, configHash string) (strategy.Strategy, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if entry, ok := c.slots[operator]; ok && entry.configHash == configHash {
		return entry.strategy, nil
	}
	s, err := registry.Get(operator)
	if err != nil {
		return nil, err
	}
	c.slots[operator] = strategyCacheEntry{configHash: configHash, strategy: s}
	return s, nil
}
