// Package route resolves stable permalinks for indexed categories.
//
// Extensions register a routing strategy under their identifier. Resolution
// dispatches to the registered strategy when it provides category routing,
// and otherwise falls back to the generic content route, so resolution
// never fails. New strategies may be registered at any time.
package route

import (
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// CategoryRouter is the capability an extension strategy may provide to
// compute category permalinks.
type CategoryRouter interface {
	CategoryRoute(contentID int64, language string) string
}

// routeCacheSize bounds the resolved-route cache. Routes are pure
// functions of (extension, id, language), so cached values never go stale.
const routeCacheSize = 4096

// Resolver dispatches route computation to per-extension strategies with a
// guaranteed default.
type Resolver struct {
	mu         sync.RWMutex
	strategies map[string]CategoryRouter
	fallback   CategoryRouter
	cache      *lru.Cache[string, string]
}

// NewResolver creates a resolver with the given fallback strategy.
// A nil fallback selects the generic content route.
func NewResolver(fallback CategoryRouter) *Resolver {
	if fallback == nil {
		fallback = ContentRouter{}
	}
	cache, _ := lru.New[string, string](routeCacheSize)
	return &Resolver{
		strategies: make(map[string]CategoryRouter),
		fallback:   fallback,
		cache:      cache,
	}
}

// Register installs or replaces the strategy for an extension identifier.
func (r *Resolver) Register(extension string, strategy CategoryRouter) {
	r.mu.Lock()
	r.strategies[extension] = strategy
	r.mu.Unlock()
	r.cache.Purge()
}

// Resolve returns the permalink for a category owned by extension. Falls
// back to the default content route when no strategy is registered.
func (r *Resolver) Resolve(contentID int64, extension, language string) string {
	key := fmt.Sprintf("%s|%d|%s", extension, contentID, language)
	if route, ok := r.cache.Get(key); ok {
		return route
	}

	r.mu.RLock()
	strategy, ok := r.strategies[extension]
	r.mu.RUnlock()
	if !ok {
		strategy = r.fallback
	}

	route := strategy.CategoryRoute(contentID, language)
	r.cache.Add(key, route)
	return route
}

// ContentRouter is the default generic category route, used whenever the
// owning extension registered no strategy of its own.
type ContentRouter struct{}

// CategoryRoute implements CategoryRouter.
func (ContentRouter) CategoryRoute(contentID int64, language string) string {
	route := fmt.Sprintf("content/category/%d", contentID)
	if language != "" && language != "*" {
		route = fmt.Sprintf("%s/%s", language, route)
	}
	return route
}

// FuncRouter adapts a plain function to CategoryRouter.
type FuncRouter func(contentID int64, language string) string

// CategoryRoute implements CategoryRouter.
func (f FuncRouter) CategoryRoute(contentID int64, language string) string {
	return f(contentID, language)
}
