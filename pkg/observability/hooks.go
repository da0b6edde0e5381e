// Package observability provides hooks for instrumenting QC summary runs.
//
// Consumers register hooks at startup to receive events about composing,
// evaluating, and cache activity. Libraries never depend on a particular
// metrics backend; they only call the registered hooks, which default to
// no-ops.
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetComposeHooks(&myComposeHooks{})
//	    observability.SetCacheHooks(&myCacheHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Compose().OnComposeStart(ctx, name, len(images))
//	// ... tile images ...
//	observability.Compose().OnComposeComplete(ctx, name, duration, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// ComposeHooks receives events from image composition.
type ComposeHooks interface {
	OnComposeStart(ctx context.Context, summary string, images int)
	OnComposeComplete(ctx context.Context, summary string, duration time.Duration, err error)
}

// EvaluateHooks receives events from threshold evaluation.
type EvaluateHooks interface {
	// OnEvaluate records one evaluator result over values metrics.
	OnEvaluate(ctx context.Context, summary string, values int, result bool, err error)
}

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	// OnCacheHit records a cache hit.
	OnCacheHit(ctx context.Context, keyType string)

	// OnCacheMiss records a cache miss.
	OnCacheMiss(ctx context.Context, keyType string)

	// OnCacheSet records a cache write.
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// NoopComposeHooks is a no-op implementation of ComposeHooks.
type NoopComposeHooks struct{}

func (NoopComposeHooks) OnComposeStart(context.Context, string, int)                    {}
func (NoopComposeHooks) OnComposeComplete(context.Context, string, time.Duration, error) {}

// NoopEvaluateHooks is a no-op implementation of EvaluateHooks.
type NoopEvaluateHooks struct{}

func (NoopEvaluateHooks) OnEvaluate(context.Context, string, int, bool, error) {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

var (
	composeHooks  ComposeHooks  = NoopComposeHooks{}
	evaluateHooks EvaluateHooks = NoopEvaluateHooks{}
	cacheHooks    CacheHooks    = NoopCacheHooks{}
	hooksMu       sync.RWMutex
)

// SetComposeHooks registers custom compose hooks. Nil is ignored.
func SetComposeHooks(h ComposeHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		composeHooks = h
	}
}

// SetEvaluateHooks registers custom evaluate hooks. Nil is ignored.
func SetEvaluateHooks(h EvaluateHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		evaluateHooks = h
	}
}

// SetCacheHooks registers custom cache hooks. Nil is ignored.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// Compose returns the registered compose hooks.
func Compose() ComposeHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return composeHooks
}

// Evaluate returns the registered evaluate hooks.
func Evaluate() EvaluateHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return evaluateHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// Reset restores all hooks to their no-op defaults.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	composeHooks = NoopComposeHooks{}
	evaluateHooks = NoopEvaluateHooks{}
	cacheHooks = NoopCacheHooks{}
}
