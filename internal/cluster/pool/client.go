package pool

import (
	"sync/atomic"

	"docktail/internal/engine"
)

// engineClient is the concrete Client: an engine.Engine embedded by
// value-of-interface, so every capability-set method is promoted
// unmodified, plus a Clone that shares the embedded engine.Engine (the
// real transport, or the in-memory fake in tests) and an atomic request
// counter shared across every clone descended from the same agent.
type engineClient struct {
	engine.Engine
	requests *int64
}

// NewClient wraps eng as a cloneable agent handle. eng is typically a
// real transport-backed engine.Engine (one per agent connection) or
// engine/fake.Engine in tests.
func NewClient(eng engine.Engine) Client {
	var n int64
	return &engineClient{Engine: eng, requests: &n}
}

// Clone returns a handle sharing the same underlying transport and
// request counter. Safe to call under the pool's lock and use after
// it's released, per the locking discipline in §5.
func (c *engineClient) Clone() Client {
	atomic.AddInt64(c.requests, 1)
	return &engineClient{Engine: c.Engine, requests: c.requests}
}

// Requests reports how many clones have been issued from this handle's
// lineage, a cheap proxy for per-agent call volume.
func (c *engineClient) Requests() int64 {
	return atomic.LoadInt64(c.requests)
}
