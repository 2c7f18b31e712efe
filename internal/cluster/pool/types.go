// Package pool implements the cluster agent pool (C10): a process-wide,
// role- and health-tracked registry of per-host agent connections. It is
// the thing C11's query layer and C12's subscription layer fan out over.
package pool

import (
	"time"

	"docktail/internal/engine"
)

// Health is an agent's most recently observed reachability state.
type Health string

const (
	HealthHealthy   Health = "healthy"
	HealthDegraded  Health = "degraded"
	HealthUnhealthy Health = "unhealthy"
	HealthUnknown   Health = "unknown"
)

// Source records how an agent entered the pool.
type Source string

const (
	SourceStatic     Source = "static"
	SourceDiscovered Source = "discovered"
	SourceRegistered Source = "registered"
)

// Client is the cloneable, transport-backed handle the pool hands out.
// Clone is cheap and shares the underlying connection; the only mutable
// protocol state it may carry (e.g. a request counter) must live behind
// its own synchronization, never the handle's (§9 design notes). Every
// other embedded engine.Engine method is a direct RPC — callers follow
// the "lock -> clone -> drop lock -> RPC" discipline (§5) by cloning
// under the pool's lock (done inside Get/Healthy/SelectManager) and
// only then issuing calls on the returned clone.
type Client interface {
	engine.Engine
	Clone() Client
}

// Agent is an immutable snapshot of one pool entry, safe to use after
// the pool's lock has been released.
type Agent struct {
	ID       string
	Address  string
	Source   Source
	Health   Health
	Role     engine.SwarmRole
	LastSeen time.Time
	Client   Client
}
