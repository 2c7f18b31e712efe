package pool

import (
	"sync"
	"time"

	"docktail/internal/apierrors"
	"docktail/internal/engine"
)

// entry is the pool's mutable per-agent record. Fields that change after
// registration (health, role, last-seen, the client handle itself when an
// agent reconnects) are guarded by mu so health-checker and role-watcher
// updates never race a concurrent snapshot read.
type entry struct {
	mu sync.Mutex

	id      string
	address string
	source  Source

	health   Health
	role     engine.SwarmRole
	lastSeen time.Time
	client   Client
}

func (e *entry) snapshot() Agent {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Agent{
		ID:       e.id,
		Address:  e.address,
		Source:   e.source,
		Health:   e.health,
		Role:     e.role,
		LastSeen: e.lastSeen,
		Client:   e.client.Clone(),
	}
}

// Pool is the process-wide agent registry (C10). The zero value is not
// usable; construct with New.
type Pool struct {
	mu     sync.RWMutex
	agents map[string]*entry
}

// New returns an empty pool.
func New() *Pool {
	return &Pool{agents: map[string]*entry{}}
}

// Add registers id as a new pool entry with unknown health and role,
// sourced as src. It errors if id is already registered — callers that
// want to replace a stale entry (e.g. on reconnect) should Remove first.
func (p *Pool) Add(id, address string, src Source, client Client) error {
	if id == "" {
		return apierrors.NewInvalidArgumentError("agent id must not be empty")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, exists := p.agents[id]; exists {
		return apierrors.NewInvalidArgumentError("agent %s already registered", id)
	}
	p.agents[id] = &entry{
		id:       id,
		address:  address,
		source:   src,
		health:   HealthUnknown,
		role:     engine.SwarmRole(""),
		lastSeen: time.Time{},
		client:   client,
	}
	return nil
}

// Remove deregisters id, per discovery removal or manual deregistration.
func (p *Pool) Remove(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.agents, id)
}

// Get returns a snapshot of id's entry, or ok=false if it isn't registered.
func (p *Pool) Get(id string) (Agent, bool) {
	p.mu.RLock()
	e, ok := p.agents[id]
	p.mu.RUnlock()
	if !ok {
		return Agent{}, false
	}
	return e.snapshot(), true
}

// ListAll returns a snapshot of every registered agent, in no particular order.
func (p *Pool) ListAll() []Agent {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]Agent, 0, len(p.agents))
	for _, e := range p.agents {
		out = append(out, e.snapshot())
	}
	return out
}

// Healthy returns a snapshot of every agent currently in HealthHealthy —
// the health-filtered iterator fan-out queries and subscriptions resolve
// their implicit ("all agents") target set from.
func (p *Pool) Healthy() []Agent {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]Agent, 0, len(p.agents))
	for _, e := range p.agents {
		a := e.snapshot()
		if a.Health == HealthHealthy {
			out = append(out, a)
		}
	}
	return out
}

// CountByHealth tallies registered agents by health state.
func (p *Pool) CountByHealth() map[Health]int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	counts := map[Health]int{}
	for _, e := range p.agents {
		e.mu.Lock()
		counts[e.health]++
		e.mu.Unlock()
	}
	return counts
}

// SelectManager resolves the agent a control-plane RPC should run
// against (§4.10). With id == "", it auto-selects: any healthy manager,
// falling back to any healthy agent, failing with ErrNoAgentsAvailable
// if none exist. With id set, it enforces that agent's role: a worker
// is rejected with a directive to pick a manager, a swarm-less node
// with ErrNotInSwarm, and a manager is returned as-is.
func (p *Pool) SelectManager(id string) (Agent, error) {
	if id != "" {
		a, ok := p.Get(id)
		if !ok {
			return Agent{}, apierrors.NewAgentNotFoundError(id)
		}
		switch a.Role {
		case engine.RoleManager:
			return a, nil
		case engine.RoleWorker:
			return Agent{}, apierrors.NewInvalidArgumentError("agent %s is a worker; select a manager for control-plane operations", id)
		default:
			return Agent{}, apierrors.ErrNotInSwarm
		}
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	var fallback *Agent
	for _, e := range p.agents {
		a := e.snapshot()
		if a.Health != HealthHealthy {
			continue
		}
		if a.Role == engine.RoleManager {
			return a, nil
		}
		if fallback == nil {
			fallback = &a
		}
	}
	if fallback != nil {
		return *fallback, nil
	}
	return Agent{}, apierrors.ErrNoAgentsAvailable
}

// setHealth and setRole are the health checker's (health.go) and a
// future role watcher's mutation points; both refresh last-seen so
// "healthy as of" reflects the most recent successful contact.
func (p *Pool) setHealth(id string, h Health, seenAt time.Time) {
	p.mu.RLock()
	e, ok := p.agents[id]
	p.mu.RUnlock()
	if !ok {
		return
	}
	e.mu.Lock()
	e.health = h
	e.lastSeen = seenAt
	e.mu.Unlock()
}

func (p *Pool) setRole(id string, role engine.SwarmRole) {
	p.mu.RLock()
	e, ok := p.agents[id]
	p.mu.RUnlock()
	if !ok {
		return
	}
	e.mu.Lock()
	e.role = role
	e.mu.Unlock()
}

// ids returns the currently registered agent ids, a cheap iteration
// target for the health checker so it never holds the pool lock across
// a per-agent RPC.
func (p *Pool) ids() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]string, 0, len(p.agents))
	for id := range p.agents {
		out = append(out, id)
	}
	return out
}

// clientFor clones id's current client handle under the pool lock, the
// "lock -> clone -> drop lock -> RPC" pattern §5 mandates for any caller
// that needs to make a call against a specific agent outside of
// Get/Healthy/SelectManager's own snapshotting.
func (p *Pool) clientFor(id string) (Client, bool) {
	p.mu.RLock()
	e, ok := p.agents[id]
	p.mu.RUnlock()
	if !ok {
		return nil, false
	}
	e.mu.Lock()
	c := e.client.Clone()
	e.mu.Unlock()
	return c, true
}
