package pool

import (
	"context"
	"time"

	"docktail/internal/apierrors"
	"docktail/internal/engine"
	"docktail/pkg/logging"
)

// Subsystem is the pkg/logging tag used by the pool's background loops.
const Subsystem = "AgentPool"

// RunHealthChecker polls every registered agent's SystemInfo and
// SwarmInspect every interval, transitioning its health between
// healthy/degraded/unhealthy and refreshing role + last-seen on every
// successful round. It returns once ctx is cancelled. interval is
// floored the same way observer poll intervals are (§5).
func (p *Pool) RunHealthChecker(ctx context.Context, interval time.Duration) {
	if interval < 500*time.Millisecond {
		interval = 500 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		p.checkAll(ctx)
	}
}

// CheckNow runs one synchronous health-check pass over every registered
// agent, the same check RunHealthChecker performs on each tick. Useful
// for tests and for an explicit "refresh now" RPC.
func (p *Pool) CheckNow(ctx context.Context) {
	p.checkAll(ctx)
}

func (p *Pool) checkAll(ctx context.Context) {
	for _, id := range p.ids() {
		p.checkOne(ctx, id)
	}
}

func (p *Pool) checkOne(ctx context.Context, id string) {
	client, ok := p.clientFor(id)
	if !ok {
		return
	}

	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := client.SystemInfo(checkCtx)
	now := time.Now()
	if err != nil {
		health := HealthUnhealthy
		if apierrors.IsFailedPrecondition(err) || apierrors.IsPermissionDenied(err) {
			health = HealthDegraded
		}
		logging.Warn(Subsystem, "agent %s health check failed: %v", id, err)
		p.setHealth(id, health, now)
		return
	}
	p.setHealth(id, HealthHealthy, now)

	swarm, err := client.SwarmInspect(checkCtx)
	if err != nil {
		logging.Debug(Subsystem, "agent %s swarm inspect failed: %v", id, err)
		return
	}
	p.setRole(id, roleFromInspect(swarm))
}

func roleFromInspect(r engine.SwarmInspectResult) engine.SwarmRole {
	if r.Role == "" {
		return engine.RoleNone
	}
	return r.Role
}
