// Package observer implements the orchestration observer (C7): four
// polling-diff state machines that watch swarm state through an
// engine.Engine and yield typed events on change, plus two one-shot
// rollup queries (service coverage, stack health).
//
// Three streams seed from a snapshot, then loop sleep-poll-diff-emit;
// ServiceUpdateStream has no seed phase and runs its first cycle before
// sleeping. A failed list call is logged and skips the cycle; a failed
// inspect of the watched service ends ServiceUpdateStream, and a not-found
// one ends ServiceEventStream.
package observer

import (
	"time"

	"docktail/internal/config"
	"docktail/internal/engine"
)

// Subsystem is the pkg/logging tag used by every poll loop in this package.
const Subsystem = "OrchestrationObserver"

// Observer holds the engine handle and poll/restart tuning every stream
// in this package is built from.
type Observer struct {
	eng engine.Engine
	cfg config.ObserverConfig
}

// New returns an Observer with cfg's poll interval floored to
// config.PollFloorMS, per §5's scheduling-model floor.
func New(eng engine.Engine, cfg config.ObserverConfig) *Observer {
	if cfg.PollIntervalMS < config.PollFloorMS {
		cfg.PollIntervalMS = config.PollFloorMS
	}
	if cfg.RestartWindowSeconds <= 0 {
		cfg.RestartWindowSeconds = 300
	}
	if cfg.CrashLoopThreshold <= 0 {
		cfg.CrashLoopThreshold = 3
	}
	return &Observer{eng: eng, cfg: cfg}
}

func (o *Observer) pollInterval() time.Duration {
	return time.Duration(o.cfg.PollIntervalMS) * time.Millisecond
}

// TaskBreakdown is the per-service task-state census §4.7.1 yields each cycle.
type TaskBreakdown struct {
	Total    int
	Running  int
	Pending  int // ready, starting, assigned, accepted, preparing
	Failed   int // failed, rejected
	Shutdown int // shutdown, complete, remove, orphaned
}

func classifyTask(state string) (running, pending, failed, shutdown bool) {
	switch state {
	case "running":
		running = true
	case "ready", "starting", "assigned", "accepted", "preparing":
		pending = true
	case "failed", "rejected":
		failed = true
	case "shutdown", "complete", "remove", "orphaned":
		shutdown = true
	}
	return
}

func breakdown(tasks []engine.Task) TaskBreakdown {
	var b TaskBreakdown
	for _, t := range tasks {
		b.Total++
		running, pending, failed, shutdown := classifyTask(t.State)
		switch {
		case running:
			b.Running++
		case pending:
			b.Pending++
		case failed:
			b.Failed++
		case shutdown:
			b.Shutdown++
		}
	}
	return b
}

// nonTerminal reports whether a task state still occupies a node (used by
// the node-drain checks in §4.7.2): anything that hasn't reached a
// shutdown/complete/failed/rejected/remove/orphaned end state.
func nonTerminal(state string) bool {
	switch state {
	case "shutdown", "complete", "failed", "rejected", "remove", "orphaned":
		return false
	default:
		return true
	}
}

// preTerminalRunning is the narrower "still schedulable or running" set
// §4.7.2's drain-completion check requires to be empty before a node is
// considered fully drained.
func preTerminalRunning(state string) bool {
	switch state {
	case "running", "starting", "preparing", "assigned", "accepted", "ready":
		return true
	default:
		return false
	}
}

func tasksForService(tasks []engine.Task, serviceID string) []engine.Task {
	out := make([]engine.Task, 0, len(tasks))
	for _, t := range tasks {
		if t.ServiceID == serviceID {
			out = append(out, t)
		}
	}
	return out
}
