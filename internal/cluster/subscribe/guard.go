package subscribe

import (
	"docktail/internal/metrics"
	"docktail/pkg/logging"

	"github.com/google/uuid"
)

// Subsystem is the pkg/logging tag used by every stream in this package.
const Subsystem = "ClusterSubscription"

// guard is the scope-bound lifetime object described in the design
// notes: opening one increments the active-subscription gauge for kind,
// and closing it (always via defer, right where the goroutine that owns
// the stream returns) decrements it. Because Go runs deferred calls on
// every exit path — normal completion, a returned error, and a
// ctx-cancellation-triggered return alike — this gives the same
// guarantee Rust's Drop gives the original: the gauge never leaks on an
// abrupt client disconnect.
type guard struct {
	id   string
	kind string
}

// newGuard opens a guard for kind, incrementing its metric and logging
// the synthetic subscription id the design notes call for.
func newGuard(kind string) *guard {
	g := &guard{id: uuid.NewString(), kind: kind}
	metrics.IncSubscription(kind)
	logging.Debug(Subsystem, "subscription %s (%s) opened", g.id, kind)
	return g
}

// Close decrements the metric this guard opened. Idempotent beyond its
// first call is not required — every call site invokes it exactly once,
// via a single defer.
func (g *guard) Close() {
	metrics.DecSubscription(g.kind)
	logging.Debug(Subsystem, "subscription %s (%s) closed", g.id, g.kind)
}
