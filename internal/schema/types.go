// Package schema holds the stateless, bidirectional conversions between
// internal/engine's domain records and the wire-shaped records this
// system's northbound API promises callers, per §4.9. Every converter
// here is a pure function: no Docker calls, no side effects, and no
// policy — this package is the single place wire-format drift is
// absorbed, so a wire-shape change touches one file, not every caller.
//
// Conventions applied throughout:
//   - a missing/zero-value optional on either side maps to the
//     default value for its wire or domain type;
//   - timestamps are RFC3339Nano strings on the wire, nanosecond
//     epoch counters (int64) internally;
//   - every enum lowers to one of its defined string variants, with an
//     explicit "unknown" catch-all rather than an empty string.
package schema

import "time"

// nsToRFC3339 renders a nanosecond epoch timestamp as RFC3339Nano, or
// the empty string for the zero timestamp (absent on both sides).
func nsToRFC3339(ns int64) string {
	if ns == 0 {
		return ""
	}
	return time.Unix(0, ns).UTC().Format(time.RFC3339Nano)
}

// rfc3339ToNS parses an RFC3339-family timestamp string back to a
// nanosecond epoch counter. An empty or unparseable string maps to 0,
// mirroring the "missing optional" convention above.
func rfc3339ToNS(s string) int64 {
	if s == "" {
		return 0
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return 0
	}
	return t.UnixNano()
}

// ServiceMode is the wire enum for a swarm service's scheduling mode.
type ServiceMode string

const (
	ServiceModeReplicated ServiceMode = "replicated"
	ServiceModeGlobal     ServiceMode = "global"
	ServiceModeUnknown    ServiceMode = "unknown"
)

// NodeRole is the wire enum for a swarm node's cluster role.
type NodeRole string

const (
	NodeRoleManager NodeRole = "manager"
	NodeRoleWorker  NodeRole = "worker"
	NodeRoleNone    NodeRole = "none"
	NodeRoleUnknown NodeRole = "unknown"
)

// LogStream is the wire enum for which descriptor a log line came from.
type LogStream string

const (
	LogStreamStdout LogStream = "stdout"
	LogStreamStderr LogStream = "stderr"
	LogStreamUnknown LogStream = "unknown"
)
