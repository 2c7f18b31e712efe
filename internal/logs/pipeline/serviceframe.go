package pipeline

import (
	"strconv"
	"strings"
	"time"
)

// ServiceLogPrefix is the per-task header the engine prepends to every
// line of an aggregated service-log stream: "<service>.<slot>.<task_id>
// @<node_id> | ". Service names may themselves contain dots, so the
// prefix must be parsed right-to-left (§6, §9 design notes) rather than
// split naively on the first '.'.
type ServiceLogPrefix struct {
	ServiceName string
	Slot        int
	TaskID      string
	NodeID      string
}

// ParseServiceLogFrame recovers the per-task prefix from one line of an
// aggregated service-log stream and returns the remaining message bytes.
// ok is false when raw doesn't carry the framing at all (the task/
// container log path never does, and some engines' single-task log
// streams don't either) — callers must tolerate both raw-bytes and
// framed encoding per §6.
func ParseServiceLogFrame(raw []byte) (prefix ServiceLogPrefix, rest []byte, ok bool) {
	s := string(raw)

	sep := strings.Index(s, " | ")
	if sep < 0 {
		return ServiceLogPrefix{}, raw, false
	}
	head, tail := s[:sep], s[sep+3:]

	at := strings.LastIndex(head, "@")
	if at < 0 {
		return ServiceLogPrefix{}, raw, false
	}
	left, nodeID := head[:at], head[at+1:]

	// rsplit left into (service_name, slot, task_id): the task id and
	// slot never contain dots, the service name might.
	taskSep := strings.LastIndex(left, ".")
	if taskSep < 0 {
		return ServiceLogPrefix{}, raw, false
	}
	taskID, withoutTask := left[taskSep+1:], left[:taskSep]

	slotSep := strings.LastIndex(withoutTask, ".")
	if slotSep < 0 {
		return ServiceLogPrefix{}, raw, false
	}
	slotStr, serviceName := withoutTask[slotSep+1:], withoutTask[:slotSep]

	slot, err := strconv.Atoi(slotStr)
	if err != nil {
		return ServiceLogPrefix{}, raw, false
	}
	if serviceName == "" || taskID == "" || nodeID == "" {
		return ServiceLogPrefix{}, raw, false
	}

	return ServiceLogPrefix{ServiceName: serviceName, Slot: slot, TaskID: taskID, NodeID: nodeID}, []byte(tail), true
}

// StripEngineTimestamp removes a leading RFC3339 timestamp token from a
// log message and returns its nanosecond value, but only when
// wantTimestamps is true — otherwise the first space-delimited token may
// be part of the application's own payload and must be left intact
// (§9 design notes: "timestamp stripping").
func StripEngineTimestamp(content []byte, wantTimestamps bool) (tsNS int64, rest []byte) {
	if !wantTimestamps {
		return 0, content
	}
	s := string(content)
	sp := strings.IndexByte(s, ' ')
	if sp < 0 {
		return 0, content
	}
	t, err := time.Parse(time.RFC3339Nano, s[:sp])
	if err != nil {
		return 0, content
	}
	return t.UnixNano(), []byte(s[sp+1:])
}
