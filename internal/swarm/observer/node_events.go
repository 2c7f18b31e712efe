package observer

import (
	"context"
	"time"

	"docktail/internal/engine"
	"docktail/pkg/logging"
)

// NodeEventType enumerates the kinds of node transitions §4.7.2 detects.
type NodeEventType string

const (
	NodeEventStateChange        NodeEventType = "state_change"
	NodeEventNodeDown           NodeEventType = "node_down"
	NodeEventNodeReady          NodeEventType = "node_ready"
	NodeEventAvailabilityChange NodeEventType = "availability_change"
	NodeEventDrainStarted       NodeEventType = "drain_started"
	NodeEventDrainCompleted     NodeEventType = "drain_completed"
	NodeEventRoleChange         NodeEventType = "role_change"
)

// NodeEvent is one detected node state transition.
type NodeEvent struct {
	NodeID        string
	EventType     NodeEventType
	PreviousValue string
	CurrentValue  string
	AffectedTasks []string
	TimestampNS   int64
}

type nodeSnapshot struct {
	state        string
	availability string
	role         engine.SwarmRole
}

// NodeEventStream polls ListNodes and emits diffs: ready/down state
// changes, availability transitions (with drain-start/drain-complete
// specialization and affected-task enumeration), and role changes. When
// filterNodeID is non-empty only that node's events are emitted, but all
// nodes are still polled so drain bookkeeping stays correct. Mirrors
// §4.7.2 exactly, including its "drain completes only once zero
// pre-terminal tasks remain" conservatism.
func (o *Observer) NodeEventStream(ctx context.Context, filterNodeID string) (<-chan NodeEvent, error) {
	nodes, err := o.eng.ListNodes(ctx)
	if err != nil {
		return nil, err
	}

	prev := map[string]nodeSnapshot{}
	draining := map[string]bool{} // nodeID -> already emitted drain-completed
	for _, n := range nodes {
		prev[n.ID] = nodeSnapshot{state: n.State, availability: n.Availability, role: n.Role}
		if n.Availability == "drain" {
			draining[n.ID] = false
		}
	}

	out := make(chan NodeEvent)
	go o.nodeEventLoop(ctx, filterNodeID, prev, draining, out)
	return out, nil
}

func (o *Observer) nodeEventLoop(ctx context.Context, filterNodeID string, prev map[string]nodeSnapshot, draining map[string]bool, out chan<- NodeEvent) {
	defer close(out)

	emit := func(ev NodeEvent) bool {
		if filterNodeID != "" && ev.NodeID != filterNodeID {
			return true
		}
		select {
		case out <- ev:
			return true
		case <-ctx.Done():
			return false
		}
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-time.After(o.pollInterval()):
		}

		nodes, err := o.eng.ListNodes(ctx)
		if err != nil {
			logging.Warn(Subsystem, "failed to list nodes in node event stream: %v", err)
			continue
		}
		now := time.Now().UnixNano()

		for _, n := range nodes {
			p, seen := prev[n.ID]
			if !seen {
				if !emit(NodeEvent{NodeID: n.ID, EventType: NodeEventNodeReady, PreviousValue: "", CurrentValue: n.State, TimestampNS: now}) {
					return
				}
			} else {
				if p.state != n.State {
					et := NodeEventStateChange
					switch n.State {
					case "down":
						et = NodeEventNodeDown
					case "ready":
						et = NodeEventNodeReady
					}
					if !emit(NodeEvent{NodeID: n.ID, EventType: et, PreviousValue: p.state, CurrentValue: n.State, TimestampNS: now}) {
						return
					}
				}

				if p.availability != n.Availability {
					switch {
					case n.Availability == "drain":
						draining[n.ID] = false
						affected := o.tasksOnNode(ctx, n.ID, true)
						if !emit(NodeEvent{NodeID: n.ID, EventType: NodeEventDrainStarted, PreviousValue: p.availability, CurrentValue: n.Availability, AffectedTasks: affected, TimestampNS: now}) {
							return
						}
					case p.availability == "drain":
						delete(draining, n.ID)
						if !emit(NodeEvent{NodeID: n.ID, EventType: NodeEventAvailabilityChange, PreviousValue: p.availability, CurrentValue: n.Availability, TimestampNS: now}) {
							return
						}
					default:
						if !emit(NodeEvent{NodeID: n.ID, EventType: NodeEventAvailabilityChange, PreviousValue: p.availability, CurrentValue: n.Availability, TimestampNS: now}) {
							return
						}
					}
				}

				if p.role != n.Role {
					if !emit(NodeEvent{NodeID: n.ID, EventType: NodeEventRoleChange, PreviousValue: string(p.role), CurrentValue: string(n.Role), TimestampNS: now}) {
						return
					}
				}
			}

			if n.Availability == "drain" && !draining[n.ID] {
				tasks, err := o.eng.ListTasks(ctx, "")
				if err != nil {
					logging.Warn(Subsystem, "failed to list tasks for drain check on node %s: %v", n.ID, err)
				} else {
					anyPreTerminal := false
					for _, t := range tasks {
						if t.NodeID == n.ID && preTerminalRunning(t.State) {
							anyPreTerminal = true
							break
						}
					}
					if !anyPreTerminal {
						draining[n.ID] = true
						if !emit(NodeEvent{NodeID: n.ID, EventType: NodeEventDrainCompleted, PreviousValue: "draining", CurrentValue: "drained", TimestampNS: now}) {
							return
						}
					}
				}
			}

			prev[n.ID] = nodeSnapshot{state: n.State, availability: n.Availability, role: n.Role}
		}

		pruneNodes(prev, draining, nodes)
	}
}

// tasksOnNode lists every currently non-terminal task id scheduled on
// nodeID, for the drain-started event's affected_tasks field. A list
// failure yields an empty slice — the event still fires.
func (o *Observer) tasksOnNode(ctx context.Context, nodeID string, nonTerminalOnly bool) []string {
	tasks, err := o.eng.ListTasks(ctx, "")
	if err != nil {
		logging.Warn(Subsystem, "failed to list tasks for node %s: %v", nodeID, err)
		return nil
	}
	var out []string
	for _, t := range tasks {
		if t.NodeID != nodeID {
			continue
		}
		if nonTerminalOnly && !nonTerminal(t.State) {
			continue
		}
		out = append(out, t.ID)
	}
	return out
}

func pruneNodes(prev map[string]nodeSnapshot, draining map[string]bool, nodes []engine.Node) {
	current := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		current[n.ID] = true
	}
	for id := range prev {
		if !current[id] {
			delete(prev, id)
		}
	}
	for id := range draining {
		if !current[id] {
			delete(draining, id)
		}
	}
}
