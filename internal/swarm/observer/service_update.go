package observer

import (
	"context"
	"time"

	"docktail/internal/engine"
	"docktail/pkg/logging"
)

// TaskChange is one task's recorded state transition between poll cycles.
type TaskChange struct {
	TaskID        string
	PreviousState string
	CurrentState  string
}

// ServiceUpdateEvent is one poll cycle's snapshot of a rolling service
// update, per §4.7.1.
type ServiceUpdateEvent struct {
	ServiceID           string
	UpdateState         string
	UpdateStartedAtNS   int64
	UpdateCompletedAtNS int64
	Message             string
	Breakdown           TaskBreakdown
	RecentChanges       []TaskChange
	TimestampNS         int64
}

// terminalUpdateState reports whether state means the rolling update has
// finished — the stream stops polling once it does.
func terminalUpdateState(state string) bool {
	return state == "completed" || state == "rollback_completed"
}

// ServiceUpdateStream polls serviceID's update status and task breakdown
// every configured interval, yielding one event per cycle until the
// update reaches a terminal state, the engine reports the service gone,
// or ctx is cancelled. A failed ListTasks call is logged and skipped
// rather than ending the stream.
func (o *Observer) ServiceUpdateStream(ctx context.Context, serviceID string) (<-chan ServiceUpdateEvent, error) {
	if _, err := o.eng.InspectService(ctx, serviceID); err != nil {
		return nil, err
	}

	out := make(chan ServiceUpdateEvent)
	go o.serviceUpdateLoop(ctx, serviceID, out)
	return out, nil
}

func (o *Observer) serviceUpdateLoop(ctx context.Context, serviceID string, out chan<- ServiceUpdateEvent) {
	defer close(out)

	prevTaskStates := map[string][2]string{} // taskID -> [state, updatedAt-as-string]

	// Unlike the other observer streams, this one has no separate seed
	// phase: the first cycle runs immediately (every task looks "changed"
	// against the empty map) and only sleeps between cycles thereafter.
	first := true
	for {
		if !first {
			select {
			case <-ctx.Done():
				return
			case <-time.After(o.pollInterval()):
			}
		}
		first = false

		svc, err := o.eng.InspectService(ctx, serviceID)
		if err != nil {
			logging.Warn(Subsystem, "service %s no longer inspectable, ending update stream: %v", serviceID, err)
			return
		}

		tasks, err := o.eng.ListTasks(ctx, serviceID)
		if err != nil {
			logging.Warn(Subsystem, "failed to list tasks for service %s: %v", serviceID, err)
			continue
		}

		var changes []TaskChange
		newTaskStates := make(map[string][2]string, len(tasks))
		for _, t := range tasks {
			cur := [2]string{t.State, taskVersionKey(t)}
			if prev, ok := prevTaskStates[t.ID]; !ok || prev != cur {
				prevState := "none"
				if ok {
					prevState = prev[0]
				}
				changes = append(changes, TaskChange{TaskID: t.ID, PreviousState: prevState, CurrentState: t.State})
			}
			newTaskStates[t.ID] = cur
		}
		prevTaskStates = newTaskStates

		ev := ServiceUpdateEvent{
			ServiceID:           serviceID,
			UpdateState:         defaultUpdateState(svc.UpdateState),
			UpdateStartedAtNS:   svc.UpdateStartedAtNS,
			UpdateCompletedAtNS: svc.UpdateCompletedAtNS,
			Message:             svc.UpdateMessage,
			Breakdown:           breakdown(tasks),
			RecentChanges:       changes,
			TimestampNS:         time.Now().UnixNano(),
		}

		select {
		case out <- ev:
		case <-ctx.Done():
			return
		}

		if terminalUpdateState(ev.UpdateState) {
			return
		}
	}
}

func defaultUpdateState(s string) string {
	if s == "" {
		return "none"
	}
	return s
}

// taskVersionKey folds a task's per-cycle change-detection signature —
// state plus its last engine-reported update time — into one comparable
// value, mirroring the original's (state, updated_at) tuple.
func taskVersionKey(t engine.Task) string {
	return t.State + "@" + time.Unix(0, t.UpdatedAtNS).UTC().Format(time.RFC3339Nano)
}
