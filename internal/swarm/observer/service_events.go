package observer

import (
	"context"
	"time"

	"docktail/internal/apierrors"
	"docktail/internal/engine"
	"docktail/pkg/logging"
)

// ServiceEventType enumerates the kinds of service-level transitions
// §4.7.3 detects: scaling, rolling-update phase changes, and per-task
// failure/recovery.
type ServiceEventType string

const (
	ServiceEventScaledUp        ServiceEventType = "scaled_up"
	ServiceEventScaledDown      ServiceEventType = "scaled_down"
	ServiceEventUpdateStarted   ServiceEventType = "update_started"
	ServiceEventUpdateCompleted ServiceEventType = "update_completed"
	ServiceEventUpdateRolledBack ServiceEventType = "update_rolled_back"
	ServiceEventTaskFailed      ServiceEventType = "task_failed"
	ServiceEventTaskRecovered   ServiceEventType = "task_recovered"
)

// ServiceEvent is one detected service-level transition.
type ServiceEvent struct {
	ServiceID         string
	EventType         ServiceEventType
	PreviousReplicas  *uint64
	CurrentReplicas   *uint64
	TimestampNS       int64
	Message           string
	AffectedTasks     []engine.Task
}

type taskStateDesired struct {
	state   string
	desired string
}

// ServiceEventStream polls serviceID and emits scale, update-phase, and
// per-task failure/recovery events. Task-recovered only fires under the
// four original guards: the new task is running, there is a previous
// snapshot to compare against, that snapshot contained a failed/rejected
// task, and the running-task count actually increased — a plain scale-up
// must never be misreported as a recovery.
func (o *Observer) ServiceEventStream(ctx context.Context, serviceID string) (<-chan ServiceEvent, error) {
	if _, err := o.eng.InspectService(ctx, serviceID); err != nil {
		return nil, err
	}

	var prevDesired *uint64
	var prevUpdateState *string
	prevTasks := map[string]taskStateDesired{}
	var prevRunning *uint64

	if tasks, err := o.eng.ListTasks(ctx, serviceID); err == nil {
		var running uint64
		for _, t := range tasks {
			prevTasks[t.ID] = taskStateDesired{state: t.State, desired: t.DesiredState}
			if t.State == "running" {
				running++
			}
		}
		prevRunning = &running
	}
	if svc, err := o.eng.InspectService(ctx, serviceID); err == nil {
		d := uint64(svc.Replicas)
		prevDesired = &d
		if svc.UpdateState != "" {
			s := svc.UpdateState
			prevUpdateState = &s
		}
	}

	out := make(chan ServiceEvent)
	go o.serviceEventLoop(ctx, serviceID, prevDesired, prevUpdateState, prevTasks, prevRunning, out)
	return out, nil
}

func (o *Observer) serviceEventLoop(ctx context.Context, serviceID string, prevDesired *uint64, prevUpdateState *string, prevTasks map[string]taskStateDesired, prevRunning *uint64, out chan<- ServiceEvent) {
	defer close(out)

	emit := func(ev ServiceEvent) bool {
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

		now := time.Now().UnixNano()

		svc, err := o.eng.InspectService(ctx, serviceID)
		if err != nil {
			if apierrors.IsNotFound(err) {
				logging.Info(Subsystem, "service %s no longer exists, ending event stream", serviceID)
				return
			}
			logging.Warn(Subsystem, "failed to inspect service %s: %v", serviceID, err)
			continue
		}

		currentDesired := uint64(svc.Replicas)
		if prevDesired != nil && currentDesired != *prevDesired {
			et := ServiceEventScaledDown
			if currentDesired > *prevDesired {
				et = ServiceEventScaledUp
			}
			prev := *prevDesired
			if !emit(ServiceEvent{
				ServiceID: serviceID, EventType: et,
				PreviousReplicas: &prev, CurrentReplicas: &currentDesired,
				TimestampNS: now,
				Message:     "service scaled",
			}) {
				return
			}
		}
		prevDesired = &currentDesired

		var currentUpdateState *string
		if svc.UpdateState != "" {
			s := svc.UpdateState
			currentUpdateState = &s
		}
		if !equalStrPtr(currentUpdateState, prevUpdateState) && currentUpdateState != nil {
			var et ServiceEventType
			var have bool
			switch *currentUpdateState {
			case "updating":
				et, have = ServiceEventUpdateStarted, true
			case "completed":
				et, have = ServiceEventUpdateCompleted, true
			case "rollback_completed", "rolledback":
				et, have = ServiceEventUpdateRolledBack, true
			}
			if have {
				if !emit(ServiceEvent{
					ServiceID: serviceID, EventType: et,
					PreviousReplicas: prevDesired, CurrentReplicas: &currentDesired,
					TimestampNS: now, Message: svc.UpdateMessage,
				}) {
					return
				}
			}
		}
		prevUpdateState = currentUpdateState

		tasks, err := o.eng.ListTasks(ctx, serviceID)
		if err != nil {
			logging.Warn(Subsystem, "failed to list tasks for service %s: %v", serviceID, err)
			continue
		}

		var currentRunning uint64
		for _, t := range tasks {
			if t.State == "running" {
				currentRunning++
			}
		}

		newTasks := make(map[string]taskStateDesired, len(tasks))
		for i := range tasks {
			t := tasks[i]
			if prevT, seen := prevTasks[t.ID]; seen {
				if prevT.state != t.State && (t.State == "failed" || t.State == "rejected") {
					if !emit(ServiceEvent{
						ServiceID: serviceID, EventType: ServiceEventTaskFailed,
						PreviousReplicas: prevRunning, CurrentReplicas: &currentRunning,
						TimestampNS: now, Message: taskFailureMessage(t),
						AffectedTasks: []engine.Task{t},
					}) {
						return
					}
				}
			} else if t.State == "running" && prevRunning != nil {
				hadPriorFailure := false
				for _, pt := range prevTasks {
					if pt.state == "failed" || pt.state == "rejected" {
						hadPriorFailure = true
						break
					}
				}
				if hadPriorFailure && currentRunning > *prevRunning {
					if !emit(ServiceEvent{
						ServiceID: serviceID, EventType: ServiceEventTaskRecovered,
						PreviousReplicas: prevRunning, CurrentReplicas: &currentRunning,
						TimestampNS: now, Message: "new task is running (recovery)",
						AffectedTasks: []engine.Task{t},
					}) {
						return
					}
				}
			}
			newTasks[t.ID] = taskStateDesired{state: t.State, desired: t.DesiredState}
		}

		prevTasks = newTasks
		prevRunning = &currentRunning
	}
}

func taskFailureMessage(t engine.Task) string {
	if t.StatusErr != "" {
		return "task " + t.ID + " failed: " + t.StatusErr
	}
	return "task " + t.ID + " failed: unknown error"
}

func equalStrPtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
