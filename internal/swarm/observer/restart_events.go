package observer

import (
	"context"
	"strings"
	"time"

	"docktail/internal/engine"
	"docktail/internal/metrics"
	"docktail/pkg/logging"
)

// RestartEventType classifies a detected task restart, per §4.7.4.
type RestartEventType string

const (
	RestartEventTaskRestarted RestartEventType = "task_restarted"
	RestartEventOOMKilled     RestartEventType = "oom_killed"
	RestartEventCrashLoop     RestartEventType = "crash_loop"
)

// RestartEvent is one detected (service, slot) restart — a different
// task id occupying a slot that previously held another task.
type RestartEvent struct {
	ServiceID    string
	ServiceName  string
	EventType    RestartEventType
	NewTask      engine.Task
	OldTask      *engine.Task
	Slot         int
	RestartCount int
	TimestampNS  int64
	Message      string
}

type slotKey struct {
	serviceID string
	slot      int
}

type slotTask struct {
	taskID      string
	state       string
	updatedAtNS int64
}

// ServiceRestartEventStream polls task slots across all services (or one,
// when filterServiceID is non-empty) and emits a restart event whenever a
// slot's occupying task id changes. The replacement is classified against
// the OLD task's reported status — OOM info lives on the task Docker
// killed, not its successor — and against a sliding restart_window_seconds
// count that escalates to crash-loop at crash_loop_threshold restarts.
func (o *Observer) ServiceRestartEventStream(ctx context.Context, filterServiceID string) (<-chan RestartEvent, error) {
	serviceNames := map[string]string{}
	if svcs, err := o.eng.ListServices(ctx); err == nil {
		for _, s := range svcs {
			serviceNames[s.ID] = s.Name
		}
	}

	slotTasks := map[slotKey]slotTask{}
	if tasks, err := o.eng.ListTasks(ctx, ""); err == nil {
		for _, t := range tasks {
			if filterServiceID != "" && t.ServiceID != filterServiceID {
				continue
			}
			key := slotKey{t.ServiceID, t.Slot}
			if existing, ok := slotTasks[key]; !ok || t.UpdatedAtNS > existing.updatedAtNS {
				slotTasks[key] = slotTask{taskID: t.ID, state: t.State, updatedAtNS: t.UpdatedAtNS}
			}
		}
	}

	out := make(chan RestartEvent)
	go o.restartEventLoop(ctx, filterServiceID, serviceNames, slotTasks, out)
	return out, nil
}

func (o *Observer) restartEventLoop(ctx context.Context, filterServiceID string, serviceNames map[string]string, slotTasks map[slotKey]slotTask, out chan<- RestartEvent) {
	defer close(out)

	restartCounts := map[slotKey][]int64{}
	windowNS := int64(o.cfg.RestartWindowSeconds) * int64(time.Second)

	for {
		select {
		case <-ctx.Done():
			return
		case <-time.After(o.pollInterval()):
		}

		now := time.Now()
		nowNS := now.UnixNano()

		if svcs, err := o.eng.ListServices(ctx); err == nil {
			for _, s := range svcs {
				serviceNames[s.ID] = s.Name
			}
		}

		tasks, err := o.eng.ListTasks(ctx, "")
		if err != nil {
			logging.Warn(Subsystem, "failed to list tasks in restart event stream: %v", err)
			continue
		}

		currentSlots := map[slotKey]engine.Task{}
		for _, t := range tasks {
			if filterServiceID != "" && t.ServiceID != filterServiceID {
				continue
			}
			key := slotKey{t.ServiceID, t.Slot}
			if existing, ok := currentSlots[key]; !ok || t.UpdatedAtNS > existing.UpdatedAtNS {
				currentSlots[key] = t
			}
		}

		for key, task := range currentSlots {
			prev, seen := slotTasks[key]
			if seen && prev.taskID != task.ID {
				restarts := append(restartCounts[key], nowNS)
				restarts = pruneWindow(restarts, nowNS, windowNS)
				restartCounts[key] = restarts
				count := len(restarts)

				var oldTask *engine.Task
				for i := range tasks {
					if tasks[i].ID == prev.taskID {
						oldTask = &tasks[i]
						break
					}
				}

				svcName := serviceNames[key.serviceID]
				isOOM := oldTask != nil && isOOMError(oldTask.StatusErr)

				var et RestartEventType
				var msg string
				switch {
				case isOOM:
					et = RestartEventOOMKilled
					msg = svcName + " slot restart: OOM killed"
				case count >= o.cfg.CrashLoopThreshold:
					et = RestartEventCrashLoop
					msg = svcName + " slot crash looping"
				default:
					et = RestartEventTaskRestarted
					msg = svcName + " slot restarted"
				}

				metrics.RecordRestart(et == RestartEventCrashLoop)

				select {
				case out <- RestartEvent{
					ServiceID: key.serviceID, ServiceName: svcName, EventType: et,
					NewTask: task, OldTask: oldTask, Slot: key.slot,
					RestartCount: count, TimestampNS: nowNS, Message: msg,
				}:
				case <-ctx.Done():
					return
				}
			}

			slotTasks[key] = slotTask{taskID: task.ID, state: task.State, updatedAtNS: task.UpdatedAtNS}
		}

		for k := range slotTasks {
			if _, ok := currentSlots[k]; !ok {
				delete(slotTasks, k)
			}
		}
		for k := range restartCounts {
			if _, ok := currentSlots[k]; !ok {
				delete(restartCounts, k)
			}
		}
	}
}

func pruneWindow(timestamps []int64, now, windowNS int64) []int64 {
	out := timestamps[:0]
	for _, ts := range timestamps {
		if now-ts < windowNS {
			out = append(out, ts)
		}
	}
	return out
}

func isOOMError(msg string) bool {
	lower := strings.ToLower(msg)
	return strings.Contains(lower, "oom") || strings.Contains(lower, "out of memory")
}
