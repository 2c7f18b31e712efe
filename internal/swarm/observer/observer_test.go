package observer

import (
	"context"
	"testing"
	"time"

	"docktail/internal/config"
	"docktail/internal/engine"
	"docktail/internal/engine/fake"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testObserver(eng engine.Engine) *Observer {
	return New(eng, config.ObserverConfig{PollIntervalMS: config.PollFloorMS, RestartWindowSeconds: 300, CrashLoopThreshold: 3})
}

func recv[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v, ok := <-ch:
		require.True(t, ok, "channel closed before a value was sent")
		return v
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for observer event")
		var zero T
		return zero
	}
}

func TestServiceUpdateStream_EmitsBreakdownAndTerminates(t *testing.T) {
	eng := fake.New()
	eng.SetService(engine.Service{ID: "svc1", Name: "web", Mode: engine.ModeReplicated, Replicas: 2, UpdateState: "updating"})
	eng.SetTask(engine.Task{ID: "t1", ServiceID: "svc1", State: "running"})
	eng.SetTask(engine.Task{ID: "t2", ServiceID: "svc1", State: "starting"})

	o := testObserver(eng)
	ch, err := o.ServiceUpdateStream(context.Background(), "svc1")
	require.NoError(t, err)

	ev := recv(t, ch)
	assert.Equal(t, "updating", ev.UpdateState)
	assert.Equal(t, 2, ev.Breakdown.Total)
	assert.Equal(t, 1, ev.Breakdown.Running)
	assert.Equal(t, 1, ev.Breakdown.Pending)

	eng.SetService(engine.Service{ID: "svc1", Name: "web", Mode: engine.ModeReplicated, Replicas: 2, UpdateState: "completed"})
	ev2 := recv(t, ch)
	assert.Equal(t, "completed", ev2.UpdateState)

	_, ok := <-ch
	assert.False(t, ok, "stream should close once update reaches a terminal state")
}

func TestNodeEventStream_DetectsDownAndDrain(t *testing.T) {
	eng := fake.New()
	eng.SetNode(engine.Node{ID: "n1", State: "ready", Availability: "active", Role: engine.RoleWorker})

	o := testObserver(eng)
	ch, err := o.NodeEventStream(context.Background(), "")
	require.NoError(t, err)

	eng.SetNode(engine.Node{ID: "n1", State: "down", Availability: "active", Role: engine.RoleWorker})
	ev := recv(t, ch)
	assert.Equal(t, NodeEventNodeDown, ev.EventType)
	assert.Equal(t, "ready", ev.PreviousValue)
	assert.Equal(t, "down", ev.CurrentValue)
}

func TestNodeEventStream_DrainStartedThenCompleted(t *testing.T) {
	eng := fake.New()
	eng.SetNode(engine.Node{ID: "n1", State: "ready", Availability: "active", Role: engine.RoleWorker})
	eng.SetTask(engine.Task{ID: "t1", NodeID: "n1", State: "running"})

	o := testObserver(eng)
	ch, err := o.NodeEventStream(context.Background(), "")
	require.NoError(t, err)

	eng.SetNode(engine.Node{ID: "n1", State: "ready", Availability: "drain", Role: engine.RoleWorker})
	ev := recv(t, ch)
	require.Equal(t, NodeEventDrainStarted, ev.EventType)
	assert.Contains(t, ev.AffectedTasks, "t1")

	eng.RemoveTask("t1")
	ev2 := recv(t, ch)
	assert.Equal(t, NodeEventDrainCompleted, ev2.EventType)
	assert.Equal(t, "draining", ev2.PreviousValue)
	assert.Equal(t, "drained", ev2.CurrentValue)
}

func TestServiceEventStream_ScaleUpAndTaskFailed(t *testing.T) {
	eng := fake.New()
	eng.SetService(engine.Service{ID: "svc1", Name: "web", Mode: engine.ModeReplicated, Replicas: 1})
	eng.SetTask(engine.Task{ID: "t1", ServiceID: "svc1", State: "running"})

	o := testObserver(eng)
	ch, err := o.ServiceEventStream(context.Background(), "svc1")
	require.NoError(t, err)

	eng.SetService(engine.Service{ID: "svc1", Name: "web", Mode: engine.ModeReplicated, Replicas: 2})
	ev := recv(t, ch)
	assert.Equal(t, ServiceEventScaledUp, ev.EventType)
	require.NotNil(t, ev.PreviousReplicas)
	require.NotNil(t, ev.CurrentReplicas)
	assert.Equal(t, uint64(1), *ev.PreviousReplicas)
	assert.Equal(t, uint64(2), *ev.CurrentReplicas)

	eng.SetTask(engine.Task{ID: "t1", ServiceID: "svc1", State: "failed", StatusErr: "non-zero exit"})
	ev2 := recv(t, ch)
	assert.Equal(t, ServiceEventTaskFailed, ev2.EventType)
}

func TestServiceRestartEventStream_ClassifiesOOM(t *testing.T) {
	eng := fake.New()
	eng.SetService(engine.Service{ID: "svc1", Name: "web"})
	eng.SetTask(engine.Task{ID: "t1", ServiceID: "svc1", Slot: 1, State: "running", StatusErr: ""})

	o := testObserver(eng)
	ch, err := o.ServiceRestartEventStream(context.Background(), "")
	require.NoError(t, err)

	eng.RemoveTask("t1")
	eng.SetTask(engine.Task{ID: "t1", ServiceID: "svc1", Slot: 1, State: "failed", StatusErr: "task: out of memory", UpdatedAtNS: 1})
	eng.SetTask(engine.Task{ID: "t2", ServiceID: "svc1", Slot: 1, State: "running", UpdatedAtNS: 2})

	ev := recv(t, ch)
	assert.Equal(t, RestartEventOOMKilled, ev.EventType)
	assert.Equal(t, 1, ev.Slot)
	require.NotNil(t, ev.OldTask)
	assert.Equal(t, "t1", ev.OldTask.ID)
	assert.Equal(t, "t2", ev.NewTask.ID)
}

func TestServiceRestartEventStream_CrashLoopAfterThreshold(t *testing.T) {
	eng := fake.New()
	eng.SetService(engine.Service{ID: "svc1", Name: "web"})
	eng.SetTask(engine.Task{ID: "t0", ServiceID: "svc1", Slot: 1, State: "running"})

	o := testObserver(eng)
	ch, err := o.ServiceRestartEventStream(context.Background(), "")
	require.NoError(t, err)

	prev := "t0"
	var last RestartEvent
	for i := 1; i <= 3; i++ {
		next := "t" + string(rune('0'+i))
		eng.RemoveTask(prev)
		eng.SetTask(engine.Task{ID: next, ServiceID: "svc1", Slot: 1, State: "running"})
		last = recv(t, ch)
		prev = next
	}
	assert.Equal(t, RestartEventCrashLoop, last.EventType)
	assert.Equal(t, 3, last.RestartCount)
}

func TestServiceCoverage_ReportsUncoveredEligibleNodes(t *testing.T) {
	eng := fake.New()
	eng.SetService(engine.Service{ID: "svc1", Name: "web", Mode: engine.ModeGlobal})
	eng.SetNode(engine.Node{ID: "n1", State: "ready", Availability: "active"})
	eng.SetNode(engine.Node{ID: "n2", State: "ready", Availability: "active"})
	eng.SetTask(engine.Task{ID: "t1", ServiceID: "svc1", NodeID: "n1", State: "running"})

	o := testObserver(eng)
	cov, err := o.ServiceCoverage(context.Background(), "svc1")
	require.NoError(t, err)
	assert.True(t, cov.IsGlobal)
	assert.Equal(t, 2, cov.TotalNodes)
	assert.Equal(t, []string{"n1"}, cov.CoveredNodes)
	assert.Equal(t, []string{"n2"}, cov.UncoveredNodes)
	assert.InDelta(t, 50.0, cov.CoveragePercentage, 0.01)
}

func TestStackHealth_RollsUpWorstCase(t *testing.T) {
	eng := fake.New()
	eng.SetService(engine.Service{ID: "svc1", Name: "web", Mode: engine.ModeReplicated, Replicas: 2,
		Labels: map[string]string{stackNamespaceLabel: "mystack"}})
	eng.SetService(engine.Service{ID: "svc2", Name: "db", Mode: engine.ModeReplicated, Replicas: 1,
		Labels: map[string]string{stackNamespaceLabel: "mystack"}})
	eng.SetTask(engine.Task{ID: "t1", ServiceID: "svc1", State: "running"})
	eng.SetTask(engine.Task{ID: "t2", ServiceID: "svc1", State: "failed", DesiredState: "running"})
	eng.SetTask(engine.Task{ID: "t3", ServiceID: "svc2", State: "running"})

	o := testObserver(eng)
	health, err := o.StackHealth(context.Background(), "mystack")
	require.NoError(t, err)
	assert.Equal(t, StackHealthDegraded, health.OverallStatus)
	assert.Equal(t, 2, health.TotalServices)
	assert.Equal(t, 1, health.HealthyServices)
	assert.Equal(t, 1, health.DegradedServices)
}

func TestStackHealth_UnknownNamespaceIsNotFound(t *testing.T) {
	eng := fake.New()
	o := testObserver(eng)
	_, err := o.StackHealth(context.Background(), "nope")
	require.Error(t, err)
}
