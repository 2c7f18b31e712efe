package subscribe

import (
	"context"

	"docktail/internal/apierrors"
	"docktail/internal/cluster/pool"
	"docktail/internal/config"
	"docktail/internal/engine"
	"docktail/internal/logs/pipeline"
	"docktail/internal/metrics"
	"docktail/internal/swarm/observer"
	"docktail/pkg/logging"
)

// LogRecord is the minimal per-record mapping §4.12.1 calls for on the
// service/task log relays: the engine's aggregate framing recovered where
// present, left as raw bytes where it isn't (§6).
type LogRecord struct {
	AgentID        string
	ServiceName    string
	Slot           int
	TaskID         string
	NodeID         string
	Stream         engine.StreamKind
	TimestampNanos int64
	Sequence       uint64
	Content        []byte
}

func resolveAgent(p *pool.Pool, agentID string) (pool.Agent, error) {
	a, ok := p.Get(agentID)
	if !ok {
		return pool.Agent{}, apierrors.NewAgentNotFoundError(agentID)
	}
	if a.Health == pool.HealthUnhealthy {
		return pool.Agent{}, apierrors.NewUnavailableError(nil, "agent %s is unhealthy", agentID)
	}
	return a, nil
}

// ContainerLogs opens the agent-side log pipeline (ANSI strip, detect,
// parse, group) for one container and relays its normalized entries,
// accounting the subscription's lifetime via a guard.
func ContainerLogs(ctx context.Context, p *pool.Pool, agentID string, mlCfg config.MultilineConfig, req pipeline.Request) (<-chan pipeline.NormalizedEntry, error) {
	a, err := resolveAgent(p, agentID)
	if err != nil {
		return nil, err
	}
	upstream, err := pipeline.Run(ctx, a.Client, mlCfg, req)
	if err != nil {
		return nil, err
	}
	return relay(ctx, "container_logs", upstream), nil
}

// relayServiceFrames adapts one raw aggregate log channel (service or task)
// into LogRecords, recovering the per-task prefix where present (§6, §9).
func relayServiceFrames(ctx context.Context, agentID string, raw <-chan engine.RawLogLine, wantTimestamps bool, kind string) <-chan LogRecord {
	out := make(chan LogRecord)
	go func() {
		g := newGuard(kind)
		defer g.Close()
		defer close(out)
		for {
			select {
			case line, ok := <-raw:
				if !ok {
					return
				}
				rec := LogRecord{
					AgentID:        agentID,
					Stream:         line.Stream,
					TimestampNanos: line.TimestampNS,
					Sequence:       line.Sequence,
					Content:        line.Content,
				}
				if prefix, rest, ok := pipeline.ParseServiceLogFrame(line.Content); ok {
					rec.ServiceName = prefix.ServiceName
					rec.Slot = prefix.Slot
					rec.TaskID = prefix.TaskID
					rec.NodeID = prefix.NodeID
					if ts, body := pipeline.StripEngineTimestamp(rest, wantTimestamps); ts != 0 {
						rec.TimestampNanos = ts
						rec.Content = body
					} else {
						rec.Content = body
					}
				}
				metrics.RecordSubscriptionRecord(g.kind, 1)
				select {
				case out <- rec:
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// ServiceLogs relays one service's aggregated log stream, recovering the
// per-task prefix on every line that carries it.
func ServiceLogs(ctx context.Context, p *pool.Pool, agentID, serviceID string, req engine.LogStreamRequest) (<-chan LogRecord, error) {
	a, err := resolveAgent(p, agentID)
	if err != nil {
		return nil, err
	}
	raw, err := a.Client.StreamServiceLogs(ctx, serviceID, req)
	if err != nil {
		return nil, err
	}
	return relayServiceFrames(ctx, agentID, raw, req.Timestamps, "service_logs"), nil
}

// TaskLogs relays one task's log stream; the engine's task log path
// rarely carries the aggregate prefix, but the same relay tolerates both
// encodings (§6).
func TaskLogs(ctx context.Context, p *pool.Pool, agentID, taskID string, req engine.LogStreamRequest) (<-chan LogRecord, error) {
	a, err := resolveAgent(p, agentID)
	if err != nil {
		return nil, err
	}
	raw, err := a.Client.StreamTaskLogs(ctx, taskID, req)
	if err != nil {
		return nil, err
	}
	return relayServiceFrames(ctx, agentID, raw, req.Timestamps, "task_logs"), nil
}

// Stats relays one container's resource-usage sample stream.
func Stats(ctx context.Context, p *pool.Pool, agentID, containerID string) (<-chan engine.Stats, error) {
	a, err := resolveAgent(p, agentID)
	if err != nil {
		return nil, err
	}
	upstream, err := a.Client.StreamStats(ctx, containerID)
	if err != nil {
		return nil, err
	}
	return relay(ctx, "stats", upstream), nil
}

// EngineEvents relays one agent's raw engine event stream.
func EngineEvents(ctx context.Context, p *pool.Pool, agentID string) (<-chan engine.EngineEvent, error) {
	a, err := resolveAgent(p, agentID)
	if err != nil {
		return nil, err
	}
	upstream, err := a.Client.StreamEvents(ctx)
	if err != nil {
		return nil, err
	}
	return relay(ctx, "engine_events", upstream), nil
}

// NodeEvents relays the orchestration observer's node event stream for a
// manager agent, optionally filtered to one node.
func NodeEvents(ctx context.Context, p *pool.Pool, agentID string, obsCfg config.ObserverConfig, filterNodeID string) (<-chan observer.NodeEvent, error) {
	a, err := p.SelectManager(agentID)
	if err != nil {
		return nil, err
	}
	upstream, err := observer.New(a.Client, obsCfg).NodeEventStream(ctx, filterNodeID)
	if err != nil {
		return nil, err
	}
	return relay(ctx, "node_events", upstream), nil
}

// ServiceEvents relays the orchestration observer's service event stream
// for one service on a manager agent.
func ServiceEvents(ctx context.Context, p *pool.Pool, agentID string, obsCfg config.ObserverConfig, serviceID string) (<-chan observer.ServiceEvent, error) {
	a, err := p.SelectManager(agentID)
	if err != nil {
		return nil, err
	}
	upstream, err := observer.New(a.Client, obsCfg).ServiceEventStream(ctx, serviceID)
	if err != nil {
		return nil, err
	}
	return relay(ctx, "service_events", upstream), nil
}

// RestartEvents relays the orchestration observer's restart/OOM/crash-loop
// classification stream, optionally filtered to one service.
func RestartEvents(ctx context.Context, p *pool.Pool, agentID string, obsCfg config.ObserverConfig, filterServiceID string) (<-chan observer.RestartEvent, error) {
	a, err := p.SelectManager(agentID)
	if err != nil {
		return nil, err
	}
	upstream, err := observer.New(a.Client, obsCfg).ServiceRestartEventStream(ctx, filterServiceID)
	if err != nil {
		return nil, err
	}
	return relay(ctx, "restart_events", upstream), nil
}

// UpdateProgress relays the orchestration observer's rolling-update
// progress stream for one service.
func UpdateProgress(ctx context.Context, p *pool.Pool, agentID string, obsCfg config.ObserverConfig, serviceID string) (<-chan observer.ServiceUpdateEvent, error) {
	a, err := p.SelectManager(agentID)
	if err != nil {
		return nil, err
	}
	upstream, err := observer.New(a.Client, obsCfg).ServiceUpdateStream(ctx, serviceID)
	if err != nil {
		return nil, err
	}
	return relay(ctx, "update_progress", upstream), nil
}

// relay is the shared body behind every thin single-source stream above:
// a guard accounts the subscription's lifetime, every forwarded record is
// metered, and ctx cancellation stops the relay and runs the guard's
// deferred decrement on the way out.
func relay[T any](ctx context.Context, kind string, upstream <-chan T) <-chan T {
	out := make(chan T)
	go func() {
		g := newGuard(kind)
		defer g.Close()
		defer close(out)
		for {
			select {
			case v, ok := <-upstream:
				if !ok {
					return
				}
				metrics.RecordSubscriptionRecord(g.kind, 1)
				select {
				case out <- v:
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				logging.Debug(Subsystem, "subscription %s relay stopped on cancel", kind)
				return
			}
		}
	}()
	return out
}
