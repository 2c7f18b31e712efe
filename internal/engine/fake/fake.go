// Package fake provides a deterministic in-memory implementation of
// engine.Engine. It exists so every component above the engine adapter
// (C7 observer, C8 compose deployer, the cluster layers) can be tested
// without a running container engine — the conformance target called for
// by the design notes on engine-adapter polymorphism.
package fake

import (
	"context"
	"sync"
	"sync/atomic"

	"docktail/internal/engine"
)

// Engine is a fully in-memory engine.Engine. All builder/mutator methods
// are safe to call concurrently with the interface methods; tests typically
// seed state, then mutate it between polls to drive the orchestration
// observer's diff logic deterministically.
type Engine struct {
	mu sync.Mutex

	containers map[string]*engine.ContainerDetail
	images     []engine.ImageSummary
	networks   []engine.NetworkSummary
	volumes    []engine.VolumeSummary
	nodes      map[string]engine.Node
	services   map[string]engine.Service
	tasks      map[string]engine.Task // keyed by task id
	secrets    map[string]engine.Secret
	configs    map[string]engine.Config
	swarm      *engine.SwarmInspectResult

	logLines map[string][]engine.RawLogLine // containerID -> canned lines
	seq      uint64

	events chan engine.EngineEvent
}

var _ engine.Engine = (*Engine)(nil)

// New returns an empty fake engine.
func New() *Engine {
	return &Engine{
		containers: map[string]*engine.ContainerDetail{},
		nodes:      map[string]engine.Node{},
		services:   map[string]engine.Service{},
		tasks:      map[string]engine.Task{},
		secrets:    map[string]engine.Secret{},
		configs:    map[string]engine.Config{},
		logLines:   map[string][]engine.RawLogLine{},
		events:     make(chan engine.EngineEvent, 256),
	}
}

// --- builder API -----------------------------------------------------

func (e *Engine) AddContainer(c engine.ContainerDetail) {
	e.mu.Lock()
	defer e.mu.Unlock()
	cp := c
	e.containers[c.ID] = &cp
}

func (e *Engine) AddLogLine(containerID string, stream engine.StreamKind, content []byte, tsNS int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	seq := atomic.AddUint64(&e.seq, 1) - 1
	e.logLines[containerID] = append(e.logLines[containerID], engine.RawLogLine{
		ContainerID: containerID,
		TimestampNS: tsNS,
		Stream:      stream,
		Content:     content,
		Sequence:    seq,
	})
}

func (e *Engine) SetSwarm(result engine.SwarmInspectResult) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.swarm = &result
}

func (e *Engine) SetNode(n engine.Node) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.nodes[n.ID] = n
}

func (e *Engine) DeleteNode(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.nodes, id)
}

func (e *Engine) SetService(s engine.Service) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.services[s.ID] = s
}

func (e *Engine) RemoveServiceState(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.services, id)
}

func (e *Engine) SetTask(t engine.Task) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tasks[t.ID] = t
}

func (e *Engine) RemoveTask(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.tasks, id)
}

func (e *Engine) PushEvent(ev engine.EngineEvent) {
	select {
	case e.events <- ev:
	default:
	}
}

// --- inventory ---------------------------------------------------------

func (e *Engine) ListContainers(ctx context.Context, all bool) ([]engine.ContainerSummary, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]engine.ContainerSummary, 0, len(e.containers))
	for _, c := range e.containers {
		if !all && c.State != "running" {
			continue
		}
		out = append(out, c.ContainerSummary)
	}
	return out, nil
}

func (e *Engine) InspectContainer(ctx context.Context, id string) (engine.ContainerDetail, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	c, ok := e.containers[id]
	if !ok {
		return engine.ContainerDetail{}, engine.NotFound("container %s", id)
	}
	return *c, nil
}

func (e *Engine) ListImages(ctx context.Context) ([]engine.ImageSummary, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]engine.ImageSummary(nil), e.images...), nil
}

func (e *Engine) ListNetworks(ctx context.Context) ([]engine.NetworkSummary, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]engine.NetworkSummary(nil), e.networks...), nil
}

func (e *Engine) ListVolumes(ctx context.Context) ([]engine.VolumeSummary, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]engine.VolumeSummary(nil), e.volumes...), nil
}

func (e *Engine) SystemInfo(ctx context.Context) (engine.SystemInfo, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	info := engine.SystemInfo{
		ServerVersion:   "fake/1.0",
		ContainersTotal: len(e.containers),
		ImagesTotal:     len(e.images),
	}
	if e.swarm != nil && e.swarm.Role == engine.RoleManager {
		info.SwarmNodeID = e.swarm.NodeID
	}
	return info, nil
}

// --- logs & stats --------------------------------------------------------

func (e *Engine) StreamLogs(ctx context.Context, req engine.LogStreamRequest) (<-chan engine.RawLogLine, error) {
	e.mu.Lock()
	lines := append([]engine.RawLogLine(nil), e.logLines[req.ContainerID]...)
	e.mu.Unlock()

	out := make(chan engine.RawLogLine, len(lines))
	for _, l := range lines {
		out <- l
	}
	close(out)
	return out, nil
}

func (e *Engine) StreamServiceLogs(ctx context.Context, serviceID string, req engine.LogStreamRequest) (<-chan engine.RawLogLine, error) {
	out := make(chan engine.RawLogLine)
	close(out)
	return out, nil
}

func (e *Engine) StreamTaskLogs(ctx context.Context, taskID string, req engine.LogStreamRequest) (<-chan engine.RawLogLine, error) {
	e.mu.Lock()
	t, ok := e.tasks[taskID]
	e.mu.Unlock()
	if !ok {
		return nil, engine.NotFound("task %s", taskID)
	}
	return e.StreamLogs(ctx, engine.LogStreamRequest{ContainerID: t.ContainerID})
}

func (e *Engine) StreamStats(ctx context.Context, containerID string) (<-chan engine.Stats, error) {
	out := make(chan engine.Stats)
	close(out)
	return out, nil
}

func (e *Engine) OneShotStats(ctx context.Context, containerID string) (engine.Stats, error) {
	return engine.Stats{ContainerID: containerID}, nil
}

// --- lifecycle -----------------------------------------------------------

func (e *Engine) mutateContainerState(id, state string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	c, ok := e.containers[id]
	if !ok {
		return engine.NotFound("container %s", id)
	}
	c.State = state
	return nil
}

func (e *Engine) StartContainer(ctx context.Context, id string) error   { return e.mutateContainerState(id, "running") }
func (e *Engine) StopContainer(ctx context.Context, id string) error    { return e.mutateContainerState(id, "exited") }
func (e *Engine) RestartContainer(ctx context.Context, id string) error { return e.mutateContainerState(id, "running") }
func (e *Engine) PauseContainer(ctx context.Context, id string) error   { return e.mutateContainerState(id, "paused") }
func (e *Engine) UnpauseContainer(ctx context.Context, id string) error { return e.mutateContainerState(id, "running") }

func (e *Engine) RemoveContainer(ctx context.Context, id string, force bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.containers[id]; !ok {
		return engine.NotFound("container %s", id)
	}
	delete(e.containers, id)
	return nil
}

func (e *Engine) CreateNetwork(ctx context.Context, name, driver string, labels map[string]string) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, n := range e.networks {
		if n.Name == name {
			return n.ID, nil
		}
	}
	id := "net-" + name
	e.networks = append(e.networks, engine.NetworkSummary{ID: id, Name: name, Driver: driver, Labels: labels})
	return id, nil
}

func (e *Engine) RemoveNetwork(ctx context.Context, id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i, n := range e.networks {
		if n.ID == id {
			e.networks = append(e.networks[:i], e.networks[i+1:]...)
			return nil
		}
	}
	return engine.NotFound("network %s", id)
}

func (e *Engine) CreateVolume(ctx context.Context, name, driver string, labels map[string]string) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, v := range e.volumes {
		if v.Name == name {
			return v.Name, nil
		}
	}
	e.volumes = append(e.volumes, engine.VolumeSummary{Name: name, Driver: driver, Labels: labels})
	return name, nil
}

func (e *Engine) RemoveVolume(ctx context.Context, name string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i, v := range e.volumes {
		if v.Name == name {
			e.volumes = append(e.volumes[:i], e.volumes[i+1:]...)
			return nil
		}
	}
	return engine.NotFound("volume %s", name)
}

func (e *Engine) ConnectNetwork(ctx context.Context, networkID, containerID string) error    { return nil }
func (e *Engine) DisconnectNetwork(ctx context.Context, networkID, containerID string) error { return nil }

// --- orchestration ---------------------------------------------------------

func (e *Engine) SwarmInspect(ctx context.Context) (engine.SwarmInspectResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.swarm == nil {
		return engine.SwarmInspectResult{Role: engine.RoleNone}, nil
	}
	return *e.swarm, nil
}

func (e *Engine) SwarmInit(ctx context.Context, advertiseAddr string) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.swarm = &engine.SwarmInspectResult{Role: engine.RoleManager, NodeID: "node-0", ClusterID: "cluster-fake"}
	return "fake-join-token", nil
}

func (e *Engine) SwarmJoin(ctx context.Context, remoteAddrs []string, joinToken string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.swarm = &engine.SwarmInspectResult{Role: engine.RoleWorker, NodeID: "node-n"}
	return nil
}

func (e *Engine) SwarmLeave(ctx context.Context, force bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.swarm = nil
	return nil
}

func (e *Engine) ListNodes(ctx context.Context) ([]engine.Node, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]engine.Node, 0, len(e.nodes))
	for _, n := range e.nodes {
		out = append(out, n)
	}
	return out, nil
}

func (e *Engine) InspectNode(ctx context.Context, id string) (engine.Node, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	n, ok := e.nodes[id]
	if !ok {
		return engine.Node{}, engine.NotFound("node %s", id)
	}
	return n, nil
}

func (e *Engine) UpdateNodeAvailability(ctx context.Context, id, availability string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	n, ok := e.nodes[id]
	if !ok {
		return engine.NotFound("node %s", id)
	}
	n.Availability = availability
	e.nodes[id] = n
	return nil
}

func (e *Engine) RemoveNode(ctx context.Context, id string, force bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.nodes, id)
	return nil
}

func (e *Engine) ListServices(ctx context.Context) ([]engine.Service, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]engine.Service, 0, len(e.services))
	for _, s := range e.services {
		out = append(out, s)
	}
	return out, nil
}

func (e *Engine) InspectService(ctx context.Context, id string) (engine.Service, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, ok := e.services[id]
	if !ok {
		return engine.Service{}, engine.NotFound("service %s", id)
	}
	return s, nil
}

func (e *Engine) CreateService(ctx context.Context, spec engine.ServiceSpec) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, s := range e.services {
		if s.Name == spec.Name {
			return s.ID, nil
		}
	}
	id := "svc-" + spec.Name
	mode := engine.ModeReplicated
	if spec.Global {
		mode = engine.ModeGlobal
	}
	e.services[id] = engine.Service{ID: id, Name: spec.Name, Image: spec.Image, Mode: mode, Replicas: spec.Replicas, Labels: spec.Labels}
	return id, nil
}

func (e *Engine) UpdateService(ctx context.Context, id string, spec engine.ServiceSpec, forceRedeploy bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, ok := e.services[id]
	if !ok {
		return engine.NotFound("service %s", id)
	}
	s.Image = spec.Image
	s.Replicas = spec.Replicas
	e.services[id] = s
	return nil
}

func (e *Engine) RemoveService(ctx context.Context, id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.services, id)
	return nil
}

func (e *Engine) RollbackService(ctx context.Context, id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, ok := e.services[id]
	if !ok {
		return engine.NotFound("service %s", id)
	}
	s.UpdateState = "rollback_completed"
	e.services[id] = s
	return nil
}

func (e *Engine) ListTasks(ctx context.Context, serviceID string) ([]engine.Task, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]engine.Task, 0)
	for _, t := range e.tasks {
		if serviceID == "" || t.ServiceID == serviceID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (e *Engine) ListSecrets(ctx context.Context) ([]engine.Secret, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]engine.Secret, 0, len(e.secrets))
	for _, s := range e.secrets {
		out = append(out, s)
	}
	return out, nil
}

func (e *Engine) CreateSecret(ctx context.Context, name string, data []byte) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	id := "secret-" + name
	e.secrets[id] = engine.Secret{ID: id, Name: name}
	return id, nil
}

func (e *Engine) RemoveSecret(ctx context.Context, id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.secrets, id)
	return nil
}

func (e *Engine) ListConfigs(ctx context.Context) ([]engine.Config, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]engine.Config, 0, len(e.configs))
	for _, c := range e.configs {
		out = append(out, c)
	}
	return out, nil
}

func (e *Engine) CreateConfig(ctx context.Context, name string, data []byte) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	id := "config-" + name
	e.configs[id] = engine.Config{ID: id, Name: name}
	return id, nil
}

func (e *Engine) RemoveConfig(ctx context.Context, id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.configs, id)
	return nil
}

func (e *Engine) StreamEvents(ctx context.Context) (<-chan engine.EngineEvent, error) {
	return e.events, nil
}

// --- exec ------------------------------------------------------------------

func (e *Engine) CreateExec(ctx context.Context, cfg engine.ExecConfig) (string, error) {
	return "exec-" + cfg.ContainerID, nil
}

func (e *Engine) StartExec(ctx context.Context, execID string) (engine.ExecStream, error) {
	return &noopExecStream{}, nil
}

func (e *Engine) ResizeExec(ctx context.Context, execID string, rows, cols uint) error {
	return nil
}

func (e *Engine) InspectExec(ctx context.Context, execID string) (engine.ExecInspectResult, error) {
	return engine.ExecInspectResult{Running: false, ExitCode: 0}, nil
}

type noopExecStream struct{}

func (noopExecStream) Write(p []byte) (int, error) { return len(p), nil }
func (noopExecStream) Read(p []byte) (int, error)  { return 0, nil }
func (noopExecStream) Close() error                { return nil }
