package query

import (
	"context"
	"sync"

	"docktail/internal/apierrors"
	"docktail/internal/cluster/pool"
	"docktail/internal/config"
	"docktail/internal/engine"
	"docktail/internal/swarm/observer"
	"docktail/pkg/logging"

	"golang.org/x/sync/errgroup"
)

// Layer is the cluster query layer (C11), built over a single shared
// agent pool.
type Layer struct {
	pool *pool.Pool
	obs  config.ObserverConfig
}

// New builds a Layer over p. obsCfg tunes the per-call observer.Observer
// instances control-plane coverage/health queries construct.
func New(p *pool.Pool, obsCfg config.ObserverConfig) *Layer {
	return &Layer{pool: p, obs: obsCfg}
}

// resolveTargets returns the agents a fan-out query should hit: the
// explicitly named ids (missing ones are skipped and logged, per §7's
// "per-agent failures never propagate"), or every healthy agent when
// ids is empty.
func (l *Layer) resolveTargets(ids []string) []pool.Agent {
	if len(ids) == 0 {
		return l.pool.Healthy()
	}
	out := make([]pool.Agent, 0, len(ids))
	for _, id := range ids {
		a, ok := l.pool.Get(id)
		if !ok {
			logging.Warn(Subsystem, "fan-out target %s not registered, skipping", id)
			continue
		}
		out = append(out, a)
	}
	return out
}

// ListContainers fans out ListContainers(all) to agentIDs (or every
// healthy agent), tags each result with its source agent, and
// post-filters against filter. A single agent's failure is logged and
// that agent contributes no results; the call itself never returns an
// error, so no reachable agents (or no targets) yields an empty list.
func (l *Layer) ListContainers(ctx context.Context, agentIDs []string, all bool, filter ContainerFilter) ([]AgentContainer, error) {
	targets := l.resolveTargets(agentIDs)

	var mu sync.Mutex
	var out []AgentContainer

	g, gctx := errgroup.WithContext(ctx)
	for _, a := range targets {
		a := a
		g.Go(func() error {
			containers, err := a.Client.ListContainers(gctx, all)
			if err != nil {
				logging.Warn(Subsystem, "agent %s: list containers failed: %v", a.ID, err)
				return nil
			}
			mu.Lock()
			defer mu.Unlock()
			for _, c := range containers {
				if filter.matches(c) {
					out = append(out, AgentContainer{AgentID: a.ID, Container: c})
				}
			}
			return nil
		})
	}
	_ = g.Wait() // per-agent errors are swallowed above; Wait never returns one
	return out, nil
}

// InspectContainer inspects a single container on a single named agent.
func (l *Layer) InspectContainer(ctx context.Context, agentID, containerID string) (engine.ContainerDetail, error) {
	a, ok := l.pool.Get(agentID)
	if !ok {
		return engine.ContainerDetail{}, apierrors.NewAgentNotFoundError(agentID)
	}
	return a.Client.InspectContainer(ctx, containerID)
}

// ListImages fans ListImages out the same way ListContainers does.
func (l *Layer) ListImages(ctx context.Context, agentIDs []string) ([]AgentImage, error) {
	targets := l.resolveTargets(agentIDs)
	var mu sync.Mutex
	var out []AgentImage
	g, gctx := errgroup.WithContext(ctx)
	for _, a := range targets {
		a := a
		g.Go(func() error {
			images, err := a.Client.ListImages(gctx)
			if err != nil {
				logging.Warn(Subsystem, "agent %s: list images failed: %v", a.ID, err)
				return nil
			}
			mu.Lock()
			defer mu.Unlock()
			for _, img := range images {
				out = append(out, AgentImage{AgentID: a.ID, Image: img})
			}
			return nil
		})
	}
	_ = g.Wait()
	return out, nil
}

// ListNetworks fans ListNetworks out across agentIDs (or every healthy agent).
func (l *Layer) ListNetworks(ctx context.Context, agentIDs []string) ([]AgentNetwork, error) {
	targets := l.resolveTargets(agentIDs)
	var mu sync.Mutex
	var out []AgentNetwork
	g, gctx := errgroup.WithContext(ctx)
	for _, a := range targets {
		a := a
		g.Go(func() error {
			nets, err := a.Client.ListNetworks(gctx)
			if err != nil {
				logging.Warn(Subsystem, "agent %s: list networks failed: %v", a.ID, err)
				return nil
			}
			mu.Lock()
			defer mu.Unlock()
			for _, n := range nets {
				out = append(out, AgentNetwork{AgentID: a.ID, Network: n})
			}
			return nil
		})
	}
	_ = g.Wait()
	return out, nil
}

// ListVolumes fans ListVolumes out across agentIDs (or every healthy agent).
func (l *Layer) ListVolumes(ctx context.Context, agentIDs []string) ([]AgentVolume, error) {
	targets := l.resolveTargets(agentIDs)
	var mu sync.Mutex
	var out []AgentVolume
	g, gctx := errgroup.WithContext(ctx)
	for _, a := range targets {
		a := a
		g.Go(func() error {
			vols, err := a.Client.ListVolumes(gctx)
			if err != nil {
				logging.Warn(Subsystem, "agent %s: list volumes failed: %v", a.ID, err)
				return nil
			}
			mu.Lock()
			defer mu.Unlock()
			for _, v := range vols {
				out = append(out, AgentVolume{AgentID: a.ID, Volume: v})
			}
			return nil
		})
	}
	_ = g.Wait()
	return out, nil
}

// --- control-plane queries: select_manager instead of fan-out (§4.11) ---

// SwarmInfo resolves agentID's manager (or auto-selects one) and inspects
// its swarm membership.
func (l *Layer) SwarmInfo(ctx context.Context, agentID string) (engine.SwarmInspectResult, error) {
	a, err := l.pool.SelectManager(agentID)
	if err != nil {
		return engine.SwarmInspectResult{}, err
	}
	return a.Client.SwarmInspect(ctx)
}

// Services lists every swarm service known to the selected manager.
func (l *Layer) Services(ctx context.Context, agentID string) ([]engine.Service, error) {
	a, err := l.pool.SelectManager(agentID)
	if err != nil {
		return nil, err
	}
	return a.Client.ListServices(ctx)
}

// InspectService inspects one service through the selected manager.
func (l *Layer) InspectService(ctx context.Context, agentID, serviceID string) (engine.Service, error) {
	a, err := l.pool.SelectManager(agentID)
	if err != nil {
		return engine.Service{}, err
	}
	return a.Client.InspectService(ctx, serviceID)
}

// Nodes lists every swarm node known to the selected manager.
func (l *Layer) Nodes(ctx context.Context, agentID string) ([]engine.Node, error) {
	a, err := l.pool.SelectManager(agentID)
	if err != nil {
		return nil, err
	}
	return a.Client.ListNodes(ctx)
}

// InspectNode inspects one node through the selected manager.
func (l *Layer) InspectNode(ctx context.Context, agentID, nodeID string) (engine.Node, error) {
	a, err := l.pool.SelectManager(agentID)
	if err != nil {
		return engine.Node{}, err
	}
	return a.Client.InspectNode(ctx, nodeID)
}

// InspectTask finds one task by id through the selected manager. The
// engine capability set has no single-task inspect RPC, so this filters
// a full ListTasks the same way the compose deployer's siblings filter
// ListServices — a real inspect() would be a direct engine call if the
// adapter grew one.
func (l *Layer) InspectTask(ctx context.Context, agentID, taskID string) (engine.Task, error) {
	a, err := l.pool.SelectManager(agentID)
	if err != nil {
		return engine.Task{}, err
	}
	tasks, err := a.Client.ListTasks(ctx, "")
	if err != nil {
		return engine.Task{}, err
	}
	for _, t := range tasks {
		if t.ID == taskID {
			return t, nil
		}
	}
	return engine.Task{}, apierrors.NewTaskNotFoundError(taskID)
}

// ServiceCoverage computes serviceID's node coverage via an observer
// built over the selected manager's client.
func (l *Layer) ServiceCoverage(ctx context.Context, agentID, serviceID string) (observer.ServiceCoverage, error) {
	a, err := l.pool.SelectManager(agentID)
	if err != nil {
		return observer.ServiceCoverage{}, err
	}
	return observer.New(a.Client, l.obs).ServiceCoverage(ctx, serviceID)
}

// StackHealth computes namespace's rollup via an observer built over the
// selected manager's client.
func (l *Layer) StackHealth(ctx context.Context, agentID, namespace string) (observer.StackHealth, error) {
	a, err := l.pool.SelectManager(agentID)
	if err != nil {
		return observer.StackHealth{}, err
	}
	return observer.New(a.Client, l.obs).StackHealth(ctx, namespace)
}
