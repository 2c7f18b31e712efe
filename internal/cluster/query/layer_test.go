package query

import (
	"context"
	"testing"

	"docktail/internal/cluster/pool"
	"docktail/internal/config"
	"docktail/internal/engine"
	"docktail/internal/engine/fake"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// addAgent registers an agent and, unless health is HealthUnknown, runs a
// real health-check pass so the fake engine's always-succeeding
// SystemInfo promotes it to HealthHealthy (there's no "make the fake
// engine fail" builder knob, so HealthUnknown is this package's stand-in
// for "never became reachable").
func addAgent(t *testing.T, p *pool.Pool, id string, role engine.SwarmRole, health pool.Health, eng *fake.Engine) {
	t.Helper()
	if role != "" {
		eng.SetSwarm(engine.SwarmInspectResult{Role: role, NodeID: id})
	}
	require.NoError(t, p.Add(id, "addr", pool.SourceStatic, pool.NewClient(eng)))
	if health != pool.HealthUnknown {
		p.CheckNow(context.Background())
	}
}

func TestLayer_ListContainers_FanOutAndFilter(t *testing.T) {
	p := pool.New()

	e1 := fake.New()
	e1.AddContainer(engine.ContainerDetail{ContainerSummary: engine.ContainerSummary{ID: "c1", Names: []string{"/web-1"}, Image: "nginx", State: "running"}})
	addAgent(t, p, "agent1", engine.RoleWorker, pool.HealthHealthy, e1)

	e2 := fake.New()
	e2.AddContainer(engine.ContainerDetail{ContainerSummary: engine.ContainerSummary{ID: "c2", Names: []string{"/db-1"}, Image: "postgres", State: "running"}})
	addAgent(t, p, "agent2", engine.RoleWorker, pool.HealthHealthy, e2)

	l := New(p, config.Default().Observer)

	all, err := l.ListContainers(context.Background(), nil, true, ContainerFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	webOnly, err := l.ListContainers(context.Background(), nil, true, ContainerFilter{NameSubstr: "web"})
	require.NoError(t, err)
	require.Len(t, webOnly, 1)
	assert.Equal(t, "agent1", webOnly[0].AgentID)
}

func TestLayer_ListContainers_SkipsUnhealthyByDefault(t *testing.T) {
	p := pool.New()
	e1 := fake.New()
	addAgent(t, p, "down", engine.RoleWorker, pool.HealthUnknown, e1)

	l := New(p, config.Default().Observer)
	out, err := l.ListContainers(context.Background(), nil, true, ContainerFilter{})
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestLayer_SwarmInfo_UsesManagerSelection(t *testing.T) {
	p := pool.New()
	e1 := fake.New()
	addAgent(t, p, "worker", engine.RoleWorker, pool.HealthHealthy, e1)
	e2 := fake.New()
	addAgent(t, p, "manager", engine.RoleManager, pool.HealthHealthy, e2)

	l := New(p, config.Default().Observer)
	info, err := l.SwarmInfo(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, engine.RoleManager, info.Role)
}

func TestLayer_InspectTask_NotFound(t *testing.T) {
	p := pool.New()
	e1 := fake.New()
	addAgent(t, p, "manager", engine.RoleManager, pool.HealthHealthy, e1)

	l := New(p, config.Default().Observer)
	_, err := l.InspectTask(context.Background(), "", "ghost")
	assert.Error(t, err)
}
