package subscribe

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docktail/internal/cluster/pool"
	"docktail/internal/config"
	"docktail/internal/engine"
	"docktail/internal/engine/fake"
)

func TestMultiLaneCompare_TwoContainerLanesTagged(t *testing.T) {
	p := pool.New()
	eng := fake.New()
	eng.AddLogLine("c1", engine.StreamStdout, []byte("lane-a line"), 20)
	eng.AddLogLine("c2", engine.StreamStdout, []byte("lane-b line"), 10)
	registerAgent(t, p, "a1", "", eng)

	limits := LimitsFrom(config.Default().Subscription)
	sources := []LaneSource{
		{AgentID: "a1", Kind: LaneContainer, ID: "c1", Label: "lane-a"},
		{AgentID: "a1", Kind: LaneContainer, ID: "c2", Label: "lane-b"},
	}

	ch, err := MultiLaneCompare(context.Background(), p, config.Default().Multiline, limits, sources, SyncTimestamp)
	require.NoError(t, err)

	// Cross-chunk ordering is explicitly best-effort (§4.12.3), so this
	// only checks both lanes arrived with correct tagging, not relative
	// order.
	got := collect(t, ch, 2)
	byLabel := map[string]LaneRecord{}
	for _, r := range got {
		byLabel[r.LaneLabel] = r
	}
	require.Contains(t, byLabel, "lane-a")
	require.Contains(t, byLabel, "lane-b")
	assert.Equal(t, "lane-a line", string(byLabel["lane-a"].Entry.RawContent))
	assert.Equal(t, 0, byLabel["lane-a"].LaneIndex)
	assert.Equal(t, "lane-b line", string(byLabel["lane-b"].Entry.RawContent))
	assert.Equal(t, 1, byLabel["lane-b"].LaneIndex)
}

func TestMultiLaneCompare_ServiceLaneAggregatesTasks(t *testing.T) {
	p := pool.New()
	eng := fake.New()
	eng.SetTask(engine.Task{ID: "t1", ServiceID: "svc1", ContainerID: "c1"})
	eng.SetTask(engine.Task{ID: "t2", ServiceID: "svc1", ContainerID: "c2"})
	eng.AddLogLine("c1", engine.StreamStdout, []byte("from task 1"), 1)
	eng.AddLogLine("c2", engine.StreamStdout, []byte("from task 2"), 2)
	registerAgent(t, p, "a1", engine.RoleManager, eng)

	e2 := fake.New()
	e2.AddLogLine("cX", engine.StreamStdout, []byte("independent lane"), 1)
	registerAgent(t, p, "a2", "", e2)

	limits := LimitsFrom(config.Default().Subscription)
	sources := []LaneSource{
		{AgentID: "a1", Kind: LaneService, ID: "svc1"},
		{AgentID: "a2", Kind: LaneContainer, ID: "cX"},
	}

	ch, err := MultiLaneCompare(context.Background(), p, config.Default().Multiline, limits, sources, SyncNone)
	require.NoError(t, err)

	got := collect(t, ch, 3)
	assert.Len(t, got, 3)
}

func TestMultiLaneCompare_TaskLaneWithNoContainerFails(t *testing.T) {
	p := pool.New()
	eng := fake.New()
	eng.SetTask(engine.Task{ID: "t1", ServiceID: "svc1"})
	registerAgent(t, p, "a1", "", eng)

	e2 := fake.New()
	e2.AddLogLine("c2", engine.StreamStdout, []byte("ok"), 1)
	registerAgent(t, p, "a2", "", e2)

	limits := LimitsFrom(config.Default().Subscription)
	sources := []LaneSource{
		{AgentID: "a1", Kind: LaneTask, ID: "t1"},
		{AgentID: "a2", Kind: LaneContainer, ID: "c2"},
	}

	_, err := MultiLaneCompare(context.Background(), p, config.Default().Multiline, limits, sources, SyncTimestamp)
	assert.Error(t, err)
}

func TestMultiLaneCompare_RequiresAtLeastTwoWorkingLanes(t *testing.T) {
	p := pool.New()
	eng := fake.New()
	eng.AddLogLine("c1", engine.StreamStdout, []byte("solo"), 1)
	registerAgent(t, p, "a1", "", eng)

	limits := LimitsFrom(config.Default().Subscription)
	sources := []LaneSource{
		{AgentID: "a1", Kind: LaneContainer, ID: "c1"},
		{AgentID: "missing-agent", Kind: LaneContainer, ID: "c9"},
	}

	_, err := MultiLaneCompare(context.Background(), p, config.Default().Multiline, limits, sources, SyncTimestamp)
	assert.Error(t, err)
}

func TestMultiLaneCompare_RejectsTooManyLanes(t *testing.T) {
	p := pool.New()
	sources := make([]LaneSource, defaultMaxLanes+1)
	for i := range sources {
		sources[i] = LaneSource{AgentID: "a1", Kind: LaneContainer, ID: "c1"}
	}
	_, err := MultiLaneCompare(context.Background(), p, config.Default().Multiline, LimitsFrom(config.Default().Subscription), sources, SyncTimestamp)
	assert.Error(t, err)
}
