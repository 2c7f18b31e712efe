package subscribe

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docktail/internal/cluster/pool"
	"docktail/internal/config"
	"docktail/internal/engine"
	"docktail/internal/engine/fake"
	"docktail/internal/logs/pipeline"
)

func registerAgent(t *testing.T, p *pool.Pool, id string, role engine.SwarmRole, eng *fake.Engine) {
	t.Helper()
	if role != "" {
		eng.SetSwarm(engine.SwarmInspectResult{Role: role, NodeID: id})
	}
	require.NoError(t, p.Add(id, "addr", pool.SourceStatic, pool.NewClient(eng)))
	p.CheckNow(context.Background())
}

func TestContainerLogs_RelaysPipelineOutput(t *testing.T) {
	p := pool.New()
	eng := fake.New()
	eng.AddLogLine("c1", engine.StreamStdout, []byte("starting up"), 1)
	registerAgent(t, p, "a1", "", eng)

	ch, err := ContainerLogs(context.Background(), p, "a1", config.Default().Multiline,
		pipeline.Request{ContainerID: "c1", Engine: engine.LogStreamRequest{ContainerID: "c1"}})
	require.NoError(t, err)

	got := collect(t, ch, 1)
	assert.Equal(t, "starting up", string(got[0].RawContent))
}

func TestContainerLogs_UnknownAgentNotFound(t *testing.T) {
	p := pool.New()
	_, err := ContainerLogs(context.Background(), p, "missing", config.Default().Multiline, pipeline.Request{})
	assert.Error(t, err)
}

func TestRelayServiceFrames_ParsesAggregateFramePrefix(t *testing.T) {
	raw := make(chan engine.RawLogLine, 1)
	raw <- engine.RawLogLine{
		ContainerID: "web.1.task123@node-1",
		Stream:      engine.StreamStdout,
		Content:     []byte("web.1.task123@node-1 | boot complete"),
		Sequence:    1,
	}
	close(raw)

	ctx := context.Background()
	out := relayServiceFrames(ctx, "a1", raw, false, "service_logs")

	got := collect(t, out, 1)
	assert.Equal(t, "web", got[0].ServiceName)
	assert.Equal(t, 1, got[0].Slot)
	assert.Equal(t, "task123", got[0].TaskID)
	assert.Equal(t, "node-1", got[0].NodeID)
	assert.Equal(t, "boot complete", string(got[0].Content))
}

func TestRelayServiceFrames_PassesThroughUnframedContent(t *testing.T) {
	raw := make(chan engine.RawLogLine, 1)
	raw <- engine.RawLogLine{ContainerID: "t1", Content: []byte("plain message"), Sequence: 1}
	close(raw)

	out := relayServiceFrames(context.Background(), "a1", raw, false, "task_logs")

	got := collect(t, out, 1)
	assert.Empty(t, got[0].ServiceName)
	assert.Equal(t, "plain message", string(got[0].Content))
}

func TestTaskLogs_RelaysViaContainerID(t *testing.T) {
	p := pool.New()
	eng := fake.New()
	eng.SetTask(engine.Task{ID: "task1", ServiceID: "svc1", ContainerID: "c1"})
	eng.AddLogLine("c1", engine.StreamStdout, []byte("task booted"), 1)
	registerAgent(t, p, "a1", "", eng)

	ch, err := TaskLogs(context.Background(), p, "a1", "task1", engine.LogStreamRequest{})
	require.NoError(t, err)

	got := collect(t, ch, 1)
	assert.Equal(t, "task booted", string(got[0].Content))
}

func TestStats_ClosesImmediatelyWhenUpstreamEmpty(t *testing.T) {
	p := pool.New()
	eng := fake.New()
	registerAgent(t, p, "a1", "", eng)

	ch, err := Stats(context.Background(), p, "a1", "c1")
	require.NoError(t, err)

	select {
	case _, ok := <-ch:
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("expected stats relay to close on empty upstream")
	}
}
