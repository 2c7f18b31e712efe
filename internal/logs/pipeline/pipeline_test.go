package pipeline

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

func collect(t *testing.T, ch <-chan NormalizedEntry) []NormalizedEntry {
	t.Helper()
	var out []NormalizedEntry
	for {
		select {
		case e, ok := <-ch:
			if !ok {
				return out
			}
			out = append(out, e)
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for pipeline output")
		}
	}
}

func TestPipeline_PlainTextPassesThroughUngrouped(t *testing.T) {
	eng := fake.New()
	eng.AddLogLine("c1", engine.StreamStdout, []byte("starting up"), 1)
	eng.AddLogLine("c1", engine.StreamStdout, []byte("listening on :8080"), 2)

	ch, err := Run(context.Background(), eng, config.MultilineConfig{TimeoutMS: 300, MaxLines: 50, RequireErrorAnchor: true},
		Request{ContainerID: "c1", Engine: engine.LogStreamRequest{ContainerID: "c1"}})
	require.NoError(t, err)

	entries := collect(t, ch)
	require.Len(t, entries, 2)
	assert.False(t, entries[0].IsGrouped)
	assert.Equal(t, "starting up", string(entries[0].RawContent))
	assert.True(t, entries[0].ParseSuccess)
}

func TestPipeline_StackTraceGroupedAcrossLines(t *testing.T) {
	eng := fake.New()
	eng.AddLogLine("c1", engine.StreamStdout, []byte("ERROR panic at main.go:10"), 1)
	eng.AddLogLine("c1", engine.StreamStdout, []byte("    at runtime.gopanic"), 2)
	eng.AddLogLine("c1", engine.StreamStdout, []byte("    at main.run"), 3)
	eng.AddLogLine("c1", engine.StreamStdout, []byte("INFO recovered"), 4)

	ch, err := Run(context.Background(), eng, config.MultilineConfig{TimeoutMS: 300, MaxLines: 50, RequireErrorAnchor: true},
		Request{ContainerID: "c1", Engine: engine.LogStreamRequest{ContainerID: "c1"}})
	require.NoError(t, err)

	entries := collect(t, ch)
	require.Len(t, entries, 2)
	assert.True(t, entries[0].IsGrouped)
	assert.Equal(t, uint32(3), entries[0].LineCount)
	assert.Equal(t, "ERROR panic at main.go:10", string(entries[0].RawContent))
	require.NotNil(t, entries[0].Parsed)
	assert.Equal(t, "ERROR panic at main.go:10", entries[0].Parsed.Message)
	assert.False(t, entries[1].IsGrouped)
	assert.Equal(t, "INFO recovered", string(entries[1].RawContent))
	require.NotNil(t, entries[1].Parsed)
	assert.Equal(t, "INFO recovered", entries[1].Parsed.Message)
}

func TestPipeline_StructuredFormatSetsPassthrough(t *testing.T) {
	eng := fake.New()
	eng.AddLogLine("c1", engine.StreamStdout, []byte(`{"level":"error","msg":"boom"}`), 1)
	eng.AddLogLine("c1", engine.StreamStdout, []byte(`{"level":"info","msg":"ok"}`), 2)

	ch, err := Run(context.Background(), eng, config.MultilineConfig{TimeoutMS: 300, MaxLines: 50, RequireErrorAnchor: true},
		Request{ContainerID: "c1", Engine: engine.LogStreamRequest{ContainerID: "c1"}})
	require.NoError(t, err)

	entries := collect(t, ch)
	require.Len(t, entries, 2)
	assert.False(t, entries[0].IsGrouped)
	assert.False(t, entries[1].IsGrouped)
	assert.True(t, entries[0].ParseSuccess)
	assert.Equal(t, "error", entries[0].Parsed.Level)
}

func TestPipeline_ANSIStrippedBeforeDetection(t *testing.T) {
	eng := fake.New()
	colored := append([]byte("\x1b[31m"), []byte(`{"level":"error","msg":"red"}`)...)
	colored = append(colored, []byte("\x1b[0m")...)
	eng.AddLogLine("c1", engine.StreamStdout, colored, 1)

	ch, err := Run(context.Background(), eng, config.MultilineConfig{TimeoutMS: 300, MaxLines: 50, RequireErrorAnchor: true},
		Request{ContainerID: "c1", Engine: engine.LogStreamRequest{ContainerID: "c1"}})
	require.NoError(t, err)

	entries := collect(t, ch)
	require.Len(t, entries, 1)
	assert.Equal(t, `{"level":"error","msg":"red"}`, string(entries[0].RawContent))
	assert.True(t, entries[0].ParseSuccess)
}

func TestPipeline_DisableParsingEmitsRawWithMetadata(t *testing.T) {
	eng := fake.New()
	eng.AddLogLine("c1", engine.StreamStdout, []byte("level=info msg=boot"), 1)

	ch, err := Run(context.Background(), eng, config.MultilineConfig{TimeoutMS: 300, MaxLines: 50, RequireErrorAnchor: true},
		Request{ContainerID: "c1", DisableParsing: true, Engine: engine.LogStreamRequest{ContainerID: "c1"}})
	require.NoError(t, err)

	entries := collect(t, ch)
	require.Len(t, entries, 1)
	assert.False(t, entries[0].ParseSuccess)
	assert.Equal(t, "parsing disabled", entries[0].ParseError)
	assert.Nil(t, entries[0].Parsed)
}

func TestPipeline_LabelOverrideWins(t *testing.T) {
	eng := fake.New()
	eng.AddLogLine("c1", engine.StreamStdout, []byte("plain looking text"), 1)

	ch, err := Run(context.Background(), eng, config.MultilineConfig{TimeoutMS: 300, MaxLines: 50, RequireErrorAnchor: true},
		Request{
			ContainerID: "c1",
			Labels:      map[string]string{"docktail.log_format": "logfmt"},
			Engine:      engine.LogStreamRequest{ContainerID: "c1"},
		})
	require.NoError(t, err)

	entries := collect(t, ch)
	require.Len(t, entries, 1)
	assert.Equal(t, "key=value", string(entries[0].DetectedFormat))
}
