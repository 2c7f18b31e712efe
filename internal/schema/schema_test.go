package schema

import (
	"testing"

	"docktail/internal/engine"
	"docktail/internal/logs/multiline"
	"docktail/internal/logs/parse"

	"github.com/stretchr/testify/assert"
)

func TestContainerRoundTrip(t *testing.T) {
	in := engine.ContainerSummary{
		ID:      "c1",
		Names:   []string{"/web"},
		Image:   "nginx:latest",
		State:   "running",
		Status:  "Up 2 hours",
		Labels:  map[string]string{"a": "b"},
		Created: 1700000000,
	}
	out := MapContainerIn(MapContainerOut(in))
	assert.Equal(t, in, out)
}

func TestContainerDetailRoundTrip(t *testing.T) {
	in := engine.ContainerDetail{
		ContainerSummary: engine.ContainerSummary{ID: "c1", Image: "nginx"},
		Command:          []string{"nginx", "-g", "daemon off;"},
		Env:              []string{"FOO=bar"},
		Mounts:           []engine.MountInfo{{Type: "bind", Source: "/host", Destination: "/data", ReadOnly: true}},
		Networks:         map[string]string{"mystack_default": "10.0.0.2"},
		SwarmTask:        &engine.SwarmTaskRef{ServiceID: "svc1", ServiceName: "web", TaskID: "t1", TaskSlot: 1, NodeID: "n1"},
	}
	out := MapContainerDetailIn(MapContainerDetailOut(in))
	assert.Equal(t, in, out)
}

func TestServiceRoundTrip(t *testing.T) {
	in := engine.Service{
		ID: "svc1", Name: "web", Image: "nginx:latest",
		Mode: engine.ModeReplicated, Replicas: 3,
		UpdateState: "updating", UpdateStartedAtNS: 1700000000000000000,
		UpdateCompletedAtNS: 0, UpdateMessage: "rolling",
		RestartPolicy: "any", Labels: map[string]string{"x": "y"},
	}
	out := MapServiceIn(MapServiceOut(in))
	assert.Equal(t, in, out)
}

func TestServiceRoundTrip_NoneUpdateState(t *testing.T) {
	in := engine.Service{ID: "svc1", Name: "web", Mode: engine.ModeGlobal}
	out := MapServiceIn(MapServiceOut(in))
	assert.Equal(t, in, out)
}

func TestServiceMode_UnknownCatchAll(t *testing.T) {
	wire := MapServiceOut(engine.Service{Mode: engine.ServiceMode("replicated-job")})
	assert.Equal(t, ServiceModeUnknown, wire.Mode)
}

func TestNodeRoundTrip(t *testing.T) {
	in := engine.Node{ID: "n1", Hostname: "host-a", Role: engine.RoleManager, State: "ready", Availability: "active", UpdatedAtNS: 1700000000000000000}
	out := MapNodeIn(MapNodeOut(in))
	assert.Equal(t, in, out)
}

func TestNodeRole_UnknownCatchAll(t *testing.T) {
	wire := MapNodeOut(engine.Node{Role: engine.SwarmRole("observer")})
	assert.Equal(t, NodeRoleUnknown, wire.Role)
}

func TestTaskRoundTrip(t *testing.T) {
	in := engine.Task{
		ID: "t1", ServiceID: "svc1", Slot: 2, NodeID: "n1",
		State: "running", DesiredState: "running", StatusErr: "",
		UpdatedAtNS: 1700000000000000000, ContainerID: "c1",
	}
	out := MapTaskIn(MapTaskOut(in))
	assert.Equal(t, in, out)
}

func TestLogEntryRoundTrip_Grouped(t *testing.T) {
	status := int64(500)
	duration := 12.5
	g := multiline.GroupedEntry{
		Entry: multiline.Entry{
			ContainerID:    "c1",
			TimestampNanos: 1700000000000000000,
			Sequence:       7,
			Level:          multiline.SeverityError,
			RawContent:     []byte(`level=error msg="boom"`),
		},
		GroupedLines: []multiline.Line{
			{Content: []byte("at foo.go:1"), TimestampNanos: 1700000000100000000, Sequence: 8},
		},
		LineCount: 2,
		IsGrouped: true,
	}
	rec := parse.Record{
		Success: true,
		Level:   "error",
		Message: "boom",
		Logger:  "myapp",
		Request: &parse.RequestContext{Method: "GET", Path: "/x", StatusCode: &status, DurationMS: &duration},
		Error:   &parse.ErrorContext{Type: "panic", Message: "boom", Line: 42},
		Fields:  map[string]string{"k": "v"},
	}

	wire := MapLogEntryOut(engine.StreamStderr, g, rec)
	gotStream, gotG, gotRec := MapLogEntryIn(wire)

	assert.Equal(t, engine.StreamStderr, gotStream)
	assert.Equal(t, g.ContainerID, gotG.ContainerID)
	assert.Equal(t, g.TimestampNanos, gotG.TimestampNanos)
	assert.Equal(t, g.Sequence, gotG.Sequence)
	assert.Equal(t, g.Level, gotG.Level)
	assert.Equal(t, g.LineCount, gotG.LineCount)
	assert.Equal(t, g.IsGrouped, gotG.IsGrouped)
	require1Line(t, gotG.GroupedLines)
	assert.Equal(t, g.GroupedLines[0].Content, gotG.GroupedLines[0].Content)
	assert.Equal(t, g.GroupedLines[0].TimestampNanos, gotG.GroupedLines[0].TimestampNanos)

	assert.Equal(t, rec.Level, gotRec.Level)
	assert.Equal(t, rec.Message, gotRec.Message)
	assert.Equal(t, rec.Logger, gotRec.Logger)
	assert.Equal(t, *rec.Request.StatusCode, *gotRec.Request.StatusCode)
	assert.Equal(t, *rec.Request.DurationMS, *gotRec.Request.DurationMS)
	assert.Equal(t, rec.Error.Type, gotRec.Error.Type)
	assert.Equal(t, rec.Fields, gotRec.Fields)
}

func require1Line(t *testing.T, lines []multiline.Line) {
	t.Helper()
	if len(lines) != 1 {
		t.Fatalf("expected 1 grouped line, got %d", len(lines))
	}
}

func TestLogEntryRoundTrip_ParseFailureCarriesErr(t *testing.T) {
	g := multiline.GroupedEntry{Entry: multiline.Entry{ContainerID: "c1", RawContent: []byte("not json")}, LineCount: 1}
	rec := parse.Record{Success: false, Message: "not json", Err: "unexpected token"}

	wire := MapLogEntryOut(engine.StreamStdout, g, rec)
	assert.Equal(t, "unexpected token", wire.ParseErr)

	_, _, gotRec := MapLogEntryIn(wire)
	assert.False(t, gotRec.Success)
	assert.Equal(t, "unexpected token", gotRec.Err)
}
