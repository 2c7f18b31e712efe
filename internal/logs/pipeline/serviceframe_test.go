package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseServiceLogFrame_DottedServiceName(t *testing.T) {
	prefix, rest, ok := ParseServiceLogFrame([]byte("my.app.1.abcdef123456@node-1 | 2024-01-01T00:00:00Z hello world"))
	require.True(t, ok)
	assert.Equal(t, "my.app", prefix.ServiceName)
	assert.Equal(t, 1, prefix.Slot)
	assert.Equal(t, "abcdef123456", prefix.TaskID)
	assert.Equal(t, "node-1", prefix.NodeID)
	assert.Equal(t, "2024-01-01T00:00:00Z hello world", string(rest))
}

func TestParseServiceLogFrame_SimpleServiceName(t *testing.T) {
	prefix, rest, ok := ParseServiceLogFrame([]byte("web.3.xyz987@node-2 | boot complete"))
	require.True(t, ok)
	assert.Equal(t, "web", prefix.ServiceName)
	assert.Equal(t, 3, prefix.Slot)
	assert.Equal(t, "xyz987", prefix.TaskID)
	assert.Equal(t, "node-2", prefix.NodeID)
	assert.Equal(t, "boot complete", string(rest))
}

func TestParseServiceLogFrame_NotFramed(t *testing.T) {
	_, rest, ok := ParseServiceLogFrame([]byte("plain unframed log line"))
	assert.False(t, ok)
	assert.Equal(t, "plain unframed log line", string(rest))
}

func TestStripEngineTimestamp_RespectsWantFlag(t *testing.T) {
	ns, rest := StripEngineTimestamp([]byte("2024-01-01T00:00:00Z hello"), true)
	assert.NotZero(t, ns)
	assert.Equal(t, "hello", string(rest))

	ns, rest = StripEngineTimestamp([]byte("2024-01-01T00:00:00Z hello"), false)
	assert.Zero(t, ns)
	assert.Equal(t, "2024-01-01T00:00:00Z hello", string(rest))
}

func TestStripEngineTimestamp_NoTimestampPresent(t *testing.T) {
	ns, rest := StripEngineTimestamp([]byte("not-a-timestamp rest"), true)
	assert.Zero(t, ns)
	assert.Equal(t, "not-a-timestamp rest", string(rest))
}
