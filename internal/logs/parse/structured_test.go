package parse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStructuredParser_MandatoryExtractions(t *testing.T) {
	line := []byte(`{"level":"error","msg":"connection refused","logger":"db","ts":"2026-01-01T00:00:00Z","method":"GET","path":"/x","status":500,"duration_ms":12.5,"request_id":"abc","error":"boom","stack":"at foo","extra":"keep-me"}`)

	rec, err := StructuredParser{}.Parse(line)
	require.NoError(t, err)
	assert.True(t, rec.Success)
	assert.Equal(t, "error", rec.Level)
	assert.Equal(t, "connection refused", rec.Message)
	assert.Equal(t, "db", rec.Logger)
	require.NotNil(t, rec.Timestamp)
	assert.Equal(t, 2026, rec.Timestamp.Year())

	require.NotNil(t, rec.Request)
	assert.Equal(t, "GET", rec.Request.Method)
	assert.Equal(t, "/x", rec.Request.Path)
	require.NotNil(t, rec.Request.StatusCode)
	assert.Equal(t, int64(500), *rec.Request.StatusCode)
	require.NotNil(t, rec.Request.DurationMS)
	assert.Equal(t, 12.5, *rec.Request.DurationMS)
	assert.Equal(t, "abc", rec.Request.RequestID)

	require.NotNil(t, rec.Error)
	assert.Equal(t, "boom", rec.Error.Message)
	assert.Equal(t, "at foo", rec.Error.StackTrace)

	assert.Equal(t, "keep-me", rec.Fields["extra"])
	assert.NotContains(t, rec.Fields, "level")
}

func TestStructuredParser_InvalidJSONNeverDropsLine(t *testing.T) {
	line := []byte(`{"level":"info"`) // truncated
	rec, err := StructuredParser{}.Parse(line)
	require.Error(t, err)
	assert.False(t, rec.Success)
	assert.Equal(t, string(line), rec.Message)
	assert.NotEmpty(t, rec.Err)
}

func TestStructuredParser_MinimalObject(t *testing.T) {
	rec, err := StructuredParser{}.Parse([]byte(`{}`))
	require.NoError(t, err)
	assert.True(t, rec.Success)
	assert.Equal(t, `{}`, rec.Message)
}
