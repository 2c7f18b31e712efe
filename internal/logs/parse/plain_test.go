package parse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlainParser_NeverFails(t *testing.T) {
	rec, err := PlainParser{}.Parse([]byte("server started successfully"))
	require.NoError(t, err)
	assert.True(t, rec.Success)
	assert.Equal(t, "server started successfully", rec.Message)
	assert.Empty(t, rec.Level)
}

func TestPlainParser_GuessesLevelFromKeyword(t *testing.T) {
	rec, err := PlainParser{}.Parse([]byte("2026-01-01 ERROR connection refused"))
	require.NoError(t, err)
	assert.Equal(t, "ERROR", rec.Level)
}

func TestPlainParser_DoesNotMatchSubstring(t *testing.T) {
	rec, err := PlainParser{}.Parse([]byte("the misERRORed thing"))
	require.NoError(t, err)
	assert.Empty(t, rec.Level)
}
