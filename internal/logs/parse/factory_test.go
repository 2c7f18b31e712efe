package parse

import (
	"testing"

	"docktail/internal/logs/format"

	"github.com/stretchr/testify/assert"
)

func TestForFormat(t *testing.T) {
	assert.IsType(t, StructuredParser{}, ForFormat(format.Structured))
	assert.IsType(t, LogfmtParser{}, ForFormat(format.KeyValue))
	assert.IsType(t, PlainParser{}, ForFormat(format.Plain))
	assert.IsType(t, PlainParser{}, ForFormat(format.Syslog))
	assert.IsType(t, PlainParser{}, ForFormat(format.Unknown))
}
