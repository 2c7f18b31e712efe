package cache

import (
	"testing"

	"docktail/internal/logs/format"

	"github.com/stretchr/testify/assert"
)

func TestParserCache_SetGetFormat(t *testing.T) {
	c := New()
	_, ok := c.GetFormat("c1")
	assert.False(t, ok)

	c.SetFormat("c1", format.Structured)
	f, ok := c.GetFormat("c1")
	assert.True(t, ok)
	assert.Equal(t, format.Structured, f)
}

func TestParserCache_DisabledFlagIndependentOfFormat(t *testing.T) {
	c := New()
	c.SetFormat("c1", format.KeyValue)
	assert.False(t, c.IsDisabled("c1"))

	c.Disable("c1")
	assert.True(t, c.IsDisabled("c1"))
	f, ok := c.GetFormat("c1")
	assert.True(t, ok)
	assert.Equal(t, format.KeyValue, f, "disabling must not clear the resolved format")
}

func TestParserCache_Evict(t *testing.T) {
	c := New()
	c.SetFormat("c1", format.Plain)
	c.Disable("c1")
	c.Evict("c1")

	_, ok := c.GetFormat("c1")
	assert.False(t, ok)
	assert.False(t, c.IsDisabled("c1"))
}

func TestResolve_LabelOverridesHeuristic(t *testing.T) {
	c := New()
	got := Resolve(c, "container-1", map[string]string{"docktail.log_format": "json"}, []byte("Server started!"))
	assert.Equal(t, format.Structured, got)
	cached, ok := c.GetFormat("container-1")
	assert.True(t, ok)
	assert.Equal(t, format.Structured, cached)
}

func TestResolve_LabelCaseInsensitive(t *testing.T) {
	c := New()
	got := Resolve(c, "c1", map[string]string{"docktail.log_format": "JSON"}, []byte("anything"))
	assert.Equal(t, format.Structured, got)
}

func TestResolve_LabelUnknownValueDefaultsPlain(t *testing.T) {
	c := New()
	got := Resolve(c, "c1", map[string]string{"docktail.log_format": "xml"}, []byte("anything"))
	assert.Equal(t, format.Plain, got)
}

func TestResolve_LabelPlaintextVariants(t *testing.T) {
	for _, variant := range []string{"plain", "plaintext", "plain_text", "text"} {
		c := New()
		got := Resolve(c, "c1", map[string]string{"docktail.log_format": variant}, []byte(`{"json":true}`))
		assert.Equal(t, format.Plain, got, "variant %q should resolve to Plain", variant)
	}
}

func TestResolve_CacheHitSkipsHeuristic(t *testing.T) {
	c := New()
	c.SetFormat("c1", format.Structured)
	got := Resolve(c, "c1", nil, []byte("plain looking line"))
	assert.Equal(t, format.Structured, got)
}

func TestResolve_HeuristicFallsThroughAndCaches(t *testing.T) {
	c := New()
	got := Resolve(c, "c1", nil, []byte("level=info msg=boot"))
	assert.Equal(t, format.KeyValue, got)
	cached, ok := c.GetFormat("c1")
	assert.True(t, ok)
	assert.Equal(t, format.KeyValue, cached)
}
