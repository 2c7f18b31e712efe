package format

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetect(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want Format
	}{
		{"empty", "", Plain},
		{"whitespace only", "   \t  ", Plain},
		{"isolated brace open", "{", Plain},
		{"isolated brace close", "}", Plain},
		{"empty object", "{}", Structured},
		{"json object", `{"level":"info","msg":"boot"}`, Structured},
		{"json array is not structured", `["a","b"]`, Plain},
		{"logfmt two pairs", `level=info msg=boot`, KeyValue},
		{"logfmt one pair only", `level=info server started`, Plain},
		{"query string like", `GET /x?a=1&b=2 200`, KeyValue},
		{"comparison operators excluded", `count >= 2 and count <= 5 and a == b and c != d`, Plain},
		{"plain text", "server started successfully", Plain},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Detect([]byte(tc.in)))
		})
	}
}

func TestDetect_LongJSONStillStructured(t *testing.T) {
	long := `{"msg":"` + strings.Repeat("x", 10000) + `"}`
	assert.Equal(t, Structured, Detect([]byte(long)))
}

func TestParseOverride(t *testing.T) {
	f, ok := ParseOverride("JSON")
	assert.True(t, ok)
	assert.Equal(t, Structured, f)

	f, ok = ParseOverride("LogFmt")
	assert.True(t, ok)
	assert.Equal(t, KeyValue, f)

	f, ok = ParseOverride("plain_text")
	assert.True(t, ok)
	assert.Equal(t, Plain, f)

	f, ok = ParseOverride("something-weird")
	assert.False(t, ok)
	assert.Equal(t, Plain, f)
}
