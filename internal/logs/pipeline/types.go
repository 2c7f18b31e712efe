// Package pipeline implements the per-stream agent log pipeline (C5):
// ANSI stripping, one-shot format detection, parsing, and multiline
// grouping wired together over a single container's raw log stream.
package pipeline

import (
	"docktail/internal/engine"
	"docktail/internal/logs/format"
	"docktail/internal/logs/multiline"
	"docktail/internal/logs/parse"
)

// NormalizedEntry is what the pipeline emits for one group (a single line,
// or a primary line plus its grouped continuations).
type NormalizedEntry struct {
	ContainerID    string
	TimestampNanos int64
	Stream         engine.StreamKind
	Sequence       uint64
	RawContent     []byte

	DetectedFormat format.Format
	Parsed         *parse.Record
	ParseSuccess   bool
	ParseError     string
	ParseTimeNanos int64

	GroupedLines []multiline.Line
	LineCount    uint32
	IsGrouped    bool
}

// Request bounds one pipeline run: which container, the engine-side read
// window/filter, and the per-stream overrides §4.5 and §6 call for.
type Request struct {
	ContainerID    string
	Labels         map[string]string
	DisableParsing bool
	Engine         engine.LogStreamRequest
}
