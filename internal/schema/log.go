package schema

import (
	"docktail/internal/engine"
	"docktail/internal/logs/multiline"
	"docktail/internal/logs/parse"
)

// LogLine is the wire shape of one retained line inside a grouped log
// entry — a continuation line keeps its own timestamp and sequence.
type LogLine struct {
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
	Sequence  uint64 `json:"sequence"`
}

func MapLogLineOut(l multiline.Line) LogLine {
	return LogLine{Content: string(l.Content), Timestamp: nsToRFC3339(l.TimestampNanos), Sequence: l.Sequence}
}

func MapLogLineIn(l LogLine) multiline.Line {
	return multiline.Line{Content: []byte(l.Content), TimestampNanos: rfc3339ToNS(l.Timestamp), Sequence: l.Sequence}
}

// RequestContext is the wire shape of a parsed HTTP/RPC request context.
type RequestContext struct {
	Method     string   `json:"method"`
	Path       string   `json:"path"`
	RemoteAddr string   `json:"remote_addr"`
	RequestID  string   `json:"request_id"`
	StatusCode *int64   `json:"status_code,omitempty"`
	DurationMS *float64 `json:"duration_ms,omitempty"`
}

func MapRequestContextOut(r *parse.RequestContext) *RequestContext {
	if r == nil {
		return nil
	}
	return &RequestContext{Method: r.Method, Path: r.Path, RemoteAddr: r.RemoteAddr, RequestID: r.RequestID, StatusCode: r.StatusCode, DurationMS: r.DurationMS}
}

func MapRequestContextIn(r *RequestContext) *parse.RequestContext {
	if r == nil {
		return nil
	}
	return &parse.RequestContext{Method: r.Method, Path: r.Path, RemoteAddr: r.RemoteAddr, RequestID: r.RequestID, StatusCode: r.StatusCode, DurationMS: r.DurationMS}
}

// ErrorContext is the wire shape of a parsed embedded error payload.
type ErrorContext struct {
	Type       string `json:"type"`
	Message    string `json:"message"`
	StackTrace string `json:"stack_trace"`
	File       string `json:"file"`
	Line       int64  `json:"line"`
}

func MapErrorContextOut(e *parse.ErrorContext) *ErrorContext {
	if e == nil {
		return nil
	}
	return &ErrorContext{Type: e.Type, Message: e.Message, StackTrace: e.StackTrace, File: e.File, Line: e.Line}
}

func MapErrorContextIn(e *ErrorContext) *parse.ErrorContext {
	if e == nil {
		return nil
	}
	return &parse.ErrorContext{Type: e.Type, Message: e.Message, StackTrace: e.StackTrace, File: e.File, Line: e.Line}
}

// LogEntry is the wire shape of one emitted log record — a single line,
// or a primary line plus its grouped continuations, carrying whatever
// the configured parser extracted from it.
type LogEntry struct {
	ContainerID  string            `json:"container_id"`
	Stream       LogStream         `json:"stream,omitempty"`
	Timestamp    string            `json:"timestamp"`
	Sequence     uint64            `json:"sequence"`
	Level        string            `json:"level"`
	Message      string            `json:"message"`
	Logger       string            `json:"logger"`
	Request      *RequestContext   `json:"request,omitempty"`
	Error        *ErrorContext     `json:"error,omitempty"`
	Fields       map[string]string `json:"fields,omitempty"`
	ParseErr     string            `json:"parse_err,omitempty"`
	GroupedLines []LogLine         `json:"grouped_lines,omitempty"`
	LineCount    uint32            `json:"line_count"`
	IsGrouped    bool              `json:"is_grouped"`
}

func mapStreamOut(s engine.StreamKind) LogStream {
	switch s {
	case engine.StreamStdout:
		return LogStreamStdout
	case engine.StreamStderr:
		return LogStreamStderr
	default:
		return LogStreamUnknown
	}
}

func mapStreamIn(s LogStream) engine.StreamKind {
	switch s {
	case LogStreamStdout:
		return engine.StreamStdout
	case LogStreamStderr:
		return engine.StreamStderr
	default:
		return engine.StreamKind("")
	}
}

// MapLogEntryOut folds a grouped entry's raw fields and its parsed
// record into the single wire record callers subscribe to.
func MapLogEntryOut(stream engine.StreamKind, g multiline.GroupedEntry, rec parse.Record) LogEntry {
	out := LogEntry{
		ContainerID: g.ContainerID,
		Stream:      mapStreamOut(stream),
		Timestamp:   nsToRFC3339(g.TimestampNanos),
		Sequence:    g.Sequence,
		Level:       rec.Level,
		Message:     rec.Message,
		Logger:      rec.Logger,
		Request:     MapRequestContextOut(rec.Request),
		Error:       MapErrorContextOut(rec.Error),
		Fields:      rec.Fields,
		ParseErr:    rec.Err,
		LineCount:   g.LineCount,
		IsGrouped:   g.IsGrouped,
	}
	for _, l := range g.GroupedLines {
		out.GroupedLines = append(out.GroupedLines, MapLogLineOut(l))
	}
	return out
}

// MapLogEntryIn recovers the grouped entry and parsed record a wire
// LogEntry was built from. The entry's Level severity rank is
// recomputed from the wire record's Level string rather than carried
// on the wire itself, since Severity is a derived classification, not
// data the schema promises.
func MapLogEntryIn(e LogEntry) (engine.StreamKind, multiline.GroupedEntry, parse.Record) {
	g := multiline.GroupedEntry{
		Entry: multiline.Entry{
			ContainerID:    e.ContainerID,
			TimestampNanos: rfc3339ToNS(e.Timestamp),
			Sequence:       e.Sequence,
			Level:          multiline.ParseSeverity(e.Level),
			RawContent:     []byte(e.Message),
		},
		LineCount: e.LineCount,
		IsGrouped: e.IsGrouped,
	}
	for _, l := range e.GroupedLines {
		g.GroupedLines = append(g.GroupedLines, MapLogLineIn(l))
	}

	rec := parse.Record{
		Success: e.ParseErr == "",
		Level:   e.Level,
		Message: e.Message,
		Logger:  e.Logger,
		Request: MapRequestContextIn(e.Request),
		Error:   MapErrorContextIn(e.Error),
		Fields:  e.Fields,
		Err:     e.ParseErr,
	}

	return mapStreamIn(e.Stream), g, rec
}
