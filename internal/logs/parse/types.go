// Package parse implements the three structured-log parsers (structured
// object, key=value, plain) behind a common contract, plus the mandatory
// field extractions every parser attempts when its input permits them.
package parse

import "time"

// RequestContext captures the conventional HTTP/RPC request fields a log
// record may carry, by conventional key name.
type RequestContext struct {
	Method     string
	Path       string
	RemoteAddr string
	RequestID  string
	StatusCode *int64
	DurationMS *float64
}

// ErrorContext captures an error payload embedded in a log record.
type ErrorContext struct {
	Type       string
	Message    string
	StackTrace string
	File       string
	Line       int64
}

// Record is the common output of every parser. A zero Record with
// Success == false still carries Message (the raw line, best-effort decoded)
// and Err so the pipeline can emit it rather than drop it.
type Record struct {
	Success   bool
	Level     string
	Message   string
	Logger    string
	Timestamp *time.Time
	Request   *RequestContext
	Error     *ErrorContext
	Fields    map[string]string
	Err       string
}

// Parser is the common contract every format-specific parser implements.
// A parse failure never drops the line: callers that receive a non-nil
// error still get a Record with Success == false and Message set to the
// raw line, suitable for direct emission.
type Parser interface {
	Parse(raw []byte) (Record, error)
}

// conventional request/error field key aliases, in priority order, shared by
// the structured and logfmt parsers.
var (
	levelKeys     = []string{"level", "lvl", "severity"}
	messageKeys   = []string{"msg", "message", "log"}
	loggerKeys    = []string{"logger", "log_name", "name", "caller"}
	timestampKeys = []string{"ts", "time", "timestamp", "@timestamp"}
	methodKeys    = []string{"method", "http_method"}
	pathKeys      = []string{"path", "url", "uri", "http_path"}
	remoteKeys    = []string{"remote_addr", "client_ip", "remote_ip"}
	requestIDKeys = []string{"request_id", "req_id", "trace_id", "correlation_id"}
	statusKeys    = []string{"status", "status_code", "http_status"}
	durationKeys  = []string{"duration", "duration_ms", "latency_ms", "elapsed_ms"}
	errTypeKeys   = []string{"error_type", "err_type", "exception"}
	errMsgKeys    = []string{"error", "err", "error_message"}
	stackKeys     = []string{"stack", "stack_trace", "stacktrace", "backtrace"}
	fileKeys      = []string{"file", "source"}
	lineKeys      = []string{"line", "lineno", "line_number"}
)

func firstString(m map[string]any, keys []string) (string, bool) {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			if s, ok := v.(string); ok && s != "" {
				return s, true
			}
		}
	}
	return "", false
}

func firstInt64(m map[string]any, keys []string) (int64, bool) {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			if n, ok := toInt64(v); ok {
				return n, true
			}
		}
	}
	return 0, false
}

func firstFloat64(m map[string]any, keys []string) (float64, bool) {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			if f, ok := toFloat64(v); ok {
				return f, true
			}
		}
	}
	return 0, false
}

func toInt64(v any) (int64, bool) {
	switch t := v.(type) {
	case float64:
		return int64(t), true
	case int:
		return int64(t), true
	case int64:
		return t, true
	case string:
		return parseIntLoose(t)
	default:
		return 0, false
	}
}

func toFloat64(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case string:
		f, ok := parseFloatLoose(t)
		return f, ok
	default:
		return 0, false
	}
}

// buildRequestContext and buildErrorContext assemble the optional context
// structs from a generic key/value map (used by both the structured and
// logfmt parsers), returning nil when none of the conventional keys matched.
func buildRequestContext(m map[string]any) *RequestContext {
	method, hasMethod := firstString(m, methodKeys)
	path, hasPath := firstString(m, pathKeys)
	remote, hasRemote := firstString(m, remoteKeys)
	reqID, hasReqID := firstString(m, requestIDKeys)
	status, hasStatus := firstInt64(m, statusKeys)
	duration, hasDuration := firstFloat64(m, durationKeys)

	if !hasMethod && !hasPath && !hasRemote && !hasReqID && !hasStatus && !hasDuration {
		return nil
	}
	rc := &RequestContext{
		Method:     method,
		Path:       path,
		RemoteAddr: remote,
		RequestID:  reqID,
	}
	if hasStatus {
		rc.StatusCode = &status
	}
	if hasDuration {
		rc.DurationMS = &duration
	}
	return rc
}

func buildErrorContext(m map[string]any) *ErrorContext {
	errType, hasType := firstString(m, errTypeKeys)
	errMsg, hasMsg := firstString(m, errMsgKeys)
	stack, hasStack := firstString(m, stackKeys)
	file, hasFile := firstString(m, fileKeys)
	line, hasLine := firstInt64(m, lineKeys)

	if !hasType && !hasMsg && !hasStack && !hasFile && !hasLine {
		return nil
	}
	return &ErrorContext{
		Type:       errType,
		Message:    errMsg,
		StackTrace: stack,
		File:       file,
		Line:       line,
	}
}
