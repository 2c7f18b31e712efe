package parse

import (
	"encoding/json"
	"fmt"
)

// StructuredParser parses single-line JSON objects, the format §4.1 labels
// "structured-object".
type StructuredParser struct{}

var _ Parser = StructuredParser{}

func (StructuredParser) Parse(raw []byte) (Record, error) {
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return Record{Success: false, Message: string(raw), Err: err.Error()}, fmt.Errorf("structured parse: %w", err)
	}

	rec := Record{Success: true, Fields: make(map[string]string, len(m))}

	if level, ok := firstString(m, levelKeys); ok {
		rec.Level = level
	}
	if msg, ok := firstString(m, messageKeys); ok {
		rec.Message = msg
	}
	if logger, ok := firstString(m, loggerKeys); ok {
		rec.Logger = logger
	}
	if ts, ok := firstString(m, timestampKeys); ok {
		if t, ok := parseTimestamp(ts); ok {
			rec.Timestamp = &t
		}
	}
	rec.Request = buildRequestContext(m)
	rec.Error = buildErrorContext(m)

	consumed := consumedKeySet()
	for k, v := range m {
		if consumed[k] {
			continue
		}
		rec.Fields[k] = stringifyValue(v)
	}

	if rec.Message == "" {
		rec.Message = string(raw)
	}
	return rec, nil
}

// consumedKeySet returns the set of conventional keys already surfaced onto
// named Record fields, so the remaining "unknown keys" field list in §4.2
// doesn't duplicate them.
func consumedKeySet() map[string]bool {
	out := make(map[string]bool)
	for _, group := range [][]string{
		levelKeys, messageKeys, loggerKeys, timestampKeys,
		methodKeys, pathKeys, remoteKeys, requestIDKeys, statusKeys, durationKeys,
		errTypeKeys, errMsgKeys, stackKeys, fileKeys, lineKeys,
	} {
		for _, k := range group {
			out[k] = true
		}
	}
	return out
}

func stringifyValue(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case nil:
		return ""
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	}
}
