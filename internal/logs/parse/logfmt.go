package parse

import "fmt"

// LogfmtParser parses space-separated key=value pairs, with optional
// double-quoted values (`msg="hello world"`). Grounded on the common
// logfmt convention used by zerolog/logrus/zap's console encoders.
type LogfmtParser struct{}

var _ Parser = LogfmtParser{}

func (LogfmtParser) Parse(raw []byte) (Record, error) {
	pairs, err := tokenizeLogfmt(raw)
	if err != nil {
		return Record{Success: false, Message: string(raw), Err: err.Error()}, fmt.Errorf("logfmt parse: %w", err)
	}

	m := make(map[string]any, len(pairs))
	for _, p := range pairs {
		m[p.key] = p.value
	}

	rec := Record{Success: true, Fields: make(map[string]string, len(pairs))}
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
	for _, p := range pairs {
		if consumed[p.key] {
			continue
		}
		rec.Fields[p.key] = p.value
	}

	if rec.Message == "" {
		rec.Message = string(raw)
	}
	return rec, nil
}

type logfmtPair struct {
	key   string
	value string
}

// tokenizeLogfmt splits a logfmt line into key/value pairs. Values may be
// bare words or double-quoted strings containing escaped quotes and spaces;
// a key with no '=' (a bare token) is skipped rather than treated as an
// error, since logfmt output routinely mixes free text with pairs.
func tokenizeLogfmt(raw []byte) ([]logfmtPair, error) {
	var pairs []logfmtPair
	i, n := 0, len(raw)
	for i < n {
		for i < n && raw[i] == ' ' {
			i++
		}
		if i >= n {
			break
		}
		keyStart := i
		for i < n && raw[i] != '=' && raw[i] != ' ' {
			i++
		}
		key := string(raw[keyStart:i])
		if i >= n || raw[i] != '=' {
			// bare token, no '=' follows before the next space: skip it.
			continue
		}
		i++ // consume '='
		var value string
		if i < n && raw[i] == '"' {
			i++
			valStart := i
			var buf []byte
			for i < n && raw[i] != '"' {
				if raw[i] == '\\' && i+1 < n {
					buf = append(buf, raw[valStart:i]...)
					buf = append(buf, raw[i+1])
					i += 2
					valStart = i
					continue
				}
				i++
			}
			buf = append(buf, raw[valStart:i]...)
			value = string(buf)
			if i < n {
				i++ // consume closing quote
			}
		} else {
			valStart := i
			for i < n && raw[i] != ' ' {
				i++
			}
			value = string(raw[valStart:i])
		}
		if key != "" {
			pairs = append(pairs, logfmtPair{key: key, value: value})
		}
	}
	return pairs, nil
}
