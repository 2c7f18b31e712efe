package multiline

import "bytes"

// continuationKind discriminates why a line was judged a continuation.
type continuationKind string

const (
	continuationNone          continuationKind = ""
	continuationStackFrame    continuationKind = "stack-frame"
	continuationErrorIndent   continuationKind = "error-indentation"
	continuationContinueToken continuationKind = "continue-token"
)

var levelKeywordsUpperLower = [][]byte{
	[]byte("ERROR"), []byte("WARN"), []byte("INFO"), []byte("DEBUG"), []byte("TRACE"), []byte("FATAL"),
	[]byte("error"), []byte("warn"), []byte("info"), []byte("debug"), []byte("trace"), []byte("fatal"),
	[]byte("WARNING"), []byte("CRITICAL"), []byte("NOTICE"),
	[]byte("warning"), []byte("critical"), []byte("notice"),
}

var hasLogLevelPrefixLevels = append(append([][]byte{}, levelKeywordsUpperLower...), []byte("E "), []byte("W "), []byte("I "))

func startsWithAny(haystack []byte, needles [][]byte) bool {
	for _, n := range needles {
		if bytes.HasPrefix(haystack, n) {
			return true
		}
	}
	return false
}

func containsAny(haystack []byte, needles [][]byte) bool {
	for _, n := range needles {
		if len(n) > 0 && bytes.Contains(haystack, n) {
			return true
		}
	}
	return false
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }
func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r' || b == '\v' || b == '\f'
}

// isContinuationLine detects whether current is a continuation of the
// group's primary line, per §4.4's continuation pattern table. previous is
// the primary line's raw content (not the prior continuation's).
func isContinuationLine(current, previous []byte, previousLevel Severity, requireErrorAnchor bool) continuationKind {
	if len(current) == 0 {
		return continuationNone
	}

	if startsWithAny(current, [][]byte{[]byte("   at "), []byte("\tat "), []byte("\t at ")}) {
		return continuationStackFrame
	}
	if startsWithAny(current, [][]byte{[]byte("Caused by:"), []byte("caused by:"), []byte("due to:"), []byte("Suppressed:")}) {
		return continuationStackFrame
	}
	if startsWithAny(current, [][]byte{[]byte(`  File "`), []byte("    raise "), []byte("Traceback ")}) {
		return continuationStackFrame
	}
	if startsWithAny(current, [][]byte{[]byte("goroutine "), []byte("\tgoroutine ")}) {
		if containsAny(previous, [][]byte{[]byte("panic"), []byte("runtime error")}) {
			return continuationStackFrame
		}
	}
	if startsWithAny(current, [][]byte{[]byte("   --- "), []byte("   at System."), []byte("   at Microsoft.")}) {
		return continuationStackFrame
	}
	// Rust backtrace frame index: "   <digit>[<digit>]*:"
	if len(current) > 6 && bytes.HasPrefix(current, []byte("   ")) {
		rest := current[3:]
		if len(rest) >= 3 && isDigit(rest[0]) && (rest[1] == ':' || (isDigit(rest[1]) && rest[2] == ':')) {
			return continuationStackFrame
		}
	}

	isIndented := startsWithAny(current, [][]byte{[]byte("    "), []byte("\t")})
	if isIndented {
		if requireErrorAnchor {
			isErrorAnchor := previousLevel >= warnThreshold || containsAny(previous, [][]byte{
				[]byte("panic"), []byte("ERROR"), []byte("Exception"), []byte("exception"),
				[]byte("error:"), []byte("FATAL"), []byte("fatal"), []byte("PANIC"),
				[]byte("Traceback"), []byte("thread '"),
			})
			if isErrorAnchor {
				return continuationErrorIndent
			}
		} else {
			return continuationErrorIndent
		}
	}

	if startsWithAny(current, [][]byte{
		[]byte("..."),
		{0xe2, 0x94, 0x94}, // └
		{0xe2, 0x86, 0xb3}, // ↳
		{0xe2, 0x94, 0x82}, // │
		{0xe2, 0x94, 0x9c}, // ├
	}) {
		return continuationContinueToken
	}

	return continuationNone
}

// skipLogPrefix scans past up to four prefix segments (timestamp, bracket,
// syslog month/day/time, pipe-delimited tag) and returns the offset where
// the line's real content begins. Returns 0 if it consumed (almost) the
// whole line without finding real content.
func skipLogPrefix(content []byte) int {
	if len(content) == 0 {
		return 0
	}
	length := len(content)
	pos := 0

	for pos < length && isSpace(content[pos]) {
		pos++
	}

	for iter := 0; iter < 4; iter++ {
		if pos >= length {
			return 0
		}
		for pos < length && isSpace(content[pos]) {
			pos++
		}

		if pos < length && content[pos] == '[' {
			if end := bytes.IndexByte(content[pos:], ']'); end >= 0 {
				inner := content[pos+1 : pos+end]
				if isLevelKeyword(inner) {
					break
				}
				pos += end + 1
				continue
			}
		}

		if pos < length && isDigit(content[pos]) {
			start := pos
			hasSeparator := false
			for pos < length && !isSpace(content[pos]) {
				if content[pos] == '-' || content[pos] == ':' || content[pos] == 'T' {
					hasSeparator = true
				}
				pos++
			}
			if hasSeparator && (pos-start) >= 8 {
				saved := pos
				for pos < length && isSpace(content[pos]) {
					pos++
				}
				if pos < length && isDigit(content[pos]) {
					timeStart := pos
					timeHasColon := false
					for pos < length && !isSpace(content[pos]) {
						if content[pos] == ':' {
							timeHasColon = true
						}
						pos++
					}
					timeLen := pos - timeStart
					if timeHasColon && timeLen >= 5 && timeLen <= 20 {
						continue
					}
					pos = saved
				}
				continue
			}
			pos = start
			break
		}

		if pos+3 <= length && startsWithAnySyslogMonth(content[pos:]) {
			start := pos
			pos += 3
			for pos < length && (isSpace(content[pos]) || isDigit(content[pos]) || content[pos] == ':') {
				pos++
			}
			if pos-start >= 12 {
				for pos < length && isSpace(content[pos]) {
					pos++
				}
				wordStart := pos
				for pos < length && !isSpace(content[pos]) && content[pos] != ':' {
					pos++
				}
				if pos < length && content[pos] == ':' {
					pos++
				} else if pos > wordStart {
					for pos < length && isSpace(content[pos]) {
						pos++
					}
					tagStart := pos
					for pos < length && !isSpace(content[pos]) && content[pos] != ':' {
						pos++
					}
					if pos < length && content[pos] == ':' {
						pos++
					} else {
						pos = tagStart
					}
				}
				continue
			}
			pos = start
			break
		}

		if pipePos := bytes.IndexByte(content[pos:], '|'); pipePos >= 0 {
			absolute := pos + pipePos
			if pipePos < 80 && absolute+2 < length {
				left := content[pos:absolute]
				if !containsAny(left, levelKeywordsUpperLower) {
					pos = absolute + 1
					continue
				}
			}
		}

		break
	}

	for pos < length && isSpace(content[pos]) {
		pos++
	}

	if length > 10 && pos > length*5/6 {
		return 0
	}
	return pos
}

func isLevelKeyword(s []byte) bool {
	for _, kw := range levelKeywordsUpperLower {
		if bytes.Equal(s, kw) {
			return true
		}
	}
	return false
}

var syslogMonths = [][]byte{
	[]byte("Jan"), []byte("Feb"), []byte("Mar"), []byte("Apr"), []byte("May"), []byte("Jun"),
	[]byte("Jul"), []byte("Aug"), []byte("Sep"), []byte("Oct"), []byte("Nov"), []byte("Dec"),
}

func startsWithAnySyslogMonth(s []byte) bool {
	return startsWithAny(s, syslogMonths)
}

// hasLogLevelPrefix reports whether content carries a recognizable
// log-level header, either immediately or past a skippable prefix.
func hasLogLevelPrefix(content []byte) bool {
	if len(content) == 0 {
		return false
	}
	if checkLevelAt(content, 0, hasLogLevelPrefixLevels) {
		return true
	}
	offset := skipLogPrefix(content)
	if offset > 0 && offset < len(content) {
		if content[offset] == '[' {
			afterBracket := offset + 1
			if afterBracket < len(content) && checkLevelAt(content, afterBracket, hasLogLevelPrefixLevels) {
				return true
			}
		}
		if checkLevelAt(content, offset, hasLogLevelPrefixLevels) {
			return true
		}
	}
	return false
}

func checkLevelAt(content []byte, pos int, levels [][]byte) bool {
	if pos > len(content) {
		return false
	}
	slice := content[pos:]
	for _, level := range levels {
		if !bytes.HasPrefix(slice, level) {
			continue
		}
		end := pos + len(level)
		if end >= len(content) {
			return true
		}
		next := content[end]
		if !isAlnumOrUnderscore(next) {
			return true
		}
	}
	return false
}

func isAlnumOrUnderscore(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9') || b == '_'
}
