package parse

import "docktail/internal/logs/format"

// ForFormat returns the parser for a resolved format. Syslog, HTTPLog and
// Unknown fall back to PlainParser, matching §4.2's "chosen by the cached
// format" contract for the three formats C1 can actually name a parser for.
func ForFormat(f format.Format) Parser {
	switch f {
	case format.Structured:
		return StructuredParser{}
	case format.KeyValue:
		return LogfmtParser{}
	default:
		return PlainParser{}
	}
}
