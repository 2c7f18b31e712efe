package parse

import "bytes"

// PlainParser handles unstructured text. It never fails: the mandatory
// extractions it can perform without a schema are limited to a best-effort
// level guess via the same header keywords the multiline grouper scans for.
type PlainParser struct{}

var _ Parser = PlainParser{}

func (PlainParser) Parse(raw []byte) (Record, error) {
	rec := Record{Success: true, Message: string(raw)}
	if level, ok := guessLevel(raw); ok {
		rec.Level = level
	}
	return rec, nil
}

var plainLevelWords = []string{
	"ERROR", "WARNING", "WARN", "FATAL", "CRITICAL", "NOTICE", "INFO", "DEBUG", "TRACE",
}

// guessLevel performs a loose, unanchored scan for a level keyword token
// anywhere in the line — looser than the multiline grouper's header
// detector (which requires the keyword near the front after a bounded
// prefix skip), since a plain-text line carries no other structure to hang
// a level off of.
func guessLevel(line []byte) (string, bool) {
	for _, word := range plainLevelWords {
		idx := bytes.Index(line, []byte(word))
		if idx < 0 {
			continue
		}
		before := idx == 0 || !isWordByte(line[idx-1])
		after := idx+len(word) >= len(line) || !isWordByte(line[idx+len(word)])
		if before && after {
			return word, true
		}
	}
	return "", false
}

func isWordByte(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9') || b == '_'
}
