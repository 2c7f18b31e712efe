package pipeline

import "regexp"

// ansiCSI matches a CSI escape sequence: ESC '[' then any number of
// parameter/intermediate bytes, terminated by a single final byte in
// 0x40-0x7E. Covers color codes, cursor movement, and the other sequences
// containerized applications commonly emit to a non-tty stdout.
var ansiCSI = regexp.MustCompile("\x1b\\[[0-9;?]*[ -/]*[@-~]")

// stripANSI removes ANSI escape codes from a raw log line before format
// detection and parsing see it, per §4.5 step 1. A line with no escape
// codes is returned unchanged without allocating.
func stripANSI(raw []byte) []byte {
	if !containsESC(raw) {
		return raw
	}
	return ansiCSI.ReplaceAll(raw, nil)
}

func containsESC(raw []byte) bool {
	for _, b := range raw {
		if b == 0x1b {
			return true
		}
	}
	return false
}
