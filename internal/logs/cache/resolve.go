package cache

import (
	"docktail/internal/logs/format"
	"docktail/internal/metrics"
)

// Resolve implements the three-tier format resolution priority from §4.5:
// explicit label override (always wins, is re-cached, and is metered as a
// successful detection), cache hit (neither re-cached nor metered), then
// the single-line heuristic (cached, and metered as a success unless the
// result is Unknown).
func Resolve(c *ParserCache, containerID string, labels map[string]string, firstLine []byte) format.Format {
	if label, ok := labels["docktail.log_format"]; ok {
		f, _ := format.ParseOverride(label)
		c.SetFormat(containerID, f)
		metrics.RecordDetection(true)
		return f
	}

	if cached, ok := c.GetFormat(containerID); ok {
		return cached
	}

	f := format.Detect(firstLine)
	c.SetFormat(containerID, f)
	metrics.RecordDetection(f != format.Unknown)
	return f
}
