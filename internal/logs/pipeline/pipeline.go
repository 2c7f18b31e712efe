package pipeline

import (
	"context"
	"time"

	"docktail/internal/config"
	"docktail/internal/engine"
	"docktail/internal/logs/cache"
	"docktail/internal/logs/format"
	"docktail/internal/logs/multiline"
	"docktail/internal/logs/parse"
	"docktail/internal/metrics"
	"docktail/pkg/logging"
)

const timeoutTick = 150 * time.Millisecond

// Run drives one container's raw log stream through ANSI stripping,
// one-shot detection, parsing, and multiline grouping, per §4.5. It
// returns a channel of normalized entries and closes it once the source
// stream ends, errors, or ctx is cancelled; pending groups are always
// flushed before the channel closes.
func Run(ctx context.Context, eng engine.Engine, cfg config.MultilineConfig, req Request) (<-chan NormalizedEntry, error) {
	raw, err := eng.StreamLogs(ctx, req.Engine)
	if err != nil {
		return nil, err
	}
	return RunChannel(ctx, raw, cfg, req), nil
}

// RunChannel drives an already-open raw log stream through the same ANSI/
// detect/parse/group stages Run uses, for sources whose upstream isn't a
// single container's own StreamLogs call (the cluster subscription layer
// uses this directly over StreamLogs results it already opened itself).
func RunChannel(ctx context.Context, raw <-chan engine.RawLogLine, cfg config.MultilineConfig, req Request) <-chan NormalizedEntry {
	out := make(chan NormalizedEntry)
	parserCache := cache.New()

	go run(ctx, raw, out, parserCache, cfg, req)
	return out
}

func run(ctx context.Context, raw <-chan engine.RawLogLine, out chan<- NormalizedEntry, parserCache *cache.ParserCache, cfg config.MultilineConfig, req Request) {
	defer close(out)

	grouper := multiline.New(cfg)
	ticker := time.NewTicker(timeoutTick)
	defer ticker.Stop()

	var (
		formatResolved bool
		currentFormat  format.Format
		currentParser  parse.Parser
	)

	emit := func(entries []multiline.GroupedEntry) {
		for _, g := range entries {
			send(ctx, out, fromGrouped(g))
		}
	}

	for {
		select {
		case <-ctx.Done():
			drain(ctx, out, grouper)
			return

		case <-ticker.C:
			if pending := grouper.CheckTimeout(); pending != nil {
				send(ctx, out, fromGrouped(*pending))
			}

		case line, ok := <-raw:
			if !ok {
				drain(ctx, out, grouper)
				return
			}

			cleaned := stripANSI(line.Content)

			if !formatResolved && len(trimLeadingEmpty(cleaned)) > 0 && !req.DisableParsing && !parserCache.IsDisabled(line.ContainerID) {
				currentFormat = cache.Resolve(parserCache, line.ContainerID, req.Labels, cleaned)
				currentParser = parse.ForFormat(currentFormat)
				formatResolved = true

				if currentFormat == format.Structured || currentFormat == format.KeyValue {
					grouper.SetPassthrough(true)
				}
			}

			var (
				parsed  *parse.Record
				success bool
				errMsg  string
				parseNS int64
			)

			switch {
			case req.DisableParsing:
				errMsg = "parsing disabled"
			case parserCache.IsDisabled(line.ContainerID):
				errMsg = "parsing disabled for container"
			case currentParser != nil:
				start := time.Now()
				rec, perr := currentParser.Parse(cleaned)
				parseNS = time.Since(start).Nanoseconds()
				parsed = &rec
				if perr != nil {
					errMsg = perr.Error()
					metrics.RecordParse(string(currentFormat), perr)
					logging.Warn("logs.pipeline", "parse failed for container %s: %v", line.ContainerID, perr)
				} else {
					success = true
					metrics.RecordParse(string(currentFormat), nil)
				}
			}

			level := multiline.SeverityUnspecified
			if parsed != nil {
				level = multiline.ParseSeverity(parsed.Level)
			}

			entry := multiline.Entry{
				ContainerID:    line.ContainerID,
				TimestampNanos: line.TimestampNS,
				Sequence:       line.Sequence,
				Stream:         line.Stream,
				Level:          level,
				RawContent:     cleaned,
				DetectedFormat: currentFormat,
				Parsed:         parsed,
				ParseSuccess:   success,
				ParseError:     errMsg,
				ParseTimeNanos: parseNS,
			}

			grouped := grouper.Process(entry)
			emit(grouped)
		}
	}
}

// fromGrouped maps a GroupedEntry to the wire NormalizedEntry, reading
// every per-line property (stream, detected format, parse outcome) from
// the group's embedded Entry — always the primary line's own values,
// never whatever line was being processed when the group happened to
// flush.
func fromGrouped(g multiline.GroupedEntry) NormalizedEntry {
	return NormalizedEntry{
		ContainerID:    g.ContainerID,
		TimestampNanos: g.TimestampNanos,
		Stream:         g.Stream,
		Sequence:       g.Sequence,
		RawContent:     g.RawContent,
		DetectedFormat: g.DetectedFormat,
		Parsed:         g.Parsed,
		ParseSuccess:   g.ParseSuccess,
		ParseError:     g.ParseError,
		ParseTimeNanos: g.ParseTimeNanos,
		GroupedLines:   g.GroupedLines,
		LineCount:      g.LineCount,
		IsGrouped:      g.IsGrouped,
	}
}

func drain(ctx context.Context, out chan<- NormalizedEntry, grouper *multiline.Grouper) {
	for {
		pending := grouper.Flush()
		if pending == nil {
			return
		}
		send(ctx, out, fromGrouped(*pending))
	}
}

func send(ctx context.Context, out chan<- NormalizedEntry, e NormalizedEntry) {
	select {
	case out <- e:
	case <-ctx.Done():
	}
}

func trimLeadingEmpty(b []byte) []byte {
	for _, c := range b {
		if c != ' ' && c != '\t' && c != '\r' && c != '\n' {
			return b
		}
	}
	return nil
}
