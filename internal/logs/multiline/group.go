package multiline

import (
	"math"
	"time"

	"docktail/internal/config"
	"docktail/internal/metrics"
)

type groupAction int

const (
	actionStartNew groupAction = iota
	actionAddToCurrent
	actionFlushAndStartNew
)

// group is the in-progress state for one error-anchored multi-line event.
type group struct {
	primary       Entry
	continuations []Line
}

func newGroup(primary Entry) *group {
	return &group{primary: primary}
}

func (g *group) addContinuation(e Entry) {
	g.continuations = append(g.continuations, Line{
		Content:        e.RawContent,
		TimestampNanos: e.TimestampNanos,
		Sequence:       e.Sequence,
	})
}

func (g *group) intoEntry() GroupedEntry {
	count := len(g.continuations)
	lineCount := uint64(1 + count)
	if lineCount > math.MaxUint32 {
		lineCount = math.MaxUint32
	}
	return GroupedEntry{
		Entry:        g.primary,
		GroupedLines: g.continuations,
		LineCount:    uint32(lineCount),
		IsGrouped:    count > 0,
	}
}

// Grouper is the per-stream multiline state machine described in §4.4.
type Grouper struct {
	pending            *group
	deferredQueue      []GroupedEntry
	timeout            time.Duration
	lastUpdate         time.Time
	maxLines           int
	requireErrorAnchor bool
	passthrough        bool

	now func() time.Time
}

// New builds a grouping Grouper from the configured timeout/max_lines/
// require_error_anchor.
func New(cfg config.MultilineConfig) *Grouper {
	return &Grouper{
		timeout:            time.Duration(cfg.TimeoutMS) * time.Millisecond,
		maxLines:           cfg.MaxLines,
		requireErrorAnchor: cfg.RequireErrorAnchor,
		now:                time.Now,
	}
}

// NewPassthrough builds a Grouper that passes every entry straight through,
// for structured formats where each line is already self-contained.
func NewPassthrough() *Grouper {
	return &Grouper{passthrough: true, now: time.Now}
}

// SetPassthrough toggles passthrough mode. Turning it on moves any pending
// group into the deferred queue so it is still emitted, in order, ahead of
// whatever arrives next.
func (g *Grouper) SetPassthrough(passthrough bool) {
	if passthrough && !g.passthrough {
		if g.pending != nil {
			g.deferredQueue = append(g.deferredQueue, g.pending.intoEntry())
			g.pending = nil
			g.lastUpdate = time.Time{}
		}
	}
	g.passthrough = passthrough
}

func (g *Grouper) IsPassthrough() bool { return g.passthrough }

// HasPending reports whether there is a group or deferred entry still
// waiting to be emitted.
func (g *Grouper) HasPending() bool {
	return g.pending != nil || len(g.deferredQueue) > 0
}

// Process runs one raw entry through the grouper, returning zero or more
// entries ready for emission.
func (g *Grouper) Process(e Entry) []GroupedEntry {
	if g.passthrough {
		out := g.deferredQueue
		g.deferredQueue = nil
		out = append(out, ungrouped(e))
		return out
	}

	if !g.lastUpdate.IsZero() && g.now().Sub(g.lastUpdate) > g.timeout {
		flushed := g.flushOne()
		g.startNewGroup(e)
		metrics.RecordGroupFlush("timeout")
		if flushed != nil {
			return []GroupedEntry{*flushed}
		}
		return nil
	}

	action := g.decide(e)
	switch action {
	case actionFlushAndStartNew:
		flushed := g.flushOne()
		g.startNewGroup(e)
		if flushed != nil {
			return []GroupedEntry{*flushed}
		}
		return nil
	case actionAddToCurrent:
		g.pending.addContinuation(e)
		g.lastUpdate = g.now()
		return nil
	default: // actionStartNew
		g.startNewGroup(e)
		return nil
	}
}

func (g *Grouper) decide(e Entry) groupAction {
	if g.pending == nil {
		return actionStartNew
	}
	if hasLogLevelPrefix(e.RawContent) {
		metrics.RecordGroupFlush("header")
		return actionFlushAndStartNew
	}
	if len(g.pending.continuations) >= g.maxLines {
		metrics.RecordGroupFlush("max_lines")
		return actionFlushAndStartNew
	}
	pattern := isContinuationLine(e.RawContent, g.pending.primary.RawContent, g.pending.primary.Level, g.requireErrorAnchor)
	if pattern != continuationNone {
		return actionAddToCurrent
	}
	metrics.RecordGroupFlush("mismatch")
	return actionFlushAndStartNew
}

func (g *Grouper) startNewGroup(e Entry) {
	g.pending = newGroup(e)
	g.lastUpdate = g.now()
}

// CheckTimeout proactively flushes a pending group whose timeout has
// elapsed, for the outer pipeline's ~150ms idle-stream poll.
func (g *Grouper) CheckTimeout() *GroupedEntry {
	if g.lastUpdate.IsZero() {
		return nil
	}
	if g.now().Sub(g.lastUpdate) > g.timeout {
		metrics.RecordGroupFlush("timeout")
		return g.flushOne()
	}
	return nil
}

// Flush drains the deferred queue first, then the pending group, matching
// Process's ordering guarantee.
func (g *Grouper) Flush() *GroupedEntry {
	return g.flushOne()
}

func (g *Grouper) flushOne() *GroupedEntry {
	if len(g.deferredQueue) > 0 {
		head := g.deferredQueue[0]
		g.deferredQueue = g.deferredQueue[1:]
		return &head
	}
	if g.pending != nil {
		entry := g.pending.intoEntry()
		g.pending = nil
		g.lastUpdate = time.Time{}
		return &entry
	}
	return nil
}
