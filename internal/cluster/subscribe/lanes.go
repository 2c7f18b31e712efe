package subscribe

import (
	"context"
	"fmt"
	"strings"

	"docktail/internal/apierrors"
	"docktail/internal/cluster/pool"
	"docktail/internal/config"
	"docktail/internal/logs/pipeline"
	"docktail/pkg/logging"
)

// LaneKind distinguishes the three ways §4.12.3 lets a comparison lane
// name its source.
type LaneKind string

const (
	LaneContainer LaneKind = "container"
	LaneService   LaneKind = "service"
	LaneTask      LaneKind = "task"
)

// LaneSource names one comparison lane: which agent, what kind of id, and
// the id itself. A service lane aggregates across all of the service's
// current tasks; a task lane resolves to that task's container.
type LaneSource struct {
	AgentID string
	Kind    LaneKind
	ID      string
	Label   string
}

// SyncMode selects how §4.12.3 orders records across lanes.
type SyncMode string

const (
	SyncTimestamp SyncMode = "timestamp"
	SyncSequence  SyncMode = "sequence"
	SyncNone      SyncMode = "none"
)

// LaneRecord is one emitted comparison-stream record: the source entry
// plus the lane tagging §4.12.3 requires.
type LaneRecord struct {
	LaneIndex     int
	LaneLabel     string
	SyncTimestamp int64
	AgentID       string
	Entry         pipeline.NormalizedEntry
}

// laneContainerIDs resolves one lane's source to the concrete container
// ids its log pipeline should be opened against: a container lane is
// itself one id, a task lane resolves through its container, and a
// service lane aggregates every current task's container.
func laneContainerIDs(ctx context.Context, a pool.Agent, src LaneSource) ([]string, error) {
	switch src.Kind {
	case LaneContainer:
		return []string{src.ID}, nil
	case LaneTask:
		tasks, err := a.Client.ListTasks(ctx, "")
		if err != nil {
			return nil, err
		}
		for _, t := range tasks {
			if t.ID == src.ID {
				if t.ContainerID == "" {
					return nil, apierrors.NewFailedPreconditionError("task %s has no assigned container", src.ID)
				}
				return []string{t.ContainerID}, nil
			}
		}
		return nil, apierrors.NewTaskNotFoundError(src.ID)
	case LaneService:
		tasks, err := a.Client.ListTasks(ctx, "")
		if err != nil {
			return nil, err
		}
		var ids []string
		for _, t := range tasks {
			if t.ServiceID == src.ID && t.ContainerID != "" {
				ids = append(ids, t.ContainerID)
			}
		}
		if len(ids) == 0 {
			return nil, apierrors.NewNotFoundErrorWithMessage("service", src.ID, fmt.Sprintf("service %s has no running tasks", src.ID))
		}
		return ids, nil
	default:
		return nil, apierrors.NewInvalidArgumentError("unknown lane kind %q", src.Kind)
	}
}

// openLane opens every container pipeline a lane's source resolves to and
// merges them into one timestamp-chunked sub-stream representing the lane.
func openLane(ctx context.Context, p *pool.Pool, mlCfg config.MultilineConfig, limits Limits, src LaneSource) (<-chan pipeline.NormalizedEntry, error) {
	a, err := resolveAgent(p, src.AgentID)
	if err != nil {
		return nil, err
	}
	containerIDs, err := laneContainerIDs(ctx, a, src)
	if err != nil {
		return nil, err
	}

	var subs []<-chan pipeline.NormalizedEntry
	for _, cid := range containerIDs {
		req := pipeline.Request{ContainerID: cid, Engine: containerStreamRequest(cid)}
		ch, err := pipeline.Run(ctx, a.Client, mlCfg, req)
		if err != nil {
			logging.Warn(Subsystem, "comparison lane %s: container %s failed to open: %v", src.Label, cid, err)
			continue
		}
		subs = append(subs, ch)
	}
	if len(subs) == 0 {
		return nil, apierrors.NewUnavailableError(nil, "lane %s: no containers could be opened", src.Label)
	}
	if len(subs) == 1 {
		return subs[0], nil
	}

	chunkSize := limits.MergeChunkSize
	if chunkSize < 1 {
		chunkSize = 10
	}
	return chunkedSortMerge(ctx, fanIn(ctx, subs), chunkSize, func(a, b pipeline.NormalizedEntry) bool {
		return a.TimestampNanos < b.TimestampNanos
	}), nil
}

// MultiLaneCompare opens up to defaultMaxLanes comparison lanes and merges
// them per mode (§4.12.3). At least 2 lanes must open successfully;
// otherwise the error names every lane's failure reason.
func MultiLaneCompare(ctx context.Context, p *pool.Pool, mlCfg config.MultilineConfig, limits Limits, sources []LaneSource, mode SyncMode) (<-chan LaneRecord, error) {
	if len(sources) > defaultMaxLanes {
		return nil, apierrors.NewInvalidArgumentError("%d comparison lanes exceeds the maximum of %d", len(sources), defaultMaxLanes)
	}

	type openedLane struct {
		index int
		label string
		ch    <-chan pipeline.NormalizedEntry
	}
	var ok []openedLane
	var failures []string

	for i, src := range sources {
		label := src.Label
		if label == "" {
			label = fmt.Sprintf("%s/%s/%s", src.AgentID, src.Kind, src.ID)
		}
		ch, err := openLane(ctx, p, mlCfg, limits, src)
		if err != nil {
			failures = append(failures, fmt.Sprintf("%s: %v", label, err))
			logging.Warn(Subsystem, "comparison lane %s failed to open: %v", label, err)
			continue
		}
		ok = append(ok, openedLane{index: i, label: label, ch: ch})
	}

	if len(ok) < 2 {
		return nil, apierrors.NewUnavailableError(nil, "fewer than 2 comparison lanes available: %s", strings.Join(failures, "; "))
	}

	tagged := make([]<-chan LaneRecord, 0, len(ok))
	for _, l := range ok {
		tagged = append(tagged, tagLane(ctx, l.index, l.label, l.ch))
	}
	combined := fanIn(ctx, tagged)

	var out <-chan LaneRecord
	switch mode {
	case SyncSequence:
		out = chunkedSortMerge(ctx, combined, limits.ComparisonChunkSize, func(a, b LaneRecord) bool {
			return a.Entry.Sequence < b.Entry.Sequence
		})
	case SyncNone:
		out = combined
	default: // SyncTimestamp
		out = chunkedSortMerge(ctx, combined, limits.ComparisonChunkSize, func(a, b LaneRecord) bool {
			return a.SyncTimestamp < b.SyncTimestamp
		})
	}
	return relay(ctx, "lane_compare", out), nil
}

func tagLane(ctx context.Context, index int, label string, in <-chan pipeline.NormalizedEntry) <-chan LaneRecord {
	out := make(chan LaneRecord)
	go func() {
		defer close(out)
		for {
			select {
			case e, ok := <-in:
				if !ok {
					return
				}
				rec := LaneRecord{LaneIndex: index, LaneLabel: label, SyncTimestamp: e.TimestampNanos, Entry: e}
				select {
				case out <- rec:
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}
