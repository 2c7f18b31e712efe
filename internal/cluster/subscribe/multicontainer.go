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

// ContainerSource names one upstream to merge: its agent and container.
type ContainerSource struct {
	AgentID     string
	ContainerID string
}

// MergedEntry tags a normalized log entry with the agent it came from, so
// a merged stream's client can still tell sources apart.
type MergedEntry struct {
	AgentID string
	Entry   pipeline.NormalizedEntry
}

// MultiContainerLogs opens up to limits.MaxContainerStreams container log
// pipelines and merges them with the chunked sort-merge (§4.12.2): sources
// that fail to open are logged and skipped, and the stream still opens as
// long as at least one source succeeded. If every source failed, the
// error names them all.
func MultiContainerLogs(ctx context.Context, p *pool.Pool, mlCfg config.MultilineConfig, limits Limits, sources []ContainerSource) (<-chan MergedEntry, error) {
	if len(sources) > limits.MaxContainerStreams {
		return nil, apierrors.NewInvalidArgumentError("%d container sources exceeds the maximum of %d", len(sources), limits.MaxContainerStreams)
	}

	type opened struct {
		agentID string
		ch      <-chan pipeline.NormalizedEntry
	}
	var ok []opened
	var failures []string

	for _, s := range sources {
		req := pipeline.Request{ContainerID: s.ContainerID, Engine: containerStreamRequest(s.ContainerID)}
		upstream, err := ContainerLogs(ctx, p, s.AgentID, mlCfg, req)
		if err != nil {
			failures = append(failures, fmt.Sprintf("%s/%s: %v", s.AgentID, s.ContainerID, err))
			logging.Warn(Subsystem, "multi-container merge: source %s/%s failed to open: %v", s.AgentID, s.ContainerID, err)
			continue
		}
		ok = append(ok, opened{agentID: s.AgentID, ch: upstream})
	}

	if len(ok) == 0 {
		return nil, apierrors.NewUnavailableError(nil, "no container log sources could be opened: %s", strings.Join(failures, "; "))
	}

	chunkSize := limits.MergeChunkSize
	if chunkSize < 1 {
		chunkSize = 10
	}

	tagged := make([]<-chan MergedEntry, 0, len(ok))
	for _, o := range ok {
		o := o
		tagged = append(tagged, tagEntries(ctx, o.agentID, o.ch))
	}

	merged := fanIn(ctx, tagged)
	sorted := chunkedSortMerge(ctx, merged, chunkSize, func(a, b MergedEntry) bool {
		return a.Entry.TimestampNanos < b.Entry.TimestampNanos
	})
	return relay(ctx, "multi_container_logs", sorted), nil
}

func tagEntries(ctx context.Context, agentID string, in <-chan pipeline.NormalizedEntry) <-chan MergedEntry {
	out := make(chan MergedEntry)
	go func() {
		defer close(out)
		for {
			select {
			case e, ok := <-in:
				if !ok {
					return
				}
				select {
				case out <- MergedEntry{AgentID: agentID, Entry: e}:
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
