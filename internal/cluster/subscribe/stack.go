package subscribe

import (
	"context"
	"fmt"
	"strings"

	"docktail/internal/apierrors"
	"docktail/internal/cluster/pool"
	"docktail/internal/engine"
	"docktail/pkg/logging"
)

const stackNamespaceLabel = "com.docker.stack.namespace"

// StackLogRecord tags a relayed service-log record with the service it
// came from, so a stack-wide merged stream still identifies its source.
type StackLogRecord struct {
	ServiceID   string
	ServiceName string
	Record      LogRecord
}

// StackLogs discovers every service carrying namespace's stack label on
// the selected manager, opens one service-log stream per service (up to
// limits.MaxStackServices), and merges them with the §4.12.2 strategy.
func StackLogs(ctx context.Context, p *pool.Pool, agentID, namespace string, limits Limits, req engine.LogStreamRequest) (<-chan StackLogRecord, error) {
	a, err := p.SelectManager(agentID)
	if err != nil {
		return nil, err
	}

	services, err := a.Client.ListServices(ctx)
	if err != nil {
		return nil, err
	}

	var matched []engine.Service
	for _, svc := range services {
		if svc.Labels[stackNamespaceLabel] == namespace {
			matched = append(matched, svc)
		}
	}
	if len(matched) == 0 {
		return nil, apierrors.NewInvalidArgumentError("no services found for stack namespace %q", namespace)
	}
	if n := len(matched); n > limits.MaxStackServices {
		matched = matched[:limits.MaxStackServices]
		logging.Warn(Subsystem, "stack %s: %d services exceeds the maximum of %d, truncating", namespace, n, limits.MaxStackServices)
	}

	type opened struct {
		svc engine.Service
		ch  <-chan LogRecord
	}
	var ok []opened
	var failures []string

	for _, svc := range matched {
		ch, err := ServiceLogs(ctx, p, a.ID, svc.ID, req)
		if err != nil {
			failures = append(failures, fmt.Sprintf("%s: %v", svc.Name, err))
			logging.Warn(Subsystem, "stack %s: service %s failed to open: %v", namespace, svc.Name, err)
			continue
		}
		ok = append(ok, opened{svc: svc, ch: ch})
	}

	if len(ok) == 0 {
		return nil, apierrors.NewUnavailableError(nil, "stack %s: no service log streams could be opened: %s", namespace, strings.Join(failures, "; "))
	}

	tagged := make([]<-chan StackLogRecord, 0, len(ok))
	for _, o := range ok {
		tagged = append(tagged, tagStackService(ctx, o.svc, o.ch))
	}

	chunkSize := limits.MergeChunkSize
	if chunkSize < 1 {
		chunkSize = 10
	}
	merged := chunkedSortMerge(ctx, fanIn(ctx, tagged), chunkSize, func(a, b StackLogRecord) bool {
		return a.Record.TimestampNanos < b.Record.TimestampNanos
	})
	return relay(ctx, "stack_logs", merged), nil
}

func tagStackService(ctx context.Context, svc engine.Service, in <-chan LogRecord) <-chan StackLogRecord {
	out := make(chan StackLogRecord)
	go func() {
		defer close(out)
		for {
			select {
			case r, ok := <-in:
				if !ok {
					return
				}
				rec := StackLogRecord{ServiceID: svc.ID, ServiceName: svc.Name, Record: r}
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
