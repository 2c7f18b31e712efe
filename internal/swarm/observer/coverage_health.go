package observer

import (
	"context"

	"docktail/internal/apierrors"
	"docktail/internal/engine"
)

// ServiceCoverage reports which eligible (active+ready) nodes a service
// currently has a running task on, per §4.7.6.
type ServiceCoverage struct {
	ServiceID          string
	IsGlobal           bool
	CoveredNodes       []string
	UncoveredNodes     []string
	TotalNodes         int
	CoveragePercentage float64
}

// ServiceCoverage computes serviceID's node coverage: eligible nodes are
// those both active and ready; a node counts as covered when the service
// has a running task scheduled on it.
func (o *Observer) ServiceCoverage(ctx context.Context, serviceID string) (ServiceCoverage, error) {
	svc, err := o.eng.InspectService(ctx, serviceID)
	if err != nil {
		return ServiceCoverage{}, err
	}

	nodes, err := o.eng.ListNodes(ctx)
	if err != nil {
		return ServiceCoverage{}, apierrors.NewInternalError(err, "failed to list nodes")
	}

	var eligible []string
	for _, n := range nodes {
		if n.Availability == "active" && n.State == "ready" {
			eligible = append(eligible, n.ID)
		}
	}

	tasks, err := o.eng.ListTasks(ctx, serviceID)
	if err != nil {
		return ServiceCoverage{}, apierrors.NewInternalError(err, "failed to list tasks")
	}

	covered := map[string]bool{}
	for _, t := range tasks {
		if t.State == "running" && t.NodeID != "" {
			covered[t.NodeID] = true
		}
	}

	var coveredNodes, uncoveredNodes []string
	for _, id := range eligible {
		if covered[id] {
			coveredNodes = append(coveredNodes, id)
		} else {
			uncoveredNodes = append(uncoveredNodes, id)
		}
	}

	pct := 0.0
	if len(eligible) > 0 {
		pct = (float64(len(coveredNodes)) / float64(len(eligible))) * 100.0
	}

	return ServiceCoverage{
		ServiceID:          serviceID,
		IsGlobal:           svc.Mode == engine.ModeGlobal,
		CoveredNodes:       coveredNodes,
		UncoveredNodes:     uncoveredNodes,
		TotalNodes:         len(eligible),
		CoveragePercentage: pct,
	}, nil
}

// ServiceHealthStatus classifies one service's health within a stack rollup.
type ServiceHealthStatus string

const (
	ServiceHealthHealthy   ServiceHealthStatus = "healthy"
	ServiceHealthDegraded  ServiceHealthStatus = "degraded"
	ServiceHealthUnhealthy ServiceHealthStatus = "unhealthy"
	ServiceHealthUnknown   ServiceHealthStatus = "unknown"
)

// ServiceHealth is one service's contribution to a stack health rollup.
type ServiceHealth struct {
	ServiceID        string
	ServiceName      string
	Status           ServiceHealthStatus
	ReplicasDesired  uint64
	ReplicasRunning  uint64
	ReplicasFailed   uint64
	RecentErrors     []string
	UpdateInProgress bool
	RestartPolicy    string
}

// StackHealthStatus is the worst-case rollup of a stack's service healths.
type StackHealthStatus string

const (
	StackHealthHealthy   StackHealthStatus = "healthy"
	StackHealthDegraded  StackHealthStatus = "degraded"
	StackHealthUnhealthy StackHealthStatus = "unhealthy"
	StackHealthUnknown   StackHealthStatus = "unknown"
)

// StackHealth is the namespace-wide rollup §4.7.5 computes.
type StackHealth struct {
	Namespace         string
	OverallStatus     StackHealthStatus
	ServiceHealths    []ServiceHealth
	TotalServices     int
	HealthyServices   int
	DegradedServices  int
	UnhealthyServices int
	TotalDesired      uint64
	TotalRunning      uint64
	TotalFailed       uint64
}

const stackNamespaceLabel = "com.docker.stack.namespace"

// StackHealth computes the health rollup for every service labeled with
// the given compose stack namespace. A namespace matching no services is
// a not-found error, matching the original's "no such stack" behavior.
func (o *Observer) StackHealth(ctx context.Context, namespace string) (StackHealth, error) {
	services, err := o.eng.ListServices(ctx)
	if err != nil {
		return StackHealth{}, apierrors.NewInternalError(err, "failed to list services")
	}
	tasks, err := o.eng.ListTasks(ctx, "")
	if err != nil {
		return StackHealth{}, apierrors.NewInternalError(err, "failed to list tasks")
	}

	var stackServices []engine.Service
	for _, s := range services {
		if s.Labels[stackNamespaceLabel] == namespace {
			stackServices = append(stackServices, s)
		}
	}
	if len(stackServices) == 0 {
		return StackHealth{}, apierrors.NewStackNotFoundError(namespace)
	}

	var nodes []engine.Node
	nodesLoaded := false

	var healths []ServiceHealth
	var totalDesired, totalRunning, totalFailed uint64
	var healthyCount, degradedCount, unhealthyCount int

	for _, svc := range stackServices {
		svcTasks := tasksForService(tasks, svc.ID)

		var desired uint64
		switch svc.Mode {
		case engine.ModeGlobal:
			if !nodesLoaded {
				nodes, _ = o.eng.ListNodes(ctx)
				nodesLoaded = true
			}
			for _, n := range nodes {
				if n.Availability == "active" && n.State == "ready" {
					desired++
				}
			}
		default:
			desired = uint64(svc.Replicas)
		}

		var running, failed uint64
		var recentErrors []string
		for _, t := range svcTasks {
			if t.State == "running" {
				running++
			}
			if (t.State == "failed" || t.State == "rejected") && t.DesiredState == "running" {
				failed++
			}
			if t.State == "failed" || t.State == "rejected" {
				if t.StatusErr != "" {
					recentErrors = append(recentErrors, t.StatusErr)
				}
			}
		}
		recentErrors = lastN(recentErrors, 5)

		status := ServiceHealthStatus(ServiceHealthUnknown)
		switch {
		case running >= desired && desired > 0 && failed == 0:
			status = ServiceHealthHealthy
		case running == 0 && desired > 0:
			status = ServiceHealthUnhealthy
		case running < desired || failed > 0:
			status = ServiceHealthDegraded
		}

		switch status {
		case ServiceHealthHealthy:
			healthyCount++
		case ServiceHealthDegraded:
			degradedCount++
		case ServiceHealthUnhealthy:
			unhealthyCount++
		}

		totalDesired += desired
		totalRunning += running
		totalFailed += failed

		healths = append(healths, ServiceHealth{
			ServiceID:        svc.ID,
			ServiceName:      svc.Name,
			Status:           status,
			ReplicasDesired:  desired,
			ReplicasRunning:  running,
			ReplicasFailed:   failed,
			RecentErrors:     recentErrors,
			UpdateInProgress: svc.UpdateState == "updating",
			RestartPolicy:    svc.RestartPolicy,
		})
	}

	overall := StackHealthUnknown
	switch {
	case unhealthyCount > 0:
		overall = StackHealthUnhealthy
	case degradedCount > 0:
		overall = StackHealthDegraded
	case healthyCount > 0:
		overall = StackHealthHealthy
	}

	return StackHealth{
		Namespace:         namespace,
		OverallStatus:     overall,
		ServiceHealths:    healths,
		TotalServices:     len(stackServices),
		HealthyServices:   healthyCount,
		DegradedServices:  degradedCount,
		UnhealthyServices: unhealthyCount,
		TotalDesired:      totalDesired,
		TotalRunning:      totalRunning,
		TotalFailed:       totalFailed,
	}, nil
}

// lastN returns the last min(n, len(s)) elements of s, in their original order.
func lastN(s []string, n int) []string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
