// Package query implements the cluster query layer (C11): schema-typed,
// request/response RPCs that either fan out across every healthy agent
// in parallel (inventory-style listings) or resolve a single manager
// agent (control-plane calls), post-filtering fan-out results against
// criteria the engine itself doesn't apply.
package query

import (
	"strings"

	"docktail/internal/engine"
)

// Subsystem is the pkg/logging tag used by this package's fan-outs.
const Subsystem = "ClusterQuery"

// AgentContainer tags a listed container with the agent it came from,
// since a fleet-wide listing has no other way to disambiguate same-named
// containers on different hosts.
type AgentContainer struct {
	AgentID   string
	Container engine.ContainerSummary
}

// AgentImage, AgentNetwork, AgentVolume mirror AgentContainer for their
// respective inventory listings.
type AgentImage struct {
	AgentID string
	Image   engine.ImageSummary
}

type AgentNetwork struct {
	AgentID string
	Network engine.NetworkSummary
}

type AgentVolume struct {
	AgentID string
	Volume  engine.VolumeSummary
}

// ContainerFilter is the client-supplied, engine-independent post-filter
// §4.11 applies to a fanned-out container listing. A zero-value filter
// matches everything.
type ContainerFilter struct {
	NameSubstr  string
	ImageSubstr string
	Labels      map[string]string // match-all: every key must be present with this value
	State       string
}

func (f ContainerFilter) matches(c engine.ContainerSummary) bool {
	if f.NameSubstr != "" {
		found := false
		for _, n := range c.Names {
			if strings.Contains(n, f.NameSubstr) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.ImageSubstr != "" && !strings.Contains(c.Image, f.ImageSubstr) {
		return false
	}
	if f.State != "" && c.State != f.State {
		return false
	}
	for k, v := range f.Labels {
		if c.Labels[k] != v {
			return false
		}
	}
	return true
}
