// Package compose translates a Compose-file stack definition into the
// engine primitives (networks, volumes, services) that make it up, per
// §4.8. Translation is best-effort: a component that fails to create is
// recorded in DeployResult.Failed rather than aborting the whole stack.
package compose

import (
	"context"
	"fmt"

	"docktail/internal/engine"
	"docktail/pkg/logging"

	"gopkg.in/yaml.v3"
)

// Subsystem tags every log line this package emits.
const Subsystem = "ComposeDeployer"

// stackNamespaceLabel is applied to every resource a stack deploy creates,
// so later queries (C7 stack health, inventory listing) can recover which
// stack a resource belongs to; stackImageLabel is applied to services only.
const (
	stackNamespaceLabel = "com.docker.stack.namespace"
	stackImageLabel     = "com.docker.stack.image"
)

// DeployResult is the partial-success outcome of deploying one compose
// stack: every resource actually created or reused, plus one formatted
// entry per resource that failed.
type DeployResult struct {
	ServiceIDs   []string
	NetworkNames []string
	VolumeNames  []string
	Failed       []string
}

// Message renders the summary line a caller surfaces to users, matching
// the original's all-ok vs partial-failure phrasing.
func (r DeployResult) Message(stackName string) string {
	if len(r.Failed) == 0 {
		return fmt.Sprintf("Stack '%s' deployed: %d services, %d networks, %d volumes",
			stackName, len(r.ServiceIDs), len(r.NetworkNames), len(r.VolumeNames))
	}
	return fmt.Sprintf("Stack '%s' partially deployed: %d failed", stackName, len(r.Failed))
}

// Success reports whether every declared resource was created (or
// reused) without error.
func (r DeployResult) Success() bool {
	return len(r.Failed) == 0
}

// Deployer translates and applies compose stacks against an engine.
type Deployer struct {
	eng engine.Engine
}

// New builds a Deployer backed by eng.
func New(eng engine.Engine) *Deployer {
	return &Deployer{eng: eng}
}

// document is the subset of a compose file this deployer understands,
// decoded generically so unknown top-level keys are ignored rather than
// rejected.
type document struct {
	Networks map[string]interface{} `yaml:"networks"`
	Volumes  map[string]interface{} `yaml:"volumes"`
	Services map[string]interface{} `yaml:"services"`
}

// Deploy parses composeYAML and applies it under stackName, creating the
// implicit default network, then declared networks, volumes, and
// services in that order. A YAML parse failure is reported as the sole
// failed entry rather than returned as an error, so callers always get a
// DeployResult to relay to their own wire response.
func (d *Deployer) Deploy(ctx context.Context, stackName, composeYAML string) DeployResult {
	var doc document
	if err := yaml.Unmarshal([]byte(composeYAML), &doc); err != nil {
		return DeployResult{Failed: []string{fmt.Sprintf("failed to parse compose YAML: %v", err)}}
	}

	result := DeployResult{}

	d.createDefaultNetwork(ctx, stackName, &result)

	externalNetworks := map[string]string{}
	d.createNetworks(ctx, stackName, doc.Networks, externalNetworks, &result)

	externalVolumes := map[string]string{}
	d.createVolumes(ctx, stackName, doc.Volumes, externalVolumes, &result)

	d.createServices(ctx, stackName, doc.Services, externalNetworks, externalVolumes, &result)

	logging.Info(Subsystem, "deployed stack %s: %d services, %d networks, %d volumes, %d failed",
		stackName, len(result.ServiceIDs), len(result.NetworkNames), len(result.VolumeNames), len(result.Failed))

	return result
}

func stackScopedLabels(stackName string) map[string]string {
	return map[string]string{stackNamespaceLabel: stackName}
}

// --- generic YAML-node navigation helpers, mirroring serde_yaml::Value
// accessors the original grounding relies on. ---

func asMap(v interface{}) (map[string]interface{}, bool) {
	m, ok := v.(map[string]interface{})
	return m, ok
}

func asSlice(v interface{}) ([]interface{}, bool) {
	s, ok := v.([]interface{})
	return s, ok
}

func asString(v interface{}) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

func stringOr(v interface{}, def string) string {
	if s, ok := asString(v); ok {
		return s
	}
	return def
}

func asBool(v interface{}) (bool, bool) {
	b, ok := v.(bool)
	return b, ok
}

// asInt64 accepts both numeric and string-encoded integers, matching the
// original's `.as_u64().or_else(|| v.as_str()...parse())` fallback.
func asInt64(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int64:
		return n, true
	case uint64:
		return int64(n), true
	case float64:
		return int64(n), true
	case string:
		var out int64
		if _, err := fmt.Sscanf(n, "%d", &out); err == nil {
			return out, true
		}
	}
	return 0, false
}
