package compose

import (
	"context"
	"fmt"
	"strings"

	"docktail/internal/engine"
	"docktail/pkg/logging"
)

// createDefaultNetwork creates <stack>_default, the implicit overlay
// network every service attaches to when it declares no `networks:` of
// its own. A "create" that fails because the network already exists is
// treated as a successful reuse, not a failure.
func (d *Deployer) createDefaultNetwork(ctx context.Context, stackName string, result *DeployResult) {
	name := stackName + "_default"
	_, err := d.eng.CreateNetwork(ctx, name, "overlay", stackScopedLabels(stackName))
	d.recordNetworkResult(name, err, result)
}

// createNetworks creates every non-external network declared under the
// compose file's top-level `networks:` key, and resolves every external
// one to its real name in externalNetworks rather than creating it.
func (d *Deployer) createNetworks(ctx context.Context, stackName string, networks map[string]interface{}, externalNetworks map[string]string, result *DeployResult) {
	for rawName, v := range networks {
		cfg, _ := asMap(v)

		if extName, isExternal := resolveExternal(cfg, rawName); isExternal {
			externalNetworks[rawName] = extName
			logging.Info(Subsystem, "network %s (alias %s) is external — not creating, using as-is", extName, rawName)
			continue
		}

		name := stackName + "_" + rawName
		driver := stringOr(cfg["driver"], "overlay")
		_, err := d.eng.CreateNetwork(ctx, name, driver, stackScopedLabels(stackName))
		d.recordNetworkResult(name, err, result)
	}
}

func (d *Deployer) recordNetworkResult(name string, err error, result *DeployResult) {
	switch {
	case err == nil:
		result.NetworkNames = append(result.NetworkNames, name)
	case isAlreadyExists(err):
		logging.Info(Subsystem, "network %s already exists, reusing", name)
		result.NetworkNames = append(result.NetworkNames, name)
	default:
		logging.Warn(Subsystem, "failed to create network %s: %v", name, err)
		result.Failed = append(result.Failed, fmt.Sprintf("network/%s: %v", name, err))
	}
}

// createVolumes creates every non-external volume declared under the
// compose file's top-level `volumes:` key, and resolves every external
// one to its real name in externalVolumes rather than creating it.
func (d *Deployer) createVolumes(ctx context.Context, stackName string, volumes map[string]interface{}, externalVolumes map[string]string, result *DeployResult) {
	for rawName, v := range volumes {
		cfg, _ := asMap(v)

		if extName, isExternal := resolveExternal(cfg, rawName); isExternal {
			externalVolumes[rawName] = extName
			logging.Info(Subsystem, "volume %s (alias %s) is external — not creating, using as-is", extName, rawName)
			continue
		}

		name := stackName + "_" + rawName
		driver := stringOr(cfg["driver"], "")
		_, err := d.eng.CreateVolume(ctx, name, driver, stackScopedLabels(stackName))
		switch {
		case err == nil:
			result.VolumeNames = append(result.VolumeNames, name)
		case isAlreadyExists(err):
			logging.Info(Subsystem, "volume %s already exists, reusing", name)
			result.VolumeNames = append(result.VolumeNames, name)
		default:
			logging.Warn(Subsystem, "failed to create volume %s: %v", name, err)
			result.Failed = append(result.Failed, fmt.Sprintf("volume/%s: %v", name, err))
		}
	}
}

// resolveExternal reports whether cfg marks its resource external
// (`external: true` or `external: {name: ...}`), and if so, the real
// resource name to use: an explicit `external.name`, else a top-level
// `name:` key (Compose v3.5+), else the declared alias itself.
func resolveExternal(cfg map[string]interface{}, rawName string) (string, bool) {
	ext, ok := cfg["external"]
	if !ok {
		return "", false
	}

	isExternal := false
	if b, ok := asBool(ext); ok && b {
		isExternal = true
	}
	extMap, isMapping := asMap(ext)
	if isMapping {
		isExternal = true
	}
	if !isExternal {
		return "", false
	}

	if isMapping {
		if name, ok := asString(extMap["name"]); ok {
			return name, true
		}
	}
	if name, ok := asString(cfg["name"]); ok {
		return name, true
	}
	return rawName, true
}

func isAlreadyExists(err error) bool {
	if err == nil {
		return false
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "409") || strings.Contains(s, "already exists")
}

// createServices creates every service declared under the compose
// file's top-level `services:` key, translating its Compose-shaped
// config into an engine.ServiceSpec. Unlike networks and volumes, a
// service create failure is never treated as a benign reuse.
func (d *Deployer) createServices(ctx context.Context, stackName string, services map[string]interface{}, externalNetworks, externalVolumes map[string]string, result *DeployResult) {
	for rawName, v := range services {
		svcName := stackName + "_" + rawName
		cfg, _ := asMap(v)

		image := stringOr(cfg["image"], "")
		if image == "" {
			result.Failed = append(result.Failed, fmt.Sprintf("%s: no image specified", svcName))
			continue
		}

		replicas := int64(1)
		if deploy, ok := asMap(cfg["deploy"]); ok {
			if r, ok := asInt64(deploy["replicas"]); ok {
				replicas = r
			}
		}

		labels := stackScopedLabels(stackName)
		labels[stackImageLabel] = image

		spec := engine.ServiceSpec{
			Name:     svcName,
			Image:    image,
			Replicas: int(replicas),
			Env:      parseEnvironment(cfg),
			Command:  parseCommand(cfg),
			Labels:   labels,
			Networks: parseNetworks(cfg, stackName, externalNetworks),
			Ports:    parsePorts(cfg),
			Mounts:   parseVolumes(cfg, stackName, externalVolumes),
		}

		id, err := d.eng.CreateService(ctx, spec)
		if err != nil {
			logging.Warn(Subsystem, "failed to create compose service %s: %v", svcName, err)
			result.Failed = append(result.Failed, fmt.Sprintf("%s: %v", svcName, err))
			continue
		}
		logging.Info(Subsystem, "compose service %s created: %s", svcName, id)
		result.ServiceIDs = append(result.ServiceIDs, id)
	}
}
