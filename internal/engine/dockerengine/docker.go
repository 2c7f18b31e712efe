// Package dockerengine implements engine.Engine against a real container
// engine over the Docker Engine API, replacing the CLI-shelling approach
// this repository's ancestor used with a typed SDK client capable of
// streaming responses (logs, stats, swarm inspection) without ad-hoc
// text parsing.
package dockerengine

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"docktail/internal/engine"
	"docktail/pkg/logging"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/events"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/network"
	"github.com/docker/docker/api/types/swarm"
	"github.com/docker/docker/api/types/volume"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"
)

const subsystem = "Engine"

// Client adapts a real Docker Engine API connection to engine.Engine.
type Client struct {
	cli *client.Client
}

var _ engine.Engine = (*Client)(nil)

// New dials the local Docker engine using the standard DOCKER_HOST/
// environment conventions, negotiating the API version with the daemon.
func New() (*Client, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("connecting to docker engine: %w", err)
	}
	return &Client{cli: cli}, nil
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}

func translateErr(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	msg := fmt.Sprintf(format, args...)
	switch {
	case client.IsErrNotFound(err):
		return engine.NotFound("%s: %v", msg, err)
	case strings.Contains(err.Error(), "permission denied"):
		return engine.PermissionDenied("%s: %v", msg, err)
	default:
		return engine.Transport(err, "%s", msg)
	}
}

// --- inventory -----------------------------------------------------------

func (c *Client) ListContainers(ctx context.Context, all bool) ([]engine.ContainerSummary, error) {
	list, err := c.cli.ContainerList(ctx, container.ListOptions{All: all})
	if err != nil {
		return nil, translateErr(err, "listing containers")
	}
	out := make([]engine.ContainerSummary, 0, len(list))
	for _, item := range list {
		out = append(out, engine.ContainerSummary{
			ID:      item.ID,
			Names:   item.Names,
			Image:   item.Image,
			State:   item.State,
			Status:  item.Status,
			Labels:  item.Labels,
			Created: item.Created,
		})
	}
	return out, nil
}

func (c *Client) InspectContainer(ctx context.Context, id string) (engine.ContainerDetail, error) {
	inspect, err := c.cli.ContainerInspect(ctx, id)
	if err != nil {
		return engine.ContainerDetail{}, translateErr(err, "inspecting container %s", shortID(id))
	}

	detail := engine.ContainerDetail{
		ContainerSummary: engine.ContainerSummary{
			ID:     inspect.ID,
			Names:  []string{strings.TrimPrefix(inspect.Name, "/")},
			Image:  inspect.Config.Image,
			Labels: inspect.Config.Labels,
		},
	}
	if inspect.State != nil {
		detail.State = inspect.State.Status
		detail.Status = inspect.State.Status
	}
	if inspect.Config != nil {
		detail.Env = inspect.Config.Env
		detail.Command = inspect.Config.Cmd
	}
	for _, m := range inspect.Mounts {
		detail.Mounts = append(detail.Mounts, engine.MountInfo{
			Type:        string(m.Type),
			Source:      m.Source,
			Destination: m.Destination,
			ReadOnly:    !m.RW,
		})
	}
	if inspect.NetworkSettings != nil {
		detail.Networks = make(map[string]string, len(inspect.NetworkSettings.Networks))
		for name, settings := range inspect.NetworkSettings.Networks {
			detail.Networks[name] = settings.IPAddress
		}
	}
	if svcName, ok := inspect.Config.Labels["com.docker.swarm.service.name"]; ok {
		detail.SwarmTask = &engine.SwarmTaskRef{ServiceName: svcName}
	}
	return detail, nil
}

func (c *Client) ListImages(ctx context.Context) ([]engine.ImageSummary, error) {
	list, err := c.cli.ImageList(ctx, image.ListOptions{})
	if err != nil {
		return nil, translateErr(err, "listing images")
	}
	out := make([]engine.ImageSummary, 0, len(list))
	for _, img := range list {
		out = append(out, engine.ImageSummary{ID: img.ID, Tags: img.RepoTags, Created: img.Created, Size: img.Size})
	}
	return out, nil
}

func (c *Client) ListNetworks(ctx context.Context) ([]engine.NetworkSummary, error) {
	list, err := c.cli.NetworkList(ctx, network.ListOptions{})
	if err != nil {
		return nil, translateErr(err, "listing networks")
	}
	out := make([]engine.NetworkSummary, 0, len(list))
	for _, n := range list {
		out = append(out, engine.NetworkSummary{ID: n.ID, Name: n.Name, Driver: n.Driver, Labels: n.Labels})
	}
	return out, nil
}

func (c *Client) ListVolumes(ctx context.Context) ([]engine.VolumeSummary, error) {
	resp, err := c.cli.VolumeList(ctx, volume.ListOptions{})
	if err != nil {
		return nil, translateErr(err, "listing volumes")
	}
	out := make([]engine.VolumeSummary, 0, len(resp.Volumes))
	for _, v := range resp.Volumes {
		out = append(out, engine.VolumeSummary{Name: v.Name, Driver: v.Driver, Labels: v.Labels})
	}
	return out, nil
}

func (c *Client) SystemInfo(ctx context.Context) (engine.SystemInfo, error) {
	info, err := c.cli.Info(ctx)
	if err != nil {
		return engine.SystemInfo{}, translateErr(err, "fetching system info")
	}
	out := engine.SystemInfo{
		ServerVersion:   info.ServerVersion,
		ContainersTotal: info.Containers,
		ImagesTotal:     info.Images,
	}
	if info.Swarm.ControlAvailable {
		out.SwarmNodeID = info.Swarm.NodeID
	}
	return out, nil
}

// --- logs & stats ----------------------------------------------------------

func (c *Client) StreamLogs(ctx context.Context, req engine.LogStreamRequest) (<-chan engine.RawLogLine, error) {
	tail := req.Tail
	if tail <= 0 || tail > engine.MaxLogLines {
		tail = engine.MaxLogLines
	}
	opts := container.LogsOptions{
		ShowStdout: true,
		ShowStderr: true,
		Follow:     req.Follow,
		Timestamps: true,
		Tail:       strconv.Itoa(tail),
	}
	if req.SinceNS > 0 {
		opts.Since = time.Unix(0, req.SinceNS).Format(time.RFC3339Nano)
	}
	if req.UntilNS > 0 {
		opts.Until = time.Unix(0, req.UntilNS).Format(time.RFC3339Nano)
	}

	rc, err := c.cli.ContainerLogs(ctx, req.ContainerID, opts)
	if err != nil {
		return nil, translateErr(err, "streaming logs for %s", shortID(req.ContainerID))
	}
	return demux(req.ContainerID, rc), nil
}

// demux splits the engine's multiplexed stdout/stderr framing into
// sequenced RawLogLines, closing the underlying stream when the caller's
// context ends or the engine closes its side.
func demux(containerID string, rc io.ReadCloser) <-chan engine.RawLogLine {
	out := make(chan engine.RawLogLine, 64)
	go func() {
		defer close(out)
		defer rc.Close()

		outR, outW := io.Pipe()
		errR, errW := io.Pipe()
		done := make(chan error, 1)
		go func() {
			_, copyErr := stdcopy.StdCopy(outW, errW, rc)
			outW.Close()
			errW.Close()
			done <- copyErr
		}()

		var seq uint64
		emit := func(stream engine.StreamKind, r *bufio.Reader) {
			for {
				line, err := r.ReadBytes('\n')
				if len(line) > 0 {
					out <- engine.RawLogLine{
						ContainerID: containerID,
						TimestampNS: time.Now().UnixNano(),
						Stream:      stream,
						Content:     line,
						Sequence:    seq,
					}
					seq++
				}
				if err != nil {
					return
				}
			}
		}
		go emit(engine.StreamStdout, bufio.NewReader(outR))
		emit(engine.StreamStderr, bufio.NewReader(errR))
		<-done
	}()
	return out
}

func (c *Client) StreamServiceLogs(ctx context.Context, serviceID string, req engine.LogStreamRequest) (<-chan engine.RawLogLine, error) {
	rc, err := c.cli.ServiceLogs(ctx, serviceID, container.LogsOptions{ShowStdout: true, ShowStderr: true, Follow: req.Follow, Timestamps: true, Tail: "100"})
	if err != nil {
		return nil, translateErr(err, "streaming logs for service %s", shortID(serviceID))
	}
	return demux(serviceID, rc), nil
}

func (c *Client) StreamTaskLogs(ctx context.Context, taskID string, req engine.LogStreamRequest) (<-chan engine.RawLogLine, error) {
	rc, err := c.cli.ServiceLogs(ctx, taskID, container.LogsOptions{ShowStdout: true, ShowStderr: true, Follow: req.Follow, Timestamps: true})
	if err != nil {
		return nil, translateErr(err, "streaming logs for task %s", shortID(taskID))
	}
	return demux(taskID, rc), nil
}

func (c *Client) StreamStats(ctx context.Context, containerID string) (<-chan engine.Stats, error) {
	resp, err := c.cli.ContainerStats(ctx, containerID, true)
	if err != nil {
		return nil, translateErr(err, "streaming stats for %s", shortID(containerID))
	}
	out := make(chan engine.Stats, 16)
	go func() {
		defer close(out)
		defer resp.Body.Close()
		dec := newStatsDecoder(resp.Body)
		for {
			s, ok := dec.next()
			if !ok {
				return
			}
			s.ContainerID = containerID
			select {
			case out <- s:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

func (c *Client) OneShotStats(ctx context.Context, containerID string) (engine.Stats, error) {
	resp, err := c.cli.ContainerStats(ctx, containerID, false)
	if err != nil {
		return engine.Stats{}, translateErr(err, "fetching stats for %s", shortID(containerID))
	}
	defer resp.Body.Close()
	dec := newStatsDecoder(resp.Body)
	s, _ := dec.next()
	s.ContainerID = containerID
	return s, nil
}

// --- lifecycle --------------------------------------------------------------

func (c *Client) StartContainer(ctx context.Context, id string) error {
	logging.Info(subsystem, "starting container %s", shortID(id))
	return translateErr(c.cli.ContainerStart(ctx, id, container.StartOptions{}), "starting container %s", shortID(id))
}

func (c *Client) StopContainer(ctx context.Context, id string) error {
	logging.Info(subsystem, "stopping container %s", shortID(id))
	return translateErr(c.cli.ContainerStop(ctx, id, container.StopOptions{}), "stopping container %s", shortID(id))
}

func (c *Client) RestartContainer(ctx context.Context, id string) error {
	return translateErr(c.cli.ContainerRestart(ctx, id, container.StopOptions{}), "restarting container %s", shortID(id))
}

func (c *Client) PauseContainer(ctx context.Context, id string) error {
	return translateErr(c.cli.ContainerPause(ctx, id), "pausing container %s", shortID(id))
}

func (c *Client) UnpauseContainer(ctx context.Context, id string) error {
	return translateErr(c.cli.ContainerUnpause(ctx, id), "unpausing container %s", shortID(id))
}

func (c *Client) RemoveContainer(ctx context.Context, id string, force bool) error {
	logging.Debug(subsystem, "removing container %s (force=%v)", shortID(id), force)
	return translateErr(c.cli.ContainerRemove(ctx, id, container.RemoveOptions{Force: force}), "removing container %s", shortID(id))
}

func (c *Client) CreateNetwork(ctx context.Context, name, driver string, labels map[string]string) (string, error) {
	resp, err := c.cli.NetworkCreate(ctx, name, network.CreateOptions{Driver: driver, Labels: labels})
	if err != nil {
		if isAlreadyExists(err) {
			existing, inspectErr := c.cli.NetworkInspect(ctx, name, network.InspectOptions{})
			if inspectErr == nil {
				return existing.ID, nil
			}
		}
		return "", translateErr(err, "creating network %s", name)
	}
	return resp.ID, nil
}

func (c *Client) RemoveNetwork(ctx context.Context, id string) error {
	return translateErr(c.cli.NetworkRemove(ctx, id), "removing network %s", id)
}

func (c *Client) CreateVolume(ctx context.Context, name, driver string, labels map[string]string) (string, error) {
	v, err := c.cli.VolumeCreate(ctx, volume.CreateOptions{Name: name, Driver: driver, Labels: labels})
	if err != nil {
		if isAlreadyExists(err) {
			return name, nil
		}
		return "", translateErr(err, "creating volume %s", name)
	}
	return v.Name, nil
}

func (c *Client) RemoveVolume(ctx context.Context, name string) error {
	return translateErr(c.cli.VolumeRemove(ctx, name, false), "removing volume %s", name)
}

func (c *Client) ConnectNetwork(ctx context.Context, networkID, containerID string) error {
	return translateErr(c.cli.NetworkConnect(ctx, networkID, containerID, nil), "connecting %s to network %s", shortID(containerID), networkID)
}

func (c *Client) DisconnectNetwork(ctx context.Context, networkID, containerID string) error {
	return translateErr(c.cli.NetworkDisconnect(ctx, networkID, containerID, false), "disconnecting %s from network %s", shortID(containerID), networkID)
}

func isAlreadyExists(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "already exists")
}

// --- orchestration -----------------------------------------------------------

func (c *Client) SwarmInspect(ctx context.Context) (engine.SwarmInspectResult, error) {
	info, err := c.cli.Info(ctx)
	if err != nil {
		return engine.SwarmInspectResult{}, translateErr(err, "inspecting swarm membership")
	}
	switch info.Swarm.LocalNodeState {
	case "active":
		if info.Swarm.ControlAvailable {
			return engine.SwarmInspectResult{Role: engine.RoleManager, NodeID: info.Swarm.NodeID, ClusterID: info.Swarm.Cluster.ID}, nil
		}
		return engine.SwarmInspectResult{Role: engine.RoleWorker, NodeID: info.Swarm.NodeID}, nil
	default:
		return engine.SwarmInspectResult{Role: engine.RoleNone}, nil
	}
}

func (c *Client) SwarmInit(ctx context.Context, advertiseAddr string) (string, error) {
	nodeID, err := c.cli.SwarmInit(ctx, swarm.InitRequest{AdvertiseAddr: advertiseAddr})
	if err != nil {
		return "", translateErr(err, "initializing swarm")
	}
	return nodeID, nil
}

func (c *Client) SwarmJoin(ctx context.Context, remoteAddrs []string, joinToken string) error {
	return translateErr(c.cli.SwarmJoin(ctx, swarm.JoinRequest{RemoteAddrs: remoteAddrs, JoinToken: joinToken}), "joining swarm")
}

func (c *Client) SwarmLeave(ctx context.Context, force bool) error {
	return translateErr(c.cli.SwarmLeave(ctx, force), "leaving swarm")
}

func (c *Client) ListNodes(ctx context.Context) ([]engine.Node, error) {
	list, err := c.cli.NodeList(ctx, swarm.NodeListOptions{})
	if err != nil {
		if isNotManager(err) {
			return nil, engine.NotSwarmManager("listing nodes requires manager role")
		}
		return nil, translateErr(err, "listing nodes")
	}
	out := make([]engine.Node, 0, len(list))
	for _, n := range list {
		out = append(out, toDomainNode(n))
	}
	return out, nil
}

func (c *Client) InspectNode(ctx context.Context, id string) (engine.Node, error) {
	n, _, err := c.cli.NodeInspectWithRaw(ctx, id)
	if err != nil {
		return engine.Node{}, translateErr(err, "inspecting node %s", id)
	}
	return toDomainNode(n), nil
}

func toDomainNode(n swarm.Node) engine.Node {
	role := engine.RoleWorker
	if n.Spec.Role == swarm.NodeRoleManager {
		role = engine.RoleManager
	}
	var updatedAtNS int64
	if !n.UpdatedAt.IsZero() {
		updatedAtNS = n.UpdatedAt.UnixNano()
	}
	return engine.Node{
		ID:           n.ID,
		Hostname:     n.Description.Hostname,
		Role:         role,
		State:        string(n.Status.State),
		Availability: string(n.Spec.Availability),
		UpdatedAtNS:  updatedAtNS,
	}
}

func (c *Client) UpdateNodeAvailability(ctx context.Context, id, availability string) error {
	n, _, err := c.cli.NodeInspectWithRaw(ctx, id)
	if err != nil {
		return translateErr(err, "inspecting node %s", id)
	}
	spec := n.Spec
	spec.Availability = swarm.NodeAvailability(availability)
	return translateErr(c.cli.NodeUpdate(ctx, id, n.Version, spec), "updating node %s availability", id)
}

func (c *Client) RemoveNode(ctx context.Context, id string, force bool) error {
	return translateErr(c.cli.NodeRemove(ctx, id, swarm.NodeRemoveOptions{Force: force}), "removing node %s", id)
}

func isNotManager(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "manager")
}

func (c *Client) ListServices(ctx context.Context) ([]engine.Service, error) {
	list, err := c.cli.ServiceList(ctx, swarm.ServiceListOptions{})
	if err != nil {
		return nil, translateErr(err, "listing services")
	}
	out := make([]engine.Service, 0, len(list))
	for _, s := range list {
		out = append(out, toDomainService(s))
	}
	return out, nil
}

func (c *Client) InspectService(ctx context.Context, id string) (engine.Service, error) {
	s, _, err := c.cli.ServiceInspectWithRaw(ctx, id, swarm.ServiceInspectOptions{})
	if err != nil {
		return engine.Service{}, translateErr(err, "inspecting service %s", id)
	}
	return toDomainService(s), nil
}

func toDomainService(s swarm.Service) engine.Service {
	out := engine.Service{
		ID:    s.ID,
		Name:  s.Spec.Name,
		Mode:  engine.ModeReplicated,
		Labels: s.Spec.Labels,
	}
	if len(s.Spec.TaskTemplate.ContainerSpec.Image) > 0 {
		out.Image = s.Spec.TaskTemplate.ContainerSpec.Image
	}
	if s.Spec.Mode.Global != nil {
		out.Mode = engine.ModeGlobal
	} else if s.Spec.Mode.Replicated != nil && s.Spec.Mode.Replicated.Replicas != nil {
		out.Replicas = int(*s.Spec.Mode.Replicated.Replicas)
	}
	if s.UpdateStatus != nil {
		out.UpdateState = string(s.UpdateStatus.State)
		out.UpdateMessage = s.UpdateStatus.Message
		if !s.UpdateStatus.StartedAt.IsZero() {
			out.UpdateStartedAtNS = s.UpdateStatus.StartedAt.UnixNano()
		}
		if !s.UpdateStatus.CompletedAt.IsZero() {
			out.UpdateCompletedAtNS = s.UpdateStatus.CompletedAt.UnixNano()
		}
	} else {
		out.UpdateState = "none"
	}
	if s.Spec.TaskTemplate.RestartPolicy != nil {
		out.RestartPolicy = string(s.Spec.TaskTemplate.RestartPolicy.Condition)
	}
	return out
}

func (c *Client) CreateService(ctx context.Context, spec engine.ServiceSpec) (string, error) {
	svcSpec := toEngineServiceSpec(spec)
	resp, err := c.cli.ServiceCreate(ctx, svcSpec, swarm.ServiceCreateOptions{})
	if err != nil {
		if isAlreadyExists(err) {
			existing, inspectErr := c.cli.ServiceInspectWithRaw(ctx, spec.Name, swarm.ServiceInspectOptions{})
			if inspectErr == nil {
				return existing.ID, nil
			}
		}
		return "", translateErr(err, "creating service %s", spec.Name)
	}
	return resp.ID, nil
}

func (c *Client) UpdateService(ctx context.Context, id string, spec engine.ServiceSpec, forceRedeploy bool) error {
	current, _, err := c.cli.ServiceInspectWithRaw(ctx, id, swarm.ServiceInspectOptions{})
	if err != nil {
		return translateErr(err, "inspecting service %s before update", id)
	}
	svcSpec := toEngineServiceSpec(spec)
	if forceRedeploy {
		svcSpec.TaskTemplate.ForceUpdate = current.Spec.TaskTemplate.ForceUpdate + 1
	}
	_, err = c.cli.ServiceUpdate(ctx, id, current.Version, svcSpec, swarm.ServiceUpdateOptions{})
	return translateErr(err, "updating service %s", id)
}

func toEngineServiceSpec(spec engine.ServiceSpec) swarm.ServiceSpec {
	out := swarm.ServiceSpec{
		Annotations: swarm.Annotations{Name: spec.Name, Labels: spec.Labels},
		TaskTemplate: swarm.TaskSpec{
			ContainerSpec: &swarm.ContainerSpec{
				Image:   spec.Image,
				Env:     spec.Env,
				Command: spec.Command,
			},
		},
	}
	if spec.Global {
		out.Mode = swarm.ServiceMode{Global: &swarm.GlobalService{}}
	} else {
		replicas := uint64(spec.Replicas)
		out.Mode = swarm.ServiceMode{Replicated: &swarm.ReplicatedService{Replicas: &replicas}}
	}
	for _, net := range spec.Networks {
		out.TaskTemplate.Networks = append(out.TaskTemplate.Networks, swarm.NetworkAttachmentConfig{Target: net})
	}
	for _, p := range spec.Ports {
		out.EndpointSpec = appendPort(out.EndpointSpec, p)
	}
	for _, m := range spec.Mounts {
		out.TaskTemplate.ContainerSpec.Mounts = append(out.TaskTemplate.ContainerSpec.Mounts, toEngineMount(m))
	}
	return out
}

func appendPort(ep *swarm.EndpointSpec, p engine.PortSpec) *swarm.EndpointSpec {
	if ep == nil {
		ep = &swarm.EndpointSpec{}
	}
	mode := swarm.PortConfigPublishModeIngress
	if p.Mode == "host" {
		mode = swarm.PortConfigPublishModeHost
	}
	ep.Ports = append(ep.Ports, swarm.PortConfig{
		Protocol:      swarm.PortConfigProtocol(p.Protocol),
		TargetPort:    uint32(p.Target),
		PublishedPort: uint32(p.Published),
		PublishMode:   mode,
	})
	return ep
}

func (c *Client) RemoveService(ctx context.Context, id string) error {
	return translateErr(c.cli.ServiceRemove(ctx, id), "removing service %s", id)
}

func (c *Client) RollbackService(ctx context.Context, id string) error {
	current, _, err := c.cli.ServiceInspectWithRaw(ctx, id, swarm.ServiceInspectOptions{})
	if err != nil {
		return translateErr(err, "inspecting service %s before rollback", id)
	}
	_, err = c.cli.ServiceUpdate(ctx, id, current.Version, current.PreviousSpec(), swarm.ServiceUpdateOptions{Rollback: "previous"})
	return translateErr(err, "rolling back service %s", id)
}

func (c *Client) ListTasks(ctx context.Context, serviceID string) ([]engine.Task, error) {
	f := filters.NewArgs()
	if serviceID != "" {
		f.Add("service", serviceID)
	}
	list, err := c.cli.TaskList(ctx, swarm.TaskListOptions{Filters: f})
	if err != nil {
		return nil, translateErr(err, "listing tasks for service %s", serviceID)
	}
	out := make([]engine.Task, 0, len(list))
	for _, t := range list {
		task := engine.Task{
			ID:           t.ID,
			ServiceID:    t.ServiceID,
			Slot:         t.Slot,
			NodeID:       t.NodeID,
			State:        string(t.Status.State),
			DesiredState: string(t.DesiredState),
			StatusErr:    t.Status.Err,
			UpdatedAtNS:  t.UpdatedAt.UnixNano(),
		}
		if t.Status.ContainerStatus != nil {
			task.ContainerID = t.Status.ContainerStatus.ContainerID
		}
		out = append(out, task)
	}
	return out, nil
}

func (c *Client) ListSecrets(ctx context.Context) ([]engine.Secret, error) {
	list, err := c.cli.SecretList(ctx, swarm.SecretListOptions{})
	if err != nil {
		return nil, translateErr(err, "listing secrets")
	}
	out := make([]engine.Secret, 0, len(list))
	for _, s := range list {
		out = append(out, engine.Secret{ID: s.ID, Name: s.Spec.Name})
	}
	return out, nil
}

func (c *Client) CreateSecret(ctx context.Context, name string, data []byte) (string, error) {
	resp, err := c.cli.SecretCreate(ctx, swarm.SecretSpec{Annotations: swarm.Annotations{Name: name}, Data: data})
	if err != nil {
		return "", translateErr(err, "creating secret %s", name)
	}
	return resp.ID, nil
}

func (c *Client) RemoveSecret(ctx context.Context, id string) error {
	return translateErr(c.cli.SecretRemove(ctx, id), "removing secret %s", id)
}

func (c *Client) ListConfigs(ctx context.Context) ([]engine.Config, error) {
	list, err := c.cli.ConfigList(ctx, swarm.ConfigListOptions{})
	if err != nil {
		return nil, translateErr(err, "listing configs")
	}
	out := make([]engine.Config, 0, len(list))
	for _, cf := range list {
		out = append(out, engine.Config{ID: cf.ID, Name: cf.Spec.Name})
	}
	return out, nil
}

func (c *Client) CreateConfig(ctx context.Context, name string, data []byte) (string, error) {
	resp, err := c.cli.ConfigCreate(ctx, swarm.ConfigSpec{Annotations: swarm.Annotations{Name: name}, Data: data})
	if err != nil {
		return "", translateErr(err, "creating config %s", name)
	}
	return resp.ID, nil
}

func (c *Client) RemoveConfig(ctx context.Context, id string) error {
	return translateErr(c.cli.ConfigRemove(ctx, id), "removing config %s", id)
}

func (c *Client) StreamEvents(ctx context.Context) (<-chan engine.EngineEvent, error) {
	msgCh, errCh := c.cli.Events(ctx, events.ListOptions{})
	out := make(chan engine.EngineEvent, 64)
	go func() {
		defer close(out)
		for {
			select {
			case msg, ok := <-msgCh:
				if !ok {
					return
				}
				attrs := map[string]string{}
				for k, v := range msg.Actor.Attributes {
					attrs[k] = v
				}
				out <- engine.EngineEvent{
					Type:        string(msg.Type),
					Action:      string(msg.Action),
					ActorID:     msg.Actor.ID,
					TimestampNS: msg.TimeNano,
					Attributes:  attrs,
				}
			case err, ok := <-errCh:
				if !ok || err == nil {
					return
				}
				logging.Warn(subsystem, "engine event stream ended: %v", err)
				return
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// --- exec --------------------------------------------------------------------

func (c *Client) CreateExec(ctx context.Context, cfg engine.ExecConfig) (string, error) {
	resp, err := c.cli.ContainerExecCreate(ctx, cfg.ContainerID, container.ExecOptions{
		Cmd:          cfg.Cmd,
		Env:          cfg.Env,
		Tty:          cfg.Tty,
		AttachStdin:  cfg.AttachStdin,
		AttachStdout: true,
		AttachStderr: true,
	})
	if err != nil {
		return "", translateErr(err, "creating exec on %s", shortID(cfg.ContainerID))
	}
	return resp.ID, nil
}

func (c *Client) StartExec(ctx context.Context, execID string) (engine.ExecStream, error) {
	resp, err := c.cli.ContainerExecAttach(ctx, execID, container.ExecAttachOptions{})
	if err != nil {
		return nil, translateErr(err, "attaching exec %s", execID)
	}
	return &hijackedExecStream{resp: resp}, nil
}

func (c *Client) ResizeExec(ctx context.Context, execID string, rows, cols uint) error {
	return translateErr(c.cli.ContainerExecResize(ctx, execID, container.ResizeOptions{Height: rows, Width: cols}), "resizing exec %s", execID)
}

func (c *Client) InspectExec(ctx context.Context, execID string) (engine.ExecInspectResult, error) {
	resp, err := c.cli.ContainerExecInspect(ctx, execID)
	if err != nil {
		return engine.ExecInspectResult{}, translateErr(err, "inspecting exec %s", execID)
	}
	return engine.ExecInspectResult{Running: resp.Running, ExitCode: resp.ExitCode}, nil
}
