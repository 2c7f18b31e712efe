package schema

import "docktail/internal/engine"

// Container is the wire shape of an inventory listing entry.
type Container struct {
	ID        string            `json:"id"`
	Names     []string          `json:"names"`
	Image     string            `json:"image"`
	State     string            `json:"state"`
	Status    string            `json:"status"`
	Labels    map[string]string `json:"labels"`
	CreatedAt string            `json:"created_at"`
}

// MapContainerOut converts an engine container summary to its wire shape.
func MapContainerOut(c engine.ContainerSummary) Container {
	return Container{
		ID:        c.ID,
		Names:     c.Names,
		Image:     c.Image,
		State:     c.State,
		Status:    c.Status,
		Labels:    c.Labels,
		CreatedAt: nsToRFC3339(c.Created * int64(1e9)),
	}
}

// MapContainerIn converts a wire container back to the engine shape.
// CreatedAt is parsed back to the second-granularity epoch the engine
// summary carries natively (engine.ContainerSummary.Created is seconds,
// unlike the nanosecond fields used elsewhere in the domain model).
func MapContainerIn(c Container) engine.ContainerSummary {
	return engine.ContainerSummary{
		ID:      c.ID,
		Names:   c.Names,
		Image:   c.Image,
		State:   c.State,
		Status:  c.Status,
		Labels:  c.Labels,
		Created: rfc3339ToNS(c.CreatedAt) / int64(1e9),
	}
}

// Mount is the wire shape of one container mount point.
type Mount struct {
	Type        string `json:"type"`
	Source      string `json:"source"`
	Destination string `json:"destination"`
	ReadOnly    bool   `json:"read_only"`
}

func MapMountOut(m engine.MountInfo) Mount {
	return Mount{Type: m.Type, Source: m.Source, Destination: m.Destination, ReadOnly: m.ReadOnly}
}

func MapMountIn(m Mount) engine.MountInfo {
	return engine.MountInfo{Type: m.Type, Source: m.Source, Destination: m.Destination, ReadOnly: m.ReadOnly}
}

// SwarmTaskRef is the wire shape of a container's swarm-task enrichment.
type SwarmTaskRef struct {
	ServiceID   string `json:"service_id"`
	ServiceName string `json:"service_name"`
	TaskID      string `json:"task_id"`
	TaskSlot    int    `json:"task_slot"`
	NodeID      string `json:"node_id"`
}

func MapSwarmTaskRefOut(r engine.SwarmTaskRef) SwarmTaskRef {
	return SwarmTaskRef{ServiceID: r.ServiceID, ServiceName: r.ServiceName, TaskID: r.TaskID, TaskSlot: r.TaskSlot, NodeID: r.NodeID}
}

func MapSwarmTaskRefIn(r SwarmTaskRef) engine.SwarmTaskRef {
	return engine.SwarmTaskRef{ServiceID: r.ServiceID, ServiceName: r.ServiceName, TaskID: r.TaskID, TaskSlot: r.TaskSlot, NodeID: r.NodeID}
}

// ContainerDetail is the wire shape of a single-container inspect.
type ContainerDetail struct {
	Container
	Command   []string          `json:"command"`
	Env       []string          `json:"env"`
	Mounts    []Mount           `json:"mounts"`
	Networks  map[string]string `json:"networks"`
	SwarmTask *SwarmTaskRef     `json:"swarm_task,omitempty"`
}

func MapContainerDetailOut(d engine.ContainerDetail) ContainerDetail {
	out := ContainerDetail{
		Container: MapContainerOut(d.ContainerSummary),
		Command:   d.Command,
		Env:       d.Env,
		Networks:  d.Networks,
	}
	for _, m := range d.Mounts {
		out.Mounts = append(out.Mounts, MapMountOut(m))
	}
	if d.SwarmTask != nil {
		ref := MapSwarmTaskRefOut(*d.SwarmTask)
		out.SwarmTask = &ref
	}
	return out
}

func MapContainerDetailIn(d ContainerDetail) engine.ContainerDetail {
	out := engine.ContainerDetail{
		ContainerSummary: MapContainerIn(d.Container),
		Command:          d.Command,
		Env:              d.Env,
		Networks:         d.Networks,
	}
	for _, m := range d.Mounts {
		out.Mounts = append(out.Mounts, MapMountIn(m))
	}
	if d.SwarmTask != nil {
		ref := MapSwarmTaskRefIn(*d.SwarmTask)
		out.SwarmTask = &ref
	}
	return out
}
