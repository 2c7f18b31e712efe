package schema

import "docktail/internal/engine"

// Task is the wire shape of a swarm task listing entry.
type Task struct {
	ID           string `json:"id"`
	ServiceID    string `json:"service_id"`
	Slot         int    `json:"slot"`
	NodeID       string `json:"node_id"`
	State        string `json:"state"`
	DesiredState string `json:"desired_state"`
	StatusErr    string `json:"status_err"`
	UpdatedAt    string `json:"updated_at"`
	ContainerID  string `json:"container_id"`
}

// MapTaskOut converts an engine task record to its wire shape.
func MapTaskOut(t engine.Task) Task {
	return Task{
		ID:           t.ID,
		ServiceID:    t.ServiceID,
		Slot:         t.Slot,
		NodeID:       t.NodeID,
		State:        t.State,
		DesiredState: t.DesiredState,
		StatusErr:    t.StatusErr,
		UpdatedAt:    nsToRFC3339(t.UpdatedAtNS),
		ContainerID:  t.ContainerID,
	}
}

// MapTaskIn converts a wire task back to the engine shape.
func MapTaskIn(t Task) engine.Task {
	return engine.Task{
		ID:           t.ID,
		ServiceID:    t.ServiceID,
		Slot:         t.Slot,
		NodeID:       t.NodeID,
		State:        t.State,
		DesiredState: t.DesiredState,
		StatusErr:    t.StatusErr,
		UpdatedAtNS:  rfc3339ToNS(t.UpdatedAt),
		ContainerID:  t.ContainerID,
	}
}
