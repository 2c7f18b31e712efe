package schema

import "docktail/internal/engine"

// Node is the wire shape of a swarm node listing/inspect entry.
type Node struct {
	ID           string   `json:"id"`
	Hostname     string   `json:"hostname"`
	Role         NodeRole `json:"role"`
	State        string   `json:"state"`
	Availability string   `json:"availability"`
	UpdatedAt    string   `json:"updated_at"`
}

func mapNodeRoleOut(r engine.SwarmRole) NodeRole {
	switch r {
	case engine.RoleManager:
		return NodeRoleManager
	case engine.RoleWorker:
		return NodeRoleWorker
	case engine.RoleNone:
		return NodeRoleNone
	default:
		return NodeRoleUnknown
	}
}

func mapNodeRoleIn(r NodeRole) engine.SwarmRole {
	switch r {
	case NodeRoleManager:
		return engine.RoleManager
	case NodeRoleWorker:
		return engine.RoleWorker
	case NodeRoleNone:
		return engine.RoleNone
	default:
		return engine.SwarmRole("")
	}
}

// MapNodeOut converts an engine node record to its wire shape.
func MapNodeOut(n engine.Node) Node {
	return Node{
		ID:           n.ID,
		Hostname:     n.Hostname,
		Role:         mapNodeRoleOut(n.Role),
		State:        n.State,
		Availability: n.Availability,
		UpdatedAt:    nsToRFC3339(n.UpdatedAtNS),
	}
}

// MapNodeIn converts a wire node back to the engine shape.
func MapNodeIn(n Node) engine.Node {
	return engine.Node{
		ID:           n.ID,
		Hostname:     n.Hostname,
		Role:         mapNodeRoleIn(n.Role),
		State:        n.State,
		Availability: n.Availability,
		UpdatedAtNS:  rfc3339ToNS(n.UpdatedAt),
	}
}
