package schema

import "docktail/internal/engine"

// Service is the wire shape of a swarm service listing/inspect entry.
type Service struct {
	ID                string            `json:"id"`
	Name              string            `json:"name"`
	Image             string            `json:"image"`
	Mode              ServiceMode       `json:"mode"`
	Replicas          int               `json:"replicas"`
	UpdateState       string            `json:"update_state"`
	UpdateStartedAt   string            `json:"update_started_at"`
	UpdateCompletedAt string            `json:"update_completed_at"`
	UpdateMessage     string            `json:"update_message"`
	RestartPolicy     string            `json:"restart_policy"`
	Labels            map[string]string `json:"labels"`
}

func mapServiceModeOut(m engine.ServiceMode) ServiceMode {
	switch m {
	case engine.ModeReplicated:
		return ServiceModeReplicated
	case engine.ModeGlobal:
		return ServiceModeGlobal
	default:
		return ServiceModeUnknown
	}
}

func mapServiceModeIn(m ServiceMode) engine.ServiceMode {
	switch m {
	case ServiceModeReplicated:
		return engine.ModeReplicated
	case ServiceModeGlobal:
		return engine.ModeGlobal
	default:
		return engine.ServiceMode("")
	}
}

// MapServiceOut converts an engine service record to its wire shape.
func MapServiceOut(s engine.Service) Service {
	return Service{
		ID:                s.ID,
		Name:              s.Name,
		Image:             s.Image,
		Mode:              mapServiceModeOut(s.Mode),
		Replicas:          s.Replicas,
		UpdateState:       defaultUpdateState(s.UpdateState),
		UpdateStartedAt:   nsToRFC3339(s.UpdateStartedAtNS),
		UpdateCompletedAt: nsToRFC3339(s.UpdateCompletedAtNS),
		UpdateMessage:     s.UpdateMessage,
		RestartPolicy:     s.RestartPolicy,
		Labels:            s.Labels,
	}
}

// MapServiceIn converts a wire service back to the engine shape.
func MapServiceIn(s Service) engine.Service {
	updateState := s.UpdateState
	if updateState == "none" {
		updateState = ""
	}
	return engine.Service{
		ID:                  s.ID,
		Name:                s.Name,
		Image:               s.Image,
		Mode:                mapServiceModeIn(s.Mode),
		Replicas:            s.Replicas,
		UpdateState:         updateState,
		UpdateStartedAtNS:   rfc3339ToNS(s.UpdateStartedAt),
		UpdateCompletedAtNS: rfc3339ToNS(s.UpdateCompletedAt),
		UpdateMessage:       s.UpdateMessage,
		RestartPolicy:       s.RestartPolicy,
		Labels:              s.Labels,
	}
}

func defaultUpdateState(s string) string {
	if s == "" {
		return "none"
	}
	return s
}
