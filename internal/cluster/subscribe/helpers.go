package subscribe

import "docktail/internal/engine"

// containerStreamRequest builds the default follow-mode log read used
// internally wherever a merge/comparison stream opens a container's
// pipeline without a caller-supplied request.
func containerStreamRequest(containerID string) engine.LogStreamRequest {
	return engine.LogStreamRequest{ContainerID: containerID, Follow: true}
}
