// Package engine defines the capability-set contract the rest of the
// system consumes from the local container engine: inventory, logs and
// stats, lifecycle, swarm orchestration, and exec. Two implementations
// satisfy it: a real client backed by the Docker Engine API
// (internal/engine/dockerengine) and an in-memory test double
// (internal/engine/fake) used as the conformance target for every
// higher-level package.
package engine

import "context"

// StreamKind distinguishes stdout from stderr for a single raw log line.
type StreamKind string

const (
	StreamStdout StreamKind = "out"
	StreamStderr StreamKind = "err"
)

// RawLogLine is the atomic unit read off a container's log stream.
type RawLogLine struct {
	ContainerID string
	TimestampNS int64
	Stream      StreamKind
	Content     []byte
	Sequence    uint64
}

// LogStreamRequest bounds a historical-or-following log read.
type LogStreamRequest struct {
	ContainerID string
	SinceNS     int64
	UntilNS     int64
	Tail        int // 0 means "no explicit tail", server clamps to MaxLogLines
	Follow      bool
	Timestamps  bool
	Filter      string // engine-side grep-style filter, best effort
}

// MaxLogLines is the hard clamp on the tail parameter of historical queries (§6).
const MaxLogLines = 2000

// ContainerSummary is the inventory listing shape.
type ContainerSummary struct {
	ID      string
	Names   []string
	Image   string
	State   string // created|running|paused|restarting|removing|exited|dead
	Status  string
	Labels  map[string]string
	Created int64
}

// ContainerDetail is the single-container inspect shape.
type ContainerDetail struct {
	ContainerSummary
	Command    []string
	Env        []string
	Mounts     []MountInfo
	Networks   map[string]string // network name -> IP
	SwarmTask  *SwarmTaskRef     // populated when the container belongs to a swarm task
}

// MountInfo describes one mount point of an inspected container.
type MountInfo struct {
	Type        string
	Source      string
	Destination string
	ReadOnly    bool
}

// SwarmTaskRef enriches a container with the swarm context it belongs to.
type SwarmTaskRef struct {
	ServiceID   string
	ServiceName string
	TaskID      string
	TaskSlot    int
	NodeID      string
}

// ImageSummary, NetworkSummary, VolumeSummary are inventory listing shapes.
type ImageSummary struct {
	ID      string
	Tags    []string
	Created int64
	Size    int64
}

type NetworkSummary struct {
	ID     string
	Name   string
	Driver string
	Labels map[string]string
}

type VolumeSummary struct {
	Name   string
	Driver string
	Labels map[string]string
}

// SystemInfo is a one-shot engine-wide summary.
type SystemInfo struct {
	ServerVersion   string
	ContainersTotal int
	ImagesTotal     int
	SwarmNodeID     string // empty unless the engine is a swarm manager
}

// Stats is a single-sample resource usage reading.
type Stats struct {
	ContainerID   string
	TimestampNS   int64
	CPUPercent    float64
	MemoryUsage   uint64
	MemoryLimit   uint64
	NetworkRxByte uint64
	NetworkTxByte uint64
}

// SwarmRole is the orchestration role of the local engine node.
type SwarmRole string

const (
	RoleManager SwarmRole = "manager"
	RoleWorker  SwarmRole = "worker"
	RoleNone    SwarmRole = "none"
)

// SwarmInspectResult reports whether, and how, the local engine participates in a swarm.
type SwarmInspectResult struct {
	Role       SwarmRole
	NodeID     string
	ClusterID  string // populated only when Role == RoleManager
}

// Node mirrors the swarm node listing/inspect shape.
type Node struct {
	ID           string
	Hostname     string
	Role         SwarmRole
	State        string // ready|down|disconnected|unknown
	Availability string // active|pause|drain
	UpdatedAtNS  int64
}

// Service mirrors the swarm service listing/inspect shape.
type Service struct {
	ID            string
	Name          string
	Image         string
	Mode          ServiceMode
	Replicas      int // meaningful only when Mode == ModeReplicated
	UpdateState   string // none|updating|paused|completed|rollback_started|rollback_paused|rollback_completed
	UpdateStartedAtNS   int64
	UpdateCompletedAtNS int64
	UpdateMessage string
	RestartPolicy string
	Labels        map[string]string
}

// ServiceMode distinguishes replicated from global services.
type ServiceMode string

const (
	ModeReplicated ServiceMode = "replicated"
	ModeGlobal     ServiceMode = "global"
)

// Task mirrors the swarm task listing shape.
type Task struct {
	ID            string
	ServiceID     string
	Slot          int
	NodeID        string
	State         string // new|pending|assigned|accepted|preparing|ready|starting|running|complete|shutdown|failed|rejected|remove|orphaned
	DesiredState  string
	StatusErr     string // engine-reported status error message, e.g. "task: non-zero exit (137): oom-killed"
	UpdatedAtNS   int64
	ContainerID   string
}

// Secret and Config mirror the swarm secret/config listing shape (names only; values are opaque to this system).
type Secret struct {
	ID   string
	Name string
}

type Config struct {
	ID   string
	Name string
}

// EngineEvent is a single item from the engine's event stream.
type EngineEvent struct {
	Type        string // container|network|volume|service|node|secret|config
	Action      string
	ActorID     string
	TimestampNS int64
	Attributes  map[string]string
}

// ExecConfig describes a requested exec session.
type ExecConfig struct {
	ContainerID string
	Cmd         []string
	Env         []string
	Tty         bool
	AttachStdin bool
}

// Engine is the full capability set the rest of the system consumes.
type Engine interface {
	// Inventory
	ListContainers(ctx context.Context, all bool) ([]ContainerSummary, error)
	InspectContainer(ctx context.Context, id string) (ContainerDetail, error)
	ListImages(ctx context.Context) ([]ImageSummary, error)
	ListNetworks(ctx context.Context) ([]NetworkSummary, error)
	ListVolumes(ctx context.Context) ([]VolumeSummary, error)
	SystemInfo(ctx context.Context) (SystemInfo, error)

	// Logs & stats
	StreamLogs(ctx context.Context, req LogStreamRequest) (<-chan RawLogLine, error)
	StreamServiceLogs(ctx context.Context, serviceID string, req LogStreamRequest) (<-chan RawLogLine, error)
	StreamTaskLogs(ctx context.Context, taskID string, req LogStreamRequest) (<-chan RawLogLine, error)
	StreamStats(ctx context.Context, containerID string) (<-chan Stats, error)
	OneShotStats(ctx context.Context, containerID string) (Stats, error)

	// Lifecycle
	StartContainer(ctx context.Context, id string) error
	StopContainer(ctx context.Context, id string) error
	RestartContainer(ctx context.Context, id string) error
	PauseContainer(ctx context.Context, id string) error
	UnpauseContainer(ctx context.Context, id string) error
	RemoveContainer(ctx context.Context, id string, force bool) error
	CreateNetwork(ctx context.Context, name, driver string, labels map[string]string) (string, error)
	RemoveNetwork(ctx context.Context, id string) error
	CreateVolume(ctx context.Context, name, driver string, labels map[string]string) (string, error)
	RemoveVolume(ctx context.Context, name string) error
	ConnectNetwork(ctx context.Context, networkID, containerID string) error
	DisconnectNetwork(ctx context.Context, networkID, containerID string) error

	// Orchestration
	SwarmInspect(ctx context.Context) (SwarmInspectResult, error)
	SwarmInit(ctx context.Context, advertiseAddr string) (string, error)
	SwarmJoin(ctx context.Context, remoteAddrs []string, joinToken string) error
	SwarmLeave(ctx context.Context, force bool) error
	ListNodes(ctx context.Context) ([]Node, error)
	InspectNode(ctx context.Context, id string) (Node, error)
	UpdateNodeAvailability(ctx context.Context, id, availability string) error
	RemoveNode(ctx context.Context, id string, force bool) error
	ListServices(ctx context.Context) ([]Service, error)
	InspectService(ctx context.Context, id string) (Service, error)
	CreateService(ctx context.Context, spec ServiceSpec) (string, error)
	UpdateService(ctx context.Context, id string, spec ServiceSpec, forceRedeploy bool) error
	RemoveService(ctx context.Context, id string) error
	RollbackService(ctx context.Context, id string) error
	ListTasks(ctx context.Context, serviceID string) ([]Task, error)
	ListSecrets(ctx context.Context) ([]Secret, error)
	CreateSecret(ctx context.Context, name string, data []byte) (string, error)
	RemoveSecret(ctx context.Context, id string) error
	ListConfigs(ctx context.Context) ([]Config, error)
	CreateConfig(ctx context.Context, name string, data []byte) (string, error)
	RemoveConfig(ctx context.Context, id string) error
	StreamEvents(ctx context.Context) (<-chan EngineEvent, error)

	// Exec
	CreateExec(ctx context.Context, cfg ExecConfig) (string, error)
	StartExec(ctx context.Context, execID string) (ExecStream, error)
	ResizeExec(ctx context.Context, execID string, rows, cols uint) error
	InspectExec(ctx context.Context, execID string) (ExecInspectResult, error)
}

// ExecStream is a bidirectional exec session.
type ExecStream interface {
	Write(p []byte) (int, error)
	Read(p []byte) (int, error)
	Close() error
}

// ExecInspectResult reports exec session status.
type ExecInspectResult struct {
	Running  bool
	ExitCode int
}

// ServiceSpec is the engine-facing shape for create/update service,
// populated by the compose deployer (C8) and by direct control-plane callers.
type ServiceSpec struct {
	Name          string
	Image         string
	Replicas      int // ignored when Global is true
	Global        bool
	Env           []string
	Command       []string
	Labels        map[string]string
	Networks      []string
	Ports         []PortSpec
	Mounts        []MountSpec
	RestartPolicy string
}

// PortSpec mirrors a swarm endpoint port config.
type PortSpec struct {
	Target    int
	Published int
	Protocol  string // tcp|udp|sctp
	Mode      string // ingress|host
}

// MountSpec mirrors a swarm service mount.
type MountSpec struct {
	Type     string // bind|volume|tmpfs
	Source   string
	Target   string
	ReadOnly bool
}
