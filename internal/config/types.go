package config

// Config is the top-level configuration structure resolved from
// config.yaml and handed to every component above the ambient stack.
type Config struct {
	Multiline    MultilineConfig    `yaml:"multiline"`
	Discovery    DiscoveryConfig    `yaml:"discovery"`
	Observer     ObserverConfig     `yaml:"observer"`
	Subscription SubscriptionConfig `yaml:"subscription"`
}

// MultilineConfig controls the multiline grouper (C4).
type MultilineConfig struct {
	TimeoutMS           int  `yaml:"timeout_ms,omitempty"`
	MaxLines            int  `yaml:"max_lines,omitempty"`
	RequireErrorAnchor  bool `yaml:"require_error_anchor"`
}

// DiscoveryConfig controls how the cluster service finds and health-checks agents (C10).
type DiscoveryConfig struct {
	StaticEndpoints       []string `yaml:"static_endpoints,omitempty"`
	Enabled               bool     `yaml:"enabled"`
	HealthCheckIntervalMS int      `yaml:"health_check_interval_ms,omitempty"`
}

// ObserverConfig controls the orchestration observer's four poll loops (C7).
type ObserverConfig struct {
	PollIntervalMS      int `yaml:"poll_interval_ms,omitempty"`
	RestartWindowSeconds int `yaml:"restart_window_seconds,omitempty"`
	CrashLoopThreshold   int `yaml:"crash_loop_threshold,omitempty"`
}

// SubscriptionConfig controls merge-stream bounds (C12).
type SubscriptionConfig struct {
	MaxContainerStreams int `yaml:"max_container_streams,omitempty"`
	MaxStackServices    int `yaml:"max_stack_services,omitempty"`
	MergeChunkSize      int `yaml:"merge_chunk_size,omitempty"`
	ComparisonChunkSize int `yaml:"comparison_chunk_size,omitempty"`
}

// PollFloorMS is the minimum poll interval any observer loop will honor (§5).
const PollFloorMS = 500

// Default returns the configuration used when no config.yaml is present, or
// to fill in fields a partial config.yaml omits.
func Default() Config {
	return Config{
		Multiline: MultilineConfig{
			TimeoutMS:          300,
			MaxLines:           50,
			RequireErrorAnchor: true,
		},
		Discovery: DiscoveryConfig{
			Enabled:               true,
			HealthCheckIntervalMS: 5000,
		},
		Observer: ObserverConfig{
			PollIntervalMS:       2000,
			RestartWindowSeconds: 300,
			CrashLoopThreshold:   3,
		},
		Subscription: SubscriptionConfig{
			MaxContainerStreams: 20,
			MaxStackServices:    20,
			MergeChunkSize:      10,
			ComparisonChunkSize: 20,
		},
	}
}

// mergeDefaults fills zero-valued numeric fields in cfg from defaults and
// raises the observer poll interval to PollFloorMS; boolean and list
// fields are left as they are.
func mergeDefaults(cfg, defaults Config) Config {
	if cfg.Multiline.TimeoutMS == 0 {
		cfg.Multiline.TimeoutMS = defaults.Multiline.TimeoutMS
	}
	if cfg.Multiline.MaxLines == 0 {
		cfg.Multiline.MaxLines = defaults.Multiline.MaxLines
	}
	if cfg.Discovery.HealthCheckIntervalMS == 0 {
		cfg.Discovery.HealthCheckIntervalMS = defaults.Discovery.HealthCheckIntervalMS
	}
	if cfg.Observer.PollIntervalMS == 0 {
		cfg.Observer.PollIntervalMS = defaults.Observer.PollIntervalMS
	}
	if cfg.Observer.PollIntervalMS < PollFloorMS {
		cfg.Observer.PollIntervalMS = PollFloorMS
	}
	if cfg.Observer.RestartWindowSeconds == 0 {
		cfg.Observer.RestartWindowSeconds = defaults.Observer.RestartWindowSeconds
	}
	if cfg.Observer.CrashLoopThreshold == 0 {
		cfg.Observer.CrashLoopThreshold = defaults.Observer.CrashLoopThreshold
	}
	if cfg.Subscription.MaxContainerStreams == 0 {
		cfg.Subscription.MaxContainerStreams = defaults.Subscription.MaxContainerStreams
	}
	if cfg.Subscription.MaxStackServices == 0 {
		cfg.Subscription.MaxStackServices = defaults.Subscription.MaxStackServices
	}
	if cfg.Subscription.MergeChunkSize == 0 {
		cfg.Subscription.MergeChunkSize = defaults.Subscription.MergeChunkSize
	}
	if cfg.Subscription.ComparisonChunkSize == 0 {
		cfg.Subscription.ComparisonChunkSize = defaults.Subscription.ComparisonChunkSize
	}
	return cfg
}
