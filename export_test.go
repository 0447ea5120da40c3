package realmenv

import "time"

// ConfigSnapshot holds a copy of orchestratorConfig fields for test
// assertions, so the _test package can verify option closures without
// accessing internals.
type ConfigSnapshot struct {
	HasRuntime     bool
	LaunchMode     LaunchMode
	SharedNetwork  string
	DefaultImage   string
	AdminTimeout   time.Duration
	StartupTimeout time.Duration
	StopTimeout    time.Duration
	PollInterval   time.Duration
	LockDir        string
	ResourceDirs   []string
}

// ApplyOptionsForTesting creates a default orchestratorConfig, applies the
// given options, and returns a snapshot of the result.
func ApplyOptionsForTesting(opts ...Option) ConfigSnapshot {
	cfg := defaultOrchestratorConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	return ConfigSnapshot{
		HasRuntime:     cfg.Runtime != nil,
		LaunchMode:     cfg.LaunchMode,
		SharedNetwork:  cfg.SharedNetwork,
		DefaultImage:   cfg.DefaultImage,
		AdminTimeout:   cfg.AdminTimeout,
		StartupTimeout: cfg.StartupTimeout,
		StopTimeout:    cfg.StopTimeout,
		PollInterval:   cfg.PollInterval,
		LockDir:        cfg.LockDir,
		ResourceDirs:   cfg.ResourceDirs,
	}
}
