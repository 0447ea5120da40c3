package realmenv

import (
	"fmt"
	"time"
)

// requirePositive panics if v <= 0 with a descriptive message.
func requirePositive[T int | time.Duration](name string, v T) {
	if v <= 0 {
		panic(fmt.Sprintf("realmenv: %s must be greater than 0, got %v", name, v))
	}
}

// requireNonEmpty panics if s is empty with a descriptive message.
func requireNonEmpty(name, s string) {
	if s == "" {
		panic(fmt.Sprintf("realmenv: %s must not be empty", name))
	}
}

// Option configures an Orchestrator during construction via NewOrchestrator.
//
// Several With* functions panic on invalid input. Option values are
// typically constants, so an invalid value is a programmer error, in the
// manner of [regexp.MustCompile].
type Option func(*orchestratorConfig)

// WithRuntime sets the container runtime. The orchestrator never closes a
// runtime supplied this way.
//
// Panics if rt is nil.
func WithRuntime(rt Runtime) Option {
	if rt == nil {
		panic("realmenv: runtime must not be nil")
	}
	return func(c *orchestratorConfig) {
		c.Runtime = rt
	}
}

// WithLaunchMode sets the launch mode of this process. Containers are
// labelled with it and only dev sessions discover each other's containers.
//
// Default: LaunchDev.
//
// Panics if mode is not LaunchDev or LaunchTest.
func WithLaunchMode(mode LaunchMode) Option {
	if !mode.IsValid() {
		panic(fmt.Sprintf("realmenv: invalid launch mode %q", mode))
	}
	return func(c *orchestratorConfig) {
		c.LaunchMode = mode
	}
}

// WithSharedNetwork makes created containers join the named network, where
// sibling containers reach the service as "lorisgate" on port 8080. The
// network is created when missing.
//
// Panics if name is empty.
func WithSharedNetwork(name string) Option {
	requireNonEmpty("shared network name", name)
	return func(c *orchestratorConfig) {
		c.SharedNetwork = name
	}
}

// WithDefaultImage sets the image used when the service configuration
// names none.
//
// Default: DefaultImage.
//
// Panics if ref is empty.
func WithDefaultImage(ref string) Option {
	requireNonEmpty("default image", ref)
	return func(c *orchestratorConfig) {
		c.DefaultImage = ref
	}
}

// WithAdminTimeout bounds each admin API call during provisioning.
//
// Default: 5 minutes.
//
// Panics if d <= 0.
func WithAdminTimeout(d time.Duration) Option {
	requirePositive("admin timeout", d)
	return func(c *orchestratorConfig) {
		c.AdminTimeout = d
	}
}

// WithStartupTimeout bounds the health wait of a new container when the
// service configuration sets no startup timeout.
//
// Default: 2 minutes.
//
// Panics if d <= 0.
func WithStartupTimeout(d time.Duration) Option {
	requirePositive("startup timeout", d)
	return func(c *orchestratorConfig) {
		c.StartupTimeout = d
	}
}

// WithStopTimeout sets the grace period given to a container on stop.
//
// Default: 10 seconds.
//
// Panics if d <= 0.
func WithStopTimeout(d time.Duration) Option {
	requirePositive("stop timeout", d)
	return func(c *orchestratorConfig) {
		c.StopTimeout = d
	}
}

// WithPollInterval sets the delay between health checks.
//
// Default: 250 milliseconds.
//
// Panics if d <= 0.
func WithPollInterval(d time.Duration) Option {
	requirePositive("poll interval", d)
	return func(c *orchestratorConfig) {
		c.PollInterval = d
	}
}

// WithLockDir sets the directory of the lock files that serialize
// orchestrators of different processes per service name.
// If not set, defaults to "realmenv" under the system temp directory.
//
// Panics if dir is empty.
func WithLockDir(dir string) Option {
	requireNonEmpty("lock directory", dir)
	return func(c *orchestratorConfig) {
		c.LockDir = dir
	}
}

// WithResourceDirs sets the directories searched, in order, for mount
// sources of service configurations with classpath mounts enabled.
//
// Panics if any dir is empty.
func WithResourceDirs(dirs ...string) Option {
	for _, d := range dirs {
		requireNonEmpty("resource directory", d)
	}
	dirs = append([]string(nil), dirs...)
	return func(c *orchestratorConfig) {
		c.ResourceDirs = dirs
	}
}
