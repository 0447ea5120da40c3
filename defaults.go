package realmenv

import (
	"time"

	"github.com/giantswarm/realmenv/internal/lifecycle"
	"github.com/giantswarm/realmenv/internal/provision"
)

// Default configuration values for NewOrchestrator.
// These constants are exported so callers can derive their own settings
// from them (e.g., 2 * DefaultStartupTimeout on slow CI machines).
const (
	// DefaultImage is the auth-server image used when the service
	// configuration names none.
	DefaultImage = "ghcr.io/lorislab/lorisgate:main"

	// DefaultLaunchMode labels containers as started by an interactive dev
	// session, which allows other dev sessions to discover them.
	DefaultLaunchMode = LaunchDev

	// DefaultAdminTimeout bounds each admin API call during provisioning.
	DefaultAdminTimeout = provision.DefaultTimeout

	// DefaultStartupTimeout bounds the wait for the container's health
	// endpoint. A service configuration may override it.
	DefaultStartupTimeout = 2 * time.Minute

	// DefaultStopTimeout is the grace period given to a container on stop.
	DefaultStopTimeout = lifecycle.DefaultStopTimeout

	// DefaultPollInterval is the delay between health checks.
	DefaultPollInterval = lifecycle.DefaultPollInterval

	// DefaultLockDirName is the directory under the system temp directory
	// holding the cross-process lock files.
	DefaultLockDirName = "realmenv"
)
