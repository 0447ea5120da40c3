package realmenv

import (
	"github.com/giantswarm/realmenv/internal/core"
	"github.com/giantswarm/realmenv/internal/provision"
)

// Sentinel errors for error inspection with errors.Is.
const (
	// ErrDisabled is returned by Ensure when the service configuration is
	// disabled.
	ErrDisabled = core.ErrDisabled

	// ErrRuntimeUnavailable is returned by Ensure when the container runtime
	// cannot be reached. The consuming application should continue without
	// the dev service, e.g. with externally configured endpoints.
	ErrRuntimeUnavailable = core.ErrRuntimeUnavailable

	// ErrStartupTimeout is returned by Ensure when the container did not
	// become healthy within the startup timeout.
	ErrStartupTimeout = core.ErrStartupTimeout

	// ErrContainerExited is returned by Ensure when the container stopped
	// before it became healthy.
	ErrContainerExited = core.ErrContainerExited

	// ErrProvisioning is returned by Ensure when a realm could not be read
	// or created. A *StatusError in the chain carries the HTTP status.
	ErrProvisioning = core.ErrProvisioning

	// ErrClosed is returned by Ensure after Close.
	ErrClosed = core.ErrClosed
)

// StatusError is an unexpected admin API response.
type StatusError = provision.StatusError

// IsFatal reports whether err means the dev service could not be brought up
// although the container runtime was available. Non-fatal errors
// (ErrDisabled, ErrRuntimeUnavailable) mean the application can proceed
// without the service.
func IsFatal(err error) bool {
	return core.IsFatal(err)
}
