package core

import (
	"errors"

	"github.com/giantswarm/realmenv/internal/lifecycle"
	"github.com/giantswarm/realmenv/internal/provision"
	"github.com/giantswarm/realmenv/internal/sentinel"
)

const (
	// ErrDisabled is returned by Ensure when the service configuration is
	// disabled. Nothing is started or cached.
	ErrDisabled = sentinel.Error("dev service disabled")

	// ErrRuntimeUnavailable is returned by Ensure when the container runtime
	// cannot be reached. Callers typically continue without the service.
	ErrRuntimeUnavailable = sentinel.Error("container runtime unavailable")

	// ErrClosed is returned by Ensure after Close.
	ErrClosed = sentinel.Error("orchestrator closed")

	// ErrStartupTimeout is re-exported from lifecycle so the public API
	// imports only from core.
	ErrStartupTimeout = lifecycle.ErrStartupTimeout

	// ErrContainerExited is re-exported from lifecycle.
	ErrContainerExited = lifecycle.ErrContainerExited

	// ErrProvisioning is re-exported from provision.
	ErrProvisioning = provision.ErrProvisioning
)

// IsFatal reports whether err means a dev service could not be brought up
// although the runtime was available: the container did not become healthy
// or its realms could not be provisioned.
func IsFatal(err error) bool {
	return errors.Is(err, ErrStartupTimeout) ||
		errors.Is(err, ErrContainerExited) ||
		errors.Is(err, ErrProvisioning)
}
