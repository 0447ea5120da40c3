package realmenv

import (
	"context"

	"github.com/giantswarm/realmenv/internal/runtime"
)

// Orchestrator runs the auth-server dev service for one process.
//
// Callers must follow this lifecycle ordering:
//
//	NewOrchestrator → Ensure (repeatable) → Close
//
// Ensure may be called again whenever the service configuration may have
// changed; an unchanged configuration returns the running service at no
// cost. Close is safe to call at any point, including before Ensure.
type Orchestrator interface {
	// Ensure returns a running service for cfg, discovering, reusing or
	// starting one as needed. A service that belongs to a different
	// configuration is closed first.
	//
	// Returns ErrDisabled when cfg is disabled and ErrRuntimeUnavailable when
	// the container runtime cannot be reached; both are non-fatal. Returns an
	// error matching IsFatal when the service failed to start or its realms
	// could not be provisioned. Returns ErrClosed after Close.
	Ensure(ctx context.Context, cfg ServiceConfig) (Service, error)

	// Current returns the cached service, if any.
	Current() (Service, bool)

	// Prune removes the containers realmenv created on the runtime, except
	// the one behind the current service, and returns their names. This
	// includes reusable containers and shared ones other processes use.
	Prune(ctx context.Context) ([]string, error)

	// Close closes the cached service and releases the runtime client
	// created by NewOrchestrator. Later Ensure calls return ErrClosed.
	// Close is idempotent.
	Close(ctx context.Context) error
}

// Service is a reachable dev service.
type Service interface {
	// ID returns a unique identifier for this service value.
	ID() string

	// FeatureName returns the dev service name, "lorisgate".
	FeatureName() string

	// ContainerID returns the ID of the backing container.
	ContainerID() string

	// Ownership reports whether this process started the container.
	Ownership() Ownership

	// Endpoint returns the URL at which this process reaches the service.
	Endpoint() string

	// CreatedRealms returns the realms created when the service started.
	CreatedRealms() []string

	// Properties returns a copy of the configuration properties for the
	// consuming application, keyed as listed in the Prop* constants.
	Properties() map[string]string

	// Close releases the service. Discovered services and services created
	// with Reuse leave their container running. Close is idempotent.
	Close(ctx context.Context) error
}

// Runtime is the container runtime capability the orchestrator drives. The
// default is Docker; tests and other engines plug in through WithRuntime.
type Runtime = runtime.Runtime

// Runtime value types.
type (
	Container     = runtime.Container
	CreateRequest = runtime.CreateRequest
	Mount         = runtime.Mount
)
