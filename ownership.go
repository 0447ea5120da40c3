package realmenv

import "github.com/giantswarm/realmenv/internal/core"

// Ownership tells whether a Service's container was started by this process
// or found running.
//
// Ownership is a type alias so that the core.Ownership methods are part of
// the public API:
//
//   - IsValid reports whether the value is a recognized ownership.
//   - String returns "owned" or "discovered".
type Ownership = core.Ownership

const (
	// Owned services were started by this process.
	Owned = core.Owned

	// Discovered services run in a container started by another process
	// sharing the same service name.
	Discovered = core.Discovered
)

// Property keys of Service.Properties.
const (
	PropHost       = core.PropHost
	PropPort       = core.PropPort
	PropEndpoint   = core.PropEndpoint
	PropClientHost = core.PropClientHost
	PropClientPort = core.PropClientPort

	PropOIDCAuthServerURL = core.PropOIDCAuthServerURL
	PropOIDCClientID      = core.PropOIDCClientID
	PropOIDCClientSecret  = core.PropOIDCClientSecret

	PropAuthServerURL     = core.PropAuthServerURL
	PropClientID          = core.PropClientID
	PropCredentialsSecret = core.PropCredentialsSecret
)
