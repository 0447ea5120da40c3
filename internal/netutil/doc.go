// Package netutil decides how the auth-server container is attached to the
// network and where it can be reached once it runs.
//
// Resolve produces a Plan before the container is created. After start,
// Plan.Endpoints turns the runtime's published ports into the address other
// services should use and the address this process uses for provisioning.
// PortRegistry hands out distinct free local ports to in-process fakes.
package netutil
