package netutil

import (
	"fmt"
	"net"
	"strconv"

	"github.com/giantswarm/realmenv/internal/runtime"
	"github.com/giantswarm/realmenv/internal/sentinel"
)

const (
	// ServicePort is the port the auth server listens on inside its container.
	ServicePort = 8080

	// DefaultAlias is the DNS name of the container on a shared network.
	DefaultAlias = "lorisgate"

	// PrivateNetwork is the bridge network used when no shared network is
	// configured. It is created on demand and never removed.
	PrivateNetwork = "realmenv"
)

// Request is the input to Resolve.
type Request struct {
	// SharedNetwork, when non-empty, is joined so sibling containers can
	// reach the service by Alias.
	SharedNetwork string
	Alias         string

	ContainerPort int

	// FixedPort is the host port to publish on. Zero publishes on a random port.
	FixedPort int
}

// Plan describes how to attach a container before it is created.
type Plan struct {
	Shared        bool
	Network       string
	Aliases       []string
	ContainerPort int
	HostPort      int
}

// Resolve builds the network plan for req. Missing fields fall back to
// ServicePort and DefaultAlias.
func Resolve(req Request) Plan {
	port := req.ContainerPort
	if port == 0 {
		port = ServicePort
	}

	if req.SharedNetwork != "" {
		alias := req.Alias
		if alias == "" {
			alias = DefaultAlias
		}
		return Plan{
			Shared:        true,
			Network:       req.SharedNetwork,
			Aliases:       []string{alias},
			ContainerPort: port,
			HostPort:      req.FixedPort,
		}
	}

	return Plan{
		Network:       PrivateNetwork,
		ContainerPort: port,
		HostPort:      req.FixedPort,
	}
}

// Endpoints computes the addresses of a started container.
//
// The service endpoint is what other services use: on a shared network it
// is alias:containerPort, otherwise the runtime host and the published
// port. The client endpoint is what this process uses and is always the
// runtime host and the published port. A fixed port wins over whatever the
// runtime reports in both cases.
func (p Plan) Endpoints(runtimeHost string, published map[int]int) (service, client runtime.Address, err error) {
	hostPort := p.HostPort
	if hostPort == 0 {
		hostPort = published[p.ContainerPort]
	}
	if hostPort == 0 {
		return runtime.Address{}, runtime.Address{}, fmt.Errorf("container port %d is not published", p.ContainerPort)
	}

	client = runtime.Address{Host: runtimeHost, Port: hostPort}
	if p.Shared {
		service = runtime.Address{Host: p.Aliases[0], Port: p.ContainerPort}
	} else {
		service = client
	}
	return service, client, nil
}

// ErrPortInUse indicates a fixed host port is already bound.
const ErrPortInUse = sentinel.Error("port already in use")

// CheckPortFree fails when port cannot be bound on all interfaces, which is
// what publishing a fixed port requires.
func CheckPortFree(port int) error {
	l, err := net.Listen("tcp", net.JoinHostPort("", strconv.Itoa(port)))
	if err != nil {
		return fmt.Errorf("fixed port %d: %w: %w", port, ErrPortInUse, err)
	}
	_ = l.Close()
	return nil
}
