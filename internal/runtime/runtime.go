package runtime

import (
	"context"
	"fmt"
	"io"
	"net"
	"strconv"
	"time"

	"github.com/giantswarm/realmenv/internal/sentinel"
)

// ErrNotFound is returned when a container or image does not exist.
const ErrNotFound = sentinel.Error("not found")

// Labels put on every container realmenv creates.
const (
	// LabelService carries the configured service name. AddressLocator
	// matches on it.
	LabelService = "realmenv-dev-service"

	// LabelLaunchMode carries the launch mode of the creating process.
	LabelLaunchMode = "realmenv-launch-mode"

	// LabelFingerprint carries the configuration fingerprint. Reusable
	// containers are looked up by it.
	LabelFingerprint = "realmenv-fingerprint"

	// LabelManaged marks containers and networks created by realmenv.
	LabelManaged = "realmenv-managed"
)

// Runtime is the container runtime capability used by the orchestrator.
type Runtime interface {
	// Ping reports whether the runtime is reachable.
	Ping(ctx context.Context) error

	// Host returns the address at which published container ports are
	// reachable from this process.
	Host() string

	// List returns containers carrying all of the given labels. Stopped
	// containers are included only when all is true.
	List(ctx context.Context, labels map[string]string, all bool) ([]Container, error)

	Inspect(ctx context.Context, id string) (Container, error)

	// PullImage makes ref available locally, pulling it only when missing.
	PullImage(ctx context.Context, ref string) error

	// EnsureNetwork creates the named bridge network if it does not exist.
	EnsureNetwork(ctx context.Context, name string) error

	Create(ctx context.Context, req CreateRequest) (string, error)
	Start(ctx context.Context, id string) error
	Stop(ctx context.Context, id string, timeout time.Duration) error
	Remove(ctx context.Context, id string) error

	// Logs follows the combined stdout and stderr of a container.
	Logs(ctx context.Context, id string) (io.ReadCloser, error)

	// WaitExit returns a channel that is closed once the container stops
	// running. The channel is never closed if ctx is canceled first.
	WaitExit(ctx context.Context, id string) <-chan struct{}
}

// Container is a runtime-neutral view of a container.
type Container struct {
	ID      string
	Name    string
	Image   string
	Running bool
	Labels  map[string]string

	// Ports maps a TCP container port to its published host port.
	Ports    map[int]int
	Networks []string
}

// HostPort returns the host port published for containerPort.
func (c Container) HostPort(containerPort int) (int, bool) {
	p, ok := c.Ports[containerPort]
	return p, ok && p > 0
}

// CreateRequest describes a container to create.
type CreateRequest struct {
	Name  string
	Image string

	// ContainerPort is exposed and published on HostPort. HostPort zero
	// publishes on a random port.
	ContainerPort int
	HostPort      int

	// Network is joined with Aliases as additional DNS names.
	Network string
	Aliases []string

	Labels map[string]string
	Env    map[string]string
	Mounts []Mount
}

// Mount is a bind mount.
type Mount struct {
	Source   string
	Target   string
	ReadOnly bool
}

// Address is where a running service can be reached.
type Address struct {
	ID   string
	Host string
	Port int
}

// HostPort returns host:port.
func (a Address) HostPort() string {
	return net.JoinHostPort(a.Host, strconv.Itoa(a.Port))
}

// URL returns the http base URL of the address.
func (a Address) URL() string {
	return fmt.Sprintf("http://%s", a.HostPort())
}
