package core

import (
	"context"
	"fmt"
	"maps"
	"sync"

	"github.com/google/uuid"

	"github.com/giantswarm/realmenv/internal/runtime"
)

// FeatureName identifies the dev service and prefixes its properties.
const FeatureName = "lorisgate"

// Ownership tells whether a Service's container was started by this
// process or found running.
type Ownership int

const (
	// Owned services were started by this process. Closing one stops and
	// removes its container unless it was created for reuse.
	Owned Ownership = iota

	// Discovered services run in a container started elsewhere. Closing one
	// never touches the container.
	Discovered
)

// IsValid reports whether o is a recognized Ownership value.
func (o Ownership) IsValid() bool {
	return o == Owned || o == Discovered
}

// String returns the lowercase name of o.
func (o Ownership) String() string {
	switch o {
	case Owned:
		return "owned"
	case Discovered:
		return "discovered"
	default:
		return fmt.Sprintf("Ownership(%d)", int(o))
	}
}

// Service is a reachable auth server produced by Ensure.
type Service struct {
	id          string
	containerID string
	ownership   Ownership
	service     runtime.Address
	client      runtime.Address
	realms      []string
	props       map[string]string

	closeFn   func(ctx context.Context) error
	closeOnce sync.Once
	closeErr  error
}

func newService(ownership Ownership, service, client runtime.Address, props map[string]string) *Service {
	return &Service{
		id:          uuid.NewString(),
		containerID: service.ID,
		ownership:   ownership,
		service:     service,
		client:      client,
		props:       props,
	}
}

// ID returns a unique identifier for this service.
func (s *Service) ID() string { return s.id }

// FeatureName returns the name of the dev service.
func (s *Service) FeatureName() string { return FeatureName }

// ContainerID returns the ID of the container backing the service.
func (s *Service) ContainerID() string { return s.containerID }

// Ownership reports whether the container was started by this process.
func (s *Service) Ownership() Ownership { return s.ownership }

// Endpoint returns the URL this process uses to reach the service.
func (s *Service) Endpoint() string { return s.client.URL() }

// CreatedRealms returns the names of the realms created when the service
// was started, sorted. Realms that already existed are not included.
func (s *Service) CreatedRealms() []string {
	return append([]string(nil), s.realms...)
}

// Properties returns a copy of the configuration properties exposed to the
// consuming application.
func (s *Service) Properties() map[string]string {
	return maps.Clone(s.props)
}

// Close releases the service. Closing a discovered service does nothing.
// Close is idempotent; later calls return the first result.
func (s *Service) Close(ctx context.Context) error {
	s.closeOnce.Do(func() {
		if s.closeFn != nil {
			s.closeErr = s.closeFn(ctx)
		}
	})
	return s.closeErr
}
