// Package locator finds an auth-server container that is already running
// for a service name, typically started by another dev session.
package locator

import (
	"context"
	"fmt"
	"log/slog"

	"k8s.io/apimachinery/pkg/util/sets"

	"github.com/giantswarm/realmenv/internal/config"
	"github.com/giantswarm/realmenv/internal/netutil"
	"github.com/giantswarm/realmenv/internal/runtime"
)

// Locator looks up running containers by their discovery labels. It never
// modifies the containers it finds.
type Locator struct {
	rt   runtime.Runtime
	port int
	log  *slog.Logger
}

// New creates a Locator matching containers that publish netutil.ServicePort.
func New(rt runtime.Runtime, log *slog.Logger) *Locator {
	if log == nil {
		log = slog.Default()
	}
	return &Locator{rt: rt, port: netutil.ServicePort, log: log}
}

// Locate returns the address of the first running container labelled with
// serviceName and mode that publishes the service port. Containers in
// exclude are ignored. Only dev sessions with sharing enabled discover
// containers; otherwise Locate reports a miss without querying the runtime.
func (l *Locator) Locate(ctx context.Context, serviceName string, shared bool, mode config.LaunchMode, exclude sets.Set[string]) (runtime.Address, bool, error) {
	if !shared || mode != config.LaunchDev {
		return runtime.Address{}, false, nil
	}

	containers, err := l.rt.List(ctx, Labels(serviceName, mode), false)
	if err != nil {
		return runtime.Address{}, false, fmt.Errorf("locate %s: %w", serviceName, err)
	}

	for _, c := range containers {
		if !c.Running {
			continue
		}
		if exclude.Has(c.ID) {
			l.log.Debug("skipping retired container", "container", c.ID)
			continue
		}
		port, ok := c.HostPort(l.port)
		if !ok {
			l.log.Debug("skipping container without published service port", "container", c.ID)
			continue
		}
		addr := runtime.Address{ID: c.ID, Host: l.rt.Host(), Port: port}
		l.log.Info("found running container", "container", c.ID, "address", addr.HostPort())
		return addr, true, nil
	}
	return runtime.Address{}, false, nil
}

// Labels returns the discovery labels for serviceName in mode.
func Labels(serviceName string, mode config.LaunchMode) map[string]string {
	return map[string]string{
		runtime.LabelService:    serviceName,
		runtime.LabelLaunchMode: mode.String(),
	}
}
