package core

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"sync"

	"k8s.io/apimachinery/pkg/util/sets"

	"github.com/giantswarm/realmenv/internal/config"
	"github.com/giantswarm/realmenv/internal/lifecycle"
	"github.com/giantswarm/realmenv/internal/locator"
	"github.com/giantswarm/realmenv/internal/lockfile"
	"github.com/giantswarm/realmenv/internal/netutil"
	"github.com/giantswarm/realmenv/internal/provision"
	"github.com/giantswarm/realmenv/internal/runtime"
)

// Orchestrator brings one dev service up per process and keeps it in step
// with the service configuration. It is safe for concurrent use.
//
// Ensure holds mu for the whole reconciliation, so a concurrent Close waits
// for an in-flight Ensure and then tears down whatever it produced. The
// cached service always belongs to the cached fingerprint.
type Orchestrator struct {
	cfg OrchestratorConfig

	mu          sync.Mutex
	current     *Service
	fingerprint string
	closed      bool

	// retired holds containers of owned services this orchestrator closed.
	// Reusable ones keep running and must not come back through discovery
	// with a configuration they no longer match.
	retired sets.Set[string]
}

// NewOrchestrator creates an Orchestrator. This performs no I/O.
//
// Panics if cfg.Validate() reports any errors.
func NewOrchestrator(cfg OrchestratorConfig) *Orchestrator {
	if err := cfg.Validate(); err != nil {
		panic(fmt.Sprintf("realmenv: invalid orchestrator config: %v", err))
	}
	cfg.ResourceDirs = append([]string(nil), cfg.ResourceDirs...)
	return &Orchestrator{cfg: cfg, retired: sets.New[string]()}
}

// Ensure returns a running service matching sc, starting and provisioning
// one when needed.
//
// A cached service with the same fingerprint is returned as is. A cached
// service with a different fingerprint is closed first; failures to close
// it are logged, not returned. When sharing is enabled in dev mode, a
// container started by another process is used without provisioning.
//
// Errors: ErrDisabled and ErrRuntimeUnavailable leave nothing behind and
// are not fatal. ErrStartupTimeout, ErrContainerExited and ErrProvisioning
// (see IsFatal) are returned after the failed container was removed.
// ErrClosed is returned after Close.
func (o *Orchestrator) Ensure(ctx context.Context, sc config.ServiceConfig) (*Service, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return nil, ErrClosed
	}

	if !sc.Enabled {
		if o.current != nil {
			Logger().Info("dev service disabled, closing running service", "service", sc.ServiceName)
			o.closeCurrentLocked(ctx)
		}
		return nil, ErrDisabled
	}
	if err := sc.Validate(); err != nil {
		return nil, fmt.Errorf("invalid service config: %w", err)
	}

	fp := sc.Fingerprint()
	if o.current != nil {
		if o.fingerprint == fp {
			return o.current, nil
		}
		Logger().Info("service configuration changed, restarting",
			"service", sc.ServiceName, "old", o.fingerprint, "new", fp)
		o.closeCurrentLocked(ctx)
	}

	svc, err := o.reconcile(ctx, sc, fp)
	if err != nil {
		return nil, err
	}
	o.current, o.fingerprint = svc, fp
	return svc, nil
}

// Current returns the cached service, or nil.
func (o *Orchestrator) Current() *Service {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.current
}

// Close closes the cached service and makes later Ensure calls fail with
// ErrClosed. It is idempotent; only the first call can return an error.
func (o *Orchestrator) Close(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return nil
	}
	o.closed = true
	return o.closeCurrentLocked(ctx)
}

func (o *Orchestrator) closeCurrentLocked(ctx context.Context) error {
	if o.current == nil {
		return nil
	}
	svc := o.current
	o.current, o.fingerprint = nil, ""
	if svc.Ownership() == Owned {
		o.retired.Insert(svc.ContainerID())
	}

	if err := svc.Close(ctx); err != nil {
		Logger().Warn("failed to close service", "id", svc.ID(), "container", svc.ContainerID(), "error", err)
		return err
	}
	return nil
}

func (o *Orchestrator) reconcile(ctx context.Context, sc config.ServiceConfig, fp string) (*Service, error) {
	log := Logger().With("service", sc.ServiceName)

	if err := o.cfg.Runtime.Ping(ctx); err != nil {
		log.Warn("container runtime is not available, continuing without dev service", "error", err)
		return nil, fmt.Errorf("%w: %w", ErrRuntimeUnavailable, err)
	}

	lock, err := lockfile.Acquire(ctx, o.cfg.LockDir, sc.ServiceName, log)
	if err != nil {
		return nil, err
	}
	defer lock.Release()

	addr, found, err := locator.New(o.cfg.Runtime, log).Locate(ctx, sc.ServiceName, sc.Shared, o.cfg.LaunchMode, o.retired)
	if err != nil {
		return nil, err
	}
	if found {
		log.Info("using running dev service", "container", addr.ID, "endpoint", addr.URL())
		return newService(Discovered, addr, addr, discoveredProperties(sc, addr)), nil
	}

	return o.start(ctx, sc, fp, log)
}

func (o *Orchestrator) start(ctx context.Context, sc config.ServiceConfig, fp string, log *slog.Logger) (*Service, error) {
	lc := lifecycle.New(o.cfg.Runtime, lifecycle.Config{
		PollInterval: o.cfg.PollInterval,
		StopTimeout:  o.cfg.StopTimeout,
		Logger:       log,
	})

	h, err := lc.Create(ctx, o.containerSpec(sc, fp))
	if err != nil {
		return nil, err
	}

	timeout := sc.StartupTimeout
	if timeout <= 0 {
		timeout = o.cfg.StartupTimeout
	}
	ep, err := lc.Start(ctx, h, timeout)
	if err != nil {
		o.discard(lc, h, log)
		return nil, err
	}

	created, err := o.provision(ctx, sc, ep.Client.URL(), log)
	if err != nil {
		o.discard(lc, h, log)
		return nil, err
	}

	o.retired.Delete(h.ID)
	svc := newService(Owned, ep.Service, ep.Client, ownedProperties(sc, ep.Service, ep.Client))
	svc.realms = created
	svc.closeFn = func(ctx context.Context) error {
		return lc.Stop(ctx, h)
	}
	log.Info("dev service ready", "id", svc.ID(), "container", h.ID, "endpoint", ep.Client.URL(), "realms", created)
	return svc, nil
}

func (o *Orchestrator) containerSpec(sc config.ServiceConfig, fp string) lifecycle.Spec {
	image := sc.Image
	if image == "" {
		image = o.cfg.DefaultImage
	}

	labels := locator.Labels(sc.ServiceName, o.cfg.LaunchMode)
	labels[runtime.LabelFingerprint] = fp
	labels[runtime.LabelManaged] = "true"

	return lifecycle.Spec{
		ServiceName: sc.ServiceName,
		Image:       image,
		Plan: netutil.Resolve(netutil.Request{
			SharedNetwork: o.cfg.SharedNetwork,
			ContainerPort: netutil.ServicePort,
			FixedPort:     sc.Port,
		}),
		Env:             maps.Clone(sc.Env),
		Labels:          labels,
		Mounts:          sc.VolumeMounts,
		UseResourceDirs: sc.UseClasspathMounts,
		ResourceDirs:    o.cfg.ResourceDirs,
		Reuse:           sc.Reuse,
		Fingerprint:     fp,
		Log:             sc.Log,
	}
}

func (o *Orchestrator) provision(ctx context.Context, sc config.ServiceConfig, endpoint string, log *slog.Logger) ([]string, error) {
	client := provision.NewAdminClient(endpoint, o.cfg.AdminTimeout, log)
	defer client.Close()

	created, err := provision.Realms(ctx, client, sc)
	if err != nil {
		return nil, fmt.Errorf("provision realms at %s: %w", endpoint, err)
	}
	return created, nil
}

// discard removes a container that failed to come up. It uses a fresh
// context because ctx may be the reason for the failure.
func (o *Orchestrator) discard(lc *lifecycle.Lifecycle, h *lifecycle.Handle, log *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*o.cfg.StopTimeout) //nolint:contextcheck // teardown must outlive a canceled caller context
	defer cancel()
	if err := lc.Remove(ctx, h); err != nil {
		log.Warn("failed to remove container after failed start", "container", h.ID, "error", err)
	}
}
