package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"k8s.io/apimachinery/pkg/util/sets"

	"github.com/giantswarm/realmenv/internal/fileutil"
	"github.com/giantswarm/realmenv/internal/netutil"
	"github.com/giantswarm/realmenv/internal/readiness"
	"github.com/giantswarm/realmenv/internal/runtime"
	"github.com/giantswarm/realmenv/internal/sentinel"
)

const (
	// ErrStartupTimeout is returned when the container does not become
	// healthy within the startup timeout.
	ErrStartupTimeout = sentinel.Error("service did not become healthy in time")

	// ErrContainerExited is returned when the container stops before it
	// becomes healthy.
	ErrContainerExited = sentinel.Error("container exited during startup")
)

// Defaults used when Config leaves a field zero.
const (
	DefaultPollInterval = 250 * time.Millisecond
	DefaultStopTimeout  = 10 * time.Second
)

// Config configures a Lifecycle.
type Config struct {
	PollInterval time.Duration
	StopTimeout  time.Duration
	Logger       *slog.Logger
}

// Lifecycle manages containers on a runtime. It is safe for concurrent use;
// each Handle must be driven by one goroutine at a time.
type Lifecycle struct {
	rt          runtime.Runtime
	interval    time.Duration
	stopTimeout time.Duration
	log         *slog.Logger
}

// New creates a Lifecycle on rt.
func New(rt runtime.Runtime, cfg Config) *Lifecycle {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.StopTimeout <= 0 {
		cfg.StopTimeout = DefaultStopTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Lifecycle{
		rt:          rt,
		interval:    cfg.PollInterval,
		stopTimeout: cfg.StopTimeout,
		log:         cfg.Logger,
	}
}

// Spec describes the container to run.
type Spec struct {
	ServiceName string
	Image       string
	Plan        netutil.Plan
	Env         map[string]string
	Labels      map[string]string

	// Mounts maps a source directory to a container path. With
	// UseResourceDirs, sources are looked up under ResourceDirs in order;
	// otherwise they are filesystem paths and may start with "~".
	Mounts          map[string]string
	UseResourceDirs bool
	ResourceDirs    []string

	// Reuse names the container after Fingerprint and keeps it on Stop.
	Reuse       bool
	Fingerprint string

	// Log forwards container output to the logger.
	Log bool
}

// Endpoints are the addresses of a started container.
type Endpoints struct {
	// Service is how other services reach the container.
	Service runtime.Address
	// Client is how this process reaches the container.
	Client runtime.Address
}

// Handle is a created container.
type Handle struct {
	ID   string
	Name string
	Plan netutil.Plan

	// Reused reports that Create picked up an existing container.
	Reused bool

	reuse bool
	log   bool

	mu       sync.Mutex
	stopLogs context.CancelFunc
	stopped  bool
}

// Create makes the container described by spec available. With Reuse, an
// existing container carrying the same fingerprint is returned instead of
// creating a new one. The image is pulled when missing and the network is
// created when missing.
func (l *Lifecycle) Create(ctx context.Context, spec Spec) (*Handle, error) {
	if spec.Image == "" {
		return nil, errors.New("create container: image must not be empty")
	}

	if spec.Reuse {
		h, found, err := l.findReusable(ctx, spec)
		if err != nil {
			return nil, err
		}
		if found {
			return h, nil
		}
	}

	if spec.Plan.HostPort != 0 {
		if err := netutil.CheckPortFree(spec.Plan.HostPort); err != nil {
			return nil, err
		}
	}
	if err := l.rt.PullImage(ctx, spec.Image); err != nil {
		return nil, fmt.Errorf("pull %s: %w", spec.Image, err)
	}
	if err := l.rt.EnsureNetwork(ctx, spec.Plan.Network); err != nil {
		return nil, fmt.Errorf("network %s: %w", spec.Plan.Network, err)
	}

	name := ContainerName(spec)
	id, err := l.rt.Create(ctx, runtime.CreateRequest{
		Name:          name,
		Image:         spec.Image,
		ContainerPort: spec.Plan.ContainerPort,
		HostPort:      spec.Plan.HostPort,
		Network:       spec.Plan.Network,
		Aliases:       spec.Plan.Aliases,
		Labels:        spec.Labels,
		Env:           spec.Env,
		Mounts:        l.mounts(spec),
	})
	if err != nil {
		return nil, fmt.Errorf("create container %s: %w", name, err)
	}

	l.log.Info("container created", "id", id, "name", name, "image", spec.Image, "network", spec.Plan.Network)
	return &Handle{ID: id, Name: name, Plan: spec.Plan, reuse: spec.Reuse, log: spec.Log}, nil
}

// ContainerName returns the name Create gives the container: derived from
// the launch mode and fingerprint for reusable containers, random otherwise.
func ContainerName(spec Spec) string {
	if spec.Reuse {
		if mode := spec.Labels[runtime.LabelLaunchMode]; mode != "" {
			return fmt.Sprintf("realmenv-%s-%s-%s", spec.ServiceName, mode, spec.Fingerprint)
		}
		return fmt.Sprintf("realmenv-%s-%s", spec.ServiceName, spec.Fingerprint)
	}
	return fmt.Sprintf("realmenv-%s-%s", spec.ServiceName, uuid.NewString()[:8])
}

func (l *Lifecycle) findReusable(ctx context.Context, spec Spec) (*Handle, bool, error) {
	filter := map[string]string{
		runtime.LabelService:     spec.ServiceName,
		runtime.LabelFingerprint: spec.Fingerprint,
	}
	if mode := spec.Labels[runtime.LabelLaunchMode]; mode != "" {
		filter[runtime.LabelLaunchMode] = mode
	}
	containers, err := l.rt.List(ctx, filter, true)
	if err != nil {
		return nil, false, fmt.Errorf("find reusable container: %w", err)
	}
	if len(containers) == 0 {
		return nil, false, nil
	}

	c := containers[0]
	l.log.Info("reusing container", "id", c.ID, "name", c.Name, "running", c.Running)
	return &Handle{ID: c.ID, Name: c.Name, Plan: spec.Plan, Reused: true, reuse: true, log: spec.Log}, true, nil
}

// mounts resolves the configured mounts. Sources that are not existing
// directories are skipped with a warning.
func (l *Lifecycle) mounts(spec Spec) []runtime.Mount {
	var out []runtime.Mount
	for _, src := range sets.List(sets.KeySet(spec.Mounts)) {
		target := spec.Mounts[src]

		path, ok := l.resolveSource(spec, src)
		if !ok {
			l.log.Warn("mount source is not a directory, skipping", "source", src, "target", target)
			continue
		}
		out = append(out, runtime.Mount{Source: path, Target: target, ReadOnly: true})
	}
	return out
}

func (l *Lifecycle) resolveSource(spec Spec, src string) (string, bool) {
	if spec.UseResourceDirs {
		return fileutil.FindDir(spec.ResourceDirs, src)
	}
	expanded, err := fileutil.ExpandHome(src)
	if err != nil {
		return "", false
	}
	abs, err := filepath.Abs(expanded)
	if err != nil || !fileutil.IsDir(abs) {
		return "", false
	}
	return abs, true
}

// Start starts the container and waits until its health endpoint answers
// 200 on the client endpoint. Starting an already running container only
// waits for health.
func (l *Lifecycle) Start(ctx context.Context, h *Handle, timeout time.Duration) (Endpoints, error) {
	if err := l.rt.Start(ctx, h.ID); err != nil {
		return Endpoints{}, fmt.Errorf("start container %s: %w", h.ID, err)
	}

	c, err := l.rt.Inspect(ctx, h.ID)
	if err != nil {
		return Endpoints{}, fmt.Errorf("inspect container %s: %w", h.ID, err)
	}
	service, client, err := h.Plan.Endpoints(l.rt.Host(), c.Ports)
	if err != nil {
		return Endpoints{}, fmt.Errorf("container %s: %w", h.ID, err)
	}
	service.ID, client.ID = h.ID, h.ID

	if h.log {
		l.forwardLogs(h)
	}

	waitCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	check, closeCheck := readiness.HTTPCheck(client.URL()+readiness.HealthPath, l.log)
	defer closeCheck()

	err = readiness.Wait(waitCtx, readiness.Config{
		Interval: l.interval,
		Timeout:  timeout,
		Name:     "container " + h.ID,
		Logger:   l.log,
		Exited:   l.rt.WaitExit(waitCtx, h.ID),
	}, check)
	switch {
	case err == nil:
	case errors.Is(err, readiness.ErrTimeout):
		return Endpoints{}, fmt.Errorf("%w: %w", ErrStartupTimeout, err)
	case errors.Is(err, readiness.ErrExited):
		return Endpoints{}, fmt.Errorf("%w: %w", ErrContainerExited, err)
	default:
		return Endpoints{}, err
	}

	l.log.Info("container healthy", "id", h.ID, "client_addr", client.HostPort(), "service_addr", service.HostPort())
	return Endpoints{Service: service, Client: client}, nil
}

// forwardLogs streams container output to the logger until the handle is
// stopped or the stream ends.
func (l *Lifecycle) forwardLogs(h *Handle) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.stopLogs != nil || h.stopped {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	h.stopLogs = cancel

	rc, err := l.rt.Logs(ctx, h.ID)
	if err != nil {
		l.log.Warn("cannot follow container logs", "id", h.ID, "error", err)
		return
	}
	go forward(rc, l.log.With("container", h.Name))
}

// Stop stops and removes the container. Containers created for reuse are
// left running. Stop is idempotent; a container that no longer exists counts
// as stopped.
func (l *Lifecycle) Stop(ctx context.Context, h *Handle) error {
	if h == nil {
		return nil
	}
	if h.reuse {
		h.cancelLogs()
		l.log.Debug("leaving reusable container running", "id", h.ID)
		return nil
	}
	return l.Remove(ctx, h)
}

// Remove stops and removes the container even when it was created for
// reuse. It is used to discard a container that failed to start.
func (l *Lifecycle) Remove(ctx context.Context, h *Handle) error {
	if h == nil {
		return nil
	}
	if !h.markStopped() {
		return nil
	}
	h.cancelLogs()

	var errs []error
	if err := l.rt.Stop(ctx, h.ID, l.stopTimeout); err != nil && !errors.Is(err, runtime.ErrNotFound) {
		errs = append(errs, fmt.Errorf("stop container %s: %w", h.ID, err))
	}
	if err := l.rt.Remove(ctx, h.ID); err != nil && !errors.Is(err, runtime.ErrNotFound) {
		errs = append(errs, fmt.Errorf("remove container %s: %w", h.ID, err))
	}
	if err := errors.Join(errs...); err != nil {
		l.log.Warn("container teardown failed; container may be orphaned", "id", h.ID, "error", err)
		return err
	}
	l.log.Info("container removed", "id", h.ID)
	return nil
}

func (h *Handle) markStopped() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.stopped {
		return false
	}
	h.stopped = true
	return true
}

func (h *Handle) cancelLogs() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.stopLogs != nil {
		h.stopLogs()
		h.stopLogs = nil
	}
}
