package realmenv

import (
	"context"
	"os"
	"path/filepath"

	"github.com/giantswarm/realmenv/internal/core"
	"github.com/giantswarm/realmenv/internal/runtime/docker"
)

// Compile-time interface satisfaction checks.
var (
	_ Orchestrator = (*orchestratorWrapper)(nil)
	_ Service      = (*serviceWrapper)(nil)
)

// orchestratorWrapper wraps core.Orchestrator to implement the Orchestrator
// interface. The core value is a named field rather than embedded so callers
// cannot reach internal methods through type assertions.
type orchestratorWrapper struct {
	orch *core.Orchestrator

	// closeRuntime releases a runtime created by NewOrchestrator. Nil when
	// the caller supplied the runtime.
	closeRuntime func() error
}

//nolint:ireturn // Returns Service interface by design for testability (mockable).
func (w *orchestratorWrapper) Ensure(ctx context.Context, cfg ServiceConfig) (Service, error) {
	svc, err := w.orch.Ensure(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &serviceWrapper{svc: svc}, nil
}

//nolint:ireturn // Returns Service interface by design for testability (mockable).
func (w *orchestratorWrapper) Current() (Service, bool) {
	svc := w.orch.Current()
	if svc == nil {
		return nil, false
	}
	return &serviceWrapper{svc: svc}, true
}

func (w *orchestratorWrapper) Prune(ctx context.Context) ([]string, error) {
	return w.orch.Prune(ctx)
}

func (w *orchestratorWrapper) Close(ctx context.Context) error {
	err := w.orch.Close(ctx)
	if w.closeRuntime != nil {
		if cerr := w.closeRuntime(); cerr != nil {
			core.Logger().Warn("failed to close container runtime client", "error", cerr)
		}
		w.closeRuntime = nil
	}
	return err
}

// serviceWrapper wraps core.Service to implement the Service interface.
type serviceWrapper struct {
	svc *core.Service
}

func (w *serviceWrapper) ID() string                      { return w.svc.ID() }
func (w *serviceWrapper) FeatureName() string             { return w.svc.FeatureName() }
func (w *serviceWrapper) ContainerID() string             { return w.svc.ContainerID() }
func (w *serviceWrapper) Ownership() Ownership            { return w.svc.Ownership() }
func (w *serviceWrapper) Endpoint() string                { return w.svc.Endpoint() }
func (w *serviceWrapper) CreatedRealms() []string         { return w.svc.CreatedRealms() }
func (w *serviceWrapper) Properties() map[string]string   { return w.svc.Properties() }
func (w *serviceWrapper) Close(ctx context.Context) error { return w.svc.Close(ctx) }

// defaultOrchestratorConfig returns an orchestratorConfig populated with all
// default values except the runtime.
func defaultOrchestratorConfig() orchestratorConfig {
	return orchestratorConfig{core.OrchestratorConfig{
		LaunchMode:     DefaultLaunchMode,
		DefaultImage:   DefaultImage,
		AdminTimeout:   DefaultAdminTimeout,
		StartupTimeout: DefaultStartupTimeout,
		StopTimeout:    DefaultStopTimeout,
		PollInterval:   DefaultPollInterval,
		LockDir:        filepath.Join(os.TempDir(), DefaultLockDirName),
	}}
}

// NewOrchestrator creates an Orchestrator. This performs no I/O; the
// container runtime is first contacted by Ensure.
//
// Without WithRuntime, a Docker runtime configured from the standard
// DOCKER_* environment variables is used and released by Close. The only
// error returned is a failure to create that Docker client.
//
// Panics if any option receives an invalid value. See individual With*
// functions for constraints.
//
//nolint:ireturn // Returns Orchestrator interface by design for testability (mockable).
func NewOrchestrator(opts ...Option) (Orchestrator, error) {
	cfg := defaultOrchestratorConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	w := &orchestratorWrapper{}
	if cfg.Runtime == nil {
		rt, err := docker.New(core.Logger())
		if err != nil {
			return nil, err
		}
		cfg.Runtime = rt
		w.closeRuntime = rt.Close
	}
	w.orch = core.NewOrchestrator(cfg.toCoreConfig())
	return w, nil
}
