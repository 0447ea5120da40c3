package core

import (
	"errors"
	"fmt"
	"time"

	"github.com/giantswarm/realmenv/internal/config"
	"github.com/giantswarm/realmenv/internal/runtime"
)

// OrchestratorConfig holds configuration for an Orchestrator.
//
// All fields are immutable after construction via NewOrchestrator. The
// per-service settings live in config.ServiceConfig and are passed to each
// Ensure call.
type OrchestratorConfig struct {
	Runtime runtime.Runtime

	// LaunchMode labels created containers and restricts discovery to
	// containers started in the same mode.
	LaunchMode config.LaunchMode

	// SharedNetwork, when non-empty, is joined by created containers so
	// sibling containers reach the service by its alias.
	SharedNetwork string

	// DefaultImage is used when the service configuration names no image.
	DefaultImage string

	// AdminTimeout bounds each admin API call.
	AdminTimeout time.Duration

	// StartupTimeout bounds the health wait when the service configuration
	// sets none.
	StartupTimeout time.Duration

	// StopTimeout is the grace period given to a container on stop.
	StopTimeout time.Duration

	// PollInterval is the delay between health checks.
	PollInterval time.Duration

	// LockDir holds the cross-process lock files, one per service name.
	LockDir string

	// ResourceDirs are searched in order for mount sources when a service
	// enables classpath mounts.
	ResourceDirs []string
}

// Validate checks all OrchestratorConfig invariants and returns an error
// describing every violation found.
func (c OrchestratorConfig) Validate() error {
	var errs []error

	if c.Runtime == nil {
		errs = append(errs, errors.New("runtime must not be nil"))
	}
	if !c.LaunchMode.IsValid() {
		errs = append(errs, fmt.Errorf("invalid launch mode: %q", c.LaunchMode))
	}
	if c.DefaultImage == "" {
		errs = append(errs, errors.New("default image must not be empty"))
	}
	if c.AdminTimeout <= 0 {
		errs = append(errs, fmt.Errorf("admin timeout must be greater than 0, got %s", c.AdminTimeout))
	}
	if c.StartupTimeout <= 0 {
		errs = append(errs, fmt.Errorf("startup timeout must be greater than 0, got %s", c.StartupTimeout))
	}
	if c.StopTimeout <= 0 {
		errs = append(errs, fmt.Errorf("stop timeout must be greater than 0, got %s", c.StopTimeout))
	}
	if c.PollInterval <= 0 {
		errs = append(errs, fmt.Errorf("poll interval must be greater than 0, got %s", c.PollInterval))
	}
	if c.LockDir == "" {
		errs = append(errs, errors.New("lock directory must not be empty"))
	}

	return errors.Join(errs...)
}
