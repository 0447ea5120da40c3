package core

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/giantswarm/realmenv/internal/runtime"
)

// pruneParallelism bounds concurrent container removals in Prune.
const pruneParallelism = 4

// Prune removes every container realmenv created on the runtime, running or
// stopped, except the one backing the cached service. Containers kept alive
// by Reuse and leftovers of crashed processes are the usual targets; a
// shared container another process is using is removed too.
//
// It returns the names of the removed containers, sorted. Removal failures
// are joined; the remaining containers are still attempted.
func (o *Orchestrator) Prune(ctx context.Context) ([]string, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return nil, ErrClosed
	}
	rt := o.cfg.Runtime
	if err := rt.Ping(ctx); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRuntimeUnavailable, err)
	}

	containers, err := rt.List(ctx, map[string]string{runtime.LabelManaged: "true"}, true)
	if err != nil {
		return nil, fmt.Errorf("list managed containers: %w", err)
	}

	var keep string
	if o.current != nil {
		keep = o.current.containerID
	}

	var (
		mu      sync.Mutex
		removed []string
		errs    []error
	)
	var g errgroup.Group
	g.SetLimit(pruneParallelism)

	for _, c := range containers {
		if c.ID == keep {
			continue
		}
		g.Go(func() error {
			err := o.removeContainer(ctx, c)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return nil
			}
			removed = append(removed, c.Name)
			return nil
		})
	}
	_ = g.Wait()

	slices.Sort(removed)
	if len(removed) > 0 {
		Logger().Info("pruned dev service containers", "count", len(removed))
	}
	return removed, errors.Join(errs...)
}

func (o *Orchestrator) removeContainer(ctx context.Context, c runtime.Container) error {
	if c.Running {
		if err := o.cfg.Runtime.Stop(ctx, c.ID, o.cfg.StopTimeout); err != nil && !errors.Is(err, runtime.ErrNotFound) {
			return fmt.Errorf("stop container %s: %w", c.Name, err)
		}
	}
	if err := o.cfg.Runtime.Remove(ctx, c.ID); err != nil && !errors.Is(err, runtime.ErrNotFound) {
		return fmt.Errorf("remove container %s: %w", c.Name, err)
	}
	Logger().Debug("removed container", "container", c.ID, "name", c.Name)
	return nil
}
