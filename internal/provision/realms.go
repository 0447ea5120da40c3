package provision

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/giantswarm/realmenv/internal/config"
)

// maxParallel bounds concurrent realm creations.
const maxParallel = 4

// Realms provisions every realm of cfg: the default realm first when its
// Create switch is set, then the additional realms concurrently. The first
// failure cancels the remaining calls. It returns the names of the realms
// that were created, sorted.
func Realms(ctx context.Context, c *AdminClient, cfg config.ServiceConfig) ([]string, error) {
	var (
		mu      sync.Mutex
		created []string
	)
	record := func(name string) {
		mu.Lock()
		defer mu.Unlock()
		created = append(created, name)
	}

	if cfg.DefaultRealm.Create {
		r := DefaultRealm(cfg.DefaultRealm)
		ok, err := c.CreateIfAbsent(ctx, r)
		if err != nil {
			return nil, fmt.Errorf("default realm %s: %w", r.Name, err)
		}
		if ok {
			record(r.Name)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallel)
	for key, rc := range cfg.Realms {
		r := BuildRealm(cfg.RealmName(key), rc)
		g.Go(func() error {
			ok, err := c.CreateIfAbsent(gctx, r)
			if err != nil {
				return fmt.Errorf("realm %s: %w", r.Name, err)
			}
			if ok {
				record(r.Name)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Strings(created)
	return created, nil
}
