package realmenv_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/giantswarm/realmenv"
	"github.com/giantswarm/realmenv/internal/testutil/fakeruntime"
)

func newOrchestrator(t *testing.T, opts ...realmenv.Option) (realmenv.Orchestrator, *fakeruntime.Runtime) {
	t.Helper()
	rt := fakeruntime.New()
	t.Cleanup(rt.Close)

	opts = append([]realmenv.Option{
		realmenv.WithRuntime(rt),
		realmenv.WithLockDir(t.TempDir()),
		realmenv.WithPollInterval(10 * time.Millisecond),
		realmenv.WithStartupTimeout(5 * time.Second),
	}, opts...)

	orch, err := realmenv.NewOrchestrator(opts...)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = orch.Close(context.Background()) })
	return orch, rt
}

func TestEnsure(t *testing.T) {
	t.Parallel()

	orch, rt := newOrchestrator(t)
	ctx := context.Background()

	cfg := realmenv.DefaultConfig()
	cfg.Shared = false
	cfg.OIDC = true

	svc, err := orch.Ensure(ctx, cfg)
	if err != nil {
		t.Fatalf("Ensure() error = %v", err)
	}
	if svc.Ownership() != realmenv.Owned {
		t.Errorf("Ownership() = %s, want owned", svc.Ownership())
	}

	props := svc.Properties()
	if props[realmenv.PropEndpoint] != svc.Endpoint() {
		t.Errorf("endpoint property = %q, Endpoint() = %q", props[realmenv.PropEndpoint], svc.Endpoint())
	}
	if props[realmenv.PropAuthServerURL] != svc.Endpoint()+"/realms/dev" {
		t.Errorf("auth server url = %q", props[realmenv.PropAuthServerURL])
	}
	if props[realmenv.PropClientID] != "quarkus-app" || props[realmenv.PropCredentialsSecret] != "secret" {
		t.Errorf("oidc client = %q/%q", props[realmenv.PropClientID], props[realmenv.PropCredentialsSecret])
	}

	again, err := orch.Ensure(ctx, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if again.ID() != svc.ID() {
		t.Error("unchanged configuration produced a new service")
	}
	if cur, ok := orch.Current(); !ok || cur.ID() != svc.ID() {
		t.Error("Current() does not return the ensured service")
	}
	if c := rt.Calls(); c.Create != 1 {
		t.Errorf("create calls = %d, want 1", c.Create)
	}

	if err := orch.Close(ctx); err != nil {
		t.Fatal(err)
	}
	if _, ok := orch.Current(); ok {
		t.Error("Current() reports a service after Close")
	}
	if _, err := orch.Ensure(ctx, cfg); !errors.Is(err, realmenv.ErrClosed) {
		t.Errorf("Ensure() after Close error = %v, want ErrClosed", err)
	}
}

func TestEnsure_RuntimeUnavailable(t *testing.T) {
	t.Parallel()

	orch, rt := newOrchestrator(t)
	rt.SetPingError(errors.New("cannot connect to the docker daemon"))

	_, err := orch.Ensure(context.Background(), realmenv.DefaultConfig())
	if !errors.Is(err, realmenv.ErrRuntimeUnavailable) {
		t.Fatalf("Ensure() error = %v, want ErrRuntimeUnavailable", err)
	}
	if realmenv.IsFatal(err) {
		t.Error("IsFatal() = true for an unavailable runtime")
	}
}

func TestEnsure_SharedNetwork(t *testing.T) {
	t.Parallel()

	orch, rt := newOrchestrator(t, realmenv.WithSharedNetwork("devnet"))

	cfg := realmenv.DefaultConfig()
	cfg.Shared = false
	svc, err := orch.Ensure(context.Background(), cfg)
	if err != nil {
		t.Fatal(err)
	}

	props := svc.Properties()
	if props[realmenv.PropHost] != "lorisgate" || props[realmenv.PropPort] != "8080" {
		t.Errorf("service address = %s:%s, want lorisgate:8080", props[realmenv.PropHost], props[realmenv.PropPort])
	}
	if props[realmenv.PropClientHost] != "127.0.0.1" {
		t.Errorf("client host = %q", props[realmenv.PropClientHost])
	}
	if req := rt.LastCreate(); req.Network != "devnet" {
		t.Errorf("network = %q, want devnet", req.Network)
	}
}

func TestEnsure_ExplicitImage(t *testing.T) {
	t.Parallel()

	orch, rt := newOrchestrator(t, realmenv.WithDefaultImage("example.com/default:1"))

	cfg := realmenv.DefaultConfig()
	cfg.Shared = false
	cfg.Image = "example.com/explicit:2"
	if _, err := orch.Ensure(context.Background(), cfg); err != nil {
		t.Fatal(err)
	}
	if got := rt.LastCreate().Image; got != cfg.Image {
		t.Errorf("image = %q, want %q", got, cfg.Image)
	}
}

func TestParseConfig(t *testing.T) {
	t.Parallel()

	cfg, err := realmenv.ParseConfig([]byte("shared: false\nport: 18080\n"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Shared || cfg.Port != 18080 || !cfg.Enabled || cfg.DefaultRealm.Name != "dev" {
		t.Errorf("ParseConfig() = %+v", cfg)
	}
}

func TestPrune(t *testing.T) {
	t.Parallel()

	orch, rt := newOrchestrator(t)
	ctx := context.Background()

	cfg := realmenv.DefaultConfig()
	cfg.Shared = false
	cfg.Reuse = true

	svc, err := orch.Ensure(ctx, cfg)
	if err != nil {
		t.Fatal(err)
	}
	id := svc.ContainerID()
	if err := svc.Close(ctx); err != nil {
		t.Fatal(err)
	}
	if !rt.Exists(id) {
		t.Fatal("reusable container removed on Close")
	}

	if _, err := orch.Prune(ctx); err != nil {
		t.Fatalf("Prune() error = %v", err)
	}
	if !rt.Exists(id) {
		t.Error("Prune() removed the container of the current service")
	}

	if err := orch.Close(ctx); err != nil {
		t.Fatal(err)
	}
	other, _ := newOrchestrator(t, realmenv.WithRuntime(rt))
	removed, err := other.Prune(ctx)
	if err != nil {
		t.Fatalf("Prune() error = %v", err)
	}
	if len(removed) != 1 || rt.Exists(id) {
		t.Errorf("Prune() removed %v, container exists = %v", removed, rt.Exists(id))
	}
}
