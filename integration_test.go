//go:build integration

package realmenv_test

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/giantswarm/realmenv"
	"github.com/giantswarm/realmenv/internal/provision"
	"github.com/giantswarm/realmenv/internal/runtime/docker"
)

// lockDir is shared by every orchestrator of the integration run, as it
// would be by independent processes on one machine.
var lockDir string

var (
	openMu sync.Mutex
	open   []realmenv.Orchestrator
)

// TestMain requires a reachable Docker daemon and closes every orchestrator
// on exit or interrupt so no container outlives the run.
func TestMain(m *testing.M) {
	flag.Parse()
	setupTestLogging()
	requireDockerOrExit()

	dir, err := os.MkdirTemp("", "realmenv-test-*")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create temp dir: %v\n", err)
		os.Exit(1)
	}
	lockDir = dir

	os.Exit(runTestMain(m, dir))
}

func runTestMain(m *testing.M, tmpDir string) int {
	sigCh := make(chan os.Signal, 1)
	done := make(chan struct{})
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigCh:
			signal.Stop(sigCh)
			fmt.Fprintf(os.Stderr, "\nReceived %s, closing orchestrators...\n", sig)
			closeAll()
			_ = os.RemoveAll(tmpDir)
			os.Exit(1)
		case <-done:
		}
	}()

	code := m.Run()

	signal.Stop(sigCh)
	close(done)
	closeAll()
	_ = os.RemoveAll(tmpDir)
	return code
}

func closeAll() {
	openMu.Lock()
	defer openMu.Unlock()
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	for _, o := range open {
		if err := o.Close(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "close error: %v\n", err)
		}
	}
	open = nil
}

// setupTestLogging configures slog from REALMENV_LOG_LEVEL.
func setupTestLogging() {
	levelStr := os.Getenv("REALMENV_LOG_LEVEL")
	if levelStr == "" {
		levelStr = "INFO"
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(levelStr)); err != nil {
		level = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	realmenv.SetLogger(slog.Default().With("component", "realmenv"))
}

func requireDockerOrExit() {
	rt, err := docker.New(nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "docker client: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = rt.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := rt.Ping(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "docker daemon not reachable: %v\nStart Docker or set DOCKER_HOST.\n", err)
		os.Exit(1)
	}
}

func dockerOrchestrator(t *testing.T, opts ...realmenv.Option) realmenv.Orchestrator {
	t.Helper()
	opts = append([]realmenv.Option{
		realmenv.WithLockDir(lockDir),
		realmenv.WithStartupTimeout(3 * time.Minute),
	}, opts...)

	orch, err := realmenv.NewOrchestrator(opts...)
	if err != nil {
		t.Fatal(err)
	}
	openMu.Lock()
	open = append(open, orch)
	openMu.Unlock()
	t.Cleanup(func() { _ = orch.Close(context.Background()) })
	return orch
}

func TestDocker_EndToEnd(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	orch := dockerOrchestrator(t, realmenv.WithLaunchMode(realmenv.LaunchTest))

	cfg := realmenv.DefaultConfig()
	cfg.ServiceName = "realmenv-it-e2e"
	cfg.Shared = false
	cfg.OIDC = true

	svc, err := orch.Ensure(ctx, cfg)
	if err != nil {
		t.Fatalf("Ensure() error = %v", err)
	}
	for _, key := range []string{realmenv.PropHost, realmenv.PropPort, realmenv.PropEndpoint} {
		if svc.Properties()[key] == "" {
			t.Errorf("property %s is empty", key)
		}
	}

	admin := provision.NewAdminClient(svc.Endpoint(), time.Minute, nil)
	defer admin.Close()

	realm, found, err := admin.GetRealm(ctx, "dev")
	if err != nil || !found {
		t.Fatalf("GetRealm(dev) = %v, %v", found, err)
	}
	if len(realm.Users) != 2 || len(realm.Clients) != 2 {
		t.Errorf("realm has %d users and %d clients, want 2 and 2", len(realm.Users), len(realm.Clients))
	}

	tok, err := admin.ClientToken(ctx, "dev", provision.DefaultClientID, provision.DefaultClientSecret, "openid")
	if err != nil {
		t.Fatalf("ClientToken() error = %v", err)
	}
	if tok.AccessToken == "" {
		t.Error("empty access token")
	}

	again, err := orch.Ensure(ctx, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if again.ID() != svc.ID() {
		t.Error("unchanged configuration started a new service")
	}
}

func TestDocker_Discovery(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	cfg := realmenv.DefaultConfig()
	cfg.ServiceName = "realmenv-it-shared"

	first := dockerOrchestrator(t)
	owner, err := first.Ensure(ctx, cfg)
	if err != nil {
		t.Fatalf("first Ensure() error = %v", err)
	}

	second := dockerOrchestrator(t)
	found, err := second.Ensure(ctx, cfg)
	if err != nil {
		t.Fatalf("second Ensure() error = %v", err)
	}
	if found.Ownership() != realmenv.Discovered || found.ContainerID() != owner.ContainerID() {
		t.Errorf("second service = %s %s, want discovered %s", found.Ownership(), found.ContainerID(), owner.ContainerID())
	}
	if found.Properties()[realmenv.PropEndpoint] != owner.Endpoint() {
		t.Errorf("discovered endpoint = %q, want %q", found.Properties()[realmenv.PropEndpoint], owner.Endpoint())
	}
}
