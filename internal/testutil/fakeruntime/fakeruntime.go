// Package fakeruntime is an in-memory runtime.Runtime. Starting a container
// starts a fakegate server on the published host port, so the orchestrator
// can be exercised end to end without Docker.
package fakeruntime

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/giantswarm/realmenv/internal/netutil"
	"github.com/giantswarm/realmenv/internal/runtime"
	"github.com/giantswarm/realmenv/internal/testutil/fakegate"
)

var _ runtime.Runtime = (*Runtime)(nil)

// Calls counts mutating runtime operations.
type Calls struct {
	Pull    int
	Create  int
	Start   int
	Stop    int
	Remove  int
	Network int
}

type entry struct {
	c      runtime.Container
	req    runtime.CreateRequest
	gate   *fakegate.Server
	exited chan struct{}
}

// Runtime is safe for concurrent use.
type Runtime struct {
	ports *netutil.PortRegistry

	mu          sync.Mutex
	pingErr     error
	unhealthy   bool
	exitOnStart bool
	failCreates int
	containers  map[string]*entry
	networks    map[string]bool
	order       []string
	calls       Calls
	lastCreate  runtime.CreateRequest
	seq         int
}

// New creates an empty fake runtime.
func New() *Runtime {
	return &Runtime{
		ports:      netutil.NewPortRegistry(nil),
		containers: make(map[string]*entry),
		networks:   make(map[string]bool),
	}
}

// SetPingError makes Ping fail with err.
func (r *Runtime) SetPingError(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pingErr = err
}

// SetUnhealthy makes fake servers of subsequently started containers fail
// their health check.
func (r *Runtime) SetUnhealthy(unhealthy bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.unhealthy = unhealthy
}

// SetExitOnStart makes subsequently started containers exit immediately.
func (r *Runtime) SetExitOnStart(exit bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.exitOnStart = exit
}

// SetRealmCreateStatus makes fake servers of subsequently started
// containers answer every realm creation with status.
func (r *Runtime) SetRealmCreateStatus(status int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failCreates = status
}

// Seed adds a running container with a live fake server, as if another
// process had started it. It returns the container ID.
func (r *Runtime) Seed(labels map[string]string) (string, error) {
	gate, err := fakegate.Start("127.0.0.1:0")
	if err != nil {
		return "", err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	id := r.nextID()
	r.containers[id] = &entry{
		c: runtime.Container{
			ID:      id,
			Name:    "seeded-" + id,
			Running: true,
			Labels:  labels,
			Ports:   map[int]int{netutil.ServicePort: gate.Port()},
		},
		gate:   gate,
		exited: make(chan struct{}),
	}
	r.order = append(r.order, id)
	return id, nil
}

// Calls returns a snapshot of the call counters.
func (r *Runtime) Calls() Calls {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

// LastCreate returns the most recent create request.
func (r *Runtime) LastCreate() runtime.CreateRequest {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastCreate
}

// Gate returns the fake server behind a started container.
func (r *Runtime) Gate(id string) *fakegate.Server {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.containers[id]; ok {
		return e.gate
	}
	return nil
}

// Exists reports whether a container with id exists.
func (r *Runtime) Exists(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.containers[id]
	return ok
}

// Running reports whether the container id is running.
func (r *Runtime) Running(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.containers[id]
	return ok && e.c.Running
}

// Close stops every fake server.
func (r *Runtime) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.containers {
		if e.gate != nil {
			_ = e.gate.Close()
		}
	}
}

func (r *Runtime) Ping(context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pingErr
}

func (r *Runtime) Host() string {
	return "127.0.0.1"
}

func (r *Runtime) List(_ context.Context, labels map[string]string, all bool) ([]runtime.Container, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []runtime.Container
	for _, id := range r.order {
		e, ok := r.containers[id]
		if !ok || (!all && !e.c.Running) || !matches(e.c.Labels, labels) {
			continue
		}
		out = append(out, e.c)
	}
	return out, nil
}

func (r *Runtime) Inspect(_ context.Context, id string) (runtime.Container, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.containers[id]
	if !ok {
		return runtime.Container{}, fmt.Errorf("inspect %s: %w", id, runtime.ErrNotFound)
	}
	return e.c, nil
}

func (r *Runtime) PullImage(context.Context, string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls.Pull++
	return nil
}

func (r *Runtime) EnsureNetwork(_ context.Context, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls.Network++
	r.networks[name] = true
	return nil
}

func (r *Runtime) Create(_ context.Context, req runtime.CreateRequest) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls.Create++
	r.lastCreate = req

	for _, e := range r.containers {
		if req.Name != "" && e.c.Name == req.Name {
			return "", fmt.Errorf("create %s: name already in use", req.Name)
		}
	}
	if req.Network != "" && !r.networks[req.Network] {
		return "", fmt.Errorf("create %s: network %s %w", req.Name, req.Network, runtime.ErrNotFound)
	}

	id := r.nextID()
	r.containers[id] = &entry{
		c: runtime.Container{
			ID:       id,
			Name:     req.Name,
			Image:    req.Image,
			Labels:   req.Labels,
			Ports:    map[int]int{},
			Networks: []string{req.Network},
		},
		req:    req,
		exited: make(chan struct{}),
	}
	r.order = append(r.order, id)
	return id, nil
}

func (r *Runtime) Start(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls.Start++

	e, ok := r.containers[id]
	if !ok {
		return fmt.Errorf("start %s: %w", id, runtime.ErrNotFound)
	}
	if e.c.Running {
		return nil
	}

	hostPort := e.req.HostPort
	if hostPort == 0 {
		p, err := r.ports.Allocate()
		if err != nil {
			return err
		}
		hostPort = p
	}
	gate, err := fakegate.Start(fmt.Sprintf("127.0.0.1:%d", hostPort))
	if err != nil {
		return fmt.Errorf("start %s: %w", id, err)
	}
	gate.SetHealthy(!r.unhealthy)
	if r.failCreates != 0 {
		gate.FailCreates(r.failCreates)
	}

	e.gate = gate
	e.c.Running = true
	e.c.Ports = map[int]int{e.req.ContainerPort: hostPort}
	e.exited = make(chan struct{})
	if r.exitOnStart {
		e.c.Running = false
		close(e.exited)
	}
	return nil
}

func (r *Runtime) Stop(_ context.Context, id string, _ time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls.Stop++

	e, ok := r.containers[id]
	if !ok {
		return fmt.Errorf("stop %s: %w", id, runtime.ErrNotFound)
	}
	r.stopLocked(e)
	return nil
}

func (r *Runtime) Remove(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls.Remove++

	e, ok := r.containers[id]
	if !ok {
		return fmt.Errorf("remove %s: %w", id, runtime.ErrNotFound)
	}
	r.stopLocked(e)
	delete(r.containers, id)
	return nil
}

func (r *Runtime) Logs(_ context.Context, id string) (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader("started " + id + "\nlistening on 8080\n")), nil
}

func (r *Runtime) WaitExit(_ context.Context, id string) <-chan struct{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.containers[id]; ok {
		return e.exited
	}
	ch := make(chan struct{})
	close(ch)
	return ch
}

func (r *Runtime) stopLocked(e *entry) {
	if e.gate != nil {
		_ = e.gate.Close()
		if e.req.HostPort == 0 {
			if p, ok := e.c.Ports[e.req.ContainerPort]; ok {
				r.ports.Release(p)
			}
		}
	}
	if e.c.Running {
		e.c.Running = false
		close(e.exited)
	}
}

func (r *Runtime) nextID() string {
	r.seq++
	return fmt.Sprintf("fake%04d", r.seq)
}

func matches(have, want map[string]string) bool {
	for k, v := range want {
		if have[k] != v {
			return false
		}
	}
	return true
}
