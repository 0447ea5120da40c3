package docker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/mount"
	"github.com/docker/docker/api/types/network"
	"github.com/docker/docker/client"
	"github.com/docker/docker/errdefs"
	"github.com/docker/docker/pkg/stdcopy"
	"github.com/docker/go-connections/nat"

	"github.com/giantswarm/realmenv/internal/runtime"
)

var _ runtime.Runtime = (*Runtime)(nil)

// Runtime talks to a Docker daemon configured through the standard
// DOCKER_HOST, DOCKER_API_VERSION, DOCKER_CERT_PATH and DOCKER_TLS_VERIFY
// environment variables.
type Runtime struct {
	cli    *client.Client
	host   string
	logger *slog.Logger
}

// New creates a Docker runtime. The daemon is not contacted until the first
// call; use Ping to check availability.
func New(logger *slog.Logger) (*Runtime, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("create docker client: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Runtime{
		cli:    cli,
		host:   hostFromDaemon(cli.DaemonHost()),
		logger: logger,
	}, nil
}

// Close releases the underlying HTTP transport.
func (r *Runtime) Close() error {
	return r.cli.Close()
}

// Ping checks that the daemon answers.
func (r *Runtime) Ping(ctx context.Context) error {
	if _, err := r.cli.Ping(ctx); err != nil {
		return fmt.Errorf("ping docker at %s: %w", r.cli.DaemonHost(), err)
	}
	return nil
}

// Host returns the address published container ports are reachable on
// from this process.
func (r *Runtime) Host() string {
	return r.host
}

// List returns the containers carrying every given label. Stopped
// containers are included when all is set.
func (r *Runtime) List(ctx context.Context, labels map[string]string, all bool) ([]runtime.Container, error) {
	list, err := r.cli.ContainerList(ctx, container.ListOptions{
		All:     all,
		Filters: labelFilters(labels),
	})
	if err != nil {
		return nil, fmt.Errorf("list containers: %w", err)
	}

	out := make([]runtime.Container, 0, len(list))
	for _, c := range list {
		out = append(out, fromSummary(c))
	}
	return out, nil
}

// Inspect returns the current state of one container.
func (r *Runtime) Inspect(ctx context.Context, id string) (runtime.Container, error) {
	info, err := r.cli.ContainerInspect(ctx, id)
	if err != nil {
		return runtime.Container{}, wrapNotFound(fmt.Sprintf("inspect container %s", id), err)
	}
	return fromInspect(info), nil
}

// PullImage pulls ref unless it is already present locally.
func (r *Runtime) PullImage(ctx context.Context, ref string) error {
	if _, _, err := r.cli.ImageInspectWithRaw(ctx, ref); err == nil {
		return nil
	} else if !errdefs.IsNotFound(err) {
		return fmt.Errorf("inspect image %s: %w", ref, err)
	}

	r.logger.Info("pulling image", "image", ref)
	start := time.Now()

	rc, err := r.cli.ImagePull(ctx, ref, image.PullOptions{})
	if err != nil {
		return fmt.Errorf("pull image %s: %w", ref, err)
	}
	defer rc.Close()

	// The pull only completes once the progress stream has been consumed.
	if _, err := io.Copy(io.Discard, rc); err != nil {
		return fmt.Errorf("pull image %s: %w", ref, err)
	}

	r.logger.Info("pulled image", "image", ref, "duration", time.Since(start))
	return nil
}

// EnsureNetwork creates the named bridge network if it does not exist.
func (r *Runtime) EnsureNetwork(ctx context.Context, name string) error {
	nets, err := r.cli.NetworkList(ctx, network.ListOptions{
		Filters: filters.NewArgs(filters.Arg("name", name)),
	})
	if err != nil {
		return fmt.Errorf("list networks: %w", err)
	}
	// The name filter matches substrings.
	for _, n := range nets {
		if n.Name == name {
			return nil
		}
	}

	_, err = r.cli.NetworkCreate(ctx, name, network.CreateOptions{
		Driver: "bridge",
		Labels: map[string]string{runtime.LabelManaged: "true"},
	})
	if err != nil && !errdefs.IsConflict(err) {
		return fmt.Errorf("create network %s: %w", name, err)
	}
	r.logger.Debug("network ready", "network", name)
	return nil
}

// Create creates a container from req and returns its ID.
func (r *Runtime) Create(ctx context.Context, req runtime.CreateRequest) (string, error) {
	cfg, hostCfg, netCfg, err := buildCreate(req)
	if err != nil {
		return "", err
	}

	resp, err := r.cli.ContainerCreate(ctx, cfg, hostCfg, netCfg, nil, req.Name)
	if err != nil {
		return "", fmt.Errorf("create container %s: %w", req.Name, err)
	}
	for _, w := range resp.Warnings {
		r.logger.Warn("docker create warning", "container", req.Name, "warning", w)
	}
	return resp.ID, nil
}

// Start starts a created container.
func (r *Runtime) Start(ctx context.Context, id string) error {
	if err := r.cli.ContainerStart(ctx, id, container.StartOptions{}); err != nil {
		return wrapNotFound(fmt.Sprintf("start container %s", id), err)
	}
	return nil
}

// Stop stops a container, killing it after timeout.
func (r *Runtime) Stop(ctx context.Context, id string, timeout time.Duration) error {
	secs := int(timeout.Round(time.Second) / time.Second)
	if err := r.cli.ContainerStop(ctx, id, container.StopOptions{Timeout: &secs}); err != nil {
		return wrapNotFound(fmt.Sprintf("stop container %s", id), err)
	}
	return nil
}

// Remove force-removes a container together with its anonymous volumes.
func (r *Runtime) Remove(ctx context.Context, id string) error {
	err := r.cli.ContainerRemove(ctx, id, container.RemoveOptions{RemoveVolumes: true, Force: true})
	if err != nil {
		return wrapNotFound(fmt.Sprintf("remove container %s", id), err)
	}
	return nil
}

// Logs follows the combined stdout and stderr of a container.
func (r *Runtime) Logs(ctx context.Context, id string) (io.ReadCloser, error) {
	rc, err := r.cli.ContainerLogs(ctx, id, container.LogsOptions{
		ShowStdout: true,
		ShowStderr: true,
		Follow:     true,
	})
	if err != nil {
		return nil, wrapNotFound(fmt.Sprintf("logs of container %s", id), err)
	}

	// Containers without a TTY multiplex stdout and stderr on one stream.
	pr, pw := io.Pipe()
	go func() {
		_, copyErr := stdcopy.StdCopy(pw, pw, rc)
		pw.CloseWithError(copyErr)
	}()
	return &logStream{PipeReader: pr, src: rc}, nil
}

// WaitExit returns a channel closed once the container stops running. The
// channel stays open if ctx ends first.
func (r *Runtime) WaitExit(ctx context.Context, id string) <-chan struct{} {
	exited := make(chan struct{})
	respCh, errCh := r.cli.ContainerWait(ctx, id, container.WaitConditionNotRunning)
	go func() {
		select {
		case <-respCh:
			close(exited)
		case err := <-errCh:
			if ctx.Err() == nil && err != nil {
				r.logger.Debug("container wait ended", "container", id, "error", err)
				close(exited)
			}
		case <-ctx.Done():
		}
	}()
	return exited
}

type logStream struct {
	*io.PipeReader
	src io.ReadCloser
}

func (l *logStream) Close() error {
	return errors.Join(l.src.Close(), l.PipeReader.Close())
}

func buildCreate(req runtime.CreateRequest) (*container.Config, *container.HostConfig, *network.NetworkingConfig, error) {
	port, err := nat.NewPort("tcp", strconv.Itoa(req.ContainerPort))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("container port %d: %w", req.ContainerPort, err)
	}

	hostPort := ""
	if req.HostPort > 0 {
		hostPort = strconv.Itoa(req.HostPort)
	}

	cfg := &container.Config{
		Image:        req.Image,
		Env:          envList(req.Env),
		Labels:       req.Labels,
		ExposedPorts: nat.PortSet{port: struct{}{}},
	}

	hostCfg := &container.HostConfig{
		PortBindings: nat.PortMap{port: {{HostPort: hostPort}}},
	}
	for _, m := range req.Mounts {
		hostCfg.Mounts = append(hostCfg.Mounts, mount.Mount{
			Type:     mount.TypeBind,
			Source:   m.Source,
			Target:   m.Target,
			ReadOnly: m.ReadOnly,
		})
	}

	var netCfg *network.NetworkingConfig
	if req.Network != "" {
		hostCfg.NetworkMode = container.NetworkMode(req.Network)
		netCfg = &network.NetworkingConfig{
			EndpointsConfig: map[string]*network.EndpointSettings{
				req.Network: {Aliases: req.Aliases},
			},
		}
	}

	return cfg, hostCfg, netCfg, nil
}

func envList(env map[string]string) []string {
	if len(env) == 0 {
		return nil
	}
	out := make([]string, 0, len(env))
	for k, v := range env {
		out = append(out, k+"="+v)
	}
	sort.Strings(out)
	return out
}

func labelFilters(labels map[string]string) filters.Args {
	args := filters.NewArgs()
	for k, v := range labels {
		args.Add("label", k+"="+v)
	}
	return args
}

func fromSummary(c types.Container) runtime.Container {
	out := runtime.Container{
		ID:      c.ID,
		Image:   c.Image,
		Running: c.State == "running",
		Labels:  c.Labels,
		Ports:   make(map[int]int, len(c.Ports)),
	}
	if len(c.Names) > 0 {
		out.Name = strings.TrimPrefix(c.Names[0], "/")
	}
	for _, p := range c.Ports {
		if p.Type != "tcp" || p.PublicPort == 0 {
			continue
		}
		if _, seen := out.Ports[int(p.PrivatePort)]; !seen {
			out.Ports[int(p.PrivatePort)] = int(p.PublicPort)
		}
	}
	if c.NetworkSettings != nil {
		for name := range c.NetworkSettings.Networks {
			out.Networks = append(out.Networks, name)
		}
		sort.Strings(out.Networks)
	}
	return out
}

func fromInspect(info types.ContainerJSON) runtime.Container {
	out := runtime.Container{Ports: map[int]int{}}
	if info.ContainerJSONBase != nil {
		out.ID = info.ID
		out.Name = strings.TrimPrefix(info.Name, "/")
		if info.State != nil {
			out.Running = info.State.Running
		}
	}
	if info.Config != nil {
		out.Image = info.Config.Image
		out.Labels = info.Config.Labels
	}
	if info.NetworkSettings != nil {
		out.Ports = portsFromMap(info.NetworkSettings.Ports)
		for name := range info.NetworkSettings.Networks {
			out.Networks = append(out.Networks, name)
		}
		sort.Strings(out.Networks)
	}
	return out
}

func portsFromMap(pm nat.PortMap) map[int]int {
	out := make(map[int]int, len(pm))
	for port, bindings := range pm {
		if port.Proto() != "tcp" {
			continue
		}
		for _, b := range bindings {
			hp, err := strconv.Atoi(b.HostPort)
			if err != nil || hp == 0 {
				continue
			}
			out[port.Int()] = hp
			break
		}
	}
	return out
}

// hostFromDaemon derives the host at which published ports are reachable.
// Local sockets publish on the loopback interface; remote daemons publish
// on their own address.
func hostFromDaemon(daemonHost string) string {
	u, err := url.Parse(daemonHost)
	if err != nil {
		return "localhost"
	}
	switch u.Scheme {
	case "tcp", "http", "https":
		if h := u.Hostname(); h != "" {
			return h
		}
	}
	return "localhost"
}

func wrapNotFound(op string, err error) error {
	if errdefs.IsNotFound(err) {
		return fmt.Errorf("%s: %w: %w", op, runtime.ErrNotFound, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
