package runtime

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/cloudemu/engine/pkg/logger"
	"github.com/containerd/errdefs"
	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/client"
	"github.com/docker/go-connections/nat"
	"go.uber.org/zap"
)

var _ Adapter = (*Docker)(nil)

// Docker implements Adapter using the Docker Engine API.
type Docker struct {
	cli     client.APIClient
	timeout time.Duration
}

// NewDocker creates a Docker adapter with a client configured from the environment
// (DOCKER_HOST, defaulting to the local control socket). Each call is bounded by timeout.
func NewDocker(timeout time.Duration) (*Docker, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("create docker client: %w", err)
	}
	return NewDockerFromClient(cli, timeout), nil
}

// NewDockerFromClient wraps an existing Docker client.
func NewDockerFromClient(cli client.APIClient, timeout time.Duration) *Docker {
	return &Docker{cli: cli, timeout: timeout}
}

func (d *Docker) bounded(ctx context.Context) (context.Context, context.CancelFunc) {
	if d.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d.timeout)
}

func (d *Docker) CreateAndStart(ctx context.Context, spec CreateSpec) (string, error) {
	ctx, cancel := d.bounded(ctx)
	defer cancel()

	cc := &container.Config{
		Image:  spec.Image,
		Cmd:    spec.Cmd,
		Env:    spec.Env,
		Labels: spec.Labels,
	}
	hc := &container.HostConfig{}

	if len(spec.Publish) > 0 {
		exposed := make(nat.PortSet, len(spec.Publish))
		bindings := make(nat.PortMap, len(spec.Publish))
		for _, p := range spec.Publish {
			port := nat.Port(p.String())
			exposed[port] = struct{}{}
			// An empty HostPort asks the runtime for an ephemeral port.
			bindings[port] = []nat.PortBinding{{HostPort: ""}}
		}
		cc.ExposedPorts = exposed
		hc.PortBindings = bindings
	}

	resp, err := d.cli.ContainerCreate(ctx, cc, hc, nil, nil, spec.Name)
	if err != nil {
		if !errdefs.IsNotFound(err) {
			return "", classify("create", spec.Name, err)
		}
		if err := d.pullImage(ctx, spec.Image); err != nil {
			return "", classify("pull", spec.Image, err)
		}
		if resp, err = d.cli.ContainerCreate(ctx, cc, hc, nil, nil, spec.Name); err != nil {
			return "", classify("create", spec.Name, err)
		}
	}

	if err := d.cli.ContainerStart(ctx, resp.ID, container.StartOptions{}); err != nil {
		// Do not leave a created-but-never-started container holding the name.
		if rmErr := d.cli.ContainerRemove(context.WithoutCancel(ctx), resp.ID, container.RemoveOptions{Force: true}); rmErr != nil {
			logger.L().Warn("remove unstarted container failed", zap.String("runtime_id", resp.ID), zap.Error(rmErr))
		}
		return "", classify("start", spec.Name, err)
	}
	return resp.ID, nil
}

func (d *Docker) pullImage(ctx context.Context, ref string) error {
	logger.L().Info("pulling image", zap.String("image", ref))
	rc, err := d.cli.ImagePull(ctx, ref, image.PullOptions{})
	if err != nil {
		return err
	}
	defer rc.Close()
	if _, err := io.Copy(io.Discard, rc); err != nil {
		return fmt.Errorf("read pull response: %w", err)
	}
	return nil
}

func (d *Docker) Start(ctx context.Context, ref string) error {
	ctx, cancel := d.bounded(ctx)
	defer cancel()
	if err := d.cli.ContainerStart(ctx, ref, container.StartOptions{}); err != nil {
		return classify("start", ref, err)
	}
	return nil
}

func (d *Docker) Stop(ctx context.Context, ref string) error {
	ctx, cancel := d.bounded(ctx)
	defer cancel()
	if err := d.cli.ContainerStop(ctx, ref, container.StopOptions{}); err != nil {
		return classify("stop", ref, err)
	}
	return nil
}

func (d *Docker) Remove(ctx context.Context, ref string, force bool) error {
	ctx, cancel := d.bounded(ctx)
	defer cancel()
	if err := d.cli.ContainerRemove(ctx, ref, container.RemoveOptions{Force: force}); err != nil {
		return classify("remove", ref, err)
	}
	return nil
}

func (d *Docker) Inspect(ctx context.Context, ref string) (Info, error) {
	ctx, cancel := d.bounded(ctx)
	defer cancel()

	resp, err := d.cli.ContainerInspect(ctx, ref)
	if err != nil {
		return Info{}, classify("inspect", ref, err)
	}

	info := Info{PublishedPorts: map[string]int{}}
	if resp.ContainerJSONBase != nil {
		info.ID = resp.ID
		info.Name = strings.TrimPrefix(resp.Name, "/")
		if resp.State != nil {
			info.Status = resp.State.Status
			info.Running = resp.State.Running
		}
		if resp.Image != "" {
			img, err := d.cli.ImageInspect(ctx, resp.Image)
			if err == nil {
				info.ImageTags = append(info.ImageTags, img.RepoTags...)
			} else {
				logger.L().Debug("image inspect failed", zap.String("image", resp.Image), zap.Error(err))
			}
		}
	}
	if resp.Config != nil && resp.Config.Image != "" {
		info.ImageTags = append(info.ImageTags, resp.Config.Image)
	}
	if resp.NetworkSettings != nil {
		info.PublishedPorts = publishedPorts(resp.NetworkSettings.Ports)
	}
	return info, nil
}

func publishedPorts(pm nat.PortMap) map[string]int {
	out := make(map[string]int, len(pm))
	for port, bindings := range pm {
		for _, b := range bindings {
			hp, err := strconv.Atoi(b.HostPort)
			if err != nil || hp == 0 {
				continue
			}
			out[string(port)] = hp
			break
		}
	}
	return out
}

func (d *Docker) AttachExec(ctx context.Context, ref string, cmd []string) (Stream, error) {
	ctx, cancel := d.bounded(ctx)
	defer cancel()

	exec, err := d.cli.ContainerExecCreate(ctx, ref, container.ExecOptions{
		Cmd:          cmd,
		AttachStdin:  true,
		AttachStdout: true,
		AttachStderr: true,
		Tty:          true,
	})
	if err != nil {
		return nil, classify("exec create", ref, err)
	}

	// The hijacked connection outlives ctx; only the dial is bounded by it.
	resp, err := d.cli.ContainerExecAttach(ctx, exec.ID, container.ExecAttachOptions{Tty: true})
	if err != nil {
		return nil, classify("exec attach", ref, err)
	}
	return &hijackedStream{resp: resp}, nil
}

func (d *Docker) Ping(ctx context.Context) error {
	ctx, cancel := d.bounded(ctx)
	defer cancel()
	if _, err := d.cli.Ping(ctx); err != nil {
		return classify("ping", "", err)
	}
	return nil
}

func (d *Docker) Close() error {
	return d.cli.Close()
}

// hijackedStream adapts a hijacked exec connection. With a TTY the output is raw,
// without the multiplexing header Docker adds for non-TTY execs.
type hijackedStream struct {
	resp types.HijackedResponse
}

func (s *hijackedStream) Read(p []byte) (int, error)  { return s.resp.Reader.Read(p) }
func (s *hijackedStream) Write(p []byte) (int, error) { return s.resp.Conn.Write(p) }
func (s *hijackedStream) Close() error                { return s.resp.Conn.Close() }

func (s *hijackedStream) SetReadDeadline(t time.Time) error {
	return s.resp.Conn.SetReadDeadline(t)
}

func classify(op, ref string, err error) error {
	kind := KindOther
	switch {
	case errdefs.IsNotFound(err):
		kind = KindNotFound
	case errdefs.IsConflict(err):
		kind = KindConflict
	case client.IsErrConnectionFailed(err), errdefs.IsUnavailable(err),
		errors.Is(err, context.DeadlineExceeded):
		kind = KindUnavailable
	}
	return &Fault{Kind: kind, Op: op, Ref: ref, Err: err}
}
