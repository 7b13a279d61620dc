package docker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/api/types/strslice"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/jsonmessage"
	"github.com/docker/docker/pkg/stdcopy"

	"github.com/melih/lighthouse-builder/internal/core/domain"
	"github.com/melih/lighthouse-builder/internal/core/ports"
)

var (
	_ ports.ContainerEngine      = (*Adapter)(nil)
	_ ports.BuildContainerLister = (*Adapter)(nil)
)

// Adapter implements ports.ContainerEngine using Docker SDK
type Adapter struct {
	cli *client.Client
}

// NewAdapter creates a new Docker adapter instance. host is the engine
// endpoint, e.g. tcp://localhost:2375; when empty the DOCKER_HOST environment
// is used.
func NewAdapter(host string) (*Adapter, error) {
	opts := []client.Opt{client.FromEnv, client.WithAPIVersionNegotiation()}
	if host != "" {
		opts = append(opts, client.WithHost(host))
	}
	cli, err := client.NewClientWithOpts(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create docker client: %w", err)
	}
	return &Adapter{cli: cli}, nil
}

func (a *Adapter) Close() error {
	return a.cli.Close()
}

// PullImage pulls ref and decodes the engine's JSON progress stream.
func (a *Adapter) PullImage(ctx context.Context, ref string, onProgress func(domain.PullProgress)) error {
	reader, err := a.cli.ImagePull(ctx, ref, types.ImagePullOptions{})
	if err != nil {
		return fmt.Errorf("failed to pull image: %w", err)
	}
	defer reader.Close()

	dec := json.NewDecoder(reader)
	for {
		var msg jsonmessage.JSONMessage
		if err := dec.Decode(&msg); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("failed to read pull progress: %w", err)
		}
		if msg.Error != nil {
			return fmt.Errorf("failed to pull image: %w", msg.Error)
		}
		onProgress(pullProgress(msg))
	}
}

func pullProgress(msg jsonmessage.JSONMessage) domain.PullProgress {
	ev := domain.PullProgress{ID: msg.ID, Status: msg.Status}
	if msg.Progress != nil {
		current := msg.Progress.Current
		ev.Current = &current
		if msg.Progress.Total > 0 {
			total := msg.Progress.Total
			ev.Total = &total
		}
	}
	return ev
}

// CreateContainer creates the build container with every mount bound into it.
func (a *Adapter) CreateContainer(ctx context.Context, spec domain.ContainerSpec) (string, error) {
	volumes := make(map[string]struct{}, len(spec.Mounts))
	binds := make([]string, 0, len(spec.Mounts))
	for _, m := range spec.Mounts {
		volumes[m.ContainerPath] = struct{}{}
		binds = append(binds, m.HostPath+":"+m.ContainerPath)
	}

	resp, err := a.cli.ContainerCreate(ctx,
		&container.Config{
			Image:        spec.Image,
			Cmd:          strslice.StrSlice(spec.Cmd),
			WorkingDir:   spec.WorkingDir,
			Volumes:      volumes,
			Labels:       spec.Labels,
			AttachStdout: true,
			AttachStderr: true,
		},
		&container.HostConfig{
			Binds: binds,
		},
		nil,
		nil,
		spec.Name,
	)
	if err != nil {
		return resp.ID, fmt.Errorf("failed to create container: %w", err)
	}
	if len(resp.Warnings) > 0 {
		slog.Warn("container created with warnings", "id", resp.ID, "warnings", resp.Warnings)
	}
	return resp.ID, nil
}

func (a *Adapter) StartContainer(ctx context.Context, id string) error {
	if err := a.cli.ContainerStart(ctx, id, container.StartOptions{}); err != nil {
		return fmt.Errorf("failed to start container: %w", err)
	}
	return nil
}

// StreamLogs follows the container output and splits it into stdout and
// stderr frames. It returns when the container closes its output or ctx is done.
func (a *Adapter) StreamLogs(ctx context.Context, id string, tail int, onFrame func(domain.LogFrame)) error {
	options := container.LogsOptions{
		ShowStdout: true,
		ShowStderr: true,
		Follow:     true,
		Tail:       "all",
	}
	if tail > 0 {
		options.Tail = strconv.Itoa(tail)
	}

	logs, err := a.cli.ContainerLogs(ctx, id, options)
	if err != nil {
		return fmt.Errorf("failed to attach to container logs: %w", err)
	}
	defer logs.Close()

	if err := demuxLogs(logs, onFrame); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("failed to read container logs: %w", err)
	}
	return nil
}

// RemoveContainer force-removes the container and its anonymous volumes.
func (a *Adapter) RemoveContainer(ctx context.Context, id string) error {
	err := a.cli.ContainerRemove(ctx, id, container.RemoveOptions{
		Force:         true,
		RemoveVolumes: true,
	})
	if err != nil {
		return fmt.Errorf("failed to remove container: %w", err)
	}
	return nil
}

// ListBuildContainers returns every container carrying the build label,
// running or not.
func (a *Adapter) ListBuildContainers(ctx context.Context) ([]domain.Container, error) {
	containers, err := a.cli.ContainerList(ctx, container.ListOptions{
		All:     true,
		Filters: filters.NewArgs(filters.Arg("label", domain.LabelBuild)),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list containers: %w", err)
	}

	var result []domain.Container
	for _, c := range containers {
		// Use the first name if available, remove slash
		name := ""
		if len(c.Names) > 0 {
			name = c.Names[0][1:]
		}

		result = append(result, domain.Container{
			ID:          shortID(c.ID),
			Name:        name,
			Image:       c.Image,
			ProjectType: c.Labels[domain.LabelBuild],
			Status:      c.Status,
			State:       c.State,
		})
	}
	return result, nil
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}

func demuxLogs(r io.Reader, onFrame func(domain.LogFrame)) error {
	stdout := &frameWriter{stream: domain.StreamStdout, onFrame: onFrame}
	stderr := &frameWriter{stream: domain.StreamStderr, onFrame: onFrame}
	_, err := stdcopy.StdCopy(stdout, stderr, r)
	return err
}

// frameWriter turns each write from stdcopy into one log frame. stdcopy
// writes a whole multiplexed frame per call.
type frameWriter struct {
	stream  domain.Stream
	onFrame func(domain.LogFrame)
}

func (w *frameWriter) Write(p []byte) (int, error) {
	w.onFrame(domain.LogFrame{Stream: w.stream, Payload: append([]byte(nil), p...)})
	return len(p), nil
}
