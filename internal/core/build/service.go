// Package build runs project builds inside throwaway containers and collects
// the artifacts they leave in the project directory.
package build

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/melih/lighthouse-builder/internal/core/domain"
	"github.com/melih/lighthouse-builder/internal/core/ports"
)

var _ ports.BuilderService = (*Service)(nil)

// Service implements ports.BuilderService on top of a ContainerEngine.
// It holds no per-build state and may be used for concurrent builds.
type Service struct {
	engine ports.ContainerEngine
	cfg    Config
}

// New creates a Service. Nil sinks and a nil predicate in cfg are replaced
// by their defaults.
func New(engine ports.ContainerEngine, cfg Config) *Service {
	return &Service{engine: engine, cfg: cfg.withDefaults()}
}

// Build pulls the image for the project's type, runs the build command in a
// container with the project directory mounted, and returns the files the
// build wrote that the artifact predicate accepts.
//
// The container is removed before Build returns, whatever the outcome. If ctx
// is cancelled while pulling or streaming logs, the error wraps
// domain.ErrInterrupted.
func (s *Service) Build(ctx context.Context, req domain.BuildRequest) ([]string, error) {
	projectDir, err := filepath.Abs(req.ProjectDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve project dir: %w", err)
	}

	projectType, err := ResolveProjectType(projectDir, req.ProjectType)
	if err != nil {
		return nil, err
	}
	s.cfg.OnDebug("Using project type: " + projectType.String())

	image := projectType.ImageRef(req.Version)
	puller := &imagePuller{engine: s.engine, interval: s.cfg.ProgressInterval, debug: s.cfg.OnDebug}
	if err := puller.pull(ctx, image); err != nil {
		if ctx.Err() != nil {
			return nil, interrupted(ctx.Err())
		}
		return nil, fmt.Errorf("failed to pull image: %w", err)
	}

	s.cfg.OnDebug("Starting build")
	c, err := createContainer(ctx, s.engine, s.containerSpec(image, projectDir, projectType), s.cfg.OnDebug)
	if c != nil {
		defer c.remove(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create container: %w", err)
	}

	if err := c.start(ctx); err != nil {
		return nil, fmt.Errorf("failed to start container: %w", err)
	}
	if err := c.streamLogs(ctx, s.cfg.LogTail, s.cfg.Timeout, s.forwardFrame); err != nil {
		return nil, err
	}

	return filterArtifacts(FindFiles(projectDir), c.startedAt, s.cfg.IsArtifact), nil
}

func (s *Service) containerSpec(image, projectDir string, projectType domain.ProjectType) domain.ContainerSpec {
	mounts := make([]domain.Mount, 0, len(s.cfg.CacheMounts)+1)
	mounts = append(mounts, s.cfg.CacheMounts...)
	mounts = append(mounts, domain.Mount{HostPath: projectDir, ContainerPath: WorkspaceMount})

	return domain.ContainerSpec{
		Name:       "lighthouse-build-" + uuid.NewString(),
		Image:      image,
		WorkingDir: WorkspaceMount,
		Cmd:        projectType.Cmd(),
		Mounts:     mounts,
		Labels:     map[string]string{domain.LabelBuild: projectType.Name()},
	}
}

func (s *Service) forwardFrame(frame domain.LogFrame) {
	line := strings.TrimSpace(string(frame.Payload))
	switch frame.Stream {
	case domain.StreamStdout:
		s.cfg.OnStdout(line)
	case domain.StreamStderr:
		s.cfg.OnStderr(line)
	}
}
