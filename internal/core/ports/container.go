package ports

import (
	"context"

	"github.com/melih/lighthouse-builder/internal/core/domain"
)

// ContainerEngine defines the container operations a build needs.
// This interface allows us to run builds against Docker or a test double
// without changing the build logic.
type ContainerEngine interface {
	// PullImage blocks until the engine finishes pulling ref. onProgress is
	// called for every progress event in the pull stream.
	PullImage(ctx context.Context, ref string, onProgress func(domain.PullProgress)) error
	// CreateContainer creates a container without starting it and returns its ID.
	CreateContainer(ctx context.Context, spec domain.ContainerSpec) (string, error)
	StartContainer(ctx context.Context, id string) error
	// StreamLogs follows the container's stdout and stderr, starting with the
	// last tail lines, and blocks until the stream ends or ctx is done.
	StreamLogs(ctx context.Context, id string, tail int, onFrame func(domain.LogFrame)) error
	// RemoveContainer force-removes the container together with its anonymous volumes.
	RemoveContainer(ctx context.Context, id string) error
}

// BuildContainerLister lists the build containers that still exist on the engine.
type BuildContainerLister interface {
	ListBuildContainers(ctx context.Context) ([]domain.Container, error)
}
