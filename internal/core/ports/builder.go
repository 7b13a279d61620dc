package ports

import (
	"context"

	"github.com/melih/lighthouse-builder/internal/core/domain"
)

// BuilderService defines operations for building projects inside containers.
type BuilderService interface {
	// Build runs the project's build in a container and returns the paths of
	// the artifacts it produced.
	Build(ctx context.Context, req domain.BuildRequest) ([]string, error)
}

// SourceFetcher checks out source code into a local directory.
type SourceFetcher interface {
	Fetch(ctx context.Context, repoURL string, ref string, dir string) error
}
