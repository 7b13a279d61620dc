package ports

import "context"

// ArtifactStore publishes build artifacts outside of the build host.
type ArtifactStore interface {
	// Upload stores the files under prefix, keyed by their path relative to
	// baseDir, and returns the resulting object keys.
	Upload(ctx context.Context, prefix string, baseDir string, paths []string) ([]string, error)
}
