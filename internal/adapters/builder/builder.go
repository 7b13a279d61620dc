package builder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/google/uuid"

	"github.com/melih/lighthouse-builder/internal/core/domain"
	"github.com/melih/lighthouse-builder/internal/core/ports"
)

// RepoBuildRequest asks for a build of a git repository.
type RepoBuildRequest struct {
	RepoURL string
	// Ref is a branch, a tag or a full reference name. Empty means the
	// remote's default branch.
	Ref         string
	Version     string
	ProjectType *domain.ProjectType
}

// RepoBuild is the outcome of a successful repository build. Dir holds the
// checkout and the artifacts; it is owned by the caller.
type RepoBuild struct {
	ID        uuid.UUID
	Dir       string
	Artifacts []string
}

// Adapter checks out repositories into a workspace directory and builds them.
type Adapter struct {
	builder   ports.BuilderService
	fetcher   ports.SourceFetcher
	workspace string
}

// NewBuilderAdapter creates an Adapter cloning with go-git into workspace.
func NewBuilderAdapter(builder ports.BuilderService, workspace string) *Adapter {
	return &Adapter{builder: builder, fetcher: &GitFetcher{Progress: io.Discard}, workspace: workspace}
}

// WithFetcher returns a copy of a that checks out sources with fetcher.
func (a *Adapter) WithFetcher(fetcher ports.SourceFetcher) *Adapter {
	c := *a
	c.fetcher = fetcher
	return &c
}

// BuildRepo clones a repo and builds it. The checkout is removed again if the
// clone or the build fails.
func (a *Adapter) BuildRepo(ctx context.Context, req RepoBuildRequest) (*RepoBuild, error) {
	id := uuid.New()
	dir := filepath.Join(a.workspace, id.String())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create workspace dir: %w", err)
	}

	if err := a.fetcher.Fetch(ctx, req.RepoURL, req.Ref, dir); err != nil {
		_ = os.RemoveAll(dir)
		return nil, fmt.Errorf("failed to clone repo: %w", err)
	}

	artifacts, err := a.builder.Build(ctx, domain.BuildRequest{
		ProjectDir:  dir,
		Version:     req.Version,
		ProjectType: req.ProjectType,
	})
	if err != nil {
		_ = os.RemoveAll(dir)
		return nil, err
	}

	return &RepoBuild{ID: id, Dir: dir, Artifacts: artifacts}, nil
}

var _ ports.SourceFetcher = (*GitFetcher)(nil)

// GitFetcher makes shallow single-branch clones with go-git.
type GitFetcher struct {
	Progress io.Writer
}

func (f *GitFetcher) Fetch(ctx context.Context, repoURL string, ref string, dir string) error {
	candidates := referenceCandidates(ref)
	if len(candidates) == 0 {
		return f.clone(ctx, repoURL, "", dir)
	}

	var err error
	for _, name := range candidates {
		err = f.clone(ctx, repoURL, name, dir)
		if err == nil || !isMissingReference(err) {
			return err
		}
		// A failed clone may leave a partial .git behind.
		if rmErr := resetDir(dir); rmErr != nil {
			return rmErr
		}
	}
	return err
}

func (f *GitFetcher) clone(ctx context.Context, repoURL string, ref plumbing.ReferenceName, dir string) error {
	_, err := git.PlainCloneContext(ctx, dir, false, &git.CloneOptions{
		URL:           repoURL,
		ReferenceName: ref,
		SingleBranch:  true,
		Progress:      f.Progress,
		Depth:         1, // Shallow clone for speed
	})
	return err
}

// referenceCandidates expands a short ref into the branch and tag it may name.
func referenceCandidates(ref string) []plumbing.ReferenceName {
	ref = strings.TrimSpace(ref)
	switch {
	case ref == "":
		return nil
	case strings.HasPrefix(ref, "refs/"):
		return []plumbing.ReferenceName{plumbing.ReferenceName(ref)}
	default:
		return []plumbing.ReferenceName{plumbing.NewBranchReferenceName(ref), plumbing.NewTagReferenceName(ref)}
	}
}

func isMissingReference(err error) bool {
	var noMatch git.NoMatchingRefSpecError
	return errors.As(err, &noMatch) || errors.Is(err, plumbing.ErrReferenceNotFound)
}

func resetDir(dir string) error {
	if err := os.RemoveAll(dir); err != nil {
		return err
	}
	return os.MkdirAll(dir, 0o755)
}
