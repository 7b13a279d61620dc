package builder

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/go-git/go-git/v5/plumbing"

	"github.com/melih/lighthouse-builder/internal/adapters/fake"
	"github.com/melih/lighthouse-builder/internal/core/build"
	"github.com/melih/lighthouse-builder/internal/core/domain"
)

type stubFetcher struct {
	files map[string]string
	err   error

	repoURL string
	ref     string
}

func (f *stubFetcher) Fetch(ctx context.Context, repoURL string, ref string, dir string) error {
	f.repoURL, f.ref = repoURL, ref
	if f.err != nil {
		return f.err
	}
	for name, content := range f.files {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return err
		}
	}
	return nil
}

func TestAdapterBuildRepo(t *testing.T) {
	t.Run("clones and builds the checkout", func(t *testing.T) {
		workspace := t.TempDir()
		engine := &fake.Engine{}
		engine.StreamLogsFunc = func(ctx context.Context, onFrame func(domain.LogFrame)) error {
			dir := engine.Specs()[0].Mounts[0].HostPath
			jar := filepath.Join(dir, "target", "app.jar")
			if err := os.MkdirAll(filepath.Dir(jar), 0o755); err != nil {
				return err
			}
			if err := os.WriteFile(jar, nil, 0o644); err != nil {
				return err
			}
			future := time.Now().Add(time.Hour)
			return os.Chtimes(jar, future, future)
		}
		fetcher := &stubFetcher{files: map[string]string{"pom.xml": "<project/>"}}
		adapter := NewBuilderAdapter(build.New(engine, build.Config{}), workspace).WithFetcher(fetcher)

		result, err := adapter.BuildRepo(context.Background(), RepoBuildRequest{RepoURL: "https://example.com/app.git", Ref: "main", Version: "17"})
		if err != nil {
			t.Fatalf("didn't want %q", err)
		}

		if result.Dir != filepath.Join(workspace, result.ID.String()) {
			t.Fatalf("got dir %q", result.Dir)
		}
		want := []string{filepath.Join(result.Dir, "target", "app.jar")}
		if !slices.Equal(result.Artifacts, want) {
			t.Fatalf("got %v, want %v", result.Artifacts, want)
		}
		if fetcher.repoURL != "https://example.com/app.git" || fetcher.ref != "main" {
			t.Fatalf("got fetch %q %q", fetcher.repoURL, fetcher.ref)
		}
		if !slices.Equal(engine.Pulled(), []string{"maven:3-eclipse-temurin-17"}) {
			t.Fatalf("got pulled %v", engine.Pulled())
		}
	})

	t.Run("removes the checkout when the clone fails", func(t *testing.T) {
		workspace := t.TempDir()
		cloneErr := errors.New("authentication required")
		adapter := NewBuilderAdapter(build.New(&fake.Engine{}, build.Config{}), workspace).WithFetcher(&stubFetcher{err: cloneErr})

		if _, err := adapter.BuildRepo(context.Background(), RepoBuildRequest{RepoURL: "x"}); !errors.Is(err, cloneErr) {
			t.Fatalf("got %v, want %v", err, cloneErr)
		}
		assertEmpty(t, workspace)
	})

	t.Run("removes the checkout when the build fails", func(t *testing.T) {
		workspace := t.TempDir()
		adapter := NewBuilderAdapter(build.New(&fake.Engine{}, build.Config{}), workspace).WithFetcher(&stubFetcher{files: map[string]string{"README.md": ""}})

		if _, err := adapter.BuildRepo(context.Background(), RepoBuildRequest{RepoURL: "x"}); !errors.Is(err, domain.ErrUnknownProject) {
			t.Fatalf("got %v, want %v", err, domain.ErrUnknownProject)
		}
		assertEmpty(t, workspace)
	})
}

func TestReferenceCandidates(t *testing.T) {
	tests := []struct {
		ref  string
		want []plumbing.ReferenceName
	}{
		{"", nil},
		{"refs/heads/release", []plumbing.ReferenceName{"refs/heads/release"}},
		{"v1.2.0", []plumbing.ReferenceName{"refs/heads/v1.2.0", "refs/tags/v1.2.0"}},
	}
	for _, tt := range tests {
		if got := referenceCandidates(tt.ref); !slices.Equal(got, tt.want) {
			t.Errorf("referenceCandidates(%q): got %v, want %v", tt.ref, got, tt.want)
		}
	}
}

func assertEmpty(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Fatalf("got %d entries in %s, want none", len(entries), dir)
	}
}
