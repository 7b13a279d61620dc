package build

import (
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"testing"
	"time"
)

func TestFindFiles(t *testing.T) {
	t.Run("lists regular files recursively", func(t *testing.T) {
		dir := t.TempDir()
		want := []string{
			filepath.Join(dir, "build.gradle"),
			filepath.Join(dir, "build", "libs", "app.jar"),
			filepath.Join(dir, "build", "libs", "app-sources.jar"),
			filepath.Join(dir, "src", "main", "java", "Main.java"),
		}
		for _, f := range want {
			writeFile(t, f)
		}
		if err := os.MkdirAll(filepath.Join(dir, "empty", "nested"), 0o755); err != nil {
			t.Fatal(err)
		}

		got := FindFiles(dir)
		slices.Sort(got)
		slices.Sort(want)
		if !slices.Equal(got, want) {
			t.Fatalf("got %v, want %v", got, want)
		}
	})

	t.Run("missing dir yields nothing", func(t *testing.T) {
		got := FindFiles(filepath.Join(t.TempDir(), "missing"))
		if len(got) != 0 {
			t.Fatalf("got %v, want nothing", got)
		}
	})

	t.Run("regular file yields itself", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "app.jar")
		writeFile(t, path)

		got := FindFiles(path)
		if !slices.Equal(got, []string{path}) {
			t.Fatalf("got %v, want %v", got, []string{path})
		}
	})

	t.Run("symbolic links are not followed", func(t *testing.T) {
		if runtime.GOOS == "windows" {
			t.Skip("symlinks need privileges")
		}
		dir := t.TempDir()
		outside := t.TempDir()
		writeFile(t, filepath.Join(outside, "lib", "dep.jar"))
		jar := filepath.Join(dir, "target", "app.jar")
		writeFile(t, jar)
		if err := os.Symlink(filepath.Join(outside, "lib", "dep.jar"), filepath.Join(dir, "target", "dep.jar")); err != nil {
			t.Fatal(err)
		}
		if err := os.Symlink(filepath.Join(outside, "lib"), filepath.Join(dir, "lib")); err != nil {
			t.Fatal(err)
		}

		got := FindFiles(dir)
		if !slices.Equal(got, []string{jar}) {
			t.Fatalf("got %v, want %v", got, []string{jar})
		}
	})

	t.Run("unreadable dir is skipped", func(t *testing.T) {
		if runtime.GOOS == "windows" || os.Getuid() == 0 {
			t.Skip("permissions are not enforced")
		}
		dir := t.TempDir()
		readable := filepath.Join(dir, "ok", "a.jar")
		writeFile(t, readable)
		writeFile(t, filepath.Join(dir, "locked", "b.jar"))
		locked := filepath.Join(dir, "locked")
		if err := os.Chmod(locked, 0o000); err != nil {
			t.Fatal(err)
		}
		t.Cleanup(func() { _ = os.Chmod(locked, 0o755) })

		got := FindFiles(dir)
		if !slices.Equal(got, []string{readable}) {
			t.Fatalf("got %v, want %v", got, []string{readable})
		}
	})
}

func TestFilterArtifacts(t *testing.T) {
	dir := t.TempDir()
	cutoff := time.Now().Add(-time.Minute).Truncate(time.Second)

	files := map[string]time.Time{
		"old.jar":        cutoff.Add(-time.Hour),
		"at-cutoff.jar":  cutoff,
		"new.jar":        cutoff.Add(time.Second),
		"new.txt":        cutoff.Add(time.Second),
		"libs/deep.jar":  cutoff.Add(time.Hour),
		"libs/stale.jar": cutoff.Add(-time.Second),
	}
	for name, mtime := range files {
		path := filepath.Join(dir, name)
		writeFile(t, path)
		if err := os.Chtimes(path, mtime, mtime); err != nil {
			t.Fatal(err)
		}
	}

	got := filterArtifacts(FindFiles(dir), cutoff, HasExtension(".jar"))
	slices.Sort(got)
	want := []string{filepath.Join(dir, "libs", "deep.jar"), filepath.Join(dir, "new.jar")}
	if !slices.Equal(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}
