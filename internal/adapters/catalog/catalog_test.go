package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/melih/lighthouse-builder/internal/core/domain"
)

func TestNew(t *testing.T) {
	c := New()

	for _, name := range []string{"gradle", "maven"} {
		p, err := c.Lookup(name)
		if err != nil {
			t.Fatalf("didn't want %q", err)
		}
		if p.Name() != name {
			t.Fatalf("got %q, want %q", p.Name(), name)
		}
	}

	if _, err := c.Lookup("ant"); !errors.Is(err, domain.ErrUnknownProjectType) {
		t.Fatalf("got %v, want %v", err, domain.ErrUnknownProjectType)
	}
}

func TestLoad(t *testing.T) {
	t.Run("adds and replaces project types", func(t *testing.T) {
		path := writeCatalog(t, `
project_types:
  - name: sbt
    image: sbtscala/scala-sbt:eclipse-temurin-%s
    cmd: ["/bin/bash", "-c", "sbt package"]
  - name: maven
    image: maven:3.9-eclipse-temurin-%s
    cmd: ["mvn", "-B", "package"]
`)

		c, err := Load(path)
		if err != nil {
			t.Fatalf("didn't want %q", err)
		}

		var names []string
		for _, p := range c.List() {
			names = append(names, p.Name())
		}
		if !slices.Equal(names, []string{"gradle", "maven", "sbt"}) {
			t.Fatalf("got %v", names)
		}

		sbt, _ := c.Lookup("sbt")
		if got := sbt.ImageRef("17"); got != "sbtscala/scala-sbt:eclipse-temurin-17" {
			t.Fatalf("got %q", got)
		}
		maven, _ := c.Lookup("maven")
		if !slices.Equal(maven.Cmd(), []string{"mvn", "-B", "package"}) {
			t.Fatalf("got %q", maven.Cmd())
		}
	})

	t.Run("rejects incomplete entries", func(t *testing.T) {
		path := writeCatalog(t, `
project_types:
  - name: ""
    image: x
    cmd: [x]
  - name: noimage
    cmd: [x]
  - name: nocmd
    image: x
  - name: badverb
    image: "x:%d"
    cmd: [x]
`)

		if _, err := Load(path); err == nil {
			t.Fatalf("want error")
		}
	})

	t.Run("missing file", func(t *testing.T) {
		if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); !errors.Is(err, os.ErrNotExist) {
			t.Fatalf("got %v, want %v", err, os.ErrNotExist)
		}
	})
}

func writeCatalog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "project-types.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}
