// Package catalog keeps the project types that can be requested by name: the
// built-in Gradle and Maven types plus any loaded from a YAML file.
//
// The file format is:
//
//	project_types:
//	  - name: sbt
//	    image: sbtscala/scala-sbt:eclipse-temurin-%s
//	    cmd: ["/bin/bash", "-c", "sbt package"]
package catalog

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/melih/lighthouse-builder/internal/core/domain"
)

type Catalog struct {
	types map[string]domain.ProjectType
}

// New returns a catalog holding the built-in project types.
func New() *Catalog {
	c := &Catalog{types: make(map[string]domain.ProjectType)}
	c.Register(domain.Gradle)
	c.Register(domain.Maven)
	return c
}

// Load returns the built-in project types together with the ones defined in
// the YAML file at path. Entries in the file replace built-ins of the same name.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read project types: %w", err)
	}

	c := New()
	if err := c.parse(data); err != nil {
		return nil, fmt.Errorf("failed to parse project types %s: %w", path, err)
	}
	return c, nil
}

type file struct {
	ProjectTypes []entry `yaml:"project_types"`
}

type entry struct {
	Name  string   `yaml:"name"`
	Image string   `yaml:"image"`
	Cmd   []string `yaml:"cmd"`
}

func (c *Catalog) parse(data []byte) error {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return err
	}

	var errs []error
	for i, e := range f.ProjectTypes {
		switch {
		case strings.TrimSpace(e.Name) == "":
			errs = append(errs, fmt.Errorf("project_types[%d]: name is required", i))
		case strings.TrimSpace(e.Image) == "":
			errs = append(errs, fmt.Errorf("project_types[%d] (%s): image is required", i, e.Name))
		case len(e.Cmd) == 0:
			errs = append(errs, fmt.Errorf("project_types[%d] (%s): cmd is required", i, e.Name))
		case strings.Count(e.Image, "%") > 1 || (strings.Contains(e.Image, "%") && !strings.Contains(e.Image, "%s")):
			errs = append(errs, fmt.Errorf("project_types[%d] (%s): image may contain at most one %%s verb", i, e.Name))
		default:
			c.Register(domain.NewProjectType(e.Name, e.Image, e.Cmd...))
		}
	}
	return errors.Join(errs...)
}

func (c *Catalog) Register(p domain.ProjectType) {
	c.types[p.Name()] = p
}

// Lookup returns the project type registered under name.
func (c *Catalog) Lookup(name string) (domain.ProjectType, error) {
	p, ok := c.types[name]
	if !ok {
		return domain.ProjectType{}, fmt.Errorf("%w: %q", domain.ErrUnknownProjectType, name)
	}
	return p, nil
}

// List returns all project types sorted by name.
func (c *Catalog) List() []domain.ProjectType {
	names := make([]string, 0, len(c.types))
	for name := range c.types {
		names = append(names, name)
	}
	slices.Sort(names)

	types := make([]domain.ProjectType, 0, len(names))
	for _, name := range names {
		types = append(types, c.types[name])
	}
	return types
}
