package domain

import (
	"fmt"
	"slices"
	"strings"
)

// Marker files probed in the project root.
const (
	GradleMarker = "gradlew"
	MavenMarker  = "pom.xml"
)

// ProjectType describes how a project is built: which image to run and which
// command to execute inside it. Values are never mutated after construction
// and can be shared between builds.
type ProjectType struct {
	name  string
	image string
	cmd   []string
}

var (
	Gradle = NewProjectType("gradle", "gradle:jdk%s", "/bin/bash", "-c", "./gradlew --project-cache-dir /tmp/.gradle_cache build --stacktrace --info")
	Maven  = NewProjectType("maven", "maven:3-eclipse-temurin-%s", "/bin/bash", "-c", "mvn package")
)

// NewProjectType creates a project type. The image may contain one %s verb
// which is replaced by the build's version parameter.
func NewProjectType(name, image string, cmd ...string) ProjectType {
	return ProjectType{name: name, image: image, cmd: slices.Clone(cmd)}
}

// Custom creates a project type that runs cmd in image.
func Custom(image string, cmd ...string) ProjectType {
	return NewProjectType("custom", image, cmd...)
}

func (p ProjectType) Name() string { return p.name }

// Image returns the unformatted image template.
func (p ProjectType) Image() string { return p.image }

func (p ProjectType) Cmd() []string { return slices.Clone(p.cmd) }

// ImageRef formats the image template with version. Templates without a
// %s verb are returned as is.
func (p ProjectType) ImageRef(version string) string {
	if !strings.Contains(p.image, "%s") {
		return p.image
	}
	return fmt.Sprintf(p.image, version)
}

func (p ProjectType) String() string {
	return fmt.Sprintf("ProjectType{name=%s, image=%s, cmd=[%s]}", p.name, p.image, strings.Join(p.cmd, ", "))
}
