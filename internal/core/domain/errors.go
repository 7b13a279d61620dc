package domain

import "errors"

var (
	// ErrAmbiguousProject is returned when both gradlew and pom.xml exist.
	ErrAmbiguousProject = errors.New("ambiguous project type")
	// ErrUnknownProject is returned when neither gradlew nor pom.xml exists.
	ErrUnknownProject = errors.New("unknown project type")
	// ErrUnknownProjectType is returned when a project type is requested by a name nobody registered.
	ErrUnknownProjectType = errors.New("no such project type")
	// ErrInterrupted is returned when the build context is cancelled during a blocking step.
	ErrInterrupted = errors.New("build interrupted")
)
