package build

import (
	"strings"
	"time"

	"github.com/melih/lighthouse-builder/internal/core/domain"
)

const (
	DefaultTimeout          = 10 * time.Minute
	DefaultProgressInterval = 250 * time.Millisecond
	DefaultLogTail          = 100

	// WorkspaceMount is where the project directory is mounted and where the
	// build command runs.
	WorkspaceMount = "/app"

	MavenCacheMount  = "/root/.m2"
	GradleCacheMount = "/root/.gradle"
)

// Config holds the settings of a build Service. A Config must not be changed
// after it is passed to New.
type Config struct {
	// Timeout bounds log streaming only. Zero disables it.
	Timeout time.Duration
	// ProgressInterval is the minimum time between two forwarded pull
	// progress events. Zero or less forwards all of them.
	ProgressInterval time.Duration
	// LogTail is the number of backlog lines requested when attaching to the
	// container output. Zero or less requests the whole backlog.
	LogTail int
	// CacheMounts are extra binds shared between builds, usually dependency
	// caches. They are not locked.
	CacheMounts []domain.Mount

	// OnStdout and OnStderr receive container output, one trimmed chunk per call.
	OnStdout func(string)
	OnStderr func(string)
	// OnDebug receives progress and lifecycle messages.
	OnDebug func(string)
	// IsArtifact decides whether a file modified by the build is an artifact.
	// It is only called with regular files.
	IsArtifact func(path string) bool
}

// DefaultConfig returns a Config with the default timeout, no-op sinks and
// an artifact predicate accepting .jar files.
func DefaultConfig() Config {
	return Config{
		Timeout:          DefaultTimeout,
		ProgressInterval: DefaultProgressInterval,
		LogTail:          DefaultLogTail,
		OnStdout:         discard,
		OnStderr:         discard,
		OnDebug:          discard,
		IsArtifact:       HasExtension(".jar"),
	}
}

// CacheMounts binds the given host directories to the Maven and Gradle home
// directories of the build container. Empty paths are skipped.
func CacheMounts(mavenDir, gradleDir string) []domain.Mount {
	var mounts []domain.Mount
	if mavenDir != "" {
		mounts = append(mounts, domain.Mount{HostPath: mavenDir, ContainerPath: MavenCacheMount})
	}
	if gradleDir != "" {
		mounts = append(mounts, domain.Mount{HostPath: gradleDir, ContainerPath: GradleCacheMount})
	}
	return mounts
}

// HasExtension returns an artifact predicate matching file names ending in
// one of exts.
func HasExtension(exts ...string) func(string) bool {
	return func(path string) bool {
		for _, ext := range exts {
			if strings.HasSuffix(path, ext) {
				return true
			}
		}
		return false
	}
}

func discard(string) {}

func (c Config) withDefaults() Config {
	if c.OnStdout == nil {
		c.OnStdout = discard
	}
	if c.OnStderr == nil {
		c.OnStderr = discard
	}
	if c.OnDebug == nil {
		c.OnDebug = discard
	}
	if c.IsArtifact == nil {
		c.IsArtifact = HasExtension(".jar")
	}
	return c
}
