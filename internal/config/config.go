// Package config reads the lighthouse-builder configuration from the
// environment.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/caarlos0/env/v11"

	"github.com/melih/lighthouse-builder/internal/adapters/objectstore"
	"github.com/melih/lighthouse-builder/internal/core/build"
)

// Config holds the application configuration.
type Config struct {
	// DockerHost is the engine endpoint, e.g. tcp://localhost:2375. Empty
	// falls back to DOCKER_HOST.
	DockerHost string `env:"LIGHTHOUSE_DOCKER_HOST"`

	Timeout          time.Duration `env:"LIGHTHOUSE_BUILD_TIMEOUT" envDefault:"10m"`
	ProgressInterval time.Duration `env:"LIGHTHOUSE_PROGRESS_INTERVAL" envDefault:"250ms"`
	LogTail          int           `env:"LIGHTHOUSE_LOG_TAIL" envDefault:"100"`

	SharedCache    bool   `env:"LIGHTHOUSE_SHARED_CACHE" envDefault:"true"`
	MavenCacheDir  string `env:"LIGHTHOUSE_MAVEN_CACHE_DIR"`
	GradleCacheDir string `env:"LIGHTHOUSE_GRADLE_CACHE_DIR"`

	ArtifactExtensions []string `env:"LIGHTHOUSE_ARTIFACT_EXTENSIONS" envDefault:".jar" envSeparator:","`
	ProjectTypesFile   string   `env:"LIGHTHOUSE_PROJECT_TYPES_FILE"`
	WorkspaceDir       string   `env:"LIGHTHOUSE_WORKSPACE_DIR"`

	Server  ServerConfig       `envPrefix:"LIGHTHOUSE_SERVER_"`
	Storage objectstore.Config `envPrefix:"LIGHTHOUSE_STORAGE_"`
}

type ServerConfig struct {
	Addr string `env:"ADDR" envDefault:":3000"`
	// ShutdownTimeout bounds how long a stopping server waits for interrupted
	// builds to clean up.
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`
}

// Parse parses the application configuration from the environment variables.
func Parse(environ []string) (*Config, error) {
	var cfg Config

	err := env.ParseWithOptions(&cfg, env.Options{
		Environment: env.ToMap(environ),
	})
	if err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.SharedCache {
		if c.MavenCacheDir == "" {
			c.MavenCacheDir = filepath.Join(xdg.CacheHome, "lighthouse", "maven")
		}
		if c.GradleCacheDir == "" {
			c.GradleCacheDir = filepath.Join(xdg.CacheHome, "lighthouse", "gradle")
		}
	}
	if c.WorkspaceDir == "" {
		c.WorkspaceDir = filepath.Join(xdg.DataHome, "lighthouse", "workspace")
	}
}

func (c *Config) validate() error {
	if c.Timeout < 0 {
		return fmt.Errorf("build timeout must not be negative: %s", c.Timeout)
	}
	if c.ProgressInterval < 0 {
		return fmt.Errorf("progress interval must not be negative: %s", c.ProgressInterval)
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("shutdown timeout must be positive: %s", c.Server.ShutdownTimeout)
	}
	if len(c.ArtifactExtensions) == 0 {
		return errors.New("at least one artifact extension is required")
	}
	if c.Storage.Enabled() {
		if err := c.Storage.Validate(); err != nil {
			return fmt.Errorf("storage: %w", err)
		}
	}
	return nil
}

// BuildConfig returns the build service configuration with no-op sinks.
// Callers set the sinks they need on the result.
func (c *Config) BuildConfig() build.Config {
	cfg := build.DefaultConfig()
	cfg.Timeout = c.Timeout
	cfg.ProgressInterval = c.ProgressInterval
	cfg.LogTail = c.LogTail
	cfg.IsArtifact = build.HasExtension(c.ArtifactExtensions...)
	if c.SharedCache {
		cfg.CacheMounts = build.CacheMounts(c.MavenCacheDir, c.GradleCacheDir)
	}
	return cfg
}
