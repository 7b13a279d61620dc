package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/melih/lighthouse-builder/internal/adapters/builder"
	"github.com/melih/lighthouse-builder/internal/adapters/catalog"
	"github.com/melih/lighthouse-builder/internal/adapters/docker"
	"github.com/melih/lighthouse-builder/internal/adapters/objectstore"
	"github.com/melih/lighthouse-builder/internal/config"
	"github.com/melih/lighthouse-builder/internal/core/build"
	"github.com/melih/lighthouse-builder/internal/core/domain"
	"github.com/melih/lighthouse-builder/internal/core/ports"
)

// CLI holds the flags of the lighthouse-build command. Defaults come from the
// LIGHTHOUSE_* environment.
type CLI struct {
	Dir  string `arg:"" optional:"" type:"path" help:"Project directory. Defaults to the current directory."`
	Repo string `help:"Clone this git repository into the workspace and build it instead of a local directory." placeholder:"URL"`
	Ref  string `help:"Branch or tag to clone with --repo."`

	Version string        `short:"V" default:"${version}" help:"Version parameter of the build image, e.g. the JDK version."`
	Type    string        `short:"t" help:"Project type name. Detected from gradlew/pom.xml when empty."`
	Image   string        `help:"Run a custom image instead of a known project type. Requires --cmd."`
	Cmd     []string      `sep:"none" help:"Command argument for --image. Repeat for each argument."`
	Timeout time.Duration `default:"${timeout}" help:"Stop following build output after this long. 0 waits forever."`
	Ext     []string      `default:"${ext}" help:"Artifact file extensions."`

	DockerHost string `default:"${docker_host}" help:"Docker engine endpoint, e.g. tcp://localhost:2375."`
	Publish    bool   `help:"Upload the artifacts to the configured object store."`
	Debug      bool   `short:"d" help:"Show pull progress and container lifecycle messages."`
}

func (c *CLI) vars(cfg *config.Config) map[string]string {
	return map[string]string{
		"version":     domain.DefaultVersion,
		"timeout":     cfg.Timeout.String(),
		"ext":         strings.Join(cfg.ArtifactExtensions, ","),
		"docker_host": cfg.DockerHost,
	}
}

func (c *CLI) Run(ctx context.Context, cfg *config.Config) error {
	configureLogger(c.Debug)

	projectType, err := c.projectType(cfg)
	if err != nil {
		return err
	}

	engine, err := docker.NewAdapter(c.DockerHost)
	if err != nil {
		return err
	}
	defer engine.Close()

	var store ports.ArtifactStore
	if c.Publish {
		if !cfg.Storage.Enabled() {
			return errors.New("--publish needs LIGHTHOUSE_STORAGE_ENDPOINT")
		}
		s, err := objectstore.New(cfg.Storage)
		if err != nil {
			return err
		}
		if err := s.EnsureBucket(ctx); err != nil {
			return err
		}
		store = s
	}

	buildCfg := cfg.BuildConfig()
	buildCfg.Timeout = c.Timeout
	buildCfg.IsArtifact = build.HasExtension(c.Ext...)
	buildCfg.OnStdout = lineWriter(os.Stdout)
	buildCfg.OnStderr = lineWriter(os.Stderr)
	buildCfg.OnDebug = func(msg string) { slog.Debug(msg) }
	service := build.New(engine, buildCfg)

	var (
		prefix    = time.Now().UTC().Format("20060102T150405Z")
		dir       string
		artifacts []string
	)
	if c.Repo != "" {
		result, err := builder.NewBuilderAdapter(service, cfg.WorkspaceDir).BuildRepo(ctx, builder.RepoBuildRequest{
			RepoURL:     c.Repo,
			Ref:         c.Ref,
			Version:     c.Version,
			ProjectType: projectType,
		})
		if err != nil {
			return err
		}
		prefix, dir, artifacts = result.ID.String(), result.Dir, result.Artifacts
		slog.Info("checked out repository", "dir", dir)
	} else {
		dir = c.Dir
		if dir == "" {
			dir = "."
		}
		artifacts, err = service.Build(ctx, domain.BuildRequest{ProjectDir: dir, Version: c.Version, ProjectType: projectType})
		if err != nil {
			return err
		}
	}

	for _, artifact := range artifacts {
		fmt.Println("Artifact: " + artifact)
	}

	if store != nil {
		keys, err := store.Upload(ctx, prefix, dir, artifacts)
		if err != nil {
			return err
		}
		for _, key := range keys {
			slog.Info("published artifact", "key", key)
		}
	}
	return nil
}

func (c *CLI) projectType(cfg *config.Config) (*domain.ProjectType, error) {
	if c.Image != "" {
		if len(c.Cmd) == 0 {
			return nil, errors.New("--image requires --cmd")
		}
		p := domain.Custom(c.Image, c.Cmd...)
		return &p, nil
	}
	if c.Type == "" {
		return nil, nil
	}

	projectTypes := catalog.New()
	if cfg.ProjectTypesFile != "" {
		var err error
		projectTypes, err = catalog.Load(cfg.ProjectTypesFile)
		if err != nil {
			return nil, err
		}
	}
	p, err := projectTypes.Lookup(c.Type)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func lineWriter(w io.Writer) func(string) {
	return func(line string) {
		_, _ = fmt.Fprintln(w, line)
	}
}

// Configures the default logger; --debug lowers the level so lifecycle
// messages show up.
func configureLogger(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}
