package http

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/melih/lighthouse-builder/internal/adapters/builder"
	"github.com/melih/lighthouse-builder/internal/adapters/catalog"
	"github.com/melih/lighthouse-builder/internal/core/build"
	"github.com/melih/lighthouse-builder/internal/core/domain"
	"github.com/melih/lighthouse-builder/internal/core/ports"
)

// BuildHandlerConfig wires a BuildHandler. Containers, Fetcher and Store are
// optional.
type BuildHandlerConfig struct {
	Engine     ports.ContainerEngine
	Containers ports.BuildContainerLister
	Catalog    *catalog.Catalog
	Build      build.Config
	Workspace  string
	Fetcher    ports.SourceFetcher
	Store      ports.ArtifactStore
}

var (
	errMissingCmd        = errors.New("cmd is required with image")
	errInvalidProjectDir = errors.New("project_dir must be an existing directory inside the workspace")
)

type BuildHandler struct {
	cfg BuildHandlerConfig
}

func NewBuildHandler(cfg BuildHandlerConfig) *BuildHandler {
	if cfg.Catalog == nil {
		cfg.Catalog = catalog.New()
	}
	return &BuildHandler{cfg: cfg}
}

// BaseContext makes ctx the user context of every request, so cancelling ctx
// interrupts the builds in flight.
func BaseContext(ctx context.Context) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.SetUserContext(ctx)
		return c.Next()
	}
}

// Routes registers the build API on router.
func Routes(router fiber.Router, h *BuildHandler) {
	builds := router.Group("/builds")
	builds.Post("/", h.Build)
	builds.Get("/containers", h.ListContainers)

	router.Get("/project-types", h.ListProjectTypes)
}

type BuildRequest struct {
	// ProjectDir is a directory inside the workspace, absolute or relative to
	// the workspace root.
	ProjectDir string `json:"project_dir"`
	RepoURL    string `json:"repo_url"`
	Ref        string `json:"ref"`
	Version    string `json:"version"`
	// ProjectType names a catalog entry. Leave it empty to detect the type
	// from marker files, or set Image and Cmd for a one-off custom type.
	ProjectType string   `json:"project_type"`
	Image       string   `json:"image"`
	Cmd         []string `json:"cmd"`
	Publish     bool     `json:"publish"`
}

type BuildResponse struct {
	ID        string   `json:"id"`
	Dir       string   `json:"dir"`
	Artifacts []string `json:"artifacts"`
	Objects   []string `json:"objects,omitempty"`
	Stdout    []string `json:"stdout"`
	Stderr    []string `json:"stderr"`
	Debug     []string `json:"debug"`
}

// Build runs a build synchronously and answers with its artifacts and output.
func (h *BuildHandler) Build(c *fiber.Ctx) error {
	var req BuildRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if (req.ProjectDir == "") == (req.RepoURL == "") {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Exactly one of project_dir or repo_url is required",
		})
	}
	if req.Publish && h.cfg.Store == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Artifact publishing is not configured",
		})
	}
	if req.Version == "" {
		req.Version = domain.DefaultVersion
	}

	override, err := h.projectType(req)
	if err != nil {
		return c.Status(statusFor(err)).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	var projectDir string
	if req.ProjectDir != "" {
		projectDir, err = h.workspaceDir(req.ProjectDir)
		if err != nil {
			return c.Status(statusFor(err)).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
	}

	resp := BuildResponse{Stdout: []string{}, Stderr: []string{}, Debug: []string{}}
	cfg := h.cfg.Build
	cfg.OnStdout = func(s string) { resp.Stdout = append(resp.Stdout, s) }
	cfg.OnStderr = func(s string) { resp.Stderr = append(resp.Stderr, s) }
	cfg.OnDebug = func(s string) { resp.Debug = append(resp.Debug, s) }
	service := build.New(h.cfg.Engine, cfg)

	ctx := c.UserContext()
	if req.RepoURL != "" {
		repos := builder.NewBuilderAdapter(service, h.cfg.Workspace)
		if h.cfg.Fetcher != nil {
			repos = repos.WithFetcher(h.cfg.Fetcher)
		}
		result, err := repos.BuildRepo(ctx, builder.RepoBuildRequest{
			RepoURL:     req.RepoURL,
			Ref:         req.Ref,
			Version:     req.Version,
			ProjectType: override,
		})
		if err != nil {
			return h.buildFailed(c, resp, err)
		}
		resp.ID, resp.Dir, resp.Artifacts = result.ID.String(), result.Dir, result.Artifacts
	} else {
		artifacts, err := service.Build(ctx, domain.BuildRequest{
			ProjectDir:  projectDir,
			Version:     req.Version,
			ProjectType: override,
		})
		if err != nil {
			return h.buildFailed(c, resp, err)
		}
		resp.ID, resp.Dir, resp.Artifacts = uuid.NewString(), projectDir, artifacts
	}
	if resp.Artifacts == nil {
		resp.Artifacts = []string{}
	}

	if req.Publish {
		objects, err := h.cfg.Store.Upload(ctx, resp.ID, resp.Dir, resp.Artifacts)
		resp.Objects = objects
		if err != nil {
			return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
				"error": "Publishing artifacts failed: " + err.Error(),
				"build": resp,
			})
		}
	}

	return c.Status(fiber.StatusCreated).JSON(resp)
}

func (h *BuildHandler) projectType(req BuildRequest) (*domain.ProjectType, error) {
	switch {
	case req.Image != "":
		if len(req.Cmd) == 0 {
			return nil, errMissingCmd
		}
		p := domain.Custom(req.Image, req.Cmd...)
		return &p, nil
	case req.ProjectType != "":
		p, err := h.cfg.Catalog.Lookup(req.ProjectType)
		if err != nil {
			return nil, err
		}
		return &p, nil
	default:
		return nil, nil
	}
}

// workspaceDir resolves dir, following links, and checks that it names a
// directory strictly below the workspace root.
func (h *BuildHandler) workspaceDir(dir string) (string, error) {
	if h.cfg.Workspace == "" {
		return "", errInvalidProjectDir
	}
	root, err := resolvePath(h.cfg.Workspace)
	if err != nil {
		return "", errInvalidProjectDir
	}
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(root, dir)
	}
	path, err := resolvePath(dir)
	if err != nil {
		return "", errInvalidProjectDir
	}

	rel, err := filepath.Rel(root, path)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", errInvalidProjectDir
	}
	if info, err := os.Stat(path); err != nil || !info.IsDir() {
		return "", errInvalidProjectDir
	}
	return path, nil
}

func resolvePath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	return filepath.EvalSymlinks(abs)
}

func (h *BuildHandler) buildFailed(c *fiber.Ctx, resp BuildResponse, err error) error {
	return c.Status(statusFor(err)).JSON(fiber.Map{
		"error": "Build failed: " + err.Error(),
		"build": resp,
	})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrAmbiguousProject),
		errors.Is(err, domain.ErrUnknownProject),
		errors.Is(err, domain.ErrUnknownProjectType):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrInterrupted):
		return fiber.StatusServiceUnavailable
	case errors.Is(err, errMissingCmd),
		errors.Is(err, errInvalidProjectDir):
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}

type projectTypeResponse struct {
	Name  string   `json:"name"`
	Image string   `json:"image"`
	Cmd   []string `json:"cmd"`
}

func (h *BuildHandler) ListProjectTypes(c *fiber.Ctx) error {
	types := h.cfg.Catalog.List()
	result := make([]projectTypeResponse, 0, len(types))
	for _, p := range types {
		result = append(result, projectTypeResponse{Name: p.Name(), Image: p.Image(), Cmd: p.Cmd()})
	}
	return c.JSON(result)
}

func (h *BuildHandler) ListContainers(c *fiber.Ctx) error {
	if h.cfg.Containers == nil {
		return c.Status(fiber.StatusNotImplemented).JSON(fiber.Map{
			"error": "Listing containers is not supported by this engine",
		})
	}

	containers, err := h.cfg.Containers.ListBuildContainers(c.UserContext())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	if containers == nil {
		containers = []domain.Container{}
	}
	return c.JSON(containers)
}
