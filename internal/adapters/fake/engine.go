// Package fake provides an in-memory ContainerEngine for tests. It records
// every call and plays back scripted pull progress and log frames.
package fake

import (
	"context"
	"sync"

	"github.com/melih/lighthouse-builder/internal/core/domain"
	"github.com/melih/lighthouse-builder/internal/core/ports"
)

const (
	CallPullImage       = "PullImage"
	CallCreateContainer = "CreateContainer"
	CallStartContainer  = "StartContainer"
	CallStreamLogs      = "StreamLogs"
	CallRemoveContainer = "RemoveContainer"
	CallListContainers  = "ListBuildContainers"
)

// DefaultContainerID is returned by CreateContainer when ContainerID is empty.
const DefaultContainerID = "fake-container"

var (
	_ ports.ContainerEngine      = (*Engine)(nil)
	_ ports.BuildContainerLister = (*Engine)(nil)
)

// Engine is a scriptable ports.ContainerEngine.
//
// The *Func fields replace the default behaviour of the matching method. The
// *Err fields make the matching method fail without side effects.
type Engine struct {
	PullProgress  []domain.PullProgress
	PullImageFunc func(ctx context.Context, ref string, onProgress func(domain.PullProgress)) error
	PullErr       error

	ContainerID string
	CreateErr   error
	// CreateErrWithID makes a failing CreateContainer still hand out the
	// container ID, as an engine does when the container exists but the
	// create call reported an error.
	CreateErrWithID bool
	StartErr        error

	LogFrames      []domain.LogFrame
	StreamLogsFunc func(ctx context.Context, onFrame func(domain.LogFrame)) error
	StreamErr      error

	RemoveErr error

	mu      sync.Mutex
	calls   []string
	pulled  []string
	specs   []domain.ContainerSpec
	tails   []int
	removed []string
}

func (e *Engine) PullImage(ctx context.Context, ref string, onProgress func(domain.PullProgress)) error {
	e.record(CallPullImage, func() { e.pulled = append(e.pulled, ref) })
	if e.PullImageFunc != nil {
		return e.PullImageFunc(ctx, ref, onProgress)
	}
	if e.PullErr != nil {
		return e.PullErr
	}
	for _, ev := range e.PullProgress {
		onProgress(ev)
	}
	return nil
}

func (e *Engine) CreateContainer(ctx context.Context, spec domain.ContainerSpec) (string, error) {
	e.record(CallCreateContainer, func() { e.specs = append(e.specs, spec) })
	if e.CreateErr != nil && !e.CreateErrWithID {
		return "", e.CreateErr
	}
	return e.containerID(), e.CreateErr
}

func (e *Engine) containerID() string {
	if e.ContainerID == "" {
		return DefaultContainerID
	}
	return e.ContainerID
}

func (e *Engine) StartContainer(ctx context.Context, id string) error {
	e.record(CallStartContainer, nil)
	return e.StartErr
}

func (e *Engine) StreamLogs(ctx context.Context, id string, tail int, onFrame func(domain.LogFrame)) error {
	e.record(CallStreamLogs, func() { e.tails = append(e.tails, tail) })
	if e.StreamLogsFunc != nil {
		return e.StreamLogsFunc(ctx, onFrame)
	}
	if e.StreamErr != nil {
		return e.StreamErr
	}
	for _, frame := range e.LogFrames {
		onFrame(frame)
	}
	return nil
}

func (e *Engine) RemoveContainer(ctx context.Context, id string) error {
	e.record(CallRemoveContainer, func() { e.removed = append(e.removed, id) })
	return e.RemoveErr
}

// ListBuildContainers returns one running container per create that was not
// followed by a remove.
func (e *Engine) ListBuildContainers(ctx context.Context) ([]domain.Container, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls = append(e.calls, CallListContainers)

	live := len(e.specs) - len(e.removed)
	var containers []domain.Container
	for _, spec := range e.specs[len(e.specs)-max(live, 0):] {
		containers = append(containers, domain.Container{
			ID:          e.containerID(),
			Name:        spec.Name,
			Image:       spec.Image,
			ProjectType: spec.Labels[domain.LabelBuild],
			Status:      "Up",
			State:       "running",
		})
	}
	return containers, nil
}

// Calls returns the names of the methods called so far, in order.
func (e *Engine) Calls() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.calls...)
}

// Pulled returns the image references passed to PullImage.
func (e *Engine) Pulled() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.pulled...)
}

// Specs returns the specs passed to CreateContainer.
func (e *Engine) Specs() []domain.ContainerSpec {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]domain.ContainerSpec(nil), e.specs...)
}

// Tails returns the tail values passed to StreamLogs.
func (e *Engine) Tails() []int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]int(nil), e.tails...)
}

// Removed returns the container IDs passed to RemoveContainer.
func (e *Engine) Removed() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.removed...)
}

func (e *Engine) record(call string, f func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls = append(e.calls, call)
	if f != nil {
		f()
	}
}

// Stdout and Stderr build log frames for scripting LogFrames.
func Stdout(s string) domain.LogFrame {
	return domain.LogFrame{Stream: domain.StreamStdout, Payload: []byte(s)}
}

func Stderr(s string) domain.LogFrame {
	return domain.LogFrame{Stream: domain.StreamStderr, Payload: []byte(s)}
}
