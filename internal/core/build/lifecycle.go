package build

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/melih/lighthouse-builder/internal/core/domain"
	"github.com/melih/lighthouse-builder/internal/core/ports"
)

type containerState int

const (
	stateCreated containerState = iota
	stateStarted
	stateLogComplete
	stateTimedOut
	stateRemoved
)

// buildContainer owns one container for the duration of one build.
type buildContainer struct {
	engine ports.ContainerEngine
	debug  func(string)

	id        string
	state     containerState
	startedAt time.Time
}

// createContainer creates the build container. The returned container is
// non-nil whenever the engine handed out an ID, even if err is set, so the
// caller can always release it.
func createContainer(ctx context.Context, engine ports.ContainerEngine, spec domain.ContainerSpec, debug func(string)) (*buildContainer, error) {
	id, err := engine.CreateContainer(ctx, spec)
	if id == "" {
		if err == nil {
			err = errors.New("engine returned an empty container id")
		}
		return nil, err
	}

	c := &buildContainer{engine: engine, debug: debug, id: id, state: stateCreated}
	if err != nil {
		return c, err
	}
	debug("Created container: " + id)
	return c, nil
}

// start starts the container. startedAt is taken right before the engine
// call and serves as the artifact freshness cutoff.
func (c *buildContainer) start(ctx context.Context) error {
	c.startedAt = time.Now()
	if err := c.engine.StartContainer(ctx, c.id); err != nil {
		return err
	}
	c.state = stateStarted
	c.debug("Started container: " + c.id)
	return nil
}

// streamLogs forwards container output until the stream ends or timeout
// elapses. A timeout is reported to debug and is not an error.
func (c *buildContainer) streamLogs(ctx context.Context, tail int, timeout time.Duration, onFrame func(domain.LogFrame)) error {
	logCtx, cancel := ctx, context.CancelFunc(func() {})
	if timeout > 0 {
		logCtx, cancel = context.WithTimeout(ctx, timeout)
	}
	defer cancel()

	err := c.engine.StreamLogs(logCtx, c.id, tail, onFrame)
	switch {
	case err == nil:
		c.state = stateLogComplete
		return nil
	case ctx.Err() != nil:
		return interrupted(ctx.Err())
	case errors.Is(logCtx.Err(), context.DeadlineExceeded):
		c.state = stateTimedOut
		c.debug("Terminated due to exceeding timeout of " + formatTimeout(timeout))
		return nil
	default:
		return fmt.Errorf("failed to stream logs: %w", err)
	}
}

// remove force-removes the container and its volumes. It runs even when ctx
// is already cancelled. Failures are reported to debug only.
func (c *buildContainer) remove(ctx context.Context) {
	if c.state == stateRemoved {
		return
	}
	if err := c.engine.RemoveContainer(context.WithoutCancel(ctx), c.id); err != nil {
		c.debug(fmt.Sprintf("Failed to remove container %s: %v", c.id, err))
		return
	}
	c.state = stateRemoved
	c.debug("Removed container: " + c.id)
}

func interrupted(err error) error {
	return fmt.Errorf("%w: %w", domain.ErrInterrupted, err)
}

// formatTimeout renders d in the largest unit that represents it exactly,
// e.g. "10 MINUTES".
func formatTimeout(d time.Duration) string {
	units := []struct {
		size time.Duration
		name string
	}{
		{time.Hour, "HOURS"},
		{time.Minute, "MINUTES"},
		{time.Second, "SECONDS"},
		{time.Millisecond, "MILLISECONDS"},
		{time.Microsecond, "MICROSECONDS"},
	}
	for _, u := range units {
		if d%u.size == 0 {
			return fmt.Sprintf("%d %s", int64(d/u.size), u.name)
		}
	}
	return fmt.Sprintf("%d NANOSECONDS", d.Nanoseconds())
}
