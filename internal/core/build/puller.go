package build

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/melih/lighthouse-builder/internal/core/domain"
	"github.com/melih/lighthouse-builder/internal/core/ports"
)

// imagePuller pulls the build image and reports progress to debug, at most
// once per interval.
type imagePuller struct {
	engine   ports.ContainerEngine
	interval time.Duration
	debug    func(string)
}

func (p *imagePuller) pull(ctx context.Context, image string) error {
	report := func(ev domain.PullProgress) { p.debug(formatProgress(ev)) }
	if p.interval > 0 {
		limiter := &rate.Sometimes{Interval: p.interval}
		report = func(ev domain.PullProgress) {
			limiter.Do(func() { p.debug(formatProgress(ev)) })
		}
	}

	if err := p.engine.PullImage(ctx, image, report); err != nil {
		return err
	}
	p.debug(fmt.Sprintf("Successfully pulled image '%s'", image))
	return nil
}

func formatProgress(ev domain.PullProgress) string {
	var percentage float64
	if ev.Current != nil && ev.Total != nil && *ev.Total > 0 {
		percentage = float64(*ev.Current) / float64(*ev.Total) * 100
	}
	return fmt.Sprintf("Pulling layer %s (status: %s): %.1f%% (%s/%s)",
		ev.ID, ev.Status, percentage, formatCount(ev.Current), formatCount(ev.Total))
}

func formatCount(n *int64) string {
	if n == nil {
		return "?"
	}
	return strconv.FormatInt(*n, 10)
}
