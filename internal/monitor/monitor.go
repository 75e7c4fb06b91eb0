// Package monitor runs the snapshot-and-render loop.
package monitor

import (
	"context"
	"errors"
	"io"
	"time"

	"gpuwatch/internal/report"
	"gpuwatch/internal/sampling"
	"gpuwatch/internal/ui"
)

type Options struct {
	Sampler  sampling.Sampler
	Resolve  report.ResolveFunc
	Out      io.Writer
	Interval time.Duration
}

type Monitor struct {
	sampler  sampling.Sampler
	resolve  report.ResolveFunc
	out      io.Writer
	interval time.Duration
}

func New(opts Options) *Monitor {
	interval := opts.Interval
	if interval <= 0 {
		interval = time.Second
	}
	return &Monitor{
		sampler:  opts.Sampler,
		resolve:  opts.Resolve,
		out:      opts.Out,
		interval: interval,
	}
}

// Once prints a single snapshot. When the metrics are unavailable for this
// poll it prints nothing and reports success; the tool stays silent about
// its own polling faults.
func (m *Monitor) Once(ctx context.Context) error {
	text, err := m.snapshot(ctx)
	if err != nil {
		if errors.Is(err, sampling.ErrMetricsUnavailable) {
			return nil
		}
		return err
	}
	_, err = io.WriteString(m.out, text)
	return err
}

// Watch clears the screen and reprints a fresh snapshot every interval until
// ctx is cancelled. Ticks whose queries fail are skipped whole; the previous
// frame stays on screen rather than a partial one replacing it.
func (m *Monitor) Watch(ctx context.Context) error {
	screen := ui.NewScreen(m.out)
	screen.Setup()
	defer screen.Restore()

	// First frame immediately.
	m.tick(ctx, screen)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			m.tick(ctx, screen)
		}
	}
}

func (m *Monitor) tick(ctx context.Context, screen *ui.Screen) {
	text, err := m.snapshot(ctx)
	if err != nil {
		return
	}
	screen.BeginFrame()
	_, _ = io.WriteString(m.out, text)
}

func (m *Monitor) snapshot(ctx context.Context) (string, error) {
	snap, err := m.sampler.Sample(ctx)
	if err != nil {
		return "", err
	}
	return report.Build(snap, m.resolve), nil
}
