package metrics

import (
	"context"
	"path/filepath"
	"time"

	"github.com/harun/sessionboot/pkg/runner"
)

// Tool execution statuses
const (
	StatusSuccess     = "success"
	StatusNonZero     = "nonzero"
	StatusSpawnFailed = "spawn_failed"
)

// InstrumentedRunner records every synchronous tool execution
type InstrumentedRunner struct {
	next    runner.Runner
	metrics *Metrics
}

// InstrumentRunner wraps next so its executions are counted and timed
func InstrumentRunner(next runner.Runner, m *Metrics) *InstrumentedRunner {
	return &InstrumentedRunner{next: next, metrics: m}
}

func (r *InstrumentedRunner) Run(ctx context.Context, spec runner.LaunchSpec) (int, error) {
	start := time.Now()
	code, err := r.next.Run(ctx, spec)
	r.observe(spec, start, code, err)
	return code, err
}

func (r *InstrumentedRunner) Output(ctx context.Context, spec runner.LaunchSpec) ([]byte, int, error) {
	start := time.Now()
	out, code, err := r.next.Output(ctx, spec)
	r.observe(spec, start, code, err)
	return out, code, err
}

func (r *InstrumentedRunner) Start(ctx context.Context, spec runner.LaunchSpec) (runner.Handle, error) {
	h, err := r.next.Start(ctx, spec)
	status := StatusSuccess
	if err != nil {
		status = StatusSpawnFailed
	}
	r.metrics.ToolExecutionsTotal.WithLabelValues(filepath.Base(spec.Path), status).Inc()
	return h, err
}

func (r *InstrumentedRunner) LookPath(name string) (string, error) {
	return r.next.LookPath(name)
}

func (r *InstrumentedRunner) observe(spec runner.LaunchSpec, start time.Time, code int, err error) {
	tool := filepath.Base(spec.Path)

	status := StatusSuccess
	switch {
	case err != nil:
		status = StatusSpawnFailed
	case code != 0:
		status = StatusNonZero
	}

	r.metrics.ToolExecutionsTotal.WithLabelValues(tool, status).Inc()
	r.metrics.ToolExecutionDuration.WithLabelValues(tool).Observe(time.Since(start).Seconds())
}
