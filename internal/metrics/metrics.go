package metrics

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
)

// Step outcomes
const (
	OutcomeOK      = "ok"
	OutcomeFailed  = "failed"
	OutcomeFatal   = "fatal"
	OutcomeSkipped = "skipped"
)

// Metrics holds the Prometheus metrics of one session run
type Metrics struct {
	registry *prometheus.Registry

	// Step metrics
	StepsTotal   *prometheus.CounterVec
	StepDuration *prometheus.HistogramVec

	// Tool metrics
	ToolExecutionsTotal   *prometheus.CounterVec
	ToolExecutionDuration *prometheus.HistogramVec

	// Sequencer metrics
	StateTransitionsTotal *prometheus.CounterVec
	SessionState          prometheus.Gauge
	ExitStatus            prometheus.Gauge

	// Environment metrics
	EnvironmentChangesTotal prometheus.Counter

	// Shutdown wait metrics
	ShutdownPeersRemaining prometheus.Gauge
	ShutdownPeerQuitsTotal prometheus.Counter
	ShutdownWaitDuration   prometheus.Gauge
}

// NewMetrics creates and registers all metrics
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,

		StepsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sessionboot_steps_total",
				Help: "Total number of sequence steps by outcome",
			},
			[]string{"step", "outcome"},
		),
		StepDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "sessionboot_step_duration_seconds",
				Help:    "Duration of sequence steps in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"step"},
		),

		ToolExecutionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sessionboot_tool_executions_total",
				Help: "Total number of external tool executions",
			},
			[]string{"tool", "status"},
		),
		ToolExecutionDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "sessionboot_tool_execution_duration_seconds",
				Help:    "Duration of external tool executions in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"tool"},
		),

		StateTransitionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sessionboot_state_transitions_total",
				Help: "Total number of transitions into each sequencer state",
			},
			[]string{"state"},
		),
		SessionState: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "sessionboot_state",
				Help: "Current sequencer state as its ordinal",
			},
		),
		ExitStatus: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "sessionboot_exit_status",
				Help: "Exit status of the last sequence",
			},
		),

		EnvironmentChangesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "sessionboot_environment_changes_total",
				Help: "Total number of environment variables written by sourcing",
			},
		),

		ShutdownPeersRemaining: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "sessionboot_shutdown_peers_remaining",
				Help: "Crash handler instances found by the last poll",
			},
		),
		ShutdownPeerQuitsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "sessionboot_shutdown_peer_quits_total",
				Help: "Total number of quit requests sent to crash handlers",
			},
		),
		ShutdownWaitDuration: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "sessionboot_shutdown_wait_seconds",
				Help: "Time spent waiting for crash handlers at shutdown",
			},
		),
	}

	m.registerMetrics()

	return m
}

// registerMetrics registers all metrics with the registry
func (m *Metrics) registerMetrics() {
	m.registry.MustRegister(m.StepsTotal)
	m.registry.MustRegister(m.StepDuration)

	m.registry.MustRegister(m.ToolExecutionsTotal)
	m.registry.MustRegister(m.ToolExecutionDuration)

	m.registry.MustRegister(m.StateTransitionsTotal)
	m.registry.MustRegister(m.SessionState)
	m.registry.MustRegister(m.ExitStatus)

	m.registry.MustRegister(m.EnvironmentChangesTotal)

	m.registry.MustRegister(m.ShutdownPeersRemaining)
	m.registry.MustRegister(m.ShutdownPeerQuitsTotal)
	m.registry.MustRegister(m.ShutdownWaitDuration)
}

// Registry returns the Prometheus registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// WriteTextfile writes every metric to path in the text exposition format, for
// node_exporter's textfile collector. The file is replaced atomically.
func (m *Metrics) WriteTextfile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create metrics directory: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}
