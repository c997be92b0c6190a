// Package monitor tracks the resolved environment over time: redacted
// snapshots, drift detection between consecutive snapshots, standing
// alerts, and an aggregate health score. All state is in-memory and
// bounded; one Monitor owns one history.
package monitor

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/envctl/envctl/pkg/envfile"
	"github.com/envctl/envctl/pkg/platform"
	"github.com/envctl/envctl/pkg/policy"
	"github.com/envctl/envctl/pkg/validate"
)

// Source supplies the file-derived environment and the live process
// environment for one check. Replaceable so rule evaluation is testable
// without touching the real process environment.
type Source func() (fileEnv, processEnv map[string]string)

// Options configures a Monitor.
type Options struct {
	// Dir is the project directory holding the managed files.
	Dir string

	// Policy overrides the default rule set.
	Policy *policy.Policy

	Logger *zap.Logger

	// Source overrides where checks read the environment from. Nil
	// reads the managed files and the live process environment.
	Source Source

	// AlwaysCheck lifts the production-only gate on periodic checks.
	AlwaysCheck bool
}

// Monitor owns the snapshot history and alert list for one deployment.
// Safe for concurrent use; a single mutex guards all state, and history
// order is append order.
type Monitor struct {
	policy      *policy.Policy
	logger      *zap.Logger
	manager     *envfile.Manager
	validator   *validate.Validator
	source      Source
	alwaysCheck bool

	mu        sync.Mutex
	snapshots []*Snapshot
	alerts    []*Alert
	stop      chan struct{}
	running   bool
}

// New creates a monitor over the given project directory.
func New(opts Options) *Monitor {
	pol := opts.Policy
	if pol == nil {
		pol = policy.Default()
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	m := &Monitor{
		policy:      pol,
		logger:      logger,
		manager:     envfile.NewManager(opts.Dir, pol, logger),
		validator:   validate.New(pol),
		source:      opts.Source,
		alwaysCheck: opts.AlwaysCheck,
	}
	if m.source == nil {
		m.source = func() (map[string]string, map[string]string) {
			return m.manager.Merged(), envfile.ProcessEnv()
		}
	}
	return m
}

// Manager exposes the file manager the monitor reads through.
func (m *Monitor) Manager() *envfile.Manager {
	return m.manager
}

// resolvedEnv overlays process values on the file-derived mapping.
// Only keys the files define or the policy knows about are taken from
// the process table, so unrelated process variables (PATH and friends)
// never enter a snapshot.
func (m *Monitor) resolvedEnv(fileEnv, processEnv map[string]string) map[string]string {
	env := make(map[string]string, len(fileEnv))
	for key, value := range fileEnv {
		env[key] = value
	}
	for key := range fileEnv {
		if value, ok := processEnv[key]; ok {
			env[key] = value
		}
	}
	for _, key := range m.policy.Known() {
		if value, ok := processEnv[key]; ok {
			env[key] = value
		}
	}
	return env
}

// StartPeriodicChecks schedules CheckHealth on the given interval
// (policy default when zero). Unless the monitor was created with
// AlwaysCheck, scheduling only happens on a production-classified
// platform. Returns whether the checker was started.
func (m *Monitor) StartPeriodicChecks(interval time.Duration) bool {
	if interval <= 0 {
		interval = m.policy.CheckInterval
	}

	if !m.alwaysCheck {
		_, processEnv := m.source()
		if !platform.Detect(processEnv).IsProduction() {
			m.logger.Debug("periodic checks skipped off production")
			return false
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return false
	}
	m.stop = make(chan struct{})
	m.running = true

	go m.runPeriodicChecks(interval, m.stop)

	m.logger.Info("periodic health checks started",
		zap.Duration("interval", interval))
	return true
}

// runPeriodicChecks drives the ticker loop. A failing check only logs;
// the scheduler never terminates on its own.
func (m *Monitor) runPeriodicChecks(interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			status := m.CheckHealth(context.Background())
			m.logger.Info("scheduled health check",
				zap.String("status", string(status.Overall)),
				zap.Int("score", status.Score))
		case <-stop:
			return
		}
	}
}

// StopPeriodicChecks stops the checker. Safe to call repeatedly and
// without a prior start.
func (m *Monitor) StopPeriodicChecks() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.running {
		return
	}
	close(m.stop)
	m.running = false
	m.logger.Info("periodic health checks stopped")
}
