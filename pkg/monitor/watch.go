package monitor

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/envctl/envctl/pkg/envfile"
	"github.com/envctl/envctl/pkg/errors"
	"github.com/envctl/envctl/pkg/policy"
)

// debounceWindow batches rapid editor writes into one health check.
const debounceWindow = 500 * time.Millisecond

// Watch runs health checks until ctx is done: once immediately, on
// every debounced change to a managed file, and on the given interval
// (policy default when zero). Transitions and drift are logged.
func (m *Monitor) Watch(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = m.policy.CheckInterval
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(errors.ErrCodeIO, "failed to create file watcher", err)
	}
	defer watcher.Close()

	if err := watcher.Add(m.manager.Dir()); err != nil {
		return errors.Wrap(errors.ErrCodeIO, "failed to watch "+m.manager.Dir(), err)
	}

	managed := make(map[string]bool)
	for _, name := range envfile.ManagedNames() {
		managed[name] = true
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	debounce := time.NewTimer(debounceWindow)
	if !debounce.Stop() {
		<-debounce.C
	}

	m.logger.Info("watching for environment changes",
		zap.String("dir", m.manager.Dir()),
		zap.Duration("interval", interval))

	previous := m.CheckHealth(ctx)
	m.logTransition(nil, previous)

	for {
		select {
		case <-ctx.Done():
			m.logger.Info("watch stopped")
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !managed[filepath.Base(event.Name)] {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			m.logger.Debug("managed file changed",
				zap.String("file", filepath.Base(event.Name)),
				zap.String("op", event.Op.String()))
			debounce.Reset(debounceWindow)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			m.logger.Warn("watch error", zap.Error(err))

		case <-debounce.C:
			current := m.CheckHealth(ctx)
			m.logTransition(previous, current)
			previous = current

		case <-ticker.C:
			current := m.CheckHealth(ctx)
			m.logTransition(previous, current)
			previous = current
		}
	}
}

// logTransition reports a health check's outcome, promoting the log
// level when the overall status changed or drift was found.
func (m *Monitor) logTransition(previous, current *HealthStatus) {
	fields := []zap.Field{
		zap.String("status", string(current.Overall)),
		zap.Int("score", current.Score),
	}

	if previous != nil && previous.Overall != current.Overall {
		m.logger.Warn("health status changed",
			append(fields, zap.String("was", string(previous.Overall)))...)
	} else {
		m.logger.Info("health checked", fields...)
	}

	for _, d := range current.Drift {
		fields := []zap.Field{
			zap.String("variable", d.Variable),
			zap.String("type", string(d.Type)),
			zap.String("severity", string(d.Severity)),
		}
		if d.Severity.AtLeast(policy.LevelHigh) {
			m.logger.Warn("configuration drift", fields...)
		} else {
			m.logger.Info("configuration drift", fields...)
		}
	}
}
