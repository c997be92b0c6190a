package monitor

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/envctl/envctl/pkg/policy"
	"github.com/envctl/envctl/pkg/validate"
)

func TestCheckHealthHealthy(t *testing.T) {
	m, src := newTestMonitor(t, nil)
	validFull(src.file)

	status := m.CheckHealth(context.Background())

	assert.Equal(t, StatusHealthy, status.Overall)
	assert.Equal(t, 100, status.Score)
	assert.Equal(t, validate.PhaseFull, status.Phase)
	assert.NotEmpty(t, status.Checksum)
	assert.Empty(t, status.Issues.Missing)
	assert.Empty(t, status.Issues.Security)
	assert.Empty(t, status.Alerts)
	assert.Nil(t, status.Drift)
}

func TestCheckHealthMissingRequired(t *testing.T) {
	m, src := newTestMonitor(t, nil)
	src.file[policy.VarBaseURL] = "https://example.com"

	status := m.CheckHealth(context.Background())

	assert.Equal(t, StatusCritical, status.Overall)
	assert.Equal(t, 80, status.Score)
	require.Len(t, status.Issues.Missing, 1)
	assert.Contains(t, status.Issues.Missing[0], policy.VarSiteName)

	require.Len(t, status.Alerts, 1)
	assert.Equal(t, AlertMissingVariable, status.Alerts[0].Type)
	assert.Equal(t, policy.VarSiteName, status.Alerts[0].Variable)
}

func TestCheckHealthAlertDedup(t *testing.T) {
	m, src := newTestMonitor(t, nil)
	src.file[policy.VarBaseURL] = "https://example.com"

	m.CheckHealth(context.Background())
	second := m.CheckHealth(context.Background())

	// The same missing variable observed twice stays one active alert.
	require.Len(t, second.Alerts, 1)
	assert.Len(t, m.ActiveAlerts(), 1)
}

func TestCheckHealthScoreMonotonicity(t *testing.T) {
	oneMissing, srcA := newTestMonitor(t, nil)
	srcA.file[policy.VarBaseURL] = "https://example.com"

	twoMissing, _ := newTestMonitor(t, nil)

	scoreA := oneMissing.CheckHealth(context.Background()).Score
	scoreB := twoMissing.CheckHealth(context.Background()).Score

	assert.Equal(t, 80, scoreA)
	assert.Equal(t, 60, scoreB)
	assert.Less(t, scoreB, scoreA)
}

func TestCheckHealthShortSecret(t *testing.T) {
	m, src := newTestMonitor(t, nil)
	src.file[policy.VarBaseURL] = "https://example.com"
	src.file[policy.VarSiteName] = "Example"
	// No feature flags: validation passes in simple phase, but the
	// security scan still flags the weak secret.
	src.file[policy.VarAuthSecret] = "short"

	status := m.CheckHealth(context.Background())

	assert.Equal(t, StatusCritical, status.Overall)
	require.Len(t, status.Issues.Security, 1)
	assert.Contains(t, status.Issues.Security[0], policy.VarAuthSecret)

	var found bool
	for _, a := range status.Alerts {
		if a.Type == AlertSecurityRisk && a.Variable == policy.VarAuthSecret {
			found = true
		}
	}
	assert.True(t, found)
}

func TestCheckHealthPlaceholderInProduction(t *testing.T) {
	m, src := newTestMonitor(t, nil)
	src.proc["VERCEL"] = "1"
	src.proc["VERCEL_ENV"] = "production"
	src.proc["VERCEL_URL"] = "app.example"
	src.file[policy.VarBaseURL] = "https://app.example"
	src.file[policy.VarSiteName] = "Example"
	src.file["ANALYTICS_PROVIDER"] = "your-provider-here"

	status := m.CheckHealth(context.Background())

	assert.Equal(t, StatusCritical, status.Overall)
	require.Len(t, status.Issues.Security, 1)
	assert.Contains(t, status.Issues.Security[0], "ANALYTICS_PROVIDER")
	assert.Contains(t, status.Issues.Security[0], "placeholder")
}

func TestCheckHealthPlatformMismatch(t *testing.T) {
	m, src := newTestMonitor(t, nil)
	src.proc["VERCEL"] = "1"
	src.proc["VERCEL_ENV"] = "production"
	src.proc["VERCEL_URL"] = "app.example"
	src.file[policy.VarBaseURL] = "https://other.example"
	src.file[policy.VarSiteName] = "Example"

	status := m.CheckHealth(context.Background())

	assert.Equal(t, 95, status.Score)
	assert.Equal(t, StatusHealthy, status.Overall)
	require.Len(t, status.Issues.Platform, 1)
	assert.Contains(t, status.Issues.Platform[0], policy.VarBaseURL)

	var found bool
	for _, a := range status.Alerts {
		if a.Type == AlertPlatformMismatch {
			found = true
		}
	}
	assert.True(t, found)
}

func TestCheckHealthDrift(t *testing.T) {
	m, src := newTestMonitor(t, nil)
	validFull(src.file)
	m.CheckHealth(context.Background())

	delete(src.file, policy.VarDatabaseURL)
	status := m.CheckHealth(context.Background())

	// Missing again in validation, and the removal shows up as
	// critical drift.
	assert.Equal(t, StatusCritical, status.Overall)
	require.Len(t, status.Drift, 1)
	assert.Equal(t, DriftRemoved, status.Drift[0].Type)
	assert.Equal(t, policy.LevelCritical, status.Drift[0].Severity)

	types := map[AlertType]bool{}
	for _, a := range status.Alerts {
		types[a.Type] = true
	}
	assert.True(t, types[AlertMissingVariable])
	assert.True(t, types[AlertConfigDrift])
}

func TestCheckHealthNeverEmptyStatus(t *testing.T) {
	m, _ := newTestMonitor(t, nil)

	status := m.CheckHealth(context.Background())

	require.NotNil(t, status)
	assert.Equal(t, StatusCritical, status.Overall)
	assert.Equal(t, 60, status.Score)
	assert.Len(t, status.Issues.Missing, 2)
}

func TestWatch(t *testing.T) {
	m, src := newTestMonitor(t, nil)
	validFull(src.file)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- m.Watch(ctx, time.Hour)
	}()

	// The initial check runs before the loop.
	assert.Eventually(t, func() bool {
		return len(m.Snapshots()) >= 1
	}, 2*time.Second, 10*time.Millisecond)

	// A write to a managed file triggers a debounced check.
	path := filepath.Join(m.Manager().Dir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("KEY=value\n"), 0644))

	assert.Eventually(t, func() bool {
		return len(m.Snapshots()) >= 2
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}
