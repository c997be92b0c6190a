package monitor

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/envctl/envctl/pkg/errors"
	"github.com/envctl/envctl/pkg/policy"
)

func TestCreateAlert(t *testing.T) {
	m, _ := newTestMonitor(t, nil)

	a := m.CreateAlert(Alert{
		Type:     AlertMissingVariable,
		Severity: SeverityCritical,
		Variable: policy.VarDatabaseURL,
		Message:  "required variable is not set",
	})

	assert.NotEmpty(t, a.ID)
	assert.False(t, a.CreatedAt.IsZero())
	assert.Nil(t, a.ResolvedAt)
	assert.False(t, a.Acknowledged)
}

func TestCreateAlertDeduplicates(t *testing.T) {
	m, _ := newTestMonitor(t, nil)

	first := m.CreateAlert(Alert{Type: AlertMissingVariable, Variable: "X", Message: "first"})
	second := m.CreateAlert(Alert{Type: AlertMissingVariable, Variable: "X", Message: "second"})

	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, m.ActiveAlerts(), 1)

	// A different pair is its own alert.
	other := m.CreateAlert(Alert{Type: AlertSecurityRisk, Variable: "X", Message: "third"})
	assert.NotEqual(t, first.ID, other.ID)
	assert.Len(t, m.ActiveAlerts(), 2)

	// Resolving clears the pair, so the next observation re-alerts.
	require.NoError(t, m.ResolveAlert(first.ID))
	reopened := m.CreateAlert(Alert{Type: AlertMissingVariable, Variable: "X", Message: "fourth"})
	assert.NotEqual(t, first.ID, reopened.ID)
}

func TestAcknowledgeAlert(t *testing.T) {
	m, _ := newTestMonitor(t, nil)
	a := m.CreateAlert(Alert{Type: AlertInvalidFormat, Variable: "Y"})

	require.NoError(t, m.AcknowledgeAlert(a.ID))
	alerts := m.ActiveAlerts()
	require.Len(t, alerts, 1)
	assert.True(t, alerts[0].Acknowledged)

	err := m.AcknowledgeAlert("no-such-id")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeNotFound))
}

func TestResolveAlert(t *testing.T) {
	m, _ := newTestMonitor(t, nil)
	a := m.CreateAlert(Alert{Type: AlertSecurityRisk, Variable: "Z"})

	require.NoError(t, m.ResolveAlert(a.ID))
	assert.Empty(t, m.ActiveAlerts())

	all := m.Alerts(AlertFilter{})
	require.Len(t, all, 1)
	require.NotNil(t, all[0].ResolvedAt)

	// Resolving again keeps the original time.
	resolvedAt := *all[0].ResolvedAt
	require.NoError(t, m.ResolveAlert(a.ID))
	assert.Equal(t, resolvedAt, *m.Alerts(AlertFilter{})[0].ResolvedAt)

	assert.True(t, errors.Is(m.ResolveAlert("missing"), errors.ErrCodeNotFound))
}

func TestAlertsFilter(t *testing.T) {
	m, _ := newTestMonitor(t, nil)
	a := m.CreateAlert(Alert{Type: AlertMissingVariable, Severity: SeverityCritical, Variable: "A"})
	m.CreateAlert(Alert{Type: AlertSecurityRisk, Severity: SeverityError, Variable: "B"})
	m.CreateAlert(Alert{Type: AlertConfigDrift, Severity: SeverityError, Variable: "A"})
	require.NoError(t, m.ResolveAlert(a.ID))

	assert.Len(t, m.Alerts(AlertFilter{}), 3)
	assert.Len(t, m.Alerts(AlertFilter{Unresolved: true}), 2)
	assert.Len(t, m.Alerts(AlertFilter{Severity: SeverityError}), 2)
	assert.Len(t, m.Alerts(AlertFilter{Variable: "A"}), 2)
	assert.Len(t, m.Alerts(AlertFilter{Variable: "A", Unresolved: true}), 1)

	byType := m.Alerts(AlertFilter{Type: AlertSecurityRisk})
	require.Len(t, byType, 1)
	assert.Equal(t, "B", byType[0].Variable)
}

func TestAlertHistoryTrim(t *testing.T) {
	pol := policy.Default()
	pol.AlertHistoryLimit = 2
	m, _ := newTestMonitor(t, pol)

	for i := 0; i < 4; i++ {
		m.CreateAlert(Alert{
			Type:     AlertConfigDrift,
			Variable: fmt.Sprintf("VAR_%d", i),
		})
	}

	all := m.Alerts(AlertFilter{})
	require.Len(t, all, 2)
	assert.Equal(t, "VAR_2", all[0].Variable)
	assert.Equal(t, "VAR_3", all[1].Variable)
}
