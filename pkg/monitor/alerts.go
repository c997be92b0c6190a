package monitor

import (
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/envctl/envctl/pkg/errors"
)

// AlertType classifies a standing alert.
type AlertType string

const (
	AlertMissingVariable  AlertType = "missing-variable"
	AlertInvalidFormat    AlertType = "invalid-format"
	AlertSecurityRisk     AlertType = "security-risk"
	AlertConfigDrift      AlertType = "configuration-drift"
	AlertPlatformMismatch AlertType = "platform-mismatch"
)

// AlertSeverity grades an alert.
type AlertSeverity string

const (
	SeverityInfo     AlertSeverity = "info"
	SeverityWarning  AlertSeverity = "warning"
	SeverityError    AlertSeverity = "error"
	SeverityCritical AlertSeverity = "critical"
)

// Alert is a standing notification about an unresolved issue. At most
// one unresolved alert exists per (Type, Variable) pair.
type Alert struct {
	ID             string        `json:"id"`
	Type           AlertType     `json:"type"`
	Severity       AlertSeverity `json:"severity"`
	Variable       string        `json:"variable"`
	Message        string        `json:"message"`
	Description    string        `json:"description,omitempty"`
	Recommendation string        `json:"recommendation,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
	ResolvedAt     *time.Time    `json:"resolved_at,omitempty"`
	Acknowledged   bool          `json:"acknowledged"`
}

// AlertFilter selects alerts. Zero-valued fields do not constrain.
type AlertFilter struct {
	Type       AlertType
	Severity   AlertSeverity
	Variable   string
	Unresolved bool
}

// CreateAlert records an alert, assigning its id and creation time.
// When an unresolved alert for the same (type, variable) pair already
// exists, that one is returned instead of creating a duplicate.
func (m *Monitor) CreateAlert(a Alert) Alert {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.upsertAlertLocked(a)
}

// upsertAlertLocked applies the dedup invariant and the history cap.
// Callers hold m.mu.
func (m *Monitor) upsertAlertLocked(a Alert) *Alert {
	for _, existing := range m.alerts {
		if existing.ResolvedAt == nil && existing.Type == a.Type && existing.Variable == a.Variable {
			return existing
		}
	}

	a.ID = uuid.New().String()
	a.CreatedAt = time.Now()
	a.ResolvedAt = nil
	a.Acknowledged = false

	stored := &a
	m.alerts = append(m.alerts, stored)
	if len(m.alerts) > m.policy.AlertHistoryLimit {
		m.alerts = m.alerts[len(m.alerts)-m.policy.AlertHistoryLimit:]
	}

	m.logger.Info("alert created",
		zap.String("id", a.ID),
		zap.String("type", string(a.Type)),
		zap.String("severity", string(a.Severity)),
		zap.String("variable", a.Variable))
	return stored
}

// AcknowledgeAlert marks an alert as seen without resolving it.
func (m *Monitor) AcknowledgeAlert(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.alerts {
		if a.ID == id {
			a.Acknowledged = true
			return nil
		}
	}
	return errors.NotFoundError("alert", id)
}

// ResolveAlert closes an alert. Resolving an already-resolved alert
// keeps the original resolution time.
func (m *Monitor) ResolveAlert(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.alerts {
		if a.ID == id {
			if a.ResolvedAt == nil {
				now := time.Now()
				a.ResolvedAt = &now
			}
			return nil
		}
	}
	return errors.NotFoundError("alert", id)
}

// ActiveAlerts returns every unresolved alert, oldest first.
func (m *Monitor) ActiveAlerts() []Alert {
	return m.Alerts(AlertFilter{Unresolved: true})
}

// Alerts returns copies of the alerts matching the filter, oldest
// first.
func (m *Monitor) Alerts(filter AlertFilter) []Alert {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []Alert
	for _, a := range m.alerts {
		if filter.Type != "" && a.Type != filter.Type {
			continue
		}
		if filter.Severity != "" && a.Severity != filter.Severity {
			continue
		}
		if filter.Variable != "" && a.Variable != filter.Variable {
			continue
		}
		if filter.Unresolved && a.ResolvedAt != nil {
			continue
		}
		out = append(out, *a)
	}
	return out
}
