package monitor

import (
	"fmt"
	"net/url"
	"sort"
	"time"

	"github.com/envctl/envctl/pkg/policy"
)

// DriftType classifies one detected configuration change.
type DriftType string

const (
	DriftAdded         DriftType = "added"
	DriftRemoved       DriftType = "removed"
	DriftChanged       DriftType = "changed"
	DriftFormatChanged DriftType = "format-changed"
)

// Drift is one difference between two consecutive snapshots. Values are
// the sanitized forms the snapshots store.
type Drift struct {
	Variable       string       `json:"variable"`
	Type           DriftType    `json:"type"`
	Previous       string       `json:"previous,omitempty"`
	Current        string       `json:"current,omitempty"`
	Severity       policy.Level `json:"severity"`
	Impact         string       `json:"impact"`
	Recommendation string       `json:"recommendation"`
	DetectedAt     time.Time    `json:"detected_at"`
}

// DetectDrift diffs the two most recent snapshots. Fewer than two
// snapshots means there is nothing to compare and the result is nil.
func (m *Monitor) DetectDrift() []Drift {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.snapshots) < 2 {
		return nil
	}
	return m.diffSnapshots(m.snapshots[len(m.snapshots)-2], m.snapshots[len(m.snapshots)-1])
}

// DetectDriftFrom diffs a snapshot against its predecessor in history.
// Unknown snapshots and the oldest entry have no predecessor and yield
// nil.
func (m *Monitor) DetectDriftFrom(s *Snapshot) []Drift {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.snapshots) - 1; i > 0; i-- {
		if m.snapshots[i] == s {
			return m.diffSnapshots(m.snapshots[i-1], s)
		}
	}
	return nil
}

// diffSnapshots compares two snapshots key by key, oldest first.
// Results are ordered by variable name.
func (m *Monitor) diffSnapshots(older, newer *Snapshot) []Drift {
	names := make(map[string]bool, len(older.Variables)+len(newer.Variables))
	for name := range older.Variables {
		names[name] = true
	}
	for name := range newer.Variables {
		names[name] = true
	}

	sorted := make([]string, 0, len(names))
	for name := range names {
		sorted = append(sorted, name)
	}
	sort.Strings(sorted)

	now := time.Now()
	var drifts []Drift
	for _, name := range sorted {
		previous, inOlder := older.Variables[name]
		current, inNewer := newer.Variables[name]

		var driftType DriftType
		switch {
		case !inOlder:
			driftType = DriftAdded
		case !inNewer:
			driftType = DriftRemoved
		case previous == current:
			continue
		case urlShaped(previous) != urlShaped(current):
			driftType = DriftFormatChanged
		default:
			driftType = DriftChanged
		}

		severity := m.policy.Classify(name)
		if driftType == DriftRemoved {
			// Losing a variable is worse than changing it.
			severity = severity.Bump()
		}

		drifts = append(drifts, Drift{
			Variable:       name,
			Type:           driftType,
			Previous:       previous,
			Current:        current,
			Severity:       severity,
			Impact:         driftImpact(driftType, name),
			Recommendation: driftRecommendation(driftType, name),
			DetectedAt:     now,
		})
	}
	return drifts
}

func driftImpact(t DriftType, variable string) string {
	switch t {
	case DriftAdded:
		return fmt.Sprintf("%s appeared in the resolved environment", variable)
	case DriftRemoved:
		return fmt.Sprintf("%s is no longer set; anything reading it will see an empty value", variable)
	case DriftFormatChanged:
		return fmt.Sprintf("%s changed shape, not just value", variable)
	default:
		return fmt.Sprintf("%s changed between snapshots", variable)
	}
}

func driftRecommendation(t DriftType, variable string) string {
	switch t {
	case DriftAdded:
		return "Confirm the addition is intentional and document it in .env.example"
	case DriftRemoved:
		return fmt.Sprintf("Restore %s or remove whatever still depends on it", variable)
	case DriftFormatChanged:
		return "Check for truncation or an accidentally pasted value"
	default:
		return "Verify the new value belongs to this deployment"
	}
}

// urlShaped reports whether a value looks like an absolute URL. Used to
// tell a format change from a plain value change.
func urlShaped(value string) bool {
	u, err := url.Parse(value)
	return err == nil && u.Scheme != "" && u.Host != ""
}
