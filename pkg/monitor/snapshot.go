package monitor

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/envctl/envctl/pkg/platform"
	"github.com/envctl/envctl/pkg/policy"
	"github.com/envctl/envctl/pkg/validate"
)

// Snapshot is a point-in-time capture of the resolved configuration.
// Variables are sanitized before storage: sensitive keys hold only a
// redaction marker with the original value's length. Immutable once
// taken.
type Snapshot struct {
	Timestamp time.Time         `json:"timestamp"`
	Phase     validate.Phase    `json:"phase"`
	Variables map[string]string `json:"variables"`
	Platform  *platform.Context `json:"platform,omitempty"`
	Checksum  string            `json:"checksum"`
}

// TakeSnapshot captures the current resolved environment and appends it
// to the bounded history, evicting the oldest entry past the cap.
func (m *Monitor) TakeSnapshot() *Snapshot {
	fileEnv, processEnv := m.source()
	env := m.resolvedEnv(fileEnv, processEnv)

	snap := &Snapshot{
		Timestamp: time.Now(),
		Phase:     phaseOf(env),
		Variables: m.sanitize(env),
		Platform:  platform.Detect(processEnv),
	}
	snap.Checksum = checksum(snap.Variables)

	m.mu.Lock()
	m.snapshots = append(m.snapshots, snap)
	if len(m.snapshots) > m.policy.SnapshotHistoryLimit {
		m.snapshots = m.snapshots[len(m.snapshots)-m.policy.SnapshotHistoryLimit:]
	}
	depth := len(m.snapshots)
	m.mu.Unlock()

	m.logger.Debug("snapshot taken",
		zap.String("checksum", snap.Checksum),
		zap.String("phase", string(snap.Phase)),
		zap.Int("variables", len(snap.Variables)),
		zap.Int("history", depth))
	return snap
}

// Snapshots returns the history, oldest first. The snapshots themselves
// are shared and must not be modified.
func (m *Monitor) Snapshots() []*Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Snapshot, len(m.snapshots))
	copy(out, m.snapshots)
	return out
}

// sanitize redacts every sensitive value, keeping only its length.
func (m *Monitor) sanitize(env map[string]string) map[string]string {
	out := make(map[string]string, len(env))
	for key, value := range env {
		if m.policy.IsSensitive(key) {
			out[key] = policy.Redact(value)
		} else {
			out[key] = value
		}
	}
	return out
}

// phaseOf applies the phase rule: full once any feature flag is
// literally "true".
func phaseOf(env map[string]string) validate.Phase {
	for _, flag := range policy.FlagNames() {
		if env[flag] == "true" {
			return validate.PhaseFull
		}
	}
	return validate.PhaseSimple
}

// checksum hashes the sanitized mapping independent of key order.
func checksum(vars map[string]string) string {
	keys := make([]string, 0, len(vars))
	for key := range vars {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	h := sha256.New()
	for _, key := range keys {
		fmt.Fprintf(h, "%s=%s\n", key, vars[key])
	}
	return hex.EncodeToString(h.Sum(nil))
}
