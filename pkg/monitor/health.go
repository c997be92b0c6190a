package monitor

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/envctl/envctl/pkg/platform"
	"github.com/envctl/envctl/pkg/policy"
	"github.com/envctl/envctl/pkg/validate"
)

// Status is the overall health classification, worst first: critical,
// error, warning, healthy.
type Status string

const (
	StatusHealthy  Status = "healthy"
	StatusWarning  Status = "warning"
	StatusError    Status = "error"
	StatusCritical Status = "critical"
)

// Issues groups the findings of one health check, rendered as
// "VARIABLE: message" lines.
type Issues struct {
	Missing  []string `json:"missing,omitempty"`
	Invalid  []string `json:"invalid,omitempty"`
	Security []string `json:"security,omitempty"`
	Platform []string `json:"platform,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

// HealthStatus is the result of one health check, serializable for
// monitoring callers.
type HealthStatus struct {
	Timestamp time.Time         `json:"timestamp"`
	Overall   Status            `json:"overall"`
	Score     int               `json:"score"`
	Phase     validate.Phase    `json:"phase"`
	Checksum  string            `json:"checksum"`
	Issues    Issues            `json:"issues"`
	Drift     []Drift           `json:"drift,omitempty"`
	Alerts    []Alert           `json:"alerts"`
	Platform  *platform.Context `json:"platform,omitempty"`
}

// issue is one internal finding, keyed for dedup and alert synthesis.
type issue struct {
	class    string
	variable string
	message  string
}

const (
	classMissing  = "missing"
	classInvalid  = "invalid"
	classSecurity = "security"
	classPlatform = "platform"
	classWarning  = "warning"
)

// CheckHealth runs one full health pass: snapshot, drift, validation,
// security and platform scans, scoring, and alert synthesis. It never
// returns an error; a failing validation degrades the status instead of
// propagating.
func (m *Monitor) CheckHealth(ctx context.Context) *HealthStatus {
	snap := m.TakeSnapshot()
	drift := m.DetectDrift()

	fileEnv, processEnv := m.source()
	env := m.resolvedEnv(fileEnv, processEnv)
	pctx := platform.Detect(processEnv)

	var issues []issue
	var advisories []validate.ValidationError

	config, err := m.validator.Validate(fileEnv, processEnv)
	switch {
	case err == nil:
		advisories = config.Warnings
	case validate.AsFailure(err) != nil:
		failure := validate.AsFailure(err)
		for _, e := range failure.Errors {
			issues = append(issues, classifyFinding(e))
		}
		advisories = failure.Warnings
	default:
		issues = append(issues, issue{classInvalid, "", err.Error()})
	}
	for _, w := range advisories {
		issues = append(issues, classifyFinding(w))
	}

	issues = append(issues, m.securityScan(env, pctx)...)
	issues = dedupeIssues(issues)

	score := m.score(issues, drift)
	overall := m.overall(issues, drift, score)

	m.synthesizeAlerts(issues, drift)

	status := &HealthStatus{
		Timestamp: snap.Timestamp,
		Overall:   overall,
		Score:     score,
		Phase:     snap.Phase,
		Checksum:  snap.Checksum,
		Issues:    issueLists(issues),
		Drift:     drift,
		Alerts:    m.ActiveAlerts(),
		Platform:  pctx,
	}

	m.logger.Info("health check complete",
		zap.String("status", string(status.Overall)),
		zap.Int("score", status.Score),
		zap.Int("drift", len(drift)),
		zap.Int("alerts", len(status.Alerts)))
	return status
}

// classifyFinding routes a validation finding into an issue class.
// Invalid-format warnings are the hosted-URL advisories, which belong
// to the platform bucket.
func classifyFinding(e validate.ValidationError) issue {
	is := issue{variable: e.Variable, message: e.Message}
	switch e.Type {
	case validate.ErrMissingRequired:
		is.class = classMissing
	case validate.ErrSecurityWarning:
		is.class = classSecurity
	case validate.ErrInvalidFormat:
		if e.Severity == validate.SeverityError {
			is.class = classInvalid
		} else {
			is.class = classPlatform
		}
	default:
		is.class = classWarning
	}
	return is
}

// securityScan covers what validation alone cannot: placeholder values
// reaching a production deployment, short secrets outside the auth
// rules, and secret-bearing files tracked in git.
func (m *Monitor) securityScan(env map[string]string, pctx *platform.Context) []issue {
	var issues []issue

	if secret, ok := env[policy.VarAuthSecret]; ok && secret != "" && len(secret) < m.policy.MinSecretLength {
		issues = append(issues, issue{
			classSecurity, policy.VarAuthSecret,
			fmt.Sprintf("shorter than %d characters", m.policy.MinSecretLength),
		})
	}

	if pctx.IsProduction() {
		for key, value := range env {
			if m.policy.IsPlaceholder(value) {
				issues = append(issues, issue{
					classSecurity, key,
					"still a template placeholder in production",
				})
			}
		}
	}

	for _, name := range m.manager.TrackedSecretFiles() {
		issues = append(issues, issue{
			classSecurity, name,
			"tracked in git; anyone with repository access can read it",
		})
	}

	return issues
}

// dedupeIssues keeps the first issue per (class, variable) pair so
// overlapping scans do not double-penalize.
func dedupeIssues(issues []issue) []issue {
	seen := make(map[string]bool, len(issues))
	out := issues[:0]
	for _, is := range issues {
		key := is.class + ":" + is.variable
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, is)
	}
	return out
}

// score subtracts the policy penalty for every issue and drift entry,
// floored at zero.
func (m *Monitor) score(issues []issue, drift []Drift) int {
	s := 100
	for _, is := range issues {
		switch is.class {
		case classMissing:
			s -= m.policy.Scoring.PenaltyMissing
		case classSecurity:
			s -= m.policy.Scoring.PenaltySecurity
		case classInvalid:
			s -= m.policy.Scoring.PenaltyInvalid
		case classPlatform:
			s -= m.policy.Scoring.PenaltyPlatform
		default:
			s -= m.policy.Scoring.PenaltyWarning
		}
	}
	for _, d := range drift {
		s -= m.policy.Scoring.DriftPenalty(d.Severity)
	}
	if s < 0 {
		s = 0
	}
	return s
}

// overall classifies the pass: critical for missing or security
// findings, then error and warning by score threshold or drift
// severity.
func (m *Monitor) overall(issues []issue, drift []Drift, score int) Status {
	hasClass := func(class string) bool {
		for _, is := range issues {
			if is.class == class {
				return true
			}
		}
		return false
	}
	driftAtLeast := func(level policy.Level) bool {
		for _, d := range drift {
			if d.Severity.AtLeast(level) {
				return true
			}
		}
		return false
	}

	switch {
	case hasClass(classMissing) || hasClass(classSecurity):
		return StatusCritical
	case score < m.policy.Scoring.ScoreError || driftAtLeast(policy.LevelCritical):
		return StatusError
	case score < m.policy.Scoring.ScoreWarning || hasClass(classInvalid) || driftAtLeast(policy.LevelHigh):
		return StatusWarning
	default:
		return StatusHealthy
	}
}

// synthesizeAlerts raises standing alerts for this pass's findings.
// Plain advisories stay in the status only; drift alerts start at high
// severity.
func (m *Monitor) synthesizeAlerts(issues []issue, drift []Drift) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, is := range issues {
		var alertType AlertType
		var severity AlertSeverity
		switch is.class {
		case classMissing:
			alertType, severity = AlertMissingVariable, SeverityCritical
		case classSecurity:
			alertType, severity = AlertSecurityRisk, SeverityError
		case classInvalid:
			alertType, severity = AlertInvalidFormat, SeverityError
		case classPlatform:
			alertType, severity = AlertPlatformMismatch, SeverityWarning
		default:
			continue
		}
		m.upsertAlertLocked(Alert{
			Type:     alertType,
			Severity: severity,
			Variable: is.variable,
			Message:  is.message,
		})
	}

	for _, d := range drift {
		if !d.Severity.AtLeast(policy.LevelHigh) {
			continue
		}
		severity := SeverityError
		if d.Severity == policy.LevelCritical {
			severity = SeverityCritical
		}
		m.upsertAlertLocked(Alert{
			Type:           AlertConfigDrift,
			Severity:       severity,
			Variable:       d.Variable,
			Message:        d.Impact,
			Recommendation: d.Recommendation,
		})
	}
}

// issueLists renders the internal findings into the serializable form.
func issueLists(issues []issue) Issues {
	var lists Issues
	for _, is := range issues {
		line := is.message
		if is.variable != "" {
			line = is.variable + ": " + is.message
		}
		switch is.class {
		case classMissing:
			lists.Missing = append(lists.Missing, line)
		case classInvalid:
			lists.Invalid = append(lists.Invalid, line)
		case classSecurity:
			lists.Security = append(lists.Security, line)
		case classPlatform:
			lists.Platform = append(lists.Platform, line)
		default:
			lists.Warnings = append(lists.Warnings, line)
		}
	}
	return lists
}
