// Package validate decides the deployment phase and enforces the
// variable rules for a resolved environment, producing either a typed
// configuration or an aggregate failure listing every blocking finding.
package validate

import (
	"fmt"

	"github.com/envctl/envctl/pkg/platform"
)

// Phase is the deployment phase. Full deployments enable at least one
// feature flag and require the database and auth sections.
type Phase string

const (
	PhaseSimple Phase = "simple"
	PhaseFull   Phase = "full"
)

// ErrorType classifies a validation finding.
type ErrorType string

const (
	ErrMissingRequired  ErrorType = "missing-required"
	ErrInvalidFormat    ErrorType = "invalid-format"
	ErrFeatureMisconfig ErrorType = "feature-misconfiguration"
	ErrSecurityWarning  ErrorType = "security-warning"
)

// Severity separates blocking findings from advisories.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// ValidationError is one rule violation or advisory.
type ValidationError struct {
	Variable    string    `json:"variable"`
	Type        ErrorType `json:"type"`
	Message     string    `json:"message"`
	Description string    `json:"description,omitempty"`
	Remediation string    `json:"remediation,omitempty"`
	Severity    Severity  `json:"severity"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Variable, e.Message)
}

// Features holds the five optional subsystem toggles.
type Features struct {
	CMS    bool `json:"cms"`
	Auth   bool `json:"auth"`
	Search bool `json:"search"`
	AI     bool `json:"ai"`
	Media  bool `json:"media"`
}

// Any reports whether at least one feature is enabled.
func (f Features) Any() bool {
	return f.CMS || f.Auth || f.Search || f.AI || f.Media
}

// Analytics carries the optional tracking ids.
type Analytics struct {
	GAID  string `json:"ga_id,omitempty"`
	GTMID string `json:"gtm_id,omitempty"`
}

// Database carries the connection values. Never serialized: the URLs
// embed credentials.
type Database struct {
	URL       string `json:"-"`
	DirectURL string `json:"-"`
}

// Auth carries the authentication secret and callback URL. The secret
// is never serialized.
type Auth struct {
	Secret string `json:"-"`
	URL    string `json:"url,omitempty"`
}

// Config is the validated, typed output of a successful validation
// pass. Constructed once per call and immutable; nothing is cached, so
// every validation re-reads the environment.
type Config struct {
	Phase     Phase             `json:"phase"`
	BaseURL   string            `json:"base_url"`
	SiteName  string            `json:"site_name"`
	Features  Features          `json:"features"`
	Analytics *Analytics        `json:"analytics,omitempty"`
	Database  *Database         `json:"database,omitempty"`
	Auth      *Auth             `json:"auth,omitempty"`
	Platform  *platform.Context `json:"platform,omitempty"`

	// Warnings are advisories from the pass that produced this config.
	// They never block.
	Warnings []ValidationError `json:"warnings,omitempty"`
}
