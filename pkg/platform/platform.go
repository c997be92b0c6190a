// Package platform detects the hosting platform's auto-injected
// environment context. Detection is a pure function over an explicit
// variable map so rule logic stays testable without touching the
// process environment.
package platform

import (
	"strings"
)

// Auto-injected variable names on Vercel-style hosts.
const (
	VarHosted        = "VERCEL"
	VarEnvironment   = "VERCEL_ENV"
	VarURL           = "VERCEL_URL"
	VarRegion        = "VERCEL_REGION"
	VarProductionURL = "VERCEL_PROJECT_PRODUCTION_URL"
)

// DeploymentType classifies a deployment.
type DeploymentType string

const (
	DeploymentProduction  DeploymentType = "production"
	DeploymentPreview     DeploymentType = "preview"
	DeploymentDevelopment DeploymentType = "development"
)

// Context describes the hosting platform's auto-provided values.
// Recomputed fresh on every call; read-only.
type Context struct {
	IsHosted        bool           `json:"is_hosted"`
	Environment     string         `json:"environment,omitempty"`
	URL             string         `json:"url,omitempty"`
	Region          string         `json:"region,omitempty"`
	DeploymentType  DeploymentType `json:"deployment_type"`
	HasCustomDomain bool           `json:"has_custom_domain"`
	CustomDomain    string         `json:"custom_domain,omitempty"`
	ExpectedBaseURL string         `json:"expected_base_url,omitempty"`
	ExpectedAuthURL string         `json:"expected_auth_url,omitempty"`
	ProvidedVars    []string       `json:"provided_vars,omitempty"`
}

// Detect derives the platform context from an environment map.
func Detect(env map[string]string) *Context {
	ctx := &Context{
		IsHosted:       env[VarHosted] == "1" || env[VarHosted] == "true",
		Environment:    env[VarEnvironment],
		URL:            env[VarURL],
		Region:         env[VarRegion],
		DeploymentType: DeploymentDevelopment,
	}

	if ctx.IsHosted {
		switch ctx.Environment {
		case "production":
			ctx.DeploymentType = DeploymentProduction
		case "preview":
			ctx.DeploymentType = DeploymentPreview
		}
	}

	if domain := env[VarProductionURL]; domain != "" && domain != ctx.URL {
		ctx.HasCustomDomain = true
		ctx.CustomDomain = domain
	}

	// The host-assigned URL carries no scheme; derived URLs are always
	// https. A production deployment with a custom domain is reachable
	// there rather than at the per-deployment URL.
	host := ctx.URL
	if ctx.HasCustomDomain && ctx.DeploymentType == DeploymentProduction {
		host = ctx.CustomDomain
	}
	if ctx.IsHosted && host != "" {
		ctx.ExpectedBaseURL = "https://" + host
		ctx.ExpectedAuthURL = ctx.ExpectedBaseURL
	}

	for _, name := range []string{VarHosted, VarEnvironment, VarURL, VarRegion, VarProductionURL} {
		if _, ok := env[name]; ok {
			ctx.ProvidedVars = append(ctx.ProvidedVars, name)
		}
	}

	return ctx
}

// IsProduction reports whether this is a production-classified
// deployment.
func (c *Context) IsProduction() bool {
	return c.DeploymentType == DeploymentProduction
}

// HasDerivableURL reports whether the host will inject a usable base
// URL, allowing the explicit one to be omitted.
func (c *Context) HasDerivableURL() bool {
	return c.IsHosted && c.ExpectedBaseURL != ""
}

// MatchesExpectedURL reports whether a configured base URL agrees with
// the host-expected one, ignoring a trailing slash.
func (c *Context) MatchesExpectedURL(baseURL string) bool {
	if c.ExpectedBaseURL == "" {
		return true
	}
	return strings.TrimSuffix(baseURL, "/") == strings.TrimSuffix(c.ExpectedBaseURL, "/")
}
