package validate

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/envctl/envctl/pkg/platform"
	"github.com/envctl/envctl/pkg/policy"
)

// variableHelp supplies the description and remediation text attached
// to missing-required findings.
var variableHelp = map[string]struct {
	description string
	remediation string
}{
	policy.VarBaseURL: {
		"Public URL the site is served from",
		"Set NEXT_PUBLIC_BASE_URL to the canonical https URL of the deployment",
	},
	policy.VarSiteName: {
		"Display name used in titles and metadata",
		"Set NEXT_PUBLIC_SITE_NAME to the site's public name",
	},
	policy.VarDatabaseURL: {
		"Pooled database connection string",
		"Set DATABASE_URL to the pooled postgresql:// connection string",
	},
	policy.VarDirectURL: {
		"Direct database connection string used for migrations",
		"Set DIRECT_URL to the direct postgresql:// connection string",
	},
	policy.VarAuthSecret: {
		"Secret used to sign authentication tokens",
		"Set NEXTAUTH_SECRET to a random value of at least 32 characters",
	},
	policy.VarAuthURL: {
		"Callback URL for the authentication flow",
		"Set NEXTAUTH_URL to the deployment's public URL",
	},
}

// Validator enforces the environment rules. Pure over explicit maps:
// the caller supplies the file-based mapping and the live process
// overrides.
type Validator struct {
	policy *policy.Policy
}

// New creates a validator. A nil policy uses the defaults.
func New(pol *policy.Policy) *Validator {
	if pol == nil {
		pol = policy.Default()
	}
	return &Validator{policy: pol}
}

// Validate overlays processEnv on fileEnv (process values win), decides
// the deployment phase, and checks every rule. All blocking findings
// come back together in a single *Failure; warnings never block and are
// attached to the returned Config.
func (v *Validator) Validate(fileEnv, processEnv map[string]string) (*Config, error) {
	env := make(map[string]string, len(fileEnv)+len(processEnv))
	for key, value := range fileEnv {
		env[key] = value
	}
	for key, value := range processEnv {
		env[key] = value
	}

	pctx := platform.Detect(processEnv)
	features := detectFeatures(env)

	phase := PhaseSimple
	if features.Any() {
		phase = PhaseFull
	}

	c := &collector{}

	v.checkRequired(c, env, phase, pctx)
	v.checkBaseURL(c, env, pctx)
	v.checkFeatureRules(c, env, phase, features, pctx)

	if len(c.errors) > 0 {
		return nil, &Failure{Errors: c.errors, Warnings: c.warnings}
	}

	return v.buildConfig(env, phase, features, pctx, c.warnings), nil
}

// collector gathers findings with (type, variable) deduplication so
// overlapping rules report a variable once.
type collector struct {
	errors   []ValidationError
	warnings []ValidationError
	seen     map[string]bool
}

func (c *collector) add(e ValidationError) {
	key := string(e.Type) + ":" + e.Variable
	if c.seen == nil {
		c.seen = make(map[string]bool)
	}
	if c.seen[key] {
		return
	}
	c.seen[key] = true

	if e.Severity == SeverityError {
		c.errors = append(c.errors, e)
	} else {
		c.warnings = append(c.warnings, e)
	}
}

// checkRequired enforces the phase's required-variable list. A missing
// base or auth URL is satisfied by a hosted platform that will inject
// a derivable URL.
func (v *Validator) checkRequired(c *collector, env map[string]string, phase Phase, pctx *platform.Context) {
	for _, name := range v.policy.Required(phase == PhaseFull) {
		if _, ok := get(env, name); ok {
			continue
		}

		if (name == policy.VarBaseURL || name == policy.VarAuthURL) && pctx.HasDerivableURL() {
			continue
		}

		help := variableHelp[name]
		if help.description == "" {
			help.description = "Required configuration value"
			help.remediation = fmt.Sprintf("Set %s in your environment files", name)
		}
		c.add(ValidationError{
			Variable:    name,
			Type:        ErrMissingRequired,
			Message:     "required variable is not set",
			Description: help.description,
			Remediation: help.remediation,
			Severity:    SeverityError,
		})
	}
}

// checkBaseURL validates the base URL's format and its agreement with
// the hosting platform.
func (v *Validator) checkBaseURL(c *collector, env map[string]string, pctx *platform.Context) {
	baseURL, ok := get(env, policy.VarBaseURL)
	if !ok {
		return
	}

	if !validURL(baseURL) {
		c.add(ValidationError{
			Variable:    policy.VarBaseURL,
			Type:        ErrInvalidFormat,
			Message:     fmt.Sprintf("not a valid URL: %s", baseURL),
			Description: "The base URL must be an absolute URL with a scheme",
			Remediation: "Use a fully qualified URL such as https://example.com",
			Severity:    SeverityError,
		})
		return
	}

	if !pctx.IsHosted {
		return
	}

	if pctx.IsProduction() && strings.Contains(baseURL, "localhost") {
		c.add(ValidationError{
			Variable:    policy.VarBaseURL,
			Type:        ErrInvalidFormat,
			Message:     "points at localhost in a production deployment",
			Description: "Production traffic cannot reach a localhost URL",
			Remediation: "Set the base URL to the public production URL",
			Severity:    SeverityWarning,
		})
	}

	if !pctx.MatchesExpectedURL(baseURL) && !pctx.HasCustomDomain {
		c.add(ValidationError{
			Variable:    policy.VarBaseURL,
			Type:        ErrInvalidFormat,
			Message:     fmt.Sprintf("does not match the platform URL %s", pctx.ExpectedBaseURL),
			Description: "The configured base URL disagrees with the host-assigned URL and no custom domain is set",
			Remediation: "Remove the explicit base URL or configure the custom domain on the platform",
			Severity:    SeverityWarning,
		})
	}
}

// checkFeatureRules enforces the cross-feature constraints.
func (v *Validator) checkFeatureRules(c *collector, env map[string]string, phase Phase, features Features, pctx *platform.Context) {
	if features.CMS && !features.Auth {
		c.add(ValidationError{
			Variable:    policy.FlagCMS,
			Type:        ErrSecurityWarning,
			Message:     "CMS is enabled without authentication",
			Description: "An unauthenticated CMS exposes content editing to anyone",
			Remediation: "Enable " + policy.FlagAuth + " or disable the CMS",
			Severity:    SeverityWarning,
		})
	}

	if features.Auth && phase == PhaseFull {
		if secret, ok := get(env, policy.VarAuthSecret); !ok {
			help := variableHelp[policy.VarAuthSecret]
			c.add(ValidationError{
				Variable:    policy.VarAuthSecret,
				Type:        ErrMissingRequired,
				Message:     "required when authentication is enabled",
				Description: help.description,
				Remediation: help.remediation,
				Severity:    SeverityError,
			})
		} else if len(secret) < v.policy.MinSecretLength {
			c.add(ValidationError{
				Variable:    policy.VarAuthSecret,
				Type:        ErrSecurityWarning,
				Message:     fmt.Sprintf("shorter than %d characters", v.policy.MinSecretLength),
				Description: "Short signing secrets are brute-forceable",
				Remediation: fmt.Sprintf("Generate a random secret of at least %d characters", v.policy.MinSecretLength),
				Severity:    SeverityWarning,
			})
		}

		if _, ok := get(env, policy.VarAuthURL); !ok && !pctx.HasDerivableURL() {
			help := variableHelp[policy.VarAuthURL]
			c.add(ValidationError{
				Variable:    policy.VarAuthURL,
				Type:        ErrMissingRequired,
				Message:     "required when authentication is enabled",
				Description: help.description,
				Remediation: help.remediation,
				Severity:    SeverityError,
			})
		}
	}

	if features.Search && phase == PhaseFull {
		_, hasDB := get(env, policy.VarDatabaseURL)
		_, hasSearchURL := get(env, policy.VarSearchURL)
		if !hasDB && !hasSearchURL {
			c.add(ValidationError{
				Variable:    policy.FlagSearch,
				Type:        ErrFeatureMisconfig,
				Message:     "search is enabled but no search backend is configured",
				Description: "Search needs the database or an external search service",
				Remediation: fmt.Sprintf("Set %s or %s", policy.VarDatabaseURL, policy.VarSearchURL),
				Severity:    SeverityWarning,
			})
		}
	}

	if features.AI {
		if _, ok := get(env, policy.VarAIKey); !ok {
			c.add(ValidationError{
				Variable:    policy.VarAIKey,
				Type:        ErrFeatureMisconfig,
				Message:     "AI features are enabled but no API key is configured",
				Description: "The AI assistant cannot answer without an API key",
				Remediation: fmt.Sprintf("Set %s or disable %s", policy.VarAIKey, policy.FlagAI),
				Severity:    SeverityWarning,
			})
		}
	}
}

// buildConfig assembles the typed configuration after all blocking
// checks pass.
func (v *Validator) buildConfig(env map[string]string, phase Phase, features Features, pctx *platform.Context, warnings []ValidationError) *Config {
	config := &Config{
		Phase:    phase,
		Features: features,
		Platform: pctx,
		Warnings: warnings,
	}

	if baseURL, ok := get(env, policy.VarBaseURL); ok {
		config.BaseURL = baseURL
	} else {
		config.BaseURL = pctx.ExpectedBaseURL
	}
	config.SiteName, _ = get(env, policy.VarSiteName)

	gaID, hasGA := get(env, policy.VarGAID)
	gtmID, hasGTM := get(env, policy.VarGTMID)
	if hasGA || hasGTM {
		config.Analytics = &Analytics{GAID: gaID, GTMID: gtmID}
	}

	if phase == PhaseFull {
		dbURL, _ := get(env, policy.VarDatabaseURL)
		directURL, _ := get(env, policy.VarDirectURL)
		config.Database = &Database{URL: dbURL, DirectURL: directURL}

		secret, _ := get(env, policy.VarAuthSecret)
		authURL, ok := get(env, policy.VarAuthURL)
		if !ok {
			authURL = pctx.ExpectedAuthURL
		}
		config.Auth = &Auth{Secret: secret, URL: authURL}
	}

	return config
}

// detectFeatures reads the five flags; only the literal string "true"
// enables a feature.
func detectFeatures(env map[string]string) Features {
	return Features{
		CMS:    env[policy.FlagCMS] == "true",
		Auth:   env[policy.FlagAuth] == "true",
		Search: env[policy.FlagSearch] == "true",
		AI:     env[policy.FlagAI] == "true",
		Media:  env[policy.FlagMedia] == "true",
	}
}

// get treats a key as set only when present with a non-whitespace
// value.
func get(env map[string]string, key string) (string, bool) {
	value, ok := env[key]
	if !ok || strings.TrimSpace(value) == "" {
		return "", false
	}
	return value, true
}

// validURL requires an absolute URL with a scheme and host.
func validURL(value string) bool {
	u, err := url.Parse(value)
	return err == nil && u.Scheme != "" && u.Host != ""
}
