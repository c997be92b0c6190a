// Package policy defines the tunable rule set shared by environment
// validation and monitoring: required variables per deployment phase,
// feature flag names, the sensitive-key deny-list, variable importance,
// and health scoring constants. Defaults preserve the original
// hand-tuned values; a YAML file can override individual fields.
package policy

import (
	"fmt"
	"os"
	"time"

	"github.com/envctl/envctl/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Well-known variable names. These are the vocabulary the rules operate
// on; the policy file controls which of them are required or sensitive,
// not what they are called.
const (
	VarBaseURL     = "NEXT_PUBLIC_BASE_URL"
	VarSiteName    = "NEXT_PUBLIC_SITE_NAME"
	VarDatabaseURL = "DATABASE_URL"
	VarDirectURL   = "DIRECT_URL"
	VarAuthSecret  = "NEXTAUTH_SECRET"
	VarAuthURL     = "NEXTAUTH_URL"
	VarAIKey       = "GEMINI_API_KEY"
	VarSearchURL   = "SEARCH_API_URL"
	VarGAID        = "NEXT_PUBLIC_GA_ID"
	VarGTMID       = "NEXT_PUBLIC_GTM_ID"

	FlagCMS    = "NEXT_PUBLIC_ENABLE_CMS"
	FlagAuth   = "NEXT_PUBLIC_ENABLE_AUTH"
	FlagSearch = "NEXT_PUBLIC_ENABLE_SEARCH"
	FlagAI     = "NEXT_PUBLIC_ENABLE_AI"
	FlagMedia  = "NEXT_PUBLIC_ENABLE_MEDIA"
)

// FlagNames returns the five feature flag variables in a fixed order.
func FlagNames() []string {
	return []string{FlagCMS, FlagAuth, FlagSearch, FlagAI, FlagMedia}
}

// Level grades the importance of a variable or the severity of a
// detected change.
type Level string

const (
	LevelLow      Level = "low"
	LevelMedium   Level = "medium"
	LevelHigh     Level = "high"
	LevelCritical Level = "critical"
)

var levelRank = map[Level]int{
	LevelLow:      0,
	LevelMedium:   1,
	LevelHigh:     2,
	LevelCritical: 3,
}

// Bump raises a level by one step, capped at critical.
func (l Level) Bump() Level {
	switch l {
	case LevelLow:
		return LevelMedium
	case LevelMedium:
		return LevelHigh
	default:
		return LevelCritical
	}
}

// AtLeast reports whether l is at least as severe as other.
func (l Level) AtLeast(other Level) bool {
	return levelRank[l] >= levelRank[other]
}

// Scoring holds the health score penalties and status thresholds.
// Penalties are subtracted from 100 per observed issue; the floor is 0.
type Scoring struct {
	PenaltyMissing       int `yaml:"penalty_missing"`
	PenaltySecurity      int `yaml:"penalty_security"`
	PenaltyInvalid       int `yaml:"penalty_invalid"`
	PenaltyPlatform      int `yaml:"penalty_platform"`
	PenaltyWarning       int `yaml:"penalty_warning"`
	PenaltyDriftCritical int `yaml:"penalty_drift_critical"`
	PenaltyDriftHigh     int `yaml:"penalty_drift_high"`
	PenaltyDriftMedium   int `yaml:"penalty_drift_medium"`
	PenaltyDriftLow      int `yaml:"penalty_drift_low"`

	// Overall status drops to error below ScoreError and to warning
	// below ScoreWarning.
	ScoreError   int `yaml:"score_error"`
	ScoreWarning int `yaml:"score_warning"`
}

// DriftPenalty returns the penalty for a drift entry of the given level.
func (s Scoring) DriftPenalty(level Level) int {
	switch level {
	case LevelCritical:
		return s.PenaltyDriftCritical
	case LevelHigh:
		return s.PenaltyDriftHigh
	case LevelMedium:
		return s.PenaltyDriftMedium
	default:
		return s.PenaltyDriftLow
	}
}

// Policy is the complete tunable rule set.
type Policy struct {
	// RequiredSimple lists variables every deployment needs; RequiredFull
	// is its superset enforced once any feature flag is enabled.
	RequiredSimple []string `yaml:"required_simple"`
	RequiredFull   []string `yaml:"required_full"`

	// SensitiveKeys are always redacted in snapshots. SensitiveSuffixes
	// extend the deny-list by name shape, except for keys carrying
	// PublicPrefix, which are client-exposed by definition and stored
	// in plaintext.
	SensitiveKeys     []string `yaml:"sensitive_keys"`
	SensitiveSuffixes []string `yaml:"sensitive_suffixes"`
	PublicPrefix      string   `yaml:"public_prefix"`

	// PlaceholderMarker flags template values that were never filled in.
	PlaceholderMarker string `yaml:"placeholder_marker"`

	// Importance classifies variables for drift severity; unlisted
	// variables are low.
	Importance map[string]Level `yaml:"importance"`

	MinSecretLength      int           `yaml:"min_secret_length"`
	SnapshotHistoryLimit int           `yaml:"snapshot_history_limit"`
	AlertHistoryLimit    int           `yaml:"alert_history_limit"`
	CheckInterval        time.Duration `yaml:"-"`

	Scoring Scoring `yaml:"scoring"`
}

// Default returns the built-in policy. The numbers are hand-tuned
// operational defaults, kept configurable rather than re-derived.
func Default() *Policy {
	return &Policy{
		RequiredSimple: []string{VarBaseURL, VarSiteName},
		RequiredFull: []string{
			VarBaseURL, VarSiteName,
			VarDatabaseURL, VarDirectURL,
			VarAuthSecret, VarAuthURL,
		},
		SensitiveKeys: []string{
			VarDatabaseURL, VarDirectURL, VarAuthSecret, VarAIKey,
		},
		SensitiveSuffixes: []string{"_SECRET", "_KEY", "_TOKEN", "_PASSWORD"},
		PublicPrefix:      "NEXT_PUBLIC_",
		PlaceholderMarker: "your-",
		Importance: map[string]Level{
			VarDatabaseURL: LevelCritical,
			VarDirectURL:   LevelCritical,
			VarAuthSecret:  LevelCritical,
			VarAuthURL:     LevelHigh,
			VarBaseURL:     LevelHigh,
			VarAIKey:       LevelMedium,
			VarSearchURL:   LevelMedium,
			VarSiteName:    LevelMedium,
			FlagCMS:        LevelMedium,
			FlagAuth:       LevelMedium,
			FlagSearch:     LevelMedium,
			FlagAI:         LevelMedium,
			FlagMedia:      LevelMedium,
		},
		MinSecretLength:      32,
		SnapshotHistoryLimit: 50,
		AlertHistoryLimit:    100,
		CheckInterval:        5 * time.Minute,
		Scoring: Scoring{
			PenaltyMissing:       20,
			PenaltySecurity:      15,
			PenaltyInvalid:       8,
			PenaltyPlatform:      5,
			PenaltyWarning:       3,
			PenaltyDriftCritical: 12,
			PenaltyDriftHigh:     8,
			PenaltyDriftMedium:   5,
			PenaltyDriftLow:      2,
			ScoreError:           50,
			ScoreWarning:         80,
		},
	}
}

// filePolicy mirrors Policy with optional fields so a partial YAML file
// overrides only what it sets.
type filePolicy struct {
	RequiredSimple       []string          `yaml:"required_simple"`
	RequiredFull         []string          `yaml:"required_full"`
	SensitiveKeys        []string          `yaml:"sensitive_keys"`
	SensitiveSuffixes    []string          `yaml:"sensitive_suffixes"`
	PublicPrefix         *string           `yaml:"public_prefix"`
	PlaceholderMarker    *string           `yaml:"placeholder_marker"`
	Importance           map[string]Level  `yaml:"importance"`
	MinSecretLength      *int              `yaml:"min_secret_length"`
	SnapshotHistoryLimit *int              `yaml:"snapshot_history_limit"`
	AlertHistoryLimit    *int              `yaml:"alert_history_limit"`
	CheckInterval        *string           `yaml:"check_interval"`
	Scoring              *filePolicyScores `yaml:"scoring"`
}

type filePolicyScores struct {
	PenaltyMissing       *int `yaml:"penalty_missing"`
	PenaltySecurity      *int `yaml:"penalty_security"`
	PenaltyInvalid       *int `yaml:"penalty_invalid"`
	PenaltyPlatform      *int `yaml:"penalty_platform"`
	PenaltyWarning       *int `yaml:"penalty_warning"`
	PenaltyDriftCritical *int `yaml:"penalty_drift_critical"`
	PenaltyDriftHigh     *int `yaml:"penalty_drift_high"`
	PenaltyDriftMedium   *int `yaml:"penalty_drift_medium"`
	PenaltyDriftLow      *int `yaml:"penalty_drift_low"`
	ScoreError           *int `yaml:"score_error"`
	ScoreWarning         *int `yaml:"score_warning"`
}

// Load reads a YAML policy file and overlays it on the defaults.
func Load(path string) (*Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodePolicy, fmt.Sprintf("failed to read %s", path), err)
	}

	var fp filePolicy
	if err := yaml.Unmarshal(data, &fp); err != nil {
		return nil, errors.ParseError(path, err)
	}

	p := Default()
	if fp.RequiredSimple != nil {
		p.RequiredSimple = fp.RequiredSimple
	}
	if fp.RequiredFull != nil {
		p.RequiredFull = fp.RequiredFull
	}
	if fp.SensitiveKeys != nil {
		p.SensitiveKeys = fp.SensitiveKeys
	}
	if fp.SensitiveSuffixes != nil {
		p.SensitiveSuffixes = fp.SensitiveSuffixes
	}
	if fp.PublicPrefix != nil {
		p.PublicPrefix = *fp.PublicPrefix
	}
	if fp.PlaceholderMarker != nil {
		p.PlaceholderMarker = *fp.PlaceholderMarker
	}
	for name, level := range fp.Importance {
		p.Importance[name] = level
	}
	if fp.MinSecretLength != nil {
		p.MinSecretLength = *fp.MinSecretLength
	}
	if fp.SnapshotHistoryLimit != nil {
		p.SnapshotHistoryLimit = *fp.SnapshotHistoryLimit
	}
	if fp.AlertHistoryLimit != nil {
		p.AlertHistoryLimit = *fp.AlertHistoryLimit
	}
	if fp.CheckInterval != nil {
		d, err := time.ParseDuration(*fp.CheckInterval)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodePolicy, fmt.Sprintf("invalid check_interval %q", *fp.CheckInterval), err)
		}
		p.CheckInterval = d
	}
	if fp.Scoring != nil {
		applyScore := func(dst *int, src *int) {
			if src != nil {
				*dst = *src
			}
		}
		applyScore(&p.Scoring.PenaltyMissing, fp.Scoring.PenaltyMissing)
		applyScore(&p.Scoring.PenaltySecurity, fp.Scoring.PenaltySecurity)
		applyScore(&p.Scoring.PenaltyInvalid, fp.Scoring.PenaltyInvalid)
		applyScore(&p.Scoring.PenaltyPlatform, fp.Scoring.PenaltyPlatform)
		applyScore(&p.Scoring.PenaltyWarning, fp.Scoring.PenaltyWarning)
		applyScore(&p.Scoring.PenaltyDriftCritical, fp.Scoring.PenaltyDriftCritical)
		applyScore(&p.Scoring.PenaltyDriftHigh, fp.Scoring.PenaltyDriftHigh)
		applyScore(&p.Scoring.PenaltyDriftMedium, fp.Scoring.PenaltyDriftMedium)
		applyScore(&p.Scoring.PenaltyDriftLow, fp.Scoring.PenaltyDriftLow)
		applyScore(&p.Scoring.ScoreError, fp.Scoring.ScoreError)
		applyScore(&p.Scoring.ScoreWarning, fp.Scoring.ScoreWarning)
	}

	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Validate rejects policies that cannot work.
func (p *Policy) Validate() error {
	if len(p.RequiredSimple) == 0 {
		return errors.New(errors.ErrCodePolicy, "required_simple must not be empty")
	}
	required := make(map[string]bool, len(p.RequiredFull))
	for _, name := range p.RequiredFull {
		required[name] = true
	}
	for _, name := range p.RequiredSimple {
		if !required[name] {
			return errors.New(errors.ErrCodePolicy, fmt.Sprintf("required_full must include %s", name))
		}
	}
	if p.SnapshotHistoryLimit <= 0 {
		return errors.New(errors.ErrCodePolicy, "snapshot_history_limit must be positive")
	}
	if p.AlertHistoryLimit <= 0 {
		return errors.New(errors.ErrCodePolicy, "alert_history_limit must be positive")
	}
	if p.MinSecretLength <= 0 {
		return errors.New(errors.ErrCodePolicy, "min_secret_length must be positive")
	}
	if p.CheckInterval <= 0 {
		return errors.New(errors.ErrCodePolicy, "check_interval must be positive")
	}
	if p.Scoring.ScoreError >= p.Scoring.ScoreWarning {
		return errors.New(errors.ErrCodePolicy, "score_error must be below score_warning")
	}
	for _, level := range p.Importance {
		if _, ok := levelRank[level]; !ok {
			return errors.New(errors.ErrCodePolicy, fmt.Sprintf("unknown importance level %q", level))
		}
	}
	return nil
}
