package policy

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/envctl/envctl/pkg/errors"
)

func TestDefault(t *testing.T) {
	p := Default()

	require.NoError(t, p.Validate())
	assert.Equal(t, []string{VarBaseURL, VarSiteName}, p.RequiredSimple)
	assert.Len(t, p.RequiredFull, 6)
	assert.Equal(t, 32, p.MinSecretLength)
	assert.Equal(t, 5*time.Minute, p.CheckInterval)
	assert.Greater(t, p.Scoring.ScoreWarning, p.Scoring.ScoreError)
}

func TestLoad(t *testing.T) {
	t.Run("partial file overlays defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "policy.yml")
		content := `
min_secret_length: 48
check_interval: 30s
importance:
  MY_CUSTOM_VAR: high
scoring:
  penalty_missing: 25
`
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))

		p, err := Load(path)
		require.NoError(t, err)

		assert.Equal(t, 48, p.MinSecretLength)
		assert.Equal(t, 30*time.Second, p.CheckInterval)
		assert.Equal(t, LevelHigh, p.Classify("MY_CUSTOM_VAR"))
		assert.Equal(t, 25, p.Scoring.PenaltyMissing)

		// Untouched fields keep their defaults.
		assert.Equal(t, Default().RequiredFull, p.RequiredFull)
		assert.Equal(t, Default().Scoring.PenaltySecurity, p.Scoring.PenaltySecurity)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.ErrCodePolicy))
	})

	t.Run("malformed yaml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "policy.yml")
		require.NoError(t, os.WriteFile(path, []byte("{not yaml"), 0644))

		_, err := Load(path)
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.ErrCodeParse))
	})

	t.Run("bad interval", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "policy.yml")
		require.NoError(t, os.WriteFile(path, []byte(`check_interval: soon`), 0644))

		_, err := Load(path)
		require.Error(t, err)
	})
}

func TestPolicyValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Policy)
	}{
		{"empty simple list", func(p *Policy) { p.RequiredSimple = nil }},
		{"simple not subset of full", func(p *Policy) { p.RequiredFull = []string{VarBaseURL} }},
		{"zero snapshot limit", func(p *Policy) { p.SnapshotHistoryLimit = 0 }},
		{"zero alert limit", func(p *Policy) { p.AlertHistoryLimit = -1 }},
		{"zero secret length", func(p *Policy) { p.MinSecretLength = 0 }},
		{"zero interval", func(p *Policy) { p.CheckInterval = 0 }},
		{"inverted thresholds", func(p *Policy) { p.Scoring.ScoreError = 90 }},
		{"unknown level", func(p *Policy) { p.Importance["X"] = Level("fatal") }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Default()
			tt.mutate(p)
			assert.Error(t, p.Validate())
		})
	}
}

func TestIsSensitive(t *testing.T) {
	p := Default()

	tests := []struct {
		key       string
		sensitive bool
	}{
		{VarDatabaseURL, true},
		{VarDirectURL, true},
		{VarAuthSecret, true},
		{VarAIKey, true},
		{"STRIPE_API_KEY", true},
		{"WEBHOOK_TOKEN", true},
		{"SMTP_PASSWORD", true},
		{"SESSION_SECRET", true},
		{VarBaseURL, false},
		{VarSiteName, false},
		{"NEXT_PUBLIC_MAPS_KEY", false},
		{"NEXT_PUBLIC_ENABLE_AUTH", false},
		{"PORT", false},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			assert.Equal(t, tt.sensitive, p.IsSensitive(tt.key))
		})
	}
}

func TestRedact(t *testing.T) {
	assert.Equal(t, "[REDACTED:6]", Redact("hunter"))
	assert.Equal(t, "[REDACTED:0]", Redact(""))
	assert.True(t, IsRedacted(Redact("anything")))
	assert.False(t, IsRedacted("plaintext"))
}

func TestClassify(t *testing.T) {
	p := Default()

	assert.Equal(t, LevelCritical, p.Classify(VarDatabaseURL))
	assert.Equal(t, LevelHigh, p.Classify(VarBaseURL))
	assert.Equal(t, LevelMedium, p.Classify(FlagAuth))
	assert.Equal(t, LevelLow, p.Classify("SOMETHING_ELSE"))
}

func TestLevels(t *testing.T) {
	assert.Equal(t, LevelMedium, LevelLow.Bump())
	assert.Equal(t, LevelHigh, LevelMedium.Bump())
	assert.Equal(t, LevelCritical, LevelHigh.Bump())
	assert.Equal(t, LevelCritical, LevelCritical.Bump())

	assert.True(t, LevelCritical.AtLeast(LevelLow))
	assert.True(t, LevelMedium.AtLeast(LevelMedium))
	assert.False(t, LevelLow.AtLeast(LevelHigh))
}

func TestIsPlaceholder(t *testing.T) {
	p := Default()

	assert.True(t, p.IsPlaceholder("your-database-url-here"))
	assert.True(t, p.IsPlaceholder("postgresql://your-host/db"))
	assert.False(t, p.IsPlaceholder("postgresql://db.internal/app"))
}

func TestKnown(t *testing.T) {
	p := Default()
	known := p.Known()

	assert.IsIncreasing(t, known)
	assert.Contains(t, known, VarDatabaseURL)
	assert.Contains(t, known, VarAIKey)
	assert.Contains(t, known, FlagMedia)

	// Deduplicated: DATABASE_URL is required, sensitive, and
	// classified, but appears once.
	var count int
	for _, name := range known {
		if name == VarDatabaseURL {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestDriftPenalty(t *testing.T) {
	s := Default().Scoring

	assert.Equal(t, s.PenaltyDriftCritical, s.DriftPenalty(LevelCritical))
	assert.Equal(t, s.PenaltyDriftHigh, s.DriftPenalty(LevelHigh))
	assert.Equal(t, s.PenaltyDriftMedium, s.DriftPenalty(LevelMedium))
	assert.Equal(t, s.PenaltyDriftLow, s.DriftPenalty(LevelLow))
}
