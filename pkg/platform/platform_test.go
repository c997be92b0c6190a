package platform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectLocal(t *testing.T) {
	ctx := Detect(map[string]string{})

	assert.False(t, ctx.IsHosted)
	assert.Equal(t, DeploymentDevelopment, ctx.DeploymentType)
	assert.False(t, ctx.HasDerivableURL())
	assert.Empty(t, ctx.ExpectedBaseURL)
	assert.Empty(t, ctx.ProvidedVars)
}

func TestDetectHosted(t *testing.T) {
	t.Run("production deployment", func(t *testing.T) {
		ctx := Detect(map[string]string{
			VarHosted:      "1",
			VarEnvironment: "production",
			VarURL:         "my-app.example",
			VarRegion:      "iad1",
		})

		assert.True(t, ctx.IsHosted)
		assert.Equal(t, DeploymentProduction, ctx.DeploymentType)
		assert.True(t, ctx.IsProduction())
		assert.Equal(t, "https://my-app.example", ctx.ExpectedBaseURL)
		assert.Equal(t, "https://my-app.example", ctx.ExpectedAuthURL)
		assert.True(t, ctx.HasDerivableURL())
		assert.Equal(t, "iad1", ctx.Region)
		require.Len(t, ctx.ProvidedVars, 4)
	})

	t.Run("preview deployment", func(t *testing.T) {
		ctx := Detect(map[string]string{
			VarHosted:      "true",
			VarEnvironment: "preview",
			VarURL:         "my-app-git-branch.example",
		})

		assert.Equal(t, DeploymentPreview, ctx.DeploymentType)
		assert.False(t, ctx.IsProduction())
		assert.Equal(t, "https://my-app-git-branch.example", ctx.ExpectedBaseURL)
	})

	t.Run("hosted without a URL is not derivable", func(t *testing.T) {
		ctx := Detect(map[string]string{VarHosted: "1"})

		assert.True(t, ctx.IsHosted)
		assert.False(t, ctx.HasDerivableURL())
	})
}

func TestDetectCustomDomain(t *testing.T) {
	t.Run("production prefers the custom domain", func(t *testing.T) {
		ctx := Detect(map[string]string{
			VarHosted:        "1",
			VarEnvironment:   "production",
			VarURL:           "my-app-abc123.example",
			VarProductionURL: "example.com",
		})

		assert.True(t, ctx.HasCustomDomain)
		assert.Equal(t, "example.com", ctx.CustomDomain)
		assert.Equal(t, "https://example.com", ctx.ExpectedBaseURL)
	})

	t.Run("preview keeps the deployment URL", func(t *testing.T) {
		ctx := Detect(map[string]string{
			VarHosted:        "1",
			VarEnvironment:   "preview",
			VarURL:           "my-app-branch.example",
			VarProductionURL: "example.com",
		})

		assert.True(t, ctx.HasCustomDomain)
		assert.Equal(t, "https://my-app-branch.example", ctx.ExpectedBaseURL)
	})

	t.Run("production URL equal to the deployment URL is not custom", func(t *testing.T) {
		ctx := Detect(map[string]string{
			VarHosted:        "1",
			VarEnvironment:   "production",
			VarURL:           "example.com",
			VarProductionURL: "example.com",
		})

		assert.False(t, ctx.HasCustomDomain)
	})
}

func TestMatchesExpectedURL(t *testing.T) {
	ctx := Detect(map[string]string{
		VarHosted:      "1",
		VarEnvironment: "production",
		VarURL:         "my-app.example",
	})

	assert.True(t, ctx.MatchesExpectedURL("https://my-app.example"))
	assert.True(t, ctx.MatchesExpectedURL("https://my-app.example/"))
	assert.False(t, ctx.MatchesExpectedURL("https://other.example"))

	local := Detect(map[string]string{})
	assert.True(t, local.MatchesExpectedURL("https://anything.example"))
}
