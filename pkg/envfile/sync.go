package envfile

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"github.com/envctl/envctl/pkg/errors"
	"github.com/envctl/envctl/pkg/policy"
	"go.uber.org/zap"
)

// Sync targets.
const (
	SyncLocal      = "local"
	SyncProduction = "production"
	SyncHosted     = "hosted"
)

const localBaseURL = "http://localhost:3000"

// SyncResult reports what a synchronization wrote. Failures land in
// Errors rather than aborting the remaining targets.
type SyncResult struct {
	Target  string   `json:"target"`
	Written []string `json:"written,omitempty"`
	Errors  []string `json:"errors,omitempty"`
}

// Sync copies variables between environments, rewriting URLs to fit
// the target. The hosted target shells out to the platform CLI and is
// best-effort: a missing CLI is reported, not fatal.
func (m *Manager) Sync(ctx context.Context, target string) (*SyncResult, error) {
	result := &SyncResult{Target: target}

	switch target {
	case SyncLocal:
		m.syncLocal(ctx, result)
	case SyncProduction:
		m.syncProduction(ctx, result)
	case SyncHosted:
		m.syncHosted(ctx, result)
	default:
		return nil, errors.New(errors.ErrCodeValidation,
			fmt.Sprintf("unknown sync target %q (expected local, production, or hosted)", target))
	}

	return result, nil
}

// syncLocal derives .env.local from the production values, pointing
// URL variables back at localhost.
func (m *Manager) syncLocal(ctx context.Context, result *SyncResult) {
	vars := m.readFileVars(NameProduction)
	if vars == nil {
		vars = m.Merged()
	}
	if len(vars) == 0 {
		result.Errors = append(result.Errors, "no source values found to sync from")
		return
	}

	for _, key := range []string{policy.VarBaseURL, policy.VarAuthURL} {
		if _, ok := vars[key]; ok {
			vars[key] = localBaseURL
		}
	}

	m.writeSyncTarget(ctx, NameLocal, "local development", vars, result)
}

// syncProduction derives .env.production from local values, replacing
// localhost URLs with the production URL when one is already known.
func (m *Manager) syncProduction(ctx context.Context, result *SyncResult) {
	vars := m.readFileVars(NameLocal)
	if vars == nil {
		result.Errors = append(result.Errors, fmt.Sprintf("%s not found; nothing to sync from", NameLocal))
		return
	}

	productionURL := "https://your-site.example.com"
	if existing := m.readFileVars(NameProduction); existing != nil {
		if u, ok := existing[policy.VarBaseURL]; ok && !strings.Contains(u, "localhost") {
			productionURL = u
		}
	}

	for key, value := range vars {
		if strings.Contains(key, "URL") && strings.Contains(value, "localhost") {
			vars[key] = productionURL
		}
	}

	m.writeSyncTarget(ctx, NameProduction, "production", vars, result)
}

// syncHosted pulls the hosted platform's values via its CLI.
func (m *Manager) syncHosted(ctx context.Context, result *SyncResult) {
	bin, err := exec.LookPath("vercel")
	if err != nil {
		result.Errors = append(result.Errors,
			"vercel CLI not found on PATH; install it or pull the environment manually")
		return
	}

	cmd := exec.CommandContext(ctx, bin, "env", "pull", NameLocal)
	cmd.Dir = m.dir
	if out, err := cmd.CombinedOutput(); err != nil {
		result.Errors = append(result.Errors,
			fmt.Sprintf("vercel env pull failed: %v: %s", err, strings.TrimSpace(string(out))))
		return
	}

	result.Written = append(result.Written, NameLocal)
	m.logger.Info("hosted environment pulled", zap.String("file", NameLocal))
}

// readFileVars parses one managed file, returning nil when it does not
// exist or cannot be parsed cleanly.
func (m *Manager) readFileVars(name string) map[string]string {
	content, err := os.ReadFile(filepath.Join(m.dir, name))
	if err != nil {
		return nil
	}
	vars := make(map[string]string)
	if diags := parseEnvFile(content, vars); len(diags) > 0 {
		return nil
	}
	return vars
}

// writeSyncTarget backs up an existing target, then writes the new
// content.
func (m *Manager) writeSyncTarget(ctx context.Context, name, label string, vars map[string]string, result *SyncResult) {
	dst := filepath.Join(m.dir, name)
	if _, err := os.Stat(dst); err == nil {
		if _, err := m.CreateBackup(ctx, "pre-sync"); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("failed to back up before sync: %v", err))
			return
		}
	}

	content := formatEnvContent(fmt.Sprintf("Synchronized for %s", label), vars)
	if err := writeFileAtomic(dst, content, 0644); err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("failed to write %s: %v", name, err))
		return
	}
	result.Written = append(result.Written, name)

	m.logger.Info("environment synchronized",
		zap.String("target", name),
		zap.Int("variables", len(vars)))
}

// formatEnvContent renders vars as dotenv lines under a comment header,
// keys sorted for stable output.
func formatEnvContent(header string, vars map[string]string) []byte {
	keys := make([]string, 0, len(vars))
	for key := range vars {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n", header)
	for _, key := range keys {
		fmt.Fprintf(&b, "%s=%s\n", key, vars[key])
	}
	return []byte(b.String())
}
