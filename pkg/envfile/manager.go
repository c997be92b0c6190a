package envfile

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/envctl/envctl/pkg/backup/store"
	"github.com/envctl/envctl/pkg/policy"
	"go.uber.org/zap"
)

// Manager resolves the effective configuration from the managed files
// and exposes backup, restore, synchronization, and generation
// utilities. Stateless per call; all mutation is to the filesystem.
type Manager struct {
	dir    string
	policy *policy.Policy
	logger *zap.Logger
	store  store.Store
}

// NewManager creates a manager rooted at dir. A nil policy uses the
// defaults; a nil logger is silenced.
func NewManager(dir string, pol *policy.Policy, logger *zap.Logger) *Manager {
	if pol == nil {
		pol = policy.Default()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		dir:    dir,
		policy: pol,
		logger: logger,
	}
}

// Dir returns the directory the manager is rooted at.
func (m *Manager) Dir() string {
	return m.dir
}

// Load reads every managed file and returns them in priority order,
// most specific first. Missing files are normal; parse and I/O problems
// are recorded on the affected File, never returned as an error.
func (m *Manager) Load() []*File {
	files := make([]*File, 0, len(managedFiles))
	for _, spec := range managedFiles {
		path := filepath.Join(m.dir, spec.name)
		f := loadFile(path, spec.name, spec.priority)
		if !f.Valid {
			m.logger.Debug("env file has problems",
				zap.String("file", spec.name),
				zap.Strings("errors", f.Errors))
		}
		files = append(files, f)
	}
	return files
}

// Merged resolves the effective mapping by overlaying files from least
// to most specific, so the most specific file's value wins per key.
// Files that are missing or structurally invalid do not contribute.
func (m *Manager) Merged() map[string]string {
	merged, _ := m.MergedWithSources()
	return merged
}

// MergedWithSources is Merged plus, per key, the name of the file that
// supplied the winning value.
func (m *Manager) MergedWithSources() (map[string]string, map[string]string) {
	files := m.Load()

	merged := make(map[string]string)
	sources := make(map[string]string)
	for i := len(files) - 1; i >= 0; i-- {
		f := files[i]
		if !f.Exists || !f.Valid {
			continue
		}
		for key, value := range f.Variables {
			merged[key] = value
			sources[key] = f.Name
		}
	}
	return merged, sources
}

// FileReport is the result of validating a single file.
type FileReport struct {
	Path     string   `json:"path"`
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

// ValidateFile checks one file beyond parse validity: placeholder
// values, localhost URLs in client-exposed variables, empty values for
// required variables, malformed URLs, and git exposure of secret-bearing
// files.
func (m *Manager) ValidateFile(path string) (*FileReport, error) {
	report := &FileReport{Path: path}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	vars := make(map[string]string)
	report.Errors = append(report.Errors, parseEnvFile(content, vars)...)

	required := make(map[string]bool, len(m.policy.RequiredFull))
	for _, name := range m.policy.RequiredFull {
		required[name] = true
	}

	for key, value := range vars {
		if m.policy.IsPlaceholder(value) {
			report.Warnings = append(report.Warnings,
				fmt.Sprintf("%s contains a placeholder value", key))
		}
		if strings.HasPrefix(key, m.policy.PublicPrefix) &&
			strings.Contains(key, "URL") && strings.Contains(value, "localhost") {
			report.Warnings = append(report.Warnings,
				fmt.Sprintf("%s points at localhost but is exposed to clients", key))
		}
		// Empty required values are normal in templates, so this only
		// warns.
		if required[key] && strings.TrimSpace(value) == "" {
			report.Warnings = append(report.Warnings,
				fmt.Sprintf("%s is required but empty", key))
		}
		if strings.Contains(key, "URL") && strings.TrimSpace(value) != "" && !validURL(value) {
			report.Errors = append(report.Errors,
				fmt.Sprintf("%s is not a valid URL: %s", key, value))
		}
	}

	if warn := m.gitExposureWarning(path); warn != "" {
		report.Warnings = append(report.Warnings, warn)
	}

	report.Valid = len(report.Errors) == 0
	return report, nil
}

// validURL requires an absolute URL with a scheme and host.
func validURL(value string) bool {
	u, err := url.Parse(value)
	return err == nil && u.Scheme != "" && u.Host != ""
}
