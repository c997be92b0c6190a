package envfile

import (
	"fmt"
	"path/filepath"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/format/index"
)

// committableNames are templates that are expected to live in version
// control; every other managed file may carry real secrets.
var committableNames = map[string]bool{
	NameExample: true,
	NameSimple:  true,
}

// TrackedInGit reports whether path is tracked by the repository
// enclosing the manager's directory. Outside a repository it reports
// false with no error.
func (m *Manager) TrackedInGit(path string) (bool, error) {
	repo, err := git.PlainOpenWithOptions(m.dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if err == git.ErrRepositoryNotExists {
			return false, nil
		}
		return false, fmt.Errorf("failed to open repository: %w", err)
	}

	wt, err := repo.Worktree()
	if err != nil {
		return false, fmt.Errorf("failed to read worktree: %w", err)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return false, err
	}
	rel, err := filepath.Rel(wt.Filesystem.Root(), abs)
	if err != nil {
		return false, err
	}
	rel = filepath.ToSlash(rel)

	idx, err := repo.Storer.Index()
	if err != nil {
		return false, fmt.Errorf("failed to read index: %w", err)
	}

	if _, err := idx.Entry(rel); err != nil {
		if err == index.ErrEntryNotFound {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// TrackedSecretFiles returns the names of existing secret-bearing
// managed files that are tracked in git. Advisory: lookup failures are
// swallowed.
func (m *Manager) TrackedSecretFiles() []string {
	var names []string
	for _, f := range m.Load() {
		if !f.Exists || committableNames[f.Name] {
			continue
		}
		if tracked, err := m.TrackedInGit(f.Path); err == nil && tracked {
			names = append(names, f.Name)
		}
	}
	return names
}

// gitExposureWarning returns a warning when a secret-bearing managed
// file is tracked in git. Lookup failures are swallowed: the check is
// advisory and must not block validation.
func (m *Manager) gitExposureWarning(path string) string {
	name := filepath.Base(path)
	if committableNames[name] {
		return ""
	}

	tracked, err := m.TrackedInGit(path)
	if err != nil || !tracked {
		return ""
	}
	return fmt.Sprintf("%s is tracked in git; environment files with secrets should be ignored", name)
}
