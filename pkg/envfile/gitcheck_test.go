package envfile

import (
	"path/filepath"
	"testing"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func commitFile(t *testing.T, repo *git.Repository, name string) {
	t.Helper()

	wt, err := repo.Worktree()
	require.NoError(t, err)
	_, err = wt.Add(name)
	require.NoError(t, err)
	_, err = wt.Commit("add "+name, &git.CommitOptions{
		Author: &object.Signature{Name: "test", Email: "test@example.com", When: time.Now()},
	})
	require.NoError(t, err)
}

func TestTrackedInGit(t *testing.T) {
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)

	m := NewManager(dir, nil, nil)

	writeEnv(t, dir, NameLocal, "NEXTAUTH_SECRET=hunter2\n")
	tracked, err := m.TrackedInGit(filepath.Join(dir, NameLocal))
	require.NoError(t, err)
	assert.False(t, tracked, "untracked file reported as tracked")

	writeEnv(t, dir, NameDefault, "NEXT_PUBLIC_SITE_NAME=My Site\n")
	commitFile(t, repo, NameDefault)

	tracked, err = m.TrackedInGit(filepath.Join(dir, NameDefault))
	require.NoError(t, err)
	assert.True(t, tracked, "committed file not reported as tracked")
}

func TestTrackedInGit_NoRepository(t *testing.T) {
	dir := t.TempDir()
	m := NewManager(dir, nil, nil)

	writeEnv(t, dir, NameDefault, "A=1\n")
	tracked, err := m.TrackedInGit(filepath.Join(dir, NameDefault))
	require.NoError(t, err)
	assert.False(t, tracked)
}

func TestTrackedSecretFiles(t *testing.T) {
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)

	m := NewManager(dir, nil, nil)

	// A committed template is fine; a committed secret-bearing file is
	// not; an untracked secret-bearing file is fine.
	writeEnv(t, dir, NameExample, "NEXT_PUBLIC_BASE_URL=\n")
	commitFile(t, repo, NameExample)
	writeEnv(t, dir, NameDefault, "NEXTAUTH_SECRET=hunter2\n")
	commitFile(t, repo, NameDefault)
	writeEnv(t, dir, NameLocal, "DATABASE_URL=postgresql://u:p@h/db\n")

	assert.Equal(t, []string{NameDefault}, m.TrackedSecretFiles())
}

func TestGitExposureWarningInReport(t *testing.T) {
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)

	m := NewManager(dir, nil, nil)

	path := filepath.Join(dir, NameProduction)
	writeEnv(t, dir, NameProduction, "NEXT_PUBLIC_BASE_URL=https://site.example\n")
	commitFile(t, repo, NameProduction)

	report, err := m.ValidateFile(path)
	require.NoError(t, err)
	require.Len(t, report.Warnings, 1)
	assert.Contains(t, report.Warnings[0], "tracked in git")
}
