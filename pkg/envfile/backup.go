package envfile

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"time"

	"github.com/envctl/envctl/pkg/backup/store"
	"github.com/envctl/envctl/pkg/errors"
	"go.uber.org/zap"
)

const (
	backupDirName  = ".env-backups"
	backupInfoFile = "backup-info.json"
	storePrefix    = "backups"
)

// BackupInfo is the manifest written alongside every backup.
type BackupInfo struct {
	Timestamp   string   `json:"timestamp"`
	Files       []string `json:"files"`
	Path        string   `json:"path"`
	Description string   `json:"description,omitempty"`
	Errors      []string `json:"errors,omitempty"`
}

// RestoreResult reports which files a restore brought back and which
// failed. Per-file failures do not abort the rest of the restore.
type RestoreResult struct {
	Timestamp string   `json:"timestamp"`
	Restored  []string `json:"restored"`
	Errors    []string `json:"errors,omitempty"`
}

// WithStore attaches an offsite store; backups are replicated to it and
// restores fall back to it when the local copy is gone.
func (m *Manager) WithStore(s store.Store) *Manager {
	m.store = s
	return m
}

// CreateBackup copies every existing managed file into a fresh
// timestamped directory and writes a manifest. Earlier backups are
// never touched. Per-file copy failures are collected on the manifest.
func (m *Manager) CreateBackup(ctx context.Context, description string) (*BackupInfo, error) {
	timestamp := time.Now().Format("20060102-150405")
	backupPath := filepath.Join(m.dir, backupDirName, timestamp)

	// Two backups within the same second get distinct directories.
	for n := 2; ; n++ {
		if _, err := os.Stat(backupPath); os.IsNotExist(err) {
			break
		}
		backupPath = filepath.Join(m.dir, backupDirName, fmt.Sprintf("%s-%d", timestamp, n))
	}

	if err := os.MkdirAll(backupPath, 0755); err != nil {
		return nil, errors.BackupError("create", err)
	}

	info := &BackupInfo{
		Timestamp:   filepath.Base(backupPath),
		Path:        backupPath,
		Description: description,
	}

	for _, spec := range managedFiles {
		src := filepath.Join(m.dir, spec.name)
		if _, err := os.Stat(src); os.IsNotExist(err) {
			continue
		}
		if err := copyFile(src, filepath.Join(backupPath, spec.name)); err != nil {
			info.Errors = append(info.Errors, fmt.Sprintf("failed to back up %s: %v", spec.name, err))
			continue
		}
		info.Files = append(info.Files, spec.name)
	}

	manifest, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return nil, errors.BackupError("create", err)
	}
	if err := writeFileAtomic(filepath.Join(backupPath, backupInfoFile), manifest, 0644); err != nil {
		return nil, errors.BackupError("create", err)
	}

	m.logger.Info("backup created",
		zap.String("timestamp", info.Timestamp),
		zap.Int("files", len(info.Files)))

	if m.store != nil {
		m.replicate(ctx, info, manifest)
	}

	return info, nil
}

// replicate mirrors a finished backup into the offsite store. Upload
// failures are collected, not fatal: the local backup already exists.
func (m *Manager) replicate(ctx context.Context, info *BackupInfo, manifest []byte) {
	for _, name := range info.Files {
		data, err := os.ReadFile(filepath.Join(info.Path, name))
		if err != nil {
			info.Errors = append(info.Errors, fmt.Sprintf("failed to replicate %s: %v", name, err))
			continue
		}
		key := path.Join(storePrefix, info.Timestamp, name)
		if err := m.store.Write(ctx, key, bytes.NewReader(data)); err != nil {
			info.Errors = append(info.Errors, fmt.Sprintf("failed to replicate %s: %v", name, err))
		}
	}
	key := path.Join(storePrefix, info.Timestamp, backupInfoFile)
	if err := m.store.Write(ctx, key, bytes.NewReader(manifest)); err != nil {
		info.Errors = append(info.Errors, fmt.Sprintf("failed to replicate manifest: %v", err))
	}

	m.logger.Info("backup replicated",
		zap.String("store", m.store.Type()),
		zap.String("timestamp", info.Timestamp))
}

// RestoreBackup copies the files recorded in a backup's manifest back
// to their original locations. The current state is backed up first as
// a safety net. Individual missing files are reported, not fatal.
func (m *Manager) RestoreBackup(ctx context.Context, timestamp string) (*RestoreResult, error) {
	info, err := m.readManifest(ctx, timestamp)
	if err != nil {
		return nil, err
	}

	if _, err := m.CreateBackup(ctx, "pre-restore"); err != nil {
		return nil, errors.BackupError("restore", err)
	}

	backupPath := filepath.Join(m.dir, backupDirName, timestamp)
	result := &RestoreResult{Timestamp: timestamp}
	for _, name := range info.Files {
		src := filepath.Join(backupPath, name)
		if err := copyFile(src, filepath.Join(m.dir, name)); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("failed to restore %s: %v", name, err))
			continue
		}
		result.Restored = append(result.Restored, name)
	}

	m.logger.Info("backup restored",
		zap.String("timestamp", timestamp),
		zap.Int("restored", len(result.Restored)),
		zap.Int("failed", len(result.Errors)))

	return result, nil
}

// readManifest loads a backup manifest, pulling the whole backup down
// from the offsite store when the local copy is missing.
func (m *Manager) readManifest(ctx context.Context, timestamp string) (*BackupInfo, error) {
	backupPath := filepath.Join(m.dir, backupDirName, timestamp)
	manifestPath := filepath.Join(backupPath, backupInfoFile)

	data, err := os.ReadFile(manifestPath)
	if os.IsNotExist(err) && m.store != nil {
		if err := m.fetchFromStore(ctx, timestamp, backupPath); err != nil {
			return nil, err
		}
		data, err = os.ReadFile(manifestPath)
	}
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NotFoundError("backup", timestamp)
		}
		return nil, errors.BackupError("restore", err)
	}

	var info BackupInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, errors.ParseError(manifestPath, err)
	}
	return &info, nil
}

// fetchFromStore downloads one replicated backup into the local backup
// directory.
func (m *Manager) fetchFromStore(ctx context.Context, timestamp, backupPath string) error {
	prefix := path.Join(storePrefix, timestamp) + "/"
	keys, err := m.store.List(ctx, prefix)
	if err != nil {
		return errors.StoreError(m.store.Type(), "list", err)
	}
	if len(keys) == 0 {
		return errors.NotFoundError("backup", timestamp)
	}

	if err := os.MkdirAll(backupPath, 0755); err != nil {
		return errors.BackupError("restore", err)
	}

	for _, key := range keys {
		reader, err := m.store.Read(ctx, key)
		if err != nil {
			return errors.StoreError(m.store.Type(), "read", err)
		}
		data, err := io.ReadAll(reader)
		reader.Close()
		if err != nil {
			return errors.StoreError(m.store.Type(), "read", err)
		}
		if err := writeFileAtomic(filepath.Join(backupPath, path.Base(key)), data, 0644); err != nil {
			return errors.BackupError("restore", err)
		}
	}

	m.logger.Info("backup fetched from store",
		zap.String("store", m.store.Type()),
		zap.String("timestamp", timestamp))
	return nil
}

// ListBackups returns every backup manifest, newest first. With an
// offsite store attached, replicated backups missing locally are
// included.
func (m *Manager) ListBackups(ctx context.Context) ([]*BackupInfo, error) {
	seen := make(map[string]bool)
	var infos []*BackupInfo

	root := filepath.Join(m.dir, backupDirName)
	entries, err := os.ReadDir(root)
	if err != nil && !os.IsNotExist(err) {
		return nil, errors.BackupError("list", err)
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(root, entry.Name(), backupInfoFile))
		if err != nil {
			continue // Skip backups without a readable manifest
		}
		var info BackupInfo
		if err := json.Unmarshal(data, &info); err != nil {
			continue
		}
		infos = append(infos, &info)
		seen[info.Timestamp] = true
	}

	if m.store != nil {
		remote, err := m.listStoreManifests(ctx)
		if err != nil {
			m.logger.Warn("failed to list store backups", zap.Error(err))
		}
		for _, info := range remote {
			if !seen[info.Timestamp] {
				infos = append(infos, info)
			}
		}
	}

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].Timestamp > infos[j].Timestamp
	})
	return infos, nil
}

func (m *Manager) listStoreManifests(ctx context.Context) ([]*BackupInfo, error) {
	keys, err := m.store.List(ctx, storePrefix+"/")
	if err != nil {
		return nil, err
	}

	var infos []*BackupInfo
	for _, key := range keys {
		if path.Base(key) != backupInfoFile {
			continue
		}
		reader, err := m.store.Read(ctx, key)
		if err != nil {
			continue
		}
		data, err := io.ReadAll(reader)
		reader.Close()
		if err != nil {
			continue
		}
		var info BackupInfo
		if err := json.Unmarshal(data, &info); err != nil {
			continue
		}
		infos = append(infos, &info)
	}
	return infos, nil
}

// copyFile copies src to dst, creating parent directories as needed.
func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return err
	}
	return os.WriteFile(dst, data, 0644)
}

// writeFileAtomic writes via a temp file and rename so a crash never
// leaves a half-written file behind.
func writeFileAtomic(dst string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(dst)
	tempFile, err := os.CreateTemp(dir, ".envctl-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tempPath := tempFile.Name()

	_, err = tempFile.Write(data)
	if closeErr := tempFile.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to write %s: %w", dst, err)
	}

	if err := os.Chmod(tempPath, perm); err != nil {
		os.Remove(tempPath)
		return err
	}

	if err := os.Rename(tempPath, dst); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to save %s: %w", dst, err)
	}
	return nil
}
