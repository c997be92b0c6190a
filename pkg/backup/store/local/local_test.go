package local

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/envctl/envctl/pkg/backup/store"
)

func TestNewStore(t *testing.T) {
	tmpDir := t.TempDir()

	s, err := NewStore(map[string]string{
		"path": tmpDir,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if s.Type() != "local" {
		t.Errorf("expected type 'local', got %q", s.Type())
	}
}

func TestStore_ReadWrite(t *testing.T) {
	tmpDir := t.TempDir()
	s, _ := NewStore(map[string]string{"path": tmpDir})

	ctx := context.Background()
	testKey := "backups/20250101-120000/.env"
	testData := []byte("NEXT_PUBLIC_BASE_URL=https://example.com\n")

	// Write
	err := s.Write(ctx, testKey, bytes.NewReader(testData))
	if err != nil {
		t.Fatalf("write failed: %v", err)
	}

	// Read
	reader, err := s.Read(ctx, testKey)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		t.Fatalf("read all failed: %v", err)
	}

	if !bytes.Equal(data, testData) {
		t.Errorf("expected %s, got %s", testData, data)
	}
}

func TestStore_ReadNotFound(t *testing.T) {
	tmpDir := t.TempDir()
	s, _ := NewStore(map[string]string{"path": tmpDir})

	ctx := context.Background()

	_, err := s.Read(ctx, "nonexistent")
	if err != store.ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestStore_Delete(t *testing.T) {
	tmpDir := t.TempDir()
	s, _ := NewStore(map[string]string{"path": tmpDir})

	ctx := context.Background()
	testKey := "backups/20250101-120000/.env"

	// Write
	_ = s.Write(ctx, testKey, bytes.NewReader([]byte("A=1\n")))

	// Verify exists
	exists, _ := s.Exists(ctx, testKey)
	if !exists {
		t.Fatal("expected key to exist")
	}

	// Delete
	err := s.Delete(ctx, testKey)
	if err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	// Verify gone
	exists, _ = s.Exists(ctx, testKey)
	if exists {
		t.Error("expected key to not exist after delete")
	}

	// Deleting again is not an error
	if err := s.Delete(ctx, testKey); err != nil {
		t.Errorf("second delete failed: %v", err)
	}
}

func TestStore_List(t *testing.T) {
	tmpDir := t.TempDir()
	s, _ := NewStore(map[string]string{"path": tmpDir})

	ctx := context.Background()

	// Create some keys
	_ = s.Write(ctx, "backups/20250101-120000/.env", bytes.NewReader([]byte("A=1\n")))
	_ = s.Write(ctx, "backups/20250101-120000/backup-info.json", bytes.NewReader([]byte("{}")))
	_ = s.Write(ctx, "other/file.txt", bytes.NewReader([]byte("x")))

	// List all
	keys, err := s.List(ctx, "")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}

	if len(keys) != 3 {
		t.Errorf("expected 3 keys, got %d: %v", len(keys), keys)
	}

	// List with prefix
	keys, err = s.List(ctx, "backups")
	if err != nil {
		t.Fatalf("list with prefix failed: %v", err)
	}

	if len(keys) != 2 {
		t.Errorf("expected 2 keys, got %d: %v", len(keys), keys)
	}

	// Listing a missing prefix is empty, not an error
	keys, err = s.List(ctx, "missing")
	if err != nil {
		t.Fatalf("list of missing prefix failed: %v", err)
	}
	if len(keys) != 0 {
		t.Errorf("expected no keys, got %v", keys)
	}
}

func TestStore_Exists(t *testing.T) {
	tmpDir := t.TempDir()
	s, _ := NewStore(map[string]string{"path": tmpDir})

	ctx := context.Background()
	testKey := "backups/20250101-120000/.env"

	// Check non-existent
	exists, err := s.Exists(ctx, testKey)
	if err != nil {
		t.Fatalf("exists failed: %v", err)
	}
	if exists {
		t.Error("expected key to not exist")
	}

	// Create key
	_ = s.Write(ctx, testKey, bytes.NewReader([]byte("A=1\n")))

	// Check exists
	exists, err = s.Exists(ctx, testKey)
	if err != nil {
		t.Fatalf("exists failed: %v", err)
	}
	if !exists {
		t.Error("expected key to exist")
	}
}

func TestStore_AtomicWrite(t *testing.T) {
	tmpDir := t.TempDir()
	s, _ := NewStore(map[string]string{"path": tmpDir})

	ctx := context.Background()
	testKey := "backups/20250101-120000/.env"

	// Write initial data
	_ = s.Write(ctx, testKey, bytes.NewReader([]byte("VERSION=1\n")))

	// Write updated data
	err := s.Write(ctx, testKey, bytes.NewReader([]byte("VERSION=2\n")))
	if err != nil {
		t.Fatalf("write failed: %v", err)
	}

	// Read and verify
	reader, _ := s.Read(ctx, testKey)
	data, _ := io.ReadAll(reader)
	reader.Close()

	expected := "VERSION=2\n"
	if string(data) != expected {
		t.Errorf("expected %s, got %s", expected, data)
	}
}

func TestRegistry(t *testing.T) {
	tmpDir := t.TempDir()

	s, err := store.Create(store.Config{
		Type:   "local",
		Config: map[string]string{"path": tmpDir},
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if s.Type() != "local" {
		t.Errorf("expected type 'local', got %q", s.Type())
	}

	_, err = store.Create(store.Config{Type: "tape"})
	if err == nil {
		t.Error("expected error for unknown store type")
	}
}
