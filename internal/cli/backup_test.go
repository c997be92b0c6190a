package cli

import (
	"testing"
)

func TestNewBackupCmd(t *testing.T) {
	cmd := newBackupCmd()

	if cmd.Use != "backup" {
		t.Errorf("expected use 'backup', got '%s'", cmd.Use)
	}

	// Check persistent store flags
	if cmd.PersistentFlags().Lookup("store") == nil {
		t.Error("expected --store flag")
	}
	if cmd.PersistentFlags().Lookup("store-config") == nil {
		t.Error("expected --store-config flag")
	}

	// Check that subcommands are registered
	subcommands := make(map[string]bool)
	for _, sub := range cmd.Commands() {
		subcommands[sub.Name()] = true
	}

	expectedCommands := []string{
		"create",
		"list",
		"restore",
	}

	for _, expected := range expectedCommands {
		if !subcommands[expected] {
			t.Errorf("expected subcommand '%s' not found", expected)
		}
	}
}

func TestBackupCreateCmd_Flags(t *testing.T) {
	storeType := ""
	var storeConfig []string
	cmd := newBackupCreateCmd(&storeType, &storeConfig)

	if cmd.Flags().Lookup("description") == nil {
		t.Error("expected --description flag")
	}
	if cmd.Flags().ShorthandLookup("d") == nil {
		t.Error("expected -d shorthand for --description")
	}
}

func TestBackupRestoreCmd_Flags(t *testing.T) {
	storeType := ""
	var storeConfig []string
	cmd := newBackupRestoreCmd(&storeType, &storeConfig)

	if cmd.Flags().Lookup("yes") == nil {
		t.Error("expected --yes flag")
	}
	if cmd.Flags().ShorthandLookup("y") == nil {
		t.Error("expected -y shorthand for --yes")
	}
}

func TestCreateStore(t *testing.T) {
	tmpDir := t.TempDir()

	s, err := createStore("local", []string{"path=" + tmpDir})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Type() != "local" {
		t.Errorf("expected type 'local', got %q", s.Type())
	}
}

func TestCreateStore_InvalidConfig(t *testing.T) {
	_, err := createStore("local", []string{"not-a-pair"})
	if err == nil {
		t.Error("expected error for malformed store config")
	}
}

func TestCreateStore_UnknownType(t *testing.T) {
	_, err := createStore("tape", nil)
	if err == nil {
		t.Error("expected error for unknown store type")
	}
}
