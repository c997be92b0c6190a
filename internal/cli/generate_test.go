package cli

import (
	"testing"
)

func TestNewGenerateCmd(t *testing.T) {
	cmd := newGenerateCmd()

	if cmd.Use != "generate <simple|full|local>" {
		t.Errorf("unexpected use: %s", cmd.Use)
	}

	// Check aliases
	if len(cmd.Aliases) == 0 || cmd.Aliases[0] != "gen" {
		t.Error("expected alias 'gen'")
	}

	if cmd.Flags().Lookup("output") == nil {
		t.Error("expected --output flag")
	}

	// Exactly one positional argument
	if err := cmd.Args(cmd, []string{}); err == nil {
		t.Error("expected error for missing template argument")
	}
	if err := cmd.Args(cmd, []string{"simple"}); err != nil {
		t.Errorf("unexpected error for one argument: %v", err)
	}
	if err := cmd.Args(cmd, []string{"simple", "full"}); err == nil {
		t.Error("expected error for extra arguments")
	}
}

func TestNewSyncCmd(t *testing.T) {
	cmd := newSyncCmd()

	if cmd.Use != "sync <local|production|hosted>" {
		t.Errorf("unexpected use: %s", cmd.Use)
	}

	if err := cmd.Args(cmd, []string{}); err == nil {
		t.Error("expected error for missing target argument")
	}
	if err := cmd.Args(cmd, []string{"local"}); err != nil {
		t.Errorf("unexpected error for one argument: %v", err)
	}
}

func TestNewWatchCmd(t *testing.T) {
	cmd := newWatchCmd()

	if cmd.Use != "watch" {
		t.Errorf("expected use 'watch', got '%s'", cmd.Use)
	}

	if cmd.Flags().Lookup("interval") == nil {
		t.Error("expected --interval flag")
	}
}
