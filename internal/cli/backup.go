package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/envctl/envctl/pkg/envfile"
)

func newBackupCmd() *cobra.Command {
	var (
		storeType   string
		storeConfig []string
	)

	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Back up and restore the environment files",
		Long: `Commands for backing up the managed .env files and restoring them.

Backups are written under <project-dir>/.env-backups/<timestamp>/ and
optionally replicated to an offsite store (local, s3, gcs, azurerm).

Examples:
  envctl backup create --description "before migration"
  envctl backup list
  envctl backup restore 20250315-142042
  envctl backup create --store s3 --store-config bucket=env-backups`,
	}

	cmd.PersistentFlags().StringVar(&storeType, "store", "", "Offsite store type (local, s3, gcs, azurerm)")
	cmd.PersistentFlags().StringArrayVar(&storeConfig, "store-config", nil, "Store configuration (key=value)")

	cmd.AddCommand(newBackupCreateCmd(&storeType, &storeConfig))
	cmd.AddCommand(newBackupListCmd(&storeType, &storeConfig))
	cmd.AddCommand(newBackupRestoreCmd(&storeType, &storeConfig))

	return cmd
}

// backupManager builds the file manager, attaching the offsite store
// when one is configured.
func backupManager(storeType string, storeConfig []string) (*envfile.Manager, error) {
	mgr, err := newManager()
	if err != nil {
		return nil, err
	}
	if storeType != "" {
		s, err := createStore(storeType, storeConfig)
		if err != nil {
			return nil, fmt.Errorf("failed to create %s store: %w", storeType, err)
		}
		mgr = mgr.WithStore(s)
	}
	return mgr, nil
}

func newBackupCreateCmd(storeType *string, storeConfig *[]string) *cobra.Command {
	var description string

	cmd := &cobra.Command{
		Use:          "create",
		Short:        "Create a backup of the existing environment files",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := backupManager(*storeType, *storeConfig)
			if err != nil {
				return err
			}

			info, err := mgr.CreateBackup(context.Background(), description)
			if err != nil {
				return err
			}

			fmt.Printf("Backup %s created with %d files:\n", info.Timestamp, len(info.Files))
			for _, name := range info.Files {
				fmt.Printf("  - %s\n", name)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&description, "description", "d", "", "Description stored with the backup")

	return cmd
}

func newBackupListCmd(storeType *string, storeConfig *[]string) *cobra.Command {
	var outputFormat string

	cmd := &cobra.Command{
		Use:          "list",
		Aliases:      []string{"ls"},
		Short:        "List available backups",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := backupManager(*storeType, *storeConfig)
			if err != nil {
				return err
			}

			backups, err := mgr.ListBackups(context.Background())
			if err != nil {
				return err
			}

			switch outputFormat {
			case "json":
				data, err := json.MarshalIndent(backups, "", "  ")
				if err != nil {
					return fmt.Errorf("failed to marshal JSON: %w", err)
				}
				fmt.Println(string(data))
			case "yaml":
				data, err := yaml.Marshal(backups)
				if err != nil {
					return fmt.Errorf("failed to marshal YAML: %w", err)
				}
				fmt.Println(string(data))
			default:
				if len(backups) == 0 {
					fmt.Println("No backups found.")
					return nil
				}
				fmt.Printf("%-17s %-6s %-15s %s\n", "TIMESTAMP", "FILES", "AGE", "DESCRIPTION")
				for _, b := range backups {
					age := "-"
					if created, err := time.ParseInLocation("20060102-150405", b.Timestamp, time.Local); err == nil {
						age = formatTimeAgo(created)
					}
					fmt.Printf("%-17s %-6d %-15s %s\n",
						b.Timestamp,
						len(b.Files),
						age,
						b.Description,
					)
				}
			}

			return nil
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "output", "o", "table", "Output format: table, json, yaml")

	return cmd
}

func newBackupRestoreCmd(storeType *string, storeConfig *[]string) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:          "restore <timestamp>",
		Short:        "Restore the environment files from a backup",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			timestamp := args[0]

			mgr, err := backupManager(*storeType, *storeConfig)
			if err != nil {
				return err
			}

			if !yes {
				ok, err := confirmRestore(timestamp)
				if err != nil {
					return err
				}
				if !ok {
					fmt.Println("Restore cancelled.")
					return nil
				}
			}

			result, err := mgr.RestoreBackup(context.Background(), timestamp)
			if err != nil {
				return err
			}

			for _, name := range result.Restored {
				fmt.Printf("Restored %s\n", name)
			}
			for _, e := range result.Errors {
				fmt.Fprintf(os.Stderr, "Warning: %s\n", e)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")

	return cmd
}

// confirmRestore asks for interactive confirmation. Outside a terminal
// the restore is refused so scripts must pass --yes explicitly.
func confirmRestore(timestamp string) (bool, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return false, fmt.Errorf("refusing to restore without confirmation; re-run with --yes")
	}

	fmt.Printf("Restore backup %s over the current files? The current files are backed up first. [y/N]: ", timestamp)
	reader := bufio.NewReader(os.Stdin)
	input, err := reader.ReadString('\n')
	if err != nil {
		return false, fmt.Errorf("failed to read confirmation: %w", err)
	}

	answer := strings.ToLower(strings.TrimSpace(input))
	return answer == "y" || answer == "yes", nil
}
