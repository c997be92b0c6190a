package cli

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newSnapshotCmd() *cobra.Command {
	var outputFormat string

	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Capture a snapshot of the resolved environment",
		Long: `Capture the current resolved configuration with sensitive values
redacted, plus an order-independent checksum of the captured mapping.

Examples:
  envctl snapshot
  envctl snapshot -o json`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := newMonitor()
			if err != nil {
				return err
			}

			snap := m.TakeSnapshot()

			switch outputFormat {
			case "json":
				data, err := json.MarshalIndent(snap, "", "  ")
				if err != nil {
					return fmt.Errorf("failed to marshal JSON: %w", err)
				}
				fmt.Println(string(data))
			case "yaml":
				data, err := yaml.Marshal(snap)
				if err != nil {
					return fmt.Errorf("failed to marshal YAML: %w", err)
				}
				fmt.Println(string(data))
			default:
				fmt.Printf("Snapshot at %s\n", snap.Timestamp.Format("2006-01-02 15:04:05"))
				fmt.Printf("  Phase:    %s\n", snap.Phase)
				fmt.Printf("  Checksum: %s\n", snap.Checksum)
				fmt.Printf("  Variables (%d):\n", len(snap.Variables))

				keys := make([]string, 0, len(snap.Variables))
				for key := range snap.Variables {
					keys = append(keys, key)
				}
				sort.Strings(keys)
				for _, key := range keys {
					fmt.Printf("    %s=%s\n", key, snap.Variables[key])
				}
			}

			return nil
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "output", "o", "table", "Output format: table, json, yaml")

	return cmd
}
