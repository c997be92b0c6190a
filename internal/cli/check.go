package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newCheckCmd() *cobra.Command {
	var outputFormat string

	cmd := &cobra.Command{
		Use:   "check <path>",
		Short: "Check a single environment file",
		Long: `Check one file for syntax problems, placeholder values, localhost
URLs in client-exposed variables, empty required values, and git
exposure of secrets.

Examples:
  envctl check .env.production
  envctl check ./site/.env -o json`,
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := newManager()
			if err != nil {
				return err
			}

			report, err := mgr.ValidateFile(args[0])
			if err != nil {
				return err
			}

			switch outputFormat {
			case "json":
				data, err := json.MarshalIndent(report, "", "  ")
				if err != nil {
					return fmt.Errorf("failed to marshal JSON: %w", err)
				}
				fmt.Println(string(data))
			case "yaml":
				data, err := yaml.Marshal(report)
				if err != nil {
					return fmt.Errorf("failed to marshal YAML: %w", err)
				}
				fmt.Println(string(data))
			default:
				if report.Valid {
					fmt.Printf("%s is valid.\n", report.Path)
				} else {
					fmt.Printf("%s has problems.\n", report.Path)
				}
				if len(report.Errors) > 0 {
					fmt.Println("\nErrors:")
					for _, e := range report.Errors {
						fmt.Printf("  - %s\n", e)
					}
				}
				if len(report.Warnings) > 0 {
					fmt.Println("\nWarnings:")
					for _, w := range report.Warnings {
						fmt.Printf("  - %s\n", w)
					}
				}
			}

			if !report.Valid {
				return fmt.Errorf("%s failed validation with %d errors", report.Path, len(report.Errors))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "output", "o", "table", "Output format: table, json, yaml")

	return cmd
}
