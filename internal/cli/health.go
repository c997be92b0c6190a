package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/envctl/envctl/pkg/monitor"
)

func newHealthCmd() *cobra.Command {
	var outputFormat string

	cmd := &cobra.Command{
		Use:   "health",
		Short: "Run a one-shot environment health check",
		Long: `Run one full health pass: snapshot, drift detection, validation,
security scan, scoring, and alert synthesis.

The JSON output is the payload monitoring systems consume.

Examples:
  envctl health
  envctl health -o json`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := newMonitor()
			if err != nil {
				return err
			}

			status := m.CheckHealth(context.Background())

			switch outputFormat {
			case "json":
				data, err := json.MarshalIndent(status, "", "  ")
				if err != nil {
					return fmt.Errorf("failed to marshal JSON: %w", err)
				}
				fmt.Println(string(data))
			case "yaml":
				data, err := yaml.Marshal(status)
				if err != nil {
					return fmt.Errorf("failed to marshal YAML: %w", err)
				}
				fmt.Println(string(data))
			default:
				printHealth(status)
			}

			return nil
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "output", "o", "table", "Output format: table, json, yaml")

	return cmd
}

func printHealth(status *monitor.HealthStatus) {
	fmt.Printf("Overall:  %s\n", status.Overall)
	fmt.Printf("Score:    %d/100\n", status.Score)
	fmt.Printf("Phase:    %s\n", status.Phase)
	fmt.Printf("Checksum: %s\n", truncateString(status.Checksum, 12))
	if status.Platform != nil && status.Platform.IsHosted {
		fmt.Printf("Platform: hosted (%s)\n", status.Platform.Environment)
	}

	printIssueBlock("Missing", status.Issues.Missing)
	printIssueBlock("Invalid", status.Issues.Invalid)
	printIssueBlock("Security", status.Issues.Security)
	printIssueBlock("Platform", status.Issues.Platform)
	printIssueBlock("Warnings", status.Issues.Warnings)

	if len(status.Drift) > 0 {
		fmt.Println("\nDrift since last snapshot:")
		for _, d := range status.Drift {
			fmt.Printf("  - [%s] %s %s: %s\n", d.Severity, d.Type, d.Variable, d.Impact)
		}
	}

	if len(status.Alerts) > 0 {
		fmt.Printf("\nActive alerts: %d\n", len(status.Alerts))
		for _, a := range status.Alerts {
			fmt.Printf("  - [%s] %s %s: %s\n", a.Severity, a.Type, a.Variable, a.Message)
		}
	}
}

func printIssueBlock(title string, lines []string) {
	if len(lines) == 0 {
		return
	}
	fmt.Printf("\n%s:\n", title)
	for _, line := range lines {
		fmt.Printf("  - %s\n", line)
	}
}
