package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/envctl/envctl/pkg/envfile"
	"github.com/envctl/envctl/pkg/validate"
)

func newValidateCmd() *cobra.Command {
	var outputFormat string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate the resolved environment configuration",
		Long: `Validate the merged environment against the phase-dependent rules.

The managed files are merged by priority, live process variables win
over file values, and the result is checked for the active deployment
phase (simple or full).

Examples:
  envctl validate
  envctl validate --project-dir ./site
  envctl validate -o json`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := newManager()
			if err != nil {
				return err
			}
			pol, err := loadPolicy()
			if err != nil {
				return err
			}

			config, err := validate.New(pol).Validate(mgr.Merged(), envfile.ProcessEnv())
			if err != nil {
				failure := validate.AsFailure(err)
				if failure == nil {
					return err
				}
				switch outputFormat {
				case "json":
					data, merr := json.MarshalIndent(failure, "", "  ")
					if merr != nil {
						return fmt.Errorf("failed to marshal JSON: %w", merr)
					}
					fmt.Println(string(data))
					return fmt.Errorf("environment validation failed with %d errors", len(failure.Errors))
				case "yaml":
					data, merr := yaml.Marshal(failure)
					if merr != nil {
						return fmt.Errorf("failed to marshal YAML: %w", merr)
					}
					fmt.Println(string(data))
					return fmt.Errorf("environment validation failed with %d errors", len(failure.Errors))
				default:
					printAdvisories(failure.Warnings)
					return err
				}
			}

			switch outputFormat {
			case "json":
				data, err := json.MarshalIndent(config, "", "  ")
				if err != nil {
					return fmt.Errorf("failed to marshal JSON: %w", err)
				}
				fmt.Println(string(data))
			case "yaml":
				data, err := yaml.Marshal(config)
				if err != nil {
					return fmt.Errorf("failed to marshal YAML: %w", err)
				}
				fmt.Println(string(data))
			default:
				fmt.Println("Environment configuration is valid!")
				fmt.Printf("  Phase:    %s\n", config.Phase)
				fmt.Printf("  Base URL: %s\n", config.BaseURL)
				fmt.Printf("  Site:     %s\n", config.SiteName)
				if config.Platform != nil && config.Platform.IsHosted {
					fmt.Printf("  Platform: hosted (%s)\n", config.Platform.Environment)
				}
				fmt.Printf("  Features: %s\n", featureList(config.Features))
				printAdvisories(config.Warnings)
			}

			return nil
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "output", "o", "table", "Output format: table, json, yaml")

	return cmd
}

// printAdvisories lists non-blocking findings.
func printAdvisories(warnings []validate.ValidationError) {
	if len(warnings) == 0 {
		return
	}
	fmt.Println("\nWarnings:")
	for _, w := range warnings {
		fmt.Printf("  - %s\n", w.Error())
	}
}

// featureList renders the enabled feature toggles, or "none".
func featureList(f validate.Features) string {
	var on []string
	if f.CMS {
		on = append(on, "cms")
	}
	if f.Auth {
		on = append(on, "auth")
	}
	if f.Search {
		on = append(on, "search")
	}
	if f.AI {
		on = append(on, "ai")
	}
	if f.Media {
		on = append(on, "media")
	}
	if len(on) == 0 {
		return "none"
	}
	return strings.Join(on, ", ")
}
