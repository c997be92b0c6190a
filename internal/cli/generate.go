package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newGenerateCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:     "generate <simple|full|local>",
		Aliases: []string{"gen"},
		Short:   "Generate an environment file from a template",
		Long: `Generate a commented starter file for a deployment template.

Templates:
  simple    the two required variables, all feature flags off
  full      database, auth, and feature flag sections filled in
  local     localhost overrides for development

An existing destination is copied aside before it is overwritten.

Examples:
  envctl generate simple
  envctl generate full --output ./site/.env.production`,
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := newManager()
			if err != nil {
				return err
			}

			path, err := mgr.Generate(args[0], output)
			if err != nil {
				return err
			}

			fmt.Printf("Generated %s\n", path)
			return nil
		},
	}

	cmd.Flags().StringVar(&output, "output", "", "Output path (default depends on the template)")

	return cmd
}
