package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newSyncCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync <local|production|hosted>",
		Short: "Synchronize variables between environments",
		Long: `Copy variables between environments, rewriting URLs to fit the
target.

Targets:
  local       derive .env.local from the production values, URLs
              pointed back at localhost
  production  derive .env.production from the local values, localhost
              URLs replaced with the production URL
  hosted      pull the hosted platform's values via the vercel CLI

An existing target file is backed up before it is rewritten.

Examples:
  envctl sync local
  envctl sync production`,
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := newManager()
			if err != nil {
				return err
			}

			result, err := mgr.Sync(context.Background(), args[0])
			if err != nil {
				return err
			}

			for _, name := range result.Written {
				fmt.Printf("Wrote %s\n", name)
			}
			for _, e := range result.Errors {
				fmt.Fprintf(os.Stderr, "Warning: %s\n", e)
			}
			if len(result.Written) == 0 && len(result.Errors) > 0 {
				return fmt.Errorf("sync wrote nothing: %s", result.Errors[0])
			}
			return nil
		},
	}

	return cmd
}
